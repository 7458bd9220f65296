// Package report turns a board diff into the categorized, emoji-annotated
// update text and its chat-ready variant.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"boardwatch/internal/diff"
	"boardwatch/internal/snapshot"
)

type bucket int

const (
	bucketOther bucket = iota
	bucketStarted
	bucketDone
	bucketBlocked
	bucketReview
	bucketBacklog
)

// Buckets names the workflow statuses that map onto each presentation
// bucket. Statuses outside every bucket take the generic branch.
type Buckets struct {
	Started []string
	Done    []string
	Blocked []string
	Review  []string
	Backlog []string
}

// DefaultBuckets matches the common GitHub project workflow names.
func DefaultBuckets() Buckets {
	return Buckets{
		Started: []string{"In Progress", "Active"},
		Done:    []string{"Done", "Completed"},
		Blocked: []string{"Blocked"},
		Review:  []string{"In Review", "Review"},
		Backlog: []string{"Backlog"},
	}
}

// Renderer produces update reports for a configured set of status buckets.
type Renderer struct {
	buckets Buckets
}

func New(buckets Buckets) *Renderer {
	return &Renderer{buckets: buckets}
}

// FirstRun emits the fixed notice for the run that seeds the baseline. No
// diff is computed for that run.
func (r *Renderer) FirstRun(items *snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString("\n## :information_source: First Run Detected")
	fmt.Fprintf(&b, "\n\nImporting %d issues from the project but will not generate output for this run.", items.Len())
	return b.String()
}

// RenderDiff produces the categorized update text. An entirely empty diff
// renders nothing at all, not a "no changes" section. meta is the metadata
// the previous envelope was loaded with; its lastUpdate/previousUpdate pair
// feeds the elapsed-time phrase when both are present.
func (r *Renderer) RenderDiff(d diff.Diff, meta *snapshot.Metadata) string {
	if d.Empty() {
		return ""
	}

	var started, completed, others []diff.Change
	for _, change := range d.Changed {
		switch r.statusBucket(change) {
		case bucketStarted:
			started = append(started, change)
		case bucketDone:
			completed = append(completed, change)
		default:
			others = append(others, change)
		}
	}

	var b strings.Builder
	suffix := elapsedSuffix(meta)

	if movement := d.Movement(); movement >= 3 {
		fmt.Fprintf(&b, "📈 **%d items moved forward since last update%s**\n\n", movement, suffix)
	}
	if done := len(d.Closed) + len(completed); done >= 2 {
		fmt.Fprintf(&b, "🎉 **%d items completed since last update%s**\n\n", done, suffix)
	}

	if len(started) > 0 {
		b.WriteString("🚀 **Work Started**\n")
		for _, change := range started {
			writeChangeLine(&b, change, r.contextualMessage(change))
		}
		b.WriteString("\n")
	}

	if len(d.Closed)+len(completed) > 0 {
		b.WriteString("✅ **Completed**\n")
		for _, item := range d.Closed {
			writeItemLine(&b, item.Title, item.URL)
		}
		for _, change := range completed {
			writeItemLine(&b, change.Title, change.URL)
		}
		b.WriteString("\n")
	}

	if len(d.Added) > 0 {
		b.WriteString("➕ **Added to Board**\n")
		for _, item := range d.Added {
			writeItemLine(&b, item.Title, item.URL)
		}
		b.WriteString("\n")
	}

	if len(others) > 0 {
		b.WriteString("🔄 **Other Updates**\n")
		for _, change := range others {
			writeChangeLine(&b, change, r.contextualMessage(change))
		}
		b.WriteString("\n")
	}

	if len(d.Removed) > 0 {
		b.WriteString("❌ **Removed from Board**\n")
		for _, item := range d.Removed {
			writeItemLine(&b, item.Title, item.URL)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeItemLine(b *strings.Builder, title, url string) {
	fmt.Fprintf(b, "- [%s](%s)\n", title, url)
}

func writeChangeLine(b *strings.Builder, change diff.Change, context string) {
	if context == "" {
		writeItemLine(b, change.Title, change.URL)
		return
	}
	fmt.Fprintf(b, "- [%s](%s) - %s\n", change.Title, change.URL, context)
}

func (r *Renderer) statusBucket(change diff.Change) bucket {
	if change.Status == nil {
		return bucketOther
	}
	return r.bucketOf(change.Status.Next)
}

func (r *Renderer) bucketOf(status string) bucket {
	match := func(names []string) bool {
		for _, name := range names {
			if strings.EqualFold(name, status) {
				return true
			}
		}
		return false
	}
	switch {
	case match(r.buckets.Done):
		return bucketDone
	case match(r.buckets.Started):
		return bucketStarted
	case match(r.buckets.Blocked):
		return bucketBlocked
	case match(r.buckets.Review):
		return bucketReview
	case match(r.buckets.Backlog):
		return bucketBacklog
	default:
		return bucketOther
	}
}

// contextualMessage builds the clause list for one change record, joined
// with " • ". Fields absent from the record contribute nothing.
func (r *Renderer) contextualMessage(change diff.Change) string {
	var clauses []string

	if change.PreviousTitle != "" {
		clauses = append(clauses, fmt.Sprintf("✏️ Renamed (was %q)", change.PreviousTitle))
	}

	if change.Status != nil {
		clauses = append(clauses, r.statusClause(*change.Status))
	}

	if len(change.LabelsAdded) > 0 {
		flagged, plain := splitPriorityLabels(change.LabelsAdded)
		if len(flagged) > 0 {
			clauses = append(clauses, "🚨 Flagged: "+strings.Join(flagged, ", "))
		}
		if len(plain) > 0 {
			clauses = append(clauses, "🏷️ Tagged: "+strings.Join(plain, ", "))
		}
	}
	if len(change.LabelsRemoved) > 0 {
		clauses = append(clauses, "🏷️ Untagged: "+strings.Join(change.LabelsRemoved, ", "))
	}

	if len(change.AssigneesAdded) > 0 {
		clauses = append(clauses, "👨‍💻 "+strings.Join(change.AssigneesAdded, ", ")+" picked this up")
	}
	if len(change.AssigneesRemoved) > 0 {
		clauses = append(clauses, "👋 "+strings.Join(change.AssigneesRemoved, ", ")+" unassigned from this")
	}

	if change.Closed != nil {
		if change.Closed.Next {
			clauses = append(clauses, "✅ Closed")
		} else {
			clauses = append(clauses, "♻️ Reopened")
		}
	}
	if change.Merged != nil {
		if change.Merged.Next {
			clauses = append(clauses, "🔀 Merged")
		} else {
			clauses = append(clauses, "↩️ Unmerged")
		}
	}

	return strings.Join(clauses, " • ")
}

func (r *Renderer) statusClause(status diff.StatusChange) string {
	switch r.bucketOf(status.Next) {
	case bucketDone:
		return "🎉 Completed"
	case bucketStarted:
		return "🚀 Work started"
	case bucketBlocked:
		return "🚧 Blocked"
	case bucketReview:
		return "👀 In review"
	case bucketBacklog:
		return "📋 Back to backlog"
	default:
		return fmt.Sprintf("🔄 Status: %s → %s", status.Prev, status.Next)
	}
}

// splitPriorityLabels separates labels that read as urgent (substring match,
// case-insensitive) from the rest.
func splitPriorityLabels(labels []string) (flagged, plain []string) {
	for _, label := range labels {
		lower := strings.ToLower(label)
		if strings.Contains(lower, "priority") || strings.Contains(lower, "urgent") {
			flagged = append(flagged, label)
		} else {
			plain = append(plain, label)
		}
	}
	return flagged, plain
}

// elapsedSuffix renders " (30 minutes ago)" style context from the loaded
// metadata, or "" when either timestamp is missing.
func elapsedSuffix(meta *snapshot.Metadata) string {
	if meta == nil || meta.LastUpdate == nil || meta.PreviousUpdate == nil {
		return ""
	}
	hours := meta.LastUpdate.Sub(*meta.PreviousUpdate).Hours()
	return " (" + formatElapsed(hours) + ")"
}

func formatElapsed(hours float64) string {
	if hours < 1 {
		minutes := int(hours*60 + 0.5)
		return fmt.Sprintf("%d %s ago", minutes, pluralize(minutes == 1, "minute"))
	}
	if hours < 24 {
		value := strconv.FormatFloat(hours, 'f', 1, 64)
		return fmt.Sprintf("%s %s ago", value, pluralize(value == "1.0", "hour"))
	}
	value := strconv.FormatFloat(hours/24, 'f', 1, 64)
	return fmt.Sprintf("%s %s ago", value, pluralize(value == "1.0", "day"))
}

func pluralize(singular bool, unit string) string {
	if singular {
		return unit
	}
	return unit + "s"
}
