// Package diff classifies every tracked item between two board snapshots
// into added, removed, changed, or closed. Compute is a pure function of its
// two arguments; output order follows snapshot insertion order.
package diff

import "boardwatch/internal/snapshot"

// StatusChange records a status transition on a changed item.
type StatusChange struct {
	Prev string `json:"prev"`
	Next string `json:"next"`
}

// FlagChange records a boolean transition (closed, merged).
type FlagChange struct {
	Prev bool `json:"prev"`
	Next bool `json:"next"`
}

// Change is the field-level delta for one changed item. Title and URL always
// carry the next observation; every other field is present only when its
// delta is non-trivial.
type Change struct {
	Title            string        `json:"title"`
	URL              string        `json:"url"`
	PreviousTitle    string        `json:"previous_title,omitempty"`
	Status           *StatusChange `json:"status,omitempty"`
	LabelsAdded      []string      `json:"labels_added,omitempty"`
	LabelsRemoved    []string      `json:"labels_removed,omitempty"`
	AssigneesAdded   []string      `json:"assignees_added,omitempty"`
	AssigneesRemoved []string      `json:"assignees_removed,omitempty"`
	Closed           *FlagChange   `json:"closed,omitempty"`
	Merged           *FlagChange   `json:"merged,omitempty"`
}

// Diff is the full classification between two snapshots.
type Diff struct {
	Added   []snapshot.Item `json:"added"`
	Removed []snapshot.Item `json:"removed"`
	Changed []Change        `json:"changed"`
	Closed  []snapshot.Item `json:"closed"`
}

// Empty reports whether the diff carries no output at all.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && len(d.Closed) == 0
}

// Movement counts items that moved forward this run: added, changed, closed.
func (d Diff) Movement() int {
	return len(d.Added) + len(d.Changed) + len(d.Closed)
}

// Compute walks both key sets. Items present in both snapshots and
// structurally identical (slice order included) produce no output. An item
// closing this run lands only in Closed, never in Changed, whatever else
// moved on it at the same time.
func Compute(prev, next *snapshot.Snapshot) Diff {
	d := Diff{
		Added:   []snapshot.Item{},
		Removed: []snapshot.Item{},
		Changed: []Change{},
		Closed:  []snapshot.Item{},
	}

	for _, id := range prev.IDs() {
		prevItem, _ := prev.Get(id)
		nextItem, ok := next.Get(id)
		switch {
		case !ok:
			d.Removed = append(d.Removed, prevItem)
		case prevItem.Equal(nextItem):
			// unchanged
		case nextItem.Closed:
			d.Closed = append(d.Closed, nextItem)
		default:
			d.Changed = append(d.Changed, buildChange(prevItem, nextItem))
		}
	}

	for _, id := range next.IDs() {
		if !prev.Has(id) {
			item, _ := next.Get(id)
			d.Added = append(d.Added, item)
		}
	}

	return d
}

func buildChange(prev, next snapshot.Item) Change {
	change := Change{Title: next.Title, URL: next.URL}

	if prev.Title != next.Title {
		change.PreviousTitle = prev.Title
	}
	if prev.Status != next.Status {
		change.Status = &StatusChange{Prev: prev.Status, Next: next.Status}
	}

	change.LabelsAdded = difference(next.Labels, prev.Labels)
	change.LabelsRemoved = difference(prev.Labels, next.Labels)
	change.AssigneesAdded = difference(next.Assignees, prev.Assignees)
	change.AssigneesRemoved = difference(prev.Assignees, next.Assignees)

	if prev.Closed != next.Closed {
		change.Closed = &FlagChange{Prev: prev.Closed, Next: next.Closed}
	}
	if prev.Merged != next.Merged {
		change.Merged = &FlagChange{Prev: prev.Merged, Next: next.Merged}
	}

	return change
}

// difference returns the elements of a not present in b, keeping a's order.
// Empty results stay nil so the field is omitted from the change record.
func difference(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(b))
	for _, v := range b {
		exclude[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := exclude[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
