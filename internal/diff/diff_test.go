package diff

import (
	"testing"

	"boardwatch/internal/snapshot"
)

func sampleOldItems() *snapshot.Snapshot {
	s := snapshot.New()
	s.Set("ITEM_1", snapshot.Item{
		Type: "ISSUE", Title: "Fix bug in login", Status: "Todo",
		Labels: []string{"bug"}, URL: "https://github.com/test/repo/issues/1",
		Assignees: []string{},
	})
	s.Set("ITEM_2", snapshot.Item{
		Type: "ISSUE", Title: "Add new feature", Status: "In Progress",
		Labels: []string{"enhancement"}, URL: "https://github.com/test/repo/issues/2",
		Assignees: []string{"alice"},
	})
	return s
}

func sampleNewItems() *snapshot.Snapshot {
	s := snapshot.New()
	s.Set("ITEM_1", snapshot.Item{
		Type: "ISSUE", Title: "Fix critical bug in login", Status: "In Progress",
		Labels: []string{"bug", "high-priority"}, URL: "https://github.com/test/repo/issues/1",
		Assignees: []string{"bob"},
	})
	s.Set("ITEM_2", snapshot.Item{
		Type: "ISSUE", Title: "Add new feature", Status: "Done",
		Labels: []string{"enhancement"}, URL: "https://github.com/test/repo/issues/2",
		Closed: true, Assignees: []string{"alice"},
	})
	s.Set("ITEM_3", snapshot.Item{
		Type: "ISSUE", Title: "New issue", Status: "Todo",
		Labels: []string{}, URL: "https://github.com/test/repo/issues/3",
		Assignees: []string{},
	})
	return s
}

func subset(src *snapshot.Snapshot, ids ...string) *snapshot.Snapshot {
	out := snapshot.New()
	for _, id := range ids {
		item, ok := src.Get(id)
		if !ok {
			panic("missing fixture item " + id)
		}
		out.Set(id, item)
	}
	return out
}

func TestComputeIdentifiesAdded(t *testing.T) {
	d := Compute(subset(sampleOldItems(), "ITEM_1"), subset(sampleNewItems(), "ITEM_1", "ITEM_3"))

	if len(d.Added) != 1 {
		t.Fatalf("Added length = %d, want 1", len(d.Added))
	}
	if d.Added[0].Title != "New issue" {
		t.Fatalf("Added[0].Title = %q", d.Added[0].Title)
	}
}

func TestComputeIdentifiesRemoved(t *testing.T) {
	d := Compute(sampleOldItems(), subset(sampleNewItems(), "ITEM_1"))

	if len(d.Removed) != 1 {
		t.Fatalf("Removed length = %d, want 1", len(d.Removed))
	}
	if d.Removed[0].Title != "Add new feature" {
		t.Fatalf("Removed[0].Title = %q", d.Removed[0].Title)
	}
}

func TestComputeIdentifiesChanged(t *testing.T) {
	d := Compute(subset(sampleOldItems(), "ITEM_1"), subset(sampleNewItems(), "ITEM_1"))

	if len(d.Changed) != 1 {
		t.Fatalf("Changed length = %d, want 1", len(d.Changed))
	}
	change := d.Changed[0]
	if change.Title != "Fix critical bug in login" {
		t.Fatalf("Title = %q", change.Title)
	}
	if change.PreviousTitle != "Fix bug in login" {
		t.Fatalf("PreviousTitle = %q", change.PreviousTitle)
	}
	if change.Status == nil || change.Status.Prev != "Todo" || change.Status.Next != "In Progress" {
		t.Fatalf("Status = %+v", change.Status)
	}
	if len(change.LabelsAdded) != 1 || change.LabelsAdded[0] != "high-priority" {
		t.Fatalf("LabelsAdded = %v", change.LabelsAdded)
	}
	if len(change.AssigneesAdded) != 1 || change.AssigneesAdded[0] != "bob" {
		t.Fatalf("AssigneesAdded = %v", change.AssigneesAdded)
	}
	if change.AssigneesRemoved != nil {
		t.Fatalf("AssigneesRemoved = %v, want none for a previously unassigned item", change.AssigneesRemoved)
	}
	if change.Closed != nil || change.Merged != nil {
		t.Fatalf("unexpected flag deltas: %+v", change)
	}
}

func TestComputeClosedPrecedence(t *testing.T) {
	// ITEM_2 closes this run while its status and nothing else also moved:
	// it must land only in Closed.
	d := Compute(subset(sampleOldItems(), "ITEM_2"), subset(sampleNewItems(), "ITEM_2"))

	if len(d.Closed) != 1 {
		t.Fatalf("Closed length = %d, want 1", len(d.Closed))
	}
	if d.Closed[0].Title != "Add new feature" {
		t.Fatalf("Closed[0].Title = %q", d.Closed[0].Title)
	}
	if len(d.Changed) != 0 {
		t.Fatalf("Changed length = %d, want 0", len(d.Changed))
	}
}

func TestComputeClosedPrecedenceWithSimultaneousLabelChanges(t *testing.T) {
	prev := snapshot.New()
	prev.Set("X", snapshot.Item{Title: "T", Labels: []string{"a"}})
	next := snapshot.New()
	next.Set("X", snapshot.Item{Title: "T2", Labels: []string{"b"}, Closed: true})

	d := Compute(prev, next)
	if len(d.Closed) != 1 || len(d.Changed) != 0 {
		t.Fatalf("Closed = %d, Changed = %d; want 1, 0", len(d.Closed), len(d.Changed))
	}
	if d.Closed[0].Title != "T2" {
		t.Fatalf("Closed carries %q, want the full next item", d.Closed[0].Title)
	}
}

func TestComputeEmptyPrev(t *testing.T) {
	d := Compute(snapshot.New(), sampleNewItems())

	if len(d.Added) != 3 {
		t.Fatalf("Added length = %d, want 3", len(d.Added))
	}
	if len(d.Removed)+len(d.Changed)+len(d.Closed) != 0 {
		t.Fatalf("unexpected non-added output: %+v", d)
	}
}

func TestComputeIdenticalSnapshots(t *testing.T) {
	s := sampleOldItems()
	d := Compute(s, s)

	if !d.Empty() {
		t.Fatalf("diff of identical snapshots not empty: %+v", d)
	}
}

func TestComputeLabelSetAlgebra(t *testing.T) {
	prev := snapshot.New()
	prev.Set("ITEM_1", snapshot.Item{Title: "T", Labels: []string{"bug", "frontend"}})
	next := snapshot.New()
	next.Set("ITEM_1", snapshot.Item{Title: "T", Labels: []string{"bug", "backend", "urgent"}})

	d := Compute(prev, next)
	change := d.Changed[0]
	if len(change.LabelsAdded) != 2 || change.LabelsAdded[0] != "backend" || change.LabelsAdded[1] != "urgent" {
		t.Fatalf("LabelsAdded = %v", change.LabelsAdded)
	}
	if len(change.LabelsRemoved) != 1 || change.LabelsRemoved[0] != "frontend" {
		t.Fatalf("LabelsRemoved = %v", change.LabelsRemoved)
	}
	for _, added := range change.LabelsAdded {
		for _, removed := range change.LabelsRemoved {
			if added == removed {
				t.Fatalf("label %q in both added and removed", added)
			}
		}
	}
}

func TestComputeReopenRecordsFlagDelta(t *testing.T) {
	prev := snapshot.New()
	prev.Set("X", snapshot.Item{Title: "T", Closed: true})
	next := snapshot.New()
	next.Set("X", snapshot.Item{Title: "T", Closed: false})

	d := Compute(prev, next)
	if len(d.Changed) != 1 {
		t.Fatalf("Changed length = %d, want 1", len(d.Changed))
	}
	closed := d.Changed[0].Closed
	if closed == nil || !closed.Prev || closed.Next {
		t.Fatalf("Closed delta = %+v, want true->false", closed)
	}
}

func TestComputePartition(t *testing.T) {
	prev := sampleOldItems()
	next := sampleNewItems()
	d := Compute(prev, next)

	total := len(d.Added) + len(d.Removed) + len(d.Changed) + len(d.Closed)
	// ITEM_1 changed, ITEM_2 closed, ITEM_3 added.
	if total != 3 {
		t.Fatalf("classified %d items, want 3", total)
	}
}

func TestComputeReorderOnlyYieldsEmptyChangeRecord(t *testing.T) {
	// Whole-record equality is order-sensitive while label deltas are set
	// differences, so a pure reorder classifies as changed with no fields.
	prev := snapshot.New()
	prev.Set("X", snapshot.Item{Title: "T", URL: "u", Labels: []string{"a", "b"}})
	next := snapshot.New()
	next.Set("X", snapshot.Item{Title: "T", URL: "u", Labels: []string{"b", "a"}})

	d := Compute(prev, next)
	if len(d.Changed) != 1 {
		t.Fatalf("Changed length = %d, want 1", len(d.Changed))
	}
	change := d.Changed[0]
	if change.PreviousTitle != "" || change.Status != nil ||
		change.LabelsAdded != nil || change.LabelsRemoved != nil ||
		change.AssigneesAdded != nil || change.AssigneesRemoved != nil ||
		change.Closed != nil || change.Merged != nil {
		t.Fatalf("expected empty delta, got %+v", change)
	}
}

func TestComputeOutputFollowsInsertionOrder(t *testing.T) {
	prev := snapshot.New()
	prev.Set("B", snapshot.Item{Title: "b1"})
	prev.Set("A", snapshot.Item{Title: "a1"})
	next := snapshot.New()
	next.Set("B", snapshot.Item{Title: "b2"})
	next.Set("A", snapshot.Item{Title: "a2"})
	next.Set("D", snapshot.Item{Title: "d"})
	next.Set("C", snapshot.Item{Title: "c"})

	d := Compute(prev, next)
	if d.Changed[0].Title != "b2" || d.Changed[1].Title != "a2" {
		t.Fatalf("Changed order = %v", []string{d.Changed[0].Title, d.Changed[1].Title})
	}
	if d.Added[0].Title != "d" || d.Added[1].Title != "c" {
		t.Fatalf("Added order = %v", []string{d.Added[0].Title, d.Added[1].Title})
	}
}
