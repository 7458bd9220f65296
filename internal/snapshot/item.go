// Package snapshot holds the persisted state of a project board: tracked
// items, the insertion-ordered id->item mapping, and the versioned envelope
// the mapping is stored in.
package snapshot

import "slices"

// Item is one observed row of board state for a work item.
type Item struct {
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Labels    []string `json:"labels"`
	URL       string   `json:"url"`
	Closed    bool     `json:"closed"`
	Merged    bool     `json:"merged"`
	Assignees []string `json:"assignees"`
}

// Equal reports whether two items are structurally identical. Slice order is
// significant: a reordered labels list counts as a change, matching the
// serialized comparison the stored format has always used.
func (i Item) Equal(other Item) bool {
	return i.Type == other.Type &&
		i.Title == other.Title &&
		i.Status == other.Status &&
		i.URL == other.URL &&
		i.Closed == other.Closed &&
		i.Merged == other.Merged &&
		slices.Equal(i.Labels, other.Labels) &&
		slices.Equal(i.Assignees, other.Assignees)
}
