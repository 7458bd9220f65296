package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"boardwatch/internal/diff"
	"boardwatch/internal/snapshot"
)

func TestWriteDiffEmitsEachCategory(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)

	d := diff.Diff{
		Added:   []snapshot.Item{{Title: "New Item", URL: "https://example.com/1"}},
		Removed: []snapshot.Item{},
		Changed: []diff.Change{{Title: "Changed Item", URL: "https://example.com/2"}},
		Closed:  []snapshot.Item{},
	}
	if err := writer.WriteDiff(d); err != nil {
		t.Fatalf("WriteDiff() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "added.json"))
	if err != nil {
		t.Fatalf("read added.json: %v", err)
	}
	var added []snapshot.Item
	if err := json.Unmarshal(raw, &added); err != nil {
		t.Fatalf("decode added.json: %v", err)
	}
	if len(added) != 1 || added[0].Title != "New Item" {
		t.Fatalf("added.json = %+v", added)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "removed.json"))
	if err != nil {
		t.Fatalf("read removed.json: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("removed.json = %q, want empty array not null", raw)
	}

	for _, name := range []string{"changed.json", "closed.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestWriteUpdatesWritesEmptyFileForNoChanges(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)

	if err := writer.WriteUpdates(""); err != nil {
		t.Fatalf("WriteUpdates() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "updates.md"))
	if err != nil {
		t.Fatalf("read updates.md: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("updates.md = %q, want empty", raw)
	}
}

func TestWriteUpdatesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)

	report := "🚀 **Work Started**\n- [A](u)\n\n"
	if err := writer.WriteUpdates(report); err != nil {
		t.Fatalf("WriteUpdates() error = %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "updates.md"))
	if err != nil {
		t.Fatalf("read updates.md: %v", err)
	}
	if string(raw) != report {
		t.Fatalf("updates.md = %q, want %q", raw, report)
	}
}
