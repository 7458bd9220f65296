// Package output writes the machine-readable results of a run: each diff
// category as its own JSON file plus the rendered updates text, so downstream
// steps can consume one category without parsing the others.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"boardwatch/internal/diff"
)

// Writer emits run outputs into one directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteDiff serializes the four diff categories to added.json, removed.json,
// changed.json and closed.json.
func (w *Writer) WriteDiff(d diff.Diff) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name string
		data any
	}{
		{"added.json", d.Added},
		{"removed.json", d.Removed},
		{"changed.json", d.Changed},
		{"closed.json", d.Closed},
	}
	for _, file := range files {
		raw, err := json.Marshal(file.data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", file.name, err)
		}
		path := filepath.Join(w.dir, file.name)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file.name, err)
		}
	}
	return nil
}

// WriteUpdates stores the rendered updates text. An empty report still writes
// the file so consumers can distinguish "no changes" from "did not run".
func (w *Writer) WriteUpdates(report string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.dir, "updates.md")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write updates.md: %w", err)
	}
	return nil
}
