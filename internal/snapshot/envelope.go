package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the persistence format version written by this build.
const Version = "2.0"

// Metadata describes one persisted observation of the board.
type Metadata struct {
	Version        string     `json:"version"`
	LastUpdate     *time.Time `json:"lastUpdate"`
	RunID          *string    `json:"runId"`
	PreviousUpdate *time.Time `json:"previousUpdate"`
}

// Envelope is the persisted unit. The wire key is "_metadata": a payload
// without that key is a legacy bare snapshot in its entirety, and migration
// keys on exactly its absence.
type Envelope struct {
	Metadata Metadata  `json:"_metadata"`
	Items    *Snapshot `json:"items"`
}

func legacyMetadata() Metadata {
	return Metadata{Version: Version}
}

// Decode reads a persisted payload in either format. Enveloped payloads
// return their metadata and items verbatim; anything else is treated as a
// legacy bare snapshot with synthesized default metadata. Decode fails only
// when the payload is not a JSON object at all.
func Decode(raw []byte) (*Snapshot, Metadata, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode stored snapshot: %w", err)
	}

	metaRaw, hasMeta := keys["_metadata"]
	itemsRaw, hasItems := keys["items"]
	if hasMeta && hasItems {
		var meta Metadata
		if err := json.Unmarshal(metaRaw, &meta); err == nil {
			items := New()
			if err := json.Unmarshal(itemsRaw, items); err == nil {
				return items, meta, nil
			}
		}
		// Malformed metadata or items degrades to the legacy path below.
	}

	items := New()
	if err := json.Unmarshal(raw, items); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode legacy snapshot: %w", err)
	}
	return items, legacyMetadata(), nil
}

// Build assembles the next envelope to persist. previous carries the metadata
// the current run was loaded with; its lastUpdate becomes the new
// previousUpdate so the next run can report elapsed time.
func Build(items *Snapshot, previous *Metadata, now time.Time) Envelope {
	runID := RunID(now)
	meta := Metadata{
		Version:    Version,
		LastUpdate: &now,
		RunID:      &runID,
	}
	if previous != nil {
		meta.PreviousUpdate = previous.LastUpdate
	}
	return Envelope{Metadata: meta, Items: items}
}

// RunID derives the opaque run label from a timestamp: UTC calendar and time
// digits with punctuation stripped, e.g. "20250729T090000". Sortable, never
// parsed back.
func RunID(now time.Time) string {
	return now.UTC().Format("20060102T150405")
}

// Encode renders an envelope the way it is stored: indented JSON with a
// trailing newline.
func (e Envelope) Encode() ([]byte, error) {
	payload, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return append(payload, '\n'), nil
}
