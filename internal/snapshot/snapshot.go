package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is an id-keyed mapping of tracked items. Insertion order is
// preserved and is the canonical iteration order for diff output, so the JSON
// codec walks object keys token by token instead of going through a Go map.
type Snapshot struct {
	ids   []string
	items map[string]Item
}

func New() *Snapshot {
	return &Snapshot{items: make(map[string]Item)}
}

// Set inserts or replaces an item. A replaced item keeps its original
// position in the iteration order.
func (s *Snapshot) Set(id string, item Item) {
	if s.items == nil {
		s.items = make(map[string]Item)
	}
	if _, ok := s.items[id]; !ok {
		s.ids = append(s.ids, id)
	}
	s.items[id] = item
}

func (s *Snapshot) Get(id string) (Item, bool) {
	item, ok := s.items[id]
	return item, ok
}

func (s *Snapshot) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

func (s *Snapshot) Len() int {
	return len(s.ids)
}

// IDs returns the item ids in insertion order. The returned slice is a copy.
func (s *Snapshot) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, fmt.Errorf("marshal item id: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(s.items[id])
		if err != nil {
			return nil, fmt.Errorf("marshal item %s: %w", id, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an id->item object preserving key order. Entries
// whose value is not an object are skipped rather than failing the load:
// migration has to be total over any JSON object shape.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	s.ids = nil
	s.items = make(map[string]Item)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode snapshot: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode snapshot key: %w", err)
		}
		id := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode snapshot value %s: %w", id, err)
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		s.Set(id, item)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode snapshot close: %w", err)
	}
	return nil
}
