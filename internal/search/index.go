// Package search keeps an optional Meilisearch index of the current board so
// items can be found by title outside GitHub. The index mirrors the latest
// snapshot; failures degrade the run, never fail it.
package search

import (
	"fmt"
	"log"

	meili "github.com/meilisearch/meilisearch-go"

	"boardwatch/internal/snapshot"
)

const idxItems = "boardwatch_items"

// Index mirrors board items into Meilisearch.
type Index struct {
	client meili.ServiceManager
}

// NewIndex creates a Meilisearch client and configures the items index.
// Returns nil if the connection fails (caller should proceed without it).
func NewIndex(url, apiKey string) *Index {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		return nil
	}

	idx := &Index{client: client}
	idx.configureIndex()
	return idx
}

func (x *Index) configureIndex() {
	if _, err := x.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxItems,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxItems, err)
	}

	index := x.client.Index(idxItems)
	filterable := []interface{}{"status", "type", "closed"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxItems, err)
	}
	searchable := []string{"title", "labels", "assignees"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxItems, err)
	}
}

type itemDocument struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Labels    []string `json:"labels"`
	URL       string   `json:"url"`
	Closed    bool     `json:"closed"`
	Assignees []string `json:"assignees"`
}

// IndexItems replaces the index contents with the given snapshot.
func (x *Index) IndexItems(items *snapshot.Snapshot) error {
	docs := make([]itemDocument, 0, items.Len())
	for _, id := range items.IDs() {
		item, _ := items.Get(id)
		docs = append(docs, itemDocument{
			ID:        id,
			Type:      item.Type,
			Title:     item.Title,
			Status:    item.Status,
			Labels:    item.Labels,
			URL:       item.URL,
			Closed:    item.Closed,
			Assignees: item.Assignees,
		})
	}

	index := x.client.Index(idxItems)
	if _, err := index.DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("clear items index: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := index.AddDocuments(docs, nil); err != nil {
		return fmt.Errorf("index %d items: %w", len(docs), err)
	}
	return nil
}
