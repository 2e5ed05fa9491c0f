// Package search provides full-text search over saved links using Bleve.
// Every query is scoped to one user; the index itself is shared.
package search

import (
	"github.com/linkstashapp/linkstash-server/internal/domain"
)

// LinkDocument is the document structure for the Bleve index.
//
// Tag names are denormalized into the document so a single query covers
// title, description, and tags without a store lookup per hit.
type LinkDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsArchived  bool     `json:"is_archived"`

	// Unix millis, for recency sorting.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve defaults to Go struct field names, our mapping uses lowercase.
func (d *LinkDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"user_id":     d.UserID,
		"url":         d.URL,
		"title":       d.Title,
		"is_archived": d.IsArchived,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}

	return m
}

// LinkToDocument converts a domain Link to a LinkDocument. Tag names are
// provided by the caller; the search package does not depend on the store.
func LinkToDocument(link *domain.Link, tagNames []string) *LinkDocument {
	return &LinkDocument{
		ID:          link.ID,
		UserID:      link.UserID,
		URL:         link.URL,
		Title:       link.Title,
		Description: link.Description,
		Tags:        tagNames,
		IsArchived:  link.IsArchived,
		CreatedAt:   link.CreatedAt.UnixMilli(),
		UpdatedAt:   link.UpdatedAt.UnixMilli(),
	}
}
