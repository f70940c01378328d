package posts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status marks where a document sits in its authoring lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Document is the canonical record for a published essay. The same struct
// backs the in-memory snapshot and the relational archive, so it carries bun
// annotations alongside the domain fields.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Identifier  string         `bun:"identifier,notnull,unique" json:"identifier"`
	Slug        string         `bun:"slug,notnull" json:"slug"`
	Title       string         `bun:"title,notnull" json:"title"`
	Layout      string         `bun:"layout" json:"layout,omitempty"`
	Summary     *string        `bun:"summary" json:"summary,omitempty"`
	Status      Status         `bun:"status,notnull,default:'published'" json:"status"`
	PublishedAt time.Time      `bun:"published_at,notnull" json:"published_at"`
	Categories  []string       `bun:"categories,type:jsonb" json:"categories,omitempty"`
	Body        []byte         `bun:"body" json:"body,omitempty"`
	BodyHTML    []byte         `bun:"body_html" json:"body_html,omitempty"`
	SourcePath  string         `bun:"source_path,notnull" json:"source_path"`
	Checksum    []byte         `bun:"checksum" json:"checksum,omitempty"`
	Metadata    map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	LoadedAt    time.Time      `bun:"loaded_at,nullzero,default:current_timestamp" json:"loaded_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Clone returns a deep copy so callers can hold documents across snapshot
// swaps without observing shared state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	copied := *d
	if d.Summary != nil {
		summary := *d.Summary
		copied.Summary = &summary
	}
	if d.Categories != nil {
		copied.Categories = append([]string(nil), d.Categories...)
	}
	if d.Body != nil {
		copied.Body = append([]byte(nil), d.Body...)
	}
	if d.BodyHTML != nil {
		copied.BodyHTML = append([]byte(nil), d.BodyHTML...)
	}
	if d.Checksum != nil {
		copied.Checksum = append([]byte(nil), d.Checksum...)
	}
	if d.Metadata != nil {
		metadata := make(map[string]any, len(d.Metadata))
		for key, value := range d.Metadata {
			metadata[key] = value
		}
		copied.Metadata = metadata
	}
	return &copied
}

// HasCategory reports whether the document carries the category,
// case-insensitively.
func (d *Document) HasCategory(category string) bool {
	if d == nil {
		return false
	}
	for _, candidate := range d.Categories {
		if strings.EqualFold(candidate, category) {
			return true
		}
	}
	return false
}

// CategoryCount pairs a category name with the number of documents carrying it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
