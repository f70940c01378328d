package posts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryArchiveRepository keeps archive records in-memory. It backs the store
// when no database is configured and doubles as a test double.
type MemoryArchiveRepository struct {
	mu      sync.RWMutex
	records map[string]*Document
}

// NewMemoryArchiveRepository constructs an empty archive.
func NewMemoryArchiveRepository() *MemoryArchiveRepository {
	return &MemoryArchiveRepository{
		records: make(map[string]*Document),
	}
}

// Upsert inserts or replaces the record keyed by identifier.
func (m *MemoryArchiveRepository) Upsert(_ context.Context, record *Document) (*Document, error) {
	if record == nil {
		return nil, ErrDocumentRequired
	}
	if record.Identifier == "" {
		return nil, ErrIdentifierRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	copied := record.Clone()
	if existing, ok := m.records[copied.Identifier]; ok && !existing.LoadedAt.IsZero() {
		copied.LoadedAt = existing.LoadedAt
	} else if copied.LoadedAt.IsZero() {
		copied.LoadedAt = now
	}
	copied.UpdatedAt = now

	m.records[copied.Identifier] = copied
	return copied.Clone(), nil
}

// GetByIdentifier fetches a record by identifier.
func (m *MemoryArchiveRepository) GetByIdentifier(_ context.Context, identifier string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[identifier]
	if !ok {
		return nil, &NotFoundError{Resource: "document", Key: identifier}
	}
	return record.Clone(), nil
}

// List returns every archived record ordered by publication time ascending.
func (m *MemoryArchiveRepository) List(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Document, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].Identifier < out[j].Identifier
		}
		return out[i].PublishedAt.Before(out[j].PublishedAt)
	})
	return out, nil
}

// DeleteStale removes every record whose identifier is not in keep and
// reports how many were removed.
func (m *MemoryArchiveRepository) DeleteStale(_ context.Context, keep []string) (int, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, identifier := range keep {
		keepSet[identifier] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for identifier := range m.records {
		if _, ok := keepSet[identifier]; !ok {
			delete(m.records, identifier)
			removed++
		}
	}
	return removed, nil
}
