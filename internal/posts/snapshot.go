package posts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Snapshot is an immutable view of the document corpus at a point in time.
// Reloads build a fresh snapshot and swap it in atomically, so readers never
// observe a partially loaded corpus.
type Snapshot struct {
	documents  []*Document
	byID       map[string]*Document
	categories map[string][]*Document
	labels     map[string]string
	issues     []*ParseError
	loadedAt   time.Time
}

// NewSnapshot builds a snapshot from documents in load order. Documents are
// cloned on ingest, ordered by publication time (ties broken by identifier),
// and indexed by identifier and category. When two sources resolve to the same
// identifier the earlier one wins and the later is recorded as an issue.
func NewSnapshot(docs []*Document, issues []*ParseError, loadedAt time.Time) *Snapshot {
	snapshot := &Snapshot{
		documents:  make([]*Document, 0, len(docs)),
		byID:       make(map[string]*Document, len(docs)),
		categories: make(map[string][]*Document),
		labels:     make(map[string]string),
		issues:     append([]*ParseError(nil), issues...),
		loadedAt:   loadedAt,
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if existing, ok := snapshot.byID[doc.Identifier]; ok {
			snapshot.issues = append(snapshot.issues, &ParseError{
				Path:   doc.SourcePath,
				Issues: []string{fmt.Sprintf("identifier %q already used by %s", doc.Identifier, existing.SourcePath)},
			})
			continue
		}
		clone := doc.Clone()
		snapshot.documents = append(snapshot.documents, clone)
		snapshot.byID[clone.Identifier] = clone
	}

	sort.Slice(snapshot.documents, func(i, j int) bool {
		left, right := snapshot.documents[i], snapshot.documents[j]
		if left.PublishedAt.Equal(right.PublishedAt) {
			return left.Identifier < right.Identifier
		}
		return left.PublishedAt.Before(right.PublishedAt)
	})

	for _, doc := range snapshot.documents {
		for _, category := range doc.Categories {
			key := strings.ToLower(strings.TrimSpace(category))
			if key == "" {
				continue
			}
			if _, seen := snapshot.labels[key]; !seen {
				snapshot.labels[key] = strings.TrimSpace(category)
			}
			snapshot.categories[key] = append(snapshot.categories[key], doc)
		}
	}

	return snapshot
}

// EmptySnapshot returns a snapshot with no documents, used before the first load.
func EmptySnapshot(loadedAt time.Time) *Snapshot {
	return NewSnapshot(nil, nil, loadedAt)
}

// Documents returns every document ordered by publication time ascending.
// The returned slice and its elements are copies.
func (s *Snapshot) Documents() []*Document {
	return cloneDocuments(s.documents)
}

// Get looks up a document by identifier.
func (s *Snapshot) Get(identifier string) (*Document, bool) {
	doc, ok := s.byID[identifier]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// ByCategory returns the documents tagged with the supplied category,
// preserving publication order. Category matching is case-insensitive.
func (s *Snapshot) ByCategory(category string) []*Document {
	key := strings.ToLower(strings.TrimSpace(category))
	return cloneDocuments(s.categories[key])
}

// Categories reports every category present in the snapshot with its document
// count, ordered by name.
func (s *Snapshot) Categories() []CategoryCount {
	counts := make([]CategoryCount, 0, len(s.categories))
	for key, docs := range s.categories {
		counts = append(counts, CategoryCount{Name: s.labels[key], Count: len(docs)})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Name < counts[j].Name
	})
	return counts
}

// Issues returns the parse failures recorded while building the snapshot.
func (s *Snapshot) Issues() []*ParseError {
	return append([]*ParseError(nil), s.issues...)
}

// LoadedAt reports when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Len reports the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.documents)
}

func cloneDocuments(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Clone())
	}
	return out
}
