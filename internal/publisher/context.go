package publisher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/posts"
)

type pageKind string

const (
	kindPost  pageKind = "post"
	kindIndex pageKind = "index"
)

// BuildContext aggregates everything a build renders from. Documents carry
// the store snapshot in publication order.
type BuildContext struct {
	GeneratedAt time.Time
	BuildID     uuid.UUID
	Documents   []*posts.Document
	Categories  []posts.CategoryCount
	Pages       []*PageData
	Selection   *gotheme.Selection
	Options     BuildOptions
}

// PageData encapsulates the resolved inputs for a single page.
type PageData struct {
	Kind      pageKind
	Document  *posts.Document
	Documents []*posts.Document
	Route     string
	Template  string
	Metadata  DependencyMetadata
}

// DependencyMetadata tracks hashes and timestamps for incremental builds.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if s.deps.Store == nil {
		return nil, errStoreRequired
	}

	documents, err := s.deps.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("publisher: list documents: %w", err)
	}
	documents = filterDocuments(documents, opts.Identifiers)

	categories, err := s.deps.Store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("publisher: list categories: %w", err)
	}

	var selection *gotheme.Selection
	if s.themes != nil {
		selection, err = s.themes.Selection()
		if err != nil {
			return nil, err
		}
	}

	pageContexts := make([]*PageData, 0, len(documents)+1)
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		route, err := s.deps.Routes.Document(doc)
		if err != nil {
			return nil, fmt.Errorf("publisher: resolve route for %s: %w", doc.Identifier, err)
		}
		template := strings.TrimSpace(doc.Layout)
		if template == "" {
			template = s.cfg.PostTemplate
		}
		pageContexts = append(pageContexts, &PageData{
			Kind:     kindPost,
			Document: doc,
			Route:    route,
			Template: template,
			Metadata: documentMetadata(doc, template, selection),
		})
	}

	// The index page only regenerates on full builds. A scoped build would
	// render it from a partial document list.
	if len(opts.Identifiers) == 0 {
		pageContexts = append(pageContexts, &PageData{
			Kind:      kindIndex,
			Documents: documents,
			Route:     "/",
			Template:  s.cfg.IndexTemplate,
			Metadata:  indexMetadata(documents, s.cfg.IndexTemplate, selection),
		})
	}

	generatedAt := s.now()
	buildCtx := &BuildContext{
		GeneratedAt: generatedAt,
		BuildID:     identity.BuildUUID(generatedAt),
		Documents:   documents,
		Categories:  categories,
		Pages:       pageContexts,
		Selection:   selection,
		Options:     opts,
	}
	return buildCtx, nil
}

func filterDocuments(documents []*posts.Document, identifiers []string) []*posts.Document {
	if len(identifiers) == 0 {
		return documents
	}
	requested := make(map[string]struct{}, len(identifiers))
	for _, identifier := range identifiers {
		normalized := strings.ToLower(strings.TrimSpace(identifier))
		if normalized == "" {
			continue
		}
		requested[normalized] = struct{}{}
	}
	if len(requested) == 0 {
		return documents
	}
	filtered := make([]*posts.Document, 0, len(requested))
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		if _, ok := requested[strings.ToLower(doc.Identifier)]; ok {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}

func documentMetadata(doc *posts.Document, template string, selection *gotheme.Selection) DependencyMetadata {
	sources := map[string]string{
		"document": joinParts(
			doc.ID.String(),
			doc.Identifier,
			hex.EncodeToString(doc.Checksum),
			doc.PublishedAt.UTC().Format(time.RFC3339Nano),
			doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
		),
	}
	if template != "" {
		sources["template"] = template
	}
	if selection != nil {
		sources["theme"] = joinParts(selection.Theme, selection.Variant)
	}
	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: maxTime(doc.PublishedAt, doc.UpdatedAt, doc.LoadedAt),
	}
}

func indexMetadata(documents []*posts.Document, template string, selection *gotheme.Selection) DependencyMetadata {
	parts := make([]string, 0, len(documents))
	var lastModified time.Time
	for _, doc := range documents {
		if doc == nil {
			continue
		}
		parts = append(parts, joinParts(doc.Identifier, hex.EncodeToString(doc.Checksum)))
		lastModified = maxTime(lastModified, doc.UpdatedAt, doc.PublishedAt)
	}
	sources := map[string]string{
		"documents": hashStrings(parts),
	}
	if template != "" {
		sources["template"] = template
	}
	if selection != nil {
		sources["theme"] = joinParts(selection.Theme, selection.Variant)
	}
	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: lastModified,
	}
}

func joinParts(parts ...string) string {
	return strings.Join(parts, "|")
}

func hashStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	hasher := sha256.New()
	for _, value := range values {
		hasher.Write([]byte(value))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func maxTime(times ...time.Time) time.Time {
	var max time.Time
	for _, ts := range times {
		if ts.After(max) {
			max = ts
		}
	}
	return max
}
