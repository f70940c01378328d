package posts

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/validation"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// SourceConfig controls how the markdown corpus is read.
type SourceConfig struct {
	// Dir is the directory handed to the markdown service, relative to its base.
	Dir string
	// Pattern limits discovered files (defaults to the service's own pattern).
	Pattern string
	// Recursive toggles sub-directory traversal.
	Recursive bool
	// IncludeDrafts admits documents marked draft: true.
	IncludeDrafts bool
	// Parser carries per-load render options.
	Parser interfaces.ParseOptions
}

// FrontMatterValidator checks parsed front matter before a document enters
// the snapshot.
type FrontMatterValidator func(fm interfaces.FrontMatter) error

// IDGenerator derives the stable record id for an identifier.
type IDGenerator func(identifier string) uuid.UUID

// MarkdownSource adapts the markdown service into a DocumentSource: files
// become store documents, malformed files become parse issues.
type MarkdownSource struct {
	markdown interfaces.MarkdownService
	cfg      SourceConfig
	validate FrontMatterValidator
	ids      IDGenerator
	now      func() time.Time
	logger   interfaces.Logger
}

type SourceOption func(*MarkdownSource)

// WithValidator enforces a front matter contract; violations exclude the
// document and surface as parse issues.
func WithValidator(validate FrontMatterValidator) SourceOption {
	return func(s *MarkdownSource) {
		s.validate = validate
	}
}

// WithIDGenerator overrides how record ids are derived.
func WithIDGenerator(generator IDGenerator) SourceOption {
	return func(s *MarkdownSource) {
		if generator != nil {
			s.ids = generator
		}
	}
}

// WithSourceClock overrides the clock used to stamp load times.
func WithSourceClock(clock func() time.Time) SourceOption {
	return func(s *MarkdownSource) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSourceLogger attaches a logger to the source.
func WithSourceLogger(logger interfaces.Logger) SourceOption {
	return func(s *MarkdownSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMarkdownSource constructs a DocumentSource over the supplied markdown service.
func NewMarkdownSource(markdown interfaces.MarkdownService, cfg SourceConfig, opts ...SourceOption) (*MarkdownSource, error) {
	if markdown == nil {
		return nil, ErrSourceRequired
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = "."
	}

	s := &MarkdownSource{
		markdown: markdown,
		cfg:      cfg,
		ids:      identity.DocumentUUID,
		now:      time.Now,
		logger:   logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// LoadDocuments reads the corpus and converts each file into a store
// document. Files that fail to parse, validate, or resolve an identifier are
// reported as issues so the rest of the corpus still loads.
func (s *MarkdownSource) LoadDocuments(ctx context.Context) ([]*Document, []*ParseError, error) {
	corpus, err := s.markdown.LoadCorpus(ctx, s.cfg.Dir, interfaces.LoadOptions{
		Recursive:     &s.cfg.Recursive,
		Pattern:       s.cfg.Pattern,
		IncludeDrafts: s.cfg.IncludeDrafts,
		Parser:        s.cfg.Parser,
	})
	if err != nil {
		return nil, nil, err
	}

	docs := make([]*Document, 0, len(corpus.Documents))
	issues := make([]*ParseError, 0, len(corpus.Issues))

	for _, issue := range corpus.Issues {
		issues = append(issues, &ParseError{Path: issue.Path, Cause: issue.Err})
	}

	for _, doc := range corpus.Documents {
		record, err := s.buildDocument(doc)
		if err != nil {
			s.logger.Warn("document excluded",
				"document_path", doc.FilePath,
				"error", err,
			)
			issues = append(issues, &ParseError{
				Path:   doc.FilePath,
				Issues: validationIssues(err),
				Cause:  err,
			})
			continue
		}
		docs = append(docs, record)
	}

	return docs, issues, nil
}

func (s *MarkdownSource) buildDocument(doc *interfaces.Document) (*Document, error) {
	fm := doc.FrontMatter

	publishedAt := fm.Date
	if publishedAt.IsZero() {
		publishedAt = DateFromSource(doc.FilePath)
	}

	// The validator sees the resolved date so filename-dated documents pass
	// the same contract as header-dated ones.
	if s.validate != nil {
		effective := fm
		effective.Date = publishedAt
		if err := s.validate(effective); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if publishedAt.IsZero() {
		return nil, ErrPublishedAtRequired
	}

	slug, err := DeriveSlug(fm.Slug, doc.FilePath, title)
	if err != nil {
		return nil, err
	}

	identifier := Identifier(publishedAt, slug)

	status := StatusPublished
	if fm.Draft {
		status = StatusDraft
	}

	record := &Document{
		ID:          s.ids(identifier),
		Identifier:  identifier,
		Slug:        slug,
		Title:       title,
		Layout:      fm.Layout,
		Status:      status,
		PublishedAt: publishedAt,
		Categories:  append([]string(nil), fm.Categories...),
		Body:        append([]byte(nil), doc.Body...),
		BodyHTML:    append([]byte(nil), doc.BodyHTML...),
		SourcePath:  doc.FilePath,
		Checksum:    append([]byte(nil), doc.Checksum...),
		LoadedAt:    s.now(),
	}
	if summary := strings.TrimSpace(fm.Summary); summary != "" {
		record.Summary = &summary
	}
	if len(fm.Custom) > 0 {
		record.Metadata = maps.Clone(fm.Custom)
	}
	return record, nil
}

// validationIssues flattens a validation failure into printable issue lines.
func validationIssues(err error) []string {
	if err == nil {
		return nil
	}
	collected := validation.Issues(err)
	out := make([]string, 0, len(collected))
	for _, issue := range collected {
		location := strings.TrimSpace(issue.Location)
		message := strings.TrimSpace(issue.Message)
		switch {
		case location == "":
			out = append(out, message)
		case message == "":
			out = append(out, location)
		default:
			out = append(out, fmt.Sprintf("%s: %s", location, message))
		}
	}
	return out
}
