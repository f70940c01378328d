package interfaces

import (
	"context"
	"time"
)

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Implementations should expose reusable parser instances and extension
// toggles so hosts can tailor rendering without rewriting the core service.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// MarkdownService exposes the file workflows the document store builds on:
// loading front-matter Markdown files from disk and rendering them to HTML.
// LoadDirectory fails on the first malformed file; LoadCorpus reports
// malformed files as issues and keeps going.
type MarkdownService interface {
	Load(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	LoadCorpus(ctx context.Context, dir string, opts LoadOptions) (*CorpusResult, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	RenderDocument(ctx context.Context, doc *Document, opts ParseOptions) ([]byte, error)
}

// CorpusResult carries loaded documents plus per-file failures so one
// malformed file never hides the rest of the corpus.
type CorpusResult struct {
	Documents []*Document
	Issues    []LoadIssue
}

// LoadIssue records a file that could not be read or parsed.
type LoadIssue struct {
	Path string
	Err  error
}

// Document represents a Markdown file with parsed metadata and content. The
// struct is shared between the interfaces package and internal implementations
// so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (typically SHA-256)
	// so reload workflows can detect changes without reparsing unchanged files.
	Checksum []byte
}

// FrontMatter models metadata extracted from Markdown files. The named fields
// cover the conventional essay header (layout, title, date, categories); the
// Custom map keeps any remaining keys available to templates.
type FrontMatter struct {
	Layout     string         `yaml:"layout" json:"layout"`
	Title      string         `yaml:"title" json:"title"`
	Slug       string         `yaml:"slug" json:"slug"`
	Summary    string         `yaml:"summary" json:"summary"`
	Categories []string       `yaml:"categories" json:"categories"`
	Date       time.Time      `yaml:"date" json:"date"`
	Draft      bool           `yaml:"draft" json:"draft"`
	Custom     map[string]any `yaml:",inline" json:"custom"`
	Raw        map[string]any `yaml:"-" json:"raw"`
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive     *bool
	Pattern       string
	IncludeDrafts bool
	Parser        ParseOptions
}
