package publisher

import (
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/posts"
)

// TemplateContext is the data contract handed to TemplateRenderer
// implementations for every page.
type TemplateContext struct {
	Site    SiteMetadata
	Page    PageContext
	Build   BuildMetadata
	Theme   ThemeContext
	Helpers TemplateHelpers
}

// SiteMetadata exposes site-wide information required by templates.
type SiteMetadata struct {
	BaseURL     string
	Title       string
	Description string
	Categories  []posts.CategoryCount
	Metadata    map[string]any
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	BuildID     uuid.UUID
	GeneratedAt time.Time
	Options     BuildOptions
}

// PageContext carries the resolved data for a single page. Document pages set
// Document; the index page sets Documents with the corpus in publication order.
type PageContext struct {
	Kind      string
	Route     string
	Document  *posts.Document
	Documents []*posts.Document
	Metadata  DependencyMetadata
}

// ThemeContext surfaces go-theme selection data to templates.
type ThemeContext struct {
	Name      string
	Variant   string
	Tokens    map[string]string
	CSSVars   map[string]string
	Partials  map[string]string
	AssetURL  func(string) string
	Template  func(string, string) string
	Selection *gotheme.Selection
}

// TemplateHelpers exposes convenience helpers for template authors.
type TemplateHelpers struct {
	baseURL string
	routes  *RouteResolver
}

func newTemplateHelpers(baseURL string, routes *RouteResolver) TemplateHelpers {
	return TemplateHelpers{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  routes,
	}
}

// BaseURL returns the configured site base URL.
func (h TemplateHelpers) BaseURL() string {
	return h.baseURL
}

// WithBaseURL prefixes the provided path with the configured base URL.
func (h TemplateHelpers) WithBaseURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return h.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if h.baseURL == "" {
		return path
	}
	return h.baseURL + path
}

// DocumentURL returns the absolute URL a document is served from.
func (h TemplateHelpers) DocumentURL(doc *posts.Document) string {
	if doc == nil || h.routes == nil {
		return ""
	}
	route, err := h.routes.Document(doc)
	if err != nil {
		return ""
	}
	return h.WithBaseURL(route)
}

// CategoryURL returns the absolute URL for a category listing.
func (h TemplateHelpers) CategoryURL(name string) string {
	if h.routes == nil {
		return ""
	}
	route, err := h.routes.Category(name)
	if err != nil {
		return ""
	}
	return h.WithBaseURL(route)
}

// FeedURL returns the absolute URL for the site feed. Kind is "rss" or "atom".
func (h TemplateHelpers) FeedURL(kind string) string {
	if h.routes == nil {
		return ""
	}
	route, err := h.routes.Feed(kind)
	if err != nil {
		return ""
	}
	return h.WithBaseURL(route)
}

func buildThemeContext(selection *gotheme.Selection, cfg ThemingConfig) ThemeContext {
	empty := ThemeContext{
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
		Partials: map[string]string{},
		AssetURL: func(string) string { return "" },
		Template: func(_ string, fallback string) string { return fallback },
	}
	if selection == nil {
		return empty
	}

	return ThemeContext{
		Name:      selection.Theme,
		Variant:   selection.Variant,
		Tokens:    selection.Tokens(),
		CSSVars:   selection.CSSVariables(cfg.CSSVariablePrefix),
		Partials:  selection.Partials(cfg.PartialFallbacks),
		AssetURL:  func(key string) string { url, _ := selection.Asset(key); return url },
		Template:  selection.Template,
		Selection: selection,
	}
}

// RenderedPage captures the rendered HTML output for a page.
type RenderedPage struct {
	Identifier string
	Kind       pageKind
	Route      string
	Output     string
	Template   string
	HTML       string
	Metadata   DependencyMetadata
	Duration   time.Duration
	Checksum   string
}

// RenderDiagnostic records rendering timing and errors for individual pages.
type RenderDiagnostic struct {
	Identifier string
	Kind       pageKind
	Route      string
	Template   string
	Duration   time.Duration
	Skipped    bool
	Err        error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}
