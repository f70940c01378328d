package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

func TestBuildRendersDocumentPages(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	expectedPages := len(fixtures.Docs) + 1
	if result.Pages != expectedPages {
		t.Fatalf("expected %d pages built, got %d", expectedPages, result.Pages)
	}
	if len(result.Rendered) != expectedPages {
		t.Fatalf("expected %d rendered outputs, got %d", expectedPages, len(result.Rendered))
	}
	if len(result.Diagnostics) != expectedPages {
		t.Fatalf("expected %d diagnostics, got %d", expectedPages, len(result.Diagnostics))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %d", len(result.Errors))
	}
	if result.PagesSkipped != 0 {
		t.Fatalf("expected no skipped pages, got %d", result.PagesSkipped)
	}

	for _, page := range result.Rendered {
		if page.Output == "" {
			t.Fatalf("expected output path for page %s", page.Identifier)
		}
		if page.Checksum == "" {
			t.Fatalf("expected checksum for page %s", page.Identifier)
		}
		if !strings.HasSuffix(page.Output, "index.html") {
			t.Fatalf("expected output to end with index.html, got %s", page.Output)
		}
	}

	introOutput := "public/posts/2025-05-26-program-verification-intro/index.html"
	laterOutput := "public/posts/2025-08-09-when-one-run-isnt-enough/index.html"
	introAt, laterAt := -1, -1
	for i, artifact := range result.Artifacts {
		switch artifact {
		case introOutput:
			introAt = i
		case laterOutput:
			laterAt = i
		}
	}
	if introAt == -1 || laterAt == -1 {
		t.Fatalf("expected document artifacts in %v", result.Artifacts)
	}
	if introAt > laterAt {
		t.Fatalf("expected chronological artifact order, got %v", result.Artifacts)
	}

	if _, ok := storage.files[svc.manifestTargetPath()]; !ok {
		t.Fatalf("expected manifest written to %s", svc.manifestTargetPath())
	}

	renderer.assertCalls(t, expectedPages)
	postCalls, indexCalls := 0, 0
	for _, call := range renderer.calls {
		switch call.name {
		case "post":
			postCalls++
			if call.ctx.Page.Document == nil {
				t.Fatal("expected document in post page context")
			}
		case "index":
			indexCalls++
			if len(call.ctx.Page.Documents) != len(fixtures.Docs) {
				t.Fatalf("expected %d documents in index context, got %d", len(fixtures.Docs), len(call.ctx.Page.Documents))
			}
			for i := 1; i < len(call.ctx.Page.Documents); i++ {
				prev := call.ctx.Page.Documents[i-1].PublishedAt
				next := call.ctx.Page.Documents[i].PublishedAt
				if prev.After(next) {
					t.Fatal("expected index documents in publication order")
				}
			}
		default:
			t.Fatalf("unexpected template %q", call.name)
		}
		if call.ctx.Site.BaseURL != "https://example.com" {
			t.Fatalf("expected site base URL, got %q", call.ctx.Site.BaseURL)
		}
		if call.ctx.Site.Title != fixtures.Config.SiteTitle {
			t.Fatalf("expected site title %q, got %q", fixtures.Config.SiteTitle, call.ctx.Site.Title)
		}
		if call.ctx.Build.BuildID == uuid.Nil {
			t.Fatal("expected build id")
		}
		if got := call.ctx.Helpers.WithBaseURL("feed.xml"); got != "https://example.com/feed.xml" {
			t.Fatalf("expected helper base URL to return %q, got %q", "https://example.com/feed.xml", got)
		}
		if got := call.ctx.Helpers.DocumentURL(fixtures.Docs[0]); got != "https://example.com/posts/2025-05-26-program-verification-intro/" {
			t.Fatalf("unexpected document URL %q", got)
		}
	}
	if postCalls != len(fixtures.Docs) {
		t.Fatalf("expected %d post renders, got %d", len(fixtures.Docs), postCalls)
	}
	if indexCalls != 1 {
		t.Fatalf("expected 1 index render, got %d", indexCalls)
	}
}

func TestBuildUsesWorkerPool(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()
	fixtures.Config.Workers = 4

	renderer := &concurrentRenderer{delay: 5 * time.Millisecond}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	expectedPages := len(fixtures.Docs) + 1
	renderer.assertCalls(t, expectedPages)
	if result.Pages != expectedPages {
		t.Fatalf("expected %d pages built, got %d", expectedPages, result.Pages)
	}
	if renderer.maxConcurrent.Load() < 2 {
		t.Fatalf("expected at least 2 concurrent workers, got %d", renderer.maxConcurrent.Load())
	}
}

func TestBuildDryRunCollectsArtifacts(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("build dry-run: %v", err)
	}

	expectedPages := len(fixtures.Docs) + 1
	if !result.DryRun {
		t.Fatal("expected dry-run flag to be true")
	}
	if result.Pages != expectedPages {
		t.Fatalf("expected %d pages built in dry-run, got %d", expectedPages, result.Pages)
	}
	if len(result.Rendered) != expectedPages {
		t.Fatalf("expected %d rendered outputs in dry-run, got %d", expectedPages, len(result.Rendered))
	}
	if len(result.Artifacts) != expectedPages {
		t.Fatalf("expected %d artifact names in dry-run, got %d", expectedPages, len(result.Artifacts))
	}
	for _, artifact := range result.Artifacts {
		if !strings.HasPrefix(artifact, "public/") {
			t.Fatalf("unexpected artifact path %q", artifact)
		}
	}
	renderer.assertCalls(t, expectedPages)

	writeCalls := 0
	for _, call := range storage.ExecCalls() {
		if call.Query == storageOpWrite {
			writeCalls++
		}
	}
	if writeCalls != 0 {
		t.Fatalf("expected no storage writes for dry-run, got %d", writeCalls)
	}
}

func TestBuildGeneratesFeedsSitemapRobots(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()
	fixtures.Config.GenerateFeeds = true
	fixtures.Config.CategoryFeeds = true
	fixtures.Config.GenerateSitemap = true
	fixtures.Config.GenerateRobots = true

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Site feed plus one RSS/Atom pair per category.
	expectedFeeds := 2 + 2*len(fixtures.Store.categories)
	if result.Feeds != expectedFeeds {
		t.Fatalf("expected %d feeds, got %d", expectedFeeds, result.Feeds)
	}

	siteFeed, ok := storage.files["public/feed.xml"]
	if !ok {
		t.Fatal("expected site RSS feed write")
	}
	feedContent := string(siteFeed)
	if !strings.Contains(feedContent, "Code&#39;s Deeper Truths") {
		t.Fatalf("expected XML-escaped title in feed, got:\n%s", feedContent)
	}
	if strings.Contains(feedContent, "Code's Deeper Truths") {
		t.Fatal("expected apostrophes to be escaped in feed")
	}
	laterAt := strings.Index(feedContent, "2025-08-09-when-one-run-isnt-enough")
	introAt := strings.Index(feedContent, "2025-05-26-program-verification-intro")
	if laterAt == -1 || introAt == -1 {
		t.Fatalf("expected both documents in site feed:\n%s", feedContent)
	}
	if laterAt > introAt {
		t.Fatal("expected newest-first ordering in site feed")
	}

	if _, ok := storage.files["public/feeds/verification.rss.xml"]; !ok {
		t.Fatal("expected category RSS feed write")
	}
	if _, ok := storage.files["public/feed.atom.xml"]; !ok {
		t.Fatal("expected site Atom feed write")
	}

	sitemap, ok := storage.files["public/sitemap.xml"]
	if !ok {
		t.Fatal("expected sitemap write")
	}
	sitemapContent := string(sitemap)
	if !strings.Contains(sitemapContent, "https://example.com/posts/2025-05-26-program-verification-intro/") {
		t.Fatalf("expected document location in sitemap:\n%s", sitemapContent)
	}

	robots, ok := storage.files["public/robots.txt"]
	if !ok {
		t.Fatal("expected robots write")
	}
	if !strings.Contains(string(robots), "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("expected sitemap reference in robots.txt, got:\n%s", string(robots))
	}
}

func TestBuildIncrementalSkipsUnchangedPages(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()
	fixtures.Config.Incremental = true

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	expectedPages := len(fixtures.Docs) + 1
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	renderer.assertCalls(t, expectedPages)
	initialExecs := len(storage.ExecCalls())

	renderer2 := &recordingRenderer{}
	svc2 := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer2,
		Storage:  storage,
	}).(*service)

	result, err := svc2.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("incremental build: %v", err)
	}
	if result.Pages != 0 {
		t.Fatalf("expected no rebuilt pages, got %d", result.Pages)
	}
	if result.PagesSkipped != expectedPages {
		t.Fatalf("expected %d skipped pages, got %d", expectedPages, result.PagesSkipped)
	}
	if len(result.Rendered) != 0 {
		t.Fatalf("expected no rendered outputs when skipping, got %d", len(result.Rendered))
	}
	renderer2.assertCalls(t, 0)

	additionalPageWrites := 0
	for _, call := range storage.ExecCalls()[initialExecs:] {
		if call.Query != storageOpWrite || len(call.Args) < 4 {
			continue
		}
		category, _ := call.Args[3].(string)
		if category == string(categoryPage) || category == string(categoryIndex) {
			additionalPageWrites++
		}
	}
	if additionalPageWrites != 0 {
		t.Fatalf("expected no additional page writes, got %d", additionalPageWrites)
	}
}

func TestBuildRerendersChangedDocument(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()
	fixtures.Config.Incremental = true

	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: &recordingRenderer{},
		Storage:  storage,
	}).(*service)
	if _, err := svc.Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("initial build: %v", err)
	}

	// A reload that changes the document body produces a new checksum, so
	// its page and the index both fall out of the manifest.
	changed := fixtures.Docs[0].Clone()
	changed.Body = []byte("revised body")
	changed.Checksum = []byte{0xAA, 0xBB}
	changed.UpdatedAt = changed.UpdatedAt.Add(time.Hour)
	fixtures.Store.documents[0] = changed

	renderer2 := &recordingRenderer{}
	svc2 := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer2,
		Storage:  storage,
	}).(*service)

	result, err := svc2.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if result.Pages != 2 {
		t.Fatalf("expected changed document and index rebuilt, got %d", result.Pages)
	}
	if result.PagesSkipped != len(fixtures.Docs)-1 {
		t.Fatalf("expected %d skipped pages, got %d", len(fixtures.Docs)-1, result.PagesSkipped)
	}
	renderer2.assertCalls(t, 2)
}

func TestBuildScopedToIdentifiers(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{
		Identifiers: []string{"2025-08-09-when-one-run-isnt-enough"},
	})
	if err != nil {
		t.Fatalf("scoped build: %v", err)
	}
	if result.Pages != 1 {
		t.Fatalf("expected 1 page built, got %d", result.Pages)
	}
	renderer.assertCalls(t, 1)
	if renderer.calls[0].name != "post" {
		t.Fatalf("expected post template, got %q", renderer.calls[0].name)
	}
	if got := renderer.calls[0].ctx.Page.Document.Identifier; got != "2025-08-09-when-one-run-isnt-enough" {
		t.Fatalf("unexpected document %q", got)
	}
}

func TestBuildCopiesConfiguredAssets(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()
	fixtures.Config.CopyAssets = true
	fixtures.Config.Theming.Assets = []string{"css/site.css", "js/app.js"}

	renderer := &recordingRenderer{}
	storage := &recordingStorage{}
	assets := newStubAssetResolver()
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
		Assets:   assets,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.Assets != 2 {
		t.Fatalf("expected 2 assets copied, got %d", result.Assets)
	}
	expected := map[string]struct{}{
		"public/assets/css/site.css": {},
		"public/assets/js/app.js":    {},
	}
	for _, call := range storage.ExecCalls() {
		if call.Query != storageOpWrite || len(call.Args) < 4 {
			continue
		}
		target, _ := call.Args[0].(string)
		if _, ok := expected[target]; !ok {
			continue
		}
		if category, _ := call.Args[3].(string); category != string(categoryAsset) {
			t.Fatalf("expected asset category for %s, got %s", target, category)
		}
		delete(expected, target)
	}
	if len(expected) != 0 {
		t.Fatalf("missing asset writes: %v", expected)
	}
}

func TestBuildRequiresRenderer(t *testing.T) {
	fixtures := newPublishFixtures()
	svc := NewService(fixtures.Config, Dependencies{Store: fixtures.Store})
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, errRendererRequired) {
		t.Fatalf("Build() error = %v, want %v", err, errRendererRequired)
	}
}

func TestBuildRequiresStore(t *testing.T) {
	fixtures := newPublishFixtures()
	svc := NewService(fixtures.Config, Dependencies{Renderer: &recordingRenderer{}})
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, errStoreRequired) {
		t.Fatalf("Build() error = %v, want %v", err, errStoreRequired)
	}
}

func TestDisabledServiceRejectsBuilds(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrPublisherDisabled) {
		t.Fatalf("Build() error = %v, want %v", err, ErrPublisherDisabled)
	}
}

func TestBuildCollectsRenderFailures(t *testing.T) {
	ctx := context.Background()
	fixtures := newPublishFixtures()

	renderer := &failingRenderer{failFor: "post"}
	storage := &recordingStorage{}
	svc := NewService(fixtures.Config, Dependencies{
		Store:    fixtures.Store,
		Renderer: renderer,
		Storage:  storage,
	}).(*service)

	result, err := svc.Build(ctx, BuildOptions{})
	if err == nil {
		t.Fatal("expected build error")
	}
	if result == nil {
		t.Fatal("expected partial result with diagnostics")
	}
	if len(result.Errors) != len(fixtures.Docs) {
		t.Fatalf("expected %d errors, got %d", len(fixtures.Docs), len(result.Errors))
	}
	// The index page still renders, so the failure is isolated.
	if result.Pages != 1 {
		t.Fatalf("expected index page built, got %d", result.Pages)
	}
	if _, ok := storage.files[svc.manifestTargetPath()]; ok {
		t.Fatal("expected manifest to be withheld after render failures")
	}
}

type publishFixtures struct {
	Config Config
	Store  *stubStore
	Docs   []*posts.Document
}

func newPublishFixtures() publishFixtures {
	intro := documentFixture(
		"2025-05-26-program-verification-intro",
		"Code's Deeper Truths",
		time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC),
		"verification", "formal-methods",
	)
	later := documentFixture(
		"2025-08-09-when-one-run-isnt-enough",
		"When One Run Isn't Enough",
		time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC),
		"verification", "hyperproperties",
	)

	store := &stubStore{
		documents: []*posts.Document{intro, later},
		categories: []posts.CategoryCount{
			{Name: "formal-methods", Count: 1},
			{Name: "hyperproperties", Count: 1},
			{Name: "verification", Count: 2},
		},
	}
	cfg := Config{
		OutputDir: "public",
		BaseURL:   "https://example.com",
		SiteTitle: "Press Essays",
		Workers:   1,
	}
	return publishFixtures{Config: cfg, Store: store, Docs: store.documents}
}

func documentFixture(identifier, title string, published time.Time, categories ...string) *posts.Document {
	summary := "Why " + title + " matters."
	checksum := computeHash([]byte(identifier))
	return &posts.Document{
		ID:          identity.DocumentUUID(identifier),
		Identifier:  identifier,
		Slug:        strings.TrimPrefix(identifier, published.Format("2006-01-02")+"-"),
		Title:       title,
		Summary:     &summary,
		Status:      posts.StatusPublished,
		PublishedAt: published,
		UpdatedAt:   published,
		Categories:  categories,
		Body:        []byte("body"),
		BodyHTML:    []byte("<p>body</p>"),
		Checksum:    []byte(checksum[:8]),
		LoadedAt:    published,
	}
}

type stubStore struct {
	documents  []*posts.Document
	categories []posts.CategoryCount
	listErr    error
}

func (s *stubStore) List(context.Context) ([]*posts.Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]*posts.Document(nil), s.documents...), nil
}

func (s *stubStore) ListByCategory(_ context.Context, category string) ([]*posts.Document, error) {
	var out []*posts.Document
	for _, doc := range s.documents {
		if doc.HasCategory(category) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *stubStore) Get(_ context.Context, identifier string) (*posts.Document, error) {
	for _, doc := range s.documents {
		if doc.Identifier == identifier {
			return doc, nil
		}
	}
	return nil, &posts.NotFoundError{Resource: "document", Key: identifier}
}

func (s *stubStore) Categories(context.Context) ([]posts.CategoryCount, error) {
	return append([]posts.CategoryCount(nil), s.categories...), nil
}

func (s *stubStore) Reload(context.Context) (*posts.ReloadResult, error) {
	return &posts.ReloadResult{}, nil
}

func (s *stubStore) Issues() []*posts.ParseError { return nil }

func (s *stubStore) LoadedAt() time.Time { return time.Time{} }

type renderCall struct {
	name string
	ctx  TemplateContext
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *recordingRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

func (r *recordingRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	ctx, ok := data.(TemplateContext)
	if !ok {
		return "", fmt.Errorf("unexpected render data type %T", data)
	}
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{name: name, ctx: ctx})
	r.mu.Unlock()
	return fmt.Sprintf("<html data-route=%q></html>", ctx.Page.Route), nil
}

func (r *recordingRenderer) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(templateContent, data, out...)
}

func (r *recordingRenderer) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (r *recordingRenderer) GlobalContext(any) error { return nil }

func (r *recordingRenderer) assertCalls(t *testing.T, expected int) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) != expected {
		t.Fatalf("expected %d render calls, got %d", expected, len(r.calls))
	}
}

type concurrentRenderer struct {
	recordingRenderer
	delay         time.Duration
	current       atomic.Int32
	maxConcurrent atomic.Int32
}

func (r *concurrentRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	ctx, ok := data.(TemplateContext)
	if !ok {
		return "", fmt.Errorf("unexpected render data type %T", data)
	}
	cur := r.current.Add(1)
	for {
		max := r.maxConcurrent.Load()
		if cur <= max {
			break
		}
		if r.maxConcurrent.CompareAndSwap(max, cur) {
			break
		}
	}
	time.Sleep(r.delay)
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{name: name, ctx: ctx})
	r.mu.Unlock()
	r.current.Add(-1)
	return fmt.Sprintf("<html data-route=%q></html>", ctx.Page.Route), nil
}

type failingRenderer struct {
	recordingRenderer
	failFor string
}

func (r *failingRenderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if name == r.failFor {
		return "", fmt.Errorf("template %s exploded", name)
	}
	return r.recordingRenderer.RenderTemplate(name, data, out...)
}

type storageCall struct {
	Query string
	Args  []any
}

type recordingStorage struct {
	mu    sync.Mutex
	execs []storageCall
	files map[string][]byte
}

func (s *recordingStorage) Exec(_ context.Context, query string, args ...any) (interfaces.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == storageOpWrite && len(args) >= 2 {
		if target, ok := args[0].(string); ok {
			if reader, ok := args[1].(io.Reader); ok && reader != nil {
				data, err := io.ReadAll(reader)
				if err == nil {
					if s.files == nil {
						s.files = map[string][]byte{}
					}
					s.files[target] = append([]byte(nil), data...)
				}
			}
		}
	}
	s.execs = append(s.execs, storageCall{
		Query: query,
		Args:  append([]any(nil), args...),
	})
	return noopResult{}, nil
}

func (s *recordingStorage) Query(_ context.Context, query string, args ...any) (interfaces.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs = append(s.execs, storageCall{
		Query: query,
		Args:  append([]any(nil), args...),
	})
	if query == storageOpRead && len(args) > 0 {
		if target, ok := args[0].(string); ok {
			if data, ok := s.files[target]; ok {
				return &bufferedRows{
					data: [][]byte{append([]byte(nil), data...)},
				}, nil
			}
		}
	}
	return &bufferedRows{}, nil
}

func (s *recordingStorage) Transaction(_ context.Context, fn func(tx interfaces.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&recordingTx{storage: s})
}

func (s *recordingStorage) ExecCalls() []storageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]storageCall, len(s.execs))
	copy(calls, s.execs)
	return calls
}

type recordingTx struct {
	storage *recordingStorage
}

func (tx *recordingTx) Exec(ctx context.Context, query string, args ...any) (interfaces.Result, error) {
	return tx.storage.Exec(ctx, query, args...)
}

func (tx *recordingTx) Query(ctx context.Context, query string, args ...any) (interfaces.Rows, error) {
	return tx.storage.Query(ctx, query, args...)
}

func (recordingTx) Transaction(context.Context, func(interfaces.Transaction) error) error {
	return fmt.Errorf("nested transactions not supported")
}

func (recordingTx) Commit() error   { return nil }
func (recordingTx) Rollback() error { return nil }

type noopResult struct{}

func (noopResult) RowsAffected() (int64, error) { return 0, nil }
func (noopResult) LastInsertId() (int64, error) { return 0, nil }

type bufferedRows struct {
	data  [][]byte
	index int
}

func (r *bufferedRows) Next() bool {
	if r.index >= len(r.data) {
		return false
	}
	r.index++
	return true
}

func (r *bufferedRows) Scan(dest ...any) error {
	if r.index == 0 || r.index > len(r.data) {
		return fmt.Errorf("buffered rows: scan without next")
	}
	if len(dest) == 0 {
		return fmt.Errorf("buffered rows: missing destination")
	}
	value := r.data[r.index-1]
	switch target := dest[0].(type) {
	case *[]byte:
		*target = append((*target)[:0], value...)
		return nil
	case *string:
		*target = string(value)
		return nil
	default:
		return fmt.Errorf("buffered rows: unsupported scan type %T", dest[0])
	}
}

func (r *bufferedRows) Close() error { return nil }

type stubAssetResolver struct {
	assets map[string][]byte
}

func newStubAssetResolver() *stubAssetResolver {
	return &stubAssetResolver{
		assets: map[string][]byte{
			"css/site.css": []byte("body {}"),
			"js/app.js":    []byte("console.log('ok')"),
		},
	}
}

func (r *stubAssetResolver) Open(_ context.Context, asset string) (io.ReadCloser, error) {
	data, ok := r.assets[asset]
	if !ok {
		return nil, fmt.Errorf("asset %s not found", asset)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *stubAssetResolver) ResolvePath(asset string) (string, error) {
	if _, ok := r.assets[asset]; !ok {
		return "", fmt.Errorf("asset %s not found", asset)
	}
	return asset, nil
}
