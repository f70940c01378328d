package publisher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	// ErrPublisherDisabled indicates the publisher feature is disabled.
	ErrPublisherDisabled = errors.New("publisher: service disabled")
	errRendererRequired  = errors.New("publisher: template renderer is required")
	errStoreRequired     = errors.New("publisher: document store is required")
	errTemplateRequired  = errors.New("publisher: template is required for rendering")
)

// Service describes the static publisher contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
}

// Config captures runtime behaviour toggles for the publisher.
type Config struct {
	OutputDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	CategoryFeeds   bool
	Workers         int
	PostTemplate    string
	IndexTemplate   string
	Theming         ThemingConfig
	Metadata        map[string]any
}

// BuildOptions narrows the scope of a publisher run.
type BuildOptions struct {
	Identifiers []string
	DryRun      bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	Pages         int
	PagesSkipped  int
	Feeds         int
	Assets        int
	AssetsSkipped int
	Artifacts     []string
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	Took          time.Duration
	DryRun        bool
}

// Dependencies lists the collaborators required by the publisher.
type Dependencies struct {
	Store    posts.Service
	Renderer interfaces.TemplateRenderer
	Storage  interfaces.StorageProvider
	Routes   *RouteResolver
	Assets   AssetResolver
	Themes   themeManifestLoader
}

// NewService wires a publisher with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if strings.TrimSpace(cfg.PostTemplate) == "" {
		cfg.PostTemplate = "post"
	}
	if strings.TrimSpace(cfg.IndexTemplate) == "" {
		cfg.IndexTemplate = "index"
	}
	if deps.Routes == nil {
		deps.Routes = NewRouteResolver(RouteResolverOptions{})
	}
	svc := &service{
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
	}
	if cfg.Theming.enabled() {
		loader := deps.Themes
		if loader == nil {
			loader = fsThemeManifestLoader{}
		}
		svc.themes = newThemeSelector(cfg.Theming, loader)
	}
	return svc
}

// NewDisabledService returns a Service that fails all operations with ErrPublisherDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	themes *themeSelector
	now    func() time.Time
}

type disabledService struct{}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrPublisherDisabled
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Pages)),
	}

	siteMeta := SiteMetadata{
		BaseURL:     strings.TrimRight(s.cfg.BaseURL, "/"),
		Title:       s.cfg.SiteTitle,
		Description: s.cfg.SiteDescription,
		Categories:  append([]posts.CategoryCount(nil), buildCtx.Categories...),
		Metadata:    maps.Clone(s.cfg.Metadata),
	}
	if siteMeta.Metadata == nil {
		siteMeta.Metadata = map[string]any{}
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(buildCtx.Pages))
		errorsSlice []error
		baseDir     = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
		pageKeys    = map[string]struct{}{}
	)

	manifest, manifestErr := s.loadManifest(ctx)
	if manifestErr != nil {
		errorsSlice = append(errorsSlice, manifestErr)
	}
	if manifest == nil {
		manifest = newBuildManifest()
	}

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.diagnostic.Identifier != "" {
			key := manifest.pageKey(outcome.diagnostic.Kind, outcome.diagnostic.Identifier)
			if key != "" {
				pageKeys[key] = struct{}{}
			}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.Pages++
		rendered = append(rendered, outcome.page)
	}

	workerCount := s.effectiveWorkerCount(len(buildCtx.Pages))
	if workerCount <= 1 || len(buildCtx.Pages) <= 1 {
		for _, page := range buildCtx.Pages {
			select {
			case <-ctx.Done():
				collect(renderOutcome{
					diagnostic: RenderDiagnostic{
						Identifier: pageIdentifier(page),
						Kind:       page.Kind,
						Route:      page.Route,
						Err:        ctx.Err(),
					},
					err: ctx.Err(),
				})
				return result, ctx.Err()
			default:
				collect(s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir))
			}
		}
	} else {
		if err := s.renderConcurrently(ctx, siteMeta, buildCtx, workerCount, manifest, baseDir, collect); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	sort.Slice(rendered, func(i, j int) bool {
		return rendered[i].Route < rendered[j].Route
	})

	if opts.DryRun {
		for i := range rendered {
			rendered[i].Output = joinOutputPath(baseDir, outputPath(rendered[i].Route))
			result.Artifacts = append(result.Artifacts, rendered[i].Output)
		}
		result.Rendered = rendered
		result.Took = time.Since(start)
		if len(errorsSlice) > 0 {
			result.Errors = append(result.Errors, errorsSlice...)
			return result, errors.Join(errorsSlice...)
		}
		return result, nil
	}

	writer := newArtifactWriter(s.deps.Storage)
	if err := s.persistPages(ctx, writer, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}
	for i := range rendered {
		if rendered[i].Output != "" {
			result.Artifacts = append(result.Artifacts, rendered[i].Output)
		}
	}

	assetSummary, err := s.copyAssets(ctx, writer, buildCtx, manifest, baseDir)
	if err != nil {
		errorsSlice = append(errorsSlice, err)
	} else {
		result.Assets += assetSummary.Built
		result.AssetsSkipped += assetSummary.Skipped
		result.Artifacts = append(result.Artifacts, assetSummary.Artifacts...)
	}

	if s.cfg.GenerateFeeds {
		feedDocs := s.buildFeedDocuments(buildCtx)
		written, feedArtifacts, err := s.writeFeeds(ctx, writer, siteMeta, buildCtx, feedDocs)
		result.Feeds = written
		result.Artifacts = append(result.Artifacts, feedArtifacts...)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateSitemap {
		sitemapPages := s.mergeRenderedForSitemap(buildCtx, rendered, manifest)
		target, err := s.writeSitemap(ctx, writer, siteMeta, buildCtx, sitemapPages)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.Artifacts = append(result.Artifacts, target)
		}
	}

	if s.cfg.GenerateRobots {
		target, err := s.writeRobots(ctx, writer, siteMeta)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.Artifacts = append(result.Artifacts, target)
		}
	}

	if manifest != nil && len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for _, page := range rendered {
			if page.Identifier == "" || strings.TrimSpace(page.Checksum) == "" {
				continue
			}
			manifest.setPage(manifestPage{
				Identifier:   page.Identifier,
				Kind:         string(page.Kind),
				Route:        page.Route,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Metadata.Hash,
				Checksum:     page.Checksum,
				LastModified: page.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		// Full builds prune manifest entries for documents that no longer
		// exist; scoped builds leave untouched pages alone.
		if len(opts.Identifiers) == 0 {
			manifest.prunePages(pageKeys)
		}
		if err := s.persistManifest(ctx, writer, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		} else {
			result.Artifacts = append(result.Artifacts, s.manifestTargetPath())
		}
	}

	result.Rendered = rendered
	result.Took = time.Since(start)
	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		return result, errors.Join(errorsSlice...)
	}
	return result, nil
}

func (s *service) renderConcurrently(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	workers int,
	manifest *buildManifest,
	baseDir string,
	collect func(renderOutcome),
) error {
	if len(buildCtx.Pages) == 0 {
		return nil
	}

	jobs := make(chan *PageData)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				select {
				case <-ctx.Done():
					collect(renderOutcome{
						diagnostic: RenderDiagnostic{
							Identifier: pageIdentifier(page),
							Kind:       page.Kind,
							Route:      page.Route,
							Err:        ctx.Err(),
						},
						err: ctx.Err(),
					})
					return
				default:
					collect(s.renderPage(ctx, siteMeta, buildCtx, page, manifest, baseDir))
				}
			}
		}()
	}

	for _, page := range buildCtx.Pages {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- page:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *service) renderPage(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	data *PageData,
	manifest *buildManifest,
	baseDir string,
) renderOutcome {
	identifier := pageIdentifier(data)
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Identifier: identifier,
			Kind:       data.Kind,
			Route:      data.Route,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	templateName := strings.TrimSpace(data.Template)
	if templateName == "" {
		err := fmt.Errorf("publisher: page %s missing template: %w", identifier, errTemplateRequired)
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}
	outcome.diagnostic.Template = templateName

	if s.cfg.Incremental && manifest != nil {
		expectedOutput := joinOutputPath(baseDir, outputPath(data.Route))
		if manifest.shouldSkipPage(data.Kind, identifier, data.Metadata.Hash, expectedOutput) {
			outcome.skipped = true
			outcome.diagnostic.Skipped = true
			return outcome
		}
	}

	templateCtx := TemplateContext{
		Site: siteMeta,
		Page: PageContext{
			Kind:      string(data.Kind),
			Route:     data.Route,
			Document:  data.Document,
			Documents: data.Documents,
			Metadata:  data.Metadata,
		},
		Build: BuildMetadata{
			BuildID:     buildCtx.BuildID,
			GeneratedAt: buildCtx.GeneratedAt,
			Options:     buildCtx.Options,
		},
		Theme:   buildThemeContext(buildCtx.Selection, s.cfg.Theming),
		Helpers: newTemplateHelpers(siteMeta.BaseURL, s.deps.Routes),
	}

	start := time.Now()
	rendered, err := s.deps.Renderer.RenderTemplate(templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("publisher: render template %q for page %s: %w", templateName, identifier, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Identifier: identifier,
		Kind:       data.Kind,
		Route:      data.Route,
		Template:   templateName,
		HTML:       rendered,
		Metadata:   data.Metadata,
		Duration:   duration,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	pages []RenderedPage,
) error {
	if len(pages) == 0 {
		return nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for i := range pages {
		route := pages[i].Route
		fullPath := joinOutputPath(baseDir, outputPath(route))
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return err
		}
		checksum := computeHashFromString(pages[i].HTML)
		pages[i].Output = fullPath
		pages[i].Checksum = checksum

		metadata := map[string]string{
			"identifier": pages[i].Identifier,
			"kind":       string(pages[i].Kind),
			"route":      route,
			"template":   pages[i].Template,
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		category := categoryPage
		if pages[i].Kind == kindIndex {
			category = categoryIndex
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Identifier:  pages[i].Identifier,
			Category:    category,
			ContentType: "text/html; charset=utf-8",
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

type assetCopySummary struct {
	Built     int
	Skipped   int
	Artifacts []string
}

func (s *service) copyAssets(
	ctx context.Context,
	writer artifactWriter,
	buildCtx *BuildContext,
	manifest *buildManifest,
	baseDir string,
) (assetCopySummary, error) {
	summary := assetCopySummary{}
	if !s.cfg.CopyAssets || s.deps.Assets == nil {
		return summary, nil
	}
	selection := buildCtx.Selection
	assets := collectThemeAssets(selection, s.cfg.Theming)
	if len(assets) == 0 {
		return summary, nil
	}
	if strings.TrimSpace(baseDir) == "" {
		baseDir = strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return summary, err
		}
	}
	for _, asset := range assets {
		reader, err := s.deps.Assets.Open(ctx, asset)
		if err != nil {
			return summary, err
		}
		data, err := io.ReadAll(reader)
		_ = reader.Close()
		if err != nil {
			return summary, err
		}
		resolved, err := s.deps.Assets.ResolvePath(asset)
		if err != nil {
			return summary, err
		}
		resolved = strings.TrimLeft(strings.TrimSpace(resolved), "/")
		if resolved == "" {
			resolved = strings.TrimLeft(strings.TrimSpace(asset), "/")
		}
		destRel := path.Join("assets", resolved)
		fullPath := joinOutputPath(baseDir, destRel)
		checksum := computeHash(data)
		if manifest != nil && s.cfg.Incremental {
			if manifest.shouldSkipAsset(asset, checksum, fullPath) {
				summary.Skipped++
				continue
			}
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(fullPath)); err != nil {
			return summary, err
		}
		metadata := map[string]string{"asset": asset}
		if selection != nil {
			metadata["theme"] = selection.Theme
		}
		req := writeFileRequest{
			Path:        fullPath,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Category:    categoryAsset,
			ContentType: detectAssetContentType(destRel),
			Checksum:    checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return summary, err
		}
		summary.Built++
		summary.Artifacts = append(summary.Artifacts, fullPath)
		if manifest != nil {
			manifest.setAsset(manifestAsset{
				Source:   asset,
				Output:   fullPath,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now(),
			})
		}
	}
	return summary, nil
}

func (s *service) mergeRenderedForSitemap(
	buildCtx *BuildContext,
	rendered []RenderedPage,
	manifest *buildManifest,
) []RenderedPage {
	if buildCtx == nil || manifest == nil {
		return append([]RenderedPage(nil), rendered...)
	}

	renderedByKey := make(map[string]RenderedPage, len(rendered))
	for _, page := range rendered {
		key := manifest.pageKey(page.Kind, page.Identifier)
		renderedByKey[key] = page
	}

	sitemap := make([]RenderedPage, 0, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		identifier := pageIdentifier(data)
		key := manifest.pageKey(data.Kind, identifier)
		if page, ok := renderedByKey[key]; ok {
			sitemap = append(sitemap, page)
			continue
		}
		if entry, ok := manifest.lookupPage(data.Kind, identifier); ok {
			sitemap = append(sitemap, RenderedPage{
				Identifier: identifier,
				Kind:       data.Kind,
				Route:      entry.Route,
				Output:     entry.Output,
				Template:   entry.Template,
				Metadata: DependencyMetadata{
					Hash:         entry.Hash,
					LastModified: entry.LastModified,
				},
				Checksum: entry.Checksum,
			})
			continue
		}
		sitemap = append(sitemap, RenderedPage{
			Identifier: identifier,
			Kind:       data.Kind,
			Route:      data.Route,
			Template:   data.Template,
			Metadata:   data.Metadata,
		})
	}
	return sitemap
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storageOpRead, target)
	if err != nil {
		return nil, fmt.Errorf("publisher: read manifest: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("publisher: scan manifest: %w", err)
	}
	manifest, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	if manifest == nil {
		return nil
	}
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return nil
	}
	dirCache := map[string]struct{}{}
	if err := ensureDir(ctx, writer, dirCache, path.Dir(target)); err != nil {
		return err
	}
	metadata := map[string]string{
		"version": strconv.Itoa(manifest.Version),
	}
	if !manifest.GeneratedAt.IsZero() {
		metadata["generated_at"] = manifest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	req := writeFileRequest{
		Path:        target,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata:    metadata,
	}
	return writer.WriteFile(ctx, req)
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	pages []RenderedPage,
) (string, error) {
	sitemapContent := buildSitemap(siteMeta.BaseURL, pages, buildCtx.GeneratedAt)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return "", err
	}
	checksum := computeHashFromString(sitemapContent)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(sitemapContent),
		Size:        int64(len(sitemapContent)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return "", err
	}
	return fullPath, nil
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
) (string, error) {
	robotsContent := buildRobots(siteMeta.BaseURL, s.cfg.GenerateSitemap)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	fullPath := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, path.Dir(fullPath)); err != nil {
		return "", err
	}
	checksum := computeHashFromString(robotsContent)
	req := writeFileRequest{
		Path:        fullPath,
		Content:     strings.NewReader(robotsContent),
		Size:        int64(len(robotsContent)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    checksum,
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return "", err
	}
	return fullPath, nil
}

func (s *service) effectiveWorkerCount(pageCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if pageCount > 0 && workers > pageCount {
		return pageCount
	}
	return workers
}

func pageIdentifier(data *PageData) string {
	if data == nil {
		return ""
	}
	if data.Document != nil {
		return data.Document.Identifier
	}
	if data.Kind == kindIndex {
		return "index"
	}
	return ""
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.Trim(dir, " ")
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}
