package di

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/identity"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/logging/console"
	"github.com/goliatone/go-press/internal/logging/gologger"
	"github.com/goliatone/go-press/internal/markdown"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/publisher"
	"github.com/goliatone/go-press/internal/runtimeconfig"
	"github.com/goliatone/go-press/internal/validation"
	"github.com/goliatone/go-press/internal/watcher"
	"github.com/goliatone/go-press/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Container wires module dependencies: the markdown corpus loader, the
// document store, the optional archive, the publisher, and the watcher.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	storage        interfaces.StorageProvider
	template       interfaces.TemplateRenderer
	assets         publisher.AssetResolver

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	routeManager *urlkit.RouteManager
	routes       *publisher.RouteResolver

	markdownSvc  interfaces.MarkdownService
	source       posts.DocumentSource
	archiveRepo  posts.ArchiveRepository
	storeSvc     posts.Service
	publisherSvc publisher.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the logger provider derived from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithStorage supplies the storage provider the publisher writes artifacts
// through. Without one, builds run dry and only report artifact names.
func WithStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.storage = sp
	}
}

// WithTemplate supplies the rendering collaborator for publisher builds.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.template = tr
	}
}

// WithAssetResolver supplies the resolver theme assets are copied through.
func WithAssetResolver(resolver publisher.AssetResolver) Option {
	return func(c *Container) {
		c.assets = resolver
	}
}

// WithBunDB binds the archive to an existing bun database handle.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by the bun archive.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMarkdownService overrides the default markdown service binding.
func WithMarkdownService(svc interfaces.MarkdownService) Option {
	return func(c *Container) {
		c.markdownSvc = svc
	}
}

// WithDocumentSource overrides the source the store loads snapshots from.
func WithDocumentSource(source posts.DocumentSource) Option {
	return func(c *Container) {
		c.source = source
	}
}

// WithArchiveRepository overrides the default archive repository binding.
func WithArchiveRepository(repo posts.ArchiveRepository) Option {
	return func(c *Container) {
		c.archiveRepo = repo
	}
}

// WithStoreService overrides the default store service binding.
func WithStoreService(svc posts.Service) Option {
	return func(c *Container) {
		c.storeSvc = svc
	}
}

// WithPublisherService overrides the default publisher binding.
func WithPublisherService(svc publisher.Service) Option {
	return func(c *Container) {
		c.publisherSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.configureLogging()
	c.configureCacheDefaults()
	c.configureNavigation()
	c.configureArchive()

	if err := c.configureMarkdown(); err != nil {
		return nil, err
	}
	if err := c.configureSource(); err != nil {
		return nil, err
	}
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	c.configurePublisher()

	return c, nil
}

func (c *Container) configureLogging() {
	if c.loggerProvider != nil {
		return
	}
	if !c.Config.Features.Logger {
		return
	}

	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err == nil {
			c.loggerProvider = provider
			return
		}
		// fall through to the console provider when gologger rejects the config
		fallthrough
	default:
		minLevel := consoleLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &minLevel})
	}
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureNavigation() {
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		c.routes = publisher.NewRouteResolver(publisher.RouteResolverOptions{})
		return
	}

	manager := urlkit.NewRouteManager(navCfg.RouteConfig)
	c.routeManager = manager

	c.routes = publisher.NewRouteResolver(publisher.RouteResolverOptions{
		Manager:         manager,
		PostsGroup:      strings.TrimSpace(navCfg.URLKit.Group),
		PostRoute:       strings.TrimSpace(navCfg.URLKit.PostRoute),
		CategoryRoute:   strings.TrimSpace(navCfg.URLKit.CategoryRoute),
		IdentifierParam: strings.TrimSpace(navCfg.URLKit.SlugParam),
		CategoryParam:   strings.TrimSpace(navCfg.URLKit.CategoryParam),
	})
}

func (c *Container) configureArchive() {
	if c.archiveRepo != nil {
		return
	}
	if c.bunDB != nil {
		if c.cacheService != nil && c.keySerializer != nil {
			c.archiveRepo = posts.NewBunArchiveRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
			return
		}
		c.archiveRepo = posts.NewBunArchiveRepository(c.bunDB)
		return
	}
	c.archiveRepo = posts.NewMemoryArchiveRepository()
}

func (c *Container) configureMarkdown() error {
	if c.markdownSvc != nil {
		return nil
	}

	contentCfg := c.Config.Content
	svc, err := markdown.NewService(markdown.Config{
		BasePath:  contentCfg.Dir,
		Pattern:   contentCfg.Pattern,
		Recursive: contentCfg.Recursive,
		Parser: interfaces.ParseOptions{
			Extensions: contentCfg.Parser.Extensions,
			Sanitize:   contentCfg.Parser.Sanitize,
			HardWraps:  contentCfg.Parser.HardWraps,
			SafeMode:   contentCfg.Parser.SafeMode,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("di: configure markdown service: %w", err)
	}
	c.markdownSvc = svc
	return nil
}

func (c *Container) configureSource() error {
	if c.source != nil {
		return nil
	}

	contentCfg := c.Config.Content
	sourceOpts := []posts.SourceOption{
		posts.WithIDGenerator(identity.DocumentUUID),
		posts.WithSourceLogger(logging.StoreLogger(c.loggerProvider)),
	}
	if c.Config.Features.Validate {
		sourceOpts = append(sourceOpts, posts.WithValidator(validation.ValidateFrontMatter))
	}

	source, err := posts.NewMarkdownSource(c.markdownSvc, posts.SourceConfig{
		Pattern:       contentCfg.Pattern,
		Recursive:     contentCfg.Recursive,
		IncludeDrafts: contentCfg.IncludeDrafts,
	}, sourceOpts...)
	if err != nil {
		return fmt.Errorf("di: configure document source: %w", err)
	}
	c.source = source
	return nil
}

func (c *Container) configureStore() error {
	if c.storeSvc != nil {
		return nil
	}

	storeOpts := []posts.ServiceOption{
		posts.WithLogger(logging.StoreLogger(c.loggerProvider)),
	}
	if c.Config.Features.Archive {
		storeOpts = append(storeOpts, posts.WithArchive(c.archiveRepo))
	}

	svc, err := posts.NewService(c.source, storeOpts...)
	if err != nil {
		return fmt.Errorf("di: configure store service: %w", err)
	}
	c.storeSvc = svc
	return nil
}

func (c *Container) configurePublisher() {
	if c.publisherSvc != nil {
		return
	}
	if !c.Config.Features.Publisher {
		c.publisherSvc = publisher.NewDisabledService()
		return
	}

	pubCfg := c.Config.Publisher
	cfg := publisher.Config{
		OutputDir:       pubCfg.OutputDir,
		BaseURL:         pubCfg.BaseURL,
		SiteTitle:       c.Config.Site.Title,
		SiteDescription: c.Config.Site.Description,
		Incremental:     !pubCfg.CleanBuild,
		CopyAssets:      pubCfg.CopyAssets,
		GenerateSitemap: pubCfg.GenerateSitemap,
		GenerateRobots:  pubCfg.GenerateRobots,
		GenerateFeeds:   pubCfg.GenerateFeeds,
		Workers:         pubCfg.Workers,
	}
	if c.Config.Features.Themes {
		cfg.Theming = publisher.ThemingConfig{
			Dir:   c.Config.Themes.BasePath,
			Theme: c.Config.Themes.DefaultTheme,
		}
	}

	c.publisherSvc = publisher.NewService(cfg, publisher.Dependencies{
		Store:    c.storeSvc,
		Renderer: c.template,
		Storage:  c.storage,
		Routes:   c.routes,
		Assets:   c.assets,
	})
}

// Watcher constructs a content watcher bound to the configured content
// directory. Each call returns a fresh watcher; callers own Start/Stop.
func (c *Container) Watcher() (*watcher.Watcher, error) {
	watchCfg := watcher.Config{
		Enabled:        c.Config.Features.Watch,
		DebounceDelay:  c.Config.Watch.Debounce(watcher.DefaultConfig().DebounceDelay),
		FileExtensions: c.Config.Watch.FileExtensions,
		ExcludeDirs:    c.Config.Watch.ExcludeDirs,
	}
	return watcher.New(watchCfg, c.Config.Content.Dir, logging.WatchLogger(c.loggerProvider))
}

// WrapArchiveDB wraps an opened SQL handle with the bun dialect matching the
// configured archive driver.
func WrapArchiveDB(sqldb *sql.DB, driver string) *bun.DB {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pg":
		return bun.NewDB(sqldb, pgdialect.New())
	default:
		return bun.NewDB(sqldb, sqlitedialect.New())
	}
}

// LoggerProvider exposes the configured logger provider, which may be nil
// when the logging feature is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns the root module logger.
func (c *Container) Logger() interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, "")
}

// StorageProvider exposes the configured storage implementation.
func (c *Container) StorageProvider() interfaces.StorageProvider {
	return c.storage
}

// TemplateRenderer exposes the configured template renderer.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.template
}

// RouteManager exposes the urlkit manager when navigation is configured.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// MarkdownService returns the configured markdown service.
func (c *Container) MarkdownService() interfaces.MarkdownService {
	return c.markdownSvc
}

// DocumentSource returns the source snapshots load from.
func (c *Container) DocumentSource() posts.DocumentSource {
	return c.source
}

// ArchiveRepository returns the configured archive repository.
func (c *Container) ArchiveRepository() posts.ArchiveRepository {
	return c.archiveRepo
}

// StoreService returns the configured document store.
func (c *Container) StoreService() posts.Service {
	return c.storeSvc
}

// PublisherService returns the configured publisher.
func (c *Container) PublisherService() publisher.Service {
	return c.publisherSvc
}

func consoleLevel(level string) console.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace
	case "debug":
		return console.LevelDebug
	case "warn", "warning":
		return console.LevelWarn
	case "error":
		return console.LevelError
	case "fatal":
		return console.LevelFatal
	default:
		return console.LevelInfo
	}
}
