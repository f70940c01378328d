package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrContentDirRequired indicates the store has no content source to load from.
var ErrContentDirRequired = errors.New("press config: content directory is required")

// ErrThemesFeatureRequired indicates inconsistent theme configuration.
var ErrThemesFeatureRequired = errors.New("press config: themes feature must be enabled to configure a default theme")

// ErrPublisherOutputDirRequired ensures builds always have a destination.
var ErrPublisherOutputDirRequired = errors.New("press config: publisher output directory is required when publisher is enabled")

// ErrPublisherWorkersInvalid rejects negative worker pool sizes.
var ErrPublisherWorkersInvalid = errors.New("press config: publisher workers must be zero or positive")

// ErrArchiveDriverUnknown rejects drivers the archive cannot dial.
var ErrArchiveDriverUnknown = errors.New("press config: archive driver is invalid")

// ErrArchiveDSNRequired ensures the archive has a connection string.
var ErrArchiveDSNRequired = errors.New("press config: archive dsn is required when archive is enabled")

// ErrWatchDebounceInvalid rejects unparseable or non-positive debounce delays.
var ErrWatchDebounceInvalid = errors.New("press config: watch debounce delay is invalid")

var ErrLoggingProviderRequired = errors.New("press config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("press config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("press config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("press config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the press module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled    bool
	Site       SiteConfig
	Content    ContentConfig
	Archive    ArchiveConfig
	Cache      CacheConfig
	Publisher  PublisherConfig
	Navigation NavigationConfig
	Themes     ThemeConfig
	Watch      WatchConfig
	Features   Features
	Commands   CommandsConfig
	Logging    LoggingConfig
}

// SiteConfig describes the publication itself; feeds and templates read it.
type SiteConfig struct {
	Title       string
	Description string
	Author      string
	Language    string
}

// ContentConfig captures filesystem and parser behaviour for document loading.
type ContentConfig struct {
	Dir           string
	Pattern       string
	Recursive     bool
	IncludeDrafts bool
	Parser        MarkdownParserConfig
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// ArchiveConfig captures relational persistence for loaded documents.
type ArchiveConfig struct {
	Driver string
	DSN    string
}

// CacheConfig captures repository cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// PublisherConfig captures behaviour for static site builds.
type PublisherConfig struct {
	OutputDir        string
	BaseURL          string
	CleanBuild       bool
	CopyAssets       bool
	GenerateSitemap  bool
	GenerateRobots   bool
	GenerateFeeds    bool
	Workers          int
	RenderTimeout    time.Duration
	AssetCopyTimeout time.Duration
}

// NavigationConfig captures routing configuration for published URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
	URLKit      URLKitResolverConfig
}

// URLKitResolverConfig configures the go-urlkit based path resolver.
type URLKitResolverConfig struct {
	Group         string
	PostRoute     string
	CategoryRoute string
	SlugParam     string
	CategoryParam string
}

// ThemeConfig captures theme discovery for the publisher.
type ThemeConfig struct {
	BasePath     string
	DefaultTheme string
}

// WatchConfig captures filesystem watching for live snapshot reloads.
type WatchConfig struct {
	Enabled        bool
	DebounceDelay  string
	FileExtensions []string
	ExcludeDirs    []string
}

// Features toggles module functionality.
type Features struct {
	Archive   bool
	Publisher bool
	Watch     bool
	Themes    bool
	Validate  bool
	Logger    bool
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a conventional essay repository.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Site: SiteConfig{
			Language: "en",
		},
		Content: ContentConfig{
			Dir:       "content/posts",
			Pattern:   "*.md",
			Recursive: true,
		},
		Archive: ArchiveConfig{
			Driver: "sqlite",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Publisher: PublisherConfig{
			OutputDir:       "dist",
			CleanBuild:      true,
			CopyAssets:      true,
			GenerateSitemap: true,
			GenerateRobots:  false,
			GenerateFeeds:   true,
			Workers:         0,
		},
		Navigation: NavigationConfig{},
		Themes: ThemeConfig{
			BasePath: "themes",
		},
		Watch: WatchConfig{
			Enabled:        false,
			DebounceDelay:  "500ms",
			FileExtensions: []string{".md"},
			ExcludeDirs:    []string{".git", "node_modules"},
		},
		Features: Features{},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		return ErrContentDirRequired
	}
	if !cfg.Features.Themes {
		if strings.TrimSpace(cfg.Themes.DefaultTheme) != "" {
			return ErrThemesFeatureRequired
		}
	}
	if cfg.Features.Publisher {
		if strings.TrimSpace(cfg.Publisher.OutputDir) == "" {
			return ErrPublisherOutputDirRequired
		}
	}
	if cfg.Publisher.Workers < 0 {
		return ErrPublisherWorkersInvalid
	}
	if cfg.Features.Archive {
		driver := normalizeDriver(cfg.Archive.Driver)
		if !isSupportedDriver(driver) {
			return fmt.Errorf("%w: %s", ErrArchiveDriverUnknown, cfg.Archive.Driver)
		}
		if strings.TrimSpace(cfg.Archive.DSN) == "" {
			return ErrArchiveDSNRequired
		}
	}
	if cfg.Features.Watch {
		if delay := strings.TrimSpace(cfg.Watch.DebounceDelay); delay != "" {
			parsed, err := time.ParseDuration(delay)
			if err != nil || parsed <= 0 {
				return fmt.Errorf("%w: %s", ErrWatchDebounceInvalid, delay)
			}
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// DebounceDelay resolves the configured watch debounce as a duration,
// falling back to the supplied default for blank or unparseable values.
func (cfg WatchConfig) Debounce(fallback time.Duration) time.Duration {
	delay := strings.TrimSpace(cfg.DebounceDelay)
	if delay == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(delay)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case "sqlite", "sqlite3", "postgres", "pg":
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
