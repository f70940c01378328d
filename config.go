package press

import "github.com/goliatone/go-press/internal/runtimeconfig"

var (
	ErrContentDirRequired         = runtimeconfig.ErrContentDirRequired
	ErrThemesFeatureRequired      = runtimeconfig.ErrThemesFeatureRequired
	ErrPublisherOutputDirRequired = runtimeconfig.ErrPublisherOutputDirRequired
	ErrPublisherWorkersInvalid    = runtimeconfig.ErrPublisherWorkersInvalid
	ErrArchiveDriverUnknown       = runtimeconfig.ErrArchiveDriverUnknown
	ErrArchiveDSNRequired         = runtimeconfig.ErrArchiveDSNRequired
	ErrWatchDebounceInvalid       = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	SiteConfig           = runtimeconfig.SiteConfig
	ContentConfig        = runtimeconfig.ContentConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	ArchiveConfig        = runtimeconfig.ArchiveConfig
	CacheConfig          = runtimeconfig.CacheConfig
	PublisherConfig      = runtimeconfig.PublisherConfig
	NavigationConfig     = runtimeconfig.NavigationConfig
	URLKitResolverConfig = runtimeconfig.URLKitResolverConfig
	ThemeConfig          = runtimeconfig.ThemeConfig
	WatchConfig          = runtimeconfig.WatchConfig
	Features             = runtimeconfig.Features
	CommandsConfig       = runtimeconfig.CommandsConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
