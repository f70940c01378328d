package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-press/internal/runtimeconfig"
)

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresContentDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Content.Dir = "  "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestConfigValidate_AllowsDisabledPublisherWithoutOutput(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Publisher.OutputDir = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresOutputDirWhenPublisherEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Publisher = true
	cfg.Publisher.OutputDir = " "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrPublisherOutputDirRequired) {
		t.Fatalf("expected ErrPublisherOutputDirRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativePublisherWorkers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Publisher.Workers = -1

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrPublisherWorkersInvalid) {
		t.Fatalf("expected ErrPublisherWorkersInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsDefaultThemeWithoutFeature(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Themes.DefaultTheme = "minimal"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrThemesFeatureRequired) {
		t.Fatalf("expected ErrThemesFeatureRequired, got %v", err)
	}
}

func TestConfigValidate_ArchiveDriverAndDSN(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Archive = true
	cfg.Archive.Driver = "oracle"
	cfg.Archive.DSN = "file::memory:"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrArchiveDriverUnknown) {
		t.Fatalf("expected ErrArchiveDriverUnknown, got %v", err)
	}

	cfg.Archive.Driver = "sqlite"
	cfg.Archive.DSN = " "
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrArchiveDSNRequired) {
		t.Fatalf("expected ErrArchiveDSNRequired, got %v", err)
	}

	cfg.Archive.DSN = "file::memory:?cache=shared"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_WatchDebounce(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Watch = true
	cfg.Watch.DebounceDelay = "not-a-duration"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrWatchDebounceInvalid) {
		t.Fatalf("expected ErrWatchDebounceInvalid, got %v", err)
	}

	cfg.Watch.DebounceDelay = "-1s"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrWatchDebounceInvalid) {
		t.Fatalf("expected ErrWatchDebounceInvalid, got %v", err)
	}

	cfg.Watch.DebounceDelay = "250ms"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_LoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}

	cfg.Logging.Provider = "syslog"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}

	cfg.Logging.Provider = "console"
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg.Logging.Level = "debug"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}

	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestWatchConfigDebounceFallback(t *testing.T) {
	cfg := runtimeconfig.WatchConfig{DebounceDelay: ""}
	if got := cfg.Debounce(750 * time.Millisecond); got != 750*time.Millisecond {
		t.Fatalf("expected fallback debounce, got %v", got)
	}

	cfg.DebounceDelay = "2s"
	if got := cfg.Debounce(750 * time.Millisecond); got != 2*time.Second {
		t.Fatalf("expected parsed debounce, got %v", got)
	}

	cfg.DebounceDelay = "bogus"
	if got := cfg.Debounce(750 * time.Millisecond); got != 750*time.Millisecond {
		t.Fatalf("expected fallback for bogus debounce, got %v", got)
	}
}
