package bootstrap

import (
	"database/sql"
	"fmt"
	"strings"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options captures configuration for press CLI bootstraps.
type Options struct {
	ContentDir     string
	Pattern        string
	Recursive      bool
	IncludeDrafts  bool
	Validate       bool
	OutputDir      string
	BaseURL        string
	Publisher      bool
	ArchiveDriver  string
	ArchiveDSN     string
	LoggerProvider interfaces.LoggerProvider
	Template       interfaces.TemplateRenderer
	Storage        interfaces.StorageProvider
}

// Module wraps the press module plus the services CLIs drive directly.
type Module struct {
	Module    *press.Module
	Store     press.StoreService
	Markdown  interfaces.MarkdownService
	Publisher press.PublisherService
	Logger    interfaces.Logger

	archiveDB *sql.DB
}

// Close releases resources owned by the bootstrap, currently the archive
// database handle when one was opened.
func (m *Module) Close() error {
	if m == nil || m.archiveDB == nil {
		return nil
	}
	return m.archiveDB.Close()
}

// BuildModule constructs a press module configured for CLI use.
func BuildModule(opts Options) (*Module, error) {
	cfg := press.DefaultConfig()

	if dir := strings.TrimSpace(opts.ContentDir); dir != "" {
		cfg.Content.Dir = dir
	}
	if pattern := strings.TrimSpace(opts.Pattern); pattern != "" {
		cfg.Content.Pattern = pattern
	}
	cfg.Content.Recursive = opts.Recursive
	cfg.Content.IncludeDrafts = opts.IncludeDrafts
	cfg.Features.Validate = opts.Validate

	if opts.Publisher {
		cfg.Features.Publisher = true
		if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
			cfg.Publisher.OutputDir = dir
		}
		cfg.Publisher.BaseURL = strings.TrimSpace(opts.BaseURL)
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}
	if opts.Template != nil {
		diOpts = append(diOpts, di.WithTemplate(opts.Template))
	}
	if opts.Storage != nil {
		diOpts = append(diOpts, di.WithStorage(opts.Storage))
	}

	var archiveDB *sql.DB
	if dsn := strings.TrimSpace(opts.ArchiveDSN); dsn != "" {
		cfg.Features.Archive = true
		cfg.Archive.DSN = dsn
		if driver := strings.TrimSpace(opts.ArchiveDriver); driver != "" {
			cfg.Archive.Driver = driver
		}

		sqldb, err := sql.Open(sqlDriverName(cfg.Archive.Driver), dsn)
		if err != nil {
			return nil, fmt.Errorf("open archive database: %w", err)
		}
		archiveDB = sqldb
		diOpts = append(diOpts, di.WithBunDB(di.WrapArchiveDB(sqldb, cfg.Archive.Driver)))
	}

	module, err := press.New(cfg, diOpts...)
	if err != nil {
		if archiveDB != nil {
			archiveDB.Close()
		}
		return nil, fmt.Errorf("initialise press module: %w", err)
	}

	return &Module{
		Module:    module,
		Store:     module.Store(),
		Markdown:  module.Markdown(),
		Publisher: module.Publisher(),
		Logger:    logging.ModuleLogger(module.Container().LoggerProvider(), ""),
		archiveDB: archiveDB,
	}, nil
}

func sqlDriverName(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pg":
		return "postgres"
	default:
		return "sqlite3"
	}
}
