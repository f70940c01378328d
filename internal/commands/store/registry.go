package storecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry = commands.CommandRegistry

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar = commands.CronRegistrar

// HandlerSet groups the store command handlers produced by RegisterStoreCommands.
// SyncArchive is nil when no archive repository was supplied.
type HandlerSet struct {
	Reload      *ReloadStoreHandler
	SyncArchive *SyncArchiveHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	reloadHandlerOpts []commands.HandlerOption[ReloadStoreCommand]
	syncHandlerOpts   []commands.HandlerOption[SyncArchiveCommand]
}

// WithReloadHandlerOptions forwards options to the ReloadStoreHandler constructor.
func WithReloadHandlerOptions(opts ...commands.HandlerOption[ReloadStoreCommand]) Option {
	return func(cfg *options) {
		cfg.reloadHandlerOpts = append(cfg.reloadHandlerOpts, opts...)
	}
}

// WithSyncArchiveHandlerOptions forwards options to the SyncArchiveHandler constructor.
func WithSyncArchiveHandlerOptions(opts ...commands.HandlerOption[SyncArchiveCommand]) Option {
	return func(cfg *options) {
		cfg.syncHandlerOpts = append(cfg.syncHandlerOpts, opts...)
	}
}

// RegisterStoreCommands builds store command handlers and registers them with the provided
// registry. A HandlerSet containing the constructed handlers is returned so callers can wire
// additional integrations (dispatcher, cron) as needed.
func RegisterStoreCommands(reg CommandRegistry, store posts.Service, archive posts.ArchiveRepository, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if store == nil {
		return nil, errors.New("store command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "store")

	reloadHandler := NewReloadStoreHandler(store, logger, gates, cfg.reloadHandlerOpts...)

	var syncHandler *SyncArchiveHandler
	if archive != nil {
		syncHandler = NewSyncArchiveHandler(store, archive, logger, gates, cfg.syncHandlerOpts...)
	}

	if reg != nil {
		if err := reg.RegisterCommand(reloadHandler); err != nil {
			return nil, err
		}
		if syncHandler != nil {
			if err := reg.RegisterCommand(syncHandler); err != nil {
				return nil, err
			}
		}
	}

	return &HandlerSet{
		Reload:      reloadHandler,
		SyncArchive: syncHandler,
	}, nil
}

// RegisterReloadCron wires the provided reload handler into a cron registrar using the supplied
// command configuration and message payload. The handler is executed with a background context.
func RegisterReloadCron(reg CronRegistrar, handler *ReloadStoreHandler, cfg command.HandlerConfig, msg ReloadStoreCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
