package di

import (
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	publishcmd "github.com/goliatone/go-press/internal/commands/publish"
	storecmd "github.com/goliatone/go-press/internal/commands/store"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry = commands.CommandRegistry

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher = commands.CommandDispatcher

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription = commands.CommandSubscription

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar = commands.CronRegistrar

// CommandRegistrationOptions configures how container command handlers are
// registered with host integrations.
type CommandRegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
}

// CommandRegistrationResult captures the constructed handlers and any
// dispatcher subscriptions so hosts can tear them down.
type CommandRegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterCommands builds the command handlers for the container's services
// and registers them with the provided registry/dispatcher/cron integrations.
// Handlers honour the configured feature gates at execution time, so a store
// handler built here still refuses to run when the feature is later disabled.
func (c *Container) RegisterCommands(opts CommandRegistrationOptions) (*CommandRegistrationResult, error) {
	result := &CommandRegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}
	if !c.Config.Commands.Enabled {
		return result, nil
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider = c.loggerProvider
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}

		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	cfg := c.Config

	storeGates := storecmd.FeatureGates{
		StoreEnabled:   func() bool { return cfg.Enabled },
		ArchiveEnabled: func() bool { return cfg.Features.Archive },
	}
	var archive = c.archiveRepo
	if !cfg.Features.Archive {
		archive = nil
	}
	storeSet, err := storecmd.RegisterStoreCommands(opts.Registry, c.storeSvc, archive, provider, storeGates)
	if err != nil {
		errs = errors.Join(errs, err)
	} else if storeSet != nil {
		register(storeSet.Reload)
		if storeSet.SyncArchive != nil {
			register(storeSet.SyncArchive)
		}
	}

	if cfg.Features.Publisher {
		publishGates := publishcmd.FeatureGates{
			PublisherEnabled: func() bool { return cfg.Features.Publisher },
		}
		publishSet, err := publishcmd.RegisterPublishCommands(opts.Registry, c.publisherSvc, provider, publishGates)
		if err != nil {
			errs = errors.Join(errs, err)
		} else if publishSet != nil {
			register(publishSet.Build)
		}
	}

	return result, errs
}
