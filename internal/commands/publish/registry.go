package publishcmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/publisher"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry = commands.CommandRegistry

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar = commands.CronRegistrar

// HandlerSet groups the publish command handlers produced by RegisterPublishCommands.
type HandlerSet struct {
	Build *BuildSiteHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	buildHandlerOpts []commands.HandlerOption[BuildSiteCommand]
}

// WithBuildHandlerOptions forwards options to the BuildSiteHandler constructor.
func WithBuildHandlerOptions(opts ...commands.HandlerOption[BuildSiteCommand]) Option {
	return func(cfg *options) {
		cfg.buildHandlerOpts = append(cfg.buildHandlerOpts, opts...)
	}
}

// RegisterPublishCommands builds publish command handlers and registers them with the provided
// registry. A HandlerSet containing the constructed handlers is returned so callers can wire
// additional integrations (dispatcher, cron) as needed.
func RegisterPublishCommands(reg CommandRegistry, service publisher.Service, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("publish command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "publish")

	buildHandler := NewBuildSiteHandler(service, logger, gates, cfg.buildHandlerOpts...)

	if reg != nil {
		if err := reg.RegisterCommand(buildHandler); err != nil {
			return nil, err
		}
	}

	return &HandlerSet{
		Build: buildHandler,
	}, nil
}

// RegisterBuildCron wires the provided build handler into a cron registrar using the supplied
// command configuration and message payload. The handler is executed with a background context.
func RegisterBuildCron(reg CronRegistrar, handler *BuildSiteHandler, cfg command.HandlerConfig, msg BuildSiteCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
