package publishcmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/publisher"
	"github.com/goliatone/go-press/pkg/interfaces"
)

const buildSiteOperation = "publish.build_site"

var (
	// ErrPublisherFeatureDisabled is returned when the publisher feature flag is disabled at runtime.
	ErrPublisherFeatureDisabled = errors.New("publish command: feature disabled")
)

var _ command.Commander[BuildSiteCommand] = (*BuildSiteHandler)(nil)

// BuildSiteHandler orchestrates static site builds via the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler creates a handler bound to the supplied publisher service.
func NewBuildSiteHandler(service publisher.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if !gates.publisherEnabled() {
			return ErrPublisherFeatureDisabled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := service.Build(ctx, publisher.BuildOptions{
			Identifiers: msg.Identifiers,
			DryRun:      msg.DryRun,
		})
		if err != nil {
			return err
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"pages_count":   result.Pages,
				"skipped_count": result.PagesSkipped,
				"feeds_count":   result.Feeds,
				"assets_count":  result.Assets,
				"error_count":   len(result.Errors),
				"took_ms":       result.Took.Milliseconds(),
				"dry_run":       msg.DryRun,
			}).Info("publish.command.build_site.completed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand](buildSiteOperation),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Identifiers) > 0 {
				fields["identifier_count"] = len(msg.Identifiers)
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}
