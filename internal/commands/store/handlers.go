package storecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-press/internal/commands"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

const (
	reloadOperation      = "store.reload"
	syncArchiveOperation = "store.sync_archive"
)

var (
	// ErrStoreFeatureDisabled is returned when the store feature flag is disabled at runtime.
	ErrStoreFeatureDisabled = errors.New("store command: feature disabled")
	// ErrArchiveFeatureDisabled is returned when archive mirroring is disabled at runtime.
	ErrArchiveFeatureDisabled = errors.New("store command: archive disabled")
	// ErrArchiveRepositoryRequired is returned when no archive repository was wired.
	ErrArchiveRepositoryRequired = errors.New("store command: archive repository is nil")
)

var (
	_ command.Commander[ReloadStoreCommand] = (*ReloadStoreHandler)(nil)
	_ command.Commander[SyncArchiveCommand] = (*SyncArchiveHandler)(nil)
)

// ReloadStoreHandler swaps in a fresh document snapshot via the shared command handler foundation.
type ReloadStoreHandler struct {
	inner *commands.Handler[ReloadStoreCommand]
}

// NewReloadStoreHandler creates a handler bound to the supplied document store.
func NewReloadStoreHandler(store posts.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ReloadStoreCommand]) *ReloadStoreHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ReloadStoreCommand) error {
		if !gates.storeEnabled() {
			return ErrStoreFeatureDisabled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := store.Reload(ctx)
		if err != nil {
			return err
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"loaded_count":   result.Loaded,
				"excluded_count": result.Excluded,
				"archived_count": result.Archived,
				"removed_count":  result.Removed,
				"took_ms":        result.Took.Milliseconds(),
			}).Info("store.command.reload.completed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ReloadStoreCommand]{
		commands.WithLogger[ReloadStoreCommand](baseLogger),
		commands.WithOperation[ReloadStoreCommand](reloadOperation),
		commands.WithMessageFields(func(msg ReloadStoreCommand) map[string]any {
			fields := map[string]any{}
			if msg.Reason != "" {
				fields["reason"] = msg.Reason
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ReloadStoreCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ReloadStoreHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ReloadStoreCommand].
func (h *ReloadStoreHandler) Execute(ctx context.Context, msg ReloadStoreCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SyncArchiveHandler mirrors snapshot documents into the archive repository.
type SyncArchiveHandler struct {
	inner *commands.Handler[SyncArchiveCommand]
}

// NewSyncArchiveHandler creates a handler bound to the supplied store and archive repository.
func NewSyncArchiveHandler(store posts.Service, archive posts.ArchiveRepository, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SyncArchiveCommand]) *SyncArchiveHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SyncArchiveCommand) error {
		if !gates.storeEnabled() {
			return ErrStoreFeatureDisabled
		}
		if !gates.archiveEnabled() {
			return ErrArchiveFeatureDisabled
		}
		if archive == nil {
			return ErrArchiveRepositoryRequired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		docs, err := store.List(ctx)
		if err != nil {
			return err
		}

		selected := docs
		if len(msg.Identifiers) > 0 {
			want := make(map[string]struct{}, len(msg.Identifiers))
			for _, id := range msg.Identifiers {
				want[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
			}
			filtered := make([]*posts.Document, 0, len(want))
			for _, doc := range docs {
				if _, ok := want[doc.Identifier]; ok {
					filtered = append(filtered, doc)
				}
			}
			selected = filtered
		}

		synced := 0
		for _, doc := range selected {
			if _, err := archive.Upsert(ctx, doc); err != nil {
				return fmt.Errorf("archive sync %s: %w", doc.Identifier, err)
			}
			synced++
		}

		pruned := 0
		if msg.Prune {
			// Prune keys off the full snapshot so a scoped sync never deletes live rows.
			keep := make([]string, 0, len(docs))
			for _, doc := range docs {
				keep = append(keep, doc.Identifier)
			}
			removed, err := archive.DeleteStale(ctx, keep)
			if err != nil {
				return fmt.Errorf("archive prune: %w", err)
			}
			pruned = removed
		}

		logging.WithFields(baseLogger, map[string]any{
			"synced_count": synced,
			"pruned_count": pruned,
			"prune":        msg.Prune,
		}).Info("store.command.sync_archive.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SyncArchiveCommand]{
		commands.WithLogger[SyncArchiveCommand](baseLogger),
		commands.WithOperation[SyncArchiveCommand](syncArchiveOperation),
		commands.WithMessageFields(func(msg SyncArchiveCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Identifiers) > 0 {
				fields["identifier_count"] = len(msg.Identifiers)
			}
			if msg.Prune {
				fields["prune"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncArchiveCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncArchiveHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SyncArchiveCommand].
func (h *SyncArchiveHandler) Execute(ctx context.Context, msg SyncArchiveCommand) error {
	return h.inner.Execute(ctx, msg)
}
