package press

import (
	"context"

	"github.com/goliatone/go-press/internal/di"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/internal/publisher"
	"github.com/goliatone/go-press/internal/watcher"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// StoreService exports the document store contract for consumers of the
// press package. Reads serve from an immutable snapshot; Reload swaps the
// snapshot atomically and never mutates documents in place.
type StoreService = posts.Service

// Document exports the canonical document record.
type Document = posts.Document

// CategoryCount exports the category aggregation record.
type CategoryCount = posts.CategoryCount

// ReloadResult exports the snapshot swap summary.
type ReloadResult = posts.ReloadResult

// ArchiveRepository exports the archive persistence contract.
type ArchiveRepository = posts.ArchiveRepository

// NotFoundError exports the store's missing-document error.
type NotFoundError = posts.NotFoundError

// ParseError exports the malformed-document error carried on snapshots.
type ParseError = posts.ParseError

// PublisherService exports the static publisher contract.
type PublisherService = publisher.Service

// BuildOptions exports the publisher build options.
type BuildOptions = publisher.BuildOptions

// BuildResult exports the publisher build summary.
type BuildResult = publisher.BuildResult

// Watcher exports the content watcher.
type Watcher = watcher.Watcher

// WatchEvent exports the watcher's change event record.
type WatchEvent = watcher.Event

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	return posts.IsNotFound(err)
}

// Module represents the top level press runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a press module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Store returns the configured document store.
func (m *Module) Store() StoreService {
	return m.container.StoreService()
}

// Markdown returns the configured markdown service.
func (m *Module) Markdown() interfaces.MarkdownService {
	return m.container.MarkdownService()
}

// Publisher returns the configured publisher service.
func (m *Module) Publisher() PublisherService {
	return m.container.PublisherService()
}

// Archive returns the configured archive repository.
func (m *Module) Archive() ArchiveRepository {
	return m.container.ArchiveRepository()
}

// Watcher constructs a content watcher for live snapshot reloads. It fails
// with watcher.ErrWatcherDisabled when the watch feature is off.
func (m *Module) Watcher() (*Watcher, error) {
	return m.container.Watcher()
}

// Watch starts a content watcher and reloads the store whenever a batch of
// filesystem changes settles. Each reload swaps the snapshot atomically, so
// readers keep serving the previous corpus until the new one is ready. Watch
// blocks until ctx is cancelled or the watcher fails.
func (m *Module) Watch(ctx context.Context) error {
	w, err := m.Watcher()
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger := m.Logger()
	store := m.Store()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			result, err := store.Reload(ctx)
			if err != nil {
				logger.Error("watch reload failed", "error", err, "changes", len(batch))
				continue
			}
			logger.Info("watch reload complete",
				"changes", len(batch),
				"loaded", result.Loaded,
				"excluded", result.Excluded,
			)
		}
	}
}

// Logger returns the root module logger.
func (m *Module) Logger() interfaces.Logger {
	return m.container.Logger()
}
