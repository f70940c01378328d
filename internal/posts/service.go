package posts

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// Service exposes read access to the document store. Reads serve from the
// current snapshot and never block behind a reload.
type Service interface {
	List(ctx context.Context) ([]*Document, error)
	ListByCategory(ctx context.Context, category string) ([]*Document, error)
	Get(ctx context.Context, identifier string) (*Document, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	Reload(ctx context.Context) (*ReloadResult, error)
	Issues() []*ParseError
	LoadedAt() time.Time
}

// DocumentSource produces the document corpus for a snapshot. Sources report
// malformed files as parse issues instead of failing the whole load.
type DocumentSource interface {
	LoadDocuments(ctx context.Context) ([]*Document, []*ParseError, error)
}

// DocumentSourceFunc adapts a function to the DocumentSource interface.
type DocumentSourceFunc func(ctx context.Context) ([]*Document, []*ParseError, error)

func (f DocumentSourceFunc) LoadDocuments(ctx context.Context) ([]*Document, []*ParseError, error) {
	return f(ctx)
}

// ArchiveRepository persists snapshot documents so they can be inspected or
// queried outside the in-memory store.
type ArchiveRepository interface {
	Upsert(ctx context.Context, record *Document) (*Document, error)
	GetByIdentifier(ctx context.Context, identifier string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	DeleteStale(ctx context.Context, keep []string) (int, error)
}

// ReloadResult summarises a snapshot swap.
type ReloadResult struct {
	Loaded   int
	Excluded int
	Archived int
	Removed  int
	LoadedAt time.Time
	Took     time.Duration
}

type ServiceOption func(*service)

// WithClock overrides the clock used to stamp snapshots.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger attaches a logger to the store.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchive mirrors every snapshot into the supplied repository. Stale
// archive rows are pruned after each reload.
func WithArchive(archive ArchiveRepository) ServiceOption {
	return func(s *service) {
		if archive != nil {
			s.archive = archive
		}
	}
}

// service implements Service.
type service struct {
	source   DocumentSource
	archive  ArchiveRepository
	now      func() time.Time
	logger   interfaces.Logger
	snapshot atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// NewService constructs a document store backed by the supplied source. The
// store starts empty; call Reload to populate the first snapshot.
func NewService(source DocumentSource, opts ...ServiceOption) (Service, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	s := &service{
		source: source,
		now:    time.Now,
		logger: logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.snapshot.Store(EmptySnapshot(s.now()))
	return s, nil
}

// List returns every document ordered by publication time ascending. Repeated
// calls against the same snapshot return the same sequence.
func (s *service) List(ctx context.Context) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current().Documents(), nil
}

// ListByCategory returns the documents tagged with category in publication order.
func (s *service) ListByCategory(ctx context.Context, category string) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current().ByCategory(category), nil
}

// Get retrieves a single document by identifier.
func (s *service) Get(ctx context.Context, identifier string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}
	doc, ok := s.current().Get(identifier)
	if !ok {
		return nil, &NotFoundError{Resource: "document", Key: identifier}
	}
	return doc, nil
}

// Categories reports the categories present in the current snapshot.
func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current().Categories(), nil
}

// Issues returns the parse failures recorded by the current snapshot.
func (s *service) Issues() []*ParseError {
	return s.current().Issues()
}

// LoadedAt reports when the current snapshot was built.
func (s *service) LoadedAt() time.Time {
	return s.current().LoadedAt()
}

// Reload builds a fresh snapshot from the source and swaps it in atomically.
// Readers keep serving the previous snapshot until the swap completes, so a
// failed load leaves the store untouched. Concurrent reloads are serialised.
func (s *service) Reload(ctx context.Context) (*ReloadResult, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	started := s.now()

	docs, issues, err := s.source.LoadDocuments(ctx)
	if err != nil {
		s.logger.Error("store reload failed", "error", err)
		return nil, err
	}

	snapshot := NewSnapshot(docs, issues, started)

	result := &ReloadResult{
		Loaded:   snapshot.Len(),
		Excluded: len(snapshot.Issues()),
		LoadedAt: snapshot.LoadedAt(),
	}

	if s.archive != nil {
		archived, removed, err := s.syncArchive(ctx, snapshot)
		if err != nil {
			s.logger.Error("store archive sync failed", "error", err)
			return nil, err
		}
		result.Archived = archived
		result.Removed = removed
	}

	s.snapshot.Store(snapshot)
	result.Took = s.now().Sub(started)

	s.logger.Info("store reloaded",
		"documents", result.Loaded,
		"excluded", result.Excluded,
		"took", result.Took.String(),
	)
	return result, nil
}

func (s *service) current() *Snapshot {
	return s.snapshot.Load()
}

func (s *service) syncArchive(ctx context.Context, snapshot *Snapshot) (int, int, error) {
	docs := snapshot.Documents()
	keep := make([]string, 0, len(docs))

	for _, doc := range docs {
		if _, err := s.archive.Upsert(ctx, doc); err != nil {
			return 0, 0, err
		}
		keep = append(keep, doc.Identifier)
	}

	removed, err := s.archive.DeleteStale(ctx, keep)
	if err != nil {
		return 0, 0, err
	}
	return len(docs), removed, nil
}
