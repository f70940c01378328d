package storecmd

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

type stubStore struct {
	docs        []*posts.Document
	listErr     error
	reloadCalls int
	reloadErr   error
	reload      *posts.ReloadResult
}

var _ posts.Service = (*stubStore)(nil)

func (s *stubStore) List(context.Context) ([]*posts.Document, error) {
	return s.docs, s.listErr
}

func (s *stubStore) ListByCategory(context.Context, string) ([]*posts.Document, error) {
	return nil, nil
}

func (s *stubStore) Get(context.Context, string) (*posts.Document, error) {
	return nil, nil
}

func (s *stubStore) Categories(context.Context) ([]posts.CategoryCount, error) {
	return nil, nil
}

func (s *stubStore) Reload(context.Context) (*posts.ReloadResult, error) {
	s.reloadCalls++
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	return s.reload, nil
}

func (s *stubStore) Issues() []*posts.ParseError { return nil }

func (s *stubStore) LoadedAt() time.Time { return time.Time{} }

type stubArchive struct {
	upserts    []string
	upsertErr  error
	deleteKeep []string
	deleted    int
	deleteErr  error
}

var _ posts.ArchiveRepository = (*stubArchive)(nil)

func (a *stubArchive) Upsert(_ context.Context, record *posts.Document) (*posts.Document, error) {
	if a.upsertErr != nil {
		return nil, a.upsertErr
	}
	a.upserts = append(a.upserts, record.Identifier)
	return record, nil
}

func (a *stubArchive) GetByIdentifier(context.Context, string) (*posts.Document, error) {
	return nil, nil
}

func (a *stubArchive) List(context.Context) ([]*posts.Document, error) {
	return nil, nil
}

func (a *stubArchive) DeleteStale(_ context.Context, keep []string) (int, error) {
	if a.deleteErr != nil {
		return 0, a.deleteErr
	}
	a.deleteKeep = append([]string(nil), keep...)
	return a.deleted, nil
}

type captureLogger struct {
	fields       []map[string]any
	infoMessages []string
}

var _ interfaces.Logger = (*captureLogger)(nil)

func (c *captureLogger) Trace(string, ...any) {}
func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(msg string, _ ...any) {
	c.infoMessages = append(c.infoMessages, msg)
}
func (c *captureLogger) Warn(string, ...any)  {}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Fatal(string, ...any) {}

func (c *captureLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	c.fields = append(c.fields, copied)
	return c
}

func (c *captureLogger) WithContext(context.Context) interfaces.Logger { return c }

func storeDocument(identifier string) *posts.Document {
	return &posts.Document{
		Identifier:  identifier,
		Title:       "Essay " + identifier,
		Status:      posts.StatusPublished,
		PublishedAt: time.Date(2025, time.May, 26, 0, 0, 0, 0, time.UTC),
	}
}

func enabledGates() FeatureGates {
	return FeatureGates{
		StoreEnabled:   func() bool { return true },
		ArchiveEnabled: func() bool { return true },
	}
}

func TestReloadStoreHandlerInvokesStore(t *testing.T) {
	store := &stubStore{
		reload: &posts.ReloadResult{
			Loaded:   2,
			Excluded: 1,
			Archived: 2,
			Removed:  0,
			Took:     25 * time.Millisecond,
		},
	}
	logger := &captureLogger{}
	handler := NewReloadStoreHandler(store, logger, enabledGates())

	if err := handler.Execute(context.Background(), ReloadStoreCommand{Reason: "watcher"}); err != nil {
		t.Fatalf("execute reload: %v", err)
	}
	if store.reloadCalls != 1 {
		t.Fatalf("expected one reload call, got %d", store.reloadCalls)
	}

	found := false
	for _, fields := range logger.fields {
		if _, ok := fields["loaded_count"]; !ok {
			continue
		}
		found = true
		if fields["loaded_count"] != 2 {
			t.Fatalf("expected loaded count 2, got %v", fields["loaded_count"])
		}
		if fields["excluded_count"] != 1 {
			t.Fatalf("expected excluded count 1, got %v", fields["excluded_count"])
		}
		break
	}
	if !found {
		t.Fatalf("expected reload summary fields recorded, got %#v", logger.fields)
	}
}

func TestReloadStoreHandlerFeatureDisabled(t *testing.T) {
	store := &stubStore{reload: &posts.ReloadResult{}}
	handler := NewReloadStoreHandler(store, logging.NoOp(), FeatureGates{
		StoreEnabled: func() bool { return false },
	})

	err := handler.Execute(context.Background(), ReloadStoreCommand{})
	if !errors.Is(err, ErrStoreFeatureDisabled) {
		t.Fatalf("expected feature disabled error, got %v", err)
	}
	if store.reloadCalls != 0 {
		t.Fatalf("expected no reload calls, got %d", store.reloadCalls)
	}
}

func TestReloadStoreHandlerContextCancellation(t *testing.T) {
	store := &stubStore{reload: &posts.ReloadResult{}}
	handler := NewReloadStoreHandler(store, logging.NoOp(), enabledGates())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, ReloadStoreCommand{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command error category, got %v", err)
	}
	if store.reloadCalls != 0 {
		t.Fatalf("expected no reload calls, got %d", store.reloadCalls)
	}
}

func TestReloadStoreHandlerPropagatesStoreError(t *testing.T) {
	store := &stubStore{reloadErr: errors.New("walk failed")}
	handler := NewReloadStoreHandler(store, logging.NoOp(), enabledGates())

	err := handler.Execute(context.Background(), ReloadStoreCommand{})
	if err == nil {
		t.Fatal("expected reload error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command error category, got %v", err)
	}
}

func TestSyncArchiveHandlerMirrorsSnapshot(t *testing.T) {
	store := &stubStore{docs: []*posts.Document{
		storeDocument("2025-05-26-program-verification-intro"),
		storeDocument("2025-08-09-when-one-run-isnt-enough"),
	}}
	archive := &stubArchive{}
	logger := &captureLogger{}
	handler := NewSyncArchiveHandler(store, archive, logger, enabledGates())

	if err := handler.Execute(context.Background(), SyncArchiveCommand{}); err != nil {
		t.Fatalf("execute sync: %v", err)
	}
	if len(archive.upserts) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(archive.upserts))
	}
	if archive.deleteKeep != nil {
		t.Fatalf("expected no prune without flag, got keep list %v", archive.deleteKeep)
	}

	found := false
	for _, fields := range logger.fields {
		if count, ok := fields["synced_count"]; ok {
			found = true
			if count != 2 {
				t.Fatalf("expected synced count 2, got %v", count)
			}
			break
		}
	}
	if !found {
		t.Fatalf("expected sync summary fields recorded, got %#v", logger.fields)
	}
}

func TestSyncArchiveHandlerScopesToIdentifiers(t *testing.T) {
	store := &stubStore{docs: []*posts.Document{
		storeDocument("2025-05-26-program-verification-intro"),
		storeDocument("2025-08-09-when-one-run-isnt-enough"),
	}}
	archive := &stubArchive{}
	handler := NewSyncArchiveHandler(store, archive, logging.NoOp(), enabledGates())

	cmd := SyncArchiveCommand{
		Identifiers: []string{"  2025-08-09-WHEN-one-run-isnt-enough  "},
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute scoped sync: %v", err)
	}
	if len(archive.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(archive.upserts))
	}
	if archive.upserts[0] != "2025-08-09-when-one-run-isnt-enough" {
		t.Fatalf("expected scoped identifier, got %q", archive.upserts[0])
	}
}

func TestSyncArchiveHandlerPrunesAgainstFullSnapshot(t *testing.T) {
	store := &stubStore{docs: []*posts.Document{
		storeDocument("2025-05-26-program-verification-intro"),
		storeDocument("2025-08-09-when-one-run-isnt-enough"),
	}}
	archive := &stubArchive{deleted: 3}
	logger := &captureLogger{}
	handler := NewSyncArchiveHandler(store, archive, logger, enabledGates())

	cmd := SyncArchiveCommand{
		Identifiers: []string{"2025-05-26-program-verification-intro"},
		Prune:       true,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute prune sync: %v", err)
	}
	if len(archive.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(archive.upserts))
	}
	if len(archive.deleteKeep) != 2 {
		t.Fatalf("expected keep list covering full snapshot, got %v", archive.deleteKeep)
	}

	found := false
	for _, fields := range logger.fields {
		if count, ok := fields["pruned_count"]; ok {
			found = true
			if count != 3 {
				t.Fatalf("expected pruned count 3, got %v", count)
			}
			break
		}
	}
	if !found {
		t.Fatalf("expected prune summary fields recorded, got %#v", logger.fields)
	}
}

func TestSyncArchiveHandlerArchiveDisabled(t *testing.T) {
	store := &stubStore{docs: []*posts.Document{storeDocument("2025-05-26-program-verification-intro")}}
	archive := &stubArchive{}
	handler := NewSyncArchiveHandler(store, archive, logging.NoOp(), FeatureGates{
		StoreEnabled:   func() bool { return true },
		ArchiveEnabled: func() bool { return false },
	})

	err := handler.Execute(context.Background(), SyncArchiveCommand{})
	if !errors.Is(err, ErrArchiveFeatureDisabled) {
		t.Fatalf("expected archive disabled error, got %v", err)
	}
	if len(archive.upserts) != 0 {
		t.Fatalf("expected no upserts, got %d", len(archive.upserts))
	}
}

func TestSyncArchiveHandlerRequiresRepository(t *testing.T) {
	store := &stubStore{}
	handler := NewSyncArchiveHandler(store, nil, logging.NoOp(), enabledGates())

	err := handler.Execute(context.Background(), SyncArchiveCommand{})
	if !errors.Is(err, ErrArchiveRepositoryRequired) {
		t.Fatalf("expected repository required error, got %v", err)
	}
}
