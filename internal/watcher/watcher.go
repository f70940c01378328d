package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

const batchChannelBuffer = 64

// ErrWatcherDisabled indicates the watch feature is turned off in configuration.
var ErrWatcherDisabled = errors.New("watcher: disabled")

// Op is the kind of change a watch event reports.
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// Event describes one changed source file. Path is relative to the watched
// content directory.
type Event struct {
	Path    string
	AbsPath string
	Op      Op
}

// Config controls content directory watching.
type Config struct {
	// Enabled turns the watcher on. New rejects disabled configs so callers
	// never hold a watcher that silently does nothing.
	Enabled bool
	// DebounceDelay is how long to collect changes before emitting a batch.
	DebounceDelay time.Duration
	// FileExtensions lists the extensions treated as documents.
	FileExtensions []string
	// ExcludeDirs lists directory names skipped while walking and watching.
	ExcludeDirs []string
}

// DefaultConfig returns the watch defaults used when the host supplies none.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		DebounceDelay:  500 * time.Millisecond,
		FileExtensions: []string{".md", ".markdown"},
		ExcludeDirs:    []string{".git", "node_modules", "vendor"},
	}
}

func (c Config) debounce() time.Duration {
	if c.DebounceDelay <= 0 {
		return 500 * time.Millisecond
	}
	return c.DebounceDelay
}

// Watcher observes a content directory and emits debounced batches of
// document changes. Writes that do not change file content are filtered out
// by checksum so editors that rewrite unchanged files do not trigger reloads.
type Watcher struct {
	cfg        Config
	dir        string
	fsw        *fsnotify.Watcher
	logger     interfaces.Logger
	extensions map[string]struct{}
	excludes   map[string]struct{}

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	batches chan []Event

	dropped atomic.Int64
}

// New constructs a watcher over dir. The watcher does not start observing
// until Start is called.
func New(cfg Config, dir string, logger interfaces.Logger) (*Watcher, error) {
	if !cfg.Enabled {
		return nil, ErrWatcherDisabled
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("watcher: content directory is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	extensions := make(map[string]struct{})
	exts := cfg.FileExtensions
	if len(exts) == 0 {
		exts = DefaultConfig().FileExtensions
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}

	excludes := make(map[string]struct{})
	dirs := cfg.ExcludeDirs
	if len(dirs) == 0 {
		dirs = DefaultConfig().ExcludeDirs
	}
	for _, name := range dirs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		excludes[name] = struct{}{}
	}

	return &Watcher{
		cfg:        cfg,
		dir:        dir,
		fsw:        fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		batches:    make(chan []Event, batchChannelBuffer),
	}, nil
}

// Batches returns the channel of debounced event batches. The channel closes
// when the watcher stops.
func (w *Watcher) Batches() <-chan []Event {
	return w.batches
}

// Start begins observing the content directory. It returns once watches are
// registered; event processing continues until ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("watcher: ensure content directory: %w", err)
	}
	if err := w.addWatchesRecursive(w.dir); err != nil {
		return fmt.Errorf("watcher: register watches: %w", err)
	}

	go w.processEvents(ctx)

	w.logger.Info("content watcher started",
		"dir", w.dir,
		"debounce", w.cfg.debounce().String(),
	)
	return nil
}

// Stop closes the underlying fsnotify watcher. The batch channel is closed by
// the processing goroutine once it drains.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// SetHash seeds the checksum for a source path, usually from a store reload,
// so the first watch event for an unchanged file is suppressed.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// Hash returns the recorded checksum for a source path.
func (w *Watcher) Hash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// DroppedBatches reports how many batches were discarded because the consumer
// fell behind.
func (w *Watcher) DroppedBatches() int64 {
	return w.dropped.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if _, excluded := w.excludes[base]; excluded || (strings.HasPrefix(base, ".") && path != root) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.batches)
	ticker := time.NewTicker(w.cfg.debounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if _, watched := w.extensions[ext]; !watched {
		// New directories still need watches so files created inside them
		// are picked up.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.watchNewDirectory(path)
			}
		}
		return
	}

	relPath, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}
	for excluded := range w.excludes {
		if strings.Contains(relPath, excluded+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) watchNewDirectory(path string) {
	base := filepath.Base(path)
	if _, excluded := w.excludes[base]; excluded || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	batch := make([]Event, 0, len(toProcess))
	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, err := filepath.Rel(w.dir, path)
		if err != nil {
			continue
		}
		event := Event{Path: relPath, AbsPath: path}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Op = OpDelete
			w.forgetHash(relPath)
			batch = append(batch, event)
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Op = OpDelete
			w.forgetHash(relPath)
			batch = append(batch, event)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("failed to read changed file", "path", relPath, "error", err)
			continue
		}
		newHash := contentHash(content)
		oldHash, hadHash := w.Hash(relPath)
		if hadHash && oldHash == newHash {
			continue
		}
		w.SetHash(relPath, newHash)

		if op.Has(fsnotify.Create) || !hadHash {
			event.Op = OpCreate
		} else {
			event.Op = OpModify
		}
		batch = append(batch, event)
	}

	if len(batch) == 0 {
		return
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Path < batch[j].Path
	})
	w.sendBatch(batch)
}

func (w *Watcher) forgetHash(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	delete(w.hashes, path)
}

func (w *Watcher) sendBatch(batch []Event) {
	select {
	case w.batches <- batch:
		w.logger.Debug("content change batch", "events", len(batch))
	default:
		dropped := w.dropped.Add(1)
		w.logger.Warn("batch channel full, dropping batch",
			"events", len(batch),
			"total_dropped", dropped,
		)
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
