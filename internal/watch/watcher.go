// Package watch implements the background reconciler: a recursive
// filesystem watch per repository, debounced and serialized onto the
// Indexer's single write transaction.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/ignore"
)

// DefaultDebounce is the quiet window a burst of filesystem events must
// settle through before a reconciliation runs, within the 200-500ms range.
const DefaultDebounce = 300 * time.Millisecond

// RepoWatcher watches one repository root and feeds settled changes to its
// Indexer via partial updates.
type RepoWatcher struct {
	repoRoot string
	indexer  *codeindex.Indexer
	cfg      config.IndexerConfig
	logger   *zap.Logger
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu          sync.Mutex
	pending     map[string]time.Time
	inFlight    bool
	queued      bool
	queuedPaths map[string]bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRepoWatcher constructs a watcher for repoRoot. Call Start to begin
// watching; Start first runs a blocking full reconciliation so changes that
// happened while nothing was watching are caught up.
func NewRepoWatcher(repoRoot string, indexer *codeindex.Indexer, cfg config.IndexerConfig, logger *zap.Logger) (*RepoWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepoWatcher{
		repoRoot:    repoRoot,
		indexer:     indexer,
		cfg:         cfg,
		logger:      logger,
		debounce:    DefaultDebounce,
		fsw:         fsw,
		pending:     make(map[string]time.Time),
		queuedPaths: make(map[string]bool),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start runs the startup catch-up reconciliation, registers recursive
// watches over the repository root, and launches the event loop.
func (w *RepoWatcher) Start(ctx context.Context) error {
	if err := w.indexer.Index(ctx); err != nil {
		return fmt.Errorf("startup reconciliation for %s: %w", w.repoRoot, err)
	}

	matcher, err := ignore.Build(w.repoRoot, w.cfg.Ignore)
	if err != nil {
		return fmt.Errorf("build ignore matcher: %w", err)
	}
	if err := w.addRecursive(w.repoRoot, matcher); err != nil {
		return fmt.Errorf("register watches: %w", err)
	}

	go w.run(ctx, matcher)
	return nil
}

// addRecursive adds a fsnotify watch on dir and every non-ignored
// subdirectory beneath it — fsnotify does not watch recursively on Linux.
func (w *RepoWatcher) addRecursive(dir string, matcher *ignore.Matcher) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir {
			rel, relErr := filepath.Rel(w.repoRoot, path)
			if relErr == nil && matcher.Skip(filepath.ToSlash(rel), true) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

func (w *RepoWatcher) run(ctx context.Context, matcher *ignore.Matcher) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev, matcher)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.String("repo", w.repoRoot), zap.Error(err))
		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *RepoWatcher) handleEvent(ev fsnotify.Event, matcher *ignore.Matcher) {
	rel, err := filepath.Rel(w.repoRoot, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if !matcher.Skip(rel, true) {
				if err := w.addRecursive(ev.Name, matcher); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
				}
			}
			return
		}
	}
	if matcher.Skip(rel, false) {
		return
	}

	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

// processSettled moves paths whose quiet window has elapsed into a
// reconciliation run. At most one reconciliation per repository is in
// flight; a burst that arrives mid-reconciliation queues and runs after.
func (w *RepoWatcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	if len(settled) == 0 {
		w.mu.Unlock()
		return
	}
	if w.inFlight {
		for _, p := range settled {
			w.queuedPaths[p] = true
		}
		w.queued = true
		w.mu.Unlock()
		return
	}
	w.inFlight = true
	w.mu.Unlock()

	go w.reconcile(ctx, settled)
}

func (w *RepoWatcher) reconcile(ctx context.Context, paths []string) {
	for {
		if err := w.indexer.UpdateFiles(ctx, paths); err != nil {
			w.logger.Warn("reconciliation failed", zap.String("repo", w.repoRoot), zap.Error(err))
		}

		w.mu.Lock()
		if !w.queued {
			w.inFlight = false
			w.mu.Unlock()
			return
		}
		paths = paths[:0]
		for p := range w.queuedPaths {
			paths = append(paths, p)
		}
		w.queuedPaths = make(map[string]bool)
		w.queued = false
		w.mu.Unlock()
	}
}

// Stop stops accepting new events and waits, up to timeout, for any
// in-flight reconciliation to drain before closing the filesystem watch.
func (w *RepoWatcher) Stop(timeout time.Duration) {
	close(w.stopCh)
	deadline := time.After(timeout)
	select {
	case <-w.doneCh:
	case <-deadline:
	}
drain:
	for {
		w.mu.Lock()
		busy := w.inFlight
		w.mu.Unlock()
		if !busy {
			break
		}
		select {
		case <-deadline:
			break drain
		case <-time.After(10 * time.Millisecond):
		}
	}
	w.fsw.Close()
}
