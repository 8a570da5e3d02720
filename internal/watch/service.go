package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/lang"
	"github.com/jward/codeindex/internal/store"
)

// ShutdownDrain bounds how long Stop waits for an in-flight reconciliation
// to finish before closing database handles regardless.
const ShutdownDrain = 5 * time.Second

// Service owns one RepoWatcher per repository the store already knows
// about, plus any added at runtime.
type Service struct {
	openDB   func(path string) (*store.Store, error)
	registry *lang.Registry
	logger   *zap.Logger

	mu       sync.Mutex
	watchers map[string]*RepoWatcher
	stores   map[string]*store.Store
}

// NewService builds a Service. openDB resolves a repository path to its
// database file and opens it (the caller supplies this so Service stays
// independent of the cache-directory layout).
func NewService(openDB func(path string) (*store.Store, error), registry *lang.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		openDB:   openDB,
		registry: registry,
		logger:   logger,
		watchers: make(map[string]*RepoWatcher),
		stores:   make(map[string]*store.Store),
	}
}

// WatchRepo opens repoPath's database (creating it if needed via openDB),
// runs the startup reconciliation, and begins watching it.
func (svc *Service) WatchRepo(ctx context.Context, repoPath string, cfg config.IndexerConfig) error {
	svc.mu.Lock()
	if _, exists := svc.watchers[repoPath]; exists {
		svc.mu.Unlock()
		return nil
	}
	svc.mu.Unlock()

	st, err := svc.openDB(repoPath)
	if err != nil {
		return fmt.Errorf("open store for %s: %w", repoPath, err)
	}

	indexer, err := codeindex.New(st, svc.registry, repoPath, cfg, svc.logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("create indexer for %s: %w", repoPath, err)
	}

	rw, err := NewRepoWatcher(repoPath, indexer, cfg, svc.logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("create watcher for %s: %w", repoPath, err)
	}

	if err := rw.Start(ctx); err != nil {
		st.Close()
		return fmt.Errorf("start watcher for %s: %w", repoPath, err)
	}

	svc.mu.Lock()
	svc.watchers[repoPath] = rw
	svc.stores[repoPath] = st
	svc.mu.Unlock()
	return nil
}

// StartKnownRepositories reconciles and watches every repository already
// registered in admin's database, per the watcher's startup contract.
func (svc *Service) StartKnownRepositories(ctx context.Context, admin *store.Store, cfg config.IndexerConfig) error {
	repos, err := admin.ListRepositories()
	if err != nil {
		return fmt.Errorf("list known repositories: %w", err)
	}
	for _, r := range repos {
		if err := svc.WatchRepo(ctx, r.Path, cfg); err != nil {
			svc.logger.Warn("failed to resume watching repository", zap.String("path", r.Path), zap.Error(err))
		}
	}
	return nil
}

// Stop stops accepting new events across every watched repository, drains
// in-flight reconciliations with a bounded timeout, then closes database
// handles.
func (svc *Service) Stop() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for path, rw := range svc.watchers {
		rw.Stop(ShutdownDrain)
		if st, ok := svc.stores[path]; ok {
			st.Close()
		}
	}
	svc.watchers = make(map[string]*RepoWatcher)
	svc.stores = make(map[string]*store.Store)
}
