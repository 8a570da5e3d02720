package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/store"
	"github.com/jward/codeindex/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background reconciler for this repository",
	Long:  "Reconciles the repository once to catch up on changes since the last run, then watches it for filesystem mutations, debouncing bursts into partial-update reconciliations until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	registry := newRegistry()
	svc := watch.NewService(func(path string) (*store.Store, error) {
		dbPath, err := codeindex.DatabasePath(flagCacheDir, path)
		if err != nil {
			return nil, err
		}
		if err := codeindex.EnsureCacheDir(filepath.Dir(dbPath)); err != nil {
			return nil, err
		}
		return store.Open(dbPath)
	}, registry, logger)

	cfg, warning := config.Load(root)
	if warning != "" {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.WatchRepo(ctx, root, cfg.Indexer); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fmt.Printf("watching %s (ctrl-c to stop)\n", root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("shutting down...")
	svc.Stop()
	return nil
}
