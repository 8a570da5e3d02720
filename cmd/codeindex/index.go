package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	codeindex "github.com/jward/codeindex"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a repository (index_repository)",
	Long:  "Walks the repository root, extracts symbols from every eligible file, and writes the result in one transaction.",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var updateCmd = &cobra.Command{
	Use:   "update [paths...]",
	Short: "Reconcile an explicit set of paths (update_files)",
	Long:  "Restricts reconciliation to the given repository-relative paths, bypassing the directory walk. A missing path is treated as a deletion.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openRepoStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger()
	defer logger.Sync()

	ix, err := codeindex.New(st, newRegistry(), root, cfg.Indexer, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := ix.Index(context.Background()); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	logger.Info("indexed repository", zap.String("repo", root), zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("indexed %s in %s\n", root, time.Since(start).Round(time.Millisecond))
	return nil
}

func runUpdate(cmd *cobra.Command, paths []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openRepoStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger()
	defer logger.Sync()

	ix, err := codeindex.New(st, newRegistry(), root, cfg.Indexer, logger)
	if err != nil {
		return err
	}
	if err := ix.UpdateFiles(context.Background(), paths); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	fmt.Printf("updated %d path(s) in %s\n", len(paths), root)
	return nil
}
