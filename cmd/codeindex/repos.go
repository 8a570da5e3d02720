package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/query"
	"github.com/jward/codeindex/internal/store"
	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Admin queries over the cache directory (list_repos, delete_repos)",
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every indexed repository (list_repos)",
	Args:  cobra.NoArgs,
	RunE:  runReposList,
}

var reposDeleteCmd = &cobra.Command{
	Use:   "delete [paths...]",
	Short: "Delete one or more repositories from the index (delete_repos)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReposDelete,
}

func init() {
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposDeleteCmd)
}

// runReposList enumerates every database under the cache directory — one
// per indexed repository, keyed by the hash of its absolute path (see
// DatabasePath) — and aggregates each one's (single) repository row. This
// is a whole-cache-directory admin operation, not scoped to --repo.
func runReposList(cmd *cobra.Command, args []string) error {
	cacheDir, err := codeindex.ResolveCacheDir(flagCacheDir)
	if err != nil {
		return err
	}

	dbPaths, err := filepath.Glob(filepath.Join(cacheDir, "*.db"))
	if err != nil {
		return fmt.Errorf("list cache directory: %w", err)
	}

	var repos []*store.Repository
	for _, dbPath := range dbPaths {
		st, err := store.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to open %s: %s\n", dbPath, err)
			continue
		}
		rs, err := query.ListRepositories(st)
		st.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to read %s: %s\n", dbPath, err)
			continue
		}
		repos = append(repos, rs...)
	}

	if flagFormat == "text" {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPATH\tLAST_INDEXED")
		for _, r := range repos {
			last := "-"
			if r.LastIndexedAt != nil {
				last = r.LastIndexedAt.Format("2006-01-02T15:04:05Z")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.Path, last)
		}
		return tw.Flush()
	}

	data, err := json.Marshal(repos)
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

// runReposDelete deletes each named repository from its own database,
// resolved directly from the path's hash (DatabasePath) — it never needs
// --repo to already point at the repository being removed.
func runReposDelete(cmd *cobra.Command, paths []string) error {
	cacheDir, err := codeindex.ResolveCacheDir(flagCacheDir)
	if err != nil {
		return err
	}

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		dbPath, err := codeindex.DatabasePath(cacheDir, absPath)
		if err != nil {
			return fmt.Errorf("resolve database for %s: %w", p, err)
		}
		if _, statErr := os.Stat(dbPath); os.IsNotExist(statErr) {
			fmt.Fprintf(os.Stderr, "warning: not indexed: %s\n", p)
			continue
		}

		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database for %s: %w", p, err)
		}
		err = query.DeleteRepository(st, absPath)
		st.Close()
		if err != nil {
			if err == store.ErrNotFound {
				fmt.Fprintf(os.Stderr, "warning: not indexed: %s\n", p)
				continue
			}
			return fmt.Errorf("delete %s: %w", p, err)
		}
		fmt.Printf("deleted %s\n", p)
	}
	return nil
}
