package main

import (
	"fmt"

	"github.com/jward/codeindex/internal/format"
	"github.com/spf13/cobra"
)

var flagStalePaths bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report last-indexed time, file count, and stale-file count (index_status)",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&flagStalePaths, "stale-paths", false, "include the list of stale file paths")
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(`{"status":"unindexed"}`)
		return nil
	}
	defer st.Close()

	status, err := sf.Status(root, hashFileFunc(root))
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if flagFormat == "text" {
		fmt.Printf("repository: %s\n", root)
		fmt.Printf("files: %d (stale: %d)\n", status.FileCount, status.StaleCount)
		if flagStalePaths {
			for _, p := range status.StalePaths {
				fmt.Println("  " + p)
			}
		}
		return nil
	}

	data, _, err := format.StatusResponse(status, flagStalePaths, resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}
