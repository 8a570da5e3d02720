// Command codeindex is a thin local front-end over the index engine: it
// exposes index/watch/status/query subcommands that call straight into the
// Indexer, Watcher and Query Surface, standing in for the out-of-scope
// remote tool-call transport.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagRepo       string
	flagCacheDir   string
	flagFormat     string
	flagMaxTokens  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codeindex",
	Short:         "Local semantic code index",
	Long:          "codeindex parses source with tree-sitter grammars into a symbol graph, stores it in SQLite with full-text search, and answers compact, budget-constrained structural queries over it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", "", "repository root (default: current working directory)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "database cache directory (default: user cache dir)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().IntVar(&flagMaxTokens, "max-tokens", 0, "response token budget (0 = unbounded)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(reposCmd)
}

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be json or text", format)
}

func maxTokensPtr() *int {
	if flagMaxTokens <= 0 {
		return nil
	}
	v := flagMaxTokens
	return &v
}
