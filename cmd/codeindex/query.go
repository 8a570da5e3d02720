package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jward/codeindex/internal/format"
	"github.com/jward/codeindex/internal/store"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read-only operations over an indexed repository",
}

var flagTopN int
var flagSearchLimit int

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Language mix, top-level modules, and largest types (get_overview)",
	Args:  cobra.NoArgs,
	RunE:  runOverview,
}

var fileSymbolsCmd = &cobra.Command{
	Use:   "file-symbols <path>",
	Short: "All symbols in one file, ordered by start_line (get_file_symbols)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileSymbols,
}

var symbolDetailCmd = &cobra.Command{
	Use:   "symbol-detail <id>",
	Short: "Signature, doc comment, and references for one symbol (get_symbol_detail)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbolDetail,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over names, doc comments, and kinds (search_symbols)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var dependenciesCmd = &cobra.Command{
	Use:   "dependencies <id>",
	Short: "References outgoing from a symbol (get_dependencies)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependencies,
}

var referencesCmd = &cobra.Command{
	Use:   "references <id>",
	Short: "References to a symbol, with caller and line (get_references)",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferences,
}

func init() {
	overviewCmd.Flags().IntVar(&flagTopN, "top", 10, "number of largest types to return")
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 0, "max results (0 uses search.max_results)")

	queryCmd.AddCommand(overviewCmd)
	queryCmd.AddCommand(fileSymbolsCmd)
	queryCmd.AddCommand(symbolDetailCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(dependenciesCmd)
	queryCmd.AddCommand(referencesCmd)
}

// reportUnindexed prints the spec's "unindexed" marker and reports whether
// the caller should stop rather than run the operation (spec §4.6).
func reportUnindexed(ok bool) bool {
	if !ok {
		fmt.Println(`{"status":"unindexed"}`)
	}
	return !ok
}

func runOverview(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	ov, err := sf.Overview(flagTopN)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	if flagFormat == "text" {
		fmt.Println("languages:")
		for lang, n := range ov.Languages {
			fmt.Printf("  %-12s %d\n", lang, n)
		}
		fmt.Println("modules:")
		for mod, n := range ov.Modules {
			fmt.Printf("  %-20s %d files\n", mod, n)
		}
		fmt.Println("largest types:")
		printSymbolsTable(ov.LargestTypes)
		return nil
	}
	data, _, err := format.OverviewResponse(ov, outputConfig(cfg), resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

func runFileSymbols(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	symbols, err := sf.FileSymbols(args[0])
	if err != nil {
		return fmt.Errorf("file-symbols: %w", err)
	}
	if flagFormat == "text" {
		printSymbolsTable(symbols)
		return nil
	}
	data, _, err := format.FileSymbolsResponse(symbols, outputConfig(cfg), resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

func runSymbolDetail(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid symbol id %q: %w", args[0], err)
	}
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	detail, err := sf.SymbolDetail(id)
	if err != nil {
		return fmt.Errorf("symbol-detail: %w", err)
	}
	if flagFormat == "text" {
		s := detail.Symbol
		fmt.Printf("%s %s (%s:%d-%d)\n", s.Kind, s.Name, s.RelPath, s.StartLine, s.EndLine)
		if s.Signature != "" {
			fmt.Println(s.Signature)
		}
		if s.DocComment != "" {
			fmt.Println(s.DocComment)
		}
		for kind, refs := range detail.Outgoing {
			fmt.Printf("-> %s: %d\n", kind, len(refs))
		}
		fmt.Printf("<- referenced by %d symbol(s)\n", len(detail.Incoming))
		return nil
	}
	data, _, err := format.SymbolDetailResponse(detail, outputConfig(cfg), resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	hits, err := sf.Search(args[0], flagSearchLimit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if flagFormat == "text" {
		symbols := make([]*store.Symbol, len(hits))
		for i, h := range hits {
			symbols[i] = h.Symbol
		}
		printSymbolsTable(symbols)
		return nil
	}
	data, _, err := format.SearchResponse(hits, outputConfig(cfg), resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

func runDependencies(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid symbol id %q: %w", args[0], err)
	}
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	refs, err := sf.Dependencies(id)
	if err != nil {
		return fmt.Errorf("dependencies: %w", err)
	}
	if flagFormat == "text" {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tTARGET\tLINE")
		for _, r := range refs {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Kind, r.ToName, r.Line)
		}
		return tw.Flush()
	}
	data, _, err := format.DependenciesResponse(refs, resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

func runReferences(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid symbol id %q: %w", args[0], err)
	}
	root, err := repoRoot()
	if err != nil {
		return err
	}
	st, sf, cfg, ok, err := buildSurface(root)
	if err != nil {
		return err
	}
	if reportUnindexed(ok) {
		return nil
	}
	defer st.Close()

	refs, err := sf.ReferencesTo(id)
	if err != nil {
		return fmt.Errorf("references: %w", err)
	}
	if flagFormat == "text" {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FROM\tFILE\tLINE\tKIND")
		for _, r := range refs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Caller.Name, r.Caller.RelPath, r.Reference.Line, r.Reference.Kind)
		}
		return tw.Flush()
	}
	data, _, err := format.ReferencesToResponse(refs, resolveMaxTokens(cfg))
	if err != nil {
		return err
	}
	printJSON(data)
	return nil
}

// printSymbolsTable renders a slice of symbols as a tab-aligned table,
// mirroring the teacher's plain-text CLI output.
func printSymbolsTable(symbols []*store.Symbol) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tLINES\tFILE")
	for _, s := range symbols {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d-%d\t%s\n", s.ID, s.Kind, s.Name, s.StartLine, s.EndLine, s.RelPath)
	}
	tw.Flush()
}
