// Package query implements the read-only Query Surface: a small set of
// operations over a repository's Store, shaped so each response is
// token-efficient and bounded. Operations here return plain Go structs;
// internal/format turns them into the compact wire envelope.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/jward/codeindex/internal/store"
	"github.com/jward/codeindex/internal/tokenizer"
)

// ErrUnindexed is the error value for a repository that has no database.
// The Surface methods do not return it: a Surface is always built over an
// already-open Store.
var ErrUnindexed = fmt.Errorf("repository not indexed")

// Surface is the Query Surface over one repository's Store.
type Surface struct {
	st           *store.Store
	repositoryID int64
	maxResults   int
}

// New builds a Surface bound to one already-open Store and repository id.
// maxResults is the configured search.max_results ceiling (spec §4.6).
func New(st *store.Store, repositoryID int64, maxResults int) *Surface {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &Surface{st: st, repositoryID: repositoryID, maxResults: maxResults}
}

// RepositoryStatus is the result of the Repository status operation.
type RepositoryStatus struct {
	LastIndexedAt *time.Time
	FileCount     int
	StaleCount    int
	StalePaths    []string
}

// Status returns last-indexed timestamp, file count, and stale-file count.
// currentHash is supplied by the caller (the CLI/server layer, which knows
// how to read the repository's files) so the Query Surface itself never
// touches the filesystem directly.
func (sf *Surface) Status(repoPath string, currentHash func(relPath string) (string, bool)) (*RepositoryStatus, error) {
	repo, err := sf.st.GetRepository(repoPath)
	if err != nil {
		return nil, err
	}
	counts, err := sf.st.Status(sf.repositoryID, currentHash)
	if err != nil {
		return nil, err
	}
	return &RepositoryStatus{
		LastIndexedAt: repo.LastIndexedAt,
		FileCount:     counts.FileCount,
		StaleCount:    counts.StaleCount,
		StalePaths:    counts.StalePaths,
	}, nil
}

// Overview is the result of the Overview operation.
type Overview struct {
	Languages    map[string]int
	Modules      map[string]int
	LargestTypes []*store.Symbol
}

// Overview returns the language mix, top-level module/directory groupings,
// and the largest topN types by line span.
func (sf *Surface) Overview(topN int) (*Overview, error) {
	if topN <= 0 {
		topN = 10
	}
	langs, err := sf.st.LanguageCounts(sf.repositoryID)
	if err != nil {
		return nil, err
	}
	modules, err := sf.st.TopLevelGroups(sf.repositoryID)
	if err != nil {
		return nil, err
	}
	largest, err := sf.st.LargestSymbols(sf.repositoryID, topN)
	if err != nil {
		return nil, err
	}
	return &Overview{Languages: langs, Modules: modules, LargestTypes: largest}, nil
}

// FileSymbols returns every symbol in relPath, ordered by start_line, with
// parent ids preserved (the forest is returned flattened; callers
// reconstruct containment from ParentSymbolID if they need it).
func (sf *Surface) FileSymbols(relPath string) ([]*store.Symbol, error) {
	f, err := sf.st.FileByPath(sf.repositoryID, relPath)
	if err != nil {
		return nil, err
	}
	return sf.st.SymbolsByFile(f.ID)
}

// SymbolDetail is the result of the Symbol detail operation.
type SymbolDetail struct {
	Symbol     *store.Symbol
	Outgoing   map[string][]*store.Reference // keyed by reference kind
	Incoming   []ReferenceWithCaller
	ParentID   *int64
	ChildIDs   []int64
}

// ReferenceWithCaller pairs an incoming reference with the symbol it
// originates from, so callers don't need a second round trip.
type ReferenceWithCaller struct {
	Reference *store.Reference
	Caller    *store.Symbol
}

// SymbolDetail returns signature, doc comment, outgoing references grouped
// by kind, incoming references with their caller symbols, and parent/child
// ids for the symbol identified by id.
func (sf *Surface) SymbolDetail(id int64) (*SymbolDetail, error) {
	sym, err := sf.st.SymbolByID(id)
	if err != nil {
		return nil, err
	}
	outRefs, err := sf.st.ReferencesFrom(id)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]*store.Reference)
	for _, r := range outRefs {
		grouped[r.Kind] = append(grouped[r.Kind], r)
	}

	inRefs, err := sf.st.ReferencesTo(sf.repositoryID, id, sym.Name)
	if err != nil {
		return nil, err
	}
	incoming := make([]ReferenceWithCaller, 0, len(inRefs))
	for _, r := range inRefs {
		caller, err := sf.st.SymbolByID(r.FromSymbolID)
		if err != nil {
			continue // caller symbol deleted mid-query; skip rather than fail the whole response
		}
		incoming = append(incoming, ReferenceWithCaller{Reference: r, Caller: caller})
	}

	children, err := sf.st.ChildSymbols(id)
	if err != nil {
		return nil, err
	}
	childIDs := make([]int64, len(children))
	for i, c := range children {
		childIDs[i] = c.ID
	}

	return &SymbolDetail{
		Symbol:   sym,
		Outgoing: grouped,
		Incoming: incoming,
		ParentID: sym.ParentSymbolID,
		ChildIDs: childIDs,
	}, nil
}

// Search runs query through the Code Tokenizer and FTS5, capped at
// max_results (or the caller's smaller override), ordered by BM25 rank.
func (sf *Surface) Search(queryStr string, limit int) ([]store.SearchHit, error) {
	if limit <= 0 || limit > sf.maxResults {
		limit = sf.maxResults
	}
	ftsQuery := BuildFTSQuery(queryStr)
	if ftsQuery == "" {
		return nil, nil
	}
	return sf.st.Search(sf.repositoryID, ftsQuery, limit)
}

// BuildFTSQuery turns a raw search string into FTS5 MATCH syntax: each word
// is tokenized by the Code Tokenizer and each resulting subword becomes a
// prefix term ("token*"); bare AND/OR/NOT operators the caller typed are
// passed through unchanged so callers can still write boolean queries.
func BuildFTSQuery(raw string) string {
	words := strings.Fields(raw)
	var parts []string
	for _, w := range words {
		switch w {
		case "AND", "OR", "NOT":
			parts = append(parts, w)
			continue
		}
		for _, t := range tokenizer.Tokenize(w) {
			parts = append(parts, t+"*")
		}
	}
	return strings.Join(parts, " ")
}

// Dependencies returns the references outgoing from symbolID, targets
// resolved where possible.
func (sf *Surface) Dependencies(symbolID int64) ([]*store.Reference, error) {
	return sf.st.ReferencesFrom(symbolID)
}

// ReferencesTo returns references whose resolved target is symbolID (or
// whose name matches when still unresolved), each paired with its caller
// symbol.
func (sf *Surface) ReferencesTo(symbolID int64) ([]ReferenceWithCaller, error) {
	sym, err := sf.st.SymbolByID(symbolID)
	if err != nil {
		return nil, err
	}
	refs, err := sf.st.ReferencesTo(sf.repositoryID, symbolID, sym.Name)
	if err != nil {
		return nil, err
	}
	out := make([]ReferenceWithCaller, 0, len(refs))
	for _, r := range refs {
		caller, err := sf.st.SymbolByID(r.FromSymbolID)
		if err != nil {
			continue
		}
		out = append(out, ReferenceWithCaller{Reference: r, Caller: caller})
	}
	return out, nil
}

// ListRepositories and DeleteRepository are admin queries over the cache
// directory; they don't need a bound repositoryID so they take the Store
// directly rather than hanging off a Surface built for one repository.

// ListRepositories returns every repository the given admin Store knows
// about.
func ListRepositories(st *store.Store) ([]*store.Repository, error) {
	return st.ListRepositories()
}

// DeleteRepository removes a repository's rows (cascading to its files,
// symbols and references) from the given Store.
func DeleteRepository(st *store.Store, path string) error {
	return st.DeleteRepository(path)
}
