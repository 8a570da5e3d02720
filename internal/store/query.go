package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// StatusCounts summarizes the cheap facts behind the Repository status
// query: how many files are indexed and, of those, how many have on-disk
// content that no longer matches their stored fingerprint.
type StatusCounts struct {
	FileCount  int
	StaleCount int
	StalePaths []string
}

// Status computes StatusCounts by comparing each file's stored hash against
// currentHash(relPath), a caller-supplied function so Store has no direct
// filesystem dependency. A file currentHash cannot compute (e.g. deleted
// since last index) counts as stale.
func (s *Store) Status(repositoryID int64, currentHash func(relPath string) (string, bool)) (StatusCounts, error) {
	files, err := s.FilesByRepository(repositoryID)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("status: %w", err)
	}
	counts := StatusCounts{FileCount: len(files)}
	for _, f := range files {
		h, ok := currentHash(f.RelPath)
		if !ok || h != f.Hash {
			counts.StaleCount++
			counts.StalePaths = append(counts.StalePaths, f.RelPath)
		}
	}
	return counts, nil
}

// LanguageCounts returns the number of files per detected language, for the
// Overview query's language mix.
func (s *Store) LanguageCounts(repositoryID int64) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT language, COUNT(*) FROM files WHERE repository_id = ? GROUP BY language`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("language counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, fmt.Errorf("scan language count: %w", err)
		}
		out[lang] = n
	}
	return out, rows.Err()
}

// TopLevelGroups returns the top-level path segment (the directory directly
// under the repository root, or "." for root-level files) for every file,
// paired with its file count, for the Overview query's module grouping.
// Files are grouped by directory rather than by extracted module symbols
// because not every language variant emits a module-kind symbol.
func (s *Store) TopLevelGroups(repositoryID int64) (map[string]int, error) {
	files, err := s.FilesByRepository(repositoryID)
	if err != nil {
		return nil, fmt.Errorf("top level groups: %w", err)
	}
	out := make(map[string]int)
	for _, f := range files {
		group := "."
		if i := strings.IndexByte(f.RelPath, '/'); i >= 0 {
			group = f.RelPath[:i]
		}
		out[group]++
	}
	return out, nil
}

// LargestSymbols returns the N symbols with the widest line span in a
// repository, restricted to "type-shaped" kinds (class, struct, interface,
// enum, trait), for the Overview query's "largest N types" field.
func (s *Store) LargestSymbols(repositoryID int64, limit int) ([]*Symbol, error) {
	kinds := []string{KindClass, KindStruct, KindInterface, KindEnum, KindTrait}
	placeholders := placeholderList(len(kinds))
	args := make([]any, 0, len(kinds)+2)
	args = append(args, repositoryID)
	for _, k := range kinds {
		args = append(args, k)
	}
	args = append(args, limit)

	rows, err := s.db.Query(`
		SELECT `+symbolCols+` FROM symbols
		WHERE repository_id = ? AND kind IN (`+placeholders+`)
		ORDER BY (end_line - start_line) DESC, id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("largest symbols: %w", err)
	}
	defer rows.Close()
	var out []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SearchHit is one ranked result from Search: the matched symbol and its
// BM25 rank (lower is more relevant, matching SQLite FTS5's convention).
type SearchHit struct {
	Symbol *Symbol
	Rank   float64
}

// Search runs ftsQuery (already assembled into FTS5 MATCH syntax — see the
// Code Tokenizer-driven query construction in internal/query) against the
// symbols_fts mirror, scoped to one repository, ordered by BM25 rank with
// ties broken on (rel_path, start_line) for deterministic output, and
// capped at limit.
func (s *Store) Search(repositoryID int64, ftsQuery string, limit int) ([]SearchHit, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixedSymbolCols("s")+`, bm25(symbols_fts) AS rank
		FROM symbols_fts
		JOIN symbols s ON s.id = symbols_fts.symbol_id
		WHERE symbols_fts MATCH ? AND s.repository_id = ?
		ORDER BY rank, s.rel_path, s.start_line
		LIMIT ?
	`, ftsQuery, repositoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	var out []SearchHit
	for rows.Next() {
		var sym Symbol
		var signature, doc sql.NullString
		var parent sql.NullInt64
		var rank float64
		if err := rows.Scan(&sym.ID, &sym.FileID, &sym.RepositoryID, &sym.RelPath, &sym.Name, &sym.Kind,
			&signature, &doc, &sym.StartLine, &sym.EndLine, &parent, &rank); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		sym.Signature = signature.String
		sym.DocComment = doc.String
		if parent.Valid {
			v := parent.Int64
			sym.ParentSymbolID = &v
		}
		out = append(out, SearchHit{Symbol: &sym, Rank: rank})
	}
	return out, rows.Err()
}

func prefixedSymbolCols(prefix string) string {
	cols := strings.Split(symbolCols, ", ")
	for i, c := range cols {
		cols[i] = prefix + "." + c
	}
	return strings.Join(cols, ", ")
}
