package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/codeindex/internal/tokenizer"
)

// DeleteSymbolsForFile removes every symbol (and, by cascade, every
// reference whose source is one of them) belonging to fileID, without
// touching the file row itself. Used on hash mismatch, ahead of a fresh
// extraction of the same file.
func DeleteSymbolsForFile(tx *sql.Tx, fileID int64) error {
	if _, err := tx.Exec(`
		DELETE FROM symbols_fts WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)
	`, fileID); err != nil {
		return fmt.Errorf("delete fts rows for file: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("delete symbols for file: %w", err)
	}
	return nil
}

// InsertSymbol inserts one symbol row, computes its pre-tokenized name, and
// writes the matching symbols_fts mirror row in the same transaction so the
// two are never observably out of sync.
func InsertSymbol(tx *sql.Tx, sym *Symbol) (int64, error) {
	tokens := tokenizer.TokenString(sym.Name)
	res, err := tx.Exec(`
		INSERT INTO symbols (file_id, repository_id, rel_path, name, kind, signature, doc_comment, start_line, end_line, parent_symbol_id, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sym.FileID, sym.RepositoryID, sym.RelPath, sym.Name, sym.Kind, nullEmpty(sym.Signature), nullEmpty(sym.DocComment),
		sym.StartLine, sym.EndLine, nullableInt64(sym.ParentSymbolID), tokens)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO symbols_fts (name, tokens, doc, kind, path, symbol_id) VALUES (?, ?, ?, ?, ?, ?)
	`, sym.Name, tokens, sym.DocComment, sym.Kind, sym.RelPath, id); err != nil {
		return 0, fmt.Errorf("insert fts row: %w", err)
	}
	return id, nil
}

func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const symbolCols = `id, file_id, repository_id, rel_path, name, kind, signature, doc_comment, start_line, end_line, parent_symbol_id`

func scanSymbol(row interface {
	Scan(dest ...any) error
}) (*Symbol, error) {
	var sym Symbol
	var signature, doc sql.NullString
	var parent sql.NullInt64
	if err := row.Scan(&sym.ID, &sym.FileID, &sym.RepositoryID, &sym.RelPath, &sym.Name, &sym.Kind,
		&signature, &doc, &sym.StartLine, &sym.EndLine, &parent); err != nil {
		return nil, err
	}
	sym.Signature = signature.String
	sym.DocComment = doc.String
	if parent.Valid {
		v := parent.Int64
		sym.ParentSymbolID = &v
	}
	return &sym, nil
}

// SymbolByID looks up a single symbol by its surrogate id.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	row := s.db.QueryRow(`SELECT `+symbolCols+` FROM symbols WHERE id = ?`, id)
	sym, err := scanSymbol(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get symbol: %w", err)
	}
	return sym, nil
}

// SymbolsByFile returns every symbol in a file, ordered by start_line.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	rows, err := s.db.Query(`SELECT `+symbolCols+` FROM symbols WHERE file_id = ? ORDER BY start_line`, fileID)
	if err != nil {
		return nil, fmt.Errorf("list symbols by file: %w", err)
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

// SymbolsByName returns every symbol in a repository with the given exact
// name, in insertion (id) order — the order the reference resolver's
// "first match" picks from.
func (s *Store) SymbolsByName(repositoryID int64, name string) ([]*Symbol, error) {
	rows, err := s.db.Query(`SELECT `+symbolCols+` FROM symbols WHERE repository_id = ? AND name = ? ORDER BY id`, repositoryID, name)
	if err != nil {
		return nil, fmt.Errorf("list symbols by name: %w", err)
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

// ChildSymbols returns the direct children of a symbol, ordered by
// start_line.
func (s *Store) ChildSymbols(parentID int64) ([]*Symbol, error) {
	rows, err := s.db.Query(`SELECT `+symbolCols+` FROM symbols WHERE parent_symbol_id = ? ORDER BY start_line`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child symbols: %w", err)
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
