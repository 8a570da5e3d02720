package store

import (
	"database/sql"
	"fmt"
)

// InsertReference inserts one reference row with to_symbol_id left null;
// resolution happens later in a dedicated pass. Idempotent within a
// transaction via the (from_symbol_id, to_name, kind, line) uniqueness
// constraint — a duplicate emitted by an extractor is silently ignored
// rather than erroring.
func InsertReference(tx *sql.Tx, ref *Reference) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO references_ (from_symbol_id, to_symbol_id, to_name, kind, line, file_id, repository_id)
		VALUES (?, NULL, ?, ?, ?, ?, ?)
		ON CONFLICT(from_symbol_id, to_name, kind, line) DO NOTHING
	`, ref.FromSymbolID, ref.ToName, ref.Kind, nullableLine(ref.Line), ref.FileID, ref.RepositoryID)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Already present; look the row up so the caller still gets an id.
		row := tx.QueryRow(`
			SELECT id FROM references_ WHERE from_symbol_id = ? AND to_name = ? AND kind = ? AND line IS ?
		`, ref.FromSymbolID, ref.ToName, ref.Kind, nullableLine(ref.Line))
		var id int64
		if err := row.Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup existing reference: %w", err)
		}
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func nullableLine(line int) any {
	if line <= 0 {
		return nil
	}
	return line
}

// ResolveReferences sets to_symbol_id on every unresolved reference in a
// repository to the id of the first symbol (lowest id) whose name equals
// the reference's to_name. Best-effort by design: a name that resolves
// to several declarations across modules picks the first one ever
// inserted, and that ambiguity is documented rather than disambiguated.
func ResolveReferences(tx *sql.Tx, repositoryID int64) error {
	_, err := tx.Exec(`
		UPDATE references_
		SET to_symbol_id = (
			SELECT s.id FROM symbols s
			WHERE s.repository_id = references_.repository_id AND s.name = references_.to_name
			ORDER BY s.id LIMIT 1
		)
		WHERE repository_id = ? AND to_symbol_id IS NULL
	`, repositoryID)
	if err != nil {
		return fmt.Errorf("resolve references: %w", err)
	}
	return nil
}

const referenceCols = `id, from_symbol_id, to_symbol_id, to_name, kind, line, file_id, repository_id`

func scanReference(row interface {
	Scan(dest ...any) error
}) (*Reference, error) {
	var ref Reference
	var toSymbol sql.NullInt64
	var line sql.NullInt64
	if err := row.Scan(&ref.ID, &ref.FromSymbolID, &toSymbol, &ref.ToName, &ref.Kind, &line, &ref.FileID, &ref.RepositoryID); err != nil {
		return nil, err
	}
	if toSymbol.Valid {
		v := toSymbol.Int64
		ref.ToSymbolID = &v
	}
	ref.Line = int(line.Int64)
	return &ref, nil
}

// ReferencesFrom returns every outgoing reference from a symbol.
func (s *Store) ReferencesFrom(symbolID int64) ([]*Reference, error) {
	rows, err := s.db.Query(`SELECT `+referenceCols+` FROM references_ WHERE from_symbol_id = ? ORDER BY line`, symbolID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing references: %w", err)
	}
	defer rows.Close()
	var out []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ReferencesTo returns references whose resolved target is symbolID, plus —
// for symbols that may still have unresolved referrers pointing at their
// name — references whose to_symbol_id is null but to_name matches name.
func (s *Store) ReferencesTo(repositoryID, symbolID int64, name string) ([]*Reference, error) {
	rows, err := s.db.Query(`
		SELECT `+referenceCols+` FROM references_
		WHERE repository_id = ? AND (
			to_symbol_id = ? OR (to_symbol_id IS NULL AND to_name = ?)
		)
		ORDER BY line
	`, repositoryID, symbolID, name)
	if err != nil {
		return nil, fmt.Errorf("list incoming references: %w", err)
	}
	defer rows.Close()
	var out []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// UnresolvedCount returns the number of references in a repository still
// awaiting resolution; used by tests and diagnostics.
func (s *Store) UnresolvedCount(repositoryID int64) (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM references_ WHERE repository_id = ? AND to_symbol_id IS NULL`, repositoryID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count unresolved references: %w", err)
	}
	return n, nil
}
