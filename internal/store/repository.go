package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RegisterRepository returns the id of the repository row for path,
// inserting one if it does not already exist.
func (s *Store) RegisterRepository(path string) (int64, error) {
	if _, err := s.db.Exec(`INSERT INTO repositories(path) VALUES (?)
		ON CONFLICT(path) DO NOTHING`, path); err != nil {
		return 0, fmt.Errorf("register repository: %w", err)
	}
	row := s.db.QueryRow(`SELECT id FROM repositories WHERE path = ?`, path)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("read repository id: %w", err)
	}
	return id, nil
}

// GetRepository looks up a repository by its absolute path.
func (s *Store) GetRepository(path string) (*Repository, error) {
	row := s.db.QueryRow(`SELECT id, path, last_indexed_at FROM repositories WHERE path = ?`, path)
	var r Repository
	var lastIndexed sql.NullTime
	if err := row.Scan(&r.ID, &r.Path, &lastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get repository: %w", err)
	}
	if lastIndexed.Valid {
		r.LastIndexedAt = &lastIndexed.Time
	}
	return &r, nil
}

// ListRepositories returns every repository row, ordered by path.
func (s *Store) ListRepositories() ([]*Repository, error) {
	rows, err := s.db.Query(`SELECT id, path, last_indexed_at FROM repositories ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()
	var out []*Repository
	for rows.Next() {
		var r Repository
		var lastIndexed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Path, &lastIndexed); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		if lastIndexed.Valid {
			r.LastIndexedAt = &lastIndexed.Time
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// DeleteRepository removes a repository row and, via foreign key cascade,
// every file, symbol and reference belonging to it.
func (s *Store) DeleteRepository(path string) error {
	// The symbols_fts mirror has no foreign key to symbols (FTS5 virtual
	// tables cannot declare one), so its rows for this repository's
	// symbols are removed explicitly, before the cascade deletes the
	// symbols they point at.
	if _, err := s.db.Exec(`
		DELETE FROM symbols_fts WHERE symbol_id IN (
			SELECT s.id FROM symbols s
			JOIN repositories r ON r.id = s.repository_id
			WHERE r.path = ?
		)
	`, path); err != nil {
		return fmt.Errorf("delete fts rows for repository: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM repositories WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastIndexed sets last_indexed_at on a repository row to now.
func (s *Store) TouchLastIndexed(repositoryID int64, now time.Time) error {
	if _, err := s.db.Exec(`UPDATE repositories SET last_indexed_at = ? WHERE id = ?`, now, repositoryID); err != nil {
		return fmt.Errorf("touch last_indexed_at: %w", err)
	}
	return nil
}
