package store

import (
	"database/sql"
	"fmt"
)

// UpsertFile inserts or updates the file row for (repositoryID, relPath),
// returning its id and the hash it carried before this call (empty for a
// new file). Callers compare the returned previous hash against the newly
// computed one to decide whether extraction is needed.
func UpsertFile(tx *sql.Tx, repositoryID int64, relPath, language, hash string) (id int64, previousHash string, err error) {
	row := tx.QueryRow(`SELECT id, hash FROM files WHERE repository_id = ? AND rel_path = ?`, repositoryID, relPath)
	var existingID int64
	var existingHash string
	switch scanErr := row.Scan(&existingID, &existingHash); scanErr {
	case nil:
		if _, err := tx.Exec(`UPDATE files SET language = ?, hash = ? WHERE id = ?`, language, hash, existingID); err != nil {
			return 0, "", fmt.Errorf("update file: %w", err)
		}
		return existingID, existingHash, nil
	case sql.ErrNoRows:
		res, err := tx.Exec(`INSERT INTO files(repository_id, rel_path, language, hash) VALUES (?, ?, ?, ?)`,
			repositoryID, relPath, language, hash)
		if err != nil {
			return 0, "", fmt.Errorf("insert file: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, "", fmt.Errorf("last insert id: %w", err)
		}
		return newID, "", nil
	default:
		return 0, "", fmt.Errorf("lookup file: %w", scanErr)
	}
}

// DeleteFile removes a file row; foreign key cascade removes its symbols and
// their outgoing references. The symbols_fts mirror rows are pruned
// explicitly first since FTS5 tables cannot carry a foreign key.
func DeleteFile(tx *sql.Tx, fileID int64) error {
	if _, err := tx.Exec(`
		DELETE FROM symbols_fts WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)
	`, fileID); err != nil {
		return fmt.Errorf("delete fts rows for file: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// FilesByRepository returns every file row for a repository.
func (s *Store) FilesByRepository(repositoryID int64) ([]*File, error) {
	rows, err := s.db.Query(`SELECT id, repository_id, rel_path, language, hash FROM files WHERE repository_id = ?`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var out []*File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.RepositoryID, &f.RelPath, &f.Language, &f.Hash); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// FileByPath looks up a single file by its repository-relative path.
func (s *Store) FileByPath(repositoryID int64, relPath string) (*File, error) {
	row := s.db.QueryRow(`SELECT id, repository_id, rel_path, language, hash FROM files WHERE repository_id = ? AND rel_path = ?`,
		repositoryID, relPath)
	var f File
	if err := row.Scan(&f.ID, &f.RepositoryID, &f.RelPath, &f.Language, &f.Hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}
