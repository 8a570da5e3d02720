package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/codeindex/internal/tokenizer"
)

// migrate brings the database up to currentSchemaVersion. It is idempotent:
// calling it again on an already-current database is a no-op beyond the
// IF NOT EXISTS checks.
func (s *Store) migrate() error {
	exists, err := s.tableExists("repositories")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.db.Exec(schemaDDLv2); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return s.setMetadata(map[string]string{
			"schema_version":    currentSchemaVersion,
			"extractor_version": extractorVersion,
		})
	}

	// Re-run the IF NOT EXISTS DDL unconditionally so a fresh-enough v2
	// database picks up any index added since it was created.
	if _, err := s.db.Exec(schemaDDLv2); err != nil {
		// The tokens column may not exist yet on a genuine v1 database;
		// schemaDDLv2's CREATE TABLE IF NOT EXISTS clauses are no-ops in
		// that case and this error is expected, not fatal.
	}

	version, err := s.getMetadata("schema_version")
	if err != nil {
		return err
	}
	if version == "" || version == "1" {
		if err := s.migrateV1ToV2(); err != nil {
			return fmt.Errorf("migrate v1 to v2: %w", err)
		}
	}

	if ev, err := s.getMetadata("extractor_version"); err == nil && ev == "" {
		_ = s.setMetadata(map[string]string{"extractor_version": extractorVersion})
	}
	return nil
}

func (s *Store) tableExists(name string) (bool, error) {
	row := s.db.QueryRow(`SELECT 1 FROM sqlite_master WHERE type='table' AND name=?`, name)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check table existence: %w", err)
	}
	return true, nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("table_info(%s): %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table_info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrateV1ToV2 adds the pre-tokenized name column, backfills it from the
// Code Tokenizer, rebuilds the FTS virtual table to include it, and bumps
// schema_version. It tolerates being invoked on a database that already has
// the tokens column (e.g. a crash mid-migration on a prior run).
func (s *Store) migrateV1ToV2() error {
	hasTokens, err := s.columnExists("symbols", "tokens")
	if err != nil {
		return err
	}
	if !hasTokens {
		if _, err := s.db.Exec(`ALTER TABLE symbols ADD COLUMN tokens TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("alter symbols: %w", err)
		}
	}

	rows, err := s.db.Query(`SELECT id, name FROM symbols`)
	if err != nil {
		return fmt.Errorf("select symbols: %w", err)
	}
	type idName struct {
		id   int64
		name string
	}
	var all []idName
	for rows.Next() {
		var r idName
		if err := rows.Scan(&r.id, &r.name); err != nil {
			rows.Close()
			return fmt.Errorf("scan symbol: %w", err)
		}
		all = append(all, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE symbols SET tokens = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	for _, r := range all {
		if _, err := stmt.Exec(tokenizer.TokenString(r.name), r.id); err != nil {
			stmt.Close()
			return fmt.Errorf("backfill tokens: %w", err)
		}
	}
	stmt.Close()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS symbols_fts`); err != nil {
		return fmt.Errorf("drop fts: %w", err)
	}
	if _, err := tx.Exec(`CREATE VIRTUAL TABLE symbols_fts USING fts5(name, tokens, doc, kind, path, symbol_id UNINDEXED)`); err != nil {
		return fmt.Errorf("recreate fts: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO symbols_fts(name, tokens, doc, kind, path, symbol_id)
		SELECT name, tokens, doc_comment, kind, rel_path, id FROM symbols
	`); err != nil {
		return fmt.Errorf("backfill fts: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO metadata(key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema_version: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO metadata(key, value) VALUES ('extractor_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, extractorVersion); err != nil {
		return fmt.Errorf("set extractor_version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) getMetadata(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) setMetadata(kv map[string]string) error {
	for k, v := range kv {
		if _, err := s.db.Exec(`INSERT INTO metadata(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("set metadata %s: %w", k, err)
		}
	}
	return nil
}

// ExtractorVersionMatches reports whether the database's recorded
// extractor_version matches the binary's. A mismatch is advisory only: the
// caller may log a warning recommending a full reindex, but extraction
// continues normally.
func (s *Store) ExtractorVersionMatches() (bool, error) {
	v, err := s.getMetadata("extractor_version")
	if err != nil {
		return false, err
	}
	return v == extractorVersion, nil
}
