// Package store is the SQLite data access layer for the code index: one
// database file per repository, write-ahead logging enabled so readers
// never block on the single writer.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for one repository's database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) a SQLite database at dbPath with WAL mode,
// foreign keys, and a busy timeout suited to a single-writer workload, then
// migrates it to the current schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, for callers (the Indexer) that need to
// open their own transaction.
func (s *Store) DB() *sql.DB {
	return s.db
}

const currentSchemaVersion = "2"

// extractorVersion identifies the compiled-in extraction/tokenizer revision.
// Bumped whenever the extractors or the tokenizer change in a way that would
// produce different symbol rows for the same source bytes.
const extractorVersion = "1"

const schemaDDLv2 = `
CREATE TABLE IF NOT EXISTS repositories (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  last_indexed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  repository_id   INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  rel_path        TEXT NOT NULL,
  language        TEXT NOT NULL,
  hash            TEXT NOT NULL,
  UNIQUE(repository_id, rel_path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id               INTEGER PRIMARY KEY,
  file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  repository_id    INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  rel_path         TEXT NOT NULL,
  name             TEXT NOT NULL,
  kind             TEXT NOT NULL,
  signature        TEXT,
  doc_comment      TEXT,
  start_line       INTEGER NOT NULL,
  end_line         INTEGER NOT NULL,
  parent_symbol_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
  tokens           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS references_ (
  id             INTEGER PRIMARY KEY,
  from_symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
  to_symbol_id   INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
  to_name        TEXT NOT NULL,
  kind           TEXT NOT NULL,
  line           INTEGER,
  file_id        INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  repository_id  INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  UNIQUE(from_symbol_id, to_name, kind, line)
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
  name, tokens, doc, kind, path,
  symbol_id UNINDEXED
);

CREATE INDEX IF NOT EXISTS idx_files_repository ON files(repository_id);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_repository ON symbols(repository_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id);
CREATE INDEX IF NOT EXISTS idx_references_from ON references_(from_symbol_id);
CREATE INDEX IF NOT EXISTS idx_references_to_symbol ON references_(to_symbol_id);
CREATE INDEX IF NOT EXISTS idx_references_to_name ON references_(to_name);
CREATE INDEX IF NOT EXISTS idx_references_repository ON references_(repository_id);
`

// schemaDDLv1 is the pre-tokens-column layout, used only by tests that
// exercise the migration path (scenario S6): a database created before the
// pre-tokenized name field existed.
const schemaDDLv1 = `
CREATE TABLE IF NOT EXISTS repositories (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  last_indexed_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  repository_id   INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  rel_path        TEXT NOT NULL,
  language        TEXT NOT NULL,
  hash            TEXT NOT NULL,
  UNIQUE(repository_id, rel_path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id               INTEGER PRIMARY KEY,
  file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  repository_id    INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  rel_path         TEXT NOT NULL,
  name             TEXT NOT NULL,
  kind             TEXT NOT NULL,
  signature        TEXT,
  doc_comment      TEXT,
  start_line       INTEGER NOT NULL,
  end_line         INTEGER NOT NULL,
  parent_symbol_id INTEGER REFERENCES symbols(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS references_ (
  id             INTEGER PRIMARY KEY,
  from_symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
  to_symbol_id   INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
  to_name        TEXT NOT NULL,
  kind           TEXT NOT NULL,
  line           INTEGER,
  file_id        INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  repository_id  INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
  UNIQUE(from_symbol_id, to_name, kind, line)
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
  name, doc, kind, path,
  symbol_id UNINDEXED
);
`
