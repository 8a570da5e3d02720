// Package codeindex implements the local semantic code index: an
// incremental extraction pipeline over tree-sitter grammars, a SQLite store
// with full-text search, a filesystem reconciler, and a compact query
// surface over the result.
package codeindex

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/ignore"
	"github.com/jward/codeindex/internal/lang"
	"github.com/jward/codeindex/internal/store"
)

// Indexer orchestrates extraction for one repository: walking the tree (or
// taking an explicit path list), routing files to extractors, and writing
// the result in a single transaction.
type Indexer struct {
	st           *store.Store
	registry     *lang.Registry
	repoRoot     string
	repositoryID int64
	cfg          config.IndexerConfig
	logger       *zap.Logger
}

// New registers repoRoot with st (if not already known) and returns an
// Indexer ready to run full or partial indexing passes against it.
func New(st *store.Store, registry *lang.Registry, repoRoot string, cfg config.IndexerConfig, logger *zap.Logger) (*Indexer, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	id, err := st.RegisterRepository(absRoot)
	if err != nil {
		return nil, fmt.Errorf("register repository: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{st: st, registry: registry, repoRoot: absRoot, repositoryID: id, cfg: cfg, logger: logger}, nil
}

// RepositoryID returns the store's surrogate id for this Indexer's
// repository.
func (ix *Indexer) RepositoryID() int64 { return ix.repositoryID }

// Index performs a full reconciliation: walk the repository root, index
// every eligible file, and delete rows for files no longer present on disk.
func (ix *Indexer) Index(ctx context.Context) error {
	paths, err := ix.discoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	return ix.run(ctx, paths, true)
}

// UpdateFiles performs a partial reconciliation restricted to the given
// repository-root-relative paths, bypassing the directory walk. A path that
// no longer exists on disk is treated as a deletion.
func (ix *Indexer) UpdateFiles(ctx context.Context, relPaths []string) error {
	sorted := append([]string(nil), relPaths...)
	sort.Strings(sorted)
	return ix.run(ctx, sorted, false)
}

// discoverFiles walks the repository root honoring ignore rules, the
// built-in default ignore list, and the configured maximum file size,
// returning repository-root-relative, slash-normalized paths in sorted
// order (determinism feeds the idempotence property directly).
func (ix *Indexer) discoverFiles() ([]string, error) {
	matcher, err := ignore.Build(ix.repoRoot, ix.cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("build ignore matcher: %w", err)
	}

	var out []string
	err = filepath.WalkDir(ix.repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == ix.repoRoot {
			return nil
		}
		rel, relErr := filepath.Rel(ix.repoRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		info, infoErr := d.Info()
		if infoErr == nil && info.Mode()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if matcher.Skip(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Skip(rel, false) {
			return nil
		}
		if _, ok := ix.registry.For(filepath.Ext(rel)); !ok {
			return nil
		}
		maxSize := ix.cfg.MaxFileSize
		if maxSize <= 0 {
			maxSize = 1048576
		}
		if info != nil && info.Size() > maxSize {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// preparedFile is the pure, storage-free result of reading and extracting
// one file — the unit of work the worker pool produces for the serial
// writer to consume.
type preparedFile struct {
	relPath  string
	language string
	hash     string
	forest   []*lang.Symbol
	ioErr    bool // true: file unreadable (exists but errored), leave prior rows untouched
	notExist bool // true: file does not exist on disk
}

// run is the shared body of Index and UpdateFiles: discover what changed,
// extract in parallel, and commit everything in one transaction.
func (ix *Indexer) run(ctx context.Context, relPaths []string, fullRun bool) error {
	prepared := make([]*preparedFile, len(relPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()))
	for i, rel := range relPaths {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			prepared[i] = ix.prepare(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("prepare files: %w", err)
	}

	tx, err := ix.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	present := make(map[string]bool, len(relPaths))
	for _, rel := range relPaths {
		present[rel] = true
	}

	for _, p := range prepared {
		if p == nil {
			continue
		}
		if p.notExist {
			if !fullRun {
				if err := ix.deleteByPath(tx, p.relPath); err != nil {
					return err
				}
			}
			continue
		}
		if p.ioErr {
			ix.logger.Warn("skipping unreadable file, previous rows retained", zap.String("path", p.relPath))
			continue
		}
		if err := ix.writeFile(tx, p); err != nil {
			return fmt.Errorf("write %s: %w", p.relPath, err)
		}
	}

	if fullRun {
		existing, err := ix.st.FilesByRepository(ix.repositoryID)
		if err != nil {
			return fmt.Errorf("list existing files: %w", err)
		}
		for _, f := range existing {
			if !present[f.RelPath] {
				if err := store.DeleteFile(tx, f.ID); err != nil {
					return fmt.Errorf("delete stale file %s: %w", f.RelPath, err)
				}
			}
		}
	}

	if err := store.ResolveReferences(tx, ix.repositoryID); err != nil {
		return fmt.Errorf("resolve references: %w", err)
	}
	if _, err := tx.Exec(`UPDATE repositories SET last_indexed_at = ? WHERE id = ?`, nowFunc(), ix.repositoryID); err != nil {
		return fmt.Errorf("touch last_indexed_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// nowFunc is a seam for deterministic tests.
var nowFunc = func() time.Time { return time.Now().UTC() }

// prepare reads and extracts one file without touching storage. It never
// returns an error: an unreadable file is reported via ioErr, and a parse
// failure degrades to an empty forest, per the Language Extractor contract.
func (ix *Indexer) prepare(relPath string) *preparedFile {
	absPath := filepath.Join(ix.repoRoot, relPath)
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &preparedFile{relPath: relPath, notExist: true}
		}
		return &preparedFile{relPath: relPath, ioErr: true}
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	extractor, ok := ix.registry.For(filepath.Ext(relPath))
	if !ok {
		return &preparedFile{relPath: relPath, hash: hash}
	}
	language, forest, err := extractor.Extract(data, relPath)
	if err != nil {
		ix.logger.Warn("extraction failed, yielding empty forest", zap.String("path", relPath), zap.Error(err))
		forest = nil
	}
	return &preparedFile{relPath: relPath, language: language, hash: hash, forest: forest}
}

// writeFile upserts the file row and, on a hash mismatch, replaces its
// symbols and references.
func (ix *Indexer) writeFile(tx *sql.Tx, p *preparedFile) error {
	fileID, previousHash, err := store.UpsertFile(tx, ix.repositoryID, p.relPath, p.language, p.hash)
	if err != nil {
		return err
	}
	if previousHash == p.hash {
		return nil
	}
	if previousHash != "" {
		if err := store.DeleteSymbolsForFile(tx, fileID); err != nil {
			return err
		}
	}
	return ix.insertForest(tx, fileID, p.relPath, p.forest, nil)
}

// insertForest flattens a symbol forest into rows, assigning
// parent_symbol_id as it walks, and inserts each symbol's out-edges as
// unresolved references.
func (ix *Indexer) insertForest(tx *sql.Tx, fileID int64, relPath string, forest []*lang.Symbol, parentID *int64) error {
	for _, sym := range forest {
		row := &store.Symbol{
			FileID:         fileID,
			RepositoryID:   ix.repositoryID,
			RelPath:        relPath,
			Name:           sym.Name,
			Kind:           sym.Kind,
			Signature:      sym.Signature,
			DocComment:     sym.DocComment,
			StartLine:      sym.StartLine,
			EndLine:        sym.EndLine,
			ParentSymbolID: parentID,
		}
		id, err := store.InsertSymbol(tx, row)
		if err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		for _, ref := range sym.References {
			if _, err := store.InsertReference(tx, &store.Reference{
				FromSymbolID: id,
				ToName:       ref.Name,
				Kind:         ref.Kind,
				Line:         ref.Line,
				FileID:       fileID,
				RepositoryID: ix.repositoryID,
			}); err != nil {
				return fmt.Errorf("insert reference from %s to %s: %w", sym.Name, ref.Name, err)
			}
		}
		if len(sym.Children) > 0 {
			childParent := id
			if err := ix.insertForest(tx, fileID, relPath, sym.Children, &childParent); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteByPath deletes a file row by its repository-relative path, used
// when a partial update names a path that no longer exists on disk.
func (ix *Indexer) deleteByPath(tx *sql.Tx, relPath string) error {
	row := tx.QueryRow(`SELECT id FROM files WHERE repository_id = ? AND rel_path = ?`, ix.repositoryID, relPath)
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("lookup file for deletion: %w", err)
	}
	return store.DeleteFile(tx, id)
}
