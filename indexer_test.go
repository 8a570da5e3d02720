package codeindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/lang"
	"github.com/jward/codeindex/internal/store"
)

func newTestIndexer(t *testing.T, repoRoot string) (*Indexer, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ix, err := New(st, lang.Default(), repoRoot, config.IndexerConfig{MaxFileSize: 1048576}, zap.NewNop())
	require.NoError(t, err)
	return ix, st
}

func writeSource(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestIndex_DiscoversAndStoresSymbols(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "main.py", "def main():\n    greet()\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].RelPath)
}

func TestIndex_SkipsIgnoredDirectories(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "main.py", "def main():\n    pass\n")
	writeSource(t, root, "vendor/dep.py", "def dep():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].RelPath)
}

func TestIndex_SkipsFilesWithoutRegisteredExtractor(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "notes.txt", "just some notes")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndex_RemovesRowsForDeletedFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")
	writeSource(t, root, "b.py", "def b():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))
	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].RelPath)
}

func TestIndex_ReindexWithUnchangedHashLeavesSymbolsIntact(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))
	f, err := st.FileByPath(ix.RepositoryID(), "a.py")
	require.NoError(t, err)
	before, err := st.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	after, err := st.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
	}
}

func TestIndex_ChangedContentReplacesSymbols(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	writeSource(t, root, "a.py", "def a():\n    pass\n\n\ndef extrafunction():\n    pass\n")
	require.NoError(t, ix.Index(context.Background()))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)

	hits, err := st.Search(ix.RepositoryID(), "extrafunction*", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestUpdateFiles_PartialUpdateOnlyTouchesNamedPaths(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")
	writeSource(t, root, "b.py", "def b():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	writeSource(t, root, "a.py", "def a():\n    pass\n\n\ndef extra():\n    pass\n")
	require.NoError(t, ix.UpdateFiles(context.Background(), []string{"a.py"}))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestUpdateFiles_DeletedPathRemovesRow(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")
	writeSource(t, root, "b.py", "def b():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(root, "b.py")))
	require.NoError(t, ix.UpdateFiles(context.Background(), []string{"b.py"}))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].RelPath)
}

func TestUpdateFiles_FullRunUntouchedByPartialUpdate(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeSource(t, root, "a.py", "def a():\n    pass\n")
	writeSource(t, root, "untouched.py", "def untouched():\n    pass\n")

	ix, st := newTestIndexer(t, root)
	require.NoError(t, ix.Index(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(root, "untouched.py")))
	require.NoError(t, ix.UpdateFiles(context.Background(), []string{"a.py"}))

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 2, "partial update must not reconcile files outside the given path list")
}

func TestNew_RegisteringSameRootTwiceReturnsSameRepositoryID(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ix1, err := New(st, lang.Default(), root, config.IndexerConfig{}, nil)
	require.NoError(t, err)
	ix2, err := New(st, lang.Default(), root, config.IndexerConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ix1.RepositoryID(), ix2.RepositoryID())
}
