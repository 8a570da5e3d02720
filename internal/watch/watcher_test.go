package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/lang"
	"github.com/jward/codeindex/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/mattn/go-sqlite3._Cfunc_sqlite3_close_v2"),
	)
}

func newTestWatcher(t *testing.T, repoRoot string) (*RepoWatcher, *codeindex.Indexer, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "watch.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ix, err := codeindex.New(st, lang.Default(), repoRoot, config.IndexerConfig{MaxFileSize: 1048576}, zap.NewNop())
	require.NoError(t, err)

	rw, err := NewRepoWatcher(repoRoot, ix, config.IndexerConfig{}, zap.NewNop())
	require.NoError(t, err)
	rw.debounce = 40 * time.Millisecond
	return rw, ix, st
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestRepoWatcher_StartReconcilesExistingFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("def a():\n    pass\n"), 0o644))

	rw, ix, st := newTestWatcher(t, root)
	require.NoError(t, rw.Start(context.Background()))
	t.Cleanup(func() { rw.Stop(time.Second) })

	files, err := st.FilesByRepository(ix.RepositoryID())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].RelPath)
}

func TestRepoWatcher_DetectsNewFileAfterDebounce(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	rw, ix, st := newTestWatcher(t, root)
	require.NoError(t, rw.Start(context.Background()))
	t.Cleanup(func() { rw.Stop(time.Second) })

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.py"), []byte("def new():\n    pass\n"), 0o644))

	ok := waitFor(t, 3*time.Second, func() bool {
		files, err := st.FilesByRepository(ix.RepositoryID())
		return err == nil && len(files) == 1
	})
	assert.True(t, ok, "expected new.py to be reconciled within the debounce window")
}

func TestRepoWatcher_DetectsDeletion(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	target := filepath.Join(root, "gone.py")
	require.NoError(t, os.WriteFile(target, []byte("def gone():\n    pass\n"), 0o644))

	rw, ix, st := newTestWatcher(t, root)
	require.NoError(t, rw.Start(context.Background()))
	t.Cleanup(func() { rw.Stop(time.Second) })

	require.NoError(t, os.Remove(target))

	ok := waitFor(t, 3*time.Second, func() bool {
		files, err := st.FilesByRepository(ix.RepositoryID())
		return err == nil && len(files) == 0
	})
	assert.True(t, ok, "expected gone.py's row to be removed after deletion settles")
}

func TestRepoWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	rw, ix, st := newTestWatcher(t, root)
	require.NoError(t, rw.Start(context.Background()))
	t.Cleanup(func() { rw.Stop(time.Second) })

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// give addRecursive's async watch registration a moment before writing into it
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "mod.py"), []byte("def mod():\n    pass\n"), 0o644))

	ok := waitFor(t, 3*time.Second, func() bool {
		files, err := st.FilesByRepository(ix.RepositoryID())
		return err == nil && len(files) == 1
	})
	assert.True(t, ok, "expected a file in a newly created subdirectory to be picked up")
}

func TestRepoWatcher_StopClosesDoneChAfterConcurrentEvents(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	rw, ix, st := newTestWatcher(t, root)
	require.NoError(t, rw.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(root, "x.py"), []byte("def x():\n    pass\n"), 0o644))
	waitFor(t, 3*time.Second, func() bool {
		files, err := st.FilesByRepository(ix.RepositoryID())
		return err == nil && len(files) == 1
	})
	rw.Stop(time.Second)

	select {
	case <-rw.doneCh:
	default:
		t.Fatal("doneCh should be closed after Stop returns")
	}
}
