package codeindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePath_DeterministicForSameRepo(t *testing.T) {
	t.Parallel()
	cacheDir := t.TempDir()
	repo := t.TempDir()

	p1, err := DatabasePath(cacheDir, repo)
	require.NoError(t, err)
	p2, err := DatabasePath(cacheDir, repo)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, cacheDir, filepath.Dir(p1))
}

func TestDatabasePath_DiffersForDifferentRepos(t *testing.T) {
	t.Parallel()
	cacheDir := t.TempDir()
	repoA := t.TempDir()
	repoB := t.TempDir()

	pA, err := DatabasePath(cacheDir, repoA)
	require.NoError(t, err)
	pB, err := DatabasePath(cacheDir, repoB)
	require.NoError(t, err)
	assert.NotEqual(t, pA, pB)
}

func TestDatabasePath_RelativeAndAbsoluteAgree(t *testing.T) {
	t.Parallel()
	cacheDir := t.TempDir()
	repo := t.TempDir()

	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, os.Chdir(cwd)) })
	require.NoError(t, os.Chdir(repo))

	pRel, err := DatabasePath(cacheDir, ".")
	require.NoError(t, err)
	pAbs, err := DatabasePath(cacheDir, repo)
	require.NoError(t, err)
	assert.Equal(t, pAbs, pRel)
}

func TestDatabasePath_EmptyCacheDirUsesUserCacheDir(t *testing.T) {
	t.Parallel()
	repo := t.TempDir()
	p, err := DatabasePath("", repo)
	require.NoError(t, err)

	userCache, err := os.UserCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userCache, "codeindex"), filepath.Dir(p))
}

func TestEnsureCacheDir_CreatesNestedDirectory(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	nested := filepath.Join(base, "a", "b", "c")

	require.NoError(t, EnsureCacheDir(nested))
	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureCacheDir_IdempotentOnExistingDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, EnsureCacheDir(dir))
	require.NoError(t, EnsureCacheDir(dir))
}
