package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMatcher_DefaultDirsAlwaysSkipped(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	m, err := Build(root, nil)
	require.NoError(t, err)
	assert.True(t, m.Skip("node_modules/pkg/index.js", false))
	assert.True(t, m.Skip("vendor/lib.go", false))
	assert.False(t, m.Skip("src/main.go", false))
}

func TestMatcher_GitignorePattern(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\nbuild_output/\n")

	m, err := Build(root, nil)
	require.NoError(t, err)
	assert.True(t, m.Skip("debug.log", false))
	assert.True(t, m.Skip("nested/debug.log", false))
	assert.True(t, m.Skip("build_output", true))
	assert.False(t, m.Skip("build_output", false))
	assert.False(t, m.Skip("main.go", false))
}

func TestMatcher_NestedGitignoreScopedToItsDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", ".gitignore"), "generated.go\n")

	m, err := Build(root, nil)
	require.NoError(t, err)
	assert.True(t, m.Skip("pkg/generated.go", false))
	assert.False(t, m.Skip("other/generated.go", false))
}

func TestMatcher_NegationReincludesPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n!keep.log\n")

	m, err := Build(root, nil)
	require.NoError(t, err)
	assert.True(t, m.Skip("debug.log", false))
	assert.False(t, m.Skip("keep.log", false))
}

func TestMatcher_ExtraGlobsAnchoredAtRoot(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	m, err := Build(root, []string{"testdata/**"})
	require.NoError(t, err)
	assert.True(t, m.Skip("testdata/fixture.json", false))
	assert.False(t, m.Skip("src/testdata/fixture.json", false))
}

func TestMatcher_GitignoreInsideDefaultIgnoredDirIsNeverLoaded(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", ".gitignore"), "!everything_reincluded\n")

	m, err := Build(root, nil)
	require.NoError(t, err)
	assert.True(t, m.Skip("node_modules/anything.js", false))
}
