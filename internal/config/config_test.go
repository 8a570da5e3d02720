package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	cfg, warning := Load(root)
	assert.Empty(t, warning)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidFileOverridesDefaults(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{
		"output": {"truncate_signatures": 200},
		"search": {"max_results": 50}
	}`), 0o644))

	cfg, warning := Load(root)
	assert.Empty(t, warning)
	assert.Equal(t, 200, cfg.Output.TruncateSignatures)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 100, cfg.Output.TruncateDocComments) // untouched field keeps default
}

func TestLoad_MalformedFileFallsBackToDefaultsWithWarning(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{not json`), 0o644))

	cfg, warning := Load(root)
	assert.NotEmpty(t, warning)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownFieldFallsBackToDefaultsWithWarning(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{"nonexistent_field": 1}`), 0o644))

	cfg, warning := Load(root)
	assert.NotEmpty(t, warning)
	assert.Equal(t, Default(), cfg)
}
