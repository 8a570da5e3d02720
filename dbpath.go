package codeindex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// ResolveCacheDir returns cacheDir unchanged if non-empty, otherwise the
// user cache directory's "codeindex" subdirectory — the single directory
// every repository's database is keyed under, and the root admin
// operations (list/delete across repositories) enumerate.
func ResolveCacheDir(cacheDir string) (string, error) {
	if cacheDir != "" {
		return cacheDir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return filepath.Join(dir, "codeindex"), nil
}

// DatabasePath returns the on-disk path for repoPath's database: a file
// named after a prefix of the SHA-256 of its absolute path, under
// cacheDir. An empty cacheDir resolves to the user cache directory.
func DatabasePath(cacheDir, repoPath string) (string, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("resolve repository path: %w", err)
	}
	cacheDir, err = ResolveCacheDir(cacheDir)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(absPath))
	name := hex.EncodeToString(sum[:])[:32] + ".db"
	return filepath.Join(cacheDir, name), nil
}

// EnsureCacheDir creates cacheDir (and any parents) if it does not already
// exist.
func EnsureCacheDir(cacheDir string) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	return nil
}
