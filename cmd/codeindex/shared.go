package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	codeindex "github.com/jward/codeindex"
	"github.com/jward/codeindex/internal/config"
	"github.com/jward/codeindex/internal/format"
	"github.com/jward/codeindex/internal/lang"
	"github.com/jward/codeindex/internal/logging"
	"github.com/jward/codeindex/internal/query"
	"github.com/jward/codeindex/internal/store"
)

// repoRoot resolves the --repo flag to an absolute path, defaulting to the
// current working directory per spec §6 ("defaulting to the caller's
// working directory").
func repoRoot() (string, error) {
	if flagRepo != "" {
		return filepath.Abs(flagRepo)
	}
	return os.Getwd()
}

// openRepoStore resolves root's database path, opens (creating if absent)
// its Store, and loads project configuration, warning to stderr if the
// config file failed to parse.
func openRepoStore(root string) (*store.Store, config.Config, error) {
	dbPath, err := codeindex.DatabasePath(flagCacheDir, root)
	if err != nil {
		return nil, config.Config{}, err
	}
	if err := codeindex.EnsureCacheDir(filepath.Dir(dbPath)); err != nil {
		return nil, config.Config{}, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg, warning := config.Load(root)
	if warning != "" {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}
	return st, cfg, nil
}

// buildSurface opens root's Store, registers it if necessary, and returns a
// bound Query Surface plus the Store for the caller to close. If the
// database has never been indexed, ok is false and the caller should report
// the "unindexed" marker rather than run the operation (spec §4.6).
func buildSurface(root string) (*store.Store, *query.Surface, config.Config, bool, error) {
	dbPath, err := codeindex.DatabasePath(flagCacheDir, root)
	if err != nil {
		return nil, nil, config.Config{}, false, err
	}
	if _, statErr := os.Stat(dbPath); os.IsNotExist(statErr) {
		return nil, nil, config.Config{}, false, nil
	}
	st, cfg, err := openRepoStore(root)
	if err != nil {
		return nil, nil, config.Config{}, false, err
	}
	repo, err := st.GetRepository(root)
	if err != nil {
		st.Close()
		if err == store.ErrNotFound {
			return nil, nil, config.Config{}, false, nil
		}
		return nil, nil, config.Config{}, false, err
	}
	sf := query.New(st, repo.ID, cfg.Search.MaxResults)
	return st, sf, cfg, true, nil
}

func newLogger() *zap.Logger {
	l, err := logging.New()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newRegistry() *lang.Registry {
	return lang.Default()
}

// hashFileFunc returns a function that computes the SHA-256 content
// fingerprint the Indexer would use for relPath, for the status operation's staleness comparison. It reports
// ok=false if the file cannot be read (deleted, permission denied, etc).
func hashFileFunc(root string) func(relPath string) (string, bool) {
	return func(relPath string) (string, bool) {
		data, err := os.ReadFile(filepath.Join(root, relPath))
		if err != nil {
			return "", false
		}
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), true
	}
}

// resolveMaxTokens prefers an explicit --max-tokens flag over the project
// configuration's output.max_tokens default.
func resolveMaxTokens(cfg config.Config) *int {
	if v := maxTokensPtr(); v != nil {
		return v
	}
	return cfg.Output.MaxTokens
}

func printJSON(data []byte) {
	os.Stdout.Write(data)
	fmt.Println()
}

// outputConfig projects the project configuration's output settings into
// the format package's Config, which Record truncation consults.
func outputConfig(cfg config.Config) format.Config {
	return format.Config{
		TruncateSignatures:  cfg.Output.TruncateSignatures,
		TruncateDocComments: cfg.Output.TruncateDocComments,
	}
}
