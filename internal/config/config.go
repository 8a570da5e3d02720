// Package config loads the optional per-repository JSON configuration file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the project-level settings recognized at the repository
// root. Zero values are never used directly by callers; Default() supplies
// the documented defaults and Load always returns a fully populated Config.
type Config struct {
	Output  OutputConfig  `json:"output"`
	Search  SearchConfig  `json:"search"`
	Indexer IndexerConfig `json:"indexer"`
}

type OutputConfig struct {
	MaxTokens             *int `json:"max_tokens"`
	TruncateSignatures    int  `json:"truncate_signatures"`
	TruncateDocComments   int  `json:"truncate_doc_comments"`
}

type SearchConfig struct {
	MaxResults int `json:"max_results"`
}

type IndexerConfig struct {
	Ignore      []string `json:"ignore"`
	MaxFileSize int64    `json:"max_file_size"`
}

// FileName is the recognized configuration file name at a repository root.
const FileName = ".codeindex.json"

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Output: OutputConfig{
			MaxTokens:           nil,
			TruncateSignatures:  120,
			TruncateDocComments: 100,
		},
		Search: SearchConfig{
			MaxResults: 20,
		},
		Indexer: IndexerConfig{
			Ignore:      nil,
			MaxFileSize: 1048576,
		},
	}
}

// Load reads the project configuration file at repoRoot, if present. A
// missing file is not an error: Default() is returned unchanged. A file
// that fails to parse (including one with unknown fields) produces a
// warning string and falls back to defaults, per the external-interfaces
// contract — it never returns an error the caller must branch on.
func Load(repoRoot string) (cfg Config, warning string) {
	cfg = Default()
	path := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ""
		}
		return Default(), fmt.Sprintf("reading %s: %v; using defaults", path, err)
	}

	var parsed Config
	parsed = Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return Default(), fmt.Sprintf("parsing %s: %v; using defaults", path, err)
	}
	return parsed, ""
}
