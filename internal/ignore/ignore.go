// Package ignore implements the ignore-aware traversal rules the Indexer
// and Watcher share: a built-in default ignore list, nested and global
// .gitignore files, and user-supplied glob patterns from project
// configuration.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDirs are directory names skipped everywhere, regardless of any
// .gitignore content.
var DefaultDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".venv":        true,
	"vendor":       true,
	".next":        true,
	".nuxt":        true,
	"coverage":     true,
	".cache":       true,
}

type rule struct {
	baseDir string // absolute directory the pattern is anchored to
	pattern string // doublestar pattern, relative to baseDir
	negate  bool
	dirOnly bool
}

// Matcher decides whether a path under a repository root should be skipped.
type Matcher struct {
	root  string
	rules []rule
}

// Build scans root for .gitignore files (skipping default-ignored and
// hidden directories while scanning, so a .gitignore inside node_modules
// is never consulted), loads the user's global gitignore if configured,
// and appends extraGlobs as additional repository-root-anchored patterns.
func Build(root string, extraGlobs []string) (*Matcher, error) {
	m := &Matcher{root: root}

	if home, err := os.UserHomeDir(); err == nil {
		for _, candidate := range []string{
			filepath.Join(home, ".config", "git", "ignore"),
			filepath.Join(home, ".gitignore_global"),
		} {
			m.loadFile(candidate, root)
		}
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || DefaultDirs[d.Name()]) {
				return filepath.SkipDir
			}
			m.loadFile(filepath.Join(path, ".gitignore"), path)
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, g := range extraGlobs {
		m.rules = append(m.rules, rule{baseDir: root, pattern: strings.TrimPrefix(g, "/")})
	}
	return m, nil
}

func (m *Matcher) loadFile(path, baseDir string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r := rule{baseDir: baseDir}
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		anchored := strings.HasPrefix(line, "/")
		line = strings.TrimPrefix(line, "/")
		if !anchored && !strings.Contains(line, "/") {
			line = "**/" + line
		}
		r.pattern = line
		m.rules = append(m.rules, r)
	}
}

// Skip reports whether relPath (slash-separated, relative to the matcher's
// root) should be excluded from indexing. isDir indicates whether relPath
// names a directory; dirOnly gitignore rules (trailing "/") only apply to
// directories.
func (m *Matcher) Skip(relPath string, isDir bool) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if DefaultDirs[seg] {
			return true
		}
	}

	ignored := false
	relPath = filepath.ToSlash(relPath)
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		rel, err := filepath.Rel(r.baseDir, filepath.Join(m.root, relPath))
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, "..") {
			continue
		}
		if ok, _ := doublestar.Match(r.pattern, rel); ok {
			ignored = !r.negate
		}
	}
	return ignored
}
