// Package format implements the Compact Formatter & Token Budgeter: it
// shapes Query Surface results into terse, abbreviated-key records and
// then, when the caller supplies a max_tokens ceiling, trims the response
// until it fits a byte budget.
package format

import (
	"fmt"
	"strings"

	"github.com/jward/codeindex/internal/store"
)

// Config carries the output-shaping defaults from project configuration
// (spec §6 output.*).
type Config struct {
	TruncateSignatures  int
	TruncateDocComments int
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{TruncateSignatures: 120, TruncateDocComments: 100}
}

// Record is one symbol rendered with the abbreviated keys the spec names:
// n name, k kind, f file, l line range, id symbol id, sig signature,
// doc doc comment, p path.
type Record struct {
	ID        int64   `json:"id"`
	Name      string  `json:"n,omitempty"`
	Kind      string  `json:"k,omitempty"`
	File      string  `json:"f,omitempty"`
	FileIndex *int    `json:"fi,omitempty"`
	Lines     string  `json:"l,omitempty"`
	Signature string  `json:"sig,omitempty"`
	Doc       string  `json:"doc,omitempty"`
	Parent    *int64  `json:"parent,omitempty"`
	Children  []int64 `json:"children,omitempty"`
}

// FromSymbol renders a store.Symbol into a Record. brief controls doc
// comment truncation: brief views get the short form, detail views get the
// full comment.
func FromSymbol(sym *store.Symbol, cfg Config, brief bool) Record {
	r := Record{
		ID:        sym.ID,
		Name:      sym.Name,
		Kind:      sym.Kind,
		File:      sym.RelPath,
		Lines:     fmt.Sprintf("%d-%d", sym.StartLine, sym.EndLine),
		Signature: TruncateSignature(sym.Signature, cfg.TruncateSignatures),
		Parent:    sym.ParentSymbolID,
	}
	if brief {
		r.Doc = TruncateDoc(sym.DocComment, cfg.TruncateDocComments)
	} else {
		r.Doc = sym.DocComment
	}
	return r
}

// TruncateSignature removes whitespace around ':', ',', '(', '[', '<' and
// truncates to max characters, cutting on a character (rune) boundary and
// appending an ellipsis.
func TruncateSignature(sig string, max int) string {
	for _, sep := range []string{" :", ": ", " ,", ", ", " (", "( ", " [", "[ ", " <", "< "} {
		sig = strings.ReplaceAll(sig, sep, strings.TrimSpace(sep))
	}
	return truncateRunes(sig, max)
}

// TruncateDoc implements the brief-view doc comment rule: prefer the first
// sentence ending in ". " if it fits, else the first line if it fits, else
// word-boundary truncation.
func TruncateDoc(doc string, max int) string {
	if doc == "" {
		return doc
	}
	if i := strings.Index(doc, ". "); i >= 0 && i+1 <= max {
		return doc[:i+1]
	}
	if i := strings.IndexByte(doc, '\n'); i >= 0 && i <= max {
		return doc[:i]
	}
	return truncateAtWordBoundary(doc, max)
}

func truncateAtWordBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimRight(s[:cut], " ") + "…"
}

// truncateRunes cuts s to at most max runes, cutting on a rune boundary and
// appending an ellipsis when truncation occurs.
func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	return string(rs[:max-1]) + "…"
}
