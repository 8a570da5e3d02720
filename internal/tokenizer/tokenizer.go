// Package tokenizer splits identifiers into lowercase subwords for
// full-text indexing. It has no dependencies on the rest of the engine so
// extraction and search can both call it without import cycles.
package tokenizer

import "strings"

// Tokenize splits name into lowercase subwords using camelCase, snake_case,
// kebab-case and acronym boundaries, then appends the lowercased, stripped
// original as a final token so exact-name search still wins.
//
// Splitting rules, applied in order:
//  1. Split at runs of non-alphanumeric characters.
//  2. Within an alphanumeric run, split at a lower→upper boundary.
//  3. Split before the last uppercase letter of an all-uppercase run that is
//     followed by a lowercase letter, but only when at least two uppercase
//     letters precede that lowercase letter (HTMLParser -> HTML, Parser).
//
// Digits never introduce a split: v2Handler -> v2, Handler.
func Tokenize(name string) []string {
	var tokens []string
	for _, run := range alnumRuns(name) {
		tokens = append(tokens, splitRun(run)...)
	}

	seen := make(map[string]bool, len(tokens)+1)
	out := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		lt := strings.ToLower(t)
		if lt == "" || seen[lt] {
			continue
		}
		seen[lt] = true
		out = append(out, lt)
	}

	original := strings.ToLower(stripNonAlnum(name))
	if original != "" && !seen[original] {
		out = append(out, original)
	}
	return out
}

// TokenString is Tokenize joined with single spaces, the form stored in the
// FTS pre-tokenized column.
func TokenString(name string) string {
	return strings.Join(Tokenize(name), " ")
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// alnumRuns splits s at runs of non-alphanumeric characters.
func alnumRuns(s string) []string {
	var runs []string
	var cur strings.Builder
	for _, r := range s {
		if isAlnum(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	return runs
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// splitRun splits one alphanumeric run at camelCase and acronym boundaries.
func splitRun(run string) []string {
	rs := []rune(run)
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i, r := range rs {
		if i == 0 {
			cur.WriteRune(r)
			continue
		}
		prev := rs[i-1]

		// lower/digit -> upper boundary: split before r.
		if isUpper(r) && !isUpper(prev) {
			flush()
			cur.WriteRune(r)
			continue
		}

		// Acronym boundary: an uppercase run followed by a lowercase letter
		// splits before the last uppercase letter, but only when at least
		// two uppercase letters precede the lowercase one (HTMLParser ->
		// HTML, Parser; Aname stays Aname).
		if isLower(r) && isUpper(prev) && cur.Len() >= 2 {
			buf := []rune(cur.String())
			allUpperSoFar := true
			for _, c := range buf {
				if !isUpper(c) {
					allUpperSoFar = false
					break
				}
			}
			if allUpperSoFar {
				last := buf[len(buf)-1]
				head := string(buf[:len(buf)-1])
				cur.Reset()
				cur.WriteString(head)
				flush()
				cur.WriteRune(last)
				cur.WriteRune(r)
				continue
			}
		}

		cur.WriteRune(r)
	}
	flush()
	return tokens
}
