package format

import (
	"testing"

	"github.com/jward/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestTruncateSignature_StripsWhitespaceAroundPunctuation(t *testing.T) {
	t.Parallel()
	sig := "func Foo(a : int) ( error )"
	got := TruncateSignature(sig, 200)
	assert.NotContains(t, got, " :")
	assert.NotContains(t, got, ": ")
	assert.NotContains(t, got, " (")
}

func TestTruncateSignature_CutsAtMax(t *testing.T) {
	t.Parallel()
	got := TruncateSignature("func VeryLongFunctionNameThatExceedsTheBudget(a, b, c int) error", 20)
	assert.LessOrEqual(t, len([]rune(got)), 20)
	assert.Contains(t, got, "…")
}

func TestTruncateDoc_PrefersFirstSentence(t *testing.T) {
	t.Parallel()
	doc := "Parses the request. It validates headers and returns an error on failure."
	got := TruncateDoc(doc, 100)
	assert.Equal(t, "Parses the request.", got)
}

func TestTruncateDoc_FallsBackToFirstLine(t *testing.T) {
	t.Parallel()
	doc := "Parses the request without a terminating period\nSecond line of detail that is much longer."
	got := TruncateDoc(doc, 100)
	assert.Equal(t, "Parses the request without a terminating period", got)
}

func TestTruncateDoc_WordBoundaryFallback(t *testing.T) {
	t.Parallel()
	doc := "thisisonereallylongwordrunwithnospacesatallanditkeepsgoingandgoing"
	got := TruncateDoc(doc, 20)
	assert.Less(t, len(got), len(doc))
	assert.Contains(t, got, "…")
}

func TestTruncateDoc_ShortDocUntouched(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", TruncateDoc("short", 100))
	assert.Equal(t, "", TruncateDoc("", 100))
}

func TestFromSymbol_BriefTruncatesDoc(t *testing.T) {
	t.Parallel()
	sym := &store.Symbol{
		ID: 1, Name: "Foo", Kind: store.KindFunction, RelPath: "a.go",
		DocComment: "Does something. And some more detail that would be cut in brief mode because it is long enough to exceed the truncation budget by a wide margin.",
		StartLine: 1, EndLine: 10,
	}
	cfg := Config{TruncateSignatures: 120, TruncateDocComments: 20}
	brief := FromSymbol(sym, cfg, true)
	assert.Equal(t, "Does something.", brief.Doc)

	full := FromSymbol(sym, cfg, false)
	assert.Equal(t, sym.DocComment, full.Doc)
}

func TestFromSymbol_Lines(t *testing.T) {
	t.Parallel()
	sym := &store.Symbol{ID: 1, Name: "Foo", Kind: store.KindFunction, RelPath: "a.go", StartLine: 3, EndLine: 9}
	rec := FromSymbol(sym, DefaultConfig(), true)
	assert.Equal(t, "3-9", rec.Lines)
	assert.Equal(t, int64(1), rec.ID)
}
