package query

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jward/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*store.Store, int64) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "fixture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	repoID, err := st.RegisterRepository("/repo")
	require.NoError(t, err)

	tx, err := st.DB().Begin()
	require.NoError(t, err)
	fileID, _, err := store.UpsertFile(tx, repoID, "handler.go", "go", "h1")
	require.NoError(t, err)

	parentID, err := store.InsertSymbol(tx, &store.Symbol{
		FileID: fileID, RepositoryID: repoID, RelPath: "handler.go",
		Name: "RequestHandler", Kind: store.KindStruct, StartLine: 1, EndLine: 40,
	})
	require.NoError(t, err)

	childID, err := store.InsertSymbol(tx, &store.Symbol{
		FileID: fileID, RepositoryID: repoID, RelPath: "handler.go",
		Name: "ParseUserRequest", Kind: store.KindMethod, DocComment: "Parses the incoming request body.",
		StartLine: 5, EndLine: 20, ParentSymbolID: &parentID,
	})
	require.NoError(t, err)

	calleeID, err := store.InsertSymbol(tx, &store.Symbol{
		FileID: fileID, RepositoryID: repoID, RelPath: "handler.go",
		Name: "ValidateHeaders", Kind: store.KindFunction, StartLine: 25, EndLine: 30,
	})
	require.NoError(t, err)

	_, err = store.InsertReference(tx, &store.Reference{
		FromSymbolID: childID, ToName: "ValidateHeaders", Kind: store.RefCall, Line: 10, FileID: fileID, RepositoryID: repoID,
	})
	require.NoError(t, err)
	require.NoError(t, store.ResolveReferences(tx, repoID))
	require.NoError(t, tx.Commit())

	_ = calleeID
	return st, repoID
}

func TestSurface_FileSymbols_OrderedByLine(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 20)

	symbols, err := sf.FileSymbols("handler.go")
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	assert.Equal(t, "RequestHandler", symbols[0].Name)
	assert.Equal(t, "ParseUserRequest", symbols[1].Name)
	assert.Equal(t, "ValidateHeaders", symbols[2].Name)

	gotNames := []string{symbols[0].Name, symbols[1].Name, symbols[2].Name}
	wantNames := []string{"RequestHandler", "ParseUserRequest", "ValidateHeaders"}
	if diff := cmp.Diff(wantNames, gotNames); diff != "" {
		t.Errorf("symbol order mismatch (-want +got):\n%s", diff)
	}
}

func TestSurface_SymbolDetail_ResolvesEdgesAndFamily(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 20)

	symbols, err := sf.FileSymbols("handler.go")
	require.NoError(t, err)
	var parser *store.Symbol
	for _, s := range symbols {
		if s.Name == "ParseUserRequest" {
			parser = s
		}
	}
	require.NotNil(t, parser)

	detail, err := sf.SymbolDetail(parser.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.ParentID)
	assert.Len(t, detail.Outgoing[store.RefCall], 1)
	assert.Equal(t, "ValidateHeaders", detail.Outgoing[store.RefCall][0].ToName)
}

func TestSurface_Search_FindsByTokenizedSubword(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 20)

	hits, err := sf.Search("parse", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "ParseUserRequest", hits[0].Symbol.Name)
}

func TestSurface_Search_EmptyQueryReturnsNil(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 20)

	hits, err := sf.Search("   ", 0)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestSurface_Overview_CountsLanguagesAndModules(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 10)

	ov, err := sf.Overview(5)
	require.NoError(t, err)
	assert.Equal(t, 1, ov.Languages["go"])
	assert.Equal(t, 1, ov.Modules["."])
	require.Len(t, ov.LargestTypes, 1)
	assert.Equal(t, "RequestHandler", ov.LargestTypes[0].Name)
}

func TestSurface_ReferencesTo_PairsCaller(t *testing.T) {
	t.Parallel()
	st, repoID := newFixture(t)
	sf := New(st, repoID, 10)

	symbols, err := sf.FileSymbols("handler.go")
	require.NoError(t, err)
	var callee *store.Symbol
	for _, s := range symbols {
		if s.Name == "ValidateHeaders" {
			callee = s
		}
	}
	require.NotNil(t, callee)

	refs, err := sf.ReferencesTo(callee.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "ParseUserRequest", refs[0].Caller.Name)
}

func TestBuildFTSQuery_TokenizesAndPassesOperatorsThrough(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "parse* user* parseuser*", BuildFTSQuery("parseUser"))
	assert.Equal(t, "foo* AND bar*", BuildFTSQuery("foo AND bar"))
	assert.Empty(t, BuildFTSQuery(""))
}

func TestListAndDeleteRepositories(t *testing.T) {
	t.Parallel()
	st, _ := newFixture(t)

	repos, err := ListRepositories(st)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "/repo", repos[0].Path)

	require.NoError(t, DeleteRepository(st, "/repo"))
	repos, err = ListRepositories(st)
	require.NoError(t, err)
	assert.Empty(t, repos)
}
