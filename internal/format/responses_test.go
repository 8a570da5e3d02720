package format

import (
	"encoding/json"
	"testing"

	"github.com/jward/codeindex/internal/query"
	"github.com/jward/codeindex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSymbolsResponse_Shape(t *testing.T) {
	t.Parallel()
	symbols := []*store.Symbol{
		{ID: 1, Name: "Foo", Kind: store.KindFunction, RelPath: "a.go", StartLine: 1, EndLine: 3},
		{ID: 2, Name: "Bar", Kind: store.KindFunction, RelPath: "a.go", StartLine: 5, EndLine: 8},
	}
	data, truncated, err := FileSymbolsResponse(symbols, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.False(t, truncated)

	var decoded struct {
		File  string   `json:"f"`
		Items []Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "a.go", decoded.File)
	require.Len(t, decoded.Items, 2)
	assert.Equal(t, "Foo", decoded.Items[0].Name)
}

func TestSymbolDetailResponse_IncludesEdges(t *testing.T) {
	t.Parallel()
	detail := &query.SymbolDetail{
		Symbol: &store.Symbol{ID: 1, Name: "Foo", Kind: store.KindFunction, RelPath: "a.go", StartLine: 1, EndLine: 5},
		Outgoing: map[string][]*store.Reference{
			store.RefCall: {{ID: 10, FromSymbolID: 1, ToName: "Bar", Kind: store.RefCall, Line: 3}},
		},
		Incoming: []query.ReferenceWithCaller{
			{
				Reference: &store.Reference{ID: 11, FromSymbolID: 2, ToName: "Foo", Kind: store.RefCall, Line: 9},
				Caller:    &store.Symbol{ID: 2, Name: "Caller", RelPath: "b.go"},
			},
		},
		ChildIDs: []int64{3, 4},
	}
	data, _, err := SymbolDetailResponse(detail, DefaultConfig(), nil)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	sym := decoded["symbol"].(map[string]any)
	assert.Equal(t, "Foo", sym["n"])
	assert.Len(t, sym["children"], 2)

	out := decoded["out"].(map[string]any)
	assert.Len(t, out["call"], 1)

	in := decoded["in"].([]any)
	assert.Len(t, in, 1)
}

func TestDependenciesResponse_EmptyIsEmptyArray(t *testing.T) {
	t.Parallel()
	data, truncated, err := DependenciesResponse(nil, nil)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.JSONEq(t, `{"items":[]}`, string(data))
}

func TestStatusResponse_OmitsStalePathsByDefault(t *testing.T) {
	t.Parallel()
	status := &query.RepositoryStatus{FileCount: 10, StaleCount: 2, StalePaths: []string{"a.go", "b.go"}}
	data, _, err := StatusResponse(status, false, nil)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, present := decoded["stale_paths"]
	assert.False(t, present)
	assert.Equal(t, float64(10), decoded["file_count"])

	data, _, err = StatusResponse(status, true, nil)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded["stale_paths"], 2)
}
