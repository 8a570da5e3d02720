package format

import (
	"github.com/jward/codeindex/internal/query"
	"github.com/jward/codeindex/internal/store"
)

// FileSymbolsResponse renders the File symbols operation's result.
func FileSymbolsResponse(symbols []*store.Symbol, cfg Config, maxTokens *int) ([]byte, bool, error) {
	records := make([]Record, len(symbols))
	for i, s := range symbols {
		records[i] = FromSymbol(s, cfg, true)
	}
	return ApplyBudget(BuildEnvelope(records), maxTokens)
}

// SearchResponse renders the Search operation's result, ordered as given
// (already BM25-ranked by the store layer).
func SearchResponse(hits []store.SearchHit, cfg Config, maxTokens *int) ([]byte, bool, error) {
	records := make([]Record, len(hits))
	for i, h := range hits {
		records[i] = FromSymbol(h.Symbol, cfg, true)
	}
	return ApplyBudget(BuildEnvelope(records), maxTokens)
}

// refRecord is the compact shape for one reference edge.
type refRecord struct {
	Kind     string `json:"k"`
	Name     string `json:"n,omitempty"`
	ID       *int64 `json:"id,omitempty"`
	Line     int    `json:"l,omitempty"`
	File     string `json:"f,omitempty"`
	FromID   int64  `json:"from_id,omitempty"`
	FromName string `json:"from_n,omitempty"`
}

// DependenciesResponse renders the Dependencies operation's result.
func DependenciesResponse(refs []*store.Reference, maxTokens *int) ([]byte, bool, error) {
	items := make([]refRecord, len(refs))
	for i, r := range refs {
		items[i] = refRecord{Kind: r.Kind, Name: r.ToName, ID: r.ToSymbolID, Line: r.Line}
	}
	env := map[string]any{"items": items}
	return ApplyBudget(env, maxTokens)
}

// ReferencesToResponse renders the References-to operation's result.
func ReferencesToResponse(refs []query.ReferenceWithCaller, maxTokens *int) ([]byte, bool, error) {
	items := make([]refRecord, len(refs))
	for i, r := range refs {
		items[i] = refRecord{
			Kind:     r.Reference.Kind,
			Line:     r.Reference.Line,
			File:     r.Caller.RelPath,
			FromID:   r.Caller.ID,
			FromName: r.Caller.Name,
		}
	}
	env := map[string]any{"items": items}
	return ApplyBudget(env, maxTokens)
}

// SymbolDetailResponse renders the Symbol detail operation's result.
func SymbolDetailResponse(detail *query.SymbolDetail, cfg Config, maxTokens *int) ([]byte, bool, error) {
	rec := FromSymbol(detail.Symbol, cfg, false)
	rec.Children = detail.ChildIDs

	outgoing := make(map[string][]refRecord, len(detail.Outgoing))
	for kind, refs := range detail.Outgoing {
		rs := make([]refRecord, len(refs))
		for i, r := range refs {
			rs[i] = refRecord{Kind: r.Kind, Name: r.ToName, ID: r.ToSymbolID, Line: r.Line}
		}
		outgoing[kind] = rs
	}
	incoming := make([]refRecord, len(detail.Incoming))
	for i, r := range detail.Incoming {
		incoming[i] = refRecord{
			Kind:     r.Reference.Kind,
			Line:     r.Reference.Line,
			File:     r.Caller.RelPath,
			FromID:   r.Caller.ID,
			FromName: r.Caller.Name,
		}
	}

	env := map[string]any{
		"symbol":   rec,
		"out":      outgoing,
		"in":       incoming,
	}
	return ApplyBudget(env, maxTokens)
}

// OverviewResponse renders the Overview operation's result.
func OverviewResponse(ov *query.Overview, cfg Config, maxTokens *int) ([]byte, bool, error) {
	largest := make([]Record, len(ov.LargestTypes))
	for i, s := range ov.LargestTypes {
		largest[i] = FromSymbol(s, cfg, true)
	}
	env := map[string]any{
		"languages": ov.Languages,
		"modules":   ov.Modules,
		"largest":   largest,
	}
	return ApplyBudget(env, maxTokens)
}

// StatusResponse renders the Repository status operation's result.
func StatusResponse(st *query.RepositoryStatus, includeStalePaths bool, maxTokens *int) ([]byte, bool, error) {
	env := map[string]any{
		"file_count":  st.FileCount,
		"stale_count": st.StaleCount,
	}
	if st.LastIndexedAt != nil {
		env["last_indexed_at"] = st.LastIndexedAt
	}
	if includeStalePaths {
		env["stale_paths"] = st.StalePaths
	}
	return ApplyBudget(env, maxTokens)
}
