package format

import (
	"encoding/json"
	"sort"
)

// ApplyBudget serializes v and, if maxTokens is set and the result exceeds
// maxTokens*4 bytes (the documented token-to-byte approximation), drops
// tail entries from the largest array field found anywhere in the
// serialized structure until it fits or the array is exhausted. Truncation
// is stable: it always removes from the end of whichever array is
// currently largest, so a given input truncates the same way every time.
func ApplyBudget(v any, maxTokens *int) (data []byte, truncated bool, err error) {
	data, err = json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	if maxTokens == nil {
		return data, false, nil
	}
	budget := *maxTokens * 4
	if len(data) <= budget {
		return data, false, nil
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, false, err
	}

	for {
		data, err = json.Marshal(generic)
		if err != nil {
			return nil, false, err
		}
		if len(data) <= budget {
			break
		}
		if !dropLargestArrayTail(generic) {
			break // nothing left to drop; return the best-effort (still oversized) payload
		}
		truncated = true
		// Set the flag before the next measurement so the size check
		// covers the payload that is actually returned.
		if m, ok := generic.(map[string]any); ok {
			m["truncated"] = true
		}
	}
	return data, truncated, nil
}

// dropLargestArrayTail finds the largest []any reachable from v (searching
// map values and array elements that are themselves maps) and removes its
// last element in place. Returns false if no non-empty array was found.
func dropLargestArrayTail(v any) bool {
	parent, key, size := findLargestArray(v, nil, "", 0)
	if parent == nil || size == 0 {
		return false
	}
	arr := parent[key].([]any)
	parent[key] = arr[:len(arr)-1]
	return true
}

func findLargestArray(v any, bestParent map[string]any, bestKey string, bestSize int) (map[string]any, string, int) {
	m, ok := v.(map[string]any)
	if !ok {
		return bestParent, bestKey, bestSize
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := m[k]
		switch t := val.(type) {
		case []any:
			if len(t) > bestSize {
				bestParent, bestKey, bestSize = m, k, len(t)
			}
			for _, elem := range t {
				bestParent, bestKey, bestSize = findLargestArray(elem, bestParent, bestKey, bestSize)
			}
		case map[string]any:
			bestParent, bestKey, bestSize = findLargestArray(t, bestParent, bestKey, bestSize)
		}
	}
	return bestParent, bestKey, bestSize
}
