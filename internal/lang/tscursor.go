package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseBytes parses src with the given grammar and returns its root node.
// Extraction never propagates parser errors: tree-sitter always returns a
// tree, possibly full of ERROR nodes, which the caller's visitor simply
// does not recognize.
func parseBytes(language *sitter.Language, src []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree.RootNode(), nil
}

// lineRange converts a node's tree-sitter points (0-based) to 1-based
// inclusive start/end lines.
func lineRange(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

// namedChildren returns a node's named children as a slice.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// leadingComments walks backward over a node's immediately preceding
// siblings, collecting contiguous comment nodes of the given type, and
// returns their concatenated, marker-stripped text (in source order,
// earliest line first).
// Only comments attached with no intervening blank line count; since
// smacker/go-tree-sitter does not expose blank-line detection directly, a
// one-line gap tolerance is used: adjacency is judged by end-line of the
// comment being at most one line above the start line of whatever follows.
func leadingComments(n *sitter.Node, src []byte, commentTypes map[string]bool) string {
	var blocks []string
	cur := n.PrevSibling()
	nextStart := int(n.StartPoint().Row)
	for cur != nil && commentTypes[cur.Type()] {
		commentEnd := int(cur.EndPoint().Row)
		if nextStart-commentEnd > 1 {
			break
		}
		blocks = append(blocks, cur.Content(src))
		nextStart = int(cur.StartPoint().Row)
		cur = cur.PrevSibling()
	}
	// Reverse so the earliest comment line comes first.
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	joined := ""
	for i, b := range blocks {
		if i > 0 {
			joined += "\n"
		}
		joined += b
	}
	if joined == "" {
		return ""
	}
	return stripDocMarkers(joined)
}
