package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// IndentExtractor handles the indentation-based scripting family: Python.
type IndentExtractor struct{}

func NewIndentExtractor() *IndentExtractor { return &IndentExtractor{} }

func (e *IndentExtractor) Extensions() []string { return []string{".py", ".pyi"} }

var pyCommentTypes = map[string]bool{"comment": true}

func (e *IndentExtractor) Extract(fileBytes []byte, relPath string) (string, []*Symbol, error) {
	root, err := parseBytes(python.GetLanguage(), fileBytes)
	if err != nil {
		return "python", nil, nil
	}
	var forest []*Symbol
	for _, child := range namedChildren(root) {
		if sym := e.visitStatement(child, fileBytes); sym != nil {
			forest = append(forest, sym)
		}
	}
	return "python", forest, nil
}

func (e *IndentExtractor) visitStatement(n *sitter.Node, src []byte) *Symbol {
	var decorators []string
	target := n
	if n.Type() == "decorated_definition" {
		for _, c := range namedChildren(n) {
			if c.Type() == "decorator" {
				expr := c.NamedChild(0)
				if expr != nil {
					decorators = append(decorators, firstIdentifier(expr, src))
				}
			}
		}
		if def := n.ChildByFieldName("definition"); def != nil {
			target = def
		}
	}

	switch target.Type() {
	case "function_definition":
		return e.buildFunction(n, target, src, decorators, KindFunction)
	case "class_definition":
		return e.buildClass(n, target, src, decorators)
	default:
		return nil
	}
}

func (e *IndentExtractor) buildFunction(outer, n *sitter.Node, src []byte, decorators []string, kind string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(outer)
	sym := &Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  e.signature(n, src, name),
		DocComment: e.docComment(outer, n, src),
		StartLine:  start,
		EndLine:    end,
	}
	e.attachDecorators(sym, decorators)
	if body := n.ChildByFieldName("body"); body != nil {
		e.collectBody(body, src, sym)
	}
	return sym
}

func (e *IndentExtractor) signature(n *sitter.Node, src []byte, name string) string {
	params := n.ChildByFieldName("parameters")
	ret := n.ChildByFieldName("return_type")
	sig := name
	if params != nil {
		sig += params.Content(src)
	} else {
		sig += "()"
	}
	if ret != nil {
		sig += " -> " + ret.Content(src)
	}
	return normalizeSignature(sig)
}

func (e *IndentExtractor) buildClass(outer, n *sitter.Node, src []byte, decorators []string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(outer)
	sym := &Symbol{
		Name:       name,
		Kind:       KindClass,
		DocComment: e.docComment(outer, n, src),
		StartLine:  start,
		EndLine:    end,
	}
	e.attachDecorators(sym, decorators)

	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		for _, base := range namedChildren(bases) {
			baseName := firstIdentifier(base, src)
			if baseName == "" {
				continue
			}
			line, _ := lineRange(base)
			sym.References = append(sym.References, Reference{Name: baseName, Kind: RefExtends, Line: line})
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			if child := e.visitStatement(member, src); child != nil {
				if child.Kind == KindFunction {
					child.Kind = KindMethod
				}
				sym.Children = append(sym.Children, child)
			}
		}
	}
	return sym
}

func (e *IndentExtractor) attachDecorators(sym *Symbol, decorators []string) {
	for _, d := range decorators {
		if d == "" {
			continue
		}
		sym.References = append(sym.References, Reference{Name: d, Kind: RefTypeReference, Line: sym.StartLine})
	}
}

// docComment prefers a leading "#" comment block; falls back to a docstring
// (a bare string literal as the body's first statement), per convention.
func (e *IndentExtractor) docComment(outer, n *sitter.Node, src []byte) string {
	if c := leadingComments(outer, src, pyCommentTypes); c != "" {
		return c
	}
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return stripDocMarkers(str.Content(src))
}

func (e *IndentExtractor) collectBody(body *sitter.Node, src []byte, sym *Symbol) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "call":
				fn := c.ChildByFieldName("function")
				if fn != nil {
					name := firstIdentifier(fn, src)
					if name == "" {
						name = fn.Content(src)
					}
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: RefCall, Line: line})
				}
			case "import_statement", "import_from_statement":
				for _, nameNode := range namedChildren(c) {
					switch nameNode.Type() {
					case "dotted_name", "identifier":
						line, _ := lineRange(c)
						sym.References = append(sym.References, Reference{Name: strings.TrimSpace(nameNode.Content(src)), Kind: RefImport, Line: line})
					case "aliased_import":
						if orig := nameNode.ChildByFieldName("name"); orig != nil {
							line, _ := lineRange(c)
							sym.References = append(sym.References, Reference{Name: orig.Content(src), Kind: RefImport, Line: line})
						}
					}
				}
			case "function_definition", "class_definition", "decorated_definition":
				continue // not inlined; class-body definitions are extracted as child symbols, function-body ones are not extracted
			case "typed_parameter", "type":
				if name := firstIdentifier(c, src); name != "" {
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: RefTypeReference, Line: line})
				}
			}
			walk(c)
		}
	}
	walk(body)
}
