package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// SystemsExtractor handles the systems-ownership language family: Rust.
type SystemsExtractor struct{}

func NewSystemsExtractor() *SystemsExtractor { return &SystemsExtractor{} }

func (e *SystemsExtractor) Extensions() []string { return []string{".rs"} }

var rsCommentTypes = map[string]bool{"line_comment": true, "block_comment": true}

func (e *SystemsExtractor) Extract(fileBytes []byte, relPath string) (string, []*Symbol, error) {
	root, err := parseBytes(rust.GetLanguage(), fileBytes)
	if err != nil {
		return "rust", nil, nil
	}
	var forest []*Symbol
	for _, child := range namedChildren(root) {
		if sym := e.visitItem(child, fileBytes); sym != nil {
			forest = append(forest, sym)
		}
	}
	return "rust", forest, nil
}

func (e *SystemsExtractor) visitItem(n *sitter.Node, src []byte) *Symbol {
	switch n.Type() {
	case "function_item":
		return e.buildFunction(n, src, KindFunction)
	case "struct_item":
		return e.buildFieldish(n, src, KindStruct, "field_declaration_list")
	case "enum_item":
		return e.buildFieldish(n, src, KindEnum, "enum_variant_list")
	case "trait_item":
		return e.buildContainer(n, src, KindTrait, "declaration_list")
	case "mod_item":
		return e.buildModule(n, src)
	case "impl_item":
		return e.buildImpl(n, src)
	case "type_item":
		return e.buildSimple(n, src, KindTypeAlias)
	case "const_item", "static_item":
		return e.buildSimple(n, src, KindConstant)
	default:
		return nil
	}
}

func (e *SystemsExtractor) buildFunction(n *sitter.Node, src []byte, kind string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  e.signature(n, src, name),
		DocComment: leadingComments(n, src, rsCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	if body := n.ChildByFieldName("body"); body != nil {
		e.collectRefs(body, src, sym)
	}
	return sym
}

func (e *SystemsExtractor) signature(n *sitter.Node, src []byte, name string) string {
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

func (e *SystemsExtractor) buildSimple(n *sitter.Node, src []byte, kind string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	return &Symbol{
		Name:       name,
		Kind:       kind,
		DocComment: leadingComments(n, src, rsCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
}

// buildFieldish handles struct/enum declarations: a name plus a body whose
// named children become variable (struct field) or constant (enum variant)
// children depending on listType.
func (e *SystemsExtractor) buildFieldish(n *sitter.Node, src []byte, kind, listType string) *Symbol {
	sym := e.buildSimple(n, src, kind)
	if sym == nil {
		return nil
	}
	body := n.ChildByFieldName("body")
	if body == nil || body.Type() != listType {
		return sym
	}
	memberKind := KindVariable
	if listType == "enum_variant_list" {
		memberKind = KindConstant
	}
	for _, member := range namedChildren(body) {
		mName := identText(member.ChildByFieldName("name"), src)
		if mName == "" {
			continue
		}
		mStart, mEnd := lineRange(member)
		sym.Children = append(sym.Children, &Symbol{
			Name:      mName,
			Kind:      memberKind,
			StartLine: mStart,
			EndLine:   mEnd,
		})
	}
	return sym
}

// buildContainer handles trait declarations: a name plus a declaration_list
// body whose function_item children become method children.
func (e *SystemsExtractor) buildContainer(n *sitter.Node, src []byte, kind, listType string) *Symbol {
	sym := e.buildSimple(n, src, kind)
	if sym == nil {
		return nil
	}
	body := n.ChildByFieldName("body")
	if body == nil || body.Type() != listType {
		return sym
	}
	for _, member := range namedChildren(body) {
		if member.Type() != "function_item" {
			continue
		}
		if method := e.buildFunction(member, src, KindMethod); method != nil {
			sym.Children = append(sym.Children, method)
		}
	}
	return sym
}

func (e *SystemsExtractor) buildModule(n *sitter.Node, src []byte) *Symbol {
	sym := e.buildSimple(n, src, KindModule)
	if sym == nil {
		return nil
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for _, member := range namedChildren(body) {
		if child := e.visitItem(member, src); child != nil {
			sym.Children = append(sym.Children, child)
		}
	}
	return sym
}

// buildImpl handles `impl Type { ... }` and `impl Trait for Type { ... }`
// blocks: the block itself becomes an implementation-block symbol named
// after the implementing type, parenting its methods, with an "implements"
// reference to the trait when present.
func (e *SystemsExtractor) buildImpl(n *sitter.Node, src []byte) *Symbol {
	typeNode := n.ChildByFieldName("type")
	name := firstIdentifier(typeNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       name,
		Kind:       KindImplementationBlock,
		DocComment: leadingComments(n, src, rsCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	if traitNode := n.ChildByFieldName("trait"); traitNode != nil {
		traitName := firstIdentifier(traitNode, src)
		if traitName != "" {
			sym.References = append(sym.References, Reference{Name: traitName, Kind: RefImplements, Line: start})
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			if member.Type() != "function_item" {
				continue
			}
			if method := e.buildFunction(member, src, KindMethod); method != nil {
				sym.Children = append(sym.Children, method)
			}
		}
	}
	return sym
}

func (e *SystemsExtractor) collectRefs(body *sitter.Node, src []byte, sym *Symbol) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "call_expression":
				fn := c.ChildByFieldName("function")
				if fn != nil {
					name := firstIdentifier(fn, src)
					if name == "" {
						name = fn.Content(src)
					}
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: RefCall, Line: line})
				}
			case "use_declaration":
				if arg := c.NamedChild(0); arg != nil {
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: lastSegment(arg.Content(src)), Kind: RefImport, Line: line})
				}
			case "type_identifier":
				line, _ := lineRange(c)
				sym.References = append(sym.References, Reference{Name: c.Content(src), Kind: RefTypeReference, Line: line})
			}
			walk(c)
		}
	}
	walk(body)
}

func lastSegment(path string) string {
	segment := path
	for i := len(path) - 1; i >= 1; i-- {
		if path[i] == ':' && path[i-1] == ':' {
			segment = path[i+1:]
			break
		}
	}
	return segment
}
