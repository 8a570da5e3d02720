package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
)

// DynamicExtractor handles the dynamic object language family: Ruby.
type DynamicExtractor struct{}

func NewDynamicExtractor() *DynamicExtractor { return &DynamicExtractor{} }

func (e *DynamicExtractor) Extensions() []string { return []string{".rb"} }

var rbCommentTypes = map[string]bool{"comment": true}

func (e *DynamicExtractor) Extract(fileBytes []byte, relPath string) (string, []*Symbol, error) {
	root, err := parseBytes(ruby.GetLanguage(), fileBytes)
	if err != nil {
		return "ruby", nil, nil
	}
	var forest []*Symbol
	for _, child := range namedChildren(root) {
		if sym := e.visitStatement(child, fileBytes); sym != nil {
			forest = append(forest, sym)
		}
	}
	return "ruby", forest, nil
}

func (e *DynamicExtractor) visitStatement(n *sitter.Node, src []byte) *Symbol {
	switch n.Type() {
	case "class":
		return e.buildClass(n, src)
	case "module":
		return e.buildModule(n, src)
	case "method":
		return e.buildMethod(n, src, KindMethod)
	case "singleton_method":
		return e.buildSingletonMethod(n, src)
	case "assignment":
		return e.buildConstant(n, src)
	default:
		return nil
	}
}

func (e *DynamicExtractor) buildClass(n *sitter.Node, src []byte) *Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = findChildByType(n, "constant")
	}
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       name,
		Kind:       KindClass,
		DocComment: leadingComments(n, src, rbCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}

	if super := n.ChildByFieldName("superclass"); super != nil {
		if superName := firstIdentifier(super, src); superName != "" {
			sym.References = append(sym.References, Reference{Name: superName, Kind: RefExtends, Line: start})
		}
	}

	e.collectBodyMembers(n, src, sym)
	return sym
}

func (e *DynamicExtractor) buildModule(n *sitter.Node, src []byte) *Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = findChildByType(n, "constant")
	}
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       name,
		Kind:       KindModule,
		DocComment: leadingComments(n, src, rbCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	e.collectBodyMembers(n, src, sym)
	return sym
}

func (e *DynamicExtractor) collectBodyMembers(n *sitter.Node, src []byte, sym *Symbol) {
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "method":
			if child := e.buildMethod(member, src, KindMethod); child != nil {
				sym.Children = append(sym.Children, child)
			}
		case "singleton_method":
			if child := e.buildSingletonMethod(member, src); child != nil {
				sym.Children = append(sym.Children, child)
			}
		case "class":
			if child := e.buildClass(member, src); child != nil {
				sym.Children = append(sym.Children, child)
			}
		case "module":
			if child := e.buildModule(member, src); child != nil {
				sym.Children = append(sym.Children, child)
			}
		case "assignment":
			if child := e.buildConstant(member, src); child != nil {
				sym.Children = append(sym.Children, child)
			}
		case "call":
			e.collectIncludeLike(member, src, sym)
		}
	}
}

func (e *DynamicExtractor) buildMethod(n *sitter.Node, src []byte, kind string) *Symbol {
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
		DocComment: leadingComments(n, src, rbCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	e.collectRefs(n, src, sym)
	return sym
}

func (e *DynamicExtractor) buildSingletonMethod(n *sitter.Node, src []byte) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       "self." + name,
		Kind:       KindMethod,
		Signature:  e.signature(n, src, "self."+name),
		DocComment: leadingComments(n, src, rbCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	e.collectRefs(n, src, sym)
	return sym
}

func (e *DynamicExtractor) signature(n *sitter.Node, src []byte, name string) string {
	params := n.ChildByFieldName("parameters")
	sig := name
	if params != nil {
		sig += params.Content(src)
	} else {
		sig += "()"
	}
	return normalizeSignature(sig)
}

// buildConstant recognizes `CONST = value` assignments at class/module scope
// as constant symbols; anything else is ignored.
func (e *DynamicExtractor) buildConstant(n *sitter.Node, src []byte) *Symbol {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != "constant" {
		return nil
	}
	name := identText(left, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	return &Symbol{
		Name:      name,
		Kind:      KindConstant,
		StartLine: start,
		EndLine:   end,
	}
}

// collectIncludeLike recognizes `include Foo`, `extend Foo`, `require "foo"`
// and `require_relative "foo"` calls as import references on the enclosing
// symbol.
func (e *DynamicExtractor) collectIncludeLike(n *sitter.Node, src []byte, sym *Symbol) {
	method := n.ChildByFieldName("method")
	if method == nil {
		return
	}
	name := identText(method, src)
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	arg := args.NamedChild(0)
	line, _ := lineRange(n)
	switch name {
	case "include", "extend", "prepend":
		if target := firstIdentifier(arg, src); target != "" {
			sym.References = append(sym.References, Reference{Name: target, Kind: RefImport, Line: line})
		}
	case "require", "require_relative":
		if arg.Type() == "string" {
			text := arg.Content(src)
			text = trimQuotes(text)
			sym.References = append(sym.References, Reference{Name: text, Kind: RefImport, Line: line})
		}
	}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func (e *DynamicExtractor) collectRefs(body *sitter.Node, src []byte, sym *Symbol) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for _, c := range namedChildren(n) {
			if c.Type() == "call" {
				method := c.ChildByFieldName("method")
				if method != nil {
					name := identText(method, src)
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: RefCall, Line: line})
				}
			}
			walk(c)
		}
	}
	walk(body)
}
