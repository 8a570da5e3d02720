package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// CurlyBraceExtractor handles the curly-brace scripting family: TypeScript,
// TSX, and plain JavaScript/JSX. TypeScript's grammar is a superset of
// JavaScript's declaration shapes, so a single implementation covers both;
// the language tag returned distinguishes them.
type CurlyBraceExtractor struct{}

func NewCurlyBraceExtractor() *CurlyBraceExtractor { return &CurlyBraceExtractor{} }

func (e *CurlyBraceExtractor) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

var curlyCommentTypes = map[string]bool{"comment": true}

func (e *CurlyBraceExtractor) Extract(fileBytes []byte, relPath string) (string, []*Symbol, error) {
	language := "javascript"
	grammar := javascript.GetLanguage()
	if strings.HasSuffix(relPath, ".ts") || strings.HasSuffix(relPath, ".tsx") {
		language = "typescript"
		grammar = ts.GetLanguage()
	}

	root, err := parseBytes(grammar, fileBytes)
	if err != nil {
		return language, nil, nil
	}

	var forest []*Symbol
	for _, child := range namedChildren(root) {
		if sym := e.visitStatement(child, fileBytes); sym != nil {
			forest = append(forest, sym)
		}
	}
	return language, forest, nil
}

func (e *CurlyBraceExtractor) visitStatement(n *sitter.Node, src []byte) *Symbol {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		return e.buildFunction(n, src, KindFunction)
	case "class_declaration":
		return e.buildClass(n, src)
	case "interface_declaration":
		return e.buildInterface(n, src)
	case "enum_declaration":
		return e.buildSimple(n, src, KindEnum)
	case "type_alias_declaration":
		return e.buildSimple(n, src, KindTypeAlias)
	case "lexical_declaration", "variable_declaration":
		return e.buildDeclaration(n, src)
	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			return e.visitStatement(decl, src)
		}
		return nil
	default:
		return nil
	}
}

func identText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func (e *CurlyBraceExtractor) buildFunction(n *sitter.Node, src []byte, kind string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sig := signatureFromFunctionNode(n, src, name)
	sym := &Symbol{
		Name:       name,
		Kind:       kind,
		Signature:  sig,
		DocComment: leadingComments(n, src, curlyCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
	e.collectCallsAndTypes(n, src, sym)
	return sym
}

// signatureFromFunctionNode builds a one-line signature from a function-like
// node's parameters and, for TypeScript, return type.
func signatureFromFunctionNode(n *sitter.Node, src []byte, name string) string {
	params := n.ChildByFieldName("parameters")
	ret := n.ChildByFieldName("return_type")
	sig := name
	if params != nil {
		sig += params.Content(src)
	} else {
		sig += "()"
	}
	if ret != nil {
		sig += ret.Content(src)
	}
	return normalizeSignature(sig)
}

func (e *CurlyBraceExtractor) buildClass(n *sitter.Node, src []byte) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	sym := &Symbol{
		Name:       name,
		Kind:       KindClass,
		DocComment: leadingComments(n, src, curlyCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}

	if heritage := findChildByType(n, "class_heritage"); heritage != nil {
		e.collectHeritage(heritage, src, sym)
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for _, member := range namedChildren(body) {
			switch member.Type() {
			case "method_definition":
				mName := identText(member.ChildByFieldName("name"), src)
				if mName == "" {
					continue
				}
				mStart, mEnd := lineRange(member)
				method := &Symbol{
					Name:       mName,
					Kind:       KindMethod,
					Signature:  signatureFromFunctionNode(member, src, mName),
					DocComment: leadingComments(member, src, curlyCommentTypes),
					StartLine:  mStart,
					EndLine:    mEnd,
				}
				e.collectCallsAndTypes(member, src, method)
				sym.Children = append(sym.Children, method)
			case "field_definition", "public_field_definition":
				fName := identText(member.ChildByFieldName("name"), src)
				if fName == "" {
					continue
				}
				fStart, fEnd := lineRange(member)
				sym.Children = append(sym.Children, &Symbol{
					Name:      fName,
					Kind:      KindVariable,
					StartLine: fStart,
					EndLine:   fEnd,
				})
			}
		}
	}
	e.collectCallsAndTypes(n, src, sym)
	return sym
}

func (e *CurlyBraceExtractor) buildInterface(n *sitter.Node, src []byte) *Symbol {
	sym := e.buildSimple(n, src, KindInterface)
	if sym == nil {
		return nil
	}
	for _, c := range namedChildren(n) {
		if c.Type() == "extends_type_clause" || c.Type() == "extends_clause" {
			e.collectHeritage(c, src, sym)
		}
	}
	return sym
}

func (e *CurlyBraceExtractor) buildSimple(n *sitter.Node, src []byte, kind string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	name := identText(nameNode, src)
	if name == "" {
		return nil
	}
	start, end := lineRange(n)
	return &Symbol{
		Name:       name,
		Kind:       kind,
		DocComment: leadingComments(n, src, curlyCommentTypes),
		StartLine:  start,
		EndLine:    end,
	}
}

// buildDeclaration handles `const`/`let`/`var` declarations, producing a
// function symbol for arrow/function-expression bindings and a variable
// symbol otherwise.
func (e *CurlyBraceExtractor) buildDeclaration(n *sitter.Node, src []byte) *Symbol {
	for _, decl := range namedChildren(n) {
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		name := identText(nameNode, src)
		if name == "" {
			continue
		}
		value := decl.ChildByFieldName("value")
		start, end := lineRange(n)
		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "generator_function") {
			sym := &Symbol{
				Name:       name,
				Kind:       KindFunction,
				Signature:  signatureFromFunctionNode(value, src, name),
				DocComment: leadingComments(n, src, curlyCommentTypes),
				StartLine:  start,
				EndLine:    end,
			}
			e.collectCallsAndTypes(value, src, sym)
			return sym
		}
		return &Symbol{
			Name:       name,
			Kind:       KindVariable,
			DocComment: leadingComments(n, src, curlyCommentTypes),
			StartLine:  start,
			EndLine:    end,
		}
	}
	return nil
}

func (e *CurlyBraceExtractor) collectHeritage(heritage *sitter.Node, src []byte, sym *Symbol) {
	var walk func(n *sitter.Node, kind string)
	walk = func(n *sitter.Node, kind string) {
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "identifier", "type_identifier", "nested_identifier", "generic_type":
				name := firstIdentifier(c, src)
				if name != "" {
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: kind, Line: line})
				}
			default:
				walk(c, kind)
			}
		}
	}
	for _, c := range namedChildren(heritage) {
		switch c.Type() {
		case "extends_clause":
			walk(c, RefExtends)
		case "implements_clause":
			walk(c, RefImplements)
		default:
			walk(c, RefExtends)
		}
	}
}

// firstIdentifier descends into a type expression to find the leading name.
func firstIdentifier(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier", "type_identifier", "constant":
		return n.Content(src)
	case "generic_type":
		if name := n.ChildByFieldName("name"); name != nil {
			return firstIdentifier(name, src)
		}
	case "nested_identifier", "member_expression":
		return n.Content(src)
	}
	if n.NamedChildCount() > 0 {
		return firstIdentifier(n.NamedChild(0), src)
	}
	return ""
}

func findChildByType(n *sitter.Node, typ string) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

// collectCallsAndTypes walks a symbol's subtree looking for call
// expressions, import statements, and type annotations, recording each as
// an out-edge reference. It stops descending into nested declarations that
// will themselves be visited as their own symbols.
func (e *CurlyBraceExtractor) collectCallsAndTypes(n *sitter.Node, src []byte, sym *Symbol) {
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
			case "import_statement":
				src2 := c.ChildByFieldName("source")
				if src2 != nil {
					name := strings.Trim(src2.Content(src), `'"`)
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: name, Kind: RefImport, Line: line})
				}
			case "type_annotation":
				if t := typeAnnotationName(c, src); t != "" {
					line, _ := lineRange(c)
					sym.References = append(sym.References, Reference{Name: t, Kind: RefTypeReference, Line: line})
				}
			case "method_definition":
				continue
			}
			walk(c)
		}
	}
	walk(n)
}

func typeAnnotationName(n *sitter.Node, src []byte) string {
	for _, c := range namedChildren(n) {
		if name := firstIdentifier(c, src); name != "" {
			return name
		}
	}
	return ""
}
