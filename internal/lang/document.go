package lang

import "strings"

// DocumentExtractor handles the document-heading family: Markdown. Unlike
// the other variants this one does not use tree-sitter — no Markdown
// grammar is available in the toolchain this package was built against — so
// it scans lines directly. ATX headings ("# Title" through "###### Title")
// become document-section symbols nested by heading level; fenced code
// blocks are skipped so a commented-out heading inside a ```example```
// block is not mistaken for a real one. Setext headings ("Title\n===") are
// not recognized.
type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor { return &DocumentExtractor{} }

func (e *DocumentExtractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (e *DocumentExtractor) Extract(fileBytes []byte, relPath string) (string, []*Symbol, error) {
	lines := strings.Split(string(fileBytes), "\n")

	type frame struct {
		level int
		sym   *Symbol
	}
	var stack []frame
	var forest []*Symbol

	inFence := false
	var fenceMarker string

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		if fence := fenceOpenerOrCloser(trimmed); fence != "" {
			if !inFence {
				inFence = true
				fenceMarker = fence
			} else if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
				fenceMarker = ""
			}
			continue
		}
		if inFence {
			continue
		}

		level, title := parseATXHeading(raw)
		if level == 0 {
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack[len(stack)-1].sym.EndLine = lineNo - 1
			stack = stack[:len(stack)-1]
		}

		sym := &Symbol{
			Name:      title,
			Kind:      KindDocumentSection,
			StartLine: lineNo,
		}

		if len(stack) == 0 {
			forest = append(forest, sym)
		} else {
			parent := stack[len(stack)-1].sym
			parent.Children = append(parent.Children, sym)
		}
		stack = append(stack, frame{level: level, sym: sym})
	}

	for _, f := range stack {
		f.sym.EndLine = len(lines)
	}

	return "markdown", forest, nil
}

func fenceOpenerOrCloser(trimmed string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			return marker
		}
	}
	return ""
}

// parseATXHeading returns the heading level (1-6) and trimmed title text for
// a line of the form "## Title ##", or (0, "") if the line is not an ATX
// heading.
func parseATXHeading(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(trimmed)-len(line) > 3 {
		return 0, ""
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, ""
	}
	title := strings.TrimSpace(rest)
	title = strings.TrimRight(title, "#")
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ""
	}
	return level, title
}
