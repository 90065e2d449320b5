package js_parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/cjsesm/cjsesm/internal/logger"
)

// AST owns the syntax tree of one module for the duration of one transform.
// Offsets in the tree are byte offsets into "Source.Contents": the shebang
// line is blanked out rather than removed so the two always agree.
type AST struct {
	Source logger.Source
	Tree   *sitter.Tree
	Root   *sitter.Node

	contents []byte
}

// Close releases the tree-sitter tree. The AST must not be used afterwards.
func (ast *AST) Close() {
	if ast.Tree != nil {
		ast.Tree.Close()
		ast.Tree = nil
	}
}

type ParseError struct {
	Path  string
	Text  string
	Range logger.Range
	Line  int
	Col   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%d:%d) in %s", e.Text, e.Line, e.Col, e.Path)
}

// Parse parses module code. The grammar accepts both script-level code and
// import/export declarations because converted modules contain both. Errors
// are reported to "log" and also returned as a *ParseError.
func Parse(log logger.Log, source logger.Source) (*AST, error) {
	contents := stripShebang(source.Contents)

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, contents)
	if err != nil {
		return nil, fmt.Errorf("%s in %s", err.Error(), source.KeyPath.Text)
	}

	ast := &AST{
		Source:   source,
		Tree:     tree,
		Root:     tree.RootNode(),
		contents: contents,
	}

	if ast.Root.HasError() {
		bad := firstErrorNode(ast.Root)
		if bad == nil {
			bad = ast.Root
		}
		r := ast.RangeOf(bad)
		var text string
		if bad.IsMissing() {
			text = fmt.Sprintf("Expected %q", bad.Type())
			r.Len = 0
		} else {
			text = fmt.Sprintf("Unexpected %q", firstToken(ast.Text(bad)))
		}
		log.AddRangeError(&source, r, text)
		loc := logger.LocationOrNil(&source, r)
		ast.Close()
		return nil, &ParseError{
			Path:  source.KeyPath.Text,
			Text:  text,
			Range: r,
			Line:  loc.Line,
			Col:   loc.Column,
		}
	}

	return ast, nil
}

// Legacy interpreters tolerate a leading "#" line (usually "#!/usr/bin/env
// node") but the grammar may not, so the line is replaced with spaces.
func stripShebang(text string) []byte {
	contents := []byte(text)
	if start, end, ok := ShebangRange(text); ok {
		for i := start; i < end; i++ {
			contents[i] = ' '
		}
	}
	return contents
}

// ShebangRange returns the byte range of a leading "#" line, not including
// the line terminator.
func ShebangRange(text string) (start int32, end int32, ok bool) {
	i := 0
	for i < len(text) && isWhitespace(text[i]) {
		i++
	}
	if i == len(text) || text[i] != '#' {
		return 0, 0, false
	}
	j := i
	for j < len(text) && text[j] != '\n' && text[j] != '\r' {
		j++
	}
	return int32(i), int32(j), true
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsMissing() || node.Type() == "ERROR" {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if bad := firstErrorNode(node.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func firstToken(text string) string {
	text = strings.TrimSpace(text)
	if end := strings.IndexAny(text, " \t\r\n"); end >= 0 {
		text = text[:end]
	}
	if len(text) > 20 {
		text = text[:20] + "..."
	}
	return text
}
