package js_parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/logger"
)

func (ast *AST) Text(node *sitter.Node) string {
	return string(ast.contents[node.StartByte():node.EndByte()])
}

func (ast *AST) RangeOf(node *sitter.Node) logger.Range {
	start := int32(node.StartByte())
	return logger.Range{Loc: logger.Loc{Start: start}, Len: int32(node.EndByte()) - start}
}

// StringValue decodes a string literal node. Template literals are not
// string literals here, even ones without substitutions.
func (ast *AST) StringValue(node *sitter.Node) (string, bool) {
	if node == nil || node.Type() != "string" {
		return "", false
	}
	return helpers.UnquoteJS(ast.Text(node))
}

// SameNode reports whether two handles refer to the same syntax node. Node
// handles are values, so identity is the byte range plus the node type.
func SameNode(a *sitter.Node, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// NamedChildren returns the named children of a node without comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	count := int(node.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.NamedChild(i); child.Type() != "comment" {
			children = append(children, child)
		}
	}
	return children
}

// Unparen looks through any number of parentheses around an expression.
func Unparen(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		children := NamedChildren(node)
		if len(children) != 1 {
			break
		}
		node = children[0]
	}
	return node
}

// ParentSkippingParens returns the closest ancestor that is not a
// parenthesized expression.
func ParentSkippingParens(node *sitter.Node) *sitter.Node {
	parent := node.Parent()
	for parent != nil && parent.Type() == "parenthesized_expression" {
		parent = parent.Parent()
	}
	return parent
}

func IsFunction(node *sitter.Node) bool {
	switch node.Type() {
	case "function_declaration", "function", "function_expression",
		"generator_function_declaration", "generator_function", "generator_function_expression",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

// IsThisBoundary reports whether "this" means something other than the
// enclosing "this" inside the node. Arrow functions don't rebind "this" but
// class fields and static blocks do.
func IsThisBoundary(node *sitter.Node) bool {
	switch node.Type() {
	case "arrow_function":
		return false
	case "field_definition", "public_field_definition", "class_static_block":
		return true
	}
	return IsFunction(node)
}

// MemberKey returns the key of a method or class field. A computed key runs
// outside the member, so it sees the enclosing "this" and bindings.
func MemberKey(node *sitter.Node) *sitter.Node {
	switch node.Type() {
	case "method_definition":
		return node.ChildByFieldName("name")
	case "field_definition", "public_field_definition":
		return node.ChildByFieldName("property")
	}
	return nil
}

// IsStatementList reports whether a statement may be deleted from the node
// without changing how the surrounding code parses.
func IsStatementList(node *sitter.Node) bool {
	switch node.Type() {
	case "program", "statement_block", "switch_case", "switch_default", "class_static_block":
		return true
	}
	return false
}

// Operator returns the text of the "operator" field of a unary, binary or
// assignment expression.
func (ast *AST) Operator(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return ast.Text(op)
	}
	return ""
}
