package js_scope

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cjsesm/cjsesm/internal/js_parser"
)

type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope is the set of names bound in one function or block. Scopes are only
// mutated while "Attach" builds them. Afterwards a traversal holds the scope
// for its current position as a plain value and hands the child scope to the
// recursive call when it descends, so there is no shared cursor to restore.
type Scope struct {
	Parent *Scope
	Kind   ScopeKind
	names  map[string]struct{}
}

func newScope(parent *Scope, kind ScopeKind) *Scope {
	return &Scope{Parent: parent, Kind: kind, names: make(map[string]struct{})}
}

// Contains reports whether a name is bound in this scope or any enclosing
// scope. A name is free at a point if this returns false.
func (s *Scope) Contains(name string) bool {
	for scope := s; scope != nil; scope = scope.Parent {
		if _, ok := scope.names[name]; ok {
			return true
		}
	}
	return false
}

// Declares reports whether a name is bound in this exact scope.
func (s *Scope) Declares(name string) bool {
	_, ok := s.names[name]
	return ok
}

// "var" and function declarations skip over block scopes
func (s *Scope) declare(name string, isBlockDeclaration bool) {
	scope := s
	if !isBlockDeclaration {
		for scope.Kind == ScopeBlock && scope.Parent != nil {
			scope = scope.Parent
		}
	}
	scope.names[name] = struct{}{}
}

type nodeKey struct {
	start uint32
	end   uint32
	kind  string
}

func keyOf(node *sitter.Node) nodeKey {
	return nodeKey{start: node.StartByte(), end: node.EndByte(), kind: node.Type()}
}

// Map records the scope introduced by each scope-creating node of one module.
type Map struct {
	Root   *Scope
	scopes map[nodeKey]*Scope
}

// For returns the scope that the node introduces, or nil if entering the node
// doesn't change scope.
func (m *Map) For(node *sitter.Node) *Scope {
	return m.scopes[keyOf(node)]
}

// Attach builds every scope of the module in a single pass. Declarations are
// collected before anything is classified, so a name that is declared later in
// its scope (a hoisted function, a "var" below its first use) still counts as
// bound at earlier uses.
func Attach(ast *js_parser.AST) *Map {
	m := &Map{
		Root:   newScope(nil, ScopeModule),
		scopes: make(map[nodeKey]*Scope),
	}
	b := builder{ast: ast, m: m}
	b.visit(ast.Root, m.Root)
	return m
}

type builder struct {
	ast *js_parser.AST
	m   *Map
}

func (b *builder) visit(node *sitter.Node, scope *Scope) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		b.declareNames(scope, node.ChildByFieldName("name"), false)

	case "class_declaration":
		b.declareNames(scope, node.ChildByFieldName("name"), true)

	case "variable_declaration", "lexical_declaration":
		isBlock := node.Type() == "lexical_declaration"
		for _, child := range js_parser.NamedChildren(node) {
			if child.Type() == "variable_declarator" {
				b.declareNames(scope, child.ChildByFieldName("name"), isBlock)
			}
		}

	case "import_statement":
		b.declareImports(scope, node)
	}

	var inner *Scope
	switch {
	case js_parser.IsFunction(node):
		inner = newScope(scope, ScopeFunction)
		if params := node.ChildByFieldName("parameters"); params != nil {
			for _, param := range js_parser.NamedChildren(params) {
				b.declareNames(inner, param, true)
			}
		}
		if param := node.ChildByFieldName("parameter"); param != nil {
			b.declareNames(inner, param, true)
		}

		// The name of a function expression is only visible inside it
		switch node.Type() {
		case "function", "function_expression", "generator_function", "generator_function_expression":
			b.declareNames(inner, node.ChildByFieldName("name"), true)
		}

	case node.Type() == "class_static_block":
		inner = newScope(scope, ScopeFunction)

	case node.Type() == "statement_block":
		if parent := node.Parent(); parent == nil || (!js_parser.IsFunction(parent) && parent.Type() != "class_static_block") {
			inner = newScope(scope, ScopeBlock)
		}

	case node.Type() == "catch_clause":
		inner = newScope(scope, ScopeBlock)
		b.declareNames(inner, node.ChildByFieldName("parameter"), true)

	case node.Type() == "for_statement", node.Type() == "for_in_statement":
		inner = newScope(scope, ScopeBlock)
		if kind := node.ChildByFieldName("kind"); kind != nil {
			b.declareNames(inner, node.ChildByFieldName("left"), b.ast.Text(kind) != "var")
		}

	case node.Type() == "class":
		if name := node.ChildByFieldName("name"); name != nil {
			inner = newScope(scope, ScopeBlock)
			b.declareNames(inner, name, true)
		}
	}

	if inner != nil {
		b.m.scopes[keyOf(node)] = inner
		scope = inner
	}

	for _, child := range js_parser.NamedChildren(node) {
		b.visit(child, scope)
	}
}

func (b *builder) declareNames(scope *Scope, pattern *sitter.Node, isBlockDeclaration bool) {
	for _, name := range b.bindingNames(pattern, nil) {
		scope.declare(name, isBlockDeclaration)
	}
}

// bindingNames collects the identifiers a binding pattern declares
func (b *builder) bindingNames(pattern *sitter.Node, names []string) []string {
	if pattern == nil {
		return names
	}

	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		names = append(names, b.ast.Text(pattern))

	case "object_pattern", "array_pattern":
		for _, child := range js_parser.NamedChildren(pattern) {
			names = b.bindingNames(child, names)
		}

	case "pair_pattern":
		names = b.bindingNames(pattern.ChildByFieldName("value"), names)

	case "assignment_pattern", "object_assignment_pattern":
		names = b.bindingNames(pattern.ChildByFieldName("left"), names)

	case "rest_pattern":
		for _, child := range js_parser.NamedChildren(pattern) {
			names = b.bindingNames(child, names)
		}
	}

	return names
}

func (b *builder) declareImports(scope *Scope, node *sitter.Node) {
	for _, child := range js_parser.NamedChildren(node) {
		if child.Type() != "import_clause" {
			continue
		}
		for _, clause := range js_parser.NamedChildren(child) {
			switch clause.Type() {
			case "identifier":
				scope.declare(b.ast.Text(clause), true)

			case "namespace_import":
				for _, id := range js_parser.NamedChildren(clause) {
					if id.Type() == "identifier" {
						scope.declare(b.ast.Text(id), true)
					}
				}

			case "named_imports":
				for _, spec := range js_parser.NamedChildren(clause) {
					if spec.Type() != "import_specifier" {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil && local.Type() == "identifier" {
						scope.declare(b.ast.Text(local), true)
					}
				}
			}
		}
	}
}
