package commonjs

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/js_eval"
	"github.com/cjsesm/cjsesm/internal/js_parser"
	"github.com/cjsesm/cjsesm/internal/js_scope"
	"github.com/cjsesm/cjsesm/internal/patcher"
	"github.com/cjsesm/cjsesm/internal/runtime"
)

type dependency struct {
	source string
	name   string

	// False if every call for this source was a bare "require('x');"
	importsDefault bool
}

type usageFlags struct {
	module  bool
	exports bool
	global  bool
}

type classifier struct {
	ast         *js_parser.AST
	options     Options
	scopes      *js_scope.Map
	patch       *patcher.Patcher
	helpersName string
	uses        usageFlags

	required map[string]*dependency

	// Each newly-seen source goes to the front, so this is the reverse of
	// the order in which sources were first seen. The order of the emitted
	// side-effect imports depends on this.
	sources []string
	uid     int

	namedExports      map[string]bool
	namedExportsOrder []string
}

func (c *classifier) addNamedExport(name string) {
	if !c.namedExports[name] {
		c.namedExports[name] = true
		c.namedExportsOrder = append(c.namedExportsOrder, name)
	}
}

// The traversal carries the current scope and the function depth as
// arguments. Nothing needs to be restored on the way back up.
func (c *classifier) visit(node *sitter.Node, scope *js_scope.Scope, depth int) {
	outerScope, outerDepth := scope, depth
	if inner := c.scopes.For(node); inner != nil {
		scope = inner
	}
	if js_parser.IsThisBoundary(node) {
		depth++
	}

	if c.options.SourceMap {
		c.patch.AddLocation(int32(node.StartByte()))
		c.patch.AddLocation(int32(node.EndByte()))
	}

	c.classify(node, scope, depth)

	var skipped *sitter.Node
	switch node.Type() {
	case "if_statement", "ternary_expression":
		skipped = c.deadBranch(node, scope)
	}

	key := js_parser.MemberKey(node)
	for _, child := range js_parser.NamedChildren(node) {
		if skipped != nil && js_parser.SameNode(child, skipped) {
			continue
		}
		if key != nil && js_parser.SameNode(child, key) {
			c.visit(child, outerScope, outerDepth)
			continue
		}
		c.visit(child, scope, depth)
	}
}

// deadBranch returns the branch of an "if" statement or a conditional
// expression that can't run, if the condition can be evaluated statically
func (c *classifier) deadBranch(node *sitter.Node, scope *js_scope.Scope) *sitter.Node {
	eval := js_eval.Evaluator{AST: c.ast, TypeOf: c.typeOf(scope)}
	truthy, ok := eval.Truthiness(node.ChildByFieldName("condition"))
	if !ok {
		return nil
	}
	if truthy {
		return node.ChildByFieldName("alternative")
	}
	return node.ChildByFieldName("consequence")
}

// typeOf knows the types of the free variables that a CommonJS environment
// provides. This is what makes guards like "typeof module !== 'undefined'"
// fold.
func (c *classifier) typeOf(scope *js_scope.Scope) func(id *sitter.Node) (string, bool) {
	return func(id *sitter.Node) (string, bool) {
		name := c.ast.Text(id)
		if scope.Contains(name) {
			return "", false
		}
		switch name {
		case "module", "exports":
			return "object", true
		case "require":
			return "function", true
		case "global":
			if !c.options.IgnoreGlobal {
				return "object", true
			}
		}
		return "", false
	}
}

func (c *classifier) classify(node *sitter.Node, scope *js_scope.Scope, depth int) {
	switch node.Type() {
	case "assignment_expression", "augmented_assignment_expression":
		c.classifyAssignment(node, scope)

	case "unary_expression":
		c.classifyTypeofRequire(node, scope)

	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		c.classifyIdentifier(node, scope)

	case "this":
		if depth == 0 && !c.options.IgnoreGlobal {
			c.uses.global = true
			c.patch.OverwriteWithName(int32(node.StartByte()), int32(node.EndByte()), c.globalAccessor(), "this")
		}

	case "call_expression":
		c.classifyRequireCall(node, scope)
	}
}

var exportsPattern = regexp.MustCompile(`^(?:module\.)?exports(?:\.([a-zA-Z_$][a-zA-Z_$0-9]*))?$`)

func (c *classifier) classifyAssignment(node *sitter.Node, scope *js_scope.Scope) {
	base, keyPath, ok := c.flatten(node.ChildByFieldName("left"))
	if !ok || scope.Contains(base) {
		return
	}

	match := exportsPattern.FindStringSubmatch(keyPath)
	if match == nil || keyPath == "exports" {
		return
	}

	if keyPath == "module.exports" {
		if right := node.ChildByFieldName("right"); right != nil && right.Type() == "object" {
			for _, name := range c.objectKeys(right) {
				if name == helpers.MakeLegalIdentifier(name) {
					c.addNamedExport(name)
				}
			}
			return
		}
	}

	if match[1] != "" {
		c.addNamedExport(match[1])
	}
}

// flatten turns "a.b.c" into the base name "a" and the key path "a.b.c".
// Computed member accesses can't be flattened.
func (c *classifier) flatten(node *sitter.Node) (base string, keyPath string, ok bool) {
	if node == nil || node.Type() != "member_expression" {
		return "", "", false
	}

	var parts []string
	for node.Type() == "member_expression" {
		property := node.ChildByFieldName("property")
		if property == nil || property.Type() != "property_identifier" {
			return "", "", false
		}
		parts = append(parts, c.ast.Text(property))
		node = node.ChildByFieldName("object")
		if node == nil {
			return "", "", false
		}
	}
	if node.Type() != "identifier" {
		return "", "", false
	}

	base = c.ast.Text(node)
	parts = append(parts, base)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return base, strings.Join(parts, "."), true
}

// objectKeys returns the non-computed identifier keys of an object literal
func (c *classifier) objectKeys(object *sitter.Node) []string {
	var keys []string
	for _, prop := range js_parser.NamedChildren(object) {
		var key *sitter.Node
		switch prop.Type() {
		case "pair":
			key = prop.ChildByFieldName("key")
		case "method_definition":
			key = prop.ChildByFieldName("name")
		case "shorthand_property_identifier":
			key = prop
		}
		if key != nil && (key.Type() == "property_identifier" || key.Type() == "shorthand_property_identifier") {
			keys = append(keys, c.ast.Text(key))
		}
	}
	return keys
}

// UMD wrappers check "typeof require" to decide whether they're running
// under CommonJS. They are, now.
func (c *classifier) classifyTypeofRequire(node *sitter.Node, scope *js_scope.Scope) {
	if c.ast.Operator(node) != "typeof" {
		return
	}
	arg := node.ChildByFieldName("argument")
	if arg == nil || arg.Type() != "identifier" || c.ast.Text(arg) != "require" || scope.Contains("require") {
		return
	}
	c.patch.Overwrite(int32(node.StartByte()), int32(node.EndByte()), "'function'")
}

func (c *classifier) classifyIdentifier(node *sitter.Node, scope *js_scope.Scope) {
	name := c.ast.Text(node)
	switch name {
	case "module", "exports", "global":
	default:
		return
	}
	if !c.isReference(node) || scope.Contains(name) {
		return
	}

	switch name {
	case "module":
		c.uses.module = true

	case "exports":
		c.uses.exports = true

	case "global":
		c.uses.global = true
		if !c.options.IgnoreGlobal {
			replacement := c.globalAccessor()
			if node.Type() != "identifier" {
				replacement = "global: " + replacement
			}
			c.patch.OverwriteWithName(int32(node.StartByte()), int32(node.EndByte()), replacement, "global")
		}
	}
}

// Property names and method names are already "property_identifier" nodes
// in this grammar. What's left are the names on the far side of an alias.
func (c *classifier) isReference(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return true
	}

	switch parent.Type() {
	case "export_specifier":
		// "export { foo as module }"
		if alias := parent.ChildByFieldName("alias"); alias != nil && js_parser.SameNode(alias, node) {
			return false
		}

	case "import_specifier":
		// "import { module as foo } from 'x'"
		if alias := parent.ChildByFieldName("alias"); alias != nil && !js_parser.SameNode(alias, node) {
			return false
		}
	}

	return true
}

func (c *classifier) globalAccessor() string {
	return c.helpersName + "." + runtime.GlobalName
}

func (c *classifier) classifyRequireCall(node *sitter.Node, scope *js_scope.Scope) {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" || c.ast.Text(callee) != "require" || scope.Contains("require") {
		return
	}

	args := node.ChildByFieldName("arguments")
	if args == nil || args.Type() != "arguments" {
		return
	}
	argList := js_parser.NamedChildren(args)
	if len(argList) != 1 {
		return
	}
	source, ok := c.ast.StringValue(argList[0])
	if !ok {
		return
	}

	dep := c.required[source]
	if dep == nil {
		dep = &dependency{source: source, name: c.nextDependencyName()}
		c.required[source] = dep
		c.sources = append([]string{source}, c.sources...)
	}

	parent := js_parser.ParentSkippingParens(node)
	if parent != nil && parent.Type() == "expression_statement" {
		// A bare "require('x');" becomes a side-effect import
		if grand := parent.Parent(); grand != nil && !js_parser.IsStatementList(grand) {
			c.patch.Overwrite(int32(parent.StartByte()), int32(parent.EndByte()), ";")
		} else {
			c.patch.Remove(int32(parent.StartByte()), int32(parent.EndByte()))
		}
		return
	}

	dep.importsDefault = true
	c.patch.Overwrite(int32(node.StartByte()), int32(node.EndByte()), dep.name)
}

func (c *classifier) nextDependencyName() string {
	for {
		name := "require$$" + strconv.Itoa(c.uid)
		c.uid++
		if !strings.Contains(c.ast.Source.Contents, name) {
			return name
		}
	}
}
