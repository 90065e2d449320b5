package js_scope

import (
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/js_parser"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/test"
)

// scopeAt returns the innermost scope enclosing the first occurrence of
// "marker", which should be a comment such as "/*here*/"
func scopeAt(t *testing.T, contents string, marker string) *Scope {
	t.Helper()
	ast, err := js_parser.Parse(logger.NewDeferLog(), test.SourceForTest("/src/main.js", contents))
	require.NoError(t, err)
	t.Cleanup(ast.Close)

	offset := uint32(strings.Index(contents, marker))
	m := Attach(ast)
	scope := m.Root
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if inner := m.For(node); inner != nil {
			scope = inner
		}
		for _, child := range js_parser.NamedChildren(node) {
			if child.StartByte() <= offset && offset < child.EndByte() {
				walk(child)
				return
			}
		}
	}
	walk(ast.Root)
	return scope
}

func TestTopLevelIsFree(t *testing.T) {
	scope := scopeAt(t, "module.exports = 1; /*here*/", "module")
	assert.False(t, scope.Contains("module"))
	assert.Equal(t, ScopeModule, scope.Kind)
}

func TestParametersShadow(t *testing.T) {
	scope := scopeAt(t, "function f(module, { exports }, [a, ...rest], b = 1) { /*here*/ }", "/*here*/")
	for _, name := range []string{"module", "exports", "a", "rest", "b", "f"} {
		assert.True(t, scope.Contains(name), name)
	}
	assert.False(t, scope.Contains("require"))
}

func TestVarHoistsOutOfBlocks(t *testing.T) {
	contents := "function f() { /*use*/ if (x) { var require = 1; let exports = 2; } }"
	scope := scopeAt(t, contents, "/*use*/")
	assert.True(t, scope.Contains("require"))
	assert.False(t, scope.Contains("exports"))
}

func TestHoistedFunctionDeclaration(t *testing.T) {
	scope := scopeAt(t, "/*use*/ function require() {}", "/*use*/")
	assert.True(t, scope.Contains("require"))
}

func TestFunctionExpressionNameIsLocal(t *testing.T) {
	contents := "var g = function module() { /*inner*/ }; /*outer*/"
	assert.True(t, scopeAt(t, contents, "/*inner*/").Contains("module"))
	assert.False(t, scopeAt(t, contents, "/*outer*/").Contains("module"))
}

func TestCatchAndForBindings(t *testing.T) {
	contents := "try {} catch (exports) { /*catch*/ }\nfor (let module of xs) { /*for*/ }\n/*after*/"
	assert.True(t, scopeAt(t, contents, "/*catch*/").Contains("exports"))
	assert.True(t, scopeAt(t, contents, "/*for*/").Contains("module"))

	after := scopeAt(t, contents, "/*after*/")
	assert.False(t, after.Contains("exports"))
	assert.False(t, after.Contains("module"))
}

func TestImportBindings(t *testing.T) {
	scope := scopeAt(t, "import a, { b as global, c } from 'x';\nimport * as module from 'y';\n/*here*/", "/*here*/")
	for _, name := range []string{"a", "global", "c", "module"} {
		assert.True(t, scope.Contains(name), name)
	}
	assert.False(t, scope.Contains("b"))
}

func TestArrowExpressionParameter(t *testing.T) {
	scope := scopeAt(t, "var f = exports => exports /*here*/ + 1;", "/*here*/")
	assert.True(t, scope.Contains("exports"))
}

func TestHoistingTargets(t *testing.T) {
	contents := "function f() { if (x) { var require = 1; let exports = 2; /*block*/ } }"
	block := scopeAt(t, contents, "/*block*/")
	require.Equal(t, ScopeBlock, block.Kind)
	assert.True(t, block.Declares("exports"))
	assert.False(t, block.Declares("require"))

	fn := block.Parent
	require.NotNil(t, fn)
	assert.Equal(t, ScopeFunction, fn.Kind)
	assert.True(t, fn.Declares("require"))
	assert.False(t, fn.Declares("exports"))
	assert.False(t, fn.Declares("f"))
	assert.True(t, fn.Parent.Declares("f"))
}
