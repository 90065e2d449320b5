package js_eval

import (
	"math"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/js_parser"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/test"
)

func evaluatorForTest(t *testing.T, expr string) (*Evaluator, *sitter.Node) {
	t.Helper()
	ast, err := js_parser.Parse(logger.NewDeferLog(), test.SourceForTest("/src/main.js", "("+expr+");"))
	require.NoError(t, err)
	t.Cleanup(ast.Close)

	stmt := js_parser.NamedChildren(ast.Root)[0]
	e := &Evaluator{
		AST: ast,
		TypeOf: func(id *sitter.Node) (string, bool) {
			switch ast.Text(id) {
			case "module", "exports":
				return "object", true
			case "require":
				return "function", true
			}
			return "", false
		},
	}
	return e, js_parser.NamedChildren(stmt)[0]
}

func expectTruthiness(t *testing.T, expr string, expected bool) {
	t.Helper()
	e, node := evaluatorForTest(t, expr)
	truthy, ok := e.Truthiness(node)
	require.True(t, ok, "expected %q to be known", expr)
	assert.Equal(t, expected, truthy, expr)
}

func expectUnknown(t *testing.T, expr string) {
	t.Helper()
	e, node := evaluatorForTest(t, expr)
	_, ok := e.Truthiness(node)
	assert.False(t, ok, "expected %q to be unknown", expr)
}

func TestLiterals(t *testing.T) {
	expectTruthiness(t, "''", false)
	expectTruthiness(t, "'a'", true)
	expectTruthiness(t, "0", false)
	expectTruthiness(t, "0x10", true)
	expectTruthiness(t, "0n", false)
	expectTruthiness(t, "1_000", true)
	expectTruthiness(t, "null", false)
	expectTruthiness(t, "true", true)
	expectTruthiness(t, "false", false)
	expectTruthiness(t, "/a/", true)
	expectTruthiness(t, "((1))", true)

	expectUnknown(t, "undefined")
	expectUnknown(t, "`a`")
	expectUnknown(t, "x")
}

func TestEquality(t *testing.T) {
	expectTruthiness(t, "1 == '1'", true)
	expectTruthiness(t, "1 === '1'", false)
	expectTruthiness(t, "'' == 0", true)
	expectTruthiness(t, "' 0x1 ' == 1", true)
	expectTruthiness(t, "true == 1", true)
	expectTruthiness(t, "null == 0", false)
	expectTruthiness(t, "null === null", true)
	expectTruthiness(t, "'a' !== 'b'", true)
	expectTruthiness(t, "1n == 1", true)
	expectTruthiness(t, "1n === 1", false)
	expectTruthiness(t, "/a/ == /a/", false)
	expectTruthiness(t, "'abc' == 'x'", false)
	expectTruthiness(t, "010 === 8", true)

	expectUnknown(t, "1 < 2")
	expectUnknown(t, "x == 1")
}

func TestNegationAndLogical(t *testing.T) {
	expectTruthiness(t, "!0", true)
	expectTruthiness(t, "!'a'", false)
	expectTruthiness(t, "1 && 0", false)
	expectTruthiness(t, "0 || 'a'", true)

	// One unknown side makes the whole expression unknown
	expectUnknown(t, "0 && x")
	expectUnknown(t, "1 || x")
	expectUnknown(t, "!x")
}

func TestTypeOf(t *testing.T) {
	expectTruthiness(t, "typeof module !== 'undefined'", true)
	expectTruthiness(t, "typeof exports === 'object'", true)
	expectTruthiness(t, "typeof require === 'function'", true)
	expectTruthiness(t, "typeof 1 === 'number'", true)
	expectTruthiness(t, "typeof 'x' == 'string'", true)
	expectUnknown(t, "typeof define === 'function'")
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, 0.0, toNumber("  "))
	assert.Equal(t, 5.0, toNumber("0b101"))
	assert.Equal(t, -2.5, toNumber("-2.5"))
	assert.True(t, math.IsInf(toNumber("-Infinity"), -1))
	assert.True(t, math.IsNaN(toNumber("1_000")))
	assert.True(t, math.IsNaN(toNumber("inf")))
	assert.True(t, math.IsNaN(toNumber("0x")))
}
