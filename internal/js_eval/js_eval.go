package js_eval

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cjsesm/cjsesm/internal/js_parser"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindBigInt
	KindString

	// Regular expression literals are objects. Two of them are never equal
	// because every evaluation creates a fresh object.
	KindRegExp
)

type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	String string
}

// Truthy reports the boolean coercion of the value.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindNumber, KindBigInt:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case KindString:
		return v.String != ""
	case KindRegExp:
		return true
	}
	return false
}

// Evaluator folds the small subset of expressions needed to prune branches
// like "if (typeof module !== 'undefined')". Anything outside that subset is
// reported as unknown rather than guessed.
type Evaluator struct {
	AST *js_parser.AST

	// TypeOf resolves "typeof name" for names whose type is known at the
	// point of use. It may be nil.
	TypeOf func(id *sitter.Node) (string, bool)
}

// Truthiness returns the boolean coercion of a node if it can be determined
// statically. The second return value is false if it can't.
func (e *Evaluator) Truthiness(node *sitter.Node) (truthy bool, ok bool) {
	value, ok := e.Evaluate(node)
	if !ok {
		return false, false
	}
	return value.Truthy(), true
}

func (e *Evaluator) Evaluate(node *sitter.Node) (Value, bool) {
	if node == nil {
		return Value{}, false
	}

	switch node.Type() {
	case "parenthesized_expression":
		if inner := js_parser.Unparen(node); inner != node {
			return e.Evaluate(inner)
		}

	case "string":
		if text, ok := e.AST.StringValue(node); ok {
			return Value{Kind: KindString, String: text}, true
		}

	case "number":
		return parseNumberLiteral(e.AST.Text(node))

	case "true":
		return Value{Kind: KindBoolean, Bool: true}, true

	case "false":
		return Value{Kind: KindBoolean, Bool: false}, true

	case "null":
		return Value{Kind: KindNull}, true

	case "regex":
		return Value{Kind: KindRegExp, String: e.AST.Text(node)}, true

	case "unary_expression":
		return e.evaluateUnary(node)

	case "binary_expression":
		return e.evaluateBinary(node)
	}

	return Value{}, false
}

func (e *Evaluator) evaluateUnary(node *sitter.Node) (Value, bool) {
	arg := node.ChildByFieldName("argument")

	switch e.AST.Operator(node) {
	case "!":
		if truthy, ok := e.Truthiness(arg); ok {
			return Value{Kind: KindBoolean, Bool: !truthy}, true
		}

	case "typeof":
		if inner := js_parser.Unparen(arg); inner != nil && inner.Type() == "identifier" {
			if e.TypeOf != nil {
				if text, ok := e.TypeOf(inner); ok {
					return Value{Kind: KindString, String: text}, true
				}
			}
			return Value{}, false
		}
		if value, ok := e.Evaluate(arg); ok {
			return Value{Kind: KindString, String: typeOf(value)}, true
		}
	}

	return Value{}, false
}

func (e *Evaluator) evaluateBinary(node *sitter.Node) (Value, bool) {
	op := e.AST.Operator(node)
	switch op {
	case "==", "!=", "===", "!==", "&&", "||":
	default:
		return Value{}, false
	}

	// Both sides must be known, even for the logical operators where the
	// left side alone would sometimes be enough
	left, ok := e.Evaluate(node.ChildByFieldName("left"))
	if !ok {
		return Value{}, false
	}
	right, ok := e.Evaluate(node.ChildByFieldName("right"))
	if !ok {
		return Value{}, false
	}

	switch op {
	case "==":
		return Value{Kind: KindBoolean, Bool: LooseEquals(left, right)}, true
	case "!=":
		return Value{Kind: KindBoolean, Bool: !LooseEquals(left, right)}, true
	case "===":
		return Value{Kind: KindBoolean, Bool: StrictEquals(left, right)}, true
	case "!==":
		return Value{Kind: KindBoolean, Bool: !StrictEquals(left, right)}, true
	case "&&":
		if !left.Truthy() {
			return left, true
		}
		return right, true
	default:
		if left.Truthy() {
			return left, true
		}
		return right, true
	}
}

func typeOf(value Value) string {
	switch value.Kind {
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	}
	return "object"
}

func StrictEquals(a Value, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.Bool == b.Bool
	case KindNumber, KindBigInt:
		return a.Number == b.Number
	case KindString:
		return a.String == b.String
	}
	return false
}

func LooseEquals(a Value, b Value) bool {
	if a.Kind == b.Kind {
		return StrictEquals(a, b)
	}

	switch {
	case a.Kind == KindNull || b.Kind == KindNull:
		return false

	case a.Kind == KindBoolean:
		return LooseEquals(Value{Kind: KindNumber, Number: boolToNumber(a.Bool)}, b)

	case b.Kind == KindBoolean:
		return LooseEquals(a, Value{Kind: KindNumber, Number: boolToNumber(b.Bool)})

	case a.Kind == KindRegExp:
		return LooseEquals(Value{Kind: KindString, String: a.String}, b)

	case b.Kind == KindRegExp:
		return LooseEquals(a, Value{Kind: KindString, String: b.String})

	case a.Kind == KindString:
		return toNumber(a.String) == b.Number

	case b.Kind == KindString:
		return a.Number == toNumber(b.String)
	}

	// A number and a bigint
	return a.Number == b.Number
}

func boolToNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var decimalText = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// toNumber follows the string-to-number conversion used by loose equality
func toNumber(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	switch text {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(text) > 2 && text[0] == '0' {
		if value, ok := parseRadix(text[1], text[2:]); ok {
			return value
		}
	}

	if decimalText.MatchString(text) {
		if value, err := strconv.ParseFloat(text, 64); err == nil || isRangeError(err) {
			return value
		}
	}

	return math.NaN()
}

func parseRadix(prefix byte, digits string) (float64, bool) {
	var base int
	switch prefix {
	case 'x', 'X':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		return 0, false
	}

	value := 0.0
	for _, c := range digits {
		digit, err := strconv.ParseUint(string(c), base, 8)
		if err != nil {
			return 0, false
		}
		value = value*float64(base) + float64(digit)
	}
	return value, digits != ""
}

func isRangeError(err error) bool {
	numErr, ok := err.(*strconv.NumError)
	return ok && numErr.Err == strconv.ErrRange
}

func parseNumberLiteral(text string) (Value, bool) {
	text = strings.ReplaceAll(text, "_", "")
	kind := KindNumber
	if strings.HasSuffix(text, "n") {
		kind = KindBigInt
		text = text[:len(text)-1]
	}

	if len(text) > 2 && text[0] == '0' {
		if value, ok := parseRadix(text[1], text[2:]); ok {
			return Value{Kind: kind, Number: value}, true
		}
	}

	// Legacy octal literals like "0755" but not "089"
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "01234567") == "" {
		if value, ok := parseRadix('o', text[1:]); ok {
			return Value{Kind: kind, Number: value}, true
		}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil && !isRangeError(err) {
		return Value{}, false
	}
	return Value{Kind: kind, Number: value}, true
}
