package helpers

import (
	"regexp"
	"strconv"
	"strings"
)

// Every reserved word of the language plus the words that were reserved in
// older editions. None of these may be declared as a top-level binding, so
// named exports with these names are never emitted.
var ReservedWords = []string{
	"abstract", "arguments", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "debugger", "default", "delete", "do", "double",
	"else", "enum", "eval", "export", "extends", "false", "final", "finally",
	"float", "for", "function", "goto", "if", "implements", "import", "in",
	"instanceof", "int", "interface", "let", "long", "native", "new", "null",
	"package", "private", "protected", "public", "return", "short", "static",
	"super", "switch", "synchronized", "this", "throw", "throws", "transient",
	"true", "try", "typeof", "var", "void", "volatile", "while", "with", "yield",
}

var illegalIdentifierWords = func() map[string]bool {
	words := []string{
		// Reserved words
		"break", "case", "class", "catch", "const", "continue", "debugger", "default",
		"delete", "do", "else", "export", "extends", "finally", "for", "function", "if",
		"import", "in", "instanceof", "let", "new", "return", "super", "switch", "this",
		"throw", "try", "typeof", "var", "void", "while", "with", "yield", "enum",
		"await", "implements", "package", "protected", "static", "interface", "private",
		"public",

		// Built-ins
		"Infinity", "NaN", "undefined", "null", "true", "false", "eval", "uneval",
		"isFinite", "isNaN", "parseFloat", "parseInt", "decodeURI", "decodeURIComponent",
		"encodeURI", "encodeURIComponent", "escape", "unescape", "Object", "Function",
		"Boolean", "Symbol", "Error", "EvalError", "InternalError", "RangeError",
		"ReferenceError", "SyntaxError", "TypeError", "URIError", "Number", "Math",
		"Date", "String", "RegExp", "Array", "Int8Array", "Uint8Array",
		"Uint8ClampedArray", "Int16Array", "Uint16Array", "Int32Array", "Uint32Array",
		"Float32Array", "Float64Array", "Map", "Set", "WeakMap", "WeakSet", "SIMD",
		"ArrayBuffer", "DataView", "JSON", "Promise", "Generator", "GeneratorFunction",
		"Reflect", "Proxy", "Intl",
	}
	result := make(map[string]bool, len(words))
	for _, word := range words {
		result[word] = true
	}
	return result
}()

var dashLetter = regexp.MustCompile(`-\w`)
var illegalIdentifierChar = regexp.MustCompile(`[^$_a-zA-Z0-9]`)

// MakeLegalIdentifier turns arbitrary text (usually a file name) into an
// identifier: "foo-bar" becomes "fooBar", other illegal characters become
// underscores, and names starting with a digit or colliding with a reserved
// word or a well-known global get a leading underscore.
func MakeLegalIdentifier(text string) string {
	text = dashLetter.ReplaceAllStringFunc(text, func(match string) string {
		return strings.ToUpper(match[1:])
	})
	text = illegalIdentifierChar.ReplaceAllString(text, "_")
	if text == "" || (text[0] >= '0' && text[0] <= '9') || illegalIdentifierWords[text] {
		text = "_" + text
	}
	return text
}

// Deconflict returns the first of "name", "name_1", "name_2", ... that does
// not occur anywhere in "text". This is a plain substring check, so a match
// inside a comment or a string also counts as a conflict.
func Deconflict(name string, text string) string {
	candidate := name
	for i := 1; strings.Contains(text, candidate); i++ {
		candidate = name + "_" + strconv.Itoa(i)
	}
	return candidate
}
