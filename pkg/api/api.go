// This API exposes the CommonJS conversion as a library. The "Transform"
// function converts a single module in memory and the "ScanGraph" function
// walks the module graph of an entry point on the file system the same way a
// bundler would, converting every CommonJS module it reaches.
//
// Here is a simple example of the transform API:
//
//	package main
//
//	import (
//	    "fmt"
//
//	    "github.com/cjsesm/cjsesm/pkg/api"
//	)
//
//	func main() {
//	    result := api.Transform("module.exports = 42;", api.TransformOptions{
//	        Sourcefile: "answer.js",
//	    })
//	    fmt.Print(result.Code)
//	}
package api

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type LogLevel uint8

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
	LogLevelSilent
)

////////////////////////////////////////////////////////////////////////////////
// Transform API

type TransformOptions struct {
	// The module id. Defaults to "<stdin>".
	Sourcefile string

	IsEntry      bool
	IgnoreGlobal bool
	NamedExports []string
	Sourcemap    bool
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	// False when the input doesn't look like a CommonJS module. The code is
	// left empty in that case.
	Converted bool

	Code string
	Map  []byte

	Dependencies []string
	NamedExports []string
}

func Transform(input string, options TransformOptions) TransformResult {
	return transformImpl(input, options)
}

////////////////////////////////////////////////////////////////////////////////
// Graph API

type GraphOptions struct {
	Entry string

	Include    []string
	Exclude    []string
	Extensions []string

	IgnoreGlobal bool
	Sourcemap    bool
	NodeModules  bool

	// Keys are module specifiers resolved from the working directory
	NamedExports map[string][]string

	LogLevel LogLevel
}

type GraphModule struct {
	ID        string
	Code      string
	Map       []byte
	Converted bool
	Synthetic bool

	Imports      []string
	NamedExports []string
}

type GraphResult struct {
	Errors   []Message
	Warnings []Message

	Entry   string
	Modules []GraphModule

	// A JSON summary of the graph with paths relative to the working directory
	Metadata []byte
}

func ScanGraph(options GraphOptions) GraphResult {
	return scanGraphImpl(options)
}
