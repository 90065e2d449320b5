package commonjs

import (
	"fmt"
	"path"
	"regexp"

	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/js_parser"
	"github.com/cjsesm/cjsesm/internal/js_scope"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/patcher"
	"github.com/cjsesm/cjsesm/internal/sourcemap"
)

// Module ids with a NUL prefix never collide with file paths. Converted
// modules import these and the build pipeline is expected to load them.
const (
	HelpersID      = "\x00commonjsHelpers"
	ProxyPrefix    = "\x00commonjs-proxy:"
	ExternalPrefix = "\x00commonjs-external:"
)

type Options struct {
	// The entry module doesn't re-export its raw module object
	IsEntry bool

	// Leave "global" and top-level "this" alone instead of rewriting them to
	// the helpers' global object
	IgnoreGlobal bool

	// Names to export in addition to the ones found by looking at
	// assignments. Supplying these for a module that turns out not to be a
	// CommonJS module is an error.
	NamedExports []string

	SourceMap bool
}

type Result struct {
	Code      string
	SourceMap *sourcemap.SourceMap

	// The specifiers passed to "require" in the order of the emitted
	// side-effect imports
	Dependencies []string

	// The names in the emitted named export block
	NamedExports []string
}

type ParseError = js_parser.ParseError

type ConfigurationError struct {
	ID string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Custom named exports were specified for %s but it does not appear to be a CommonJS module", e.ID)
}

var firstPassWithGlobal = regexp.MustCompile(`\b(?:require|module|exports|global)\b`)
var firstPassWithoutGlobal = regexp.MustCompile(`\b(?:require|module|exports)\b`)

// Transform converts one CommonJS module into an ES module that wraps the
// original code in a function. The module's identity is the key path of the
// source. A nil result with a nil error means the module doesn't look like a
// CommonJS module and should be left as it is.
func Transform(log logger.Log, source logger.Source, options Options) (*Result, error) {
	id := source.KeyPath.Text

	firstPass := firstPassWithGlobal
	if options.IgnoreGlobal {
		firstPass = firstPassWithoutGlobal
	}
	if !firstPass.MatchString(source.Contents) {
		if len(options.NamedExports) > 0 {
			return nil, &ConfigurationError{ID: id}
		}
		return nil, nil
	}

	ast, err := js_parser.Parse(log, source)
	if err != nil {
		return nil, err
	}
	defer ast.Close()

	c := newClassifier(ast, options)
	if start, end, ok := js_parser.ShebangRange(source.Contents); ok {
		c.patch.Remove(start, end)
	}
	c.visit(ast.Root, c.scopes.Root, 0)

	if len(c.sources) == 0 && !c.uses.module && !c.uses.exports && (options.IgnoreGlobal || !c.uses.global) {
		if len(options.NamedExports) > 0 {
			return nil, &ConfigurationError{ID: id}
		}
		logger.Zap().Debug("not a CommonJS module", zap.String("id", id))
		return nil, nil
	}

	plan := c.plan(ModuleName(id))
	plan.apply(c.patch)

	generated := c.patch.Generate(patcher.Options{
		SourceMap: options.SourceMap,
		File:      path.Base(source.PrettyPath),
	})

	logger.Zap().Debug("converted CommonJS module",
		zap.String("id", id),
		zap.Strings("dependencies", c.sources),
		zap.Strings("namedExports", plan.namedExports),
		zap.Bool("usesExports", c.uses.exports))

	return &Result{
		Code:         generated.Code,
		SourceMap:    generated.SourceMap,
		Dependencies: c.sources,
		NamedExports: plan.namedExports,
	}, nil
}

// ModuleName is the variable that holds a converted module's exports. It is
// derived from the file name so that output stays readable.
func ModuleName(id string) string {
	base := path.Base(id)
	return helpers.MakeLegalIdentifier(base[:len(base)-len(path.Ext(base))])
}

// The helpers namespace must not collide with anything in the module or with
// the variable that holds the module itself
func newClassifier(ast *js_parser.AST, options Options) *classifier {
	c := &classifier{
		ast:          ast,
		options:      options,
		scopes:       js_scope.Attach(ast),
		patch:        patcher.New(&ast.Source),
		helpersName:  helpers.Deconflict("commonjsHelpers", ast.Source.Contents+"\n"+ModuleName(ast.Source.KeyPath.Text)),
		required:     make(map[string]*dependency),
		namedExports: make(map[string]bool),
	}
	for _, name := range options.NamedExports {
		c.addNamedExport(name)
	}
	return c
}
