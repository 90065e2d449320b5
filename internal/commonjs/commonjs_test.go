package commonjs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/test"
)

func transformForTest(t *testing.T, path string, contents string, options Options) *Result {
	t.Helper()
	log := logger.NewDeferLog()
	result, err := Transform(log, test.SourceForTest(path, contents), options)
	require.NoError(t, err)
	require.Empty(t, log.Done())
	return result
}

func expectTransformedWithOptions(t *testing.T, path string, contents string, options Options, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		result := transformForTest(t, path, contents, options)
		require.NotNil(t, result, "expected %s to be converted", path)
		test.AssertEqualWithDiff(t, result.Code, expected)
	})
}

func expectTransformed(t *testing.T, path string, contents string, expected string) {
	t.Helper()
	expectTransformedWithOptions(t, path, contents, Options{}, expected)
}

func expectUntouched(t *testing.T, contents string, options Options) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		assert.Nil(t, transformForTest(t, "/src/plain.js", contents, options))
	})
}

func TestModuleExportsValue(t *testing.T) {
	expectTransformed(t, "/src/answer.js", "module.exports = 42;\n",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var answer = commonjsHelpers.createCommonjsModule(function (module) {
module.exports = 42;
});

export { answer as __moduleExports };
export default answer;
`)
}

func TestExportsMutation(t *testing.T) {
	// The export has the same name as the module variable
	expectTransformed(t, "/src/foo.js", "exports.foo = 'BAR';\nexports.foo += 'BAZ';\n",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var foo = commonjsHelpers.createCommonjsModule(function (module, exports) {
exports.foo = 'BAR';
exports.foo += 'BAZ';
});

export { foo as __moduleExports };
export default foo;

var foo$$1 = foo.foo;
export { foo$$1 as foo };`)
}

func TestRequireInEntry(t *testing.T) {
	expectTransformedWithOptions(t, "/src/main.js",
		"var x = require('./foo');\nmodule.exports = function () { return x + 1; };\n",
		Options{IsEntry: true},
		`import * as commonjsHelpers from '\0commonjsHelpers';
import './foo';
import require$$0 from '\0commonjs-proxy:./foo';

var main = commonjsHelpers.createCommonjsModule(function (module) {
var x = require$$0;
module.exports = function () { return x + 1; };
});

export default main;
`)
}

func TestDependencyOrderIsReversed(t *testing.T) {
	contents := "require('a');\nvar b = require('b');\nrequire('c');\nrequire('a');\n"
	expectTransformed(t, "/src/deps.js", contents,
		`import * as commonjsHelpers from '\0commonjsHelpers';
import 'c';
import 'b';
import 'a';
import '\0commonjs-proxy:c';
import require$$1 from '\0commonjs-proxy:b';
import '\0commonjs-proxy:a';

var deps = commonjsHelpers.createCommonjsModule(function (module) {
var b = require$$1;
});

export { deps as __moduleExports };
export default deps;
`)

	result := transformForTest(t, "/src/deps.js", contents, Options{})
	assert.Equal(t, []string{"c", "b", "a"}, result.Dependencies)
}

func TestBareRequireInSingleStatementPosition(t *testing.T) {
	result := transformForTest(t, "/src/cond.js", "if (x) require('a');\nelse require('b');\n", Options{})
	require.NotNil(t, result)
	assert.Contains(t, result.Code, "if (x) ;\nelse ;\n});")
}

func TestDependencyNamesAvoidExistingText(t *testing.T) {
	result := transformForTest(t, "/src/names.js", "var require$$0 = 1;\nvar a = require('a');\n", Options{})
	require.NotNil(t, result)
	assert.Contains(t, result.Code, "var a = require$$1;")
	assert.Contains(t, result.Code, "import require$$1 from '\\0commonjs-proxy:a';")
}

func TestDeadBranchPruning(t *testing.T) {
	contents := "if (typeof module !== 'undefined') { module.exports = 1; } else { require('nonexistent-at-runtime'); }"
	result := transformForTest(t, "/src/umd.js", contents, Options{})
	require.NotNil(t, result)
	assert.Empty(t, result.Dependencies)
	assert.NotContains(t, result.Code, "commonjs-proxy")
	assert.Contains(t, result.Code, "require('nonexistent-at-runtime')")

	result = transformForTest(t, "/src/umd.js", "var x = false ? require('a') : require('b');", Options{})
	require.NotNil(t, result)
	assert.Equal(t, []string{"b"}, result.Dependencies)
	assert.Contains(t, result.Code, "var x = false ? require('a') : require$$0;")
}

func TestTypeofRequire(t *testing.T) {
	expectTransformed(t, "/src/guard.js", "if (typeof require === 'function') module.exports = 1;",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var guard = commonjsHelpers.createCommonjsModule(function (module) {
if ('function' === 'function') module.exports = 1;
});

export { guard as __moduleExports };
export default guard;
`)
}

func TestGlobalAndThis(t *testing.T) {
	expectTransformed(t, "/src/g.js", "global.foo = this;\nfunction f() { return this; }\nvar g = () => this;",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var g = commonjsHelpers.createCommonjsModule(function (module) {
commonjsHelpers.commonjsGlobal.foo = commonjsHelpers.commonjsGlobal;
function f() { return this; }
var g = () => commonjsHelpers.commonjsGlobal;
});

export { g as __moduleExports };
export default g;
`)

	// With the rewrite suppressed this isn't a CommonJS module at all
	expectUntouched(t, "global.foo = this;", Options{IgnoreGlobal: true})
}

func TestThisInComputedMemberKey(t *testing.T) {
	result := transformForTest(t, "/src/cls.js", "module.exports = class A { [this.x]() { return this; } y = this; };", Options{})
	require.NotNil(t, result)
	assert.Contains(t, result.Code, "module.exports = class A { [commonjsHelpers.commonjsGlobal.x]() { return this; } y = this; };")
}

func TestIgnoreGlobal(t *testing.T) {
	expectTransformedWithOptions(t, "/src/keep.js", "module.exports = this; global.x = 1; var o = { global };", Options{IgnoreGlobal: true},
		`import * as commonjsHelpers from '\0commonjsHelpers';

var keep = commonjsHelpers.createCommonjsModule(function (module) {
module.exports = this; global.x = 1; var o = { global };
});

export { keep as __moduleExports };
export default keep;
`)

	// "global" has no known type when it isn't rewritten, so the guard stays
	contents := "if (typeof global === 'undefined') { require('a'); }"
	result := transformForTest(t, "/src/guard.js", contents, Options{IgnoreGlobal: true})
	require.NotNil(t, result)
	assert.Equal(t, []string{"a"}, result.Dependencies)

	result = transformForTest(t, "/src/guard.js", contents, Options{})
	require.NotNil(t, result)
	assert.Empty(t, result.Dependencies)
}

func TestGlobalShorthandProperty(t *testing.T) {
	result := transformForTest(t, "/src/short.js", "var o = { global };", Options{})
	require.NotNil(t, result)
	assert.Contains(t, result.Code, "var o = { global: commonjsHelpers.commonjsGlobal };")
}

func TestHelpersNameIsDeconflicted(t *testing.T) {
	result := transformForTest(t, "/src/h.js", "var commonjsHelpers = global;", Options{})
	require.NotNil(t, result)
	assert.True(t, strings.HasPrefix(result.Code, "import * as commonjsHelpers_1 from '\\0commonjsHelpers';\n"), result.Code)
	assert.Contains(t, result.Code, "var commonjsHelpers = commonjsHelpers_1.commonjsGlobal;")
}

func TestHelpersNameAvoidsModuleName(t *testing.T) {
	expectTransformed(t, "/src/commonjsHelpers.js", "module.exports = 1;",
		`import * as commonjsHelpers_1 from '\0commonjsHelpers';

var commonjsHelpers = commonjsHelpers_1.createCommonjsModule(function (module) {
module.exports = 1;
});

export { commonjsHelpers as __moduleExports };
export default commonjsHelpers;
`)
}

func TestShadowedNamesAreIgnored(t *testing.T) {
	expectUntouched(t, "function f(module, exports, require) { module.exports = require('x'); exports.a = 1; }", Options{})
	expectUntouched(t, "var module = {}; module.exports = 1;", Options{})
	expectUntouched(t, "import require from 'x'; require('y');", Options{})
	expectUntouched(t, "var a = 1;", Options{})
	expectUntouched(t, "var modules = 1; obj.exports = 2;", Options{})
	expectUntouched(t, "export { a as module };", Options{})
	expectUntouched(t, "var o = { module: 1, exports() {} };", Options{})
	expectUntouched(t, "var t = require(name); var u = require('a', 'b'); var v = require(`c`);", Options{})
}

func TestNamedExportsFromObjectLiteral(t *testing.T) {
	result := transformForTest(t, "/src/obj.js",
		"module.exports = { a: 1, b() {}, c, 'd': 2, [e]: 3, ...f, Object: 4 };", Options{})
	require.NotNil(t, result)
	assert.Equal(t, []string{"a", "b", "c"}, result.NamedExports)
	assert.Contains(t, result.Code, "export var a = obj.a;\nexport var b = obj.b;\nexport var c = obj.c;")
}

func TestBlacklistedNamedExports(t *testing.T) {
	expectTransformed(t, "/src/interop.js", "exports.default = 1; exports.__esModule = true; exports.ok = 2;",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var interop = commonjsHelpers.createCommonjsModule(function (module, exports) {
exports.default = 1; exports.__esModule = true; exports.ok = 2;
});

export { interop as __moduleExports };
export default commonjsHelpers.unwrapExports(interop);

export var ok = interop.ok;`)
}

func TestInteropMarkerInComment(t *testing.T) {
	result := transformForTest(t, "/src/c.js", "// sets __esModule later\nmodule.exports = 1;", Options{})
	require.NotNil(t, result)
	assert.Contains(t, result.Code, "export default commonjsHelpers.unwrapExports(c);\n")
}

func TestCustomNamedExports(t *testing.T) {
	options := Options{NamedExports: []string{"x", "y"}}
	result := transformForTest(t, "/src/lib.js", "exports.y = 1; exports.z = 2;", options)
	require.NotNil(t, result)
	assert.Equal(t, []string{"x", "y", "z"}, result.NamedExports)

	// Detection doesn't accumulate across calls
	again := transformForTest(t, "/src/lib.js", "exports.y = 1; exports.z = 2;", options)
	assert.Equal(t, result.NamedExports, again.NamedExports)
	assert.Equal(t, result.Code, again.Code)
}

func TestCustomNamedExportsForNonCommonJS(t *testing.T) {
	for _, contents := range []string{"var a = 1;", "function f(module) { return module; }"} {
		_, err := Transform(logger.NewDeferLog(), test.SourceForTest("/src/esm.js", contents), Options{NamedExports: []string{"a"}})
		var configErr *ConfigurationError
		require.True(t, errors.As(err, &configErr), contents)
		assert.Equal(t, "/src/esm.js", configErr.ID)
		assert.Equal(t, "Custom named exports were specified for /src/esm.js but it does not appear to be a CommonJS module", err.Error())
	}
}

func TestParseErrorNamesModule(t *testing.T) {
	log := logger.NewDeferLog()
	_, err := Transform(log, test.SourceForTest("/src/bad.js", "module.exports = ;"), Options{})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.True(t, strings.HasSuffix(err.Error(), " in /src/bad.js"), err.Error())
	assert.True(t, log.HasErrors())
}

func TestShebangIsRemoved(t *testing.T) {
	expectTransformed(t, "/src/bin.js", "#!/usr/bin/env node\nmodule.exports = 1;\n",
		`import * as commonjsHelpers from '\0commonjsHelpers';

var bin = commonjsHelpers.createCommonjsModule(function (module) {
module.exports = 1;
});

export { bin as __moduleExports };
export default bin;
`)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "fooBar", ModuleName("/src/foo-bar.js"))
	assert.Equal(t, "_1x", ModuleName("/src/1x.js"))
	assert.Equal(t, "_default", ModuleName("/src/default.js"))
	assert.Equal(t, "index_min", ModuleName("/lib/index.min.js"))
}

func TestSourceMap(t *testing.T) {
	result := transformForTest(t, "/src/mapped.js", "var a = require('a');\nmodule.exports = this;\n", Options{SourceMap: true})
	require.NotNil(t, result)
	sm := result.SourceMap
	require.NotNil(t, sm)
	assert.Equal(t, []string{"/src/mapped.js"}, sm.Sources)
	assert.Equal(t, "mapped.js", sm.File)
	assert.Equal(t, []string{"this"}, sm.Names)

	lines := strings.Split(result.Code, "\n")

	// The prologue is synthetic
	m := sm.Find(0, 0)
	require.NotNil(t, m)
	assert.True(t, m.IsGenerated())

	// "require$$0" maps back to the call it replaced
	line := indexOfLine(lines, "var a = require$$0;")
	m = sm.Find(int32(line), int32(len("var a = ")))
	require.NotNil(t, m)
	assert.False(t, m.IsGenerated())
	assert.Equal(t, int32(0), m.OriginalLine)
	assert.Equal(t, int32(len("var a = ")), m.OriginalColumn)

	// The rewritten "this" maps to the original "this"
	line = indexOfLine(lines, "module.exports = commonjsHelpers.commonjsGlobal;")
	m = sm.Find(int32(line), int32(len("module.exports = c")))
	require.NotNil(t, m)
	assert.Equal(t, int32(1), m.OriginalLine)
	assert.Equal(t, int32(len("module.exports = ")), m.OriginalColumn)
	assert.Equal(t, int32(0), m.OriginalName)

	// The export block is synthetic
	m = sm.Find(int32(indexOfLine(lines, "export default mapped;")), 0)
	require.NotNil(t, m)
	assert.True(t, m.IsGenerated())
}

func indexOfLine(lines []string, text string) int {
	for i, line := range lines {
		if line == text {
			return i
		}
	}
	return -1
}

func TestRegistry(t *testing.T) {
	r := Registry{}
	assert.False(t, r.Has("/src/a.js"))
	r.Add("/src/a.js")
	assert.True(t, r.Has("/src/a.js"))
	assert.False(t, r.Has("/src/b.js"))
}
