package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformConverts(t *testing.T) {
	result := Transform("module.exports = 42;\n", TransformOptions{Sourcefile: "/src/answer.js"})
	require.Empty(t, result.Errors)
	assert.True(t, result.Converted)
	assert.Contains(t, result.Code, "var answer = commonjsHelpers.createCommonjsModule(function (module) {")
	assert.Contains(t, result.Code, "export default answer;")
	assert.Nil(t, result.Map)
}

func TestTransformLeavesESModules(t *testing.T) {
	result := Transform("export const x = 1;\n", TransformOptions{})
	require.Empty(t, result.Errors)
	assert.False(t, result.Converted)
	assert.Empty(t, result.Code)
}

func TestTransformDependencies(t *testing.T) {
	result := Transform("var a = require('./a');\nvar b = require('b');\n", TransformOptions{Sourcefile: "/src/x.js"})
	require.Empty(t, result.Errors)
	assert.Equal(t, []string{"./a", "b"}, result.Dependencies)
}

func TestTransformSourceMap(t *testing.T) {
	result := Transform("exports.a = 1;\n", TransformOptions{Sourcefile: "/src/a.js", Sourcemap: true})
	require.Empty(t, result.Errors)
	require.NotNil(t, result.Map)

	var parsed struct {
		Version  int      `json:"version"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(result.Map, &parsed))
	assert.Equal(t, 3, parsed.Version)
	assert.NotEmpty(t, parsed.Mappings)
}

func TestTransformParseError(t *testing.T) {
	result := Transform("module.exports = (;\n", TransformOptions{Sourcefile: "/src/bad.js"})
	require.NotEmpty(t, result.Errors)
	assert.False(t, result.Converted)
	require.NotNil(t, result.Errors[0].Location)
	assert.Equal(t, "/src/bad.js", result.Errors[0].Location.File)
}

func TestTransformNamedExportsOnESModule(t *testing.T) {
	result := Transform("export default 1;\n", TransformOptions{Sourcefile: "/src/esm.js", NamedExports: []string{"foo"}})
	require.Len(t, result.Errors, 1)
	assert.Equal(t,
		"Custom named exports were specified for /src/esm.js but it does not appear to be a CommonJS module",
		result.Errors[0].Text)
	assert.Nil(t, result.Errors[0].Location)
}

func TestScanGraphWithoutEntry(t *testing.T) {
	result := ScanGraph(GraphOptions{LogLevel: LogLevelSilent})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "No entry point was specified", result.Errors[0].Text)
}

func TestValidateLogLevelPanics(t *testing.T) {
	assert.Panics(t, func() { validateLogLevel(LogLevel(99)) })
}
