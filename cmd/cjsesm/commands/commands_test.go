package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	transformEntry, transformNamedExports, transformOutfile, transformSourcefile = false, nil, "", ""
	graphInclude, graphExclude, graphNamedExports, graphOutfile, graphOutdir = nil, nil, nil, "", ""
	return out.String(), err
}

func TestTransformStdin(t *testing.T) {
	out, err := run(t, "module.exports = 1;\n", "transform", "--sourcefile", "/src/one.js", "--log-level", "silent")
	require.NoError(t, err)
	assert.Contains(t, out, "var one = commonjsHelpers.createCommonjsModule(function (module) {")
}

func TestTransformPassesThroughESModules(t *testing.T) {
	out, err := run(t, "export default 1;\n", "transform", "--sourcefile", "/src/esm.js", "--log-level", "silent")
	require.NoError(t, err)
	assert.Equal(t, "export default 1;\n", out)
}

func TestTransformOutfile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "lib.js")
	outfile := filepath.Join(dir, "lib.mjs")
	require.NoError(t, os.WriteFile(input, []byte("exports.a = 1;\n"), 0644))

	_, err := run(t, "", "transform", input, "-o", outfile, "--sourcemap", "--log-level", "silent")
	require.NoError(t, err)

	code, err := os.ReadFile(outfile)
	require.NoError(t, err)
	assert.Contains(t, string(code), "//# sourceMappingURL=lib.mjs.map")

	sourceMap, err := os.ReadFile(outfile + ".map")
	require.NoError(t, err)
	assert.True(t, json.Valid(sourceMap))
}

func TestGraph(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("import x from './dep';\nconsole.log(x);\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dep.js"), []byte("module.exports = 42;\n"), 0644))

	out, err := run(t, "", "graph", filepath.Join(dir, "main.js"), "--log-level", "silent")
	require.NoError(t, err)

	var metadata struct {
		Order   []string `json:"order"`
		Modules map[string]struct {
			Converted bool `json:"converted"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &metadata))
	assert.Len(t, metadata.Order, 3)
	assert.Contains(t, metadata.Order, `\0commonjsHelpers`)
}

func TestGraphBadNamedExports(t *testing.T) {
	_, err := run(t, "", "graph", "main.js", "--named-exports", "nope", "--log-level", "silent")
	assert.Error(t, err)
}
