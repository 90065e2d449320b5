package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjsesm/cjsesm/internal/commonjs"
	"github.com/cjsesm/cjsesm/internal/fs"
)

func TestFSCacheReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(file, []byte("module.exports = 1;"), 0o644))

	// Make the file old enough to get a modification key
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(file, old, old))

	realFS := fs.RealFS()
	c := MakeCacheSet(0).FSCache
	contents, err := c.ReadFile(realFS, file)
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 1;", contents)
	assert.Equal(t, 1, c.entries.Len())

	// Same size and mtime, so the cached contents are returned
	require.NoError(t, os.WriteFile(file, []byte("module.exports = 2;"), 0o644))
	require.NoError(t, os.Chtimes(file, old, old))
	contents, err = c.ReadFile(realFS, file)
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 1;", contents)

	// A different size invalidates the entry
	require.NoError(t, os.WriteFile(file, []byte("module.exports = 22;"), 0o644))
	require.NoError(t, os.Chtimes(file, old, old))
	contents, err = c.ReadFile(realFS, file)
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 22;", contents)

	_, err = c.ReadFile(realFS, filepath.Join(dir, "missing.js"))
	assert.Error(t, err)
}

func TestFSCacheWithoutModKeys(t *testing.T) {
	mock := fs.MockFS(map[string]string{"/a.js": "1"}, "/")
	c := MakeCacheSet(8).FSCache
	contents, err := c.ReadFile(mock, "/a.js")
	require.NoError(t, err)
	assert.Equal(t, "1", contents)
	assert.Equal(t, 0, c.entries.Len())
}

func TestTransformCache(t *testing.T) {
	c := MakeCacheSet(8).TransformCache
	options := commonjs.Options{SourceMap: true, NamedExports: []string{"a"}}
	result := &commonjs.Result{Code: "converted"}
	c.Add("/a.js", "module.exports = 1;", options, result)

	cached, ok := c.Get("/a.js", "module.exports = 1;", options)
	assert.True(t, ok)
	assert.Same(t, result, cached)

	_, ok = c.Get("/a.js", "module.exports = 2;", options)
	assert.False(t, ok)

	_, ok = c.Get("/a.js", "module.exports = 1;", commonjs.Options{SourceMap: true})
	assert.False(t, ok)

	// Remembering that a module isn't CommonJS is also useful
	c.Add("/b.js", "export default 1;", options, nil)
	cached, ok = c.Get("/b.js", "export default 1;", options)
	assert.True(t, ok)
	assert.Nil(t, cached)
}
