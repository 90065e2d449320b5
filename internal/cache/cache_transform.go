package cache

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cjsesm/cjsesm/internal/commonjs"
)

// TransformCache remembers conversions. A conversion only depends on the
// module's own text and options, so an entry is reused when both match.
type TransformCache struct {
	entries *lru.Cache[string, *transformEntry]
}

type transformEntry struct {
	contents string
	options  string
	result   *commonjs.Result
}

func optionsKey(options commonjs.Options) string {
	sb := strings.Builder{}
	for _, flag := range []bool{options.IsEntry, options.IgnoreGlobal, options.SourceMap} {
		if flag {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	for _, name := range options.NamedExports {
		sb.WriteByte(',')
		sb.WriteString(name)
	}
	return sb.String()
}

// Get returns a cached conversion. A nil result with "ok" set means the
// module was found not to be a CommonJS module.
func (c *TransformCache) Get(id string, contents string, options commonjs.Options) (result *commonjs.Result, ok bool) {
	entry, ok := c.entries.Get(id)
	if !ok || entry.contents != contents || entry.options != optionsKey(options) {
		return nil, false
	}
	return entry.result, true
}

func (c *TransformCache) Add(id string, contents string, options commonjs.Options, result *commonjs.Result) {
	c.entries.Add(id, &transformEntry{contents: contents, options: optionsKey(options), result: result})
}
