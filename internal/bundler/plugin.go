package bundler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/cache"
	"github.com/cjsesm/cjsesm/internal/commonjs"
	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/resolver"
	"github.com/cjsesm/cjsesm/internal/runtime"
)

// Plugin is the per-build state for converting CommonJS modules: how ids are
// resolved, how synthetic modules are loaded, and which modules have been
// converted so far.
type Plugin struct {
	fs       fs.FS
	log      logger.Log
	options  config.Options
	caches   *cache.CacheSet
	resolver *resolver.Resolver
	filter   *config.Filter
	registry commonjs.Registry

	// Named exports keyed by resolved module id
	namedExports map[string][]string

	entryID string
}

func NewPlugin(fs fs.FS, log logger.Log, caches *cache.CacheSet, options config.Options, before ...resolver.ResolveFunc) (*Plugin, error) {
	if len(options.Extensions) == 0 {
		options.Extensions = []string{".js"}
	}
	if caches == nil {
		caches = cache.MakeCacheSet(0)
	}

	filter, err := config.NewFilter(fs, options.Include, options.Exclude)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		fs:           fs,
		log:          log,
		options:      options,
		caches:       caches,
		resolver:     resolver.NewResolver(fs, log, caches, options, before...),
		filter:       filter,
		namedExports: make(map[string][]string),
	}

	for key, names := range options.NamedExports {
		id := p.resolver.ResolveConfigKey(key)
		p.namedExports[id] = append(p.namedExports[id], names...)
	}

	if options.Entry != "" {
		if id, ok := p.ResolveID(options.Entry, ""); ok {
			p.entryID = id
		}
	}

	return p, nil
}

func (p *Plugin) EntryID() string {
	return p.entryID
}

// IsConverted reports whether a module was converted. Only ask about a module
// once its "Transform" call has returned.
func (p *Plugin) IsConverted(id string) bool {
	return p.registry.Has(id)
}

func (p *Plugin) ResolveID(importee string, importer string) (string, bool) {
	return p.resolver.ResolveID(importee, importer)
}

// Load returns the text of a module. The helpers module and the proxies are
// synthesized. A proxy must only be loaded after the module behind it has
// been transformed.
func (p *Plugin) Load(id string) (string, error) {
	if id == commonjs.HelpersID {
		return runtime.Code, nil
	}

	if strings.HasPrefix(id, commonjs.ExternalPrefix) {
		actualID := id[len(commonjs.ExternalPrefix):]
		name := commonjs.ModuleName(actualID)
		return fmt.Sprintf("import %s from %s; export default %s;", name, helpers.QuoteDouble(actualID), name), nil
	}

	if strings.HasPrefix(id, commonjs.ProxyPrefix) {
		actualID := id[len(commonjs.ProxyPrefix):]
		name := commonjs.ModuleName(actualID)
		if p.registry.Has(actualID) {
			return fmt.Sprintf("import { __moduleExports } from %s; export default __moduleExports;", helpers.QuoteDouble(actualID)), nil
		}
		return fmt.Sprintf("import * as %s from %s; export default ( %s && %s['default'] ) || %s;",
			name, helpers.QuoteDouble(actualID), name, name, name), nil
	}

	contents, err := p.caches.FSCache.ReadFile(p.fs, id)
	if err != nil {
		return "", fmt.Errorf("Could not read %q: %w", id, err)
	}
	return contents, nil
}

// Transform converts a module if the filter accepts it and it looks like a
// CommonJS module. Otherwise it returns nil.
func (p *Plugin) Transform(contents string, id string) (*commonjs.Result, error) {
	if !p.filter.Match(id) {
		return nil, nil
	}
	if !helpers.StringArrayContains(p.options.Extensions, p.fs.Ext(id)) {
		return nil, nil
	}

	options := commonjs.Options{
		IsEntry:      id == p.entryID,
		IgnoreGlobal: p.options.IgnoreGlobal,
		NamedExports: p.namedExports[id],
		SourceMap:    p.options.SourceMap,
	}

	result, ok := p.caches.TransformCache.Get(id, contents, options)
	if ok {
		logger.Zap().Debug("transform cache hit", zap.String("id", id))
	} else {
		pretty := id
		if rel, ok := p.fs.Rel(p.fs.Cwd(), id); ok && !strings.HasPrefix(rel, "..") {
			pretty = rel
		}
		source := logger.Source{
			KeyPath:    logger.Path{Text: id, Namespace: "file"},
			PrettyPath: pretty,
			Contents:   contents,
		}

		var err error
		if result, err = commonjs.Transform(p.log, source, options); err != nil {
			return nil, err
		}
		p.caches.TransformCache.Add(id, contents, options, result)
	}

	if result != nil {
		p.registry.Add(id)
	}
	return result, nil
}
