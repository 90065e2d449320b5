package resolver

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/cache"
	"github.com/cjsesm/cjsesm/internal/commonjs"
	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/logger"
)

// ResolveFunc is a resolver that runs before the built-in one. It returns
// false if it has nothing to say about the specifier.
type ResolveFunc func(importee string, importer string) (string, bool)

type Resolver struct {
	fs          fs.FS
	log         logger.Log
	caches      *cache.CacheSet
	extensions  []string
	nodeModules bool
	before      []ResolveFunc
}

func NewResolver(fs fs.FS, log logger.Log, caches *cache.CacheSet, options config.Options, before ...ResolveFunc) *Resolver {
	extensions := options.Extensions
	if len(extensions) == 0 {
		extensions = []string{".js"}
	}
	return &Resolver{
		fs:          fs,
		log:         log,
		caches:      caches,
		extensions:  extensions,
		nodeModules: options.NodeModules,
		before:      before,
	}
}

// ResolveID maps an import to a module id. Specifiers that go through a
// proxy stay proxied, and a proxy for something that can't be resolved
// becomes a proxy for an external module. A false return for a plain
// specifier means it is external.
func (r *Resolver) ResolveID(importee string, importer string) (string, bool) {
	if importee == commonjs.HelpersID {
		return importee, true
	}

	importer = strings.TrimPrefix(importer, commonjs.ProxyPrefix)

	isProxy := strings.HasPrefix(importee, commonjs.ProxyPrefix)
	if isProxy {
		importee = importee[len(commonjs.ProxyPrefix):]
	}

	resolved, ok := r.Resolve(importee, importer)
	switch {
	case isProxy && ok:
		return commonjs.ProxyPrefix + resolved, true
	case isProxy:
		return commonjs.ExternalPrefix + importee, true
	}
	return resolved, ok
}

// Resolve turns a specifier into an absolute file path. The importer is
// empty for the entry module.
func (r *Resolver) Resolve(importee string, importer string) (string, bool) {
	for _, resolve := range r.before {
		if resolved, ok := resolve(importee, importer); ok {
			return resolved, true
		}
	}

	// Relative imports may leave off the extension or point at a directory
	if strings.HasPrefix(importee, ".") && importer != "" {
		if resolved, ok := r.tryPath(r.fs.Join(r.fs.Dir(importer), importee)); ok {
			return resolved, true
		}
	}

	if resolved, ok := r.resolveDefault(importee, importer); ok {
		logger.Zap().Debug("resolved", zap.String("importee", importee), zap.String("importer", importer), zap.String("path", resolved))
		return resolved, true
	}

	logger.Zap().Debug("unresolved", zap.String("importee", importee), zap.String("importer", importer))
	return "", false
}

func (r *Resolver) resolveDefault(importee string, importer string) (string, bool) {
	// Absolute paths are left untouched
	if r.fs.IsAbs(importee) {
		abs, _ := r.fs.Abs(importee)
		return r.addJSExtensionIfNecessary(abs)
	}

	// The entry point resolves against the working directory
	if importer == "" {
		return r.addJSExtensionIfNecessary(r.fs.Join(r.fs.Cwd(), importee))
	}

	if !strings.HasPrefix(importee, ".") {
		if r.nodeModules {
			return r.loadNodeModules(importee, r.fs.Dir(importer))
		}
		return "", false
	}

	return r.addJSExtensionIfNecessary(r.fs.Join(r.fs.Dir(importer), importee))
}

func (r *Resolver) isFile(path string) bool {
	return fs.Kind(r.fs, path) == fs.FileEntry
}

func (r *Resolver) addJSExtensionIfNecessary(path string) (string, bool) {
	if r.isFile(path) {
		return path, true
	}
	if path += ".js"; r.isFile(path) {
		return path, true
	}
	return "", false
}

// tryPath tries the path itself, then each extension, then an index file with
// each extension
func (r *Resolver) tryPath(path string) (string, bool) {
	if r.isFile(path) {
		return path, true
	}
	for _, ext := range r.extensions {
		if r.isFile(path + ext) {
			return path + ext, true
		}
		if index := r.fs.Join(path, "index"+ext); r.isFile(index) {
			return index, true
		}
	}
	return "", false
}

func (r *Resolver) loadNodeModules(importee string, dir string) (string, bool) {
	for {
		if r.fs.Base(dir) != "node_modules" {
			modulesDir := r.fs.Join(dir, "node_modules")
			if fs.Kind(r.fs, modulesDir) == fs.DirEntry {
				if resolved, ok := r.loadAsFileOrDirectory(r.fs.Join(modulesDir, importee)); ok {
					return resolved, true
				}
			}
		}

		parent := r.fs.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (r *Resolver) loadAsFileOrDirectory(path string) (string, bool) {
	if r.isFile(path) {
		return path, true
	}
	for _, ext := range r.extensions {
		if r.isFile(path + ext) {
			return path + ext, true
		}
	}

	if fs.Kind(r.fs, path) != fs.DirEntry {
		return "", false
	}
	if pkg := r.parsePackageJSON(path); pkg != nil && pkg.absMain != "" {
		if resolved, ok := r.tryPath(pkg.absMain); ok {
			return resolved, true
		}
	}
	for _, ext := range r.extensions {
		if index := r.fs.Join(path, "index"+ext); r.isFile(index) {
			return index, true
		}
	}
	return "", false
}

// ResolveConfigKey turns a module key from the named exports configuration
// into a module id. Bare names are looked up in "node_modules" even if
// imports aren't, and anything unresolvable is taken as a path relative to
// the working directory.
func (r *Resolver) ResolveConfigKey(key string) string {
	if !strings.HasPrefix(key, ".") && !r.fs.IsAbs(key) {
		if resolved, ok := r.loadNodeModules(key, r.fs.Cwd()); ok {
			return resolved
		}
	}
	abs, _ := r.fs.Abs(key)
	if resolved, ok := r.tryPath(abs); ok {
		return resolved
	}
	return abs
}
