package bundler

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cjsesm/cjsesm/internal/commonjs"
	"github.com/cjsesm/cjsesm/internal/js_parser"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/internal/sourcemap"
)

type Import struct {
	Specifier string

	// The resolved id, or the specifier itself for external imports
	ID       string
	External bool
}

type Module struct {
	ID   string
	Code string

	// Only present for converted modules when source maps are enabled
	SourceMap *sourcemap.SourceMap

	Converted bool

	// The helpers module and the proxies aren't files
	Synthetic bool

	Imports      []Import
	NamedExports []string
}

type Graph struct {
	Entry string

	// Files in the order they were reached breadth-first, followed by the
	// synthetic modules
	Modules []*Module
}

func (g *Graph) Module(id string) *Module {
	for _, m := range g.Modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ScanGraph loads and converts every module reachable from the entry point.
// Files are processed one breadth-first wave at a time with the files of a
// wave processed in parallel. Synthetic modules are loaded at the very end:
// a proxy's text depends on whether the module behind it was converted, and
// by then every transform has finished.
func (p *Plugin) ScanGraph(ctx context.Context) (*Graph, error) {
	if p.entryID == "" {
		if p.options.Entry == "" {
			return nil, errors.New("No entry point was specified")
		}
		return nil, errors.New("Could not resolve entry point " + p.options.Entry)
	}

	graph := &Graph{Entry: p.entryID}
	visited := map[string]bool{p.entryID: true}
	var synthetic []string
	syntheticSeen := make(map[string]bool)

	wave := []string{p.entryID}
	for depth := 0; len(wave) > 0; depth++ {
		logger.Zap().Debug("scanning wave", zap.Int("depth", depth), zap.Int("modules", len(wave)))

		modules := make([]*Module, len(wave))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(runtime.NumCPU())
		for i, id := range wave {
			i, id := i, id
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				module, err := p.processFile(id)
				modules[i] = module
				return err
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}

		var next []string
		for _, module := range modules {
			graph.Modules = append(graph.Modules, module)
			for _, record := range module.Imports {
				switch {
				case record.External:
				case strings.HasPrefix(record.ID, "\x00"):
					if !syntheticSeen[record.ID] {
						syntheticSeen[record.ID] = true
						synthetic = append(synthetic, record.ID)
					}
				case !visited[record.ID]:
					visited[record.ID] = true
					next = append(next, record.ID)
				}
			}
		}
		wave = next
	}

	for _, id := range synthetic {
		module, err := p.processSynthetic(id)
		if err != nil {
			return nil, err
		}
		graph.Modules = append(graph.Modules, module)
	}

	return graph, nil
}

func (p *Plugin) processFile(id string) (*Module, error) {
	contents, err := p.Load(id)
	if err != nil {
		return nil, err
	}

	module := &Module{ID: id, Code: contents}
	var specifiers []string

	result, err := p.Transform(contents, id)
	if err != nil {
		return nil, err
	}

	if result != nil {
		module.Code = result.Code
		module.SourceMap = result.SourceMap
		module.Converted = true
		module.NamedExports = result.NamedExports

		// These are the imports of the emitted prologue
		specifiers = append(specifiers, commonjs.HelpersID)
		specifiers = append(specifiers, result.Dependencies...)
		for _, dep := range result.Dependencies {
			specifiers = append(specifiers, commonjs.ProxyPrefix+dep)
		}
	} else {
		source := logger.Source{
			KeyPath:    logger.Path{Text: id, Namespace: "file"},
			PrettyPath: id,
			Contents:   contents,
		}
		// Only CommonJS modules have to parse. Anything else is passed along
		// untouched, so a module the grammar rejects just has no imports.
		ast, err := js_parser.Parse(logger.NewDeferLog(), source)
		if err != nil {
			var parseErr *js_parser.ParseError
			if errors.As(err, &parseErr) {
				p.log.AddRangeWarning(&source, parseErr.Range, "Ignoring the imports of a module that could not be parsed: "+parseErr.Text)
			} else {
				p.log.AddWarning(&source, logger.Loc{}, "Ignoring the imports of a module that could not be parsed: "+err.Error())
			}
			logger.Zap().Debug("skipped unparsable module", zap.String("id", id), zap.Error(err))
			return module, nil
		}
		specifiers = ast.ImportSpecifiers()
		ast.Close()
	}

	for _, specifier := range specifiers {
		module.Imports = append(module.Imports, p.resolveImport(specifier, id))
	}
	return module, nil
}

func (p *Plugin) resolveImport(specifier string, importer string) Import {
	if resolved, ok := p.ResolveID(specifier, importer); ok {
		return Import{Specifier: specifier, ID: resolved}
	}
	return Import{Specifier: specifier, ID: specifier, External: true}
}

func (p *Plugin) processSynthetic(id string) (*Module, error) {
	contents, err := p.Load(id)
	if err != nil {
		return nil, err
	}

	module := &Module{ID: id, Code: contents, Synthetic: true}
	switch {
	case strings.HasPrefix(id, commonjs.ProxyPrefix):
		actualID := id[len(commonjs.ProxyPrefix):]
		module.Imports = []Import{{Specifier: actualID, ID: actualID}}

	case strings.HasPrefix(id, commonjs.ExternalPrefix):
		actualID := id[len(commonjs.ExternalPrefix):]
		module.Imports = []Import{{Specifier: actualID, ID: actualID, External: true}}
	}
	return module, nil
}

type metadataImport struct {
	Path     string `json:"path"`
	External bool   `json:"external,omitempty"`
}

type metadataModule struct {
	Converted    bool             `json:"converted"`
	Synthetic    bool             `json:"synthetic,omitempty"`
	Bytes        int              `json:"bytes"`
	Imports      []metadataImport `json:"imports"`
	NamedExports []string         `json:"namedExports,omitempty"`
}

// MetadataJSON summarizes the graph. File ids are passed through "rel" if
// it's not nil, and the NUL character of synthetic ids is shown as "\0".
func (g *Graph) MetadataJSON(rel func(id string) string) []byte {
	pretty := func(id string) string {
		if strings.HasPrefix(id, "\x00") {
			return "\\0" + id[1:]
		}
		if rel != nil {
			return rel(id)
		}
		return id
	}

	modules := make(map[string]metadataModule, len(g.Modules))
	for _, m := range g.Modules {
		imports := []metadataImport{}
		for _, record := range m.Imports {
			imports = append(imports, metadataImport{Path: pretty(record.ID), External: record.External})
		}
		modules[pretty(m.ID)] = metadataModule{
			Converted:    m.Converted,
			Synthetic:    m.Synthetic,
			Bytes:        len(m.Code),
			Imports:      imports,
			NamedExports: m.NamedExports,
		}
	}

	order := make([]string, 0, len(g.Modules))
	for _, m := range g.Modules {
		order = append(order, pretty(m.ID))
	}

	bytes, err := json.MarshalIndent(struct {
		Entry   string                    `json:"entry"`
		Order   []string                  `json:"order"`
		Modules map[string]metadataModule `json:"modules"`
	}{pretty(g.Entry), order, modules}, "", "  ")
	if err != nil {
		panic("Internal error: " + err.Error())
	}
	return bytes
}
