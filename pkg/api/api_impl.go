package api

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/bundler"
	"github.com/cjsesm/cjsesm/internal/cache"
	"github.com/cjsesm/cjsesm/internal/commonjs"
	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/logger"
)

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func convertMessages(msgs []logger.Msg) (errors []Message, warnings []Message) {
	for _, msg := range msgs {
		var location *Location
		if loc := msg.Location; loc != nil {
			location = &Location{
				File:     loc.File,
				Line:     loc.Line,
				Column:   loc.Column,
				Length:   loc.Length,
				LineText: loc.LineText,
			}
		}
		converted := Message{Text: msg.Text, Location: location}
		switch msg.Kind {
		case logger.Error:
			errors = append(errors, converted)
		case logger.Warning:
			warnings = append(warnings, converted)
		}
	}
	return
}

// Errors that the log doesn't already know about become messages without a
// location. Parse errors have already been reported with one.
func appendError(list []Message, err error) []Message {
	var parseErr *commonjs.ParseError
	if errors.As(err, &parseErr) {
		return list
	}
	return append(list, Message{Text: err.Error()})
}

////////////////////////////////////////////////////////////////////////////////
// Transform API

func transformImpl(input string, options TransformOptions) TransformResult {
	log := logger.NewDeferLog()

	if options.Sourcefile == "" {
		options.Sourcefile = "<stdin>"
	}
	source := logger.Source{
		KeyPath:    logger.Path{Text: options.Sourcefile, Namespace: "file"},
		PrettyPath: options.Sourcefile,
		Contents:   input,
	}

	result, err := commonjs.Transform(log, source, commonjs.Options{
		IsEntry:      options.IsEntry,
		IgnoreGlobal: options.IgnoreGlobal,
		NamedExports: options.NamedExports,
		SourceMap:    options.Sourcemap,
	})

	msgs := log.Done()
	errs, warnings := convertMessages(msgs)
	if err != nil {
		logger.Zap().Debug("transform failed", zap.String("id", options.Sourcefile), zap.Error(err))
		return TransformResult{Errors: appendError(errs, err), Warnings: warnings}
	}

	out := TransformResult{Errors: errs, Warnings: warnings}
	if result != nil {
		out.Converted = true
		out.Code = result.Code
		out.Dependencies = result.Dependencies
		out.NamedExports = result.NamedExports
		if result.SourceMap != nil {
			out.Map = result.SourceMap.JSON()
		}
	}
	return out
}

////////////////////////////////////////////////////////////////////////////////
// Graph API

func scanGraphImpl(options GraphOptions) GraphResult {
	log := logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		ErrorLimit:    10,
		Color:         logger.ColorIfTerminal,
		LogLevel:      validateLogLevel(options.LogLevel),
	})

	realFS := fs.RealFS()
	extensions := options.Extensions
	if len(extensions) == 0 {
		extensions = config.DefaultOptions().Extensions
	}

	plugin, err := bundler.NewPlugin(realFS, log, cache.MakeCacheSet(cache.DefaultSize), config.Options{
		Include:      options.Include,
		Exclude:      options.Exclude,
		Extensions:   extensions,
		IgnoreGlobal: options.IgnoreGlobal,
		SourceMap:    options.Sourcemap,
		NamedExports: options.NamedExports,
		NodeModules:  options.NodeModules,
		Entry:        options.Entry,
	})

	var graph *bundler.Graph
	if err == nil {
		graph, err = plugin.ScanGraph(context.Background())
	}

	errs, warnings := convertMessages(log.Done())
	if err != nil {
		return GraphResult{Errors: appendError(errs, err), Warnings: warnings}
	}

	out := GraphResult{Errors: errs, Warnings: warnings, Entry: graph.Entry}
	for _, m := range graph.Modules {
		module := GraphModule{
			ID:           m.ID,
			Code:         m.Code,
			Converted:    m.Converted,
			Synthetic:    m.Synthetic,
			NamedExports: m.NamedExports,
		}
		if m.SourceMap != nil {
			module.Map = m.SourceMap.JSON()
		}
		for _, record := range m.Imports {
			module.Imports = append(module.Imports, record.ID)
		}
		out.Modules = append(out.Modules, module)
	}

	cwd := realFS.Cwd()
	out.Metadata = graph.MetadataJSON(func(id string) string {
		if rel, ok := realFS.Rel(cwd, id); ok {
			return rel
		}
		return id
	})
	return out
}
