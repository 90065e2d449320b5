package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/pkg/api"
)

var (
	graphInclude      []string
	graphExclude      []string
	graphExtensions   string
	graphNamedExports []string
	graphNodeModules  bool
	graphOutfile      string
	graphOutdir       string
)

var graphCmd = &cobra.Command{
	Use:   "graph <entry>",
	Short: "Convert every module reachable from an entry point",
	Long: `Walk the module graph starting at an entry point, converting each CommonJS
module that is reached. A JSON summary of the graph is written to stdout or
to --outfile. With --outdir the code of every file in the graph is written
there, laid out relative to the working directory.

Examples:
  cjsesm graph src/index.js
  cjsesm graph src/index.js --node-modules --named-exports react=createElement,Component
  cjsesm graph src/index.js --exclude 'vendor/**' --outdir out`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	flags := graphCmd.Flags()
	flags.StringSliceVar(&graphInclude, "include", nil, "Only convert modules matching these globs")
	flags.StringSliceVar(&graphExclude, "exclude", nil, "Never convert modules matching these globs")
	flags.StringVar(&graphExtensions, "extensions", "", "Comma-separated extensions to convert (default \".js\")")
	flags.StringArrayVar(&graphNamedExports, "named-exports", nil, "Extra named exports as \"module=name,name\" (repeatable)")
	flags.BoolVar(&graphNodeModules, "node-modules", false, "Resolve bare imports through node_modules")
	flags.Bool("ignore-global", false, "Leave \"global\" and top-level \"this\" alone")
	flags.Bool("sourcemap", true, "Generate source maps for converted modules")
	flags.StringVarP(&graphOutfile, "outfile", "o", "", "Write the graph summary to this file")
	flags.StringVar(&graphOutdir, "outdir", "", "Write the code of every module to this directory")
	flags.String("log-level", "info", "One of info, warning, error or silent")
}

func runGraph(cmd *cobra.Command, args []string) error {
	options, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if graphExtensions != "" {
		if options.Extensions, err = config.ParseExtensions(graphExtensions); err != nil {
			return err
		}
	}
	namedExports := make(map[string][]string)
	for _, text := range graphNamedExports {
		if err := config.ParseNamedExports(text, namedExports); err != nil {
			return err
		}
	}

	result := api.ScanGraph(api.GraphOptions{
		Entry:        args[0],
		Include:      graphInclude,
		Exclude:      graphExclude,
		Extensions:   options.Extensions,
		IgnoreGlobal: options.IgnoreGlobal,
		Sourcemap:    options.SourceMap,
		NodeModules:  graphNodeModules,
		NamedExports: namedExports,
		LogLevel:     apiLogLevel(options.LogLevel),
	})
	if len(result.Errors) > 0 {
		// Errors with a location were printed during the scan
		for _, msg := range result.Errors {
			if msg.Location == nil {
				return errors.New(msg.Text)
			}
		}
		return errors.New("graph scan failed")
	}

	if graphOutdir != "" {
		if err := writeModules(graphOutdir, result.Modules); err != nil {
			return err
		}
	}

	metadata := append(result.Metadata, '\n')
	if graphOutfile == "" {
		_, err = cmd.OutOrStdout().Write(metadata)
		return err
	}
	return os.WriteFile(graphOutfile, metadata, 0644)
}

func writeModules(outdir string, modules []api.GraphModule) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	for _, m := range modules {
		if m.Synthetic {
			continue
		}
		rel, err := filepath.Rel(cwd, filepath.FromSlash(m.ID))
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(m.ID)
		}
		outPath := filepath.Join(outdir, rel)
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return err
		}
		code := m.Code
		if m.Map != nil {
			if err := os.WriteFile(outPath+".map", m.Map, 0644); err != nil {
				return err
			}
			code += "\n//# sourceMappingURL=" + filepath.Base(outPath) + ".map\n"
		}
		if err := os.WriteFile(outPath, []byte(code), 0644); err != nil {
			return err
		}
	}
	return nil
}
