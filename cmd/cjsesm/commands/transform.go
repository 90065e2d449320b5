package commands

import (
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cjsesm/cjsesm/pkg/api"
)

var (
	transformEntry        bool
	transformNamedExports []string
	transformOutfile      string
	transformSourcefile   string
)

var transformCmd = &cobra.Command{
	Use:   "transform [file]",
	Short: "Convert a single CommonJS module",
	Long: `Convert a single CommonJS module to an ES module. The input is read from
stdin when no file is given. Modules that don't look like CommonJS are
written out unchanged.

Examples:
  cjsesm transform lib.js                         # Output to stdout
  cjsesm transform lib.js -o lib.mjs --sourcemap  # Output with lib.mjs.map
  cjsesm transform --named-exports foo,bar < lib.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

func init() {
	flags := transformCmd.Flags()
	flags.BoolVar(&transformEntry, "entry", false, "Treat the module as the entry point")
	flags.Bool("ignore-global", false, "Leave \"global\" and top-level \"this\" alone")
	flags.Bool("sourcemap", true, "Generate a source map (linked with --outfile, inline otherwise)")
	flags.StringSliceVar(&transformNamedExports, "named-exports", nil, "Extra named exports to emit")
	flags.StringVarP(&transformOutfile, "outfile", "o", "", "Write the output to this file")
	flags.StringVar(&transformSourcefile, "sourcefile", "", "The module id to use for stdin input")
	flags.String("log-level", "info", "One of info, warning, error or silent")
}

func runTransform(cmd *cobra.Command, args []string) error {
	options, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	var input []byte
	sourcefile := transformSourcefile
	if len(args) > 0 {
		if input, err = os.ReadFile(args[0]); err != nil {
			return err
		}
		if sourcefile == "" {
			if abs, err := filepath.Abs(args[0]); err == nil {
				sourcefile = filepath.ToSlash(abs)
			} else {
				sourcefile = args[0]
			}
		}
	} else if input, err = io.ReadAll(cmd.InOrStdin()); err != nil {
		return err
	}

	result := api.Transform(string(input), api.TransformOptions{
		Sourcefile:   sourcefile,
		IsEntry:      transformEntry,
		IgnoreGlobal: options.IgnoreGlobal,
		NamedExports: transformNamedExports,
		Sourcemap:    options.SourceMap,
	})
	printMessages(options.LogLevel, result.Errors, result.Warnings)
	if len(result.Errors) > 0 {
		return errors.New("transform failed")
	}

	code := string(input)
	if result.Converted {
		code = result.Code
		if result.Map != nil {
			code += sourceMapComment(result.Map)
		}
	}

	if transformOutfile == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), code)
		return err
	}
	if result.Converted && result.Map != nil {
		if err := os.WriteFile(transformOutfile+".map", result.Map, 0644); err != nil {
			return err
		}
	}
	return os.WriteFile(transformOutfile, []byte(code), 0644)
}

func sourceMapComment(sourceMap []byte) string {
	if transformOutfile != "" {
		return "\n//# sourceMappingURL=" + filepath.Base(transformOutfile) + ".map\n"
	}
	return "\n//# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(sourceMap) + "\n"
}
