// Package commands provides the command-line interface of cjsesm.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/internal/logger"
	"github.com/cjsesm/cjsesm/pkg/api"
)

var (
	verbose  bool
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "cjsesm",
	Short: "Convert CommonJS modules to ES modules",
	Long: `cjsesm rewrites CommonJS modules as ES modules so they can take part in
an ES module graph.

Usage:
  cjsesm transform lib.js -o lib.mjs     Convert a single module
  cjsesm graph src/index.js              Convert everything reachable from an entry`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger.SetZap(l)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Zap().Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(graphCmd)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Trace what the tool is doing on stderr")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment defaults from these files (default \".env\")")
}

// Flags win over the environment, which wins over the defaults
func loadOptions(cmd *cobra.Command) (config.Options, error) {
	options := config.DefaultOptions()
	if err := config.LoadEnv(&options, envFiles...); err != nil {
		return config.Options{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("ignore-global") {
		options.IgnoreGlobal, _ = flags.GetBool("ignore-global")
	}
	if flags.Changed("sourcemap") {
		options.SourceMap, _ = flags.GetBool("sourcemap")
	}
	if flags.Changed("log-level") {
		text, _ := flags.GetString("log-level")
		level, ok := logger.ParseLogLevel(text)
		if !ok {
			return config.Options{}, fmt.Errorf("invalid log level %q", text)
		}
		options.LogLevel = level
	}
	return options, nil
}

func apiLogLevel(level logger.LogLevel) api.LogLevel {
	switch level {
	case logger.LevelWarning:
		return api.LogLevelWarning
	case logger.LevelError:
		return api.LogLevelError
	case logger.LevelSilent:
		return api.LogLevelSilent
	default:
		return api.LogLevelInfo
	}
}

// Messages from the in-memory API are printed through a terminal log so
// they look the same as the ones printed while scanning a graph.
func printMessages(level logger.LogLevel, errors []api.Message, warnings []api.Message) {
	log := logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		Color:         logger.ColorIfTerminal,
		LogLevel:      level,
	})
	add := func(kind logger.MsgKind, msgs []api.Message) {
		for _, msg := range msgs {
			var location *logger.MsgLocation
			if loc := msg.Location; loc != nil {
				location = &logger.MsgLocation{
					File:     loc.File,
					Line:     loc.Line,
					Column:   loc.Column,
					Length:   loc.Length,
					LineText: loc.LineText,
				}
			}
			log.AddMsg(logger.Msg{Kind: kind, Text: msg.Text, Location: location})
		}
	}
	add(logger.Error, errors)
	add(logger.Warning, warnings)
	log.Done()
}
