package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cjsesm/cjsesm/internal/logger"
)

type Options struct {
	// Glob patterns over module ids. Relative patterns are relative to the
	// working directory. An empty include list includes everything.
	Include []string
	Exclude []string

	// Only files with one of these extensions are converted
	Extensions []string

	IgnoreGlobal bool
	SourceMap    bool

	// Extra named exports per module. Keys are resolved like imports from
	// the working directory.
	NamedExports map[string][]string

	// Resolve bare specifiers through "node_modules" instead of leaving them
	// external
	NodeModules bool

	Entry    string
	LogLevel logger.LogLevel
}

func DefaultOptions() Options {
	return Options{
		Extensions: []string{".js"},
		SourceMap:  true,
		LogLevel:   logger.LevelInfo,
	}
}

// Environment variables that provide defaults for command-line flags
const (
	EnvIgnoreGlobal = "CJSESM_IGNORE_GLOBAL"
	EnvSourceMap    = "CJSESM_SOURCEMAP"
	EnvExtensions   = "CJSESM_EXTENSIONS"
	EnvLogLevel     = "CJSESM_LOG_LEVEL"
)

// LoadEnv applies environment variables to the options, after loading any
// ".env" files. Missing files are ignored. Variables already set in the
// environment win over ones from files.
func LoadEnv(options *Options, files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	if len(files) == 0 {
		_ = godotenv.Load()
	}

	if raw, ok := lookupEnv(EnvIgnoreGlobal); ok {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", EnvIgnoreGlobal, raw)
		}
		options.IgnoreGlobal = value
	}

	if raw, ok := lookupEnv(EnvSourceMap); ok {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", EnvSourceMap, raw)
		}
		options.SourceMap = value
	}

	if raw, ok := lookupEnv(EnvExtensions); ok {
		extensions, err := ParseExtensions(raw)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvExtensions, err)
		}
		options.Extensions = extensions
	}

	if raw, ok := lookupEnv(EnvLogLevel); ok {
		level, ok := logger.ParseLogLevel(raw)
		if !ok {
			return fmt.Errorf("invalid %s value %q", EnvLogLevel, raw)
		}
		options.LogLevel = level
	}

	return nil
}

func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// ParseExtensions parses a comma-separated extension list like ".js,.cjs"
func ParseExtensions(text string) ([]string, error) {
	var extensions []string
	for _, ext := range strings.Split(text, ",") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("extension %q must start with \".\"", ext)
		}
		extensions = append(extensions, ext)
	}
	if len(extensions) == 0 {
		return nil, errors.New("no extensions given")
	}
	return extensions, nil
}

// ParseNamedExports parses "id=a,b" into a module key and its export names
func ParseNamedExports(text string, into map[string][]string) error {
	eq := strings.IndexByte(text, '=')
	if eq <= 0 {
		return fmt.Errorf("expected \"module=name,name\" but got %q", text)
	}
	key := strings.TrimSpace(text[:eq])
	for _, name := range strings.Split(text[eq+1:], ",") {
		if name = strings.TrimSpace(name); name != "" {
			into[key] = append(into[key], name)
		}
	}
	return nil
}
