package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/cjsesm/cjsesm/internal/fs"
)

// Filter decides which modules get converted. Ids that start with a NUL
// character belong to some plugin and never match.
type Filter struct {
	include []string
	exclude []string
}

func NewFilter(fs fs.FS, include []string, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = resolvePatterns(fs, include); err != nil {
		return nil, err
	}
	if f.exclude, err = resolvePatterns(fs, exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func resolvePatterns(fs fs.FS, patterns []string) ([]string, error) {
	resolved := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !fs.IsAbs(pattern) && !strings.HasPrefix(pattern, "**") {
			pattern = fs.Join(fs.Cwd(), pattern)
		}
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		resolved = append(resolved, pattern)
	}
	return resolved, nil
}

func (f *Filter) Match(id string) bool {
	if strings.HasPrefix(id, "\x00") {
		return false
	}
	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, id); ok {
			return false
		}
	}
	for _, pattern := range f.include {
		if ok, _ := doublestar.Match(pattern, id); ok {
			return true
		}
	}
	return len(f.include) == 0
}
