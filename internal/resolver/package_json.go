package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/logger"
)

type packageJSON struct {
	// The absolute path of the "main" file without probing, or empty
	absMain string
}

func (r *Resolver) parsePackageJSON(dir string) *packageJSON {
	packageJSONPath := r.fs.Join(dir, "package.json")
	if fs.Kind(r.fs, packageJSONPath) != fs.FileEntry {
		return nil
	}

	contents, err := r.caches.FSCache.ReadFile(r.fs, packageJSONPath)
	if err != nil {
		r.log.AddError(nil, logger.Loc{}, fmt.Sprintf("Cannot read file %q: %s", packageJSONPath, err.Error()))
		return nil
	}

	var fields struct {
		Main json.RawMessage `json:"main"`
	}
	if err := json.Unmarshal([]byte(contents), &fields); err != nil {
		source := logger.Source{
			KeyPath:    logger.Path{Text: packageJSONPath, Namespace: "file"},
			PrettyPath: packageJSONPath,
			Contents:   contents,
		}
		r.log.AddWarning(&source, logger.Loc{}, fmt.Sprintf("Cannot parse package.json: %s", err.Error()))
		return &packageJSON{}
	}

	result := &packageJSON{}
	var main string
	if len(fields.Main) > 0 && json.Unmarshal(fields.Main, &main) == nil {
		if main = strings.TrimSpace(main); main != "" {
			result.absMain = r.fs.Join(dir, main)
		}
	}
	return result
}
