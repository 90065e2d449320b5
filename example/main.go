package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cjsesm/cjsesm/internal/bundler"
	"github.com/cjsesm/cjsesm/internal/cache"
	"github.com/cjsesm/cjsesm/internal/config"
	"github.com/cjsesm/cjsesm/internal/fs"
	"github.com/cjsesm/cjsesm/internal/logger"
)

// Converts the graph of the entry point given on the command line with an
// alias hook in front of the built-in resolver. Run it from the directory
// that holds the "shims" folder:
//
//	go run ./example src/index.js
func main() {
	realFS := fs.RealFS()
	shims := realFS.Join(realFS.Cwd(), "shims")

	// "node:events" and friends resolve to "shims/events.js" when a shim exists
	alias := func(importee string, importer string) (string, bool) {
		if !strings.HasPrefix(importee, "node:") {
			return "", false
		}
		shim := realFS.Join(shims, importee[len("node:"):]+".js")
		if fs.Kind(realFS, shim) != fs.FileEntry {
			return "", false
		}
		return shim, true
	}

	options := config.DefaultOptions()
	options.Entry = os.Args[1]
	options.NodeModules = true

	log := logger.NewStderrLog(logger.StderrOptions{IncludeSource: true, LogLevel: logger.LevelWarning})
	plugin, err := bundler.NewPlugin(realFS, log, cache.MakeCacheSet(cache.DefaultSize), options, alias)
	if err != nil {
		fmt.Println("[ERROR] ", err.Error())
		os.Exit(1)
	}

	graph, err := plugin.ScanGraph(context.Background())
	log.Done()
	if err != nil {
		fmt.Println("[ERROR] ", err.Error())
		os.Exit(1)
	}
	for _, module := range graph.Modules {
		if module.Converted {
			fmt.Printf("// %s\n%s\n", module.ID, module.Code)
		}
	}
}
