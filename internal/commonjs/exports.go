package commonjs

import (
	"strings"

	"github.com/cjsesm/cjsesm/internal/helpers"
	"github.com/cjsesm/cjsesm/internal/patcher"
	"github.com/cjsesm/cjsesm/internal/runtime"
)

// Names that can't be exported as "export var <name>"
var blacklistedExports = func() map[string]bool {
	result := map[string]bool{"__esModule": true}
	for _, word := range helpers.ReservedWords {
		result[word] = true
	}
	return result
}()

// exportPlan is everything that goes around the module body
type exportPlan struct {
	intro        string
	outro        string
	namedExports []string
}

func (c *classifier) plan(moduleName string) exportPlan {
	h := c.helpersName

	// Dependencies are imported for their side effects first, which makes
	// them run before the proxies that decide how to expose them
	imports := []string{"import * as " + h + " from " + helpers.QuoteSingle(HelpersID) + ";"}
	for _, source := range c.sources {
		imports = append(imports, "import "+helpers.QuoteSingle(source)+";")
	}
	for _, source := range c.sources {
		dep := c.required[source]
		if dep.importsDefault {
			imports = append(imports, "import "+dep.name+" from "+helpers.QuoteSingle(ProxyPrefix+source)+";")
		} else {
			imports = append(imports, "import "+helpers.QuoteSingle(ProxyPrefix+source)+";")
		}
	}

	args := "module"
	if c.uses.exports {
		args += ", exports"
	}
	wrapperStart := "\n\nvar " + moduleName + " = " + h + "." + runtime.CreateName + "(function (" + args + ") {\n"
	wrapperEnd := "\n});\n\n"

	var exportBlock []string
	if !c.options.IsEntry {
		exportBlock = append(exportBlock, "export { "+moduleName+" as __moduleExports };")
	}

	// A plain substring test. A module that mentions "__esModule" anywhere,
	// even in a comment, is treated as transpiled ES module output.
	if strings.Contains(c.ast.Source.Contents, "__esModule") {
		exportBlock = append(exportBlock, "export default "+h+"."+runtime.UnwrapName+"("+moduleName+");\n")
	} else {
		exportBlock = append(exportBlock, "export default "+moduleName+";\n")
	}

	var named []string
	for _, name := range c.namedExportsOrder {
		if blacklistedExports[name] {
			continue
		}
		named = append(named, name)
		if name == moduleName {
			exportBlock = append(exportBlock, "var "+name+"$$1 = "+moduleName+"."+name+";\nexport { "+name+"$$1 as "+name+" };")
		} else {
			exportBlock = append(exportBlock, "export var "+name+" = "+moduleName+"."+name+";")
		}
	}

	return exportPlan{
		intro:        strings.Join(imports, "\n") + wrapperStart,
		outro:        wrapperEnd + strings.Join(exportBlock, "\n"),
		namedExports: named,
	}
}

func (plan exportPlan) apply(p *patcher.Patcher) {
	p.Trim()
	p.Prepend(plan.intro)
	p.Append(plan.outro)
}
