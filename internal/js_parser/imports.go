package js_parser

// ImportSpecifiers returns the literal specifiers of the static "import" and
// "export ... from" declarations of a module, in source order and without
// duplicates. Dynamic "import()" calls are not included.
func (ast *AST) ImportSpecifiers() []string {
	var specifiers []string
	seen := make(map[string]bool)

	for _, stmt := range NamedChildren(ast.Root) {
		switch stmt.Type() {
		case "import_statement", "export_statement":
			value, ok := ast.StringValue(stmt.ChildByFieldName("source"))
			if ok && !seen[value] {
				seen[value] = true
				specifiers = append(specifiers, value)
			}
		}
	}

	return specifiers
}
