package output

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/huandu/xstrings"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

var identPattern = regexp.MustCompile(`[\p{L}_$][\p{L}\p{N}_$]*`)

// identifiers collects the names a body refers to. Property accesses
// (`a.name`) are skipped; spreads (`...name`) are kept.
func identifiers(body string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, loc := range identPattern.FindAllStringIndex(body, -1) {
		start := loc[0]
		if start > 0 {
			prev := body[start-1]
			if prev >= '0' && prev <= '9' {
				continue
			}
			if prev == '.' && !strings.HasSuffix(body[:start], "...") {
				continue
			}
		}
		out[body[start:loc[1]]] = struct{}{}
	}
	return out
}

// dependencyImports renders one import per package, keeping the exports
// the body mentions.
func dependencyImports(deps []ir.GeneratorDependency, used map[string]struct{}) []string {
	var order []string
	exports := map[string][]ir.DependencyExport{}
	seen := map[string]struct{}{}
	for _, d := range deps {
		if _, ok := exports[d.Dependency]; !ok {
			order = append(order, d.Dependency)
			exports[d.Dependency] = nil
		}
		for _, e := range d.Exports {
			key := d.Dependency + "|" + e.Name
			if e.Default {
				key += "|default"
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			exports[d.Dependency] = append(exports[d.Dependency], e)
		}
	}

	var lines []string
	for _, dep := range order {
		var def string
		var named []string
		typesOnly := true
		for _, e := range exports[dep] {
			local := e.Name
			if e.Alias != "" {
				local = e.Alias
			}
			if _, ok := used[local]; !ok {
				continue
			}
			if e.Default {
				def = local
				continue
			}
			spec := e.Name
			if e.Alias != "" {
				spec += " as " + e.Alias
			}
			if e.Values {
				typesOnly = false
			} else {
				spec = "type " + spec
			}
			named = append(named, spec)
		}
		lines = appendImport(lines, def, named, typesOnly, dep)
	}
	return lines
}

// schemaImports renders the imports of declarations from module, relative
// to the importing file, keeping the ones the body uses.
func schemaImports(from, module string, imports []ir.Import, used map[string]struct{}) []string {
	var named []string
	typesOnly := true
	for _, imp := range ir.DedupImports(imports) {
		local := imp.Name
		if imp.Alias != "" {
			local = imp.Alias
		}
		if _, ok := used[local]; !ok {
			continue
		}
		spec := imp.Name
		if imp.Alias != "" {
			spec += " as " + imp.Alias
		}
		if imp.Values {
			typesOnly = false
		} else {
			spec = "type " + spec
		}
		named = append(named, spec)
	}
	return appendImport(nil, "", named, typesOnly, relativeModule(from, module))
}

// mutatorImports renders the imports of user mutators, relative to the
// importing file.
func mutatorImports(from string, mutators []*ir.Mutator) []string {
	var lines []string
	seen := map[string]struct{}{}
	for _, m := range mutators {
		key := m.Name + "|" + m.Path
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		module := relativeModule(from, strings.TrimSuffix(m.Path, filepath.Ext(m.Path)))
		if m.Default {
			lines = append(lines, "import "+m.Name+" from "+utils.StringLiteral(module)+";")
		} else {
			lines = append(lines, "import {"+m.Name+"} from "+utils.StringLiteral(module)+";")
		}
	}
	return lines
}

func appendImport(lines []string, def string, named []string, typesOnly bool, module string) []string {
	switch {
	case def == "" && len(named) == 0:
		return lines
	case def == "" && typesOnly:
		for i, n := range named {
			named[i] = strings.TrimPrefix(n, "type ")
		}
		return append(lines, "import type {"+strings.Join(named, ", ")+"} from "+utils.StringLiteral(module)+";")
	}
	var clauses []string
	if def != "" {
		clauses = append(clauses, def)
	}
	if len(named) > 0 {
		clauses = append(clauses, "{"+strings.Join(named, ", ")+"}")
	}
	return append(lines, "import "+strings.Join(clauses, ", ")+" from "+utils.StringLiteral(module)+";")
}

// relativeModule is the import specifier of module (a path without
// extension) from the file at from.
func relativeModule(from, module string) string {
	rel, err := filepath.Rel(filepath.Dir(from), module)
	if err != nil {
		return filepath.ToSlash(module)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// schemaFile is the file name of one declaration in a schemas directory.
func schemaFile(name string) string {
	return xstrings.FirstRuneToLower(name)
}
