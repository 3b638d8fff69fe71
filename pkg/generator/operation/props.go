package operation

import (
	"fmt"
	"sort"

	"github.com/blimu-dev/client-gen/pkg/ir"
)

// buildProps collects the arguments of the generated function: path
// parameters, the body, then the query and header groups. The result is
// stably sorted so no required argument follows an optional or defaulted
// one.
func buildProps(v *ir.VerbOption) []ir.Prop {
	var props []ir.Prop
	for _, p := range v.PathParams {
		prop := ir.Prop{
			Name:           p.Identifier,
			Definition:     p.Identifier + ": " + p.TypeValue,
			Implementation: p.Identifier + ": " + p.TypeValue,
			Default:        p.Default,
			Required:       true,
			Type:           ir.PropParam,
		}
		if p.Default != "" {
			prop.Implementation += " = " + p.Default
		}
		props = append(props, prop)
	}
	if v.Body.Definition != "" {
		props = append(props, optionalProp(v.Body.Implementation, v.Body.Definition, !v.Body.IsOptional, ir.PropBody))
	}
	if g := v.QueryParams; g != nil {
		props = append(props, optionalProp("params", g.Name, !g.Optional, ir.PropQueryParam))
	}
	if g := v.Headers; g != nil {
		props = append(props, optionalProp("headers", g.Name, !g.Optional, ir.PropHeader))
	}

	sort.SliceStable(props, func(i, j int) bool {
		return propRank(props[i]) < propRank(props[j])
	})
	return props
}

func optionalProp(name, typ string, required bool, kind ir.PropType) ir.Prop {
	sep := ": "
	if !required {
		sep = "?: "
	}
	return ir.Prop{
		Name:           name,
		Definition:     name + sep + typ,
		Implementation: name + sep + typ,
		Required:       required,
		Type:           kind,
	}
}

// propRank orders required arguments without a default first, then required
// arguments with one, then optional arguments.
func propRank(p ir.Prop) int {
	switch {
	case p.Required && p.Default == "":
		return 0
	case p.Required:
		return 1
	}
	return 2
}

// fixedArgs are identifiers the generated functions bind regardless of the
// operation's parameters.
var fixedArgs = []string{"params", "headers", "options", "signal"}

// uniqueIdentifiers renames path parameters whose identifiers collide with a
// fixed argument, the body argument or each other by appending a counter.
func uniqueIdentifiers(params []ir.Param, body string) {
	taken := map[string]struct{}{body: {}}
	for _, name := range fixedArgs {
		taken[name] = struct{}{}
	}
	for i := range params {
		base := params[i].Identifier
		id := base
		for n := 1; ; n++ {
			if _, ok := taken[id]; !ok {
				break
			}
			id = fmt.Sprintf("%s%d", base, n)
		}
		taken[id] = struct{}{}
		params[i].Identifier = id
	}
}
