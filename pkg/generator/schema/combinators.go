package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/ir"
)

// synthCombined handles allOf, oneOf and anyOf. Sibling properties merge
// into the allOf object; the three parts are intersected.
func (s *Synthesizer) synthCombined(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	branches := make(openapi3.SchemaRefs, 0, len(sch.AllOf)+len(sch.OneOf)+len(sch.AnyOf))
	branches = append(branches, sch.AllOf...)
	branches = append(branches, sch.OneOf...)
	branches = append(branches, sch.AnyOf...)
	if len(sch.Properties) == 0 && s.allEnums(branches, ctx) {
		return s.enumUnion(branches, ctx)
	}

	var (
		out   = result{TypeIR: ir.TypeIR{Type: ir.TypeUnknown}}
		parts []result
	)
	if len(sch.AllOf) > 0 || len(sch.Properties) > 0 {
		r, err := s.intersection(sch, ctx, name)
		if err != nil {
			return result{}, err
		}
		parts = append(parts, r)
	}
	if len(sch.OneOf) > 0 {
		r, err := s.union(sch.OneOf, "OneOf", ctx, name)
		if err != nil {
			return result{}, err
		}
		parts = append(parts, r)
	}
	if len(sch.AnyOf) > 0 {
		r, err := s.union(sch.AnyOf, "AnyOf", ctx, name)
		if err != nil {
			return result{}, err
		}
		parts = append(parts, r)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		v := p.Value
		if strings.Contains(v, "|") {
			v = "(" + v + ")"
		}
		values = append(values, v)
		out.Imports = append(out.Imports, p.Imports...)
		out.Schemas = append(out.Schemas, p.Schemas...)
		out.HasReadonlyProps = out.HasReadonlyProps || p.HasReadonlyProps
	}
	out.Value = strings.Join(values, " & ")
	return out, nil
}

// intersection merges inline object branches of allOf, together with the
// node's own properties, into one object literal and intersects it with the
// remaining branches.
func (s *Synthesizer) intersection(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	merged := map[string]*openapi3.SchemaRef{}
	var required []string
	var ap openapi3.AdditionalProperties
	objectAt := -1

	var parts []result
	mergeObject := func(o *openapi3.Schema) {
		for k, v := range o.Properties {
			merged[k] = v
		}
		required = append(required, o.Required...)
		if hasAdditionalProperties(o) {
			ap = o.AdditionalProperties
		}
		if objectAt < 0 {
			objectAt = len(parts)
			parts = append(parts, result{})
		}
	}

	for _, branch := range sch.AllOf {
		if branch != nil && branch.Ref == "" && branch.Value != nil && isPlainObject(branch.Value) {
			mergeObject(branch.Value)
			continue
		}
		r, err := s.synth(branch, ctx.WithSpecKey(ctx.SpecKey), "")
		if err != nil {
			return result{}, err
		}
		parts = append(parts, r)
	}
	if len(sch.Properties) > 0 {
		mergeObject(sch)
	}

	if objectAt >= 0 {
		r, err := s.objectLiteral(merged, required, ap, ctx, name)
		if err != nil {
			return result{}, err
		}
		parts[objectAt] = r
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	out := result{TypeIR: ir.TypeIR{Type: ir.TypeObject}}
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		v := p.Value
		if strings.Contains(v, "|") {
			v = "(" + v + ")"
		}
		values = append(values, v)
		out.Imports = append(out.Imports, p.Imports...)
		out.Schemas = append(out.Schemas, p.Schemas...)
		out.HasReadonlyProps = out.HasReadonlyProps || p.HasReadonlyProps
	}
	out.Value = strings.Join(values, " & ")
	return out, nil
}

// union renders oneOf/anyOf branches. Inline object branches are hoisted as
// <Name><label><N>.
func (s *Synthesizer) union(branches openapi3.SchemaRefs, label string, ctx Context, name string) (result, error) {
	out := result{TypeIR: ir.TypeIR{Type: ir.TypeUnknown}}
	values := make([]string, 0, len(branches))
	seen := map[string]struct{}{}
	for i, branch := range branches {
		branchName := ""
		if name != "" && branch != nil && branch.Ref == "" && branch.Value != nil && isObjectLike(branch.Value) {
			branchName = fmt.Sprintf("%s%s%d", name, label, i+1)
		}
		r, err := s.synth(branch, ctx.WithSpecKey(ctx.SpecKey), branchName)
		if err != nil {
			return result{}, err
		}
		r = s.hoist(r, ctx, branchName)
		out.Imports = append(out.Imports, r.Imports...)
		out.Schemas = append(out.Schemas, r.Schemas...)
		out.HasReadonlyProps = out.HasReadonlyProps || r.HasReadonlyProps
		if _, dup := seen[r.Value]; dup {
			continue
		}
		seen[r.Value] = struct{}{}
		values = append(values, r.Value)
	}
	out.Value = strings.Join(values, " | ")
	if len(values) == 1 {
		out.Type = ir.TypeObject
	}
	return out, nil
}

// synthMappedUnion builds the union of the variants named by a
// discriminator mapping when the schema lists no oneOf/anyOf.
func (s *Synthesizer) synthMappedUnion(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	keys := make([]string, 0, len(sch.Discriminator.Mapping))
	for k := range sch.Discriminator.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var branches openapi3.SchemaRefs
	seen := map[string]struct{}{}
	for _, k := range keys {
		ref := mappingRef(sch.Discriminator.Mapping[k])
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		branches = append(branches, &openapi3.SchemaRef{Ref: ref})
	}
	return s.union(branches, "OneOf", ctx, name)
}

func (s *Synthesizer) allEnums(branches openapi3.SchemaRefs, ctx Context) bool {
	if len(branches) == 0 {
		return false
	}
	for _, b := range branches {
		switch {
		case b == nil:
			return false
		case b.Ref != "":
			resolved, err := s.resolver.Lookup(b.Ref, ctx.SpecKey)
			if err != nil {
				return false
			}
			target := s.refTarget(resolved)
			if target == nil || !isEnumSchema(target) {
				return false
			}
		case b.Value == nil || !isEnumSchema(b.Value):
			return false
		}
	}
	return true
}

// isPlainObject reports whether an inline allOf branch can merge into the
// combined object literal.
func isPlainObject(sch *openapi3.Schema) bool {
	if len(sch.AllOf) > 0 || len(sch.OneOf) > 0 || len(sch.AnyOf) > 0 || len(sch.Enum) > 0 {
		return false
	}
	if len(sch.Properties) > 0 {
		return true
	}
	types := NonNullTypes(sch)
	return len(types) == 1 && types[0] == openapi3.TypeObject && !sch.Nullable
}

func isObjectLike(sch *openapi3.Schema) bool {
	return len(sch.Properties) > 0 || len(sch.AllOf) > 0 || hasAdditionalProperties(sch)
}

// mappingRef normalizes a discriminator mapping value, which may be a bare
// schema name, into a reference.
func mappingRef(v string) string {
	if strings.ContainsAny(v, "#/.") {
		return v
	}
	return "#/components/schemas/" + v
}
