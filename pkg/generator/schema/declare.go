package schema

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-openapi/jsonpointer"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// hoist replaces a value that would read poorly inline with a named
// declaration. Values that are references, or that contain none of { & |,
// are returned unchanged, as is everything when name is empty.
func (s *Synthesizer) hoist(r result, ctx Context, name string) result {
	if name == "" || r.IsRef {
		return r
	}
	if !strings.ContainsAny(strings.TrimSuffix(r.Value, nullSuffix), "{&|") {
		return r
	}

	shape := r.Value
	if r.enum != nil {
		shape = "enum:" + shape
	}
	allocated, _ := s.resolver.Reserve(name, shape)
	if r.source != nil {
		s.enumTables[r.source] = ir.Import{Name: allocated, SpecKey: ctx.SpecKey, SchemaName: name, Values: true}
	}
	decl := ir.Schema{
		Name:    allocated,
		Model:   renderDeclaration(allocated, r, ""),
		Imports: ir.DedupImports(r.Imports),
		SpecKey: ctx.SpecKey,
	}
	return result{TypeIR: ir.TypeIR{
		Value:            allocated,
		Imports:          []ir.Import{{Name: allocated, SpecKey: ctx.SpecKey, SchemaName: name}},
		Schemas:          append([]ir.Schema{decl}, r.Schemas...),
		IsEnum:           r.IsEnum,
		Type:             r.Type,
		HasReadonlyProps: r.HasReadonlyProps,
	}}
}

// renderDeclaration renders the exported declaration of r under name.
func renderDeclaration(name string, r result, doc string) string {
	var b strings.Builder
	b.WriteString(utils.JSDoc("", doc))
	switch {
	case r.enum != nil:
		b.WriteString(renderEnumTable(name, r.enum, r.nullable))
	case r.literal && !r.nullable:
		b.WriteString("export interface " + name + " " + r.Value + "\n")
	default:
		b.WriteString("export type " + name + " = " + r.Value + ";\n")
		if r.IsRef && r.IsEnum {
			// keep the runtime value set reachable under the alias
			b.WriteString("\nexport const " + name + " = " + r.Value + ";\n")
		}
	}
	return b.String()
}

// Declare synthesizes the named declaration of a schema target. The target
// keeps the name the resolver allocated to it.
func (s *Synthesizer) Declare(resolved ir.ResolvedRef, node *openapi3.SchemaRef, ctx Context) ([]ir.Schema, error) {
	ctx = ctx.WithSpecKey(resolved.SpecKey)
	if node != nil && node.Ref == "" {
		ctx.inject = s.variantTag(resolved.Canonical())
	}
	r, err := s.synth(node, ctx, resolved.Name)
	if err != nil {
		return nil, err
	}
	if r.IsRef {
		r.Imports = markValues(r.Imports, r.IsEnum)
	}
	doc := ""
	if node != nil && node.Ref == "" && node.Value != nil {
		doc = node.Value.Description
	}
	decl := ir.Schema{
		Name:    resolved.Name,
		Model:   renderDeclaration(resolved.Name, r, doc),
		Imports: ir.DedupImports(r.Imports),
		SpecKey: resolved.SpecKey,
	}
	return append([]ir.Schema{decl}, r.Schemas...), nil
}

// DeclareComponents declares every component of every document, in graph
// order, then every other schema target resolved so far. The resolver must
// have been preallocated.
func (s *Synthesizer) DeclareComponents(ctx Context) ([]ir.Schema, error) {
	if err := s.CollectDiscriminators(); err != nil {
		return nil, err
	}
	var out []ir.Schema
	for _, key := range s.graph.Order {
		for _, kind := range []string{openapi.KindSchemas, openapi.KindResponses, openapi.KindParameters, openapi.KindRequestBodies} {
			for _, name := range s.graph.ComponentNames(key, kind) {
				schemas, err := s.declareComponent(key, kind, name, ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, schemas...)
			}
		}
	}
	pending, err := s.DeclarePending(ctx)
	if err != nil {
		return nil, err
	}
	return ir.DedupSchemas(append(out, pending...)), nil
}

// DeclarePending declares schema targets that were resolved but not yet
// declared, such as whole-file schemas or pointers outside #/components.
// Declaring may resolve further targets; it runs until none is left.
func (s *Synthesizer) DeclarePending(ctx Context) ([]ir.Schema, error) {
	var out []ir.Schema
	for {
		progressed := false
		for _, resolved := range s.resolver.Resolved() {
			if resolved.Kind != "" && resolved.Kind != openapi.KindSchemas {
				continue
			}
			if _, ok := s.declared[resolved.Canonical()]; ok {
				continue
			}
			s.declared[resolved.Canonical()] = struct{}{}
			progressed = true
			node, err := s.graph.Schema(resolved.SpecKey, resolved.Pointer)
			if err != nil {
				return nil, err
			}
			schemas, err := s.Declare(resolved, node, ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, schemas...)
		}
		if !progressed {
			return ir.DedupSchemas(out), nil
		}
	}
}

func (s *Synthesizer) declareComponent(key, kind, name string, ctx Context) ([]ir.Schema, error) {
	resolved, err := s.resolver.Lookup(componentRef(kind, name), key)
	if err != nil {
		return nil, err
	}
	if _, ok := s.declared[resolved.Canonical()]; ok {
		return nil, nil
	}
	s.declared[resolved.Canonical()] = struct{}{}

	var node *openapi3.SchemaRef
	switch c := s.graph.Component(key, kind, name).(type) {
	case *openapi3.SchemaRef:
		node = c
	case *openapi3.ResponseRef:
		switch {
		case c.Ref != "":
			node = &openapi3.SchemaRef{Ref: c.Ref}
		case c.Value != nil:
			node = pickContent(c.Value.Content)
		}
	case *openapi3.ParameterRef:
		switch {
		case c.Ref != "":
			node = &openapi3.SchemaRef{Ref: c.Ref}
		case c.Value != nil && c.Value.Schema != nil:
			node = c.Value.Schema
		case c.Value != nil:
			node = pickContent(c.Value.Content)
		}
	case *openapi3.RequestBodyRef:
		switch {
		case c.Ref != "":
			node = &openapi3.SchemaRef{Ref: c.Ref}
		case c.Value != nil:
			node = pickContent(c.Value.Content)
		}
	}
	return s.Declare(resolved, node, ctx)
}

// PickContent returns the schema of the preferred media type: application/json,
// then any JSON type, then the first type in name order.
func PickContent(content openapi3.Content) (string, *openapi3.SchemaRef) {
	if len(content) == 0 {
		return "", nil
	}
	types := make([]string, 0, len(content))
	for mt := range content {
		types = append(types, mt)
	}
	sort.Strings(types)
	chosen := types[0]
	if _, ok := content["application/json"]; ok {
		chosen = "application/json"
	} else {
		for _, mt := range types {
			if strings.Contains(mt, "json") {
				chosen = mt
				break
			}
		}
	}
	if content[chosen] == nil {
		return chosen, nil
	}
	return chosen, content[chosen].Schema
}

func pickContent(content openapi3.Content) *openapi3.SchemaRef {
	_, node := PickContent(content)
	return node
}

func componentRef(kind, name string) string {
	return "#/components/" + kind + "/" + jsonpointer.Escape(name)
}

// markValues flags the first import of an enum alias as a runtime import.
func markValues(imports []ir.Import, enum bool) []ir.Import {
	if !enum || len(imports) == 0 {
		return imports
	}
	out := append([]ir.Import(nil), imports...)
	out[0].Values = true
	return out
}
