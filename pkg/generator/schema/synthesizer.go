// Package schema turns schema nodes into TypeScript types.
//
// The synthesizer never descends into a $ref target: a reference always
// becomes the target's allocated name, which is what lets self-referential
// schemas terminate.
package schema

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/resolver"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

const (
	nullSuffix = " | null"
	typeNull   = "null"
)

// Context locates the node being synthesized.
type Context struct {
	// SpecKey is the document the node belongs to; its references resolve
	// relative to it
	SpecKey string
	// Override is the effective override; nil means the global one
	Override *config.Override

	inject *injection
}

// WithSpecKey returns a copy of ctx rooted at another document.
func (c Context) WithSpecKey(key string) Context {
	c.SpecKey = key
	c.inject = nil
	return c
}

// Synthesizer converts schema nodes. One Synthesizer serves a whole run so
// hoisted names and discriminators are shared.
type Synthesizer struct {
	resolver *resolver.Resolver
	graph    *openapi.Graph
	override *config.Override

	discriminators map[string]*injection
	// declared holds the canonical targets already declared
	declared map[string]struct{}
	// enumTables maps inline enum schemas to the const table hoisted for them
	enumTables map[*openapi3.Schema]ir.Import
}

// New creates a Synthesizer. override is the global override and may be nil.
func New(r *resolver.Resolver, override *config.Override) *Synthesizer {
	if override == nil {
		override = &config.Override{}
	}
	return &Synthesizer{
		resolver:       r,
		graph:          r.Graph(),
		override:       override,
		discriminators: map[string]*injection{},
		declared:       map[string]struct{}{},
		enumTables:     map[*openapi3.Schema]ir.Import{},
	}
}

// Resolver returns the resolver shared by the run.
func (s *Synthesizer) Resolver() *resolver.Resolver {
	return s.resolver
}

// result carries what callers of the recursive walk need beyond the TypeIR.
type result struct {
	ir.TypeIR
	enum     *enumInfo
	nullable bool
	// literal is set for a bare object literal, which declares as an interface
	literal bool
	// source is the inline enum schema the result was built from
	source *openapi3.Schema
}

// Synthesize converts node into a TypeScript type expression. name seeds the
// names of hoisted nested declarations; the top-level value itself is never
// hoisted (see Hoist).
func (s *Synthesizer) Synthesize(node *openapi3.SchemaRef, ctx Context, name string) (ir.TypeIR, error) {
	r, err := s.synth(node, ctx, name)
	if err != nil {
		return ir.TypeIR{}, err
	}
	return r.TypeIR, nil
}

// SynthesizeHoisted converts node and hoists the value under name when it
// would not read well inline.
func (s *Synthesizer) SynthesizeHoisted(node *openapi3.SchemaRef, ctx Context, name string) (ir.TypeIR, error) {
	r, err := s.synth(node, ctx, name)
	if err != nil {
		return ir.TypeIR{}, err
	}
	return s.hoist(r, ctx, name).TypeIR, nil
}

func (s *Synthesizer) synth(node *openapi3.SchemaRef, ctx Context, name string) (result, error) {
	if node == nil {
		return unknownResult(), nil
	}
	if node.Ref != "" {
		return s.synthRef(node.Ref, ctx)
	}
	sch := node.Value
	if sch == nil {
		return unknownResult(), nil
	}

	var (
		r   result
		err error
	)
	switch {
	case len(sch.AllOf) > 0 || len(sch.OneOf) > 0 || len(sch.AnyOf) > 0:
		r, err = s.synthCombined(sch, ctx, name)
	case sch.Discriminator != nil && len(sch.Discriminator.Mapping) > 0:
		r, err = s.synthMappedUnion(sch, ctx, name)
	case len(sch.Properties) > 0:
		r, err = s.synthObject(sch, ctx, name)
	case hasAdditionalProperties(sch):
		r, err = s.synthObject(sch, ctx, name)
	default:
		r, err = s.synthPrimitive(sch, ctx, name)
	}
	if err != nil {
		return result{}, err
	}
	if ctx.inject != nil && !ctx.inject.consumed {
		r = ctx.inject.intersect(r)
	}
	if IsNullable(sch) && !r.nullable {
		r.Value += nullSuffix
		r.nullable = true
	}
	return r, nil
}

func (s *Synthesizer) synthRef(ref string, ctx Context) (result, error) {
	resolved, chain, err := s.resolver.Resolve(ref, ctx.SpecKey)
	if err != nil {
		return result{}, err
	}
	r := result{TypeIR: ir.TypeIR{
		Value:   resolved.Name,
		Imports: chain,
		IsRef:   true,
		Type:    ir.TypeUnknown,
	}}
	if target := s.refTarget(resolved); target != nil {
		r.IsEnum = isEnumSchema(target)
		r.Type = category(target)
	}
	return r, nil
}

// refTarget returns the schema at the end of a reference chain, or nil when
// the target is not a schema.
func (s *Synthesizer) refTarget(resolved ir.ResolvedRef) *openapi3.Schema {
	seen := map[string]struct{}{}
	for {
		if _, ok := seen[resolved.Canonical()]; ok {
			return nil
		}
		seen[resolved.Canonical()] = struct{}{}
		if resolved.Kind != "" && resolved.Kind != openapi.KindSchemas {
			return nil
		}
		node, err := s.graph.Schema(resolved.SpecKey, resolved.Pointer)
		if err != nil || node == nil {
			return nil
		}
		if node.Ref == "" {
			return node.Value
		}
		next, err := s.resolver.Lookup(node.Ref, resolved.SpecKey)
		if err != nil {
			return nil
		}
		resolved = next
	}
}

// EnumTable returns the import of the const table an inline enum schema was
// hoisted into. It reports false when sch was never hoisted.
func (s *Synthesizer) EnumTable(sch *openapi3.Schema) (ir.Import, bool) {
	imp, ok := s.enumTables[sch]
	return imp, ok
}

// ResolveSchema follows ref to the schema node it designates, returning the
// node and the document it lives in.
func (s *Synthesizer) ResolveSchema(ref, specKey string) (*openapi3.SchemaRef, ir.ResolvedRef, error) {
	resolved, err := s.resolver.Lookup(ref, specKey)
	if err != nil {
		return nil, ir.ResolvedRef{}, err
	}
	node, err := s.graph.Schema(resolved.SpecKey, resolved.Pointer)
	if err != nil {
		return nil, ir.ResolvedRef{}, &generrors.ReferenceError{Ref: ref, SpecKey: specKey, Cause: err}
	}
	return node, resolved, nil
}

func (s *Synthesizer) synthObject(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	props := make(map[string]*openapi3.SchemaRef, len(sch.Properties))
	for k, v := range sch.Properties {
		props[k] = v
	}
	if len(props) == 0 && ctx.inject == nil {
		return s.synthDictionary(sch.AdditionalProperties, ctx, name)
	}
	return s.objectLiteral(props, sch.Required, sch.AdditionalProperties, ctx, name)
}

// synthDictionary renders an object that only has additionalProperties.
func (s *Synthesizer) synthDictionary(ap openapi3.AdditionalProperties, ctx Context, name string) (result, error) {
	out := result{TypeIR: ir.TypeIR{Value: "{[key: string]: unknown}", Type: ir.TypeObject}}
	if ap.Schema == nil {
		return out, nil
	}
	childName := ""
	if name != "" {
		childName = name + "AdditionalProperties"
	}
	r, err := s.synth(ap.Schema, ctx.WithSpecKey(ctx.SpecKey), childName)
	if err != nil {
		return result{}, err
	}
	r = s.hoist(r, ctx, childName)
	out.Value = "{[key: string]: " + r.Value + "}"
	out.Imports = r.Imports
	out.Schemas = r.Schemas
	out.HasReadonlyProps = r.HasReadonlyProps
	return out, nil
}

// objectLiteral renders properties as an object type. Properties are emitted
// in name order.
func (s *Synthesizer) objectLiteral(props map[string]*openapi3.SchemaRef, required []string, ap openapi3.AdditionalProperties, ctx Context, name string) (result, error) {
	requiredSet := make(map[string]struct{}, len(required))
	for _, r := range required {
		requiredSet[r] = struct{}{}
	}

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	if inj := ctx.inject; inj != nil {
		if _, ok := props[inj.Property]; !ok {
			names = append(names, inj.Property)
		}
	}
	sort.Strings(names)

	out := result{TypeIR: ir.TypeIR{Type: ir.TypeObject}}
	var b strings.Builder
	b.WriteString("{\n")
	for _, prop := range names {
		if inj := ctx.inject; inj != nil && inj.Property == prop {
			b.WriteString("  " + utils.QuotePropertyName(prop) + ": " + inj.literal() + ";\n")
			inj.consumed = true
			continue
		}

		child := props[prop]
		childName := ""
		if name != "" {
			childName = name + utils.TypeName(prop)
		}
		r, err := s.synth(child, ctx.WithSpecKey(ctx.SpecKey), childName)
		if err != nil {
			return result{}, err
		}
		r = s.hoist(r, ctx, childName)
		out.Imports = append(out.Imports, r.Imports...)
		out.Schemas = append(out.Schemas, r.Schemas...)

		readonly := false
		if child != nil && child.Ref == "" && child.Value != nil {
			b.WriteString(utils.JSDoc("  ", child.Value.Description))
			readonly = child.Value.ReadOnly
		}
		b.WriteString("  ")
		if readonly {
			b.WriteString("readonly ")
			out.HasReadonlyProps = true
		}
		b.WriteString(utils.QuotePropertyName(prop))
		if _, ok := requiredSet[prop]; !ok {
			b.WriteString("?")
		}
		b.WriteString(": " + indent(r.Value) + ";\n")
	}

	if hasAdditionalProperties(&openapi3.Schema{AdditionalProperties: ap}) {
		value := "unknown"
		if ap.Schema != nil {
			childName := ""
			if name != "" {
				childName = name + "AdditionalProperties"
			}
			r, err := s.synth(ap.Schema, ctx.WithSpecKey(ctx.SpecKey), childName)
			if err != nil {
				return result{}, err
			}
			r = s.hoist(r, ctx, childName)
			out.Imports = append(out.Imports, r.Imports...)
			out.Schemas = append(out.Schemas, r.Schemas...)
			value = r.Value
		}
		b.WriteString("  [key: string]: " + indent(value) + ";\n")
	}
	b.WriteString("}")

	out.Value = b.String()
	out.literal = true
	return out, nil
}

func (s *Synthesizer) synthPrimitive(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	if len(sch.Enum) > 0 {
		return enumResult(sch), nil
	}

	types := NonNullTypes(sch)
	if len(types) == 0 {
		switch {
		case sch.Items != nil:
			types = []string{openapi3.TypeArray}
		case typeList(sch) != nil:
			// only "null"
			return result{TypeIR: ir.TypeIR{Value: "null", Type: ir.TypeNull}, nullable: true}, nil
		default:
			return unknownResult(), nil
		}
	}

	var parts []result
	for _, t := range types {
		r, err := s.synthType(t, sch, ctx, name)
		if err != nil {
			return result{}, err
		}
		parts = append(parts, r)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	out := result{TypeIR: ir.TypeIR{Type: ir.TypeUnknown}}
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
		out.Imports = append(out.Imports, p.Imports...)
		out.Schemas = append(out.Schemas, p.Schemas...)
	}
	out.Value = strings.Join(values, " | ")
	return out, nil
}

func (s *Synthesizer) synthType(t string, sch *openapi3.Schema, ctx Context, name string) (result, error) {
	switch t {
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return result{TypeIR: ir.TypeIR{Value: "number", Type: ir.TypeNumber}}, nil
	case openapi3.TypeBoolean:
		return result{TypeIR: ir.TypeIR{Value: "boolean", Type: ir.TypeBoolean}}, nil
	case openapi3.TypeString:
		value := "string"
		switch sch.Format {
		case "binary":
			value = "Blob"
		case "date", "date-time":
			if s.useDates(ctx) {
				value = "Date"
			}
		}
		return result{TypeIR: ir.TypeIR{Value: value, Type: ir.TypeString}}, nil
	case openapi3.TypeArray:
		return s.synthArray(sch, ctx, name)
	case openapi3.TypeObject:
		return result{TypeIR: ir.TypeIR{Value: "{[key: string]: unknown}", Type: ir.TypeObject}}, nil
	case typeNull:
		return result{TypeIR: ir.TypeIR{Value: "null", Type: ir.TypeNull}}, nil
	}
	return unknownResult(), nil
}

func (s *Synthesizer) synthArray(sch *openapi3.Schema, ctx Context, name string) (result, error) {
	if sch.Items == nil {
		return result{}, &generrors.SchemaError{Name: name, Message: "array without items"}
	}
	itemName := ""
	if name != "" {
		itemName = name + "Item"
	}
	item, err := s.synth(sch.Items, ctx.WithSpecKey(ctx.SpecKey), itemName)
	if err != nil {
		return result{}, err
	}
	item = s.hoist(item, ctx, itemName)

	value := item.Value
	if strings.ContainsAny(value, "|&") {
		value = "(" + value + ")"
	}
	return result{TypeIR: ir.TypeIR{
		Value:            value + "[]",
		Imports:          item.Imports,
		Schemas:          item.Schemas,
		Type:             ir.TypeArray,
		HasReadonlyProps: item.HasReadonlyProps,
	}}, nil
}

func (s *Synthesizer) useDates(ctx Context) bool {
	if ctx.Override != nil {
		return ctx.Override.Dates()
	}
	return s.override.Dates()
}

// indent shifts the continuation lines of a nested multi-line value.
func indent(value string) string {
	return strings.ReplaceAll(value, "\n", "\n  ")
}

func unknownResult() result {
	return result{TypeIR: ir.TypeIR{Value: "unknown", Type: ir.TypeUnknown}}
}

func typeList(sch *openapi3.Schema) []string {
	if sch.Type == nil {
		return nil
	}
	return []string(*sch.Type)
}

// NonNullTypes lists the declared types of sch other than null.
func NonNullTypes(sch *openapi3.Schema) []string {
	var out []string
	for _, t := range typeList(sch) {
		if t != typeNull {
			out = append(out, t)
		}
	}
	return out
}

// IsNullable reports whether sch admits null, through nullable or an
// OpenAPI 3.1 type array.
func IsNullable(sch *openapi3.Schema) bool {
	if sch.Nullable {
		return true
	}
	types := typeList(sch)
	if len(types) < 2 {
		return false
	}
	for _, t := range types {
		if t == typeNull {
			return true
		}
	}
	return false
}

func hasAdditionalProperties(sch *openapi3.Schema) bool {
	ap := sch.AdditionalProperties
	return ap.Schema != nil || (ap.Has != nil && *ap.Has)
}

func isEnumSchema(sch *openapi3.Schema) bool {
	return len(sch.Enum) > 0
}

// category reports the value category of a schema without descending into
// references.
func category(sch *openapi3.Schema) string {
	if len(sch.Enum) > 0 {
		return ir.TypeEnum
	}
	if len(sch.Properties) > 0 || hasAdditionalProperties(sch) {
		return ir.TypeObject
	}
	if sch.Items != nil {
		return ir.TypeArray
	}
	types := NonNullTypes(sch)
	if len(types) != 1 {
		return ir.TypeUnknown
	}
	switch types[0] {
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return ir.TypeNumber
	case openapi3.TypeString:
		return ir.TypeString
	case openapi3.TypeBoolean:
		return ir.TypeBoolean
	case openapi3.TypeObject:
		return ir.TypeObject
	case openapi3.TypeArray:
		return ir.TypeArray
	}
	return ir.TypeUnknown
}
