package mock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// walker renders the mock expression of one response. References are
// followed into their targets; a target already on the walk path renders
// undefined.
type walker struct {
	synth    *schema.Synthesizer
	override *config.Override
	props    propertyOverrides
	visiting map[string]struct{}
	imports  []ir.Import
}

// variantTag pins the discriminator property of a discriminated variant.
type variantTag struct {
	property string
	values   []string
}

func (t *variantTag) expr() string {
	lits := make([]string, 0, len(t.values))
	for _, v := range t.values {
		lits = append(lits, utils.StringLiteral(v))
	}
	if len(lits) == 1 {
		return lits[0]
	}
	return "faker.helpers.arrayElement([" + strings.Join(lits, ", ") + "] as const)"
}

func (w *walker) value(node *openapi3.SchemaRef, specKey, path string, tag *variantTag) (string, error) {
	if node == nil {
		return "{}", nil
	}
	if node.Ref != "" {
		return w.ref(node.Ref, specKey, path)
	}
	sch := node.Value
	if sch == nil {
		return "{}", nil
	}

	expr, err := w.shape(sch, specKey, path, tag)
	if err != nil {
		return "", err
	}
	if schema.IsNullable(sch) && len(sch.Enum) == 0 {
		expr = "faker.helpers.arrayElement([" + expr + ", null])"
	}
	return expr, nil
}

func (w *walker) ref(ref, specKey, path string) (string, error) {
	target, resolved, err := w.synth.ResolveSchema(ref, specKey)
	if err != nil {
		return "", err
	}
	key := resolved.Canonical()
	if _, cyclic := w.visiting[key]; cyclic {
		return "undefined", nil
	}
	if target != nil && target.Ref == "" && target.Value != nil && len(target.Value.Enum) > 0 {
		w.imports = append(w.imports, ir.Import{
			Name:       resolved.Name,
			SpecKey:    resolved.SpecKey,
			SchemaName: resolved.OriginalName,
			Values:     true,
		})
		return "faker.helpers.arrayElement(Object.values(" + resolved.Name + "))", nil
	}

	w.visiting[key] = struct{}{}
	defer delete(w.visiting, key)

	var tag *variantTag
	if property, values, ok := w.synth.VariantTag(key); ok {
		tag = &variantTag{property: property, values: values}
	}
	return w.value(target, resolved.SpecKey, path, tag)
}

// cyclic reports whether node refers to a target already being walked.
func (w *walker) cyclic(node *openapi3.SchemaRef, specKey string) bool {
	if node == nil || node.Ref == "" {
		return false
	}
	resolved, err := w.synth.Resolver().Lookup(node.Ref, specKey)
	if err != nil {
		return false
	}
	_, ok := w.visiting[resolved.Canonical()]
	return ok
}

func (w *walker) shape(sch *openapi3.Schema, specKey, path string, tag *variantTag) (string, error) {
	switch {
	case len(sch.AllOf) > 0:
		return w.allOf(sch, specKey, path, tag)
	case len(sch.OneOf) > 0 || len(sch.AnyOf) > 0:
		branches := append(append(openapi3.SchemaRefs{}, sch.OneOf...), sch.AnyOf...)
		return w.choice(branches, specKey, path)
	case sch.Discriminator != nil && len(sch.Discriminator.Mapping) > 0:
		return w.choice(mappedBranches(sch.Discriminator), specKey, path)
	case len(sch.Properties) > 0, tag != nil:
		return w.object(sch, specKey, path, tag)
	case sch.AdditionalProperties.Schema != nil || (sch.AdditionalProperties.Has != nil && *sch.AdditionalProperties.Has):
		return w.object(sch, specKey, path, nil)
	}
	return w.primitive(sch, specKey, path)
}

// allOf spreads object branches into one object; branches that are not
// objects fall back to picking one of the branch values.
func (w *walker) allOf(sch *openapi3.Schema, specKey, path string, tag *variantTag) (string, error) {
	var parts []string
	objects := true
	for _, branch := range sch.AllOf {
		v, err := w.value(branch, specKey, path, nil)
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(v, "{") {
			objects = false
		}
		parts = append(parts, v)
	}
	if len(sch.Properties) > 0 || tag != nil {
		own := *sch
		own.AllOf = nil
		v, err := w.object(&own, specKey, path, tag)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	if !objects {
		return "faker.helpers.arrayElement([" + strings.Join(parts, ", ") + "])", nil
	}
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		entries = append(entries, "..."+p)
	}
	return objectExpr(entries), nil
}

func (w *walker) choice(branches openapi3.SchemaRefs, specKey, path string) (string, error) {
	var values []string
	seen := map[string]struct{}{}
	for _, branch := range branches {
		v, err := w.value(branch, specKey, path, nil)
		if err != nil {
			return "", err
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return "faker.helpers.arrayElement([" + strings.Join(values, ", ") + "])", nil
}

func (w *walker) object(sch *openapi3.Schema, specKey, path string, tag *variantTag) (string, error) {
	required := make(map[string]struct{}, len(sch.Required))
	for _, r := range sch.Required {
		required[r] = struct{}{}
	}
	allRequired := config.BoolOr(w.override.Mock.Required, false)

	names := make([]string, 0, len(sch.Properties)+1)
	for name := range sch.Properties {
		names = append(names, name)
	}
	if tag != nil {
		if _, ok := sch.Properties[tag.property]; !ok {
			names = append(names, tag.property)
		}
	}
	sort.Strings(names)

	entries := make([]string, 0, len(names)+1)
	for _, name := range names {
		key := utils.QuotePropertyName(name)
		childPath := joinPath(path, name)
		if tag != nil && name == tag.property {
			entries = append(entries, key+": "+tag.expr())
			continue
		}
		if expr, ok := w.props.find(childPath); ok {
			entries = append(entries, key+": "+expr)
			continue
		}
		v, err := w.value(sch.Properties[name], specKey, childPath, nil)
		if err != nil {
			return "", err
		}
		if _, ok := required[name]; !ok && !allRequired && v != "undefined" {
			v = "faker.helpers.arrayElement([" + v + ", undefined])"
		}
		entries = append(entries, key+": "+v)
	}

	ap := sch.AdditionalProperties
	switch {
	case ap.Schema != nil:
		v, err := w.value(ap.Schema, specKey, path, nil)
		if err != nil {
			return "", err
		}
		entries = append(entries, "[faker.string.alphanumeric(5)]: "+v)
	case ap.Has != nil && *ap.Has:
		entries = append(entries, "[faker.string.alphanumeric(5)]: {}")
	}
	return objectExpr(entries), nil
}

func (w *walker) primitive(sch *openapi3.Schema, specKey, path string) (string, error) {
	if len(sch.Enum) > 0 {
		if imp, ok := w.synth.EnumTable(sch); ok {
			w.imports = append(w.imports, imp)
			return "faker.helpers.arrayElement(Object.values(" + imp.Name + "))", nil
		}
		return enumChoice(sch.Enum), nil
	}
	if sch.Format != "" {
		if expr, ok := w.format(sch.Format); ok {
			return expr, nil
		}
	}

	types := schema.NonNullTypes(sch)
	if len(types) == 0 && sch.Items != nil {
		types = []string{openapi3.TypeArray}
	}
	switch len(types) {
	case 0:
		if sch.Type.Is(openapi3.TypeNull) {
			return "null", nil
		}
		return "{}", nil
	case 1:
		return w.typed(types[0], sch, specKey, path)
	}

	values := make([]string, 0, len(types))
	for _, t := range types {
		v, err := w.typed(t, sch, specKey, path)
		if err != nil {
			return "", err
		}
		values = append(values, v)
	}
	return "faker.helpers.arrayElement([" + strings.Join(values, ", ") + "])", nil
}

func (w *walker) typed(t string, sch *openapi3.Schema, specKey, path string) (string, error) {
	switch t {
	case openapi3.TypeString:
		return stringExpr(sch), nil
	case openapi3.TypeInteger:
		return "faker.number.int(" + bounds(sch) + ")", nil
	case openapi3.TypeNumber:
		return "faker.number.float(" + bounds(sch) + ")", nil
	case openapi3.TypeBoolean:
		return "faker.datatype.boolean()", nil
	case openapi3.TypeArray:
		return w.array(sch, specKey, path)
	case openapi3.TypeObject:
		return w.object(sch, specKey, path, nil)
	case openapi3.TypeNull:
		return "null", nil
	}
	return "{}", nil
}

func (w *walker) array(sch *openapi3.Schema, specKey, path string) (string, error) {
	if sch.Items == nil {
		return "", &generrors.SchemaError{Name: path, Message: "array schema without items"}
	}
	if w.cyclic(sch.Items, specKey) {
		return "[]", nil
	}
	item, err := w.value(sch.Items, specKey, path, nil)
	if err != nil {
		return "", err
	}

	lo := config.IntOr(w.override.Mock.ArrayMin, 1)
	hi := config.IntOr(w.override.Mock.ArrayMax, 10)
	if sch.MinItems > 0 {
		lo = int(sch.MinItems)
	}
	if sch.MaxItems != nil {
		hi = int(*sch.MaxItems)
	}
	if lo > hi {
		hi = lo
	}
	return fmt.Sprintf("Array.from({length: faker.number.int({min: %d, max: %d})}, (_, i) => i + 1).map(() => (%s))", lo, hi, item), nil
}

// format returns the expression of a format: the override table first, then
// Date values when dates are enabled, then the built-in table.
func (w *walker) format(f string) (string, bool) {
	if expr, ok := w.override.Mock.Format[f]; ok {
		return expr, true
	}
	if w.override.Dates() && (f == "date" || f == "date-time") {
		return "faker.date.past()", true
	}
	expr, ok := defaultFormats[f]
	return expr, ok
}

func stringExpr(sch *openapi3.Schema) string {
	lo, hi := uint64(10), uint64(20)
	if sch.MinLength > 0 {
		lo = sch.MinLength
		if hi < lo {
			hi = lo
		}
	}
	if sch.MaxLength != nil {
		hi = *sch.MaxLength
		if lo > hi {
			lo = hi
		}
	}
	return fmt.Sprintf("faker.string.alpha({length: {min: %d, max: %d}})", lo, hi)
}

func bounds(sch *openapi3.Schema) string {
	var parts []string
	if sch.Min != nil {
		parts = append(parts, "min: "+utils.Literal(*sch.Min))
	}
	if sch.Max != nil {
		parts = append(parts, "max: "+utils.Literal(*sch.Max))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func enumChoice(values []any) string {
	var lits []string
	seen := map[string]struct{}{}
	for _, v := range values {
		lit := utils.Literal(v)
		if _, dup := seen[lit]; dup {
			continue
		}
		seen[lit] = struct{}{}
		lits = append(lits, lit)
	}
	return "faker.helpers.arrayElement([" + strings.Join(lits, ", ") + "] as const)"
}

// mappedBranches lists the variants of a discriminator mapping in key order.
func mappedBranches(d *openapi3.Discriminator) openapi3.SchemaRefs {
	keys := make([]string, 0, len(d.Mapping))
	for k := range d.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(openapi3.SchemaRefs, 0, len(keys))
	for _, k := range keys {
		ref := d.Mapping[k]
		if !strings.Contains(ref, "#") && !strings.Contains(ref, "/") {
			ref = "#/components/schemas/" + ref
		}
		out = append(out, &openapi3.SchemaRef{Ref: ref})
	}
	return out
}

// objectExpr renders object entries one per line.
func objectExpr(entries []string) string {
	if len(entries) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, e := range entries {
		b.WriteString("  " + strings.ReplaceAll(e, "\n", "\n  ") + ",\n")
	}
	b.WriteString("}")
	return b.String()
}
