package operation

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

const (
	multipart  = "multipart/form-data"
	urlEncoded = "application/x-www-form-urlencoded"
)

// body synthesizes the request body across its accepted media types.
func (e *Extractor) body(op *openapi3.Operation, ctx schema.Context, opName string) (ir.Body, error) {
	ref := op.RequestBody
	if ref == nil {
		return ir.Body{}, nil
	}
	out := ir.Body{Implementation: utils.VariableName(opName + " body")}

	value := ref.Value
	if ref.Ref != "" {
		resolved, chain, err := e.synth.Resolver().Resolve(ref.Ref, ctx.SpecKey)
		if err != nil {
			return ir.Body{}, err
		}
		out.Definition = resolved.Name
		out.Imports = chain
		if value == nil {
			// unresolved fragment body: typed by its declaration alone
			out.ContentType = "application/json"
			out.IsOptional = true
			return out, nil
		}
		out.IsOptional = !value.Required
		out.ContentType, _ = pickAccepted(value.Content, ctx.Override)
		e.formBody(&out, value.Content, ctx)
		return out, nil
	}
	if value == nil {
		return ir.Body{}, nil
	}

	types := accepted(value.Content, ctx.Override)
	if len(types) == 0 {
		return ir.Body{}, nil
	}
	var values []string
	seen := map[string]struct{}{}
	for _, mt := range types {
		media := value.Content[mt]
		if media == nil {
			continue
		}
		t, err := e.synth.SynthesizeHoisted(media.Schema, ctx, utils.TypeName(opName)+"Body")
		if err != nil {
			return ir.Body{}, err
		}
		out.Imports = append(out.Imports, t.Imports...)
		out.Schemas = append(out.Schemas, t.Schemas...)
		if _, dup := seen[t.Value]; dup {
			continue
		}
		seen[t.Value] = struct{}{}
		values = append(values, t.Value)
	}
	out.Definition = strings.Join(values, " | ")
	out.ContentType, _ = pickAccepted(value.Content, ctx.Override)
	out.IsOptional = !value.Required
	e.formBody(&out, value.Content, ctx)
	return out, nil
}

// formBody fills the FormData or URLSearchParams statements of form bodies.
func (e *Extractor) formBody(out *ir.Body, content openapi3.Content, ctx schema.Context) {
	media := content[out.ContentType]
	if media == nil {
		return
	}
	switch out.ContentType {
	case multipart:
		if config.BoolOr(ctx.Override.FormData.Disabled, false) {
			return
		}
		out.FormData = e.formStatements("formData", "new FormData()", out.Implementation, media.Schema, ctx.SpecKey, true)
	case urlEncoded:
		if config.BoolOr(ctx.Override.FormURLEncoded.Disabled, false) {
			return
		}
		out.FormURLEncoded = e.formStatements("formUrlEncoded", "new URLSearchParams()", out.Implementation, media.Schema, ctx.SpecKey, false)
	}
}

func (e *Extractor) formStatements(variable, constructor, body string, node *openapi3.SchemaRef, specKey string, blobs bool) string {
	var b strings.Builder
	b.WriteString("const " + variable + " = " + constructor + ";\n")

	sch, docKey := e.target(node, specKey)
	if sch == nil || len(sch.Properties) == 0 {
		b.WriteString(variable + ".append('data', " + formValue(body, kindOf(sch), blobs) + ");\n")
		return b.String()
	}

	required := map[string]struct{}{}
	for _, r := range sch.Required {
		required[r] = struct{}{}
	}
	names := make([]string, 0, len(sch.Properties))
	for name := range sch.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, propKey := e.target(sch.Properties[name], docKey)
		access := utils.PropertyAccess(body, name)
		field := utils.StringLiteral(name)

		var stmt string
		if kindOf(prop) == ir.TypeArray {
			item, _ := e.target(prop.Items, propKey)
			stmt = access + ".forEach(value => " + variable + ".append(" + field + ", " + formValue("value", kindOf(item), blobs) + "));"
		} else {
			stmt = variable + ".append(" + field + ", " + formValue(access, kindOf(prop), blobs) + ");"
		}
		if _, ok := required[name]; ok {
			b.WriteString(stmt + "\n")
			continue
		}
		b.WriteString("if (" + access + " !== undefined) {\n  " + stmt + "\n}\n")
	}
	return b.String()
}

// target follows references to the schema a node designates.
func (e *Extractor) target(node *openapi3.SchemaRef, specKey string) (*openapi3.Schema, string) {
	for i := 0; node != nil && node.Ref != "" && i < 16; i++ {
		next, resolved, err := e.synth.ResolveSchema(node.Ref, specKey)
		if err != nil {
			return nil, specKey
		}
		node, specKey = next, resolved.SpecKey
	}
	if node == nil {
		return nil, specKey
	}
	return node.Value, specKey
}

func kindOf(sch *openapi3.Schema) string {
	if sch == nil {
		return ir.TypeUnknown
	}
	if sch.Items != nil || sch.Type.Includes(openapi3.TypeArray) {
		return ir.TypeArray
	}
	if len(sch.Properties) > 0 || sch.Type.Includes(openapi3.TypeObject) {
		return ir.TypeObject
	}
	if sch.Type.Includes(openapi3.TypeString) {
		if sch.Format == "binary" {
			return "blob"
		}
		return ir.TypeString
	}
	return ir.TypeNumber
}

func formValue(expr, kind string, blobs bool) string {
	switch kind {
	case "blob":
		if blobs {
			return expr
		}
		return "String(" + expr + ")"
	case ir.TypeString:
		return expr
	case ir.TypeObject, ir.TypeUnknown:
		return "JSON.stringify(" + expr + ")"
	}
	return expr + ".toString()"
}

// accepted lists the media types passing the content-type filter, in name
// order.
func accepted(content openapi3.Content, override *config.Override) []string {
	out := make([]string, 0, len(content))
	for mt := range content {
		if override == nil || override.AcceptsContentType(mt) {
			out = append(out, mt)
		}
	}
	sort.Strings(out)
	return out
}

// pickAccepted picks the preferred accepted media type.
func pickAccepted(content openapi3.Content, override *config.Override) (string, *openapi3.SchemaRef) {
	filtered := openapi3.Content{}
	for _, mt := range accepted(content, override) {
		filtered[mt] = content[mt]
	}
	return schema.PickContent(filtered)
}
