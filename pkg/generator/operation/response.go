package operation

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// responses synthesizes every status code and accepted media type, split
// into the success (2xx) and error halves.
func (e *Extractor) responses(op *openapi3.Operation, ctx schema.Context, opName string) (ir.Response, error) {
	var out ir.Response
	if op.Responses == nil {
		out.Definition = ir.ResponseDefinition{Success: "void", Errors: "unknown"}
		return out, nil
	}

	byCode := op.Responses.Map()
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	contentTypes := map[string]struct{}{}
	for _, code := range codes {
		types, err := e.response(code, byCode[code], ctx, opName)
		if err != nil {
			return ir.Response{}, err
		}
		for _, t := range types {
			out.Imports = append(out.Imports, t.Imports...)
			if t.ContentType != "" {
				contentTypes[t.ContentType] = struct{}{}
			}
			if isSuccess(code) {
				out.Types.Success = append(out.Types.Success, t.ResponseType)
			} else {
				out.Types.Errors = append(out.Types.Errors, t.ResponseType)
			}
			out.Schemas = append(out.Schemas, t.schemas...)
		}
	}

	out.Definition.Success = union(out.Types.Success, "void")
	out.Definition.Errors = union(out.Types.Errors, "unknown")
	for _, t := range out.Types.Success {
		if t.Value == "Blob" {
			out.IsBlob = true
		}
	}
	for mt := range contentTypes {
		out.ContentTypes = append(out.ContentTypes, mt)
	}
	sort.Strings(out.ContentTypes)
	out.Imports = ir.DedupImports(out.Imports)
	out.Schemas = ir.DedupSchemas(out.Schemas)
	return out, nil
}

type responseType struct {
	ir.ResponseType
	schemas []ir.Schema
}

func (e *Extractor) response(code string, ref *openapi3.ResponseRef, ctx schema.Context, opName string) ([]responseType, error) {
	if ref == nil {
		return nil, nil
	}
	if ref.Ref != "" {
		resolved, chain, err := e.synth.Resolver().Resolve(ref.Ref, ctx.SpecKey)
		if err != nil {
			return nil, err
		}
		t := responseType{ResponseType: ir.ResponseType{
			Key:     code,
			Value:   resolved.Name,
			IsRef:   true,
			Type:    ir.TypeUnknown,
			Imports: chain,
			SpecKey: resolved.SpecKey,
		}}
		if ref.Value != nil {
			if len(ref.Value.Content) == 0 {
				// a response without content types nothing
				return nil, nil
			}
			t.ContentType, t.Schema = pickAccepted(ref.Value.Content, ctx.Override)
		}
		return []responseType{t}, nil
	}
	if ref.Value == nil {
		return nil, nil
	}

	var out []responseType
	seen := map[string]struct{}{}
	for _, mt := range accepted(ref.Value.Content, ctx.Override) {
		media := ref.Value.Content[mt]
		if media == nil {
			continue
		}
		typeIR, err := e.synth.SynthesizeHoisted(media.Schema, ctx, utils.TypeName(opName+" "+code))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[typeIR.Value]; dup {
			continue
		}
		seen[typeIR.Value] = struct{}{}
		out = append(out, responseType{
			ResponseType: ir.ResponseType{
				Key:         code,
				Value:       typeIR.Value,
				ContentType: mt,
				IsEnum:      typeIR.IsEnum,
				IsRef:       typeIR.IsRef,
				Type:        typeIR.Type,
				Imports:     typeIR.Imports,
				Schema:      media.Schema,
				SpecKey:     ctx.SpecKey,
			},
			schemas: typeIR.Schemas,
		})
	}
	return out, nil
}

func isSuccess(code string) bool {
	return strings.HasPrefix(code, "2")
}

func union(types []ir.ResponseType, fallback string) string {
	var values []string
	seen := map[string]struct{}{}
	for _, t := range types {
		if _, dup := seen[t.Value]; dup {
			continue
		}
		seen[t.Value] = struct{}{}
		values = append(values, t.Value)
	}
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, " | ")
}
