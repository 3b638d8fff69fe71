// Package operation extracts one VerbOption per (path, verb) of the root
// document.
package operation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/logger"
	"github.com/blimu-dev/client-gen/pkg/mutator"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// DefaultTag groups operations that declare no tag.
const DefaultTag = "default"

// Verbs are visited in this order within a path.
var Verbs = []string{"get", "post", "put", "patch", "delete", "options", "head", "trace"}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Extractor turns operations into VerbOptions.
type Extractor struct {
	synth    *schema.Synthesizer
	override *config.Override
	mutators *mutator.Inspector
	filter   *TagFilter
	log      logger.Logger
}

// Options configure an Extractor.
type Options struct {
	// Override is the global override tree
	Override *config.Override
	Filter   *TagFilter
	Mutators *mutator.Inspector
	Logger   logger.Logger
}

// New creates an Extractor sharing the synthesizer's name memo.
func New(synth *schema.Synthesizer, opts Options) *Extractor {
	override := opts.Override
	if override == nil {
		override = &config.Override{}
	}
	mutators := opts.Mutators
	if mutators == nil {
		mutators = mutator.NewInspector()
	}
	return &Extractor{
		synth:    synth,
		override: override,
		mutators: mutators,
		filter:   opts.Filter,
		log:      logger.OrNop(opts.Logger),
	}
}

// ExtractAll extracts every operation of the root document: routes in name
// order, verbs in Verbs order. Operations dropped by the tag filter are
// skipped.
func (e *Extractor) ExtractAll() ([]*ir.VerbOption, error) {
	graph := e.synth.Resolver().Graph()
	root := graph.RootDocument()
	if root == nil || root.Doc == nil || root.Doc.Paths == nil {
		return nil, nil
	}

	paths := root.Doc.Paths.Map()
	routes := make([]string, 0, len(paths))
	for route := range paths {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	var out []*ir.VerbOption
	for _, route := range routes {
		item := paths[route]
		if item == nil {
			continue
		}
		for _, verb := range Verbs {
			op := item.GetOperation(strings.ToUpper(verb))
			if op == nil {
				continue
			}
			if !e.filter.Includes(op.Tags) {
				e.log.Debug("operation filtered out by tags", "operation", op.OperationID, "route", route)
				continue
			}
			v, err := e.Extract(verb, route, item, op, schema.Context{SpecKey: root.Key})
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Extract builds the VerbOption of one operation.
func (e *Extractor) Extract(verb, route string, item *openapi3.PathItem, op *openapi3.Operation, ctx schema.Context) (*ir.VerbOption, error) {
	id := op.OperationID
	if id == "" {
		id = utils.ToCamelCase(verb + " " + route)
	}
	name := utils.VariableName(id)

	override, err := e.override.ForOperation(id, op.Tags)
	if err != nil {
		return nil, err
	}
	ctx.Override = override

	v := &ir.VerbOption{
		OperationID:   id,
		OperationName: name,
		Verb:          verb,
		Path:          route,
		Tags:          op.Tags,
		Summary:       op.Summary,
		Doc:           operationDoc(op),
		Deprecated:    op.Deprecated,
		Override:      override,
		SpecKey:       ctx.SpecKey,
	}

	params, err := e.parameters(item, op, ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(verb), route, err)
	}
	var query, headers []ir.Param
	for _, p := range params {
		switch p.In {
		case openapi3.ParameterInPath:
			v.PathParams = append(v.PathParams, p)
		case openapi3.ParameterInQuery:
			query = append(query, p)
		case openapi3.ParameterInHeader:
			headers = append(headers, p)
		}
	}

	uniqueIdentifiers(v.PathParams, utils.VariableName(name+" body"))
	if v.Route, err = buildRoute(id, route, v.PathParams); err != nil {
		return nil, err
	}
	v.QueryParams = e.group(query, name, "Params", ctx)
	v.Headers = e.group(headers, name, "Headers", ctx)

	if v.Body, err = e.body(op, ctx, name); err != nil {
		return nil, fmt.Errorf("%s %s: request body: %w", strings.ToUpper(verb), route, err)
	}
	if v.Response, err = e.responses(op, ctx, name); err != nil {
		return nil, fmt.Errorf("%s %s: responses: %w", strings.ToUpper(verb), route, err)
	}

	if v.Mutator, err = e.mutators.Inspect(override.Mutator); err != nil {
		return nil, err
	}
	if v.Body.FormData != "" && override.FormData.Mutator != nil {
		if v.FormData, err = e.mutators.Inspect(override.FormData.Mutator); err != nil {
			return nil, err
		}
		v.Body.FormData = "const formData = " + v.FormData.Name + "(" + v.Body.Implementation + ");\n"
	}
	if v.Body.FormURLEncoded != "" && override.FormURLEncoded.Mutator != nil {
		if v.FormURLEncoded, err = e.mutators.Inspect(override.FormURLEncoded.Mutator); err != nil {
			return nil, err
		}
		v.Body.FormURLEncoded = "const formUrlEncoded = " + v.FormURLEncoded.Name + "(" + v.Body.Implementation + ");\n"
	}

	v.Props = buildProps(v)
	e.log.Debug("extracted operation", "operation", id, "verb", verb, "route", route)
	return v, nil
}

func operationDoc(op *openapi3.Operation) string {
	var lines []string
	if op.Summary != "" {
		lines = append(lines, op.Summary)
	}
	if op.Description != "" && op.Description != op.Summary {
		lines = append(lines, op.Description)
	}
	if op.Deprecated {
		lines = append(lines, "@deprecated")
	}
	return utils.JSDoc("", lines...)
}

// parameters merges path-item and operation parameters (the operation wins
// on name and location) and synthesizes their types.
func (e *Extractor) parameters(item *openapi3.PathItem, op *openapi3.Operation, ctx schema.Context, opName string) ([]ir.Param, error) {
	var refs openapi3.Parameters
	if item != nil {
		refs = append(refs, item.Parameters...)
	}
	refs = append(refs, op.Parameters...)

	index := map[string]int{}
	var out []ir.Param
	for _, ref := range refs {
		p, err := e.parameter(ref, ctx, opName)
		if err != nil {
			return nil, err
		}
		if p == nil || p.In == openapi3.ParameterInCookie {
			continue
		}
		key := p.In + "|" + p.Name
		if i, ok := index[key]; ok {
			out[i] = *p
			continue
		}
		index[key] = len(out)
		out = append(out, *p)
	}
	return out, nil
}

func (e *Extractor) parameter(ref *openapi3.ParameterRef, ctx schema.Context, opName string) (*ir.Param, error) {
	if ref == nil {
		return nil, nil
	}
	value := ref.Value
	var (
		typeIR ir.TypeIR
		err    error
	)
	if ref.Ref != "" {
		resolved, chain, err := e.synth.Resolver().Resolve(ref.Ref, ctx.SpecKey)
		if err != nil {
			return nil, err
		}
		if value == nil {
			if value, err = e.lookupParameter(resolved); err != nil {
				return nil, err
			}
		}
		typeIR = ir.TypeIR{Value: resolved.Name, Imports: chain, IsRef: true}
	} else if value != nil {
		typeIR, err = e.synth.SynthesizeHoisted(paramSchema(value), ctx, utils.TypeName(opName+" "+value.Name))
		if err != nil {
			return nil, err
		}
	}
	if value == nil {
		return nil, nil
	}

	p := &ir.Param{
		Name:        value.Name,
		Identifier:  utils.VariableName(value.Name),
		In:          value.In,
		Required:    value.Required || value.In == openapi3.ParameterInPath,
		TypeValue:   typeIR.Value,
		Description: value.Description,
		Imports:     typeIR.Imports,
		Schemas:     typeIR.Schemas,
		Schema:      paramSchema(value),
	}
	if s := p.Schema; s != nil && s.Value != nil && s.Value.Default != nil {
		p.Default = utils.Literal(s.Value.Default)
	}
	return p, nil
}

func paramSchema(p *openapi3.Parameter) *openapi3.SchemaRef {
	if p.Schema != nil {
		return p.Schema
	}
	_, s := schema.PickContent(p.Content)
	return s
}

// lookupParameter decodes a parameter the loader left unresolved.
func (e *Extractor) lookupParameter(resolved ir.ResolvedRef) (*openapi3.Parameter, error) {
	node, err := e.synth.Resolver().Graph().Lookup(resolved.SpecKey, resolved.Pointer)
	if err != nil {
		return nil, &generrors.ReferenceError{Ref: resolved.Pointer, SpecKey: resolved.SpecKey, Cause: err}
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	var p openapi3.Parameter
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decoding parameter %s: %w", resolved.Canonical(), err)
	}
	return &p, nil
}

// buildRoute checks path parameters against the route placeholders and
// renders the route as a template literal.
func buildRoute(operationID, route string, params []ir.Param) (string, error) {
	byName := make(map[string]ir.Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	placeholders := map[string]struct{}{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(route, -1) {
		if _, ok := byName[m[1]]; !ok {
			return "", &generrors.PathParamError{OperationID: operationID, Param: m[1], Missing: true}
		}
		placeholders[m[1]] = struct{}{}
	}
	for _, p := range params {
		if _, ok := placeholders[p.Name]; !ok {
			return "", &generrors.PathParamError{OperationID: operationID, Param: p.Name}
		}
	}

	rendered := placeholderPattern.ReplaceAllStringFunc(route, func(m string) string {
		return "${" + byName[m[1:len(m)-1]].Identifier + "}"
	})
	return "`" + strings.ReplaceAll(rendered, "`", "\\`") + "`", nil
}

// group collapses query or header parameters into one hoisted object type.
func (e *Extractor) group(params []ir.Param, opName, suffix string, ctx schema.Context) *ir.ParamsGroup {
	if len(params) == 0 {
		return nil
	}
	name, _ := e.synth.Resolver().Reserve(utils.TypeName(opName)+suffix, "group:"+opName+suffix)

	g := &ir.ParamsGroup{Name: name, Members: params, Optional: true}
	var b strings.Builder
	var imports []ir.Import
	b.WriteString("export type " + name + " = {\n")
	for _, p := range params {
		if p.Required {
			g.Optional = false
		}
		b.WriteString(utils.JSDoc("  ", p.Description))
		b.WriteString("  " + utils.QuotePropertyName(p.Name))
		if !p.Required {
			b.WriteString("?")
		}
		b.WriteString(": " + p.TypeValue + ";\n")
		imports = append(imports, p.Imports...)
	}
	b.WriteString("};\n")
	g.Schema = ir.Schema{Name: name, Model: b.String(), Imports: ir.DedupImports(imports), SpecKey: ctx.SpecKey}
	return g
}
