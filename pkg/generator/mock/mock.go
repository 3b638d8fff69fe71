// Package mock renders faker-backed response mocks and msw request handlers
// that mirror the response types of each operation.
package mock

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/cast"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/logger"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

//go:embed templates/*.gotmpl
var templatesFS embed.FS

var templates = template.Must(template.New("mock").Funcs(sprig.TxtFuncMap()).ParseFS(templatesFS, "templates/*.gotmpl"))

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Synthesizer renders mocks. It shares the run's schema synthesizer, and so
// the resolver's name memo, with the operation extractor.
type Synthesizer struct {
	synth    *schema.Synthesizer
	override *config.Override
	log      logger.Logger
}

// Options configure a Synthesizer.
type Options struct {
	// Override is the global override tree
	Override *config.Override
	Logger   logger.Logger
}

// New creates a Synthesizer.
func New(synth *schema.Synthesizer, opts Options) *Synthesizer {
	override := opts.Override
	if override == nil {
		override = &config.Override{}
	}
	return &Synthesizer{synth: synth, override: override, log: logger.OrNop(opts.Logger)}
}

// Dependencies lists the packages mock code imports from.
func Dependencies() []ir.GeneratorDependency {
	return []ir.GeneratorDependency{
		{
			Dependency: "@faker-js/faker",
			Exports:    []ir.DependencyExport{{Name: "faker", Values: true}},
		},
		{
			Dependency: "msw",
			Exports: []ir.DependencyExport{
				{Name: "HttpResponse", Values: true},
				{Name: "delay", Values: true},
				{Name: "http", Values: true},
			},
		},
	}
}

type handlerData struct {
	HandlerName string
	MockName    string
	Verb        string
	Route       string
	Type        string
	Status      int
	Delay       int
}

type responseData struct {
	MockName string
	Type     string
	Value    string
	Object   bool
}

// Operation renders the response mock factory and the msw handler of one
// operation. The factory is only rendered when the operation has a JSON
// success response.
func (m *Synthesizer) Operation(v *ir.VerbOption) (*ir.MockFragment, error) {
	override := v.Override
	if override == nil {
		override = m.override
	}
	props, err := newPropertyOverrides(m.override, v)
	if err != nil {
		return nil, err
	}

	name := utils.TypeName(v.OperationName)
	data := handlerData{
		HandlerName: "get" + name + "MockHandler",
		Verb:        mswVerb(v.Verb),
		Route:       placeholderPattern.ReplaceAllString(v.Path, ":$1"),
		Status:      200,
		Delay:       config.IntOr(override.Mock.Delay, 1000),
	}
	frag := &ir.MockFragment{HandlerName: data.HandlerName}

	if success, ok := jsonSuccess(v.Response); ok {
		w := &walker{synth: m.synth, override: override, props: props, visiting: map[string]struct{}{}}
		expr, err := w.value(success.Schema, success.SpecKey, "", nil)
		if err != nil {
			return nil, fmt.Errorf("mocking %s: %w", v.OperationID, err)
		}

		resp := responseData{MockName: "get" + name + "ResponseMock", Type: success.Value, Value: expr}
		if strings.HasPrefix(expr, "{") {
			resp.Object = true
			resp.Value = withOverrideResponse(expr)
		}
		impl, err := render("response", resp)
		if err != nil {
			return nil, err
		}
		frag.Implementation = impl
		frag.Imports = append(append(frag.Imports, success.Imports...), w.imports...)

		data.MockName = resp.MockName
		data.Type = success.Value
		if status, err := cast.ToIntE(success.Key); err == nil {
			data.Status = status
		}
	}

	if frag.Handler, err = render("handler", data); err != nil {
		return nil, err
	}
	frag.Imports = ir.DedupImports(frag.Imports)
	m.log.Debug("rendered mock", "operation", v.OperationID, "handler", frag.HandlerName)
	return frag, nil
}

// Footer aggregates the handlers of a group into get<Title>Mock.
func Footer(title string, handlers []string) (string, error) {
	return render("footer", map[string]any{"Title": utils.TypeName(title), "Handlers": handlers})
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return b.String(), nil
}

// jsonSuccess picks the first success response with a JSON body.
func jsonSuccess(resp ir.Response) (ir.ResponseType, bool) {
	for _, t := range resp.Types.Success {
		if strings.Contains(t.ContentType, "json") {
			return t, true
		}
	}
	return ir.ResponseType{}, false
}

// withOverrideResponse spreads the caller's partial override over a rendered
// object.
func withOverrideResponse(expr string) string {
	if expr == "{}" {
		return "{\n  ...overrideResponse,\n}"
	}
	return strings.TrimSuffix(expr, "}") + "  ...overrideResponse,\n}"
}

func mswVerb(verb string) string {
	if verb == "trace" {
		return "all"
	}
	return verb
}
