package client

import (
	"strings"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

const httpClientOptions = "HttpClientOptions"

const httpClientOptionsType = `interface HttpClientOptions {
  headers?: HttpHeaders | Record<string, string | string[]>;
  context?: HttpContext;
  observe?: any;
  params?: HttpParams | Record<string, string | number | boolean | ReadonlyArray<string | number | boolean>>;
  reportProgress?: boolean;
  responseType?: any;
  withCredentials?: boolean;
}

`

// angular emits an injectable service whose methods call HttpClient and
// return observables.
type angular struct{}

func (angular) Dependencies(Flags) []ir.GeneratorDependency {
	return []ir.GeneratorDependency{
		{
			Dependency: "@angular/core",
			Exports:    []ir.DependencyExport{{Name: "Injectable", Values: true}},
		},
		{
			Dependency: "@angular/common/http",
			Exports: []ir.DependencyExport{
				{Name: "HttpClient", Values: true},
				{Name: "HttpContext"},
				{Name: "HttpHeaders"},
				{Name: "HttpParams"},
			},
		},
		{
			Dependency: "rxjs",
			Exports:    []ir.DependencyExport{{Name: "Observable"}},
		},
	}
}

func (a angular) Header(meta HeaderMeta) (string, error) {
	var b strings.Builder
	if meta.Context != nil && meta.Context.httpOptions {
		b.WriteString(httpClientOptionsType)
	}
	b.WriteString(helperTypes(meta.Context))
	b.WriteString("@Injectable({providedIn: 'root'})\n")
	b.WriteString("export class " + a.Title(meta.Title) + " {\n")
	b.WriteString("  constructor(private http: HttpClient) {}\n")
	return b.String(), nil
}

func (angular) Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error) {
	view := angularView(v)
	impl, err := render("angularMethod", view)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	types := "export type " + view.Pascal + "ClientResult = NonNullable<" + view.Response + ">;\n"
	ctx.add(view, types)
	return ir.ClientFragment{Implementation: indentLines(impl, "  "), Imports: v.Imports(), Types: types}, nil
}

func (angular) Footer(meta FooterMeta) (string, error) {
	out := "}\n"
	if types := contextTypes(meta.Context); types != "" {
		out += "\n" + types
	}
	return out, nil
}

func (angular) Title(name string) string {
	return utils.TypeName(name) + "Service"
}

// angularView adapts the axios view: request options are HttpClient options
// or the mutator's third parameter, the mutator receiving the HttpClient as
// its second argument.
func angularView(v *ir.VerbOption) view {
	out := newView(v, false)
	out.Signature = out.Signature[:len(v.Props)]
	out.options = ""
	switch {
	case v.Mutator == nil && out.override.WithRequestOptions():
		out.options = httpClientOptions
	case v.Mutator != nil && v.Mutator.HasThirdArg && out.override.WithRequestOptions():
		out.options = "ThirdParameter<typeof " + v.Mutator.Name + ">"
	}
	if out.options != "" {
		out.Signature = append(out.Signature, "options?: "+out.options)
	}
	if v.Mutator != nil {
		out.Call = out.mutatorCall("TData", "this.http")
	} else {
		out.Call = out.httpCall()
	}
	return out
}

// httpCall renders the HttpClient call of an operation without mutator.
func (v view) httpCall() string {
	op := v.Op
	withOptions := v.options != ""

	var cfg []string
	if withOptions {
		cfg = append(cfg, "...options")
	}
	if op.QueryParams != nil {
		cfg = append(cfg, merged("params", withOptions))
	}
	if op.Headers != nil {
		cfg = append(cfg, merged("headers", withOptions))
	}
	if op.Response.IsBlob {
		cfg = append(cfg, "responseType: 'blob' as 'json'")
	}

	args := []string{op.Route}
	verb := op.Verb
	switch {
	case verb == "trace":
		verb = "request"
		args = append([]string{"'TRACE'"}, args...)
		if v.data != "" {
			cfg = append(cfg, "body: "+v.data)
		}
	case hasData(verb):
		args = append(args, orUndefined(v.data))
	case v.data != "":
		cfg = append(cfg, "body: "+v.data)
	}
	if len(cfg) > 0 {
		args = append(args, requestConfig(cfg))
	}
	return "this.http." + verb + "<TData>(" + strings.Join(args, ", ") + ")"
}
