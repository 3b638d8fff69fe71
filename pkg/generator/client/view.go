package client

import (
	"strings"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// view is the template data of one operation. Expressions that depend on
// the operation's shape are computed here so templates stay layout only.
type view struct {
	Op     *ir.VerbOption
	Name   string
	Pascal string
	Method string
	Doc    string
	// Signature lists the parameters of the generated function, including
	// the trailing options and signal parameters
	Signature []string
	// Args lists the names of the operation props in declaration order
	Args []string
	// Call is the expression the generated function returns
	Call     string
	Form     string
	Response string
	Error    string
	Mutator  *ir.Mutator
	Export   bool

	override *config.Override
	// options is the type of the request options parameter; empty when the
	// function takes none
	options string
	signal  bool
	data    string
}

// newView prepares an operation for the axios-style backends. signal adds an
// AbortSignal parameter to GET operations that call a mutator.
func newView(v *ir.VerbOption, signal bool) view {
	o := v.Override
	if o == nil {
		o = &config.Override{}
	}
	out := view{
		Op:       v,
		Name:     v.OperationName,
		Pascal:   utils.TypeName(v.OperationName),
		Method:   strings.ToUpper(v.Verb),
		Doc:      v.Doc,
		Response: v.Response.Definition.Success,
		Error:    v.Response.Definition.Errors,
		Mutator:  v.Mutator,
		Export:   true,
		override: o,
		data:     dataExpr(v),
	}
	for _, p := range v.Props {
		out.Signature = append(out.Signature, p.Implementation)
		out.Args = append(out.Args, p.Name)
	}
	out.Form = v.Body.FormData
	if out.Form == "" {
		out.Form = v.Body.FormURLEncoded
	}

	switch {
	case v.Mutator == nil && o.WithRequestOptions():
		out.options = "AxiosRequestConfig"
	case v.Mutator != nil && v.Mutator.HasSecondArg && o.WithRequestOptions():
		out.options = "SecondParameter<typeof " + v.Mutator.Name + ">"
	}
	if out.options != "" {
		out.Signature = append(out.Signature, "options?: "+out.options)
	}
	if signal && v.Mutator != nil && v.Verb == "get" && o.Signal() {
		out.signal = true
		out.Signature = append(out.Signature, "signal?: AbortSignal")
	}

	if v.Mutator != nil {
		out.Call = out.mutatorCall("", "")
	} else {
		out.Call = out.axiosCall()
	}
	return out
}

// ErrorType is the error type hooks are parameterized with.
func (v view) ErrorType() string {
	if v.Mutator != nil {
		return v.Error
	}
	return "AxiosError<" + v.Error + ">"
}

func dataExpr(v *ir.VerbOption) string {
	switch {
	case v.Body.FormData != "":
		return "formData"
	case v.Body.FormURLEncoded != "":
		return "formUrlEncoded"
	}
	return v.Body.Implementation
}

func hasData(verb string) bool {
	return verb == "post" || verb == "put" || verb == "patch"
}

// axiosCall renders the call of the default axios instance.
func (v view) axiosCall() string {
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
		cfg = append(cfg, "responseType: 'blob'")
	}

	if op.Verb == "trace" {
		cfg = append([]string{"url: " + op.Route, "method: 'TRACE'"}, cfg...)
		return "axios.request(" + literal(cfg, "  ") + ")"
	}

	args := []string{op.Route}
	switch {
	case hasData(op.Verb):
		args = append(args, orUndefined(v.data))
	case v.data != "":
		cfg = append(cfg, "data: "+v.data)
	}
	if len(cfg) > 0 {
		args = append(args, requestConfig(cfg))
	}
	return "axios." + op.Verb + "(" + strings.Join(args, ", ") + ")"
}

// requestConfig renders request config entries, passing the caller's options
// through untouched when nothing else is set.
func requestConfig(entries []string) string {
	if len(entries) == 1 && entries[0] == "...options" {
		return "options"
	}
	return literal(entries, "  ")
}

// mutatorCall renders the call of a user mutator. extra is passed between
// the request config and the options, as angular does with its HttpClient.
func (v view) mutatorCall(typeArg, extra string) string {
	op := v.Op
	if typeArg == "" {
		typeArg = v.Response
	}
	cfg := []string{"url: " + op.Route, "method: '" + v.Method + "'"}
	contentType := op.Body.ContentType != "" && op.Body.ContentType != "multipart/form-data"
	switch {
	case contentType && op.Headers != nil:
		cfg = append(cfg, "headers: {'Content-Type': "+utils.StringLiteral(op.Body.ContentType)+", ...headers}")
	case contentType:
		cfg = append(cfg, "headers: {'Content-Type': "+utils.StringLiteral(op.Body.ContentType)+"}")
	case op.Headers != nil:
		cfg = append(cfg, "headers")
	}
	if op.QueryParams != nil {
		cfg = append(cfg, "params")
	}
	if v.data != "" {
		cfg = append(cfg, "data: "+v.data)
	}
	if op.Response.IsBlob {
		cfg = append(cfg, "responseType: 'blob'")
	}
	if v.signal {
		cfg = append(cfg, "signal")
	}

	args := []string{literal(cfg, "  ")}
	if extra != "" {
		args = append(args, extra)
	}
	if v.options != "" {
		args = append(args, "options")
	}
	return v.Mutator.Name + "<" + typeArg + ">(" + strings.Join(args, ", ") + ")"
}

// invoke renders a call of the generated function from a hook. requestOptions
// is the variable holding request options; signal threads an AbortSignal.
func (v view) invoke(args []string, requestOptions string, signal bool) string {
	out := append([]string(nil), args...)
	switch {
	case v.Mutator == nil && v.options != "":
		if signal {
			out = append(out, "{signal, ..."+requestOptions+"}")
		} else {
			out = append(out, requestOptions)
		}
	case v.Mutator != nil:
		if v.options != "" {
			out = append(out, requestOptions)
		}
		if v.signal && signal {
			out = append(out, "signal")
		}
	}
	return v.Name + "(" + strings.Join(out, ", ") + ")"
}

// requestOptionsField is the hook option carrying request options, e.g.
// "axios?: AxiosRequestConfig".
func (v view) requestOptionsField() (key, field string) {
	switch {
	case v.options == "":
		return "", ""
	case v.Mutator == nil:
		return "axios", "axios?: AxiosRequestConfig"
	}
	return "request", "request?: " + v.options
}

// variables is the object type mutation hooks receive.
func (v view) variables() string {
	if len(v.Op.Props) == 0 {
		return "void"
	}
	defs := make([]string, 0, len(v.Op.Props))
	for _, p := range v.Op.Props {
		defs = append(defs, p.Definition)
	}
	return "{" + strings.Join(defs, "; ") + "}"
}

// keyProps returns the path parameters and query group, the inputs of a
// cache key.
func (v view) keyProps() (params, args []string) {
	for _, p := range v.Op.Props {
		if p.Type == ir.PropParam || p.Type == ir.PropQueryParam {
			params = append(params, p.Implementation)
			args = append(args, p.Name)
		}
	}
	return params, args
}

// keyExpr renders the cache key of an operation.
func (v view) keyExpr() string {
	key := "[" + v.Op.Route
	if v.Op.QueryParams != nil {
		key += ", ...(params ? [params] : [])"
	}
	return key + "] as const"
}

func merged(name string, withOptions bool) string {
	if !withOptions {
		return name
	}
	return name + ": {..." + name + ", ...options?." + name + "}"
}

func orUndefined(s string) string {
	if s == "" {
		return "undefined"
	}
	return s
}

// literal renders an object literal whose closing brace sits at indent.
func literal(entries []string, indent string) string {
	if len(entries) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, e := range entries {
		b.WriteString(indent + "  " + e + ",\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

// params renders a parameter list, one parameter per line.
func params(list []string) string {
	if len(list) == 0 {
		return "()"
	}
	return "(\n  " + strings.Join(list, ",\n  ") + ",\n)"
}

// indentLines indents every non-empty line of s.
func indentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = indent + l
		}
	}
	return strings.Join(lines, "\n")
}
