package client

import (
	"sort"
	"strings"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// flavor names the hooks and types of one TanStack Query binding.
type flavor struct {
	pkg             string
	queryFn         string
	queryOptions    string
	queryResult     string
	infiniteFn      string
	infiniteOptions string
	infiniteResult  string
	mutationFn      string
	mutationOptions string
	// hookPrefix starts the name of generated hooks: use or create
	hookPrefix string
}

var (
	reactQuery = flavor{
		pkg:             "@tanstack/react-query",
		queryFn:         "useQuery",
		queryOptions:    "UseQueryOptions",
		queryResult:     "UseQueryResult",
		infiniteFn:      "useInfiniteQuery",
		infiniteOptions: "UseInfiniteQueryOptions",
		infiniteResult:  "UseInfiniteQueryResult",
		mutationFn:      "useMutation",
		mutationOptions: "UseMutationOptions",
		hookPrefix:      "use",
	}
	svelteQuery = flavor{
		pkg:             "@tanstack/svelte-query",
		queryFn:         "createQuery",
		queryOptions:    "CreateQueryOptions",
		queryResult:     "CreateQueryResult",
		infiniteFn:      "createInfiniteQuery",
		infiniteOptions: "CreateInfiniteQueryOptions",
		infiniteResult:  "CreateInfiniteQueryResult",
		mutationFn:      "createMutation",
		mutationOptions: "CreateMutationOptions",
		hookPrefix:      "create",
	}
	vueQuery = flavor{
		pkg:             "@tanstack/vue-query",
		queryFn:         "useQuery",
		queryOptions:    "UseQueryOptions",
		queryResult:     "UseQueryReturnType",
		infiniteFn:      "useInfiniteQuery",
		infiniteOptions: "UseInfiniteQueryOptions",
		infiniteResult:  "UseInfiniteQueryReturnType",
		mutationFn:      "useMutation",
		mutationOptions: "UseMutationOptions",
		hookPrefix:      "use",
	}
)

// query emits the plain request function of every operation followed by
// query hooks for GET operations and mutation hooks for the others.
type query struct {
	flavor flavor
}

func (q query) Dependencies(flags Flags) []ir.GeneratorDependency {
	f := q.flavor
	deps := []ir.GeneratorDependency{{
		Dependency: f.pkg,
		Exports: []ir.DependencyExport{
			{Name: f.queryFn, Values: true},
			{Name: f.infiniteFn, Values: true},
			{Name: f.mutationFn, Values: true},
			{Name: f.queryOptions},
			{Name: f.queryResult},
			{Name: f.infiniteOptions},
			{Name: f.infiniteResult},
			{Name: f.mutationOptions},
			{Name: "InfiniteData"},
			{Name: "MutationFunction"},
			{Name: "QueryFunction"},
			{Name: "QueryKey"},
		},
	}}
	return append(deps, axiosDependencies(flags)...)
}

func (query) Header(meta HeaderMeta) (string, error) {
	return helperTypes(meta.Context), nil
}

func (q query) Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error) {
	view := newView(v, true)
	fn, err := render("function", view)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	parts := []string{fn}

	o := view.override
	switch {
	case v.Verb == "get" && o.UseQuery():
		key, err := render("queryKey", q.key(view, "Query", false))
		if err != nil {
			return ir.ClientFragment{}, err
		}
		hook, err := render("query", q.queryHook(view, false))
		if err != nil {
			return ir.ClientFragment{}, err
		}
		parts = append(parts, key, hook)
		if o.UseInfinite() && v.QueryParams != nil {
			key, err := render("queryKey", q.key(view, "InfiniteQuery", true))
			if err != nil {
				return ir.ClientFragment{}, err
			}
			hook, err := render("query", q.queryHook(view, true))
			if err != nil {
				return ir.ClientFragment{}, err
			}
			parts = append(parts, key, hook)
		}
	case v.Verb != "get":
		hook, err := render("mutation", q.mutationHook(view))
		if err != nil {
			return ir.ClientFragment{}, err
		}
		parts = append(parts, hook)
	}

	ctx.add(view, "")
	return ir.ClientFragment{Implementation: strings.Join(parts, "\n"), Imports: v.Imports()}, nil
}

func (query) Footer(FooterMeta) (string, error) {
	return "", nil
}

func (query) Title(name string) string {
	return utils.TypeName(name)
}

type keyData struct {
	Name      string
	Signature []string
	Expr      string
}

func (q query) key(v view, kind string, infinite bool) keyData {
	params, _ := v.keyProps()
	expr := v.keyExpr()
	if infinite {
		expr = "['infinite', " + strings.TrimPrefix(expr, "[")
	}
	return keyData{Name: "get" + v.Pascal + kind + "Key", Signature: optionalParams(params), Expr: expr}
}

type queryData struct {
	Doc         string
	Pascal      string
	Kind        string
	HookName    string
	HookFn      string
	Data        string
	DataDefault string
	ErrorType   string
	Signature   []string
	CallArgs    string
	Destructure string
	KeyCall     string
	FnTypeArgs  string
	FnParams    string
	QueryFn     string
	Defaults    string
	OptionsType string
	ResultType  string
}

func (q query) queryHook(v view, infinite bool) queryData {
	f := q.flavor
	data := awaited(v.Name)
	reqKey, reqField := v.requestOptionsField()

	d := queryData{
		Doc:         v.Doc,
		Pascal:      v.Pascal,
		Kind:        "Query",
		HookName:    f.hookPrefix + v.Pascal,
		HookFn:      f.queryFn,
		Data:        data,
		DataDefault: data,
		ErrorType:   v.ErrorType(),
		OptionsType: f.queryOptions,
		ResultType:  f.queryResult,
		FnParams:    "()",
	}
	if infinite {
		d.Kind = "InfiniteQuery"
		d.HookName += "Infinite"
		d.HookFn = f.infiniteFn
		d.DataDefault = "InfiniteData<" + data + ">"
		d.OptionsType = f.infiniteOptions
		d.ResultType = f.infiniteResult
	}

	optionsType := "query?: Partial<" + d.OptionsType + "<" + data + ", TError, TData>>"
	if reqField != "" {
		optionsType += "; " + reqField
	}
	props := make([]string, 0, len(v.Op.Props))
	for _, p := range v.Op.Props {
		props = append(props, p.Implementation)
	}
	d.Signature = append(props, "options?: {"+optionsType+"}")
	d.CallArgs = strings.Join(append(append([]string(nil), v.Args...), "options"), ", ")

	d.Destructure = "{query: queryOptions}"
	reqVar := ""
	if reqKey != "" {
		reqVar = reqKey + "Options"
		d.Destructure = "{query: queryOptions, " + reqKey + ": " + reqVar + "}"
	}

	_, keyArgs := v.keyProps()
	d.KeyCall = "get" + v.Pascal + d.Kind + "Key(" + strings.Join(keyArgs, ", ") + ")"

	signal := v.Mutator == nil && v.options != "" && v.override.Signal() || v.signal
	args := v.Args
	var fnParams []string
	if signal {
		fnParams = append(fnParams, "signal")
	}
	if infinite {
		param := v.override.InfiniteParam()
		d.FnTypeArgs = ", QueryKey, " + v.Op.QueryParams.Name + "[" + utils.StringLiteral(param) + "]"
		fnParams = append(fnParams, "pageParam")
		args = replaceArg(args, "params",
			"{...params, "+utils.QuotePropertyName(param)+": pageParam || params?.["+utils.StringLiteral(param)+"]}")
	}
	if len(fnParams) > 0 {
		d.FnParams = "({" + strings.Join(fnParams, ", ") + "})"
	}
	d.QueryFn = v.invoke(args, reqVar, signal)

	if defaults := v.override.Query.Options; len(defaults) > 0 {
		d.Defaults = strings.Join(objectEntries(defaults), ", ") + ", "
	}
	return d
}

type mutationData struct {
	Doc         string
	Pascal      string
	HookName    string
	HookFn      string
	Data        string
	ErrorType   string
	Variables   string
	Signature   []string
	Destructure string
	FnParams    string
	Unpack      string
	Call        string
	Body        string
	OptionsType string
}

func (q query) mutationHook(v view) mutationData {
	f := q.flavor
	reqKey, reqField := v.requestOptionsField()
	d := mutationData{
		Doc:         v.Doc,
		Pascal:      v.Pascal,
		HookName:    f.hookPrefix + v.Pascal,
		HookFn:      f.mutationFn,
		Data:        awaited(v.Name),
		ErrorType:   v.ErrorType(),
		Variables:   v.variables(),
		Body:        v.Op.Body.Definition,
		OptionsType: f.mutationOptions,
	}
	optionsType := "mutation?: " + d.OptionsType + "<" + d.Data + ", TError, " + d.Variables + ", TContext>"
	if reqField != "" {
		optionsType += "; " + reqField
	}
	d.Signature = []string{"options?: {" + optionsType + "}"}

	d.Destructure = "{mutation: mutationOptions}"
	reqVar := ""
	if reqKey != "" {
		reqVar = reqKey + "Options"
		d.Destructure = "{mutation: mutationOptions, " + reqKey + ": " + reqVar + "}"
	}
	if len(v.Args) > 0 {
		d.FnParams = "props"
		d.Unpack = "{" + strings.Join(v.Args, ", ") + "}"
	}
	d.Call = v.invoke(v.Args, reqVar, false)
	return d
}

func awaited(name string) string {
	return "Awaited<ReturnType<typeof " + name + ">>"
}

// optionalParams relaxes the query group of a key function: keys are also
// computed for invalidation without the query at hand.
func optionalParams(params []string) []string {
	out := make([]string, len(params))
	for i, p := range params {
		if rest, ok := strings.CutPrefix(p, "params: "); ok {
			p = "params?: " + rest
		}
		out[i] = p
	}
	return out
}

func replaceArg(args []string, name, expr string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == name {
			a = expr
		}
		out[i] = a
	}
	return out
}

// objectEntries renders decoded configuration values as TypeScript object
// entries with sorted keys.
func objectEntries(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, utils.QuotePropertyName(k)+": "+valueLiteral(m[k]))
	}
	return entries
}

func valueLiteral(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return "{" + strings.Join(objectEntries(val), ", ") + "}"
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, valueLiteral(item))
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return utils.Literal(v)
}
