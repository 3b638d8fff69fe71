package client

import (
	"strings"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// swr emits the plain request function of every operation followed by a
// useSwr hook for GET operations and a useSWRMutation hook for the others.
type swr struct{}

func (swr) Dependencies(flags Flags) []ir.GeneratorDependency {
	deps := []ir.GeneratorDependency{
		{
			Dependency: "swr",
			Exports: []ir.DependencyExport{
				{Name: "useSwr", Default: true, Values: true},
				{Name: "Key"},
				{Name: "SWRConfiguration"},
			},
		},
		{
			Dependency: "swr/mutation",
			Exports: []ir.DependencyExport{
				{Name: "useSWRMutation", Default: true, Values: true},
				{Name: "SWRMutationConfiguration"},
			},
		},
	}
	return append(deps, axiosDependencies(flags)...)
}

func (swr) Header(meta HeaderMeta) (string, error) {
	return helperTypes(meta.Context), nil
}

func (s swr) Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error) {
	view := newView(v, false)
	fn, err := render("function", view)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	parts := []string{fn}

	name, data := "swrQuery", any(swrQueryData(view))
	if v.Verb != "get" {
		name, data = "swrMutation", swrMutationData(view)
	}
	hook, err := render(name, data)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	parts = append(parts, hook)

	ctx.add(view, "")
	return ir.ClientFragment{Implementation: strings.Join(parts, "\n"), Imports: v.Imports()}, nil
}

func (swr) Footer(FooterMeta) (string, error) {
	return "", nil
}

func (swr) Title(name string) string {
	return utils.TypeName(name)
}

type swrData struct {
	Doc         string
	Name        string
	Pascal      string
	Data        string
	ErrorType   string
	Signature   []string
	Destructure string
	KeyName     string
	KeySig      []string
	KeyExpr     string
	KeyCall     string
	Call        string
	// mutations only
	FetcherSig []string
	Arg        string
	FetcherArg string
}

func swrDestructure(v view) (destructure, reqVar, field string) {
	reqKey, reqField := v.requestOptionsField()
	if reqKey == "" {
		return "{swr: swrOptions}", "", ""
	}
	reqVar = reqKey + "Options"
	return "{swr: swrOptions, " + reqKey + ": " + reqVar + "}", reqVar, "; " + reqField
}

func swrQueryData(v view) swrData {
	destructure, reqVar, field := swrDestructure(v)
	keyParams, keyArgs := v.keyProps()
	d := swrData{
		Doc:         v.Doc,
		Name:        v.Name,
		Pascal:      v.Pascal,
		Data:        awaited(v.Name),
		ErrorType:   v.ErrorType(),
		Destructure: destructure,
		KeyName:     "get" + v.Pascal + "Key",
		KeySig:      optionalParams(keyParams),
		KeyExpr:     v.keyExpr(),
		Call:        v.invoke(v.Args, reqVar, false),
	}
	d.KeyCall = d.KeyName + "(" + strings.Join(keyArgs, ", ") + ")"
	d.Signature = append(propImplementations(v.Op.Props),
		"options?: {swr?: SWRConfiguration<"+d.Data+", TError> & {swrKey?: Key; enabled?: boolean}"+field+"}")
	return d
}

// swrMutationData passes the body as the mutation argument; the other
// arguments are given to the hook.
func swrMutationData(v view) swrData {
	destructure, reqVar, field := swrDestructure(v)
	d := swrData{
		Doc:         v.Doc,
		Name:        v.Name,
		Pascal:      v.Pascal,
		Data:        awaited(v.Name),
		ErrorType:   v.ErrorType(),
		Destructure: destructure,
		KeyName:     "get" + v.Pascal + "MutationKey",
		Arg:         "void",
	}

	var hookProps []ir.Prop
	var keyParams, keyArgs, fetcherArgs, callArgs []string
	for _, p := range v.Op.Props {
		if p.Type == ir.PropBody {
			d.Arg = v.Op.Body.Definition
			callArgs = append(callArgs, "arg")
			continue
		}
		hookProps = append(hookProps, p)
		fetcherArgs = append(fetcherArgs, p.Name)
		callArgs = append(callArgs, p.Name)
		if p.Type == ir.PropParam {
			keyParams = append(keyParams, p.Implementation)
			keyArgs = append(keyArgs, p.Name)
		}
	}
	d.KeySig = keyParams
	d.KeyExpr = "[" + v.Op.Route + "] as const"
	d.KeyCall = d.KeyName + "(" + strings.Join(keyArgs, ", ") + ")"

	d.FetcherSig = propImplementations(hookProps)
	fetcherOptions := ""
	if v.options != "" {
		d.FetcherSig = append(d.FetcherSig, "options?: "+v.options)
		fetcherOptions = "options"
	}
	if reqVar != "" {
		fetcherArgs = append(fetcherArgs, reqVar)
	}
	d.FetcherArg = strings.Join(fetcherArgs, ", ")
	d.Call = v.invoke(callArgs, fetcherOptions, false)

	d.Signature = append(propImplementations(hookProps),
		"options?: {swr?: SWRMutationConfiguration<"+d.Data+", TError, Key, "+d.Arg+", "+d.Data+"> & {swrKey?: string}"+field+"}")
	return d
}

func propImplementations(props []ir.Prop) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.Implementation)
	}
	return out
}
