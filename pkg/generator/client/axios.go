package client

import (
	"strings"

	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

func axiosDependencies(flags Flags) []ir.GeneratorDependency {
	if flags.Mutator {
		return nil
	}
	return []ir.GeneratorDependency{{
		Dependency: "axios",
		Exports: []ir.DependencyExport{
			{Name: "axios", Default: true, Values: true},
			{Name: "AxiosError"},
			{Name: "AxiosRequestConfig"},
			{Name: "AxiosResponse"},
		},
	}}
}

// axiosFunctions emits one exported function per operation.
type axiosFunctions struct{}

func (axiosFunctions) Dependencies(flags Flags) []ir.GeneratorDependency {
	return axiosDependencies(flags)
}

func (axiosFunctions) Header(meta HeaderMeta) (string, error) {
	return helperTypes(meta.Context), nil
}

func (axiosFunctions) Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error) {
	view := newView(v, false)
	impl, err := render("function", view)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	types := "export type " + view.Pascal + "Result = NonNullable<Awaited<ReturnType<typeof " + view.Name + ">>>;\n"
	ctx.add(view, types)
	return ir.ClientFragment{Implementation: impl, Imports: v.Imports(), Types: types}, nil
}

func (axiosFunctions) Footer(meta FooterMeta) (string, error) {
	return contextTypes(meta.Context), nil
}

func (axiosFunctions) Title(name string) string {
	return utils.TypeName(name)
}

// axiosFactory wraps the operations of a group in one factory function
// returning them.
type axiosFactory struct{}

func (axiosFactory) Dependencies(flags Flags) []ir.GeneratorDependency {
	return axiosDependencies(flags)
}

func (f axiosFactory) Header(meta HeaderMeta) (string, error) {
	return helperTypes(meta.Context) + "export const " + f.Title(meta.Title) + " = () => {\n", nil
}

func (f axiosFactory) Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error) {
	view := newView(v, false)
	view.Export = false
	impl, err := render("function", view)
	if err != nil {
		return ir.ClientFragment{}, err
	}
	types := "export type " + view.Pascal + "Result = NonNullable<Awaited<ReturnType<ReturnType<typeof " +
		f.Title(ctx.Title) + ">['" + view.Name + "']>>>;\n"
	ctx.add(view, types)
	return ir.ClientFragment{Implementation: indentLines(impl, "  "), Imports: v.Imports(), Types: types}, nil
}

func (axiosFactory) Footer(meta FooterMeta) (string, error) {
	var b strings.Builder
	b.WriteString("  return {" + strings.Join(meta.Operations, ", ") + "};\n};\n")
	if types := contextTypes(meta.Context); types != "" {
		b.WriteString("\n" + types)
	}
	return b.String(), nil
}

func (axiosFactory) Title(name string) string {
	return "get" + utils.TypeName(name)
}
