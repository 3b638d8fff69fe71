package client

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.gotmpl
var templatesFS embed.FS

var templates = template.Must(template.New("client").
	Funcs(sprig.TxtFuncMap()).
	Funcs(template.FuncMap{"params": params}).
	ParseFS(templatesFS, "templates/*.gotmpl"))

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return b.String(), nil
}

// helperTypes declares the parameter helpers mutator signatures use.
func helperTypes(ctx *BuildContext) string {
	if ctx == nil {
		return ""
	}
	var b strings.Builder
	if ctx.secondParameter {
		b.WriteString("type SecondParameter<T extends (...args: never) => unknown> = Parameters<T>[1];\n\n")
	}
	if ctx.thirdParameter {
		b.WriteString("type ThirdParameter<T extends (...args: never) => unknown> = Parameters<T>[2];\n\n")
	}
	return b.String()
}

func contextTypes(ctx *BuildContext) string {
	if ctx == nil {
		return ""
	}
	return strings.Join(ctx.Types(), "")
}
