// Package client holds the client backends: one code emission strategy per
// consumption style, selected by name.
package client

import (
	"sort"
	"strings"

	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
)

// Backend renders the client code of one group of operations. Operation is
// called once per operation, then Header and Footer with the names of the
// operations the group ended up with.
type Backend interface {
	Dependencies(flags Flags) []ir.GeneratorDependency
	Header(meta HeaderMeta) (string, error)
	Operation(v *ir.VerbOption, ctx *BuildContext) (ir.ClientFragment, error)
	Footer(meta FooterMeta) (string, error)
	// Title derives the name of the group's container (factory, class) from
	// the API title
	Title(name string) string
}

// Flags describe the group being generated.
type Flags struct {
	// Mutator is set when every call of the group goes through a mutator
	Mutator bool
}

// HeaderMeta is passed to Backend.Header.
type HeaderMeta struct {
	Title      string
	Operations []string
	Context    *BuildContext
}

// FooterMeta is passed to Backend.Footer.
type FooterMeta struct {
	Title      string
	Operations []string
	Context    *BuildContext
}

// BuildContext accumulates what the header and footer of one group need to
// know about its operations. A fresh context is created per group.
type BuildContext struct {
	Title string

	operations []string
	types      []string
	// helper types the header must declare
	secondParameter bool
	thirdParameter  bool
	httpOptions     bool
}

// NewBuildContext creates the context of one group.
func NewBuildContext(title string) *BuildContext {
	return &BuildContext{Title: title}
}

// Operations lists the operation names added so far.
func (c *BuildContext) Operations() []string {
	return append([]string(nil), c.operations...)
}

// Types lists the per-operation declarations the footer emits.
func (c *BuildContext) Types() []string {
	return append([]string(nil), c.types...)
}

func (c *BuildContext) add(v view, types string) {
	c.operations = append(c.operations, v.Name)
	if types != "" {
		c.types = append(c.types, types)
	}
	switch {
	case strings.HasPrefix(v.options, "SecondParameter"):
		c.secondParameter = true
	case strings.HasPrefix(v.options, "ThirdParameter"):
		c.thirdParameter = true
	case v.options == httpClientOptions:
		c.httpOptions = true
	}
}

// Selector picks a backend: a builtin by name, or a custom implementation.
type Selector struct {
	name   string
	custom Backend
}

// Builtin selects a registered backend by name.
func Builtin(name string) Selector {
	return Selector{name: name}
}

// Custom selects a user-supplied backend.
func Custom(b Backend) Selector {
	return Selector{custom: b}
}

// String names the selection.
func (s Selector) String() string {
	if s.custom != nil {
		return "custom"
	}
	return s.name
}

// Backend returns the selected backend.
func (s Selector) Backend() (Backend, error) {
	if s.custom != nil {
		return s.custom, nil
	}
	factory, ok := registry[s.name]
	if !ok {
		return nil, &generrors.ConfigError{Option: "output.client", Message: "unknown client " + s.name}
	}
	return factory(), nil
}

var registry = map[string]func() Backend{
	"axios":           func() Backend { return axiosFactory{} },
	"axios-functions": func() Backend { return axiosFunctions{} },
	"angular":         func() Backend { return angular{} },
	"react-query":     func() Backend { return query{flavor: reactQuery} },
	"svelte-query":    func() Backend { return query{flavor: svelteQuery} },
	"vue-query":       func() Backend { return query{flavor: vueQuery} },
	"swr":             func() Backend { return swr{} },
}

// Names lists the builtin backends.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
