// Package output lays the rendered fragments of a run out into files
// according to the output mode, and writes them.
package output

import (
	"path/filepath"
	"strings"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/client"
	"github.com/blimu-dev/client-gen/pkg/generator/mock"
	"github.com/blimu-dev/client-gen/pkg/generator/operation"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/logger"
	"github.com/blimu-dev/client-gen/pkg/utils"
)

// Info describes the API in the banner of generated files.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Input is everything a run produced.
type Input struct {
	Info Info
	// Operations carry their mock fragments; client code is rendered per
	// group by the assembler
	Operations []*ir.OperationOutput
	// Schemas are all declarations of the run
	Schemas []ir.Schema
}

// Options configure an Assembler.
type Options struct {
	Mode string
	// Target is the main output file
	Target string
	// Schemas is an optional directory receiving one file per declaration
	Schemas string
	Title   string
	Mock    bool
	// Banner prepends the generated-file comment
	Banner  bool
	Backend client.Backend
	Logger  logger.Logger
}

// File is one rendered output file.
type File struct {
	Path    string
	Content string
}

// Assembler reduces per-operation fragments into files.
type Assembler struct {
	opts Options
	log  logger.Logger
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	if opts.Mode == "" {
		opts.Mode = config.ModeSingle
	}
	return &Assembler{opts: opts, log: logger.OrNop(opts.Logger)}
}

type group struct {
	title string
	ops   []*ir.OperationOutput
}

// sections selects what a file holds.
type sections struct {
	schemas bool
	client  bool
	mock    bool
}

// Assemble renders the files of a run. Files are returned in a stable
// order: schema files first, then client and mock files in group order.
func (a *Assembler) Assemble(in Input) ([]File, error) {
	if a.opts.Backend == nil {
		return nil, &generrors.ConfigError{Option: "output.client", Message: "no client backend selected"}
	}
	target := a.opts.Target
	dir := filepath.Dir(target)
	ext := filepath.Ext(target)
	if ext == "" {
		ext = ".ts"
		target += ext
	}
	name := strings.TrimSuffix(filepath.Base(target), ext)

	var files []File
	// schemasModule is the module client files import declarations from;
	// empty when declarations are inlined
	var schemasModule string
	switch {
	case a.opts.Schemas != "":
		files = append(files, a.schemaFiles(in, ext)...)
		schemasModule = a.opts.Schemas
	case a.opts.Mode != config.ModeSingle:
		path := filepath.Join(dir, name+".schemas"+ext)
		files = append(files, File{Path: path, Content: a.banner(in.Info) + declarations(in.Schemas)})
		schemasModule = strings.TrimSuffix(path, ext)
	}

	f := fileBuilder{a: a, info: in.Info, schemas: in.Schemas, schemasModule: schemasModule}
	whole := group{title: a.opts.Title, ops: in.Operations}
	mocks := a.opts.Mock

	var out []File
	var err error
	switch a.opts.Mode {
	case config.ModeSingle:
		out, err = f.build(
			fileSpec{target, whole, sections{schemas: schemasModule == "", client: true, mock: mocks}},
		)
	case config.ModeSplit:
		specs := []fileSpec{{target, whole, sections{client: true}}}
		if mocks {
			specs = append(specs, fileSpec{filepath.Join(dir, name+".msw"+ext), whole, sections{mock: true}})
		}
		out, err = f.build(specs...)
	case config.ModeTags:
		var specs []fileSpec
		for _, g := range groupByTag(in.Operations) {
			path := filepath.Join(dir, utils.ToFileName(g.title)+ext)
			specs = append(specs, fileSpec{path, g, sections{client: true, mock: mocks}})
		}
		out, err = f.build(specs...)
	case config.ModeTagsSplit:
		var specs []fileSpec
		for _, g := range groupByTag(in.Operations) {
			tag := utils.ToFileName(g.title)
			specs = append(specs, fileSpec{filepath.Join(dir, tag, tag+ext), g, sections{client: true}})
			if mocks {
				specs = append(specs, fileSpec{filepath.Join(dir, tag, tag+".msw"+ext), g, sections{mock: true}})
			}
		}
		out, err = f.build(specs...)
	default:
		return nil, &generrors.ConfigError{Option: "output.mode", Message: "unknown mode " + a.opts.Mode}
	}
	if err != nil {
		return nil, err
	}
	files = append(files, out...)
	a.log.Debug("assembled output", "mode", a.opts.Mode, "files", len(files))
	return files, nil
}

// groupByTag groups operations by their first tag, in order of first
// appearance.
func groupByTag(ops []*ir.OperationOutput) []group {
	var groups []group
	index := map[string]int{}
	for _, op := range ops {
		tag := operation.DefaultTag
		if tags := op.VerbOption.Tags; len(tags) > 0 && tags[0] != "" {
			tag = tags[0]
		}
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, group{title: tag})
		}
		groups[i].ops = append(groups[i].ops, op)
	}
	return groups
}

// schemaFiles writes one file per declaration plus an index re-exporting
// them all.
func (a *Assembler) schemaFiles(in Input, ext string) []File {
	files := make([]File, 0, len(in.Schemas)+1)
	var index []string
	for _, s := range in.Schemas {
		path := filepath.Join(a.opts.Schemas, schemaFile(s.Name)+ext)
		var imports []string
		used := identifiers(s.Model)
		for _, imp := range ir.DedupImports(s.Imports) {
			if imp.Name == s.Name {
				continue
			}
			module := filepath.Join(a.opts.Schemas, schemaFile(imp.Name))
			imports = append(imports, schemaImports(path, module, []ir.Import{imp}, used)...)
		}
		content := a.banner(in.Info)
		if len(imports) > 0 {
			content += strings.Join(imports, "\n") + "\n\n"
		}
		files = append(files, File{Path: path, Content: content + s.Model})
		index = append(index, "export * from './"+schemaFile(s.Name)+"';")
	}
	files = append(files, File{
		Path:    filepath.Join(a.opts.Schemas, "index"+ext),
		Content: a.banner(in.Info) + strings.Join(index, "\n") + "\n",
	})
	return files
}

func (a *Assembler) banner(info Info) string {
	if !a.opts.Banner {
		return ""
	}
	lines := []string{"Generated by client-gen. Do not edit manually."}
	if info.Title != "" {
		lines = append(lines, info.Title)
	}
	if info.Description != "" {
		lines = append(lines, info.Description)
	}
	if info.Version != "" {
		lines = append(lines, "OpenAPI spec version: "+info.Version)
	}
	return utils.JSDoc("", lines...) + "\n"
}

func declarations(schemas []ir.Schema) string {
	models := make([]string, 0, len(schemas))
	for _, s := range schemas {
		models = append(models, s.Model)
	}
	return join(models...)
}

// join separates non-empty blocks with a blank line. Blocks end with a
// newline.
func join(blocks ...string) string {
	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n")
}

type fileSpec struct {
	path     string
	group    group
	sections sections
}

type fileBuilder struct {
	a             *Assembler
	info          Info
	schemas       []ir.Schema
	schemasModule string
}

func (f fileBuilder) build(specs ...fileSpec) ([]File, error) {
	files := make([]File, 0, len(specs))
	for _, s := range specs {
		file, err := f.file(s)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (f fileBuilder) file(s fileSpec) (File, error) {
	var blocks []string
	var deps []ir.GeneratorDependency
	var imports []ir.Import
	var mutators []*ir.Mutator

	if s.sections.schemas {
		blocks = append(blocks, declarations(f.schemas))
	}
	if s.sections.client {
		code, clientImports, err := f.client(s.group)
		if err != nil {
			return File{}, err
		}
		blocks = append(blocks, code)
		imports = append(imports, clientImports...)
		deps = append(deps, f.a.opts.Backend.Dependencies(flags(s.group))...)
		mutators = groupMutators(s.group)
	}
	if s.sections.mock {
		code, mockImports, err := mocks(s.group)
		if err != nil {
			return File{}, err
		}
		blocks = append(blocks, code)
		imports = append(imports, mockImports...)
		deps = append(deps, mock.Dependencies()...)
	}

	body := join(blocks...)
	used := identifiers(body)
	var lines []string
	lines = append(lines, dependencyImports(deps, used)...)
	lines = append(lines, mutatorImports(s.path, mutators)...)
	if f.schemasModule != "" {
		lines = append(lines, schemaImports(s.path, f.schemasModule, imports, used)...)
	}

	content := f.a.banner(f.info)
	if len(lines) > 0 {
		content += strings.Join(lines, "\n") + "\n\n"
	}
	return File{Path: s.path, Content: content + body}, nil
}

// client renders the client code of a group. Header and footer run after
// the operations so they see exactly the operations of the group.
func (f fileBuilder) client(g group) (string, []ir.Import, error) {
	b := f.a.opts.Backend
	ctx := client.NewBuildContext(g.title)
	impls := make([]string, 0, len(g.ops))
	var imports []ir.Import
	for _, op := range g.ops {
		frag, err := b.Operation(op.VerbOption, ctx)
		if err != nil {
			return "", nil, err
		}
		impls = append(impls, frag.Implementation)
		imports = append(imports, frag.Imports...)
	}
	names := ctx.Operations()
	header, err := b.Header(client.HeaderMeta{Title: g.title, Operations: names, Context: ctx})
	if err != nil {
		return "", nil, err
	}
	footer, err := b.Footer(client.FooterMeta{Title: g.title, Operations: names, Context: ctx})
	if err != nil {
		return "", nil, err
	}
	return join(append(append([]string{header}, impls...), footer)...), imports, nil
}

func mocks(g group) (string, []ir.Import, error) {
	var blocks, handlers []string
	var imports []ir.Import
	for _, op := range g.ops {
		if op.Mock == nil {
			continue
		}
		blocks = append(blocks, op.Mock.Implementation, op.Mock.Handler)
		handlers = append(handlers, op.Mock.HandlerName)
		imports = append(imports, op.Mock.Imports...)
	}
	if len(handlers) == 0 {
		return "", nil, nil
	}
	footer, err := mock.Footer(g.title, handlers)
	if err != nil {
		return "", nil, err
	}
	return join(append(blocks, footer)...), imports, nil
}

func flags(g group) client.Flags {
	all := len(g.ops) > 0
	for _, op := range g.ops {
		if op.VerbOption.Mutator == nil {
			all = false
			break
		}
	}
	return client.Flags{Mutator: all}
}

func groupMutators(g group) []*ir.Mutator {
	var out []*ir.Mutator
	for _, op := range g.ops {
		v := op.VerbOption
		for _, m := range []*ir.Mutator{v.Mutator, v.FormData, v.FormURLEncoded} {
			if m != nil {
				out = append(out, m)
			}
		}
	}
	return out
}
