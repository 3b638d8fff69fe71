package output

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/internal/testutil"
	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/client"
	"github.com/blimu-dev/client-gen/pkg/generator/mock"
	"github.com/blimu-dev/client-gen/pkg/generator/operation"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/resolver"
)

// input runs the pipeline up to the assembler.
func input(t *testing.T, g *openapi.Graph, override *config.Override) Input {
	t.Helper()
	r := resolver.New(g, override)
	require.NoError(t, r.Preallocate())
	s := schema.New(r, override)
	schemas, err := s.DeclareComponents(schema.Context{})
	require.NoError(t, err)
	ops, err := operation.New(s, operation.Options{Override: override}).ExtractAll()
	require.NoError(t, err)

	m := mock.New(s, mock.Options{Override: override})
	in := Input{Info: Info{Title: "Petstore", Version: "1.0.0"}}
	for _, op := range ops {
		frag, err := m.Operation(op)
		require.NoError(t, err)
		in.Operations = append(in.Operations, &ir.OperationOutput{VerbOption: op, Mock: frag})
		schemas = append(schemas, op.Schemas()...)
	}
	pending, err := s.DeclarePending(schema.Context{})
	require.NoError(t, err)
	in.Schemas = ir.DedupSchemas(append(schemas, pending...))
	return in
}

func assemble(t *testing.T, opts Options) map[string]string {
	t.Helper()
	return assembleInput(t, input(t, testutil.LoadRoot(t, testutil.Petstore), nil), opts)
}

func assembleInput(t *testing.T, in Input, opts Options) map[string]string {
	t.Helper()
	if opts.Backend == nil {
		b, err := client.Builtin(config.DefaultClient).Backend()
		require.NoError(t, err)
		opts.Backend = b
	}
	files, err := New(opts).Assemble(in)
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(filepath.Dir(opts.Target), f.Path)
		require.NoError(t, err)
		out[filepath.ToSlash(rel)] = f.Content
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestSingleMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "petstore.ts")
	files := assemble(t, Options{Mode: config.ModeSingle, Target: target, Title: "petstore", Banner: true})

	require.Len(t, files, 1)
	content := files["petstore.ts"]
	assert.True(t, strings.HasPrefix(content, "/**\n"+
		" * Generated by client-gen. Do not edit manually.\n"+
		" * Petstore\n"+
		" * OpenAPI spec version: 1.0.0\n"+
		" */\n\n"+
		"import axios, {type AxiosRequestConfig, type AxiosResponse} from 'axios';\n\n"), content)
	assert.Contains(t, content, "export interface Pet {")
	assert.Contains(t, content, "export const listPets = (")
	assert.Contains(t, content, "export type ListPetsResult = ")
	assert.NotContains(t, content, "import type {")
	assert.NotContains(t, content, "faker")
}

func TestSplitMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "petstore.ts")
	files := assemble(t, Options{Mode: config.ModeSplit, Target: target, Title: "petstore", Mock: true})

	assert.ElementsMatch(t, []string{"petstore.schemas.ts", "petstore.ts", "petstore.msw.ts"}, keys(files))
	assert.Contains(t, files["petstore.schemas.ts"], "export interface Pet {")
	assert.NotContains(t, files["petstore.ts"], "export interface Pet {")
	assert.Contains(t, files["petstore.ts"], "from './petstore.schemas';")
	assert.NotContains(t, files["petstore.ts"], "faker")

	msw := files["petstore.msw.ts"]
	assert.Contains(t, msw, "import {faker} from '@faker-js/faker';\n")
	assert.Contains(t, msw, "import {HttpResponse, delay, http} from 'msw';\n")
	assert.Contains(t, msw, "import {type Pet, PetStatus")
	assert.Contains(t, msw, "export const getPetstoreMock = () => [\n")
	assert.NotContains(t, msw, "axios")
}

func TestTagsMode(t *testing.T) {
	b, err := client.Builtin("axios").Backend()
	require.NoError(t, err)
	target := filepath.Join(t.TempDir(), "petstore.ts")
	files := assemble(t, Options{Mode: config.ModeTags, Target: target, Title: "petstore", Backend: b, Mock: true})

	assert.ElementsMatch(t, []string{"petstore.schemas.ts", "pets.ts", "store.ts"}, keys(files))

	pets := files["pets.ts"]
	assert.Contains(t, pets, "export const getPets = () => {\n")
	assert.Contains(t, pets, "  return {listPets, createPet, showPetById};\n};\n")
	assert.Contains(t, pets, "export const getPetsMock = () => [\n")
	assert.NotContains(t, pets, "getInventory")

	store := files["store.ts"]
	assert.Contains(t, store, "export const getStore = () => {\n")
	assert.Contains(t, store, "  return {getInventory};\n};\n")
	assert.NotContains(t, store, "ListPetsResult")
	assert.Contains(t, store, "from './petstore.schemas';")
}

func TestTagsSplitMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "petstore.ts")
	files := assemble(t, Options{Mode: config.ModeTagsSplit, Target: target, Title: "petstore", Mock: true})

	assert.ElementsMatch(t, []string{
		"petstore.schemas.ts",
		"pets/pets.ts", "pets/pets.msw.ts",
		"store/store.ts", "store/store.msw.ts",
	}, keys(files))
	assert.Contains(t, files["pets/pets.ts"], "from '../petstore.schemas';")
	assert.Contains(t, files["store/store.msw.ts"], "export const getStoreMock = () => [\n  getGetInventoryMockHandler(),\n];\n")
}

func TestUntaggedOperationsGroupUnderDefault(t *testing.T) {
	g := testutil.LoadRoot(t, `openapi: 3.0.3
info: {title: Ping, version: 1.0.0}
paths:
  /ping:
    get:
      operationId: ping
      responses:
        '204': {description: pong}
`)
	target := filepath.Join(t.TempDir(), "ping.ts")
	files := assembleInput(t, input(t, g, nil), Options{Mode: config.ModeTags, Target: target, Title: "ping"})

	assert.ElementsMatch(t, []string{"ping.schemas.ts", "default.ts"}, keys(files))
	assert.Contains(t, files["default.ts"], "export const ping = ")
}

func TestSchemasDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "petstore.ts")
	files := assemble(t, Options{
		Mode:    config.ModeSingle,
		Target:  target,
		Schemas: filepath.Join(dir, "model"),
		Title:   "petstore",
	})

	assert.Contains(t, keys(files), "model/pet.ts")
	assert.Contains(t, files["model/pet.ts"], "import type {PetStatus} from './petStatus';\n\n")
	assert.Contains(t, files["model/index.ts"], "export * from './pet';\n")
	assert.Contains(t, files["petstore.ts"], "from './model';")
	assert.NotContains(t, files["petstore.ts"], "export interface Pet {")
}

func TestMutatorImports(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		testutil.RootFile: testutil.Petstore,
		"mutator.ts":      "export const customInstance = <T>(config: Config): Promise<T> => run(config);\n",
	})
	g, err := openapi.LoadGraph(t.Context(), filepath.Join(dir, testutil.RootFile), openapi.Options{})
	require.NoError(t, err)
	in := input(t, g, &config.Override{
		Mutator: &config.Mutator{Path: filepath.Join(dir, "mutator.ts"), Name: "customInstance"},
	})

	target := filepath.Join(dir, "out", "petstore.ts")
	files := assembleInput(t, in, Options{Mode: config.ModeSingle, Target: target, Title: "petstore"})

	content := files["petstore.ts"]
	assert.Equal(t, 1, strings.Count(content, "import {customInstance} from '../mutator';\n"))
	assert.NotContains(t, content, "from 'axios'")
}

func TestUnknownMode(t *testing.T) {
	b, err := client.Builtin(config.DefaultClient).Backend()
	require.NoError(t, err)
	_, err = New(Options{Mode: "everything", Target: "out.ts", Backend: b}).Assemble(Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, generrors.ErrConfig))
}

func TestDependencyImports(t *testing.T) {
	deps := []ir.GeneratorDependency{
		{Dependency: "axios", Exports: []ir.DependencyExport{{Name: "axios", Default: true, Values: true}, {Name: "AxiosError"}}},
		{Dependency: "rxjs", Exports: []ir.DependencyExport{{Name: "Observable"}}},
		{Dependency: "axios", Exports: []ir.DependencyExport{{Name: "AxiosError"}}},
		{Dependency: "unused", Exports: []ir.DependencyExport{{Name: "nothing", Values: true}}},
	}
	body := "const e: AxiosError = null;\nconst o: Observable<number> = this.axios;\n"

	assert.Equal(t, []string{
		"import type {AxiosError} from 'axios';",
		"import type {Observable} from 'rxjs';",
	}, dependencyImports(deps, identifiers(body)))
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ident string
		want  bool
	}{
		{"type annotation", "const p: Pet = x;", "Pet", true},
		{"generic argument", "Promise<Pet[]>", "Pet", true},
		{"property access", "this.http.get()", "http", false},
		{"spread", "{...PetKind, ...Other}", "PetKind", true},
		{"longer name", "const p: PetStatusCode = x;", "Pet", false},
		{"digit prefix", "0xPet", "xPet", false},
		{"non-latin name", "const c: ネコ一覧 = x;", "ネコ一覧", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := identifiers(tt.body)[tt.ident]
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestGroupImportsOnlyUsedSchemas(t *testing.T) {
	target := filepath.Join(t.TempDir(), "petstore.ts")
	files := assemble(t, Options{Mode: config.ModeTags, Target: target, Title: "petstore"})

	var line string
	for _, l := range strings.Split(files["pets.ts"], "\n") {
		if strings.HasSuffix(l, "from './petstore.schemas';") {
			line = l
		}
	}
	require.NotEmpty(t, line, files["pets.ts"])
	assert.Contains(t, line, "ListPetsParams")
	assert.Contains(t, line, "NewPet")
	assert.NotContains(t, line, "PetStatus")
	assert.NotContains(t, files["store.ts"], "Pet,")
}

func TestRelativeModule(t *testing.T) {
	tests := []struct {
		from, module, want string
	}{
		{"/out/petstore.ts", "/out/petstore.schemas", "./petstore.schemas"},
		{"/out/pets/pets.ts", "/out/petstore.schemas", "../petstore.schemas"},
		{"/out/petstore.ts", "/out/model", "./model"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeModule(filepath.FromSlash(tt.from), filepath.FromSlash(tt.module)))
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	files := []File{
		{Path: filepath.Join(dir, "a.ts"), Content: "a\n"},
		{Path: filepath.Join(dir, "nested", "b.ts"), Content: "b\n"},
	}
	require.NoError(t, Write(t.Context(), files))

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, f.Content, string(data))
	}
}

func TestCommand(t *testing.T) {
	require.NoError(t, Command{}.Run(t.Context()))

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var out strings.Builder
	dir := t.TempDir()
	require.NoError(t, Command{Args: []string{"sh", "-c", "pwd"}, Dir: dir, Stdout: &out}.Run(t.Context()))
	assert.Contains(t, out.String(), filepath.Base(dir))

	err := Command{Args: []string{"sh", "-c", "exit 3"}, Dir: dir, Stdout: &out, Stderr: &out}.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-command (sh -c exit 3) failed")
}
