package schema

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/internal/testutil"
	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/resolver"
)

func newSynthesizer(t *testing.T, doc string, override *config.Override) (*Synthesizer, *openapi.Graph) {
	t.Helper()
	g := testutil.LoadRoot(t, doc)
	r := resolver.New(g, override)
	require.NoError(t, r.Preallocate())
	return New(r, override), g
}

func declareAll(t *testing.T, doc string) map[string]ir.Schema {
	t.Helper()
	s, _ := newSynthesizer(t, doc, nil)
	schemas, err := s.DeclareComponents(Context{})
	require.NoError(t, err)
	byName := make(map[string]ir.Schema, len(schemas))
	for _, sch := range schemas {
		byName[sch.Name] = sch
	}
	return byName
}

func component(t *testing.T, g *openapi.Graph, name string) *openapi3.SchemaRef {
	t.Helper()
	node, ok := g.Component(g.Root, openapi.KindSchemas, name).(*openapi3.SchemaRef)
	require.True(t, ok, "component %s", name)
	return node
}

const header = `openapi: 3.0.3
info: {title: Types, version: 1.0.0}
paths: {}
components:
  schemas:
`

func TestSynthesizeIsDeterministic(t *testing.T) {
	s, g := newSynthesizer(t, testutil.Petstore, nil)
	ctx := Context{SpecKey: g.Root}

	first, err := s.Synthesize(component(t, g, "Pet"), ctx, "Pet")
	require.NoError(t, err)
	second, err := s.Synthesize(component(t, g, "Pet"), ctx, "Pet")
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Imports, second.Imports)
	assert.Contains(t, first.Value, "status?: PetStatus;")
	assert.Contains(t, first.Value, "/** The pet name */")
}

func TestSynthesizePrimitives(t *testing.T) {
	dates := true
	tests := []struct {
		name     string
		schema   string
		override *config.Override
		expected string
	}{
		{"integer", "{type: integer}", nil, "number"},
		{"boolean", "{type: boolean}", nil, "boolean"},
		{"binary", "{type: string, format: binary}", nil, "Blob"},
		{"date without useDates", "{type: string, format: date-time}", nil, "string"},
		{"date with useDates", "{type: string, format: date}", &config.Override{UseDates: &dates}, "Date"},
		{"nullable", "{type: string, nullable: true}", nil, "string | null"},
		{"type array", "{type: [string, 'null']}", nil, "string | null"},
		{"type union", "{type: [string, integer]}", nil, "string | number"},
		{"free object", "{type: object}", nil, "{[key: string]: unknown}"},
		{"no type", "{description: anything}", nil, "unknown"},
		{"array of unions", "{type: array, items: {type: [string, integer]}}", nil, "(string | number)[]"},
		{"dictionary", "{type: object, additionalProperties: {type: integer}}", nil, "{[key: string]: number}"},
		{"dictionary of anything", "{type: object, additionalProperties: true}", nil, "{[key: string]: unknown}"},
		{"string enum", "{type: string, enum: [a, b]}", nil, "'a' | 'b'"},
		{"nullable enum", "{type: string, enum: [a, null], nullable: true}", nil, "'a' | null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, g := newSynthesizer(t, header+"    Subject: "+tt.schema+"\n", tt.override)
			got, err := s.Synthesize(component(t, g, "Subject"), Context{SpecKey: g.Root, Override: tt.override}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Value)
		})
	}
}

func TestEnumTables(t *testing.T) {
	schemas := declareAll(t, header+`    Letters:
      type: string
      enum: [a, b, c]
    Numbers:
      type: integer
      enum: [1, -2]
`)

	assert.Equal(t, `export type Letters = typeof Letters[keyof typeof Letters];

export const Letters = {
  a: 'a',
  b: 'b',
  c: 'c',
} as const;
`, schemas["Letters"].Model)

	assert.Contains(t, schemas["Numbers"].Model, "  NUMBER_1: 1,\n")
	assert.Contains(t, schemas["Numbers"].Model, "  NUMBER_MINUS_2: -2,\n")
}

func TestAllOfDisjointObjects(t *testing.T) {
	schemas := declareAll(t, header+`    Combined:
      allOf:
        - type: object
          required: [a]
          properties:
            a: {type: string}
        - type: object
          properties:
            b: {type: integer}
`)

	assert.Equal(t, "export interface Combined {\n  a: string;\n  b?: number;\n}\n", schemas["Combined"].Model)
}

func TestAllOfWithReferenceIntersects(t *testing.T) {
	schemas := declareAll(t, header+`    Base:
      type: object
      properties:
        id: {type: string}
    Extended:
      allOf:
        - $ref: '#/components/schemas/Base'
        - type: object
          properties:
            extra: {type: boolean}
`)

	assert.Equal(t, "export type Extended = Base & {\n  extra?: boolean;\n};\n", schemas["Extended"].Model)
	assert.Equal(t, "Base", schemas["Extended"].Imports[0].Name)
}

func TestAllOfEnums(t *testing.T) {
	doc := header + `    AB:
      type: string
      enum: [a, b]
    CD:
      type: string
      enum: [c, d]
    Referenced:
      allOf:
        - $ref: '#/components/schemas/AB'
        - $ref: '#/components/schemas/CD'
    Inline:
      allOf:
        - {type: string, enum: [a]}
        - {type: string, enum: [b]}
`
	s, g := newSynthesizer(t, doc, nil)
	got, err := s.Synthesize(component(t, g, "Inline"), Context{SpecKey: g.Root}, "")
	require.NoError(t, err)
	assert.Equal(t, "'a' | 'b'", got.Value)
	assert.True(t, got.IsEnum)

	schemas := declareAll(t, doc)
	assert.Equal(t, `export type Referenced = typeof Referenced[keyof typeof Referenced];

export const Referenced = {
  ...AB,
  ...CD,
} as const;
`, schemas["Referenced"].Model)
	for _, imp := range schemas["Referenced"].Imports {
		assert.True(t, imp.Values, "%s is spread at runtime", imp.Name)
	}
}

func TestSelfReferentialSchema(t *testing.T) {
	schemas := declareAll(t, header+`    Node:
      type: object
      properties:
        children:
          type: array
          items:
            $ref: '#/components/schemas/Node'
`)

	assert.Equal(t, "export interface Node {\n  children?: Node[];\n}\n", schemas["Node"].Model)
}

func TestHoisting(t *testing.T) {
	schemas := declareAll(t, header+`    Pet:
      type: object
      properties:
        address:
          type: object
          properties:
            city: {type: string}
        kind:
          type: string
          enum: [dog, cat]
        name:
          type: string
        shape:
          oneOf:
            - {type: string}
            - type: object
              properties:
                side: {type: number}
`)

	pet := schemas["Pet"].Model
	assert.Contains(t, pet, "  address?: PetAddress;\n")
	assert.Contains(t, pet, "  kind?: PetKind;\n")
	assert.Contains(t, pet, "  name?: string;\n")
	assert.Contains(t, pet, "  shape?: PetShape;\n")

	assert.Equal(t, "export interface PetAddress {\n  city?: string;\n}\n", schemas["PetAddress"].Model)
	assert.Contains(t, schemas["PetKind"].Model, "export const PetKind = {\n  dog: 'dog',\n  cat: 'cat',\n} as const;")
	assert.Equal(t, "export type PetShape = string | PetShapeOneOf2;\n", schemas["PetShape"].Model)
	assert.Equal(t, "export interface PetShapeOneOf2 {\n  side?: number;\n}\n", schemas["PetShapeOneOf2"].Model)
}

func TestHoistedNameCollision(t *testing.T) {
	schemas := declareAll(t, header+`    Pet:
      type: object
      properties:
        address:
          type: object
          properties:
            city: {type: string}
    PetAddress:
      type: string
`)

	assert.Equal(t, "export type PetAddress = string;\n", schemas["PetAddress"].Model)
	assert.Contains(t, schemas["Pet"].Model, "address?: PetAddress1;")
	assert.Contains(t, schemas, "PetAddress1")
}

func TestDiscriminator(t *testing.T) {
	schemas := declareAll(t, header+`    Pet:
      oneOf:
        - $ref: '#/components/schemas/Cat'
        - $ref: '#/components/schemas/Dog'
      discriminator:
        propertyName: petType
        mapping:
          cat: '#/components/schemas/Cat'
          dog: Dog
    Cat:
      type: object
      properties:
        petType: {type: string}
        meow: {type: boolean}
    Dog:
      type: object
      properties:
        bark: {type: boolean}
    Mapped:
      type: object
      discriminator:
        propertyName: petType
        mapping:
          dog: Dog
          cat: Cat
`)

	assert.Equal(t, "export type Pet = Cat | Dog;\n", schemas["Pet"].Model)
	assert.Equal(t, "export interface Cat {\n  meow?: boolean;\n  petType: 'cat';\n}\n", schemas["Cat"].Model)
	assert.Equal(t, "export interface Dog {\n  bark?: boolean;\n  petType: 'dog';\n}\n", schemas["Dog"].Model)
	assert.Equal(t, "export type Mapped = Cat | Dog;\n", schemas["Mapped"].Model)
}

func TestArrayWithoutItems(t *testing.T) {
	s, _ := newSynthesizer(t, header+"    Broken: {type: array}\n", nil)
	_, err := s.DeclareComponents(Context{})
	require.Error(t, err)

	var schemaErr *generrors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "Broken", schemaErr.Name)
	assert.True(t, errors.Is(err, generrors.ErrSchema))
}

func TestDeclareComponentKinds(t *testing.T) {
	schemas := declareAll(t, `openapi: 3.0.3
info: {title: Kinds, version: 1.0.0}
paths: {}
components:
  schemas:
    Pet:
      type: object
      properties:
        id: {type: string}
    PetAlias:
      $ref: '#/components/schemas/Pet'
    Status:
      type: string
      enum: [up, down]
    StatusAlias:
      $ref: '#/components/schemas/Status'
  parameters:
    Limit:
      name: limit
      in: query
      schema: {type: integer}
  responses:
    PetFound:
      description: ok
      content:
        text/plain:
          schema: {type: string}
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
    Empty:
      description: nothing
  requestBodies:
    PetInput:
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
`)

	assert.Equal(t, "export type PetAlias = Pet;\n", schemas["PetAlias"].Model)
	assert.Equal(t, "export type StatusAlias = Status;\n\nexport const StatusAlias = Status;\n", schemas["StatusAlias"].Model)
	assert.Equal(t, "export type LimitParameter = number;\n", schemas["LimitParameter"].Model)
	assert.Equal(t, "export type PetFoundResponse = Pet;\n", schemas["PetFoundResponse"].Model)
	assert.Equal(t, "export type EmptyResponse = unknown;\n", schemas["EmptyResponse"].Model)
	assert.Equal(t, "export type PetInputBody = Pet;\n", schemas["PetInputBody"].Model)
}

func TestCrossFileDeclarations(t *testing.T) {
	g := testutil.LoadGraph(t, map[string]string{
		testutil.RootFile: header + `    Pet:
      type: object
      properties:
        address:
          $ref: './address.yaml'
        owner:
          $ref: './common.yaml#/components/schemas/Owner'
`,
		"address.yaml": "type: object\nproperties:\n  city: {type: string}\n",
		"common.yaml":  "components:\n  schemas:\n    Owner:\n      type: object\n      properties:\n        name: {type: string}\n",
	})
	r := resolver.New(g, nil)
	require.NoError(t, r.Preallocate())
	schemas, err := New(r, nil).DeclareComponents(Context{})
	require.NoError(t, err)

	byName := map[string]ir.Schema{}
	for _, sch := range schemas {
		byName[sch.Name] = sch
	}
	require.Contains(t, byName, "Address")
	require.Contains(t, byName, "Owner")
	assert.Equal(t, "export interface Address {\n  city?: string;\n}\n", byName["Address"].Model)
	assert.NotEqual(t, g.Root, byName["Owner"].SpecKey)
	assert.Contains(t, byName["Pet"].Model, "address?: Address;")
}
