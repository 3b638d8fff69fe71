package openapi_test

import (
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/internal/testutil"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/openapi"
)

const multiRoot = `openapi: 3.0.3
info: {title: Multi, version: 1.0.0}
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema: {$ref: './models/pet.yaml#/Pet'}
`

const petFragment = `Pet:
  type: object
  properties:
    owner: {$ref: './owner.yaml'}
`

const ownerFile = `type: object
properties:
  name: {type: string}
`

func TestLoadGraphFollowsReferences(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		testutil.RootFile:  multiRoot,
		"models/pet.yaml":   petFragment,
		"models/owner.yaml": ownerFile,
	})
	g, err := openapi.LoadGraph(t.Context(), filepath.Join(dir, testutil.RootFile), openapi.Options{})
	require.NoError(t, err)

	root := filepath.Join(dir, testutil.RootFile)
	pet := filepath.Join(dir, "models", "pet.yaml")
	owner := filepath.Join(dir, "models", "owner.yaml")
	assert.Equal(t, root, g.Root)
	assert.Equal(t, []string{root, pet, owner}, g.Order)
	assert.Equal(t, "Multi", g.RootDocument().Doc.Info.Title)

	v, err := g.Lookup(pet, "/Pet/type")
	require.NoError(t, err)
	assert.Equal(t, "object", v)

	s, err := g.Schema(owner, "")
	require.NoError(t, err)
	assert.Contains(t, s.Value.Properties, "name")

	_, err = g.Lookup("/nowhere.yaml", "/x")
	assert.Error(t, err)
}

func TestSwaggerConversion(t *testing.T) {
	g := testutil.LoadRoot(t, `swagger: '2.0'
info: {title: Legacy, version: 1.0.0}
paths: {}
definitions:
  Pet:
    type: object
    properties:
      name: {type: string}
`)
	root := g.RootDocument()
	assert.True(t, root.Converted)
	assert.Equal(t, []string{"Pet"}, g.ComponentNames(g.Root, openapi.KindSchemas))
	v, err := g.Lookup(g.Root, "/components/schemas/Pet/type")
	require.NoError(t, err)
	assert.Equal(t, "object", v)
}

func TestValidationWarnings(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{testutil.RootFile: `openapi: 3.0.3
info: {title: Broken, version: 1.0.0}
paths:
  /pets/{petId}:
    get:
      responses:
        '200': {description: ok}
`})
	input := filepath.Join(dir, testutil.RootFile)

	g, err := openapi.LoadGraph(t.Context(), input, openapi.Options{})
	require.NoError(t, err)
	assert.Empty(t, g.Warnings)

	g, err = openapi.LoadGraph(t.Context(), input, openapi.Options{Validate: true})
	require.NoError(t, err)
	assert.NotEmpty(t, g.Warnings)

	warnings, err := openapi.ValidateDocument(t.Context(), input, nil)
	require.NoError(t, err)
	assert.Equal(t, g.Warnings, warnings)

	_, err = openapi.ValidateDocument(t.Context(), filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadGraphFromData(t *testing.T) {
	g, err := openapi.LoadGraphFromData(t.Context(), []byte(testutil.Petstore), "/virtual/petstore.yaml", openapi.Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/virtual/petstore.yaml"), g.Root)
	assert.Equal(t, []string{"Error", "NewPet", "Pet", "PetStatus"}, g.ComponentNames(g.Root, openapi.KindSchemas))
}

func TestCustomReader(t *testing.T) {
	var reads []string
	read := func(_ *openapi3.Loader, location *url.URL) ([]byte, error) {
		reads = append(reads, location.String())
		if location.Host == "api.example.com" {
			return []byte(testutil.Petstore), nil
		}
		return nil, errors.New("offline")
	}
	g, err := openapi.LoadGraph(t.Context(), "https://api.example.com/openapi.yaml", openapi.Options{ReadFromURI: read})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/openapi.yaml", g.Root)
	assert.Equal(t, []string{"https://api.example.com/openapi.yaml"}, reads)

	_, err = openapi.LoadGraph(t.Context(), "https://down.example.com/openapi.yaml", openapi.Options{ReadFromURI: read})
	assert.Error(t, err)
}

func TestMissingInput(t *testing.T) {
	_, err := openapi.LoadGraph(t.Context(), filepath.Join(t.TempDir(), "missing.yaml"), openapi.Options{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, generrors.ErrConfig))
}

func TestResolveKey(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative file", "/specs/root.yaml", "models/pet.yaml", filepath.FromSlash("/specs/models/pet.yaml")},
		{"parent dir", "/specs/models/pet.yaml", "../common.yaml", filepath.FromSlash("/specs/common.yaml")},
		{"absolute file", "/specs/root.yaml", "/other/x.yaml", filepath.FromSlash("/other/x.yaml")},
		{"relative url", "https://example.com/api/root.yaml", "models/pet.yaml", "https://example.com/api/models/pet.yaml"},
		{"absolute url", "/specs/root.yaml", "https://example.com/x.yaml#frag", "https://example.com/x.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := openapi.ResolveKey(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
