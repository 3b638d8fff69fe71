package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/internal/testutil"
)

func TestRunGenerateRequiresInput(t *testing.T) {
	err := RunGenerate(t.Context(), RunGenerateParams{Fallback: FallbackParams{Output: "api.ts"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config")
}

func TestRunGenerateFallback(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{testutil.RootFile: testutil.Petstore})
	out := filepath.Join(dir, "gen", "petstore.ts")

	err := RunGenerate(t.Context(), RunGenerateParams{Fallback: FallbackParams{
		Input:       filepath.Join(dir, testutil.RootFile),
		Output:      out,
		Mock:        true,
		IncludeTags: []string{"pets"},
	}}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export const listPets = ")
	assert.Contains(t, string(data), "export const getPetstoreMock = () => [\n")
	assert.NotContains(t, string(data), "getInventory")
}

func TestRunGenerateConfig(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		testutil.RootFile: testutil.Petstore,
		"client-gen.yaml": `projects:
  petstore:
    input: {target: root.yaml}
    output: {target: gen/api.ts, mode: split, mock: true}
  other:
    input: {target: root.yaml}
    output: {target: other/api.ts}
`,
	})

	err := RunGenerate(t.Context(), RunGenerateParams{
		ConfigPath: filepath.Join(dir, "client-gen.yaml"),
		Projects:   []string{"petstore"},
	}, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "gen", "api.ts"))
	assert.FileExists(t, filepath.Join(dir, "gen", "api.msw.ts"))
	assert.FileExists(t, filepath.Join(dir, "gen", "api.schemas.ts"))
	assert.NoDirExists(t, filepath.Join(dir, "other"))
}

func TestRunValidate(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{testutil.RootFile: testutil.Petstore})
	var buf bytes.Buffer
	require.NoError(t, RunValidate(t.Context(), filepath.Join(dir, testutil.RootFile), &buf, nil))
	assert.Contains(t, buf.String(), "is valid")
}
