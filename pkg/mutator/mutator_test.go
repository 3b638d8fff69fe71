package mutator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generrors"
)

func TestInspectSource(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		mutator    config.Mutator
		wantSecond bool
		wantThird  bool
	}{
		{
			name: "arrow with one parameter",
			source: `import Axios, { AxiosRequestConfig } from 'axios';

export const customInstance = <T>(config: AxiosRequestConfig): Promise<T> => {
  return Axios(config).then(({ data }) => data);
};`,
			mutator: config.Mutator{Name: "customInstance"},
		},
		{
			name: "arrow with options",
			source: `export const customInstance = async <T>(
  config: AxiosRequestConfig,
  options?: Record<string, (value: string) => void>,
): Promise<T> => fetcher(config, options);`,
			mutator:    config.Mutator{Name: "customInstance"},
			wantSecond: true,
		},
		{
			name: "typed const",
			source: `export const customInstance: Mutator = (config, http, options) => http.request(config);`,
			mutator:    config.Mutator{Name: "customInstance"},
			wantSecond: true,
			wantThird:  true,
		},
		{
			name: "function declaration",
			source: `// export const customInstance = (a, b, c) => a;
export function customInstance<T>({ url, method }: Config, options?: Options): Promise<T> {
  return request(url, method, options);
}`,
			mutator:    config.Mutator{Name: "customInstance"},
			wantSecond: true,
		},
		{
			name: "export list with alias",
			source: `const impl = (config) => fetch(config.url);
export { impl as customInstance };`,
			mutator: config.Mutator{Name: "customInstance"},
		},
		{
			name: "default function",
			source: `export default function (config, options) {
  return fetch(config.url, options);
}`,
			mutator:    config.Mutator{Path: "/src/custom-fetch.ts", Default: true},
			wantSecond: true,
		},
		{
			name: "default identifier",
			source: `const run = async (config) => fetch(config.url);
export default run;`,
			mutator: config.Mutator{Path: "/src/run.ts", Default: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := InspectSource([]byte(tt.source), &tt.mutator)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSecond, m.HasSecondArg, "HasSecondArg")
			assert.Equal(t, tt.wantThird, m.HasThirdArg, "HasThirdArg")
		})
	}
}

func TestInspectSourceNames(t *testing.T) {
	m, err := InspectSource([]byte("export default (config) => config;"), &config.Mutator{Path: "/src/custom-fetch.ts", Default: true})
	require.NoError(t, err)
	assert.Equal(t, "customFetch", m.Name)
	assert.True(t, m.Default)
}

func TestInspectSourceMissingExport(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		mutator config.Mutator
	}{
		{"wrong name", "export const other = (config) => config;", config.Mutator{Path: "m.ts", Name: "customInstance"}},
		{"not exported", "const customInstance = (config) => config;", config.Mutator{Path: "m.ts", Name: "customInstance"}},
		{"no default", "export const customInstance = (config) => config;", config.Mutator{Path: "m.ts", Default: true}},
		{"commented out", "// export const customInstance = (config) => config;", config.Mutator{Path: "m.ts", Name: "customInstance"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InspectSource([]byte(tt.source), &tt.mutator)
			require.Error(t, err)
			assert.True(t, errors.Is(err, generrors.ErrConfig))
			var cfgErr *generrors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "mutator", cfgErr.Option)
		})
	}
}

func TestInspectorReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mutator.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const customInstance = (config, options) => config;"), 0o644))

	i := NewInspector()
	m, err := i.Inspect(&config.Mutator{Path: path, Name: "customInstance"})
	require.NoError(t, err)
	assert.True(t, m.HasSecondArg)
	assert.Equal(t, path, m.Path)

	again, err := i.Inspect(&config.Mutator{Path: path, Name: "customInstance"})
	require.NoError(t, err)
	assert.Same(t, m, again)

	nilMutator, err := i.Inspect(nil)
	require.NoError(t, err)
	assert.Nil(t, nilMutator)

	_, err = i.Inspect(&config.Mutator{Path: filepath.Join(dir, "missing.ts"), Name: "customInstance"})
	assert.True(t, errors.Is(err, generrors.ErrConfig))
}
