package client

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/client-gen/internal/testutil"
	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/operation"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/generrors"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/resolver"
)

func extract(t *testing.T, g *openapi.Graph, override *config.Override) []*ir.VerbOption {
	t.Helper()
	r := resolver.New(g, override)
	require.NoError(t, r.Preallocate())
	s := schema.New(r, override)
	_, err := s.DeclareComponents(schema.Context{})
	require.NoError(t, err)
	ops, err := operation.New(s, operation.Options{Override: override}).ExtractAll()
	require.NoError(t, err)
	return ops
}

func petstore(t *testing.T, override *config.Override) []*ir.VerbOption {
	t.Helper()
	return extract(t, testutil.LoadRoot(t, testutil.Petstore), override)
}

// withMutator loads the petstore with every call routed through
// customInstance, declared with the given source.
func withMutator(t *testing.T, source string) []*ir.VerbOption {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		testutil.RootFile: testutil.Petstore,
		"mutator.ts":      source,
	})
	g, err := openapi.LoadGraph(t.Context(), filepath.Join(dir, testutil.RootFile), openapi.Options{})
	require.NoError(t, err)
	return extract(t, g, &config.Override{
		Mutator: &config.Mutator{Path: filepath.Join(dir, "mutator.ts"), Name: "customInstance"},
	})
}

type generated struct {
	header     string
	operations map[string]string
	footer     string
}

func generate(t *testing.T, name string, ops []*ir.VerbOption) generated {
	t.Helper()
	b, err := Builtin(name).Backend()
	require.NoError(t, err)

	ctx := NewBuildContext("petstore")
	out := generated{operations: map[string]string{}}
	for _, op := range ops {
		frag, err := b.Operation(op, ctx)
		require.NoError(t, err)
		out.operations[op.OperationID] = frag.Implementation
	}
	out.header, err = b.Header(HeaderMeta{Title: "petstore", Operations: ctx.Operations(), Context: ctx})
	require.NoError(t, err)
	out.footer, err = b.Footer(FooterMeta{Title: "petstore", Operations: ctx.Operations(), Context: ctx})
	require.NoError(t, err)
	return out
}

func TestAxiosFunctions(t *testing.T) {
	out := generate(t, "axios-functions", petstore(t, nil))

	assert.Empty(t, out.header)
	assert.Equal(t, "export const listPets = (\n"+
		"  params: ListPetsParams,\n"+
		"  options?: AxiosRequestConfig,\n"+
		"): Promise<AxiosResponse<Pet[]>> => {\n"+
		"  return axios.get(`/pets`, {\n"+
		"    ...options,\n"+
		"    params: {...params, ...options?.params},\n"+
		"  });\n"+
		"};\n", out.operations["listPets"])
	assert.Contains(t, out.operations["createPet"], "return axios.post(`/pets`, createPetBody, options);")
	assert.Contains(t, out.operations["showPetById"], "return axios.get(`/pets/${petId}`, options);")
	assert.Contains(t, out.footer, "export type ListPetsResult = NonNullable<Awaited<ReturnType<typeof listPets>>>;\n")
	assert.Equal(t, 4, strings.Count(out.footer, "export type "))
}

func TestAxiosFactory(t *testing.T) {
	out := generate(t, "axios", petstore(t, nil))

	assert.Equal(t, "export const getPetstore = () => {\n", out.header)
	assert.True(t, strings.HasPrefix(out.operations["listPets"], "  const listPets = (\n    params: ListPetsParams,\n"))
	assert.NotContains(t, out.operations["listPets"], "export")
	assert.True(t, strings.HasPrefix(out.footer, "  return {listPets, createPet, showPetById, getInventory};\n};\n\n"))
	assert.Contains(t, out.footer,
		"export type ShowPetByIdResult = NonNullable<Awaited<ReturnType<ReturnType<typeof getPetstore>['showPetById']>>>;\n")
}

func TestMutatorCalls(t *testing.T) {
	ops := withMutator(t, "export const customInstance = <T>(config: Config, options?: Options): Promise<T> => run(config, options);\n")
	out := generate(t, "axios-functions", ops)

	assert.Equal(t, "type SecondParameter<T extends (...args: never) => unknown> = Parameters<T>[1];\n\n", out.header)
	assert.Equal(t, "export const listPets = (\n"+
		"  params: ListPetsParams,\n"+
		"  options?: SecondParameter<typeof customInstance>,\n"+
		") => {\n"+
		"  return customInstance<Pet[]>({\n"+
		"    url: `/pets`,\n"+
		"    method: 'GET',\n"+
		"    params,\n"+
		"  }, options);\n"+
		"};\n", out.operations["listPets"])
	assert.Contains(t, out.operations["createPet"], "headers: {'Content-Type': 'application/json'},\n    data: createPetBody,\n")

	b, err := Builtin("axios-functions").Backend()
	require.NoError(t, err)
	assert.Empty(t, b.Dependencies(Flags{Mutator: true}))
	assert.Len(t, b.Dependencies(Flags{}), 1)
}

func TestAngularService(t *testing.T) {
	out := generate(t, "angular", petstore(t, nil))

	assert.Contains(t, out.header, "interface HttpClientOptions {\n")
	assert.True(t, strings.HasSuffix(out.header,
		"@Injectable({providedIn: 'root'})\nexport class PetstoreService {\n  constructor(private http: HttpClient) {}\n"))
	assert.Equal(t, "  listPets<TData = Pet[]>(\n"+
		"    params: ListPetsParams,\n"+
		"    options?: HttpClientOptions,\n"+
		"  ): Observable<TData> {\n"+
		"    return this.http.get<TData>(`/pets`, {\n"+
		"      ...options,\n"+
		"      params: {...params, ...options?.params},\n"+
		"    });\n"+
		"  }\n", out.operations["listPets"])
	assert.Contains(t, out.operations["createPet"], "return this.http.post<TData>(`/pets`, createPetBody, options);")
	assert.True(t, strings.HasPrefix(out.footer, "}\n\nexport type ListPetsClientResult = NonNullable<Pet[]>;\n"))
}

func TestAngularMutator(t *testing.T) {
	ops := withMutator(t, "export const customInstance = <T>(config: Config, http: HttpClient, options?: Options): Observable<T> => run(config, http, options);\n")
	out := generate(t, "angular", ops)

	assert.NotContains(t, out.header, "HttpClientOptions")
	assert.Contains(t, out.header, "type ThirdParameter<T extends (...args: never) => unknown> = Parameters<T>[2];\n")
	list := out.operations["listPets"]
	assert.Contains(t, list, "options?: ThirdParameter<typeof customInstance>,")
	assert.Contains(t, list, "return customInstance<TData>({")
	assert.Contains(t, list, "}, this.http, options);")
}

func TestReactQuery(t *testing.T) {
	out := generate(t, "react-query", petstore(t, nil))
	list := out.operations["listPets"]

	assert.Contains(t, list, "export const getListPetsQueryKey = (\n  params?: ListPetsParams,\n) => {\n"+
		"  return [`/pets`, ...(params ? [params] : [])] as const;\n};\n")
	assert.Contains(t, list, "const queryFn: QueryFunction<Awaited<ReturnType<typeof listPets>>> = ({signal}) => listPets(params, {signal, ...axiosOptions});")
	assert.Contains(t, list, "const {query: queryOptions, axios: axiosOptions} = options ?? {};")
	assert.Contains(t, list, "export const useListPets = <TData = Awaited<ReturnType<typeof listPets>>, TError = AxiosError<Error>>(")
	assert.Contains(t, list, "const query = useQuery(queryOptions) as UseQueryResult<TData, TError> & {queryKey: QueryKey};")
	assert.NotContains(t, list, "Infinite")

	create := out.operations["createPet"]
	assert.Contains(t, create, "export const useCreatePet = <TError = AxiosError<Error>, TContext = unknown>(")
	assert.Contains(t, create, "    const {createPetBody} = props ?? {};\n\n    return createPet(createPetBody, axiosOptions);\n")
	assert.Contains(t, create, "export type CreatePetMutationBody = NewPet;")
	assert.Contains(t, create, "MutationFunction<Awaited<ReturnType<typeof createPet>>, {createPetBody: NewPet}>")

	inventory := out.operations["getInventory"]
	assert.Contains(t, inventory, "export const getGetInventoryQueryKey = () => {\n  return [`/store/inventory`] as const;\n};\n")
	assert.Contains(t, inventory, "= ({signal}) => getInventory({signal, ...axiosOptions});")
	assert.Empty(t, out.footer)
}

func TestInfiniteQuery(t *testing.T) {
	useInfinite := true
	override := &config.Override{Query: config.QueryOverride{
		UseInfinite:           &useInfinite,
		UseInfiniteQueryParam: "limit",
		Options:               map[string]any{"staleTime": 10000},
	}}
	out := generate(t, "react-query", petstore(t, override))
	list := out.operations["listPets"]

	assert.Contains(t, list, "export const useListPetsInfinite = <TData = InfiniteData<Awaited<ReturnType<typeof listPets>>>, TError = AxiosError<Error>>(")
	assert.Contains(t, list, "return ['infinite', `/pets`, ...(params ? [params] : [])] as const;")
	assert.Contains(t, list, "QueryFunction<Awaited<ReturnType<typeof listPets>>, QueryKey, ListPetsParams['limit']> = ({signal, pageParam}) => "+
		"listPets({...params, limit: pageParam || params?.['limit']}, {signal, ...axiosOptions});")
	assert.Contains(t, list, "return {queryKey, queryFn, staleTime: 10000, ...queryOptions}")
	assert.NotContains(t, out.operations["getInventory"], "Infinite", "no query parameters to page")
}

func TestQueryFlavors(t *testing.T) {
	tests := []struct {
		client string
		want   []string
	}{
		{"svelte-query", []string{"export const createListPets = ", "createQuery(queryOptions) as CreateQueryResult<TData, TError>", "export const createCreatePet = "}},
		{"vue-query", []string{"export const useListPets = ", "useQuery(queryOptions) as UseQueryReturnType<TData, TError>", "useMutation(mutationOptions)"}},
	}
	for _, tt := range tests {
		t.Run(tt.client, func(t *testing.T) {
			out := generate(t, tt.client, petstore(t, nil))
			all := out.operations["listPets"] + out.operations["createPet"]
			for _, w := range tt.want {
				assert.Contains(t, all, w)
			}
		})
	}
}

func TestQueryMutatorSignal(t *testing.T) {
	ops := withMutator(t, "export const customInstance = <T>(config: Config, options?: Options): Promise<T> => run(config, options);\n")
	out := generate(t, "react-query", ops)
	list := out.operations["listPets"]

	assert.Contains(t, list, "  options?: SecondParameter<typeof customInstance>,\n  signal?: AbortSignal,\n)")
	assert.Contains(t, list, "    signal,\n  }, options);")
	assert.Contains(t, list, "= ({signal}) => listPets(params, requestOptions, signal);")
	assert.Contains(t, list, "TError = Error>")
	assert.Contains(t, out.header, "SecondParameter")
}

func TestSWR(t *testing.T) {
	out := generate(t, "swr", petstore(t, nil))

	list := out.operations["listPets"]
	assert.Contains(t, list, "export const getListPetsKey = (\n  params?: ListPetsParams,\n) => [`/pets`, ...(params ? [params] : [])] as const;")
	assert.Contains(t, list, "const swrKey = swrOptions?.swrKey ?? (() => (isEnabled ? getListPetsKey(params) : null));")
	assert.Contains(t, list, "const swrFn = () => listPets(params, axiosOptions);")

	create := out.operations["createPet"]
	assert.Contains(t, create, "export const getCreatePetMutationFetcher = (\n  options?: AxiosRequestConfig,\n) => {\n"+
		"  return (_: Key, {arg}: {arg: NewPet}): Promise<Awaited<ReturnType<typeof createPet>>> => {\n"+
		"    return createPet(arg, options);\n")
	assert.Contains(t, create, "export const getCreatePetMutationKey = () => [`/pets`] as const;")
	assert.Contains(t, create, "const swrFn = getCreatePetMutationFetcher(axiosOptions);")
	assert.Contains(t, create, "const query = useSWRMutation(swrKey, swrFn, swrOptions);")
}

func TestSelector(t *testing.T) {
	_, err := Builtin("fetch-everything").Backend()
	require.Error(t, err)
	assert.True(t, errors.Is(err, generrors.ErrConfig))

	custom := axiosFunctions{}
	b, err := Custom(custom).Backend()
	require.NoError(t, err)
	assert.Equal(t, custom, b)
	assert.Equal(t, "custom", Custom(custom).String())

	assert.Equal(t, []string{"angular", "axios", "axios-functions", "react-query", "svelte-query", "swr", "vue-query"}, Names())
}

func TestParams(t *testing.T) {
	assert.Equal(t, "()", params(nil))
	assert.Equal(t, "(\n  a: string,\n  b?: number,\n)", params([]string{"a: string", "b?: number"}))
	assert.Equal(t, "{\n    url,\n  }", literal([]string{"url"}, "  "))
	assert.Equal(t, "options", requestConfig([]string{"...options"}))
}
