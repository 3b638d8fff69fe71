package ir

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
)

// ResolvedRef is the identity of a $ref target
type ResolvedRef struct {
	// Name is the TypeScript identifier allocated for the target
	Name string
	// OriginalName is the last pointer segment, JSON-pointer decoded
	OriginalName string
	// SpecKey is the document that holds the target
	SpecKey string
	// Pointer is the JSON pointer inside SpecKey ("" for a whole document)
	Pointer string
	// RefPaths are the decoded pointer segments
	RefPaths []string
	// Kind is the component kind (schemas, responses, ...) or "" outside #/components
	Kind string
}

// Canonical returns the run-wide identity of the target.
func (r ResolvedRef) Canonical() string {
	return r.SpecKey + "#" + r.Pointer
}

// Import is one symbol a generated file needs to import
type Import struct {
	Name       string
	SpecKey    string
	SchemaName string
	Alias      string
	// Values marks a runtime import rather than a type-only one
	Values  bool
	Default bool
}

// Key identifies an import for deduplication.
func (i Import) Key() string {
	key := i.Name + "|" + i.SpecKey
	if i.Default {
		key += "|default"
	}
	return key
}

// Schema is one hoisted, named TypeScript declaration
type Schema struct {
	Name    string
	Model   string
	Imports []Import
	// SpecKey is the document the declaration belongs to
	SpecKey string
}

// Value categories of a TypeIR.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeUnknown = "unknown"
	TypeEnum    = "enum"
)

// TypeIR is the synthesized TypeScript type of a schema node
type TypeIR struct {
	// Value is the type expression, e.g. "Pet[]" or "'a' | 'b'"
	Value   string
	Imports []Import
	// Schemas are the declarations hoisted while synthesizing Value
	Schemas []Schema
	IsEnum  bool
	IsRef   bool
	// Type is the value category (TypeObject, TypeArray, ...)
	Type             string
	HasReadonlyProps bool
}

// PropType tells where an operation argument goes
type PropType string

const (
	PropParam      PropType = "param"
	PropBody       PropType = "body"
	PropQueryParam PropType = "queryParam"
	PropHeader     PropType = "header"
)

// Prop is one argument of a generated operation function
type Prop struct {
	Name string
	// Definition is the typed declaration, e.g. "petId: string"
	Definition string
	// Implementation is the declaration used in function signatures,
	// including defaults, e.g. "limit = 20"
	Implementation string
	Default        string
	Required       bool
	Type           PropType
}

// Param is one path, query or header parameter
type Param struct {
	// Name is the parameter name as declared
	Name string
	// Identifier is the camelCase variable name
	Identifier string
	In         string
	Required   bool
	// TypeValue is the synthesized type expression
	TypeValue   string
	Default     string
	Description string
	Imports     []Import
	Schemas     []Schema
	Schema      *openapi3.SchemaRef
}

// ParamsGroup is the hoisted object type collecting an operation's query
// parameters or headers
type ParamsGroup struct {
	// Name is the declaration name, e.g. ListPetsParams
	Name     string
	Members  []Param
	Optional bool
	Schema   Schema
}

// Body is the request body of an operation
type Body struct {
	// Definition is the body type; empty when the operation takes no body
	Definition string
	// Implementation is the argument name in generated functions
	Implementation string
	Imports        []Import
	Schemas        []Schema
	ContentType    string
	// FormData holds the FormData-building statements for multipart bodies
	FormData string
	// FormURLEncoded holds the URLSearchParams-building statements
	FormURLEncoded string
	IsOptional     bool
}

// ResponseType is one status code and content type of an operation's responses
type ResponseType struct {
	Key         string
	Value       string
	ContentType string
	IsEnum      bool
	IsRef       bool
	Type        string
	Imports     []Import
	// Schema and SpecKey locate the node for mock synthesis
	Schema  *openapi3.SchemaRef
	SpecKey string
}

// ResponseDefinition holds the success and error unions
type ResponseDefinition struct {
	Success string
	Errors  string
}

// ResponseTypes splits response types by status family
type ResponseTypes struct {
	Success []ResponseType
	Errors  []ResponseType
}

// Response is the combined response of an operation
type Response struct {
	Definition   ResponseDefinition
	Imports      []Import
	Schemas      []Schema
	IsBlob       bool
	Types        ResponseTypes
	ContentTypes []string
}

// Mutator is an inspected user function
type Mutator struct {
	Name    string
	Path    string
	Default bool
	// HasSecondArg is set when the function accepts request options
	HasSecondArg bool
	// HasThirdArg is set when the function accepts a third parameter
	HasThirdArg bool
}

// VerbOption is everything a backend needs to emit one operation
type VerbOption struct {
	OperationID   string
	OperationName string
	Verb          string
	// Route is the TypeScript template literal, e.g. `/pets/${petId}`
	Route string
	// Path is the route as declared, e.g. /pets/{petId}
	Path        string
	Tags        []string
	Summary     string
	Doc         string
	Deprecated  bool
	PathParams  []Param
	QueryParams *ParamsGroup
	Headers     *ParamsGroup
	Body        Body
	Response    Response
	Props       []Prop

	Mutator        *Mutator
	FormData       *Mutator
	FormURLEncoded *Mutator
	Override       *config.Override
	// SpecKey is the document the operation was declared in
	SpecKey string
}

// Imports gathers every import the operation's signature needs.
func (v *VerbOption) Imports() []Import {
	var out []Import
	for _, p := range v.PathParams {
		out = append(out, p.Imports...)
	}
	for _, g := range []*ParamsGroup{v.QueryParams, v.Headers} {
		if g == nil {
			continue
		}
		out = append(out, Import{Name: g.Name, SpecKey: g.Schema.SpecKey})
		for _, p := range g.Members {
			out = append(out, p.Imports...)
		}
	}
	out = append(out, v.Body.Imports...)
	out = append(out, v.Response.Imports...)
	return DedupImports(out)
}

// Schemas gathers every declaration hoisted while extracting the operation.
func (v *VerbOption) Schemas() []Schema {
	var out []Schema
	for _, p := range v.PathParams {
		out = append(out, p.Schemas...)
	}
	for _, g := range []*ParamsGroup{v.QueryParams, v.Headers} {
		if g == nil {
			continue
		}
		for _, p := range g.Members {
			out = append(out, p.Schemas...)
		}
		out = append(out, g.Schema)
	}
	out = append(out, v.Body.Schemas...)
	out = append(out, v.Response.Schemas...)
	return DedupSchemas(out)
}

// DependencyExport is one symbol imported from a package
type DependencyExport struct {
	Name    string
	Alias   string
	Default bool
	Values  bool
}

// GeneratorDependency is a package the generated code imports from
type GeneratorDependency struct {
	Exports    []DependencyExport
	Dependency string
}

// ClientFragment is the client code of one operation
type ClientFragment struct {
	Implementation string
	Imports        []Import
	// Types holds declarations that belong to the operation, such as result aliases
	Types string
}

// MockFragment is the mock code of one operation
type MockFragment struct {
	Implementation string
	Handler        string
	HandlerName    string
	Imports        []Import
}

// OperationOutput pairs an operation with its rendered fragments
type OperationOutput struct {
	VerbOption *VerbOption
	Client     ClientFragment
	Mock       *MockFragment
}

// DedupImports removes repeated imports, keeping the first occurrence. A
// value import absorbs a type-only import of the same symbol.
func DedupImports(imports []Import) []Import {
	seen := make(map[string]int, len(imports))
	out := make([]Import, 0, len(imports))
	for _, imp := range imports {
		if imp.Name == "" {
			continue
		}
		if i, ok := seen[imp.Key()]; ok {
			out[i].Values = out[i].Values || imp.Values
			continue
		}
		seen[imp.Key()] = len(out)
		out = append(out, imp)
	}
	return out
}

// DedupSchemas removes declarations repeated by name, keeping the first.
func DedupSchemas(schemas []Schema) []Schema {
	seen := make(map[string]struct{}, len(schemas))
	out := make([]Schema, 0, len(schemas))
	for _, s := range schemas {
		if s.Name == "" {
			continue
		}
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}
	return out
}
