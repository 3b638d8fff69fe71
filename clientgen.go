// Package clientgen generates TypeScript API clients from OpenAPI 3 and
// Swagger 2.0 documents.
//
// Quick Start:
//
//	import clientgen "github.com/blimu-dev/client-gen"
//
//	// Generate axios functions and their types into one file
//	err := clientgen.Generate(ctx, clientgen.Options{
//		Input:  "https://petstore3.swagger.io/api/v3/openapi.json",
//		Output: "./src/api/petstore.ts",
//	})
//
// For more control, see the generator package.
package clientgen

import (
	"context"

	"github.com/blimu-dev/client-gen/pkg/generator"
)

// Options describe a single generated client. Only Input and Output are
// required.
type Options = generator.FallbackOptions

// Generate generates one client.
//
// Example:
//
//	err := clientgen.Generate(ctx, clientgen.Options{
//		Input:       "./openapi.yaml",
//		Output:      "./src/api/client.ts",
//		Client:      "react-query",
//		Mode:        "tags-split",
//		Mock:        true,
//		IncludeTags: []string{"users", "orders"},
//	})
func Generate(ctx context.Context, opts Options) error {
	return generator.Generate(ctx, opts, nil)
}

// GenerateFromConfig generates the projects of a YAML configuration file.
// Naming projects restricts the run to them.
//
// Example:
//
//	// Generate every project
//	err := clientgen.GenerateFromConfig(ctx, "./client-gen.yaml")
//
//	// Generate only one
//	err := clientgen.GenerateFromConfig(ctx, "./client-gen.yaml", "petstore")
func GenerateFromConfig(ctx context.Context, configPath string, projects ...string) error {
	return generator.GenerateFromConfig(ctx, configPath, nil, projects...)
}

// ValidateSpec loads a document and returns its validation findings.
func ValidateSpec(ctx context.Context, specPath string) ([]error, error) {
	return generator.ValidateSpec(ctx, specPath, nil)
}

