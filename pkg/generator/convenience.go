package generator

import (
	"context"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/logger"
	"github.com/blimu-dev/client-gen/pkg/openapi"
)

// FallbackOptions describe a single project when no configuration file is
// given.
type FallbackOptions struct {
	// Input is the OpenAPI or Swagger document, a path or an http(s) URL
	Input string
	// Output is the generated file path
	Output      string
	Client      string
	Mode        string
	Mock        bool
	Title       string
	Validate    bool
	IncludeTags []string
	ExcludeTags []string
	PostCommand []string
}

// Project turns the options into a validated project named name.
func (o FallbackOptions) Project(name string) (*config.Project, error) {
	p := &config.Project{
		Name: name,
		Input: config.Input{
			Target:     o.Input,
			Validation: o.Validate,
			Filters:    config.Filters{IncludeTags: o.IncludeTags, ExcludeTags: o.ExcludeTags},
		},
		Output: config.Output{
			Target:      o.Output,
			Mode:        o.Mode,
			Client:      o.Client,
			Mock:        o.Mock,
			Title:       o.Title,
			PostCommand: o.PostCommand,
		},
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Generate generates one client from fallback options.
func Generate(ctx context.Context, opts FallbackOptions, log logger.Logger) error {
	p, err := opts.Project("default")
	if err != nil {
		return err
	}
	_, err = NewService(Options{Logger: log}).Generate(ctx, p)
	return err
}

// GenerateFromConfig generates the projects of a configuration file, or only
// the named ones.
func GenerateFromConfig(ctx context.Context, path string, log logger.Logger, only ...string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	return NewService(Options{Logger: log}).GenerateAll(ctx, cfg, only...)
}

// ValidateSpec loads a document with validation on and returns the findings.
// A document that cannot be loaded at all is an error.
func ValidateSpec(ctx context.Context, input string, log logger.Logger) ([]error, error) {
	return openapi.ValidateDocument(ctx, input, log)
}
