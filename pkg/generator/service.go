// Package generator runs the generation pipeline of a project: load the
// documents, resolve and declare schemas, extract operations, synthesize
// mocks, render the client backend and lay the output out into files.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/client"
	"github.com/blimu-dev/client-gen/pkg/generator/mock"
	"github.com/blimu-dev/client-gen/pkg/generator/operation"
	"github.com/blimu-dev/client-gen/pkg/generator/output"
	"github.com/blimu-dev/client-gen/pkg/generator/schema"
	"github.com/blimu-dev/client-gen/pkg/ir"
	"github.com/blimu-dev/client-gen/pkg/logger"
	"github.com/blimu-dev/client-gen/pkg/mutator"
	"github.com/blimu-dev/client-gen/pkg/openapi"
	"github.com/blimu-dev/client-gen/pkg/resolver"
)

// Options configure a Service.
type Options struct {
	Logger logger.Logger
	// Backend replaces the backend named by each project's output.client
	Backend client.Backend
	// ReadFromURI overrides how documents are fetched
	ReadFromURI openapi3.ReadFromURIFunc
}

// Service generates clients for projects.
type Service struct {
	log         logger.Logger
	backend     client.Backend
	readFromURI openapi3.ReadFromURIFunc
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	return &Service{
		log:         logger.OrNop(opts.Logger),
		backend:     opts.Backend,
		readFromURI: opts.ReadFromURI,
	}
}

// Result is the outcome of one project.
type Result struct {
	Files []output.File
	// Warnings are the non-fatal validation findings on the input
	Warnings []error
}

// Render runs the pipeline of a project and returns the files it would
// write.
func (s *Service) Render(ctx context.Context, p *config.Project) (*Result, error) {
	log := s.log.With("project", p.Name)

	g, err := openapi.LoadGraph(ctx, p.Input.Target, openapi.Options{
		Validate:    p.Input.Validation,
		Logger:      log,
		ReadFromURI: s.readFromURI,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range g.Warnings {
		log.Warn("input validation", "error", w)
	}

	override := &p.Output.Override
	r := resolver.New(g, override)
	if err := r.Preallocate(); err != nil {
		return nil, err
	}
	synth := schema.New(r, override)
	schemas, err := synth.DeclareComponents(schema.Context{})
	if err != nil {
		return nil, err
	}

	filter, err := operation.NewTagFilter(p.Input.Filters.IncludeTags, p.Input.Filters.ExcludeTags)
	if err != nil {
		return nil, err
	}
	ops, err := operation.New(synth, operation.Options{
		Override: override,
		Filter:   filter,
		Mutators: mutator.NewInspector(),
		Logger:   log,
	}).ExtractAll()
	if err != nil {
		return nil, err
	}
	log.Debug("extracted operations", "count", len(ops))

	var mocker *mock.Synthesizer
	if p.Output.Mock {
		mocker = mock.New(synth, mock.Options{Override: override, Logger: log})
	}
	outputs := make([]*ir.OperationOutput, 0, len(ops))
	for _, op := range ops {
		out := &ir.OperationOutput{VerbOption: op}
		if mocker != nil {
			if out.Mock, err = mocker.Operation(op); err != nil {
				return nil, err
			}
		}
		outputs = append(outputs, out)
		schemas = append(schemas, op.Schemas()...)
	}
	pending, err := synth.DeclarePending(schema.Context{})
	if err != nil {
		return nil, err
	}

	backend, err := s.selector(p).Backend()
	if err != nil {
		return nil, err
	}
	files, err := output.New(output.Options{
		Mode:    p.Output.Mode,
		Target:  p.Output.Target,
		Schemas: p.Output.Schemas,
		Title:   p.Output.Title,
		Mock:    p.Output.Mock,
		Banner:  override.WithHeader(),
		Backend: backend,
		Logger:  log,
	}).Assemble(output.Input{
		Info:       info(g),
		Operations: outputs,
		Schemas:    ir.DedupSchemas(append(schemas, pending...)),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Files: files, Warnings: g.Warnings}, nil
}

// Generate renders a project, writes its files and runs its post-command.
func (s *Service) Generate(ctx context.Context, p *config.Project) (*Result, error) {
	res, err := s.Render(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := output.Write(ctx, res.Files); err != nil {
		return nil, err
	}
	cmd := output.Command{Args: p.Output.PostCommand, Dir: filepath.Dir(p.Output.Target)}
	if err := cmd.Run(ctx); err != nil {
		return nil, err
	}
	s.log.Info("generated", "project", p.Name, "files", len(res.Files))
	return res, nil
}

// GenerateAll generates the projects of a configuration, or only the named
// ones. A failing project is logged and its siblings still run; the joined
// failures are returned.
func (s *Service) GenerateAll(ctx context.Context, cfg *config.Config, only ...string) error {
	names := only
	if len(names) == 0 {
		names = cfg.ProjectNames()
	}
	var failed []error
	for _, name := range names {
		p, err := cfg.Project(name)
		if err == nil {
			_, err = s.Generate(ctx, p)
		}
		if err != nil {
			s.log.Error(fmt.Sprintf("[%s] generation failed", name), "error", err)
			failed = append(failed, fmt.Errorf("[%s]: %w", name, err))
		}
	}
	return errors.Join(failed...)
}

func (s *Service) selector(p *config.Project) client.Selector {
	if s.backend != nil {
		return client.Custom(s.backend)
	}
	return client.Builtin(p.Output.Client)
}

func info(g *openapi.Graph) output.Info {
	root := g.RootDocument()
	if root == nil || root.Doc == nil || root.Doc.Info == nil {
		return output.Info{}
	}
	return output.Info{
		Title:       root.Doc.Info.Title,
		Version:     root.Doc.Info.Version,
		Description: root.Doc.Info.Description,
	}
}
