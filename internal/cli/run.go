package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/blimu-dev/client-gen/pkg/generator"
	"github.com/blimu-dev/client-gen/pkg/logger"
)

type FallbackParams struct {
	Input       string
	Output      string
	Client      string
	Mode        string
	Mock        bool
	Title       string
	Validate    bool
	IncludeTags []string
	ExcludeTags []string
}

type RunGenerateParams struct {
	ConfigPath string
	// Projects restricts a configuration run to the named projects
	Projects []string
	Fallback FallbackParams
}

// RunValidate validates a document, printing every finding to w.
func RunValidate(ctx context.Context, input string, w io.Writer, log logger.Logger) error {
	warnings, err := generator.ValidateSpec(ctx, absPath(input), log)
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		fmt.Fprintln(w, warning)
	}
	if len(warnings) > 0 {
		return fmt.Errorf("%d validation finding(s) in %s", len(warnings), input)
	}
	fmt.Fprintf(w, "%s is valid\n", input)
	return nil
}

func RunGenerate(ctx context.Context, p RunGenerateParams, log logger.Logger) error {
	if p.ConfigPath != "" {
		return generator.GenerateFromConfig(ctx, absPath(p.ConfigPath), log, p.Projects...)
	}
	if p.Fallback.Input == "" || p.Fallback.Output == "" {
		return errors.New("either --config or both --input and --output must be provided")
	}
	return generator.Generate(ctx, fallbackOptions(p.Fallback), log)
}

func fallbackOptions(f FallbackParams) generator.FallbackOptions {
	return generator.FallbackOptions{
		Input:       inputPath(f.Input),
		Output:      absPath(f.Output),
		Client:      f.Client,
		Mode:        f.Mode,
		Mock:        f.Mock,
		Title:       f.Title,
		Validate:    f.Validate,
		IncludeTags: f.IncludeTags,
		ExcludeTags: f.ExcludeTags,
	}
}
