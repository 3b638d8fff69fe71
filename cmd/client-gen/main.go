package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	cli "github.com/blimu-dev/client-gen/internal/cli"
	"github.com/blimu-dev/client-gen/pkg/config"
	"github.com/blimu-dev/client-gen/pkg/generator/client"
	"github.com/blimu-dev/client-gen/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var verbose bool
	root := &cobra.Command{
		Use:           "client-gen",
		Short:         "Generate TypeScript clients from OpenAPI and Swagger documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	newLogger := func() logger.Logger { return logger.New(os.Stderr, verbose) }

	root.AddCommand(newGenerateCmd(newLogger))
	root.AddCommand(newValidateCmd(newLogger))

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerateCmd(newLogger func() logger.Logger) *cobra.Command {
	var params cli.RunGenerateParams
	f := &params.Fallback

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), params, newLogger())
		},
	}

	cmd.Flags().StringVarP(&params.ConfigPath, "config", "c", "", "Path to client-gen.yaml config")
	cmd.Flags().StringArrayVar(&params.Projects, "project", nil, "Generate only the named project from config")
	// Fallback single-project flags
	cmd.Flags().StringVarP(&f.Input, "input", "i", "", "OpenAPI or Swagger document (path or URL)")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "Generated file path")
	cmd.Flags().StringVar(&f.Client, "client", config.DefaultClient, "Client backend ("+strings.Join(client.Names(), ", ")+")")
	cmd.Flags().StringVar(&f.Mode, "mode", config.ModeSingle, "Output mode (single, split, tags, tags-split)")
	cmd.Flags().BoolVar(&f.Mock, "mock", false, "Generate msw handlers and faker mocks")
	cmd.Flags().StringVar(&f.Title, "title", "", "Name of the generated client, defaults to the output file name")
	cmd.Flags().BoolVar(&f.Validate, "validate", false, "Validate the document before generating")
	cmd.Flags().StringArrayVar(&f.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&f.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")

	return cmd
}

func newValidateCmd(newLogger func() logger.Logger) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI or Swagger document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(cmd.Context(), input, cmd.OutOrStdout(), newLogger())
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "OpenAPI or Swagger document (path or URL)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
