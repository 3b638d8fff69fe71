package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Write writes the files concurrently, creating directories as needed.
func Write(ctx context.Context, files []File) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
			}
			if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Command is an external command run after generation, such as a
// formatter. The first element is the executable.
type Command struct {
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command. An empty command is a no-op.
func (c Command) Run(ctx context.Context) error {
	if len(c.Args) == 0 {
		return nil
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("post-command (%s) failed: %w", strings.Join(c.Args, " "), err)
	}
	return nil
}
