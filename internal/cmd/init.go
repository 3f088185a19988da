package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bugbook/internal/bugstorage"
	"bugbook/internal/migrate"
	"bugbook/internal/tags"

	"github.com/spf13/cobra"
)

// initializer is implemented by stores that create their layout on demand.
type initializer interface {
	Init(ctx context.Context) error
}

// migrationReporter is implemented by stores that convert legacy data.
type migrationReporter interface {
	Migration(ctx context.Context) migrate.Report
}

// initResult is the JSON output of init.
type initResult struct {
	Root     string        `json:"root"`
	Created  bool          `json:"created"`
	Migrated []stepSummary `json:"migrated,omitempty"`
}

func newInitCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the .bugbook directory in the current project",
		Long: `Create .bugbook/ with its bugs/ directory and tag registry.

Running init in a project that already has bugbook data is safe: existing
records are kept, and legacy bugs.json / bugs.md / tags.md files are
converted to the current layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			_, statErr := os.Stat(filepath.Join(app.Root, bugstorage.DirBugs))
			created := os.IsNotExist(statErr)

			if s, ok := app.Storage.(initializer); ok {
				if err := s.Init(ctx); err != nil {
					return fmt.Errorf("initializing storage: %w", err)
				}
			} else if err := os.MkdirAll(filepath.Join(app.Root, bugstorage.DirBugs), bugstorage.DirMode); err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			// Seed the registry so tags list shows the default.
			if _, err := os.Stat(app.Tags.Path()); os.IsNotExist(err) {
				data, err := tags.Encode([]string{bugstorage.DefaultTag})
				if err != nil {
					return err
				}
				if err := bugstorage.WriteFile(app.Tags.Path(), data); err != nil {
					return fmt.Errorf("writing tag registry: %w", err)
				}
			}

			var steps []stepSummary
			if s, ok := app.Storage.(migrationReporter); ok {
				steps = summarizeReport(s.Migration(ctx))
			}

			if app.JSON {
				return app.writeJSON(initResult{Root: app.Root, Created: created, Migrated: steps})
			}
			if created {
				fmt.Fprintf(app.Out, "%s Initialized bugbook in %s\n", app.SuccessColor("✓"), app.Root)
			} else {
				fmt.Fprintf(app.Out, "Bugbook already initialized in %s\n", app.Root)
			}
			printSteps(app, steps)
			return nil
		},
	}
	return cmd
}
