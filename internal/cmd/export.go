package cmd

import (
	"bytes"
	"fmt"

	"bugbook/internal/export"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newExportCmd(provider *AppProvider) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a Markdown report of all bugs",
		Long: `Write a Markdown report with open bugs first, then resolved ones.

The report goes to BUGS.md in the current directory unless --out is given.
Use --out - to print it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			bugs, err := app.Storage.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing bugs: %w", err)
			}
			if len(bugs) == 0 {
				fmt.Fprintln(app.Out, "No bugs to export.")
				return nil
			}

			if out == "-" {
				return export.Markdown(app.Out, bugs, app.now())
			}

			var buf bytes.Buffer
			if err := export.Markdown(&buf, bugs, app.now()); err != nil {
				return err
			}
			if err := atomic.WriteFile(out, &buf); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			if app.JSON {
				return app.writeJSON(map[string]interface{}{"file": out, "count": len(bugs)})
			}
			fmt.Fprintf(app.Out, "%s\n", app.SuccessColor(fmt.Sprintf("Successfully exported %d bugs to %s", len(bugs), out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", export.DefaultFile, "Output file, or - for stdout")
	return cmd
}
