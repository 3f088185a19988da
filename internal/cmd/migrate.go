package cmd

import (
	"fmt"

	"bugbook/internal/migrate"

	"github.com/spf13/cobra"
)

// stepSummary is the JSON shape of one migration step.
type stepSummary struct {
	Source   string `json:"source"`
	Migrated int    `json:"migrated"`
	Skipped  int    `json:"skipped,omitempty"`
	Failed   int    `json:"failed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// summarizeReport keeps the steps whose source was present.
func summarizeReport(r migrate.Report) []stepSummary {
	var out []stepSummary
	for _, step := range r.Steps() {
		if !step.Ran {
			continue
		}
		s := stepSummary{
			Source:   step.Source,
			Migrated: step.Migrated,
			Skipped:  step.Skipped,
			Failed:   step.Failed,
		}
		if step.Err != nil {
			s.Error = step.Err.Error()
		}
		out = append(out, s)
	}
	return out
}

func printSteps(app *App, steps []stepSummary) {
	for _, s := range steps {
		if s.Error != "" {
			fmt.Fprintf(app.Out, "%s %s: %s (file left in place)\n", app.ErrorColor("✗"), s.Source, s.Error)
			continue
		}
		fmt.Fprintf(app.Out, "%s Migrated %s: %d converted", app.SuccessColor("✓"), s.Source, s.Migrated)
		if s.Skipped > 0 {
			fmt.Fprintf(app.Out, ", %d already present", s.Skipped)
		}
		if s.Failed > 0 {
			fmt.Fprintf(app.Out, ", %s", app.WarnColor(fmt.Sprintf("%d unreadable", s.Failed)))
		}
		fmt.Fprintln(app.Out)
	}
}

func newMigrateCmd(provider *AppProvider) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy bugbook files to one file per bug",
		Long: `Convert data written by older bugbook versions.

Three legacy files are recognised under .bugbook/: bugs.json (a JSON array of
bugs), bugs.md (the markdown ledger) and tags.md (one tag per line). Each is
converted and renamed with a .bak suffix. Records that already exist in
bugs/ are never overwritten, so running migrate twice is harmless.

Every other command runs this conversion automatically on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			m := migrate.New(app.Root, app.Logger)
			m.Now = app.now

			if dryRun {
				pending := m.Pending()
				if app.JSON {
					return app.writeJSON(map[string]bool{"pending": pending})
				}
				if pending {
					fmt.Fprintln(app.Out, "Legacy data found; run without --dry-run to convert it.")
				} else {
					fmt.Fprintln(app.Out, "Nothing to migrate.")
				}
				return nil
			}

			steps := summarizeReport(m.Run(cmd.Context()))
			if app.JSON {
				if steps == nil {
					steps = []stepSummary{}
				}
				return app.writeJSON(steps)
			}
			if len(steps) == 0 {
				fmt.Fprintln(app.Out, "Nothing to migrate.")
				return nil
			}
			printSteps(app, steps)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report whether legacy data is present")
	return cmd
}
