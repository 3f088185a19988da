package cmd

import (
	"fmt"

	"bugbook/internal/query"

	"github.com/spf13/cobra"
)

// topCategories is how many categories the text output lists.
const topCategories = 5

func newStatsCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show bug counts by status and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			bugs, err := app.Storage.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing bugs: %w", err)
			}
			stats := query.Summarize(bugs, app.now())

			if app.JSON {
				return app.writeJSON(stats)
			}

			if stats.Total == 0 {
				fmt.Fprintln(app.Out, "No bugs recorded yet.")
				return nil
			}

			w := app.Out
			fmt.Fprintf(w, "\n%s\n\n", app.HeaderColor("Bugbook Statistics"))
			fmt.Fprintln(w, separator)
			fmt.Fprintf(w, "%s     %d\n", app.HeaderColor("Total Bugs:"), stats.Total)
			fmt.Fprintf(w, "%s           %d\n", app.HeaderColor("Open:"), stats.Open)
			fmt.Fprintf(w, "%s       %d\n", app.HeaderColor("Resolved:"), stats.Resolved)
			if stats.High > 0 {
				fmt.Fprintf(w, "%s  %s\n", app.HeaderColor("High priority:"), app.ErrorColor(fmt.Sprint(stats.High)))
			}
			if stats.Overdue > 0 {
				fmt.Fprintf(w, "%s        %s\n", app.HeaderColor("Overdue:"), app.WarnColor(fmt.Sprint(stats.Overdue)))
			}
			fmt.Fprintln(w, separator)
			fmt.Fprintln(w, app.HeaderColor("Top Categories:"))
			for i, c := range stats.Categories {
				if i == topCategories {
					break
				}
				fmt.Fprintf(w, "  %s: %d\n", c.Category, c.Count)
			}
			fmt.Fprintf(w, "%s\n\n", separator)
			return nil
		},
	}
	return cmd
}
