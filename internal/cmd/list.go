package cmd

import (
	"fmt"

	"bugbook/internal/query"

	"github.com/spf13/cobra"
)

// listResult is the JSON output of list.
type listResult struct {
	Bugs    []BugJSON `json:"bugs"`
	Total   int       `json:"total"`
	Overdue []string  `json:"overdue,omitempty"`
}

func newListCmd(provider *AppProvider) *cobra.Command {
	var opts query.Options

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs",
		Long: `List bugs, newest first.

Without filters or --limit only the five most recent bugs are shown.
Filters combine with AND; --tagged and --author match case-insensitively.

Examples:
  bugbook list
  bugbook list --status open --priority high
  bugbook list --tagged backend --sort dueDate
  bugbook list --sort priority --order asc --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			all, err := app.Storage.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing bugs: %w", err)
			}
			if opts.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			now := app.now()
			shown := query.Apply(all, opts)
			overdue := query.Overdue(all, now)

			if app.JSON {
				res := listResult{Bugs: ToBugListJSON(shown, now), Total: len(all)}
				for _, b := range overdue {
					res.Overdue = append(res.Overdue, b.ID)
				}
				return app.writeJSON(res)
			}

			if len(overdue) > 0 {
				fmt.Fprintf(app.Out, "%s\n", app.WarnColor(fmt.Sprintf("⚠ %d overdue bug(s):", len(overdue))))
				for _, b := range overdue {
					fmt.Fprintf(app.Out, "  [%s] %s (due %s)\n", b.ID, truncate(firstLine(b.Error), 50), b.DueDate)
				}
				fmt.Fprintln(app.Out)
			}

			if len(shown) == 0 {
				if len(all) == 0 {
					fmt.Fprintln(app.Out, app.WarnColor("No bugs found."))
				} else {
					fmt.Fprintln(app.Out, app.WarnColor("No bugs match the given filters."))
				}
				return nil
			}

			fmt.Fprintf(app.Out, "%s\n\n", app.HeaderColor(fmt.Sprintf("Showing %d of %d bug(s):", len(shown), len(all))))
			for _, b := range shown {
				app.printBugSummary(app.Out, b)
			}
			fmt.Fprintln(app.Out, separator)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (open, resolved)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Filter by priority (low, medium, high)")
	cmd.Flags().StringVar(&opts.Tagged, "tagged", "", "Filter by category")
	cmd.Flags().StringVar(&opts.Author, "author", "", "Filter by author")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Sort by priority, date, status, dueDate or id (default date)")
	cmd.Flags().StringVar(&opts.Order, "order", "", "Sort order asc or desc (default asc for dueDate, desc otherwise)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of bugs to show")

	return cmd
}
