package cmd

import (
	"fmt"
	"strings"

	"bugbook/internal/bugstorage"

	"github.com/spf13/cobra"
)

func newAddCmd(provider *AppProvider) *cobra.Command {
	var (
		errorText string
		solution  string
		tag       string
		priority  string
		files     []string
		due       string
	)

	cmd := &cobra.Command{
		Use:   "add [error]",
		Short: "Record a new bug",
		Long: `Record a new bug with the error you saw and, optionally, how you fixed it.

The error text comes from the positional argument or --error. A category
that is not in the tag registry yet is added to it.

Examples:
  bugbook add "TypeError: cannot read property 'x' of undefined"
  bugbook add -e "CORS preflight fails" -s "allow OPTIONS in nginx" -t Backend
  bugbook add "Flaky login test" --priority high --due 2026-03-01 --files src/login.ts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := requireInit(app); err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				if errorText != "" {
					return fmt.Errorf("give the error either as an argument or with --error, not both")
				}
				errorText = args[0]
			}
			errorText, err = cleanText("error", errorText)
			if err != nil {
				return err
			}
			if errorText == "" {
				return fmt.Errorf("error description is required")
			}
			solution, err = cleanText("solution", solution)
			if err != nil {
				return err
			}

			bug := &bugstorage.Bug{
				Error:    errorText,
				Solution: solution,
			}

			if priority != "" {
				p, ok := bugstorage.ParsePriority(priority)
				if !ok {
					return fmt.Errorf("invalid priority %q (expected low, medium or high)", priority)
				}
				bug.Priority = p
			}

			due = strings.TrimSpace(due)
			if err := bugstorage.ValidateDueDate(due); err != nil {
				return err
			}
			bug.DueDate = due

			if len(files) > 0 {
				bug.Files = bugstorage.ValidateFilePaths(files)
				if dropped := len(files) - len(bug.Files); dropped > 0 {
					app.Logger.Warn("ignoring file paths outside the project", "count", dropped)
				}
			}

			if tag == "" {
				tag = bugstorage.DefaultTag
			}
			bug.Category, err = registerTag(ctx, app, tag)
			if err != nil {
				return err
			}

			created, err := app.Storage.Create(ctx, bug)
			if err != nil {
				return fmt.Errorf("saving bug: %w", err)
			}

			if app.JSON {
				return app.writeJSON(ToBugJSON(created, app.now()))
			}
			fmt.Fprintf(app.Out, "%s Created bug: %s\n", app.SuccessColor("✓"), app.IDColor(created.ID))
			fmt.Fprintf(app.Out, "  Category: %s\n", created.Category)
			if created.Priority != "" {
				fmt.Fprintf(app.Out, "  Priority: %s\n", created.Priority)
			}
			if created.DueDate != "" {
				fmt.Fprintf(app.Out, "  Due: %s\n", created.DueDate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&errorText, "error", "e", "", "Error message or description")
	cmd.Flags().StringVarP(&solution, "solution", "s", "", "How it was fixed")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Category (default \"General\")")
	cmd.Flags().StringVar(&tag, "category", "", "Alias for --tag")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority (low, medium, high)")
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Related files, relative to the project (comma-separated or repeated)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")

	return cmd
}
