package cmd

import (
	"fmt"
	"strings"

	"bugbook/internal/bugstorage"

	"github.com/spf13/cobra"
)

// clearValue removes an optional field when passed to --priority or --due.
const clearValue = "none"

func newEditCmd(provider *AppProvider) *cobra.Command {
	var (
		errorText string
		solution  string
		tag       string
		priority  string
		files     []string
		due       string
	)

	cmd := &cobra.Command{
		Use:   "edit <bug-id>",
		Short: "Change fields of an existing bug",
		Long: `Change fields of an existing bug. Only the flags you pass are updated.

Use --priority none or --due none to clear those fields, and --files ""
to drop all related files. A category that is not registered yet is added
to the tag registry.

Examples:
  bugbook edit A1B2C3D4 --solution "pin the dependency to 2.3.1"
  bugbook edit a1b2 --tag Backend --priority high
  bugbook edit A1B2C3D4 --due none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			flags := cmd.Flags()

			changed := false
			for _, name := range []string{"error", "solution", "tag", "category", "priority", "files", "due"} {
				if flags.Changed(name) {
					changed = true
				}
			}
			if !changed {
				return fmt.Errorf("nothing to change: pass at least one of --error, --solution, --tag, --priority, --files or --due")
			}

			bug, err := getBug(ctx, app, args[0])
			if err != nil {
				return err
			}

			if flags.Changed("error") {
				text, err := cleanText("error", errorText)
				if err != nil {
					return err
				}
				if text == "" {
					return fmt.Errorf("error description cannot be empty")
				}
				bug.Error = text
			}
			if flags.Changed("solution") {
				text, err := cleanText("solution", solution)
				if err != nil {
					return err
				}
				bug.Solution = text
			}
			if flags.Changed("priority") {
				if strings.EqualFold(strings.TrimSpace(priority), clearValue) {
					bug.Priority = ""
				} else {
					p, ok := bugstorage.ParsePriority(priority)
					if !ok {
						return fmt.Errorf("invalid priority %q (expected low, medium, high or none)", priority)
					}
					bug.Priority = p
				}
			}
			if flags.Changed("due") {
				due = strings.TrimSpace(due)
				if strings.EqualFold(due, clearValue) {
					due = ""
				}
				if err := bugstorage.ValidateDueDate(due); err != nil {
					return err
				}
				bug.DueDate = due
			}
			if flags.Changed("files") {
				bug.Files = bugstorage.ValidateFilePaths(files)
				if dropped := countNonEmpty(files) - len(bug.Files); dropped > 0 {
					app.Logger.Warn("ignoring file paths outside the project", "count", dropped)
				}
			}
			if flags.Changed("tag") || flags.Changed("category") {
				bug.Category, err = registerTag(ctx, app, tag)
				if err != nil {
					return err
				}
			}

			if err := app.Storage.Save(ctx, bug); err != nil {
				return fmt.Errorf("saving bug %s: %w", bug.ID, err)
			}

			if app.JSON {
				return app.writeJSON(ToBugJSON(bug, app.now()))
			}
			fmt.Fprintf(app.Out, "%s Bug [%s] updated successfully.\n", app.SuccessColor("✓"), app.IDColor(bug.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&errorText, "error", "e", "", "New error description")
	cmd.Flags().StringVarP(&solution, "solution", "s", "", "New solution")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "New category")
	cmd.Flags().StringVar(&tag, "category", "", "Alias for --tag")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority (low, medium, high, none)")
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Replace related files")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD or none)")

	return cmd
}

func countNonEmpty(ss []string) int {
	n := 0
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}
