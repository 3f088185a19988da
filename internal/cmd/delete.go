package cmd

import (
	"fmt"

	"bugbook/internal/bugstorage"

	"github.com/spf13/cobra"
)

// deleteResult holds the JSON output of a delete operation.
type deleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func newDeleteCmd(provider *AppProvider) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <bug-id>",
		Short: "Delete a bug permanently",
		Long: `Delete a bug permanently. The record file is removed; there is no undo.

You are asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := bugstorage.ValidateID(args[0]); err != nil {
				return fmt.Errorf("invalid bug ID format: %q (expected 1-8 hex characters)", args[0])
			}
			bug, err := getBug(ctx, app, args[0])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := app.confirm(fmt.Sprintf("Are you sure you want to delete bug [%s]?", bug.ID))
				if err != nil {
					return err
				}
				if !ok {
					if app.JSON {
						return app.writeJSON(deleteResult{ID: bug.ID})
					}
					fmt.Fprintln(app.Out, "Deletion cancelled.")
					return nil
				}
			}

			if err := app.Storage.Delete(ctx, bug.ID); err != nil {
				return fmt.Errorf("deleting bug %s: %w", bug.ID, err)
			}

			if app.JSON {
				return app.writeJSON(deleteResult{ID: bug.ID, Deleted: true})
			}
			fmt.Fprintf(app.Out, "%s Bug [%s] deleted successfully.\n", app.SuccessColor("✓"), bug.ID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	cmd.Flags().BoolVarP(&yes, "force", "f", false, "Alias for --yes")

	return cmd
}
