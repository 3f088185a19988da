package cmd

import (
	"errors"
	"fmt"
	"strings"

	"bugbook/internal/bugstorage"

	"github.com/spf13/cobra"
)

func newCommentCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add or list comments on a bug",
	}
	cmd.AddCommand(newCommentAddCmd(provider))
	cmd.AddCommand(newCommentListCmd(provider))
	return cmd
}

func newCommentAddCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <bug-id> <text...>",
		Short: "Append a comment to a bug",
		Long: `Append a comment to a bug. Remaining arguments are joined with spaces.

Examples:
  bugbook comment add A1B2C3D4 "still happens on Safari 17"
  bugbook comment add a1b2 reproduced after clearing the cache`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Resolve the bug first so a bad ID is reported before the text.
			bug, err := getBug(ctx, app, args[0])
			if err != nil {
				return err
			}

			c, err := app.Storage.AddComment(ctx, bug.ID, strings.Join(args[1:], " "))
			switch {
			case errors.Is(err, bugstorage.ErrEmptyComment):
				return fmt.Errorf("comment cannot be empty")
			case err != nil:
				return fmt.Errorf("adding comment to %s: %w", bug.ID, err)
			}

			if app.JSON {
				return app.writeJSON(c)
			}
			fmt.Fprintf(app.Out, "%s Comment added to bug [%s].\n", app.SuccessColor("✓"), app.IDColor(bug.ID))
			return nil
		},
	}
	return cmd
}

func newCommentListCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <bug-id>",
		Short: "List the comments on a bug, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			bug, err := getBug(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}

			if app.JSON {
				comments := bug.Comments
				if comments == nil {
					comments = []bugstorage.Comment{}
				}
				return app.writeJSON(comments)
			}
			if len(bug.Comments) == 0 {
				fmt.Fprintf(app.Out, "No comments on bug [%s].\n", bug.ID)
				return nil
			}
			fmt.Fprintf(app.Out, "%s\n", app.HeaderColor(fmt.Sprintf("Comments on [%s] (%d):", bug.ID, len(bug.Comments))))
			for _, c := range bug.Comments {
				app.printComment(app.Out, c)
			}
			return nil
		},
	}
	return cmd
}
