package cmd

import (
	"fmt"

	"bugbook/internal/tags"

	"github.com/spf13/cobra"
)

// tagAddResult is the JSON output of tags add.
type tagAddResult struct {
	Tag    string `json:"tag,omitempty"`
	Added  bool   `json:"added"`
	Reason string `json:"reason,omitempty"`
}

func newTagsCmd(provider *AppProvider) *cobra.Command {
	list := newTagsListCmd(provider)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List or add categories",
		Long: `Manage the tag registry: the categories offered for new bugs.

Without a subcommand, lists every tag with the number of bugs filed under it.`,
		Args: cobra.NoArgs,
		RunE: list.RunE,
	}
	cmd.AddCommand(list)
	cmd.AddCommand(newTagsAddCmd(provider))
	return cmd
}

func newTagsListCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags with usage counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			registered, err := app.Tags.List(ctx)
			if err != nil {
				return err
			}
			bugs, err := app.Storage.List(ctx)
			if err != nil {
				return fmt.Errorf("listing bugs: %w", err)
			}
			usage := tags.Counts(registered, bugs)

			if app.JSON {
				return app.writeJSON(usage)
			}
			fmt.Fprintln(app.Out, app.HeaderColor("Available Tags:"))
			for _, u := range usage {
				fmt.Fprintf(app.Out, "- %s (%d)\n", u.Tag, u.Count)
			}
			return nil
		},
	}
}

func newTagsAddCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new tag",
		Long: `Register a new tag. Only letters, digits, spaces, hyphens and underscores
are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if err := requireInit(app); err != nil {
				return err
			}

			res, err := app.Tags.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if app.JSON {
				return app.writeJSON(tagAddResult{Tag: res.Name, Added: res.Added, Reason: res.Reason})
			}
			if !res.Added {
				if res.Name == "" {
					return fmt.Errorf("invalid tag %q: %s", args[0], res.Reason)
				}
				fmt.Fprintf(app.Out, "Tag '%s' already exists.\n", res.Name)
				return nil
			}
			fmt.Fprintf(app.Out, "%s Tag '%s' added.\n", app.SuccessColor("✓"), res.Name)
			return nil
		},
	}
}
