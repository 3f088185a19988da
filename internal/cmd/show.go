package cmd

import (
	"github.com/spf13/cobra"
)

func newShowCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <bug-id>",
		Short: "Show every field of a bug, including comments",
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
				return app.writeJSON(ToBugJSON(bug, app.now()))
			}
			app.printBugDetail(app.Out, bug)
			return nil
		},
	}
	return cmd
}
