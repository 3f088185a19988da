package cmd

import (
	"errors"
	"fmt"

	"bugbook/internal/bugstorage"
	"bugbook/internal/resolve"

	"github.com/spf13/cobra"
)

// outcomeJSON is the JSON shape of one toggled bug.
type outcomeJSON struct {
	ID        string            `json:"id"`
	From      bugstorage.Status `json:"from"`
	To        bugstorage.Status `json:"to"`
	OK        bool              `json:"ok"`
	Error     string            `json:"error,omitempty"`
	SyncError string            `json:"sync_error,omitempty"`
}

// resolveResult is the JSON output of resolve.
type resolveResult struct {
	Cancelled bool          `json:"cancelled,omitempty"`
	NotFound  []string      `json:"not_found,omitempty"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Outcomes  []outcomeJSON `json:"outcomes"`
}

func newResolveCmd(provider *AppProvider) *cobra.Command {
	var req resolve.Request

	cmd := &cobra.Command{
		Use:   "resolve [bug-id...]",
		Short: "Toggle bugs between Open and Resolved",
		Long: `Toggle the status of one or more bugs: Open becomes Resolved and Resolved
becomes Open.

Bugs can be named by ID or selected in bulk with --all-tagged and
--all-status. When both IDs or a tag and a status are given, the status
narrows the selection. More than one bug needs confirmation unless --yes
is passed.

Examples:
  bugbook resolve A1B2C3D4
  bugbook resolve a1b2 c3d4 --yes
  bugbook resolve --all-tagged Frontend --all-status open
  bugbook resolve --all-status resolved -y     # reopen everything`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			req.IDs = args

			engine := &resolve.Engine{
				Store:  app.Storage,
				Logger: app.Logger,
				Confirm: func(candidates []*bugstorage.Bug) (bool, error) {
					printPreview(app, candidates)
					return app.confirm(fmt.Sprintf("Update %d bugs?", len(candidates)))
				},
			}

			report, err := engine.Run(cmd.Context(), req)
			if errors.Is(err, bugstorage.ErrInvalidID) {
				return fmt.Errorf("%w (expected 1-8 hex characters); nothing was changed", err)
			}
			if err != nil {
				return err
			}

			if app.JSON {
				return app.writeJSON(toResolveResult(report))
			}

			for _, id := range report.NotFound {
				fmt.Fprintf(app.Out, "%s\n", app.WarnColor(fmt.Sprintf("Warning: Bug with ID '%s' not found.", id)))
			}
			if len(report.Candidates) == 0 {
				fmt.Fprintln(app.Out, app.WarnColor("No bugs match the specified criteria."))
				return nil
			}
			if report.Cancelled {
				fmt.Fprintln(app.Out, "Operation cancelled.")
				return nil
			}

			for _, o := range report.Outcomes {
				if !o.OK() {
					fmt.Fprintf(app.Out, "%s\n", app.ErrorColor(fmt.Sprintf("✗ [%s] Failed: %v", o.ID, o.Err)))
					continue
				}
				fmt.Fprintf(app.Out, "%s Bug [%s] status updated to: %s %s\n",
					app.SuccessColor("✓"), app.IDColor(o.ID), statusIcon(o.To), o.To)
				if o.HookErr != nil {
					fmt.Fprintf(app.Out, "  %s\n", app.WarnColor(fmt.Sprintf("sync failed: %v", o.HookErr)))
				}
			}

			if len(report.Outcomes) > 1 || report.Failed() > 0 {
				printResolveSummary(app, report)
			}
			if report.Failed() > 0 {
				return fmt.Errorf("%d of %d bugs could not be updated", report.Failed(), len(report.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.AllTagged, "all-tagged", "", "Select every bug in this category")
	cmd.Flags().StringVar(&req.AllStatus, "all-status", "", "Select every bug with this status (open, resolved)")
	cmd.Flags().BoolVarP(&req.NoConfirm, "yes", "y", false, "Do not ask before updating several bugs")
	cmd.Flags().BoolVar(&req.NoConfirm, "no-confirm", false, "Alias for --yes")

	return cmd
}

// printPreview lists the planned transitions before confirmation.
func printPreview(app *App, candidates []*bugstorage.Bug) {
	fmt.Fprintf(app.Out, "\n%s\n", app.HeaderColor(fmt.Sprintf("Bugs to update (%d):", len(candidates))))
	for _, b := range candidates {
		summary := truncate(firstLine(b.Error), 50)
		if len([]rune(b.Error)) > 50 {
			summary += "..."
		}
		fmt.Fprintf(app.Out, "  %s → %s [%s] %s\n",
			statusIcon(b.Status), statusIcon(b.Status.Toggled()), app.IDColor(b.ID), summary)
	}
	fmt.Fprintln(app.Out)
}

func printResolveSummary(app *App, report resolve.Report) {
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, app.HeaderColor("Summary:"))
	fmt.Fprintf(app.Out, "  %s\n", app.SuccessColor(fmt.Sprintf("✓ Success: %d", report.Succeeded())))
	if report.Failed() == 0 {
		return
	}
	fmt.Fprintf(app.Out, "  %s\n", app.ErrorColor(fmt.Sprintf("✗ Failed: %d", report.Failed())))
	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, app.ErrorColor("Errors:"))
	for _, o := range report.Outcomes {
		if !o.OK() {
			fmt.Fprintf(app.Out, "  - [%s] %v\n", o.ID, o.Err)
		}
	}
}

func toResolveResult(report resolve.Report) resolveResult {
	res := resolveResult{
		Cancelled: report.Cancelled,
		NotFound:  report.NotFound,
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		Outcomes:  make([]outcomeJSON, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		oj := outcomeJSON{ID: o.ID, From: o.From, To: o.To, OK: o.OK()}
		if o.Err != nil {
			oj.Error = o.Err.Error()
		}
		if o.HookErr != nil {
			oj.SyncError = o.HookErr.Error()
		}
		res.Outcomes = append(res.Outcomes, oj)
	}
	return res
}
