package cli

import (
	"errors"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/lherron/clashsync/internal/journal"
	"github.com/spf13/cobra"
)

func newRunsAdmCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled runs, newest first",
		Args:  cobra.NoArgs,
		RunE: appctx.WithApp(appctx.Options{RequireJournal: true},
			func(app *appctx.App, cmd *cobra.Command, args []string) error {
				runs, err := app.Journal.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return app.Renderer.Runs(runs)
			}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newShowAdmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one journaled run with its updates and diagnostics",
		Long:  `Show prints a journaled run. A unique prefix of the run id is enough.`,
		Args:  cobra.ExactArgs(1),
		RunE: appctx.WithApp(appctx.Options{RequireJournal: true},
			func(app *appctx.App, cmd *cobra.Command, args []string) error {
				run, err := app.Journal.Run(cmd.Context(), args[0])
				if errors.Is(err, journal.ErrRunNotFound) {
					return exitError(4, err)
				}
				if err != nil {
					return err
				}
				return app.Renderer.RunDetail(run)
			}),
	}
}
