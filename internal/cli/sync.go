package cli

import (
	"fmt"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/lherron/clashsync/internal/reconcile"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [sheet]",
		Short: "Apply the clash sheet to the tournament",
		Long: `Sync loads institutions, adjudicators and teams, applies every row of the
clash sheet to their conflict lists, and sends one partial update per
changed entity.

Only fields that gained a conflict are sent, so running sync twice with
the same sheet sends nothing the second time. Use --full to re-send every
non-empty field.

A failed update does not stop the others. The exit code is 5 when some
updates failed and 1 when all of them did.`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.Options{NeedsRemote: true, NeedsJournal: true}, runSync),
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Compute and show updates without sending them")
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [sheet]",
		Short: "Show the updates sync would send, without sending them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  appctx.WithApp(appctx.Options{NeedsRemote: true, NeedsJournal: true}, runPlan),
	}
	addRunFlags(cmd)
	return cmd
}

func runSync(app *appctx.App, cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return runReconcile(app, cmd, args, dryRun)
}

func runPlan(app *appctx.App, cmd *cobra.Command, args []string) error {
	return runReconcile(app, cmd, args, true)
}

func runReconcile(app *appctx.App, cmd *cobra.Command, args []string, dryRun bool) error {
	rows, err := readSheet(app, args)
	if err != nil {
		return err
	}

	opts := reconcile.Options{
		DryRun:  dryRun,
		Full:    app.Config.Full,
		Jobs:    app.Config.Jobs,
		Retries: app.Config.Retries,
		Logger:  app.Logger,
	}
	if app.Journal != nil {
		opts.Recorder = app.Journal
	}

	rep, err := reconcile.New(app.Client, opts).Run(cmd.Context(), rows)
	if err != nil {
		return exitError(1, err)
	}

	if err := app.Renderer.Report(rep); err != nil {
		return err
	}
	if showDiff, _ := cmd.Flags().GetBool("diff"); showDiff && !app.Renderer.Structured() {
		if err := reconcile.WriteDiff(cmd.OutOrStdout(), rep.Updates); err != nil {
			return err
		}
	}

	if dryRun {
		return nil
	}
	rep.PrintSummary(cmd.ErrOrStderr())
	if code := rep.ExitCode(); code != 0 {
		return exitError(code, fmt.Errorf("%d of %d update(s) failed", rep.Failed, len(rep.Updates)))
	}
	return nil
}
