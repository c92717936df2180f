package cli

import (
	"fmt"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/lherron/clashsync/internal/reconcile"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [sheet]",
		Short: "Parse the clash sheet without contacting the tournament",
		Long: `Check reads the clash sheet the way sync would and reports how many rows of
each relation it holds, which rows are malformed, and where the data ends.
It exits with code 3 when any row is malformed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: appctx.WithApp(appctx.Options{}, runCheck),
	}
	addSheetFlags(cmd)
	return cmd
}

func runCheck(app *appctx.App, cmd *cobra.Command, args []string) error {
	rows, err := readSheet(app, args)
	if err != nil {
		return err
	}

	rep, err := reconcile.Check(rows)
	if err != nil {
		return exitError(2, err)
	}
	if err := app.Renderer.Check(rep); err != nil {
		return err
	}

	if len(rep.Malformed) > 0 {
		return exitError(3, fmt.Errorf("%d malformed row(s)", len(rep.Malformed)))
	}
	return nil
}
