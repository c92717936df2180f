package cli

import (
	"errors"
	"fmt"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/lherron/clashsync/internal/sheet"
	"github.com/spf13/cobra"
)

// ExitError carries a process exit code alongside the error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// exitError returns an error that will cause the CLI to exit with the given code
func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// addSheetFlags registers the flags that control how the conflicts sheet
// is read.
func addSheetFlags(cmd *cobra.Command) {
	cmd.Flags().String("conflicts", "", "Path to the conflicts sheet, '-' for stdin (overrides CLASHSYNC_CONFLICTS)")
	cmd.Flags().Int("start-row", 1, "First sheet row to read (1-based)")
	cmd.Flags().Bool("header", false, "Skip the first sheet row")
	cmd.Flags().String("delimiter", ",", "Cell separator: ',', ';' or 'tab'")
}

// addRunFlags registers the flags shared by sync and plan.
func addRunFlags(cmd *cobra.Command) {
	addSheetFlags(cmd)
	cmd.Flags().Bool("full", false, "Send every non-empty conflict field, not just the ones that changed")
	cmd.Flags().Int("jobs", 1, "Number of updates to send concurrently")
	cmd.Flags().Int("retries", 0, "Extra attempts for updates that fail transiently")
	cmd.Flags().String("journal", "", "Record the run in this journal (overrides CLASHSYNC_JOURNAL)")
	cmd.Flags().String("timeout", "", "Per-request timeout, e.g. 30s")
	cmd.Flags().String("auth-scheme", "", "Authorization scheme: Token or Bearer")
	cmd.Flags().Bool("diff", false, "Print a unified diff of every field change")
}

// readSheet reads the conflicts sheet named by args[0] or the configured
// path.
func readSheet(app *appctx.App, args []string) ([]sheet.Row, error) {
	path := app.Config.Conflicts
	if len(args) > 0 {
		path = args[0]
	}

	delim, err := app.Config.DelimiterRune()
	if err != nil {
		return nil, exitError(2, err)
	}

	f, err := sheet.Open(path)
	if err != nil {
		return nil, exitError(2, err)
	}
	defer f.Close()

	rows, err := sheet.ReadAll(f, sheet.Options{
		StartRow:  app.Config.StartRow,
		Header:    app.Config.Header,
		Delimiter: delim,
	})
	if err != nil {
		return nil, exitError(2, fmt.Errorf("failed to read conflicts sheet: %w", err))
	}

	app.Logger.Debug().Str("path", path).Int("rows", len(rows)).Msg("conflicts sheet read")
	return rows, nil
}
