package cli

import (
	"fmt"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/spf13/cobra"
)

func newMigrateAdmCmd() *cobra.Command {
	var dryRun, status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run any pending journal migrations",
		Long: `Migrate applies any pending SQL migrations to the run journal, creating
the journal file if it does not exist.

Migrations are embedded in the binary and tracked via the schema_migrations
table. Each migration file is applied exactly once, so this command is
safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: appctx.WithApp(appctx.Options{RequireJournal: true, SkipMigrationCheck: true},
			func(app *appctx.App, cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				j := app.Journal

				if status || dryRun {
					applied, pending, err := j.MigrationStatus()
					if err != nil {
						return exitError(1, fmt.Errorf("failed to get migration status: %w", err))
					}
					if status {
						for _, m := range applied {
							fmt.Fprintf(out, "  ✓ %s\n", m)
						}
					}
					for _, m := range pending {
						fmt.Fprintf(out, "  ○ %s\n", m)
					}
					if len(pending) == 0 {
						fmt.Fprintln(out, "No pending migrations. Journal is up to date.")
					}
					return nil
				}

				applied, err := j.Migrate()
				if err != nil {
					return exitError(1, fmt.Errorf("failed to run migrations: %w", err))
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "Journal is up to date. No migrations to apply.")
					return nil
				}
				for _, m := range applied {
					fmt.Fprintf(out, "✓ Applied migration: %s\n", m)
				}
				fmt.Fprintf(out, "\nApplied %d migration(s) to %s.\n", len(applied), j.Path())
				return nil
			}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show which migrations would be applied without running them")
	cmd.Flags().BoolVar(&status, "status", false, "Show applied and pending migrations")
	return cmd
}
