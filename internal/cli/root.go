package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the clashsync command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clashsync",
		Short: "Sync a sheet of declared clashes into a Tabbycat tournament",
		Long: `clashsync reads a sheet of declared conflicts (judge vs team, judge vs
judge, judge vs institution, team vs institution), resolves every name
against the tournament's adjudicators, teams and institutions, and writes
the merged conflict lists back through the Tabbycat API.

Existing conflicts are never removed. Rows naming unknown entities are
reported and skipped; an empty or unrecognized relation cell ends the data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)
	rootCmd.PersistentFlags().String("base-url", "", "Tabbycat API root, e.g. https://tab.example/api/v1 (overrides CLASHSYNC_BASE_URL)")
	rootCmd.PersistentFlags().String("slug", "", "Tournament slug (overrides CLASHSYNC_SLUG)")

	rootCmd.AddCommand(newSyncCmd(), newPlanCmd(), newCheckCmd(), newVersionCmd("clashsync"))
	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (.yaml or .toml; default ~/.config/clashsync/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "Log format: auto, console, json")
	cmd.PersistentFlags().StringP("output", "o", "", "Output format: table, json, ndjson, yaml, tsv")
	cmd.PersistentFlags().Bool("porcelain", false, "Stable machine output: tab-separated tables, compact JSON")
}
