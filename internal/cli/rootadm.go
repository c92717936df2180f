package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootAdmCmd builds the clashsyncadm command tree.
func NewRootAdmCmd() *cobra.Command {
	rootAdmCmd := &cobra.Command{
		Use:   "clashsyncadm",
		Short: "Administrative CLI for the clashsync run journal and configuration",
		Long: `clashsyncadm is the administrative companion to clashsync. It migrates
and inspects the run journal and shows the effective configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootAdmCmd)
	rootAdmCmd.PersistentFlags().String("journal", "", "Path to the run journal (overrides CLASHSYNC_JOURNAL)")

	rootAdmCmd.AddCommand(
		newMigrateAdmCmd(),
		newRunsAdmCmd(),
		newShowAdmCmd(),
		newConfigAdmCmd(),
		newVersionCmd("clashsyncadm"),
	)
	return rootAdmCmd
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin(ctx context.Context) error {
	return NewRootAdmCmd().ExecuteContext(ctx)
}
