package cli

import (
	"fmt"

	"github.com/lherron/clashsync/internal/cli/appctx"
	"github.com/lherron/clashsync/internal/config"
	"github.com/lherron/clashsync/internal/render"
	"github.com/spf13/cobra"
)

func newConfigAdmCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Config prints the configuration after merging the config file, .env.local,
environment variables and flags. The API key is masked.

With --check it also validates that a sync could run, exiting with code 2
when a required setting is missing or invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if f := cmd.Flag("config"); f != nil {
				path = f.Value.String()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return exitError(2, fmt.Errorf("failed to load config: %w", err))
			}
			if err := appctx.ApplyFlags(cmd, cfg); err != nil {
				return exitError(2, err)
			}

			format := render.FormatYAML
			if f := cmd.Flag("output"); f != nil && f.Changed {
				if format, err = render.ParseFormat(f.Value.String()); err != nil {
					return exitError(2, err)
				}
				if format != render.FormatJSON {
					format = render.FormatYAML
				}
			}
			if err := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: format}).Encode(cfg.Redacted()); err != nil {
				return err
			}

			if check {
				if err := cfg.Validate(); err != nil {
					return exitError(2, err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "✓ configuration is complete")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Validate the settings a sync needs")
	return cmd
}
