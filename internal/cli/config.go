package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration as TOML",
		Args:  cobra.MaximumNArgs(1),
		// The file being created may not exist or be valid yet.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "posecoach.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// load already validated; report what was resolved.
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ok: source=%s store=%s addr=%s\n",
				a.cfg.Tracking.Source, a.cfg.Store.Path, a.cfg.Server.Addr)
			return err
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
