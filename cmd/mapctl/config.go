package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/config"
	"github.com/danmuck/meshwap/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect node configuration",
	}

	var (
		kind  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a starter config for a client or proxy node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], kind, force); err != nil {
				return err
			}
			output.OK(cmd.OutOrStdout(), "wrote %s config to %s", kind, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&kind, "kind", config.RoleClient, "node role: client or proxy")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			if err := config.Validate(a.cfg); err != nil {
				output.Warn(cmd.ErrOrStderr(), "%v", err)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
