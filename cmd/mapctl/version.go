package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/server"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = server.Version

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the mapctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
			return nil
		},
	}
}
