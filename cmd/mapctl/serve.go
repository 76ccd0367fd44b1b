package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/meshwap/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the codec workbench over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wb := server.New(server.Options{
				Name:              a.cfg.Node.ID,
				Addr:              addr,
				CorsOrigins:       a.cfg.Server.CorsOrigins,
				Token:             a.cfg.Server.Token,
				DecompileCapacity: a.cfg.WSP.DecompileCapacity,
				Budget:            a.cfg.WDP.Budget,
				MaxText:           a.cfg.Mesh.MaxText,
				Logger:            a.log,
			})
			return wb.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
