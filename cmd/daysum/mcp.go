package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mycrub/daysum/pkg/mcp"
	"github.com/mycrub/daysum/pkg/render"
)

func newMCPCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start daysum as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl, c, st, err := g.openController(ctx, render.Discard{})
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			stopSweeper, err := g.startSweeper(c)
			if err != nil {
				return err
			}
			defer stopSweeper()

			srv := mcp.New(ctrl, c, version, g.logger)
			g.logger.Info("mcp server ready", "version", version)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
