package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/termex/internal/logger"
	"github.com/dusk-indust/termex/internal/mcptools"
)

func serveMCPCmd(flags *cliFlags) *cobra.Command {
	var (
		o    overrides
		addr string
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the term tools over MCP (stdio by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := mcptools.NewTermService(a.extractor, a.store, a.cfg.Workers, a.readOpts...)
			if addr != "" {
				logger.Info("serving MCP over HTTP", "addr", addr)
				return mcptools.RunMCPServer(ctx, svc, addr)
			}
			return mcptools.ServeStdio(ctx, svc)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "listen address for streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&o.Backend, "store", "", "term store backend: memory, kuzu or postgres")
	cmd.Flags().StringVar(&o.StorePath, "store-path", "", "KuzuDB directory")
	return cmd
}
