package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/recap/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve recap tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := []mcp.Option{mcp.WithLogger(logger)}
			if a.events != nil {
				opts = append(opts, mcp.WithStats(a.events))
			}
			if a.store != nil {
				opts = append(opts, mcp.WithCacheStats(a.store))
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Debug("mcp server ready", "version", version)
			return mcp.New(a.service, version, opts...).Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
