package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/recap/pkg/server"
	"github.com/pario-ai/recap/pkg/telegram"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and Telegram webhook",
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

			opts := []server.Option{server.WithLogger(logger)}
			if cfg.Cache.Enabled {
				opts = append(opts, server.WithCacheTTL(cfg.Cache.TTL))
			}

			var hook *telegram.Handler
			if cfg.Telegram.BotToken != "" {
				bot := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL, cfg.Telegram.RatePerSecond)
				hook = telegram.NewHandler(bot, a.service, cfg.Telegram.WebhookSecret,
					telegram.WithPrice(cfg.Telegram.PriceStars),
					telegram.WithLanguage(cfg.Summary.DefaultLanguage),
					telegram.WithLogger(logger),
				)
				opts = append(opts, server.WithTelegram(hook))
				if cfg.Telegram.WebhookSecret == "" {
					logger.Warn("telegram webhook secret not set, accepting unauthenticated updates")
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting recap", "config", *configPath, "provider", cfg.Generation.Provider.Type, "model", cfg.Generation.DefaultModel)
			err = server.New(cfg.Listen, a.service, opts...).ListenAndServe(ctx)
			if hook != nil {
				hook.Wait()
			}
			return err
		},
	}
}
