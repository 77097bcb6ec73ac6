package main

import (
	"context"
	"errors"
	"os"

	"movimenti/internal/backend"
	"movimenti/internal/cli"
	"movimenti/internal/conversation"
	applog "movimenti/internal/log"
	"movimenti/internal/transport/telegram"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	result, err := backend.NewFactory(logger.Logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize ledger backend", applog.FieldError, err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	engine := conversation.New(result.Appender, conversation.StaticGate{Allowed: cfg.AuthorizedUserID})

	bot, err := telegram.NewBot(cfg.BotToken, engine, cfg.PollTimeout)
	if err != nil {
		logger.Error("failed to initialize Telegram bot", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("starting movimenti bot",
		"username", bot.Username(),
		"backend", cfg.LedgerBackend,
		"authorized_user", cfg.AuthorizedUserID)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("bot stopped gracefully")
}
