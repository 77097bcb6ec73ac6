package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"movimenti/internal/amqp"
	"movimenti/internal/cli"
	"movimenti/internal/ledger/google"
	applog "movimenti/internal/log"
	"movimenti/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize)

	g, ctx := errgroup.WithContext(ctx)

	// Message-driven sync. Optional: the sweeper alone keeps the journal
	// draining when AMQP is not configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, relying on interval sweep only", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			g.Go(func() error {
				return amqpClient.ConsumeMovementSync(ctx, func(msg *amqp.MovementSyncMessage) error {
					return w.HandleSyncMessage(ctx, msg)
				})
			})
		}
	}

	g.Go(func() error {
		return w.RunSweeper(ctx, cfg.SyncInterval)
	})

	logger.Info("starting movimenti-worker",
		"batch_size", cfg.SyncBatchSize,
		"interval", cfg.SyncInterval.String(),
		"amqp_enabled", cfg.AMQPURL != "")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
