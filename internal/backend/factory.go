// Package backend builds the configured ledger backend.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"movimenti/internal/amqp"
	"movimenti/internal/config"
	"movimenti/internal/ledger"
	"movimenti/internal/ledger/google"
	"movimenti/internal/ledger/memory"
	"movimenti/internal/services"
	"movimenti/internal/storage"
)

// Result is a ready ledger backend plus its cleanup.
type Result struct {
	Appender ledger.Appender
	Cleanup  func() error
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg.LedgerBackend.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.LedgerBackend {
	case "memory":
		f.logger.Info("initialized memory ledger backend")
		return &Result{Appender: memory.New(), Cleanup: func() error { return nil }}, nil
	case "sheets":
		return f.createSheets(ctx, cfg)
	case "local":
		return f.createLocal(cfg)
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.LedgerBackend)
	}
}

func (f *Factory) createSheets(ctx context.Context, cfg *config.Config) (*Result, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	f.logger.Info("initialized Google Sheets ledger backend", "sheet", cfg.GoogleSheetName)
	return &Result{Appender: cli, Cleanup: func() error { return nil }}, nil
}

func (f *Factory) createLocal(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite journal: %w", err)
	}

	// AMQP is optional: without it the worker's interval sweep still
	// drains the journal.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("failed to initialize AMQP client, continuing without sync messages", "error", err)
		} else {
			f.logger.Info("initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewRecordService(repo, amqpClient)
	f.logger.Info("initialized local ledger backend",
		"db_path", cfg.SQLiteDBPath, "amqp_enabled", amqpClient != nil)

	return &Result{Appender: svc, Cleanup: svc.Close}, nil
}
