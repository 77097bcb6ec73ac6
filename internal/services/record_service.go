// Package services wires the local journal to the async sheet sync.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"movimenti/internal/amqp"
	"movimenti/internal/core"
	"movimenti/internal/ledger"
	"movimenti/internal/storage"
)

// RecordService is the local-first ledger backend: movements land in the
// SQLite journal first, then a sync message asks the worker to push them
// to the external sheet. Publish failures never fail the append.
type RecordService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

var _ ledger.Appender = (*RecordService)(nil)

func NewRecordService(storage *storage.Repository, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Append implements ledger.Appender.
func (s *RecordService) Append(ctx context.Context, m core.Movement) (string, error) {
	ref, err := s.storage.Append(ctx, m)
	if err != nil {
		return "", fmt.Errorf("journal movement: %w", err)
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse journal ID", "ref", ref, "error", err)
		return ref, nil // journal write succeeded
	}

	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return ref, nil
	}
	if err := s.amqpClient.PublishMovementSync(ctx, id); err != nil {
		// The interval sweep in the worker will pick the row up later.
		slog.ErrorContext(ctx, "failed to publish sync message", "id", id, "error", err)
	}

	return ref, nil
}

// Close closes both the journal and the AMQP connection.
func (s *RecordService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
