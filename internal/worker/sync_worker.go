// Package worker pushes journaled movements to the external ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"movimenti/internal/amqp"
	"movimenti/internal/ledger"
	"movimenti/internal/storage"
)

// SyncWorker drains the SQLite journal into the external ledger, driven
// by AMQP messages and a periodic sweep for anything missed.
type SyncWorker struct {
	storage   *storage.Repository
	sheet     ledger.Appender
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, sheet ledger.Appender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleSyncMessage pushes a single journal entry to the ledger. Already
// synced entries are skipped, so redelivered messages are harmless.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MovementSyncMessage) error {
	e, err := w.storage.Get(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get movement from journal: %w", err)
	}
	if e.Synced {
		slog.InfoContext(ctx, "movement already synced, skipping", "id", e.ID)
		return nil
	}
	return w.push(ctx, e)
}

// SyncPending sweeps up to one batch of unsynced entries and returns how
// many were pushed.
func (w *SyncWorker) SyncPending(ctx context.Context) (int, error) {
	pending, err := w.storage.ListUnsynced(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unsynced movements: %w", err)
	}

	var synced int
	for _, e := range pending {
		if err := w.push(ctx, e); err != nil {
			// Keep going; the failed entry stays unsynced for the next sweep.
			slog.ErrorContext(ctx, "failed to sync movement", "id", e.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// RunSweeper runs SyncPending on the given interval until the context is
// cancelled.
func (w *SyncWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.SyncPending(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "sweep synced pending movements", "count", n)
			}
		}
	}
}

func (w *SyncWorker) push(ctx context.Context, e storage.Entry) error {
	ref, err := w.sheet.Append(ctx, e.Movement)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	if err := w.storage.MarkSynced(ctx, e.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "movement synced", "id", e.ID, "row_ref", ref)
	return nil
}
