// Package worker mirrors locally stored expenses into the spreadsheet.
// It drains the sync queue and periodically sweeps the local store for
// rows the queue missed (lost messages, worker downtime).
package worker

import (
	"context"
	"fmt"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	applog "gastos/internal/log"
)

// LocalStore is what the worker needs from the primary database.
type LocalStore interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	PendingSync(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id int64) error
}

// Mirror receives already-persisted expenses, id included.
type Mirror interface {
	AppendMirror(ctx context.Context, e core.Expense) error
}

type SyncWorker struct {
	store     LocalStore
	mirror    Mirror
	batchSize int
	log       *applog.Logger
}

func NewSyncWorker(store LocalStore, mirror Mirror, batchSize int, logger *applog.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
		log:       logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSyncMessage mirrors one queued expense. The record is fetched
// fresh from the local store; a record deleted in the meantime just
// drops the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	e, err := w.store.GetExpense(ctx, msg.ID)
	if err != nil {
		w.log.WarnContext(ctx, "sync message for missing expense, dropping",
			applog.FieldExpenseID, msg.ID, applog.FieldError, err)
		return nil
	}

	if err := w.mirror.AppendMirror(ctx, e); err != nil {
		return fmt.Errorf("mirror expense %d: %w", msg.ID, err)
	}
	if err := w.store.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark expense %d synced: %w", msg.ID, err)
	}

	w.log.InfoContext(ctx, "expense mirrored", applog.FieldExpenseID, msg.ID)
	return nil
}

// Sweep mirrors any rows still pending, independent of the queue.
func (w *SyncWorker) Sweep(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending sync: %w", err)
	}
	for _, e := range pending {
		if err := w.mirror.AppendMirror(ctx, e); err != nil {
			return fmt.Errorf("mirror expense %d: %w", e.ID, err)
		}
		if err := w.store.MarkSynced(ctx, e.ID); err != nil {
			return fmt.Errorf("mark expense %d synced: %w", e.ID, err)
		}
	}
	if len(pending) > 0 {
		w.log.InfoContext(ctx, "sweep mirrored pending expenses", applog.FieldCount, len(pending))
	}
	return nil
}

// RunSweeper sweeps at the given interval until the context ends.
func (w *SyncWorker) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.log.ErrorContext(ctx, "sweep failed", applog.FieldError, err)
			}
		}
	}
}
