package worker

import (
	"context"
	"errors"
	"fmt"

	"organizer/internal/amqp"
	"organizer/internal/core"
	"organizer/internal/ledger"
	"organizer/internal/log"
	"organizer/internal/sheets"
)

// TransactionReader is the slice of the ledger repository the worker needs.
type TransactionReader interface {
	Get(ctx context.Context, owner core.OwnerID, id string) (core.Transaction, error)
}

// EventSource delivers ledger events to a handler until ctx is done.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler amqp.EventHandler) error
}

// MirrorWorker copies ledger changes into a spreadsheet mirror. Events only
// carry ids: the current record is always re-read, so redelivered or
// reordered events converge on the stored state.
type MirrorWorker struct {
	repo   TransactionReader
	mirror sheets.Mirror
	logger *log.Logger
}

func NewMirrorWorker(repo TransactionReader, mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{repo: repo, mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run consumes events from src until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, src EventSource) error {
	w.logger.Info("Mirror worker started")
	err := src.ConsumeLedgerEvents(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEvent processes a single ledger event. A returned error asks the
// broker to redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev ledger.Event) error {
	logger := w.logger.With(
		log.FieldEventType, string(ev.Type),
		log.FieldTransactionID, ev.TransactionID,
		log.FieldOwnerID, string(ev.OwnerID),
	)
	logger.Info("Processing ledger event")

	switch ev.Type {
	case ledger.EventCreated, ledger.EventUpdated:
		tx, err := w.repo.Get(ctx, ev.OwnerID, ev.TransactionID)
		if errors.Is(err, core.ErrNotFound) {
			logger.Info("Transaction no longer exists, clearing mirror row")
			return w.remove(ctx, ev.TransactionID)
		}
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", ev.TransactionID, err)
		}
		if err := w.mirror.Upsert(ctx, tx); err != nil {
			return fmt.Errorf("upsert to mirror: %w", err)
		}
		logger.Info("Transaction mirrored")
		return nil
	case ledger.EventDeleted:
		return w.remove(ctx, ev.TransactionID)
	default:
		logger.Warn("Ignoring unknown ledger event")
		return nil
	}
}

func (w *MirrorWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from mirror: %w", err)
	}
	return nil
}
