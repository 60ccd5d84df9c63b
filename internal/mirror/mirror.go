// Package mirror maintains an append-only copy of the transaction log
// in an external spreadsheet, driven by the change feed.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/store"
)

// TransactionAppender writes one transaction row to the mirror target.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction, headName string) (rowRef string, err error)
}

// Store is the slice of the SQLite repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	HeadName(ctx context.Context, id string) (string, error)
	ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
}

type Worker struct {
	store     Store
	appender  TransactionAppender
	batchSize int
}

func NewWorker(store Store, appender TransactionAppender, batchSize int) *Worker {
	return &Worker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleChange processes one change-feed message. Only transaction
// creations and updates trigger a mirror append; deletions are ignored
// because the mirror is append-only history.
func (w *Worker) HandleChange(change feed.RecordChange) error {
	ctx := context.Background()

	if change.Entity != feed.EntityTransaction {
		return nil
	}
	if change.Op != feed.OpCreated && change.Op != feed.OpUpdated {
		return nil
	}

	tx, err := w.store.GetTransaction(ctx, change.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted before the message was consumed; nothing to mirror.
		slog.InfoContext(ctx, "Transaction gone before mirroring", "id", change.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	return w.mirrorOne(ctx, tx)
}

// StartupSync drains the pending-mirror queue, catching up on rows
// written while the worker was down.
func (w *Worker) StartupSync(ctx context.Context) error {
	for {
		pending, err := w.store.ListPendingMirror(ctx, w.batchSize)
		if err != nil {
			return fmt.Errorf("list pending mirror: %w", err)
		}
		if len(pending) == 0 {
			return nil
		}

		slog.InfoContext(ctx, "Mirroring pending transactions", "count", len(pending))
		for _, tx := range pending {
			if err := w.mirrorOne(ctx, tx); err != nil {
				slog.ErrorContext(ctx, "Failed to mirror pending transaction", "error", err, "id", tx.ID)
				if markErr := w.store.MarkMirrorError(ctx, tx.ID); markErr != nil {
					return markErr
				}
			}
		}
	}
}

func (w *Worker) mirrorOne(ctx context.Context, tx core.Transaction) error {
	headName, err := w.store.HeadName(ctx, tx.HeadID)
	if errors.Is(err, store.ErrNotFound) {
		headName = "Uncategorized"
	} else if err != nil {
		return fmt.Errorf("resolve head name: %w", err)
	}

	ref, err := w.appender.AppendTransaction(ctx, tx, headName)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, tx.ID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction mirrored", "id", tx.ID, "row_ref", ref, "head", headName)
	return nil
}
