// Package store declares the ports implemented by storage backends.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/vansh-20/school-finance-app/internal/core"
)

var ErrNotFound = errors.New("record not found")

// TransactionUpdate carries a partial transaction edit. Nil fields are
// left untouched; only amount and description are mutable.
type TransactionUpdate struct {
	Amount      *decimal.Decimal
	Description *string
}

type (
	HeadWriter interface {
		// CreateHead stores the head and returns its assigned id.
		CreateHead(ctx context.Context, h core.Head) (string, error)
		// DeleteHead removes a head. Transactions referencing it are
		// left dangling on purpose; reports bucket them under
		// Uncategorized.
		DeleteHead(ctx context.Context, id string) error
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (string, error)
		UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	// SnapshotReader delivers the full working set. The backend is
	// treated as an opaque, eventually consistent data source; no
	// ordering or join guarantees are required of it.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.Snapshot, error)
	}

	// Store is the full backend contract.
	Store interface {
		HeadWriter
		TransactionWriter
		SnapshotReader
	}
)
