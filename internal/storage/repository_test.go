package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestHeadCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateHead(ctx, core.Head{Name: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("create head: %v", err)
	}

	name, err := repo.HeadName(ctx, id)
	if err != nil || name != "Salary" {
		t.Fatalf("head name: got %q (err=%v)", name, err)
	}

	if err := repo.DeleteHead(ctx, id); err != nil {
		t.Fatalf("delete head: %v", err)
	}
	if err := repo.DeleteHead(ctx, id); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionCRUDAndSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	headID, err := repo.CreateHead(ctx, core.Head{Name: "Rent", Type: core.Expense})
	if err != nil {
		t.Fatalf("create head: %v", err)
	}

	txID, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount:      decimal.RequireFromString("1200.50"),
		Type:        core.Expense,
		HeadID:      headID,
		Date:        core.NewDate(2024, 1, 10),
		Description: "january",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("1200.50")) || got.Date.String() != "2024-01-10" {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	amount := decimal.NewFromInt(1300)
	desc := "january, adjusted"
	if err := repo.UpdateTransaction(ctx, txID, store.TransactionUpdate{Amount: &amount, Description: &desc}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	snap, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Heads) != 1 || len(snap.Transactions) != 1 {
		t.Fatalf("unexpected snapshot: %d heads, %d transactions", len(snap.Heads), len(snap.Transactions))
	}
	if snap.Transactions[0].Description != desc || !snap.Transactions[0].Amount.Equal(amount) {
		t.Fatalf("update not visible in snapshot: %+v", snap.Transactions[0])
	}

	if err := repo.DeleteTransaction(ctx, txID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, txID); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTransactionRejectsNonPositiveAmount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	headID, _ := repo.CreateHead(ctx, core.Head{Name: "Rent", Type: core.Expense})
	txID, _ := repo.CreateTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(10),
		Type:   core.Expense,
		HeadID: headID,
		Date:   core.NewDate(2024, 2, 2),
	})

	bad := decimal.Zero
	if err := repo.UpdateTransaction(ctx, txID, store.TransactionUpdate{Amount: &bad}); err != core.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMirrorQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	headID, _ := repo.CreateHead(ctx, core.Head{Name: "Fees", Type: core.Income})
	txID, _ := repo.CreateTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(500),
		Type:   core.Income,
		HeadID: headID,
		Date:   core.NewDate(2024, 3, 1),
	})

	pending, err := repo.ListPendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != txID {
		t.Fatalf("expected one pending transaction, got %+v", pending)
	}

	if err := repo.MarkMirrored(ctx, txID); err != nil {
		t.Fatalf("mark mirrored: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty pending queue, got %+v", pending)
	}

	// An amount edit re-queues the row for mirroring.
	amount := decimal.NewFromInt(550)
	if err := repo.UpdateTransaction(ctx, txID, store.TransactionUpdate{Amount: &amount}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("expected re-queued transaction, got %+v", pending)
	}

	if err := repo.MarkMirrorError(ctx, txID); err != nil {
		t.Fatalf("mark mirror error: %v", err)
	}
	pending, _ = repo.ListPendingMirror(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("errored transactions must not be re-listed, got %+v", pending)
	}
}

type capturingPublisher struct {
	changes []feed.RecordChange
}

func (p *capturingPublisher) PublishChange(_ context.Context, c feed.RecordChange) error {
	p.changes = append(p.changes, c)
	return nil
}

func TestWritesPublishChanges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pub := &capturingPublisher{}
	repo.SetPublisher(pub)

	headID, _ := repo.CreateHead(ctx, core.Head{Name: "Fees", Type: core.Income})
	txID, _ := repo.CreateTransaction(ctx, core.Transaction{
		Amount: decimal.NewFromInt(1),
		Type:   core.Income,
		HeadID: headID,
		Date:   core.NewDate(2024, 1, 1),
	})
	_ = repo.DeleteTransaction(ctx, txID)

	if len(pub.changes) != 3 {
		t.Fatalf("expected 3 change messages, got %+v", pub.changes)
	}
	if pub.changes[0].Entity != feed.EntityHead || pub.changes[0].Op != feed.OpCreated {
		t.Fatalf("unexpected first change: %+v", pub.changes[0])
	}
	if pub.changes[2].Op != feed.OpDeleted {
		t.Fatalf("unexpected last change: %+v", pub.changes[2])
	}
}
