package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/store"
)

type fakeStore struct {
	txs      map[string]core.Transaction
	heads    map[string]string
	mirrored map[string]bool
	errored  map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs:      make(map[string]core.Transaction),
		heads:    make(map[string]string),
		mirrored: make(map[string]bool),
		errored:  make(map[string]bool),
	}
}

func (s *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, nil
}

func (s *fakeStore) HeadName(_ context.Context, id string) (string, error) {
	name, ok := s.heads[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return name, nil
}

func (s *fakeStore) ListPendingMirror(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for id, tx := range s.txs {
		if s.mirrored[id] || s.errored[id] {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkMirrored(_ context.Context, id string) error {
	s.mirrored[id] = true
	return nil
}

func (s *fakeStore) MarkMirrorError(_ context.Context, id string) error {
	s.errored[id] = true
	return nil
}

type fakeAppender struct {
	rows []string // headName per appended row
	fail bool
}

func (a *fakeAppender) AppendTransaction(_ context.Context, _ core.Transaction, headName string) (string, error) {
	if a.fail {
		return "", errors.New("sheet unavailable")
	}
	a.rows = append(a.rows, headName)
	return "Transactions!A2:G2", nil
}

func sampleTx(id, headID string) core.Transaction {
	return core.Transaction{
		ID:     id,
		Amount: decimal.NewFromInt(10),
		Type:   core.Expense,
		HeadID: headID,
		Date:   core.NewDate(2024, 1, 5),
	}
}

func TestHandleChangeMirrorsCreation(t *testing.T) {
	st := newFakeStore()
	st.heads["h1"] = "Rent"
	st.txs["t1"] = sampleTx("t1", "h1")

	app := &fakeAppender{}
	w := NewWorker(st, app, 10)

	if err := w.HandleChange(feed.NewRecordChange(feed.EntityTransaction, "t1", feed.OpCreated)); err != nil {
		t.Fatalf("handle change: %v", err)
	}
	if len(app.rows) != 1 || app.rows[0] != "Rent" {
		t.Fatalf("unexpected appended rows: %+v", app.rows)
	}
	if !st.mirrored["t1"] {
		t.Fatalf("transaction not marked mirrored")
	}
}

func TestHandleChangeIgnoresIrrelevantMessages(t *testing.T) {
	st := newFakeStore()
	app := &fakeAppender{}
	w := NewWorker(st, app, 10)

	for _, change := range []feed.RecordChange{
		feed.NewRecordChange(feed.EntityHead, "h1", feed.OpCreated),
		feed.NewRecordChange(feed.EntityTransaction, "t1", feed.OpDeleted),
	} {
		if err := w.HandleChange(change); err != nil {
			t.Fatalf("handle %+v: %v", change, err)
		}
	}
	if len(app.rows) != 0 {
		t.Fatalf("expected no appends, got %+v", app.rows)
	}
}

func TestHandleChangeGoneTransaction(t *testing.T) {
	w := NewWorker(newFakeStore(), &fakeAppender{}, 10)
	// Deleted before consumption: not an error, nothing to do.
	if err := w.HandleChange(feed.NewRecordChange(feed.EntityTransaction, "ghost", feed.OpCreated)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestHandleChangeDanglingHead(t *testing.T) {
	st := newFakeStore()
	st.txs["t1"] = sampleTx("t1", "deleted-head")

	app := &fakeAppender{}
	w := NewWorker(st, app, 10)

	if err := w.HandleChange(feed.NewRecordChange(feed.EntityTransaction, "t1", feed.OpCreated)); err != nil {
		t.Fatalf("handle change: %v", err)
	}
	if len(app.rows) != 1 || app.rows[0] != "Uncategorized" {
		t.Fatalf("expected Uncategorized label, got %+v", app.rows)
	}
}

func TestStartupSyncDrainsQueueAndIsolatesFailures(t *testing.T) {
	st := newFakeStore()
	st.heads["h1"] = "Fees"
	st.txs["t1"] = sampleTx("t1", "h1")
	st.txs["t2"] = sampleTx("t2", "h1")

	app := &fakeAppender{fail: true}
	w := NewWorker(st, app, 1)

	if err := w.StartupSync(context.Background()); err != nil {
		t.Fatalf("startup sync: %v", err)
	}
	if !st.errored["t1"] || !st.errored["t2"] {
		t.Fatalf("failed rows must be marked errored: %+v", st.errored)
	}

	// A healthy appender drains everything.
	st2 := newFakeStore()
	st2.heads["h1"] = "Fees"
	st2.txs["t1"] = sampleTx("t1", "h1")
	st2.txs["t2"] = sampleTx("t2", "h1")

	app2 := &fakeAppender{}
	if err := NewWorker(st2, app2, 1).StartupSync(context.Background()); err != nil {
		t.Fatalf("startup sync: %v", err)
	}
	if len(app2.rows) != 2 {
		t.Fatalf("expected 2 mirrored rows, got %+v", app2.rows)
	}
}
