// Package storage is the SQLite store backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/store"
)

// ChangePublisher announces writes to the change feed. Optional: with
// no publisher attached the repository is pull-only.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change feed.RecordChange) error
}

type SQLiteRepository struct {
	db        *sql.DB
	publisher ChangePublisher
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetPublisher attaches a change-feed publisher for subsequent writes.
func (r *SQLiteRepository) SetPublisher(p ChangePublisher) {
	r.publisher = p
}

// publish announces a write. Feed failures are logged once and never
// block or roll back the write itself.
func (r *SQLiteRepository) publish(ctx context.Context, entity, id, op string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishChange(ctx, feed.NewRecordChange(entity, id, op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"error", err, "entity", entity, "id", id, "op", op)
	}
}

func (r *SQLiteRepository) CreateHead(ctx context.Context, h core.Head) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO heads (id, name, head_type, created_at) VALUES (?, ?, ?, ?)`,
		id, strings.TrimSpace(h.Name), string(h.Type), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert head: %w", err)
	}

	slog.InfoContext(ctx, "Head created", "id", id, "name", h.Name, "head_type", h.Type)
	r.publish(ctx, feed.EntityHead, id, feed.OpCreated)
	return id, nil
}

func (r *SQLiteRepository) DeleteHead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM heads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete head: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Head deleted", "id", id)
	r.publish(ctx, feed.EntityHead, id, feed.OpDeleted)
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, tx_type, head_id, tx_date, description, receipt_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tx.Amount.String(), string(tx.Type), tx.HeadID, tx.Date.String(),
		tx.Description, tx.ReceiptURL, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id, "amount", tx.Amount.String(), "tx_type", tx.Type, "head_id", tx.HeadID, "date", tx.Date.String())
	r.publish(ctx, feed.EntityTransaction, id, feed.OpCreated)
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, upd store.TransactionUpdate) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return core.ErrInvalidAmount
		}
		sets = append(sets, "amount = ?")
		args = append(args, upd.Amount.String())
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	// Any edit makes the row eligible for mirroring again.
	sets = append(sets, "mirrored = 0")
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	r.publish(ctx, feed.EntityTransaction, id, feed.OpUpdated)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	r.publish(ctx, feed.EntityTransaction, id, feed.OpDeleted)
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, head_type, created_at FROM heads ORDER BY created_at`)
	if err != nil {
		return snap, fmt.Errorf("query heads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h core.Head
		var typ string
		if err := rows.Scan(&h.ID, &h.Name, &typ, &h.CreatedAt); err != nil {
			return snap, fmt.Errorf("scan head: %w", err)
		}
		h.Type = core.EntryType(typ)
		snap.Heads = append(snap.Heads, h)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate heads: %w", err)
	}

	txRows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, tx_type, head_id, tx_date, description, receipt_url, created_at
		 FROM transactions ORDER BY created_at`)
	if err != nil {
		return snap, fmt.Errorf("query transactions: %w", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		tx, err := scanTransaction(txRows)
		if err != nil {
			return snap, err
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	if err := txRows.Err(); err != nil {
		return snap, fmt.Errorf("iterate transactions: %w", err)
	}

	return snap, nil
}

// GetTransaction fetches a single transaction; the mirror worker uses it
// to resolve change messages into rows.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount, tx_type, head_id, tx_date, description, receipt_url, created_at
		 FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, err
}

// HeadName resolves a head id to its display name, falling back to
// Uncategorized for dangling references.
func (r *SQLiteRepository) HeadName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM heads WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query head name: %w", err)
	}
	return name, nil
}

// ListPendingMirror returns transactions not yet mirrored to the
// spreadsheet, oldest first.
func (r *SQLiteRepository) ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, tx_type, head_id, tx_date, description, receipt_url, created_at
		 FROM transactions WHERE mirrored = 0 AND mirror_error = 0
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending mirror: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// MarkMirrored flags a transaction as successfully mirrored.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirrored = 1, mirror_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	return nil
}

// MarkMirrorError flags a transaction whose mirroring failed so the
// pending scan stops picking it up.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirror error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with mirror error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var amount, typ, date string
	if err := row.Scan(&tx.ID, &amount, &typ, &tx.HeadID, &date, &tx.Description, &tx.ReceiptURL, &tx.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tx, err
		}
		return tx, fmt.Errorf("scan transaction: %w", err)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	tx.Amount = dec
	tx.Type = core.EntryType(typ)
	// Stored dates may be empty or malformed; reports drop such
	// transactions rather than erroring.
	if d, err := core.ParseDate(date); err == nil {
		tx.Date = d
	}
	return tx, nil
}
