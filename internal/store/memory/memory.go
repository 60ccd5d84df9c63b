// Package memory provides a mutex-guarded in-memory store backend,
// used for development and tests.
package memory

import (
	"context"
	"time"

	"sync"

	"github.com/google/uuid"

	"github.com/vansh-20/school-finance-app/internal/core"
	"github.com/vansh-20/school-finance-app/internal/store"
)

type Store struct {
	mu    sync.Mutex
	heads map[string]core.Head
	txs   map[string]core.Transaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		heads: make(map[string]core.Head),
		txs:   make(map[string]core.Transaction),
	}
}

func (s *Store) CreateHead(_ context.Context, h core.Head) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = uuid.NewString()
	h.CreatedAt = time.Now()
	s.heads[h.ID] = h
	return h.ID, nil
}

func (s *Store) DeleteHead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.heads[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.heads, id)
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now()
	s.txs[tx.ID] = tx
	return tx.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, upd store.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return store.ErrNotFound
	}
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return core.ErrInvalidAmount
		}
		tx.Amount = *upd.Amount
	}
	if upd.Description != nil {
		tx.Description = *upd.Description
	}
	s.txs[id] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

// Snapshot returns copies; callers are free to mutate the result.
func (s *Store) Snapshot(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := core.Snapshot{
		Heads:        make([]core.Head, 0, len(s.heads)),
		Transactions: make([]core.Transaction, 0, len(s.txs)),
	}
	for _, h := range s.heads {
		snap.Heads = append(snap.Heads, h)
	}
	for _, tx := range s.txs {
		snap.Transactions = append(snap.Transactions, tx)
	}
	return snap, nil
}
