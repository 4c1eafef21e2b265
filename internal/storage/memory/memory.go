// Package memory is a process-local ledger repository. It backs tests and the
// default development backend; data is lost on exit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"organizer/internal/core"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Transaction
	now   func() time.Time
}

func New() *Store {
	return &Store{items: make(map[string]core.Transaction), now: time.Now}
}

// NewWithClock is New with a fixed time source, for deterministic ordering in tests.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Recurrence == "" {
		tx.Recurrence = core.RecurrenceNone
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tx.ID] = tx.Clone()
	return tx.Clone(), nil
}

func (s *Store) Get(_ context.Context, owner core.OwnerID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.items[id]
	if !ok || tx.OwnerID != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx.Clone(), nil
}

func (s *Store) Update(_ context.Context, owner core.OwnerID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok || tx.OwnerID != owner {
		return core.Transaction{}, core.ErrNotFound
	}
	updated := patch.Apply(tx.Clone(), s.now())
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.items[id] = updated
	return updated.Clone(), nil
}

func (s *Store) Delete(_ context.Context, owner core.OwnerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok || tx.OwnerID != owner {
		return core.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) List(_ context.Context, owner core.OwnerID, filter core.ListFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if tx.OwnerID == owner && filter.Matches(tx) {
			out = append(out, tx.Clone())
		}
	}
	s.mu.RUnlock()

	core.SortTransactions(out)
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
