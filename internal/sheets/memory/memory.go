package memory

import (
	"context"
	"sync"

	"organizer/internal/core"
	"organizer/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

// Store is an in-process mirror used by the worker in development and tests.
type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string][]string
}

func New() *Store {
	return &Store{rows: make(map[string][]string)}
}

// Upsert replaces the row for tx.ID or appends a new one.
func (s *Store) Upsert(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tx.ID]; !ok {
		s.order = append(s.order, tx.ID)
	}
	s.rows[tx.ID] = sheets.Row(tx)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return nil
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Row returns a copy of the mirrored row for id.
func (s *Store) Row(id string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), r...), true
}

// Rows returns all rows in insertion order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, append([]string(nil), s.rows[id]...))
	}
	return out
}
