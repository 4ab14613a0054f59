// Package memory is an in-memory row sink used by worker tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
)

type Row struct {
	Owner       string
	Transaction core.Transaction
}

type Sink struct {
	mu   sync.Mutex
	rows []Row
	err  error
}

func New() *Sink {
	return &Sink{}
}

// Fail makes subsequent appends return err. Pass nil to recover.
func (s *Sink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Append stores the row and returns a synthetic reference.
func (s *Sink) Append(_ context.Context, owner string, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, Row{Owner: owner, Transaction: t})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of all appended rows.
func (s *Sink) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}
