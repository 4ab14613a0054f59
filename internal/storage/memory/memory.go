// Package memory is an in-memory storage.Store used by tests and the
// development backend. Semantics mirror the SQLite repository, including
// owner scoping and get-or-create categories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type catKey struct {
	owner string
	name  string
	typ   core.TxType
}

type txRecord struct {
	tx        core.Transaction
	owner     string
	catKey    catKey
	exported  int
	createdAt time.Time
}

type Store struct {
	mu    sync.Mutex
	users map[string]storage.User // by username
	cats  map[catKey]string      // -> category id
	txs   map[string]*txRecord   // by transaction id
	seq   int
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users: make(map[string]storage.User),
		cats:  make(map[catKey]string),
		txs:   make(map[string]*txRecord),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return storage.User{}, storage.ErrUsernameTaken
	}
	u := storage.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[username] = u
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpsertCategory(_ context.Context, owner, name string, typ core.TxType) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := catKey{owner: owner, name: name, typ: typ}
	id, ok := s.cats[key]
	if !ok {
		id = uuid.NewString()
		s.cats[key] = id
	}
	return core.Category{ID: id, Name: name, Type: typ}, nil
}

func (s *Store) ListCategories(_ context.Context, owner string, typ core.TxType) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Category
	for key, id := range s.cats {
		if key.owner != owner {
			continue
		}
		if typ != "" && key.typ != typ {
			continue
		}
		out = append(out, core.Category{ID: id, Name: key.name, Type: key.typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertTransaction(_ context.Context, owner string, t core.Transaction, categoryID string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.PaymentType == "" {
		t.PaymentType = core.PaymentCash
	}
	s.seq++
	rec := &txRecord{
		tx:        t,
		owner:     owner,
		catKey:    s.catKeyByID(owner, categoryID),
		createdAt: time.Now().UTC().Add(time.Duration(s.seq)), // keep insertion order distinct
	}
	s.txs[t.ID] = rec
	t.Category = rec.catKey.name
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, owner, id string, upd storage.TxUpdate) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txs[id]
	if !ok || rec.owner != owner {
		return core.Transaction{}, storage.ErrNotFound
	}
	if upd.Date != nil {
		rec.tx.Date = *upd.Date
	}
	if upd.Description != nil {
		rec.tx.Description = *upd.Description
	}
	if upd.Amount != nil {
		rec.tx.Amount = *upd.Amount
	}
	if upd.Type != nil {
		rec.tx.Type = *upd.Type
	}
	if upd.CategoryID != nil {
		rec.catKey = s.catKeyByID(owner, *upd.CategoryID)
	}
	if upd.PaymentType != nil {
		rec.tx.PaymentType = *upd.PaymentType
	}
	if upd.Bank != nil {
		rec.tx.Bank = *upd.Bank
	}
	rec.exported = 0
	rec.tx.Category = rec.catKey.name
	return rec.tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txs[id]
	if !ok || rec.owner != owner {
		return storage.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txs[id]
	if !ok || rec.owner != owner {
		return core.Transaction{}, storage.ErrNotFound
	}
	t := rec.tx
	t.Category = rec.catKey.name
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, owner string, f storage.TxFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type dated struct {
		tx        core.Transaction
		createdAt time.Time
	}
	var recs []dated
	for _, rec := range s.txs {
		if rec.owner != owner {
			continue
		}
		if f.From != "" && rec.tx.Date < f.From {
			continue
		}
		if f.To != "" && rec.tx.Date >= f.To {
			continue
		}
		if f.Type != "" && rec.tx.Type != f.Type {
			continue
		}
		t := rec.tx
		t.Category = rec.catKey.name
		recs = append(recs, dated{tx: t, createdAt: rec.createdAt})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].tx.Date != recs[j].tx.Date {
			return recs[i].tx.Date > recs[j].tx.Date
		}
		return recs[i].createdAt.After(recs[j].createdAt)
	})
	out := make([]core.Transaction, len(recs))
	for i, r := range recs {
		out[i] = r.tx
	}
	return out, nil
}

func (s *Store) ListPendingExport(_ context.Context, limit int) ([]storage.PendingExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.PendingExport
	for id, rec := range s.txs {
		if rec.exported != 0 {
			continue
		}
		out = append(out, storage.PendingExport{ID: id, Owner: rec.owner, CreatedAt: rec.createdAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id string) error {
	return s.setExported(id, 1)
}

func (s *Store) MarkExportError(_ context.Context, id string) error {
	return s.setExported(id, -1)
}

func (s *Store) setExported(id string, state int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txs[id]
	if !ok {
		return storage.ErrNotFound
	}
	rec.exported = state
	return nil
}

// catKeyByID resolves a category id back to its key; the zero key stands for
// an unknown id and yields an empty category name.
func (s *Store) catKeyByID(owner, id string) catKey {
	for key, catID := range s.cats {
		if catID == id && key.owner == owner {
			return key
		}
	}
	return catKey{}
}
