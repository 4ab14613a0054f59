// Package storage holds the persistence ports and their SQLite implementation.
// Every operation is scoped to one owner; the aggregation core never sees data
// across owners.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// User is an authenticated principal owning transactions and categories.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// TxFilter narrows ListTransactions. Zero fields mean no constraint; From/To
// form a half-open ISO date interval produced by core.MonthKey.Range.
type TxFilter struct {
	From string
	To   string
	Type core.TxType
}

// TxUpdate carries the partial fields of an edit; nil leaves a field unchanged.
type TxUpdate struct {
	Date        *string // YYYY-MM-DD
	Description *string
	Amount      *decimal.Decimal
	Type        *core.TxType
	CategoryID  *string
	PaymentType *core.PaymentType
	Bank        *string
}

// PendingExport is the minimal row the export worker queue needs.
type PendingExport struct {
	ID        string
	Owner     string
	CreatedAt time.Time
}

type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

type CategoryStore interface {
	// UpsertCategory is get-or-create keyed on (owner, name, type).
	UpsertCategory(ctx context.Context, owner, name string, typ core.TxType) (core.Category, error)
	// ListCategories returns the owner's categories ordered by name; an empty
	// type returns both kinds.
	ListCategories(ctx context.Context, owner string, typ core.TxType) ([]core.Category, error)
}

type TransactionStore interface {
	InsertTransaction(ctx context.Context, owner string, t core.Transaction, categoryID string) (core.Transaction, error)
	// UpdateTransaction returns ErrNotFound when id does not belong to owner.
	UpdateTransaction(ctx context.Context, owner, id string, upd TxUpdate) (core.Transaction, error)
	// DeleteTransaction returns ErrNotFound when id does not belong to owner.
	DeleteTransaction(ctx context.Context, owner, id string) error
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, owner string, f TxFilter) ([]core.Transaction, error)

	// Export queue operations used by the worker.
	ListPendingExport(ctx context.Context, limit int) ([]PendingExport, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

// Store is the full persistence surface the application wires up.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore
	Close() error
}
