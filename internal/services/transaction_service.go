// Package services orchestrates transaction writes across storage and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// SyncPublisher publishes export messages for the worker. A nil publisher
// disables the export pipeline without failing writes.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, owner string) error
	Close() error
}

// TxChanges is a partial update to a transaction. Nil fields are left
// untouched.
type TxChanges struct {
	Date        *string
	Description *string
	Amount      *decimal.Decimal
	Type        *core.TxType
	Category    *string
	PaymentType *core.PaymentType
	Bank        *string
}

// TransactionService coordinates validation, category resolution, persistence
// and export publishing for transaction writes.
type TransactionService struct {
	store     storage.Store
	publisher SyncPublisher
}

func NewTransactionService(store storage.Store, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction validates and saves a transaction for the owner,
// resolving its category by name, then publishes a sync message.
func (s *TransactionService) CreateTransaction(ctx context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	if t.PaymentType == "" {
		t.PaymentType = core.PaymentCash
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cat, err := s.store.UpsertCategory(ctx, owner, t.Category, t.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
	}

	saved, err := s.store.InsertTransaction(ctx, owner, t, cat.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	// Transaction is saved locally, a failed publish must not fail the request.
	if err := s.publishSyncMessage(ctx, saved.ID, owner); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// UpdateTransaction applies a partial update, re-validates the merged
// transaction and re-publishes it for export.
func (s *TransactionService) UpdateTransaction(ctx context.Context, owner, id string, changes TxChanges) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}

	merged := existing
	if changes.Date != nil {
		merged.Date = *changes.Date
	}
	if changes.Description != nil {
		merged.Description = *changes.Description
	}
	if changes.Amount != nil {
		merged.Amount = *changes.Amount
	}
	if changes.Type != nil {
		merged.Type = *changes.Type
	}
	if changes.Category != nil {
		merged.Category = *changes.Category
	}
	if changes.PaymentType != nil {
		merged.PaymentType = *changes.PaymentType
	}
	if changes.Bank != nil {
		merged.Bank = *changes.Bank
	}
	if merged.PaymentType == core.PaymentCash {
		merged.Bank = ""
	}
	if err := merged.Validate(); err != nil {
		return core.Transaction{}, err
	}

	upd := storage.TxUpdate{
		Date:        changes.Date,
		Description: changes.Description,
		Amount:      changes.Amount,
		Type:        changes.Type,
		PaymentType: changes.PaymentType,
		Bank:        &merged.Bank,
	}

	// A changed name or type moves the transaction to another category.
	if changes.Category != nil || changes.Type != nil {
		cat, err := s.store.UpsertCategory(ctx, owner, merged.Category, merged.Type)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
		}
		upd.CategoryID = &cat.ID
	}

	updated, err := s.store.UpdateTransaction(ctx, owner, id, upd)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.publishSyncMessage(ctx, id, owner); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return updated, nil
}

// DeleteTransaction removes a transaction owned by the caller.
func (s *TransactionService) DeleteTransaction(ctx context.Context, owner, id string) error {
	return s.store.DeleteTransaction(ctx, owner, id)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id, owner string) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, owner)
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
