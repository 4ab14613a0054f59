// Package worker exports transactions from the local database to a
// spreadsheet, driven by AMQP messages with a periodic sweep as backstop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

type ExportWorker struct {
	store     storage.Store
	appender  sheets.RowAppender
	batchSize int
}

func NewExportWorker(store storage.Store, appender sheets.RowAppender, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the transaction referenced by an AMQP message.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"owner", msg.Owner)

	return w.exportTransaction(ctx, msg.Owner, msg.ID)
}

// ProcessPendingExports exports transactions the queue never delivered.
// Lost AMQP messages are recovered here.
func (w *ExportWorker) ProcessPendingExports(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.Owner, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupExportCheck drains a larger pending batch once at worker startup so
// downtime does not leave transactions behind.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.Owner, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *ExportWorker) exportTransaction(ctx context.Context, owner, id string) error {
	t, err := w.store.GetTransaction(ctx, owner, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before export. Returning an error would requeue the
		// message forever; the delivery is acked instead.
		slog.WarnContext(ctx, "Transaction gone before export, skipping",
			"id", id, "owner", owner)
		return nil
	}
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.appender.Append(ctx, owner, t)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		// The row landed on the sheet, do not fail the message.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"sheet_ref", ref,
		"description", t.Description)

	return nil
}
