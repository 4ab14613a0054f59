package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"` // DD/MM/YYYY
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	PaymentType string `json:"paymentType"`
	Bank        string `json:"bank,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Date:        core.DisplayDate(t.Date),
		Description: t.Description,
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Category:    t.Category,
		PaymentType: string(t.Payment()),
		Bank:        t.Bank,
	}
}

type transactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	PaymentType string `json:"paymentType"`
	Bank        string `json:"bank"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	monthParam := strings.TrimSpace(r.URL.Query().Get("month"))
	if monthParam == "" {
		writeError(w, http.StatusBadRequest, "month query parameter is required (MM-YYYY)")
		return
	}
	key, err := core.ParseMonthKey(monthParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month, expected MM-YYYY")
		return
	}

	filter := storage.TxFilter{}
	filter.From, filter.To = key.Range()
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		t := core.TxType(typ)
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "invalid type, expected income or expense")
			return
		}
		filter.Type = t
	}

	txs, err := s.store.ListTransactions(r.Context(), Owner(r.Context()), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	t := core.Transaction{
		Date:        core.ISODate(strings.TrimSpace(req.Date)),
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        core.TxType(strings.TrimSpace(req.Type)),
		Category:    sanitizeInput(req.Category),
		PaymentType: core.PaymentType(strings.TrimSpace(req.PaymentType)),
		Bank:        sanitizeInput(req.Bank),
	}

	owner := Owner(r.Context())
	saved, err := s.svc.CreateTransaction(r.Context(), owner, t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create transaction")
		return
	}

	s.invalidateDashboards(owner)
	writeJSON(w, http.StatusCreated, toTransactionJSON(saved))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Date        *string `json:"date"`
		Description *string `json:"description"`
		Amount      *string `json:"amount"`
		Type        *string `json:"type"`
		Category    *string `json:"category"`
		PaymentType *string `json:"paymentType"`
		Bank        *string `json:"bank"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := services.TxChanges{}
	if req.Date != nil {
		iso := core.ISODate(strings.TrimSpace(*req.Date))
		changes.Date = &iso
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		changes.Description = &desc
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		changes.Amount = &amount
	}
	if req.Type != nil {
		typ := core.TxType(strings.TrimSpace(*req.Type))
		changes.Type = &typ
	}
	if req.Category != nil {
		cat := sanitizeInput(*req.Category)
		changes.Category = &cat
	}
	if req.PaymentType != nil {
		pt := core.PaymentType(strings.TrimSpace(*req.PaymentType))
		changes.PaymentType = &pt
	}
	if req.Bank != nil {
		bank := sanitizeInput(*req.Bank)
		changes.Bank = &bank
	}

	owner := Owner(r.Context())
	updated, err := s.svc.UpdateTransaction(r.Context(), owner, id, changes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "transaction not found")
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.ErrorContext(r.Context(), "Failed to update transaction", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, "could not update transaction")
		}
		return
	}

	s.invalidateDashboards(owner)
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := Owner(r.Context())

	if err := s.svc.DeleteTransaction(r.Context(), owner, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	s.invalidateDashboards(owner)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func isValidationError(err error) bool {
	for _, verr := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrInvalidPayment,
		core.ErrEmptyDescription,
		core.ErrDescriptionLong,
		core.ErrEmptyCategory,
		core.ErrBankRequired,
		core.ErrBankNotAllowed,
	} {
		if errors.Is(err, verr) {
			return true
		}
	}
	return false
}
