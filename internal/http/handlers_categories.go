package http

import (
	"log/slog"
	"net/http"
	"strings"

	"finanzas/internal/core"
)

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.TxType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		typ = core.TxType(v)
		if !typ.Valid() {
			writeError(w, http.StatusBadRequest, "invalid type, expected income or expense")
			return
		}
	}

	cats, err := s.store.ListCategories(r.Context(), Owner(r.Context()), typ)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Type: string(c.Type)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := core.Category{Name: sanitizeInput(req.Name), Type: core.TxType(strings.TrimSpace(req.Type))}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.store.UpsertCategory(r.Context(), Owner(r.Context()), c.Name, c.Type)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to upsert category", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create category")
		return
	}

	writeJSON(w, http.StatusCreated, categoryJSON{ID: saved.ID, Name: saved.Name, Type: string(saved.Type)})
}
