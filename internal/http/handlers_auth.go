package http

import (
	"errors"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"finanzas/internal/auth"
	"finanzas/internal/storage"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := sanitizeInput(req.Username)
	if username == "" || utf8.RuneCountInString(username) > 50 {
		writeError(w, http.StatusUnprocessableEntity, "username must be 1-50 characters")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	user, err := s.store.CreateUser(r.Context(), username, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	token, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Username, s.tokenTTL)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, Username: user.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to load user", "error", err)
		writeError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Username, s.tokenTTL)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Username: user.Username})
}
