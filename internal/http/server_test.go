package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	applog "finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	svc := services.NewTransactionService(store, nil)
	s := NewServer(":0", store, svc, "test-secret", time.Hour, applog.New(applog.DefaultConfig()))
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func signup(t *testing.T, s *Server, username string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", credentialsRequest{
		Username: username,
		Password: "secretpass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[tokenResponse](t, rec).Token
}

func createTx(t *testing.T, s *Server, token string, req transactionRequest) transactionJSON {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[transactionJSON](t, rec)
}

func TestSignupLoginFlow(t *testing.T) {
	s := newTestServer(t)

	token := signup(t, s, "ana")
	if token == "" {
		t.Fatalf("expected a token from signup")
	}

	// duplicate username
	rec := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", credentialsRequest{Username: "ana", Password: "secretpass"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", "", credentialsRequest{Username: "ana", Password: "secretpass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", "", credentialsRequest{Username: "ana", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/login", "", credentialsRequest{Username: "nadie", Password: "secretpass"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", credentialsRequest{Username: "", Password: "secretpass"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty username status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/signup", "", credentialsRequest{Username: "ana", Password: "corta"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("short password status = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/transactions?month=12-2024", "/api/categories", "/api/summary", "/api/months", "/api/dashboard"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token status = %d", path, rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/summary", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	created := createTx(t, s, token, transactionRequest{
		Date:        "05/12/2024",
		Description: "Supermercado",
		Amount:      "120,50",
		Type:        "expense",
		Category:    "Comida",
	})
	if created.Date != "05/12/2024" {
		t.Fatalf("expected display date, got %q", created.Date)
	}
	if created.Amount != "120.50" {
		t.Fatalf("expected amount 120.50, got %q", created.Amount)
	}
	if created.PaymentType != "cash" {
		t.Fatalf("expected default cash payment, got %q", created.PaymentType)
	}

	// list requires month
	rec := doJSON(t, s, http.MethodGet, "/api/transactions", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("list without month status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?month=12-2024", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	listed := decodeBody[[]transactionJSON](t, rec)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", listed)
	}

	// other months are empty
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?month=11-2024", token, nil)
	if got := decodeBody[[]transactionJSON](t, rec); len(got) != 0 {
		t.Fatalf("expected empty month, got %+v", got)
	}

	// partial update
	rec = doJSON(t, s, http.MethodPatch, "/api/transactions/"+created.ID, token, map[string]string{"description": "Mercado central"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[transactionJSON](t, rec); got.Description != "Mercado central" {
		t.Fatalf("expected updated description, got %q", got.Description)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?month=12-2024", token, nil)
	if got := decodeBody[[]transactionJSON](t, rec); len(got) != 0 {
		t.Fatalf("expected no transactions after delete, got %+v", got)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, transactionRequest{
		Date: "2024-12-05", Description: "x", Amount: "12abc", Type: "expense", Category: "Comida",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad amount status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/transactions", token, transactionRequest{
		Date: "2024-12-05", Description: "x", Amount: "10", Type: "transfer", Category: "Comida",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad type status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/transactions", token, transactionRequest{
		Date: "2024-12-05", Description: "x", Amount: "10", Type: "expense", Category: "Comida", PaymentType: "bank",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bank without name status = %d", rec.Code)
	}

	// an over-long description is a client error, not a server failure
	long := strings.Repeat("x", 201)
	rec = doJSON(t, s, http.MethodPost, "/api/transactions", token, transactionRequest{
		Date: "2024-12-05", Description: long, Amount: "10", Type: "expense", Category: "Comida",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long description status = %d, body %s", rec.Code, rec.Body.String())
	}

	created := createTx(t, s, token, transactionRequest{
		Date: "2024-12-05", Description: "Cena", Amount: "10", Type: "expense", Category: "Comida",
	})
	rec = doJSON(t, s, http.MethodPatch, "/api/transactions/"+created.ID, token, map[string]string{"description": long})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long description patch status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestOwnerIsolation(t *testing.T) {
	s := newTestServer(t)
	anaToken := signup(t, s, "ana")
	luisToken := signup(t, s, "luis")

	created := createTx(t, s, anaToken, transactionRequest{
		Date: "2024-12-05", Description: "Supermercado", Amount: "100", Type: "expense", Category: "Comida",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/transactions?month=12-2024", luisToken, nil)
	if got := decodeBody[[]transactionJSON](t, rec); len(got) != 0 {
		t.Fatalf("expected no cross-owner rows, got %+v", got)
	}

	rec = doJSON(t, s, http.MethodPatch, "/api/transactions/"+created.ID, luisToken, map[string]string{"description": "mio"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner patch status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, luisToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete status = %d", rec.Code)
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	rec := doJSON(t, s, http.MethodPost, "/api/categories", token, map[string]string{"name": "Comida", "type": "expense"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rec.Code, rec.Body.String())
	}
	first := decodeBody[categoryJSON](t, rec)

	// creating the same category again returns the existing one
	rec = doJSON(t, s, http.MethodPost, "/api/categories", token, map[string]string{"name": "Comida", "type": "expense"})
	if got := decodeBody[categoryJSON](t, rec); got.ID != first.ID {
		t.Fatalf("expected get-or-create to return same id, got %q and %q", first.ID, got.ID)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/categories", token, map[string]string{"name": "", "type": "expense"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/categories?type=expense", token, nil)
	if got := decodeBody[[]categoryJSON](t, rec); len(got) != 1 {
		t.Fatalf("expected 1 category, got %+v", got)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/categories?type=other", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid type filter status = %d", rec.Code)
	}
}

func TestDashboardPayload(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	createTx(t, s, token, transactionRequest{Date: "2024-12-01", Description: "Salario", Amount: "4500", Type: "income", Category: "Salario"})
	createTx(t, s, token, transactionRequest{Date: "2024-12-03", Description: "Supermercado", Amount: "120.50", Type: "expense", Category: "Comida"})
	createTx(t, s, token, transactionRequest{Date: "2024-12-03", Description: "Gasolina", Amount: "80", Type: "expense", Category: "Transporte"})
	createTx(t, s, token, transactionRequest{Date: "2024-12-08", Description: "Cine", Amount: "79.50", Type: "expense", Category: "Ocio"})

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard?month=12-2024", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body.String())
	}
	dash := decodeBody[dashboardResponse](t, rec)

	if dash.Month != "12-2024" || dash.Label != "Dic 2024" {
		t.Fatalf("unexpected month header: %q %q", dash.Month, dash.Label)
	}
	if dash.Summary.TotalIncome != "4500" || dash.Summary.TotalExpenses != "280.00" || dash.Summary.Balance != "4220.00" {
		t.Fatalf("unexpected summary: %+v", dash.Summary)
	}
	if dash.Summary.Savings != "1266.00" {
		t.Fatalf("expected 30%% savings suggestion, got %q", dash.Summary.Savings)
	}

	if len(dash.Daily) != 15 {
		t.Fatalf("expected 15 daily points, got %d", len(dash.Daily))
	}
	if dash.Daily[0].Day != 1 || dash.Daily[0].Ingresos != "4500" {
		t.Fatalf("unexpected first daily point: %+v", dash.Daily[0])
	}
	if dash.Daily[1].Day != 3 || dash.Daily[1].Egresos != "200.50" {
		t.Fatalf("unexpected day-3 point: %+v", dash.Daily[1])
	}
	// day 8 falls between stride points, its expense lands nowhere
	for _, p := range dash.Daily {
		if p.Day == 8 {
			t.Fatalf("day 8 must not appear in a stride-2 series")
		}
		if p.Day == 7 && p.Egresos != "0" {
			t.Fatalf("expected empty day 7, got %+v", p)
		}
	}

	if len(dash.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %+v", dash.Categories)
	}
	if dash.Categories[0].Name != "Comida" || dash.Categories[0].Value != "120.50" {
		t.Fatalf("expected Comida first, got %+v", dash.Categories[0])
	}

	if len(dash.Comparison) != 1 {
		t.Fatalf("expected 1 comparison entry, got %+v", dash.Comparison)
	}
	if dash.Comparison[0].Month != "Dic" || dash.Comparison[0].Ingresos != "4500" || dash.Comparison[0].Egresos != "280.00" {
		t.Fatalf("unexpected comparison: %+v", dash.Comparison[0])
	}

	if len(dash.Transactions) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(dash.Transactions))
	}
	if dash.Transactions[0].Date != "08/12/2024" {
		t.Fatalf("expected newest day first, got %q", dash.Transactions[0].Date)
	}
}

func TestDashboardEmptyMonthPlaceholder(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard?month=01-2030", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	dash := decodeBody[dashboardResponse](t, rec)

	if dash.Summary.TotalIncome != "0" || dash.Summary.Balance != "0" {
		t.Fatalf("expected zero summary, got %+v", dash.Summary)
	}
	if dash.Summary.Savings != "0.00" {
		t.Fatalf("expected zero savings, got %q", dash.Summary.Savings)
	}
	if len(dash.Comparison) != 1 || dash.Comparison[0].Month != "Actual" {
		t.Fatalf("expected placeholder comparison entry, got %+v", dash.Comparison)
	}
	if len(dash.Daily) != 15 {
		t.Fatalf("expected zero-filled daily series, got %d points", len(dash.Daily))
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	createTx(t, s, token, transactionRequest{Date: "2024-12-01", Description: "Salario", Amount: "1000", Type: "income", Category: "Salario"})

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard?month=12-2024", token, nil)
	if got := decodeBody[dashboardResponse](t, rec); got.Summary.TotalIncome != "1000" {
		t.Fatalf("unexpected income: %+v", got.Summary)
	}

	// a write must drop the cached payload
	createTx(t, s, token, transactionRequest{Date: "2024-12-02", Description: "Extra", Amount: "500", Type: "income", Category: "Salario"})

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard?month=12-2024", token, nil)
	if got := decodeBody[dashboardResponse](t, rec); got.Summary.TotalIncome != "1500" {
		t.Fatalf("expected refreshed dashboard, got %+v", got.Summary)
	}
}

func TestMonthsAndSummary(t *testing.T) {
	s := newTestServer(t)
	token := signup(t, s, "ana")

	createTx(t, s, token, transactionRequest{Date: "2024-11-10", Description: "Salario", Amount: "1000", Type: "income", Category: "Salario"})
	createTx(t, s, token, transactionRequest{Date: "2024-12-01", Description: "Cena", Amount: "99.90", Type: "expense", Category: "Comida"})

	rec := doJSON(t, s, http.MethodGet, "/api/months", token, nil)
	months := decodeBody[[]monthJSON](t, rec)
	if len(months) != 2 || months[0].Key != "12-2024" || months[1].Key != "11-2024" {
		t.Fatalf("unexpected months: %+v", months)
	}
	if months[0].Label != "Dic 2024" {
		t.Fatalf("unexpected label: %q", months[0].Label)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/summary", token, nil)
	sum := decodeBody[summaryJSON](t, rec)
	if sum.TotalIncome != "1000" || sum.TotalExpenses != "99.90" || sum.Balance != "900.10" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Savings != "270.03" {
		t.Fatalf("unexpected savings: %q", sum.Savings)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
}
