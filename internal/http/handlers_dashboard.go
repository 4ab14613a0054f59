package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type summaryJSON struct {
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	Balance       string `json:"balance"`
	Savings       string `json:"savings"`
}

type dayPointJSON struct {
	Day      int    `json:"day"`
	Ingresos string `json:"ingresos"`
	Egresos  string `json:"egresos"`
}

type categoryTotalJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type monthTotalJSON struct {
	Month    string `json:"month"`
	Ingresos string `json:"ingresos"`
	Egresos  string `json:"egresos"`
}

type monthJSON struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type dashboardResponse struct {
	Month        string              `json:"month"`
	Label        string              `json:"label"`
	Summary      summaryJSON         `json:"summary"`
	Daily        []dayPointJSON      `json:"daily"`
	Categories   []categoryTotalJSON `json:"categories"`
	Comparison   []monthTotalJSON    `json:"comparison"`
	Transactions []transactionJSON   `json:"transactions"`
}

func toSummaryJSON(sum core.Summary) summaryJSON {
	return summaryJSON{
		TotalIncome:   sum.TotalIncome.String(),
		TotalExpenses: sum.TotalExpenses.String(),
		Balance:       sum.Balance.String(),
		Savings:       sum.SuggestedSavings().Round(2).String(),
	}
}

// handleSummary returns all-time totals for the owner.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), Owner(r.Context()), storage.TxFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(core.Summarize(txs)))
}

// handleMonths returns the distinct month keys with data, newest first.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), Owner(r.Context()), storage.TxFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list months")
		return
	}

	keys := core.Months(txs)
	out := make([]monthJSON, 0, len(keys))
	for _, k := range keys {
		out = append(out, monthJSON{Key: k.String(), Label: k.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDashboard returns the month view in one payload: totals, daily
// series, category breakdown, cross-month comparison and the row list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	key := core.MonthKey{Month: int(now.Month()), Year: now.Year()}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		parsed, err := core.ParseMonthKey(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected MM-YYYY")
			return
		}
		key = parsed
	}

	owner := Owner(r.Context())
	cacheKey := dashboardCacheKey(owner, key.String())
	if cached, found := s.dashboardCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "owner", owner, "month", key.String())
		writeJSON(w, http.StatusOK, cached)
		return
	}

	all, err := s.store.ListTransactions(r.Context(), owner, storage.TxFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build dashboard")
		return
	}

	monthTxs := core.SelectMonth(key, all)
	resp := dashboardResponse{
		Month:   key.String(),
		Label:   key.Label(),
		Summary: toSummaryJSON(core.Summarize(monthTxs)),
	}

	for _, p := range core.DailySeries(monthTxs) {
		resp.Daily = append(resp.Daily, dayPointJSON{
			Day:      p.Day,
			Ingresos: p.Income.String(),
			Egresos:  p.Expense.String(),
		})
	}
	for _, c := range core.CategoryBreakdown(monthTxs) {
		resp.Categories = append(resp.Categories, categoryTotalJSON{
			Name:  c.Name,
			Value: c.Total.String(),
		})
	}
	for _, m := range core.MonthlyComparison(all, core.DefaultComparisonWindow) {
		resp.Comparison = append(resp.Comparison, monthTotalJSON{
			Month:    m.Label,
			Ingresos: m.Income.String(),
			Egresos:  m.Expense.String(),
		})
	}
	resp.Transactions = make([]transactionJSON, 0, len(monthTxs))
	for _, t := range monthTxs {
		resp.Transactions = append(resp.Transactions, toTransactionJSON(t))
	}

	s.dashboardCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}
