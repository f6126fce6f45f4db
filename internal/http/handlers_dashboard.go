package http

import (
	"fmt"
	"net/http"

	"finanze/internal/core"
	"finanze/internal/report"
)

// DashboardSummary is the landing view: all-time balance plus the trailing
// thirty days of income and expense.
type DashboardSummary struct {
	Balance       core.Money `json:"saldo"`
	Income30Days  core.Money `json:"entrate30"`
	Expense30Days core.Money `json:"uscite30"`
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := "summary@" + now.Format("2006-01-02")
	if cached, ok := s.aggCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard summary load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	last30 := report.RangeSums(snap.Transactions, now.AddDate(0, 0, -30), now)
	summary := DashboardSummary{
		Balance:       report.NetBalance(snap.Transactions),
		Income30Days:  last30.Income,
		Expense30Days: last30.Expense,
	}

	s.aggCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := fmt.Sprintf("monthly@%d-%02d", now.Year(), now.Month())
	if cached, ok := s.aggCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard monthly load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	buckets := report.MonthlyBuckets(snap.Transactions, now)
	s.aggCache.Set(key, buckets)
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleDashboardBreakdown(w http.ResponseWriter, r *http.Request) {
	q := parseReportQuery(r)
	key := "breakdown@" + q.From.Format("2006-01-02") + "_" + q.To.Format("2006-01-02")
	if cached, ok := s.aggCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard breakdown load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cats := core.NewCategorySet(snap.Categories)
	breakdown := report.ExpenseBreakdown(snap.Transactions, cats, q.From, q.To)
	s.aggCache.Set(key, breakdown)
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := fmt.Sprintf("budgets@%d-%02d", now.Year(), now.Month())
	if cached, ok := s.aggCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap, err := s.store.LoadSnapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Budget status load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cats := core.NewCategorySet(snap.Categories)
	statuses := report.EvaluateBudgets(snap.Budgets, snap.Transactions, cats, now)
	s.aggCache.Set(key, statuses)
	writeJSON(w, http.StatusOK, statuses)
}
