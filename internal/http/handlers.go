package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{
		"ledger": map[string]any{
			"transactions": len(s.store.Active()),
			"status":       "ok",
		},
		"cache": map[string]any{
			"balance_entries": s.balanceCache.Size(),
			"summary_entries": s.summaryCache.Size(),
			"status":          "ok",
		},
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	filter := ledger.MonthFilter{
		Year:       year,
		Month:      month,
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	if r.URL.Query().Get("exclude_future") == "true" {
		filter.ExcludeFuture = true
		filter.Today = core.DateOf(time.Now())
	}

	transactions := s.store.ListForMonth(filter)
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":         year,
		"month":        int(month),
		"transactions": transactions,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.budget.AddTransaction(r.Context(), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = r.PathValue("id")

	stored, err := s.budget.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}

	results := s.store.Search(query)
	if results == nil {
		results = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleMonthBalance(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	key := fmt.Sprintf("balance:%04d-%02d", year, month)

	if balance, ok := s.balanceCache.Get(key); ok {
		writeJSON(w, http.StatusOK, balance)
		return
	}

	balance := s.store.BalanceForMonth(ledger.MonthFilter{Year: year, Month: month})
	s.balanceCache.Set(key, balance)
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleMonthCategories(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	txType := core.Expense
	if t := strings.ToLower(r.URL.Query().Get("type")); t == string(core.Income) {
		txType = core.Income
	}
	key := fmt.Sprintf("categories:%04d-%02d:%s", year, month, txType)

	if summaries, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	summaries := s.store.CategorySummariesForMonth(ledger.MonthFilter{Year: year, Month: month}, txType)
	if summaries == nil {
		summaries = []core.CategorySummary{}
	}
	s.summaryCache.Set(key, summaries)
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.Reset(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	generated, err := s.budget.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if generated > 0 {
		s.invalidateMonthCaches()
	}
	writeJSON(w, http.StatusOK, map[string]int{"generated": generated})
}
