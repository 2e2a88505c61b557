package http

import (
	"fmt"
	"net/http"
	"time"

	"tally/internal/csvio"
)

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	transactions := s.store.Active()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=tally-export-%s.csv", time.Now().Format("2006-01-02")))

	if err := csvio.Export(w, transactions, s.store); err != nil {
		// Headers are already sent; log and give up on the response.
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	parsed, err := csvio.Import(r.Body, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.budget.ImportTransactions(r.Context(), parsed)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(added)})
}
