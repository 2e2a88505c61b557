package http

import "net/http"

// Series handlers operate on any member id; the service resolves the series
// key from the member.

func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteOccurrence(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteOnward(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteOnward(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteSeries(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditOccurrence(w http.ResponseWriter, r *http.Request) {
	t, err := decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = r.PathValue("id")

	stored, err := s.budget.EditOccurrence(r.Context(), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleEditOnward(w http.ResponseWriter, r *http.Request) {
	t, err := decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmpl, err := s.budget.EditOnward(r.Context(), r.PathValue("id"), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusOK, tmpl)
}

func (s *Server) handleEditSeries(w http.ResponseWriter, r *http.Request) {
	t, err := decodeTransaction(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmpl, err := s.budget.EditSeries(r.Context(), r.PathValue("id"), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateMonthCaches()
	writeJSON(w, http.StatusOK, tmpl)
}
