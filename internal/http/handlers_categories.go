package http

import (
	"encoding/json"
	"net/http"

	"tally/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "decode category: "+err.Error())
		return
	}

	stored, err := s.store.AddCategory(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "decode category: "+err.Error())
		return
	}
	c.ID = r.PathValue("id")

	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCategory removes a category without touching its transactions;
// they degrade to the catch-all category on read.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	s.invalidateMonthCaches()
	w.WriteHeader(http.StatusNoContent)
}
