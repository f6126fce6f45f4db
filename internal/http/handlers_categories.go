package http

import (
	"net/http"

	"finanze/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = ""
	c.Name = sanitizeInput(c.Name)

	created, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = r.PathValue("id")
	c.Name = sanitizeInput(c.Name)

	updated, err := s.store.UpdateCategory(r.Context(), c)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCategory refuses with 409 when the category is still
// referenced by transactions or budgets.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}
