package http

import (
	"net/http"

	"finanze/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if !decodeJSON(w, r, &b) {
		return
	}
	b.ID = ""

	created, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if !decodeJSON(w, r, &b) {
		return
	}
	b.ID = r.PathValue("id")

	updated, err := s.store.UpdateBudget(r.Context(), b)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}
