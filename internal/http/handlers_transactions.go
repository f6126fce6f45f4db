package http

import (
	"net/http"

	"finanze/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = ""
	t.Description = sanitizeInput(t.Description)

	created, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = r.PathValue("id")
	t.Description = sanitizeInput(t.Description)

	updated, err := s.store.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}
