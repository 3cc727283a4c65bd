package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lendx/internal/log"
)

func (s *Server) handleListBorrowers(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ListBorrowers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req borrowerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	b, err := s.svc.CreateBorrower(r.Context(), req.input())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/borrowers/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBorrower(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.GetBorrower(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBorrower(w http.ResponseWriter, r *http.Request) {
	var req borrowerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	b, err := s.svc.UpdateBorrower(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBorrower(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.DeleteBorrower(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Borrower deleted", log.FieldBorrowerID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	tx, err := s.svc.AddTransaction(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/borrowers/"+id+"/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	tx, err := s.svc.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tx"), req.patch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTransaction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tx")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
