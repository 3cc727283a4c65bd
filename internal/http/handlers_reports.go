package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lendx/internal/export"
	"lendx/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	asOf, err := parseDateParam(q, "asOf")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	summary, err := s.svc.Summary(r.Context(), chi.URLParam(r, "id"), f, asOf)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	lines, err := s.svc.Statement(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	switch strings.ToLower(q.Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, lines)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="statement-`+id+`.csv"`)
		if err := export.WriteStatementCSV(w, lines); err != nil {
			// Headers are gone; all that is left is to log it.
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write statement CSV",
				log.FieldBorrowerID, id,
				log.FieldError, err)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+q.Get("format"))
	}
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r.URL.Query(), "asOf")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	p, err := s.svc.Portfolio(r.Context(), asOf)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
