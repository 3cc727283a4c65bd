package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lendx/internal/core"
	"lendx/internal/ledger"
	"lendx/internal/log"
	"lendx/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var validationErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidAmount,
	core.ErrInvalidType,
	core.ErrInvalidMethod,
	core.ErrInvalidRate,
	core.ErrEmptyName,
	core.ErrNameTooLong,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 without their message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, reqErr.Error())
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, services.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent())
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operationFor(r.Method), fields)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func operationFor(method string) string {
	switch method {
	case http.MethodGet:
		return log.OpRead
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut, http.MethodPatch:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return method
	}
}
