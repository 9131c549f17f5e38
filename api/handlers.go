package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"workbench/service"
	"workbench/storage"
)

// respondJSON writes a JSON response with proper error handling.
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
	}
}

// respondError maps storage sentinels to HTTP statuses and writes a JSON
// error body. Unrecognized errors become 500s with the detail logged, not
// leaked.
func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		a.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
	case errors.Is(err, storage.ErrEventNotFound),
		errors.Is(err, storage.ErrRuleNotFound),
		errors.Is(err, storage.ErrAlertNotFound),
		errors.Is(err, storage.ErrIncidentNotFound),
		errors.Is(err, storage.ErrImportJobNotFound):
		a.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusNotFound)
	case errors.Is(err, storage.ErrIncidentClosed):
		a.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusConflict)
	default:
		a.logger.Errorw("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		a.respondJSON(w, map[string]string{"error": "internal server error"}, http.StatusInternalServerError)
	}
}

// respondBadRequest writes a 400 with the validation detail.
func (a *API) respondBadRequest(w http.ResponseWriter, err error) {
	a.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
}

// queryLimit parses the limit query parameter, falling back when absent or
// out of range.
func queryLimit(r *http.Request, fallback, max int) int {
	limit := fallback
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= max {
			limit = parsed
		}
	}
	return limit
}

// healthCheck reports liveness.
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
