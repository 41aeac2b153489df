package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moneytrack/internal/gateway"
)

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeGatewayError maps the gateway's tagged errors onto HTTP statuses.
// Category-in-use gets its own code so the UI can show the dedicated message.
func writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrCategoryInUse):
		writeError(w, http.StatusConflict, "category_in_use",
			"category has transactions and cannot be deleted")
	case errors.Is(err, gateway.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, "duplicate_category", "category name already exists")
	case errors.Is(err, gateway.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authorized")
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record not found")
	case errors.Is(err, gateway.ErrTransport):
		writeError(w, http.StatusBadGateway, "backend_unreachable", "backend unreachable")
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return false
	}
	return true
}
