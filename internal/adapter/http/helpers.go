package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// permanent reports whether a delete asks for hard removal (?permanent=true).
func permanent(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("permanent"))
	return v
}

// queryBool parses an optional boolean query parameter. Unparseable values are ignored.
func queryBool(r *http.Request, name string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &v
}

// queryFloat parses an optional float query parameter. Unparseable values are ignored.
func queryFloat(r *http.Request, name string) *float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return nil
	}
	return &v
}

// pageParams reads limit and offset. Missing or invalid values are zero.
func pageParams(r *http.Request) (limit, offset uint64) {
	q := r.URL.Query()
	limit, _ = strconv.ParseUint(q.Get("limit"), 10, 64)
	offset, _ = strconv.ParseUint(q.Get("offset"), 10, 64)
	return limit, offset
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps service errors to status codes. Messages never
// carry tenant ids.
func writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, tenancy.ErrCrossTenantDenied):
		writeError(w, http.StatusForbidden, "access to another tenant's data is not permitted")
	case errors.Is(err, tenancy.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, strings.TrimSuffix(err.Error(), ": "+domain.ErrForbidden.Error()))
	case errors.Is(err, tenancy.ErrTenantRequired):
		writeError(w, http.StatusBadRequest, tenancy.ErrTenantRequired.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, tenancy.ErrEntityNotInTenant):
		writeError(w, http.StatusNotFound, fallbackMsg)
	case errors.Is(err, domain.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, strings.TrimSuffix(err.Error(), ": "+domain.ErrUnauthorized.Error()))
	default:
		writeInternalError(w, err)
	}
}

// writeInternalError logs the actual error server-side and returns a generic message to the client.
func writeInternalError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
