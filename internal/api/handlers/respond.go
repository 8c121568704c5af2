package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to a status code. Anything unrecognised is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	}

	l := logger.Ctx(r.Context())
	evt := l.Warn()
	if status == http.StatusInternalServerError {
		evt = l.Error()
	}
	evt.Err(err).Str("op", op).Int("status", status).Msg("request failed")

	http.Error(w, msg, status)
}
