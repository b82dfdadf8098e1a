package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

// writeServiceError renders a service error as the matching envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ValidationError(w, r, ve.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Email or password is incorrect!", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthenticated", nil)
	case errors.Is(err, service.ErrAccountBlocked):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_BLOCKED", "account is blocked", nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, service.ErrRoleNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "role not found", nil)
	case errors.Is(err, service.ErrSliderNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "slider not found", nil)
	case errors.Is(err, service.ErrStorageDisabled):
		response.Error(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "image storage is not configured", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

// failureReason is the audit-safe code for a failed auth attempt.
func failureReason(err error) string {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, service.ErrAccountBlocked):
		return "blocked"
	default:
		return "internal"
	}
}

// pathID parses the named chi URL parameter. An unparseable id cannot name a
// record, so callers answer 404.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
