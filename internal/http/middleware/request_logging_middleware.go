package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type requestLogStateKey struct{}

// requestLogState is filled in by inner middleware so the access log line can
// name the authenticated user.
type requestLogState struct {
	userID uint
	role   domain.RoleTier
}

func noteRequestUser(ctx context.Context, u *domain.User) {
	if st, ok := ctx.Value(requestLogStateKey{}).(*requestLogState); ok && u != nil {
		st.userID = u.ID
		st.role = u.Role
	}
}

// StructuredRequestLogger emits one http.request line per request.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		st := &requestLogState{}
		r = r.WithContext(context.WithValue(r.Context(), requestLogStateKey{}, st))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		routePattern := ""
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			routePattern = routeCtx.RoutePattern()
		}

		attrs := []any{
			"method", r.Method,
			"host", r.Host,
			"path", r.URL.Path,
			"route", routePattern,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"client_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if st.userID != 0 {
			attrs = append(attrs, "user_id", st.userID, "user_role", string(st.role))
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.ErrorContext(r.Context(), "http.request", attrs...)
		case status >= http.StatusBadRequest:
			slog.WarnContext(r.Context(), "http.request", attrs...)
		default:
			slog.InfoContext(r.Context(), "http.request", attrs...)
		}
	})
}
