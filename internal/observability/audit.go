package observability

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const auditMessage = "audit"

// Audit writes a security-relevant event to the default logger. Trace ids are
// stamped by the context handler; callers pass outcome and target details as
// key/value pairs.
func Audit(r *http.Request, event string, attrs ...any) {
	base := make([]any, 0, 14+len(attrs))
	base = append(base,
		"event", event,
		"method", r.Method,
		"host", strings.ToLower(r.Host),
		"path", r.URL.Path,
		"actor_ip", actorIP(r.RemoteAddr),
		"request_id", requestID(r),
	)
	base = append(base, attrs...)
	slog.Default().Log(r.Context(), slog.LevelInfo, auditMessage, base...)
}

func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(chimiddleware.RequestIDHeader)
}

func actorIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
