package middleware

import (
	"errors"
	"net/http"

	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type TenantResolver interface {
	ResolveTenant(host string) (string, error)
}

// RequireTenant admits a request only when the leftmost label of its Host is
// the authenticated user's subdomain. It must run after Authenticate.
func RequireTenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthenticated.", nil)
				return
			}
			label, err := resolver.ResolveTenant(r.Host)
			if errors.Is(err, service.ErrNoTenant) || (err == nil && label == "") {
				observability.RecordTenantGateDecision(r.Context(), "no_tenant")
				response.Error(w, r, http.StatusForbidden, "NO_TENANT", "No tenant could be resolved from the host.", nil)
				return
			}
			if err != nil {
				observability.RecordTenantGateDecision(r.Context(), "error")
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
				return
			}
			if u.Subdomain == nil || *u.Subdomain != label {
				observability.RecordTenantGateDecision(r.Context(), "mismatch")
				observability.Audit(r, "tenant.gate", "outcome", "mismatch", "tenant", label, "user_id", u.ID)
				response.Error(w, r, http.StatusForbidden, "TENANT_MISMATCH", "This subdomain does not belong to you.", nil)
				return
			}
			observability.RecordTenantGateDecision(r.Context(), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}
