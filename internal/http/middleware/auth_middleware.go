package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

type TokenResolver interface {
	Resolve(ctx context.Context, raw, source string) (*domain.User, error)
}

// Authenticate resolves the token from the token cookie, falling back to an
// Authorization bearer header, and attaches the owner to the request context.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, source := tokenFromRequest(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthenticated.", nil)
				return
			}
			user, err := resolver.Resolve(r.Context(), raw, source)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrAccountBlocked):
				response.Error(w, r, http.StatusForbidden, "ACCOUNT_BLOCKED", "This account is blocked.", nil)
				return
			case errors.Is(err, service.ErrUnauthenticated):
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthenticated.", nil)
				return
			default:
				slog.ErrorContext(r.Context(), "token resolution failed", "error", err)
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
				return
			}

			noteRequestUser(r.Context(), user)
			ctx := WithUser(r.Context(), user, raw)
			ctx = observability.WithLogAttrs(ctx,
				slog.String("user_id", strconv.FormatUint(uint64(user.ID), 10)),
				slog.String("user_role", string(user.Role)),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, string) {
	if raw := security.GetCookie(r, security.TokenCookieName); raw != "" {
		return raw, "cookie"
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:]), "bearer"
	}
	return "", ""
}

// WithUser attaches an authenticated user and the token it presented.
func WithUser(ctx context.Context, user *domain.User, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.User)
	return u, ok && u != nil
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenContextKey).(string)
	return t, ok && t != ""
}

// RequireTier lets through only users of the given tier. It must run after
// Authenticate.
func RequireTier(tier domain.RoleTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthenticated.", nil)
				return
			}
			if u.Role != tier {
				observability.RecordTierGateDecision(r.Context(), string(tier), "denied")
				observability.Audit(r, "authz.tier", "outcome", "denied", "required", string(tier), "user_id", u.ID)
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "This action is unauthorized.", nil)
				return
			}
			observability.RecordTierGateDecision(r.Context(), string(tier), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}
