package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/health"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/handler"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
)

const (
	jsonBodyLimit      = 1 << 20
	multipartOverhead  = 1 << 20
	defaultSliderLimit = 5 << 20
)

type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	UserHandler          *handler.UserHandler
	AdminHandler         *handler.AdminHandler
	RoleHandler          *handler.RoleHandler
	SliderHandler        *handler.SliderHandler
	TokenResolver        middleware.TokenResolver
	TenantResolver       middleware.TenantResolver
	CORSOrigins          []string
	AuthRateLimitRPM     int
	APIRateLimitRPM      int
	APIRateLimiter       RateLimiterFunc
	AuthRateLimiter      RateLimiterFunc
	SliderMaxUploadBytes int64
	Readiness            *health.ProbeRunner
	EnableOTelHTTP       bool
}

type RateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	apiLimiter := dep.APIRateLimiter
	if apiLimiter == nil {
		apiLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	sliderLimit := dep.SliderMaxUploadBytes
	if sliderLimit <= 0 {
		sliderLimit = defaultSliderLimit
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BodyLimit(jsonBodyLimit), authLimiter)
		r.Post("/register", dep.AuthHandler.Register)
		r.Post("/login", dep.AuthHandler.Login)
	})

	// The API limiter sits behind Authenticate so it keys on the user.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(dep.TokenResolver), apiLimiter)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(jsonBodyLimit))
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Get("/user", dep.UserHandler.Me)

			r.With(middleware.RequireTenant(dep.TenantResolver)).Get("/clients", dep.UserHandler.Clients)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTier(domain.RoleAdministrator))
				r.Get("/admins", dep.AdminHandler.ListAdmins)
				r.Post("/CreateUser", dep.AuthHandler.CreateUser)
				r.Put("/admins/update/{id}", dep.AdminHandler.Update)
				r.Put("/admins/block/{id}", dep.AdminHandler.Block)
				r.Put("/admins/unblock/{id}", dep.AdminHandler.Unblock)

				r.Get("/roles", dep.RoleHandler.List)
				r.Post("/roles/create", dep.RoleHandler.Create)
				r.Put("/roles/update/{id}", dep.RoleHandler.Update)
				r.Delete("/roles/delete/{id}", dep.RoleHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(sliderLimit + multipartOverhead))
			r.Get("/sliders/{user_id}", dep.SliderHandler.List)
			r.Post("/sliders/create/{user_id}", dep.SliderHandler.Create)
			r.Put("/sliders/update/{id}", dep.SliderHandler.Update)
			r.Delete("/sliders/delete/{id}", dep.SliderHandler.Delete)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
