package handler

import (
	"net/http"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/response"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	cookieMgr *security.CookieManager
	tokenTTL  time.Duration
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr, tokenTTL: tokenTTL}
}

type createUserRequest struct {
	Name                 string          `json:"name" validate:"required,max=255"`
	Email                string          `json:"email" validate:"required,email,max=255"`
	Role                 domain.RoleCode `json:"role" validate:"required,rolecode"`
	Password             string          `json:"password" validate:"required,min=6,max=255,eqfield=PasswordConfirmation"`
	PasswordConfirmation string          `json:"password_confirmation" validate:"required"`
}

func (req createUserRequest) input() service.CreateUserInput {
	tier, _ := req.Role.Tier()
	return service.CreateUserInput{Name: req.Name, Email: req.Email, Role: tier, Password: req.Password}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		status = "invalid"
		return
	}
	result, err := h.authSvc.Register(r.Context(), req.input())
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.register.failed", "reason", failureReason(err))
		writeServiceError(w, r, err)
		return
	}
	h.cookieMgr.SetTokenCookie(w, result.Token, h.tokenTTL)
	observability.Audit(r, "auth.register.success", "user_id", result.User.ID, "role", result.User.Role)
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		status = "invalid"
		return
	}
	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.login.failed", "reason", failureReason(err))
		writeServiceError(w, r, err)
		return
	}
	h.cookieMgr.SetTokenCookie(w, result.Token, h.tokenTTL)
	observability.Audit(r, "auth.login.success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "logout", status, time.Since(start))
	}()

	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		status = "failure"
		observability.Audit(r, "auth.logout.failed", "reason", "missing_auth_context")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	if err := h.authSvc.Logout(r.Context(), token); err != nil {
		status = "failure"
		observability.Audit(r, "auth.logout.failed", "reason", "revoke_error")
		writeServiceError(w, r, err)
		return
	}
	h.cookieMgr.ClearTokenCookie(w)
	observability.Audit(r, "auth.logout.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Logged out successfully!"})
}

// CreateUser lets an administrator add an account of either tier. The caller
// stays signed in as themselves.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.authSvc.CreateUser(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.user.created", "target_user_id", user.ID, "role", user.Role)
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": user})
}
