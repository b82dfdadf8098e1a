package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/health"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/handler"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

type routerFixture struct {
	handler http.Handler
	users   *service.UserService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.AccessToken{}, &domain.Role{}, &domain.Slider{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	subdomains := service.NewSubdomainService(userRepo, "example.shop")
	users := service.NewUserService(userRepo, subdomains, service.NewInMemoryUserListCacheStore(), time.Minute)
	tokens := service.NewTokenService(repository.NewTokenRepository(db), security.NewTokenHasher("router-test-pepper-0123"), 24*time.Hour)
	auth := service.NewAuthService(users, tokens)
	roles := service.NewRoleService(repository.NewRoleRepository(db))
	sliders := service.NewSliderService(repository.NewSliderRepository(db), userRepo, service.NewDisabledStorageService())

	h := NewRouter(Dependencies{
		AuthHandler:    handler.NewAuthHandler(auth, security.NewCookieManager(".example.shop", true, "none"), tokens.TTL()),
		UserHandler:    handler.NewUserHandler(users),
		AdminHandler:   handler.NewAdminHandler(users),
		RoleHandler:    handler.NewRoleHandler(roles),
		SliderHandler:  handler.NewSliderHandler(sliders),
		TokenResolver:  tokens,
		TenantResolver: subdomains,
		Readiness:      health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	})
	return &routerFixture{handler: h, users: users}
}

func (fx *routerFixture) do(t *testing.T, method, host, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Host = host
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: security.TokenCookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)
	return rr
}

func (fx *routerFixture) login(t *testing.T, email string) string {
	t.Helper()
	rr := fx.do(t, http.MethodPost, "example.shop", "/login", "", fmt.Sprintf(`{"email":%q,"password":"Secret#Pass1"}`, email))
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rr.Code, rr.Body.String())
	}
	return cookieFrom(t, rr).Value
}

func cookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.TokenCookieName {
			return c
		}
	}
	t.Fatalf("no token cookie in %v", rr.Header())
	return nil
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return env.Error.Code
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	if code != "" {
		if got := errorCode(t, rr); got != code {
			t.Fatalf("expected code %s, got %s", code, got)
		}
	}
}

func TestRegisterThenTenantGate(t *testing.T) {
	fx := newRouterFixture(t)

	rr := fx.do(t, http.MethodPost, "example.shop", "/register", "",
		`{"name":"Alice","email":"alice@example.com","role":"2","password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`)
	expectStatus(t, rr, http.StatusOK, "")
	c := cookieFrom(t, rr)
	if c.MaxAge != 86400 || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode || strings.TrimPrefix(c.Domain, ".") != "example.shop" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	var body struct {
		Data struct {
			User domain.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if body.Data.User.Subdomain == nil || *body.Data.User.Subdomain != "alice1" {
		t.Fatalf("expected subdomain alice1, got %+v", body.Data.User)
	}
	token := c.Value

	expectStatus(t, fx.do(t, http.MethodGet, "alice1.example.shop", "/clients", token, ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodGet, "ALICE1.example.shop:443", "/clients", token, ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodGet, "other.example.shop", "/clients", token, ""), http.StatusForbidden, "TENANT_MISMATCH")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/clients", token, ""), http.StatusForbidden, "NO_TENANT")
	expectStatus(t, fx.do(t, http.MethodGet, "alice1.example.shop", "/clients", "", ""), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAdministratorRoutes(t *testing.T) {
	fx := newRouterFixture(t)
	ctx := context.Background()
	admin, err := fx.users.Create(ctx, service.CreateUserInput{Name: "Root", Email: "root@example.com", Role: domain.RoleAdministrator, Password: "Secret#Pass1"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	client, err := fx.users.Create(ctx, service.CreateUserInput{Name: "Bob", Email: "bob@example.com", Role: domain.RoleClient, Password: "Secret#Pass1"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	adminTok := fx.login(t, "root@example.com")
	clientTok := fx.login(t, "bob@example.com")

	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/admins", clientTok, ""), http.StatusForbidden, "FORBIDDEN")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/admins", adminTok, ""), http.StatusOK, "")

	expectStatus(t, fx.do(t, http.MethodPut, "example.shop", "/admins/block/9999", adminTok, ""), http.StatusNotFound, "NOT_FOUND")
	expectStatus(t, fx.do(t, http.MethodPut, "example.shop", "/admins/unblock/9999", adminTok, ""), http.StatusNotFound, "NOT_FOUND")

	blockPath := fmt.Sprintf("/admins/block/%d", client.ID)
	expectStatus(t, fx.do(t, http.MethodPut, "example.shop", blockPath, adminTok, ""), http.StatusNoContent, "")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/user", clientTok, ""), http.StatusForbidden, "ACCOUNT_BLOCKED")
	rr := fx.do(t, http.MethodPost, "example.shop", "/login", "", `{"email":"bob@example.com","password":"Secret#Pass1"}`)
	expectStatus(t, rr, http.StatusForbidden, "ACCOUNT_BLOCKED")

	unblockPath := fmt.Sprintf("/admins/unblock/%d", client.ID)
	expectStatus(t, fx.do(t, http.MethodPut, "example.shop", unblockPath, adminTok, ""), http.StatusNoContent, "")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/user", clientTok, ""), http.StatusOK, "")

	expectStatus(t, fx.do(t, http.MethodPost, "example.shop", "/CreateUser", adminTok,
		`{"name":"Carol","email":"carol@example.com","role":2,"password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`), http.StatusCreated, "")
	expectStatus(t, fx.do(t, http.MethodPost, "example.shop", "/CreateUser", adminTok,
		`{"name":"Carol","email":"carol@example.com","role":2,"password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`), http.StatusUnprocessableEntity, "VALIDATION_FAILED")

	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", fmt.Sprintf("/sliders/%d", admin.ID), clientTok, ""), http.StatusForbidden, "FORBIDDEN")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", fmt.Sprintf("/sliders/%d", client.ID), clientTok, ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", fmt.Sprintf("/sliders/%d", client.ID), adminTok, ""), http.StatusOK, "")

	expectStatus(t, fx.do(t, http.MethodPost, "example.shop", "/roles/create", adminTok, `{"name":"editor"}`), http.StatusCreated, "")
	expectStatus(t, fx.do(t, http.MethodDelete, "example.shop", "/roles/delete/9999", adminTok, ""), http.StatusNotFound, "NOT_FOUND")
}

func TestLoginFailureAndLogout(t *testing.T) {
	fx := newRouterFixture(t)
	if _, err := fx.users.Create(context.Background(), service.CreateUserInput{Name: "Dana", Email: "dana@example.com", Role: domain.RoleClient, Password: "Secret#Pass1"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	rr := fx.do(t, http.MethodPost, "example.shop", "/login", "", `{"email":"dana@example.com","password":"wrong-pass"}`)
	expectStatus(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a cookie")
	}

	tok := fx.login(t, "dana@example.com")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/user", tok, ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodPost, "example.shop", "/logout", tok, ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/user", tok, ""), http.StatusUnauthorized, "UNAUTHORIZED")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/user", "", ""), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestHealthEndpoints(t *testing.T) {
	fx := newRouterFixture(t)
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/health/live", "", ""), http.StatusOK, "")
	expectStatus(t, fx.do(t, http.MethodGet, "example.shop", "/health/ready", "", ""), http.StatusOK, "")
}

func TestAuthRateLimit(t *testing.T) {
	h := NewRouter(Dependencies{
		AuthHandler:      handler.NewAuthHandler(nil, security.NewCookieManager("", false, "lax"), time.Hour),
		AuthRateLimitRPM: 1,
	})
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:5000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}
	expectStatus(t, send(), http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	rr := send()
	expectStatus(t, rr, http.StatusTooManyRequests, "RATE_LIMITED")
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRegisterDerivesSubdomainFromName(t *testing.T) {
	fx := newRouterFixture(t)
	rr := fx.do(t, http.MethodPost, "example.shop", "/register", "",
		`{"name":"Jean-Luc!!","email":"a@b.com","role":"2","password":"secret1","password_confirmation":"secret1"}`)
	expectStatus(t, rr, http.StatusOK, "")
	cookieFrom(t, rr)

	var env struct {
		Data struct {
			User struct {
				ID        uint    `json:"id"`
				Subdomain *string `json:"subdomain"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := fmt.Sprintf("jeanluc%d", env.Data.User.ID)
	if env.Data.User.Subdomain == nil || *env.Data.User.Subdomain != want {
		t.Fatalf("expected subdomain %s, got %v", want, env.Data.User.Subdomain)
	}
}
