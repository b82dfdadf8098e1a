package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
	svcmock "github.com/sandeepkv93/storefront-admin-api/internal/service/gomock"
)

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields map[string][]string `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) testEnvelope {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("expected error code %s, got %s", code, rr.Body.String())
	}
	return env
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withActor(req *http.Request, u *domain.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), u, "tok-"+u.Name))
}

func tokenCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.TokenCookieName {
			return c
		}
	}
	t.Fatalf("expected %q cookie, headers=%v", security.TokenCookieName, rr.Header())
	return nil
}

func newAuthHandlerForTest(t *testing.T) (*AuthHandler, *svcmock.MockAuthServiceInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := svcmock.NewMockAuthServiceInterface(ctrl)
	return NewAuthHandler(svc, security.NewCookieManager(".example.shop", true, "none"), 24*time.Hour), svc
}

const validRegisterBody = `{"name":"Alice","email":"alice@example.com","role":"2","password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`

func TestRegisterSetsTokenCookie(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	sub := "alice1"
	svc.EXPECT().
		Register(gomock.Any(), service.CreateUserInput{Name: "Alice", Email: "alice@example.com", Role: domain.RoleClient, Password: "Secret#Pass1"}).
		Return(&service.LoginResult{User: &domain.User{ID: 1, Name: "Alice", Role: domain.RoleClient, Subdomain: &sub}, Token: "opaque"}, nil)

	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/register", validRegisterBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	c := tokenCookie(t, rr)
	if c.Value != "opaque" || c.MaxAge != 86400 || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if strings.TrimPrefix(c.Domain, ".") != "example.shop" || !c.Secure || !c.HttpOnly || c.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
	var data struct {
		User domain.User `json:"user"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rr).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.User.Subdomain == nil || *data.User.Subdomain != "alice1" {
		t.Fatalf("expected subdomain in body, got %+v", data.User)
	}
	if strings.Contains(rr.Body.String(), "opaque") {
		t.Fatal("token must only travel in the cookie")
	}
}

func TestRegisterValidationFields(t *testing.T) {
	h, _ := newAuthHandlerForTest(t)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"email":"a@b.co","role":"1","password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`, "name"},
		{"bad email", `{"name":"A","email":"nope","role":"1","password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`, "email"},
		{"unknown role", `{"name":"A","email":"a@b.co","role":"9","password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`, "role"},
		{"short password", `{"name":"A","email":"a@b.co","role":1,"password":"short","password_confirmation":"short"}`, "password"},
		{"confirmation mismatch", `{"name":"A","email":"a@b.co","role":"client","password":"Secret#Pass1","password_confirmation":"other"}`, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Register(rr, jsonRequest(http.MethodPost, "/register", tc.body))
			env := expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_FAILED")
			if len(env.Error.Details.Fields[tc.field]) == 0 {
				t.Fatalf("expected message for %s, got %v", tc.field, env.Error.Details.Fields)
			}
			if len(rr.Result().Cookies()) != 0 {
				t.Fatal("no cookie expected on validation failure")
			}
		})
	}
}

func TestRegisterDuplicateEmailIs422(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	svc.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(nil, service.NewValidationError("email", "The email has already been taken."))

	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/register", validRegisterBody))
	env := expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	if got := env.Error.Details.Fields["email"]; len(got) != 1 || got[0] != "The email has already been taken." {
		t.Fatalf("unexpected email messages %v", got)
	}
}

func TestRegisterMalformedJSON(t *testing.T) {
	h, _ := newAuthHandlerForTest(t)
	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/register", `{"name":`))
	expectError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
}

func TestLoginFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"wrong password", service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"blocked", service.ErrAccountBlocked, http.StatusForbidden, "ACCOUNT_BLOCKED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, svc := newAuthHandlerForTest(t)
			svc.EXPECT().Login(gomock.Any(), "alice@example.com", "bad-pass").Return(nil, tc.err)

			rr := httptest.NewRecorder()
			h.Login(rr, jsonRequest(http.MethodPost, "/login", `{"email":"alice@example.com","password":"bad-pass"}`))
			expectError(t, rr, tc.status, tc.code)
			if len(rr.Result().Cookies()) != 0 {
				t.Fatal("no cookie expected on failed login")
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	svc.EXPECT().Login(gomock.Any(), "alice@example.com", "Secret#Pass1").
		Return(&service.LoginResult{User: &domain.User{ID: 3}, Token: "fresh"}, nil)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonRequest(http.MethodPost, "/login", `{"email":"alice@example.com","password":"Secret#Pass1"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if c := tokenCookie(t, rr); c.Value != "fresh" {
		t.Fatalf("unexpected cookie value %q", c.Value)
	}
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	svc.EXPECT().Logout(gomock.Any(), "tok-alice").Return(nil)

	req := withActor(httptest.NewRequest(http.MethodPost, "/logout", nil), &domain.User{ID: 1, Name: "alice"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if c := tokenCookie(t, rr); c.MaxAge >= 0 || c.Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", c)
	}
}

func TestLogoutWithoutAuthContext(t *testing.T) {
	h, _ := newAuthHandlerForTest(t)
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))
	expectError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestCreateUserIssuesNoCookie(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	svc.EXPECT().
		CreateUser(gomock.Any(), service.CreateUserInput{Name: "Root", Email: "root@example.com", Role: domain.RoleAdministrator, Password: "Secret#Pass1"}).
		Return(&domain.User{ID: 9, Role: domain.RoleAdministrator}, nil)

	body := `{"name":"Root","email":"root@example.com","role":1,"password":"Secret#Pass1","password_confirmation":"Secret#Pass1"}`
	rr := httptest.NewRecorder()
	h.CreateUser(rr, jsonRequest(http.MethodPost, "/CreateUser", body))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("creating a user on behalf of someone must not set a cookie")
	}
}

func TestRegisterAcceptsSixCharacterPassword(t *testing.T) {
	h, svc := newAuthHandlerForTest(t)
	sub := "jeanluc7"
	svc.EXPECT().
		Register(gomock.Any(), service.CreateUserInput{Name: "Jean-Luc!!", Email: "a@b.com", Role: domain.RoleClient, Password: "secret1"}).
		Return(&service.LoginResult{User: &domain.User{ID: 7, Name: "Jean-Luc!!", Role: domain.RoleClient, Subdomain: &sub}, Token: "opaque"}, nil)

	rr := httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/register", `{"name":"Jean-Luc!!","email":"a@b.com","role":"2","password":"secret1","password_confirmation":"secret1"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Register(rr, jsonRequest(http.MethodPost, "/register", `{"name":"A","email":"a@b.com","role":"2","password":"five5","password_confirmation":"five5"}`))
	env := expectError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_FAILED")
	if got := env.Error.Details.Fields["password"]; len(got) == 0 || got[0] != "The password must be at least 6 characters." {
		t.Fatalf("unexpected password messages %v", got)
	}
}

func TestFailedAuthAuditLogsReasonNotEmail(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	cases := []struct {
		err    error
		reason string
	}{
		{service.ErrInvalidCredentials, "invalid_credentials"},
		{service.ErrAccountBlocked, "blocked"},
		{service.NewValidationError("email", "taken"), "validation"},
	}
	for _, tc := range cases {
		buf.Reset()
		h, svc := newAuthHandlerForTest(t)
		svc.EXPECT().Login(gomock.Any(), "alice@example.com", "bad-pass").Return(nil, tc.err)

		h.Login(httptest.NewRecorder(), jsonRequest(http.MethodPost, "/login", `{"email":"alice@example.com","password":"bad-pass"}`))
		if strings.Contains(buf.String(), "alice@example.com") {
			t.Fatalf("audit leaked the submitted email: %s", buf.String())
		}
		if !strings.Contains(buf.String(), `"reason":"`+tc.reason+`"`) {
			t.Fatalf("expected reason %s in %s", tc.reason, buf.String())
		}
	}
}
