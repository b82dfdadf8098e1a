package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("client gets subdomain and a resolvable token", func(t *testing.T) {
		fx := newServiceFixture(t)
		res, err := fx.auth.Register(ctx, CreateUserInput{Name: "Alice", Email: " Alice@Example.com ", Role: domain.RoleClient, Password: "Secret#Pass1"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if res.Token == "" {
			t.Fatal("expected token on registration")
		}
		if res.User.Email != "alice@example.com" {
			t.Fatalf("expected normalized email, got %q", res.User.Email)
		}
		if want := DeriveSubdomain("Alice", res.User.ID); res.User.TenantSubdomain() != want {
			t.Fatalf("expected subdomain %q, got %q", want, res.User.TenantSubdomain())
		}
		u, err := fx.tokens.Resolve(ctx, res.Token, "cookie")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if u.ID != res.User.ID {
			t.Fatalf("token resolved to user %d, want %d", u.ID, res.User.ID)
		}
	})

	t.Run("administrator gets no subdomain", func(t *testing.T) {
		fx := newServiceFixture(t)
		res, err := fx.auth.Register(ctx, CreateUserInput{Name: "Root", Email: "root@example.com", Role: domain.RoleAdministrator, Password: "Secret#Pass1"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if res.User.Subdomain != nil {
			t.Fatalf("expected no subdomain, got %q", *res.User.Subdomain)
		}
	})

	t.Run("duplicate email is a field error", func(t *testing.T) {
		fx := newServiceFixture(t)
		fx.mustCreateUser(t, "Dupe", "dupe@example.com", domain.RoleClient)
		_, err := fx.auth.Register(ctx, CreateUserInput{Name: "Other", Email: "DUPE@example.com", Role: domain.RoleClient, Password: "Secret#Pass1"})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(verr.Fields["email"]) != 1 {
			t.Fatalf("expected email field error, got %v", verr.Fields)
		}
	})

	t.Run("invalid role is a field error", func(t *testing.T) {
		fx := newServiceFixture(t)
		_, err := fx.auth.Register(ctx, CreateUserInput{Name: "X", Email: "x@example.com", Role: "owner", Password: "Secret#Pass1"})
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields["role"]) == 0 {
			t.Fatalf("expected role field error, got %v", err)
		}
	})
}

func TestAuthServiceCreateUserIssuesNoToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	u, err := fx.auth.CreateUser(ctx, CreateUserInput{Name: "Bob", Email: "bob@example.com", Role: domain.RoleClient, Password: "Secret#Pass1"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	var count int64
	if err := fx.db.Model(&domain.AccessToken{}).Where("user_id = ?", u.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no tokens, got %d", count)
	}
}

func TestAuthServiceLoginMatrix(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fx := newServiceFixture(t)
		u := fx.mustCreateUser(t, "Carol", "carol@example.com", domain.RoleClient)
		res, err := fx.auth.Login(ctx, "carol@example.com", "Secret#Pass1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		got, err := fx.tokens.Resolve(ctx, res.Token, "cookie")
		if err != nil || got.ID != u.ID {
			t.Fatalf("expected token for user %d, got %v, %v", u.ID, got, err)
		}
	})

	t.Run("wrong password creates no token", func(t *testing.T) {
		fx := newServiceFixture(t)
		fx.mustCreateUser(t, "Dan", "dan@example.com", domain.RoleClient)
		if _, err := fx.auth.Login(ctx, "dan@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		var count int64
		fx.db.Model(&domain.AccessToken{}).Count(&count)
		if count != 0 {
			t.Fatalf("expected no token rows, got %d", count)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		fx := newServiceFixture(t)
		if _, err := fx.auth.Login(ctx, "ghost@example.com", "Secret#Pass1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("blocked account", func(t *testing.T) {
		fx := newServiceFixture(t)
		u := fx.mustCreateUser(t, "Eve", "eve@example.com", domain.RoleAdministrator)
		if err := fx.users.Block(ctx, u.ID); err != nil {
			t.Fatalf("block: %v", err)
		}
		if _, err := fx.auth.Login(ctx, "eve@example.com", "Secret#Pass1"); !errors.Is(err, ErrAccountBlocked) {
			t.Fatalf("expected ErrAccountBlocked, got %v", err)
		}
	})
}

func TestAuthServiceLogoutRevokesOnlyPresentedToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.mustCreateUser(t, "Fay", "fay@example.com", domain.RoleClient)

	a, err := fx.auth.Login(ctx, "fay@example.com", "Secret#Pass1")
	if err != nil {
		t.Fatalf("login a: %v", err)
	}
	b, err := fx.auth.Login(ctx, "fay@example.com", "Secret#Pass1")
	if err != nil {
		t.Fatalf("login b: %v", err)
	}
	if err := fx.auth.Logout(ctx, a.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := fx.tokens.Resolve(ctx, a.Token, "cookie"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected logged out token to fail, got %v", err)
	}
	if _, err := fx.tokens.Resolve(ctx, b.Token, "cookie"); err != nil {
		t.Fatalf("expected second session to survive logout, got %v", err)
	}
}
