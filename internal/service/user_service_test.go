package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	repogomock "github.com/sandeepkv93/storefront-admin-api/internal/repository/gomock"
)

func TestUserServiceBlockUnblock(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	u := fx.mustCreateUser(t, "Gil", "gil@example.com", domain.RoleAdministrator)

	if err := fx.users.Block(ctx, u.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	got, _ := fx.users.GetByID(ctx, u.ID)
	if !got.Blocked {
		t.Fatal("expected blocked=true")
	}
	if err := fx.users.Block(ctx, u.ID); err != nil {
		t.Fatalf("block again: %v", err)
	}
	if err := fx.users.Unblock(ctx, u.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	got, _ = fx.users.GetByID(ctx, u.ID)
	if got.Blocked {
		t.Fatal("expected blocked=false")
	}

	if err := fx.users.Block(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := fx.users.Unblock(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserServiceBlockedTokensResumeAfterUnblock(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	u := fx.mustCreateUser(t, "Hal", "hal@example.com", domain.RoleClient)
	raw, _, err := fx.tokens.Issue(ctx, u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := fx.users.Block(ctx, u.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := fx.tokens.Resolve(ctx, raw, "cookie"); !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
	if err := fx.users.Unblock(ctx, u.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := fx.tokens.Resolve(ctx, raw, "cookie"); err != nil {
		t.Fatalf("expected token to resolve after unblock, got %v", err)
	}
}

func TestUserServiceUpdateKeepsSubdomain(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	u := fx.mustCreateUser(t, "Ivy", "ivy@example.com", domain.RoleClient)
	other := fx.mustCreateUser(t, "Jon", "jon@example.com", domain.RoleClient)
	before := u.TenantSubdomain()

	got, err := fx.users.Update(ctx, u.ID, "Ivy Renamed", "IVY2@example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Ivy Renamed" || got.Email != "ivy2@example.com" {
		t.Fatalf("unexpected update result: %+v", got)
	}
	if got.TenantSubdomain() != before {
		t.Fatalf("expected subdomain %q to survive rename, got %q", before, got.TenantSubdomain())
	}

	_, err = fx.users.Update(ctx, u.ID, "Ivy", other.Email)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields["email"]) == 0 {
		t.Fatalf("expected email conflict, got %v", err)
	}

	if _, err := fx.users.Update(ctx, 4242, "Nobody", "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserServiceListByRoleUsesCacheAndInvalidates(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()
	fx.mustCreateUser(t, "Admin A", "a@example.com", domain.RoleAdministrator)
	fx.mustCreateUser(t, "Client B", "b@example.com", domain.RoleClient)

	admins, err := fx.users.ListByRole(ctx, domain.RoleAdministrator)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "a@example.com" {
		t.Fatalf("unexpected admins: %+v", admins)
	}
	if _, ok, _ := fx.cache.Get(ctx, domain.RoleAdministrator); !ok {
		t.Fatal("expected admin list to be cached")
	}

	c := fx.mustCreateUser(t, "Admin C", "c@example.com", domain.RoleAdministrator)
	if _, ok, _ := fx.cache.Get(ctx, domain.RoleAdministrator); ok {
		t.Fatal("expected create to invalidate the cache")
	}
	admins, err = fx.users.ListByRole(ctx, domain.RoleAdministrator)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 2 || admins[1].ID != c.ID {
		t.Fatalf("expected two admins ordered by id, got %+v", admins)
	}

	if err := fx.users.Block(ctx, c.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	admins, _ = fx.users.ListByRole(ctx, domain.RoleAdministrator)
	if !admins[1].Blocked {
		t.Fatal("expected refreshed list to show blocked flag")
	}
}

func TestUserServiceListByRoleCacheHitSkipsRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	repo.EXPECT().ListByRole(gomock.Any(), domain.RoleClient).Return([]domain.User{{ID: 1, Email: "x@example.com", Role: domain.RoleClient}}, nil).Times(1)

	svc := NewUserService(repo, NewSubdomainService(repo, "example.shop"), NewInMemoryUserListCacheStore(), time.Minute)
	for i := 0; i < 3; i++ {
		users, err := svc.ListByRole(context.Background(), domain.RoleClient)
		if err != nil {
			t.Fatalf("list %d: %v", i, err)
		}
		if len(users) != 1 || users[0].ID != 1 {
			t.Fatalf("unexpected users: %+v", users)
		}
	}
}

func TestUserServiceFindByEmailNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repogomock.NewMockUserRepository(ctrl)
	repo.EXPECT().FindByEmail(gomock.Any(), "missing@example.com").Return(nil, repository.ErrUserNotFound)
	svc := NewUserService(repo, NewSubdomainService(repo, ""), nil, 0)

	if _, err := svc.FindByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
