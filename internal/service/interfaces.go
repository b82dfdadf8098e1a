package service

import (
	"context"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in CreateUserInput) (*LoginResult, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	Update(ctx context.Context, id uint, name, email string) (*domain.User, error)
	Block(ctx context.Context, id uint) error
	Unblock(ctx context.Context, id uint) error
	ListByRole(ctx context.Context, tier domain.RoleTier) ([]domain.User, error)
}

type RoleServiceInterface interface {
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, name string) (*domain.Role, error)
	Update(ctx context.Context, id uint, name string) (*domain.Role, error)
	Delete(ctx context.Context, id uint) error
}

type SliderServiceInterface interface {
	List(ctx context.Context, actor *domain.User, ownerID uint) ([]SliderView, *domain.User, error)
	Create(ctx context.Context, actor *domain.User, ownerID uint, in SliderInput) (*SliderView, error)
	Update(ctx context.Context, actor *domain.User, id uint, in SliderInput) error
	Delete(ctx context.Context, actor *domain.User, id uint) error
}

var (
	_ AuthServiceInterface   = (*AuthService)(nil)
	_ UserServiceInterface   = (*UserService)(nil)
	_ RoleServiceInterface   = (*RoleService)(nil)
	_ SliderServiceInterface = (*SliderService)(nil)
	_ ImageStorage           = (*MinIOStorageService)(nil)
	_ ImageStorage           = DisabledStorageService{}
)
