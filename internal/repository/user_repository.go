package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

// AssignFunc is called inside the create transaction once the user id is
// known. Returning ok=false leaves the subdomain unset.
type AssignFunc func(u *domain.User) (subdomain string, ok bool)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User, assign AssignFunc) error
	UpdateProfile(ctx context.Context, id uint, name, email string) (*domain.User, error)
	SetBlocked(ctx context.Context, id uint, blocked bool) error
	SetSubdomain(ctx context.Context, id uint, subdomain string) error
	ListByRole(ctx context.Context, tier domain.RoleTier) ([]domain.User, error)
	ListClientsWithoutSubdomain(ctx context.Context) ([]domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if err = translate(ctx, "user", "find_by_id", err, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err = translate(ctx, "user", "find_by_email", err, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User, assign AssignFunc) error {
	user.Email = normalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if assign == nil {
			return nil
		}
		sub, ok := assign(user)
		if !ok {
			return nil
		}
		if err := tx.Model(user).Update("subdomain", sub).Error; err != nil {
			return err
		}
		user.Subdomain = &sub
		return nil
	})
	return translate(ctx, "user", "create", err, nil)
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, id uint, name, email string) (*domain.User, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"name":  name,
		"email": normalizeEmail(email),
	})
	if err := translate(ctx, "user", "update_profile", res.Error, nil); err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormUserRepository) SetBlocked(ctx context.Context, id uint, blocked bool) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"blocked":    blocked,
		"updated_at": time.Now(),
	})
	if err := translate(ctx, "user", "set_blocked", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetSubdomain writes the subdomain only when none is stored yet.
func (r *GormUserRepository) SetSubdomain(ctx context.Context, id uint, subdomain string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND subdomain IS NULL", id).
		Update("subdomain", subdomain)
	if err := translate(ctx, "user", "set_subdomain", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrSubdomainPresent
}

func (r *GormUserRepository) ListByRole(ctx context.Context, tier domain.RoleTier) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ?", tier).Order("id asc").Find(&users).Error
	return users, translate(ctx, "user", "list_by_role", err, nil)
}

func (r *GormUserRepository) ListClientsWithoutSubdomain(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ? AND subdomain IS NULL", domain.RoleClient).Order("id asc").Find(&users).Error
	return users, translate(ctx, "user", "list_missing_subdomain", err, nil)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
