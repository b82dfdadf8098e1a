package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	FindByID(ctx context.Context, id uint) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Rename(ctx context.Context, id uint, name string) (*domain.Role, error)
	DeleteByID(ctx context.Context, id uint) error
}

type GormRoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository { return &GormRoleRepository{db: db} }

func (r *GormRoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).Order("id asc").Find(&roles).Error
	return roles, translate(ctx, "role", "list", err, nil)
}

func (r *GormRoleRepository) FindByID(ctx context.Context, id uint) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).First(&role, id).Error
	if err = translate(ctx, "role", "find_by_id", err, ErrRoleNotFound); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	return translate(ctx, "role", "create", r.db.WithContext(ctx).Create(role).Error, nil)
}

func (r *GormRoleRepository) Rename(ctx context.Context, id uint, name string) (*domain.Role, error) {
	res := r.db.WithContext(ctx).Model(&domain.Role{}).Where("id = ?", id).Update("name", name)
	if err := translate(ctx, "role", "rename", res.Error, nil); err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrRoleNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormRoleRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Role{}, id)
	if err := translate(ctx, "role", "delete", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}
