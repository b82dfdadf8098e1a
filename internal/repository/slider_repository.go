package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type SliderRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.Slider, error)
	FindByID(ctx context.Context, id uint) (*domain.Slider, error)
	Create(ctx context.Context, slider *domain.Slider) error
	Update(ctx context.Context, id uint, updates map[string]any) error
	DeleteByID(ctx context.Context, id uint) error
}

type GormSliderRepository struct{ db *gorm.DB }

func NewSliderRepository(db *gorm.DB) SliderRepository { return &GormSliderRepository{db: db} }

func (r *GormSliderRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Slider, error) {
	var sliders []domain.Slider
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&sliders).Error
	return sliders, translate(ctx, "slider", "list_by_user", err, nil)
}

func (r *GormSliderRepository) FindByID(ctx context.Context, id uint) (*domain.Slider, error) {
	var s domain.Slider
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err = translate(ctx, "slider", "find_by_id", err, ErrSliderNotFound); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSliderRepository) Create(ctx context.Context, slider *domain.Slider) error {
	return translate(ctx, "slider", "create", r.db.WithContext(ctx).Create(slider).Error, nil)
}

func (r *GormSliderRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Slider{}).Where("id = ?", id).Updates(updates)
	if err := translate(ctx, "slider", "update", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrSliderNotFound
	}
	return nil
}

func (r *GormSliderRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Slider{}, id)
	if err := translate(ctx, "slider", "delete", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrSliderNotFound
	}
	return nil
}
