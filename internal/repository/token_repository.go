package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type TokenRepository interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	FindValidByHash(ctx context.Context, hash string, now time.Time) (*domain.AccessToken, error)
	RevokeByHash(ctx context.Context, hash string, now time.Time) error
	TouchLastUsed(ctx context.Context, id uint, now time.Time) error
	PruneInactive(ctx context.Context, now time.Time) (int64, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(ctx context.Context, token *domain.AccessToken) error {
	return translate(ctx, "access_token", "create", r.db.WithContext(ctx).Create(token).Error, nil)
}

// FindValidByHash returns the unrevoked, unexpired token with its owner loaded.
func (r *GormTokenRepository) FindValidByHash(ctx context.Context, hash string, now time.Time) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.WithContext(ctx).Preload("User").
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, now).
		First(&t).Error
	if err = translate(ctx, "access_token", "find_valid", err, ErrTokenNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTokenRepository) RevokeByHash(ctx context.Context, hash string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.AccessToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", now)
	if err := translate(ctx, "access_token", "revoke", res.Error, nil); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *GormTokenRepository) TouchLastUsed(ctx context.Context, id uint, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.AccessToken{}).Where("id = ?", id).Update("last_used_at", now).Error
	return translate(ctx, "access_token", "touch", err, nil)
}

// PruneInactive deletes expired and revoked tokens.
func (r *GormTokenRepository) PruneInactive(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ? OR revoked_at IS NOT NULL", now).Delete(&domain.AccessToken{})
	return res.RowsAffected, translate(ctx, "access_token", "prune", res.Error, nil)
}
