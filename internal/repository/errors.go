package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrTokenNotFound    = errors.New("access token not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrSliderNotFound   = errors.New("slider not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrSubdomainPresent = errors.New("subdomain already assigned")
)

// translate maps driver errors onto repository sentinels and records the
// outcome of the operation.
func translate(ctx context.Context, repo, op string, err error, notFound error) error {
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, repo, op, "success")
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		observability.RecordRepositoryOperation(ctx, repo, op, "not_found")
		if notFound != nil {
			return notFound
		}
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		observability.RecordRepositoryOperation(ctx, repo, op, "duplicate")
		return ErrDuplicate
	default:
		observability.RecordRepositoryOperation(ctx, repo, op, "error")
		return err
	}
}
