package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
)

const roleNameTakenMessage = "The name has already been taken."

type RoleService struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) *RoleService {
	return &RoleService{roleRepo: roleRepo}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return roles, nil
}

func (s *RoleService) Create(ctx context.Context, name string) (*domain.Role, error) {
	role := &domain.Role{Name: strings.TrimSpace(name)}
	err := s.roleRepo.Create(ctx, role)
	observability.RecordCatalogMutation(ctx, "role", "create", catalogStatus(err))
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, NewValidationError("name", roleNameTakenMessage)
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, id uint, name string) (*domain.Role, error) {
	role, err := s.roleRepo.Rename(ctx, id, strings.TrimSpace(name))
	observability.RecordCatalogMutation(ctx, "role", "update", catalogStatus(err))
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, NewValidationError("name", roleNameTakenMessage)
	case errors.Is(err, repository.ErrRoleNotFound):
		return nil, ErrRoleNotFound
	case err != nil:
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id uint) error {
	err := s.roleRepo.DeleteByID(ctx, id)
	observability.RecordCatalogMutation(ctx, "role", "delete", catalogStatus(err))
	if errors.Is(err, repository.ErrRoleNotFound) {
		return ErrRoleNotFound
	}
	return err
}

func catalogStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, repository.ErrDuplicate):
		return "conflict"
	case errors.Is(err, repository.ErrRoleNotFound), errors.Is(err, repository.ErrSliderNotFound):
		return "not_found"
	default:
		return "error"
	}
}
