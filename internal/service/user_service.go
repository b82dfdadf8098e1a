package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
)

const emailTakenMessage = "The email has already been taken."

type CreateUserInput struct {
	Name     string
	Email    string
	Role     domain.RoleTier
	Password string
}

type UserService struct {
	userRepo   repository.UserRepository
	subdomains *SubdomainService
	cache      UserListCacheStore
	cacheTTL   time.Duration
	loads      singleflight.Group
}

func NewUserService(userRepo repository.UserRepository, subdomains *SubdomainService, cache UserListCacheStore, cacheTTL time.Duration) *UserService {
	if cache == nil {
		cache = NewNoopUserListCacheStore()
	}
	return &UserService{userRepo: userRepo, subdomains: subdomains, cache: cache, cacheTTL: cacheTTL}
}

// Create stores a new user with an argon2id hash. Client users get their
// subdomain in the same transaction.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !in.Role.Valid() {
		return nil, NewValidationError("role", "The selected role is invalid.")
	}
	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, NewValidationError("email", emailTakenMessage)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: in.Role}
	if err := s.userRepo.Create(ctx, user, s.subdomains.AssignFunc()); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("email", emailTakenMessage)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	return u, mapUserErr(err)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	return u, mapUserErr(err)
}

// Update changes name and email. The subdomain is never recomputed.
func (s *UserService) Update(ctx context.Context, id uint, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing.ID != id {
		return nil, NewValidationError("email", emailTakenMessage)
	} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	u, err := s.userRepo.UpdateProfile(ctx, id, name, email)
	if errors.Is(err, repository.ErrDuplicate) {
		observability.RecordAdminUserMutation(ctx, "update", "conflict")
		return nil, NewValidationError("email", emailTakenMessage)
	}
	if err = mapUserErr(err); err != nil {
		observability.RecordAdminUserMutation(ctx, "update", mutationStatus(err))
		return nil, err
	}
	observability.RecordAdminUserMutation(ctx, "update", "success")
	s.invalidate(ctx)
	return u, nil
}

func (s *UserService) Block(ctx context.Context, id uint) error {
	return s.setBlocked(ctx, id, true, "block")
}

func (s *UserService) Unblock(ctx context.Context, id uint) error {
	return s.setBlocked(ctx, id, false, "unblock")
}

func (s *UserService) setBlocked(ctx context.Context, id uint, blocked bool, action string) error {
	if err := mapUserErr(s.userRepo.SetBlocked(ctx, id, blocked)); err != nil {
		observability.RecordAdminUserMutation(ctx, action, mutationStatus(err))
		return err
	}
	observability.RecordAdminUserMutation(ctx, action, "success")
	s.invalidate(ctx)
	return nil
}

// ListByRole returns every user of tier ordered by id. Results are cached per
// tier and concurrent misses share one query.
func (s *UserService) ListByRole(ctx context.Context, tier domain.RoleTier) ([]domain.User, error) {
	if payload, ok, err := s.cache.Get(ctx, tier); err != nil {
		observability.RecordUserListCacheEvent(ctx, string(tier), "error")
		slog.WarnContext(ctx, "user list cache read failed", "tier", tier, "error", err)
	} else if ok {
		var users []domain.User
		if err := json.Unmarshal(payload, &users); err == nil {
			observability.RecordUserListCacheEvent(ctx, string(tier), "hit")
			return users, nil
		}
		observability.RecordUserListCacheEvent(ctx, string(tier), "decode_error")
	} else {
		observability.RecordUserListCacheEvent(ctx, string(tier), "miss")
	}

	v, err, shared := s.loads.Do(string(tier), func() (any, error) {
		users, err := s.userRepo.ListByRole(ctx, tier)
		if err != nil {
			return nil, err
		}
		if users == nil {
			users = []domain.User{}
		}
		if payload, err := json.Marshal(users); err == nil {
			if err := s.cache.Set(ctx, tier, payload, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "user list cache write failed", "tier", tier, "error", err)
			}
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		observability.RecordUserListCacheEvent(ctx, string(tier), "coalesced")
	}
	users := v.([]domain.User)
	out := make([]domain.User, len(users))
	copy(out, users)
	return out, nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "user list cache invalidation failed", "error", err)
	}
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func mutationStatus(err error) string {
	if errors.Is(err, ErrUserNotFound) {
		return "not_found"
	}
	return "error"
}
