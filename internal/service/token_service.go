package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
)

const tokenName = "auth_token"

type TokenService struct {
	tokenRepo repository.TokenRepository
	hasher    *security.TokenHasher
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenService(tokenRepo repository.TokenRepository, hasher *security.TokenHasher, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{tokenRepo: tokenRepo, hasher: hasher, ttl: ttl, now: time.Now}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue mints a new opaque token for user. Only its hash is stored.
func (s *TokenService) Issue(ctx context.Context, user *domain.User) (string, time.Time, error) {
	raw, err := security.NewOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now().UTC()
	row := &domain.AccessToken{
		UserID:    user.ID,
		Name:      tokenName,
		TokenHash: s.hasher.Hash(raw),
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokenRepo.Create(ctx, row); err != nil {
		return "", time.Time{}, err
	}
	return raw, row.ExpiresAt, nil
}

// Revoke invalidates exactly the presented token.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrUnauthenticated
	}
	err := s.tokenRepo.RevokeByHash(ctx, s.hasher.Hash(raw), s.now().UTC())
	if errors.Is(err, repository.ErrTokenNotFound) {
		return ErrUnauthenticated
	}
	return err
}

// Resolve maps a presented token to its owner. Unknown, expired and revoked
// tokens give ErrUnauthenticated; a blocked owner gives ErrAccountBlocked.
func (s *TokenService) Resolve(ctx context.Context, raw, source string) (*domain.User, error) {
	if raw == "" {
		observability.RecordAccessTokenValidation(ctx, "missing", source)
		return nil, ErrUnauthenticated
	}
	now := s.now().UTC()
	tok, err := s.tokenRepo.FindValidByHash(ctx, s.hasher.Hash(raw), now)
	if errors.Is(err, repository.ErrTokenNotFound) {
		observability.RecordAccessTokenValidation(ctx, "invalid", source)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "error", source)
		return nil, err
	}
	if tok.User.ID == 0 {
		observability.RecordAccessTokenValidation(ctx, "invalid", source)
		return nil, ErrUnauthenticated
	}
	if tok.User.Blocked {
		observability.RecordAccessTokenValidation(ctx, "blocked", source)
		return nil, ErrAccountBlocked
	}
	if err := s.tokenRepo.TouchLastUsed(ctx, tok.ID, now); err != nil {
		slog.WarnContext(ctx, "access token touch failed", "token_id", tok.ID, "error", err)
	}
	observability.RecordAccessTokenValidation(ctx, "success", source)
	user := tok.User
	return &user, nil
}

// Prune deletes expired and revoked tokens and reports how many went.
func (s *TokenService) Prune(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.PruneInactive(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	observability.RecordTokenPruneRows(ctx, n)
	return n, nil
}
