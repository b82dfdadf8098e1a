package service

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
)

type LoginResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"-"`
}

type AuthService struct {
	users  *UserService
	tokens *TokenService
}

func NewAuthService(users *UserService, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*LoginResult, error) {
	user, err := s.users.Create(ctx, in)
	if err != nil {
		observability.RecordAuthRegister(ctx, "self", registerStatus(err))
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(ctx, user)
	if err != nil {
		observability.RecordAuthRegister(ctx, "self", "error")
		return nil, err
	}
	observability.RecordAuthRegister(ctx, "self", "success")
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// CreateUser creates an account on behalf of an administrator. No token is issued.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	user, err := s.users.Create(ctx, in)
	observability.RecordAuthRegister(ctx, "admin", registerStatus(err))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	if !ok {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if user.Blocked {
		observability.RecordAuthLogin(ctx, "blocked")
		return nil, ErrAccountBlocked
	}
	token, expiresAt, err := s.tokens.Issue(ctx, user)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, err
	}
	observability.RecordAuthLogin(ctx, "success")
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the token the request was authenticated with.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	err := s.tokens.Revoke(ctx, token)
	switch {
	case err == nil:
		observability.RecordAuthLogout(ctx, "success")
	case errors.Is(err, ErrUnauthenticated):
		observability.RecordAuthLogout(ctx, "invalid")
	default:
		observability.RecordAuthLogout(ctx, "error")
	}
	return err
}

func registerStatus(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "rejected"
	default:
		return "error"
	}
}
