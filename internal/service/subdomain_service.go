package service

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
)

// DeriveSubdomain keeps the ASCII letters and digits of name, lower-cases
// them and appends the decimal id. DeriveSubdomain("Jean-Luc!!", 7) is "jeanluc7".
func DeriveSubdomain(name string, id uint) string {
	var b strings.Builder
	b.Grow(len(name) + 20)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	b.WriteString(strconv.FormatUint(uint64(id), 10))
	return b.String()
}

type SubdomainService struct {
	userRepo   repository.UserRepository
	baseDomain string
}

func NewSubdomainService(userRepo repository.UserRepository, baseDomain string) *SubdomainService {
	return &SubdomainService{
		userRepo:   userRepo,
		baseDomain: strings.ToLower(strings.Trim(strings.TrimSpace(baseDomain), ".")),
	}
}

// AssignFunc is handed to the user repository so the subdomain is written in
// the transaction that creates the user.
func (s *SubdomainService) AssignFunc() repository.AssignFunc {
	return func(u *domain.User) (string, bool) {
		if !u.IsClient() || u.Subdomain != nil {
			return "", false
		}
		return DeriveSubdomain(u.Name, u.ID), true
	}
}

// Assign gives a client user its subdomain if it has none yet. Administrators
// and users that already hold a subdomain come back unchanged.
func (s *SubdomainService) Assign(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || !user.IsClient() || user.Subdomain != nil {
		return user, nil
	}
	sub := DeriveSubdomain(user.Name, user.ID)
	err := s.userRepo.SetSubdomain(ctx, user.ID, sub)
	switch {
	case err == nil:
		user.Subdomain = &sub
		return user, nil
	case errors.Is(err, repository.ErrSubdomainPresent):
		return s.userRepo.FindByID(ctx, user.ID)
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, ErrUserNotFound
	default:
		return nil, err
	}
}

// Backfill assigns subdomains to every client that is missing one.
func (s *SubdomainService) Backfill(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListClientsWithoutSubdomain(ctx)
	if err != nil {
		return 0, err
	}
	assigned := 0
	for i := range users {
		if _, err := s.Assign(ctx, &users[i]); err != nil {
			return assigned, err
		}
		assigned++
	}
	return assigned, nil
}

// ResolveTenant returns the tenant label named by host, or ErrNoTenant.
func (s *SubdomainService) ResolveTenant(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", ErrNoTenant
	}

	if s.baseDomain != "" {
		label, ok := strings.CutSuffix(host, "."+s.baseDomain)
		if !ok || label == "" || strings.Contains(label, ".") {
			return "", ErrNoTenant
		}
		return label, nil
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", ErrNoTenant
	}
	for _, l := range labels {
		if l == "" {
			return "", ErrNoTenant
		}
	}
	return labels[0], nil
}
