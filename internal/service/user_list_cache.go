package service

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

// UserListCacheStore holds the serialized user list of each role tier.
type UserListCacheStore interface {
	Get(ctx context.Context, tier domain.RoleTier) ([]byte, bool, error)
	Set(ctx context.Context, tier domain.RoleTier, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, tiers ...domain.RoleTier) error
}

var allTiers = []domain.RoleTier{domain.RoleAdministrator, domain.RoleClient}

type NoopUserListCacheStore struct{}

func NewNoopUserListCacheStore() *NoopUserListCacheStore {
	return &NoopUserListCacheStore{}
}

func (s *NoopUserListCacheStore) Get(context.Context, domain.RoleTier) ([]byte, bool, error) {
	return nil, false, nil
}

func (s *NoopUserListCacheStore) Set(context.Context, domain.RoleTier, []byte, time.Duration) error {
	return nil
}

func (s *NoopUserListCacheStore) Invalidate(context.Context, ...domain.RoleTier) error {
	return nil
}

type userListCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type InMemoryUserListCacheStore struct {
	mu      sync.RWMutex
	entries map[domain.RoleTier]userListCacheEntry
	now     func() time.Time
}

func NewInMemoryUserListCacheStore() *InMemoryUserListCacheStore {
	return &InMemoryUserListCacheStore{
		entries: make(map[domain.RoleTier]userListCacheEntry),
		now:     time.Now,
	}
}

func (s *InMemoryUserListCacheStore) Get(_ context.Context, tier domain.RoleTier) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[tier]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[tier]; ok && !s.now().Before(cur.expiresAt) {
			delete(s.entries, tier)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(entry.payload))
	copy(out, entry.payload)
	return out, true, nil
}

func (s *InMemoryUserListCacheStore) Set(_ context.Context, tier domain.RoleTier, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.mu.Lock()
	s.entries[tier] = userListCacheEntry{payload: buf, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Invalidate drops the given tiers, or every tier when none is named.
func (s *InMemoryUserListCacheStore) Invalidate(_ context.Context, tiers ...domain.RoleTier) error {
	if len(tiers) == 0 {
		tiers = allTiers
	}
	s.mu.Lock()
	for _, tier := range tiers {
		delete(s.entries, tier)
	}
	s.mu.Unlock()
	return nil
}
