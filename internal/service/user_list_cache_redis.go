package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
)

type RedisUserListCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisUserListCacheStore(client redis.UniversalClient, prefix string) *RedisUserListCacheStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "user_list"
	}
	return &RedisUserListCacheStore{client: client, prefix: prefix}
}

func (s *RedisUserListCacheStore) Get(ctx context.Context, tier domain.RoleTier) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.key(tier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *RedisUserListCacheStore) Set(ctx context.Context, tier domain.RoleTier, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(tier), payload, ttl).Err()
}

func (s *RedisUserListCacheStore) Invalidate(ctx context.Context, tiers ...domain.RoleTier) error {
	if len(tiers) == 0 {
		tiers = allTiers
	}
	keys := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		keys = append(keys, s.key(tier))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisUserListCacheStore) key(tier domain.RoleTier) string {
	return s.prefix + ":" + string(tier)
}
