package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		return res.fail(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return res.fail(err)
	}
	return res
}

type RedisChecker struct {
	name   string
	client redis.UniversalClient
}

// NewRedisChecker returns nil for a nil client so callers can pass optional
// clients straight to NewProbeRunner.
func NewRedisChecker(name string, client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	if name == "" {
		name = "redis"
	}
	return &RedisChecker{name: name, client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: c.name, Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return res.fail(err)
	}
	return res
}

// Pinger is anything that can prove it reaches its backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type StorageChecker struct {
	storage Pinger
}

func NewStorageChecker(storage Pinger) Checker {
	if storage == nil {
		return nil
	}
	return &StorageChecker{storage: storage}
}

func (c *StorageChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "object_storage", Healthy: true}
	if err := c.storage.Ping(ctx); err != nil {
		return res.fail(err)
	}
	return res
}

func (r CheckResult) fail(err error) CheckResult {
	r.Healthy = false
	r.Error = err.Error()
	return r
}
