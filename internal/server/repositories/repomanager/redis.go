package repomanager

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/redis/go-redis/v9"
)

type RedisRepositoryManager struct {
	rdb      redis.UniversalClient
	accounts *accounts.RedisRepository
}

func NewRedisRepositoryManager(rdb redis.UniversalClient, prefix string) *RedisRepositoryManager {
	return &RedisRepositoryManager{rdb: rdb, accounts: accounts.NewRedisRepository(rdb, prefix)}
}

// OpenRedis builds a client for addr. Nothing is dialed until first use.
func OpenRedis(addr, password string, db int, prefix string) *RedisRepositoryManager {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return NewRedisRepositoryManager(rdb, prefix)
}

func (m *RedisRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

// RunMigrations is a no-op: the key layout needs no schema.
func (m *RedisRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *RedisRepositoryManager) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Close() error {
	return m.rdb.Close()
}
