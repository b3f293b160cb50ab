package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// A cycle runs well under an hour; the lease must still expire before the
// next daily cycle if a worker dies holding it.
const defaultLeaseTTL = time.Hour

// Locker hands out an exclusive lease for one cron cycle.
type Locker interface {
	TryLock(ctx context.Context) (Lease, bool, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLocker stores a random token under key; only the holder of that
// token may release it.
type RedisLocker struct {
	store leaseStore
	key   string
	ttl   time.Duration
}

func NewRedisLocker(store leaseStore, key string, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis store required for cron lock")
	}
	if key == "" {
		return nil, errors.New("cron lock key required")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &RedisLocker{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLocker) TryLock(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{store: l.store, key: l.key, token: token}, true, nil
}

type redisLease struct {
	store leaseStore
	key   string
	token string
}

// Release is a no-op when the lease already expired or was taken over.
func (l *redisLease) Release(ctx context.Context) error {
	current, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", l.key, err)
	case current != l.token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
