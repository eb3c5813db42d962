package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/servicehub-backend/pkg/instance"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive runs of one job across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// RedisLocks hands each job a lock under its own cron:<job> key. A run that
// outlives ttl loses exclusivity, so ttl should exceed the slowest job.
func RedisLocks(store lockStore, ttl time.Duration) LockFactory {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return func(job string) (Lock, error) {
		if store == nil {
			return nil, errors.New("redis client required for lock")
		}
		if job == "" {
			return nil, errors.New("job name is required for lock")
		}
		return &jobLock{store: store, key: store.LockKey("cron:" + job), ttl: ttl}, nil
	}
}

type jobLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token string
}

func (l *jobLock) Acquire(ctx context.Context) (bool, error) {
	token := instance.ID() + ":" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while it still holds this run's token; an
// expired lock picked up by another replica is left alone.
func (l *jobLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	held, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		held = ""
	case err != nil:
		return fmt.Errorf("read lock %s: %w", l.key, err)
	}
	token := l.token
	l.token = ""
	if held != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
