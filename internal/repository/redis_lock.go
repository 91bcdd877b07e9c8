package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/infrastructure/redis"
)

// RedisLocker is a SET NX PX lock shared by all API replicas. The lease
// bounds how long a crashed holder can keep a listing locked.
type RedisLocker struct {
	redis      *redis.Client
	lease      time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewRedisLocker creates a distributed keyed lock
func NewRedisLocker(client *redis.Client, lease time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	if lease <= 0 {
		lease = 10 * time.Second
	}
	return &RedisLocker{redis: client, lease: lease, retryDelay: 25 * time.Millisecond, logger: logger}
}

// Lock blocks until key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.redis.SetNX(ctx, lockKey, token, l.lease)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w: %v", key, domain.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		// Release with a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := l.redis.CompareAndDelete(releaseCtx, lockKey, token); err != nil {
			l.logger.Warn("failed to release lock",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}
