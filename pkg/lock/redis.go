package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 2 * time.Minute

// releaseScript deletes the lock only when the holder token still
// matches, so an expired-and-reacquired lock is never released by the
// previous holder.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisLocker implements Locker with SET NX and a TTL, so a crashed
// holder cannot wedge a step forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(addr, password string, db int) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLocker{client: client, ttl: defaultTTL}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(ctx context.Context) error, error) {
	token := uuid.New().String()
	lockKey := "growloop:lock:" + key

	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}

	release := func(ctx context.Context) error {
		return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
	}

	return release, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
