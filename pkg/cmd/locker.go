package cmd

import (
	"fmt"
	"log/slog"

	"github.com/growloop/growloop/pkg/lock"
)

// NewLocker builds the per-step advisory lock. Without a Redis address
// the engine runs unlocked: best-effort at-least-once with
// last-writer-wins task upserts.
func NewLocker(redisAddr, redisPassword string, redisDB int, logger *slog.Logger) lock.Locker {
	if redisAddr == "" {
		logger.Info("Step locking disabled, no Redis address configured")

		return lock.NewNoop()
	}

	locker, err := lock.NewRedisLocker(redisAddr, redisPassword, redisDB)
	if err != nil {
		panic(fmt.Errorf("failed to initialize Redis step lock: %w", err))
	}

	logger.Info("Step locking enabled", "redis_addr", redisAddr)

	return locker
}
