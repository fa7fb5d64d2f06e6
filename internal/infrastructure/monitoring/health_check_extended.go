package monitoring

import (
	"context"
	"time"

	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// AddRedisCheck adds a Redis connectivity check.
func (h *HealthChecker) AddRedisCheck(client *redis.Client, interval, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}

// AddRepositoryCheck verifies the program store answers reads.
func (h *HealthChecker) AddRepositoryCheck(repo ports.ProgramRepository, interval, timeout time.Duration) {
	h.AddCheck("repository", func(ctx context.Context) (bool, error) {
		if _, err := repo.List(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, interval, timeout)
}
