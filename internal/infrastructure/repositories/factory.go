package repositories

import (
	"context"

	"mswdportal/internal/core/ports"
	"mswdportal/internal/infrastructure/repositories/memory"
	redisrepo "mswdportal/internal/infrastructure/repositories/redis"
	"mswdportal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory hands out Redis-backed repositories when Redis is
// configured and reachable, and memory repositories otherwise.
type RepositoryFactory struct {
	cfg         *config.Config
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger

	batchedAudit *redisrepo.BatchedRedisAuditRepository
}

func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		cfg:      cfg,
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

func (f *RepositoryFactory) CreateRoleRepository() ports.RoleRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRoleRepository(f.redisClient)
	}
	return memory.NewMemoryRoleRepository()
}

func (f *RepositoryFactory) CreateUserRepository() ports.UserRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisUserRepository(f.redisClient)
	}
	return memory.NewMemoryUserRepository()
}

func (f *RepositoryFactory) CreateProgramRepository() ports.ProgramRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisProgramRepository(f.redisClient)
	}
	return memory.NewMemoryProgramRepository()
}

func (f *RepositoryFactory) CreateApplicationRepository() ports.ApplicationRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisApplicationRepository(f.redisClient)
	}
	return memory.NewMemoryApplicationRepository()
}

func (f *RepositoryFactory) CreateAuditRepository() ports.AuditRepository {
	if f.useRedis && f.redisClient != nil {
		if f.cfg.Audit.BatchEnabled {
			f.batchedAudit = redisrepo.NewBatchedRedisAuditRepository(
				f.redisClient,
				f.cfg.Audit.BatchSize,
				f.cfg.Audit.BatchInterval,
				f.logger,
			)
			return f.batchedAudit
		}
		return redisrepo.NewRedisAuditRepository(f.redisClient)
	}
	return memory.NewMemoryAuditRepository()
}

// RedisClient exposes the underlying client for health checks. Nil in
// memory mode.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	if !f.useRedis {
		return nil
	}
	return f.redisClient
}

// Close flushes any batched writers and closes the Redis connection.
func (f *RepositoryFactory) Close() error {
	if f.batchedAudit != nil {
		f.batchedAudit.Stop()
	}
	if f.redisClient != nil {
		return redisrepo.CloseClient(f.redisClient)
	}
	return nil
}

// HealthCheck reports Redis connection health; memory mode is always
// healthy.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
