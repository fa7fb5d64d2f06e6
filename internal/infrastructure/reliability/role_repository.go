// Package reliability wraps repositories with retry and circuit breaker
// protection for deployments where the role store sits across a network.
package reliability

import (
	"context"
	"errors"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/circuitbreaker"
	"mswdportal/pkg/retry"

	"go.uber.org/zap"
)

// ResilientRoleRepository shields the role store behind a circuit breaker
// and retries transient failures. A missing record is a healthy answer and
// never counts against the breaker; with the breaker open, lookups fail
// fast and the resolver falls through to its default rule well inside the
// resolve timeout.
type ResilientRoleRepository struct {
	repo   ports.RoleRepository
	logger *zap.SugaredLogger

	retryConfig retry.Config
	breaker     *circuitbreaker.CircuitBreaker
}

func NewResilientRoleRepository(
	repo ports.RoleRepository,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) ports.RoleRepository {
	breaker := circuitbreaker.New(cbConfig)
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("role store circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &ResilientRoleRepository{
		repo:        repo,
		logger:      logger,
		retryConfig: retryConfig,
		breaker:     breaker,
	}
}

func (w *ResilientRoleRepository) Get(ctx context.Context, userID domain.UserID) (*domain.RoleRecord, error) {
	if !w.retryConfig.Enabled {
		return w.repo.Get(ctx, userID)
	}

	record, err := retry.RetryWithResult(ctx, w.retryConfig, func() (*domain.RoleRecord, error) {
		res, err := w.breaker.ExecuteWithResult(ctx, func() (interface{}, error) {
			record, err := w.repo.Get(ctx, userID)
			if errors.Is(err, domain.ErrRoleNotFound) {
				// A miss means the store answered.
				return nil, nil
			}
			return record, err
		})
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, nil
		}
		return res.(*domain.RoleRecord), nil
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRoleNotFound
	}
	return record, nil
}

func (w *ResilientRoleRepository) Set(ctx context.Context, record *domain.RoleRecord, merge bool) error {
	if !w.retryConfig.Enabled {
		return w.repo.Set(ctx, record, merge)
	}

	return retry.Retry(ctx, w.retryConfig, func() error {
		return w.breaker.Execute(ctx, func() error {
			return w.repo.Set(ctx, record, merge)
		})
	})
}
