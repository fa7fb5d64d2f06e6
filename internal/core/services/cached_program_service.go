package services

import (
	"context"
	"fmt"
	"time"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/cache"
)

// CachedProgramService wraps ProgramService with read-path caching. The
// program catalogue is read by every beneficiary dashboard, so listings and
// single-program reads are cached; every mutation invalidates.
type CachedProgramService struct {
	base ports.ProgramService
	c    *cache.CacheWithFallback
	ttl  time.Duration
}

func NewCachedProgramService(base ports.ProgramService, ttl time.Duration) ports.ProgramService {
	return &CachedProgramService{
		base: base,
		c:    cache.NewCacheWithFallback(ttl),
		ttl:  ttl,
	}
}

func (s *CachedProgramService) CreateProgram(ctx context.Context, p *domain.Program, createdBy domain.UserID) (*domain.Program, error) {
	program, err := s.base.CreateProgram(ctx, p, createdBy)
	if err != nil {
		return nil, err
	}
	s.c.Invalidate("programs:")
	return program, nil
}

func (s *CachedProgramService) GetProgram(ctx context.Context, id domain.ProgramID) (*domain.Program, error) {
	key := fmt.Sprintf("programs:id:%s", id)
	value, err := s.c.GetOrSet(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.base.GetProgram(ctx, id)
	}, s.ttl)
	if err != nil {
		return nil, err
	}
	return value.(*domain.Program), nil
}

func (s *CachedProgramService) UpdateProgram(ctx context.Context, p *domain.Program, updatedBy domain.UserID) (*domain.Program, error) {
	program, err := s.base.UpdateProgram(ctx, p, updatedBy)
	if err != nil {
		return nil, err
	}
	s.c.Invalidate("programs:")
	return program, nil
}

func (s *CachedProgramService) DeleteProgram(ctx context.Context, id domain.ProgramID, deletedBy domain.UserID) error {
	if err := s.base.DeleteProgram(ctx, id, deletedBy); err != nil {
		return err
	}
	s.c.Invalidate("programs:")
	return nil
}

func (s *CachedProgramService) SetProgramStatus(ctx context.Context, id domain.ProgramID, status domain.ProgramStatus, actor domain.UserID) error {
	if err := s.base.SetProgramStatus(ctx, id, status, actor); err != nil {
		return err
	}
	s.c.Invalidate("programs:")
	return nil
}

func (s *CachedProgramService) SetFeatured(ctx context.Context, id domain.ProgramID, featured bool, actor domain.UserID) error {
	if err := s.base.SetFeatured(ctx, id, featured, actor); err != nil {
		return err
	}
	s.c.Invalidate("programs:")
	return nil
}

func (s *CachedProgramService) ListPrograms(ctx context.Context) ([]*domain.Program, error) {
	value, err := s.c.GetOrSet(ctx, "programs:list:all", func(ctx context.Context) (interface{}, error) {
		return s.base.ListPrograms(ctx)
	}, s.ttl)
	if err != nil {
		return nil, err
	}
	return value.([]*domain.Program), nil
}

func (s *CachedProgramService) ListActivePrograms(ctx context.Context) ([]*domain.Program, error) {
	value, err := s.c.GetOrSet(ctx, "programs:list:active", func(ctx context.Context) (interface{}, error) {
		return s.base.ListActivePrograms(ctx)
	}, s.ttl)
	if err != nil {
		return nil, err
	}
	return value.([]*domain.Program), nil
}

// ProgramStatistics is intentionally uncached: review decisions must show up
// immediately.
func (s *CachedProgramService) ProgramStatistics(ctx context.Context, id domain.ProgramID) (*domain.ProgramStats, error) {
	return s.base.ProgramStatistics(ctx, id)
}
