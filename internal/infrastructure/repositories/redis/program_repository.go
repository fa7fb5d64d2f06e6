package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisProgramRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisProgramRepository(client *redis.Client) ports.ProgramRepository {
	return &RedisProgramRepository{
		client: client,
		prefix: "mswd:program:",
	}
}

func (r *RedisProgramRepository) programKey(id domain.ProgramID) string {
	return r.prefix + string(id)
}

func (r *RedisProgramRepository) codeKey(code string) string {
	return r.prefix + "code:" + strings.ToUpper(code)
}

const programsIndexKey = "mswd:programs"

func (r *RedisProgramRepository) Create(ctx context.Context, program *domain.Program) error {
	ok, err := r.client.SetNX(ctx, r.codeKey(program.Code), string(program.ID), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim program code index: %w", err)
	}
	if !ok {
		return domain.ErrProgramCodeTaken
	}

	data, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}
	if err := r.client.Set(ctx, r.programKey(program.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set program in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, programsIndexKey, string(program.ID)).Err(); err != nil {
		return fmt.Errorf("failed to add program to index: %w", err)
	}
	return nil
}

func (r *RedisProgramRepository) GetByID(ctx context.Context, id domain.ProgramID) (*domain.Program, error) {
	data, err := r.client.Get(ctx, r.programKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program from Redis: %w", err)
	}

	var program domain.Program
	if err := json.Unmarshal([]byte(data), &program); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program: %w", err)
	}
	return &program, nil
}

func (r *RedisProgramRepository) GetByCode(ctx context.Context, code string) (*domain.Program, error) {
	id, err := r.client.Get(ctx, r.codeKey(code)).Result()
	if err == redis.Nil {
		return nil, domain.ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program code index from Redis: %w", err)
	}
	return r.GetByID(ctx, domain.ProgramID(id))
}

func (r *RedisProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	exists, err := r.client.Exists(ctx, r.programKey(program.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check program existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrProgramNotFound
	}

	data, err := json.Marshal(program)
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}
	if err := r.client.Set(ctx, r.programKey(program.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update program in Redis: %w", err)
	}
	return nil
}

func (r *RedisProgramRepository) Delete(ctx context.Context, id domain.ProgramID) error {
	program, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.codeKey(program.Code)).Err(); err != nil {
		return fmt.Errorf("failed to delete program code index: %w", err)
	}
	if err := r.client.SRem(ctx, programsIndexKey, string(id)).Err(); err != nil {
		return fmt.Errorf("failed to remove program from index: %w", err)
	}
	if err := r.client.Del(ctx, r.programKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete program from Redis: %w", err)
	}
	return nil
}

func (r *RedisProgramRepository) List(ctx context.Context) ([]*domain.Program, error) {
	ids, err := r.client.SMembers(ctx, programsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get programs index from Redis: %w", err)
	}
	sort.Strings(ids)

	programs := make([]*domain.Program, 0, len(ids))
	for _, id := range ids {
		program, err := r.GetByID(ctx, domain.ProgramID(id))
		if err != nil {
			continue
		}
		programs = append(programs, program)
	}
	return programs, nil
}

func (r *RedisProgramRepository) ListByStatus(ctx context.Context, status domain.ProgramStatus) ([]*domain.Program, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var programs []*domain.Program
	for _, program := range all {
		if program.Status == status {
			programs = append(programs, program)
		}
	}
	return programs, nil
}
