package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
)

type MemoryProgramRepository struct {
	programs map[domain.ProgramID]*domain.Program
	byCode   map[string]domain.ProgramID
	mu       sync.RWMutex
}

func NewMemoryProgramRepository() ports.ProgramRepository {
	return &MemoryProgramRepository{
		programs: make(map[domain.ProgramID]*domain.Program),
		byCode:   make(map[string]domain.ProgramID),
	}
}

func (r *MemoryProgramRepository) Create(ctx context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := strings.ToUpper(program.Code)
	if _, exists := r.byCode[code]; exists {
		return domain.ErrProgramCodeTaken
	}

	copied := *program
	r.programs[program.ID] = &copied
	r.byCode[code] = program.ID
	return nil
}

func (r *MemoryProgramRepository) GetByID(ctx context.Context, id domain.ProgramID) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	program, exists := r.programs[id]
	if !exists {
		return nil, domain.ErrProgramNotFound
	}

	copied := *program
	return &copied, nil
}

func (r *MemoryProgramRepository) GetByCode(ctx context.Context, code string) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byCode[strings.ToUpper(code)]
	if !exists {
		return nil, domain.ErrProgramNotFound
	}

	copied := *r.programs[id]
	return &copied, nil
}

func (r *MemoryProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.programs[program.ID]; !exists {
		return domain.ErrProgramNotFound
	}

	copied := *program
	r.programs[program.ID] = &copied
	return nil
}

func (r *MemoryProgramRepository) Delete(ctx context.Context, id domain.ProgramID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, exists := r.programs[id]
	if !exists {
		return domain.ErrProgramNotFound
	}

	delete(r.byCode, strings.ToUpper(program.Code))
	delete(r.programs, id)
	return nil
}

func (r *MemoryProgramRepository) List(ctx context.Context) ([]*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	programs := make([]*domain.Program, 0, len(r.programs))
	for _, program := range r.programs {
		copied := *program
		programs = append(programs, &copied)
	}
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].ID < programs[j].ID
	})
	return programs, nil
}

func (r *MemoryProgramRepository) ListByStatus(ctx context.Context, status domain.ProgramStatus) ([]*domain.Program, error) {
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
