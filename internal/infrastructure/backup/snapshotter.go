// Package backup snapshots portal data to durable storage and restores it.
// Snapshots cover users, role records, programs, and applications; the
// audit trail is append-only operational data and stays out.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"
	"mswdportal/pkg/backup"

	"go.uber.org/zap"
)

const listPageSize = 500

type Snapshotter struct {
	backups  *backup.Service
	users    ports.UserRepository
	roles    ports.RoleRepository
	programs ports.ProgramRepository
	apps     ports.ApplicationRepository
	logger   *zap.SugaredLogger
}

func NewSnapshotter(
	backups *backup.Service,
	users ports.UserRepository,
	roles ports.RoleRepository,
	programs ports.ProgramRepository,
	apps ports.ApplicationRepository,
	logger *zap.SugaredLogger,
) *Snapshotter {
	return &Snapshotter{
		backups:  backups,
		users:    users,
		roles:    roles,
		programs: programs,
		apps:     apps,
		logger:   logger,
	}
}

// Snapshot collects all portal records and stores them as one snapshot,
// returning its name.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	users, err := s.collectUsers(ctx)
	if err != nil {
		return "", err
	}

	roles := make([]*domain.RoleRecord, 0, len(users))
	for _, user := range users {
		record, err := s.roles.Get(ctx, user.ID)
		if errors.Is(err, domain.ErrRoleNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read role record for %s: %w", user.ID, err)
		}
		roles = append(roles, record)
	}

	programs, err := s.programs.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list programs: %w", err)
	}

	var applications []*domain.Application
	for _, program := range programs {
		apps, err := s.apps.ListByProgram(ctx, program.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list applications for program %s: %w", program.ID, err)
		}
		applications = append(applications, apps...)
	}

	sections, err := marshalSections(map[string]interface{}{
		"users":        users,
		"roles":        roles,
		"programs":     programs,
		"applications": applications,
	})
	if err != nil {
		return "", err
	}

	name, err := s.backups.Create(ctx, &backup.Snapshot{Sections: sections})
	if err != nil {
		return "", err
	}

	s.logger.Infow("snapshot created",
		"name", name,
		"users", len(users),
		"programs", len(programs),
		"applications", len(applications),
	)
	return name, nil
}

// Restore writes a snapshot's records back into the repositories. Existing
// records are overwritten; records absent from the snapshot are left alone.
func (s *Snapshotter) Restore(ctx context.Context, name string) error {
	snapshot, err := s.backups.Load(ctx, name)
	if err != nil {
		return err
	}

	var users []*domain.User
	if err := unmarshalSection(snapshot.Sections, "users", &users); err != nil {
		return err
	}
	for _, user := range users {
		if _, err := s.users.GetByID(ctx, user.ID); errors.Is(err, domain.ErrUserNotFound) {
			err = s.users.Create(ctx, user)
			if err != nil {
				return fmt.Errorf("failed to restore user %s: %w", user.ID, err)
			}
			continue
		} else if err != nil {
			return fmt.Errorf("failed to check user %s: %w", user.ID, err)
		}
		if err := s.users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to restore user %s: %w", user.ID, err)
		}
	}

	var roles []*domain.RoleRecord
	if err := unmarshalSection(snapshot.Sections, "roles", &roles); err != nil {
		return err
	}
	for _, record := range roles {
		if err := s.roles.Set(ctx, record, false); err != nil {
			return fmt.Errorf("failed to restore role record for %s: %w", record.UserID, err)
		}
	}

	var programs []*domain.Program
	if err := unmarshalSection(snapshot.Sections, "programs", &programs); err != nil {
		return err
	}
	for _, program := range programs {
		if _, err := s.programs.GetByID(ctx, program.ID); errors.Is(err, domain.ErrProgramNotFound) {
			if err := s.programs.Create(ctx, program); err != nil {
				return fmt.Errorf("failed to restore program %s: %w", program.ID, err)
			}
			continue
		} else if err != nil {
			return fmt.Errorf("failed to check program %s: %w", program.ID, err)
		}
		if err := s.programs.Update(ctx, program); err != nil {
			return fmt.Errorf("failed to restore program %s: %w", program.ID, err)
		}
	}

	var applications []*domain.Application
	if err := unmarshalSection(snapshot.Sections, "applications", &applications); err != nil {
		return err
	}
	for _, app := range applications {
		if _, err := s.apps.GetByID(ctx, app.ID); errors.Is(err, domain.ErrApplicationNotFound) {
			if err := s.apps.Create(ctx, app); err != nil {
				return fmt.Errorf("failed to restore application %s: %w", app.ID, err)
			}
			continue
		} else if err != nil {
			return fmt.Errorf("failed to check application %s: %w", app.ID, err)
		}
		if err := s.apps.Update(ctx, app); err != nil {
			return fmt.Errorf("failed to restore application %s: %w", app.ID, err)
		}
	}

	s.logger.Infow("snapshot restored",
		"name", name,
		"users", len(users),
		"programs", len(programs),
		"applications", len(applications),
	)
	return nil
}

func (s *Snapshotter) collectUsers(ctx context.Context) ([]*domain.User, error) {
	var all []*domain.User
	for offset := 0; ; offset += listPageSize {
		page, err := s.users.List(ctx, offset, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
	}
}

func marshalSections(data map[string]interface{}) (map[string]json.RawMessage, error) {
	sections := make(map[string]json.RawMessage, len(data))
	for name, value := range data {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s section: %w", name, err)
		}
		sections[name] = raw
	}
	return sections, nil
}

func unmarshalSection(sections map[string]json.RawMessage, name string, dst interface{}) error {
	raw, ok := sections[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s section: %w", name, err)
	}
	return nil
}
