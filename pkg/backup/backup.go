// Package backup writes and reads named JSON snapshots of portal data.
// The section payloads are opaque here; callers decide what goes in them.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Snapshot is one backup: a version tag, a timestamp, and named JSON
// sections (users, roles, programs, applications).
type Snapshot struct {
	Version   string                     `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	Sections  map[string]json.RawMessage `json:"sections"`
}

// Storage persists named blobs.
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

type Service struct {
	storage Storage
	version string
}

func NewService(storage Storage, version string) *Service {
	return &Service{
		storage: storage,
		version: version,
	}
}

// Create stores the snapshot and returns its generated name.
func (s *Service) Create(ctx context.Context, snapshot *Snapshot) (string, error) {
	snapshot.Version = s.version
	snapshot.CreatedAt = time.Now()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("backup-%s.json", snapshot.CreatedAt.Format("20060102-150405"))
	if err := s.storage.Save(ctx, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return name, nil
}

func (s *Service) Load(ctx context.Context, name string) (*Snapshot, error) {
	reader, err := s.storage.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns snapshot names, oldest-first by name (names embed the
// creation timestamp).
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.storage.List(ctx, "backup-")
}

func (s *Service) Delete(ctx context.Context, name string) error {
	return s.storage.Delete(ctx, name)
}
