package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage() error = %v", err)
	}
	return NewService(storage, "1")
}

func TestService_CreateAndLoad(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	users, _ := json.Marshal([]string{"u-1", "u-2"})
	name, err := svc.Create(ctx, &Snapshot{
		Sections: map[string]json.RawMessage{"users": users},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded, err := svc.Load(ctx, name)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Version != "1" {
		t.Errorf("Version = %q, want %q", loaded.Version, "1")
	}
	if time.Since(loaded.CreatedAt) > time.Minute {
		t.Errorf("CreatedAt = %v, want recent", loaded.CreatedAt)
	}

	var got []string
	if err := json.Unmarshal(loaded.Sections["users"], &got); err != nil {
		t.Fatalf("unmarshal users section: %v", err)
	}
	if len(got) != 2 || got[0] != "u-1" {
		t.Errorf("users section = %v", got)
	}
}

func TestService_ListAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	name, err := svc.Create(ctx, &Snapshot{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	names, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != name {
		t.Errorf("List() = %v, want [%s]", names, name)
	}

	if err := svc.Delete(ctx, name); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	names, _ = svc.List(ctx)
	if len(names) != 0 {
		t.Errorf("List() after delete = %v, want empty", names)
	}
}

func TestService_LoadMissing(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Load(context.Background(), "backup-nope.json"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
