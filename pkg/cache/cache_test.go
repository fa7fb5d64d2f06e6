package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.Set("programs:id:p-1", "value")

	got, ok := c.Get("programs:id:p-1")
	if !ok {
		t.Fatal("expected hit for stored key")
	}
	if got != "value" {
		t.Errorf("Get() = %v, want %v", got, "value")
	}

	if _, ok := c.Get("programs:id:p-2"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.SetWithTTL("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCache_InvalidateByPrefix(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Stop()

	c.Set("programs:id:p-1", 1)
	c.Set("programs:list", 2)
	c.Set("users:u-1", 3)

	c.Invalidate("programs:")

	if _, ok := c.Get("programs:id:p-1"); ok {
		t.Error("expected programs:id:p-1 to be invalidated")
	}
	if _, ok := c.Get("programs:list"); ok {
		t.Error("expected programs:list to be invalidated")
	}
	if _, ok := c.Get("users:u-1"); !ok {
		t.Error("expected users:u-1 to survive")
	}
}

func TestCacheWithFallback_LoadsOnceUntilInvalidated(t *testing.T) {
	c := NewCacheWithFallback(time.Minute)
	defer c.Stop()

	loads := 0
	loader := func(ctx context.Context) (interface{}, error) {
		loads++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrSet(context.Background(), "key", loader, time.Minute)
		if err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if got != "loaded" {
			t.Errorf("GetOrSet() = %v, want %v", got, "loaded")
		}
	}
	if loads != 1 {
		t.Errorf("loader ran %d times, want 1", loads)
	}

	c.Invalidate("key")
	if _, err := c.GetOrSet(context.Background(), "key", loader, time.Minute); err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if loads != 2 {
		t.Errorf("loader ran %d times after invalidation, want 2", loads)
	}
}

func TestCacheWithFallback_LoaderErrorNotCached(t *testing.T) {
	c := NewCacheWithFallback(time.Minute)
	defer c.Stop()

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("load failed")
		}
		return "ok", nil
	}

	if _, err := c.GetOrSet(context.Background(), "key", loader, time.Minute); err == nil {
		t.Fatal("expected loader error on first call")
	}

	got, err := c.GetOrSet(context.Background(), "key", loader, time.Minute)
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("GetOrSet() = %v, want %v", got, "ok")
	}
}
