// Package distributed provides Redis-backed coordination primitives for
// running several portal instances against one store.
package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a Redis lease held by one instance at a time. The holder renews
// the lease at half TTL; if the holder dies, the lease expires on its own.
type Lock struct {
	client    *redis.Client
	key       string
	token     string
	ttl       time.Duration
	stopRenew chan struct{}
}

func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client:    client,
		key:       key,
		token:     newToken(),
		ttl:       ttl,
		stopRenew: make(chan struct{}),
	}
}

func newToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// TryAcquire takes the lease if it is free. It never blocks.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		go l.renew(ctx)
	}
	return acquired, nil
}

// Acquire blocks until the lease is taken or the deadline passes. A zero
// timeout waits at most 30 seconds.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		acquired, err := l.TryAcquire(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lock acquisition timeout on %s", l.key)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// releaseScript deletes the key only when it still holds our token, so a
// lease that expired and was re-taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Release gives up the lease. Releasing a lease this instance no longer
// holds is an error.
func (l *Lock) Release(ctx context.Context) error {
	close(l.stopRenew)

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("lock %s no longer held by this instance", l.key)
	}
	return nil
}

func (l *Lock) renew(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			holder, err := l.client.Get(ctx, l.key).Result()
			if err != nil || holder != l.token {
				return
			}
			l.client.Expire(ctx, l.key, l.ttl)
		case <-l.stopRenew:
			return
		case <-ctx.Done():
			return
		}
	}
}

// IsHeld reports whether any instance currently holds the lease.
func (l *Lock) IsHeld(ctx context.Context) (bool, error) {
	exists, err := l.client.Exists(ctx, l.key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// LockManager namespaces locks under one key prefix.
type LockManager struct {
	client *redis.Client
	prefix string
}

func NewLockManager(client *redis.Client, prefix string) *LockManager {
	return &LockManager{client: client, prefix: prefix}
}

func (lm *LockManager) NewLock(key string, ttl time.Duration) *Lock {
	return NewLock(lm.client, lm.prefix+key, ttl)
}
