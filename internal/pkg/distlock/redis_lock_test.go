package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLock_MutualExclusion(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "scheduler", time.Minute)
	b := NewRedisLock(client, "scheduler", time.Minute)

	ok, err := a.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v; want true, nil", ok, err)
	}

	ok, err = b.Acquire(ctx)
	if err != nil {
		t.Fatalf("second Acquire error: %v", err)
	}
	if ok {
		t.Error("second Acquire succeeded while lock is held")
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	ok, err = b.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("Acquire after release = %v, %v; want true, nil", ok, err)
	}
}

func TestRedisLock_ReleaseOnlyOwn(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "rules", time.Minute)
	b := NewRedisLock(client, "rules", time.Minute)

	if ok, _ := a.Acquire(ctx); !ok {
		t.Fatal("Acquire failed")
	}

	// b never acquired, so its release must not delete a's lock
	if err := b.Release(ctx); err != nil {
		t.Fatalf("Release error: %v", err)
	}

	if ok, _ := b.Acquire(ctx); ok {
		t.Error("Acquire succeeded; foreign Release must not free the lock")
	}
}
