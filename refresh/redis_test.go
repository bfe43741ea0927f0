package refresh

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRegistry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	r := NewRedis(rdb, "acct:rt")

	if err := r.Put(ctx, "tok", testEntry, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "acct:rt:") || strings.Contains(keys[0], "tok") {
		t.Fatalf("unexpected keys: %v", keys)
	}
	got, err := r.Get(ctx, "tok")
	if err != nil || got.User != testEntry.User {
		t.Fatalf("get = %+v, %v", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := r.Get(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisRotate(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	r := NewRedis(rdb, "")

	_ = r.Put(ctx, "old", testEntry, time.Minute)
	if err := Rotate(ctx, r, "old", "new", testEntry, time.Minute); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := r.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old still present: %v", err)
	}
	if _, err := r.Get(ctx, "new"); err != nil {
		t.Fatalf("new missing: %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := NewRedis(rdb, "")
	mr.Close()

	if err := r.Put(context.Background(), "tok", testEntry, time.Minute); err == nil {
		t.Fatal("expected error with server down")
	}
}
