package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(mr.Addr())
	if err != nil {
		t.Fatalf("new redis cache failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheBasicOps(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if v, err := c.Get(ctx, "missing"); err != nil || v != "" {
		t.Fatalf("missing key must be empty without error, got %q %v", v, err)
	}
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if v, _ := c.Get(ctx, "k"); v != "v" {
		t.Fatalf("unexpected value %q", v)
	}
	if ttl, _ := c.TTL(ctx, "k"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	ok, err := c.SetNX(ctx, "k", "other", 0)
	if err != nil || ok {
		t.Fatalf("SetNX on existing key must fail, got %v %v", ok, err)
	}
	ok, _ = c.SetNX(ctx, "fresh", "1", 0)
	if !ok {
		t.Fatalf("SetNX on new key must succeed")
	}

	mr.FastForward(2 * time.Minute)
	if v, _ := c.Get(ctx, "k"); v != "" {
		t.Fatalf("expired key must be gone")
	}

	if err := c.Del(ctx, "fresh"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if err := c.Del(ctx); err != nil {
		t.Fatalf("empty del failed: %v", err)
	}
	if mr.Exists("fresh") {
		t.Fatalf("key must be deleted")
	}
}

func TestRedisCacheHashOps(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.HIncrBy(ctx, "stats", "ACCEPTED", 1); err != nil {
			t.Fatalf("hincrby failed: %v", err)
		}
	}
	n, _ := c.HIncrBy(ctx, "stats", "WRONG_ANSWER", 2)
	if n != 2 {
		t.Fatalf("unexpected counter %d", n)
	}
	all, err := c.HGetAll(ctx, "stats")
	if err != nil {
		t.Fatalf("hgetall failed: %v", err)
	}
	if all["ACCEPTED"] != "3" || all["WRONG_ANSWER"] != "2" {
		t.Fatalf("unexpected hash %v", all)
	}
}

func TestNewRedisCacheErrors(t *testing.T) {
	if _, err := NewRedisCacheWithConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := NewRedisCache(""); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewRedisCacheWithClient(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
	mr := miniredis.RunT(t)
	c, err := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err != nil {
		t.Fatalf("wrap client failed: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
	if JitterTTL(0) != 0 {
		t.Fatalf("zero ttl must stay zero")
	}
}
