package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiterTest(t *testing.T, cfg Config) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedis(rdb, cfg), mr
}

func TestRedisAllowUnderLimit(t *testing.T) {
	l, _ := newRedisLimiterTest(t, Config{Prefix: "t", Max: 3, Window: time.Minute})
	ctx := context.Background()

	for i := range 3 {
		if err := l.Allow(ctx, "otp:request:+628123"); err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
	}
}

func TestRedisAllowOverLimit(t *testing.T) {
	l, _ := newRedisLimiterTest(t, Config{Prefix: "t", Max: 2, Window: time.Minute})
	ctx := context.Background()

	for i := range 2 {
		if err := l.Allow(ctx, "k"); err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
	}

	if err := l.Allow(ctx, "k"); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}
}

func TestRedisWindowExpiry(t *testing.T) {
	l, mr := newRedisLimiterTest(t, Config{Prefix: "t", Max: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Allow(ctx, "k"); err != nil {
		t.Fatalf("first allow: %v", err)
	}
	if err := l.Allow(ctx, "k"); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if err := l.Allow(ctx, "k"); err != nil {
		t.Fatalf("allow after window expiry: %v", err)
	}
}

func TestRedisIndependentKeys(t *testing.T) {
	l, _ := newRedisLimiterTest(t, Config{Prefix: "t", Max: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Allow(ctx, "a"); err != nil {
		t.Fatalf("allow a: %v", err)
	}
	if err := l.Allow(ctx, "b"); err != nil {
		t.Fatalf("allow b: %v", err)
	}
	if err := l.Allow(ctx, "a"); !errors.Is(err, ErrLimited) {
		t.Fatalf("expected ErrLimited for a, got %v", err)
	}
}

func TestRedisReset(t *testing.T) {
	l, _ := newRedisLimiterTest(t, Config{Prefix: "t", Max: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Allow(ctx, "k"); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := l.Allow(ctx, "k"); err != nil {
		t.Fatalf("allow after reset: %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	l := NewRedis(rdb, Config{Max: 1, Window: time.Minute})

	mr.Close()

	if err := l.Allow(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
