package rolecache

import (
	"testing"
	"time"
)

func TestCacheGetPut(t *testing.T) {
	c := New[string](8, time.Minute)

	if _, ok := c.Get(1); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Put(1, "admin")

	got, ok := c.Get(1)
	if !ok || got != "admin" {
		t.Fatalf("expected hit with %q, got %q (hit=%v)", "admin", got, ok)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New[string](8, time.Minute)
	c.Put(7, "client")

	c.Invalidate(7)

	if _, ok := c.Get(7); ok {
		t.Fatalf("expected miss after invalidation")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[string](8, 50*time.Millisecond)
	c.Put(3, "admin")

	if _, ok := c.Get(3); !ok {
		t.Fatalf("expected hit before expiry")
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := c.Get(3); ok {
		t.Fatalf("expected miss after ttl expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	c := New[string](2, time.Minute)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(3, "c")

	if _, ok := c.Get(1); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := c.Get(3); !ok {
		t.Fatalf("expected newest entry to survive")
	}
}
