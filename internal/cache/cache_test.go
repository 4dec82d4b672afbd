package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set(ctx, "k", "v")
	val, ok := c.Get(ctx, "k")
	if !ok || val != "v" {
		t.Errorf("got %q, %v, want v, true", val, ok)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory(time.Minute)
	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	fakeNow = fakeNow.Add(2 * time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestNewMemoryDefaultsTTL(t *testing.T) {
	c := NewMemory(0)
	if c.ttl != DefaultTTL {
		t.Errorf("got ttl %v, want %v", c.ttl, DefaultTTL)
	}
}
