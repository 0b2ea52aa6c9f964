package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mercatohq/gatehouse"
)

func TestMemoryVerdictHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	_, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage")
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit, both verdicts
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "orders:manage", false, 0)

	allowed, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage")
	if !ok || !allowed {
		t.Fatal("expected cached allow")
	}
	allowed, ok = c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "orders:manage")
	if !ok || allowed {
		t.Fatal("expected cached deny")
	}
}

func TestMemoryPermissionSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	if _, ok := c.GetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1"); ok {
		t.Fatal("expected miss")
	}

	c.SetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1", []string{"orders:view", "products:view"}, 0)
	slugs, ok := c.GetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1")
	if !ok || len(slugs) != 2 {
		t.Fatalf("expected 2 cached slugs, got %v", slugs)
	}

	// Mutating the returned slice must not corrupt the cache.
	slugs[0] = "mutated"
	slugs, _ = c.GetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1")
	if slugs[0] != "orders:view" {
		t.Fatal("cached set must be isolated from callers")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("expected miss after TTL expiry")
	}

	// A per-call TTL overrides the cache default.
	c2 := NewMemory(WithTTL(time.Hour))
	c2.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c2.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("expected miss after per-call TTL expiry")
	}
}

func TestMemoryInvalidatePrincipal(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	c.SetPermissionSet(ctx, gatehouse.KindAdmin, "a1", []string{"products:manage"}, 0)
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a2", "products:manage", true, 0)
	c.SetVerdict(ctx, gatehouse.KindSupplierMember, "a1", "products:manage", true, 0)

	c.InvalidatePrincipal(ctx, gatehouse.KindAdmin, "a1")

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("a1 verdict should be invalidated")
	}
	if _, ok := c.GetPermissionSet(ctx, gatehouse.KindAdmin, "a1"); ok {
		t.Fatal("a1 permission set should be invalidated")
	}
	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a2", "products:manage"); !ok {
		t.Fatal("a2 should still be cached")
	}
	if _, ok := c.GetVerdict(ctx, gatehouse.KindSupplierMember, "a1", "products:manage"); !ok {
		t.Fatal("same ID under a different kind should still be cached")
	}
}

func TestMemoryInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	c.SetVerdict(ctx, gatehouse.KindSupplierMember, "m1", "orders:view", true, 0)

	c.InvalidateAll(ctx)

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("expected empty cache")
	}
	if _, ok := c.GetVerdict(ctx, gatehouse.KindSupplierMember, "m1", "orders:view"); ok {
		t.Fatal("expected empty cache")
	}
}

func TestMemoryMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for _, slug := range []string{"a:a", "b:b", "c:c", "d:d", "e:e"} {
		c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", slug, true, 0)
	}

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}
