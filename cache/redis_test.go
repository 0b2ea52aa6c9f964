package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mercatohq/gatehouse"
)

func newTestRedis(t *testing.T, opts ...RedisOption) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, opts...)
}

func TestRedisVerdictHitMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("expected cache miss")
	}

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

func TestRedisPermissionSet(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	if _, ok := c.GetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1"); ok {
		t.Fatal("expected miss")
	}

	want := []string{"orders:view", "products:view"}
	c.SetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1", want, 0)

	got, ok := c.GetPermissionSet(ctx, gatehouse.KindSupplierMember, "m1")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRedisInvalidatePrincipal(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	c.SetPermissionSet(ctx, gatehouse.KindAdmin, "a1", []string{"products:manage"}, 0)
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a2", "products:manage", true, 0)

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
}

func TestRedisInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

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

func TestRedisPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	blue := NewRedis(client, WithRedisPrefix("blue"))
	green := NewRedis(client, WithRedisPrefix("green"))

	blue.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)
	green.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)

	blue.InvalidateAll(ctx)

	if _, ok := blue.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("blue should be flushed")
	}
	if _, ok := green.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); !ok {
		t.Fatal("green must survive blue's flush")
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedis(client, WithRedisTTL(time.Minute))
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage", true, 0)

	// miniredis advances TTLs manually.
	mr.FastForward(2 * time.Minute)

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a1", "products:manage"); ok {
		t.Fatal("expected miss after TTL expiry")
	}

	// A per-call TTL overrides the cache default.
	c.SetVerdict(ctx, gatehouse.KindAdmin, "a2", "products:manage", true, 10*time.Minute)
	mr.FastForward(5 * time.Minute)

	if _, ok := c.GetVerdict(ctx, gatehouse.KindAdmin, "a2", "products:manage"); !ok {
		t.Fatal("per-call TTL should outlive the default")
	}
}
