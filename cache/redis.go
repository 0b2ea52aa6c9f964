package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercatohq/gatehouse"
)

// Compile-time interface check.
var _ gatehouse.Cache = (*Redis)(nil)

// Redis is a go-redis backed cache for multi-node deployments.
//
// All failures are logged at Warn and surface as misses or no-ops; a
// Redis outage degrades checks to uncached evaluation, never to an
// error. Pattern invalidation uses SCAN and is eventually consistent
// for concurrent readers.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the cache entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithRedisPrefix sets the key namespace. Defaults to "gatehouse".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the structured logger.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis creates a Redis cache on an existing client with a one hour
// default TTL.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    gatehouse.DefaultCacheTTL,
		prefix: "gatehouse",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetVerdict returns a cached per-slug verdict.
func (r *Redis) GetVerdict(ctx context.Context, kind gatehouse.PrincipalKind, principalID, slug string) (bool, bool) {
	val, err := r.client.Get(ctx, r.verdictKey(kind, principalID, slug)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("get verdict", err)
		}
		return false, false
	}
	return val == "1", true
}

// SetVerdict stores a per-slug verdict.
func (r *Redis) SetVerdict(ctx context.Context, kind gatehouse.PrincipalKind, principalID, slug string, allowed bool, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	val := "0"
	if allowed {
		val = "1"
	}
	if err := r.client.Set(ctx, r.verdictKey(kind, principalID, slug), val, ttl).Err(); err != nil {
		r.warn("set verdict", err)
	}
}

// GetPermissionSet returns a cached full permission set.
func (r *Redis) GetPermissionSet(ctx context.Context, kind gatehouse.PrincipalKind, principalID string) ([]string, bool) {
	data, err := r.client.Get(ctx, r.setKey(kind, principalID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("get permission set", err)
		}
		return nil, false
	}

	var slugs []string
	if err := json.Unmarshal(data, &slugs); err != nil {
		r.warn("decode permission set", err)
		return nil, false
	}
	return slugs, true
}

// SetPermissionSet stores a full permission set.
func (r *Redis) SetPermissionSet(ctx context.Context, kind gatehouse.PrincipalKind, principalID string, slugs []string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	data, err := json.Marshal(slugs)
	if err != nil {
		r.warn("encode permission set", err)
		return
	}
	if err := r.client.Set(ctx, r.setKey(kind, principalID), data, ttl).Err(); err != nil {
		r.warn("set permission set", err)
	}
}

// InvalidatePrincipal removes all cached entries for one principal.
func (r *Redis) InvalidatePrincipal(ctx context.Context, kind gatehouse.PrincipalKind, principalID string) {
	r.deletePattern(ctx, r.prefix+":"+string(kind)+":"+principalID+":*")
}

// InvalidateAll removes every cached entry in this cache's namespace.
func (r *Redis) InvalidateAll(ctx context.Context) {
	r.deletePattern(ctx, r.prefix+":*")
}

// deletePattern removes all keys matching the pattern via SCAN, batching
// deletes to bound command size.
func (r *Redis) deletePattern(ctx context.Context, pattern string) {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	batch := make([]string, 0, 100)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			r.warn("delete keys", err)
		}
		batch = batch[:0]
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			flush()
		}
	}
	if err := iter.Err(); err != nil {
		r.warn("scan keys", err)
	}
	flush()
}

func (r *Redis) verdictKey(kind gatehouse.PrincipalKind, principalID, slug string) string {
	return r.prefix + ":" + string(kind) + ":" + principalID + ":verdict:" + slug
}

func (r *Redis) setKey(kind gatehouse.PrincipalKind, principalID string) string {
	return r.prefix + ":" + string(kind) + ":" + principalID + ":set"
}

func (r *Redis) warn(op string, err error) {
	r.logger.Warn("redis cache degraded",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
