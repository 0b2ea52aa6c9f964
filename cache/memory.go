// Package cache provides caching implementations for gatehouse verdicts
// and permission sets.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mercatohq/gatehouse"
)

// Compile-time interface check.
var _ gatehouse.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration and a size cap.
// Suitable for tests and single-node deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	allowed   bool
	slugs     []string
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache with a one hour default TTL.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     gatehouse.DefaultCacheTTL,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetVerdict returns a cached per-slug verdict.
func (m *Memory) GetVerdict(_ context.Context, kind gatehouse.PrincipalKind, principalID, slug string) (bool, bool) {
	e, ok := m.lookup(verdictKey(kind, principalID, slug))
	if !ok {
		return false, false
	}
	return e.allowed, true
}

// SetVerdict stores a per-slug verdict.
func (m *Memory) SetVerdict(_ context.Context, kind gatehouse.PrincipalKind, principalID, slug string, allowed bool, ttl time.Duration) {
	m.put(verdictKey(kind, principalID, slug), &entry{allowed: allowed}, ttl)
}

// GetPermissionSet returns a cached full permission set.
func (m *Memory) GetPermissionSet(_ context.Context, kind gatehouse.PrincipalKind, principalID string) ([]string, bool) {
	e, ok := m.lookup(setKey(kind, principalID))
	if !ok {
		return nil, false
	}
	slugs := make([]string, len(e.slugs))
	copy(slugs, e.slugs)
	return slugs, true
}

// SetPermissionSet stores a full permission set.
func (m *Memory) SetPermissionSet(_ context.Context, kind gatehouse.PrincipalKind, principalID string, slugs []string, ttl time.Duration) {
	stored := make([]string, len(slugs))
	copy(stored, slugs)
	m.put(setKey(kind, principalID), &entry{slugs: stored}, ttl)
}

// InvalidatePrincipal removes all cached entries for one principal.
func (m *Memory) InvalidatePrincipal(_ context.Context, kind gatehouse.PrincipalKind, principalID string) {
	prefix := principalPrefix(kind, principalID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

// InvalidateAll removes every cached entry.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

func (m *Memory) lookup(key string) (*entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (m *Memory) put(key string, e *entry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	e.expiresAt = time.Now().Add(ttl)
	m.entries[key] = e
}

func verdictKey(kind gatehouse.PrincipalKind, principalID, slug string) string {
	return fmt.Sprintf("%s:%s:verdict:%s", kind, principalID, slug)
}

func setKey(kind gatehouse.PrincipalKind, principalID string) string {
	return fmt.Sprintf("%s:%s:set", kind, principalID)
}

func principalPrefix(kind gatehouse.PrincipalKind, principalID string) string {
	return fmt.Sprintf("%s:%s:", kind, principalID)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
