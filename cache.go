package gatehouse

import (
	"context"
	"time"
)

// Cache provides caching for permission verdicts and permission sets.
//
// Implementations are best-effort: methods carry no error returns, and a
// backend failure must be surfaced as a miss (Get* returning false) or a
// no-op (Set*, Invalidate*). The resolver never lets a cache failure
// change a verdict.
type Cache interface {
	// GetVerdict returns a cached per-slug verdict, if present.
	GetVerdict(ctx context.Context, kind PrincipalKind, principalID, slug string) (allowed bool, ok bool)

	// SetVerdict stores a per-slug verdict. A non-positive ttl means the
	// implementation's default lifetime.
	SetVerdict(ctx context.Context, kind PrincipalKind, principalID, slug string, allowed bool, ttl time.Duration)

	// GetPermissionSet returns a cached full permission set, if present.
	GetPermissionSet(ctx context.Context, kind PrincipalKind, principalID string) ([]string, bool)

	// SetPermissionSet stores a full permission set. A non-positive ttl
	// means the implementation's default lifetime.
	SetPermissionSet(ctx context.Context, kind PrincipalKind, principalID string, slugs []string, ttl time.Duration)

	// InvalidatePrincipal removes all cached entries for one principal.
	InvalidatePrincipal(ctx context.Context, kind PrincipalKind, principalID string)

	// InvalidateAll removes every cached entry.
	InvalidateAll(ctx context.Context)
}
