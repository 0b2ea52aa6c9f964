// Package hook defines lifecycle hooks for gatehouse.
// Hooks are notified of resolution and mutation events (check resolved,
// role assigned, cache invalidated, etc.) and can react with logging,
// metrics, tracing, and the like.
//
// Each lifecycle event is a separate interface so hooks opt in only
// to the events they care about.
package hook

import (
	"context"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/id"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// AfterCheck is called after a permission check resolves.
// The verdict parameter is *gatehouse.Verdict (passed as any to avoid an
// import cycle).
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, principalKind, principalID string, verdict any) error
}

// RoleAssigned is called after a role is assigned to a principal.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, a *assignment.Assignment) error
}

// AssignmentRevoked is called after an assignment is revoked or deactivated.
type AssignmentRevoked interface {
	OnAssignmentRevoked(ctx context.Context, a *assignment.Assignment) error
}

// RolePermissionsChanged is called after a role's permission set is mutated.
type RolePermissionsChanged interface {
	OnRolePermissionsChanged(ctx context.Context, roleID id.RoleID) error
}

// CacheInvalidated is called after cache entries are invalidated. An empty
// principalID means all principals were invalidated.
type CacheInvalidated interface {
	OnCacheInvalidated(ctx context.Context, principalKind, principalID string) error
}
