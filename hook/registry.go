package hook

import (
	"context"
	"log/slog"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/id"
)

// Named entry types pair a hook with its name for logging.

type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type roleAssignedEntry struct {
	name string
	hook RoleAssigned
}
type assignmentRevokedEntry struct {
	name string
	hook AssignmentRevoked
}
type rolePermissionsChangedEntry struct {
	name string
	hook RolePermissionsChanged
}
type cacheInvalidatedEntry struct {
	name string
	hook CacheInvalidated
}

// Registry holds registered hooks and dispatches lifecycle events.
// It type-caches hooks at registration time so emit calls iterate
// only over hooks implementing the relevant event.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	afterCheck             []afterCheckEntry
	roleAssigned           []roleAssignedEntry
	assignmentRevoked      []assignmentRevokedEntry
	rolePermissionsChanged []rolePermissionsChangedEntry
	cacheInvalidated       []cacheInvalidatedEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if e, ok := h.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, e})
	}
	if e, ok := h.(RoleAssigned); ok {
		r.roleAssigned = append(r.roleAssigned, roleAssignedEntry{name, e})
	}
	if e, ok := h.(AssignmentRevoked); ok {
		r.assignmentRevoked = append(r.assignmentRevoked, assignmentRevokedEntry{name, e})
	}
	if e, ok := h.(RolePermissionsChanged); ok {
		r.rolePermissionsChanged = append(r.rolePermissionsChanged, rolePermissionsChangedEntry{name, e})
	}
	if e, ok := h.(CacheInvalidated); ok {
		r.cacheInvalidated = append(r.cacheInvalidated, cacheInvalidatedEntry{name, e})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// EmitAfterCheck notifies all hooks that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, principalKind, principalID string, verdict any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, principalKind, principalID, verdict); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// EmitRoleAssigned notifies all hooks that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, a *assignment.Assignment) {
	for _, e := range r.roleAssigned {
		if err := e.hook.OnRoleAssigned(ctx, a); err != nil {
			r.logHookError("OnRoleAssigned", e.name, err)
		}
	}
}

// EmitAssignmentRevoked notifies all hooks that implement AssignmentRevoked.
func (r *Registry) EmitAssignmentRevoked(ctx context.Context, a *assignment.Assignment) {
	for _, e := range r.assignmentRevoked {
		if err := e.hook.OnAssignmentRevoked(ctx, a); err != nil {
			r.logHookError("OnAssignmentRevoked", e.name, err)
		}
	}
}

// EmitRolePermissionsChanged notifies all hooks that implement RolePermissionsChanged.
func (r *Registry) EmitRolePermissionsChanged(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.rolePermissionsChanged {
		if err := e.hook.OnRolePermissionsChanged(ctx, roleID); err != nil {
			r.logHookError("OnRolePermissionsChanged", e.name, err)
		}
	}
}

// EmitCacheInvalidated notifies all hooks that implement CacheInvalidated.
func (r *Registry) EmitCacheInvalidated(ctx context.Context, principalKind, principalID string) {
	for _, e := range r.cacheInvalidated {
		if err := e.hook.OnCacheInvalidated(ctx, principalKind, principalID); err != nil {
			r.logHookError("OnCacheInvalidated", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block resolution.
func (r *Registry) logHookError(event, hookName string, err error) {
	r.logger.Warn("hook error",
		slog.String("event", event),
		slog.String("hook", hookName),
		slog.String("error", err.Error()),
	)
}
