package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
)

// AssignOptions carries the optional parts of a role assignment.
type AssignOptions struct {
	// AssignedBy records who performed the assignment.
	AssignedBy string

	// ExpiresAt makes the assignment temporary. Nil means no expiry.
	ExpiresAt *time.Time

	// CustomPermissions seeds per-assignment overrides. Every key must be
	// a well-formed "resource:action" slug.
	CustomPermissions map[string]bool
}

// AssignRole grants a role to a principal. The role must exist, be
// active, and be assignable to the principal's kind. The principal's
// cache entries are invalidated before returning, so the next check
// observes the new assignment.
func (r *Resolver) AssignRole(ctx context.Context, p Principal, roleID id.RoleID, opts AssignOptions) (*assignment.Assignment, error) {
	rl, err := r.getRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !rl.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrRoleInactive, rl.Slug)
	}
	if !rl.AssignableTo(string(p.PrincipalKind())) {
		return nil, fmt.Errorf("%w: role %s (type %s) for kind %s",
			ErrRoleKindMismatch, rl.Slug, rl.Type, p.PrincipalKind())
	}
	if err := validateOverrides(opts.CustomPermissions); err != nil {
		return nil, err
	}

	now := r.now()
	a := &assignment.Assignment{
		ID:                id.NewAssignmentID(),
		RoleID:            roleID,
		PrincipalKind:     string(p.PrincipalKind()),
		PrincipalID:       p.PrincipalID(),
		AssignedBy:        opts.AssignedBy,
		AssignedAt:        now,
		ExpiresAt:         opts.ExpiresAt,
		IsActive:          true,
		CustomPermissions: opts.CustomPermissions,
		CreatedAt:         now,
	}
	if err := r.store.CreateAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("gatehouse: create assignment: %w", err)
	}

	r.invalidatePrincipal(ctx, p.PrincipalKind(), p.PrincipalID())
	if r.hooks != nil {
		r.hooks.EmitRoleAssigned(ctx, a)
	}
	return a, nil
}

// RevokeAssignment deletes an assignment and invalidates its holder.
func (r *Resolver) RevokeAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	a, err := r.getAssignment(ctx, asgnID)
	if err != nil {
		return err
	}
	if err := r.store.DeleteAssignment(ctx, asgnID); err != nil {
		return fmt.Errorf("gatehouse: delete assignment: %w", err)
	}

	r.invalidatePrincipal(ctx, PrincipalKind(a.PrincipalKind), a.PrincipalID)
	if r.hooks != nil {
		r.hooks.EmitAssignmentRevoked(ctx, a)
	}
	return nil
}

// DeactivateAssignment marks an assignment inactive without deleting it
// and invalidates its holder.
func (r *Resolver) DeactivateAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	a, err := r.getAssignment(ctx, asgnID)
	if err != nil {
		return err
	}
	a.IsActive = false
	if err := r.store.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("gatehouse: update assignment: %w", err)
	}

	r.invalidatePrincipal(ctx, PrincipalKind(a.PrincipalKind), a.PrincipalID)
	if r.hooks != nil {
		r.hooks.EmitAssignmentRevoked(ctx, a)
	}
	return nil
}

// SetAssignmentExpiry updates an assignment's expiry and invalidates its
// holder. A nil expiresAt clears the expiry.
func (r *Resolver) SetAssignmentExpiry(ctx context.Context, asgnID id.AssignmentID, expiresAt *time.Time) error {
	a, err := r.getAssignment(ctx, asgnID)
	if err != nil {
		return err
	}
	a.ExpiresAt = expiresAt
	if err := r.store.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("gatehouse: update assignment: %w", err)
	}

	r.invalidatePrincipal(ctx, PrincipalKind(a.PrincipalKind), a.PrincipalID)
	return nil
}

// SetCustomPermissions replaces an assignment's per-assignment overrides
// and invalidates its holder.
func (r *Resolver) SetCustomPermissions(ctx context.Context, asgnID id.AssignmentID, overrides map[string]bool) error {
	if err := validateOverrides(overrides); err != nil {
		return err
	}

	a, err := r.getAssignment(ctx, asgnID)
	if err != nil {
		return err
	}
	a.CustomPermissions = overrides
	if err := r.store.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("gatehouse: update assignment: %w", err)
	}

	r.invalidatePrincipal(ctx, PrincipalKind(a.PrincipalKind), a.PrincipalID)
	return nil
}

// GrantPermissionToRole links a permission to a role and invalidates
// every principal currently holding the role.
func (r *Resolver) GrantPermissionToRole(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	if err := r.store.AttachPermission(ctx, roleID, permID); err != nil {
		return fmt.Errorf("gatehouse: attach permission: %w", err)
	}
	r.invalidateRoleHolders(ctx, roleID)
	if r.hooks != nil {
		r.hooks.EmitRolePermissionsChanged(ctx, roleID)
	}
	return nil
}

// RevokePermissionFromRole unlinks a permission from a role and
// invalidates every principal currently holding the role.
func (r *Resolver) RevokePermissionFromRole(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	if err := r.store.DetachPermission(ctx, roleID, permID); err != nil {
		return fmt.Errorf("gatehouse: detach permission: %w", err)
	}
	r.invalidateRoleHolders(ctx, roleID)
	if r.hooks != nil {
		r.hooks.EmitRolePermissionsChanged(ctx, roleID)
	}
	return nil
}

// SetRolePermissions replaces a role's permission set and invalidates
// every principal currently holding the role.
func (r *Resolver) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	if err := r.store.SetRolePermissions(ctx, roleID, permIDs); err != nil {
		return fmt.Errorf("gatehouse: set role permissions: %w", err)
	}
	r.invalidateRoleHolders(ctx, roleID)
	if r.hooks != nil {
		r.hooks.EmitRolePermissionsChanged(ctx, roleID)
	}
	return nil
}

// DeactivateRole marks a role inactive and invalidates its holders.
// Deactivation, not deletion, is the supported path for system roles.
func (r *Resolver) DeactivateRole(ctx context.Context, roleID id.RoleID) error {
	rl, err := r.getRole(ctx, roleID)
	if err != nil {
		return err
	}
	rl.IsActive = false
	rl.UpdatedAt = r.now()
	if err := r.store.UpdateRole(ctx, rl); err != nil {
		return fmt.Errorf("gatehouse: update role: %w", err)
	}
	r.invalidateRoleHolders(ctx, roleID)
	return nil
}

// DeleteRole removes a non-system role and invalidates its holders.
func (r *Resolver) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	rl, err := r.getRole(ctx, roleID)
	if err != nil {
		return err
	}
	if rl.IsSystem {
		return fmt.Errorf("%w: %s", ErrSystemRoleImmutable, rl.Slug)
	}

	// Invalidate before the role row disappears so the holder list is
	// still readable.
	r.invalidateRoleHolders(ctx, roleID)

	if err := r.store.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("gatehouse: delete role: %w", err)
	}
	return nil
}

// DeactivatePermission marks a permission inactive and invalidates all
// cached verdicts. Deactivation is the supported path for system
// permissions, which can never be deleted.
func (r *Resolver) DeactivatePermission(ctx context.Context, permID id.PermissionID) error {
	perm, err := r.getPermission(ctx, permID)
	if err != nil {
		return err
	}
	perm.IsActive = false
	perm.UpdatedAt = r.now()
	if err := r.store.UpdatePermission(ctx, perm); err != nil {
		return fmt.Errorf("gatehouse: update permission: %w", err)
	}
	r.invalidateAll(ctx)
	return nil
}

// DeletePermission removes a non-system permission and invalidates all
// cached verdicts.
func (r *Resolver) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	perm, err := r.getPermission(ctx, permID)
	if err != nil {
		return err
	}
	if perm.IsSystem {
		return fmt.Errorf("%w: %s", ErrSystemPermissionImmutable, perm.Slug)
	}
	if err := r.store.DeletePermission(ctx, permID); err != nil {
		return fmt.Errorf("gatehouse: delete permission: %w", err)
	}
	r.invalidateAll(ctx)
	return nil
}

// LegacyFlagsChanged invalidates a principal's cache entries. The account
// layer calls it after mutating the legacy boolean flags so a degraded
// resolver never serves stale fallback data from the cache.
func (r *Resolver) LegacyFlagsChanged(ctx context.Context, p Principal) {
	r.invalidatePrincipal(ctx, p.PrincipalKind(), p.PrincipalID())
}

// PurgeExpiredAssignments deletes assignments whose expiry has passed.
// Expired assignments are already excluded from resolution; this is
// housekeeping only, so no invalidation is needed.
func (r *Resolver) PurgeExpiredAssignments(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpiredAssignments(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("gatehouse: purge expired assignments: %w", err)
	}
	return n, nil
}

// getRole maps a missing row to ErrRoleNotFound; data-access failures
// pass through unmasked so callers can tell an outage from a bad ID.
func (r *Resolver) getRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	rl, err := r.store.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
		}
		return nil, fmt.Errorf("gatehouse: get role: %w", err)
	}
	return rl, nil
}

func (r *Resolver) getPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	perm, err := r.store.GetPermission(ctx, permID)
	if err != nil {
		if errors.Is(err, permission.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionNotFound, permID)
		}
		return nil, fmt.Errorf("gatehouse: get permission: %w", err)
	}
	return perm, nil
}

func (r *Resolver) getAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	a, err := r.store.GetAssignment(ctx, asgnID)
	if err != nil {
		if errors.Is(err, assignment.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssignmentNotFound, asgnID)
		}
		return nil, fmt.Errorf("gatehouse: get assignment: %w", err)
	}
	return a, nil
}

// validateOverrides checks every override key is a well-formed slug.
func validateOverrides(overrides map[string]bool) error {
	for slug := range overrides {
		if !permission.ValidSlug(slug) {
			return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
		}
	}
	return nil
}

func (r *Resolver) invalidatePrincipal(ctx context.Context, kind PrincipalKind, pid string) {
	if r.cache != nil {
		r.cache.InvalidatePrincipal(ctx, kind, pid)
	}
	if r.hooks != nil {
		r.hooks.EmitCacheInvalidated(ctx, string(kind), pid)
	}
}

func (r *Resolver) invalidateAll(ctx context.Context) {
	if r.cache != nil {
		r.cache.InvalidateAll(ctx)
	}
	if r.hooks != nil {
		r.hooks.EmitCacheInvalidated(ctx, "", "")
	}
}

// invalidateRoleHolders invalidates every principal holding the role.
// If the holder list cannot be read the whole cache is flushed; stale
// grants are worse than a cold cache.
func (r *Resolver) invalidateRoleHolders(ctx context.Context, roleID id.RoleID) {
	holders, err := r.store.ListAssignmentsByRole(ctx, roleID)
	if err != nil {
		r.logger.Warn("listing role holders failed, flushing cache",
			slog.String("role_id", roleID.String()),
			slog.String("error", err.Error()),
		)
		r.invalidateAll(ctx)
		return
	}

	seen := make(map[string]struct{}, len(holders))
	for _, a := range holders {
		key := a.PrincipalKind + "/" + a.PrincipalID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		r.invalidatePrincipal(ctx, PrincipalKind(a.PrincipalKind), a.PrincipalID)
	}
}
