// Package assignment defines the Assignment entity (role to principal binding).
package assignment

import (
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// Assignment binds a role to a principal. A principal may hold several
// concurrent assignments.
type Assignment struct {
	ID            id.AssignmentID `json:"id" db:"id"`
	RoleID        id.RoleID       `json:"role_id" db:"role_id"`
	PrincipalKind string          `json:"principal_kind" db:"principal_kind"`
	PrincipalID   string          `json:"principal_id" db:"principal_id"`
	AssignedBy    string          `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt    time.Time       `json:"assigned_at" db:"assigned_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	IsActive      bool            `json:"is_active" db:"is_active"`

	// CustomPermissions overrides the role's grants for this assignment
	// only. true grants a slug beyond the role; false revokes a slug the
	// role would otherwise grant.
	CustomPermissions map[string]bool `json:"custom_permissions,omitempty" db:"custom_permissions"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Current reports whether the assignment contributes to permission
// resolution at the given instant: active and not expired.
func (a *Assignment) Current(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}

	return true
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	RoleID        *id.RoleID `json:"role_id,omitempty"`
	PrincipalKind string     `json:"principal_kind,omitempty"`
	PrincipalID   string     `json:"principal_id,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
