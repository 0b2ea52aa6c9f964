package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// ErrNotFound is returned by stores when an assignment does not exist.
var ErrNotFound = errors.New("assignment: not found")

// Store defines persistence operations for role assignments.
type Store interface {
	// CreateAssignment persists a new assignment.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*Assignment, error)

	// UpdateAssignment persists changes to an assignment.
	UpdateAssignment(ctx context.Context, a *Assignment) error

	// DeleteAssignment removes an assignment by ID.
	DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error

	// ListAssignments returns assignments matching the filter, ordered by
	// creation.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// CountAssignments returns the number of assignments matching the filter.
	CountAssignments(ctx context.Context, filter *ListFilter) (int64, error)

	// ListCurrentAssignments returns a principal's assignments that are
	// active and unexpired at the given instant, ordered by creation.
	ListCurrentAssignments(ctx context.Context, principalKind, principalID string, now time.Time) ([]*Assignment, error)

	// ListAssignmentsByRole returns all assignments for a role.
	ListAssignmentsByRole(ctx context.Context, roleID id.RoleID) ([]*Assignment, error)

	// DeleteExpiredAssignments removes assignments expired before now and
	// returns how many were deleted.
	DeleteExpiredAssignments(ctx context.Context, now time.Time) (int64, error)

	// DeleteAssignmentsByPrincipal removes all assignments for a principal.
	DeleteAssignmentsByPrincipal(ctx context.Context, principalKind, principalID string) error
}
