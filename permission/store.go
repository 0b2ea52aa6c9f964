package permission

import (
	"context"
	"errors"

	"github.com/mercatohq/gatehouse/id"
)

// ErrNotFound is returned by stores when a permission does not exist.
var ErrNotFound = errors.New("permission: not found")

// Store defines persistence operations for permissions.
type Store interface {
	// CreatePermission persists a new permission.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// GetPermissionBySlug retrieves a permission by its unique slug.
	GetPermissionBySlug(ctx context.Context, slug string) (*Permission, error)

	// UpdatePermission persists changes to a permission.
	UpdatePermission(ctx context.Context, p *Permission) error

	// DeletePermission removes a permission by ID.
	DeletePermission(ctx context.Context, permID id.PermissionID) error

	// ListPermissions returns permissions matching the filter.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// CountPermissions returns the number of permissions matching the filter.
	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)

	// ListActiveSlugs returns the slugs of every active permission.
	ListActiveSlugs(ctx context.Context) ([]string, error)

	// ListActivePermissionsByRole returns the active permissions attached
	// to a role.
	ListActivePermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*Permission, error)
}
