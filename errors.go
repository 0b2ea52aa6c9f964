package gatehouse

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a check fails. The
	// message is deliberately generic and never reveals why.
	ErrAccessDenied = errors.New("gatehouse: insufficient privileges")

	// ErrStoreRequired is returned by New when no store is configured.
	ErrStoreRequired = errors.New("gatehouse: store is required")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("gatehouse: role not found")

	// ErrRoleInactive is returned when assigning a deactivated role.
	ErrRoleInactive = errors.New("gatehouse: role is inactive")

	// ErrRoleKindMismatch is returned when a role's type is incompatible
	// with the principal kind it is being assigned to.
	ErrRoleKindMismatch = errors.New("gatehouse: role type incompatible with principal kind")

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = errors.New("gatehouse: permission not found")

	// ErrAssignmentNotFound is returned when an assignment cannot be found.
	ErrAssignmentNotFound = errors.New("gatehouse: assignment not found")

	// ErrInvalidSlug is returned when a permission slug is not of the
	// form "resource:action" with both parts non-empty.
	ErrInvalidSlug = errors.New("gatehouse: invalid permission slug")

	// ErrSystemRoleImmutable is returned when trying to delete a system role.
	ErrSystemRoleImmutable = errors.New("gatehouse: system role cannot be deleted")

	// ErrSystemPermissionImmutable is returned when trying to delete a system permission.
	ErrSystemPermissionImmutable = errors.New("gatehouse: system permission cannot be deleted")
)
