// Package role defines the Role entity and its store interface.
package role

import (
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// Type constrains which principal population a role can be assigned to.
type Type string

const (
	// TypeAdmin roles are assignable to platform administrators only.
	TypeAdmin Type = "admin"

	// TypeSupplier roles are assignable to supplier team members only.
	TypeSupplier Type = "supplier"

	// TypeSystem roles are assignable to either population.
	TypeSystem Type = "system"
)

// Role represents a named bundle of permissions assignable to principals.
type Role struct {
	ID          id.RoleID `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Type        Type      `json:"type" db:"type"`

	// Priority orders roles for primary-role selection; higher wins.
	Priority int `json:"priority" db:"priority"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	IsSystem  bool      `json:"is_system" db:"is_system"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AssignableTo reports whether this role can be held by a principal of the
// given kind ("admin" or "supplier_member"). System roles fit both.
func (r *Role) AssignableTo(principalKind string) bool {
	switch r.Type {
	case TypeSystem:
		return true
	case TypeAdmin:
		return principalKind == "admin"
	case TypeSupplier:
		return principalKind == "supplier_member"
	default:
		return false
	}
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	Type     Type   `json:"type,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
