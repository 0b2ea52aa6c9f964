// Package permission defines the Permission entity and its store interface.
package permission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// ErrInvalidSlug is returned when a slug is not "resource:action" with
// both parts non-empty.
var ErrInvalidSlug = errors.New("permission: invalid slug")

// Permission represents a specific action on a resource, identified by a
// slug of the form "resource:action".
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Slug        string          `json:"slug" db:"slug"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Resource    string          `json:"resource" db:"resource"`
	Action      string          `json:"action" db:"action"`
	Category    string          `json:"category,omitempty" db:"category"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	IsSystem    bool            `json:"is_system" db:"is_system"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ParseSlug splits a "resource:action" slug into its parts, validating
// that both are non-empty.
func ParseSlug(slug string) (resource, action string, err error) {
	resource, action, ok := strings.Cut(slug, ":")
	if !ok || resource == "" || action == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	return resource, action, nil
}

// ValidSlug reports whether slug is of the form "resource:action".
func ValidSlug(slug string) bool {
	_, _, err := ParseSlug(slug)
	return err == nil
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	Category string `json:"category,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
