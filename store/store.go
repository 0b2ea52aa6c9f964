// Package store defines the composite persistence interface for gatehouse.
package store

import (
	"context"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/decisionlog"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
)

// Store is the composite persistence interface. Every backend implements
// all entity stores plus lifecycle operations.
type Store interface {
	role.Store
	permission.Store
	assignment.Store
	decisionlog.Store

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
