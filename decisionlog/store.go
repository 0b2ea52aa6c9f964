package decisionlog

import (
	"context"
	"errors"
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// ErrNotFound is returned by stores when an entry does not exist.
var ErrNotFound = errors.New("decisionlog: not found")

// Store defines persistence operations for decision logs.
type Store interface {
	// CreateEntry persists a new decision log entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// GetEntry retrieves a decision log entry by ID.
	GetEntry(ctx context.Context, logID id.DecisionLogID) (*Entry, error)

	// ListEntries returns entries matching the filter, newest first.
	ListEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountEntries returns the number of entries matching the filter.
	CountEntries(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeEntries removes entries older than the given time and returns
	// how many were deleted.
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)
}
