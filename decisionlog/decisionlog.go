// Package decisionlog defines the permission decision audit Entry entity.
package decisionlog

import (
	"time"

	"github.com/mercatohq/gatehouse/id"
)

// Entry is a single permission resolution audit record.
type Entry struct {
	ID            id.DecisionLogID `json:"id" db:"id"`
	PrincipalKind string           `json:"principal_kind" db:"principal_kind"`
	PrincipalID   string           `json:"principal_id" db:"principal_id"`
	Slug          string           `json:"slug" db:"slug"`
	Allowed       bool             `json:"allowed" db:"allowed"`

	// Source records which stage produced the verdict: superadmin, cache,
	// rbac, or legacy.
	Source string `json:"source" db:"source"`

	EvalTimeNs int64     `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	PrincipalKind string     `json:"principal_kind,omitempty"`
	PrincipalID   string     `json:"principal_id,omitempty"`
	Slug          string     `json:"slug,omitempty"`
	Allowed       *bool      `json:"allowed,omitempty"`
	Source        string     `json:"source,omitempty"`
	After         *time.Time `json:"after,omitempty"`
	Before        *time.Time `json:"before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
