package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/decisionlog"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:gatehouse_roles"`
	ID              string    `grove:"id,pk"`
	Slug            string    `grove:"slug,notnull"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Type            string    `grove:"type,notnull"`
	Priority        int       `grove:"priority,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	IsSystem        bool      `grove:"is_system,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Type:        string(r.Type),
		Priority:    r.Priority,
		IsActive:    r.IsActive,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		Type:        role.Type(m.Type),
		Priority:    m.Priority,
		IsActive:    m.IsActive,
		IsSystem:    m.IsSystem,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:gatehouse_permissions"`
	ID              string    `grove:"id,pk"`
	Slug            string    `grove:"slug,notnull"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Resource        string    `grove:"resource,notnull"`
	Action          string    `grove:"action,notnull"`
	Category        string    `grove:"category"`
	IsActive        bool      `grove:"is_active,notnull"`
	IsSystem        bool      `grove:"is_system,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Resource:    p.Resource,
		Action:      p.Action,
		Category:    p.Category,
		IsActive:    p.IsActive,
		IsSystem:    p.IsSystem,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		Resource:    m.Resource,
		Action:      m.Action,
		Category:    m.Category,
		IsActive:    m.IsActive,
		IsSystem:    m.IsSystem,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role-Permission junction model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:gatehouse_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel   `grove:"table:gatehouse_assignments"`
	ID                string     `grove:"id,pk"`
	RoleID            string     `grove:"role_id,notnull"`
	PrincipalKind     string     `grove:"principal_kind,notnull"`
	PrincipalID       string     `grove:"principal_id,notnull"`
	AssignedBy        string     `grove:"assigned_by"`
	AssignedAt        time.Time  `grove:"assigned_at,notnull"`
	ExpiresAt         *time.Time `grove:"expires_at"`
	IsActive          bool       `grove:"is_active,notnull"`
	CustomPermissions string     `grove:"custom_permissions"` // JSON text
	CreatedAt         time.Time  `grove:"created_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) (*assignmentModel, error) {
	overrides, err := json.Marshal(a.CustomPermissions)
	if err != nil {
		return nil, fmt.Errorf("marshal custom permissions: %w", err)
	}
	return &assignmentModel{
		ID:                a.ID.String(),
		RoleID:            a.RoleID.String(),
		PrincipalKind:     a.PrincipalKind,
		PrincipalID:       a.PrincipalID,
		AssignedBy:        a.AssignedBy,
		AssignedAt:        a.AssignedAt,
		ExpiresAt:         a.ExpiresAt,
		IsActive:          a.IsActive,
		CustomPermissions: string(overrides),
		CreatedAt:         a.CreatedAt,
	}, nil
}

func assignmentFromModel(m *assignmentModel) (*assignment.Assignment, error) {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	var overrides map[string]bool
	if m.CustomPermissions != "" && m.CustomPermissions != "null" {
		if err := json.Unmarshal([]byte(m.CustomPermissions), &overrides); err != nil {
			return nil, fmt.Errorf("unmarshal custom permissions: %w", err)
		}
	}
	return &assignment.Assignment{
		ID:                aid,
		RoleID:            rid,
		PrincipalKind:     m.PrincipalKind,
		PrincipalID:       m.PrincipalID,
		AssignedBy:        m.AssignedBy,
		AssignedAt:        m.AssignedAt,
		ExpiresAt:         m.ExpiresAt,
		IsActive:          m.IsActive,
		CustomPermissions: overrides,
		CreatedAt:         m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:gatehouse_decision_logs"`
	ID              string    `grove:"id,pk"`
	PrincipalKind   string    `grove:"principal_kind,notnull"`
	PrincipalID     string    `grove:"principal_id,notnull"`
	Slug            string    `grove:"slug,notnull"`
	Allowed         bool      `grove:"allowed,notnull"`
	Source          string    `grove:"source,notnull"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:            e.ID.String(),
		PrincipalKind: e.PrincipalKind,
		PrincipalID:   e.PrincipalID,
		Slug:          e.Slug,
		Allowed:       e.Allowed,
		Source:        e.Source,
		EvalTimeNs:    e.EvalTimeNs,
		CreatedAt:     e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:            lid,
		PrincipalKind: m.PrincipalKind,
		PrincipalID:   m.PrincipalID,
		Slug:          m.Slug,
		Allowed:       m.Allowed,
		Source:        m.Source,
		EvalTimeNs:    m.EvalTimeNs,
		CreatedAt:     m.CreatedAt,
	}
}
