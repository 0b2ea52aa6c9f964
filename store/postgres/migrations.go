package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the gatehouse store (PostgreSQL).
var Migrations = migrate.NewGroup("gatehouse")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_roles (
    id              TEXT PRIMARY KEY,
    slug            TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    type            TEXT NOT NULL,
    priority        INTEGER NOT NULL DEFAULT 0,
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_roles_type ON gatehouse_roles (type, is_active);
CREATE INDEX IF NOT EXISTS idx_gatehouse_roles_priority ON gatehouse_roles (priority);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_permissions",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_permissions (
    id              TEXT PRIMARY KEY,
    slug            TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    resource        TEXT NOT NULL,
    action          TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT '',
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    is_system       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_permissions_resource ON gatehouse_permissions (resource, action);
CREATE INDEX IF NOT EXISTS idx_gatehouse_permissions_active ON gatehouse_permissions (is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_permissions",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_role_permissions (
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    permission_id   TEXT NOT NULL REFERENCES gatehouse_permissions(id) ON DELETE CASCADE,

    PRIMARY KEY (role_id, permission_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_role_perms_role ON gatehouse_role_permissions (role_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_role_perms_perm ON gatehouse_role_permissions (permission_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_role_permissions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_assignments",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_assignments (
    id                  TEXT PRIMARY KEY,
    role_id             TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    principal_kind      TEXT NOT NULL,
    principal_id        TEXT NOT NULL,
    assigned_by         TEXT NOT NULL DEFAULT '',
    assigned_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at          TIMESTAMPTZ,
    is_active           BOOLEAN NOT NULL DEFAULT TRUE,
    custom_permissions  JSONB NOT NULL DEFAULT '{}',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_asgn_principal ON gatehouse_assignments (principal_kind, principal_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_asgn_role ON gatehouse_assignments (role_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_asgn_expires ON gatehouse_assignments (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_assignments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20250301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_decision_logs (
    id              TEXT PRIMARY KEY,
    principal_kind  TEXT NOT NULL,
    principal_id    TEXT NOT NULL,
    slug            TEXT NOT NULL,
    allowed         BOOLEAN NOT NULL,
    source          TEXT NOT NULL,
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_dlogs_principal ON gatehouse_decision_logs (principal_kind, principal_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_dlogs_slug ON gatehouse_decision_logs (slug);
CREATE INDEX IF NOT EXISTS idx_gatehouse_dlogs_created ON gatehouse_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_decision_logs`)
				return err
			},
		},
	)
}
