// Package seed installs the marketplace's built-in permission catalog and
// system roles. Apply is idempotent and safe to run on every startup.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
	"github.com/mercatohq/gatehouse/store"
)

type permissionSeed struct {
	Slug        string
	Name        string
	Description string
	Category    string
}

type roleSeed struct {
	Slug        string
	Name        string
	Description string
	Type        role.Type
	Priority    int
	Permissions []string
}

// Permission catalog: resource:action pairs for every marketplace surface.
var permissionSeeds = []permissionSeed{
	{Slug: "products:manage", Name: "Manage Products", Description: "Create, edit and delete products", Category: "catalog"},
	{Slug: "products:view", Name: "View Products", Description: "Browse the product catalog", Category: "catalog"},
	{Slug: "orders:manage", Name: "Manage Orders", Description: "Process, refund and cancel orders", Category: "fulfilment"},
	{Slug: "orders:view", Name: "View Orders", Description: "Browse orders", Category: "fulfilment"},
	{Slug: "users:manage", Name: "Manage Users", Description: "Administer platform user accounts", Category: "platform"},
	{Slug: "users:view", Name: "View Users", Description: "Browse platform user accounts", Category: "platform"},
	{Slug: "suppliers:manage", Name: "Manage Suppliers", Description: "Onboard, suspend and edit suppliers", Category: "platform"},
	{Slug: "suppliers:view", Name: "View Suppliers", Description: "Browse supplier records", Category: "platform"},
	{Slug: "supplier_financials:manage", Name: "Manage Supplier Financials", Description: "Edit payout and billing settings", Category: "supplier"},
	{Slug: "supplier_financials:view", Name: "View Supplier Financials", Description: "See payouts, invoices and balances", Category: "supplier"},
	{Slug: "supplier_team:manage", Name: "Manage Supplier Team", Description: "Invite and remove supplier team members", Category: "supplier"},
	{Slug: "supplier_team:view", Name: "View Supplier Team", Description: "See supplier team membership", Category: "supplier"},
	{Slug: "supplier_settings:manage", Name: "Manage Supplier Settings", Description: "Edit supplier storefront settings", Category: "supplier"},
	{Slug: "supplier_settings:view", Name: "View Supplier Settings", Description: "See supplier storefront settings", Category: "supplier"},
	{Slug: "supplier_analytics:view", Name: "View Supplier Analytics", Description: "See supplier sales and traffic reports", Category: "supplier"},
}

// Role catalog. Priority orders primary-role selection; higher wins.
var roleSeeds = []roleSeed{
	{
		Slug: "platform_admin", Name: "Platform Admin", Type: role.TypeAdmin, Priority: 100,
		Description: "Full administrative access to every platform surface",
		Permissions: []string{
			"products:manage", "products:view",
			"orders:manage", "orders:view",
			"users:manage", "users:view",
			"suppliers:manage", "suppliers:view",
		},
	},
	{
		Slug: "product_admin", Name: "Product Admin", Type: role.TypeAdmin, Priority: 60,
		Description: "Manages the product catalog",
		Permissions: []string{"products:manage", "products:view", "suppliers:view"},
	},
	{
		Slug: "order_admin", Name: "Order Admin", Type: role.TypeAdmin, Priority: 60,
		Description: "Manages orders and fulfilment",
		Permissions: []string{"orders:manage", "orders:view", "products:view"},
	},
	{
		Slug: "user_admin", Name: "User Admin", Type: role.TypeAdmin, Priority: 50,
		Description: "Administers platform user accounts",
		Permissions: []string{"users:manage", "users:view"},
	},
	{
		Slug: "supplier_admin", Name: "Supplier Admin", Type: role.TypeAdmin, Priority: 50,
		Description: "Onboards and manages suppliers",
		Permissions: []string{"suppliers:manage", "suppliers:view", "users:view"},
	},
	{
		Slug: "supplier_owner", Name: "Supplier Owner", Type: role.TypeSupplier, Priority: 90,
		Description: "Full control of one supplier account",
		Permissions: []string{
			"products:manage", "products:view",
			"orders:manage", "orders:view",
			"supplier_financials:manage", "supplier_financials:view",
			"supplier_team:manage", "supplier_team:view",
			"supplier_settings:manage", "supplier_settings:view",
			"supplier_analytics:view",
		},
	},
	{
		Slug: "supplier_manager", Name: "Supplier Manager", Type: role.TypeSupplier, Priority: 70,
		Description: "Day-to-day supplier operations without financial control",
		Permissions: []string{
			"products:manage", "products:view",
			"orders:manage", "orders:view",
			"supplier_team:view",
			"supplier_settings:manage", "supplier_settings:view",
			"supplier_analytics:view",
		},
	},
	{
		Slug: "supplier_staff", Name: "Supplier Staff", Type: role.TypeSupplier, Priority: 40,
		Description: "Catalog and order handling",
		Permissions: []string{"products:view", "orders:view", "orders:manage"},
	},
	{
		Slug: "supplier_analyst", Name: "Supplier Analyst", Type: role.TypeSupplier, Priority: 30,
		Description: "Read-only reporting access",
		Permissions: []string{"products:view", "orders:view", "supplier_analytics:view"},
	},
	{
		Slug: "support_readonly", Name: "Support Read-Only", Type: role.TypeSystem, Priority: 10,
		Description: "Read-only access for support staff across both populations",
		Permissions: []string{"products:view", "orders:view", "suppliers:view", "users:view"},
	},
}

// Apply installs the built-in catalog: every seed permission and role is
// created if missing, and each seed role's permission set is synced to
// the catalog definition. Existing roles keep their slug and ID, so
// assignments survive re-seeding.
func Apply(ctx context.Context, s store.Store) error {
	permsBySlug := make(map[string]id.PermissionID, len(permissionSeeds))

	for _, ps := range permissionSeeds {
		p, err := ensurePermission(ctx, s, ps)
		if err != nil {
			return err
		}
		permsBySlug[p.Slug] = p.ID
	}

	for _, rs := range roleSeeds {
		r, err := ensureRole(ctx, s, rs)
		if err != nil {
			return err
		}

		permIDs := make([]id.PermissionID, 0, len(rs.Permissions))
		for _, slug := range rs.Permissions {
			pid, ok := permsBySlug[slug]
			if !ok {
				return fmt.Errorf("gatehouse/seed: role %q references unknown permission %q", rs.Slug, slug)
			}
			permIDs = append(permIDs, pid)
		}
		if err := s.SetRolePermissions(ctx, r.ID, permIDs); err != nil {
			return fmt.Errorf("gatehouse/seed: sync permissions for role %q: %w", rs.Slug, err)
		}
	}

	return nil
}

func ensurePermission(ctx context.Context, s store.Store, ps permissionSeed) (*permission.Permission, error) {
	existing, err := s.GetPermissionBySlug(ctx, ps.Slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, permission.ErrNotFound) {
		return nil, fmt.Errorf("gatehouse/seed: lookup permission %q: %w", ps.Slug, err)
	}

	resource, action, err := permission.ParseSlug(ps.Slug)
	if err != nil {
		return nil, fmt.Errorf("gatehouse/seed: %w", err)
	}

	p := &permission.Permission{
		ID:          id.NewPermissionID(),
		Slug:        ps.Slug,
		Name:        ps.Name,
		Description: ps.Description,
		Resource:    resource,
		Action:      action,
		Category:    ps.Category,
		IsActive:    true,
		IsSystem:    true,
	}
	if err := s.CreatePermission(ctx, p); err != nil {
		return nil, fmt.Errorf("gatehouse/seed: create permission %q: %w", ps.Slug, err)
	}
	return p, nil
}

func ensureRole(ctx context.Context, s store.Store, rs roleSeed) (*role.Role, error) {
	existing, err := s.GetRoleBySlug(ctx, rs.Slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, role.ErrNotFound) {
		return nil, fmt.Errorf("gatehouse/seed: lookup role %q: %w", rs.Slug, err)
	}

	r := &role.Role{
		ID:          id.NewRoleID(),
		Slug:        rs.Slug,
		Name:        rs.Name,
		Description: rs.Description,
		Type:        rs.Type,
		Priority:    rs.Priority,
		IsActive:    true,
		IsSystem:    true,
	}
	if err := s.CreateRole(ctx, r); err != nil {
		return nil, fmt.Errorf("gatehouse/seed: create role %q: %w", rs.Slug, err)
	}
	return r, nil
}
