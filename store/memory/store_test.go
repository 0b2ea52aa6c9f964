package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/decisionlog"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
	"github.com/mercatohq/gatehouse/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{
		ID:       id.NewRoleID(),
		Slug:     "product_admin",
		Name:     "Product Admin",
		Type:     role.TypeAdmin,
		Priority: 60,
		IsActive: true,
	}

	// Create
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Get
	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Product Admin" {
		t.Fatalf("expected Product Admin, got %s", got.Name)
	}

	// GetBySlug
	got, err = s.GetRoleBySlug(ctx, "product_admin")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Fatal("slug lookup mismatch")
	}

	// Update
	r.Name = "Catalog Admin"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Name != "Catalog Admin" {
		t.Fatal("update failed")
	}

	// List and count by type
	list, _ := s.ListRoles(ctx, &role.ListFilter{Type: role.TypeAdmin})
	if len(list) != 1 {
		t.Fatalf("expected 1 role, got %d", len(list))
	}
	count, _ := s.CountRoles(ctx, &role.ListFilter{Type: role.TypeSupplier})
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}

	// Delete
	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, role.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPermissionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &permission.Permission{
		ID:       id.NewPermissionID(),
		Slug:     "products:manage",
		Name:     "Manage Products",
		Resource: "products",
		Action:   "manage",
		IsActive: true,
	}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPermission(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slug != "products:manage" {
		t.Fatal("mismatch")
	}

	got, err = s.GetPermissionBySlug(ctx, "products:manage")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID {
		t.Fatal("slug lookup mismatch")
	}

	if _, err := s.GetPermissionBySlug(ctx, "nope:nope"); !errors.Is(err, permission.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListPermissions(ctx, &permission.ListFilter{Resource: "products"})
	if len(list) != 1 {
		t.Fatalf("expected 1 permission, got %d", len(list))
	}
}

func TestRolePermissionLinks(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{ID: id.NewRoleID(), Slug: "r1", Name: "r1", Type: role.TypeAdmin, IsActive: true}
	p1 := &permission.Permission{ID: id.NewPermissionID(), Slug: "a:b", Name: "a:b", Resource: "a", Action: "b", IsActive: true}
	p2 := &permission.Permission{ID: id.NewPermissionID(), Slug: "c:d", Name: "c:d", Resource: "c", Action: "d", IsActive: false}
	_ = s.CreateRole(ctx, r)
	_ = s.CreatePermission(ctx, p1)
	_ = s.CreatePermission(ctx, p2)

	// Attach is idempotent.
	_ = s.AttachPermission(ctx, r.ID, p1.ID)
	_ = s.AttachPermission(ctx, r.ID, p1.ID)
	_ = s.AttachPermission(ctx, r.ID, p2.ID)

	ids, err := s.ListRolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 links, got %d", len(ids))
	}

	// Only active permissions surface for resolution.
	active, err := s.ListActivePermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Slug != "a:b" {
		t.Fatalf("expected only active a:b, got %v", active)
	}

	// Replace the set wholesale.
	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{p2.ID}); err != nil {
		t.Fatal(err)
	}
	ids, _ = s.ListRolePermissions(ctx, r.ID)
	if len(ids) != 1 || ids[0] != p2.ID {
		t.Fatalf("expected only p2 after replace, got %v", ids)
	}

	_ = s.DetachPermission(ctx, r.ID, p2.ID)
	ids, _ = s.ListRolePermissions(ctx, r.ID)
	if len(ids) != 0 {
		t.Fatalf("expected no links, got %d", len(ids))
	}
}

func TestListActiveSlugs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, tc := range []struct {
		slug   string
		active bool
	}{
		{"b:b", true},
		{"a:a", true},
		{"c:c", false},
	} {
		_ = s.CreatePermission(ctx, &permission.Permission{
			ID: id.NewPermissionID(), Slug: tc.slug, Name: tc.slug,
			Resource: tc.slug[:1], Action: tc.slug[2:], IsActive: tc.active,
		})
	}

	slugs, err := s.ListActiveSlugs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != 2 {
		t.Fatalf("expected 2 active slugs, got %v", slugs)
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	roleID := id.NewRoleID()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	current := &assignment.Assignment{
		ID: id.NewAssignmentID(), RoleID: roleID,
		PrincipalKind: "admin", PrincipalID: "a1",
		IsActive: true, CreatedAt: now.Add(-3 * time.Hour),
	}
	expiring := &assignment.Assignment{
		ID: id.NewAssignmentID(), RoleID: roleID,
		PrincipalKind: "admin", PrincipalID: "a1",
		IsActive: true, ExpiresAt: &future, CreatedAt: now.Add(-2 * time.Hour),
	}
	expired := &assignment.Assignment{
		ID: id.NewAssignmentID(), RoleID: roleID,
		PrincipalKind: "admin", PrincipalID: "a1",
		IsActive: true, ExpiresAt: &past, CreatedAt: now.Add(-1 * time.Hour),
	}
	inactive := &assignment.Assignment{
		ID: id.NewAssignmentID(), RoleID: roleID,
		PrincipalKind: "admin", PrincipalID: "a1",
		IsActive: false, CreatedAt: now,
	}
	for _, a := range []*assignment.Assignment{current, expiring, expired, inactive} {
		if err := s.CreateAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	// Only active, unexpired assignments are current, in creation order.
	got, err := s.ListCurrentAssignments(ctx, "admin", "a1", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 current assignments, got %d", len(got))
	}
	if got[0].ID != current.ID || got[1].ID != expiring.ID {
		t.Fatal("expected creation order")
	}

	// All four belong to the role.
	byRole, _ := s.ListAssignmentsByRole(ctx, roleID)
	if len(byRole) != 4 {
		t.Fatalf("expected 4 assignments by role, got %d", len(byRole))
	}

	// Purge drops only the expired one.
	n, err := s.DeleteExpiredAssignments(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, err := s.GetAssignment(ctx, expired.ID); !errors.Is(err, assignment.ErrNotFound) {
		t.Fatalf("expected expired assignment gone, got %v", err)
	}

	// Principal wipe removes the rest.
	if err := s.DeleteAssignmentsByPrincipal(ctx, "admin", "a1"); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountAssignments(ctx, nil)
	if count != 0 {
		t.Fatalf("expected no assignments, got %d", count)
	}
}

func TestAssignmentCopyIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &assignment.Assignment{
		ID: id.NewAssignmentID(), RoleID: id.NewRoleID(),
		PrincipalKind: "admin", PrincipalID: "a1", IsActive: true,
		CustomPermissions: map[string]bool{"products:manage": true},
	}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetAssignment(ctx, a.ID)
	got.CustomPermissions["products:manage"] = false

	again, _ := s.GetAssignment(ctx, a.ID)
	if !again.CustomPermissions["products:manage"] {
		t.Fatal("store must hand out isolated copies")
	}
}

func TestDecisionLogStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := &decisionlog.Entry{
			ID:            id.NewDecisionLogID(),
			PrincipalKind: "admin",
			PrincipalID:   "a1",
			Slug:          "products:manage",
			Allowed:       i%2 == 0,
			Source:        "rbac",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	// Newest first.
	entries, err := s.ListEntries(ctx, &decisionlog.QueryFilter{PrincipalID: "a1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].CreatedAt.After(entries[2].CreatedAt) {
		t.Fatal("expected newest first")
	}

	allowed := true
	count, _ := s.CountEntries(ctx, &decisionlog.QueryFilter{Allowed: &allowed})
	if count != 2 {
		t.Fatalf("expected 2 allowed entries, got %d", count)
	}

	// Purge everything before the last entry.
	n, err := s.PurgeEntries(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
}
