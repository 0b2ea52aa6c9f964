package gatehouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
	"github.com/mercatohq/gatehouse/store"
	"github.com/mercatohq/gatehouse/store/memory"
)

func TestAssignRole_UnknownRole(t *testing.T) {
	ctx := context.Background()
	res, _ := newTestResolver(t)
	admin := Admin{ID: "a1"}

	_, err := res.AssignRole(ctx, admin, id.NewRoleID(), AssignOptions{})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestAssignRole_InactiveRole(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "retired", role.TypeAdmin, 10)
	r.IsActive = false
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	_, err := res.AssignRole(ctx, admin, r.ID, AssignOptions{})
	if !errors.Is(err, ErrRoleInactive) {
		t.Fatalf("expected ErrRoleInactive, got %v", err)
	}
}

func TestAssignRole_KindMismatch(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)

	adminRole := mustRole(t, s, "user_admin", role.TypeAdmin, 50)
	supplierRole := mustRole(t, s, "supplier_staff", role.TypeSupplier, 40)
	systemRole := mustRole(t, s, "support_readonly", role.TypeSystem, 10)

	member := SupplierMember{ID: "m1", SupplierID: "sup1"}
	admin := Admin{ID: "a1"}

	if _, err := res.AssignRole(ctx, member, adminRole.ID, AssignOptions{}); !errors.Is(err, ErrRoleKindMismatch) {
		t.Fatalf("admin role on supplier member: expected ErrRoleKindMismatch, got %v", err)
	}
	if _, err := res.AssignRole(ctx, admin, supplierRole.ID, AssignOptions{}); !errors.Is(err, ErrRoleKindMismatch) {
		t.Fatalf("supplier role on admin: expected ErrRoleKindMismatch, got %v", err)
	}

	// System roles fit both populations.
	if _, err := res.AssignRole(ctx, admin, systemRole.ID, AssignOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := res.AssignRole(ctx, member, systemRole.ID, AssignOptions{}); err != nil {
		t.Fatal(err)
	}
}

func TestAssignRole_RejectsMalformedOverrides(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "user_admin", role.TypeAdmin, 50)
	_, err := res.AssignRole(ctx, admin, r.ID, AssignOptions{
		CustomPermissions: map[string]bool{"not-a-slug": true},
	})
	if !errors.Is(err, ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}
}

func TestRevokeAssignment(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "product_admin", role.TypeAdmin, 60, "products:manage")
	a := mustAssign(t, res, admin, r.ID, AssignOptions{})

	if !res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("expected grant before revoke")
	}
	if err := res.RevokeAssignment(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("expected deny after revoke")
	}

	if err := res.RevokeAssignment(ctx, a.ID); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestDeactivateAssignment(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "product_admin", role.TypeAdmin, 60, "products:manage")
	a := mustAssign(t, res, admin, r.ID, AssignOptions{})

	if err := res.DeactivateAssignment(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("inactive assignment must not grant")
	}

	// The row survives deactivation.
	if _, err := s.GetAssignment(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
}

func TestSetCustomPermissions(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "product_admin", role.TypeAdmin, 60, "products:manage")
	a := mustAssign(t, res, admin, r.ID, AssignOptions{})

	if err := res.SetCustomPermissions(ctx, a.ID, map[string]bool{"bad slug": true}); !errors.Is(err, ErrInvalidSlug) {
		t.Fatalf("expected ErrInvalidSlug, got %v", err)
	}

	if err := res.SetCustomPermissions(ctx, a.ID, map[string]bool{"products:manage": false}); err != nil {
		t.Fatal(err)
	}
	if res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("override must apply on the next check")
	}
}

func TestDeleteRole_SystemImmutable(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)

	r := mustRole(t, s, "platform_admin", role.TypeAdmin, 100)
	r.IsSystem = true
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	if err := res.DeleteRole(ctx, r.ID); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable, got %v", err)
	}

	// Deactivation is the supported path for system roles.
	if err := res.DeactivateRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteRole_InvalidatesHolders(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "temp_role", role.TypeAdmin, 10, "products:manage")
	mustAssign(t, res, admin, r.ID, AssignOptions{})

	if !res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("expected grant before delete")
	}
	if err := res.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("expected deny after role deleted")
	}
}

func TestDeleteRole_CascadesAssignments(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)

	// Legacy flag is set: after the delete the deny must come from rbac
	// on the healthy store, never from the legacy fallback.
	admin := Admin{ID: "a1", Role: "product_admin", CanManageProducts: true}
	r := mustRole(t, s, "temp_role", role.TypeAdmin, 10, "products:manage")
	a := mustAssign(t, res, admin, r.ID, AssignOptions{})

	if err := res.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetAssignment(ctx, a.ID); !errors.Is(err, assignment.ErrNotFound) {
		t.Fatalf("expected assignment cascade-deleted, got %v", err)
	}

	v := res.Check(ctx, admin, SlugProductsManage)
	if v.Allowed {
		t.Fatal("expected deny after role deleted")
	}
	if v.Source != SourceRBAC {
		t.Fatalf("expected clean rbac deny, got %s", v.Source)
	}
}

func TestMutationErrorsAreNotMaskedAsNotFound(t *testing.T) {
	ctx := context.Background()
	res, err := New(WithStore(&brokenStore{Store: memory.New()}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = res.AssignRole(ctx, Admin{ID: "a1"}, id.NewRoleID(), AssignOptions{})
	if errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("store outage must not read as role-not-found: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}

	err = res.RevokeAssignment(ctx, id.NewAssignmentID())
	if errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("store outage must not read as assignment-not-found: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}

	err = res.DeletePermission(ctx, id.NewPermissionID())
	if errors.Is(err, ErrPermissionNotFound) {
		t.Fatalf("store outage must not read as permission-not-found: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error to surface, got %v", err)
	}
}

// brokenStore fails every point read with a transport error.
type brokenStore struct {
	store.Store
}

func (b *brokenStore) GetRole(context.Context, id.RoleID) (*role.Role, error) {
	return nil, errStoreDown
}

func (b *brokenStore) GetPermission(context.Context, id.PermissionID) (*permission.Permission, error) {
	return nil, errStoreDown
}

func (b *brokenStore) GetAssignment(context.Context, id.AssignmentID) (*assignment.Assignment, error) {
	return nil, errStoreDown
}

func TestDeletePermission_SystemImmutable(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)

	p := &permission.Permission{
		ID: id.NewPermissionID(), Slug: "orders:view", Name: "orders:view",
		Resource: "orders", Action: "view", IsActive: true, IsSystem: true,
	}
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := res.DeletePermission(ctx, p.ID); !errors.Is(err, ErrSystemPermissionImmutable) {
		t.Fatalf("expected ErrSystemPermissionImmutable, got %v", err)
	}
	if err := res.DeactivatePermission(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPermission(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Fatal("expected permission deactivated")
	}
}

func TestDeactivatePermission_StopsGranting(t *testing.T) {
	ctx := context.Background()
	res, s := newTestResolver(t)
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "product_admin", role.TypeAdmin, 60, "products:manage")
	mustAssign(t, res, admin, r.ID, AssignOptions{})

	if !res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("expected grant before deactivation")
	}

	p, err := s.GetPermissionBySlug(ctx, "products:manage")
	if err != nil {
		t.Fatal(err)
	}
	if err := res.DeactivatePermission(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if res.HasPermission(ctx, admin, "products:manage") {
		t.Fatal("deactivated permission must not grant")
	}
}

func TestPurgeExpiredAssignments(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: now}
	res, s := newTestResolver(t, WithClock(clock.Now))
	admin := Admin{ID: "a1"}

	r := mustRole(t, s, "product_admin", role.TypeAdmin, 60)
	exp := now.Add(time.Hour)
	expired := mustAssign(t, res, admin, r.ID, AssignOptions{ExpiresAt: &exp})
	keeper := mustAssign(t, res, admin, r.ID, AssignOptions{})

	clock.t = now.Add(2 * time.Hour)
	n, err := res.PurgeExpiredAssignments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged assignment, got %d", n)
	}
	if _, err := s.GetAssignment(ctx, expired.ID); err == nil {
		t.Fatal("expected expired assignment gone")
	}
	if _, err := s.GetAssignment(ctx, keeper.ID); err != nil {
		t.Fatal(err)
	}
}

func TestLegacyFlagsChanged(t *testing.T) {
	ctx := context.Background()
	flaky := &countingStore{Store: memory.New()}
	res, err := New(WithStore(flaky), WithCache(newTestCache()))
	if err != nil {
		t.Fatal(err)
	}

	// Warm the cache with a clean deny while the store is healthy.
	admin := Admin{ID: "a1", Role: "product_admin", CanManageProducts: true}
	v := res.Check(ctx, admin, SlugProductsManage)
	if v.Allowed || v.Source != SourceRBAC {
		t.Fatalf("expected clean rbac deny, got %+v", v)
	}

	// The store degrades and the account layer flips the legacy flag.
	// Without invalidation the stale cached deny would still be served.
	flaky.failListCurrent = true
	res.LegacyFlagsChanged(ctx, admin)

	v = res.Check(ctx, admin, SlugProductsManage)
	if !v.Allowed || v.Source != SourceLegacy {
		t.Fatalf("expected legacy allow after invalidation, got %+v", v)
	}
}
