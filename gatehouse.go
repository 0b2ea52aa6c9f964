// Package gatehouse provides permission resolution for a multi-tenant
// e-commerce marketplace backend.
//
// Gatehouse answers "does this principal currently hold this permission"
// for two principal populations: platform administrators and supplier team
// members. Resolution is RBAC-based (roles linked to permissions through
// assignments, with per-assignment custom overrides), cached with a TTL,
// and backed by a legacy boolean-flag fallback when the RBAC data layer
// is unavailable.
//
//	res, err := gatehouse.New(
//	    gatehouse.WithStore(memStore),
//	    gatehouse.WithCache(cache.NewMemory()),
//	)
//	if res.HasPermission(ctx, admin, "products:manage") {
//	    // ...
//	}
package gatehouse

// PrincipalKind identifies the population a principal belongs to.
type PrincipalKind string

const (
	// KindAdmin represents a platform administrator account.
	KindAdmin PrincipalKind = "admin"

	// KindSupplierMember represents a member of a supplier's team.
	KindSupplierMember PrincipalKind = "supplier_member"
)

// RoleSuperAdmin is the legacy role value that bypasses all permission
// checks for admin principals.
const RoleSuperAdmin = "super_admin"

// Principal is an actor whose permissions can be resolved. Both Admin and
// SupplierMember satisfy it.
type Principal interface {
	// PrincipalKind returns the population this principal belongs to.
	PrincipalKind() PrincipalKind

	// PrincipalID returns the principal's unique identifier within its kind.
	PrincipalID() string

	// SuperAdmin reports whether this principal bypasses all checks.
	SuperAdmin() bool

	// LegacyRole returns the principal's coarse legacy role string.
	LegacyRole() string

	// LegacyGrants returns the permission slugs derivable from the
	// principal's legacy boolean flags. Used only when RBAC evaluation
	// fails; slugs absent from the map are denied.
	LegacyGrants() map[string]bool
}

// Admin is a platform administrator principal.
type Admin struct {
	ID   string `json:"id"`
	Role string `json:"role"`

	// Legacy capability flags, consulted only when RBAC data is
	// unavailable.
	CanManageProducts  bool `json:"can_manage_products"`
	CanManageOrders    bool `json:"can_manage_orders"`
	CanManageUsers     bool `json:"can_manage_users"`
	CanManageSuppliers bool `json:"can_manage_suppliers"`
}

// PrincipalKind implements Principal.
func (a Admin) PrincipalKind() PrincipalKind { return KindAdmin }

// PrincipalID implements Principal.
func (a Admin) PrincipalID() string { return a.ID }

// SuperAdmin reports whether the admin's legacy role is the super-admin
// sentinel. Super admins pass every check, including unknown slugs.
func (a Admin) SuperAdmin() bool { return a.Role == RoleSuperAdmin }

// LegacyRole implements Principal.
func (a Admin) LegacyRole() string { return a.Role }

// LegacyGrants implements Principal.
func (a Admin) LegacyGrants() map[string]bool {
	return adminLegacyGrants(a)
}

// SupplierMember is a member of a supplier's team.
type SupplierMember struct {
	ID         string `json:"id"`
	SupplierID string `json:"supplier_id"`
	Role       string `json:"role"`

	// Legacy capability flags, consulted only when RBAC data is
	// unavailable.
	CanManageProducts  bool `json:"can_manage_products"`
	CanManageOrders    bool `json:"can_manage_orders"`
	CanViewFinancials  bool `json:"can_view_financials"`
	CanManageTeam      bool `json:"can_manage_team"`
	CanManageSettings  bool `json:"can_manage_settings"`
	CanViewAnalytics   bool `json:"can_view_analytics"`
}

// PrincipalKind implements Principal.
func (m SupplierMember) PrincipalKind() PrincipalKind { return KindSupplierMember }

// PrincipalID implements Principal.
func (m SupplierMember) PrincipalID() string { return m.ID }

// SuperAdmin always reports false; supplier members never bypass checks.
func (m SupplierMember) SuperAdmin() bool { return false }

// LegacyRole implements Principal.
func (m SupplierMember) LegacyRole() string { return m.Role }

// LegacyGrants implements Principal.
func (m SupplierMember) LegacyGrants() map[string]bool {
	return supplierLegacyGrants(m)
}

// Verdict is the outcome of a permission check.
type Verdict struct {
	Allowed    bool   `json:"allowed"`
	Source     Source `json:"source"`
	Slug       string `json:"slug"`
	EvalTimeNs int64  `json:"eval_time_ns"`
}

// Source identifies which resolution stage produced a verdict.
type Source string

const (
	// SourceSuperAdmin means the super-admin bypass short-circuited the check.
	SourceSuperAdmin Source = "superadmin"

	// SourceCache means a cached verdict was returned.
	SourceCache Source = "cache"

	// SourceRBAC means the verdict came from evaluating role assignments.
	SourceRBAC Source = "rbac"

	// SourceLegacy means RBAC evaluation failed and the legacy boolean
	// flags decided the outcome.
	SourceLegacy Source = "legacy"
)
