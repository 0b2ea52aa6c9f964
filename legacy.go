package gatehouse

// Permission slugs the legacy boolean flags map onto. Mutation APIs accept
// any well-formed "resource:action" slug; these constants cover the slugs
// the fallback path can grant.
const (
	SlugProductsManage         = "products:manage"
	SlugOrdersManage           = "orders:manage"
	SlugUsersManage            = "users:manage"
	SlugSuppliersManage        = "suppliers:manage"
	SlugSupplierFinancialsView = "supplier_financials:view"
	SlugSupplierTeamManage     = "supplier_team:manage"
	SlugSupplierSettingsManage = "supplier_settings:manage"
	SlugSupplierAnalyticsView  = "supplier_analytics:view"
)

// adminLegacyGrants maps an admin's legacy capability flags to slugs.
// Slugs absent from the returned map have no legacy equivalent and are
// denied by the fallback path.
func adminLegacyGrants(a Admin) map[string]bool {
	return map[string]bool{
		SlugProductsManage:  a.CanManageProducts,
		SlugOrdersManage:    a.CanManageOrders,
		SlugUsersManage:     a.CanManageUsers,
		SlugSuppliersManage: a.CanManageSuppliers,
	}
}

// supplierLegacyGrants maps a supplier member's legacy capability flags
// to slugs.
func supplierLegacyGrants(m SupplierMember) map[string]bool {
	return map[string]bool{
		SlugProductsManage:         m.CanManageProducts,
		SlugOrdersManage:           m.CanManageOrders,
		SlugSupplierFinancialsView: m.CanViewFinancials,
		SlugSupplierTeamManage:     m.CanManageTeam,
		SlugSupplierSettingsManage: m.CanManageSettings,
		SlugSupplierAnalyticsView:  m.CanViewAnalytics,
	}
}
