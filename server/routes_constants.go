package server

// Route path constants
const (
	// Public registration
	RouteIndex    = "/"
	RouteRegister = "/register"

	// Admin login & logout
	RouteAdminLogin  = "/admin/login"
	RouteAdminLogout = "/admin/logout"

	// Admin screens, all behind the guard
	RouteAdminDashboard         = "/admin/dashboard"
	RouteAdminApplication       = "/admin/view/{id}"
	RouteAdminApplicationPrint  = "/admin/view/{id}/print"
	RouteAdminApplicationDelete = "/admin/view/{id}/delete"
	RouteAdminApplicationEdit   = "/admin/edit/{id}"
	RouteAdminFinancials        = "/admin/financials/"
	RouteAdminLedger            = "/admin/financials/{ledger}"
	RouteAdminLedgerEntry       = "/admin/financials/{ledger}/{id}"
	RouteAdminLedgerEntryDelete = "/admin/financials/{ledger}/{id}/delete"
	RouteAdminFinancialReport   = "/admin/financials/report"

	// Machine readable
	RouteAdminSession = "/admin/session"
	RouteMetrics      = "/metrics"
	RouteHealth       = "/healthz"
)
