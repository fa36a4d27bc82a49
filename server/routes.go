package server

import (
	"net/http"

	"github.com/bafcc/camp-admin/internal/metrics"
)

func (s *Server) initRoutes() {
	// PUBLIC
	s.RegisterRouteFunc("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare("index")...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.HTMLMiddleWare("register")...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteAdminLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare("login")...))
	s.RegisterRouteFunc("POST "+RouteAdminLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare("login_submit", s.LoginRateLimitMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteAdminLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare("logout")...))

	// ADMIN
	s.RegisterRouteFunc("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), s.HTMLMiddleWare("dashboard", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminApplication, ChainMiddleware(s.AdminApplicationHandler(), s.HTMLMiddleWare("application", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminApplicationPrint, ChainMiddleware(s.AdminApplicationPrintHandler(), s.HTMLMiddleWare("application_print", s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAdminApplicationDelete, ChainMiddleware(s.AdminApplicationDeleteHandler(), s.HTMLMiddleWare("application_delete", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminApplicationEdit, ChainMiddleware(s.AdminApplicationEditHandler(), s.HTMLMiddleWare("application_edit", s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAdminApplicationEdit, ChainMiddleware(s.AdminApplicationUpdateHandler(), s.HTMLMiddleWare("application_update", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminFinancials+"{$}", ChainMiddleware(s.AdminFinancialsIndexHandler(), s.HTMLMiddleWare("financials", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminLedger, ChainMiddleware(s.AdminFinancialsHandler(), s.HTMLMiddleWare("ledger", s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAdminLedger, ChainMiddleware(s.AdminLedgerSaveHandler(), s.HTMLMiddleWare("ledger_create", s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAdminLedgerEntry, ChainMiddleware(s.AdminLedgerSaveHandler(), s.HTMLMiddleWare("ledger_update", s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteAdminLedgerEntryDelete, ChainMiddleware(s.AdminLedgerDeleteHandler(), s.HTMLMiddleWare("ledger_delete", s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteAdminFinancialReport, ChainMiddleware(s.AdminFinancialReportHandler(), s.HTMLMiddleWare("financial_report", s.RequireSession)...))

	// API
	s.RegisterRouteFunc("GET "+RouteAdminSession, ChainMiddleware(s.SessionStateHandler(), s.APIMiddleware("session")...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	if s.config.GetMetricsEnabled() {
		s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())
	}

	s.mux.HandleFunc("/", ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare("not_found")...))
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	}
}
