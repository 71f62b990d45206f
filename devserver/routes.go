package devserver

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dream1290/dbxui-sub000/users"
)

func (s *Server) initRoutes() {
	public := s.APIMiddleware()
	authed := s.APIMiddleware(s.RequireAuth())
	operator := s.APIMiddleware(s.RequireAuth(), s.RequireRole(users.RoleOperator))
	analyst := s.APIMiddleware(s.RequireAuth(), s.RequireRole(users.RoleOperator, users.RoleAnalyst))
	admin := s.APIMiddleware(s.RequireAuth(), s.RequireRole(users.RoleAdmin))

	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(s.PreflightHandler(), public...))

	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthResetPassword, ChainMiddleware(s.ResetPasswordHandler(), public...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), authed...))
	s.RegisterRouteFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), authed...))

	// FLIGHTS
	s.RegisterRouteFunc("GET "+RouteFlights, ChainMiddleware(s.ListFlightsHandler(), authed...))
	s.RegisterRouteFunc("GET "+RouteFlightID, ChainMiddleware(s.GetFlightHandler(), authed...))
	s.RegisterRouteFunc("POST "+RouteFlights, ChainMiddleware(s.CreateFlightHandler(), operator...))
	s.RegisterRouteFunc("PUT "+RouteFlightID, ChainMiddleware(s.UpdateFlightHandler(), operator...))
	s.RegisterRouteFunc("DELETE "+RouteFlightID, ChainMiddleware(s.DeleteFlightHandler(), operator...))

	// ANALYSIS
	s.RegisterRouteFunc("POST "+RouteAnalyze, ChainMiddleware(s.AnalyzeHandler(), analyst...))
	s.RegisterRouteFunc("POST "+RouteBatchAnalyze, ChainMiddleware(s.BatchAnalyzeHandler(), analyst...))

	// ADMIN
	s.RegisterRouteFunc("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), admin...))
	s.RegisterRouteFunc("PUT "+RouteAdminUserRole, ChainMiddleware(s.AdminUpdateRoleHandler(), admin...))
	s.RegisterRouteFunc("GET "+RouteAdminUserActivity, ChainMiddleware(s.AdminUserActivityHandler(), admin...))
	s.RegisterRouteFunc("GET "+RouteAdminDatabaseStatus, ChainMiddleware(s.DatabaseStatusHandler(), admin...))

	// SYSTEM
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), public...))
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
