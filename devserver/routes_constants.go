package devserver

const (
	RouteAuthLogin          = "/api/v2/auth/login"
	RouteAuthRegister       = "/api/v2/auth/register"
	RouteAuthRefresh        = "/api/v2/auth/refresh"
	RouteAuthLogout         = "/api/v2/auth/logout"
	RouteAuthForgotPassword = "/api/v2/auth/forgot-password"
	RouteAuthResetPassword  = "/api/v2/auth/reset-password"
	RouteAuthMe             = "/api/v2/auth/me"

	RouteFlights  = "/api/v2/flights"
	RouteFlightID = "/api/v2/flights/{id}"

	RouteAnalyze      = "/api/v2/analyze"
	RouteBatchAnalyze = "/api/v2/batch-analyze"

	RouteAdminUsers          = "/api/v2/admin/users"
	RouteAdminUserRole       = "/api/v2/admin/users/{id}/role"
	RouteAdminUserActivity   = "/api/v2/admin/users/{id}/activity"
	RouteAdminDatabaseStatus = "/api/v2/admin/database/status"

	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealth        = "/health"
	RouteMetrics       = "/metrics"
)
