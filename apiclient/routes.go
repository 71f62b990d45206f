package apiclient

// Backend endpoint paths
const (
	RouteAuthLogin          = "/api/v2/auth/login"
	RouteAuthRegister       = "/api/v2/auth/register"
	RouteAuthRefresh        = "/api/v2/auth/refresh"
	RouteAuthLogout         = "/api/v2/auth/logout"
	RouteAuthForgotPassword = "/api/v2/auth/forgot-password"
	RouteAuthResetPassword  = "/api/v2/auth/reset-password"
	RouteAuthMe             = "/api/v2/auth/me"

	RouteFlights       = "/api/v2/flights"
	RouteAircraft      = "/api/v2/aircraft"
	RouteReports       = "/api/v2/reports"
	RouteNotifications = "/api/v2/notifications"

	RouteAdminUsers          = "/api/v2/admin/users"
	RouteAdminDatabaseStatus = "/api/v2/admin/database/status"

	RouteAnalyze      = "/api/v2/analyze"
	RouteBatchAnalyze = "/api/v2/batch-analyze"
)
