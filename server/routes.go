package server

const (
	RouteLogin       = "/auth/login"
	RouteCallback    = "/auth/google/callback"
	RouteLogout      = "/auth/logout"
	RouteLoginFailed = "/auth/failed"

	RouteHealth  = "/healthz"
	RouteAPIMe   = "/api/me"
	RouteAccount = "/account"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginRedirectHandler())
	s.RegisterRouteFunc("GET "+RouteCallback, s.OAuthCallbackHandler())
	s.RegisterRouteFunc("POST "+RouteLogout, s.LogoutHandler())
	s.RegisterRouteFunc("GET "+RouteLoginFailed, s.LoginFailedHandler())

	// API
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	// Pages
	s.RegisterRouteHandler("GET "+RouteAccount, ChainMiddleware(s.AccountHandler(), s.LoggingMiddleware, s.RecoverMiddleware, s.RequireSession))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
