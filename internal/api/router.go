package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/xplr/session-gateway/docs"
	"github.com/xplr/session-gateway/internal/api/handler"
	"github.com/xplr/session-gateway/internal/api/middleware"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/internal/core/service"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Log       zerolog.Logger
	Sessions  *service.SessionService
	Navigator *service.Navigator
	Rates     *service.RatesService
	Backend   ports.Backend
	// Audit is nil when the audit trail is disabled.
	Audit     ports.AuditRepository
	Device    middleware.DeviceOptions
	SPADir    string
	Origins   []string
	Readiness map[string]handler.Pinger
	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry, which also holds the gateway's own metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			d.Log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.Origins,
		AllowCredentials: true,
	}))

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "xplr_gateway",
		Registerer: registerer,
	}))

	// --- Probes, metrics, docs (no device identity) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	device := middleware.Device(d.Device)

	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Navigator, d.Audit)
	navHandler := handler.NewNavigationHandler(d.Sessions, d.Navigator)
	authHandler := handler.NewAuthHandler(d.Backend, d.Sessions, d.Navigator)
	ratesHandler := handler.NewRatesHandler(d.Rates, d.Sessions, d.Navigator)
	proxyHandler := handler.NewProxyHandler(d.Backend, d.Sessions, d.Navigator)
	dashboardHandler := handler.NewDashboardHandler(d.Backend, d.Sessions, d.Navigator, d.Log)

	v1 := e.Group("/v1", device)

	v1.GET("/session", sessionHandler.Get)
	v1.POST("/session/onboarding", sessionHandler.CompleteOnboarding)
	v1.PUT("/session/mode", sessionHandler.SetMode)
	v1.POST("/session/mode/toggle", sessionHandler.ToggleMode)
	v1.POST("/session/logout", sessionHandler.Logout)
	v1.GET("/session/events", sessionHandler.Events)

	v1.GET("/navigate", navHandler.Navigate)
	v1.GET("/routes", navHandler.Routes)

	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/register", authHandler.Register)

	v1.GET("/rates", ratesHandler.Get)
	v1.POST("/rates/refresh", ratesHandler.Refresh)
	v1.PUT("/rates", ratesHandler.Set)

	v1.GET("/dashboard", dashboardHandler.Get)
	v1.Any("/api/*", proxyHandler.Forward)

	// --- Screens: every navigation passes the guard first ---
	if d.SPADir != "" {
		e.Static("/assets", d.SPADir+"/assets")
	}
	screen := handler.NewScreenHandler(d.SPADir)
	guard := middleware.ScreenGuard(d.Sessions, d.Navigator)
	for _, path := range d.Navigator.Routes().Paths() {
		e.GET(path, screen.Serve, device, guard)
	}
	// Anything else is an unknown screen; the guard sends it to the root.
	e.GET("/*", screen.Serve, device, guard)

	return e
}
