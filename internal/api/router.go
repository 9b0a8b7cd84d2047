package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/salesdesk/backoffice/docs"
	"github.com/salesdesk/backoffice/internal/api/handler"
	"github.com/salesdesk/backoffice/internal/api/middleware"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth      ports.AuthService
	Tokens    ports.TokenVerifier
	Users     ports.UserService
	Clients   ports.ClientService
	Contracts ports.ContractService
	History   ports.HistoryService
	Stats     ports.StatsService
	Export    ports.ExportService
}

// Options tunes the router. A nil Registerer/Gatherer means the Prometheus
// defaults.
type Options struct {
	Pages      handler.PageLimits
	Health     map[string]ports.Pinger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(log zerolog.Logger, svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	registerer, gatherer := opts.Registerer, opts.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper:    probeSkipper,
	}))

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(opts.Health).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	apiGroup := e.Group("/api")

	authHandler := handler.NewAuthHandler(svc.Auth)
	apiGroup.POST("/login", authHandler.Login)

	authed := apiGroup.Group("", middleware.Auth(svc.Tokens))
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Users (admin) ---
	users := handler.NewUserHandler(svc.Users, opts.Pages)
	userGroup := authed.Group("/users", adminOnly)
	userGroup.GET("", users.List)
	userGroup.POST("", users.Create)
	userGroup.GET("/:id", users.Get)
	userGroup.PUT("/:id", users.Update)
	userGroup.DELETE("/:id", users.Delete)

	// --- Clients (policy enforced by the service) ---
	clients := handler.NewClientHandler(svc.Clients, opts.Pages)
	authed.GET("/clients", clients.List)
	authed.POST("/clients", clients.Create)
	authed.GET("/clients/:id", clients.Get)
	authed.PUT("/clients/:id", clients.Update)
	authed.DELETE("/clients/:id", clients.Delete)

	// --- Contracts ---
	contracts := handler.NewContractHandler(svc.Contracts)
	authed.GET("/contratos", contracts.List)
	authed.POST("/contratos", contracts.Create)
	authed.GET("/contratos/:id", contracts.Get)
	authed.PUT("/contratos/:id", contracts.Update)
	authed.DELETE("/contratos/:id", contracts.Delete)

	// --- Reports (admin) ---
	reports := handler.NewReportHandler(svc.History, svc.Stats, svc.Export)
	authed.GET("/history", reports.History, adminOnly)
	authed.GET("/estatisticas", reports.Statistics, adminOnly)
	authed.POST("/export", reports.Export, adminOnly)

	return e
}

func probeSkipper(c echo.Context) bool {
	switch c.Path() {
	case "/health", "/health/ready", "/metrics":
		return true
	}
	return false
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      probeSkipper,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= 500 {
				event = log.Error()
			}
			event = event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID)
			if identity, ok := middleware.IdentityFrom(c); ok {
				event = event.Int64("user_id", identity.ID)
			}
			event.Msg("request")
			return nil
		},
	})
}
