package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/cirestech/usermgmt/internal/api/handler"
	"github.com/cirestech/usermgmt/internal/api/middleware"
	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
	"github.com/cirestech/usermgmt/internal/infrastructure/http/handlers"

	_ "github.com/cirestech/usermgmt/docs"
)

const metricsNamespace = "usermgmt"

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Import    ports.ImportService
	Tokens    ports.TokenValidator
	Readiness []handlers.Dependency
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// HTTP metrics get their own registry so that several routers can live in
	// one process; /metrics serves it together with the default registry.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metricsNamespace,
		Registerer: httpMetrics,
	}))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)                         // liveness  – is the process alive?
	e.GET("/health/ready", handlers.NewReadinessHandler(d.Readiness...).Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{httpMetrics, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Users)
	userHandler := handler.NewUserHandler(d.Users)
	importHandler := handler.NewImportHandler(d.Import)

	authn := middleware.Auth(d.Tokens)
	anyone := []echo.MiddlewareFunc{authn, middleware.RequireRoles()}
	member := []echo.MiddlewareFunc{authn, middleware.RequireRoles(domain.RoleUser, domain.RoleAdmin)}
	admin := []echo.MiddlewareFunc{authn, middleware.RequireRoles(domain.RoleAdmin)}

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	// --- Own profile ---
	api.GET("/users/me", userHandler.Me, member...)
	api.PUT("/users/me", userHandler.UpdateMe, member...)
	api.PUT("/users/me/password", userHandler.ChangePassword, member...)

	// --- Directory administration ---
	api.GET("/users", userHandler.List, admin...)
	api.GET("/users/export/csv", userHandler.Export, admin...)
	api.POST("/users/batch", importHandler.Import, admin...)
	api.GET("/users/id/:id", userHandler.GetByID, admin...)
	api.PUT("/users/:id", userHandler.Update, admin...)
	api.DELETE("/users/:id", userHandler.Delete, admin...)
	api.PATCH("/users/:id/role", userHandler.SetRole, admin...)
	api.PATCH("/users/:id/status", userHandler.SetStatus, admin...)
	api.GET("/stats/users", userHandler.Stats, admin...)

	// Self or admin; the handler applies the ownership rule.
	api.GET("/users/:username", userHandler.GetByUsername, anyone...)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
