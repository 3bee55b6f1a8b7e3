package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/schoolhealth/notification-sync/internal/api/handler"
	"github.com/schoolhealth/notification-sync/internal/api/middleware"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
	"github.com/schoolhealth/notification-sync/internal/infrastructure/http/handlers"

	_ "github.com/schoolhealth/notification-sync/docs"
)

// Dependencies are the components the local API is built from.
type Dependencies struct {
	Auth    ports.AuthService
	Inbox   handler.InboxView
	Refresh handler.RefreshTrigger

	SessionStore handlers.Pinger
	// Realtime is nil when no WebSocket endpoint is configured.
	Realtime handlers.ConnectionStatus

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("notifysync_http"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Log, deps.Inbox)
	notificationHandler := handler.NewNotificationHandler(deps.Inbox, deps.Refresh)
	requireSession := middleware.RequireSession(deps.Auth)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.Session)

	// --- Notification routes ---
	v1 := e.Group("/v1", requireSession)
	v1.GET("/notifications", notificationHandler.List)
	v1.POST("/notifications/reload", notificationHandler.Reload)
	v1.POST("/notifications/open", notificationHandler.Open)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)
	v1.POST("/refresh", notificationHandler.Refresh, middleware.StaffOnly())

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.SessionStore, deps.Realtime)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
