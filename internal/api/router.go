package api

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ledgerdesk/admin-console/internal/api/handler"
	"github.com/ledgerdesk/admin-console/internal/api/middleware"
	"github.com/ledgerdesk/admin-console/internal/core/ports"
	"github.com/ledgerdesk/admin-console/web"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Auth       ports.AuthService
	Sessions   ports.SessionStore
	Workspaces handler.Workspaces
	Cookie     handler.CookieConfig

	DefaultTimezone string
	RenderWait      time.Duration
	Readiness       []handler.Check

	// Metrics receives the HTTP metrics. Defaults to the Prometheus default
	// registerer.
	Metrics prometheus.Registerer

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	if d.Metrics == nil {
		d.Metrics = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: d.Metrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie, d.DefaultTimezone, d.Log)
	usersHandler := handler.NewUsersHandler(d.Workspaces, d.RenderWait, d.Log)
	invoicesHandler := handler.NewInvoicesHandler(d.Workspaces, d.RenderWait)
	viewsHandler := handler.NewViewsHandler(d.Workspaces)
	streamHandler := handler.NewStreamHandler(d.Workspaces, d.Log)

	guiGate := middleware.SessionGate(middleware.GateConfig{
		Store: d.Sessions, Cookie: d.Cookie.Name, Mode: middleware.Redirect, LoginPath: "/", Log: d.Log,
	})
	apiGate := middleware.SessionGate(middleware.GateConfig{
		Store: d.Sessions, Cookie: d.Cookie.Name, Mode: middleware.Reject, Log: d.Log,
	})

	// --- Public routes ---
	e.StaticFS("/static", static)
	e.GET("/", authHandler.LoginPage)
	e.POST("/login", authHandler.LoginForm)
	e.POST("/api/auth/login", authHandler.LoginJSON)

	// --- Pages (redirect to sign-in without a session) ---
	gui := e.Group("", guiGate)
	gui.POST("/logout", authHandler.Logout)
	gui.GET("/users", usersHandler.Page)
	gui.POST("/users", usersHandler.Create)
	gui.POST("/users/role/cancel", usersHandler.CancelRole)
	gui.GET("/users/:id/role", usersHandler.RoleForm)
	gui.POST("/users/:id/role", usersHandler.SubmitRole)
	gui.GET("/users/:id/delete", usersHandler.DeleteConfirm)
	gui.POST("/users/:id/delete", usersHandler.Delete)
	gui.GET("/invoices", invoicesHandler.Page)

	// --- API and live stream (401 without a session) ---
	apiGroup := e.Group("/api", apiGate)
	apiGroup.GET("/views/:view", viewsHandler.Snapshot)
	apiGroup.POST("/views/:view/filter", viewsHandler.Filter)
	apiGroup.GET("/notifications", viewsHandler.Notifications)
	e.GET("/ws/views/:view", streamHandler.Stream, apiGate)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
