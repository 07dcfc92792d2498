package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/api/handler"
	"github.com/helpinghands/volunteer-dashboard/internal/api/middleware"
	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
	"github.com/helpinghands/volunteer-dashboard/internal/pkg/config"
	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

// Dependencies are the collaborators the router wires into handlers and
// middleware.
type Dependencies struct {
	Identity   ports.IdentityProvider
	Volunteers ports.VolunteerRepository
	Roles      ports.RoleStore

	Accounts ports.AccountService
	Stats    ports.StatsService
	Hours    ports.HoursService
	RoleAdm  ports.RoleService

	Audit      ports.AuditRecorder
	AuditLog   ports.AuditRepository
	QueryCache *querycache.QueryCache
	Health     []handler.HealthCheck

	// Registerer receives the HTTP request metrics; Gatherer backs /metrics.
	// Both default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg config.SessionConfig, deps Dependencies, log zerolog.Logger) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	cookie := middleware.SessionCookie{Name: cfg.CookieName, Secure: cfg.CookieSecure}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "volunteer",
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}))
	e.Use(middleware.SessionRefresh(middleware.SessionOptions{
		Identity: deps.Identity,
		Lookups: authcache.Lookups{
			Volunteers: deps.Volunteers,
			Roles:      deps.Roles,
		},
		Cookie:      cookie,
		SignInPath:  cfg.SignInPath,
		PublicPaths: cfg.PublicPaths,
		Log:         log,
	}))
	e.Use(middleware.QueryCache(deps.QueryCache))

	guardOpts := middleware.GuardOptions{
		SignInPath:    cfg.SignInPath,
		FallbackRoute: cfg.FallbackRoute,
		Audit:         deps.Audit,
	}
	authenticated := middleware.RequireAuth(guardOpts)
	administrators := middleware.Guard(guard.All(domain.RoleAdmin), guardOpts)
	reviewers := middleware.Guard(guard.Any(domain.RoleAdmin, domain.RoleProgramOfficer), guardOpts)
	reporters := middleware.Guard(guard.Any(domain.RoleAdmin, domain.RoleProgramOfficer, domain.RoleHeads), guardOpts)

	// --- Handlers ---
	health := handler.NewHealthHandler(deps.Health...)
	pages := handler.NewPageHandler()
	accounts := handler.NewAccountHandler(deps.Accounts, cookie)
	stats := handler.NewStatsHandler(deps.Stats)
	hours := handler.NewHoursHandler(deps.Hours)
	roles := handler.NewRoleHandler(deps.RoleAdm, deps.AuditLog)

	// --- Probes and metrics (public) ---
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))

	// --- Public pages ---
	e.GET("/sign-in", pages.SignIn)
	e.POST("/sign-in", accounts.SignIn)
	e.POST("/sign-up", accounts.SignUp)
	e.GET("/auth/callback", pages.AuthCallback)
	e.GET("/offline", pages.Offline)

	// Sign-out only needs the session validated above, not a profile.
	e.POST("/sign-out", accounts.SignOut)

	// --- Guarded pages ---
	e.GET("/dashboard", pages.Dashboard, authenticated)
	e.GET("/admin", pages.Admin, middleware.Guard(guard.Any(domain.RoleAdmin), guardOpts))
	e.GET("/reports", pages.Reports, reviewers)

	// --- API ---
	v := e.Group("/api")
	v.GET("/me", accounts.Me, authenticated)
	v.GET("/me/is-admin", accounts.IsAdmin)

	v.GET("/stats", stats.Stats, authenticated)
	v.GET("/stats/trends", stats.Trends, reporters)
	v.GET("/categories", stats.Categories, authenticated)
	v.GET("/roles", stats.Roles, authenticated)

	v.POST("/hours", hours.Log, authenticated)
	v.POST("/hours/:id/approve", hours.Approve, reviewers)
	v.POST("/hours/:id/reject", hours.Reject, reviewers)

	adm := v.Group("/admin/volunteers/:id", administrators)
	adm.POST("/roles", roles.Grant)
	adm.DELETE("/roles/:role", roles.Revoke)
	adm.GET("/roles/check", roles.Check)
	adm.GET("/audit", roles.Audit)

	return e
}

// requestLogger logs one line per request through zerolog. Aborted
// requests are not logged.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			if errors.Is(v.Error, context.Canceled) || v.Status == statusClientClosedRequest {
				return nil
			}
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
