package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/api/metrics"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const defaultFallbackRoute = "/dashboard"

// GuardOptions configures Guard.
type GuardOptions struct {
	SignInPath string
	// FallbackRoute receives authenticated volunteers lacking the required
	// roles. Defaults to /dashboard.
	FallbackRoute string
	// Fallback, when set, renders the unauthenticated and unauthorized
	// states in place instead of redirecting.
	Fallback echo.HandlerFunc
	Audit    ports.AuditRecorder
}

// stateBody is the neutral body of non-content guard states.
type stateBody struct {
	State string `json:"state"`
}

// Guard evaluates req against the request's auth cache and renders the
// resulting state. Under /api/ the unauthenticated, unauthorized and
// profile-missing states become errors for the HTTP error handler.
func Guard(req guard.Requirement, opts GuardOptions) echo.MiddlewareFunc {
	if opts.SignInPath == "" {
		opts.SignInPath = "/sign-in"
	}
	if opts.FallbackRoute == "" {
		opts.FallbackRoute = defaultFallbackRoute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			api := isAPIPath(r.URL.Path)

			var subject guard.Subject
			if cache := AuthCache(c); cache != nil {
				subject = cache
			}
			d := guard.Evaluate(r.Context(), subject, req)
			metrics.AuthDecisionsTotal.WithLabelValues(req.Mode.String(), d.State.String()).Inc()

			switch d.State {
			case guard.StateAuthorized:
				return next(c)

			case guard.StateUnauthenticated:
				if api {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
				if opts.Fallback != nil {
					return opts.Fallback(c)
				}
				return c.Redirect(http.StatusFound, signInURL(opts.SignInPath, r.URL.RequestURI()))

			case guard.StateUnauthorized:
				if opts.Audit != nil {
					opts.Audit.Record(domain.AuditEntry{
						Kind:      domain.AuditForbidden,
						ActorID:   d.Volunteer.ID,
						SubjectID: d.Volunteer.ID,
						Roles:     req.Roles,
						Path:      r.URL.Path,
						Outcome:   "denied",
					})
				}
				if api {
					return d.Err
				}
				if opts.Fallback != nil {
					return opts.Fallback(c)
				}
				return c.Redirect(http.StatusFound, opts.FallbackRoute)

			case guard.StateProfileMissing:
				if api {
					return d.Err
				}
				return c.JSON(http.StatusOK, stateBody{State: "no_profile"})

			case guard.StateLoading:
				if api {
					return d.Err
				}
				return c.JSON(http.StatusAccepted, stateBody{State: "loading"})

			case guard.StateFailed:
				return d.Err
			}
			return d.Err
		}
	}
}

// RequireAuth demands a valid session without any role.
func RequireAuth(opts GuardOptions) echo.MiddlewareFunc {
	return Guard(guard.Authenticated(), opts)
}
