package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/api/metrics"
	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const (
	authCacheKey = "auth_cache"
	apiPrefix    = "/api/"
)

// DefaultPublicPaths are reachable without a session.
var DefaultPublicPaths = []string{"/sign-in", "/sign-up", "/auth/callback", "/offline"}

// SessionOptions configures SessionRefresh.
type SessionOptions struct {
	Identity ports.IdentityProvider
	// Lookups back the per-request auth cache. Lookups.Identity defaults
	// to Identity.
	Lookups     authcache.Lookups
	Cookie      SessionCookie
	SignInPath  string
	PublicPaths []string
	Log         zerolog.Logger
}

// SessionRefresh validates the session token of every request against the
// identity provider, refreshes it when it is close to expiry and attaches a
// fresh authcache.Cache to the request. Requests without a valid session
// are redirected to the sign-in page (or rejected with 401 under /api/)
// unless their path is public.
func SessionRefresh(opts SessionOptions) echo.MiddlewareFunc {
	if opts.SignInPath == "" {
		opts.SignInPath = "/sign-in"
	}
	if opts.PublicPaths == nil {
		opts.PublicPaths = DefaultPublicPaths
	}
	if opts.Lookups.Identity == nil {
		opts.Lookups.Identity = opts.Identity
	}
	lookups := countLookups(opts.Lookups)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if isPublicPath(req.URL.Path, opts.PublicPaths) {
				metrics.SessionRefreshTotal.WithLabelValues("public").Inc()
				token, _ := opts.Cookie.Token(req)
				attach(c, authcache.New(token, lookups))
				return next(c)
			}

			token, fromCookie := opts.Cookie.Token(req)
			if token == "" {
				metrics.SessionRefreshTotal.WithLabelValues("missing").Inc()
				return rejectSession(c, opts.SignInPath)
			}

			metrics.IdentityLookupsTotal.WithLabelValues("session").Inc()
			fresh, user, err := opts.Identity.Refresh(req.Context(), token)
			if err != nil {
				if ctxErr := req.Context().Err(); ctxErr != nil {
					return ctxErr
				}
				if !errors.Is(err, domain.ErrUnauthorized) {
					return fmt.Errorf("session refresh: %w", err)
				}
				metrics.SessionRefreshTotal.WithLabelValues("rejected").Inc()
				opts.Log.Debug().Err(err).Str("path", req.URL.Path).Msg("session rejected")
				if fromCookie {
					opts.Cookie.Clear(c)
				}
				return rejectSession(c, opts.SignInPath)
			}

			result := "valid"
			if fresh != token {
				result = "refreshed"
				opts.Cookie.Set(c, fresh, user.ExpiresAt)
				opts.Cookie.rewrite(req, fresh)
			}
			metrics.SessionRefreshTotal.WithLabelValues(result).Inc()

			cache := authcache.New(fresh, lookups)
			cache.Seed(user)
			attach(c, cache)
			return next(c)
		}
	}
}

// AuthCache returns the request's auth cache, or nil when the session
// middleware did not run.
func AuthCache(c echo.Context) *authcache.Cache {
	if cache, ok := c.Get(authCacheKey).(*authcache.Cache); ok {
		return cache
	}
	return authcache.FromContext(c.Request().Context())
}

func attach(c echo.Context, cache *authcache.Cache) {
	c.Set(authCacheKey, cache)
	req := c.Request()
	c.SetRequest(req.WithContext(authcache.NewContext(req.Context(), cache)))
}

func rejectSession(c echo.Context, signInPath string) error {
	req := c.Request()
	if isAPIPath(req.URL.Path) {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.Redirect(http.StatusFound, signInURL(signInPath, req.URL.RequestURI()))
}

// signInURL appends the return target as ?next=.
func signInURL(signInPath, target string) string {
	sep := "?"
	if strings.Contains(signInPath, "?") {
		sep = "&"
	}
	return signInPath + sep + "next=" + url.QueryEscape(target)
}

// isPublicPath matches p exactly or as a path prefix of path.
func isPublicPath(path string, public []string) bool {
	for _, p := range public {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, apiPrefix)
}

func bearerToken(req *http.Request) string {
	parts := strings.SplitN(req.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ── lookup instrumentation ───────────────────────────────────────────────────

type countedIdentity struct{ authcache.UserLookup }

func (l countedIdentity) GetUser(ctx context.Context, token string) (*domain.AuthUser, error) {
	metrics.IdentityLookupsTotal.WithLabelValues("session").Inc()
	return l.UserLookup.GetUser(ctx, token)
}

type countedVolunteers struct{ ports.VolunteerRepository }

func (r countedVolunteers) FindByAuthUserID(ctx context.Context, authUserID string) (*domain.Volunteer, error) {
	metrics.IdentityLookupsTotal.WithLabelValues("profile").Inc()
	return r.VolunteerRepository.FindByAuthUserID(ctx, authUserID)
}

type countedRoles struct{ ports.RoleStore }

func (r countedRoles) ActiveRoles(ctx context.Context, volunteerID string) ([]string, error) {
	metrics.IdentityLookupsTotal.WithLabelValues("roles").Inc()
	return r.RoleStore.ActiveRoles(ctx, volunteerID)
}

func countLookups(l authcache.Lookups) authcache.Lookups {
	if l.Identity != nil {
		l.Identity = countedIdentity{l.Identity}
	}
	if l.Volunteers != nil {
		l.Volunteers = countedVolunteers{l.Volunteers}
	}
	if l.Roles != nil {
		l.Roles = countedRoles{l.Roles}
	}
	return l
}
