// Package authcache memoizes "who is the current user" for the lifetime of
// one request.
//
// A Cache is created by the session middleware at the start of every
// request and dropped when the request ends. It must never be stored in a
// process-wide variable: doing so would leak one volunteer's identity and
// roles into another volunteer's request.
package authcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// UserLookup resolves a session token to its subject.
type UserLookup interface {
	GetUser(ctx context.Context, token string) (*domain.AuthUser, error)
}

// Lookups are the shared, stateless collaborators behind a Cache.
type Lookups struct {
	Identity   UserLookup
	Volunteers ports.VolunteerRepository
	Roles      ports.RoleStore
}

type memo[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (m *memo[T]) get(fn func() (T, error)) (T, error) {
	m.once.Do(func() {
		m.val, m.err = fn()
	})
	return m.val, m.err
}

// Cache holds the memoized identity, profile and role lookups of a single
// request. Results, including failures, are computed at most once. It is
// safe for concurrent use by goroutines serving the same request.
type Cache struct {
	token   string
	lookups Lookups

	user      memo[*domain.AuthUser]
	volunteer memo[*domain.Volunteer]
	roles     memo[[]string]
}

// New returns an empty Cache for the session token of one request. An
// empty token yields a Cache whose accessors fail with ErrUnauthorized.
func New(token string, lookups Lookups) *Cache {
	return &Cache{token: token, lookups: lookups}
}

// Seed records a user that was already validated for this request, so the
// first AuthUser call does not go back to the identity provider. It has no
// effect once AuthUser has resolved.
func (c *Cache) Seed(user *domain.AuthUser) {
	c.user.once.Do(func() {
		c.user.val = user
		if user == nil {
			c.user.err = domain.ErrUnauthorized
		}
	})
}

// AuthUser returns the session subject or an error matching
// domain.ErrUnauthorized.
func (c *Cache) AuthUser(ctx context.Context) (*domain.AuthUser, error) {
	return c.user.get(func() (*domain.AuthUser, error) {
		if c.token == "" || c.lookups.Identity == nil {
			return nil, domain.ErrUnauthorized
		}
		u, err := c.lookups.Identity.GetUser(ctx, c.token)
		if err != nil {
			return nil, unauthorized(err)
		}
		return u, nil
	})
}

// CurrentVolunteer returns the profile linked to the session subject. A
// valid session without an active profile fails with
// domain.ErrProfileNotFound.
func (c *Cache) CurrentVolunteer(ctx context.Context) (*domain.Volunteer, error) {
	return c.volunteer.get(func() (*domain.Volunteer, error) {
		u, err := c.AuthUser(ctx)
		if err != nil {
			return nil, err
		}
		v, err := c.lookups.Volunteers.FindByAuthUserID(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("current volunteer: %w", err)
		}
		if !v.Active {
			return nil, fmt.Errorf("current volunteer %s: inactive: %w", v.ID, domain.ErrProfileNotFound)
		}
		return v, nil
	})
}

// Roles returns the active roles of the current volunteer.
func (c *Cache) Roles(ctx context.Context) ([]string, error) {
	return c.roles.get(func() ([]string, error) {
		v, err := c.CurrentVolunteer(ctx)
		if err != nil {
			return nil, err
		}
		roles, err := c.lookups.Roles.ActiveRoles(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("active roles: %w", err)
		}
		return roles, nil
	})
}

// RequireAnyRole returns the current volunteer if they hold at least one of
// roles, otherwise an error matching domain.ErrForbidden.
func (c *Cache) RequireAnyRole(ctx context.Context, roles ...string) (*domain.Volunteer, error) {
	return c.require(ctx, guard.Any(roles...))
}

// RequireAllRoles returns the current volunteer if they hold every one of
// roles, otherwise an error matching domain.ErrForbidden.
func (c *Cache) RequireAllRoles(ctx context.Context, roles ...string) (*domain.Volunteer, error) {
	return c.require(ctx, guard.All(roles...))
}

func (c *Cache) require(ctx context.Context, req guard.Requirement) (*domain.Volunteer, error) {
	v, err := c.CurrentVolunteer(ctx)
	if err != nil {
		return nil, err
	}
	held, err := c.Roles(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Satisfied(held) {
		return nil, fmt.Errorf("volunteer %s requires %s: %w", v.ID, req, domain.ErrForbidden)
	}
	return v, nil
}

// IsAdmin reports whether the current volunteer is an administrator. Any
// failure reads as false; use it for presentation only, never for gating.
func (c *Cache) IsAdmin(ctx context.Context) bool {
	_, err := c.RequireAnyRole(ctx, domain.RoleAdmin)
	return err == nil
}

func unauthorized(err error) error {
	if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying c.
func NewContext(ctx context.Context, c *Cache) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the request's Cache, or nil outside a request.
func FromContext(ctx context.Context) *Cache {
	c, _ := ctx.Value(ctxKey{}).(*Cache)
	return c
}

// Require fetches the request Cache from ctx and applies RequireAnyRole or
// RequireAllRoles according to req. It is the entry point services use to
// re-check authorization at the data-access boundary.
func Require(ctx context.Context, req guard.Requirement) (*domain.Volunteer, error) {
	c := FromContext(ctx)
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	return c.require(ctx, req)
}
