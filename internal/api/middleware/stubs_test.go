package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

var errBackendDown = errors.New("session store unreachable")

// stubProvider accepts tokens of the form "tok-<name>". Tokens listed in
// refresh are re-minted; tokens in revoked are rejected.
type stubProvider struct {
	users   map[string]*domain.AuthUser
	refresh map[string]string
	revoked map[string]bool
	failing bool

	refreshCalls atomic.Int32
	getUserCalls atomic.Int32
}

func (p *stubProvider) SignUp(context.Context, string, string) (*domain.AuthUser, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) SignIn(context.Context, string, string) (string, *domain.AuthUser, error) {
	return "", nil, errors.New("not implemented")
}

func (p *stubProvider) GetUser(_ context.Context, token string) (*domain.AuthUser, error) {
	p.getUserCalls.Add(1)
	return p.lookup(token)
}

func (p *stubProvider) Refresh(_ context.Context, token string) (string, *domain.AuthUser, error) {
	p.refreshCalls.Add(1)
	if p.failing {
		return "", nil, errBackendDown
	}
	u, err := p.lookup(token)
	if err != nil {
		return "", nil, err
	}
	if fresh, ok := p.refresh[token]; ok {
		return fresh, u, nil
	}
	return token, u, nil
}

func (p *stubProvider) SignOut(context.Context, string) error { return nil }

func (p *stubProvider) lookup(token string) (*domain.AuthUser, error) {
	if p.revoked[token] {
		return nil, domain.ErrSessionRevoked
	}
	u, ok := p.users[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	clone := *u
	return &clone, nil
}

type stubVolunteers struct {
	byAuth map[string]*domain.Volunteer
	calls  atomic.Int32
}

func (s *stubVolunteers) FindByAuthUserID(_ context.Context, authUserID string) (*domain.Volunteer, error) {
	s.calls.Add(1)
	v, ok := s.byAuth[authUserID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *v
	return &clone, nil
}

func (s *stubVolunteers) FindByID(context.Context, string) (*domain.Volunteer, error) {
	return nil, domain.ErrProfileNotFound
}

func (s *stubVolunteers) Create(context.Context, *domain.Volunteer) error { return nil }

type stubRoles struct {
	roles map[string][]string
}

func (s *stubRoles) VolunteerHasRole(_ context.Context, id, role string) (bool, error) {
	for _, r := range s.roles[id] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRoles) VolunteerHasAnyRole(ctx context.Context, id string, roles []string) (bool, error) {
	for _, role := range roles {
		if ok, _ := s.VolunteerHasRole(ctx, id, role); ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRoles) ActiveRoles(_ context.Context, id string) ([]string, error) {
	return s.roles[id], nil
}

func (s *stubRoles) ListRoleDefinitions(context.Context) ([]domain.RoleDefinition, error) {
	return domain.BuiltInRoles, nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *stubAudit) Record(e domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *stubAudit) all() []domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEntry(nil), a.entries...)
}

// fixture: alice is an admin, olivia a program officer, bob a volunteer
// and nora has a session but no volunteer profile.
type fixture struct {
	provider   *stubProvider
	volunteers *stubVolunteers
	roles      *stubRoles
	audit      *stubAudit
}

func newFixture() *fixture {
	users := map[string]*domain.AuthUser{}
	byAuth := map[string]*domain.Volunteer{}
	roles := map[string][]string{}

	add := func(name string, withProfile bool, held ...string) {
		sub := "sub-" + name
		users["tok-"+name] = &domain.AuthUser{
			ID:        sub,
			Email:     name + "@example.org",
			SessionID: "sid-" + name,
			ExpiresAt: time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC),
		}
		if withProfile {
			authID := sub
			byAuth[sub] = &domain.Volunteer{ID: "vol-" + name, AuthUserID: &authID, FirstName: name, Active: true}
			roles["vol-"+name] = held
		}
	}
	add("alice", true, domain.RoleAdmin, domain.RoleVolunteer)
	add("olivia", true, domain.RoleProgramOfficer)
	add("bob", true, domain.RoleVolunteer)
	add("nora", false)

	return &fixture{
		provider: &stubProvider{
			users:   users,
			refresh: map[string]string{},
			revoked: map[string]bool{},
		},
		volunteers: &stubVolunteers{byAuth: byAuth},
		roles:      &stubRoles{roles: roles},
		audit:      &stubAudit{},
	}
}

func (f *fixture) sessionOptions() SessionOptions {
	return SessionOptions{
		Identity: f.provider,
		Lookups: authcache.Lookups{
			Volunteers: f.volunteers,
			Roles:      f.roles,
		},
		Cookie:     SessionCookie{Name: "vd_session"},
		SignInPath: "/sign-in",
	}
}
