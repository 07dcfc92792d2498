package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubIdentity struct {
	users     map[string]*domain.AuthUser // token -> user
	signUpErr error
	signInErr error
	signedOut []string
}

func (s *stubIdentity) SignUp(_ context.Context, email, _ string) (*domain.AuthUser, error) {
	if s.signUpErr != nil {
		return nil, s.signUpErr
	}
	return &domain.AuthUser{ID: "sub-" + email, Email: email}, nil
}

func (s *stubIdentity) SignIn(_ context.Context, email, _ string) (string, *domain.AuthUser, error) {
	if s.signInErr != nil {
		return "", nil, s.signInErr
	}
	return "tok-" + email, &domain.AuthUser{ID: "sub-" + email, Email: email}, nil
}

func (s *stubIdentity) GetUser(_ context.Context, token string) (*domain.AuthUser, error) {
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrSessionRevoked
	}
	return u, nil
}

func (s *stubIdentity) Refresh(ctx context.Context, token string) (string, *domain.AuthUser, error) {
	u, err := s.GetUser(ctx, token)
	return token, u, err
}

func (s *stubIdentity) SignOut(_ context.Context, token string) error {
	s.signedOut = append(s.signedOut, token)
	return nil
}

type stubVolunteers struct {
	byID      map[string]*domain.Volunteer
	createErr error
	created   []*domain.Volunteer
}

func (s *stubVolunteers) FindByAuthUserID(_ context.Context, authUserID string) (*domain.Volunteer, error) {
	for _, v := range s.byID {
		if v.AuthUserID != nil && *v.AuthUserID == authUserID {
			return v, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (s *stubVolunteers) FindByID(_ context.Context, id string) (*domain.Volunteer, error) {
	v, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return v, nil
}

func (s *stubVolunteers) Create(_ context.Context, v *domain.Volunteer) error {
	if s.createErr != nil {
		return s.createErr
	}
	if v.ID == "" {
		v.ID = "vol-new"
	}
	s.created = append(s.created, v)
	s.byID[v.ID] = v
	return nil
}

type stubRoles struct {
	mu     sync.Mutex
	active map[string]map[string]bool // volunteer id -> role -> active
	grants []string                   // "volunteer:role:grantor"
}

func (s *stubRoles) VolunteerHasRole(_ context.Context, volunteerID, role string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[volunteerID][role], nil
}

func (s *stubRoles) VolunteerHasAnyRole(ctx context.Context, volunteerID string, roles []string) (bool, error) {
	for _, r := range roles {
		if ok, _ := s.VolunteerHasRole(ctx, volunteerID, r); ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRoles) ActiveRoles(_ context.Context, volunteerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for r, ok := range s.active[volunteerID] {
		if ok {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubRoles) ListRoleDefinitions(context.Context) ([]domain.RoleDefinition, error) {
	return domain.BuiltInRoles, nil
}

func (s *stubRoles) GrantRole(_ context.Context, volunteerID, role, grantedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[volunteerID] == nil {
		s.active[volunteerID] = map[string]bool{}
	}
	s.active[volunteerID][role] = true
	s.grants = append(s.grants, volunteerID+":"+role+":"+grantedBy)
	return nil
}

func (s *stubRoles) RevokeRole(_ context.Context, volunteerID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active[volunteerID][role] {
		return domain.ErrRoleNotFound
	}
	s.active[volunteerID][role] = false
	return nil
}

type stubInvalidator struct {
	tags []string
	err  error
}

func (s *stubInvalidator) InvalidateTags(_ context.Context, tags ...string) error {
	s.tags = append(s.tags, tags...)
	return s.err
}

type stubAudit struct {
	entries []domain.AuditEntry
}

func (s *stubAudit) Record(e domain.AuditEntry) {
	s.entries = append(s.entries, e)
}

type stubStatsRepo struct {
	statsCalls  atomic.Int32
	trendCalls  atomic.Int32
	trendsSince time.Time
}

func (s *stubStatsRepo) DashboardStats(context.Context) (*domain.DashboardStats, error) {
	n := s.statsCalls.Add(1)
	return &domain.DashboardStats{TotalVolunteers: int64(n)}, nil
}

func (s *stubStatsRepo) MonthlyTrends(_ context.Context, since time.Time) ([]domain.MonthlyTrend, error) {
	s.trendCalls.Add(1)
	s.trendsSince = since
	return []domain.MonthlyTrend{{Month: since, Hours: 10, Volunteers: 2}}, nil
}

func (s *stubStatsRepo) ActiveCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{Name: "food", Events: 2}}, nil
}

// ---------------------------------------------------------------------------
// Fixture: alice is an admin, olivia a program officer, bob a volunteer.
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	identity   *stubIdentity
	volunteers *stubVolunteers
	roles      *stubRoles
}

func newFixture() *fixture {
	fx := &fixture{
		identity:   &stubIdentity{users: map[string]*domain.AuthUser{}},
		volunteers: &stubVolunteers{byID: map[string]*domain.Volunteer{}},
		roles:      &stubRoles{active: map[string]map[string]bool{}},
	}
	fx.add("alice", domain.RoleAdmin)
	fx.add("olivia", domain.RoleProgramOfficer)
	fx.add("bob", domain.RoleVolunteer)
	return fx
}

func (fx *fixture) add(name string, roles ...string) {
	sub := "sub-" + name
	fx.identity.users["tok-"+name] = &domain.AuthUser{ID: sub, Email: name + "@example.org"}
	fx.volunteers.byID["vol-"+name] = &domain.Volunteer{
		ID: "vol-" + name, AuthUserID: &sub, FirstName: name, Email: name + "@example.org", Active: true,
	}
	fx.roles.active["vol-"+name] = map[string]bool{}
	for _, r := range roles {
		fx.roles.active["vol-"+name][r] = true
	}
}

// as returns a request context authenticated with name's token.
func (fx *fixture) as(name string) context.Context {
	c := authcache.New("tok-"+name, authcache.Lookups{
		Identity:   fx.identity,
		Volunteers: fx.volunteers,
		Roles:      fx.roles,
	})
	return authcache.NewContext(context.Background(), c)
}
