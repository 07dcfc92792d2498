package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Identity stubs: tokens are "tok-<name>", subjects "sub-<name>" and
// volunteer ids "vol-<name>".
// ---------------------------------------------------------------------------

type stubUsers struct{}

func (stubUsers) GetUser(_ context.Context, token string) (*domain.AuthUser, error) {
	if len(token) < 5 || token[:4] != "tok-" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.AuthUser{ID: "sub-" + token[4:]}, nil
}

type stubProfiles struct{}

func (stubProfiles) FindByAuthUserID(_ context.Context, authUserID string) (*domain.Volunteer, error) {
	name := authUserID[len("sub-"):]
	if name == "nora" {
		return nil, domain.ErrProfileNotFound
	}
	id := authUserID
	return &domain.Volunteer{ID: "vol-" + name, AuthUserID: &id, FirstName: name, LastName: "Doe", Active: true}, nil
}

func (stubProfiles) FindByID(context.Context, string) (*domain.Volunteer, error) {
	return nil, domain.ErrProfileNotFound
}

func (stubProfiles) Create(context.Context, *domain.Volunteer) error { return nil }

type stubRoleStore struct{ roles map[string][]string }

func (s stubRoleStore) VolunteerHasRole(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s stubRoleStore) VolunteerHasAnyRole(context.Context, string, []string) (bool, error) {
	return false, nil
}

func (s stubRoleStore) ActiveRoles(_ context.Context, id string) ([]string, error) {
	return s.roles[id], nil
}

func (s stubRoleStore) ListRoleDefinitions(context.Context) ([]domain.RoleDefinition, error) {
	return domain.BuiltInRoles, nil
}

var testLookups = authcache.Lookups{
	Identity:   stubUsers{},
	Volunteers: stubProfiles{},
	Roles: stubRoleStore{roles: map[string][]string{
		"vol-alice": {domain.RoleAdmin},
		"vol-bob":   {domain.RoleVolunteer},
	}},
}

// newContext builds an echo context whose request carries an auth cache
// for token (none when token is empty).
func newContext(method, target, body, token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req = req.WithContext(authcache.NewContext(req.Context(), authcache.New(token, testLookups)))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAccountService struct {
	signUpFn  func(ctx context.Context, in ports.SignUpInput) (*domain.Volunteer, error)
	signInFn  func(ctx context.Context, email, password string) (string, *domain.AuthUser, error)
	signedOut []string
}

func (s *stubAccountService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Volunteer, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAccountService) SignIn(ctx context.Context, email, password string) (string, *domain.AuthUser, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAccountService) SignOut(_ context.Context, token string) error {
	s.signedOut = append(s.signedOut, token)
	return nil
}

type stubHoursService struct {
	logged   []ports.LogHoursInput
	reviewed []string
	err      error
}

func (s *stubHoursService) Log(_ context.Context, in ports.LogHoursInput) (*domain.HoursEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.logged = append(s.logged, in)
	return &domain.HoursEntry{ID: "h1", EventID: in.EventID, Hours: in.Hours, Status: domain.HoursPending}, nil
}

func (s *stubHoursService) Approve(_ context.Context, id string) (*domain.HoursEntry, error) {
	return s.review(id, domain.HoursApproved)
}

func (s *stubHoursService) Reject(_ context.Context, id string) (*domain.HoursEntry, error) {
	return s.review(id, domain.HoursRejected)
}

func (s *stubHoursService) review(id string, status domain.HoursStatus) (*domain.HoursEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.reviewed = append(s.reviewed, id+":"+string(status))
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	return &domain.HoursEntry{ID: id, Status: status, ReviewedAt: &now}, nil
}

type stubRoleService struct {
	granted []string
	revoked []string
	checked []string
	result  bool
	err     error
}

func (s *stubRoleService) Grant(_ context.Context, volunteerID, role string) error {
	s.granted = append(s.granted, volunteerID+":"+role)
	return s.err
}

func (s *stubRoleService) Revoke(_ context.Context, volunteerID, role string) error {
	s.revoked = append(s.revoked, volunteerID+":"+role)
	return s.err
}

func (s *stubRoleService) Check(_ context.Context, volunteerID string, roles []string, all bool) (bool, error) {
	mode := "any"
	if all {
		mode = "all"
	}
	s.checked = append(s.checked, volunteerID+":"+mode)
	return s.result, s.err
}

type stubAuditRepo struct {
	limit   int64
	subject string
}

func (s *stubAuditRepo) Insert(context.Context, *domain.AuditEntry) error { return nil }

func (s *stubAuditRepo) List(_ context.Context, subjectID string, limit int64) ([]domain.AuditEntry, error) {
	s.subject, s.limit = subjectID, limit
	return []domain.AuditEntry{{Kind: domain.AuditRoleGranted, SubjectID: subjectID, Outcome: "ok"}}, nil
}
