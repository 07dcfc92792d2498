package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// systemActor is recorded as the grantor of roles assigned at sign-up.
const systemActor = "system"

type accountService struct {
	identity   ports.IdentityProvider
	volunteers ports.VolunteerRepository
	roles      ports.RoleAssignmentWriter
	cache      TagInvalidator
	audit      ports.AuditRecorder
	now        func() time.Time
	log        zerolog.Logger
}

// NewAccountService returns an AccountService. now may be nil.
func NewAccountService(
	identity ports.IdentityProvider,
	volunteers ports.VolunteerRepository,
	roles ports.RoleAssignmentWriter,
	cache TagInvalidator,
	audit ports.AuditRecorder,
	now func() time.Time,
	log zerolog.Logger,
) ports.AccountService {
	if now == nil {
		now = time.Now
	}
	return &accountService{
		identity:   identity,
		volunteers: volunteers,
		roles:      roles,
		cache:      cache,
		audit:      audit,
		now:        now,
		log:        log,
	}
}

// SignUp registers credentials and creates the linked volunteer profile
// holding the volunteer role.
func (s *accountService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Volunteer, error) {
	user, err := s.identity.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	v := &domain.Volunteer{
		AuthUserID: &user.ID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      user.Email,
		Active:     true,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.volunteers.Create(ctx, v); err != nil {
		// The credential exists without a profile; sign-in will land on
		// the no-profile state until one is created.
		s.log.Error().Err(err).Str("subject_id", user.ID).Msg("volunteer profile creation failed")
		return nil, fmt.Errorf("sign up: create profile: %w", err)
	}
	if err := s.roles.GrantRole(ctx, v.ID, domain.RoleVolunteer, systemActor); err != nil {
		return nil, fmt.Errorf("sign up: grant default role: %w", err)
	}

	if err := s.cache.InvalidateTags(ctx, TagStats); err != nil {
		s.log.Warn().Err(err).Msg("cache invalidation failed")
	}
	s.log.Info().Str("volunteer_id", v.ID).Str("subject_id", user.ID).Msg("volunteer registered")
	return v, nil
}

func (s *accountService) SignIn(ctx context.Context, email, password string) (string, *domain.AuthUser, error) {
	token, user, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Info().Str("email", email).Msg("sign-in rejected")
		}
		return "", nil, err
	}

	s.audit.Record(domain.AuditEntry{
		Kind:      domain.AuditSignIn,
		ActorID:   user.ID,
		SubjectID: user.ID,
		Outcome:   "ok",
		At:        s.now().UTC(),
	})
	return token, user, nil
}

// SignOut revokes the session behind token. The request's auth cache, when
// present, names the subject for the audit trail.
func (s *accountService) SignOut(ctx context.Context, token string) error {
	var subject string
	if c := authcache.FromContext(ctx); c != nil {
		if u, err := c.AuthUser(ctx); err == nil {
			subject = u.ID
		}
	}

	if err := s.identity.SignOut(ctx, token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.audit.Record(domain.AuditEntry{
		Kind:      domain.AuditSignOut,
		ActorID:   subject,
		SubjectID: subject,
		Outcome:   "ok",
		At:        s.now().UTC(),
	})
	return nil
}
