package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

var administrators = guard.All(domain.RoleAdmin)

type roleService struct {
	volunteers ports.VolunteerRepository
	store      ports.RoleStore
	writer     ports.RoleAssignmentWriter
	cache      TagInvalidator
	audit      ports.AuditRecorder
	now        func() time.Time
	log        zerolog.Logger
}

// NewRoleService returns a RoleService. now may be nil.
func NewRoleService(
	volunteers ports.VolunteerRepository,
	store ports.RoleStore,
	writer ports.RoleAssignmentWriter,
	cache TagInvalidator,
	audit ports.AuditRecorder,
	now func() time.Time,
	log zerolog.Logger,
) ports.RoleService {
	if now == nil {
		now = time.Now
	}
	return &roleService{
		volunteers: volunteers,
		store:      store,
		writer:     writer,
		cache:      cache,
		audit:      audit,
		now:        now,
		log:        log,
	}
}

func (s *roleService) Grant(ctx context.Context, volunteerID, role string) error {
	admin, err := authcache.Require(ctx, administrators)
	if err != nil {
		return err
	}
	if _, err := s.volunteers.FindByID(ctx, volunteerID); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	if err := s.writer.GrantRole(ctx, volunteerID, role, admin.ID); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	s.changed(ctx, domain.AuditRoleGranted, admin.ID, volunteerID, role)
	return nil
}

// Revoke deactivates role. An administrator cannot revoke their own admin
// role, so the last administrator cannot lock everyone out.
func (s *roleService) Revoke(ctx context.Context, volunteerID, role string) error {
	admin, err := authcache.Require(ctx, administrators)
	if err != nil {
		return err
	}
	if volunteerID == admin.ID && role == domain.RoleAdmin {
		return fmt.Errorf("revoke own admin role: %w", domain.ErrForbidden)
	}
	if err := s.writer.RevokeRole(ctx, volunteerID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	s.changed(ctx, domain.AuditRoleRevoked, admin.ID, volunteerID, role)
	return nil
}

// Check answers whether volunteerID satisfies all (or any) of roles using
// the same set rules as the route guard: an empty list only needs an active
// profile.
func (s *roleService) Check(ctx context.Context, volunteerID string, roles []string, all bool) (bool, error) {
	if _, err := authcache.Require(ctx, administrators); err != nil {
		return false, err
	}
	v, err := s.volunteers.FindByID(ctx, volunteerID)
	if err != nil {
		return false, fmt.Errorf("check roles: %w", err)
	}
	if !v.Active {
		return false, nil
	}
	held, err := s.store.ActiveRoles(ctx, volunteerID)
	if err != nil {
		return false, fmt.Errorf("check roles: %w", err)
	}

	req := guard.Any(roles...)
	if all {
		req = guard.All(roles...)
	}
	return req.Satisfied(held), nil
}

func (s *roleService) changed(ctx context.Context, kind domain.AuditKind, actorID, subjectID, role string) {
	tags := []string{TagRoles, TagStats}
	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		s.log.Warn().Err(err).Strs("tags", tags).Msg("cache invalidation failed")
	}

	s.audit.Record(domain.AuditEntry{
		Kind:      kind,
		ActorID:   actorID,
		SubjectID: subjectID,
		Roles:     []string{role},
		Outcome:   "ok",
		At:        s.now().UTC(),
	})
	s.log.Info().
		Str("kind", string(kind)).
		Str("actor_id", actorID).
		Str("volunteer_id", subjectID).
		Str("role", role).
		Msg("role assignment changed")
}
