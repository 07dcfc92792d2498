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

const maxHoursPerEntry = 24

// reviewers may approve or reject logged hours.
var reviewers = guard.Any(domain.RoleAdmin, domain.RoleProgramOfficer)

type hoursService struct {
	repo  ports.HoursRepository
	cache TagInvalidator
	now   func() time.Time
	log   zerolog.Logger
}

// NewHoursService returns an HoursService. now may be nil.
func NewHoursService(repo ports.HoursRepository, cache TagInvalidator, now func() time.Time, log zerolog.Logger) ports.HoursService {
	if now == nil {
		now = time.Now
	}
	return &hoursService{repo: repo, cache: cache, now: now, log: log}
}

// Log records pending hours for the current volunteer.
func (s *hoursService) Log(ctx context.Context, in ports.LogHoursInput) (*domain.HoursEntry, error) {
	v, err := authcache.Require(ctx, guard.Authenticated())
	if err != nil {
		return nil, err
	}
	if in.Hours <= 0 || in.Hours > maxHoursPerEntry {
		return nil, fmt.Errorf("log hours: %w", domain.ErrInvalidHours)
	}

	entry := &domain.HoursEntry{
		VolunteerID: v.ID,
		EventID:     in.EventID,
		Hours:       in.Hours,
		Status:      domain.HoursPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("log hours: %w", err)
	}

	s.invalidate(ctx, TagStats)
	s.log.Info().
		Str("hours_id", entry.ID).
		Str("volunteer_id", v.ID).
		Float64("hours", entry.Hours).
		Msg("hours logged")
	return entry, nil
}

func (s *hoursService) Approve(ctx context.Context, id string) (*domain.HoursEntry, error) {
	return s.review(ctx, id, domain.HoursApproved)
}

func (s *hoursService) Reject(ctx context.Context, id string) (*domain.HoursEntry, error) {
	return s.review(ctx, id, domain.HoursRejected)
}

func (s *hoursService) review(ctx context.Context, id string, to domain.HoursStatus) (*domain.HoursEntry, error) {
	reviewer, err := authcache.Require(ctx, reviewers)
	if err != nil {
		return nil, err
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("review hours: %w", err)
	}
	if !entry.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("review hours: %w (from %s to %s)", domain.ErrInvalidTransition, entry.Status, to)
	}

	at := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, entry.Status, to, reviewer.ID, at); err != nil {
		return nil, fmt.Errorf("review hours: %w", err)
	}
	entry.Status = to
	entry.ReviewedBy = reviewer.ID
	entry.ReviewedAt = &at

	s.invalidate(ctx, TagStats, TagTrends)
	s.log.Info().
		Str("hours_id", id).
		Str("status", string(to)).
		Str("reviewer_id", reviewer.ID).
		Msg("hours reviewed")
	return entry, nil
}

// invalidate never fails the mutation: the write already happened and the
// stale entry still expires with its TTL.
func (s *hoursService) invalidate(ctx context.Context, tags ...string) {
	if err := s.cache.InvalidateTags(ctx, tags...); err != nil {
		s.log.Warn().Err(err).Strs("tags", tags).Msg("cache invalidation failed")
	}
}
