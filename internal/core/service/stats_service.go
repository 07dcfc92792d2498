package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpinghands/volunteer-dashboard/internal/core/authcache"
	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/guard"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
	"github.com/helpinghands/volunteer-dashboard/pkg/querycache"
)

// trendMonths is how many calendar months, the current one included,
// MonthlyTrends covers.
const trendMonths = 12

type statsService struct {
	stats ports.StatsRepository
	roles ports.RoleStore
	cache *querycache.QueryCache
	now   func() time.Time
	log   zerolog.Logger
}

// NewStatsService returns a StatsService serving reads through cache.
// now may be nil.
func NewStatsService(
	stats ports.StatsRepository,
	roles ports.RoleStore,
	cache *querycache.QueryCache,
	now func() time.Time,
	log zerolog.Logger,
) ports.StatsService {
	if now == nil {
		now = time.Now
	}
	return &statsService{stats: stats, roles: roles, cache: cache, now: now, log: log}
}

func (s *statsService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	if _, err := authcache.Require(ctx, guard.Authenticated()); err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, dashboardStatsQuery, "", s.stats.DashboardStats)
}

// MonthlyTrends is restricted to staff roles.
func (s *statsService) MonthlyTrends(ctx context.Context) ([]domain.MonthlyTrend, error) {
	req := guard.Any(domain.RoleAdmin, domain.RoleProgramOfficer, domain.RoleHeads)
	if _, err := authcache.Require(ctx, req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month()-(trendMonths-1), 1, 0, 0, 0, 0, time.UTC)
	return querycache.Fetch(ctx, s.cache, monthlyTrendsQuery, since.Format("2006-01"),
		func(ctx context.Context) ([]domain.MonthlyTrend, error) {
			return s.stats.MonthlyTrends(ctx, since)
		})
}

func (s *statsService) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	if _, err := authcache.Require(ctx, guard.Authenticated()); err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, activeCategoriesQuery, "", s.stats.ActiveCategories)
}

func (s *statsService) RoleDefinitions(ctx context.Context) ([]domain.RoleDefinition, error) {
	if _, err := authcache.Require(ctx, guard.Authenticated()); err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, roleDefinitionsQuery, "", s.roles.ListRoleDefinitions)
}
