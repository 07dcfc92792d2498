package ports

import (
	"context"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// StatsRepository runs the aggregate read queries behind the dashboard.
type StatsRepository interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	MonthlyTrends(ctx context.Context, since time.Time) ([]domain.MonthlyTrend, error)
	ActiveCategories(ctx context.Context) ([]domain.Category, error)
}
