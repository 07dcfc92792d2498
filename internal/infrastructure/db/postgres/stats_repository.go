package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// StatsRepository implements ports.StatsRepository using PostgreSQL.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *sql.DB) ports.StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM volunteers WHERE active),
			(SELECT COUNT(*) FROM events WHERE active),
			(SELECT COALESCE(SUM(hours), 0) FROM volunteer_hours WHERE status = 'approved'),
			(SELECT COALESCE(SUM(hours), 0) FROM volunteer_hours WHERE status = 'pending')
	`
	s := &domain.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.TotalVolunteers, &s.ActiveEvents, &s.ApprovedHours, &s.PendingHours,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return s, nil
}

// MonthlyTrends sums approved hours per calendar month from since onwards.
func (r *StatsRepository) MonthlyTrends(ctx context.Context, since time.Time) ([]domain.MonthlyTrend, error) {
	query := `
		SELECT date_trunc('month', created_at) AS month,
		       SUM(hours),
		       COUNT(DISTINCT volunteer_id)
		FROM volunteer_hours
		WHERE status = 'approved' AND created_at >= $1
		GROUP BY month
		ORDER BY month
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	defer rows.Close()

	trends := []domain.MonthlyTrend{}
	for rows.Next() {
		var t domain.MonthlyTrend
		if err := rows.Scan(&t.Month, &t.Hours, &t.Volunteers); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		t.Month = t.Month.UTC()
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

func (r *StatsRepository) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT category, COUNT(*)
		FROM events
		WHERE active
		GROUP BY category
		ORDER BY category
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("active categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Name, &c.Events); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
