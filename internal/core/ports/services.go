package ports

import (
	"context"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// LogHoursInput carries a volunteer's attendance submission.
type LogHoursInput struct {
	EventID string
	Hours   float64
}

// StatsService serves cached dashboard aggregates.
type StatsService interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	MonthlyTrends(ctx context.Context) ([]domain.MonthlyTrend, error)
	ActiveCategories(ctx context.Context) ([]domain.Category, error)
	RoleDefinitions(ctx context.Context) ([]domain.RoleDefinition, error)
}

// HoursService handles logging and approval of hours.
type HoursService interface {
	Log(ctx context.Context, in LogHoursInput) (*domain.HoursEntry, error)
	Approve(ctx context.Context, id string) (*domain.HoursEntry, error)
	Reject(ctx context.Context, id string) (*domain.HoursEntry, error)
}

// RoleService administers role assignments.
type RoleService interface {
	Grant(ctx context.Context, volunteerID, role string) error
	Revoke(ctx context.Context, volunteerID, role string) error
	Check(ctx context.Context, volunteerID string, roles []string, all bool) (bool, error)
}

// AccountService registers accounts and manages sign-in sessions.
type AccountService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.Volunteer, error)
	SignIn(ctx context.Context, email, password string) (string, *domain.AuthUser, error)
	SignOut(ctx context.Context, token string) error
}

// SignUpInput carries registration details.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
