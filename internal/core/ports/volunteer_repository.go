package ports

import (
	"context"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// VolunteerRepository looks up volunteer profiles.
type VolunteerRepository interface {
	// FindByAuthUserID returns domain.ErrProfileNotFound when no profile is
	// linked to the identity subject.
	FindByAuthUserID(ctx context.Context, authUserID string) (*domain.Volunteer, error)
	FindByID(ctx context.Context, id string) (*domain.Volunteer, error)
	Create(ctx context.Context, v *domain.Volunteer) error
}
