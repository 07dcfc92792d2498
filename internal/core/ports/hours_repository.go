package ports

import (
	"context"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// HoursRepository persists volunteer hours.
type HoursRepository interface {
	Create(ctx context.Context, entry *domain.HoursEntry) error
	FindByID(ctx context.Context, id string) (*domain.HoursEntry, error)
	// UpdateStatus moves an entry out of from; it returns
	// domain.ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.HoursStatus, reviewer string, at time.Time) error
}
