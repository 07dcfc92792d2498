package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// HoursRepository implements ports.HoursRepository using PostgreSQL.
type HoursRepository struct {
	db *sql.DB
}

// NewHoursRepository creates a new HoursRepository.
func NewHoursRepository(db *sql.DB) ports.HoursRepository {
	return &HoursRepository{db: db}
}

// Create inserts a pending entry, assigning an id and creation time when
// unset.
func (r *HoursRepository) Create(ctx context.Context, e *domain.HoursEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = domain.HoursPending
	}

	query := `
		INSERT INTO volunteer_hours (id, volunteer_id, event_id, hours, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.VolunteerID, e.EventID, e.Hours, string(e.Status), e.CreatedAt)
	if hasCode(err, codeForeignKeyViolation) {
		return domain.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("create hours: %w", err)
	}
	return nil
}

func (r *HoursRepository) FindByID(ctx context.Context, id string) (*domain.HoursEntry, error) {
	query := `
		SELECT id, volunteer_id, event_id, hours, status, reviewed_by, created_at, reviewed_at
		FROM volunteer_hours
		WHERE id = $1
	`
	e := &domain.HoursEntry{}
	var status string
	var reviewedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.VolunteerID, &e.EventID, &e.Hours, &status, &e.ReviewedBy, &e.CreatedAt, &reviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrHoursNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find hours: %w", err)
	}
	e.Status = domain.HoursStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		e.ReviewedAt = &t
	}
	return e, nil
}

func (r *HoursRepository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to domain.HoursStatus,
	reviewer string,
	at time.Time,
) error {
	query := `
		UPDATE volunteer_hours
		SET status = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, string(from), string(to), reviewer, at)
	if err != nil {
		return fmt.Errorf("update hours status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}
