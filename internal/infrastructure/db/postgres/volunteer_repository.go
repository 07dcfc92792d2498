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

const volunteerColumns = `id, auth_user_id, first_name, last_name, email, active, created_at`

// VolunteerRepository implements ports.VolunteerRepository using PostgreSQL.
type VolunteerRepository struct {
	db *sql.DB
}

// NewVolunteerRepository creates a new VolunteerRepository.
func NewVolunteerRepository(db *sql.DB) ports.VolunteerRepository {
	return &VolunteerRepository{db: db}
}

func (r *VolunteerRepository) FindByAuthUserID(ctx context.Context, authUserID string) (*domain.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE auth_user_id = $1`
	return r.findOne(ctx, query, authUserID)
}

func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *VolunteerRepository) findOne(ctx context.Context, query string, arg string) (*domain.Volunteer, error) {
	v := &domain.Volunteer{}
	var authUserID sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&v.ID, &authUserID, &v.FirstName, &v.LastName, &v.Email, &v.Active, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find volunteer: %w", err)
	}
	if authUserID.Valid {
		v.AuthUserID = &authUserID.String
	}
	return v, nil
}

// Create inserts v, assigning an id and creation time when unset.
func (r *VolunteerRepository) Create(ctx context.Context, v *domain.Volunteer) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO volunteers (` + volunteerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var authUserID sql.NullString
	if v.AuthUserID != nil {
		authUserID = sql.NullString{String: *v.AuthUserID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		v.ID, authUserID, v.FirstName, v.LastName, v.Email, v.Active, v.CreatedAt,
	)
	if hasCode(err, codeUniqueViolation) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create volunteer: %w", err)
	}
	return nil
}
