package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

// CredentialRepository implements ports.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *sql.DB) ports.CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `
		SELECT subject_id, email, password_hash, created_at
		FROM credentials
		WHERE email = $1
	`
	c := &domain.Credential{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&c.SubjectID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return c, nil
}

func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO credentials (subject_id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, cred.SubjectID, cred.Email, cred.PasswordHash, cred.CreatedAt)
	if hasCode(err, codeUniqueViolation) {
		return domain.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}
