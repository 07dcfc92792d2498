package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// RoleRepository answers role questions straight from volunteer_roles.
// Only active assignments count and nothing is cached here.
type RoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new RoleRepository. It implements both
// ports.RoleStore and ports.RoleAssignmentWriter.
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) VolunteerHasRole(ctx context.Context, volunteerID, role string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM volunteer_roles
			WHERE volunteer_id = $1 AND role = $2 AND active
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, volunteerID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

func (r *RoleRepository) VolunteerHasAnyRole(ctx context.Context, volunteerID string, roles []string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM volunteer_roles
			WHERE volunteer_id = $1 AND role = ANY($2) AND active
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, volunteerID, pq.Array(roles)).Scan(&ok); err != nil {
		return false, fmt.Errorf("check any role: %w", err)
	}
	return ok, nil
}

func (r *RoleRepository) ActiveRoles(ctx context.Context, volunteerID string) ([]string, error) {
	query := `
		SELECT role FROM volunteer_roles
		WHERE volunteer_id = $1 AND active
		ORDER BY role
	`
	rows, err := r.db.QueryContext(ctx, query, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("list active roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) ListRoleDefinitions(ctx context.Context) ([]domain.RoleDefinition, error) {
	query := `SELECT name, display_name, description FROM roles ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var defs []domain.RoleDefinition
	for rows.Next() {
		var d domain.RoleDefinition
		if err := rows.Scan(&d.Name, &d.DisplayName, &d.Description); err != nil {
			return nil, fmt.Errorf("scan role definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// GrantRole activates role for the volunteer, reactivating a previously
// revoked assignment. Unknown roles yield domain.ErrRoleNotFound.
func (r *RoleRepository) GrantRole(ctx context.Context, volunteerID, role, grantedBy string) error {
	query := `
		INSERT INTO volunteer_roles (volunteer_id, role, active, granted_by, granted_at)
		VALUES ($1, $2, TRUE, $3, now())
		ON CONFLICT (volunteer_id, role)
		DO UPDATE SET active = TRUE, granted_by = EXCLUDED.granted_by, granted_at = EXCLUDED.granted_at
	`
	_, err := r.db.ExecContext(ctx, query, volunteerID, role, grantedBy)
	if hasCode(err, codeForeignKeyViolation) {
		return fmt.Errorf("grant %s to %s: %w", role, volunteerID, domain.ErrRoleNotFound)
	}
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// RevokeRole deactivates an active assignment. Revoking a role the
// volunteer does not actively hold yields domain.ErrRoleNotFound.
func (r *RoleRepository) RevokeRole(ctx context.Context, volunteerID, role string) error {
	query := `
		UPDATE volunteer_roles SET active = FALSE
		WHERE volunteer_id = $1 AND role = $2 AND active
	`
	result, err := r.db.ExecContext(ctx, query, volunteerID, role)
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("revoke %s from %s: %w", role, volunteerID, domain.ErrRoleNotFound)
	}
	return nil
}
