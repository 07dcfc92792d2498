package ports

import (
	"context"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// RoleStore is the read surface over role assignments. Every method
// reflects active assignments only and nothing here is cached.
type RoleStore interface {
	VolunteerHasRole(ctx context.Context, volunteerID, role string) (bool, error)
	VolunteerHasAnyRole(ctx context.Context, volunteerID string, roles []string) (bool, error)
	ActiveRoles(ctx context.Context, volunteerID string) ([]string, error)
	ListRoleDefinitions(ctx context.Context) ([]domain.RoleDefinition, error)
}

// RoleAssignmentWriter is the administrator-only write side.
type RoleAssignmentWriter interface {
	GrantRole(ctx context.Context, volunteerID, role, grantedBy string) error
	RevokeRole(ctx context.Context, volunteerID, role string) error
}
