package domain

import "time"

const (
	RoleAdmin          = "admin"
	RoleProgramOfficer = "program_officer"
	RoleHeads          = "heads"
	RoleVolunteer      = "volunteer"
)

// BuiltInRoles are seeded by the postgres migrations.
var BuiltInRoles = []RoleDefinition{
	{Name: RoleAdmin, DisplayName: "Administrator", Description: "Full access to every dashboard section"},
	{Name: RoleProgramOfficer, DisplayName: "Program Officer", Description: "Approves hours and manages events"},
	{Name: RoleHeads, DisplayName: "Heads", Description: "Leads volunteer groups and views reports"},
	{Name: RoleVolunteer, DisplayName: "Volunteer", Description: "Logs hours and attends events"},
}

// RoleDefinition describes a role that can be assigned to volunteers.
type RoleDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// RoleAssignment grants a volunteer a named role. Only active assignments
// count towards authorization.
type RoleAssignment struct {
	VolunteerID string    `json:"volunteer_id"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	GrantedBy   string    `json:"granted_by,omitempty"`
	GrantedAt   time.Time `json:"granted_at"`
}
