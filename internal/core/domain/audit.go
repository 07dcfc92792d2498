package domain

import "time"

// AuditKind classifies audit trail entries.
type AuditKind string

const (
	AuditRoleGranted AuditKind = "role_granted"
	AuditRoleRevoked AuditKind = "role_revoked"
	AuditForbidden   AuditKind = "access_forbidden"
	AuditSignIn      AuditKind = "sign_in"
	AuditSignOut     AuditKind = "sign_out"
)

// AuditEntry records an authorization-relevant action.
type AuditEntry struct {
	Kind      AuditKind `json:"kind"`
	ActorID   string    `json:"actor_id"`
	SubjectID string    `json:"subject_id"`
	Roles     []string  `json:"roles,omitempty"`
	Path      string    `json:"path,omitempty"`
	Outcome   string    `json:"outcome"`
	At        time.Time `json:"at"`
}
