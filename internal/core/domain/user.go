package domain

import "time"

// AuthUser is the subject of a validated session as reported by the
// identity provider. It is never persisted by this service.
type AuthUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Credential is the sign-in record owned by the identity provider.
type Credential struct {
	SubjectID    string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Volunteer is the user profile looked up by identity subject on every
// authenticated request.
type Volunteer struct {
	ID         string    `json:"id"`
	AuthUserID *string   `json:"auth_user_id,omitempty"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (v *Volunteer) FullName() string {
	switch {
	case v.FirstName == "":
		return v.LastName
	case v.LastName == "":
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}
