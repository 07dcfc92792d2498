package ports

import (
	"context"
	"time"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// IdentityProvider issues, validates and refreshes session tokens.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*domain.AuthUser, error)
	SignIn(ctx context.Context, email, password string) (string, *domain.AuthUser, error)
	// GetUser validates the token against the provider's live session
	// state. A token that is well-formed and unexpired but whose session
	// was revoked is rejected.
	GetUser(ctx context.Context, token string) (*domain.AuthUser, error)
	// Refresh validates the token and returns the token the client should
	// hold from now on, which may be the same one.
	Refresh(ctx context.Context, token string) (string, *domain.AuthUser, error)
	SignOut(ctx context.Context, token string) error
}

// SessionStore tracks which session ids are live.
type SessionStore interface {
	Put(ctx context.Context, sessionID, subjectID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// CredentialRepository persists sign-in credentials.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Create(ctx context.Context, cred *domain.Credential) error
}
