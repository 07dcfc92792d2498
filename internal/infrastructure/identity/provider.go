// Package identity is the session authority of the dashboard: it signs
// volunteers in with email and password and hands out short-lived HS256
// session tokens whose session id must stay live in a SessionStore.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const (
	defaultTTL           = time.Hour
	defaultRefreshWindow = 15 * time.Minute
)

// Config controls token lifetimes.
type Config struct {
	Secret string
	// TTL is the lifetime of a freshly minted token and of its session.
	TTL time.Duration
	// RefreshWindow is how close to expiry a token must be before Refresh
	// re-mints it.
	RefreshWindow time.Duration
	// Now overrides the clock; tests only.
	Now func() time.Time
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Provider implements ports.IdentityProvider.
type Provider struct {
	creds    ports.CredentialRepository
	sessions ports.SessionStore
	secret   []byte
	ttl      time.Duration
	window   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

var _ ports.IdentityProvider = (*Provider)(nil)

// NewProvider returns a Provider. Zero durations fall back to defaults.
func NewProvider(creds ports.CredentialRepository, sessions ports.SessionStore, cfg Config, log zerolog.Logger) *Provider {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.RefreshWindow <= 0 || cfg.RefreshWindow > cfg.TTL {
		cfg.RefreshWindow = min(defaultRefreshWindow, cfg.TTL)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{
		creds:    creds,
		sessions: sessions,
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		window:   cfg.RefreshWindow,
		now:      cfg.Now,
		log:      log,
	}
}

// SignUp registers a new credential and returns its subject.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		SubjectID:    uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		return nil, err
	}
	return &domain.AuthUser{ID: cred.SubjectID, Email: cred.Email}, nil
}

// SignIn checks the password and opens a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, *domain.AuthUser, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	sid := uuid.NewString()
	if err := p.sessions.Put(ctx, sid, cred.SubjectID, p.ttl); err != nil {
		return "", nil, fmt.Errorf("open session: %w", err)
	}

	user := &domain.AuthUser{ID: cred.SubjectID, Email: cred.Email, SessionID: sid}
	token, err := p.mint(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetUser verifies the token signature and expiry, then confirms the
// session is still live.
func (p *Provider) GetUser(ctx context.Context, token string) (*domain.AuthUser, error) {
	claims, err := p.parse(token, true)
	if err != nil {
		return nil, err
	}

	live, err := p.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if !live {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrSessionRevoked)
	}

	return &domain.AuthUser{
		ID:        claims.Subject,
		Email:     claims.Email,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh validates token and, when it is within the refresh window,
// re-mints it for the same session and extends the session lifetime.
func (p *Provider) Refresh(ctx context.Context, token string) (string, *domain.AuthUser, error) {
	user, err := p.GetUser(ctx, token)
	if err != nil {
		return "", nil, err
	}
	if user.ExpiresAt.Sub(p.now()) > p.window {
		return token, user, nil
	}

	if err := p.sessions.Touch(ctx, user.SessionID, p.ttl); err != nil {
		return "", nil, fmt.Errorf("extend session: %w", err)
	}
	fresh, err := p.mint(user)
	if err != nil {
		return "", nil, err
	}
	p.log.Debug().Str("subject", user.ID).Msg("session token refreshed")
	return fresh, user, nil
}

// SignOut revokes the session behind token. Expired tokens can still be
// signed out as long as the signature is valid.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token, false)
	if err != nil {
		return err
	}
	if err := p.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// mint signs a token for user and updates user.ExpiresAt.
func (p *Provider) mint(user *domain.AuthUser) (string, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        user.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	user.ExpiresAt = jwt.NewNumericDate(exp).Time
	return signed, nil
}

func (p *Provider) parse(token string, validateClaims bool) (*sessionClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	}
	if validateClaims {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &sessionClaims{}
	tkn, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token missing subject or session", domain.ErrUnauthorized)
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
