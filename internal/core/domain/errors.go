package domain

import "errors"

// Identity and authorization failures. Handlers and middleware classify
// these with errors.Is; the HTTP error handler maps them to status codes.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrProfileNotFound    = errors.New("volunteer profile not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// Data errors.
var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrHoursNotFound     = errors.New("hours entry not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidHours      = errors.New("hours must be greater than 0 and at most 24")
)
