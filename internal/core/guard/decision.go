package guard

import (
	"context"
	"errors"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

// State is the render state of a guarded route. Renderers must switch on
// it exhaustively.
type State int

const (
	// StateLoading is the zero value: the check has not resolved, either
	// because it is still in flight or because the request was aborted.
	StateLoading State = iota
	StateUnauthenticated
	// StateProfileMissing is a valid session with no volunteer profile.
	StateProfileMissing
	StateUnauthorized
	StateAuthorized
	// StateFailed means a lookup failed for reasons unrelated to identity.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateProfileMissing:
		return "profile_missing"
	case StateUnauthorized:
		return "unauthorized"
	case StateAuthorized:
		return "authorized"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Decision is the outcome of Evaluate. Volunteer and Roles are only set
// for StateAuthorized and StateUnauthorized.
type Decision struct {
	State     State
	Volunteer *domain.Volunteer
	Roles     []string
	Err       error
}

// Subject is the request-scoped view of the current session.
type Subject interface {
	CurrentVolunteer(ctx context.Context) (*domain.Volunteer, error)
	Roles(ctx context.Context) ([]string, error)
}

// Evaluate resolves the requirement for subject. It never panics and never
// returns an error separately: failures are folded into the Decision.
func Evaluate(ctx context.Context, subject Subject, req Requirement) Decision {
	if err := ctx.Err(); err != nil {
		return Decision{State: StateLoading, Err: err}
	}
	if subject == nil {
		return Decision{State: StateUnauthenticated, Err: domain.ErrUnauthorized}
	}

	v, err := subject.CurrentVolunteer(ctx)
	if err != nil {
		return classify(ctx, err)
	}

	held, err := subject.Roles(ctx)
	if err != nil {
		return classify(ctx, err)
	}

	if !req.Satisfied(held) {
		return Decision{State: StateUnauthorized, Volunteer: v, Roles: held, Err: domain.ErrForbidden}
	}
	return Decision{State: StateAuthorized, Volunteer: v, Roles: held}
}

func classify(ctx context.Context, err error) Decision {
	switch {
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return Decision{State: StateLoading, Err: err}
	case errors.Is(err, domain.ErrUnauthorized):
		return Decision{State: StateUnauthenticated, Err: err}
	case errors.Is(err, domain.ErrProfileNotFound):
		return Decision{State: StateProfileMissing, Err: err}
	}
	return Decision{State: StateFailed, Err: err}
}
