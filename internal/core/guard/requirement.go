// Package guard decides whether the current session satisfies a route's
// role requirement.
//
// The decision is a UX convenience: pages use it to redirect early, but
// every service re-checks roles at the data-access boundary.
package guard

import (
	"strings"
)

// Mode selects how a Requirement's roles are combined.
type Mode int

const (
	// ModeAny passes when at least one required role is held.
	ModeAny Mode = iota
	// ModeAll passes when every required role is held.
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "any"
}

// Requirement is the declarative role requirement of a protected route.
// A Requirement with no roles only demands authentication.
type Requirement struct {
	Mode  Mode
	Roles []string
}

// Authenticated admits any signed-in volunteer.
func Authenticated() Requirement {
	return Requirement{Mode: ModeAny}
}

// Any admits volunteers holding at least one of roles.
func Any(roles ...string) Requirement {
	return Requirement{Mode: ModeAny, Roles: roles}
}

// All admits volunteers holding every one of roles.
func All(roles ...string) Requirement {
	return Requirement{Mode: ModeAll, Roles: roles}
}

// Satisfied evaluates the requirement against the held role set:
// ALL passes iff Roles ⊆ held, ANY passes iff Roles ∩ held ≠ ∅, and an
// empty requirement always passes.
func (r Requirement) Satisfied(held []string) bool {
	if len(r.Roles) == 0 {
		return true
	}

	set := make(map[string]struct{}, len(held))
	for _, h := range held {
		set[h] = struct{}{}
	}

	if r.Mode == ModeAll {
		for _, role := range r.Roles {
			if _, ok := set[role]; !ok {
				return false
			}
		}
		return true
	}

	for _, role := range r.Roles {
		if _, ok := set[role]; ok {
			return true
		}
	}
	return false
}

func (r Requirement) String() string {
	if len(r.Roles) == 0 {
		return "authenticated"
	}
	return r.Mode.String() + "(" + strings.Join(r.Roles, ",") + ")"
}
