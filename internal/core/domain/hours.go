package domain

import "time"

// HoursStatus represents the approval state of logged volunteer hours.
type HoursStatus string

const (
	HoursPending  HoursStatus = "pending"
	HoursApproved HoursStatus = "approved"
	HoursRejected HoursStatus = "rejected"
)

var validHoursTransitions = map[HoursStatus][]HoursStatus{
	HoursPending: {HoursApproved, HoursRejected},
}

// CanTransitionTo reports whether a transition from the current status to
// next is valid.
func (s HoursStatus) CanTransitionTo(next HoursStatus) bool {
	for _, allowed := range validHoursTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoursEntry is a single attendance record awaiting or past approval.
type HoursEntry struct {
	ID          string      `json:"id"`
	VolunteerID string      `json:"volunteer_id"`
	EventID     string      `json:"event_id"`
	Hours       float64     `json:"hours"`
	Status      HoursStatus `json:"status"`
	ReviewedBy  string      `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ReviewedAt  *time.Time  `json:"reviewed_at,omitempty"`
}

// Event is a volunteering activity hours are logged against.
type Event struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	StartsAt time.Time `json:"starts_at"`
	Active   bool      `json:"active"`
}
