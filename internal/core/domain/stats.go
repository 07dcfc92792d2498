package domain

import "time"

// DashboardStats is the headline aggregate shown on the dashboard.
type DashboardStats struct {
	TotalVolunteers int64   `json:"total_volunteers"`
	ActiveEvents    int64   `json:"active_events"`
	ApprovedHours   float64 `json:"approved_hours"`
	PendingHours    float64 `json:"pending_hours"`
}

// MonthlyTrend aggregates approved hours per calendar month.
type MonthlyTrend struct {
	Month      time.Time `json:"month"`
	Hours      float64   `json:"hours"`
	Volunteers int64     `json:"volunteers"`
}

// Category is an event category with its number of active events.
type Category struct {
	Name   string `json:"name"`
	Events int64  `json:"events"`
}
