package checkin

import (
	"context"
	"time"
)

// EmployeeDay is one (employee, civil date) pair that has at least one event.
type EmployeeDay struct {
	EmployeeID string
	Date       time.Time
}

// CheckinRepository is the Checkin Store consumed by the engine.
type CheckinRepository interface {
	// EventsFor returns events for the employee with from <= timestamp < to, ordered by timestamp.
	EventsFor(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)

	// Exists reports whether an event with the same employee and second is stored.
	Exists(ctx context.Context, employeeID string, ts time.Time) (bool, error)

	// Create stores a new event. Returns ErrDuplicateCheckin when the key is taken.
	Create(ctx context.Context, event Event) (Event, error)

	// ListEmployeeDays returns distinct employee-days with events in [from, to), dates in loc.
	ListEmployeeDays(ctx context.Context, from, to time.Time, loc *time.Location) ([]EmployeeDay, error)
}
