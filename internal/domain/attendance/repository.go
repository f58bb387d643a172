package attendance

import (
	"context"
	"time"
)

type DraftFilter struct {
	EmployeeIDs []string
	From        *time.Time
	To          *time.Time
	// After resumes listing strictly past this (date, employee) key.
	After *DraftCursor
	Limit int
}

// DraftCursor is a position in the (date, employee_id) draft order.
type DraftCursor struct {
	Date       time.Time
	EmployeeID string
}

// CursorOf returns the cursor positioned at rec.
func CursorOf(rec Record) *DraftCursor {
	return &DraftCursor{Date: rec.Date, EmployeeID: rec.EmployeeID}
}

// AttendanceRepository is the Attendance Store. Implementations must enforce
// (employee_id, date) uniqueness and report a losing create as ErrStoreConflict.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil, nil when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	GetByID(ctx context.Context, id string) (Record, error)

	// ListByEmployee returns records with from <= date <= to.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)

	Create(ctx context.Context, record Record) (Record, error)

	// Update writes only the named fields of record, and only while Draft.
	// Returns ErrRecordFinal when the record was finalized meanwhile.
	Update(ctx context.Context, id string, record Record, fields []Field) error

	// Finalize moves a Draft to Final. Returns ErrRecordFinal if it is not Draft.
	Finalize(ctx context.Context, id string, at time.Time) error

	ListDrafts(ctx context.Context, filter DraftFilter) ([]Record, error)
}
