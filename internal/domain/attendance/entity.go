package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusHalfDay Status = "half_day"
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
	StatusHoliday Status = "holiday"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusHalfDay, StatusAbsent, StatusOnLeave, StatusHoliday:
		return true
	}
	return false
}

// State is the record lifecycle. Draft moves to Final exactly once.
type State string

const (
	StateDraft State = "draft"
	StateFinal State = "final"
)

// Record is one employee-day's reconciled attendance.
// (EmployeeID, Date) is unique across the store.
type Record struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	InTime      *time.Time
	OutTime     *time.Time
	WorkedHours float64
	Status      Status
	ShiftRef    *string
	LeaveRef    *string
	State       State
	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Record) IsDraft() bool {
	return r.State == StateDraft
}

// Field names a mutable record column.
type Field string

const (
	FieldInTime      Field = "in_time"
	FieldOutTime     Field = "out_time"
	FieldWorkedHours Field = "worked_hours"
	FieldStatus      Field = "status"
	FieldShiftRef    Field = "shift_ref"
	FieldLeaveRef    Field = "leave_ref"
)

// Diff returns the fields on which desired differs from r.
func (r Record) Diff(desired Record) []Field {
	var fields []Field
	if !timePtrEqual(r.InTime, desired.InTime) {
		fields = append(fields, FieldInTime)
	}
	if !timePtrEqual(r.OutTime, desired.OutTime) {
		fields = append(fields, FieldOutTime)
	}
	if r.WorkedHours != desired.WorkedHours {
		fields = append(fields, FieldWorkedHours)
	}
	if r.Status != desired.Status {
		fields = append(fields, FieldStatus)
	}
	if !strPtrEqual(r.ShiftRef, desired.ShiftRef) {
		fields = append(fields, FieldShiftRef)
	}
	if !strPtrEqual(r.LeaveRef, desired.LeaveRef) {
		fields = append(fields, FieldLeaveRef)
	}
	return fields
}

// Apply copies the named fields from src onto r.
func (r *Record) Apply(src Record, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldInTime:
			r.InTime = src.InTime
		case FieldOutTime:
			r.OutTime = src.OutTime
		case FieldWorkedHours:
			r.WorkedHours = src.WorkedHours
		case FieldStatus:
			r.Status = src.Status
		case FieldShiftRef:
			r.ShiftRef = src.ShiftRef
		case FieldLeaveRef:
			r.LeaveRef = src.LeaveRef
		}
	}
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DaySummary is the Aggregator output for one employee-day.
type DaySummary struct {
	HasSignal   bool
	InTime      *time.Time
	OutTime     *time.Time
	WorkedHours float64
	// PriorOut is the latest OUT punch on a prior working day, set only when
	// the day holds a lone IN punch under the look-back policy.
	PriorOut *time.Time
}
