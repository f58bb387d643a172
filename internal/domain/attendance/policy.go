package attendance

import (
	"context"
	"time"
)

type LeaveKind string

const (
	LeaveNone    LeaveKind = ""
	LeaveFullDay LeaveKind = "full_day"
	LeaveHalfDay LeaveKind = "half_day"
)

type LeaveInfo struct {
	Kind LeaveKind
	Ref  string
}

func (l LeaveInfo) Active() bool {
	return l.Kind != LeaveNone
}

type CorrectionStatus string

const (
	CorrectionNone     CorrectionStatus = ""
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
)

// Settings are the tunable thresholds read fresh on every evaluation.
type Settings struct {
	MinWorkingHours           float64
	EnableRegularization      bool
	AutoSubmitBufferHours     float64
	RegularizationWindowHours float64
}

// DefaultSettings are used whenever the settings source is unavailable.
func DefaultSettings() Settings {
	return Settings{
		MinWorkingHours:           4,
		EnableRegularization:      false,
		AutoSubmitBufferHours:     4,
		RegularizationWindowHours: 24,
	}
}

// Shift is a time-of-day window. End before Start means the shift ends on
// the following calendar day.
type Shift struct {
	Ref   string
	Start time.Duration
	End   time.Duration
}

// EndOn returns the shift end for the civil date (midnight in its zone).
func (s Shift) EndOn(date time.Time) time.Time {
	if s.End < s.Start {
		return AtClock(date.AddDate(0, 0, 1), s.End)
	}
	return AtClock(date, s.End)
}

// AtClock returns the wall-clock time offset from midnight of date's day.
func AtClock(date time.Time, offset time.Duration) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, int(offset/time.Second), 0, date.Location())
}

// PolicySource supplies leave, holiday, shift and correction facts plus
// settings. Dates passed in are civil dates (midnight, engine zone).
type PolicySource interface {
	Settings(ctx context.Context) (Settings, error)

	// Shift returns nil when the employee has no shift for the date.
	Shift(ctx context.Context, employeeID string, date time.Time) (*Shift, error)

	LeaveStatus(ctx context.Context, employeeID string, date time.Time) (LeaveInfo, error)
	IsHoliday(ctx context.Context, employeeID string, date time.Time) (bool, error)
	CorrectionStatus(ctx context.Context, employeeID string, date time.Time) (CorrectionStatus, error)
}
