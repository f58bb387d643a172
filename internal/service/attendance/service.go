package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type Options struct {
	// Location is the zone civil attendance dates are computed in.
	Location *time.Location

	// DefaultShiftEnd is the time of day used when no shift is assigned.
	DefaultShiftEnd time.Duration

	SinglePunch             SinglePunchPolicy
	SinglePunchLookbackDays int

	// GapLookbackDays extends every reconcile pass backwards to heal days
	// that have events but no record.
	GapLookbackDays int

	Workers int

	// SweepBatchLimit is the page size the sweep lists drafts with.
	SweepBatchLimit int

	// DefaultSettings stand in for the policy source when it cannot answer.
	DefaultSettings attendance.Settings

	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Location:                time.UTC,
		DefaultShiftEnd:         18*time.Hour + 30*time.Minute,
		SinglePunch:             SinglePunchLookback,
		SinglePunchLookbackDays: 7,
		GapLookbackDays:         7,
		Workers:                 4,
		SweepBatchLimit:         1000,
		DefaultSettings:         attendance.DefaultSettings(),
	}
}

type AttendanceEngine struct {
	checkins  checkin.CheckinRepository
	records   attendance.AttendanceRepository
	employees employee.EmployeeRepository
	policy    attendance.PolicySource
	agg       Aggregator
	opts      Options
	log       *slog.Logger
}

func NewAttendanceEngine(
	checkins checkin.CheckinRepository,
	records attendance.AttendanceRepository,
	employees employee.EmployeeRepository,
	policy attendance.PolicySource,
	opts Options,
) *AttendanceEngine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SinglePunch == "" {
		opts.SinglePunch = SinglePunchLookback
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceEngine{
		checkins:  checkins,
		records:   records,
		employees: employees,
		policy:    policy,
		agg: Aggregator{
			Policy:       opts.SinglePunch,
			LookbackDays: opts.SinglePunchLookbackDays,
		},
		opts: opts,
		log:  logger,
	}
}

var _ attendance.Engine = (*AttendanceEngine)(nil)

// Classify implements attendance.Engine.
func (e *AttendanceEngine) Classify(workedHours float64, leave attendance.LeaveInfo, holiday bool, minHours float64) attendance.Status {
	return Classify(workedHours, leave, holiday, minHours)
}

// civil truncates t to midnight of its calendar date in the engine zone.
func (e *AttendanceEngine) civil(t time.Time) time.Time {
	t = t.In(e.opts.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.opts.Location)
}

// dateOf reads the calendar fields of a stored date as a civil date in the
// engine zone. Stores may hand dates back in UTC.
func (e *AttendanceEngine) dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.opts.Location)
}

func dayKey(d time.Time) string {
	return d.Format("2006-01-02")
}

// settings reads the current thresholds, falling back to defaults.
func (e *AttendanceEngine) settings(ctx context.Context) attendance.Settings {
	s, err := e.policy.Settings(ctx)
	if err != nil {
		e.log.Warn("Attendance settings unavailable, using defaults", "error", err)
		return e.opts.DefaultSettings
	}
	return s
}

// shiftEnd resolves the auto-submit anchor for an employee-day.
func (e *AttendanceEngine) shiftEnd(ctx context.Context, employeeID string, date time.Time) time.Time {
	shift, err := e.policy.Shift(ctx, employeeID, date)
	if err != nil {
		e.log.Warn("Shift lookup failed, using default shift end",
			"employee_id", employeeID, "date", dayKey(date), "error", err)
		return attendance.AtClock(date, e.opts.DefaultShiftEnd)
	}
	if shift == nil {
		return attendance.AtClock(date, e.opts.DefaultShiftEnd)
	}
	return shift.EndOn(date)
}

func isAbort(err error) bool {
	return errors.Is(err, attendance.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
