package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// policyRepository reads leave, holiday, shift, regularization and settings
// tables. Lookup failures are reported as attendance.ErrPolicyUnavailable.
type policyRepository struct {
	db *database.DB
}

func policyErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", attendance.ErrPolicyUnavailable, what, mapError(err))
}

// Settings implements attendance.PolicySource.
func (p *policyRepository) Settings(ctx context.Context) (attendance.Settings, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT min_working_hours, enable_regularization, auto_submit_buffer_hours, regularization_window_hours
		FROM attendance_settings
		WHERE id = 1
	`

	var s attendance.Settings
	err := q.QueryRow(ctx, query).Scan(
		&s.MinWorkingHours, &s.EnableRegularization, &s.AutoSubmitBufferHours, &s.RegularizationWindowHours,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DefaultSettings(), nil
		}
		return attendance.Settings{}, policyErr("settings", err)
	}

	return s, nil
}

// Shift implements attendance.PolicySource. A dated assignment wins over the
// employee's default shift.
func (p *policyRepository) Shift(ctx context.Context, employeeID string, date time.Time) (*attendance.Shift, error) {
	q := GetQuerier(ctx, p.db)

	assigned := `
		SELECT s.id, s.start_time, s.end_time
		FROM shift_assignments sa
		JOIN shifts s ON s.id = sa.shift_id
		WHERE sa.employee_id = $1
		  AND sa.active
		  AND sa.start_date <= $2
		  AND (sa.end_date IS NULL OR sa.end_date >= $2)
		ORDER BY sa.start_date DESC
		LIMIT 1
	`
	shift, err := scanShift(q.QueryRow(ctx, assigned, employeeID, date))
	if err == nil {
		return shift, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, policyErr("shift assignment", err)
	}

	fallback := `
		SELECT s.id, s.start_time, s.end_time
		FROM employees e
		JOIN shifts s ON s.id = e.default_shift_id
		WHERE e.id = $1
	`
	shift, err = scanShift(q.QueryRow(ctx, fallback, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, policyErr("default shift", err)
	}
	return shift, nil
}

func scanShift(row pgx.Row) (*attendance.Shift, error) {
	var (
		ref        string
		start, end pgtype.Time
	)
	if err := row.Scan(&ref, &start, &end); err != nil {
		return nil, err
	}
	return &attendance.Shift{
		Ref:   ref,
		Start: time.Duration(start.Microseconds) * time.Microsecond,
		End:   time.Duration(end.Microseconds) * time.Microsecond,
	}, nil
}

// LeaveStatus implements attendance.PolicySource. A full-day leave wins when
// approved leaves overlap.
func (p *policyRepository) LeaveStatus(ctx context.Context, employeeID string, date time.Time) (attendance.LeaveInfo, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, (half_day AND (half_day_date IS NULL OR half_day_date = $2)) AS is_half
		FROM leave_requests
		WHERE employee_id = $1
		  AND status = 'approved'
		  AND start_date <= $2
		  AND end_date >= $2
		ORDER BY is_half, id
		LIMIT 1
	`

	var (
		ref    string
		isHalf bool
	)
	err := q.QueryRow(ctx, query, employeeID, date).Scan(&ref, &isHalf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.LeaveInfo{}, nil
		}
		return attendance.LeaveInfo{}, policyErr("leave", err)
	}

	if isHalf {
		return attendance.LeaveInfo{Kind: attendance.LeaveHalfDay, Ref: ref}, nil
	}
	return attendance.LeaveInfo{Kind: attendance.LeaveFullDay, Ref: ref}, nil
}

// IsHoliday implements attendance.PolicySource.
func (p *policyRepository) IsHoliday(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM employees e
			JOIN holidays h ON h.holiday_list_id = e.holiday_list_id
			WHERE e.id = $1
			  AND h.holiday_date = $2
		)
	`

	var holiday bool
	if err := q.QueryRow(ctx, query, employeeID, date).Scan(&holiday); err != nil {
		return false, policyErr("holiday", err)
	}
	return holiday, nil
}

// CorrectionStatus implements attendance.PolicySource. Pending wins over approved.
func (p *policyRepository) CorrectionStatus(ctx context.Context, employeeID string, date time.Time) (attendance.CorrectionStatus, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT status
		FROM regularization_requests
		WHERE employee_id = $1
		  AND date = $2
		  AND status IN ('pending', 'approved')
		ORDER BY (status = 'pending') DESC, created_at DESC
		LIMIT 1
	`

	var status attendance.CorrectionStatus
	err := q.QueryRow(ctx, query, employeeID, date).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.CorrectionNone, nil
		}
		return attendance.CorrectionNone, policyErr("regularization", err)
	}
	return status, nil
}

func NewPolicyRepository(db *database.DB) attendance.PolicySource {
	return &policyRepository{db: db}
}
