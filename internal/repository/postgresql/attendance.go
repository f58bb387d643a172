package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, employee_id, date, in_time, out_time, worked_hours,
	status, shift_ref, leave_ref, state, finalized_at, created_at, updated_at
`

type attendanceRepository struct {
	db *database.DB
}

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.InTime, &rec.OutTime, &rec.WorkedHours,
		&rec.Status, &rec.ShiftRef, &rec.LeaveRef, &rec.State, &rec.FinalizedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func collectAttendance(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", mapError(err))
	}
	return records, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = $1
		  AND date = $2
	`

	rec, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", mapError(err))
	}

	return &rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE id = $1`

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by id: %w", mapError(err))
	}

	return rec, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", mapError(err))
	}
	return collectAttendance(rows)
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	if rec.State == "" {
		rec.State = attendance.StateDraft
	}

	query := `
		INSERT INTO attendance (
			employee_id, date, in_time, out_time, worked_hours,
			status, shift_ref, leave_ref, state
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.EmployeeID,
		rec.Date,
		rec.InTime,
		rec.OutTime,
		rec.WorkedHours,
		rec.Status,
		rec.ShiftRef,
		rec.LeaveRef,
		rec.State,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "attendance_employee_date_key") {
			return attendance.Record{}, fmt.Errorf("%w: %s on %s", attendance.ErrStoreConflict, rec.EmployeeID, rec.Date.Format("2006-01-02"))
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", mapError(err))
	}

	return rec, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, id string, rec attendance.Record, fields []attendance.Field) error {
	if len(fields) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	updates := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+1)
	argIdx := 1

	for _, f := range fields {
		var value interface{}
		switch f {
		case attendance.FieldInTime:
			value = rec.InTime
		case attendance.FieldOutTime:
			value = rec.OutTime
		case attendance.FieldWorkedHours:
			value = rec.WorkedHours
		case attendance.FieldStatus:
			value = rec.Status
		case attendance.FieldShiftRef:
			value = rec.ShiftRef
		case attendance.FieldLeaveRef:
			value = rec.LeaveRef
		default:
			return fmt.Errorf("unknown attendance field %q", f)
		}
		updates = append(updates, fmt.Sprintf("%s = $%d", f, argIdx))
		args = append(args, value)
		argIdx++
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE attendance
		SET %s
		WHERE id = $%d AND state = 'draft'
	`, strings.Join(updates, ", "), argIdx)
	args = append(args, id)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return a.notDraft(ctx, id)
	}

	return nil
}

// Finalize implements attendance.AttendanceRepository.
func (a *attendanceRepository) Finalize(ctx context.Context, id string, at time.Time) error {
	return WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		var state attendance.State
		err := q.QueryRow(ctx, `SELECT state FROM attendance WHERE id = $1 FOR UPDATE`, id).Scan(&state)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to lock attendance: %w", mapError(err))
		}
		if state != attendance.StateDraft {
			return attendance.ErrRecordFinal
		}

		_, err = q.Exec(ctx, `
			UPDATE attendance
			SET state = 'final', finalized_at = $2, updated_at = NOW()
			WHERE id = $1
		`, id, at)
		if err != nil {
			return fmt.Errorf("failed to finalize attendance: %w", mapError(err))
		}
		return nil
	})
}

// ListDrafts implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListDrafts(ctx context.Context, filter attendance.DraftFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	where := "WHERE state = 'draft'"
	args := []interface{}{}
	argIdx := 1

	if len(filter.EmployeeIDs) > 0 {
		where += fmt.Sprintf(" AND employee_id = ANY($%d)", argIdx)
		args = append(args, filter.EmployeeIDs)
		argIdx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if filter.After != nil {
		where += fmt.Sprintf(" AND (date, employee_id) > ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.After.Date, filter.After.EmployeeID)
		argIdx += 2
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendance ` + where + ` ORDER BY date, employee_id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft attendance: %w", mapError(err))
	}
	return collectAttendance(rows)
}

// notDraft explains a zero-row draft update.
func (a *attendanceRepository) notDraft(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	var state attendance.State
	err := q.QueryRow(ctx, `SELECT state FROM attendance WHERE id = $1`, id).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrAttendanceNotFound
		}
		return fmt.Errorf("failed to read attendance state: %w", mapError(err))
	}
	return attendance.ErrRecordFinal
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
