package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type checkinRepository struct {
	db *database.DB
}

// EventsFor implements checkin.CheckinRepository.
func (r *checkinRepository) EventsFor(ctx context.Context, employeeID string, from, to time.Time) ([]checkin.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, ts, direction, source_device, created_at
		FROM checkins
		WHERE employee_id = $1
		  AND ts >= $2
		  AND ts < $3
		ORDER BY ts, id
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query checkins: %w", mapError(err))
	}
	defer rows.Close()

	var events []checkin.Event
	for rows.Next() {
		var (
			ev        checkin.Event
			direction *string
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &ev.Timestamp, &direction, &ev.SourceDevice, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		if direction != nil {
			ev.Direction = checkin.Direction(*direction)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkins: %w", mapError(err))
	}

	return events, nil
}

// Exists implements checkin.CheckinRepository.
func (r *checkinRepository) Exists(ctx context.Context, employeeID string, ts time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM checkins WHERE employee_id = $1 AND ts_unix = $2)`,
		employeeID, checkin.KeyOf(employeeID, ts).Unix,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check checkin: %w", mapError(err))
	}

	return exists, nil
}

// Create implements checkin.CheckinRepository.
func (r *checkinRepository) Create(ctx context.Context, ev checkin.Event) (checkin.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO checkins (id, employee_id, ts, ts_unix, direction, source_device)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, ts_unix) DO NOTHING
		RETURNING created_at
	`

	var direction *string
	if ev.Direction != checkin.DirectionUnknown {
		d := string(ev.Direction)
		direction = &d
	}

	err := q.QueryRow(ctx, query,
		ev.ID, ev.EmployeeID, ev.Timestamp, ev.Key().Unix, direction, ev.SourceDevice,
	).Scan(&ev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkin.Event{}, checkin.ErrDuplicateCheckin
		}
		return checkin.Event{}, fmt.Errorf("failed to create checkin: %w", mapError(err))
	}

	return ev, nil
}

// ListEmployeeDays implements checkin.CheckinRepository.
func (r *checkinRepository) ListEmployeeDays(ctx context.Context, from, to time.Time, loc *time.Location) ([]checkin.EmployeeDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id, (ts AT TIME ZONE $3)::date AS day
		FROM checkins
		WHERE ts >= $1
		  AND ts < $2
		ORDER BY day, employee_id
	`

	rows, err := q.Query(ctx, query, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list checkin days: %w", mapError(err))
	}
	defer rows.Close()

	var days []checkin.EmployeeDay
	for rows.Next() {
		var (
			d checkin.EmployeeDay
			t time.Time
		)
		if err := rows.Scan(&d.EmployeeID, &t); err != nil {
			return nil, fmt.Errorf("failed to scan checkin day: %w", err)
		}
		d.Date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkin days: %w", mapError(err))
	}

	return days, nil
}

func NewCheckinRepository(db *database.DB) checkin.CheckinRepository {
	return &checkinRepository{db: db}
}
