package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/google/uuid"
)

// Ingest implements attendance.Engine. It is the only place device punches
// become checkin events.
func (e *AttendanceEngine) Ingest(ctx context.Context, punches []checkin.DevicePunch) (checkin.IngestResult, error) {
	var result checkin.IngestResult
	if len(punches) == 0 {
		return result, nil
	}

	mapping, err := e.employees.MapDeviceUsers(ctx, deviceUserIDs(punches))
	if err != nil {
		return result, fmt.Errorf("map device users: %w", err)
	}

	events := make([]checkin.Event, 0, len(punches))
	for i, p := range punches {
		userID := strings.TrimSpace(p.UserID)
		if userID == "" {
			result.Errors = append(result.Errors, fmt.Errorf("punch %d: %w: %w", i, attendance.ErrInput, checkin.ErrMissingEmployee))
			continue
		}
		employeeID, ok := mapping[userID]
		if !ok {
			e.log.Debug("Ingest: skipping punch from unmapped device user", "user_id", userID, "device", p.Device)
			result.Skipped++
			continue
		}
		ts, err := p.ParseTimestamp(e.opts.Location)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("punch %d (user %s, %q): %w: %w", i, userID, p.Timestamp, attendance.ErrInput, err))
			continue
		}
		events = append(events, checkin.Event{
			EmployeeID:   employeeID,
			Timestamp:    ts,
			Direction:    checkin.DirectionForPunch(p.Punch),
			SourceDevice: p.Device,
		})
	}

	// Keys already in the store, plus keys whose lookup failed so they are
	// not inserted blind.
	known := make(checkin.KeySet)
	failed := 0
	for _, ev := range events {
		if known.Has(ev.Key()) {
			continue
		}
		exists, err := e.checkins.Exists(ctx, ev.EmployeeID, ev.Timestamp)
		if err != nil {
			if isAbort(err) {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Errorf("lookup checkin %s: %w", ev.Key(), err))
			known.Add(ev.Key())
			failed++
			continue
		}
		if exists {
			known.Add(ev.Key())
		}
	}

	fresh, dropped := Deduplicate(events, known)
	result.Errors = append(result.Errors, dropped...)
	result.Skipped += len(events) - len(fresh) - len(dropped) - failed

	now := time.Now()
	for _, ev := range fresh {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		id, err := uuid.NewV7()
		if err != nil {
			return result, fmt.Errorf("generate checkin id: %w", err)
		}
		ev.ID = id.String()
		ev.CreatedAt = now

		created, err := e.checkins.Create(ctx, ev)
		if err != nil {
			if errors.Is(err, checkin.ErrDuplicateCheckin) {
				result.Skipped++
				continue
			}
			if isAbort(err) {
				return result, err
			}
			result.Errors = append(result.Errors, fmt.Errorf("store checkin %s: %w", ev.Key(), err))
			continue
		}
		result.Created = append(result.Created, created.ID)
	}

	e.log.Info("Ingest: batch stored",
		"punches", len(punches),
		"created", len(result.Created),
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func deviceUserIDs(punches []checkin.DevicePunch) []string {
	ids := make([]string, 0, len(punches))
	for _, p := range punches {
		ids = append(ids, strings.TrimSpace(p.UserID))
	}
	return uniqueIDs(ids)
}
