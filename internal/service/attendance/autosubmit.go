package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type Trigger string

const (
	TriggerNone           Trigger = ""
	TriggerBuffer         Trigger = "shift_end_buffer"
	TriggerRegularization Trigger = "regularization_window"
)

// DecisionInput is everything the state machine looks at for one draft.
type DecisionInput struct {
	Record     attendance.Record
	Settings   attendance.Settings
	ShiftEnd   time.Time
	Now        time.Time
	Correction attendance.CorrectionStatus
}

type Decision struct {
	Submit  bool
	Trigger Trigger
	Reason  string
}

// Decide evaluates the Draft -> Final transition for one record. It is pure;
// the sweep supplies policy facts and the clock.
func Decide(in DecisionInput) Decision {
	if reason, ok := gate(in); !ok {
		return Decision{Reason: reason}
	}

	r := in.Record
	if r.Status == attendance.StatusHoliday || r.Status == attendance.StatusOnLeave {
		return Decision{Reason: "holiday and leave days are not auto-submitted"}
	}
	if in.Correction != attendance.CorrectionApproved && r.WorkedHours < in.Settings.MinWorkingHours {
		return Decision{Reason: "worked hours below minimum"}
	}
	return Decision{Submit: true, Trigger: window(in)}
}

// gate checks the conditions that do not depend on the record's computed
// status or hours.
func gate(in DecisionInput) (string, bool) {
	switch {
	case !in.Record.IsDraft():
		return "record is not draft", false
	case in.Correction == attendance.CorrectionPending:
		return "correction request pending", false
	case window(in) == TriggerNone:
		return "submission window not reached", false
	}
	return "", true
}

func window(in DecisionInput) Trigger {
	if !in.Now.Before(in.ShiftEnd.Add(hours(in.Settings.AutoSubmitBufferHours))) {
		return TriggerBuffer
	}
	if in.Settings.EnableRegularization &&
		!in.Now.Before(in.ShiftEnd.Add(hours(in.Settings.RegularizationWindowHours))) {
		return TriggerRegularization
	}
	return TriggerNone
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// SweepAutoSubmit implements attendance.Engine. Drafts are listed a page at
// a time in (date, employee) order until the store runs out.
func (e *AttendanceEngine) SweepAutoSubmit(ctx context.Context, now time.Time) (attendance.SweepResult, error) {
	settings := e.settings(ctx)
	e.log.Info("AutoSubmit: sweeping drafts", "now", now, "page_size", e.opts.SweepBatchLimit)

	var (
		result  attendance.SweepResult
		cursor  *attendance.DraftCursor
		scanned int
	)
	for {
		drafts, err := e.records.ListDrafts(ctx, attendance.DraftFilter{After: cursor, Limit: e.opts.SweepBatchLimit})
		if err != nil {
			return result, fmt.Errorf("list drafts: %w", err)
		}

		for _, rec := range drafts {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			finalized, err := e.sweepRecord(ctx, rec, settings, now)
			if err != nil {
				if isAbort(err) {
					e.log.Error("AutoSubmit: sweep aborted", "record_id", rec.ID, "error", err)
					return result, err
				}
				e.log.Error("AutoSubmit: failed to evaluate draft",
					"record_id", rec.ID, "employee_id", rec.EmployeeID, "error", err)
				result.Errors = append(result.Errors, &attendance.UnitError{
					Op:         "auto_submit",
					EmployeeID: rec.EmployeeID,
					Date:       e.dateOf(rec.Date),
					RecordID:   rec.ID,
					Err:        err,
				})
				continue
			}
			if finalized {
				result.Finalized = append(result.Finalized, rec.ID)
			}
		}

		scanned += len(drafts)
		if e.opts.SweepBatchLimit <= 0 || len(drafts) < e.opts.SweepBatchLimit {
			break
		}
		cursor = attendance.CursorOf(drafts[len(drafts)-1])
	}

	e.log.Info("AutoSubmit: sweep completed",
		"drafts", scanned, "finalized", len(result.Finalized), "errors", len(result.Errors))
	return result, nil
}

// sweepRecord refreshes a draft from current events and policy, then locks it
// if the fresh record is eligible. Only gates that do not depend on the stored
// status or hours are checked before the refresh.
func (e *AttendanceEngine) sweepRecord(ctx context.Context, rec attendance.Record, settings attendance.Settings, now time.Time) (bool, error) {
	date := e.dateOf(rec.Date)

	correction, err := e.policy.CorrectionStatus(ctx, rec.EmployeeID, date)
	if err != nil {
		return false, fmt.Errorf("correction status: %w", err)
	}

	in := DecisionInput{
		Record:     rec,
		Settings:   settings,
		ShiftEnd:   e.shiftEnd(ctx, rec.EmployeeID, date),
		Now:        now,
		Correction: correction,
	}
	if reason, ok := gate(in); !ok {
		e.log.Debug("AutoSubmit: draft not eligible", "record_id", rec.ID, "reason", reason)
		return false, nil
	}

	fresh, _, err := e.reconcileOne(ctx, rec.EmployeeID, date, &rec, settings)
	if err != nil {
		return false, fmt.Errorf("refresh before finalize: %w", err)
	}
	if !fresh.IsDraft() {
		return false, nil
	}

	in.Record = fresh
	d := Decide(in)
	if !d.Submit {
		e.log.Debug("AutoSubmit: draft not eligible after refresh",
			"record_id", rec.ID, "reason", d.Reason, "status", fresh.Status, "worked_hours", fresh.WorkedHours)
		return false, nil
	}

	if err := e.records.Finalize(ctx, fresh.ID, now); err != nil {
		if errors.Is(err, attendance.ErrRecordFinal) {
			return false, nil
		}
		return false, fmt.Errorf("finalize: %w", err)
	}

	e.log.Info("AutoSubmit: attendance finalized",
		"record_id", fresh.ID,
		"employee_id", fresh.EmployeeID,
		"date", dayKey(date),
		"trigger", d.Trigger,
		"worked_hours", fresh.WorkedHours,
		"status", fresh.Status)
	return true, nil
}
