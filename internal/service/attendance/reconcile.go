package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"golang.org/x/sync/errgroup"
)

// eventIndex holds one employee's deduplicated events grouped by civil date.
type eventIndex struct {
	byDay map[string][]checkin.Event
}

func (x *eventIndex) on(d time.Time) []checkin.Event {
	return x.byDay[dayKey(d)]
}

func (e *AttendanceEngine) indexEvents(events []checkin.Event) (*eventIndex, []error) {
	grouped := make(map[string][]checkin.Event)
	for _, ev := range events {
		k := dayKey(e.civil(ev.Timestamp))
		grouped[k] = append(grouped[k], ev)
	}

	idx := &eventIndex{byDay: make(map[string][]checkin.Event, len(grouped))}
	var dropped []error
	for k, evs := range grouped {
		clean, errs := Deduplicate(evs, nil)
		idx.byDay[k] = clean
		dropped = append(dropped, errs...)
	}
	return idx, dropped
}

// loadEvents fetches events for [from, to] plus the single-punch look-back.
func (e *AttendanceEngine) loadEvents(ctx context.Context, employeeID string, from, to time.Time) (*eventIndex, []error, error) {
	histFrom := from.AddDate(0, 0, -e.opts.SinglePunchLookbackDays)
	events, err := e.checkins.EventsFor(ctx, employeeID, histFrom, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, fmt.Errorf("load checkins: %w", err)
	}
	idx, dropped := e.indexEvents(events)
	return idx, dropped, nil
}

// Reconcile implements attendance.Engine.
func (e *AttendanceEngine) Reconcile(ctx context.Context, employeeIDs []string, from, to time.Time) (attendance.ReconcileResult, error) {
	from, to = e.dateOf(from), e.dateOf(to)
	if to.Before(from) {
		return attendance.ReconcileResult{}, fmt.Errorf("%w: %s is before %s", attendance.ErrInvalidDateRange, dayKey(to), dayKey(from))
	}

	if len(employeeIDs) == 0 {
		ids, err := e.employees.ListActiveIDs(ctx)
		if err != nil {
			return attendance.ReconcileResult{}, fmt.Errorf("list active employees: %w", err)
		}
		employeeIDs = ids
	}

	scanFrom := from.AddDate(0, 0, -e.opts.GapLookbackDays)
	start := time.Now()
	e.log.Info("Reconcile: starting pass",
		"employees", len(employeeIDs),
		"from", dayKey(from),
		"to", dayKey(to),
		"gap_from", dayKey(scanFrom))

	var (
		mu     sync.Mutex
		result attendance.ReconcileResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, id := range uniqueIDs(employeeIDs) {
		g.Go(func() error {
			touched, errs, err := e.reconcileEmployee(gctx, id, scanFrom, from, to)
			mu.Lock()
			result.Touched = append(result.Touched, touched...)
			result.Errors = append(result.Errors, errs...)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	sort.Strings(result.Touched)

	if err != nil {
		e.log.Error("Reconcile: pass aborted",
			"touched", len(result.Touched), "errors", len(result.Errors), "error", err)
		return result, err
	}

	e.log.Info("Reconcile: pass completed",
		"touched", len(result.Touched),
		"errors", len(result.Errors),
		"duration", time.Since(start))
	return result, nil
}

// reconcileEmployee walks [scanFrom, to] for one employee. Days before from
// are only healed when they have events and no record at all.
func (e *AttendanceEngine) reconcileEmployee(ctx context.Context, employeeID string, scanFrom, from, to time.Time) ([]string, []error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	idx, errs, err := e.loadEvents(ctx, employeeID, scanFrom, to)
	if err == nil {
		var existing []attendance.Record
		existing, err = e.records.ListByEmployee(ctx, employeeID, scanFrom, to)
		if err == nil {
			return e.reconcileDays(ctx, employeeID, idx, existing, scanFrom, from, to, errs)
		}
		err = fmt.Errorf("load attendance: %w", err)
	}

	if isAbort(err) {
		return nil, nil, err
	}
	e.log.Error("Reconcile: failed to load employee", "employee_id", employeeID, "error", err)
	return nil, []error{&attendance.UnitError{Op: "reconcile", EmployeeID: employeeID, Date: from, Err: err}}, nil
}

func (e *AttendanceEngine) reconcileDays(
	ctx context.Context,
	employeeID string,
	idx *eventIndex,
	existing []attendance.Record,
	scanFrom, from, to time.Time,
	errs []error,
) ([]string, []error, error) {
	byDay := make(map[string]attendance.Record, len(existing))
	for _, rec := range existing {
		byDay[dayKey(e.dateOf(rec.Date))] = rec
	}

	settings := e.settings(ctx)
	var touched []string

	for d := scanFrom; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return touched, errs, err
		}

		rec, has := byDay[dayKey(d)]
		hasEvents := len(idx.on(d)) > 0
		if d.Before(from) {
			if has || !hasEvents {
				continue
			}
		} else if !has && !hasEvents {
			continue
		}

		unit := dayUnit{employeeID: employeeID, date: d, history: idx, settings: settings}
		if has {
			unit.existing = &rec
		}

		out, changed, err := e.reconcileDay(ctx, unit)
		if err != nil {
			if isAbort(err) {
				return touched, errs, err
			}
			ue := &attendance.UnitError{Op: "reconcile", EmployeeID: employeeID, Date: d, Err: err}
			if has {
				ue.RecordID = rec.ID
			}
			e.log.Error("Reconcile: failed to reconcile day",
				"employee_id", employeeID, "date", dayKey(d), "record_id", ue.RecordID, "error", err)
			errs = append(errs, ue)
			continue
		}
		if changed {
			touched = append(touched, out.ID)
		}
	}

	return touched, errs, nil
}

// dayUnit is one employee-day merge. Each unit commits on its own.
type dayUnit struct {
	employeeID string
	date       time.Time
	existing   *attendance.Record
	history    *eventIndex
	settings   attendance.Settings
}

// reconcileDay computes the desired record and writes only the differences.
// Final records are never written.
func (e *AttendanceEngine) reconcileDay(ctx context.Context, u dayUnit) (attendance.Record, bool, error) {
	summary := e.summarize(ctx, u.employeeID, u.date, u.history)

	if u.existing != nil && !u.existing.IsDraft() {
		e.reportFinalMismatch(*u.existing, summary)
		return *u.existing, false, nil
	}
	if u.existing == nil && !summary.HasSignal {
		return attendance.Record{}, false, nil
	}

	desired := e.desired(ctx, u.employeeID, u.date, summary, u.settings)

	if u.existing == nil {
		desired.State = attendance.StateDraft
		created, err := e.records.Create(ctx, desired)
		if err == nil {
			e.log.Debug("Reconcile: created attendance",
				"record_id", created.ID, "employee_id", u.employeeID, "date", dayKey(u.date), "status", created.Status)
			return created, true, nil
		}
		if !errors.Is(err, attendance.ErrStoreConflict) {
			return attendance.Record{}, false, fmt.Errorf("create attendance: %w", err)
		}

		// Another pass created the day first; merge into its record instead.
		current, err := e.records.GetByEmployeeAndDate(ctx, u.employeeID, u.date)
		if err != nil {
			return attendance.Record{}, false, fmt.Errorf("reload attendance after conflict: %w", err)
		}
		if current == nil {
			return attendance.Record{}, false, fmt.Errorf("reload attendance after conflict: %w", attendance.ErrAttendanceNotFound)
		}
		if !current.IsDraft() {
			e.reportFinalMismatch(*current, summary)
			return *current, false, nil
		}
		u.existing = current
	}

	return e.applyDiff(ctx, *u.existing, desired)
}

func (e *AttendanceEngine) applyDiff(ctx context.Context, existing, desired attendance.Record) (attendance.Record, bool, error) {
	fields := existing.Diff(desired)
	if len(fields) == 0 {
		return existing, false, nil
	}

	if err := e.records.Update(ctx, existing.ID, desired, fields); err != nil {
		if errors.Is(err, attendance.ErrRecordFinal) {
			e.log.Info("Reconcile: attendance finalized meanwhile, leaving unchanged",
				"record_id", existing.ID, "employee_id", existing.EmployeeID)
			return existing, false, nil
		}
		return existing, false, fmt.Errorf("update attendance: %w", err)
	}

	existing.Apply(desired, fields)
	e.log.Debug("Reconcile: updated attendance",
		"record_id", existing.ID, "employee_id", existing.EmployeeID, "fields", fields)
	return existing, true, nil
}

func (e *AttendanceEngine) summarize(ctx context.Context, employeeID string, date time.Time, idx *eventIndex) attendance.DaySummary {
	events := idx.on(date)
	summary := e.agg.Day(events)
	if e.agg.OpensSession(events) {
		summary.PriorOut = e.agg.PriorOut(date, idx.on, func(d time.Time) bool {
			return e.isWorkingDay(ctx, employeeID, d)
		})
		if summary.PriorOut != nil {
			e.log.Debug("Reconcile: lone check-in follows a prior checkout",
				"employee_id", employeeID, "date", dayKey(date), "prior_out", summary.PriorOut)
		}
	}
	return summary
}

func (e *AttendanceEngine) isWorkingDay(ctx context.Context, employeeID string, date time.Time) bool {
	holiday, err := e.policy.IsHoliday(ctx, employeeID, date)
	if err != nil {
		e.log.Warn("Holiday lookup failed, treating day as working day",
			"employee_id", employeeID, "date", dayKey(date), "error", err)
		return true
	}
	return !holiday
}

// desired builds the full target record for a day from current policy.
// Policy lookups that fail fall back to no leave, no holiday, no shift.
func (e *AttendanceEngine) desired(ctx context.Context, employeeID string, date time.Time, s attendance.DaySummary, settings attendance.Settings) attendance.Record {
	leave, err := e.policy.LeaveStatus(ctx, employeeID, date)
	if err != nil {
		e.log.Warn("Leave lookup failed, assuming no leave",
			"employee_id", employeeID, "date", dayKey(date), "error", err)
		leave = attendance.LeaveInfo{}
	}

	holiday, err := e.policy.IsHoliday(ctx, employeeID, date)
	if err != nil {
		e.log.Warn("Holiday lookup failed, assuming working day",
			"employee_id", employeeID, "date", dayKey(date), "error", err)
		holiday = false
	}

	rec := attendance.Record{
		EmployeeID:  employeeID,
		Date:        date,
		InTime:      s.InTime,
		OutTime:     s.OutTime,
		WorkedHours: s.WorkedHours,
		Status:      Classify(s.WorkedHours, leave, holiday, settings.MinWorkingHours),
	}
	if leave.Active() && leave.Ref != "" {
		ref := leave.Ref
		rec.LeaveRef = &ref
	}

	shift, err := e.policy.Shift(ctx, employeeID, date)
	if err != nil {
		e.log.Warn("Shift lookup failed, leaving shift unset",
			"employee_id", employeeID, "date", dayKey(date), "error", err)
	} else if shift != nil && shift.Ref != "" {
		ref := shift.Ref
		rec.ShiftRef = &ref
	}

	return rec
}

// reportFinalMismatch logs when checkins disagree with a finalized record.
func (e *AttendanceEngine) reportFinalMismatch(rec attendance.Record, s attendance.DaySummary) {
	if !s.HasSignal {
		return
	}
	computed := rec
	computed.InTime = s.InTime
	computed.OutTime = s.OutTime
	computed.WorkedHours = s.WorkedHours
	if fields := rec.Diff(computed); len(fields) > 0 {
		e.log.Info("Reconcile: final attendance differs from checkins, raise a regularization to correct it",
			"record_id", rec.ID,
			"employee_id", rec.EmployeeID,
			"date", dayKey(e.dateOf(rec.Date)),
			"fields", fields,
			"stored_hours", rec.WorkedHours,
			"computed_hours", s.WorkedHours)
	}
}

// reconcileOne runs the unit path for a single employee-day.
func (e *AttendanceEngine) reconcileOne(ctx context.Context, employeeID string, date time.Time, existing *attendance.Record, settings attendance.Settings) (attendance.Record, bool, error) {
	idx, dropped, err := e.loadEvents(ctx, employeeID, date, date)
	if err != nil {
		return attendance.Record{}, false, err
	}
	for _, d := range dropped {
		e.log.Warn("Dropped malformed checkin", "employee_id", employeeID, "error", d)
	}
	return e.reconcileDay(ctx, dayUnit{
		employeeID: employeeID,
		date:       date,
		existing:   existing,
		history:    idx,
		settings:   settings,
	})
}

// Backfill implements attendance.Engine. It creates records for every
// employee-day in range that has events but no record.
func (e *AttendanceEngine) Backfill(ctx context.Context, from, to time.Time) (attendance.ReconcileResult, error) {
	from, to = e.dateOf(from), e.dateOf(to)
	if to.Before(from) {
		return attendance.ReconcileResult{}, fmt.Errorf("%w: %s is before %s", attendance.ErrInvalidDateRange, dayKey(to), dayKey(from))
	}

	days, err := e.checkins.ListEmployeeDays(ctx, from, to.AddDate(0, 0, 1), e.opts.Location)
	if err != nil {
		return attendance.ReconcileResult{}, fmt.Errorf("list checkin days: %w", err)
	}
	e.log.Info("Backfill: starting", "from", dayKey(from), "to", dayKey(to), "employee_days", len(days))

	settings := e.settings(ctx)
	var result attendance.ReconcileResult
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		date := e.dateOf(day.Date)

		existing, err := e.records.GetByEmployeeAndDate(ctx, day.EmployeeID, date)
		if err == nil && existing != nil {
			continue
		}
		var rec attendance.Record
		var changed bool
		if err == nil {
			rec, changed, err = e.reconcileOne(ctx, day.EmployeeID, date, nil, settings)
		}
		if err != nil {
			if isAbort(err) {
				return result, err
			}
			e.log.Error("Backfill: failed", "employee_id", day.EmployeeID, "date", dayKey(date), "error", err)
			result.Errors = append(result.Errors, &attendance.UnitError{Op: "backfill", EmployeeID: day.EmployeeID, Date: date, Err: err})
			continue
		}
		if changed {
			result.Touched = append(result.Touched, rec.ID)
		}
	}

	e.log.Info("Backfill: completed", "created", len(result.Touched), "errors", len(result.Errors))
	return result, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
