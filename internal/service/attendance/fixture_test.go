package attendance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Monday 11 March 2024.
var day = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

type fixture struct {
	checkins  *memory.CheckinStore
	records   *memory.AttendanceStore
	employees *memory.EmployeeStore
	policy    *memory.PolicySource

	// repo is what the engine writes through; defaults to records.
	repo   attendance.AttendanceRepository
	opts   Options
	engine *AttendanceEngine
}

func newFixture(t *testing.T, mods ...func(*fixture)) *fixture {
	t.Helper()

	f := &fixture{
		checkins: memory.NewCheckinStore(),
		records:  memory.NewAttendanceStore(),
		employees: memory.NewEmployeeStore(
			employee.Employee{ID: "emp-1", FullName: "Ayu", DeviceUserID: strPtr("101"), Active: true},
			employee.Employee{ID: "emp-2", FullName: "Budi", DeviceUserID: strPtr("102"), Active: true},
			employee.Employee{ID: "emp-3", FullName: "Citra", DeviceUserID: strPtr("103"), Active: false},
		),
		policy: memory.NewPolicySource(attendance.Settings{
			MinWorkingHours:           8,
			AutoSubmitBufferHours:     4,
			RegularizationWindowHours: 24,
		}),
		opts: DefaultOptions(),
	}
	f.repo = f.records
	f.opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, mod := range mods {
		mod(f)
	}

	f.engine = NewAttendanceEngine(f.checkins, f.repo, f.employees, f.policy, f.opts)
	return f
}

func at(d time.Time, hh, mm int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location())
}

func strPtr(s string) *string {
	return &s
}

func (f *fixture) punch(employeeID string, ts time.Time, dir checkin.Direction) {
	f.checkins.Add(checkin.Event{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		Timestamp:    ts,
		Direction:    dir,
		SourceDevice: "gate-1",
	})
}

func (f *fixture) reconcileDay(t *testing.T, employeeID string, d time.Time) attendance.ReconcileResult {
	t.Helper()
	res, err := f.engine.Reconcile(context.Background(), []string{employeeID}, d, d)
	require.NoError(t, err)
	return res
}

func (f *fixture) record(t *testing.T, employeeID string, d time.Time) attendance.Record {
	t.Helper()
	rec, err := f.records.GetByEmployeeAndDate(context.Background(), employeeID, d)
	require.NoError(t, err)
	require.NotNil(t, rec, "expected attendance for %s on %s", employeeID, d.Format("2006-01-02"))
	return *rec
}

// failingRecords fails Create for selected employees.
type failingRecords struct {
	*memory.AttendanceStore
	failCreate map[string]error
}

func (f *failingRecords) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := f.failCreate[rec.EmployeeID]; err != nil {
		return attendance.Record{}, err
	}
	return f.AttendanceStore.Create(ctx, rec)
}

// racingRecords lets another writer create the day first: Create stores
// winner (optionally finalized) and then loses to it on the real insert.
type racingRecords struct {
	*memory.AttendanceStore
	winner       attendance.Record
	finalizeWith *time.Time
}

func (r *racingRecords) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	won, err := r.AttendanceStore.Create(ctx, r.winner)
	if err != nil {
		return attendance.Record{}, err
	}
	if r.finalizeWith != nil {
		if err := r.AttendanceStore.Finalize(ctx, won.ID, *r.finalizeWith); err != nil {
			return attendance.Record{}, err
		}
	}
	return r.AttendanceStore.Create(ctx, rec)
}
