package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== DECIDE =====

func TestDecide(t *testing.T) {
	shiftEnd := at(day, 18, 30)
	settings := attendance.Settings{
		MinWorkingHours:           8,
		AutoSubmitBufferHours:     4,
		EnableRegularization:      true,
		RegularizationWindowHours: 24,
	}
	draft := attendance.Record{State: attendance.StateDraft, Status: attendance.StatusPresent, WorkedHours: 8}

	tests := []struct {
		name       string
		mutate     func(*DecisionInput)
		wantSubmit bool
		wantTrig   Trigger
	}{
		{
			name:       "buffer elapsed",
			mutate:     func(in *DecisionInput) { in.Now = shiftEnd.Add(5 * time.Hour) },
			wantSubmit: true,
			wantTrig:   TriggerBuffer,
		},
		{
			name:       "exactly at buffer end",
			mutate:     func(in *DecisionInput) { in.Now = shiftEnd.Add(4 * time.Hour) },
			wantSubmit: true,
			wantTrig:   TriggerBuffer,
		},
		{
			name:   "buffer not elapsed",
			mutate: func(in *DecisionInput) { in.Now = shiftEnd.Add(3 * time.Hour) },
		},
		{
			name: "regularization window with long buffer",
			mutate: func(in *DecisionInput) {
				in.Settings.AutoSubmitBufferHours = 48
				in.Now = shiftEnd.Add(25 * time.Hour)
			},
			wantSubmit: true,
			wantTrig:   TriggerRegularization,
		},
		{
			name: "regularization disabled",
			mutate: func(in *DecisionInput) {
				in.Settings.AutoSubmitBufferHours = 48
				in.Settings.EnableRegularization = false
				in.Now = shiftEnd.Add(25 * time.Hour)
			},
		},
		{
			name: "below minimum hours",
			mutate: func(in *DecisionInput) {
				in.Record.WorkedHours = 7.99
				in.Now = shiftEnd.Add(100 * time.Hour)
			},
		},
		{
			name: "approved correction satisfies hours",
			mutate: func(in *DecisionInput) {
				in.Record.WorkedHours = 2
				in.Correction = attendance.CorrectionApproved
				in.Now = shiftEnd.Add(5 * time.Hour)
			},
			wantSubmit: true,
			wantTrig:   TriggerBuffer,
		},
		{
			name: "pending correction blocks",
			mutate: func(in *DecisionInput) {
				in.Correction = attendance.CorrectionPending
				in.Now = shiftEnd.Add(1000 * time.Hour)
			},
		},
		{
			name: "holiday never auto-submitted",
			mutate: func(in *DecisionInput) {
				in.Record.Status = attendance.StatusHoliday
				in.Now = shiftEnd.Add(1000 * time.Hour)
			},
		},
		{
			name: "leave never auto-submitted",
			mutate: func(in *DecisionInput) {
				in.Record.Status = attendance.StatusOnLeave
				in.Correction = attendance.CorrectionApproved
				in.Now = shiftEnd.Add(1000 * time.Hour)
			},
		},
		{
			name: "final record",
			mutate: func(in *DecisionInput) {
				in.Record.State = attendance.StateFinal
				in.Now = shiftEnd.Add(1000 * time.Hour)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DecisionInput{Record: draft, Settings: settings, ShiftEnd: shiftEnd}
			tt.mutate(&in)

			got := Decide(in)

			assert.Equal(t, tt.wantSubmit, got.Submit)
			assert.Equal(t, tt.wantTrig, got.Trigger)
			if !tt.wantSubmit {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

// ===== SWEEP =====

func reconciledFixture(t *testing.T, employees ...string) *fixture {
	t.Helper()
	f := newFixture(t)
	for _, emp := range employees {
		f.punch(emp, at(day, 9, 0), checkin.DirectionIn)
		f.punch(emp, at(day, 17, 0), checkin.DirectionOut)
	}
	_, err := f.engine.Reconcile(context.Background(), employees, day, day)
	require.NoError(t, err)
	return f
}

func TestEngine_Sweep_FinalizesAfterBuffer(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	rec := f.record(t, "emp-1", day)
	require.Equal(t, 8.0, rec.WorkedHours)
	now := at(day, 23, 30)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, res.Finalized)
	assert.Empty(t, res.Errors)

	final := f.record(t, "emp-1", day)
	assert.Equal(t, attendance.StateFinal, final.State)
	require.NotNil(t, final.FinalizedAt)
	assert.True(t, final.FinalizedAt.Equal(now))
}

func TestEngine_Sweep_WaitsForBuffer(t *testing.T) {
	f := reconciledFixture(t, "emp-1")

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), at(day, 21, 0))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, res.Finalized)
	assert.True(t, f.record(t, "emp-1", day).IsDraft())
}

func TestEngine_Sweep_PendingCorrectionBlocks(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	f.policy.SetCorrection("emp-1", day, attendance.CorrectionPending)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), day.AddDate(0, 1, 0))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, res.Finalized)
	assert.True(t, f.record(t, "emp-1", day).IsDraft())
}

func TestEngine_Sweep_OvernightShiftEndsNextDay(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	f.policy.SetShift("emp-1", attendance.Shift{Ref: "night", Start: 22 * time.Hour, End: 6 * time.Hour})
	ctx := context.Background()

	// Act
	early, err := f.engine.SweepAutoSubmit(ctx, at(day, 23, 30))
	require.NoError(t, err)
	late, err := f.engine.SweepAutoSubmit(ctx, at(day.AddDate(0, 0, 1), 10, 0))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, early.Finalized)
	assert.Len(t, late.Finalized, 1)
}

func TestEngine_Sweep_RecomputesBeforeLocking(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	f.punch("emp-1", at(day, 18, 0), checkin.DirectionOut)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), at(day, 23, 30))

	// Assert
	require.NoError(t, err)
	require.Len(t, res.Finalized, 1)
	final := f.record(t, "emp-1", day)
	assert.Equal(t, attendance.StateFinal, final.State)
	assert.Equal(t, 9.0, final.WorkedHours)
}

func TestEngine_Sweep_SkipsWhenRefreshMakesIneligible(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	f.policy.SetHoliday("emp-1", day)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), at(day, 23, 30))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, res.Finalized)
	rec := f.record(t, "emp-1", day)
	assert.True(t, rec.IsDraft())
	assert.Equal(t, attendance.StatusHoliday, rec.Status)
}

func TestEngine_Sweep_IsolatesRecordFailures(t *testing.T) {
	f := reconciledFixture(t, "emp-1", "emp-2")
	failing := f.record(t, "emp-1", day)
	healthy := f.record(t, "emp-2", day)
	f.policy.FailFor(memory.OpCorrection, "emp-1", errors.New("regularization service timeout"))

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), at(day, 23, 30))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{healthy.ID}, res.Finalized)
	require.Len(t, res.Errors, 1)

	var unit *attendance.UnitError
	require.ErrorAs(t, res.Errors[0], &unit)
	assert.Equal(t, failing.ID, unit.RecordID)
	assert.True(t, f.record(t, "emp-1", day).IsDraft())
}

func TestEngine_Sweep_SecondSweepFindsNothing(t *testing.T) {
	f := reconciledFixture(t, "emp-1")
	ctx := context.Background()
	now := at(day, 23, 30)

	_, err := f.engine.SweepAutoSubmit(ctx, now)
	require.NoError(t, err)

	// Act
	res, err := f.engine.SweepAutoSubmit(ctx, now.Add(time.Hour))

	// Assert
	require.NoError(t, err)
	assert.Empty(t, res.Finalized)
	assert.Empty(t, res.Errors)
}

func TestEngine_Sweep_RefreshesStaleLeaveStatus(t *testing.T) {
	f := newFixture(t)
	f.policy.SetLeave("emp-1", day, attendance.LeaveInfo{Kind: attendance.LeaveFullDay, Ref: "LV-0042"})
	f.punch("emp-1", at(day, 9, 0), checkin.DirectionIn)
	f.punch("emp-1", at(day, 18, 0), checkin.DirectionOut)
	f.reconcileDay(t, "emp-1", day)
	require.Equal(t, attendance.StatusOnLeave, f.record(t, "emp-1", day).Status)
	f.policy.SetLeave("emp-1", day, attendance.LeaveInfo{})

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), day.AddDate(0, 0, 2))

	// Assert
	require.NoError(t, err)
	require.Len(t, res.Finalized, 1)
	rec := f.record(t, "emp-1", day)
	assert.Equal(t, attendance.StateFinal, rec.State)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, 9.0, rec.WorkedHours)
	assert.Nil(t, rec.LeaveRef)
}

func TestEngine_Sweep_RefreshesStaleZeroHours(t *testing.T) {
	f := newFixture(t)
	f.punch("emp-1", at(day, 9, 0), checkin.DirectionIn)
	f.reconcileDay(t, "emp-1", day)
	require.Zero(t, f.record(t, "emp-1", day).WorkedHours)
	f.punch("emp-1", at(day, 18, 0), checkin.DirectionOut)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), day.AddDate(0, 0, 2))

	// Assert
	require.NoError(t, err)
	require.Len(t, res.Finalized, 1)
	rec := f.record(t, "emp-1", day)
	assert.Equal(t, attendance.StateFinal, rec.State)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, 9.0, rec.WorkedHours)
}

func TestEngine_Sweep_PagesPastIneligibleDrafts(t *testing.T) {
	f := newFixture(t, func(f *fixture) { f.opts.SweepBatchLimit = 2 })
	for i := 0; i < 3; i++ {
		f.punch("emp-1", at(day.AddDate(0, 0, i), 9, 0), checkin.DirectionIn)
	}
	last := day.AddDate(0, 0, 3)
	f.punch("emp-1", at(last, 9, 0), checkin.DirectionIn)
	f.punch("emp-1", at(last, 18, 0), checkin.DirectionOut)
	_, err := f.engine.Reconcile(context.Background(), []string{"emp-1"}, day, last)
	require.NoError(t, err)
	require.Len(t, f.records.All(), 4)

	// Act
	res, err := f.engine.SweepAutoSubmit(context.Background(), day.AddDate(0, 0, 10))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{f.record(t, "emp-1", last).ID}, res.Finalized)
	assert.Empty(t, res.Errors)
	for i := 0; i < 3; i++ {
		assert.True(t, f.record(t, "emp-1", day.AddDate(0, 0, i)).IsDraft())
	}
}
