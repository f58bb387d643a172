package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

// ===== CHECKIN REPOSITORY TESTS =====

func TestCheckinRepository_CreateAndDedup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedEmployee(t, "EMP-001", "101", true)
	repo := postgresql.NewCheckinRepository(db)

	ev := checkin.Event{
		ID:           uuid.NewString(),
		EmployeeID:   "EMP-001",
		Timestamp:    day.Add(9 * time.Hour),
		Direction:    checkin.DirectionIn,
		SourceDevice: "gate-1",
	}

	// Act
	created, err := repo.Create(ctx, ev)
	require.NoError(t, err)
	ev.ID = uuid.NewString()
	ev.Timestamp = ev.Timestamp.Add(400 * time.Millisecond)
	_, dupErr := repo.Create(ctx, ev)

	// Assert
	assert.NotZero(t, created.CreatedAt)
	assert.ErrorIs(t, dupErr, checkin.ErrDuplicateCheckin)

	exists, err := repo.Exists(ctx, "EMP-001", day.Add(9*time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	events, err := repo.EventsFor(ctx, "EMP-001", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, checkin.DirectionIn, events[0].Direction)

	days, err := repo.ListEmployeeDays(ctx, day, day.AddDate(0, 0, 1), time.UTC)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-03-11", days[0].Date.Format("2006-01-02"))
}

// ===== ATTENDANCE REPOSITORY TESTS =====

func TestAttendanceRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedEmployee(t, "EMP-001", "101", true)
	repo := postgresql.NewAttendanceRepository(db)

	in := day.Add(9 * time.Hour)
	rec := attendance.Record{
		EmployeeID: "EMP-001",
		Date:       day,
		InTime:     &in,
		Status:     attendance.StatusAbsent,
	}

	// Act: create, then lose a second create on the same day
	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)
	_, conflictErr := repo.Create(ctx, rec)

	// Assert
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, attendance.StateDraft, created.State)
	assert.ErrorIs(t, conflictErr, attendance.ErrStoreConflict)

	// Act: partial update
	out := day.Add(18 * time.Hour)
	rec.OutTime = &out
	rec.WorkedHours = 9
	rec.Status = attendance.StatusPresent
	err = repo.Update(ctx, created.ID, rec, []attendance.Field{
		attendance.FieldOutTime, attendance.FieldWorkedHours, attendance.FieldStatus,
	})
	require.NoError(t, err)

	got, err := repo.GetByEmployeeAndDate(ctx, "EMP-001", day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 9.0, got.WorkedHours)
	assert.Equal(t, attendance.StatusPresent, got.Status)
	require.NotNil(t, got.OutTime)
	assert.True(t, got.OutTime.Equal(out))

	drafts, err := repo.ListDrafts(ctx, attendance.DraftFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	// Act: finalize twice
	require.NoError(t, repo.Finalize(ctx, created.ID, day.Add(23*time.Hour)))
	assert.ErrorIs(t, repo.Finalize(ctx, created.ID, day.Add(23*time.Hour)), attendance.ErrRecordFinal)

	// Assert: final rows reject updates
	err = repo.Update(ctx, created.ID, rec, []attendance.Field{attendance.FieldWorkedHours})
	assert.ErrorIs(t, err, attendance.ErrRecordFinal)

	drafts, err = repo.ListDrafts(ctx, attendance.DraftFilter{})
	require.NoError(t, err)
	assert.Empty(t, drafts)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_ListDraftsPagesByCursor(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedEmployee(t, "EMP-001", "101", true)
	seedEmployee(t, "EMP-002", "102", true)
	repo := postgresql.NewAttendanceRepository(db)

	for _, rec := range []attendance.Record{
		{EmployeeID: "EMP-002", Date: day, Status: attendance.StatusAbsent},
		{EmployeeID: "EMP-001", Date: day.AddDate(0, 0, 1), Status: attendance.StatusAbsent},
		{EmployeeID: "EMP-001", Date: day, Status: attendance.StatusAbsent},
	} {
		_, err := repo.Create(ctx, rec)
		require.NoError(t, err)
	}

	// Act
	first, err := repo.ListDrafts(ctx, attendance.DraftFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	second, err := repo.ListDrafts(ctx, attendance.DraftFilter{After: attendance.CursorOf(first[1]), Limit: 2})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "EMP-001", first[0].EmployeeID)
	assert.Equal(t, "EMP-002", first[1].EmployeeID)
	require.Len(t, second, 1)
	assert.Equal(t, "EMP-001", second[0].EmployeeID)
	assert.True(t, second[0].Date.Equal(day.AddDate(0, 0, 1)))
}

// ===== EMPLOYEE AND POLICY TESTS =====

func TestEmployeeRepository_MapDeviceUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedEmployee(t, "EMP-001", "101", true)
	seedEmployee(t, "EMP-002", "102", false)
	repo := postgresql.NewEmployeeRepository(db)

	// Act
	mapping, err := repo.MapDeviceUsers(ctx, []string{"101", "102", "999"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"101": "EMP-001"}, mapping)

	ids, err := repo.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP-001"}, ids)
}

func TestPolicyRepository_Lookups(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewPolicyRepository(db)

	_, err := db.Exec(ctx, `
		INSERT INTO shifts (id, name, start_time, end_time) VALUES
			('day', 'Day', '08:00', '17:00'),
			('night', 'Night', '22:00', '06:00');
		INSERT INTO holiday_lists (id, name) VALUES ('ID-2024', 'Indonesia 2024');
		INSERT INTO holidays (holiday_list_id, holiday_date) VALUES ('ID-2024', '2024-03-11');
		INSERT INTO employees (id, full_name, device_user_id, default_shift_id, holiday_list_id)
			VALUES ('EMP-001', 'Ayu', '101', 'day', 'ID-2024');
		INSERT INTO shift_assignments (employee_id, shift_id, start_date, end_date)
			VALUES ('EMP-001', 'night', '2024-03-12', '2024-03-12');
		INSERT INTO leave_requests (id, employee_id, start_date, end_date, half_day, status)
			VALUES ('LV-1', 'EMP-001', '2024-03-13', '2024-03-13', TRUE, 'approved');
		INSERT INTO regularization_requests (employee_id, date, status)
			VALUES ('EMP-001', '2024-03-14', 'approved'), ('EMP-001', '2024-03-14', 'pending');
	`)
	require.NoError(t, err)

	// Settings row missing falls back to defaults.
	settings, err := repo.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultSettings(), settings)

	holiday, err := repo.IsHoliday(ctx, "EMP-001", day)
	require.NoError(t, err)
	assert.True(t, holiday)

	shift, err := repo.Shift(ctx, "EMP-001", day)
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.Equal(t, "day", shift.Ref)
	assert.Equal(t, 17*time.Hour, shift.End)

	night, err := repo.Shift(ctx, "EMP-001", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NotNil(t, night)
	assert.Equal(t, "night", night.Ref)
	// Overnight shift on the 12th ends at 06:00 on the 13th.
	assert.True(t, night.EndOn(day.AddDate(0, 0, 1)).Equal(day.Add(54*time.Hour)))

	leave, err := repo.LeaveStatus(ctx, "EMP-001", day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, attendance.LeaveInfo{Kind: attendance.LeaveHalfDay, Ref: "LV-1"}, leave)

	correction, err := repo.CorrectionStatus(ctx, "EMP-001", day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, attendance.CorrectionPending, correction)
}
