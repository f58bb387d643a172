package postgresql_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

var (
	testDBOnce sync.Once
	testDB     *database.DB
	testDBErr  error
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations, skipping
// the test when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		ctx := context.Background()
		testDB, testDBErr = database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 8})
		if testDBErr != nil {
			return
		}
		testDBErr = database.Migrate(ctx, testDB, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})
	require.NoError(t, testDBErr, "failed to prepare test database")

	truncateTables(t)
	return testDB
}

func truncateTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `
		TRUNCATE TABLE attendance, checkins, regularization_requests, leave_requests,
			shift_assignments, employees, holidays, holiday_lists, shifts, attendance_settings
		CASCADE
	`)
	require.NoError(t, err)
}

func seedEmployee(t *testing.T, id, deviceUserID string, active bool) {
	t.Helper()
	_, err := testDB.Exec(context.Background(),
		`INSERT INTO employees (id, full_name, device_user_id, active) VALUES ($1, $2, $3, $4)`,
		id, "Employee "+id, deviceUserID, active)
	require.NoError(t, err)
}
