package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliFixture struct {
	records *memory.AttendanceStore
	open    RuntimeFactory
}

func newCLIFixture() *cliFixture {
	deviceUser := "101"
	records := memory.NewAttendanceStore()
	opts := attendanceService.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := attendanceService.NewAttendanceEngine(
		memory.NewCheckinStore(),
		records,
		memory.NewEmployeeStore(employee.Employee{ID: "emp-1", FullName: "Ayu", DeviceUserID: &deviceUser, Active: true}),
		memory.NewPolicySource(attendance.Settings{MinWorkingHours: 8, AutoSubmitBufferHours: 4, RegularizationWindowHours: 24}),
		opts,
	)
	return &cliFixture{
		records: records,
		open: func(context.Context, *RootOptions) (*Runtime, error) {
			return NewRuntime(engine, time.UTC, nil), nil
		},
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(f.open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePunches(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "punches.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ===== ROOT TESTS =====

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(newCLIFixture().open)
	require.NotNil(t, cmd)
	assert.Equal(t, "attendancectl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(newCLIFixture().open)
	commands := []string{"reconcile", "backfill", "sweep", "ingest", "classify", "token", "migrate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(newCLIFixture().open)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	policyFlag := cmd.PersistentFlags().Lookup("policy-file")
	require.NotNil(t, policyFlag)
	assert.Equal(t, "", policyFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := newCLIFixture().run(t, "classify", "--format", "xml")
	assert.Error(t, err)
}

// ===== COMMAND TESTS =====

func TestClassifyCommand(t *testing.T) {
	f := newCLIFixture()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"present", []string{"--hours", "8", "--min-hours", "8"}, "present"},
		{"half day", []string{"--hours", "3", "--min-hours", "8"}, "half_day"},
		{"absent", []string{"--hours", "0", "--min-hours", "8"}, "absent"},
		{"holiday", []string{"--hours", "9", "--holiday", "true"}, "holiday"},
		{"half-day leave", []string{"--hours", "9", "--leave", "half_day"}, "half_day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			out, err := f.run(t, append([]string{"classify"}, tt.args...)...)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestClassifyCommand_InvalidLeave(t *testing.T) {
	out, err := newCLIFixture().run(t, "classify", "--leave", "sabbatical")

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "INVALID_INPUT")
}

func TestIngestReconcileSweep(t *testing.T) {
	f := newCLIFixture()
	path := writePunches(t, `
punches:
  - user_id: "101"
    timestamp: "2024-03-11 09:00:00"
    punch: 0
  - user_id: "101"
    timestamp: "2024-03-11 18:00:00"
    punch: 1
  - user_id: "555"
    timestamp: "2024-03-11 09:00:00"
`)

	// Act
	out, err := f.run(t, "ingest", "--file", path, "--format", "json")

	// Assert
	require.NoError(t, err)
	var resp struct {
		Status string     `json:"status"`
		Data   passReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.IDs, 2)
	assert.Equal(t, 1, resp.Data.Skipped)

	// Act
	out, err = f.run(t, "reconcile", "--from", "2024-03-11")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "reconcile: 1 record(s) touched, 0 error(s)")
	rec, err := f.records.GetByEmployeeAndDate(context.Background(), "emp-1", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 9.0, rec.WorkedHours)

	// Act
	out, err = f.run(t, "sweep", "--now", "2024-03-12T00:00:00Z")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "sweep: 1 record(s) finalized")
}

func TestIngestCommand_BareList(t *testing.T) {
	f := newCLIFixture()
	path := writePunches(t, `[{"user_id": "101", "timestamp": "2024-03-11T09:00:00Z"}]`)

	// Act
	out, err := f.run(t, "ingest", "-f", path)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "ingest: 1 checkin(s) created")
}

func TestIngestCommand_MalformedTimestampFails(t *testing.T) {
	f := newCLIFixture()
	path := writePunches(t, `[{"user_id": "101", "timestamp": "yesterday"}]`)

	// Act
	out, err := f.run(t, "ingest", "-f", path)

	// Assert
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 error(s)")
}

func TestReconcileCommand_InvertedRange(t *testing.T) {
	out, err := newCLIFixture().run(t, "reconcile", "--from", "2024-03-12", "--to", "2024-03-11", "--format", "json")

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"status":"error"`)
}

func TestBackfillCommand(t *testing.T) {
	f := newCLIFixture()
	path := writePunches(t, `[{"user_id": "101", "timestamp": "2024-03-05 08:00:00", "punch": 0}]`)
	_, err := f.run(t, "ingest", "-f", path)
	require.NoError(t, err)

	// Act
	out, err := f.run(t, "backfill", "--from", "2024-03-01", "--to", "2024-03-10")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "backfill: 1 record(s) created")
}
