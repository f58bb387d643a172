package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
)

type ReconcileResult struct {
	Touched []string
	Errors  []error
}

type SweepResult struct {
	Finalized []string
	Errors    []error
}

// Engine is the reconciliation and auto-submission surface invoked by the
// scheduler, the CLI and the HTTP handlers. A non-nil error means the pass
// aborted; the result still lists the units committed before the abort.
type Engine interface {
	Reconcile(ctx context.Context, employeeIDs []string, from, to time.Time) (ReconcileResult, error)
	Backfill(ctx context.Context, from, to time.Time) (ReconcileResult, error)
	SweepAutoSubmit(ctx context.Context, now time.Time) (SweepResult, error)
	Ingest(ctx context.Context, punches []checkin.DevicePunch) (checkin.IngestResult, error)
	Classify(workedHours float64, leave LeaveInfo, holiday bool, minHours float64) Status
}
