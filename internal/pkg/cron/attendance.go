package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type AttendanceJobs struct {
	engine        attendance.Engine
	loc           *time.Location
	reconcileDays int
	now           func() time.Time
	log           *slog.Logger
}

func NewAttendanceJobs(engine attendance.Engine, loc *time.Location, reconcileDays int, logger *slog.Logger) *AttendanceJobs {
	if reconcileDays < 1 {
		reconcileDays = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		engine:        engine,
		loc:           loc,
		reconcileDays: reconcileDays,
		now:           time.Now,
		log:           logger,
	}
}

// RegisterJobs registers the reconcile and auto-submit jobs.
func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, reconcileEvery, autoSubmitEvery time.Duration) {
	scheduler.AddJob("reconcile_recent_attendance", reconcileEvery, j.ReconcileRecent)
	scheduler.AddJob("auto_submit_attendance", autoSubmitEvery, j.AutoSubmitDue)
}

// ReconcileRecent reconciles all active employees over the last
// reconcileDays days, today included.
func (j *AttendanceJobs) ReconcileRecent(ctx context.Context) error {
	now := j.now().In(j.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	from := to.AddDate(0, 0, -(j.reconcileDays - 1))

	j.log.Info("Cron: Starting reconcile job", "from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"))

	res, err := j.engine.Reconcile(ctx, nil, from, to)
	if err != nil {
		return fmt.Errorf("reconcile aborted after %d records: %w", len(res.Touched), err)
	}
	for _, unitErr := range res.Errors {
		j.log.Warn("Cron: Reconcile unit failed", "error", unitErr)
	}

	j.log.Info("Cron: Reconciled attendance", "touched", len(res.Touched), "errors", len(res.Errors))
	return nil
}

// AutoSubmitDue finalizes every draft whose submission window has passed.
func (j *AttendanceJobs) AutoSubmitDue(ctx context.Context) error {
	j.log.Info("Cron: Starting auto-submit job")

	res, err := j.engine.SweepAutoSubmit(ctx, j.now())
	if err != nil {
		return fmt.Errorf("auto-submit aborted after %d records: %w", len(res.Finalized), err)
	}
	for _, unitErr := range res.Errors {
		j.log.Warn("Cron: Auto-submit record failed", "error", unitErr)
	}

	j.log.Info("Cron: Auto-submitted attendance", "finalized", len(res.Finalized), "errors", len(res.Errors))
	return nil
}
