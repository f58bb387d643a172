package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/logger"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/policyfile"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
)

// Runtime is what a command needs to drive the engine.
type Runtime struct {
	Engine   attendance.Engine
	Location *time.Location
	close    func()
}

func NewRuntime(engine attendance.Engine, loc *time.Location, closeFn func()) *Runtime {
	if loc == nil {
		loc = time.UTC
	}
	return &Runtime{Engine: engine, Location: loc, close: closeFn}
}

func (r *Runtime) Close() {
	if r.close != nil {
		r.close()
	}
}

// RuntimeFactory opens a Runtime for one command invocation.
type RuntimeFactory func(ctx context.Context, opts *RootOptions) (*Runtime, error)

// PostgresRuntime wires the engine to the configured database. With
// --policy-file the policy tables are replaced by the YAML file.
func PostgresRuntime(ctx context.Context, opts *RootOptions) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level, cfg.App.Env)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var policy attendance.PolicySource = postgresql.NewPolicyRepository(db)
	if opts.PolicyFile != "" {
		filePolicy, err := policyfile.Load(opts.PolicyFile, cfg.Location())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load policy file: %w", err)
		}
		policy = filePolicy
		log.Info("Using policy file", "path", opts.PolicyFile)
	}

	engine := attendanceService.NewAttendanceEngine(
		postgresql.NewCheckinRepository(db),
		postgresql.NewAttendanceRepository(db),
		postgresql.NewEmployeeRepository(db),
		policy,
		attendanceService.OptionsFromConfig(cfg, log),
	)
	return NewRuntime(engine, cfg.Location(), db.Close), nil
}

func openDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
