package attendance

import (
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
)

// OptionsFromConfig maps the engine section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	opts := DefaultOptions()
	opts.Location = cfg.Location()
	opts.DefaultShiftEnd = cfg.Engine.DefaultShiftEnd
	opts.SinglePunch = SinglePunchPolicy(cfg.Engine.SinglePunchPolicy)
	opts.SinglePunchLookbackDays = cfg.Engine.SinglePunchLookbackDays
	opts.GapLookbackDays = cfg.Engine.GapLookbackDays
	opts.Workers = cfg.Engine.Workers
	opts.SweepBatchLimit = cfg.Engine.SweepBatchLimit
	opts.DefaultSettings = cfg.Engine.DefaultSettings
	opts.Logger = logger
	return opts
}
