package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Timezone: "Asia/Jakarta"},
		Engine: config.EngineConfig{
			DefaultShiftEnd:         17 * time.Hour,
			SinglePunchPolicy:       config.SinglePunchSameAsIn,
			SinglePunchLookbackDays: 3,
			GapLookbackDays:         5,
			Workers:                 8,
			SweepBatchLimit:         100,
			DefaultSettings:         attendance.Settings{MinWorkingHours: 6},
		},
	}

	// Act
	opts := OptionsFromConfig(cfg, nil)

	// Assert
	assert.Equal(t, "Asia/Jakarta", opts.Location.String())
	assert.Equal(t, 17*time.Hour, opts.DefaultShiftEnd)
	assert.Equal(t, SinglePunchSameAsIn, opts.SinglePunch)
	assert.Equal(t, 3, opts.SinglePunchLookbackDays)
	assert.Equal(t, 5, opts.GapLookbackDays)
	assert.Equal(t, 8, opts.Workers)
	assert.Equal(t, 100, opts.SweepBatchLimit)
	assert.Equal(t, 6.0, opts.DefaultSettings.MinWorkingHours)
}
