package checkin

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// DevicePunch is a raw punch as dumped by a biometric terminal.
type DevicePunch struct {
	UserID    string `json:"user_id" yaml:"user_id"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Punch     *int   `json:"punch,omitempty" yaml:"punch,omitempty"`
	Device    string `json:"device,omitempty" yaml:"device,omitempty"`
}

var punchLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts RFC3339 or a zone-less "YYYY-MM-DD HH:MM:SS",
// the latter interpreted in loc.
func (p DevicePunch) ParseTimestamp(loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(p.Timestamp)
	if t, ok := validator.IsValidDateTime(raw); ok {
		return t, nil
	}
	for _, layout := range punchLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

type IngestRequest struct {
	Punches []DevicePunch `json:"punches"`
}

func (r *IngestRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Punches) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "punches",
			Message: "at least one punch is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type IngestResponse struct {
	Created []string `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// IngestResult reports one ingestion batch. Unmapped users and events that
// were already stored count as skipped.
type IngestResult struct {
	Created []string
	Skipped int
	Errors  []error
}
