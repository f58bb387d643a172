package attendance

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
)

// Deduplicate returns events ordered by timestamp with at most one event per
// (employee, second). Keys present in known are dropped as already stored.
// Events without an employee or timestamp are dropped and reported.
func Deduplicate(events []checkin.Event, known checkin.KeySet) ([]checkin.Event, []error) {
	var dropped []error
	valid := make([]checkin.Event, 0, len(events))
	for _, ev := range events {
		switch {
		case ev.EmployeeID == "":
			dropped = append(dropped, fmt.Errorf("%w: %w (device %q, at %s)", attendance.ErrInput, checkin.ErrMissingEmployee, ev.SourceDevice, ev.Timestamp))
		case ev.Timestamp.IsZero():
			dropped = append(dropped, fmt.Errorf("%w: %w (employee %s)", attendance.ErrInput, checkin.ErrMalformedTimestamp, ev.EmployeeID))
		default:
			valid = append(valid, ev)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})

	seen := make(checkin.KeySet, len(valid))
	out := valid[:0]
	for _, ev := range valid {
		k := ev.Key()
		if known.Has(k) || seen.Has(k) {
			continue
		}
		seen.Add(k)
		out = append(out, ev)
	}
	return out, dropped
}
