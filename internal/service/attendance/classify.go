package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Classify assigns a day status: holiday over leave over worked hours.
func Classify(workedHours float64, leave attendance.LeaveInfo, holiday bool, minHours float64) attendance.Status {
	switch {
	case holiday:
		return attendance.StatusHoliday
	case leave.Kind == attendance.LeaveFullDay:
		return attendance.StatusOnLeave
	case leave.Kind == attendance.LeaveHalfDay:
		return attendance.StatusHalfDay
	case workedHours >= minHours:
		return attendance.StatusPresent
	case workedHours > 0:
		return attendance.StatusHalfDay
	default:
		return attendance.StatusAbsent
	}
}
