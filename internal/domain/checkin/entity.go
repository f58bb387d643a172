package checkin

import (
	"strconv"
	"time"
)

// Direction is the punch direction reported by the device, if any.
type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionUnknown Direction = ""
)

// Event is one stored presence punch. Events are never mutated once stored.
type Event struct {
	ID           string
	EmployeeID   string
	Timestamp    time.Time
	Direction    Direction
	SourceDevice string
	CreatedAt    time.Time
}

func (e Event) IsIn() bool {
	return e.Direction == DirectionIn
}

func (e Event) IsOut() bool {
	return e.Direction == DirectionOut
}

// Key identifies an event for deduplication: same employee, same second.
type Key struct {
	EmployeeID string
	Unix       int64
}

func KeyOf(employeeID string, ts time.Time) Key {
	return Key{EmployeeID: employeeID, Unix: ts.Truncate(time.Second).Unix()}
}

func (e Event) Key() Key {
	return KeyOf(e.EmployeeID, e.Timestamp)
}

func (k Key) String() string {
	return k.EmployeeID + "@" + strconv.FormatInt(k.Unix, 10)
}

// Device punch codes as reported by the terminals.
const (
	PunchCheckIn       = 0
	PunchCheckOut      = 1
	PunchBreakOut      = 2
	PunchBreakIn       = 3
	PunchOvertimeStart = 4
	PunchOvertimeEnd   = 5
)

// DirectionForPunch maps a device punch code to a direction. Check-in and
// overtime start open a session; every other known code closes one.
func DirectionForPunch(code *int) Direction {
	if code == nil {
		return DirectionUnknown
	}
	switch *code {
	case PunchCheckIn, PunchOvertimeStart:
		return DirectionIn
	case PunchCheckOut, PunchBreakOut, PunchBreakIn, PunchOvertimeEnd:
		return DirectionOut
	default:
		return DirectionUnknown
	}
}

// KeySet is a set of already-known event keys.
type KeySet map[Key]struct{}

func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) Add(k Key) {
	s[k] = struct{}{}
}
