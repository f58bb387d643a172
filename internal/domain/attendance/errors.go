package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by the engine and its stores.
var (
	ErrInput             = errors.New("invalid input")
	ErrPolicyUnavailable = errors.New("policy unavailable")
	ErrStoreConflict     = errors.New("attendance already exists for employee and date")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrRecordFinal        = errors.New("attendance record is final")
	ErrInvalidDateRange   = errors.New("invalid date range")
)

// UnitError reports the failure of one employee-day or one draft record.
type UnitError struct {
	Op         string
	EmployeeID string
	Date       time.Time
	RecordID   string
	Err        error
}

func (e *UnitError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s %s %s (record %s): %v", e.Op, e.EmployeeID, e.Date.Format("2006-01-02"), e.RecordID, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.EmployeeID, e.Date.Format("2006-01-02"), e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
