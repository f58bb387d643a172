package employee

// Employee is the slice of the employee master the attendance engine needs.
type Employee struct {
	ID             string
	FullName       string
	DeviceUserID   *string
	DefaultShiftID *string
	HolidayListID  *string
	Active         bool
}
