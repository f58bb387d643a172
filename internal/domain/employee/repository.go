package employee

import "context"

type EmployeeRepository interface {
	// ListActiveIDs returns ids of all active employees.
	ListActiveIDs(ctx context.Context) ([]string, error)

	// MapDeviceUsers resolves device user ids to active employee ids.
	// Unknown or inactive user ids are absent from the result.
	MapDeviceUsers(ctx context.Context, deviceUserIDs []string) (map[string]string, error)
}
