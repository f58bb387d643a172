package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

// ListActiveIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `SELECT id FROM employees WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", mapError(err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", mapError(err))
	}

	return ids, nil
}

// MapDeviceUsers implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) MapDeviceUsers(ctx context.Context, deviceUserIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(deviceUserIDs))
	if len(deviceUserIDs) == 0 {
		return out, nil
	}
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT device_user_id, id
		FROM employees
		WHERE active
		  AND device_user_id = ANY($1)
	`

	rows, err := q.Query(ctx, query, deviceUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to map device users: %w", mapError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var userID, employeeID string
		if err := rows.Scan(&userID, &employeeID); err != nil {
			return nil, fmt.Errorf("failed to scan device user: %w", err)
		}
		out[userID] = employeeID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device users: %w", mapError(err))
	}

	return out, nil
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}
