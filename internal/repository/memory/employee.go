package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type EmployeeStore struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

func NewEmployeeStore(employees ...employee.Employee) *EmployeeStore {
	s := &EmployeeStore{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		s.employees[e.ID] = e
	}
	return s
}

var _ employee.EmployeeRepository = (*EmployeeStore)(nil)

func (s *EmployeeStore) Put(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

func (s *EmployeeStore) ListActiveIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.employees))
	for id, e := range s.employees {
		if e.Active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *EmployeeStore) MapDeviceUsers(_ context.Context, deviceUserIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(deviceUserIDs))
	for _, id := range deviceUserIDs {
		wanted[id] = struct{}{}
	}

	out := make(map[string]string)
	for _, e := range s.employees {
		if !e.Active || e.DeviceUserID == nil {
			continue
		}
		if _, ok := wanted[*e.DeviceUserID]; ok {
			out[*e.DeviceUserID] = e.ID
		}
	}
	return out, nil
}
