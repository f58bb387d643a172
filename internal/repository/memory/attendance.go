package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

// AttendanceStore keeps records in memory and enforces the same
// (employee_id, date) uniqueness and Draft-only writes as the SQL store.
type AttendanceStore struct {
	mu    sync.Mutex
	byID  map[string]attendance.Record
	byDay map[string]string
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{
		byID:  make(map[string]attendance.Record),
		byDay: make(map[string]string),
	}
}

var _ attendance.AttendanceRepository = (*AttendanceStore)(nil)

func dayOf(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (s *AttendanceStore) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byDay[dayOf(employeeID, date)]
	if !ok {
		return nil, nil
	}
	rec := s.byID[id]
	return &rec, nil
}

func (s *AttendanceStore) GetByID(_ context.Context, id string) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (s *AttendanceStore) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var out []attendance.Record
	for _, rec := range s.byID {
		d := rec.Date.Format("2006-01-02")
		if rec.EmployeeID == employeeID && d >= lo && d <= hi {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *AttendanceStore) Create(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayOf(rec.EmployeeID, rec.Date)
	if _, ok := s.byDay[key]; ok {
		return attendance.Record{}, fmt.Errorf("%w: %s", attendance.ErrStoreConflict, key)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.State == "" {
		rec.State = attendance.StateDraft
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	s.byID[rec.ID] = rec
	s.byDay[key] = rec.ID
	return rec, nil
}

func (s *AttendanceStore) Update(_ context.Context, id string, rec attendance.Record, fields []attendance.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if !cur.IsDraft() {
		return attendance.ErrRecordFinal
	}
	cur.Apply(rec, fields)
	cur.UpdatedAt = time.Now().UTC()
	s.byID[id] = cur
	return nil
}

func (s *AttendanceStore) Finalize(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	if !cur.IsDraft() {
		return attendance.ErrRecordFinal
	}
	cur.State = attendance.StateFinal
	cur.FinalizedAt = &at
	cur.UpdatedAt = time.Now().UTC()
	s.byID[id] = cur
	return nil
}

func (s *AttendanceStore) ListDrafts(_ context.Context, filter attendance.DraftFilter) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	employees := make(map[string]struct{}, len(filter.EmployeeIDs))
	for _, id := range filter.EmployeeIDs {
		employees[id] = struct{}{}
	}

	var out []attendance.Record
	for _, rec := range s.byID {
		if !rec.IsDraft() {
			continue
		}
		if len(employees) > 0 {
			if _, ok := employees[rec.EmployeeID]; !ok {
				continue
			}
		}
		d := rec.Date.Format("2006-01-02")
		if filter.From != nil && d < filter.From.Format("2006-01-02") {
			continue
		}
		if filter.To != nil && d > filter.To.Format("2006-01-02") {
			continue
		}
		if a := filter.After; a != nil {
			ad := a.Date.Format("2006-01-02")
			if d < ad || (d == ad && rec.EmployeeID <= a.EmployeeID) {
				continue
			}
		}
		out = append(out, rec)
	}
	sortRecords(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// All returns every stored record ordered by date and employee.
func (s *AttendanceStore) All() []attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]attendance.Record, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

func sortRecords(recs []attendance.Record) {
	sort.Slice(recs, func(i, j int) bool {
		di, dj := recs[i].Date.Format("2006-01-02"), recs[j].Date.Format("2006-01-02")
		if di != dj {
			return di < dj
		}
		return recs[i].EmployeeID < recs[j].EmployeeID
	})
}
