package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
)

// CheckinStore is an in-memory append-only checkin log keyed on
// (employee, second). It is intended for tests and the CLI dry runs.
type CheckinStore struct {
	mu     sync.Mutex
	events []checkin.Event
	keys   checkin.KeySet
}

func NewCheckinStore() *CheckinStore {
	return &CheckinStore{keys: make(checkin.KeySet)}
}

var _ checkin.CheckinRepository = (*CheckinStore)(nil)

func (s *CheckinStore) EventsFor(_ context.Context, employeeID string, from, to time.Time) ([]checkin.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []checkin.Event
	for _, ev := range s.events {
		if ev.EmployeeID != employeeID || ev.Timestamp.Before(from) || !ev.Timestamp.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *CheckinStore) Exists(_ context.Context, employeeID string, ts time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys.Has(checkin.KeyOf(employeeID, ts)), nil
}

func (s *CheckinStore) Create(_ context.Context, ev checkin.Event) (checkin.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys.Has(ev.Key()) {
		return checkin.Event{}, checkin.ErrDuplicateCheckin
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	s.keys.Add(ev.Key())
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *CheckinStore) ListEmployeeDays(_ context.Context, from, to time.Time, loc *time.Location) ([]checkin.EmployeeDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []checkin.EmployeeDay
	for _, ev := range s.events {
		if ev.Timestamp.Before(from) || !ev.Timestamp.Before(to) {
			continue
		}
		t := ev.Timestamp.In(loc)
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		k := ev.EmployeeID + "|" + date.Format("2006-01-02")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, checkin.EmployeeDay{EmployeeID: ev.EmployeeID, Date: date})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

// Add stores events directly, ignoring duplicates. Test helper.
func (s *CheckinStore) Add(events ...checkin.Event) {
	for _, ev := range events {
		_, _ = s.Create(context.Background(), ev)
	}
}

// Len returns the number of stored events.
func (s *CheckinStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
