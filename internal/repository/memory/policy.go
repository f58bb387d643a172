package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Policy lookups that can be made to fail with Fail.
const (
	OpSettings   = "settings"
	OpShift      = "shift"
	OpLeave      = "leave"
	OpHoliday    = "holiday"
	OpCorrection = "correction"
)

// PolicySource is a mutable in-memory attendance.PolicySource. Shifts can
// be set per employee or per employee-date; the dated entry wins.
type PolicySource struct {
	mu          sync.RWMutex
	settings    attendance.Settings
	shifts      map[string]attendance.Shift
	datedShifts map[string]attendance.Shift
	leaves      map[string]attendance.LeaveInfo
	holidays    map[string]bool
	corrections map[string]attendance.CorrectionStatus
	failures    map[string]error
}

func NewPolicySource(settings attendance.Settings) *PolicySource {
	return &PolicySource{
		settings:    settings,
		shifts:      make(map[string]attendance.Shift),
		datedShifts: make(map[string]attendance.Shift),
		leaves:      make(map[string]attendance.LeaveInfo),
		holidays:    make(map[string]bool),
		corrections: make(map[string]attendance.CorrectionStatus),
		failures:    make(map[string]error),
	}
}

var _ attendance.PolicySource = (*PolicySource)(nil)

func (p *PolicySource) SetSettings(s attendance.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
}

// SetShift assigns the employee's default shift.
func (p *PolicySource) SetShift(employeeID string, s attendance.Shift) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shifts[employeeID] = s
}

// AssignShift assigns a shift for a single date.
func (p *PolicySource) AssignShift(employeeID string, date time.Time, s attendance.Shift) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datedShifts[dayOf(employeeID, date)] = s
}

func (p *PolicySource) SetLeave(employeeID string, date time.Time, l attendance.LeaveInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaves[dayOf(employeeID, date)] = l
}

func (p *PolicySource) SetHoliday(employeeID string, date time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holidays[dayOf(employeeID, date)] = true
}

func (p *PolicySource) SetCorrection(employeeID string, date time.Time, c attendance.CorrectionStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.corrections[dayOf(employeeID, date)] = c
}

// Fail makes the lookup op return err until cleared with a nil err.
func (p *PolicySource) Fail(op string, err error) {
	p.setFailure(op, err)
}

// FailFor is Fail limited to one employee.
func (p *PolicySource) FailFor(op, employeeID string, err error) {
	p.setFailure(op+"|"+employeeID, err)
}

func (p *PolicySource) setFailure(key string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, key)
		return
	}
	p.failures[key] = err
}

func (p *PolicySource) failure(op, employeeID string) error {
	if err := p.failures[op]; err != nil {
		return err
	}
	return p.failures[op+"|"+employeeID]
}

func (p *PolicySource) Settings(_ context.Context) (attendance.Settings, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failure(OpSettings, ""); err != nil {
		return attendance.Settings{}, err
	}
	return p.settings, nil
}

func (p *PolicySource) Shift(_ context.Context, employeeID string, date time.Time) (*attendance.Shift, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failure(OpShift, employeeID); err != nil {
		return nil, err
	}
	if s, ok := p.datedShifts[dayOf(employeeID, date)]; ok {
		return &s, nil
	}
	if s, ok := p.shifts[employeeID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (p *PolicySource) LeaveStatus(_ context.Context, employeeID string, date time.Time) (attendance.LeaveInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failure(OpLeave, employeeID); err != nil {
		return attendance.LeaveInfo{}, err
	}
	return p.leaves[dayOf(employeeID, date)], nil
}

func (p *PolicySource) IsHoliday(_ context.Context, employeeID string, date time.Time) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failure(OpHoliday, employeeID); err != nil {
		return false, err
	}
	return p.holidays[dayOf(employeeID, date)], nil
}

func (p *PolicySource) CorrectionStatus(_ context.Context, employeeID string, date time.Time) (attendance.CorrectionStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failure(OpCorrection, employeeID); err != nil {
		return attendance.CorrectionNone, err
	}
	return p.corrections[dayOf(employeeID, date)], nil
}
