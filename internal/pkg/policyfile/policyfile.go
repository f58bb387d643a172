// Package policyfile loads attendance policy from a YAML document, for
// running the engine without the HR tables (dry runs, replays, fixtures).
package policyfile

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"gopkg.in/yaml.v3"
)

type File struct {
	Settings  *Settings                `yaml:"settings"`
	Shifts    map[string]Shift         `yaml:"shifts"`
	Holidays  []string                 `yaml:"holidays"`
	Employees map[string]EmployeeRules `yaml:"employees"`
}

type Settings struct {
	MinWorkingHours           *float64 `yaml:"min_working_hours"`
	EnableRegularization      *bool    `yaml:"enable_regularization"`
	AutoSubmitBufferHours     *float64 `yaml:"auto_submit_buffer_hours"`
	RegularizationWindowHours *float64 `yaml:"regularization_window_hours"`
}

type Shift struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type EmployeeRules struct {
	Shift       string       `yaml:"shift"`
	Assignments []Assignment `yaml:"assignments"`
	Holidays    []string     `yaml:"holidays"`
	Leaves      []Leave      `yaml:"leaves"`
	Corrections []Correction `yaml:"corrections"`
}

type Assignment struct {
	Date  string `yaml:"date"`
	Shift string `yaml:"shift"`
}

type Leave struct {
	Date string `yaml:"date"`
	Kind string `yaml:"kind"`
	Ref  string `yaml:"ref"`
}

type Correction struct {
	Date   string `yaml:"date"`
	Status string `yaml:"status"`
}

// Load reads path and builds a policy source. Dates are civil dates in loc.
func Load(path string, loc *time.Location) (*memory.PolicySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data, loc)
}

// Parse decodes a policy document, rejecting unknown fields.
func Parse(data []byte, loc *time.Location) (*memory.PolicySource, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
	}
	return f.Build(loc)
}

// Build validates the document and converts it to a policy source.
func (f File) Build(loc *time.Location) (*memory.PolicySource, error) {
	src := memory.NewPolicySource(f.settings())

	shifts := make(map[string]attendance.Shift, len(f.Shifts))
	for ref, s := range f.Shifts {
		start, ok := validator.ParseClock(s.Start)
		if !ok {
			return nil, fmt.Errorf("shift %s: invalid start %q", ref, s.Start)
		}
		end, ok := validator.ParseClock(s.End)
		if !ok {
			return nil, fmt.Errorf("shift %s: invalid end %q", ref, s.End)
		}
		shifts[ref] = attendance.Shift{Ref: ref, Start: start, End: end}
	}

	shared, err := parseDates(f.Holidays, loc)
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}

	for emp, rules := range f.Employees {
		if rules.Shift != "" {
			s, ok := shifts[rules.Shift]
			if !ok {
				return nil, fmt.Errorf("employee %s: unknown shift %q", emp, rules.Shift)
			}
			src.SetShift(emp, s)
		}

		for _, a := range rules.Assignments {
			d, err := parseDate(a.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("employee %s assignment: %w", emp, err)
			}
			s, ok := shifts[a.Shift]
			if !ok {
				return nil, fmt.Errorf("employee %s: unknown shift %q", emp, a.Shift)
			}
			src.AssignShift(emp, d, s)
		}

		own, err := parseDates(rules.Holidays, loc)
		if err != nil {
			return nil, fmt.Errorf("employee %s holidays: %w", emp, err)
		}
		for _, d := range append(own, shared...) {
			src.SetHoliday(emp, d)
		}

		for _, l := range rules.Leaves {
			d, err := parseDate(l.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("employee %s leave: %w", emp, err)
			}
			kind := attendance.LeaveKind(l.Kind)
			if kind != attendance.LeaveFullDay && kind != attendance.LeaveHalfDay {
				return nil, fmt.Errorf("employee %s leave on %s: kind must be full_day or half_day", emp, l.Date)
			}
			src.SetLeave(emp, d, attendance.LeaveInfo{Kind: kind, Ref: l.Ref})
		}

		for _, c := range rules.Corrections {
			d, err := parseDate(c.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("employee %s correction: %w", emp, err)
			}
			status := attendance.CorrectionStatus(c.Status)
			if status != attendance.CorrectionPending && status != attendance.CorrectionApproved {
				return nil, fmt.Errorf("employee %s correction on %s: status must be pending or approved", emp, c.Date)
			}
			src.SetCorrection(emp, d, status)
		}
	}

	return src, nil
}

func (f File) settings() attendance.Settings {
	s := attendance.DefaultSettings()
	if f.Settings == nil {
		return s
	}
	if v := f.Settings.MinWorkingHours; v != nil {
		s.MinWorkingHours = *v
	}
	if v := f.Settings.EnableRegularization; v != nil {
		s.EnableRegularization = *v
	}
	if v := f.Settings.AutoSubmitBufferHours; v != nil {
		s.AutoSubmitBufferHours = *v
	}
	if v := f.Settings.RegularizationWindowHours; v != nil {
		s.RegularizationWindowHours = *v
	}
	return s
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func parseDates(in []string, loc *time.Location) ([]time.Time, error) {
	out := make([]time.Time, 0, len(in))
	for _, s := range in {
		d, err := parseDate(s, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
