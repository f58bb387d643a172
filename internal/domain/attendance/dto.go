package attendance

import (
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// RECONCILE DTOs
// ========================================

type ReconcileRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	From        string   `json:"from"`
	To          string   `json:"to"`
}

func (r *ReconcileRequest) Validate() error {
	var errs validator.ValidationErrors

	from, fromOK := validator.IsValidDate(r.From)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be a date in YYYY-MM-DD format",
		})
	}

	to, toOK := validator.IsValidDate(r.To)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be a date in YYYY-MM-DD format",
		})
	}

	if fromOK && toOK && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must not be before from",
		})
	}

	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_ids",
				Message: "employee_ids must not contain empty values",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Range returns the civil dates of the request in loc. Call after Validate.
func (r *ReconcileRequest) Range(loc *time.Location) (time.Time, time.Time) {
	from, _ := time.ParseInLocation("2006-01-02", r.From, loc)
	to, _ := time.ParseInLocation("2006-01-02", r.To, loc)
	return from, to
}

type ReconcileResponse struct {
	Touched []string `json:"touched"`
	Errors  []string `json:"errors"`
}

// ========================================
// AUTO-SUBMIT DTOs
// ========================================

type SweepRequest struct {
	Now *string `json:"now,omitempty"`
}

func (r *SweepRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Now != nil {
		if _, ok := validator.IsValidDateTime(*r.Now); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "now",
				Message: "now must be an RFC3339 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// At returns the requested evaluation instant, or fallback when none was
// given. Call after Validate.
func (r *SweepRequest) At(fallback time.Time) time.Time {
	if r.Now == nil {
		return fallback
	}
	t, _ := validator.IsValidDateTime(*r.Now)
	return t
}

type SweepResponse struct {
	Finalized []string `json:"finalized"`
	Errors    []string `json:"errors"`
}

// ========================================
// BACKFILL DTOs
// ========================================

type BackfillRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r *BackfillRequest) Validate() error {
	rr := ReconcileRequest{From: r.From, To: r.To}
	return rr.Validate()
}

func (r *BackfillRequest) Range(loc *time.Location) (time.Time, time.Time) {
	rr := ReconcileRequest{From: r.From, To: r.To}
	return rr.Range(loc)
}

// ========================================
// CLASSIFY DTOs
// ========================================

// ClassifyRequest carries raw query or flag values.
type ClassifyRequest struct {
	WorkedHours string
	Leave       string
	Holiday     string
	MinHours    string

	workedHours float64
	leave       LeaveKind
	holiday     bool
	minHours    float64
}

func (r *ClassifyRequest) Validate() error {
	var errs validator.ValidationErrors

	hours, err := strconv.ParseFloat(strings.TrimSpace(r.WorkedHours), 64)
	if err != nil || hours < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "worked_hours",
			Message: "worked_hours must be a non-negative number",
		})
	}
	r.workedHours = hours

	minHours, err := strconv.ParseFloat(strings.TrimSpace(r.MinHours), 64)
	if err != nil || minHours < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "min_hours",
			Message: "min_hours must be a non-negative number",
		})
	}
	r.minHours = minHours

	switch LeaveKind(strings.ToLower(strings.TrimSpace(r.Leave))) {
	case "", "none":
		r.leave = LeaveNone
	case LeaveFullDay:
		r.leave = LeaveFullDay
	case LeaveHalfDay:
		r.leave = LeaveHalfDay
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "leave",
			Message: "leave must be one of: none, full_day, half_day",
		})
	}

	if h := strings.TrimSpace(r.Holiday); h != "" {
		holiday, err := strconv.ParseBool(h)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "holiday",
				Message: "holiday must be true or false",
			})
		}
		r.holiday = holiday
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Args returns the parsed classifier inputs. Call after Validate.
func (r *ClassifyRequest) Args() (float64, LeaveInfo, bool, float64) {
	return r.workedHours, LeaveInfo{Kind: r.leave}, r.holiday, r.minHours
}

type ClassifyResponse struct {
	Status Status `json:"status"`
}

// ErrorStrings flattens unit errors for transport.
func ErrorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
