package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrInput),
		errors.Is(err, checkin.ErrMalformedTimestamp):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrStoreConflict):
		Conflict(w, "Attendance already exists for employee and date")
	case errors.Is(err, attendance.ErrRecordFinal):
		Conflict(w, "Attendance record is already final")
	case errors.Is(err, attendance.ErrStoreUnavailable):
		ServiceUnavailable(w, "Attendance store unavailable", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

// ErrInvalidToken is reported by the auth middleware.
var ErrInvalidToken = errors.New("invalid access token")
