package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type AttendanceHandler interface {
	Ingest(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	Backfill(w http.ResponseWriter, r *http.Request)
	AutoSubmit(w http.ResponseWriter, r *http.Request)
	Classify(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	engine   attendance.Engine
	location *time.Location
	now      func() time.Time
}

func NewAttendanceHandler(engine attendance.Engine, location *time.Location) AttendanceHandler {
	if location == nil {
		location = time.UTC
	}
	return &attendanceHandlerImpl{
		engine:   engine,
		location: location,
		now:      time.Now,
	}
}

// Ingest implements AttendanceHandler.
func (h *attendanceHandlerImpl) Ingest(w http.ResponseWriter, r *http.Request) {
	var req checkin.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode ingest request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.engine.Ingest(r.Context(), req.Punches)
	body := checkin.IngestResponse{
		Created: nonNil(result.Created),
		Skipped: result.Skipped,
		Errors:  attendance.ErrorStrings(result.Errors),
	}
	if err != nil {
		h.passFailed(w, "ingest", err, body)
		return
	}

	response.SuccessWithMessage(w, "Checkins ingested", body)
}

// Reconcile implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode reconcile request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	from, to := req.Range(h.location)
	result, err := h.engine.Reconcile(r.Context(), req.EmployeeIDs, from, to)
	body := reconcileResponse(result)
	if err != nil {
		h.passFailed(w, "reconcile", err, body)
		return
	}

	response.SuccessWithMessage(w, "Attendance reconciled", body)
}

// Backfill implements AttendanceHandler.
func (h *attendanceHandlerImpl) Backfill(w http.ResponseWriter, r *http.Request) {
	var req attendance.BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode backfill request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	from, to := req.Range(h.location)
	result, err := h.engine.Backfill(r.Context(), from, to)
	body := reconcileResponse(result)
	if err != nil {
		h.passFailed(w, "backfill", err, body)
		return
	}

	response.SuccessWithMessage(w, "Attendance backfilled", body)
}

// AutoSubmit implements AttendanceHandler.
func (h *attendanceHandlerImpl) AutoSubmit(w http.ResponseWriter, r *http.Request) {
	var req attendance.SweepRequest
	// Empty body means "now".
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("Failed to decode auto-submit request", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.engine.SweepAutoSubmit(r.Context(), req.At(h.now()))
	body := attendance.SweepResponse{
		Finalized: nonNil(result.Finalized),
		Errors:    attendance.ErrorStrings(result.Errors),
	}
	if err != nil {
		h.passFailed(w, "auto_submit", err, body)
		return
	}

	response.SuccessWithMessage(w, "Auto-submit sweep completed", body)
}

// Classify implements AttendanceHandler.
func (h *attendanceHandlerImpl) Classify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := attendance.ClassifyRequest{
		WorkedHours: q.Get("worked_hours"),
		Leave:       q.Get("leave"),
		Holiday:     q.Get("holiday"),
		MinHours:    q.Get("min_hours"),
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	hours, leave, holiday, minHours := req.Args()
	response.Success(w, attendance.ClassifyResponse{
		Status: h.engine.Classify(hours, leave, holiday, minHours),
	})
}

// passFailed answers an aborted batch. Units committed before the abort are
// still reported.
func (h *attendanceHandlerImpl) passFailed(w http.ResponseWriter, op string, err error, body interface{}) {
	slog.Error("Attendance pass aborted", "op", op, "error", err)
	if errors.Is(err, attendance.ErrStoreUnavailable) {
		response.ServiceUnavailable(w, "Attendance store unavailable", body)
		return
	}
	response.HandleError(w, err)
}

func reconcileResponse(result attendance.ReconcileResult) attendance.ReconcileResponse {
	return attendance.ReconcileResponse{
		Touched: nonNil(result.Touched),
		Errors:  attendance.ErrorStrings(result.Errors),
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
