package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

type AttendanceHandler struct {
	Service *core.AttendanceService
}

type RecordPunchRequest struct {
	EmployeeID string `json:"employeeId"`
	Timestamp  string `json:"timestamp"`
	Direction  string `json:"direction"`
	Source     string `json:"source"`
}

type ResolveRequest struct {
	ShiftID  int64  `json:"shiftId"`
	Reviewer string `json:"reviewer"`
	Comments string `json:"comments"`
	Auto     bool   `json:"auto"`
}

type DismissRequest struct {
	Reviewer string `json:"reviewer"`
	Comments string `json:"comments"`
}

func (h *AttendanceHandler) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req RecordPunchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.EmployeeID == "" {
		http.Error(w, "EmployeeID is required", http.StatusBadRequest)
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		http.Error(w, "Timestamp must be RFC3339", http.StatusBadRequest)
		return
	}

	err = h.Service.RecordPunch(r.Context(), req.EmployeeID, ts, model.PunchDirection(req.Direction), req.Source)

	if err != nil {
		if errors.Is(err, core.ErrInvalidPunch) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Service error recording punch", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"message": "Punch recorded for asynchronous processing."})
}

func (h *AttendanceHandler) GetDailyAttendance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := time.ParseInLocation("2006-01-02", vars["date"], time.UTC)
	if err != nil {
		http.Error(w, "Date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	agg, err := h.Service.GetDailyAttendance(r.Context(), vars["employeeId"], date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "No attendance recorded for that day", http.StatusNotFound)
			return
		}
		http.Error(w, "Service error fetching attendance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agg)
}

func (h *AttendanceHandler) ListConfusedShifts(w http.ResponseWriter, r *http.Request) {
	status := model.ConfusedStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.ConfusedPending
	}

	records, err := h.Service.ListConfusedShifts(r.Context(), status)
	if err != nil {
		http.Error(w, "Service error listing confused shifts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *AttendanceHandler) ResolveConfusedShift(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var agg *model.DailyAttendanceAggregate
	var err error
	if req.Auto {
		agg, err = h.Service.AutoResolveNearest(r.Context(), id)
	} else {
		if req.ShiftID == 0 {
			http.Error(w, "ShiftID is required", http.StatusBadRequest)
			return
		}
		agg, err = h.Service.ResolveConfusedShift(r.Context(), id, req.ShiftID, req.Reviewer, req.Comments)
	}

	if err != nil {
		writeResolutionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agg)
}

func (h *AttendanceHandler) DismissConfusedShift(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Service.DismissConfusedShift(r.Context(), id, req.Reviewer, req.Comments); err != nil {
		writeResolutionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"message": "Confused shift dismissed."})
}

func recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid confused shift id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeResolutionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Confused shift not found", http.StatusNotFound)
	case errors.Is(err, model.ErrNotPending):
		http.Error(w, "Confused shift is already settled", http.StatusConflict)
	default:
		http.Error(w, "Service error applying resolution", http.StatusInternalServerError)
	}
}
