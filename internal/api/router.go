package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.AttendanceService) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/punches", attendanceHandler.RecordPunch).Methods(http.MethodPost)
	api.HandleFunc("/attendance/{employeeId}/{date}", attendanceHandler.GetDailyAttendance).Methods(http.MethodGet)
	api.HandleFunc("/confused-shifts", attendanceHandler.ListConfusedShifts).Methods(http.MethodGet)
	api.HandleFunc("/confused-shifts/{id}/resolve", attendanceHandler.ResolveConfusedShift).Methods(http.MethodPost)
	api.HandleFunc("/confused-shifts/{id}/dismiss", attendanceHandler.DismissConfusedShift).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
