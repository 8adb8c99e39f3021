package main

import (
	"encoding/json"
	"log"
	"net/http"
)

// Mirrors the wire shape the attendance service expects from the leave system.
type odResponse struct {
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	StartTime  *string `json:"startTime,omitempty"`
	EndTime    *string `json:"endTime,omitempty"`
	FullDay    bool    `json:"fullDay"`
	HalfDay    bool    `json:"halfDay"`
	Approved   bool    `json:"approved"`
}

func approvedODHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employeeId")
	date := r.URL.Query().Get("date")
	if employeeID == "" || date == "" {
		http.Error(w, "employeeId and date are required", http.StatusBadRequest)
		return
	}

	log.Printf("Serving approved OD intervals for EmployeeID: %s, Date: %s", employeeID, date)

	// Every employee gets one approved morning OD interval, which is enough
	// to exercise gap filling and waivers locally.
	start, end := "09:00", "11:00"
	payload := []odResponse{
		{
			EmployeeID: employeeID,
			Date:       date,
			StartTime:  &start,
			EndTime:    &end,
			Approved:   true,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func main() {
	http.HandleFunc("/approved-od", approvedODHandler)
	log.Println("Leave API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
