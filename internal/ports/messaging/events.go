package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Reprocess triggers. A unit is recomputed whenever any of these fire.
const (
	TriggerPunch      = "PUNCH"
	TriggerODChange   = "OD_CHANGE"
	TriggerResolution = "RESOLUTION"
)

// ReprocessEvent is the JSON payload sent via SQS asking the attendance
// worker to recompute one (employee, date) unit.
type ReprocessEvent struct {
	EmployeeID string    `json:"employeeId"`
	WorkDate   string    `json:"workDate"` // 2006-01-02
	Trigger    string    `json:"trigger"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ReviewEvent is the JSON payload sent via SQS when a segment escalates
// and the review desk should be told about it.
type ReviewEvent struct {
	ConfusedShiftID uuid.UUID `json:"confusedShiftId"`
	EmployeeID      string    `json:"employeeId"`
	WorkDate        string    `json:"workDate"`
	CandidateCount  int       `json:"candidateCount"`
	OccurredAt      time.Time `json:"occurredAt"`
}
