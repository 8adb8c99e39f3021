package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PunchDirection tells us whether a punch was a clock-in or a clock-out.
// The upstream capture system tags the direction before we ever see the punch.
type PunchDirection string

const (
	DirectionIn  PunchDirection = "IN"
	DirectionOut PunchDirection = "OUT"
)

// Punch is a single raw clock event as delivered by a time-recording source.
type Punch struct {
	ID         int64          `json:"id"`
	EmployeeID string         `json:"employeeId"`
	Timestamp  time.Time      `json:"timestamp"`
	Direction  PunchDirection `json:"direction"`
	Source     string         `json:"source"`
}

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Shift boundaries are times of day, not instants; projection onto a
// concrete date (including midnight crossing) lives in the engine.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute pair.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "15:04" formatted strings, which is how shift
// boundaries are stored in the shifts table.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// Minutes returns the value as minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ShiftDefinition is a named schedule template. An overnight shift has an
// end time-of-day numerically earlier than its start.
type ShiftDefinition struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	StartTime     TimeOfDay `json:"startTime"`
	EndTime       TimeOfDay `json:"endTime"`
	DurationHours float64   `json:"durationHours"`
	GraceMinutes  *int      `json:"graceMinutes,omitempty"`
}

// Overnight reports whether the shift spans midnight.
func (s ShiftDefinition) Overnight() bool { return s.EndTime < s.StartTime }

// CatalogTier identifies which rung of the resolution chain produced a
// shift catalog. The chain stops at the first non-empty tier.
type CatalogTier string

const (
	TierPreScheduled CatalogTier = "PRE_SCHEDULED"
	TierDesignation  CatalogTier = "DESIGNATION"
	TierDepartment   CatalogTier = "DEPARTMENT"
	TierGeneral      CatalogTier = "GENERAL"
	TierNone         CatalogTier = "NONE"
)

// ShiftCatalog is the ordered candidate list for one employee/date.
type ShiftCatalog struct {
	Shifts []ShiftDefinition `json:"shifts"`
	Tier   CatalogTier       `json:"tier"`
}

// Empty reports whether the catalog has no candidates at all.
func (c ShiftCatalog) Empty() bool { return len(c.Shifts) == 0 }

// SegmentStatus covers the shape of a work segment after segmentation.
type SegmentStatus string

const (
	SegmentComplete   SegmentStatus = "COMPLETE"
	SegmentIncomplete SegmentStatus = "INCOMPLETE"
	SegmentMalformed  SegmentStatus = "MALFORMED"
)

// WorkSegment is one contiguous IN→OUT span within a day. Only the
// chronologically last segment of a day may have a nil OutTime; a nil
// InTime marks a malformed span (an OUT with no matching IN).
type WorkSegment struct {
	Ordinal    int           `json:"ordinal"`
	InTime     *time.Time    `json:"inTime,omitempty"`
	OutTime    *time.Time    `json:"outTime,omitempty"`
	PunchHours float64       `json:"punchHours"`
	Status     SegmentStatus `json:"status"`
}

// MatchMethod tags how a segment got its shift assignment.
type MatchMethod string

const (
	MatchSingle           MatchMethod = "single"
	MatchNearestFallback  MatchMethod = "nearest-fallback"
	MatchProximityClosest MatchMethod = "proximity-closest"
	MatchOutDisambiguated MatchMethod = "outtime-disambiguated"
	MatchManual           MatchMethod = "manual-resolution"
	MatchAutoNearest      MatchMethod = "auto-nearest"
)

// MatchResult is the outcome of matching one segment against the catalog.
type MatchResult struct {
	ShiftID         *int64      `json:"shiftId,omitempty"`
	LateInMinutes   *int        `json:"lateInMinutes,omitempty"`
	EarlyOutMinutes *int        `json:"earlyOutMinutes,omitempty"`
	Method          MatchMethod `json:"method,omitempty"`
	ExpectedHours   float64     `json:"expectedHours"`
}

// OnDutyInterval is pre-approved off-site time that counts as worked time.
// FullDay intervals cover the whole shift window; HalfDay covers half of
// it from the shift start.
type OnDutyInterval struct {
	EmployeeID string     `json:"employeeId"`
	Date       time.Time  `json:"date"`
	StartTime  *TimeOfDay `json:"startTime,omitempty"`
	EndTime    *TimeOfDay `json:"endTime,omitempty"`
	FullDay    bool       `json:"fullDay"`
	HalfDay    bool       `json:"halfDay"`
	Approved   bool       `json:"approved"`
}

// SegmentState classifies one reconciled segment for payability.
type SegmentState string

const (
	SegmentPresent SegmentState = "PRESENT"
	SegmentHalfDay SegmentState = "HALF_DAY"
	SegmentAbsent  SegmentState = "ABSENT"
)

// ResolvedSegment is a work segment after matching and on-duty
// reconciliation, ready for aggregation.
type ResolvedSegment struct {
	Segment         WorkSegment  `json:"segment"`
	Match           MatchResult  `json:"match"`
	ODHours         float64      `json:"odHours"`
	AdjustedHours   float64      `json:"adjustedHours"`
	ExtraHours      float64      `json:"extraHours"`
	IsLateIn        bool         `json:"isLateIn"`
	IsEarlyOut      bool         `json:"isEarlyOut"`
	PayableFraction float64      `json:"payableFraction"`
	State           SegmentState `json:"state"`
}

// DayStatus is the overall attendance verdict for one employee/date.
type DayStatus string

const (
	DayPresent DayStatus = "PRESENT"
	DayPartial DayStatus = "PARTIAL"
	DayHalf    DayStatus = "HALF_DAY"
	DayAbsent  DayStatus = "ABSENT"
)

// DailyAttendanceAggregate is the per-employee-per-date roll-up. It is
// recomputed deterministically from source punches and upserted by key,
// so reprocessing the same day never duplicates rows.
type DailyAttendanceAggregate struct {
	EmployeeID        string            `json:"employeeId"`
	WorkDate          time.Time         `json:"workDate"`
	Segments          []ResolvedSegment `json:"segments"`
	TotalShifts       int               `json:"totalShifts"`
	TotalWorkingHours float64           `json:"totalWorkingHours"`
	TotalOTHours      float64           `json:"totalOtHours"`
	TotalPayable      float64           `json:"totalPayableShifts"`
	Status            DayStatus         `json:"status"`
	ComputedAt        time.Time         `json:"computedAt"`
}

// ConfusedStatus is the lifecycle state of an escalated segment.
// Resolved and dismissed are terminal.
type ConfusedStatus string

const (
	ConfusedPending   ConfusedStatus = "PENDING"
	ConfusedResolved  ConfusedStatus = "RESOLVED"
	ConfusedDismissed ConfusedStatus = "DISMISSED"
)

// ErrNotPending is returned when a terminal confused-shift record is
// resolved or dismissed a second time.
var ErrNotPending = errors.New("confused shift record is not pending")

// ShiftCandidate captures why a shift was a plausible match for an
// escalated segment, for the reviewer's benefit.
type ShiftCandidate struct {
	ShiftID         int64     `json:"shiftId"`
	Name            string    `json:"name"`
	StartTime       TimeOfDay `json:"startTime"`
	EndTime         TimeOfDay `json:"endTime"`
	DistanceMinutes int       `json:"distanceMinutes"`
	Reason          string    `json:"reason"`
}

// ConfusedShiftRecord is an escalated segment awaiting human (or
// auto-nearest) resolution. Exactly one record exists per employee/date;
// escalation upserts it, and it is only ever "destroyed" by moving to a
// terminal status.
type ConfusedShiftRecord struct {
	ID         uuid.UUID        `json:"id"`
	EmployeeID string           `json:"employeeId"`
	WorkDate   time.Time        `json:"workDate"`
	InTime     time.Time        `json:"inTime"`
	OutTime    *time.Time       `json:"outTime,omitempty"`
	Candidates []ShiftCandidate `json:"candidates"`
	Status     ConfusedStatus   `json:"status"`

	ResolvedShiftID *int64     `json:"resolvedShiftId,omitempty"`
	ResolvedBy      *string    `json:"resolvedBy,omitempty"`
	Comments        *string    `json:"comments,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	NotifiedAt      *time.Time `json:"notifiedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resolve transitions a pending record to resolved with the reviewer's
// chosen shift. Terminal records are rejected.
func (r *ConfusedShiftRecord) Resolve(shiftID int64, reviewer, comments string, at time.Time) error {
	if r.Status != ConfusedPending {
		return ErrNotPending
	}
	r.Status = ConfusedResolved
	r.ResolvedShiftID = &shiftID
	r.ResolvedBy = &reviewer
	r.Comments = &comments
	r.ResolvedAt = &at
	r.UpdatedAt = at
	return nil
}

// Dismiss transitions a pending record to dismissed.
func (r *ConfusedShiftRecord) Dismiss(reviewer, comments string, at time.Time) error {
	if r.Status != ConfusedPending {
		return ErrNotPending
	}
	r.Status = ConfusedDismissed
	r.ResolvedBy = &reviewer
	r.Comments = &comments
	r.ResolvedAt = &at
	r.UpdatedAt = at
	return nil
}
