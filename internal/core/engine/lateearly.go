package engine

import (
	"time"

	"attendance.service/internal/core/model"
)

// LateInMinutes is how many minutes past the shift start (after grace)
// the punch-in arrived. Arrivals before the start, or within grace,
// yield zero. Grace precedence: global override, shift grace, default.
func LateInMinutes(in time.Time, shift model.ShiftDefinition, settings Settings) int {
	delta := signedArrivalDelta(in, shift.StartTime)
	late := delta - settings.lateInGrace(shift.GraceMinutes)
	if late < 0 {
		return 0
	}
	return late
}

// EarlyOutMinutes is how many minutes before the shift end (after grace)
// the punch-out left. The shift end is projected onto the correct
// calendar date first, so overnight shifts measure against the morning
// after the segment's date. Returns nil when there is no out punch.
func EarlyOutMinutes(date time.Time, out *time.Time, shift model.ShiftDefinition, settings Settings) *int {
	if out == nil {
		return nil
	}
	end := ProjectShiftEnd(date, shift)
	early := int(end.Sub(*out).Minutes()) - settings.earlyOutGrace(shift.GraceMinutes)
	if early < 0 {
		early = 0
	}
	return &early
}
