package engine

import (
	"time"

	"attendance.service/internal/core/model"
)

// ODAdjustment is what approved on-duty time contributes to a matched
// segment: extra hours to credit and any waived penalties.
type ODAdjustment struct {
	ODHours       float64
	WaiveLateIn   bool
	WaiveEarlyOut bool
}

// OnDutyAdjustment reconciles approved on-duty intervals against the
// gap between a segment's punches and its shift window. Time the OD
// covers inside the shift but outside the punches is credited back;
// an OD that fully covers the late or early gap waives that penalty.
func OnDutyAdjustment(date time.Time, seg model.WorkSegment, shift model.ShiftDefinition, ods []model.OnDutyInterval) ODAdjustment {
	var adj ODAdjustment
	if seg.InTime == nil {
		return adj
	}

	shiftStart := ProjectOnDate(date, shift.StartTime)
	shiftEnd := ProjectShiftEnd(date, shift)

	punchIn := *seg.InTime
	punchOut := punchIn
	if seg.OutTime != nil {
		punchOut = *seg.OutTime
	}

	gapMinutes := 0
	for _, od := range ods {
		if !od.Approved {
			continue
		}
		odStart, odEnd, ok := odWindow(date, od, shiftStart, shiftEnd, shift)
		if !ok {
			continue
		}

		inShift := overlapMinutes(odStart, odEnd, shiftStart, shiftEnd)
		inPunch := overlapMinutes(odStart, odEnd, punchIn, punchOut)
		if gap := inShift - inPunch; gap > 0 {
			gapMinutes += gap
		}

		if !odStart.After(shiftStart) && !odEnd.Before(punchIn) {
			adj.WaiveLateIn = true
		}
		if seg.OutTime != nil && !odStart.After(punchOut) && !odEnd.Before(shiftEnd) {
			adj.WaiveEarlyOut = true
		}
	}

	adj.ODHours = round2(float64(gapMinutes) / 60)
	return adj
}

// odWindow turns an interval into concrete instants aligned to the
// segment's date. Full-day ODs span the whole shift window, half-day ODs
// the first half of it.
func odWindow(date time.Time, od model.OnDutyInterval, shiftStart, shiftEnd time.Time, shift model.ShiftDefinition) (time.Time, time.Time, bool) {
	switch {
	case od.FullDay:
		return shiftStart, shiftEnd, true
	case od.HalfDay:
		half := time.Duration(shift.DurationHours * float64(time.Hour) / 2)
		return shiftStart, shiftStart.Add(half), true
	case od.StartTime != nil && od.EndTime != nil:
		start := ProjectOnDate(date, *od.StartTime)
		end := ProjectOnDate(date, *od.EndTime)
		if end.Before(start) {
			end = end.AddDate(0, 0, 1)
		}
		return start, end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// overlapMinutes is the length of the intersection of two instant
// ranges, floored at zero.
func overlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Minutes())
}
