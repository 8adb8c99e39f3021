package engine

import (
	"time"

	"attendance.service/internal/core/model"
)

// Payability thresholds relative to the shift's expected hours.
const (
	presentThreshold = 0.9
	halfDayThreshold = 0.45
)

// ReconcileSegment combines a matched segment with its on-duty
// adjustment into the final per-segment metrics. Unmatched segments
// carry their punch hours through untouched and stay unpayable until a
// reviewer resolves them.
func ReconcileSegment(date time.Time, seg model.WorkSegment, outcome MatchOutcome, ods []model.OnDutyInterval) model.ResolvedSegment {
	rs := model.ResolvedSegment{
		Segment:       seg,
		Match:         outcome.Result,
		AdjustedHours: seg.PunchHours,
		State:         model.SegmentAbsent,
	}
	if !outcome.Matched() {
		return rs
	}

	adj := OnDutyAdjustment(date, seg, *outcome.Shift, ods)
	rs.ODHours = adj.ODHours
	rs.AdjustedHours = round2(seg.PunchHours + adj.ODHours)

	if outcome.Result.LateInMinutes != nil {
		rs.IsLateIn = *outcome.Result.LateInMinutes > 0 && !adj.WaiveLateIn
	}
	if outcome.Result.EarlyOutMinutes != nil {
		rs.IsEarlyOut = *outcome.Result.EarlyOutMinutes > 0 && !adj.WaiveEarlyOut
	}

	expected := outcome.Result.ExpectedHours
	if extra := rs.AdjustedHours - expected; extra > 0 {
		rs.ExtraHours = round2(extra)
	}

	switch {
	case expected > 0 && rs.AdjustedHours >= presentThreshold*expected:
		rs.State = model.SegmentPresent
		rs.PayableFraction = 1
	case expected > 0 && rs.AdjustedHours >= halfDayThreshold*expected:
		rs.State = model.SegmentHalfDay
		rs.PayableFraction = 0.5
	default:
		rs.State = model.SegmentAbsent
	}
	return rs
}

// Aggregate folds the day's reconciled segments into the single
// per-employee-per-date record. The computation is deterministic from
// its inputs, so recomputing and upserting is always safe.
func Aggregate(employeeID string, date time.Time, segments []model.ResolvedSegment, now time.Time) model.DailyAttendanceAggregate {
	agg := model.DailyAttendanceAggregate{
		EmployeeID: employeeID,
		WorkDate:   DateOf(date),
		Segments:   segments,
		Status:     model.DayAbsent,
		ComputedAt: now,
	}

	var working, ot, payable float64
	for _, s := range segments {
		working += s.AdjustedHours
		ot += s.ExtraHours
		payable += s.PayableFraction
	}
	agg.TotalShifts = len(segments)
	agg.TotalWorkingHours = round2(working)
	agg.TotalOTHours = round2(ot)
	agg.TotalPayable = round2(payable)

	if len(segments) == 0 {
		return agg
	}
	last := segments[len(segments)-1].Segment
	switch {
	case last.Status == model.SegmentIncomplete:
		agg.Status = model.DayPartial
	case agg.TotalPayable >= 1:
		agg.Status = model.DayPresent
	case agg.TotalPayable >= 0.5:
		agg.Status = model.DayHalf
	}
	return agg
}
