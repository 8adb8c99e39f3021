package engine

import (
	"reflect"
	"testing"
	"time"

	"attendance.service/internal/core/model"
)

func resolvedSeg(status model.SegmentStatus, adjusted, extra, payable float64, state model.SegmentState) model.ResolvedSegment {
	in := at(testDay, 9, 0)
	seg := model.WorkSegment{Ordinal: 1, InTime: &in, Status: status}
	if status == model.SegmentComplete {
		out := at(testDay, 18, 0)
		seg.OutTime = &out
	}
	return model.ResolvedSegment{
		Segment:         seg,
		AdjustedHours:   adjusted,
		ExtraHours:      extra,
		PayableFraction: payable,
		State:           state,
	}
}

func TestAggregateEmptyDayIsAbsent(t *testing.T) {
	agg := Aggregate("emp-1", testDay, nil, time.Now())
	if agg.Status != model.DayAbsent || agg.TotalShifts != 0 {
		t.Fatalf("empty day aggregate = %+v", agg)
	}
}

func TestAggregateTotals(t *testing.T) {
	segs := []model.ResolvedSegment{
		resolvedSeg(model.SegmentComplete, 9, 1.5, 1, model.SegmentPresent),
		resolvedSeg(model.SegmentComplete, 4.5, 0, 0.5, model.SegmentHalfDay),
	}
	agg := Aggregate("emp-1", testDay, segs, time.Now())

	if agg.TotalShifts != 2 {
		t.Errorf("total shifts = %d, want 2", agg.TotalShifts)
	}
	if agg.TotalWorkingHours != 13.5 {
		t.Errorf("working hours = %v, want 13.5", agg.TotalWorkingHours)
	}
	if agg.TotalOTHours != 1.5 {
		t.Errorf("ot hours = %v, want 1.5", agg.TotalOTHours)
	}
	if agg.TotalPayable != 1.5 {
		t.Errorf("payable = %v, want 1.5", agg.TotalPayable)
	}
	if agg.Status != model.DayPresent {
		t.Errorf("status = %s, want PRESENT", agg.Status)
	}
}

func TestAggregateOpenLastSegmentIsPartial(t *testing.T) {
	segs := []model.ResolvedSegment{
		resolvedSeg(model.SegmentComplete, 9, 0, 1, model.SegmentPresent),
		resolvedSeg(model.SegmentIncomplete, 0, 0, 0, model.SegmentAbsent),
	}
	agg := Aggregate("emp-1", testDay, segs, time.Now())
	if agg.Status != model.DayPartial {
		t.Errorf("status = %s, want PARTIAL", agg.Status)
	}
}

func TestAggregateStatusByPayable(t *testing.T) {
	tests := []struct {
		payable float64
		want    model.DayStatus
	}{
		{1, model.DayPresent},
		{0.5, model.DayHalf},
		{0, model.DayAbsent},
	}
	for _, tt := range tests {
		segs := []model.ResolvedSegment{
			resolvedSeg(model.SegmentComplete, 4, 0, tt.payable, model.SegmentHalfDay),
		}
		agg := Aggregate("emp-1", testDay, segs, time.Now())
		if agg.Status != tt.want {
			t.Errorf("payable %v: status = %s, want %s", tt.payable, agg.Status, tt.want)
		}
	}
}

func TestAggregateDeterministic(t *testing.T) {
	segs := []model.ResolvedSegment{
		resolvedSeg(model.SegmentComplete, 9, 0, 1, model.SegmentPresent),
	}
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	a := Aggregate("emp-1", testDay, segs, now)
	b := Aggregate("emp-1", testDay, segs, now)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different aggregates")
	}
}
