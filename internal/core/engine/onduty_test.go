package engine

import (
	"testing"

	"attendance.service/internal/core/model"
)

func todPtr(hour, min int) *model.TimeOfDay {
	t := model.NewTimeOfDay(hour, min)
	return &t
}

func approvedOD(start, end *model.TimeOfDay) model.OnDutyInterval {
	return model.OnDutyInterval{
		EmployeeID: "emp-1",
		Date:       testDay,
		StartTime:  start,
		EndTime:    end,
		Approved:   true,
	}
}

func TestOnDutyFillsPunchGap(t *testing.T) {
	// Shift 09:00-18:00; punches 11:00-18:00; OD approved 09:00-11:00.
	in := at(testDay, 11, 0)
	out := at(testDay, 18, 0)
	seg := segmentAt(in, &out)

	adj := OnDutyAdjustment(testDay, seg, dayShift(), []model.OnDutyInterval{
		approvedOD(todPtr(9, 0), todPtr(11, 0)),
	})

	if adj.ODHours != 2 {
		t.Errorf("od hours = %v, want 2", adj.ODHours)
	}
	if !adj.WaiveLateIn {
		t.Error("late-in should be waived: OD covers shift start through punch-in")
	}
	if adj.WaiveEarlyOut {
		t.Error("early-out waiver not expected")
	}
}

func TestOnDutyUnapprovedIgnored(t *testing.T) {
	in := at(testDay, 11, 0)
	out := at(testDay, 18, 0)
	od := approvedOD(todPtr(9, 0), todPtr(11, 0))
	od.Approved = false

	adj := OnDutyAdjustment(testDay, segmentAt(in, &out), dayShift(), []model.OnDutyInterval{od})
	if adj.ODHours != 0 || adj.WaiveLateIn {
		t.Errorf("unapproved OD applied: %+v", adj)
	}
}

func TestOnDutyOverlapOnlyCountsOutsidePunches(t *testing.T) {
	// OD 10:00-14:00 overlaps punches 11:00-18:00 for three of its four
	// hours; only the uncovered 10:00-11:00 gap is credited.
	in := at(testDay, 11, 0)
	out := at(testDay, 18, 0)

	adj := OnDutyAdjustment(testDay, segmentAt(in, &out), dayShift(), []model.OnDutyInterval{
		approvedOD(todPtr(10, 0), todPtr(14, 0)),
	})
	if adj.ODHours != 1 {
		t.Errorf("od hours = %v, want 1", adj.ODHours)
	}
	if adj.WaiveLateIn {
		t.Error("OD starting after shift start must not waive late-in")
	}
}

func TestOnDutyEarlyOutWaiver(t *testing.T) {
	// Punches 09:00-15:00 with OD covering 15:00 to shift end.
	in := at(testDay, 9, 0)
	out := at(testDay, 15, 0)

	adj := OnDutyAdjustment(testDay, segmentAt(in, &out), dayShift(), []model.OnDutyInterval{
		approvedOD(todPtr(15, 0), todPtr(18, 0)),
	})
	if adj.ODHours != 3 {
		t.Errorf("od hours = %v, want 3", adj.ODHours)
	}
	if !adj.WaiveEarlyOut {
		t.Error("early-out should be waived: OD covers punch-out through shift end")
	}
}

func TestOnDutyFullDayCoversShiftWindow(t *testing.T) {
	in := at(testDay, 9, 0)
	out := at(testDay, 13, 30)
	od := model.OnDutyInterval{EmployeeID: "emp-1", Date: testDay, FullDay: true, Approved: true}

	adj := OnDutyAdjustment(testDay, segmentAt(in, &out), dayShift(), []model.OnDutyInterval{od})
	// Shift window is 9h, punches cover 4.5h: the rest is credited.
	if adj.ODHours != 4.5 {
		t.Errorf("od hours = %v, want 4.5", adj.ODHours)
	}
	if !adj.WaiveLateIn || !adj.WaiveEarlyOut {
		t.Error("full-day OD should waive both penalties")
	}
}

func TestReconcileSegmentScenario(t *testing.T) {
	// Scenario: shift 09:00-18:00, punches 11:00-18:00, OD 09:00-11:00.
	in := at(testDay, 11, 0)
	out := at(testDay, 18, 0)
	seg := segmentAt(in, &out)

	outcome := MatchSegment(testDay, seg, catalogOf(model.TierDesignation, dayShift()), Settings{})
	if !outcome.Matched() {
		t.Fatal("segment did not match")
	}

	rs := ReconcileSegment(testDay, seg, outcome, []model.OnDutyInterval{
		approvedOD(todPtr(9, 0), todPtr(11, 0)),
	})

	if rs.ODHours != 2 {
		t.Errorf("od hours = %v, want 2", rs.ODHours)
	}
	if rs.AdjustedHours != 9 {
		t.Errorf("adjusted hours = %v, want 9 (7 punched + 2 OD)", rs.AdjustedHours)
	}
	if rs.IsLateIn {
		t.Error("late-in should be waived to false")
	}
	if rs.State != model.SegmentPresent || rs.PayableFraction != 1 {
		t.Errorf("state = %s payable = %v, want PRESENT/1", rs.State, rs.PayableFraction)
	}
}

func TestReconcileClassificationThresholds(t *testing.T) {
	shift := dayShift() // expected 9h
	cat := catalogOf(model.TierDesignation, shift)

	tests := []struct {
		name        string
		outHour     int
		outMin      int
		wantState   model.SegmentState
		wantPayable float64
	}{
		{"full day present", 18, 0, model.SegmentPresent, 1},
		{"ninety percent present", 17, 10, model.SegmentPresent, 1},
		{"half day", 13, 30, model.SegmentHalfDay, 0.5},
		{"too short is absent", 11, 0, model.SegmentAbsent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := at(testDay, 9, 0)
			out := at(testDay, tt.outHour, tt.outMin)
			seg := segmentAt(in, &out)
			outcome := MatchSegment(testDay, seg, cat, Settings{})

			rs := ReconcileSegment(testDay, seg, outcome, nil)
			if rs.State != tt.wantState || rs.PayableFraction != tt.wantPayable {
				t.Errorf("state=%s payable=%v, want %s/%v", rs.State, rs.PayableFraction, tt.wantState, tt.wantPayable)
			}
		})
	}
}

func TestReconcileOvertime(t *testing.T) {
	in := at(testDay, 9, 0)
	out := at(testDay, 20, 0)
	seg := segmentAt(in, &out)
	outcome := MatchSegment(testDay, seg, catalogOf(model.TierDesignation, dayShift()), Settings{})

	rs := ReconcileSegment(testDay, seg, outcome, nil)
	if rs.ExtraHours != 2 {
		t.Errorf("extra hours = %v, want 2", rs.ExtraHours)
	}
}
