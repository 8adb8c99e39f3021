package engine

import (
	"sort"
	"time"

	"attendance.service/internal/core/model"
)

// ShiftHint guesses which shift an open segment most likely belongs to.
// The segmenter only needs it to judge repeated IN punches against the
// shift's end; a nil hint (or a hint returning nil) falls back to the
// plain gap rule.
type ShiftHint func(in time.Time) *model.ShiftDefinition

// repeatInDecision is the outcome of the duplicate-IN filter for an IN
// punch arriving while the previous segment is open or just closed.
type repeatInDecision int

const (
	repeatIgnore repeatInDecision = iota
	repeatNewSegment
	repeatConvertToOut
	repeatAutoCloseAndNew
)

// classifyRepeatIn applies the duplicate-IN / continuation rules to an
// IN punch that arrives while a segment for the day is still open.
func classifyRepeatIn(openIn, newIn time.Time, hint ShiftHint, settings Settings) repeatInDecision {
	var shift *model.ShiftDefinition
	if hint != nil {
		shift = hint(openIn)
	}

	if shift == nil {
		// No shift to judge against: repeated IN within an hour of the
		// original is a duplicate tap, anything later opens a new span.
		if newIn.Sub(openIn) >= DefaultDuplicateInGapMins*time.Minute {
			return repeatAutoCloseAndNew
		}
		return repeatIgnore
	}

	shiftEnd := ProjectShiftEnd(DateOf(openIn), *shift)
	graceEnd := shiftEnd.Add(time.Duration(settings.duplicateInGrace(shift.GraceMinutes)) * time.Minute)

	switch {
	case newIn.Before(shiftEnd):
		// Still within working hours, noise.
		return repeatIgnore
	case !newIn.After(graceEnd):
		// Just past the shift end: the employee tapped IN instead of OUT.
		return repeatConvertToOut
	default:
		return repeatAutoCloseAndNew
	}
}

// SegmentPunches folds a day's chronologically ordered punches into
// ordered work segments, applying the duplicate-IN filter at boundaries.
// A segment belongs to the date of its IN punch even when its OUT lands
// on the next calendar date.
func SegmentPunches(punches []model.Punch, hint ShiftHint, settings Settings) []model.WorkSegment {
	settings = settings.Normalized()

	sorted := make([]model.Punch, len(punches))
	copy(sorted, punches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var segments []model.WorkSegment

	openIndex := -1 // index into segments of the segment awaiting an OUT

	closeOpen := func(out time.Time) {
		seg := &segments[openIndex]
		t := out
		seg.OutTime = &t
		seg.PunchHours = hoursBetween(*seg.InTime, out)
		seg.Status = model.SegmentComplete
		openIndex = -1
	}

	openNew := func(in time.Time) {
		if completeCount(segments) >= settings.MaxShiftsPerDay {
			return
		}
		t := in
		segments = append(segments, model.WorkSegment{
			Ordinal: len(segments) + 1,
			InTime:  &t,
			Status:  model.SegmentIncomplete,
		})
		openIndex = len(segments) - 1
	}

	for _, p := range sorted {
		switch p.Direction {
		case model.DirectionOut:
			if openIndex >= 0 {
				closeOpen(p.Timestamp)
				continue
			}
			if len(segments) > 0 {
				// A second OUT tap after the segment closed is noise.
				continue
			}
			// An OUT with no matching IN: keep it so the aggregator can
			// count the day as malformed, but never match it to a shift.
			t := p.Timestamp
			segments = append(segments, model.WorkSegment{
				Ordinal: len(segments) + 1,
				OutTime: &t,
				Status:  model.SegmentMalformed,
			})

		case model.DirectionIn:
			if openIndex >= 0 {
				switch classifyRepeatIn(*segments[openIndex].InTime, p.Timestamp, hint, settings) {
				case repeatIgnore:
				case repeatConvertToOut:
					closeOpen(p.Timestamp)
				case repeatAutoCloseAndNew:
					closeOpen(p.Timestamp)
					openNew(p.Timestamp)
				}
				continue
			}

			if last := lastWithIn(segments); last != nil {
				// Previous segment already closed: a repeated IN less than
				// an hour after the previous IN is treated as noise.
				if p.Timestamp.Sub(*last.InTime) < DefaultDuplicateInGapMins*time.Minute {
					continue
				}
			}
			openNew(p.Timestamp)
		}
	}

	return segments
}

func completeCount(segments []model.WorkSegment) int {
	n := 0
	for _, s := range segments {
		if s.InTime != nil {
			n++
		}
	}
	return n
}

func lastWithIn(segments []model.WorkSegment) *model.WorkSegment {
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].InTime != nil {
			return &segments[i]
		}
	}
	return nil
}
