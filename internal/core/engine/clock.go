// Package engine holds the pure shift-matching and reconciliation logic.
// Nothing in here touches the database, the network, or global settings;
// every function takes everything it needs as arguments so the whole
// pipeline stays deterministic and trivially testable.
package engine

import (
	"math"
	"time"

	"attendance.service/internal/core/model"
)

const minutesPerDay = 24 * 60

// DateOf strips the clock portion of an instant, keeping its location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ProjectOnDate places a time-of-day onto a concrete calendar date.
// This is the single midnight-crossing helper used by segmentation,
// matching and the late/early math alike.
func ProjectOnDate(date time.Time, tod model.TimeOfDay) time.Time {
	d := DateOf(date)
	return time.Date(d.Year(), d.Month(), d.Day(), tod.Hour(), tod.Minutes()%60, 0, 0, d.Location())
}

// ProjectShiftEnd places a shift's end time on the correct calendar date
// relative to the day the shift started. Overnight shifts end on the
// following date.
func ProjectShiftEnd(startDate time.Time, shift model.ShiftDefinition) time.Time {
	end := ProjectOnDate(startDate, shift.EndTime)
	if shift.Overnight() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// minuteOfDay returns the wall-clock minute of an instant.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// circularDistance is the minute distance between two times of day on a
// 24h clock; anything over 12h collapses to its 24h complement.
func circularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > minutesPerDay/2 {
		d = minutesPerDay - d
	}
	return d
}

// arrivalDistance measures how far an arrival instant is from a
// candidate shift start. Late-evening shifts (start >= 20:00) reached by
// an early-morning punch are also measured against the previous day's
// instance of that start, keeping whichever is closer.
func arrivalDistance(in time.Time, start model.TimeOfDay) int {
	inMin := minuteOfDay(in)
	d := inMin - start.Minutes()
	if d < 0 {
		d = -d
	}
	if start.Hour() >= 20 && in.Hour() < 12 {
		prevDay := inMin + minutesPerDay - start.Minutes()
		if prevDay < d {
			d = prevDay
		}
	}
	if d > minutesPerDay/2 {
		d = minutesPerDay - d
	}
	return d
}

// signedArrivalDelta is arrivalDistance with direction: positive when
// the punch lands after the shift start, negative when before. The
// result is normalised into (-12h, 12h] so overnight arrivals compare
// against the nearest instance of the start time.
func signedArrivalDelta(in time.Time, start model.TimeOfDay) int {
	d := minuteOfDay(in) - start.Minutes()
	for d > minutesPerDay/2 {
		d -= minutesPerDay
	}
	for d <= -minutesPerDay/2 {
		d += minutesPerDay
	}
	return d
}

// round2 rounds hours to two decimals, matching how totals are stored.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// hoursBetween is the elapsed span between two instants in hours,
// rounded to two decimals.
func hoursBetween(from, to time.Time) float64 {
	return round2(to.Sub(from).Hours())
}
