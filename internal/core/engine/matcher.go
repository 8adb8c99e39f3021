package engine

import (
	"fmt"
	"sort"
	"time"

	"attendance.service/internal/core/model"
)

const (
	// Weights for blending in-time and out-time proximity when two
	// candidates cannot be separated by arrival alone.
	inTimeWeight  = 0.6
	outTimeWeight = 0.4

	// A candidate whose start precedes the punch by at most this many
	// minutes is preferred over later-starting candidates.
	preferredBiasMinutes = 35
)

// Escalation carries everything a reviewer needs to resolve a segment
// the matcher refused to guess on.
type Escalation struct {
	Reason     string
	Candidates []model.ShiftCandidate
}

// MatchOutcome is the result of matching one segment. Exactly one of
// Shift or Escalation is set when the catalog is non-empty; both are nil
// when there were no shifts to match against at all.
type MatchOutcome struct {
	Result     model.MatchResult
	Shift      *model.ShiftDefinition
	Escalation *Escalation
}

// Matched reports whether the segment got a shift assignment.
func (o MatchOutcome) Matched() bool { return o.Shift != nil }

type scoredCandidate struct {
	shift    model.ShiftDefinition
	distance int
	outScore float64
}

// MatchSegment assigns a segment to the best shift in the catalog, or
// escalates when the arrival is genuinely ambiguous. The date argument
// is the segment's calendar date (the date of its IN punch).
func MatchSegment(date time.Time, seg model.WorkSegment, catalog model.ShiftCatalog, settings Settings) MatchOutcome {
	settings = settings.Normalized()

	if seg.InTime == nil || catalog.Empty() {
		return MatchOutcome{}
	}
	in := *seg.InTime

	// A pre-scheduled shift is an explicit roster entry for this exact
	// date; it wins outright without any proximity scoring.
	if catalog.Tier == model.TierPreScheduled {
		return AssignShift(date, seg, catalog.Shifts[0], model.MatchSingle, settings)
	}

	all := make([]scoredCandidate, 0, len(catalog.Shifts))
	for _, s := range catalog.Shifts {
		all = append(all, scoredCandidate{shift: s, distance: arrivalDistance(in, s.StartTime)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].distance < all[j].distance })

	within := all[:0:0]
	for _, c := range all {
		if c.distance <= settings.ProximityToleranceMinutes {
			within = append(within, c)
		}
	}

	// Nothing inside the tolerance window: fall back to the globally
	// nearest shift so a match is always produced.
	if len(within) == 0 {
		return AssignShift(date, seg, all[0].shift, model.MatchNearestFallback, settings)
	}
	if len(within) == 1 {
		return AssignShift(date, seg, within[0].shift, model.MatchSingle, settings)
	}

	if identicalStarts(within) {
		if seg.OutTime == nil {
			return escalate(within, "multiple shifts share the same start time and the segment has no out punch")
		}
		if best, ok := disambiguateByOut(date, seg, within, settings); ok {
			return AssignShift(date, seg, best, model.MatchOutDisambiguated, settings)
		}
		return escalate(within, "out-time scores too close to separate shifts with identical start times")
	}

	if ambiguousArrival(in, within, settings) {
		if seg.OutTime != nil {
			if best, ok := disambiguateByOut(date, seg, within, settings); ok {
				return AssignShift(date, seg, best, model.MatchOutDisambiguated, settings)
			}
		}
		return escalate(within, "arrival is roughly equidistant between candidate shift starts")
	}

	// Unambiguous: rank with the preferred bias, then by raw distance.
	ranked := make([]scoredCandidate, len(within))
	copy(ranked, within)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := preferred(in, ranked[i]), preferred(in, ranked[j])
		if pi != pj {
			return pi
		}
		return ranked[i].distance < ranked[j].distance
	})
	return AssignShift(date, seg, ranked[0].shift, model.MatchProximityClosest, settings)
}

// NearestShift returns the catalog candidate whose start is closest to
// the given arrival, or nil for an empty catalog. The segmenter uses it
// as the shift hint for the duplicate-IN filter.
func NearestShift(catalog model.ShiftCatalog, in time.Time) *model.ShiftDefinition {
	var best *model.ShiftDefinition
	bestDist := 0
	for i := range catalog.Shifts {
		d := arrivalDistance(in, catalog.Shifts[i].StartTime)
		if best == nil || d < bestDist {
			best = &catalog.Shifts[i]
			bestDist = d
		}
	}
	return best
}

func identicalStarts(cands []scoredCandidate) bool {
	for _, c := range cands[1:] {
		if c.shift.StartTime != cands[0].shift.StartTime {
			return false
		}
	}
	return true
}

// ambiguousArrival is true when the two nearest candidates are within
// the ambiguity threshold of each other, or when the punch sits roughly
// midway between a start before it and a start after it (same-day or
// wrapped across midnight).
func ambiguousArrival(in time.Time, cands []scoredCandidate, settings Settings) bool {
	if cands[1].distance-cands[0].distance < settings.AmbiguityThresholdMinutes {
		return true
	}
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			di := signedArrivalDelta(in, cands[i].shift.StartTime)
			dj := signedArrivalDelta(in, cands[j].shift.StartTime)
			if di == 0 || dj == 0 || (di > 0) == (dj > 0) {
				continue // punch is not between the two starts
			}
			gap := abs(abs(di) - abs(dj))
			if gap < settings.AmbiguityThresholdMinutes {
				return true
			}
		}
	}
	return false
}

func preferred(in time.Time, c scoredCandidate) bool {
	return signedArrivalDelta(in, c.shift.StartTime) >= 0 && c.distance <= preferredBiasMinutes
}

// disambiguateByOut blends in-time and out-time proximity and accepts
// the best candidate only when it beats the runner-up by more than half
// the out-time tolerance.
func disambiguateByOut(date time.Time, seg model.WorkSegment, cands []scoredCandidate, settings Settings) (model.ShiftDefinition, bool) {
	if seg.OutTime == nil {
		return model.ShiftDefinition{}, false
	}
	scored := make([]scoredCandidate, len(cands))
	copy(scored, cands)
	for i := range scored {
		end := ProjectShiftEnd(date, scored[i].shift)
		outDist := abs(int(seg.OutTime.Sub(end).Minutes()))
		scored[i].outScore = inTimeWeight*float64(scored[i].distance) + outTimeWeight*float64(outDist)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].outScore < scored[j].outScore })

	margin := float64(settings.OutTimeToleranceMinutes) / 2
	if scored[1].outScore-scored[0].outScore > margin {
		return scored[0].shift, true
	}
	return model.ShiftDefinition{}, false
}

// AssignShift builds the match outcome for a known shift choice. The
// service layer also uses it when a reviewer (or the auto-nearest
// fallback) picks the shift for an escalated segment.
func AssignShift(date time.Time, seg model.WorkSegment, shift model.ShiftDefinition, method model.MatchMethod, settings Settings) MatchOutcome {
	late := LateInMinutes(*seg.InTime, shift, settings)
	early := EarlyOutMinutes(date, seg.OutTime, shift, settings)
	id := shift.ID
	return MatchOutcome{
		Shift: &shift,
		Result: model.MatchResult{
			ShiftID:         &id,
			LateInMinutes:   &late,
			EarlyOutMinutes: early,
			Method:          method,
			ExpectedHours:   shift.DurationHours,
		},
	}
}

func escalate(cands []scoredCandidate, reason string) MatchOutcome {
	out := make([]model.ShiftCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, model.ShiftCandidate{
			ShiftID:         c.shift.ID,
			Name:            c.shift.Name,
			StartTime:       c.shift.StartTime,
			EndTime:         c.shift.EndTime,
			DistanceMinutes: c.distance,
			Reason:          fmt.Sprintf("start %s is %dm from punch-in", c.shift.StartTime, c.distance),
		})
	}
	return MatchOutcome{Escalation: &Escalation{Reason: reason, Candidates: out}}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
