package engine

// Defaults used when the settings source leaves a value unset.
const (
	DefaultGraceMinutes       = 15
	DefaultProximityTolerance = 180
	DefaultAmbiguityThreshold = 30
	DefaultOutTimeTolerance   = 60
	DefaultMaxShiftsPerDay    = 3
	DefaultDuplicateInGapMins = 60
)

// Settings is the full configuration one pipeline run operates under.
// It is assembled once at the top level and passed in explicitly; none
// of the pure functions below read configuration on their own.
//
// The grace fields are pointers because a non-nil global grace overrides
// whatever grace a shift carries, while nil falls through to the shift's
// own value (and finally to DefaultGraceMinutes).
type Settings struct {
	LateInGraceMinutes      *int
	EarlyOutGraceMinutes    *int
	DuplicateInGraceMinutes *int

	ProximityToleranceMinutes int
	AmbiguityThresholdMinutes int
	OutTimeToleranceMinutes   int
	MaxShiftsPerDay           int
}

// Normalized fills any zero-valued tuning knob with its default so the
// rest of the engine never has to re-check for absent values.
func (s Settings) Normalized() Settings {
	if s.ProximityToleranceMinutes <= 0 {
		s.ProximityToleranceMinutes = DefaultProximityTolerance
	}
	if s.AmbiguityThresholdMinutes <= 0 {
		s.AmbiguityThresholdMinutes = DefaultAmbiguityThreshold
	}
	if s.OutTimeToleranceMinutes <= 0 {
		s.OutTimeToleranceMinutes = DefaultOutTimeTolerance
	}
	if s.MaxShiftsPerDay <= 0 {
		s.MaxShiftsPerDay = DefaultMaxShiftsPerDay
	}
	return s
}

// lateInGrace resolves the grace for late-in penalties. Precedence:
// global override, then the shift's own grace, then the default.
func (s Settings) lateInGrace(shiftGrace *int) int {
	if s.LateInGraceMinutes != nil {
		return *s.LateInGraceMinutes
	}
	if shiftGrace != nil {
		return *shiftGrace
	}
	return DefaultGraceMinutes
}

// earlyOutGrace resolves the grace for early-out penalties with the same
// precedence chain as lateInGrace.
func (s Settings) earlyOutGrace(shiftGrace *int) int {
	if s.EarlyOutGraceMinutes != nil {
		return *s.EarlyOutGraceMinutes
	}
	if shiftGrace != nil {
		return *shiftGrace
	}
	return DefaultGraceMinutes
}

// duplicateInGrace resolves the grace window used when a repeated IN
// punch lands just after a shift's end.
func (s Settings) duplicateInGrace(shiftGrace *int) int {
	if s.DuplicateInGraceMinutes != nil {
		return *s.DuplicateInGraceMinutes
	}
	if shiftGrace != nil {
		return *shiftGrace
	}
	return DefaultGraceMinutes
}
