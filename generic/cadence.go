package generic

import "fmt"

// =============================================================================
// CADENCE - How often a leave repeats
// =============================================================================

// Cadence is the repetition cycle of a recurring leave. The string values
// are the keys stored on leave records.
type Cadence string

const (
	CadenceWorkday  Cadence = "workday" // every day the employee works
	CadenceWeek     Cadence = "week"    // every 7 days
	CadenceBiweek   Cadence = "biweek"  // every 14 days
	CadenceFourWeek Cadence = "month"   // every 28 days
)

type cadenceRule struct {
	stepDays int
	label    string // used in the span error message
	limit    string
}

// Fixed table: the seed span may never exceed the step.
var cadenceRules = map[Cadence]cadenceRule{
	CadenceWorkday:  {stepDays: 1, label: "based on workdays", limit: "1 day"},
	CadenceWeek:     {stepDays: 7, label: "every week", limit: "1 week"},
	CadenceBiweek:   {stepDays: 14, label: "every two weeks", limit: "2 weeks"},
	CadenceFourWeek: {stepDays: 28, label: "every four weeks", limit: "28 days"},
}

// ParseCadence maps a stored key to a Cadence.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCadence, s)
	}
	return c, nil
}

func (c Cadence) Valid() bool {
	_, ok := cadenceRules[c]
	return ok
}

// StepDays is the number of calendar days between two candidate occurrences.
func (c Cadence) StepDays() int { return cadenceRules[c].stepDays }

// MaxSpanDays is the widest seed interval the cadence accepts.
func (c Cadence) MaxSpanDays() int { return cadenceRules[c].stepDays }

// Cadences lists all supported cadences, shortest step first.
func Cadences() []Cadence {
	return []Cadence{CadenceWorkday, CadenceWeek, CadenceBiweek, CadenceFourWeek}
}

// =============================================================================
// TERMINATION - When a recurrence stops
// =============================================================================

type RepeatMode string

const (
	RepeatTimes     RepeatMode = "times" // fixed number of occurrences
	RepeatUntilDate RepeatMode = "date"  // until an end date
)

// Termination says how many occurrences follow the seed.
//
//   - RepeatTimes: Count additional occurrences (Count >= 0)
//   - RepeatUntilDate: keep generating while the last occurrence ends on or
//     before EndDate
type Termination struct {
	Mode    RepeatMode
	Count   int
	EndDate TimePoint
}

func CountTermination(n int) Termination {
	return Termination{Mode: RepeatTimes, Count: n}
}

func EndDateTermination(d TimePoint) Termination {
	return Termination{Mode: RepeatUntilDate, EndDate: TimePoint{Time: d.Time, Granularity: GranularityDay}}
}

// RecurrenceSpec is the cadence plus termination of one seed leave.
type RecurrenceSpec struct {
	Cadence     Cadence
	Termination Termination
}

// Validate checks the recurrence settings that do not depend on the seed.
func (s RecurrenceSpec) Validate() error {
	if !s.Cadence.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCadence, s.Cadence)
	}
	switch s.Termination.Mode {
	case RepeatTimes:
		if s.Termination.Count < 0 {
			return ErrNegativeRepeatCount
		}
	case RepeatUntilDate:
		if s.Termination.EndDate.IsZero() {
			return fmt.Errorf("%w: missing end date", ErrUnknownRepeatMode)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRepeatMode, s.Termination.Mode)
	}
	return nil
}
