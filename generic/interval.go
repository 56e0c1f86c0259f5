package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// INTERVAL - The leave interval every occurrence is built from
// =============================================================================

// Interval is a leave interval [Start, End). It is a value: shifting or
// converting an interval always returns a new one.
//
// Examples:
//   - One working day: 2016-12-05 08:00 - 2016-12-05 16:00 (Europe/Amsterdam)
//   - A week off:      2025-03-10 00:00 - 2025-03-15 00:00
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates End > Start.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate returns ErrInvalidInterval unless End is strictly after Start.
func (iv Interval) Validate() error {
	if !iv.End.After(iv.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, iv)
	}
	return nil
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// SpanDays returns the number of whole 24h days covered by the interval.
// A leave from Monday 08:00 to Wednesday 16:00 spans 2 days.
func (iv Interval) SpanDays() int {
	return int(iv.Duration() / (24 * time.Hour))
}

// In returns the interval expressed in loc.
func (iv Interval) In(loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc)}
}

// UTC returns the interval in the canonical storage zone.
func (iv Interval) UTC() Interval {
	return Interval{Start: iv.Start.UTC(), End: iv.End.UTC()}
}

// AddDays shifts both ends by n calendar days in the interval's own zone.
// Wall-clock times are kept across DST changes.
func (iv Interval) AddDays(n int) Interval {
	return Interval{Start: iv.Start.AddDate(0, 0, n), End: iv.End.AddDate(0, 0, n)}
}

// Equal compares instants, ignoring the zone.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// Overlap returns the part of iv inside other, and false when they are disjoint.
func (iv Interval) Overlap(other Interval) (Interval, bool) {
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// StartDate returns the civil start date in loc.
func (iv Interval) StartDate(loc *time.Location) TimePoint { return DateOf(iv.Start, loc) }

// EndDate returns the civil end date in loc.
func (iv Interval) EndDate(loc *time.Location) TimePoint { return DateOf(iv.End, loc) }

// Days returns every civil date touched by the interval, in loc.
func (iv Interval) Days(loc *time.Location) []TimePoint {
	var days []TimePoint
	current := iv.StartDate(loc)
	last := iv.EndDate(loc)
	for current.BeforeOrEqual(last) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// String returns a string representation of the interval.
func (iv Interval) String() string {
	return "[" + iv.Start.Format(time.RFC3339) + ", " + iv.End.Format(time.RFC3339) + ")"
}
