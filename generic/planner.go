/*
planner.go - Recurrence date projection

PURPOSE:

	Projects a seed leave interval forward by its cadence, landing every
	occurrence on a stretch of time where the employee actually works at
	least as many hours as the seed covered. "Every workday" therefore means
	every day the employee works, not every calendar day.

THE SEARCH (NextInterval):

 1. reference = working hours of the interval, raw schedule capacity

 2. reference == 0 -> nothing to advance past, return the interval as is

 3. shift both ends by k*step calendar days (k = 1, 2, ...) in the
    employee's timezone; candidate = working hours net of closures

 4. stop at the first k with candidate > 0 and reference <= candidate

 5. give up after MaxSearchIterations shifts with CalendarExhaustedError

    Example, workday cadence, Mon-Fri calendar, seed Friday 08:00-16:00:
    Sat -> 0h (skip), Sun -> 0h (skip), Mon -> 8h (accept)

THE SEQUENCE (Plan):

	Plan returns a lazy, finite, restartable sequence. Each occurrence is
	derived from the previous one (chained), never re-derived from the seed:

	  seed ──▶ next(seed) ──▶ next(next(seed)) ──▶ ...

	RepeatTimes stops after Count occurrences. RepeatUntilDate keeps going
	while the previous occurrence still ends on or before the end date, so
	the last occurrence may end after it.

TIMEZONES:

	All arithmetic happens in WorkCalendar.Location(). Results are returned
	in UTC, the zone the Leave Store persists in.

SEE ALSO:
  - cadence.go: Step and span table
  - calendar.go: WorkCalendar interface
  - timeoff/materializer.go: Persists the planned sequence
*/
package generic

import (
	"context"
	"fmt"
	"iter"
)

// MaxSearchIterations bounds the shifts NextInterval tries before giving up.
const MaxSearchIterations = 400

// =============================================================================
// NEXT INTERVAL
// =============================================================================

// NextInterval returns the next occurrence of iv, stepDays calendar days at a
// time, on which cal schedules at least as many working hours as iv itself.
func NextInterval(ctx context.Context, cal WorkCalendar, iv Interval, stepDays int) (Interval, error) {
	if stepDays < 1 {
		return Interval{}, fmt.Errorf("%w: step of %d days", ErrUnknownCadence, stepDays)
	}

	base := iv.In(cal.Location())
	reference, err := cal.WorkingHours(ctx, base.Start, base.End, false)
	if err != nil {
		return Interval{}, fmt.Errorf("reference working hours: %w", err)
	}
	if !reference.IsPositive() {
		return iv.UTC(), nil
	}

	for k := 1; k <= MaxSearchIterations; k++ {
		if err := ctx.Err(); err != nil {
			return Interval{}, err
		}

		// Always shift from the base so DST normalization never accumulates.
		candidate := base.AddDays(k * stepDays)
		hours, err := cal.WorkingHours(ctx, candidate.Start, candidate.End, true)
		if err != nil {
			return Interval{}, fmt.Errorf("candidate working hours: %w", err)
		}
		if hours.IsPositive() && reference.LessThanOrEqual(hours) {
			return candidate.UTC(), nil
		}
	}

	return Interval{}, &CalendarExhaustedError{
		CalendarID: cal.ID(),
		From:       iv.UTC(),
		StepDays:   stepDays,
		Iterations: MaxSearchIterations,
	}
}

// =============================================================================
// PLAN
// =============================================================================

// Plan validates the seed against spec and returns the sequence of follow-on
// intervals. Seed and spec errors are returned eagerly; calendar errors are
// yielded once and end the sequence.
func Plan(ctx context.Context, seed Interval, spec RecurrenceSpec, cal WorkCalendar) (iter.Seq2[Interval, error], error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if span := seed.SpanDays(); span > spec.Cadence.MaxSpanDays() {
		return nil, &SpanTooLongError{
			Cadence:  spec.Cadence,
			SpanDays: span,
			MaxDays:  spec.Cadence.MaxSpanDays(),
		}
	}

	step := spec.Cadence.StepDays()
	term := spec.Termination
	loc := cal.Location()

	return func(yield func(Interval, error) bool) {
		current := seed.UTC()
		for n := 0; ; n++ {
			switch term.Mode {
			case RepeatTimes:
				if n >= term.Count {
					return
				}
			case RepeatUntilDate:
				if current.EndDate(loc).After(term.EndDate) {
					return
				}
			}

			next, err := NextInterval(ctx, cal, current, step)
			if err != nil {
				yield(Interval{}, err)
				return
			}
			// A seed without working hours never moves; an end date would
			// never be reached.
			if term.Mode == RepeatUntilDate && next.Equal(current) {
				return
			}
			if !yield(next, nil) {
				return
			}
			current = next
		}
	}, nil
}

// Collect drains a planned sequence, stopping at the first error.
func Collect(seq iter.Seq2[Interval, error]) ([]Interval, error) {
	var out []Interval
	for iv, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}
