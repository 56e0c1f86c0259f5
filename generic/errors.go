/*
errors.go - Centralized error types for the recurrence engine

PURPOSE:

	All error types in one place for consistency and discoverability.
	Domain packages wrap these errors with additional context; the API maps
	them to HTTP status codes through the helpers at the bottom.

ERROR CATEGORIES:
 1. Input errors - The seed leave or its repeat settings are invalid
 2. Configuration errors - Employees lack a usable work calendar
 3. Store errors - Lookups of records that do not exist

USAGE:

	if errors.Is(err, generic.ErrSpanTooLong) {
	    var spanErr *generic.SpanTooLongError
	    errors.As(err, &spanErr)
	    fmt.Println(spanErr.MaxDays)
	}

SEE ALSO:
  - planner.go: Raises span and exhaustion errors
  - timeoff/materializer.go: Raises calendar and constraint errors
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSpanTooLong is returned when the seed interval is wider than the
	// cadence allows. The user must shorten the request.
	ErrSpanTooLong = errors.New("leave span exceeds cadence limit")

	// ErrMissingCalendar is returned when none of the employees on a leave
	// has a work calendar.
	ErrMissingCalendar = errors.New("no work calendar defined for employees")

	// ErrMixedCalendars is returned when the employees on one leave work on
	// different calendars.
	ErrMixedCalendars = errors.New("employees work on different calendars")

	// ErrCalendarExhausted is returned when the search for the next working
	// interval hits its iteration bound. This signals a misconfigured
	// calendar, not a normal business condition.
	ErrCalendarExhausted = errors.New("no working interval found within search bound")

	// ErrNegativeRepeatCount is returned for count-based repetition below zero.
	ErrNegativeRepeatCount = errors.New("repeat count must not be negative")

	// ErrPastEndDate is returned when a date-based repetition ends before today.
	ErrPastEndDate = errors.New("repeat end date is in the past")

	// ErrInvalidInterval is returned when an interval does not end after it starts.
	ErrInvalidInterval = errors.New("invalid interval: end not after start")

	// ErrUnknownCadence is returned for a cadence key outside the table.
	ErrUnknownCadence = errors.New("unknown cadence")

	// ErrUnknownRepeatMode is returned for a termination mode outside times/date.
	ErrUnknownRepeatMode = errors.New("unknown repeat mode")

	// ErrLeaveNotFound is returned when a referenced leave doesn't exist.
	ErrLeaveNotFound = errors.New("leave not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrNoEmployees is returned when a leave carries no employee at all.
	ErrNoEmployees = errors.New("leave has no employees")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SpanTooLongError names the cadence-specific limit that was exceeded.
type SpanTooLongError struct {
	Cadence  Cadence
	SpanDays int
	MaxDays  int
}

func (e *SpanTooLongError) Error() string {
	rule := cadenceRules[e.Cadence]
	return fmt.Sprintf("The repetition is %s: the duration of the leave request must not exceed %s.",
		rule.label, rule.limit)
}

func (e *SpanTooLongError) Unwrap() error {
	return ErrSpanTooLong
}

// MixedCalendarsError lists the distinct calendars found on one leave.
type MixedCalendarsError struct {
	CalendarIDs []CalendarID
}

func (e *MixedCalendarsError) Error() string {
	ids := make([]string, len(e.CalendarIDs))
	for i, id := range e.CalendarIDs {
		ids[i] = string(id)
	}
	return fmt.Sprintf("creating leaves for multiple employees with different work calendars is not supported (%s)",
		strings.Join(ids, ", "))
}

func (e *MixedCalendarsError) Unwrap() error {
	return ErrMixedCalendars
}

// CalendarExhaustedError carries the interval the search started from.
type CalendarExhaustedError struct {
	CalendarID CalendarID
	From       Interval
	StepDays   int
	Iterations int
}

func (e *CalendarExhaustedError) Error() string {
	return fmt.Sprintf("calendar %s: no interval with enough working hours after %d steps of %d days from %s",
		e.CalendarID, e.Iterations, e.StepDays, e.From)
}

func (e *CalendarExhaustedError) Unwrap() error {
	return ErrCalendarExhausted
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// and should be shown to the user as a rejection.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSpanTooLong) ||
		errors.Is(err, ErrMissingCalendar) ||
		errors.Is(err, ErrMixedCalendars) ||
		errors.Is(err, ErrNegativeRepeatCount) ||
		errors.Is(err, ErrPastEndDate) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrUnknownCadence) ||
		errors.Is(err, ErrUnknownRepeatMode) ||
		errors.Is(err, ErrNoEmployees)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeaveNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrCalendarNotFound)
}
