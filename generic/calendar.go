package generic

import (
	"context"
	"time"
)

// =============================================================================
// WORK CALENDAR - Working-hour queries consumed by the planner
// =============================================================================

// WorkCalendar reports how many hours an employee is scheduled to work.
// Implementations live in domain packages (see timeoff.ResourceCalendar).
type WorkCalendar interface {
	// ID identifies the calendar; employees sharing an ID share a schedule.
	ID() CalendarID

	// Location is the employee timezone all interval arithmetic happens in.
	Location() *time.Location

	// WorkingHours returns the scheduled hours within [start, end).
	// With includeAbsences the calendar's closures are subtracted; without
	// it the raw attendance capacity is returned.
	WorkingHours(ctx context.Context, start, end time.Time, includeAbsences bool) (Amount, error)
}

// CalendarDirectory resolves which calendar an employee works on.
type CalendarDirectory interface {
	// CalendarIDFor returns the employee's calendar ID, or "" when none is
	// assigned. Unknown employees return ErrEmployeeNotFound.
	CalendarIDFor(ctx context.Context, employeeID EmployeeID) (CalendarID, error)

	// Calendar loads a calendar by ID.
	Calendar(ctx context.Context, id CalendarID) (WorkCalendar, error)
}
