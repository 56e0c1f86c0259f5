// Package timeoff implements recurring leave generation on top of the
// generic recurrence engine: concrete work calendars, the materializer that
// turns a seed leave into follow-on leaves, and the service that creates
// leaves in batches.
package timeoff

import (
	"time"

	"github.com/warp/leave-recurrence/generic"
)

// =============================================================================
// HOLIDAY TYPE
// =============================================================================

// HolidayType says who a leave record is for. Only individual leaves repeat;
// company and department records are pre-aggregated group records.
type HolidayType string

const (
	HolidayTypeEmployee   HolidayType = "employee"
	HolidayTypeCompany    HolidayType = "company"
	HolidayTypeDepartment HolidayType = "department"
)

// Employee is the part of an employee record the engine needs.
type Employee struct {
	ID         generic.EmployeeID
	Name       string
	Email      string
	CalendarID generic.CalendarID // empty = no work calendar assigned
	CreatedAt  time.Time
}

// NewLeave builds an individual leave for the given employees.
// MultiEmployee is set when more than one employee is attached.
func NewLeave(start, end time.Time, employees ...generic.EmployeeID) generic.Leave {
	return generic.Leave{
		EmployeeIDs:   employees,
		Start:         start,
		End:           end,
		HolidayType:   string(HolidayTypeEmployee),
		MultiEmployee: len(employees) > 1,
	}
}

// RepeatTimes makes leave recur limit times in total, seed included.
func RepeatTimes(leave generic.Leave, every generic.Cadence, limit int) generic.Leave {
	leave.Repeat = generic.RepeatSettings{Every: every, Mode: generic.RepeatTimes, Limit: limit}
	return leave
}

// RepeatUntil makes leave recur until the last occurrence ends after endDate.
func RepeatUntil(leave generic.Leave, every generic.Cadence, endDate generic.TimePoint) generic.Leave {
	leave.Repeat = generic.RepeatSettings{Every: every, Mode: generic.RepeatUntilDate, EndDate: endDate}
	return leave
}
