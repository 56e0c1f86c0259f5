/*
presets.go - Pre-built work calendars

PURPOSE:

	Ready-to-use calendars for common attendance patterns. These are
	starting points for tests, demo scenarios and new companies.

AVAILABLE CALENDARS:

	FullWeekCalendar:         Every day of the week, 08:00-16:00
	StandardWorkweekCalendar: Monday-Friday, 08:00-12:00 and 13:00-17:00
	PartTimeCalendar:         Monday, Tuesday, Thursday, 09:00-15:30

EXAMPLE:

	cal := timeoff.StandardWorkweekCalendar("std-40", amsterdam)
	cal.CloseDay(generic.NewTimePoint(2025, time.December, 25), "Christmas")

SEE ALSO:
  - calendar.go: ResourceCalendar
  - factory/calendar.go: JSON-based calendar creation
*/
package timeoff

import (
	"time"

	"github.com/warp/leave-recurrence/generic"
)

// FullWeekCalendar works 08:00-16:00 on all seven days.
func FullWeekCalendar(id generic.CalendarID, loc *time.Location) *ResourceCalendar {
	cal := &ResourceCalendar{CalendarID: id, Name: "Full week", Zone: loc}
	for d := time.Sunday; d <= time.Saturday; d++ {
		cal.Attendances = append(cal.Attendances, Attendance{DayOfWeek: d, HourFrom: 8, HourTo: 16})
	}
	return cal
}

// StandardWorkweekCalendar is a 40 hour Monday to Friday week with a lunch break.
func StandardWorkweekCalendar(id generic.CalendarID, loc *time.Location) *ResourceCalendar {
	cal := &ResourceCalendar{CalendarID: id, Name: "Standard 40 hours/week", Zone: loc}
	for d := time.Monday; d <= time.Friday; d++ {
		cal.Attendances = append(cal.Attendances,
			Attendance{DayOfWeek: d, HourFrom: 8, HourTo: 12},
			Attendance{DayOfWeek: d, HourFrom: 13, HourTo: 17},
		)
	}
	return cal
}

// PartTimeCalendar works three days a week.
func PartTimeCalendar(id generic.CalendarID, loc *time.Location) *ResourceCalendar {
	cal := &ResourceCalendar{CalendarID: id, Name: "Part time 19.5 hours/week", Zone: loc}
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Thursday} {
		cal.Attendances = append(cal.Attendances, Attendance{DayOfWeek: d, HourFrom: 9, HourTo: 15.5})
	}
	return cal
}
