/*
Package factory provides JSON to Go work calendar conversion.

PURPOSE:

	Converts JSON calendar definitions into timeoff.ResourceCalendar objects.
	HR can define attendance patterns and closures in JSON (admin UI, the
	calendars table, demo scenarios) and the factory builds validated
	calendars the recurrence planner can use.

JSON SCHEMA:

	{
	  "id": "std-40",
	  "name": "Standard 40 hours/week",
	  "timezone": "Europe/Amsterdam",
	  "attendances": [
	    {"day_of_week": "monday", "hour_from": 8, "hour_to": 12},
	    {"day_of_week": "monday", "hour_from": 13, "hour_to": 17}
	  ],
	  "closures": [
	    {"start": "2025-12-25", "end": "2025-12-26", "reason": "Christmas"},
	    {"start": "2025-06-02T13:00:00+02:00", "end": "2025-06-02T17:00:00+02:00"}
	  ]
	}

	Closure bounds are either RFC 3339 instants or YYYY-MM-DD civil dates.
	A civil date means local midnight in the calendar's timezone, and a
	closure given only by "start" date covers that whole day.

USAGE:

	f := factory.NewCalendarFactory()
	cal, err := f.ParseCalendar(jsonString)

SEE ALSO:
  - timeoff/calendar.go: ResourceCalendar
  - timeoff/presets.go: Go-based calendars
  - store/sqlite: Stores calendars as JSON
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/timeoff"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CalendarJSON is the JSON representation of a work calendar.
type CalendarJSON struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Timezone    string           `json:"timezone,omitempty"` // IANA name, default UTC
	Attendances []AttendanceJSON `json:"attendances"`
	Closures    []ClosureJSON    `json:"closures,omitempty"`
}

// AttendanceJSON is one weekly working slot.
type AttendanceJSON struct {
	DayOfWeek string  `json:"day_of_week"` // monday..sunday
	HourFrom  float64 `json:"hour_from"`
	HourTo    float64 `json:"hour_to"`
}

// ClosureJSON removes working time.
type ClosureJSON struct {
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// CalendarFactory creates calendars from JSON.
type CalendarFactory struct{}

func NewCalendarFactory() *CalendarFactory {
	return &CalendarFactory{}
}

// ParseCalendar parses a JSON string into a validated calendar.
func (f *CalendarFactory) ParseCalendar(jsonStr string) (*timeoff.ResourceCalendar, error) {
	var cj CalendarJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts a CalendarJSON to a ResourceCalendar.
func (f *CalendarFactory) FromJSON(cj CalendarJSON) (*timeoff.ResourceCalendar, error) {
	if cj.ID == "" {
		return nil, fmt.Errorf("calendar ID is required")
	}

	loc := time.UTC
	if cj.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cj.Timezone)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: unknown timezone %q: %w", cj.ID, cj.Timezone, err)
		}
	}

	cal := &timeoff.ResourceCalendar{
		CalendarID: generic.CalendarID(cj.ID),
		Name:       cj.Name,
		Zone:       loc,
	}
	if cal.Name == "" {
		cal.Name = cj.ID
	}

	for _, aj := range cj.Attendances {
		day, err := parseWeekday(aj.DayOfWeek)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		cal.Attendances = append(cal.Attendances, timeoff.Attendance{
			DayOfWeek: day,
			HourFrom:  aj.HourFrom,
			HourTo:    aj.HourTo,
		})
	}

	for _, clj := range cj.Closures {
		cl, err := parseClosure(clj, loc)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		cal.Closures = append(cal.Closures, cl)
	}

	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

// ToJSON converts a calendar back to its JSON representation.
func (f *CalendarFactory) ToJSON(cal *timeoff.ResourceCalendar) CalendarJSON {
	cj := CalendarJSON{
		ID:       string(cal.CalendarID),
		Name:     cal.Name,
		Timezone: cal.Location().String(),
	}
	for _, a := range cal.Attendances {
		cj.Attendances = append(cj.Attendances, AttendanceJSON{
			DayOfWeek: strings.ToLower(a.DayOfWeek.String()),
			HourFrom:  a.HourFrom,
			HourTo:    a.HourTo,
		})
	}
	for _, cl := range cal.Closures {
		cj.Closures = append(cj.Closures, ClosureJSON{
			Start:  cl.Start.Format(time.RFC3339),
			End:    cl.End.Format(time.RFC3339),
			Reason: cl.Reason,
		})
	}
	return cj
}

// MarshalCalendar is ToJSON encoded as a string.
func (f *CalendarFactory) MarshalCalendar(cal *timeoff.ResourceCalendar) (string, error) {
	b, err := json.Marshal(f.ToJSON(cal))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

func parseClosure(cj ClosureJSON, loc *time.Location) (timeoff.Closure, error) {
	start, wholeDay, err := parseBound(cj.Start, loc)
	if err != nil {
		return timeoff.Closure{}, fmt.Errorf("closure start: %w", err)
	}

	var end time.Time
	switch {
	case cj.End != "":
		end, _, err = parseBound(cj.End, loc)
		if err != nil {
			return timeoff.Closure{}, fmt.Errorf("closure end: %w", err)
		}
	case wholeDay:
		end = start.AddDate(0, 0, 1)
	default:
		return timeoff.Closure{}, fmt.Errorf("closure %q needs an end", cj.Reason)
	}

	return timeoff.Closure{Start: start, End: end, Reason: cj.Reason}, nil
}

// parseBound accepts an RFC 3339 instant or a civil date at local midnight.
func parseBound(s string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return d, true, nil
}
