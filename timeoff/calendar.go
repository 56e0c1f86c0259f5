/*
calendar.go - Attendance-based work calendar

PURPOSE:

	ResourceCalendar is the concrete generic.WorkCalendar: a weekly pattern
	of attendance slots in the employee's timezone, plus closures (public
	holidays, company shutdowns) that remove working time.

WORKING HOURS:

	For a window [start, end) the calendar walks every local day touched by
	the window and sums the overlap with that weekday's attendance slots:

	  Mon 08:00-12:00, 13:00-17:00, window Mon 10:00 - Mon 15:00
	    -> (12:00-10:00) + (15:00-13:00) = 4h

	With includeAbsences the overlap with closures is subtracted as well.
	Closures are merged first so overlapping closures never count twice.

PRECISION:

	Hours are computed from whole seconds and returned as decimals, so a
	7.6h day compares exactly against another 7.6h day.

SEE ALSO:
  - generic/calendar.go: WorkCalendar interface
  - presets.go: Ready-made calendars
  - factory/calendar.go: JSON calendar definitions
*/
package timeoff

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-recurrence/generic"
)

// Attendance is one working slot on a weekday, in fractional local hours.
// HourTo may be 24 to run until midnight.
type Attendance struct {
	DayOfWeek time.Weekday
	HourFrom  float64
	HourTo    float64
}

// On returns the slot on the given local day.
func (a Attendance) On(day time.Time) generic.Interval {
	loc := day.Location()
	return generic.Interval{
		Start: time.Date(day.Year(), day.Month(), day.Day(), 0, hourToMinutes(a.HourFrom), 0, 0, loc),
		End:   time.Date(day.Year(), day.Month(), day.Day(), 0, hourToMinutes(a.HourTo), 0, 0, loc),
	}
}

// Hours returns the slot length.
func (a Attendance) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(hourToMinutes(a.HourTo) - hourToMinutes(a.HourFrom))).Div(decimal.NewFromInt(60))
}

func hourToMinutes(h float64) int {
	return int(math.Round(h * 60))
}

// Closure removes working time from a calendar.
type Closure struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// ResourceCalendar is a weekly attendance pattern with closures.
type ResourceCalendar struct {
	CalendarID  generic.CalendarID
	Name        string
	Zone        *time.Location
	Attendances []Attendance
	Closures    []Closure
}

var _ generic.WorkCalendar = (*ResourceCalendar)(nil)

func (c *ResourceCalendar) ID() generic.CalendarID { return c.CalendarID }

func (c *ResourceCalendar) Location() *time.Location {
	if c.Zone == nil {
		return time.UTC
	}
	return c.Zone
}

// CloseDay adds a full-day closure for a local civil date.
func (c *ResourceCalendar) CloseDay(date generic.TimePoint, reason string) {
	loc := c.Location()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	c.Closures = append(c.Closures, Closure{Start: start, End: start.AddDate(0, 0, 1), Reason: reason})
}

// Validate checks the attendance pattern: positive slots, no overlap on a day.
func (c *ResourceCalendar) Validate() error {
	byDay := make(map[time.Weekday][]Attendance)
	for _, a := range c.Attendances {
		if a.DayOfWeek < time.Sunday || a.DayOfWeek > time.Saturday {
			return fmt.Errorf("calendar %s: invalid weekday %d", c.CalendarID, a.DayOfWeek)
		}
		if a.HourFrom < 0 || a.HourTo > 24 || a.HourTo <= a.HourFrom {
			return fmt.Errorf("calendar %s: invalid attendance %s %.2f-%.2f", c.CalendarID, a.DayOfWeek, a.HourFrom, a.HourTo)
		}
		byDay[a.DayOfWeek] = append(byDay[a.DayOfWeek], a)
	}
	for day, slots := range byDay {
		sort.Slice(slots, func(i, j int) bool { return slots[i].HourFrom < slots[j].HourFrom })
		for i := 1; i < len(slots); i++ {
			if slots[i].HourFrom < slots[i-1].HourTo {
				return fmt.Errorf("calendar %s: overlapping attendances on %s", c.CalendarID, day)
			}
		}
	}
	for _, cl := range c.Closures {
		if !cl.End.After(cl.Start) {
			return fmt.Errorf("calendar %s: closure %q ends before it starts", c.CalendarID, cl.Reason)
		}
	}
	return nil
}

// WeeklyHours returns the raw scheduled hours of one week.
func (c *ResourceCalendar) WeeklyHours() generic.Amount {
	total := decimal.Zero
	for _, a := range c.Attendances {
		total = total.Add(a.Hours())
	}
	return generic.Hours(total)
}

// WorkingHours implements generic.WorkCalendar.
func (c *ResourceCalendar) WorkingHours(ctx context.Context, start, end time.Time, includeAbsences bool) (generic.Amount, error) {
	zero := generic.Hours(decimal.Zero)
	if !end.After(start) {
		return zero, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	loc := c.Location()
	window := generic.Interval{Start: start, End: end}

	var closures []generic.Interval
	if includeAbsences {
		closures = c.closuresWithin(window)
	}

	var worked time.Duration
	first := start.In(loc)
	for day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc); day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, a := range c.Attendances {
			if a.DayOfWeek != day.Weekday() {
				continue
			}
			slot, ok := a.On(day).Overlap(window)
			if !ok {
				continue
			}
			worked += slot.Duration()
			for _, cl := range closures {
				if off, ok := slot.Overlap(cl); ok {
					worked -= off.Duration()
				}
			}
		}
	}

	seconds := decimal.NewFromInt(int64(worked / time.Second))
	return generic.Hours(seconds.Div(decimal.NewFromInt(3600))), nil
}

// closuresWithin returns the merged closures overlapping window.
func (c *ResourceCalendar) closuresWithin(window generic.Interval) []generic.Interval {
	var hits []generic.Interval
	for _, cl := range c.Closures {
		if ov, ok := (generic.Interval{Start: cl.Start, End: cl.End}).Overlap(window); ok {
			hits = append(hits, ov)
		}
	}
	if len(hits) < 2 {
		return hits
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Start.Before(hits[j].Start) })
	merged := []generic.Interval{hits[0]}
	for _, iv := range hits[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
