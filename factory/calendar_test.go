package factory

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/timeoff"
)

const amsterdamJSON = `{
  "id": "ams-40",
  "name": "Amsterdam office",
  "timezone": "Europe/Amsterdam",
  "attendances": [
    {"day_of_week": "monday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "monday", "hour_from": 13, "hour_to": 17},
    {"day_of_week": "Tue", "hour_from": 8.5, "hour_to": 16.5}
  ],
  "closures": [
    {"start": "2019-03-05", "reason": "Carnival"},
    {"start": "2019-03-11T13:00:00+01:00", "end": "2019-03-11T17:00:00+01:00", "reason": "Training"}
  ]
}`

func TestParseCalendar(t *testing.T) {
	f := NewCalendarFactory()

	cal, err := f.ParseCalendar(amsterdamJSON)
	require.NoError(t, err)

	assert.Equal(t, generic.CalendarID("ams-40"), cal.ID())
	assert.Equal(t, "Europe/Amsterdam", cal.Location().String())
	require.Len(t, cal.Attendances, 3)
	assert.Equal(t, time.Tuesday, cal.Attendances[2].DayOfWeek)
	assert.Equal(t, "16", cal.WeeklyHours().Value.String())

	require.Len(t, cal.Closures, 2)
	carnival := cal.Closures[0]
	assert.Equal(t, 24*time.Hour, carnival.End.Sub(carnival.Start))
	assert.Equal(t, 0, carnival.Start.In(cal.Location()).Hour())

	ctx := context.Background()
	mon := time.Date(2019, time.March, 11, 0, 0, 0, 0, cal.Location())
	h, err := cal.WorkingHours(ctx, mon, mon.AddDate(0, 0, 1), true)
	require.NoError(t, err)
	assert.Equal(t, "4", h.Value.String(), "afternoon training removed")
}

func TestParseCalendar_Errors(t *testing.T) {
	f := NewCalendarFactory()
	tests := []struct {
		name string
		json string
		want string
	}{
		{"malformed", `{"id":`, "invalid JSON"},
		{"missing id", `{"attendances":[]}`, "ID is required"},
		{"bad timezone", `{"id":"x","timezone":"Mars/Olympus"}`, "unknown timezone"},
		{"bad weekday", `{"id":"x","attendances":[{"day_of_week":"funday","hour_from":8,"hour_to":9}]}`, "unknown day"},
		{"inverted slot", `{"id":"x","attendances":[{"day_of_week":"monday","hour_from":9,"hour_to":8}]}`, "invalid attendance"},
		{"bad closure", `{"id":"x","closures":[{"start":"soon"}]}`, "closure start"},
		{"instant without end", `{"id":"x","closures":[{"start":"2019-03-11T13:00:00Z"}]}`, "needs an end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseCalendar(tt.json)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCalendarJSON_RoundTripsPreset(t *testing.T) {
	f := NewCalendarFactory()
	preset := timeoff.StandardWorkweekCalendar("std-40", time.UTC)
	preset.CloseDay(generic.NewTimePoint(2025, time.December, 25), "Christmas")

	encoded, err := f.MarshalCalendar(preset)
	require.NoError(t, err)

	back, err := f.ParseCalendar(encoded)
	require.NoError(t, err)
	assert.Equal(t, preset.WeeklyHours().Value.String(), back.WeeklyHours().Value.String())
	assert.Equal(t, preset.Attendances, back.Attendances)
	require.Len(t, back.Closures, 1)
	assert.True(t, preset.Closures[0].Start.Equal(back.Closures[0].Start))
}
