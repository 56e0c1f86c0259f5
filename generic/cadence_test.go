package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-recurrence/generic"
)

func TestCadence_Table(t *testing.T) {
	tests := []struct {
		key  string
		step int
	}{
		{"workday", 1},
		{"week", 7},
		{"biweek", 14},
		{"month", 28},
	}

	for _, tt := range tests {
		c, err := generic.ParseCadence(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.step, c.StepDays(), tt.key)
		assert.Equal(t, c.StepDays(), c.MaxSpanDays(), tt.key)
	}

	_, err := generic.ParseCadence("yearly")
	assert.ErrorIs(t, err, generic.ErrUnknownCadence)
}

func TestRecurrenceSpec_Validate(t *testing.T) {
	valid := generic.RecurrenceSpec{Cadence: generic.CadenceWeek, Termination: generic.CountTermination(0)}
	assert.NoError(t, valid.Validate())

	missingDate := generic.RecurrenceSpec{Cadence: generic.CadenceWeek, Termination: generic.Termination{Mode: generic.RepeatUntilDate}}
	assert.ErrorIs(t, missingDate.Validate(), generic.ErrUnknownRepeatMode)

	badMode := generic.RecurrenceSpec{Cadence: generic.CadenceWeek, Termination: generic.Termination{Mode: "forever"}}
	assert.ErrorIs(t, badMode.Validate(), generic.ErrUnknownRepeatMode)
}

func TestInterval_SpanDays(t *testing.T) {
	start := time.Date(2019, time.February, 18, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, generic.Interval{Start: start, End: start.Add(8 * time.Hour)}.SpanDays())
	assert.Equal(t, 1, generic.Interval{Start: start, End: start.Add(32 * time.Hour)}.SpanDays())
	assert.Equal(t, 2, generic.Interval{Start: start, End: time.Date(2019, time.February, 20, 16, 0, 0, 0, time.UTC)}.SpanDays())
}

func TestInterval_NewIntervalRejectsEmpty(t *testing.T) {
	at := time.Date(2019, time.February, 18, 8, 0, 0, 0, time.UTC)

	_, err := generic.NewInterval(at, at)
	assert.ErrorIs(t, err, generic.ErrInvalidInterval)

	iv, err := generic.NewInterval(at, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, iv.Duration())
}

func TestInterval_DaysInZone(t *testing.T) {
	// 23:00 UTC on the 4th is already the 5th in Tokyo.
	tokyo := time.FixedZone("JST", 9*3600)
	iv := generic.Interval{
		Start: time.Date(2019, time.March, 4, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2019, time.March, 5, 10, 0, 0, 0, time.UTC),
	}

	days := iv.Days(tokyo)
	require.Len(t, days, 1)
	assert.Equal(t, "2019-03-05", days[0].String())
	assert.Len(t, iv.Days(time.UTC), 2)
}

func TestTimePoint_ParseDate(t *testing.T) {
	d, err := generic.ParseDate("2019-03-18")
	require.NoError(t, err)
	assert.True(t, d.Equal(generic.NewTimePoint(2019, time.March, 18)))
	assert.True(t, d.Before(d.AddDays(1)))

	_, err = generic.ParseDate("18/03/2019")
	assert.Error(t, err)
}
