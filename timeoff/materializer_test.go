package timeoff_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/generic/store"
	"github.com/warp/leave-recurrence/timeoff"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	store *store.TxMemory
	dir   *store.Directory
	mat   *timeoff.Materializer
	svc   *timeoff.LeaveService
}

// newFixture puts emp-1 and emp-2 on a standard workweek, emp-3 on a full
// week, and emp-4 on no calendar. The clock reads 2016-12-01.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewTxMemory()
	dir := store.NewDirectory()
	dir.AddCalendar(timeoff.StandardWorkweekCalendar("std-40", time.UTC))
	dir.AddCalendar(timeoff.FullWeekCalendar("full-week", time.UTC))
	dir.Assign("emp-1", "std-40")
	dir.Assign("emp-2", "std-40")
	dir.Assign("emp-3", "full-week")
	dir.Assign("emp-4", "")

	mat := &timeoff.Materializer{
		Store:     st,
		Directory: dir,
		Now:       clock(2016, time.December, 1),
	}
	return &fixture{
		store: st,
		dir:   dir,
		mat:   mat,
		svc:   &timeoff.LeaveService{Store: st, Materializer: mat},
	}
}

func clock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 12, 0, 0, 0, time.UTC) }
}

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

// officeDay is 08:00-17:00 UTC on the given day.
func officeDay(year int, month time.Month, day int, employees ...generic.EmployeeID) generic.Leave {
	return timeoff.NewLeave(
		time.Date(year, month, day, 8, 0, 0, 0, time.UTC),
		time.Date(year, month, day, 17, 0, 0, 0, time.UTC),
		employees...,
	)
}

func startDates(leaves []generic.Leave) []string {
	out := make([]string, len(leaves))
	for i, l := range leaves {
		out[i] = l.Start.Format(time.DateOnly)
	}
	return out
}

func intervalDates(ivs []generic.Interval) []string {
	out := make([]string, len(ivs))
	for i, iv := range ivs {
		out[i] = iv.Start.Format(time.DateOnly)
	}
	return out
}

func allLeaves(t *testing.T, st generic.LeaveStore) []generic.Leave {
	t.Helper()
	leaves, err := st.List(context.Background(), generic.LeaveFilter{})
	require.NoError(t, err)
	return leaves
}

// =============================================================================
// GATE AND CONSTRAINTS
// =============================================================================

func TestShouldRepeat(t *testing.T) {
	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 5)
	assert.True(t, timeoff.ShouldRepeat(seed))

	company := seed
	company.HolidayType = string(timeoff.HolidayTypeCompany)
	assert.False(t, timeoff.ShouldRepeat(company))

	generated := seed
	generated.SystemGenerated = true
	assert.False(t, timeoff.ShouldRepeat(generated))

	assert.False(t, timeoff.ShouldRepeat(officeDay(2016, time.December, 5, "emp-1")))

	noCadence := seed
	noCadence.Repeat.Every = ""
	assert.False(t, timeoff.ShouldRepeat(noCadence))
}

func TestCheckConstraints(t *testing.T) {
	today := date(2019, time.March, 19)
	base := officeDay(2019, time.March, 4, "emp-1")

	tests := []struct {
		name  string
		leave generic.Leave
		want  error
	}{
		{"no repetition", base, nil},
		{"zero count", timeoff.RepeatTimes(base, generic.CadenceWeek, 0), nil},
		{"negative count", timeoff.RepeatTimes(base, generic.CadenceWeek, -1), generic.ErrNegativeRepeatCount},
		{"end date today", timeoff.RepeatUntil(base, generic.CadenceWeek, today), nil},
		{"end date in the past", timeoff.RepeatUntil(base, generic.CadenceWeek, date(2019, time.March, 18)), generic.ErrPastEndDate},
		{"missing end date", timeoff.RepeatUntil(base, generic.CadenceWeek, generic.TimePoint{}), generic.ErrUnknownRepeatMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := timeoff.CheckConstraints(tt.leave, today)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpecFor_LimitCountsSeed(t *testing.T) {
	spec := timeoff.SpecFor(generic.RepeatSettings{Every: generic.CadenceWeek, Mode: generic.RepeatTimes, Limit: 5})
	assert.Equal(t, 4, spec.Termination.Count)

	spec = timeoff.SpecFor(generic.RepeatSettings{Every: generic.CadenceWeek, Mode: generic.RepeatTimes, Limit: 0})
	assert.Equal(t, 0, spec.Termination.Count)

	end := date(2019, time.March, 18)
	spec = timeoff.SpecFor(generic.RepeatSettings{Every: generic.CadenceWorkday, Mode: generic.RepeatUntilDate, EndDate: end})
	assert.Equal(t, generic.RepeatUntilDate, spec.Termination.Mode)
	assert.True(t, spec.Termination.EndDate.Equal(end))
}

// =============================================================================
// CALENDAR RESOLUTION
// =============================================================================

func TestResolveCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cal, err := f.mat.ResolveCalendar(ctx, []generic.EmployeeID{"emp-1", "emp-2"})
	require.NoError(t, err)
	assert.Equal(t, generic.CalendarID("std-40"), cal.ID())

	cal, err = f.mat.ResolveCalendar(ctx, []generic.EmployeeID{"emp-4", "emp-3"})
	require.NoError(t, err)
	assert.Equal(t, generic.CalendarID("full-week"), cal.ID(), "employees without a calendar are skipped")

	_, err = f.mat.ResolveCalendar(ctx, []generic.EmployeeID{"emp-4"})
	assert.ErrorIs(t, err, generic.ErrMissingCalendar)

	_, err = f.mat.ResolveCalendar(ctx, []generic.EmployeeID{"emp-3", "emp-1"})
	var mixed *generic.MixedCalendarsError
	require.ErrorAs(t, err, &mixed)
	assert.Equal(t, []generic.CalendarID{"full-week", "std-40"}, mixed.CalendarIDs)
	assert.ErrorIs(t, err, generic.ErrMixedCalendars)

	_, err = f.mat.ResolveCalendar(ctx, []generic.EmployeeID{"ghost"})
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

// =============================================================================
// SUBMIT
// =============================================================================

func submitSeed(t *testing.T, f *fixture, seed generic.Leave) ([]generic.LeaveID, error) {
	t.Helper()
	ctx := context.Background()
	id, err := f.store.Create(ctx, seed)
	require.NoError(t, err)
	seed.ID = id
	return f.mat.Submit(ctx, seed)
}

func TestSubmit_FiveTimesOnWorkdays(t *testing.T) {
	// GIVEN: Monday 2016-12-05, repeat on workdays 5 times
	// THEN: Leaves Monday through Friday
	f := newFixture(t)
	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 5)

	ids, err := submitSeed(t, f, seed)
	require.NoError(t, err)
	require.Len(t, ids, 5)

	leaves := allLeaves(t, f.store)
	assert.Equal(t, []string{"2016-12-05", "2016-12-06", "2016-12-07", "2016-12-08", "2016-12-09"}, startDates(leaves))

	for _, l := range leaves[1:] {
		assert.True(t, l.SystemGenerated)
		assert.Equal(t, ids[0], l.SeedID)
		assert.Equal(t, 17, l.End.Hour())
		assert.Equal(t, []generic.EmployeeID{"emp-1"}, l.EmployeeIDs)
	}
	assert.False(t, leaves[0].SystemGenerated)
}

func TestSubmit_SkipsWeekend(t *testing.T) {
	// GIVEN: Friday 2019-03-01 on a Monday-Friday calendar
	// THEN: The next leaves fall on Monday and Tuesday
	f := newFixture(t)
	f.mat.Now = clock(2019, time.February, 28)
	seed := timeoff.RepeatTimes(officeDay(2019, time.March, 1, "emp-1"), generic.CadenceWorkday, 3)

	_, err := submitSeed(t, f, seed)
	require.NoError(t, err)

	leaves := allLeaves(t, f.store)
	assert.Equal(t, []string{"2019-03-01", "2019-03-04", "2019-03-05"}, startDates(leaves))
	for _, l := range leaves {
		assert.NotEqual(t, time.Saturday, l.Start.Weekday())
		assert.NotEqual(t, time.Sunday, l.Start.Weekday())
	}
}

func TestSubmit_UntilEndDate(t *testing.T) {
	// Occurrences are added while the previous one ends on or before the
	// end date, so the last one may end after it.
	f := newFixture(t)
	f.mat.Now = clock(2019, time.March, 1)
	seed := timeoff.RepeatUntil(officeDay(2019, time.March, 4, "emp-1"), generic.CadenceWorkday, date(2019, time.March, 8))

	ids, err := submitSeed(t, f, seed)
	require.NoError(t, err)
	assert.Len(t, ids, 6)
	assert.Equal(t,
		[]string{"2019-03-04", "2019-03-05", "2019-03-06", "2019-03-07", "2019-03-08", "2019-03-11"},
		startDates(allLeaves(t, f.store)))
}

func TestSubmit_PastEndDate(t *testing.T) {
	f := newFixture(t)
	f.mat.Now = clock(2019, time.March, 19)
	seed := timeoff.RepeatUntil(officeDay(2019, time.March, 4, "emp-1"), generic.CadenceWeek, date(2019, time.March, 18))

	_, err := submitSeed(t, f, seed)
	assert.ErrorIs(t, err, generic.ErrPastEndDate)
	assert.Len(t, allLeaves(t, f.store), 1, "only the seed written by the test")
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name string
		seed generic.Leave
		want error
	}{
		{
			name: "mixed calendars",
			seed: timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1", "emp-3"), generic.CadenceWeek, 3),
			want: generic.ErrMixedCalendars,
		},
		{
			name: "missing calendar",
			seed: timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-4"), generic.CadenceWeek, 3),
			want: generic.ErrMissingCalendar,
		},
		{
			name: "negative count",
			seed: timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWeek, -2),
			want: generic.ErrNegativeRepeatCount,
		},
		{
			name: "span too long",
			seed: timeoff.RepeatTimes(timeoff.NewLeave(
				time.Date(2016, time.December, 5, 8, 0, 0, 0, time.UTC),
				time.Date(2016, time.December, 7, 17, 0, 0, 0, time.UTC),
				"emp-1"), generic.CadenceWorkday, 3),
			want: generic.ErrSpanTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := submitSeed(t, f, tt.seed)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, generic.IsClientError(err))
			assert.Len(t, allLeaves(t, f.store), 1)
		})
	}
}

func TestSubmit_MultiEmployee(t *testing.T) {
	f := newFixture(t)
	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1", "emp-2"), generic.CadenceWeek, 5)
	require.True(t, seed.MultiEmployee)

	ids, err := submitSeed(t, f, seed)
	require.NoError(t, err)
	require.Len(t, ids, 5)

	emp2 := generic.EmployeeID("emp-2")
	leaves, err := f.store.List(context.Background(), generic.LeaveFilter{EmployeeID: &emp2})
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-12-05", "2016-12-12", "2016-12-19", "2016-12-26", "2017-01-02"}, startDates(leaves))
	for _, l := range leaves {
		assert.True(t, l.MultiEmployee)
		assert.ElementsMatch(t, []generic.EmployeeID{"emp-1", "emp-2"}, l.EmployeeIDs)
	}
}

func TestSubmit_NoRepeatWhenGated(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*generic.Leave)
	}{
		{"company holiday", func(l *generic.Leave) { l.HolidayType = string(timeoff.HolidayTypeCompany) }},
		{"system generated", func(l *generic.Leave) { l.SystemGenerated = true }},
		{"no cadence", func(l *generic.Leave) { l.Repeat.Every = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 5)
			tt.mutate(&seed)

			ids, err := submitSeed(t, f, seed)
			require.NoError(t, err)
			assert.Len(t, ids, 1)
			assert.Len(t, allLeaves(t, f.store), 1)
		})
	}
}

func TestSubmit_LimitOfOneOrZeroCreatesNothing(t *testing.T) {
	for _, limit := range []int{0, 1} {
		f := newFixture(t)
		seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWeek, limit)
		ids, err := submitSeed(t, f, seed)
		require.NoError(t, err)
		assert.Len(t, ids, 1, "limit %d", limit)
	}
}

func TestSubmit_ExhaustedCalendarStoresNothing(t *testing.T) {
	f := newFixture(t)
	closed := timeoff.StandardWorkweekCalendar("closed", time.UTC)
	// Closed from the day after the seed for far longer than the search window.
	closed.Closures = []timeoff.Closure{{
		Start:  time.Date(2016, time.December, 6, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
		Reason: "closed",
	}}
	f.dir.AddCalendar(closed)
	f.dir.Assign("emp-5", "closed")

	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-5"), generic.CadenceWorkday, 3)
	_, err := submitSeed(t, f, seed)

	var exhausted *generic.CalendarExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, generic.MaxSearchIterations, exhausted.Iterations)
	assert.Len(t, allLeaves(t, f.store), 1)
}

func TestSubmit_RequiresSeedID(t *testing.T) {
	f := newFixture(t)
	_, err := f.mat.Submit(context.Background(), officeDay(2016, time.December, 5, "emp-1"))
	assert.Error(t, err)
}

func TestPlan_DoesNotTouchStore(t *testing.T) {
	f := newFixture(t)
	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceBiweek, 3)

	intervals, err := f.mat.Plan(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-12-19", "2017-01-02"}, intervalDates(intervals))
	assert.Empty(t, allLeaves(t, f.store))
}

func TestFollowOn_CopiesSeed(t *testing.T) {
	seed := timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1", "emp-2"), generic.CadenceWeek, 2)
	seed.ID = "seed-1"
	seed.Description = "Physio"
	iv := generic.Interval{
		Start: time.Date(2016, time.December, 12, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2016, time.December, 12, 17, 0, 0, 0, time.UTC),
	}

	got := timeoff.FollowOn(seed, iv)
	assert.Empty(t, got.ID)
	assert.Equal(t, generic.LeaveID("seed-1"), got.SeedID)
	assert.True(t, got.SystemGenerated)
	assert.Equal(t, "Physio", got.Description)
	assert.Equal(t, seed.Repeat, got.Repeat)
	assert.True(t, got.Start.Equal(iv.Start))

	got.EmployeeIDs[0] = "changed"
	assert.Equal(t, generic.EmployeeID("emp-1"), seed.EmployeeIDs[0])
}

func TestIsClientError_NotForStoreFailures(t *testing.T) {
	assert.False(t, generic.IsClientError(errors.New("disk full")))
}
