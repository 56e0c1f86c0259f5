package timeoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/generic/store"
	"github.com/warp/leave-recurrence/timeoff"
)

// failingTx fails the n-th Create inside a transaction.
type failingTx struct {
	*store.TxMemory
	failAt int
}

type countingStore struct {
	generic.LeaveStore
	calls  *int
	failAt int
}

func (c countingStore) Create(ctx context.Context, l generic.Leave) (generic.LeaveID, error) {
	*c.calls++
	if *c.calls == c.failAt {
		return "", errors.New("disk full")
	}
	return c.LeaveStore.Create(ctx, l)
}

func (f *failingTx) WithTx(ctx context.Context, fn func(generic.LeaveStore) error) error {
	calls := 0
	return f.TxMemory.WithTx(ctx, func(tx generic.LeaveStore) error {
		return fn(countingStore{LeaveStore: tx, calls: &calls, failAt: f.failAt})
	})
}

func TestLeaveService_CreateBatch(t *testing.T) {
	// GIVEN: Two repeating leaves and one plain leave in one batch
	// THEN: Every seed and follow-on is stored, results in input order
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx,
		timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 3),
		officeDay(2016, time.December, 20, "emp-2"),
		timeoff.RepeatTimes(officeDay(2016, time.December, 4, "emp-3"), generic.CadenceWeek, 2),
	)
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Len(t, created[0].FollowOnIDs, 2)
	assert.Empty(t, created[1].FollowOnIDs)
	assert.Len(t, created[2].FollowOnIDs, 1)
	assert.Len(t, created[0].IDs(), 3)

	seedID := created[0].SeedID
	series, err := f.store.List(ctx, generic.LeaveFilter{SeedID: &seedID})
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-12-05", "2016-12-06", "2016-12-07"}, startDates(series))

	assert.Len(t, allLeaves(t, f.store), 6)
}

func TestLeaveService_OneBadLeaveRejectsBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(),
		timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 3),
		timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1", "emp-3"), generic.CadenceWeek, 3),
	)
	assert.ErrorIs(t, err, generic.ErrMixedCalendars)
	assert.Empty(t, allLeaves(t, f.store))
}

func TestLeaveService_ValidatesBeforePlanning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inverted := officeDay(2016, time.December, 5, "emp-1")
	inverted.Start, inverted.End = inverted.End, inverted.Start
	_, err := f.svc.Create(ctx, inverted)
	assert.ErrorIs(t, err, generic.ErrInvalidInterval)

	_, err = f.svc.Create(ctx, officeDay(2016, time.December, 5))
	assert.ErrorIs(t, err, generic.ErrNoEmployees)

	assert.Empty(t, allLeaves(t, f.store))
}

func TestLeaveService_RollsBackOnStoreFailure(t *testing.T) {
	// GIVEN: A store that fails on the fourth write
	// THEN: None of the three earlier writes survive
	f := newFixture(t)
	tx := &failingTx{TxMemory: f.store, failAt: 4}
	svc := &timeoff.LeaveService{Store: tx, Materializer: f.mat}

	_, err := svc.Create(context.Background(),
		timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 5),
	)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, allLeaves(t, f.store))
}

func TestLeaveService_Preview(t *testing.T) {
	f := newFixture(t)
	f.mat.Now = clock(2019, time.February, 28)

	ivs, err := f.svc.Preview(context.Background(),
		timeoff.RepeatTimes(officeDay(2019, time.March, 1, "emp-1"), generic.CadenceWorkday, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-03-01", "2019-03-04", "2019-03-05"}, intervalDates(ivs))
	assert.Empty(t, allLeaves(t, f.store))

	ivs, err = f.svc.Preview(context.Background(), officeDay(2019, time.March, 1, "emp-1"))
	require.NoError(t, err)
	assert.Len(t, ivs, 1)
}

func TestLeaveService_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Create(ctx,
		timeoff.RepeatTimes(officeDay(2016, time.December, 5, "emp-1"), generic.CadenceWorkday, 3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, allLeaves(t, f.store))
}
