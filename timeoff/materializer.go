/*
materializer.go - Seed leave to follow-on leaves

PURPOSE:

	Turns one submitted seed leave into the full series of leave records:
	checks the repeat settings, resolves the single work calendar shared by
	every employee on the leave, plans the whole sequence, and only then asks
	the Leave Store to create the follow-on records.

FLOW:

	┌────────────────────────────────────────────────────────────────────┐
	│                                                                    │
	│  seed ──▶ gate ──▶ constraints ──▶ calendar ──▶ plan ──▶ persist   │
	│            │                          │           │                │
	│            ▼                          ▼           ▼                │
	│      (no repeat:               Missing/Mixed   SpanTooLong /       │
	│       seed only)               Calendars       CalendarExhausted   │
	│                                                                    │
	└────────────────────────────────────────────────────────────────────┘

GATE:

	A seed repeats only when it has a cadence and a mode, is an individual
	(employee) leave, and is not itself SystemGenerated. Follow-ons are
	created with SystemGenerated=true so they never expand again.

ALL-OR-NOTHING:

	Plan() computes the complete sequence before any store call. Submit()
	persists inside WithTx when the store supports it; LeaveService wraps
	the seed write and the follow-on writes in one transaction.

SEE ALSO:
  - generic/planner.go: The date projection
  - request.go: Batch creation through LeaveService
*/
package timeoff

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/logger"
)

type Materializer struct {
	Store     generic.LeaveStore
	Directory generic.CalendarDirectory

	// Zone decides what "today" is for repeat end dates. Defaults to UTC.
	Zone *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	Log *logger.Logger
}

func (m *Materializer) log() *logger.Logger {
	if m.Log == nil {
		return logger.Nop()
	}
	return m.Log
}

func (m *Materializer) today() generic.TimePoint {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return generic.DateOf(now(), m.Zone)
}

// =============================================================================
// GATE AND CONSTRAINTS
// =============================================================================

// ShouldRepeat reports whether seed expands into follow-on leaves.
func ShouldRepeat(seed generic.Leave) bool {
	return seed.Repeat.Enabled() &&
		HolidayType(seed.HolidayType) == HolidayTypeEmployee &&
		!seed.SystemGenerated
}

// CheckConstraints validates repeat settings on any leave that carries a
// repeat mode, repeating or not.
func CheckConstraints(leave generic.Leave, today generic.TimePoint) error {
	switch leave.Repeat.Mode {
	case generic.RepeatTimes:
		if leave.Repeat.Limit < 0 {
			return generic.ErrNegativeRepeatCount
		}
	case generic.RepeatUntilDate:
		if leave.Repeat.EndDate.IsZero() {
			return fmt.Errorf("%w: missing repeat end date", generic.ErrUnknownRepeatMode)
		}
		if leave.Repeat.EndDate.Before(today) {
			return fmt.Errorf("%w: %s is before %s", generic.ErrPastEndDate, leave.Repeat.EndDate, today)
		}
	case "":
	default:
		return fmt.Errorf("%w: %q", generic.ErrUnknownRepeatMode, leave.Repeat.Mode)
	}
	return nil
}

// SpecFor converts stored repeat settings into a planner spec. The stored
// limit counts the seed, the planner counts follow-ons only.
func SpecFor(r generic.RepeatSettings) generic.RecurrenceSpec {
	spec := generic.RecurrenceSpec{Cadence: r.Every}
	switch r.Mode {
	case generic.RepeatUntilDate:
		spec.Termination = generic.EndDateTermination(r.EndDate)
	case generic.RepeatTimes:
		spec.Termination = generic.CountTermination(max(r.Limit-1, 0))
	default:
		spec.Termination = generic.Termination{Mode: r.Mode}
	}
	return spec
}

// =============================================================================
// CALENDAR RESOLUTION
// =============================================================================

// ResolveCalendar returns the one calendar shared by all employees.
// Employees without a calendar are ignored as long as another one has it.
func (m *Materializer) ResolveCalendar(ctx context.Context, employees []generic.EmployeeID) (generic.WorkCalendar, error) {
	seen := make(map[generic.CalendarID]bool)
	var ids []generic.CalendarID
	for _, emp := range employees {
		id, err := m.Directory.CalendarIDFor(ctx, emp)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", emp, err)
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	switch len(ids) {
	case 0:
		return nil, generic.ErrMissingCalendar
	case 1:
		cal, err := m.Directory.Calendar(ctx, ids[0])
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", ids[0], err)
		}
		return cal, nil
	default:
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return nil, &generic.MixedCalendarsError{CalendarIDs: ids}
	}
}

// =============================================================================
// PLAN AND PERSIST
// =============================================================================

// Plan validates seed and returns every follow-on interval, without touching
// the store. A seed that does not repeat yields no intervals.
func (m *Materializer) Plan(ctx context.Context, seed generic.Leave) ([]generic.Interval, error) {
	if err := CheckConstraints(seed, m.today()); err != nil {
		return nil, err
	}
	if !ShouldRepeat(seed) {
		return nil, nil
	}
	if len(seed.EmployeeIDs) == 0 {
		return nil, generic.ErrNoEmployees
	}

	cal, err := m.ResolveCalendar(ctx, seed.EmployeeIDs)
	if err != nil {
		return nil, err
	}

	spec := SpecFor(seed.Repeat)
	seq, err := generic.Plan(ctx, seed.Interval(), spec, cal)
	if err != nil {
		return nil, err
	}
	intervals, err := generic.Collect(seq)
	if err != nil {
		return nil, err
	}

	m.log().Debug().
		Str("seed_id", string(seed.ID)).
		Str("calendar_id", string(cal.ID())).
		Str("cadence", string(spec.Cadence)).
		Str("mode", string(spec.Termination.Mode)).
		Int("occurrences", len(intervals)).
		Msg("planned recurring leave")

	return intervals, nil
}

// FollowOn builds the record for one planned occurrence of seed.
func FollowOn(seed generic.Leave, iv generic.Interval) generic.Leave {
	return generic.Leave{
		EmployeeIDs:     append([]generic.EmployeeID(nil), seed.EmployeeIDs...),
		Start:           iv.Start.UTC(),
		End:             iv.End.UTC(),
		HolidayType:     seed.HolidayType,
		MultiEmployee:   seed.MultiEmployee,
		Repeat:          seed.Repeat,
		SystemGenerated: true,
		SeedID:          seed.ID,
		Description:     seed.Description,
	}
}

// Persist creates one follow-on leave per interval in st and returns the seed
// ID followed by the new IDs.
func (m *Materializer) Persist(ctx context.Context, st generic.LeaveStore, seed generic.Leave, intervals []generic.Interval) ([]generic.LeaveID, error) {
	ids := make([]generic.LeaveID, 0, len(intervals)+1)
	ids = append(ids, seed.ID)
	for i, iv := range intervals {
		id, err := st.Create(ctx, FollowOn(seed, iv))
		if err != nil {
			return nil, fmt.Errorf("create occurrence %d of %s: %w", i+1, seed.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Submit expands an already persisted seed leave. It returns the seed ID
// followed by the IDs of all created follow-ons.
func (m *Materializer) Submit(ctx context.Context, seed generic.Leave) ([]generic.LeaveID, error) {
	if seed.ID == "" {
		return nil, fmt.Errorf("submit: seed leave has no ID")
	}

	intervals, err := m.Plan(ctx, seed)
	if err != nil {
		m.log().Info().Err(err).Str("seed_id", string(seed.ID)).Msg("recurring leave rejected")
		return nil, err
	}
	if len(intervals) == 0 {
		return []generic.LeaveID{seed.ID}, nil
	}

	txStore, ok := m.Store.(generic.TxLeaveStore)
	if !ok {
		return m.Persist(ctx, m.Store, seed, intervals)
	}

	var ids []generic.LeaveID
	err = txStore.WithTx(ctx, func(tx generic.LeaveStore) error {
		var err error
		ids, err = m.Persist(ctx, tx, seed, intervals)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
