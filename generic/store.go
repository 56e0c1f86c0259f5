/*
store.go - Persistence interface for leave records

PURPOSE:

	Defines the interface between the recurrence logic and the database.
	The Leave Store owns record identity and write ordering; the planner and
	materializer only ask it to create leaves and read them back.

KEY INTERFACES:

	LeaveStore:   Create, Get and List leave records
	TxLeaveStore: Transactional operations (all-or-nothing multi-leave writes)

ATOMIC BATCHES:

	WithTx() ensures all-or-nothing semantics. When a seed leave repeats
	five times, either the seed and all four follow-ons are written or none
	are. A failure half way through planning never leaves partial records.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for testing

EXAMPLE:

	err := store.WithTx(ctx, func(tx generic.LeaveStore) error {
	    _, err := tx.Create(ctx, leave)
	    return err
	})

SEE ALSO:
  - calendar.go: CalendarDirectory, the other collaborator
  - store/sqlite/sqlite.go: Concrete implementation
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// LEAVE - A persisted leave record
// =============================================================================

// RepeatSettings is what the user entered to make a leave recur.
type RepeatSettings struct {
	Every   Cadence    // empty = no repetition
	Mode    RepeatMode // times | date
	Limit   int        // total number of leaves, seed included (times mode)
	EndDate TimePoint  // last allowed end date (date mode)
}

// Enabled reports whether both a cadence and a mode are set.
func (r RepeatSettings) Enabled() bool {
	return r.Every != "" && r.Mode != ""
}

type Leave struct {
	ID            LeaveID
	EmployeeIDs   []EmployeeID
	Start         time.Time
	End           time.Time
	HolidayType   string
	MultiEmployee bool
	Repeat        RepeatSettings

	// SystemGenerated marks follow-on leaves created by the materializer.
	// They never trigger another round of repetition.
	SystemGenerated bool
	SeedID          LeaveID

	Description string
	CreatedAt   time.Time
}

// Interval returns the leave's [Start, End).
func (l Leave) Interval() Interval {
	return Interval{Start: l.Start, End: l.End}
}

// =============================================================================
// STORE - Interface for leave persistence
// =============================================================================

type LeaveStore interface {
	// Create persists a leave and returns its ID. An empty ID is assigned
	// by the store.
	Create(ctx context.Context, leave Leave) (LeaveID, error)

	// Get returns ErrLeaveNotFound for unknown IDs.
	Get(ctx context.Context, id LeaveID) (Leave, error)

	// List returns leaves matching filter, ordered by Start.
	List(ctx context.Context, filter LeaveFilter) ([]Leave, error)
}

type LeaveFilter struct {
	EmployeeID *EmployeeID
	SeedID     *LeaveID
	From       *time.Time // leaves ending after From
	To         *time.Time // leaves starting before To
}

// Matches applies the filter to one leave.
func (f LeaveFilter) Matches(l Leave) bool {
	if f.EmployeeID != nil {
		found := false
		for _, id := range l.EmployeeIDs {
			if id == *f.EmployeeID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SeedID != nil && l.SeedID != *f.SeedID && l.ID != *f.SeedID {
		return false
	}
	if f.From != nil && !l.End.After(*f.From) {
		return false
	}
	if f.To != nil && !l.Start.Before(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxLeaveStore wraps LeaveStore with transaction support.
type TxLeaveStore interface {
	LeaveStore

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(LeaveStore) error) error
}
