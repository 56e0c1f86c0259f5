package timeoff

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/logger"
)

// =============================================================================
// LEAVE SERVICE - Batch leave creation with transactional guarantees
// =============================================================================

type LeaveService struct {
	Store        generic.TxLeaveStore
	Materializer *Materializer
	Log          *logger.Logger

	// PlanWorkers bounds concurrent planning in a batch. Zero means 4.
	PlanWorkers int
}

// CreatedLeave is the outcome for one submitted leave.
type CreatedLeave struct {
	SeedID      generic.LeaveID
	FollowOnIDs []generic.LeaveID
}

// IDs returns the seed ID followed by its follow-on IDs.
func (c CreatedLeave) IDs() []generic.LeaveID {
	return append([]generic.LeaveID{c.SeedID}, c.FollowOnIDs...)
}

func (s *LeaveService) log() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

// =============================================================================
// CREATE - The critical transactional operation
// =============================================================================

// Create stores a batch of leaves and every follow-on they expand into.
// This is TRANSACTIONAL:
//   - Every leave is checked and planned before the first write
//   - Seeds are written, then their follow-ons, in input order
//
// If ANY leave fails, nothing from the batch is stored.
func (s *LeaveService) Create(ctx context.Context, leaves ...generic.Leave) ([]CreatedLeave, error) {
	for i, l := range leaves {
		if err := l.Interval().Validate(); err != nil {
			return nil, fmt.Errorf("leave %d: %w", i, err)
		}
		if len(l.EmployeeIDs) == 0 {
			return nil, fmt.Errorf("leave %d: %w", i, generic.ErrNoEmployees)
		}
	}

	plans, err := s.planAll(ctx, leaves)
	if err != nil {
		return nil, err
	}

	out := make([]CreatedLeave, len(leaves))
	err = s.Store.WithTx(ctx, func(tx generic.LeaveStore) error {
		for i, l := range leaves {
			seedID, err := tx.Create(ctx, l)
			if err != nil {
				return fmt.Errorf("leave %d: %w", i, err)
			}
			l.ID = seedID

			ids, err := s.Materializer.Persist(ctx, tx, l, plans[i])
			if err != nil {
				return fmt.Errorf("leave %d: %w", i, err)
			}
			out[i] = CreatedLeave{SeedID: seedID, FollowOnIDs: ids[1:]}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range out {
		total += 1 + len(c.FollowOnIDs)
	}
	s.log().Info().Int("submitted", len(leaves)).Int("created", total).Msg("leaves created")
	return out, nil
}

// planAll plans every leave concurrently. The first failure cancels the rest.
func (s *LeaveService) planAll(ctx context.Context, leaves []generic.Leave) ([][]generic.Interval, error) {
	plans := make([][]generic.Interval, len(leaves))

	workers := s.PlanWorkers
	if workers <= 0 {
		workers = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, l := range leaves {
		g.Go(func() error {
			intervals, err := s.Materializer.Plan(gctx, l)
			if err != nil {
				return fmt.Errorf("leave %d: %w", i, err)
			}
			plans[i] = intervals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log().Info().Err(err).Msg("leave batch rejected")
		return nil, err
	}
	return plans, nil
}

// =============================================================================
// PREVIEW - Dry run
// =============================================================================

// Preview returns the seed interval followed by every follow-on the leave
// would expand into. Nothing is stored.
func (s *LeaveService) Preview(ctx context.Context, leave generic.Leave) ([]generic.Interval, error) {
	if err := leave.Interval().Validate(); err != nil {
		return nil, err
	}
	intervals, err := s.Materializer.Plan(ctx, leave)
	if err != nil {
		return nil, err
	}
	return append([]generic.Interval{leave.Interval().UTC()}, intervals...), nil
}
