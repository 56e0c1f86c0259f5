// Package store provides in-memory implementations of the generic store
// interfaces.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-recurrence/generic"
)

// =============================================================================
// MEMORY STORE - In-memory leave store (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	leaves map[generic.LeaveID]generic.Leave
	order  []generic.LeaveID
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		leaves: make(map[generic.LeaveID]generic.Leave),
		now:    time.Now,
	}
}

// Create stores a copy of leave, assigning an ID when empty.
func (m *Memory) Create(_ context.Context, leave generic.Leave) (generic.LeaveID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(leave)
}

func (m *Memory) createLocked(leave generic.Leave) (generic.LeaveID, error) {
	if err := leave.Interval().Validate(); err != nil {
		return "", err
	}
	if len(leave.EmployeeIDs) == 0 {
		return "", generic.ErrNoEmployees
	}
	if leave.ID == "" {
		leave.ID = generic.LeaveID(uuid.NewString())
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = m.now().UTC()
	}
	leave.Start = leave.Start.UTC()
	leave.End = leave.End.UTC()
	leave.EmployeeIDs = append([]generic.EmployeeID(nil), leave.EmployeeIDs...)

	if _, exists := m.leaves[leave.ID]; !exists {
		m.order = append(m.order, leave.ID)
	}
	m.leaves[leave.ID] = leave
	return leave.ID, nil
}

func (m *Memory) Get(_ context.Context, id generic.LeaveID) (generic.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(id)
}

func (m *Memory) getLocked(id generic.LeaveID) (generic.Leave, error) {
	leave, ok := m.leaves[id]
	if !ok {
		return generic.Leave{}, generic.ErrLeaveNotFound
	}
	return leave, nil
}

func (m *Memory) List(_ context.Context, filter generic.LeaveFilter) ([]generic.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(filter), nil
}

func (m *Memory) listLocked(filter generic.LeaveFilter) []generic.Leave {
	var result []generic.Leave
	for _, id := range m.order {
		leave := m.leaves[id]
		if filter.Matches(leave) {
			result = append(result, leave)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.LeaveStore) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	leavesCopy := make(map[generic.LeaveID]generic.Leave, len(tm.leaves))
	for k, v := range tm.leaves {
		leavesCopy[k] = v
	}
	return memorySnapshot{leaves: leavesCopy, order: append([]generic.LeaveID(nil), tm.order...)}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.leaves = s.leaves
	tm.order = s.order
}

type memorySnapshot struct {
	leaves map[generic.LeaveID]generic.Leave
	order  []generic.LeaveID
}

// txMemoryView runs with the parent lock already held.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Create(_ context.Context, leave generic.Leave) (generic.LeaveID, error) {
	return tv.parent.createLocked(leave)
}

func (tv *txMemoryView) Get(_ context.Context, id generic.LeaveID) (generic.Leave, error) {
	return tv.parent.getLocked(id)
}

func (tv *txMemoryView) List(_ context.Context, filter generic.LeaveFilter) ([]generic.Leave, error) {
	return tv.parent.listLocked(filter), nil
}

// =============================================================================
// MEMORY DIRECTORY - Employee to calendar mapping
// =============================================================================

// Directory is an in-memory generic.CalendarDirectory.
type Directory struct {
	mu        sync.RWMutex
	employees map[generic.EmployeeID]generic.CalendarID
	calendars map[generic.CalendarID]generic.WorkCalendar
}

func NewDirectory() *Directory {
	return &Directory{
		employees: make(map[generic.EmployeeID]generic.CalendarID),
		calendars: make(map[generic.CalendarID]generic.WorkCalendar),
	}
}

// AddCalendar registers cal under its own ID.
func (d *Directory) AddCalendar(cal generic.WorkCalendar) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calendars[cal.ID()] = cal
}

// Assign puts an employee on a calendar. An empty calendarID leaves the
// employee without one.
func (d *Directory) Assign(employeeID generic.EmployeeID, calendarID generic.CalendarID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[employeeID] = calendarID
}

func (d *Directory) CalendarIDFor(_ context.Context, employeeID generic.EmployeeID) (generic.CalendarID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.employees[employeeID]
	if !ok {
		return "", generic.ErrEmployeeNotFound
	}
	return id, nil
}

func (d *Directory) Calendar(_ context.Context, id generic.CalendarID) (generic.WorkCalendar, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cal, ok := d.calendars[id]
	if !ok {
		return nil, generic.ErrCalendarNotFound
	}
	return cal, nil
}

var (
	_ generic.TxLeaveStore      = (*TxMemory)(nil)
	_ generic.CalendarDirectory = (*Directory)(nil)
)
