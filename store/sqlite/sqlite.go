/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:

	Implements the leave persistence and calendar lookup interfaces using
	SQLite. In production, the same patterns apply to PostgreSQL - only
	minor SQL dialect differences.

INTERFACES IMPLEMENTED:

	generic.TxLeaveStore:      Leave persistence with transactions
	generic.CalendarDirectory: Employee to work calendar lookup

KEY TABLES:

	leaves:          One row per leave, seeds and follow-ons alike
	leave_employees: Employees attached to a leave, in submission order
	employees:       Employee records with their work calendar
	calendars:       Work calendars stored as factory JSON

INDEXES:
  - idx_leaves_start:          List ordering and range filters
  - idx_leaves_seed:           Series lookups (seed and its follow-ons)
  - idx_leave_employees_emp:   Per-employee listing

TIMESTAMPS:

	Instants are stored as fixed-width UTC strings so that text comparison
	in SQL matches time order.

CONCURRENCY:

	Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
	database-level concurrency control handles this instead.

WAL MODE:

	SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
	- Multiple readers don't block
	- Single writer at a time
	- Better crash recovery

USAGE:

	store, err := sqlite.New("./data/leaves.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	mat := &timeoff.Materializer{Store: store, Directory: store}

MIGRATION:

	Schema is auto-migrated on New(). For production, use a proper
	migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - factory/calendar.go: Calendar JSON format
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-recurrence/factory"
	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/timeoff"
)

// timeLayout is RFC 3339 with a fixed nanosecond width.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db       *sql.DB
	mu       sync.RWMutex
	calendar *factory.CalendarFactory
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, calendar: factory.NewCalendarFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Work calendars (factory JSON)
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		calendar_id TEXT REFERENCES calendars(id),
		created_at TEXT NOT NULL
	);

	-- Leaves (seeds and follow-ons)
	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		holiday_type TEXT NOT NULL,
		multi_employee INTEGER NOT NULL DEFAULT 0,
		system_generated INTEGER NOT NULL DEFAULT 0,
		seed_id TEXT,
		repeat_every TEXT,
		repeat_mode TEXT,
		repeat_limit INTEGER NOT NULL DEFAULT 0,
		repeat_end_date TEXT,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_start
		ON leaves(start_at);
	CREATE INDEX IF NOT EXISTS idx_leaves_seed
		ON leaves(seed_id) WHERE seed_id IS NOT NULL;

	-- Employees on a leave
	CREATE TABLE IF NOT EXISTS leave_employees (
		leave_id TEXT NOT NULL REFERENCES leaves(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (leave_id, employee_id)
	);

	CREATE INDEX IF NOT EXISTS idx_leave_employees_emp
		ON leave_employees(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEAVE STORE (generic.LeaveStore interface)
// =============================================================================

// Create persists a leave and its employees atomically.
func (s *Store) Create(ctx context.Context, leave generic.Leave) (generic.LeaveID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	id, err := createLeave(ctx, sqlTx, leave)
	if err != nil {
		return "", err
	}
	return id, sqlTx.Commit()
}

func createLeave(ctx context.Context, q queryer, leave generic.Leave) (generic.LeaveID, error) {
	if err := leave.Interval().Validate(); err != nil {
		return "", err
	}
	if len(leave.EmployeeIDs) == 0 {
		return "", generic.ErrNoEmployees
	}
	if leave.ID == "" {
		leave.ID = generic.LeaveID(uuid.NewString())
	}

	var endDate sql.NullString
	if !leave.Repeat.EndDate.IsZero() {
		endDate = sql.NullString{String: leave.Repeat.EndDate.Time.Format(time.DateOnly), Valid: true}
	}

	query := `
		INSERT INTO leaves
		(id, start_at, end_at, holiday_type, multi_employee, system_generated, seed_id,
		 repeat_every, repeat_mode, repeat_limit, repeat_end_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		leave.ID,
		formatTime(leave.Start),
		formatTime(leave.End),
		leave.HolidayType,
		leave.MultiEmployee,
		leave.SystemGenerated,
		nullString(string(leave.SeedID)),
		nullString(string(leave.Repeat.Every)),
		nullString(string(leave.Repeat.Mode)),
		leave.Repeat.Limit,
		endDate,
		nullString(leave.Description),
		formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert leave: %w", err)
	}

	for i, emp := range leave.EmployeeIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO leave_employees (leave_id, employee_id, position) VALUES (?, ?, ?)",
			leave.ID, emp, i,
		)
		if err != nil {
			return "", fmt.Errorf("failed to attach employee %s: %w", emp, err)
		}
	}
	return leave.ID, nil
}

// Get retrieves a leave by ID.
func (s *Store) Get(ctx context.Context, id generic.LeaveID) (generic.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getLeave(ctx, s.db, id)
}

func getLeave(ctx context.Context, q queryer, id generic.LeaveID) (generic.Leave, error) {
	leaves, err := queryLeaves(ctx, q, "WHERE l.id = ?", id)
	if err != nil {
		return generic.Leave{}, err
	}
	if len(leaves) == 0 {
		return generic.Leave{}, fmt.Errorf("%w: %s", generic.ErrLeaveNotFound, id)
	}
	return leaves[0], nil
}

// List returns leaves matching filter, ordered by start.
func (s *Store) List(ctx context.Context, filter generic.LeaveFilter) ([]generic.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listLeaves(ctx, s.db, filter)
}

func listLeaves(ctx context.Context, q queryer, filter generic.LeaveFilter) ([]generic.Leave, error) {
	var where []string
	var args []any

	if filter.EmployeeID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM leave_employees le WHERE le.leave_id = l.id AND le.employee_id = ?)")
		args = append(args, *filter.EmployeeID)
	}
	if filter.SeedID != nil {
		where = append(where, "(l.seed_id = ? OR l.id = ?)")
		args = append(args, *filter.SeedID, *filter.SeedID)
	}
	if filter.From != nil {
		where = append(where, "l.end_at > ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "l.start_at < ?")
		args = append(args, formatTime(*filter.To))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	return queryLeaves(ctx, q, clause, args...)
}

func queryLeaves(ctx context.Context, q queryer, where string, args ...any) ([]generic.Leave, error) {
	query := `
		SELECT l.id, l.start_at, l.end_at, l.holiday_type, l.multi_employee, l.system_generated,
		       l.seed_id, l.repeat_every, l.repeat_mode, l.repeat_limit, l.repeat_end_date,
		       l.description, l.created_at
		FROM leaves l ` + where + `
		ORDER BY l.start_at, l.rowid
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}

	var leaves []generic.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := attachEmployees(ctx, q, leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

func scanLeave(rows *sql.Rows) (generic.Leave, error) {
	var l generic.Leave
	var start, end, createdAt string
	var seedID, every, mode, endDate, description sql.NullString

	err := rows.Scan(&l.ID, &start, &end, &l.HolidayType, &l.MultiEmployee, &l.SystemGenerated,
		&seedID, &every, &mode, &l.Repeat.Limit, &endDate, &description, &createdAt)
	if err != nil {
		return l, fmt.Errorf("failed to scan leave: %w", err)
	}

	if l.Start, err = parseTime(start); err != nil {
		return l, err
	}
	if l.End, err = parseTime(end); err != nil {
		return l, err
	}
	l.CreatedAt, _ = parseTime(createdAt)
	l.SeedID = generic.LeaveID(seedID.String)
	l.Repeat.Every = generic.Cadence(every.String)
	l.Repeat.Mode = generic.RepeatMode(mode.String)
	l.Description = description.String
	if endDate.Valid {
		if l.Repeat.EndDate, err = generic.ParseDate(endDate.String); err != nil {
			return l, fmt.Errorf("leave %s: bad repeat end date: %w", l.ID, err)
		}
	}
	return l, nil
}

func attachEmployees(ctx context.Context, q queryer, leaves []generic.Leave) error {
	if len(leaves) == 0 {
		return nil
	}

	index := make(map[generic.LeaveID]int, len(leaves))
	placeholders := make([]string, len(leaves))
	args := make([]any, len(leaves))
	for i, l := range leaves {
		index[l.ID] = i
		placeholders[i] = "?"
		args[i] = l.ID
	}

	rows, err := q.QueryContext(ctx,
		"SELECT leave_id, employee_id FROM leave_employees WHERE leave_id IN ("+
			strings.Join(placeholders, ",")+") ORDER BY leave_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query leave employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leaveID generic.LeaveID
		var emp generic.EmployeeID
		if err := rows.Scan(&leaveID, &emp); err != nil {
			return err
		}
		i := index[leaveID]
		leaves[i].EmployeeIDs = append(leaves[i].EmployeeIDs, emp)
	}
	return rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxLeaveStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.LeaveStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore reads its own uncommitted writes.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Create(ctx context.Context, leave generic.Leave) (generic.LeaveID, error) {
	return createLeave(ctx, ts.tx, leave)
}

func (ts *txStore) Get(ctx context.Context, id generic.LeaveID) (generic.Leave, error) {
	return getLeave(ctx, ts.tx, id)
}

func (ts *txStore) List(ctx context.Context, filter generic.LeaveFilter) ([]generic.Leave, error) {
	return listLeaves(ctx, ts.tx, filter)
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

// CalendarRecord is a stored calendar with its JSON config.
type CalendarRecord struct {
	ID         string
	Name       string
	Timezone   string
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveCalendar validates and saves a calendar, replacing any previous version.
func (s *Store) SaveCalendar(ctx context.Context, cal *timeoff.ResourceCalendar) error {
	if err := cal.Validate(); err != nil {
		return err
	}
	config, err := s.calendar.MarshalCalendar(cal)
	if err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(time.Now())
	query := `
		INSERT INTO calendars (id, name, timezone, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		cal.CalendarID, cal.Name, cal.Location().String(), config, now, now,
	)
	return err
}

// GetCalendar retrieves a calendar by ID.
func (s *Store) GetCalendar(ctx context.Context, id generic.CalendarID) (*timeoff.ResourceCalendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var config string
	err := s.db.QueryRowContext(ctx, "SELECT config_json FROM calendars WHERE id = ?", id).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrCalendarNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.calendar.ParseCalendar(config)
}

// ListCalendars returns all calendar records.
func (s *Store) ListCalendars(ctx context.Context) ([]CalendarRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, timezone, config_json, created_at, updated_at FROM calendars ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CalendarRecord
	for rows.Next() {
		var r CalendarRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.Timezone, &r.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = parseTime(createdAt)
		r.UpdatedAt, _ = parseTime(updatedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee saves an employee. The calendar, if set, must exist.
func (s *Store) SaveEmployee(ctx context.Context, emp timeoff.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, email, calendar_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			calendar_id = excluded.calendar_id
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.Email),
		nullString(string(emp.CalendarID)),
		formatTime(time.Now()),
	)
	if isForeignKeyError(err) {
		return fmt.Errorf("%w: %s", generic.ErrCalendarNotFound, emp.CalendarID)
	}
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp timeoff.Employee
	var email, calendarID sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, calendar_id, created_at FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.Name, &email, &calendarID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return emp, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return emp, err
	}

	emp.Email = email.String
	emp.CalendarID = generic.CalendarID(calendarID.String)
	emp.CreatedAt, _ = parseTime(createdAt)
	return emp, nil
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]timeoff.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, calendar_id, created_at FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []timeoff.Employee
	for rows.Next() {
		var emp timeoff.Employee
		var email, calendarID sql.NullString
		var createdAt string
		if err := rows.Scan(&emp.ID, &emp.Name, &email, &calendarID, &createdAt); err != nil {
			return nil, err
		}
		emp.Email = email.String
		emp.CalendarID = generic.CalendarID(calendarID.String)
		emp.CreatedAt, _ = parseTime(createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// CALENDAR DIRECTORY (generic.CalendarDirectory interface)
// =============================================================================

// CalendarIDFor returns the employee's calendar, or "" if none is assigned.
func (s *Store) CalendarIDFor(ctx context.Context, employeeID generic.EmployeeID) (generic.CalendarID, error) {
	emp, err := s.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return emp.CalendarID, nil
}

// Calendar returns a stored calendar as a generic.WorkCalendar.
func (s *Store) Calendar(ctx context.Context, id generic.CalendarID) (generic.WorkCalendar, error) {
	cal, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_employees", "leaves", "employees", "calendars"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

var (
	_ generic.TxLeaveStore      = (*Store)(nil)
	_ generic.CalendarDirectory = (*Store)(nil)
)
