/*
handlers.go - HTTP API handlers for recurring leaves

PURPOSE:

	Exposes leave submission and its recurrence expansion via REST API.
	Handles HTTP request/response, JSON serialization, and delegates to
	the timeoff package.

ENDPOINTS:

	Leaves:
	  POST   /api/leaves                 Submit a leave, expanding its repetition
	  POST   /api/leaves/preview         Dry run: list the occurrences only
	  GET    /api/leaves                 List leaves (employee_id, seed_id, from, to)
	  GET    /api/leaves/{id}            Get one leave

	Employees:
	  GET    /api/employees              List all employees
	  POST   /api/employees              Create or update an employee
	  GET    /api/employees/{id}         Get employee details

	Calendars:
	  GET    /api/calendars              List work calendars
	  POST   /api/calendars              Create or replace a calendar from JSON
	  GET    /api/calendars/{id}         Get one calendar

	Scenarios:
	  GET    /api/scenarios              List demo scenarios
	  POST   /api/scenarios/load         Load a demo scenario

ERROR HANDLING:

	Errors are returned as JSON with a machine readable code:
	- 400: Malformed or invalid input
	- 404: Unknown leave, employee or calendar
	- 409: calendar_exhausted (no matching slot within the search window)
	- 422: span_too_long, missing_calendar, mixed_calendars,
	       negative_repeat_count, past_end_date
	- 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/leave-recurrence/factory"
	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/logger"
	"github.com/warp/leave-recurrence/store/sqlite"
	"github.com/warp/leave-recurrence/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Service   *timeoff.LeaveService
	Calendars *factory.CalendarFactory
	Metrics   *Metrics
	Log       *logger.Logger

	// mu serializes scenario loads.
	mu sync.Mutex
}

// HandlerOptions tunes the handler. Zero values are fine.
type HandlerOptions struct {
	// Zone decides what "today" is for repeat end dates.
	Zone *time.Location
	Now  func() time.Time
	Log  *logger.Logger
}

// NewHandler creates a new handler backed by store.
func NewHandler(store *sqlite.Store, opt HandlerOptions) *Handler {
	mat := &timeoff.Materializer{
		Store:     store,
		Directory: store,
		Zone:      opt.Zone,
		Now:       opt.Now,
		Log:       opt.Log,
	}
	return &Handler{
		Store:     store,
		Service:   &timeoff.LeaveService{Store: store, Materializer: mat, Log: opt.Log},
		Calendars: factory.NewCalendarFactory(),
		Metrics:   NewMetrics(),
		Log:       opt.Log,
	}
}

func (h *Handler) log() *logger.Logger {
	if h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// CreateLeave stores a leave and all follow-ons of its repetition.
// POST /api/leaves
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	leave, ok := h.bindLeave(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), leave)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	c := created[0]
	h.Metrics.created(len(c.FollowOnIDs))

	resp := CreateLeaveResponse{
		SeedID:      string(c.SeedID),
		FollowOnIDs: make([]string, len(c.FollowOnIDs)),
		Total:       1 + len(c.FollowOnIDs),
	}
	for i, id := range c.FollowOnIDs {
		resp.FollowOnIDs[i] = string(id)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// PreviewLeave plans a leave's repetition without storing anything.
// POST /api/leaves/preview
func (h *Handler) PreviewLeave(w http.ResponseWriter, r *http.Request) {
	leave, ok := h.bindLeave(w, r)
	if !ok {
		return
	}

	intervals, err := h.Service.Preview(r.Context(), leave)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := PreviewResponse{Occurrences: make([]IntervalDTO, len(intervals)), Total: len(intervals)}
	for i, iv := range intervals {
		resp.Occurrences[i] = IntervalDTO{Start: iv.Start, End: iv.End}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) bindLeave(w http.ResponseWriter, r *http.Request) (generic.Leave, bool) {
	req, err := parseJSON[CreateLeaveRequest](r)
	if err != nil {
		h.writeDomainError(w, err)
		return generic.Leave{}, false
	}
	leave, err := req.ToLeave()
	if err != nil {
		h.writeDomainError(w, err)
		return generic.Leave{}, false
	}
	return leave, true
}

// ListLeaves returns leaves matching the query filters.
// GET /api/leaves?employee_id=&seed_id=&from=&to=
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter generic.LeaveFilter

	if v := q.Get("employee_id"); v != "" {
		id := generic.EmployeeID(v)
		filter.EmployeeID = &id
	}
	if v := q.Get("seed_id"); v != "" {
		id := generic.LeaveID(v)
		filter.SeedID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := parseQueryTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+name+" parameter", "invalid_request", err)
			return
		}
		*dst = &t
	}

	leaves, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]LeaveDTO, len(leaves))
	for i, l := range leaves {
		dtos[i] = toLeaveDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeave returns one leave.
// GET /api/leaves/{id}
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	leave, err := h.Store.Get(r.Context(), generic.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// parseQueryTime accepts RFC 3339 instants or YYYY-MM-DD (UTC midnight).
func parseQueryTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[CreateEmployeeRequest](r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	emp := timeoff.Employee{
		ID:         generic.EmployeeID(req.ID),
		Name:       req.Name,
		Email:      req.Email,
		CalendarID: generic.CalendarID(req.CalendarID),
	}
	if emp.ID == "" {
		emp.ID = generic.EmployeeID(uuid.NewString())
	}

	ctx := r.Context()
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		h.writeDomainError(w, err)
		return
	}
	saved, err := h.Store.GetEmployee(ctx, emp.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(saved))
}

// GetEmployee returns employee details.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns all calendars.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]CalendarDTO, 0, len(records))
	for _, rec := range records {
		cal, err := h.Calendars.ParseCalendar(rec.ConfigJSON)
		if err != nil {
			h.log().Warn().Err(err).Str("calendar_id", rec.ID).Msg("skipping unreadable calendar")
			continue
		}
		dtos = append(dtos, h.toCalendarDTO(cal))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCalendar creates or replaces a calendar from its JSON definition.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	cj, err := parseJSON[factory.CalendarJSON](r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	cal, err := h.Calendars.FromJSON(cj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", "invalid_calendar", err)
		return
	}
	if err := h.Store.SaveCalendar(r.Context(), cal); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toCalendarDTO(cal))
}

// GetCalendar returns one calendar.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Store.GetCalendar(r.Context(), generic.CalendarID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalendarDTO(cal))
}

func (h *Handler) toCalendarDTO(cal *timeoff.ResourceCalendar) CalendarDTO {
	return CalendarDTO{
		CalendarJSON: h.Calendars.ToJSON(cal),
		WeeklyHours:  cal.WeeklyHours().Value.String(),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// rejectionCodes maps domain rejections to their API code, in match order.
var rejectionCodes = []struct {
	err    error
	status int
	code   string
}{
	{generic.ErrSpanTooLong, http.StatusUnprocessableEntity, "span_too_long"},
	{generic.ErrMissingCalendar, http.StatusUnprocessableEntity, "missing_calendar"},
	{generic.ErrMixedCalendars, http.StatusUnprocessableEntity, "mixed_calendars"},
	{generic.ErrNegativeRepeatCount, http.StatusUnprocessableEntity, "negative_repeat_count"},
	{generic.ErrPastEndDate, http.StatusUnprocessableEntity, "past_end_date"},
	{generic.ErrCalendarExhausted, http.StatusConflict, "calendar_exhausted"},
	{generic.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{generic.ErrNoEmployees, http.StatusBadRequest, "invalid_request"},
	{generic.ErrUnknownCadence, http.StatusBadRequest, "invalid_request"},
	{generic.ErrUnknownRepeatMode, http.StatusBadRequest, "invalid_request"},
	{generic.ErrLeaveNotFound, http.StatusNotFound, "leave_not_found"},
	{generic.ErrEmployeeNotFound, http.StatusNotFound, "employee_not_found"},
	{generic.ErrCalendarNotFound, http.StatusNotFound, "calendar_not_found"},
}

// writeDomainError picks status and code for err and counts rejections.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var be *bindError
	if errors.As(err, &be) {
		h.Metrics.rejected("invalid_request")
		writeError(w, http.StatusBadRequest, be.Error(), "invalid_request", nil)
		return
	}

	for _, rc := range rejectionCodes {
		if errors.Is(err, rc.err) {
			h.Metrics.rejected(rc.code)
			writeError(w, rc.status, userMessage(err), rc.code, nil)
			return
		}
	}

	h.log().Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Internal error", "internal", err)
}

// userMessage prefers the message of a structured rejection over the
// wrapping context added on the way up.
func userMessage(err error) string {
	var span *generic.SpanTooLongError
	if errors.As(err, &span) {
		return span.Error()
	}
	var mixed *generic.MixedCalendarsError
	if errors.As(err, &mixed) {
		return mixed.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
