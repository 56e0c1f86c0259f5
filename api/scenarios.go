/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates work calendars,
	employees, and recurring leaves that demonstrate specific features.

AVAILABLE SCENARIOS:

	office-team:    Amsterdam office week with public holidays, weekly physio
	shift-workers:  Seven-day roster and part-timers, biweekly and workday series
	mixed-team:     Employees on different calendars, for rejection demos

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create calendars via factory JSON
 3. Create employees on those calendars
 4. Submit recurring leaves through the leave service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "office-team"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add it to the loaders map

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and error mapping
  - factory/calendar.go: Calendar JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/timeoff"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "office-team",
		Name:        "Office Team",
		Description: "Amsterdam 40h week with public holidays and a weekly physio appointment",
	},
	{
		ID:          "shift-workers",
		Name:        "Shift Workers",
		Description: "Seven-day roster and part-time calendars with biweekly and workday series",
	},
	{
		ID:          "mixed-team",
		Name:        "Mixed Team",
		Description: "Employees on different calendars and one without a calendar",
	},
}

func (h *Handler) scenarioLoaders() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"office-team":   h.loadOfficeTeamScenario,
		"shift-workers": h.loadShiftWorkersScenario,
		"mixed-team":    h.loadMixedTeamScenario,
	}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[LoadScenarioRequest](r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	load, ok := h.scenarioLoaders()[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", "unknown_scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", "internal", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), "internal", err)
		return
	}

	h.log().Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

const amsterdamOfficeJSON = `{
  "id": "ams-40",
  "name": "Amsterdam office 40h",
  "timezone": "Europe/Amsterdam",
  "attendances": [
    {"day_of_week": "monday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "monday", "hour_from": 13, "hour_to": 17},
    {"day_of_week": "tuesday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "tuesday", "hour_from": 13, "hour_to": 17},
    {"day_of_week": "wednesday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "wednesday", "hour_from": 13, "hour_to": 17},
    {"day_of_week": "thursday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "thursday", "hour_from": 13, "hour_to": 17},
    {"day_of_week": "friday", "hour_from": 8, "hour_to": 12},
    {"day_of_week": "friday", "hour_from": 13, "hour_to": 17}
  ],
  "closures": [
    {"start": "2026-04-27", "reason": "King's Day"},
    {"start": "2026-05-05", "reason": "Liberation Day"},
    {"start": "2026-12-25", "end": "2026-12-27", "reason": "Christmas"}
  ]
}`

func (h *Handler) loadOfficeTeamScenario(ctx context.Context) error {
	if err := h.createCalendarFromJSON(ctx, amsterdamOfficeJSON); err != nil {
		return err
	}
	if err := h.saveEmployees(ctx,
		timeoff.Employee{ID: "alice", Name: "Alice de Vries", Email: "alice@example.com", CalendarID: "ams-40"},
		timeoff.Employee{ID: "bram", Name: "Bram Jansen", Email: "bram@example.com", CalendarID: "ams-40"},
	); err != nil {
		return err
	}

	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		return err
	}

	// Weekly physio on Monday afternoons, ten sessions. The series moves
	// past King's Day.
	physio := timeoff.NewLeave(
		time.Date(2026, time.April, 6, 14, 0, 0, 0, ams),
		time.Date(2026, time.April, 6, 16, 0, 0, 0, ams),
		"alice",
	)
	physio.Description = "Physiotherapy"

	// Shared training morning for both, every two weeks.
	training := timeoff.NewLeave(
		time.Date(2026, time.April, 8, 8, 0, 0, 0, ams),
		time.Date(2026, time.April, 8, 12, 0, 0, 0, ams),
		"alice", "bram",
	)
	training.Description = "Course day"

	return h.submitLeaves(ctx,
		timeoff.RepeatTimes(physio, generic.CadenceWeek, 10),
		timeoff.RepeatTimes(training, generic.CadenceBiweek, 4),
	)
}

func (h *Handler) loadShiftWorkersScenario(ctx context.Context) error {
	for _, cal := range []*timeoff.ResourceCalendar{
		timeoff.FullWeekCalendar("roster-7", time.UTC),
		timeoff.PartTimeCalendar("part-time", time.UTC),
	} {
		if err := h.Store.SaveCalendar(ctx, cal); err != nil {
			return err
		}
	}
	if err := h.saveEmployees(ctx,
		timeoff.Employee{ID: "chen", Name: "Chen Li", CalendarID: "roster-7"},
		timeoff.Employee{ID: "dana", Name: "Dana Okafor", CalendarID: "part-time"},
	); err != nil {
		return err
	}

	// Seven-day roster: every calendar day counts as a workday.
	dayOff := timeoff.NewLeave(
		time.Date(2026, time.June, 5, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 5, 16, 0, 0, 0, time.UTC),
		"chen",
	)
	// Part-timer: Tuesday off every two weeks.
	tuesday := timeoff.NewLeave(
		time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 2, 15, 30, 0, 0, time.UTC),
		"dana",
	)

	return h.submitLeaves(ctx,
		timeoff.RepeatTimes(dayOff, generic.CadenceWorkday, 5),
		timeoff.RepeatTimes(tuesday, generic.CadenceBiweek, 6),
	)
}

func (h *Handler) loadMixedTeamScenario(ctx context.Context) error {
	for _, cal := range []*timeoff.ResourceCalendar{
		timeoff.StandardWorkweekCalendar("std-40", time.UTC),
		timeoff.PartTimeCalendar("part-time", time.UTC),
	} {
		if err := h.Store.SaveCalendar(ctx, cal); err != nil {
			return err
		}
	}
	return h.saveEmployees(ctx,
		timeoff.Employee{ID: "erin", Name: "Erin Walsh", CalendarID: "std-40"},
		timeoff.Employee{ID: "femi", Name: "Femi Adeyemi", CalendarID: "part-time"},
		timeoff.Employee{ID: "gus", Name: "Gus Moreau"},
	)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createCalendarFromJSON(ctx context.Context, jsonStr string) error {
	cal, err := h.Calendars.ParseCalendar(jsonStr)
	if err != nil {
		return err
	}
	return h.Store.SaveCalendar(ctx, cal)
}

func (h *Handler) saveEmployees(ctx context.Context, employees ...timeoff.Employee) error {
	for _, e := range employees {
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func (h *Handler) submitLeaves(ctx context.Context, leaves ...generic.Leave) error {
	created, err := h.Service.Create(ctx, leaves...)
	if err != nil {
		return err
	}
	for _, c := range created {
		h.Metrics.created(len(c.FollowOnIDs))
	}
	return nil
}
