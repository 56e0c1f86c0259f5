/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. These types decouple
	the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:

	Leaves:     CreateLeaveRequest, RepeatDTO, LeaveDTO, CreateLeaveResponse,
	            PreviewResponse
	Employees:  EmployeeDTO, CreateEmployeeRequest
	Calendars:  CalendarDTO (wraps factory.CalendarJSON)
	Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:

	Request shapes are checked with validator struct tags when bound.
	Domain rules (span per cadence, repeat count, end date, calendars)
	are checked by the timeoff package and reported as 422.

SEE ALSO:
  - bind.go: Decoding and validation
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/leave-recurrence/factory"
	"github.com/warp/leave-recurrence/generic"
	"github.com/warp/leave-recurrence/timeoff"
)

// =============================================================================
// LEAVES
// =============================================================================

// RepeatDTO holds the repeat settings of a leave.
type RepeatDTO struct {
	Every   string `json:"every" validate:"required,oneof=workday week biweek month"`
	Mode    string `json:"mode" validate:"required,oneof=times date"`
	Limit   int    `json:"limit,omitempty"`
	EndDate string `json:"end_date,omitempty" validate:"required_if=Mode date,omitempty,datetime=2006-01-02"`
}

// CreateLeaveRequest is the body of POST /api/leaves and /api/leaves/preview.
type CreateLeaveRequest struct {
	EmployeeIDs []string   `json:"employee_ids" validate:"required,min=1,dive,required"`
	Start       time.Time  `json:"start" validate:"required"`
	End         time.Time  `json:"end" validate:"required,gtfield=Start"`
	HolidayType string     `json:"holiday_type,omitempty" validate:"omitempty,oneof=employee company department"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Repeat      *RepeatDTO `json:"repeat,omitempty"`
}

// ToLeave converts the request to a seed leave.
func (req CreateLeaveRequest) ToLeave() (generic.Leave, error) {
	ids := make([]generic.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = generic.EmployeeID(id)
	}

	leave := timeoff.NewLeave(req.Start, req.End, ids...)
	leave.Description = req.Description
	if req.HolidayType != "" {
		leave.HolidayType = req.HolidayType
	}
	if req.Repeat == nil {
		return leave, nil
	}

	leave.Repeat = generic.RepeatSettings{
		Every: generic.Cadence(req.Repeat.Every),
		Mode:  generic.RepeatMode(req.Repeat.Mode),
		Limit: req.Repeat.Limit,
	}
	if req.Repeat.EndDate != "" {
		end, err := generic.ParseDate(req.Repeat.EndDate)
		if err != nil {
			return leave, &bindError{Field: "end_date", Message: fmt.Sprintf("invalid date %q", req.Repeat.EndDate)}
		}
		leave.Repeat.EndDate = end
	}
	return leave, nil
}

// LeaveDTO represents a stored leave in API responses.
type LeaveDTO struct {
	ID              string     `json:"id"`
	EmployeeIDs     []string   `json:"employee_ids"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	HolidayType     string     `json:"holiday_type"`
	MultiEmployee   bool       `json:"multi_employee"`
	SystemGenerated bool       `json:"system_generated"`
	SeedID          string     `json:"seed_id,omitempty"`
	Repeat          *RepeatDTO `json:"repeat,omitempty"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toLeaveDTO(l generic.Leave) LeaveDTO {
	dto := LeaveDTO{
		ID:              string(l.ID),
		EmployeeIDs:     make([]string, len(l.EmployeeIDs)),
		Start:           l.Start.UTC(),
		End:             l.End.UTC(),
		HolidayType:     l.HolidayType,
		MultiEmployee:   l.MultiEmployee,
		SystemGenerated: l.SystemGenerated,
		SeedID:          string(l.SeedID),
		Description:     l.Description,
		CreatedAt:       l.CreatedAt,
	}
	for i, id := range l.EmployeeIDs {
		dto.EmployeeIDs[i] = string(id)
	}
	if l.Repeat.Enabled() {
		dto.Repeat = &RepeatDTO{
			Every: string(l.Repeat.Every),
			Mode:  string(l.Repeat.Mode),
			Limit: l.Repeat.Limit,
		}
		if !l.Repeat.EndDate.IsZero() {
			dto.Repeat.EndDate = l.Repeat.EndDate.Time.Format(time.DateOnly)
		}
	}
	return dto
}

// CreateLeaveResponse lists the seed and every follow-on created for it.
type CreateLeaveResponse struct {
	SeedID      string   `json:"seed_id"`
	FollowOnIDs []string `json:"follow_on_ids"`
	Total       int      `json:"total"`
}

// IntervalDTO is one planned occurrence.
type IntervalDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PreviewResponse is the dry-run result: the seed followed by its follow-ons.
type PreviewResponse struct {
	Occurrences []IntervalDTO `json:"occurrences"`
	Total       int           `json:"total"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	CalendarID string    `json:"calendar_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateEmployeeRequest is the body of POST /api/employees.
type CreateEmployeeRequest struct {
	ID         string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	CalendarID string `json:"calendar_id,omitempty" validate:"omitempty,max=64"`
}

func toEmployeeDTO(e timeoff.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		Email:      e.Email,
		CalendarID: string(e.CalendarID),
		CreatedAt:  e.CreatedAt,
	}
}

// =============================================================================
// CALENDARS
// =============================================================================

// CalendarDTO is a calendar definition with its computed weekly hours.
type CalendarDTO struct {
	factory.CalendarJSON
	WeeklyHours string `json:"weekly_hours"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
