/*
Package generic provides the core recurrence engine for leave requests.

PURPOSE:

	This package contains the domain-agnostic pieces of recurring leave
	generation: intervals, cadences, termination policies and the planner
	that projects a seed interval forward onto the days an employee
	actually works. It knows nothing about how leaves are stored or how a
	work calendar is configured - those arrive through interfaces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (working hours for this system)
  - Identifiers: Type-safe IDs for employees, leaves and calendars

DESIGN PRINCIPLES:
 1. Precision: Working hours use decimal.Decimal so that fractional
    attendance (e.g. 7.6h days) compares exactly
 2. Type Safety: Strong typing for IDs prevents mixing employee/leave IDs
 3. No shared state: every planner call is independent

USAGE:

	hours := generic.NewAmount(7.5, generic.UnitHours)
	if hours.IsPositive() { ... }

SEE ALSO:
  - interval.go: The leave interval value type
  - cadence.go: Cadence table and termination policies
  - planner.go: NextInterval and Plan
  - calendar.go: WorkCalendar interface consumed by the planner
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (always time-based for this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// Hours wraps a decimal as an amount of working hours.
func Hours(value decimal.Decimal) Amount {
	return Amount{Value: value, Unit: UnitHours}
}

func (a Amount) Zero() Amount                  { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount           { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount           { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) IsNegative() bool              { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                  { return a.Value.IsZero() }
func (a Amount) IsPositive() bool              { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool     { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool        { return a.Value.LessThan(b.Value) }
func (a Amount) LessThanOrEqual(b Amount) bool { return a.Value.LessThanOrEqual(b.Value) }
func (a Amount) String() string                { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type LeaveID string
type CalendarID string
