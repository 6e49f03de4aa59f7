/*
Package payroll provides the payroll consolidation engine for day-laborers.

PURPOSE:
  This package contains the domain types and algorithms for turning four
  independently-recorded datasets (worked days, bonuses, discounts, service-tax
  collections) into a single internally-consistent ledger, one entry per
  calendar date, with a per-worker breakdown and a fair distribution of the
  shared service-tax pool.

KEY CONCEPTS IN THIS FILE (types.go):
  - WorkedDay/Bonus/Discount/TaxCollection: The four source record types
  - Worker/Function: Read-only reference data (roster and function catalog)
  - ConsolidatedDateEntry: One date of the derived ledger
  - WorkerPayrollLine: Per-worker breakdown nested in an entry

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every money/hours field
  2. Purity: Consolidation is a referentially-transparent batch transform;
     the only mutable state is the per-line paid flag
  3. Partial-data tolerance: A worker missing from the roster degrades to a
     placeholder display name instead of failing the batch

SEE ALSO:
  - consolidate.go: The consolidation algorithm and tax distribution
  - points.go: Function-weight selection policies
  - ledger.go: Ledger lookup and paid-flag mutation
  - errors.go: Validation and not-found error types
*/
package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type FunctionID string

// UnknownWorkerName is rendered for payroll records that reference a worker
// missing from the roster. Payroll inputs are entered independently, so a
// dangling worker reference is expected in normal operation.
const UnknownWorkerName = "N/A"

// =============================================================================
// REFERENCE DATA - Roster and function catalog (read-only inputs)
// =============================================================================

// Worker is a roster entry. Ownership lies with the roster, not the engine.
type Worker struct {
	ID          WorkerID `json:"id"`
	DisplayName string   `json:"display_name"`
}

// Function is a catalog entry: a role a diarista can work under, with the
// point weight applied to hours worked under it.
type Function struct {
	ID     FunctionID      `json:"id"`
	Name   string          `json:"name"`
	Weight decimal.Decimal `json:"weight"`
}

// Sector buckets functions into the two site areas. Classification is by
// substring match on the function name, case-insensitive.
type Sector string

const (
	SectorAtendimento Sector = "atendimento"
	SectorCozinha     Sector = "cozinha"
)

// Sector classifies the function: "cozinha" if the name contains "cozinha",
// otherwise "atendimento".
func (f Function) Sector() Sector {
	if strings.Contains(strings.ToLower(f.Name), string(SectorCozinha)) {
		return SectorCozinha
	}
	return SectorAtendimento
}

// =============================================================================
// SOURCE RECORDS - The four independently-recorded datasets
// =============================================================================

// WorkedDay is one worker's paid attendance on one date under one function.
// Immutable once created; edits replace the record.
type WorkedDay struct {
	ID         string          `json:"id"`
	Date       Date            `json:"date"`
	WorkerID   WorkerID        `json:"worker_id"`
	FunctionID FunctionID      `json:"function_id,omitempty"`
	Hours      decimal.Decimal `json:"hours"`
	DailyValue decimal.Decimal `json:"daily_value"`
}

// Bonus is an extra amount recorded against a date/worker pair that may or
// may not have a matching WorkedDay.
type Bonus struct {
	ID       string          `json:"id"`
	Date     Date            `json:"date"`
	WorkerID WorkerID        `json:"worker_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// Discount has the same shape and lifecycle as Bonus but is subtracted.
type Discount struct {
	ID       string          `json:"id"`
	Date     Date            `json:"date"`
	WorkerID WorkerID        `json:"worker_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// TaxCollection is money collected site-wide on a date, not tied to a worker,
// pooled and redistributed by the engine.
type TaxCollection struct {
	ID              string          `json:"id"`
	Date            Date            `json:"date"`
	AmountCollected decimal.Decimal `json:"amount_collected"`
}

// =============================================================================
// LEDGER OUTPUT - Derived, recomputable view
// =============================================================================

// WorkerPayrollLine is one worker's totals for one date.
// Invariant: NetTotal = WorkedValue + BonusValue + TaxShare - DiscountValue.
type WorkerPayrollLine struct {
	WorkerID      WorkerID        `json:"worker_id"`
	DisplayName   string          `json:"display_name"`
	Sector        Sector          `json:"sector"`
	WorkedValue   decimal.Decimal `json:"worked_value"`
	BonusValue    decimal.Decimal `json:"bonus_value"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	TaxShare      decimal.Decimal `json:"tax_share"`
	NetTotal      decimal.Decimal `json:"net_total"`
	Paid          bool            `json:"paid"`
}

// SectorTotal accumulates worked-day count and daily-value sum per sector
// at the date level.
type SectorTotal struct {
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// ConsolidatedDateEntry is one date of the ledger, with its per-worker
// breakdown and date-level totals.
// Invariant: GrandTotal = TotalWorkedValue + TotalBonus + TotalTaxShare - TotalDiscount.
type ConsolidatedDateEntry struct {
	Date              Date                            `json:"date"`
	WorkerBreakdown   map[WorkerID]*WorkerPayrollLine `json:"worker_breakdown"`
	SectorTotals      map[Sector]SectorTotal          `json:"sector_totals"`
	TotalWorkedValue  decimal.Decimal                 `json:"total_worked_value"`
	TotalBonus        decimal.Decimal                 `json:"total_bonus"`
	TotalDiscount     decimal.Decimal                 `json:"total_discount"`
	TotalTaxShare     decimal.Decimal                 `json:"total_tax_share"`
	GrandTotal        decimal.Decimal                 `json:"grand_total"`
	AverageDailyValue decimal.Decimal                 `json:"average_daily_value"`
	AllPaid           bool                            `json:"all_paid"`
}

// Line returns the payroll line for a worker, or nil.
func (e *ConsolidatedDateEntry) Line(id WorkerID) *WorkerPayrollLine {
	return e.WorkerBreakdown[id]
}

// recomputeAllPaid ANDs every line's paid flag. Vacuously true when the date
// has no workers.
func (e *ConsolidatedDateEntry) recomputeAllPaid() {
	e.AllPaid = true
	for _, line := range e.WorkerBreakdown {
		if !line.Paid {
			e.AllPaid = false
			return
		}
	}
}
