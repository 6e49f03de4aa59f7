/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Money travels as
  decimals inside the engine and as floats (rounded to cents) at this
  boundary, so the API contract stays plain JSON numbers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator tags; handlers run them through a shared
  validator instance before touching the store or engine. Engine-level
  validation (negative amounts, record coordinates) stays in payroll.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: The engine-side shapes these mirror
*/
package api

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dirgocs/daywin/payroll"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// WorkerRequest upserts a roster entry.
type WorkerRequest struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
}

// FunctionRequest upserts a function catalog entry.
type FunctionRequest struct {
	ID     string  `json:"id" validate:"required"`
	Name   string  `json:"name" validate:"required"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// WorkedDayRequest records one worker's attendance.
type WorkedDayRequest struct {
	ID         string  `json:"id,omitempty"`
	Date       string  `json:"date" validate:"required"`
	WorkerID   string  `json:"worker_id" validate:"required"`
	FunctionID string  `json:"function_id,omitempty"`
	Hours      float64 `json:"hours" validate:"gte=0"`
	DailyValue float64 `json:"daily_value" validate:"gte=0"`
}

// AmountRequest records a bonus or a discount.
type AmountRequest struct {
	ID       string  `json:"id,omitempty"`
	Date     string  `json:"date" validate:"required"`
	WorkerID string  `json:"worker_id" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
}

// TaxCollectionRequest records site-wide tax intake for a date.
type TaxCollectionRequest struct {
	ID     string  `json:"id,omitempty"`
	Date   string  `json:"date" validate:"required"`
	Amount float64 `json:"amount_collected" validate:"gte=0"`
}

// SetPaidRequest toggles one payroll line's paid flag.
type SetPaidRequest struct {
	Paid bool `json:"paid"`
}

// PreviewRequest asks for the advisory points and daily value.
type PreviewRequest struct {
	Hours       float64  `json:"hours" validate:"gte=0"`
	FunctionIDs []string `json:"function_ids" validate:"min=1"`
	// Policy overrides the configured selection policy when set.
	Policy string `json:"policy,omitempty" validate:"omitempty,oneof=maior primeira soma"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WorkerDTO mirrors a roster entry.
type WorkerDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// FunctionDTO mirrors a catalog entry, with its derived sector.
type FunctionDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Sector string  `json:"sector"`
}

// WorkedDayDTO mirrors an attendance record.
type WorkedDayDTO struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	WorkerID   string  `json:"worker_id"`
	FunctionID string  `json:"function_id,omitempty"`
	Hours      float64 `json:"hours"`
	DailyValue float64 `json:"daily_value"`
}

// AmountDTO mirrors a bonus or discount record.
type AmountDTO struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	WorkerID string  `json:"worker_id"`
	Amount   float64 `json:"amount"`
}

// TaxCollectionDTO mirrors a tax-collection record.
type TaxCollectionDTO struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount_collected"`
}

// PayrollLineDTO is one worker's totals for one date.
type PayrollLineDTO struct {
	WorkerID      string  `json:"worker_id"`
	DisplayName   string  `json:"display_name"`
	Sector        string  `json:"sector"`
	WorkedValue   float64 `json:"worked_value"`
	BonusValue    float64 `json:"bonus_value"`
	DiscountValue float64 `json:"discount_value"`
	TaxShare      float64 `json:"tax_share"`
	NetTotal      float64 `json:"net_total"`
	Paid          bool    `json:"paid"`
}

// SectorTotalDTO is the per-sector worked-day roll-up.
type SectorTotalDTO struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
}

// LedgerEntryDTO is one consolidated date.
type LedgerEntryDTO struct {
	Date              string                    `json:"date"`
	Workers           []PayrollLineDTO          `json:"workers"`
	SectorTotals      map[string]SectorTotalDTO `json:"sector_totals"`
	TotalWorkedValue  float64                   `json:"total_worked_value"`
	TotalBonus        float64                   `json:"total_bonus"`
	TotalDiscount     float64                   `json:"total_discount"`
	TotalTaxShare     float64                   `json:"total_tax_share"`
	GrandTotal        float64                   `json:"grand_total"`
	AverageDailyValue float64                   `json:"average_daily_value"`
	AllPaid           bool                      `json:"all_paid"`
}

// PreviewDTO is the advisory points calculation result.
type PreviewDTO struct {
	Policy              string  `json:"policy"`
	Multiplier          float64 `json:"multiplier"`
	Points              float64 `json:"points"`
	SuggestedDailyValue float64 `json:"suggested_daily_value"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// cents rounds a decimal to two places for the JSON boundary.
func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toLedgerEntryDTO(entry *payroll.ConsolidatedDateEntry) LedgerEntryDTO {
	lines := make([]PayrollLineDTO, 0, len(entry.WorkerBreakdown))
	for _, line := range entry.WorkerBreakdown {
		lines = append(lines, PayrollLineDTO{
			WorkerID:      string(line.WorkerID),
			DisplayName:   line.DisplayName,
			Sector:        string(line.Sector),
			WorkedValue:   cents(line.WorkedValue),
			BonusValue:    cents(line.BonusValue),
			DiscountValue: cents(line.DiscountValue),
			TaxShare:      cents(line.TaxShare),
			NetTotal:      cents(line.NetTotal),
			Paid:          line.Paid,
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].DisplayName != lines[j].DisplayName {
			return lines[i].DisplayName < lines[j].DisplayName
		}
		return lines[i].WorkerID < lines[j].WorkerID
	})

	sectors := make(map[string]SectorTotalDTO, len(entry.SectorTotals))
	for sector, total := range entry.SectorTotals {
		sectors[string(sector)] = SectorTotalDTO{Count: total.Count, Sum: cents(total.Sum)}
	}

	return LedgerEntryDTO{
		Date:              entry.Date.String(),
		Workers:           lines,
		SectorTotals:      sectors,
		TotalWorkedValue:  cents(entry.TotalWorkedValue),
		TotalBonus:        cents(entry.TotalBonus),
		TotalDiscount:     cents(entry.TotalDiscount),
		TotalTaxShare:     cents(entry.TotalTaxShare),
		GrandTotal:        cents(entry.GrandTotal),
		AverageDailyValue: cents(entry.AverageDailyValue),
		AllPaid:           entry.AllPaid,
	}
}

func toLedgerDTO(ledger *payroll.Ledger) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(ledger.Entries))
	for i, entry := range ledger.Entries {
		dtos[i] = toLedgerEntryDTO(entry)
	}
	return dtos
}
