/*
consolidate.go - Payroll consolidation and service-tax distribution

PURPOSE:
  Merges the four source datasets into a date-indexed ledger and spreads the
  service-tax pool across the workers active on each date.

ALGORITHM:
  1. Group worked days by date, then by worker, summing daily values into
     worked values; bucket each worked day into a sector at the date level.
  2. Fold bonuses into the matching (date, worker) line; a date with no prior
     entry still gets one.
  3. Same for discounts, subtracting.
  4. Pool ALL tax collections and split the pool evenly across the distinct
     dates that have payroll activity. The split is NOT keyed by the tax's own
     recorded date: the entire historical pool is spread evenly across every
     known date. This mirrors how the business actually settles the pool and
     must not be "fixed" to a date-keyed split without an explicit request.
  5. Within a date, split that date's share evenly across its distinct workers.
  6. Derive net totals, grand totals, averages and the aggregate paid status.
  7. Sort by date descending.

PROPERTIES:
  - Pure: no I/O, no shared state, bit-identical output for identical input.
  - Fail-fast: any negative money/hours field rejects the whole batch with a
    ValidationError naming the offending record.
  - Tolerant: a worker missing from the roster gets the placeholder display
    name instead of failing the batch.

SEE ALSO:
  - types.go: Input and output shapes
  - ledger.go: Paid-flag mutation over the produced ledger
*/
package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT
// =============================================================================

// PaidKey addresses one payroll line's durable paid flag.
type PaidKey struct {
	Date     Date
	WorkerID WorkerID
}

// ConsolidationInput carries the fully-materialized source collections.
// The caller sources them (store, import, test fixture) and normalizes dates
// to calendar-day granularity.
type ConsolidationInput struct {
	WorkedDays     []WorkedDay
	Bonuses        []Bonus
	Discounts      []Discount
	TaxCollections []TaxCollection

	// Roster resolves worker display names. Workers referenced by records but
	// absent here render as UnknownWorkerName.
	Roster []Worker

	// Functions resolves sector classification for worked days. A worked day
	// with no or unknown function falls into SectorAtendimento.
	Functions []Function

	// PaidFlags seeds per-line paid status; missing keys default to false.
	PaidFlags map[PaidKey]bool
}

// =============================================================================
// ENGINE
// =============================================================================

// ConsolidationEngine rebuilds the ledger from the source collections.
// Stateless; safe to share and to call repeatedly.
type ConsolidationEngine struct{}

// Consolidate runs the single-pass batch computation. The returned ledger is
// a fresh derived view: calling twice with the same input yields deeply equal
// output.
func (e *ConsolidationEngine) Consolidate(in ConsolidationInput) (*Ledger, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	names := make(map[WorkerID]string, len(in.Roster))
	for _, w := range in.Roster {
		names[w.ID] = w.DisplayName
	}
	sectors := make(map[FunctionID]Sector, len(in.Functions))
	for _, f := range in.Functions {
		sectors[f.ID] = f.Sector()
	}

	entries := make(map[Date]*ConsolidatedDateEntry)
	ensure := func(date Date) *ConsolidatedDateEntry {
		if entry, ok := entries[date]; ok {
			return entry
		}
		entry := &ConsolidatedDateEntry{
			Date:            date,
			WorkerBreakdown: make(map[WorkerID]*WorkerPayrollLine),
			SectorTotals: map[Sector]SectorTotal{
				SectorAtendimento: {Sum: decimal.Zero},
				SectorCozinha:     {Sum: decimal.Zero},
			},
			TotalWorkedValue:  decimal.Zero,
			TotalBonus:        decimal.Zero,
			TotalDiscount:     decimal.Zero,
			TotalTaxShare:     decimal.Zero,
			GrandTotal:        decimal.Zero,
			AverageDailyValue: decimal.Zero,
		}
		entries[date] = entry
		return entry
	}
	line := func(entry *ConsolidatedDateEntry, id WorkerID) *WorkerPayrollLine {
		if ln, ok := entry.WorkerBreakdown[id]; ok {
			return ln
		}
		name, ok := names[id]
		if !ok {
			name = UnknownWorkerName
		}
		ln := &WorkerPayrollLine{
			WorkerID:      id,
			DisplayName:   name,
			Sector:        SectorAtendimento,
			WorkedValue:   decimal.Zero,
			BonusValue:    decimal.Zero,
			DiscountValue: decimal.Zero,
			TaxShare:      decimal.Zero,
			NetTotal:      decimal.Zero,
		}
		entry.WorkerBreakdown[id] = ln
		return ln
	}

	// Step 1: worked days.
	attended := make(map[PaidKey]bool)
	for _, wd := range in.WorkedDays {
		entry := ensure(wd.Date)
		ln := line(entry, wd.WorkerID)

		sector := SectorAtendimento
		if s, ok := sectors[wd.FunctionID]; ok {
			sector = s
		}
		// The line carries the sector of the worker's first worked day that
		// date; bonus-only lines keep the default.
		key := PaidKey{Date: wd.Date, WorkerID: wd.WorkerID}
		if !attended[key] {
			ln.Sector = sector
			attended[key] = true
		}

		ln.WorkedValue = ln.WorkedValue.Add(wd.DailyValue)
		entry.TotalWorkedValue = entry.TotalWorkedValue.Add(wd.DailyValue)

		st := entry.SectorTotals[sector]
		st.Count++
		st.Sum = st.Sum.Add(wd.DailyValue)
		entry.SectorTotals[sector] = st
	}

	// Step 2: bonuses.
	for _, b := range in.Bonuses {
		entry := ensure(b.Date)
		ln := line(entry, b.WorkerID)
		ln.BonusValue = ln.BonusValue.Add(b.Amount)
		entry.TotalBonus = entry.TotalBonus.Add(b.Amount)
	}

	// Step 3: discounts.
	for _, d := range in.Discounts {
		entry := ensure(d.Date)
		ln := line(entry, d.WorkerID)
		ln.DiscountValue = ln.DiscountValue.Add(d.Amount)
		entry.TotalDiscount = entry.TotalDiscount.Add(d.Amount)
	}

	// Step 4+5: tax pool distribution.
	distributeTaxPool(in.TaxCollections, entries, ensure)

	// Step 6: derived fields.
	for _, entry := range entries {
		for _, ln := range entry.WorkerBreakdown {
			ln.Paid = in.PaidFlags[PaidKey{Date: entry.Date, WorkerID: ln.WorkerID}]
			ln.NetTotal = ln.WorkedValue.Add(ln.BonusValue).Add(ln.TaxShare).Sub(ln.DiscountValue)
		}
		entry.GrandTotal = entry.TotalWorkedValue.
			Add(entry.TotalBonus).
			Add(entry.TotalTaxShare).
			Sub(entry.TotalDiscount)
		if n := len(entry.WorkerBreakdown); n > 0 {
			entry.AverageDailyValue = entry.TotalWorkedValue.Div(decimal.NewFromInt(int64(n)))
		}
		entry.recomputeAllPaid()
	}

	// Step 7: newest first.
	result := make([]*ConsolidatedDateEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})

	return &Ledger{Entries: result}, nil
}

// distributeTaxPool implements the pooled split. Every tax collection is
// attributed to its date's entry (creating one if needed), but the pool is
// divided only among dates with payroll activity: a date that only collected
// tax has no workers to pay and receives no share.
func distributeTaxPool(collections []TaxCollection, entries map[Date]*ConsolidatedDateEntry, ensure func(Date) *ConsolidatedDateEntry) {
	pool := decimal.Zero
	for _, tc := range collections {
		ensure(tc.Date)
		pool = pool.Add(tc.AmountCollected)
	}

	var active []*ConsolidatedDateEntry
	for _, entry := range entries {
		if len(entry.WorkerBreakdown) > 0 {
			active = append(active, entry)
		}
	}
	if pool.IsZero() || len(active) == 0 {
		return
	}

	dateShare := pool.Div(decimal.NewFromInt(int64(len(active))))
	for _, entry := range active {
		entry.TotalTaxShare = dateShare
		workerShare := dateShare.Div(decimal.NewFromInt(int64(len(entry.WorkerBreakdown))))
		for _, ln := range entry.WorkerBreakdown {
			ln.TaxShare = workerShare
		}
	}
}

// validateInput fails fast on the first negative money/hours field, naming
// the offending record.
func validateInput(in ConsolidationInput) error {
	for _, wd := range in.WorkedDays {
		if wd.Hours.IsNegative() {
			return &ValidationError{Record: RecordWorkedDay, Date: wd.Date, WorkerID: wd.WorkerID, Field: "hours", Value: wd.Hours}
		}
		if wd.DailyValue.IsNegative() {
			return &ValidationError{Record: RecordWorkedDay, Date: wd.Date, WorkerID: wd.WorkerID, Field: "daily_value", Value: wd.DailyValue}
		}
	}
	for _, b := range in.Bonuses {
		if b.Amount.IsNegative() {
			return &ValidationError{Record: RecordBonus, Date: b.Date, WorkerID: b.WorkerID, Field: "amount", Value: b.Amount}
		}
	}
	for _, d := range in.Discounts {
		if d.Amount.IsNegative() {
			return &ValidationError{Record: RecordDiscount, Date: d.Date, WorkerID: d.WorkerID, Field: "amount", Value: d.Amount}
		}
	}
	for _, tc := range in.TaxCollections {
		if tc.AmountCollected.IsNegative() {
			return &ValidationError{Record: RecordTaxCollection, Date: tc.Date, Field: "amount_collected", Value: tc.AmountCollected}
		}
	}
	return nil
}
