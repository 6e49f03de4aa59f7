package payroll_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirgocs/daywin/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) payroll.Date {
	return payroll.NewDate(year, month, day)
}

func workedDay(d payroll.Date, worker string, hours, value float64) payroll.WorkedDay {
	return payroll.WorkedDay{
		Date:       d,
		WorkerID:   payroll.WorkerID(worker),
		Hours:      dec(hours),
		DailyValue: dec(value),
	}
}

func roster() []payroll.Worker {
	return []payroll.Worker{
		{ID: "w-ana", DisplayName: "Ana"},
		{ID: "w-bruno", DisplayName: "Bruno"},
		{ID: "w-clara", DisplayName: "Clara"},
	}
}

func consolidate(t *testing.T, in payroll.ConsolidationInput) *payroll.Ledger {
	t.Helper()
	engine := &payroll.ConsolidationEngine{}
	ledger, err := engine.Consolidate(in)
	require.NoError(t, err)
	return ledger
}

// =============================================================================
// SCENARIO TEST - The canonical two-worker day
// =============================================================================

func TestConsolidate_TwoWorkerScenario(t *testing.T) {
	// GIVEN: Two workers on 2024-01-15, one bonus, one discount, 300 tax
	// WHEN: Consolidating with N=1 date, M=2 workers
	// THEN: date share = 300, each tax share = 150,
	//       Ana nets 200+20+150-0 = 370, Bruno nets 150+0+150-10 = 290,
	//       grand total = 660

	jan15 := date(2024, time.January, 15)
	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(jan15, "w-ana", 8, 200),
			workedDay(jan15, "w-bruno", 6, 150),
		},
		Bonuses: []payroll.Bonus{
			{Date: jan15, WorkerID: "w-ana", Amount: dec(20)},
		},
		Discounts: []payroll.Discount{
			{Date: jan15, WorkerID: "w-bruno", Amount: dec(10)},
		},
		TaxCollections: []payroll.TaxCollection{
			{Date: jan15, AmountCollected: dec(300)},
		},
		Roster: roster(),
	})

	require.Len(t, ledger.Entries, 1)
	entry := ledger.Entries[0]

	ana := entry.Line("w-ana")
	require.NotNil(t, ana)
	assert.Equal(t, "Ana", ana.DisplayName)
	assert.True(t, ana.TaxShare.Equal(dec(150)), "ana tax share = %s", ana.TaxShare)
	assert.True(t, ana.NetTotal.Equal(dec(370)), "ana net = %s", ana.NetTotal)

	bruno := entry.Line("w-bruno")
	require.NotNil(t, bruno)
	assert.True(t, bruno.TaxShare.Equal(dec(150)), "bruno tax share = %s", bruno.TaxShare)
	assert.True(t, bruno.NetTotal.Equal(dec(290)), "bruno net = %s", bruno.NetTotal)

	assert.True(t, entry.TotalTaxShare.Equal(dec(300)))
	assert.True(t, entry.GrandTotal.Equal(dec(660)), "grand total = %s", entry.GrandTotal)
	assert.True(t, entry.AverageDailyValue.Equal(dec(175)), "average = %s", entry.AverageDailyValue)
	assert.False(t, entry.AllPaid)
}

// =============================================================================
// INVARIANT TESTS
// =============================================================================

func TestConsolidate_LineReconciliation(t *testing.T) {
	// For every line: net = worked + bonus + tax share - discount.

	ledger := consolidate(t, multiDateInput())

	for _, entry := range ledger.Entries {
		for _, line := range entry.WorkerBreakdown {
			want := line.WorkedValue.Add(line.BonusValue).Add(line.TaxShare).Sub(line.DiscountValue)
			assert.True(t, line.NetTotal.Equal(want),
				"line %s/%s: net %s, expected %s", entry.Date, line.WorkerID, line.NetTotal, want)
		}
		wantGrand := entry.TotalWorkedValue.Add(entry.TotalBonus).Add(entry.TotalTaxShare).Sub(entry.TotalDiscount)
		assert.True(t, entry.GrandTotal.Equal(wantGrand),
			"entry %s: grand %s, expected %s", entry.Date, entry.GrandTotal, wantGrand)
	}
}

func TestConsolidate_TaxConservation(t *testing.T) {
	// GIVEN: A pool of 500 over 3 active dates with uneven worker counts
	// THEN: The sum of every line's tax share recovers the pool within
	//       (dates + workers) minor currency units.

	in := multiDateInput()
	ledger := consolidate(t, in)

	pool := decimal.Zero
	for _, tc := range in.TaxCollections {
		pool = pool.Add(tc.AmountCollected)
	}

	distributed := decimal.Zero
	lines := 0
	for _, entry := range ledger.Entries {
		for _, line := range entry.WorkerBreakdown {
			distributed = distributed.Add(line.TaxShare)
			lines++
		}
	}

	tolerance := decimal.New(int64(len(ledger.Entries)+lines), -2)
	diff := pool.Sub(distributed).Abs()
	assert.True(t, diff.LessThanOrEqual(tolerance),
		"pool %s, distributed %s, diff %s", pool, distributed, diff)
}

func TestConsolidate_Idempotence(t *testing.T) {
	// Two runs over identical input must be deeply equal.

	in := multiDateInput()
	engine := &payroll.ConsolidationEngine{}

	first, err := engine.Consolidate(in)
	require.NoError(t, err)
	second, err := engine.Consolidate(in)
	require.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Error("consolidation is not idempotent: two runs over the same input differ")
	}
}

// multiDateInput spreads records over three dates with 1, 2 and 3 workers,
// plus a tax-only fourth date.
func multiDateInput() payroll.ConsolidationInput {
	d1 := date(2024, time.March, 1)
	d2 := date(2024, time.March, 2)
	d3 := date(2024, time.March, 3)
	taxOnly := date(2024, time.March, 4)

	return payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d1, "w-ana", 8, 180),
			workedDay(d2, "w-ana", 8, 180),
			workedDay(d2, "w-bruno", 4, 90.50),
			workedDay(d3, "w-ana", 8, 200),
			workedDay(d3, "w-bruno", 8, 175.25),
			workedDay(d3, "w-clara", 6, 120),
		},
		Bonuses: []payroll.Bonus{
			{Date: d1, WorkerID: "w-ana", Amount: dec(15)},
			{Date: d3, WorkerID: "w-clara", Amount: dec(30)},
		},
		Discounts: []payroll.Discount{
			{Date: d2, WorkerID: "w-bruno", Amount: dec(12.75)},
		},
		TaxCollections: []payroll.TaxCollection{
			{Date: d1, AmountCollected: dec(200)},
			{Date: taxOnly, AmountCollected: dec(300)},
		},
		Roster: roster(),
	}
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestConsolidate_PooledAcrossAllDates_NotTaxDate(t *testing.T) {
	// GIVEN: Tax collected only on March 1, workers active March 1 and 2
	// THEN: Both dates get half the pool - the split ignores the tax's own
	//       recorded date.

	d1 := date(2024, time.March, 1)
	d2 := date(2024, time.March, 2)

	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d1, "w-ana", 8, 100),
			workedDay(d2, "w-bruno", 8, 100),
		},
		TaxCollections: []payroll.TaxCollection{
			{Date: d1, AmountCollected: dec(100)},
		},
		Roster: roster(),
	})

	require.Len(t, ledger.Entries, 2)
	for _, entry := range ledger.Entries {
		assert.True(t, entry.TotalTaxShare.Equal(dec(50)),
			"entry %s: tax share %s, expected 50", entry.Date, entry.TotalTaxShare)
	}
}

func TestConsolidate_TaxOnlyDate_EntryWithZeroWorkers(t *testing.T) {
	// A tax collection on a date with no payroll activity still creates an
	// entry, but the date takes no pool share and has no workers.

	d1 := date(2024, time.May, 10)
	taxOnly := date(2024, time.May, 11)

	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d1, "w-ana", 8, 100),
		},
		TaxCollections: []payroll.TaxCollection{
			{Date: taxOnly, AmountCollected: dec(80)},
		},
		Roster: roster(),
	})

	require.Len(t, ledger.Entries, 2)

	empty := ledger.Entry(taxOnly)
	require.NotNil(t, empty)
	assert.Empty(t, empty.WorkerBreakdown)
	assert.True(t, empty.TotalTaxShare.IsZero())
	assert.True(t, empty.AllPaid, "all_paid is vacuously true with no workers")

	worked := ledger.Entry(d1)
	require.NotNil(t, worked)
	assert.True(t, worked.TotalTaxShare.Equal(dec(80)), "the whole pool lands on the only active date")
}

func TestConsolidate_BonusOnlyDate_CreatesEntryAndLine(t *testing.T) {
	// A bonus whose date has no worked days still creates an entry and a line
	// for its worker, and that worker counts in the tax split.

	d := date(2024, time.June, 1)
	ledger := consolidate(t, payroll.ConsolidationInput{
		Bonuses: []payroll.Bonus{
			{Date: d, WorkerID: "w-ana", Amount: dec(25)},
		},
		TaxCollections: []payroll.TaxCollection{
			{Date: d, AmountCollected: dec(75)},
		},
		Roster: roster(),
	})

	require.Len(t, ledger.Entries, 1)
	entry := ledger.Entries[0]
	line := entry.Line("w-ana")
	require.NotNil(t, line)
	assert.True(t, line.WorkedValue.IsZero())
	assert.True(t, line.BonusValue.Equal(dec(25)))
	assert.True(t, line.TaxShare.Equal(dec(75)))
	assert.True(t, line.NetTotal.Equal(dec(100)))
	assert.True(t, entry.AverageDailyValue.IsZero())
}

func TestConsolidate_UnknownWorker_RendersPlaceholder(t *testing.T) {
	// A worker id absent from the roster is accepted, not rejected.

	d := date(2024, time.July, 3)
	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d, "w-ghost", 8, 90),
		},
		Roster: roster(),
	})

	line := ledger.Entries[0].Line("w-ghost")
	require.NotNil(t, line)
	assert.Equal(t, payroll.UnknownWorkerName, line.DisplayName)
}

func TestConsolidate_SectorClassification(t *testing.T) {
	// GIVEN: One kitchen function and one service function
	// THEN: Worked days bucket by case-insensitive "cozinha" substring match

	d := date(2024, time.August, 4)
	functions := []payroll.Function{
		fn("aux-cozinha", "Auxiliar de COZINHA", 1.3),
		fn("garcom", "Garçom", 1.0),
	}

	wdKitchen := workedDay(d, "w-ana", 8, 150)
	wdKitchen.FunctionID = "aux-cozinha"
	wdService := workedDay(d, "w-bruno", 8, 100)
	wdService.FunctionID = "garcom"
	wdNoFunction := workedDay(d, "w-clara", 4, 60)

	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{wdKitchen, wdService, wdNoFunction},
		Roster:     roster(),
		Functions:  functions,
	})

	entry := ledger.Entries[0]
	kitchen := entry.SectorTotals[payroll.SectorCozinha]
	assert.Equal(t, 1, kitchen.Count)
	assert.True(t, kitchen.Sum.Equal(dec(150)))

	// Unknown/empty function falls into atendimento.
	service := entry.SectorTotals[payroll.SectorAtendimento]
	assert.Equal(t, 2, service.Count)
	assert.True(t, service.Sum.Equal(dec(160)))

	assert.Equal(t, payroll.SectorCozinha, entry.Line("w-ana").Sector)
	assert.Equal(t, payroll.SectorAtendimento, entry.Line("w-bruno").Sector)
}

func TestConsolidate_SortedDateDescending(t *testing.T) {
	ledger := consolidate(t, multiDateInput())

	for i := 1; i < len(ledger.Entries); i++ {
		prev, cur := ledger.Entries[i-1].Date, ledger.Entries[i].Date
		if !prev.After(cur) {
			t.Errorf("entries out of order: %s before %s", prev, cur)
		}
	}
}

func TestConsolidate_MultipleWorkedDaysSameWorker_Summed(t *testing.T) {
	// Split shifts on the same date accumulate into one line.

	d := date(2024, time.September, 9)
	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d, "w-ana", 4, 80),
			workedDay(d, "w-ana", 4, 85.50),
		},
		Roster: roster(),
	})

	entry := ledger.Entries[0]
	require.Len(t, entry.WorkerBreakdown, 1)
	assert.True(t, entry.Line("w-ana").WorkedValue.Equal(dec(165.50)))
	// Average divides by distinct workers, not by records.
	assert.True(t, entry.AverageDailyValue.Equal(dec(165.50)))
}

func TestConsolidate_PaidFlagsApplied(t *testing.T) {
	d := date(2024, time.October, 1)
	ledger := consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d, "w-ana", 8, 100),
			workedDay(d, "w-bruno", 8, 100),
		},
		Roster: roster(),
		PaidFlags: map[payroll.PaidKey]bool{
			{Date: d, WorkerID: "w-ana"}:   true,
			{Date: d, WorkerID: "w-bruno"}: true,
		},
	})

	entry := ledger.Entries[0]
	assert.True(t, entry.Line("w-ana").Paid)
	assert.True(t, entry.AllPaid)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestConsolidate_NegativeAmount_RejectsBatchNamingRecord(t *testing.T) {
	d := date(2024, time.November, 2)
	engine := &payroll.ConsolidationEngine{}

	_, err := engine.Consolidate(payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{workedDay(d, "w-ana", 8, 100)},
		Bonuses: []payroll.Bonus{
			{Date: d, WorkerID: "w-bruno", Amount: dec(-5)},
		},
		Roster: roster(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrNegativeAmount))

	var verr *payroll.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, payroll.RecordBonus, verr.Record)
	assert.Equal(t, payroll.WorkerID("w-bruno"), verr.WorkerID)
	assert.Equal(t, "amount", verr.Field)
	assert.Contains(t, err.Error(), "w-bruno")
	assert.Contains(t, err.Error(), "2024-11-02")
}

func TestConsolidate_NegativeHours_Rejected(t *testing.T) {
	d := date(2024, time.November, 3)
	engine := &payroll.ConsolidationEngine{}

	wd := workedDay(d, "w-ana", -1, 100)
	_, err := engine.Consolidate(payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{wd},
		Roster:     roster(),
	})

	require.Error(t, err)
	var verr *payroll.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hours", verr.Field)
}

func TestConsolidate_NegativeTaxCollection_Rejected(t *testing.T) {
	engine := &payroll.ConsolidationEngine{}

	_, err := engine.Consolidate(payroll.ConsolidationInput{
		TaxCollections: []payroll.TaxCollection{
			{Date: date(2024, time.November, 4), AmountCollected: dec(-30)},
		},
	})

	require.Error(t, err)
	var verr *payroll.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, payroll.RecordTaxCollection, verr.Record)
	assert.Equal(t, "amount_collected", verr.Field)
}

func TestConsolidate_EmptyInput_EmptyLedger(t *testing.T) {
	engine := &payroll.ConsolidationEngine{}
	ledger, err := engine.Consolidate(payroll.ConsolidationInput{})
	require.NoError(t, err)
	assert.Empty(t, ledger.Entries)
}
