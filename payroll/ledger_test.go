package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirgocs/daywin/payroll"
)

func twoWorkerLedger(t *testing.T) *payroll.Ledger {
	t.Helper()
	d := payroll.NewDate(2024, time.February, 5)
	return consolidate(t, payroll.ConsolidationInput{
		WorkedDays: []payroll.WorkedDay{
			workedDay(d, "w-ana", 8, 100),
			workedDay(d, "w-bruno", 8, 100),
		},
		Roster: roster(),
	})
}

func TestSetPaid_MonotonicAggregateStatus(t *testing.T) {
	// GIVEN: Two unpaid workers on one date
	// WHEN: Marking both paid, then flipping one back
	// THEN: all_paid follows the AND of the line flags

	ledger := twoWorkerLedger(t)
	d := payroll.NewDate(2024, time.February, 5)

	entry, err := ledger.SetPaid(d, "w-ana", true)
	require.NoError(t, err)
	assert.False(t, entry.AllPaid, "one of two paid is not all paid")

	entry, err = ledger.SetPaid(d, "w-bruno", true)
	require.NoError(t, err)
	assert.True(t, entry.AllPaid)

	entry, err = ledger.SetPaid(d, "w-ana", false)
	require.NoError(t, err)
	assert.False(t, entry.AllPaid)
	assert.True(t, entry.Line("w-bruno").Paid, "other line untouched")
}

func TestSetPaid_MissingLine_NotFound(t *testing.T) {
	ledger := twoWorkerLedger(t)
	d := payroll.NewDate(2024, time.February, 5)

	_, err := ledger.SetPaid(d, "w-ghost", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrLineNotFound))

	var nferr *payroll.NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, payroll.WorkerID("w-ghost"), nferr.WorkerID)
}

func TestSetPaid_MissingDate_NotFound(t *testing.T) {
	ledger := twoWorkerLedger(t)

	_, err := ledger.SetPaid(payroll.NewDate(2024, time.February, 6), "w-ana", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, payroll.ErrLineNotFound))

	// No partial mutation.
	assert.False(t, ledger.Entries[0].Line("w-ana").Paid)
}

func TestLedger_Entry_Lookup(t *testing.T) {
	ledger := twoWorkerLedger(t)

	assert.NotNil(t, ledger.Entry(payroll.NewDate(2024, time.February, 5)))
	assert.Nil(t, ledger.Entry(payroll.NewDate(2023, time.February, 5)))
}
