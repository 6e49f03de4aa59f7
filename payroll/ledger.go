/*
ledger.go - Ledger lookup and the paid-flag mutation path

PURPOSE:
  The ledger is a derived, recomputable view: everything in it can be rebuilt
  from the source collections at any time. The per-line paid flag is the one
  exception - it is the only mutable state the engine manages, and SetPaid is
  the only mutation path in the whole subsystem.

CONCURRENCY:
  A ledger instance is not internally locked. The system assumes a
  single-user desktop context; a caller sharing one ledger across goroutines
  must serialize mutations itself.
*/
package payroll

// Ledger is the ordered (date-descending) output of a consolidation run.
type Ledger struct {
	Entries []*ConsolidatedDateEntry `json:"entries"`
}

// Entry returns the consolidated entry for a date, or nil.
func (l *Ledger) Entry(date Date) *ConsolidatedDateEntry {
	for _, entry := range l.Entries {
		if entry.Date.Equal(date) {
			return entry
		}
	}
	return nil
}

// SetPaid flips one worker's paid flag and recomputes the date's aggregate
// status. Returns the updated entry, or a NotFoundError if the (date, worker)
// pair has no payroll line; no partial mutation occurs on failure.
func (l *Ledger) SetPaid(date Date, workerID WorkerID, paid bool) (*ConsolidatedDateEntry, error) {
	entry := l.Entry(date)
	if entry == nil {
		return nil, &NotFoundError{Date: date, WorkerID: workerID}
	}
	line := entry.Line(workerID)
	if line == nil {
		return nil, &NotFoundError{Date: date, WorkerID: workerID}
	}

	line.Paid = paid
	entry.recomputeAllPaid()
	return entry, nil
}
