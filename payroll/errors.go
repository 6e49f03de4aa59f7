/*
errors.go - Error types for the consolidation engine

PURPOSE:
  All engine error types in one place. Callers match categories with
  errors.Is and extract detail with errors.As.

ERROR CATEGORIES:
  1. Validation errors - A source record carries a negative money/hours field.
     The whole batch is rejected: silently dropping a malformed money record
     is worse than failing the computation.
  2. Not-found errors - A paid-flag mutation targets a (date, worker) pair
     that does not exist in the ledger.

USAGE:
  if errors.Is(err, payroll.ErrNegativeAmount) { ... }

  var verr *payroll.ValidationError
  if errors.As(err, &verr) { log(verr.Record, verr.Field) }
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNegativeAmount is returned when a source record has a negative
	// amount, hours, or daily-value field.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrLineNotFound is returned when a (date, worker) pair has no payroll
	// line in the ledger.
	ErrLineNotFound = errors.New("payroll line not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending record's coordinates
// =============================================================================

// Record kind names used in ValidationError.
const (
	RecordWorkedDay     = "worked day"
	RecordBonus         = "bonus"
	RecordDiscount      = "discount"
	RecordTaxCollection = "tax collection"
)

// ValidationError names the exact record and field that failed validation.
// Payroll data entry is manual and error-prone, so the message must point at
// the bad record, not report a generic failure.
type ValidationError struct {
	Record   string // RecordWorkedDay, RecordBonus, ...
	Date     Date
	WorkerID WorkerID // empty for tax collections
	Field    string
	Value    decimal.Decimal
}

func (e *ValidationError) Error() string {
	if e.WorkerID == "" {
		return fmt.Sprintf("%s on %s: %s is negative (%s)",
			e.Record, e.Date, e.Field, e.Value)
	}
	return fmt.Sprintf("%s for worker %s on %s: %s is negative (%s)",
		e.Record, e.WorkerID, e.Date, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrNegativeAmount }

// NotFoundError reports a paid-flag mutation against a missing payroll line.
// No partial mutation occurs.
type NotFoundError struct {
	Date     Date
	WorkerID WorkerID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no payroll line for worker %s on %s", e.WorkerID, e.Date)
}

func (e *NotFoundError) Unwrap() error { return ErrLineNotFound }
