/*
errors.go - Centralized error types for the HOA engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (HTTP layer, reports) should match with errors.Is/errors.As.

ERROR CATEGORIES:
  1. Lookup errors - referenced records that don't exist
  2. Validation errors - business rule violations at the write path
  3. State errors - invalid outcome/payment lifecycle transitions

NOTE:
  Policy resolution never fails on missing data: absence of a policy
  resolves to a zero-fee floor, not an error. Errors here guard writes.
*/
package hoa

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPropertyNotFound is returned when a referenced property doesn't exist.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrOwnerNotFound is returned when a referenced owner doesn't exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrUnitNotFound is returned when a referenced unit doesn't exist.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrContributorNotFound is returned when a contribution or external
	// contributor record cannot be resolved for a payment.
	ErrContributorNotFound = errors.New("contributor not found")

	// ErrOutcomeNotFound is returned when a referenced outcome doesn't exist.
	ErrOutcomeNotFound = errors.New("outcome not found")

	// ErrCategoryNotFound is returned when a referenced expense category
	// doesn't exist.
	ErrCategoryNotFound = errors.New("expense category not found")

	// ErrNegativeAmount is returned when a payment or contribution amount
	// is negative. Paid totals are monotonic; there is no refund path.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrReasonRequired is returned when cancelling a confirmed outcome
	// without a reason. The compensating entry must carry one.
	ErrReasonRequired = errors.New("cancellation reason required")

	// ErrNotConfirmed is returned when cancelling an outcome that is not
	// in the confirmed state.
	ErrNotConfirmed = errors.New("outcome is not confirmed")

	// ErrAlreadyConfirmed is returned when confirming an already-confirmed
	// outcome. Re-confirming is only valid after a cancellation.
	ErrAlreadyConfirmed = errors.New("outcome already confirmed")

	// ErrDuplicateCode is returned when a unit code or ownership title code
	// collides within a property. Uniqueness is enforced at the write path,
	// not just by the advisory predicates.
	ErrDuplicateCode = errors.New("duplicate code")

	// ErrInUse is returned when deleting a unit type or archiving an
	// expense category that ledger records still reference.
	ErrInUse = errors.New("record is in use")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateCodeError reports which code collided and where.
type DuplicateCodeError struct {
	PropertyID PropertyID
	Field      string // "unit_code" or "ownership_title_code"
	Code       string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s %q already exists in property %s", e.Field, e.Code, e.PropertyID)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicateCode }

// InUseError reports why a destructive operation was blocked.
type InUseError struct {
	Kind string // "unit_type" or "expense_category"
	ID   string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %s is referenced by existing records", e.Kind, e.ID)
}

func (e *InUseError) Unwrap() error { return ErrInUse }

// NegativeAmountError reports the offending amount.
type NegativeAmountError struct {
	Op     string
	Amount decimal.Decimal
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("%s: amount %v must not be negative", e.Op, e.Amount)
}

func (e *NegativeAmountError) Unwrap() error { return ErrNegativeAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrOwnerNotFound) ||
		errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrContributorNotFound) ||
		errors.Is(err, ErrOutcomeNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrNotConfirmed) ||
		errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrInUse)
}
