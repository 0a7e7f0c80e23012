/*
Package hoa provides the core fee policy and ledger engine for a
homeowners'-association management system.

PURPOSE:
  This package contains the domain types and engines for managing an HOA's
  money flows: monthly dues under per-unit-type fee policies, recurring
  expense outcomes, and one-off "exceptional" project budgets with their
  own contribution and expense ledgers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Fee: A penalty or discount rule (fixed amount or percentage of base)
  - YearMonth: A calendar month, the temporal unit of the whole ledger
  - MonthCategory: past/current/future classification relative to a clock
  - Clock: Injected time source so temporal logic is deterministic in tests
  - Status enums: payment and contribution lifecycle states

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing owner/unit/project IDs
  3. Determinism: "Now" is always injected, never read from the wall clock
     inside a calculation
  4. Auditability: Every money-moving operation appends an immutable
     history entry

SEE ALSO:
  - policy.go: Fee policy resolution with year inheritance
  - adjust.go: Adjusted amount-due calculation
  - payment.go: Monthly payment ledger
  - project.go / contribution.go: Exceptional project budgets
*/
package hoa

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PropertyID string
type OwnerID string
type UnitID string
type UnitTypeID string
type CategoryID string
type ProjectID string
type PaymentID string
type OutcomeID string
type TransactionID string

// MonthlyPaymentID builds the composite payment key for one owner's dues
// in one calendar month: {propertyID}-{ownerID}-{year}-{month}.
func MonthlyPaymentID(propertyID PropertyID, ownerID OwnerID, ym YearMonth) PaymentID {
	return PaymentID(fmt.Sprintf("%s-%s-%d-%d", propertyID, ownerID, ym.Year, int(ym.Month)))
}

// MonthlyOutcomeID builds the composite key for one category's recurring
// expense in one calendar month: {propertyID}-{year}-{month}-{categoryID}.
func MonthlyOutcomeID(propertyID PropertyID, ym YearMonth, categoryID CategoryID) OutcomeID {
	return OutcomeID(fmt.Sprintf("%s-%d-%d-%s", propertyID, ym.Year, int(ym.Month), categoryID))
}

// =============================================================================
// FEE - Penalty or discount rule attached to a policy
// =============================================================================

type FeeKind string

const (
	FeeFixed      FeeKind = "FIXED"
	FeePercentage FeeKind = "PERCENTAGE"
)

// Fee is an adjustment rule: a flat amount, or a percentage of the base fee.
type Fee struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   FeeKind         `json:"type"`
}

// ZeroFee is the floor adjustment used when no policy history exists.
func ZeroFee() Fee {
	return Fee{Amount: decimal.Zero, Kind: FeePercentage}
}

// ApplyTo returns the adjustment value this fee produces against a base.
// Fixed fees ignore the base; percentage fees scale it.
func (f Fee) ApplyTo(base decimal.Decimal) decimal.Decimal {
	if f.Kind == FeeFixed {
		return f.Amount
	}
	return base.Mul(f.Amount).Div(decimal.NewFromInt(100))
}

// IsZero reports whether the fee produces no adjustment.
func (f Fee) IsZero() bool {
	return !f.Amount.IsPositive()
}

// =============================================================================
// YEAR-MONTH - The calendar month, temporal unit of the ledger
// =============================================================================

type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func NewYearMonth(year int, month time.Month) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// MonthOf truncates a timestamp to its calendar month.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) After(other YearMonth) bool  { return other.Before(ym) }
func (ym YearMonth) Equal(other YearMonth) bool  { return ym == other }
func (ym YearMonth) BeforeOrEqual(o YearMonth) bool { return ym.Before(o) || ym == o }

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// =============================================================================
// MONTH CATEGORY - Drives penalty/discount applicability
// =============================================================================

type MonthCategory string

const (
	MonthPast    MonthCategory = "past"
	MonthCurrent MonthCategory = "current"
	MonthFuture  MonthCategory = "future"
)

// Categorize classifies a month against the reference "now" month.
func Categorize(ym, now YearMonth) MonthCategory {
	switch {
	case ym.Before(now):
		return MonthPast
	case ym.After(now):
		return MonthFuture
	default:
		return MonthCurrent
	}
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "now" to every temporal decision in the engine.
// Production code uses SystemClock; tests pin a fixed month.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

// FixedClock returns a clock pinned to the given instant.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// CurrentMonth returns the clock's calendar month.
func (c Clock) CurrentMonth() YearMonth {
	return MonthOf(c())
}

// =============================================================================
// STATUS ENUMS
// =============================================================================

// PaymentStatus is the lifecycle of a monthly dues record.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	// PaymentPaused is an administrative override: the month is excluded
	// from overdue accumulation until explicitly resumed.
	PaymentPaused PaymentStatus = "PAUSED"
)

// ContributionStatus is the lifecycle of an exceptional-project share.
type ContributionStatus string

const (
	ContributionNotPaid       ContributionStatus = "NOT_PAID"
	ContributionPartiallyPaid ContributionStatus = "PARTIALLY_PAID"
	ContributionFullyPaid     ContributionStatus = "FULLY_PAID"
)

// ContributionStatusFor derives the status from cumulative paid vs expected.
// FULLY_PAID requires a positive expectation; the comparison is >= so an
// over-payment stays fully paid.
func ContributionStatusFor(expected, paid decimal.Decimal) ContributionStatus {
	switch {
	case expected.IsPositive() && paid.GreaterThanOrEqual(expected):
		return ContributionFullyPaid
	case paid.IsPositive():
		return ContributionPartiallyPaid
	default:
		return ContributionNotPaid
	}
}
