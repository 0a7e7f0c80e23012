/*
payment.go - Monthly dues ledger

PURPOSE:
  Maintains one MonthlyPayment record per owner per calendar month and an
  append-only history of every payment transaction against it.

CRITICAL INVARIANTS:
  1. ADDITIVE: RecordPayment only ever increases AmountPaid. There is no
     refund path through this engine.
  2. APPEND-ONLY HISTORY: One PaymentHistoryEntry per RecordPayment call.
     For any payment, the sum of (NewAmount - PreviousAmount) across its
     history equals the current AmountPaid.
  3. STATUS FROM TOTALS: UNPAID/PARTIALLY_PAID/PAID is derived from the
     cumulative paid total against the adjusted amount due. PAUSED is set
     only by the explicit administrative override and is sticky.

OVER-PAYMENT:
  Paying past the adjusted due is accepted; the record simply stays PAID
  with a total above the due. Credits toward future months are a UI
  concern, not a ledger one.

SEE ALSO:
  - adjust.go: Where the adjusted amount due comes from
  - overdue.go: Deficit accumulation over past months
*/
package hoa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY PAYMENT - Current state of one owner-month
// =============================================================================

type MonthlyPayment struct {
	ID         PaymentID       `json:"id"`
	PropertyID PropertyID      `json:"propertyId"`
	OwnerID    OwnerID         `json:"ownerId"`
	Period     YearMonth       `json:"period"`
	AmountDue  decimal.Decimal `json:"amountDue"` // informational, as computed at record time
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Status     PaymentStatus   `json:"status"`
}

// PaymentHistoryEntry is the immutable audit record of one payment
// transaction. Never updated, never deleted.
type PaymentHistoryEntry struct {
	TransactionID   TransactionID   `json:"transactionId"`
	PaymentID       PaymentID       `json:"paymentId"`
	PreviousAmount  decimal.Decimal `json:"previousAmount"`
	NewAmount       decimal.Decimal `json:"newAmount"`
	AmountPaid      decimal.Decimal `json:"amountPaid"` // this transaction only
	TransactionDate time.Time       `json:"transactionDate"`
	Notes           string          `json:"notes"`
}

// PaymentInput describes one incoming dues payment.
type PaymentInput struct {
	PropertyID PropertyID
	OwnerID    OwnerID
	Period     YearMonth
	AmountDue  decimal.Decimal // informational
	Amount     decimal.Decimal // this transaction, strictly additive
}

// =============================================================================
// LEDGER - The single mutation surface for all money-moving operations
// =============================================================================

// Ledger owns every write to payments, outcomes, projects, and
// contributions. Reads (reports) go straight to the store; writes go
// through here so invariants hold at the write path.
type Ledger struct {
	Store Store
	Clock Clock
}

func NewLedger(store Store, clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock
	}
	return &Ledger{Store: store, Clock: clock}
}

// paymentStatusFor derives the dues status from a cumulative total.
func paymentStatusFor(total, adjustedDue decimal.Decimal) PaymentStatus {
	switch {
	case !total.IsPositive():
		return PaymentUnpaid
	case total.LessThan(adjustedDue):
		return PaymentPartiallyPaid
	default:
		return PaymentPaid
	}
}

// RecordPayment applies one additive payment to an owner-month and appends
// the corresponding history entry. adjustedDue is the externally computed
// amount owed (see AdjustedDue) used for status classification.
func (l *Ledger) RecordPayment(ctx context.Context, in PaymentInput, adjustedDue decimal.Decimal) (*MonthlyPayment, error) {
	if in.Amount.IsNegative() {
		return nil, &NegativeAmountError{Op: "record payment", Amount: in.Amount}
	}

	id := MonthlyPaymentID(in.PropertyID, in.OwnerID, in.Period)
	existing, err := l.Store.Payment(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := decimal.Zero
	if existing != nil {
		previous = existing.AmountPaid
	}
	total := previous.Add(in.Amount)

	payment := MonthlyPayment{
		ID:         id,
		PropertyID: in.PropertyID,
		OwnerID:    in.OwnerID,
		Period:     in.Period,
		AmountDue:  in.AmountDue,
		AmountPaid: total,
		Status:     paymentStatusFor(total, adjustedDue),
	}

	notes := "partial_payment"
	if payment.Status == PaymentPaid {
		notes = "full_payment"
	}

	if err := l.Store.SavePayment(ctx, payment); err != nil {
		return nil, err
	}
	entry := PaymentHistoryEntry{
		TransactionID:   TransactionID(uuid.NewString()),
		PaymentID:       id,
		PreviousAmount:  previous,
		NewAmount:       total,
		AmountPaid:      in.Amount,
		TransactionDate: l.Clock(),
		Notes:           notes,
	}
	if err := l.Store.AppendPaymentHistory(ctx, entry); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SetPaymentStatus is the administrative status override, used to pause
// (and resume) an owner-month. It is not a financial transaction: no
// history entry is appended, and amounts are untouched. If no record
// exists yet, one is synthesized with a zero paid total.
func (l *Ledger) SetPaymentStatus(ctx context.Context, propertyID PropertyID, ownerID OwnerID, period YearMonth, status PaymentStatus) (*MonthlyPayment, error) {
	id := MonthlyPaymentID(propertyID, ownerID, period)
	existing, err := l.Store.Payment(ctx, id)
	if err != nil {
		return nil, err
	}

	payment := MonthlyPayment{
		ID:         id,
		PropertyID: propertyID,
		OwnerID:    ownerID,
		Period:     period,
		AmountDue:  decimal.Zero,
		AmountPaid: decimal.Zero,
	}
	if existing != nil {
		payment = *existing
	}
	payment.Status = status

	if err := l.Store.SavePayment(ctx, payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
