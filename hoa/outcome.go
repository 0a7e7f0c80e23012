/*
outcome.go - Expense outcomes and the confirm/cancel state machine

PURPOSE:
  An outcome is a recorded expense: a recurring category expense for one
  month (MonthlyOutcome), or a one-off project expense
  (ExceptionalOutcome). Both move through the same lifecycle:

    Pending --confirm--> Confirmed --cancel(reason)--> Pending --confirm--> ...

COMPENSATING ENTRIES:
  Confirming appends a positive-amount transaction. Cancelling does NOT
  delete anything: it flips the record back to pending and appends a
  NEGATED transaction carrying the mandatory reason. The transaction log
  is a full replay history; a confirm-cancel-confirm cycle leaves three
  entries (+, -, +).

IMMUTABILITY:
  An outcome's description, amount, and date are fixed at creation. The
  only supported mutations are the confirm and cancel transitions.

SEE ALSO:
  - payment.go: The Ledger struct these methods hang off
  - contribution.go: The income side of exceptional projects
*/
package hoa

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTCOME RECORDS
// =============================================================================

// OutcomeState is the shared confirm/cancel lifecycle state.
type OutcomeState struct {
	IsConfirmed bool       `json:"isConfirmed"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"` // last cancellation reason
}

// MonthlyOutcome is one category's recurring expense for one month.
type MonthlyOutcome struct {
	ID         OutcomeID       `json:"id"`
	PropertyID PropertyID      `json:"propertyId"`
	Period     YearMonth       `json:"period"`
	CategoryID CategoryID      `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	PhotoURL   string          `json:"photoUrl,omitempty"`
	OutcomeState
}

// ExceptionalOutcome is a one-off expense against a project budget.
// Description, amount, and date are immutable once created.
type ExceptionalOutcome struct {
	ID          OutcomeID       `json:"id"`
	ProjectID   ProjectID       `json:"projectId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PhotoURL    string          `json:"photoUrl,omitempty"`
	OutcomeState
}

// OutcomeTransaction is one replay-history entry for an outcome: positive
// on confirm, negated on cancel. Append-only.
type OutcomeTransaction struct {
	ID        TransactionID   `json:"id"`
	OutcomeID OutcomeID       `json:"outcomeId"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// =============================================================================
// STATE MACHINE - Shared by monthly and exceptional outcomes
// =============================================================================

// confirmState transitions Pending -> Confirmed.
func (l *Ledger) confirmState(s *OutcomeState) error {
	if s.IsConfirmed {
		return ErrAlreadyConfirmed
	}
	now := l.Clock()
	s.IsConfirmed = true
	s.ConfirmedAt = &now
	return nil
}

// cancelState transitions Confirmed -> Pending, recording the reason.
func (l *Ledger) cancelState(s *OutcomeState, reason string) error {
	if !s.IsConfirmed {
		return ErrNotConfirmed
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	s.IsConfirmed = false
	s.ConfirmedAt = nil
	s.Notes = reason
	return nil
}

func (l *Ledger) outcomeTx(outcomeID OutcomeID, amount decimal.Decimal, reason string) OutcomeTransaction {
	return OutcomeTransaction{
		ID:        TransactionID(uuid.NewString()),
		OutcomeID: outcomeID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: l.Clock(),
	}
}

// =============================================================================
// MONTHLY OUTCOMES
// =============================================================================

// SaveMonthlyOutcome upserts the pending record for one property-month-
// category. Amounts can be edited while pending; confirmation freezes the
// money movement into the transaction log.
func (l *Ledger) SaveMonthlyOutcome(ctx context.Context, o MonthlyOutcome) (*MonthlyOutcome, error) {
	o.ID = MonthlyOutcomeID(o.PropertyID, o.Period, o.CategoryID)
	if err := l.Store.SaveOutcome(ctx, o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ConfirmMonthlyOutcome marks the expense as actually spent and appends a
// positive transaction.
func (l *Ledger) ConfirmMonthlyOutcome(ctx context.Context, id OutcomeID) (*MonthlyOutcome, error) {
	o, err := l.Store.Outcome(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOutcomeNotFound
	}
	if err := l.confirmState(&o.OutcomeState); err != nil {
		return nil, err
	}
	if err := l.Store.SaveOutcome(ctx, *o); err != nil {
		return nil, err
	}
	if err := l.Store.AppendOutcomeTransaction(ctx, l.outcomeTx(o.ID, o.Amount, "")); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelMonthlyOutcome un-confirms the expense, appending the negated
// compensating transaction with the mandatory reason.
func (l *Ledger) CancelMonthlyOutcome(ctx context.Context, id OutcomeID, reason string) (*MonthlyOutcome, error) {
	o, err := l.Store.Outcome(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOutcomeNotFound
	}
	if err := l.cancelState(&o.OutcomeState, reason); err != nil {
		return nil, err
	}
	if err := l.Store.SaveOutcome(ctx, *o); err != nil {
		return nil, err
	}
	if err := l.Store.AppendOutcomeTransaction(ctx, l.outcomeTx(o.ID, o.Amount.Neg(), reason)); err != nil {
		return nil, err
	}
	return o, nil
}

// =============================================================================
// EXCEPTIONAL OUTCOMES
// =============================================================================

// CreateExceptionalOutcome records a new pending project expense.
func (l *Ledger) CreateExceptionalOutcome(ctx context.Context, o ExceptionalOutcome) (*ExceptionalOutcome, error) {
	if o.ID == "" {
		o.ID = OutcomeID(uuid.NewString())
	}
	project, err := l.Store.Project(ctx, o.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	o.OutcomeState = OutcomeState{}
	if err := l.Store.SaveExceptionalOutcome(ctx, o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ConfirmExceptionalOutcome marks a project expense as spent.
func (l *Ledger) ConfirmExceptionalOutcome(ctx context.Context, id OutcomeID) (*ExceptionalOutcome, error) {
	o, err := l.Store.ExceptionalOutcome(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOutcomeNotFound
	}
	if err := l.confirmState(&o.OutcomeState); err != nil {
		return nil, err
	}
	if err := l.Store.SaveExceptionalOutcome(ctx, *o); err != nil {
		return nil, err
	}
	if err := l.Store.AppendOutcomeTransaction(ctx, l.outcomeTx(o.ID, o.Amount, "")); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelExceptionalOutcome un-confirms a project expense with a reason.
func (l *Ledger) CancelExceptionalOutcome(ctx context.Context, id OutcomeID, reason string) (*ExceptionalOutcome, error) {
	o, err := l.Store.ExceptionalOutcome(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOutcomeNotFound
	}
	if err := l.cancelState(&o.OutcomeState, reason); err != nil {
		return nil, err
	}
	if err := l.Store.SaveExceptionalOutcome(ctx, *o); err != nil {
		return nil, err
	}
	if err := l.Store.AppendOutcomeTransaction(ctx, l.outcomeTx(o.ID, o.Amount.Neg(), reason)); err != nil {
		return nil, err
	}
	return o, nil
}
