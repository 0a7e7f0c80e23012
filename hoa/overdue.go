/*
overdue.go - Per-owner overdue accumulation

PURPOSE:
  Answers "what does this owner still owe from past months". Walks every
  calendar month from the later of the property's construction date and
  the owner's join date, up to but NOT including the current month, and
  accumulates any month whose adjusted due exceeds what was paid.

RULES:
  - The current month is never overdue, whatever its payment state.
  - PAUSED months are skipped entirely.
  - Months with no payment record count as paid 0.
  - Every visited month is in the past, so the adjusted due always
    includes the late penalty.

DERIVED VIEW:
  Purely a read over persisted payments and policies. Calling it twice
  without intervening payments yields identical output. (Policy
  resolution may materialize inherited policies as a side effect, but
  the materialized values equal the ones that were derived.)
*/
package hoa

import (
	"context"

	"github.com/shopspring/decimal"
)

// OverdueMonth is one delinquent month in an overdue report.
type OverdueMonth struct {
	Period      YearMonth       `json:"period"`
	AdjustedDue decimal.Decimal `json:"adjustedDue"`
	Paid        decimal.Decimal `json:"paid"`
	Deficit     decimal.Decimal `json:"deficit"`
}

// OverdueDetails is the owner's total outstanding dues and the months
// composing it.
type OverdueDetails struct {
	OwnerID  OwnerID         `json:"ownerId"`
	TotalDue decimal.Decimal `json:"totalDue"`
	Months   []OverdueMonth  `json:"months"`
}

// OverdueCalculator derives overdue reports from ledger + policy state.
type OverdueCalculator struct {
	Store    Store
	Policies *PolicyResolver
	Clock    Clock
}

func NewOverdueCalculator(store Store, policies *PolicyResolver, clock Clock) *OverdueCalculator {
	if clock == nil {
		clock = SystemClock
	}
	return &OverdueCalculator{Store: store, Policies: policies, Clock: clock}
}

// ForOwner walks [max(constructionMonth, joinMonth), currentMonth) and
// accumulates months with a positive deficit.
func (oc *OverdueCalculator) ForOwner(ctx context.Context, ownerID OwnerID) (*OverdueDetails, error) {
	owner, err := oc.Store.Owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrOwnerNotFound
	}
	property, err := oc.Store.Property(ctx, owner.PropertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	unit, err := oc.Store.Unit(ctx, owner.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrUnitNotFound
	}

	start := MonthOf(property.ConstructionDate)
	if join := MonthOf(owner.JoinDate); start.Before(join) {
		start = join
	}
	now := oc.Clock.CurrentMonth()

	details := &OverdueDetails{OwnerID: ownerID, TotalDue: decimal.Zero}
	for iter := start; iter.Before(now); iter = iter.Next() {
		policy, err := oc.Policies.Resolve(ctx, owner.PropertyID, iter.Year, unit.UnitTypeID)
		if err != nil {
			return nil, err
		}
		// Every visited month precedes "now", so the penalty applies.
		due := AdjustedDue(policy.BaseFee, policy, MonthPast)

		paid := decimal.Zero
		payment, err := oc.Store.Payment(ctx, MonthlyPaymentID(owner.PropertyID, ownerID, iter))
		if err != nil {
			return nil, err
		}
		if payment != nil {
			if payment.Status == PaymentPaused {
				continue
			}
			paid = payment.AmountPaid
		}

		deficit := due.Sub(paid)
		if deficit.IsPositive() {
			details.Months = append(details.Months, OverdueMonth{
				Period:      iter,
				AdjustedDue: due,
				Paid:        paid,
				Deficit:     deficit,
			})
			details.TotalDue = details.TotalDue.Add(deficit)
		}
	}
	return details, nil
}
