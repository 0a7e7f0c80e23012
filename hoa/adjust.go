/*
adjust.go - Adjusted amount-due calculation

PURPOSE:
  Turns a base fee and a resolved policy into the amount actually owed
  for a month, based on the month's temporal category:

    past    -> base + penalty   (late payment)
    current -> base             (never adjusted)
    future  -> base - discount  (early payment)

  The current month is NEVER adjusted, regardless of what the policy
  configures. That is a business rule, not a gap: dues for the running
  month are neither late nor early.

PURITY:
  AdjustedDue is a pure function. The caller classifies the month with
  Categorize() against an injected clock, so the calculation itself has
  no time dependency.
*/
package hoa

import "github.com/shopspring/decimal"

// AdjustedDue returns the amount owed for a month given its category.
// Zero-amount penalties and discounts leave the base untouched.
func AdjustedDue(baseFee decimal.Decimal, policy UnitTypeFeePolicy, category MonthCategory) decimal.Decimal {
	switch category {
	case MonthPast:
		if !policy.Penalty.IsZero() {
			return baseFee.Add(policy.Penalty.ApplyTo(baseFee))
		}
	case MonthFuture:
		if !policy.Discount.IsZero() {
			return baseFee.Sub(policy.Discount.ApplyTo(baseFee))
		}
	}
	return baseFee
}

// AdjustedDueAt resolves the category for the caller: the month is
// classified against "now" and the policy's own base fee is used.
func AdjustedDueAt(policy UnitTypeFeePolicy, ym, now YearMonth) decimal.Decimal {
	return AdjustedDue(policy.BaseFee, policy, Categorize(ym, now))
}
