/*
policy.go - Fee policy resolution with cross-year inheritance

PURPOSE:
  Defines the rules that govern what a unit owes each month: the base
  monthly fee plus a late-payment penalty and an early-payment discount.
  A policy is scoped to (property, year, unit type).

INHERITANCE:
  Years without an explicit policy inherit from the nearest earlier year
  that has one. The resolved policy is then MATERIALIZED (persisted) for
  the requested year, so the inheritance is computed exactly once:
  editing an old year later never retroactively changes a year that was
  already resolved.

ZERO FLOOR:
  When no earlier year has a policy either, resolution bottoms out at a
  zero policy (base fee 0, zero percentage penalty/discount). Resolution
  therefore has no error path for missing data.

EXAMPLE:
  2023 has a policy (base 50). 2024 and 2025 have none.
  Resolve(2025) copies 2023's values, stores them under 2025, and
  returns them. A later edit to 2023 leaves 2025 at base 50.

SEE ALSO:
  - adjust.go: How a resolved policy turns into an adjusted amount due
  - registry.go: Unit type deletion cascades to its policies
*/
package hoa

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT TYPE FEE POLICY
// =============================================================================

// UnitTypeFeePolicy is the fee ruleset for one unit type in one year.
// Invariant: at most one policy per (property, year, unit type).
type UnitTypeFeePolicy struct {
	PropertyID PropertyID      `json:"propertyId"`
	Year       int             `json:"year"`
	UnitTypeID UnitTypeID      `json:"unitTypeId"`
	BaseFee    decimal.Decimal `json:"baseFee"`
	Penalty    Fee             `json:"penalty"`
	Discount   Fee             `json:"discount"`
}

// zeroPolicy is the floor when no prior year exists.
func zeroPolicy(propertyID PropertyID, year int, unitTypeID UnitTypeID) UnitTypeFeePolicy {
	return UnitTypeFeePolicy{
		PropertyID: propertyID,
		Year:       year,
		UnitTypeID: unitTypeID,
		BaseFee:    decimal.Zero,
		Penalty:    ZeroFee(),
		Discount:   ZeroFee(),
	}
}

// PolicyUpdate is one entry of a bulk policy upsert for a property+year.
type PolicyUpdate struct {
	UnitTypeID UnitTypeID      `json:"unitTypeId"`
	BaseFee    decimal.Decimal `json:"baseFee"`
	Penalty    Fee             `json:"penalty"`
	Discount   Fee             `json:"discount"`
}

// =============================================================================
// POLICY RESOLVER
// =============================================================================

// PolicyResolver answers "what policy applies to this unit type in this
// year", materializing inherited policies as it goes.
type PolicyResolver struct {
	Store PolicyStore
}

func NewPolicyResolver(store PolicyStore) *PolicyResolver {
	return &PolicyResolver{Store: store}
}

// Resolve returns the effective policy for (property, year, unit type).
//
// Resolution order:
//  1. Exact match for the requested year.
//  2. Nearest earlier year with a policy, copied forward.
//  3. Zero-policy floor.
// Cases 2 and 3 persist the derived policy so subsequent lookups (and
// subsequent years' inheritance) see a frozen value.
func (r *PolicyResolver) Resolve(ctx context.Context, propertyID PropertyID, year int, unitTypeID UnitTypeID) (UnitTypeFeePolicy, error) {
	existing, err := r.Store.Policy(ctx, propertyID, year, unitTypeID)
	if err != nil {
		return UnitTypeFeePolicy{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	history, err := r.Store.PoliciesForUnitType(ctx, propertyID, unitTypeID)
	if err != nil {
		return UnitTypeFeePolicy{}, err
	}

	resolved := zeroPolicy(propertyID, year, unitTypeID)
	bestYear := 0
	for _, p := range history {
		if p.Year < year && p.Year > bestYear {
			bestYear = p.Year
			resolved.BaseFee = p.BaseFee
			resolved.Penalty = p.Penalty
			resolved.Discount = p.Discount
		}
	}

	if err := r.Store.SavePolicy(ctx, resolved); err != nil {
		return UnitTypeFeePolicy{}, err
	}
	return resolved, nil
}

// UpdatePolicies bulk-upserts policies for one property+year. Other years
// are untouched; already-materialized years keep their frozen values.
func (r *PolicyResolver) UpdatePolicies(ctx context.Context, propertyID PropertyID, year int, updates []PolicyUpdate) error {
	for _, u := range updates {
		p := UnitTypeFeePolicy{
			PropertyID: propertyID,
			Year:       year,
			UnitTypeID: u.UnitTypeID,
			BaseFee:    u.BaseFee,
			Penalty:    u.Penalty,
			Discount:   u.Discount,
		}
		if err := r.Store.SavePolicy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
