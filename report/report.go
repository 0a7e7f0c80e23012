/*
Package report derives tabular summaries from ledger state.

PURPOSE:
  Rollups for the board and the owners: who paid what in a month, how a
  year's income compares to its expenses, which months run a deficit.
  Every view is a pure read over the store - nothing here mutates.

VIEWS:
  MonthlyIncomeByOwner / YearlyIncomeByOwner:   dues collected, per owner
  MonthlyOutcomeByCategory / YearlyOutcomeByCategory: confirmed spending
  BalanceByMonth:    income vs confirmed outcome per month of a year
  DeficitByMonth / YearDeficit: expected adjusted dues vs actual payments
  OwnerAnnualSummary: one owner's twelve months of dues
  CombinedIncome:    regular dues + exceptional project contributions

CONSISTENCY:
  Views read the latest persisted state synchronously. Running the same
  view twice without an intervening write yields identical output.

SEE ALSO:
  - hoa/overdue.go: the per-owner deficit walk these views generalize
  - report/sort.go: caller-supplied column ordering for tabular output
*/
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atrium/hoa-engine/hoa"
)

// Reporter computes derived views over a store. All methods are reads.
type Reporter struct {
	Store    hoa.Store
	Policies *hoa.PolicyResolver
	Clock    hoa.Clock
}

func NewReporter(store hoa.Store, policies *hoa.PolicyResolver, clock hoa.Clock) *Reporter {
	if clock == nil {
		clock = hoa.SystemClock
	}
	return &Reporter{Store: store, Policies: policies, Clock: clock}
}

// =============================================================================
// INCOME BY OWNER
// =============================================================================

// OwnerIncomeRow is one owner's collected dues over the reported span.
type OwnerIncomeRow struct {
	OwnerID   hoa.OwnerID       `json:"ownerId"`
	OwnerName string            `json:"ownerName"`
	UnitCode  string            `json:"unitCode"`
	Due       decimal.Decimal   `json:"due"`
	Paid      decimal.Decimal   `json:"paid"`
	Status    hoa.PaymentStatus `json:"status"`
}

// MonthlyIncomeByOwner lists every owner of the property with the dues
// state of a single month. Owners without a payment record appear with
// zero paid and UNPAID status.
func (r *Reporter) MonthlyIncomeByOwner(ctx context.Context, propertyID hoa.PropertyID, period hoa.YearMonth) ([]OwnerIncomeRow, error) {
	owners, units, err := r.ownersAndUnits(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	now := r.Clock.CurrentMonth()
	rows := make([]OwnerIncomeRow, 0, len(owners))
	for _, owner := range owners {
		unit := units[owner.UnitID]
		due, err := r.adjustedDueFor(ctx, propertyID, unit.UnitTypeID, period, now)
		if err != nil {
			return nil, err
		}

		row := OwnerIncomeRow{
			OwnerID:   owner.ID,
			OwnerName: owner.FullName,
			UnitCode:  unit.Code,
			Due:       due,
			Paid:      decimal.Zero,
			Status:    hoa.PaymentUnpaid,
		}
		payment, err := r.Store.Payment(ctx, hoa.MonthlyPaymentID(propertyID, owner.ID, period))
		if err != nil {
			return nil, err
		}
		if payment != nil {
			row.Paid = payment.AmountPaid
			row.Status = payment.Status
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// YearlyIncomeByOwner sums each owner's collected dues over the twelve
// months of a year.
func (r *Reporter) YearlyIncomeByOwner(ctx context.Context, propertyID hoa.PropertyID, year int) ([]OwnerIncomeRow, error) {
	owners, units, err := r.ownersAndUnits(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	payments, err := r.Store.PaymentsByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	paidByOwner := make(map[hoa.OwnerID]decimal.Decimal)
	for _, p := range payments {
		if p.Period.Year != year {
			continue
		}
		paidByOwner[p.OwnerID] = paidByOwner[p.OwnerID].Add(p.AmountPaid)
	}

	now := r.Clock.CurrentMonth()
	rows := make([]OwnerIncomeRow, 0, len(owners))
	for _, owner := range owners {
		unit := units[owner.UnitID]
		due := decimal.Zero
		for month := 1; month <= 12; month++ {
			monthDue, err := r.adjustedDueFor(ctx, propertyID, unit.UnitTypeID,
				hoa.NewYearMonth(year, time.Month(month)), now)
			if err != nil {
				return nil, err
			}
			due = due.Add(monthDue)
		}
		paid := paidByOwner[owner.ID]
		rows = append(rows, OwnerIncomeRow{
			OwnerID:   owner.ID,
			OwnerName: owner.FullName,
			UnitCode:  unit.Code,
			Due:       due,
			Paid:      paid,
			Status:    yearlyStatus(due, paid),
		})
	}
	return rows, nil
}

func yearlyStatus(due, paid decimal.Decimal) hoa.PaymentStatus {
	switch {
	case !paid.IsPositive():
		return hoa.PaymentUnpaid
	case paid.LessThan(due):
		return hoa.PaymentPartiallyPaid
	default:
		return hoa.PaymentPaid
	}
}

// =============================================================================
// OUTCOMES BY CATEGORY
// =============================================================================

// CategoryOutcomeRow is confirmed spending within one expense category.
type CategoryOutcomeRow struct {
	CategoryID   hoa.CategoryID  `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
}

// MonthlyOutcomeByCategory sums confirmed outcome amounts per category
// for one month. Unconfirmed outcomes are drafts and excluded.
func (r *Reporter) MonthlyOutcomeByCategory(ctx context.Context, propertyID hoa.PropertyID, period hoa.YearMonth) ([]CategoryOutcomeRow, error) {
	return r.outcomesByCategory(ctx, propertyID, func(o hoa.MonthlyOutcome) bool {
		return o.Period.Equal(period)
	})
}

// YearlyOutcomeByCategory sums confirmed outcome amounts per category
// across a year.
func (r *Reporter) YearlyOutcomeByCategory(ctx context.Context, propertyID hoa.PropertyID, year int) ([]CategoryOutcomeRow, error) {
	return r.outcomesByCategory(ctx, propertyID, func(o hoa.MonthlyOutcome) bool {
		return o.Period.Year == year
	})
}

func (r *Reporter) outcomesByCategory(ctx context.Context, propertyID hoa.PropertyID, include func(hoa.MonthlyOutcome) bool) ([]CategoryOutcomeRow, error) {
	categories, err := r.Store.CategoriesByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	outcomes, err := r.Store.OutcomesByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	totals := make(map[hoa.CategoryID]decimal.Decimal)
	for _, o := range outcomes {
		if !o.IsConfirmed || !include(o) {
			continue
		}
		totals[o.CategoryID] = totals[o.CategoryID].Add(o.Amount)
	}

	rows := make([]CategoryOutcomeRow, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, CategoryOutcomeRow{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Amount:       totals[c.ID],
		})
	}
	return rows, nil
}

// =============================================================================
// BALANCE AND DEFICIT
// =============================================================================

// BalanceRow is one month's income against confirmed spending.
type BalanceRow struct {
	Period  hoa.YearMonth   `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Outcome decimal.Decimal `json:"outcome"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceByMonth reports, for each month of a year, dues collected minus
// confirmed outcomes.
func (r *Reporter) BalanceByMonth(ctx context.Context, propertyID hoa.PropertyID, year int) ([]BalanceRow, error) {
	payments, err := r.Store.PaymentsByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	outcomes, err := r.Store.OutcomesByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	income := make(map[hoa.YearMonth]decimal.Decimal)
	for _, p := range payments {
		if p.Period.Year == year {
			income[p.Period] = income[p.Period].Add(p.AmountPaid)
		}
	}
	spent := make(map[hoa.YearMonth]decimal.Decimal)
	for _, o := range outcomes {
		if o.IsConfirmed && o.Period.Year == year {
			spent[o.Period] = spent[o.Period].Add(o.Amount)
		}
	}

	rows := make([]BalanceRow, 0, 12)
	for month := 1; month <= 12; month++ {
		period := hoa.NewYearMonth(year, time.Month(month))
		in := income[period]
		out := spent[period]
		rows = append(rows, BalanceRow{
			Period:  period,
			Income:  in,
			Outcome: out,
			Balance: in.Sub(out),
		})
	}
	return rows, nil
}

// DeficitRow is one month's shortfall between expected adjusted dues and
// actual payments.
type DeficitRow struct {
	Period   hoa.YearMonth   `json:"period"`
	Expected decimal.Decimal `json:"expected"`
	Paid     decimal.Decimal `json:"paid"`
	Deficit  decimal.Decimal `json:"deficit"`
}

// DeficitByMonth reports, per month of a year, the sum of every active
// owner's adjusted due against what was actually collected. Owners count
// from the month they joined; PAUSED owner-months are excluded from both
// sides.
func (r *Reporter) DeficitByMonth(ctx context.Context, propertyID hoa.PropertyID, year int) ([]DeficitRow, error) {
	owners, units, err := r.ownersAndUnits(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	property, err := r.Store.Property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, hoa.ErrPropertyNotFound
	}
	constructed := hoa.MonthOf(property.ConstructionDate)

	now := r.Clock.CurrentMonth()
	rows := make([]DeficitRow, 0, 12)
	for month := 1; month <= 12; month++ {
		period := hoa.NewYearMonth(year, time.Month(month))
		row := DeficitRow{Period: period, Expected: decimal.Zero, Paid: decimal.Zero}

		if !period.Before(constructed) {
			for _, owner := range owners {
				if period.Before(hoa.MonthOf(owner.JoinDate)) {
					continue
				}
				payment, err := r.Store.Payment(ctx, hoa.MonthlyPaymentID(propertyID, owner.ID, period))
				if err != nil {
					return nil, err
				}
				if payment != nil && payment.Status == hoa.PaymentPaused {
					continue
				}

				unit := units[owner.UnitID]
				due, err := r.adjustedDueFor(ctx, propertyID, unit.UnitTypeID, period, now)
				if err != nil {
					return nil, err
				}
				row.Expected = row.Expected.Add(due)
				if payment != nil {
					row.Paid = row.Paid.Add(payment.AmountPaid)
				}
			}
		}
		row.Deficit = row.Expected.Sub(row.Paid)
		rows = append(rows, row)
	}
	return rows, nil
}

// YearDeficit totals a year's monthly deficits.
func (r *Reporter) YearDeficit(ctx context.Context, propertyID hoa.PropertyID, year int) (*DeficitRow, error) {
	months, err := r.DeficitByMonth(ctx, propertyID, year)
	if err != nil {
		return nil, err
	}
	total := &DeficitRow{
		Period:   hoa.NewYearMonth(year, time.January),
		Expected: decimal.Zero,
		Paid:     decimal.Zero,
	}
	for _, m := range months {
		total.Expected = total.Expected.Add(m.Expected)
		total.Paid = total.Paid.Add(m.Paid)
	}
	total.Deficit = total.Expected.Sub(total.Paid)
	return total, nil
}

// =============================================================================
// OWNER ANNUAL SUMMARY
// =============================================================================

// OwnerMonthRow is one month in an owner's annual dues summary.
type OwnerMonthRow struct {
	Period hoa.YearMonth     `json:"period"`
	Due    decimal.Decimal   `json:"due"`
	Paid   decimal.Decimal   `json:"paid"`
	Status hoa.PaymentStatus `json:"status"`
}

// OwnerAnnualSummary lists an owner's twelve months of a year with the
// adjusted due, amount paid and status of each.
func (r *Reporter) OwnerAnnualSummary(ctx context.Context, ownerID hoa.OwnerID, year int) ([]OwnerMonthRow, error) {
	owner, err := r.Store.Owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, hoa.ErrOwnerNotFound
	}
	unit, err := r.Store.Unit(ctx, owner.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, hoa.ErrUnitNotFound
	}

	now := r.Clock.CurrentMonth()
	rows := make([]OwnerMonthRow, 0, 12)
	for month := 1; month <= 12; month++ {
		period := hoa.NewYearMonth(year, time.Month(month))
		due, err := r.adjustedDueFor(ctx, owner.PropertyID, unit.UnitTypeID, period, now)
		if err != nil {
			return nil, err
		}
		row := OwnerMonthRow{Period: period, Due: due, Paid: decimal.Zero, Status: hoa.PaymentUnpaid}
		payment, err := r.Store.Payment(ctx, hoa.MonthlyPaymentID(owner.PropertyID, ownerID, period))
		if err != nil {
			return nil, err
		}
		if payment != nil {
			row.Paid = payment.AmountPaid
			row.Status = payment.Status
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// =============================================================================
// COMBINED INCOME
// =============================================================================

// IncomeSummary totals a year's regular dues and exceptional project
// contributions.
type IncomeSummary struct {
	Year        int             `json:"year"`
	Regular     decimal.Decimal `json:"regular"`
	Exceptional decimal.Decimal `json:"exceptional"`
	Total       decimal.Decimal `json:"total"`
}

// CombinedIncome sums dues payments for the year with paid contributions
// (owner and external) to the property's projects of that year.
func (r *Reporter) CombinedIncome(ctx context.Context, propertyID hoa.PropertyID, year int) (*IncomeSummary, error) {
	payments, err := r.Store.PaymentsByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	regular := decimal.Zero
	for _, p := range payments {
		if p.Period.Year == year {
			regular = regular.Add(p.AmountPaid)
		}
	}

	projects, err := r.Store.ProjectsByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	exceptional := decimal.Zero
	for _, project := range projects {
		if project.Year != year {
			continue
		}
		contributions, err := r.Store.ContributionsByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range contributions {
			exceptional = exceptional.Add(c.PaidAmount)
		}
		externals, err := r.Store.ExternalContributorsByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		for _, ec := range externals {
			exceptional = exceptional.Add(ec.PaidAmount)
		}
	}

	return &IncomeSummary{
		Year:        year,
		Regular:     regular,
		Exceptional: exceptional,
		Total:       regular.Add(exceptional),
	}, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func (r *Reporter) ownersAndUnits(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.Owner, map[hoa.UnitID]hoa.Unit, error) {
	owners, err := r.Store.OwnersByProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	units, err := r.Store.UnitsByProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[hoa.UnitID]hoa.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	return owners, byID, nil
}

func (r *Reporter) adjustedDueFor(ctx context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID, period, now hoa.YearMonth) (decimal.Decimal, error) {
	policy, err := r.Policies.Resolve(ctx, propertyID, period.Year, unitTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	return hoa.AdjustedDueAt(policy, period, now), nil
}
