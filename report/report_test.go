package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium/hoa-engine/hoa"
	"github.com/atrium/hoa-engine/report"
	"github.com/atrium/hoa-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Fixture property: built January 2023, one unit type with a 2025 policy
// of base 100, 10% late penalty, 20% advance discount. The clock is
// pinned to June 2025, so past months owe 110, June owes 100, and
// future months owe 80.

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func newTestReporter(t *testing.T) (*report.Reporter, *memory.Store) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	require.NoError(t, st.SaveProperty(ctx, hoa.Property{
		ID: "p1", Name: "Residence",
		ConstructionDate: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.SaveUnitType(ctx, hoa.UnitType{ID: "t1", PropertyID: "p1", Name: "T2"}))
	require.NoError(t, st.SaveUnit(ctx, hoa.Unit{ID: "u1", PropertyID: "p1", Code: "A-01", UnitTypeID: "t1"}))
	require.NoError(t, st.SaveUnit(ctx, hoa.Unit{ID: "u2", PropertyID: "p1", Code: "A-02", UnitTypeID: "t1"}))
	require.NoError(t, st.SaveOwner(ctx, hoa.Owner{
		ID: "o1", PropertyID: "p1", FullName: "First Owner", OwnershipTitleCode: "TF-1",
		JoinDate: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), UnitID: "u1",
	}))
	require.NoError(t, st.SaveOwner(ctx, hoa.Owner{
		ID: "o2", PropertyID: "p1", FullName: "Second Owner", OwnershipTitleCode: "TF-2",
		JoinDate: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), UnitID: "u2",
	}))
	require.NoError(t, st.SavePolicy(ctx, hoa.UnitTypeFeePolicy{
		PropertyID: "p1", Year: 2025, UnitTypeID: "t1",
		BaseFee:  dec(t, "100"),
		Penalty:  hoa.Fee{Amount: dec(t, "10"), Kind: hoa.FeePercentage},
		Discount: hoa.Fee{Amount: dec(t, "20"), Kind: hoa.FeePercentage},
	}))

	clock := hoa.FixedClock(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC))
	return report.NewReporter(st, hoa.NewPolicyResolver(st), clock), st
}

func savePayment(t *testing.T, st hoa.Store, ownerID hoa.OwnerID, period hoa.YearMonth, paid string, status hoa.PaymentStatus) {
	t.Helper()
	require.NoError(t, st.SavePayment(context.Background(), hoa.MonthlyPayment{
		ID:         hoa.MonthlyPaymentID("p1", ownerID, period),
		PropertyID: "p1", OwnerID: ownerID, Period: period,
		AmountDue:  decimal.Zero,
		AmountPaid: dec(t, paid),
		Status:     status,
	}))
}

// =============================================================================
// INCOME VIEWS
// =============================================================================

func TestMonthlyIncomeByOwner(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()
	june := hoa.NewYearMonth(2025, time.June)

	savePayment(t, st, "o1", june, "40", hoa.PaymentPartiallyPaid)

	rows, err := r.MonthlyIncomeByOwner(ctx, "p1", june)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byOwner := map[hoa.OwnerID]report.OwnerIncomeRow{}
	for _, row := range rows {
		byOwner[row.OwnerID] = row
	}

	assert.True(t, byOwner["o1"].Due.Equal(dec(t, "100")), "current month carries the base fee")
	assert.True(t, byOwner["o1"].Paid.Equal(dec(t, "40")))
	assert.Equal(t, hoa.PaymentPartiallyPaid, byOwner["o1"].Status)

	// Owners with no record at all still get a row.
	assert.True(t, byOwner["o2"].Paid.IsZero())
	assert.Equal(t, hoa.PaymentUnpaid, byOwner["o2"].Status)
	assert.Equal(t, "A-02", byOwner["o2"].UnitCode)
}

func TestYearlyIncomeByOwner(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.January), "110", hoa.PaymentPaid)
	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.February), "110", hoa.PaymentPaid)
	savePayment(t, st, "o1", hoa.NewYearMonth(2024, time.December), "500", hoa.PaymentPaid)

	rows, err := r.YearlyIncomeByOwner(ctx, "p1", 2025)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byOwner := map[hoa.OwnerID]report.OwnerIncomeRow{}
	for _, row := range rows {
		byOwner[row.OwnerID] = row
	}

	// Five past months at 110, June at 100, six future months at 80.
	assert.True(t, byOwner["o1"].Due.Equal(dec(t, "1130")), "got %s", byOwner["o1"].Due)
	assert.True(t, byOwner["o1"].Paid.Equal(dec(t, "220")), "prior-year payments stay out")
	assert.Equal(t, hoa.PaymentPartiallyPaid, byOwner["o1"].Status)
	assert.Equal(t, hoa.PaymentUnpaid, byOwner["o2"].Status)
}

// =============================================================================
// OUTCOME VIEWS
// =============================================================================

func TestOutcomeByCategory_ConfirmedOnly(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()
	june := hoa.NewYearMonth(2025, time.June)
	confirmedAt := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.SaveCategory(ctx, hoa.ExpenseCategory{ID: "c1", PropertyID: "p1", Name: "Cleaning"}))
	require.NoError(t, st.SaveCategory(ctx, hoa.ExpenseCategory{ID: "c2", PropertyID: "p1", Name: "Elevator"}))

	require.NoError(t, st.SaveOutcome(ctx, hoa.MonthlyOutcome{
		ID: "out-1", PropertyID: "p1", Period: june, CategoryID: "c1", Amount: dec(t, "80"),
		OutcomeState: hoa.OutcomeState{IsConfirmed: true, ConfirmedAt: &confirmedAt},
	}))
	require.NoError(t, st.SaveOutcome(ctx, hoa.MonthlyOutcome{
		ID: "out-2", PropertyID: "p1", Period: june, CategoryID: "c1", Amount: dec(t, "20"),
		OutcomeState: hoa.OutcomeState{IsConfirmed: true, ConfirmedAt: &confirmedAt},
	}))
	// Draft: must not count.
	require.NoError(t, st.SaveOutcome(ctx, hoa.MonthlyOutcome{
		ID: "out-3", PropertyID: "p1", Period: june, CategoryID: "c2", Amount: dec(t, "999"),
	}))

	rows, err := r.MonthlyOutcomeByCategory(ctx, "p1", june)
	require.NoError(t, err)
	require.Len(t, rows, 2, "every category gets a row, spent or not")

	byCategory := map[hoa.CategoryID]report.CategoryOutcomeRow{}
	for _, row := range rows {
		byCategory[row.CategoryID] = row
	}
	assert.True(t, byCategory["c1"].Amount.Equal(dec(t, "100")))
	assert.True(t, byCategory["c2"].Amount.IsZero(), "unconfirmed drafts are excluded")
}

func TestBalanceByMonth(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()
	june := hoa.NewYearMonth(2025, time.June)
	confirmedAt := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)

	savePayment(t, st, "o1", june, "100", hoa.PaymentPaid)
	savePayment(t, st, "o2", june, "40", hoa.PaymentPartiallyPaid)
	require.NoError(t, st.SaveOutcome(ctx, hoa.MonthlyOutcome{
		ID: "out-1", PropertyID: "p1", Period: june, CategoryID: "c1", Amount: dec(t, "90"),
		OutcomeState: hoa.OutcomeState{IsConfirmed: true, ConfirmedAt: &confirmedAt},
	}))

	rows, err := r.BalanceByMonth(ctx, "p1", 2025)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	juneRow := rows[5]
	assert.Equal(t, june, juneRow.Period)
	assert.True(t, juneRow.Income.Equal(dec(t, "140")))
	assert.True(t, juneRow.Outcome.Equal(dec(t, "90")))
	assert.True(t, juneRow.Balance.Equal(dec(t, "50")))

	assert.True(t, rows[0].Income.IsZero())
	assert.True(t, rows[0].Balance.IsZero())
}

// =============================================================================
// DEFICIT VIEWS
// =============================================================================

func TestDeficitByMonth_SkipsPausedAndLateJoiners(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	// o2 only joins in March 2025; Jan-Feb expect nothing from them.
	require.NoError(t, st.SaveOwner(ctx, hoa.Owner{
		ID: "o2", PropertyID: "p1", FullName: "Second Owner", OwnershipTitleCode: "TF-2",
		JoinDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), UnitID: "u2",
	}))
	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.January), "110", hoa.PaymentPaid)
	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.February), "0", hoa.PaymentPaused)

	rows, err := r.DeficitByMonth(ctx, "p1", 2025)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	jan, feb, mar := rows[0], rows[1], rows[2]

	assert.True(t, jan.Expected.Equal(dec(t, "110")), "only o1 is active in January")
	assert.True(t, jan.Paid.Equal(dec(t, "110")))
	assert.True(t, jan.Deficit.IsZero())

	assert.True(t, feb.Expected.IsZero(), "the paused owner-month drops out entirely")
	assert.True(t, feb.Deficit.IsZero())

	assert.True(t, mar.Expected.Equal(dec(t, "220")), "both owners active from March")
	assert.True(t, mar.Deficit.Equal(dec(t, "220")))
}

func TestDeficitByMonth_NothingBeforeConstruction(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	require.NoError(t, st.SavePolicy(ctx, hoa.UnitTypeFeePolicy{
		PropertyID: "p1", Year: 2022, UnitTypeID: "t1",
		BaseFee: dec(t, "100"), Penalty: hoa.ZeroFee(), Discount: hoa.ZeroFee(),
	}))

	rows, err := r.DeficitByMonth(ctx, "p1", 2022)
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, row.Expected.IsZero(), "%s predates construction", row.Period)
	}
}

func TestYearDeficit_TotalsMonths(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.January), "110", hoa.PaymentPaid)

	total, err := r.YearDeficit(ctx, "p1", 2025)
	require.NoError(t, err)
	// Two owners, full year: 2 x (5x110 + 100 + 6x80) = 2260.
	assert.True(t, total.Expected.Equal(dec(t, "2260")), "got %s", total.Expected)
	assert.True(t, total.Paid.Equal(dec(t, "110")))
	assert.True(t, total.Deficit.Equal(dec(t, "2150")))
}

// =============================================================================
// OWNER SUMMARY AND COMBINED INCOME
// =============================================================================

func TestOwnerAnnualSummary(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.June), "100", hoa.PaymentPaid)

	rows, err := r.OwnerAnnualSummary(ctx, "o1", 2025)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	assert.True(t, rows[0].Due.Equal(dec(t, "110")), "January is past, penalty applies")
	assert.True(t, rows[5].Due.Equal(dec(t, "100")))
	assert.True(t, rows[11].Due.Equal(dec(t, "80")), "December is future, discount applies")
	assert.Equal(t, hoa.PaymentPaid, rows[5].Status)
	assert.Equal(t, hoa.PaymentUnpaid, rows[11].Status)
}

func TestOwnerAnnualSummary_UnknownOwner(t *testing.T) {
	r, _ := newTestReporter(t)
	_, err := r.OwnerAnnualSummary(context.Background(), "nobody", 2025)
	assert.ErrorIs(t, err, hoa.ErrOwnerNotFound)
}

func TestCombinedIncome(t *testing.T) {
	r, st := newTestReporter(t)
	ctx := context.Background()

	savePayment(t, st, "o1", hoa.NewYearMonth(2025, time.June), "100", hoa.PaymentPaid)
	savePayment(t, st, "o2", hoa.NewYearMonth(2025, time.May), "55", hoa.PaymentPartiallyPaid)

	require.NoError(t, st.SaveProject(ctx, hoa.ExceptionalProject{
		ID: "pr1", PropertyID: "p1", Year: 2025, Name: "Roof",
		ExpectedIncome: dec(t, "600"), ExpectedOutcome: dec(t, "600"),
		StartDate: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.SaveContribution(ctx, hoa.ExceptionalContribution{
		ProjectID: "pr1", OwnerID: "o1", ExpectedAmount: dec(t, "300"),
		PaidAmount: dec(t, "150"), Status: hoa.ContributionPartiallyPaid,
	}))
	require.NoError(t, st.SaveExternalContributor(ctx, hoa.ExternalContributor{
		ID: "ext1", ProjectID: "pr1", Name: "Municipality",
		ExpectedAmount: dec(t, "200"), PaidAmount: dec(t, "200"),
		Status: hoa.ContributionFullyPaid,
	}))
	// A prior-year project stays out of the summary.
	require.NoError(t, st.SaveProject(ctx, hoa.ExceptionalProject{
		ID: "pr0", PropertyID: "p1", Year: 2024, Name: "Facade",
		ExpectedIncome: dec(t, "100"), ExpectedOutcome: dec(t, "100"),
		StartDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.SaveContribution(ctx, hoa.ExceptionalContribution{
		ProjectID: "pr0", OwnerID: "o1", ExpectedAmount: dec(t, "100"),
		PaidAmount: dec(t, "100"), Status: hoa.ContributionFullyPaid,
	}))

	summary, err := r.CombinedIncome(ctx, "p1", 2025)
	require.NoError(t, err)
	assert.True(t, summary.Regular.Equal(dec(t, "155")))
	assert.True(t, summary.Exceptional.Equal(dec(t, "350")))
	assert.True(t, summary.Total.Equal(dec(t, "505")))
}

// =============================================================================
// ROW SORTING
// =============================================================================

func TestSortRows_NumericColumns(t *testing.T) {
	rows := []report.Row{
		{"owner": "b", "paid": dec(t, "9")},
		{"owner": "a", "paid": dec(t, "100")},
		{"owner": "c", "paid": dec(t, "25")},
	}

	report.SortRows(rows, "paid", report.Ascending)
	assert.Equal(t, "b", rows[0]["owner"], "9 sorts below 25 numerically, not lexically")
	assert.Equal(t, "a", rows[2]["owner"])

	report.SortRows(rows, "paid", report.Descending)
	assert.Equal(t, "a", rows[0]["owner"])
}

func TestSortRows_StringColumnsAndStability(t *testing.T) {
	rows := []report.Row{
		{"owner": "Charlie", "unit": "A-03"},
		{"owner": "Alice", "unit": "A-01"},
		{"owner": "Bob", "unit": "A-02"},
	}
	report.SortRows(rows, "owner", report.Ascending)
	assert.Equal(t, "Alice", rows[0]["owner"])
	assert.Equal(t, "Charlie", rows[2]["owner"])

	// Unknown column leaves order untouched.
	before := []string{rows[0]["owner"].(string), rows[1]["owner"].(string), rows[2]["owner"].(string)}
	report.SortRows(rows, "missing", report.Ascending)
	assert.Equal(t, before[0], rows[0]["owner"])
}
