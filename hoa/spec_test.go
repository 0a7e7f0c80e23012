/*
spec_test.go - Specification tests for the policy and ledger engines

PURPOSE:
  These tests serve as EXECUTABLE SPECIFICATIONS of the system design.
  Each test documents a specific behavior and validates that the
  implementation conforms to it.

ORGANIZATION:
  Tests are grouped by behavior area:
  1. Policy resolution - Inheritance, materialization, zero floor
  2. Adjusted due - Past/current/future classification
  3. Payment ledger - Additive payments, status derivation, history
  4. Paused override - Stickiness, no history
  5. Overdue walk - Month range, exclusions
  6. Projects - Even-split seeding
  7. Contributions - Status recompute, the contributor union
  8. Outcomes - Confirm/cancel state machine, compensating entries

READING THESE TESTS:
  Each test has a descriptive name stating the behavior and
  GIVEN/WHEN/THEN comments explaining the scenario.
*/
package hoa_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atrium/hoa-engine/hoa"
	"github.com/atrium/hoa-engine/store/memory"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// juneClock pins "now" to June 2025 so month classification is stable.
func juneClock() hoa.Clock {
	return hoa.FixedClock(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func pct(s string) hoa.Fee {
	return hoa.Fee{Amount: d(s), Kind: hoa.FeePercentage}
}

func fixed(s string) hoa.Fee {
	return hoa.Fee{Amount: d(s), Kind: hoa.FeeFixed}
}

type fixture struct {
	store    *memory.Store
	ledger   *hoa.Ledger
	resolver *hoa.PolicyResolver
	registry *hoa.Registry
}

func newFixture() *fixture {
	st := memory.New()
	return &fixture{
		store:    st,
		ledger:   hoa.NewLedger(st, juneClock()),
		resolver: hoa.NewPolicyResolver(st),
		registry: hoa.NewRegistry(st),
	}
}

// seedResidence creates a property with one unit type, one unit, and one
// owner who joined at construction.
func (f *fixture) seedResidence(t *testing.T) (hoa.PropertyID, hoa.UnitTypeID, hoa.OwnerID) {
	t.Helper()
	ctx := context.Background()

	_, err := f.registry.CreateProperty(ctx, hoa.Property{
		ID:               "residence-a",
		Name:             "Residence A",
		ConstructionDate: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed property: %v", err)
	}
	_, err = f.registry.CreateUnitType(ctx, hoa.UnitType{ID: "t2", PropertyID: "residence-a", Name: "T2"})
	if err != nil {
		t.Fatalf("seed unit type: %v", err)
	}
	_, err = f.registry.CreateUnit(ctx, hoa.Unit{
		ID: "unit-1", PropertyID: "residence-a", Code: "A-01", UnitTypeID: "t2", Surface: d("64.5"),
	})
	if err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	_, err = f.registry.CreateOwner(ctx, hoa.Owner{
		ID: "owner-1", PropertyID: "residence-a", FullName: "Amina K.",
		OwnershipTitleCode: "TF-100",
		JoinDate:           time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		UnitID:             "unit-1",
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return "residence-a", "t2", "owner-1"
}

// =============================================================================
// 1. POLICY RESOLUTION
// =============================================================================

func TestResolvePolicy_ExactYearWins(t *testing.T) {
	// GIVEN: An explicit policy for 2025
	// WHEN: Resolving 2025
	// THEN: The stored policy is returned untouched

	f := newFixture()
	ctx := context.Background()

	err := f.resolver.UpdatePolicies(ctx, "residence-a", 2025, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("100"), Penalty: pct("10"), Discount: pct("20")},
	})
	if err != nil {
		t.Fatalf("update policies: %v", err)
	}

	got, err := f.resolver.Resolve(ctx, "residence-a", 2025, "t2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.BaseFee.Equal(d("100")) {
		t.Errorf("expected base fee 100, got %s", got.BaseFee)
	}
	if got.Year != 2025 {
		t.Errorf("expected year 2025, got %d", got.Year)
	}
}

func TestResolvePolicy_InheritsNearestPriorYear(t *testing.T) {
	// GIVEN: Policies for 2022 (base 40) and 2023 (base 50), none for 2025
	// WHEN: Resolving 2025
	// THEN: 2023's values are inherited (nearest prior year, not the oldest)

	f := newFixture()
	ctx := context.Background()

	f.resolver.UpdatePolicies(ctx, "residence-a", 2022, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("40")},
	})
	f.resolver.UpdatePolicies(ctx, "residence-a", 2023, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("50"), Penalty: pct("5")},
	})

	got, err := f.resolver.Resolve(ctx, "residence-a", 2025, "t2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.BaseFee.Equal(d("50")) {
		t.Errorf("expected inherited base fee 50, got %s", got.BaseFee)
	}
	if !got.Penalty.Amount.Equal(d("5")) {
		t.Errorf("expected inherited penalty 5, got %s", got.Penalty.Amount)
	}
}

func TestResolvePolicy_MaterializedPolicyIsFrozen(t *testing.T) {
	// GIVEN: 2025 was resolved by inheriting 2023's base 50
	// WHEN: 2023 is later edited to base 80
	// THEN: 2025 keeps the frozen base 50

	f := newFixture()
	ctx := context.Background()

	f.resolver.UpdatePolicies(ctx, "residence-a", 2023, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("50")},
	})
	if _, err := f.resolver.Resolve(ctx, "residence-a", 2025, "t2"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	f.resolver.UpdatePolicies(ctx, "residence-a", 2023, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("80")},
	})

	got, err := f.resolver.Resolve(ctx, "residence-a", 2025, "t2")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !got.BaseFee.Equal(d("50")) {
		t.Errorf("materialized policy changed retroactively: expected 50, got %s", got.BaseFee)
	}
}

func TestResolvePolicy_NoHistoryBottomsOutAtZero(t *testing.T) {
	// GIVEN: No policy for any year
	// WHEN: Resolving
	// THEN: A zero policy is returned, not an error

	f := newFixture()

	got, err := f.resolver.Resolve(context.Background(), "residence-a", 2025, "t2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.BaseFee.IsZero() {
		t.Errorf("expected zero base fee, got %s", got.BaseFee)
	}
}

// =============================================================================
// 2. ADJUSTED DUE
// =============================================================================

func TestAdjustedDue_PastCurrentFutureBoundary(t *testing.T) {
	// GIVEN: Base 100, 10% penalty, 20% discount, now = June 2025
	// WHEN: Computing the due for May, June, and July 2025
	// THEN: May (past) = 110, June (current) = 100, July (future) = 80

	policy := hoa.UnitTypeFeePolicy{
		BaseFee:  d("100"),
		Penalty:  pct("10"),
		Discount: pct("20"),
	}
	now := hoa.NewYearMonth(2025, time.June)

	cases := []struct {
		month time.Month
		want  string
	}{
		{time.May, "110"},
		{time.June, "100"},
		{time.July, "80"},
	}
	for _, tc := range cases {
		got := hoa.AdjustedDueAt(policy, hoa.NewYearMonth(2025, tc.month), now)
		if !got.Equal(d(tc.want)) {
			t.Errorf("%s 2025: expected %s, got %s", tc.month, tc.want, got)
		}
	}
}

func TestAdjustedDue_FixedFeesAddSubtractDirectly(t *testing.T) {
	// GIVEN: Base 100, fixed penalty 15, fixed discount 7
	// THEN: Past = 115, future = 93

	policy := hoa.UnitTypeFeePolicy{
		BaseFee:  d("100"),
		Penalty:  fixed("15"),
		Discount: fixed("7"),
	}

	if got := hoa.AdjustedDue(policy.BaseFee, policy, hoa.MonthPast); !got.Equal(d("115")) {
		t.Errorf("past: expected 115, got %s", got)
	}
	if got := hoa.AdjustedDue(policy.BaseFee, policy, hoa.MonthFuture); !got.Equal(d("93")) {
		t.Errorf("future: expected 93, got %s", got)
	}
}

func TestAdjustedDue_ZeroFeesLeaveBaseUntouched(t *testing.T) {
	// GIVEN: Base 100, zero penalty and discount
	// THEN: Every category yields the plain base

	policy := hoa.UnitTypeFeePolicy{BaseFee: d("100"), Penalty: hoa.ZeroFee(), Discount: hoa.ZeroFee()}
	for _, cat := range []hoa.MonthCategory{hoa.MonthPast, hoa.MonthCurrent, hoa.MonthFuture} {
		if got := hoa.AdjustedDue(policy.BaseFee, policy, cat); !got.Equal(d("100")) {
			t.Errorf("%v: expected 100, got %s", cat, got)
		}
	}
}

// =============================================================================
// 3. PAYMENT LEDGER
// =============================================================================

func paymentInput(ownerID hoa.OwnerID, amount string) hoa.PaymentInput {
	return hoa.PaymentInput{
		PropertyID: "residence-a",
		OwnerID:    ownerID,
		Period:     hoa.NewYearMonth(2025, time.June),
		AmountDue:  d("100"),
		Amount:     d(amount),
	}
}

func TestRecordPayment_StatusProgression(t *testing.T) {
	// GIVEN: Adjusted due 100
	// WHEN: Paying 40, then 60, then 5 more
	// THEN: PARTIALLY_PAID -> PAID -> PAID with total 105 (over-payment kept)

	f := newFixture()
	ctx := context.Background()
	due := d("100")

	p, err := f.ledger.RecordPayment(ctx, paymentInput("owner-1", "40"), due)
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if p.Status != hoa.PaymentPartiallyPaid {
		t.Errorf("after 40: expected PARTIALLY_PAID, got %s", p.Status)
	}

	p, err = f.ledger.RecordPayment(ctx, paymentInput("owner-1", "60"), due)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if p.Status != hoa.PaymentPaid {
		t.Errorf("after 100: expected PAID, got %s", p.Status)
	}

	p, err = f.ledger.RecordPayment(ctx, paymentInput("owner-1", "5"), due)
	if err != nil {
		t.Fatalf("third payment: %v", err)
	}
	if p.Status != hoa.PaymentPaid {
		t.Errorf("after over-payment: expected PAID, got %s", p.Status)
	}
	if !p.AmountPaid.Equal(d("105")) {
		t.Errorf("expected cumulative total 105, got %s", p.AmountPaid)
	}
}

func TestRecordPayment_NegativeAmountRejected(t *testing.T) {
	// GIVEN: Any owner-month
	// WHEN: Recording a negative payment
	// THEN: The additive invariant holds - the call fails, nothing is written

	f := newFixture()
	ctx := context.Background()

	_, err := f.ledger.RecordPayment(ctx, paymentInput("owner-1", "-10"), d("100"))
	if err == nil {
		t.Fatal("expected negative payment to be rejected")
	}

	id := hoa.MonthlyPaymentID("residence-a", "owner-1", hoa.NewYearMonth(2025, time.June))
	payment, err := f.store.Payment(ctx, id)
	if err != nil {
		t.Fatalf("payment lookup: %v", err)
	}
	if payment != nil {
		t.Error("rejected payment must not create a record")
	}
}

func TestRecordPayment_HistorySumEqualsFinalTotal(t *testing.T) {
	// GIVEN: Three payments against one owner-month
	// THEN: One history entry per payment, and the sum of
	//       (newAmount - previousAmount) equals the final paid total

	f := newFixture()
	ctx := context.Background()
	due := d("100")

	for _, amount := range []string{"40", "60", "5"} {
		if _, err := f.ledger.RecordPayment(ctx, paymentInput("owner-1", amount), due); err != nil {
			t.Fatalf("payment %s: %v", amount, err)
		}
	}

	id := hoa.MonthlyPaymentID("residence-a", "owner-1", hoa.NewYearMonth(2025, time.June))
	history, err := f.store.PaymentHistory(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}

	sum := decimal.Zero
	for _, e := range history {
		sum = sum.Add(e.NewAmount.Sub(e.PreviousAmount))
	}
	payment, _ := f.store.Payment(ctx, id)
	if !sum.Equal(payment.AmountPaid) {
		t.Errorf("history sum %s != final paid total %s", sum, payment.AmountPaid)
	}
}

// =============================================================================
// 4. PAUSED OVERRIDE
// =============================================================================

func TestSetPaymentStatus_PausedWritesNoHistory(t *testing.T) {
	// GIVEN: An owner-month with no payment record
	// WHEN: Pausing it administratively
	// THEN: A zero record is synthesized, PAUSED, and no history appears

	f := newFixture()
	ctx := context.Background()
	period := hoa.NewYearMonth(2025, time.March)

	p, err := f.ledger.SetPaymentStatus(ctx, "residence-a", "owner-1", period, hoa.PaymentPaused)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if p.Status != hoa.PaymentPaused {
		t.Errorf("expected PAUSED, got %s", p.Status)
	}
	if !p.AmountPaid.IsZero() {
		t.Errorf("synthesized record must carry zero paid, got %s", p.AmountPaid)
	}

	history, err := f.store.PaymentHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("administrative override must not write history, got %d entries", len(history))
	}
}

func TestSetPaymentStatus_PausedIsSticky(t *testing.T) {
	// GIVEN: A partially paid month that was then paused
	// WHEN: Reading it back
	// THEN: It stays PAUSED until another explicit override

	f := newFixture()
	ctx := context.Background()
	period := hoa.NewYearMonth(2025, time.June)

	if _, err := f.ledger.RecordPayment(ctx, paymentInput("owner-1", "40"), d("100")); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := f.ledger.SetPaymentStatus(ctx, "residence-a", "owner-1", period, hoa.PaymentPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}

	payment, err := f.store.Payment(ctx, hoa.MonthlyPaymentID("residence-a", "owner-1", period))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if payment.Status != hoa.PaymentPaused {
		t.Errorf("expected sticky PAUSED, got %s", payment.Status)
	}
	if !payment.AmountPaid.Equal(d("40")) {
		t.Errorf("pause must not touch amounts, got %s", payment.AmountPaid)
	}
}

// =============================================================================
// 5. OVERDUE WALK
// =============================================================================

func TestOverdue_WalksJoinToCurrentExclusive(t *testing.T) {
	// GIVEN: Owner joined Jan 2025, base 50 with 10% penalty, now = June 2025,
	//        no payments at all
	// WHEN: Computing overdue
	// THEN: Jan-May are overdue at 55 each (current June excluded), total 275

	f := newFixture()
	ctx := context.Background()
	f.seedResidence(t)

	// Owner joined with the building in Jan 2023; narrow the walk by
	// re-registering a later join date through a fresh owner.
	f.store.SaveOwner(ctx, hoa.Owner{
		ID: "owner-1", PropertyID: "residence-a", FullName: "Amina K.",
		OwnershipTitleCode: "TF-100",
		JoinDate:           time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		UnitID:             "unit-1",
	})
	f.resolver.UpdatePolicies(ctx, "residence-a", 2025, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("50"), Penalty: pct("10")},
	})

	calc := hoa.NewOverdueCalculator(f.store, f.resolver, juneClock())
	details, err := calc.ForOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}

	if len(details.Months) != 5 {
		t.Fatalf("expected 5 overdue months (Jan-May), got %d", len(details.Months))
	}
	if !details.TotalDue.Equal(d("275")) {
		t.Errorf("expected total 275, got %s", details.TotalDue)
	}
	last := details.Months[len(details.Months)-1]
	if last.Period != hoa.NewYearMonth(2025, time.May) {
		t.Errorf("current month must be excluded; last overdue month is %s", last.Period)
	}
}

func TestOverdue_SkipsPausedAndPaidMonths(t *testing.T) {
	// GIVEN: Jan-May 2025 owed at 55/month; Feb fully paid, Mar paused
	// WHEN: Computing overdue
	// THEN: Only Jan, Apr, May accumulate (3 months, total 165)

	f := newFixture()
	ctx := context.Background()
	f.seedResidence(t)
	f.store.SaveOwner(ctx, hoa.Owner{
		ID: "owner-1", PropertyID: "residence-a", FullName: "Amina K.",
		OwnershipTitleCode: "TF-100",
		JoinDate:           time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		UnitID:             "unit-1",
	})
	f.resolver.UpdatePolicies(ctx, "residence-a", 2025, []hoa.PolicyUpdate{
		{UnitTypeID: "t2", BaseFee: d("50"), Penalty: pct("10")},
	})

	feb := hoa.PaymentInput{
		PropertyID: "residence-a", OwnerID: "owner-1",
		Period: hoa.NewYearMonth(2025, time.February), AmountDue: d("55"), Amount: d("55"),
	}
	if _, err := f.ledger.RecordPayment(ctx, feb, d("55")); err != nil {
		t.Fatalf("feb payment: %v", err)
	}
	if _, err := f.ledger.SetPaymentStatus(ctx, "residence-a", "owner-1",
		hoa.NewYearMonth(2025, time.March), hoa.PaymentPaused); err != nil {
		t.Fatalf("pause march: %v", err)
	}

	calc := hoa.NewOverdueCalculator(f.store, f.resolver, juneClock())
	details, err := calc.ForOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}

	if len(details.Months) != 3 {
		t.Fatalf("expected 3 overdue months, got %d", len(details.Months))
	}
	if !details.TotalDue.Equal(d("165")) {
		t.Errorf("expected total 165, got %s", details.TotalDue)
	}
	for _, m := range details.Months {
		if m.Period == hoa.NewYearMonth(2025, time.February) || m.Period == hoa.NewYearMonth(2025, time.March) {
			t.Errorf("month %s must not be overdue", m.Period)
		}
	}
}

// =============================================================================
// 6. PROJECTS - EVEN-SPLIT SEEDING
// =============================================================================

func TestCreateProject_EvenSplitExcludesLateJoiners(t *testing.T) {
	// GIVEN: Three owners joined before the project start, one after
	// WHEN: Creating a project expecting 900
	// THEN: Exactly the three early owners get 300 each, NOT_PAID

	f := newFixture()
	ctx := context.Background()
	f.seedResidence(t)

	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	joinEarly := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	joinLate := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	for i, join := range []time.Time{joinEarly, joinEarly, joinLate} {
		_, err := f.registry.CreateOwner(ctx, hoa.Owner{
			ID:         hoa.OwnerID([]string{"owner-2", "owner-3", "owner-4"}[i]),
			PropertyID: "residence-a", FullName: "Owner",
			OwnershipTitleCode: []string{"TF-101", "TF-102", "TF-103"}[i],
			JoinDate:           join, UnitID: "unit-1",
		})
		if err != nil {
			t.Fatalf("seed owner %d: %v", i, err)
		}
	}

	project, err := f.ledger.CreateProject(ctx, hoa.ExceptionalProject{
		ID: "roof-2025", PropertyID: "residence-a", Year: 2025, Name: "Roof repair",
		ExpectedIncome: d("900"), ExpectedOutcome: d("850"), StartDate: start,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	contributions, err := f.store.ContributionsByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("contributions: %v", err)
	}
	if len(contributions) != 3 {
		t.Fatalf("expected 3 seeded contributions (owner-1..3), got %d", len(contributions))
	}
	for _, c := range contributions {
		if c.OwnerID == "owner-4" {
			t.Error("late joiner must not be seeded")
		}
		if !c.ExpectedAmount.Equal(d("300")) {
			t.Errorf("expected share 300, got %s", c.ExpectedAmount)
		}
		if c.Status != hoa.ContributionNotPaid || !c.PaidAmount.IsZero() {
			t.Errorf("seeded contribution must start NOT_PAID at zero, got %s/%s", c.Status, c.PaidAmount)
		}
	}
}

func TestCreateProject_NoEligibleOwners(t *testing.T) {
	// GIVEN: A property with no owners joined before the start date
	// WHEN: Creating a project
	// THEN: The project exists with zero contributions

	f := newFixture()
	ctx := context.Background()

	project, err := f.ledger.CreateProject(ctx, hoa.ExceptionalProject{
		ID: "p1", PropertyID: "residence-a", Year: 2025, Name: "Facade",
		ExpectedIncome: d("500"),
		StartDate:      time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	contributions, _ := f.store.ContributionsByProject(ctx, project.ID)
	if len(contributions) != 0 {
		t.Errorf("expected no contributions, got %d", len(contributions))
	}
}

// =============================================================================
// 7. CONTRIBUTIONS
// =============================================================================

func (f *fixture) seedProject(t *testing.T) hoa.ProjectID {
	t.Helper()
	ctx := context.Background()
	f.seedResidence(t)
	_, err := f.ledger.CreateProject(ctx, hoa.ExceptionalProject{
		ID: "roof-2025", PropertyID: "residence-a", Year: 2025, Name: "Roof repair",
		ExpectedIncome: d("300"),
		StartDate:      time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return "roof-2025"
}

func TestRecordContribution_StatusRecompute(t *testing.T) {
	// GIVEN: owner-1 owes 300 on the project
	// WHEN: Paying 100, then 200, then 50 more
	// THEN: PARTIALLY_PAID -> FULLY_PAID -> still FULLY_PAID (no clamping)

	f := newFixture()
	ctx := context.Background()
	projectID := f.seedProject(t)
	contributor := hoa.OwnerContributor("owner-1")

	status, err := f.ledger.RecordContribution(ctx, projectID, contributor, d("100"))
	if err != nil {
		t.Fatalf("first contribution: %v", err)
	}
	if status != hoa.ContributionPartiallyPaid {
		t.Errorf("after 100/300: expected PARTIALLY_PAID, got %s", status)
	}

	status, err = f.ledger.RecordContribution(ctx, projectID, contributor, d("200"))
	if err != nil {
		t.Fatalf("second contribution: %v", err)
	}
	if status != hoa.ContributionFullyPaid {
		t.Errorf("after 300/300: expected FULLY_PAID, got %s", status)
	}

	status, err = f.ledger.RecordContribution(ctx, projectID, contributor, d("50"))
	if err != nil {
		t.Fatalf("third contribution: %v", err)
	}
	if status != hoa.ContributionFullyPaid {
		t.Errorf("over-payment must stay FULLY_PAID, got %s", status)
	}

	c, _ := f.store.Contribution(ctx, projectID, "owner-1")
	if !c.PaidAmount.Equal(d("350")) {
		t.Errorf("expected unclamped total 350, got %s", c.PaidAmount)
	}
}

func TestRecordContribution_ExternalContributor(t *testing.T) {
	// GIVEN: An external party expected to fund 1000
	// WHEN: It pays 1000
	// THEN: FULLY_PAID, resolved through the external branch of the union

	f := newFixture()
	ctx := context.Background()
	projectID := f.seedProject(t)

	ec, err := f.ledger.AddExternalContributor(ctx, hoa.ExternalContributor{
		ID: "municipality", ProjectID: projectID, Name: "City hall", ExpectedAmount: d("1000"),
	})
	if err != nil {
		t.Fatalf("add contributor: %v", err)
	}
	if ec.Status != hoa.ContributionNotPaid {
		t.Errorf("new contributor must start NOT_PAID, got %s", ec.Status)
	}

	status, err := f.ledger.RecordContribution(ctx, projectID, hoa.ExternalParty("municipality"), d("1000"))
	if err != nil {
		t.Fatalf("contribution: %v", err)
	}
	if status != hoa.ContributionFullyPaid {
		t.Errorf("expected FULLY_PAID, got %s", status)
	}
}

func TestRecordContribution_UnknownContributorRejected(t *testing.T) {
	// GIVEN: A project with seeded owners
	// WHEN: A contributor that matches no record pays
	// THEN: ErrContributorNotFound, no history written

	f := newFixture()
	ctx := context.Background()
	projectID := f.seedProject(t)

	_, err := f.ledger.RecordContribution(ctx, projectID, hoa.ExternalParty("nobody"), d("10"))
	if err == nil {
		t.Fatal("expected unknown contributor to be rejected")
	}

	history, _ := f.store.ContributionHistory(ctx, projectID)
	if len(history) != 0 {
		t.Errorf("rejected contribution must not write history, got %d entries", len(history))
	}
}

func TestRecordContribution_HistoryAppended(t *testing.T) {
	// GIVEN: Two payments on one project
	// THEN: Two append-only history entries in order, carrying the union tag

	f := newFixture()
	ctx := context.Background()
	projectID := f.seedProject(t)

	f.ledger.RecordContribution(ctx, projectID, hoa.OwnerContributor("owner-1"), d("100"))
	f.ledger.RecordContribution(ctx, projectID, hoa.OwnerContributor("owner-1"), d("50"))

	history, err := f.store.ContributionHistory(ctx, projectID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Contributor.Kind != hoa.ContributorOwner {
		t.Errorf("expected owner kind, got %s", history[0].Contributor.Kind)
	}
	if !history[1].PreviousAmount.Equal(d("100")) || !history[1].NewAmount.Equal(d("150")) {
		t.Errorf("second entry must chain 100 -> 150, got %s -> %s",
			history[1].PreviousAmount, history[1].NewAmount)
	}
}

// =============================================================================
// 8. OUTCOME STATE MACHINE
// =============================================================================

func (f *fixture) seedOutcome(t *testing.T) hoa.OutcomeID {
	t.Helper()
	o, err := f.ledger.SaveMonthlyOutcome(context.Background(), hoa.MonthlyOutcome{
		PropertyID: "residence-a",
		Period:     hoa.NewYearMonth(2025, time.May),
		CategoryID: "cleaning",
		Amount:     d("120"),
	})
	if err != nil {
		t.Fatalf("seed outcome: %v", err)
	}
	return o.ID
}

func TestOutcome_ConfirmCancelReconfirmLeavesThreeEntries(t *testing.T) {
	// GIVEN: A pending monthly outcome of 120
	// WHEN: confirm -> cancel("wrong invoice") -> confirm
	// THEN: Three transactions (+120, -120, +120); record ends confirmed

	f := newFixture()
	ctx := context.Background()
	id := f.seedOutcome(t)

	if _, err := f.ledger.ConfirmMonthlyOutcome(ctx, id); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.ledger.CancelMonthlyOutcome(ctx, id, "wrong invoice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	o, err := f.ledger.ConfirmMonthlyOutcome(ctx, id)
	if err != nil {
		t.Fatalf("reconfirm: %v", err)
	}
	if !o.IsConfirmed {
		t.Error("record must end confirmed")
	}

	txs, err := f.store.OutcomeTransactions(ctx, id)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 replay entries, got %d", len(txs))
	}
	wants := []string{"120", "-120", "120"}
	for i, w := range wants {
		if !txs[i].Amount.Equal(d(w)) {
			t.Errorf("entry %d: expected %s, got %s", i, w, txs[i].Amount)
		}
	}
	if txs[1].Reason != "wrong invoice" {
		t.Errorf("compensating entry must carry the reason, got %q", txs[1].Reason)
	}
}

func TestOutcome_CancelRequiresReason(t *testing.T) {
	// GIVEN: A confirmed outcome
	// WHEN: Cancelling with a blank reason
	// THEN: Rejected; the record stays confirmed, no compensating entry

	f := newFixture()
	ctx := context.Background()
	id := f.seedOutcome(t)
	f.ledger.ConfirmMonthlyOutcome(ctx, id)

	if _, err := f.ledger.CancelMonthlyOutcome(ctx, id, "   "); err == nil {
		t.Fatal("expected blank reason to be rejected")
	}

	o, _ := f.store.Outcome(ctx, id)
	if !o.IsConfirmed {
		t.Error("failed cancel must leave the record confirmed")
	}
	txs, _ := f.store.OutcomeTransactions(ctx, id)
	if len(txs) != 1 {
		t.Errorf("expected only the confirm entry, got %d", len(txs))
	}
}

func TestOutcome_InvalidTransitionsRejected(t *testing.T) {
	// GIVEN: A pending outcome
	// THEN: cancel-before-confirm and double-confirm both fail

	f := newFixture()
	ctx := context.Background()
	id := f.seedOutcome(t)

	if _, err := f.ledger.CancelMonthlyOutcome(ctx, id, "reason"); err == nil {
		t.Error("cancelling a pending outcome must fail")
	}

	f.ledger.ConfirmMonthlyOutcome(ctx, id)
	if _, err := f.ledger.ConfirmMonthlyOutcome(ctx, id); err == nil {
		t.Error("double confirm must fail")
	}
}

func TestExceptionalOutcome_SameStateMachine(t *testing.T) {
	// GIVEN: A project expense of 75
	// WHEN: confirm -> cancel("duplicate")
	// THEN: Entries +75 and -75; the final entry carries the reason

	f := newFixture()
	ctx := context.Background()
	projectID := f.seedProject(t)

	o, err := f.ledger.CreateExceptionalOutcome(ctx, hoa.ExceptionalOutcome{
		ProjectID:   projectID,
		Description: "Scaffolding rental",
		Amount:      d("75"),
		Date:        time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.ledger.ConfirmExceptionalOutcome(ctx, o.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.ledger.CancelExceptionalOutcome(ctx, o.ID, "duplicate"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	txs, _ := f.store.OutcomeTransactions(ctx, o.ID)
	if len(txs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(txs))
	}
	if !txs[1].Amount.Equal(d("-75")) || txs[1].Reason != "duplicate" {
		t.Errorf("expected compensating -75 with reason, got %s %q", txs[1].Amount, txs[1].Reason)
	}
}

func TestExceptionalOutcome_RequiresExistingProject(t *testing.T) {
	// WHEN: Recording an expense against a project that does not exist
	// THEN: ErrProjectNotFound

	f := newFixture()
	_, err := f.ledger.CreateExceptionalOutcome(context.Background(), hoa.ExceptionalOutcome{
		ProjectID: "ghost", Description: "x", Amount: d("10"),
		Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected missing project to be rejected")
	}
}
