/*
project.go - Exceptional project budgets

PURPOSE:
  An exceptional project is a one-off budget (roof repair, facade work)
  with its own income ledger (owner and external contributions) and its
  own expense ledger (exceptional outcomes), separate from the recurring
  monthly dues cycle.

EVEN-SPLIT SEEDING:
  Creating a project splits its expected income evenly across the owners
  who had already joined the property as of the project's start date.
  Each eligible owner gets one contribution record:

    expectedAmount = expectedIncome / eligibleOwnerCount
    paidAmount     = 0
    status         = NOT_PAID

  Owners who join after the start date are not retroactively billed.
  External contributors are added separately with their own expected
  amounts (see contribution.go).

SEE ALSO:
  - contribution.go: Payment recording and status recompute
  - outcome.go: Exceptional expense lifecycle
*/
package hoa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExceptionalProject is a one-off budget scoped to a property and year.
type ExceptionalProject struct {
	ID              ProjectID       `json:"id"`
	PropertyID      PropertyID      `json:"propertyId"`
	Year            int             `json:"year"`
	Name            string          `json:"name"`
	ExpectedIncome  decimal.Decimal `json:"expectedIncome"`
	ExpectedOutcome decimal.Decimal `json:"expectedOutcome"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate,omitempty"`
}

// CreateProject stores the project and seeds one contribution per owner
// active as of the start date, splitting the expected income evenly.
func (l *Ledger) CreateProject(ctx context.Context, p ExceptionalProject) (*ExceptionalProject, error) {
	if p.ID == "" {
		p.ID = ProjectID(uuid.NewString())
	}
	if err := l.Store.SaveProject(ctx, p); err != nil {
		return nil, err
	}

	owners, err := l.Store.OwnersByProperty(ctx, p.PropertyID)
	if err != nil {
		return nil, err
	}
	var eligible []Owner
	for _, o := range owners {
		if !o.JoinDate.After(p.StartDate) {
			eligible = append(eligible, o)
		}
	}
	if len(eligible) == 0 {
		return &p, nil
	}

	share := p.ExpectedIncome.Div(decimal.NewFromInt(int64(len(eligible))))
	for _, o := range eligible {
		c := ExceptionalContribution{
			ProjectID:      p.ID,
			OwnerID:        o.ID,
			ExpectedAmount: share,
			PaidAmount:     decimal.Zero,
			Status:         ContributionNotPaid,
		}
		if err := l.Store.SaveContribution(ctx, c); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
