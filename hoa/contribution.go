/*
contribution.go - Exceptional project income ledger

PURPOSE:
  Tracks who funds an exceptional project and how much they have paid.
  Two contributor kinds exist: property owners (seeded by the even split
  at project creation) and external parties (municipality grants,
  sponsors) added explicitly.

CONTRIBUTOR AS A SUM TYPE:
  Payment recording takes a Contributor value tagged Owner or External.
  Resolution to the underlying record happens in exactly one place
  (resolveContributor); call sites never branch on a type string.

STATUS RECOMPUTE:
  After every paid or expected amount change:
    FULLY_PAID      expected > 0 and paid >= expected
    PARTIALLY_PAID  paid > 0 and not fully paid
    NOT_PAID        otherwise
  The >= comparison means over-payment stays FULLY_PAID. This layer does
  not clamp payments to the remaining expected amount; callers may.

HISTORY:
  One ContributionHistoryEntry per recorded payment, append-only,
  mirroring the monthly payment history shape.
*/
package hoa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONTRIBUTION RECORDS
// =============================================================================

// ExceptionalContribution is an owner's share of a project's funding,
// keyed by (projectID, ownerID).
type ExceptionalContribution struct {
	ProjectID      ProjectID          `json:"projectId"`
	OwnerID        OwnerID            `json:"ownerId"`
	ExpectedAmount decimal.Decimal    `json:"expectedAmount"`
	PaidAmount     decimal.Decimal    `json:"paidAmount"`
	Status         ContributionStatus `json:"status"`
}

// ExternalContributor is a non-owner party funding a project.
type ExternalContributor struct {
	ID             string             `json:"id"`
	ProjectID      ProjectID          `json:"projectId"`
	Name           string             `json:"name"`
	ExpectedAmount decimal.Decimal    `json:"expectedAmount"`
	PaidAmount     decimal.Decimal    `json:"paidAmount"`
	Status         ContributionStatus `json:"status"`
}

// ContributionHistoryEntry is the immutable audit record of one
// exceptional payment. Append-only.
type ContributionHistoryEntry struct {
	TransactionID   TransactionID   `json:"transactionId"`
	ProjectID       ProjectID       `json:"projectId"`
	Contributor     Contributor     `json:"contributor"`
	PreviousAmount  decimal.Decimal `json:"previousAmount"`
	NewAmount       decimal.Decimal `json:"newAmount"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	TransactionDate time.Time       `json:"transactionDate"`
	Notes           string          `json:"notes,omitempty"`
}

// =============================================================================
// CONTRIBUTOR - Tagged union over owner and external parties
// =============================================================================

type ContributorKind string

const (
	ContributorOwner    ContributorKind = "owner"
	ContributorExternal ContributorKind = "external"
)

// Contributor identifies who is paying: an owner (by owner ID) or an
// external party (by external contributor ID).
type Contributor struct {
	Kind ContributorKind `json:"kind"`
	ID   string          `json:"id"`
}

func OwnerContributor(id OwnerID) Contributor {
	return Contributor{Kind: ContributorOwner, ID: string(id)}
}

func ExternalParty(id string) Contributor {
	return Contributor{Kind: ContributorExternal, ID: id}
}

// contributionAccount is the resolved view over either record kind.
type contributionAccount struct {
	expected decimal.Decimal
	paid     decimal.Decimal
	save     func(ctx context.Context, paid decimal.Decimal, status ContributionStatus) error
}

// resolveContributor is the single place the union is taken apart.
func (l *Ledger) resolveContributor(ctx context.Context, projectID ProjectID, c Contributor) (*contributionAccount, error) {
	switch c.Kind {
	case ContributorOwner:
		rec, err := l.Store.Contribution(ctx, projectID, OwnerID(c.ID))
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrContributorNotFound
		}
		return &contributionAccount{
			expected: rec.ExpectedAmount,
			paid:     rec.PaidAmount,
			save: func(ctx context.Context, paid decimal.Decimal, status ContributionStatus) error {
				rec.PaidAmount = paid
				rec.Status = status
				return l.Store.SaveContribution(ctx, *rec)
			},
		}, nil
	case ContributorExternal:
		rec, err := l.Store.ExternalContributorByID(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.ProjectID != projectID {
			return nil, ErrContributorNotFound
		}
		return &contributionAccount{
			expected: rec.ExpectedAmount,
			paid:     rec.PaidAmount,
			save: func(ctx context.Context, paid decimal.Decimal, status ContributionStatus) error {
				rec.PaidAmount = paid
				rec.Status = status
				return l.Store.SaveExternalContributor(ctx, *rec)
			},
		}, nil
	default:
		return nil, ErrContributorNotFound
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// AddExternalContributor registers an external funding party on a project.
func (l *Ledger) AddExternalContributor(ctx context.Context, ec ExternalContributor) (*ExternalContributor, error) {
	project, err := l.Store.Project(ctx, ec.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	if ec.ID == "" {
		ec.ID = uuid.NewString()
	}
	ec.PaidAmount = decimal.Zero
	ec.Status = ContributionStatusFor(ec.ExpectedAmount, ec.PaidAmount)
	if err := l.Store.SaveExternalContributor(ctx, ec); err != nil {
		return nil, err
	}
	return &ec, nil
}

// RecordContribution adds an amount to a contributor's paid total,
// recomputes the status, and appends a history entry. Additive and
// monotonic; the amount is not clamped to the remaining expectation.
func (l *Ledger) RecordContribution(ctx context.Context, projectID ProjectID, c Contributor, amount decimal.Decimal) (ContributionStatus, error) {
	if amount.IsNegative() {
		return "", &NegativeAmountError{Op: "record contribution", Amount: amount}
	}

	account, err := l.resolveContributor(ctx, projectID, c)
	if err != nil {
		return "", err
	}

	total := account.paid.Add(amount)
	status := ContributionStatusFor(account.expected, total)
	if err := account.save(ctx, total, status); err != nil {
		return "", err
	}

	entry := ContributionHistoryEntry{
		TransactionID:   TransactionID(uuid.NewString()),
		ProjectID:       projectID,
		Contributor:     c,
		PreviousAmount:  account.paid,
		NewAmount:       total,
		AmountPaid:      amount,
		TransactionDate: l.Clock(),
	}
	if err := l.Store.AppendContributionHistory(ctx, entry); err != nil {
		return "", err
	}
	return status, nil
}
