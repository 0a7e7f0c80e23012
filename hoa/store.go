/*
store.go - Persistence interfaces for the HOA engine

PURPOSE:
  Defines the boundary between the engine and the database. Implementations
  exist for SQLite (store/sqlite) and in-memory (store/memory).

SHAPE:
  Current-state records (payments, contributions, outcomes, policies,
  registry) are upserted in place. History collections (payment history,
  contribution history, outcome transactions) are APPEND-ONLY: the
  interfaces expose no update or delete for them, ever. Corrections are
  made with compensating entries.

LOOKUPS:
  Single-record getters return (nil, nil) when the record is absent;
  the engine decides whether absence is an error (payment recording) or
  a zero floor (policy resolution).

SNAPSHOT:
  The whole database round-trips through one Snapshot document for
  backup/restore. Encode -> decode -> encode must be lossless.
*/
package hoa

import "context"

// =============================================================================
// POLICY STORE
// =============================================================================

type PolicyStore interface {
	// Policy returns the exact (property, year, unitType) match, or nil.
	Policy(ctx context.Context, propertyID PropertyID, year int, unitTypeID UnitTypeID) (*UnitTypeFeePolicy, error)

	// PoliciesForUnitType returns all years' policies for one unit type.
	PoliciesForUnitType(ctx context.Context, propertyID PropertyID, unitTypeID UnitTypeID) ([]UnitTypeFeePolicy, error)

	// PoliciesForYear returns all unit types' policies for one year.
	PoliciesForYear(ctx context.Context, propertyID PropertyID, year int) ([]UnitTypeFeePolicy, error)

	// SavePolicy upserts by (property, year, unitType).
	SavePolicy(ctx context.Context, p UnitTypeFeePolicy) error

	// DeletePoliciesForUnitType removes every year's policy for the unit
	// type. Only called from the unit-type deletion cascade.
	DeletePoliciesForUnitType(ctx context.Context, propertyID PropertyID, unitTypeID UnitTypeID) error
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

type PaymentStore interface {
	Payment(ctx context.Context, id PaymentID) (*MonthlyPayment, error)
	SavePayment(ctx context.Context, p MonthlyPayment) error
	PaymentsByProperty(ctx context.Context, propertyID PropertyID) ([]MonthlyPayment, error)

	// AppendPaymentHistory adds an audit entry. Append-only.
	AppendPaymentHistory(ctx context.Context, e PaymentHistoryEntry) error
	PaymentHistory(ctx context.Context, paymentID PaymentID) ([]PaymentHistoryEntry, error)
}

// =============================================================================
// OUTCOME STORE
// =============================================================================

type OutcomeStore interface {
	Outcome(ctx context.Context, id OutcomeID) (*MonthlyOutcome, error)
	SaveOutcome(ctx context.Context, o MonthlyOutcome) error
	OutcomesByProperty(ctx context.Context, propertyID PropertyID) ([]MonthlyOutcome, error)

	ExceptionalOutcome(ctx context.Context, id OutcomeID) (*ExceptionalOutcome, error)
	SaveExceptionalOutcome(ctx context.Context, o ExceptionalOutcome) error
	ExceptionalOutcomesByProject(ctx context.Context, projectID ProjectID) ([]ExceptionalOutcome, error)

	// AppendOutcomeTransaction adds a replay-history entry. Append-only.
	// Shared by monthly and exceptional outcomes.
	AppendOutcomeTransaction(ctx context.Context, tx OutcomeTransaction) error
	OutcomeTransactions(ctx context.Context, outcomeID OutcomeID) ([]OutcomeTransaction, error)
}

// =============================================================================
// PROJECT STORE
// =============================================================================

type ProjectStore interface {
	Project(ctx context.Context, id ProjectID) (*ExceptionalProject, error)
	SaveProject(ctx context.Context, p ExceptionalProject) error
	ProjectsByProperty(ctx context.Context, propertyID PropertyID) ([]ExceptionalProject, error)

	Contribution(ctx context.Context, projectID ProjectID, ownerID OwnerID) (*ExceptionalContribution, error)
	SaveContribution(ctx context.Context, c ExceptionalContribution) error
	ContributionsByProject(ctx context.Context, projectID ProjectID) ([]ExceptionalContribution, error)

	ExternalContributorByID(ctx context.Context, id string) (*ExternalContributor, error)
	SaveExternalContributor(ctx context.Context, ec ExternalContributor) error
	ExternalContributorsByProject(ctx context.Context, projectID ProjectID) ([]ExternalContributor, error)

	// AppendContributionHistory adds an audit entry. Append-only.
	AppendContributionHistory(ctx context.Context, e ContributionHistoryEntry) error
	ContributionHistory(ctx context.Context, projectID ProjectID) ([]ContributionHistoryEntry, error)
}

// =============================================================================
// REGISTRY STORE
// =============================================================================

type RegistryStore interface {
	Property(ctx context.Context, id PropertyID) (*Property, error)
	SaveProperty(ctx context.Context, p Property) error
	Properties(ctx context.Context) ([]Property, error)

	Owner(ctx context.Context, id OwnerID) (*Owner, error)
	SaveOwner(ctx context.Context, o Owner) error
	OwnersByProperty(ctx context.Context, propertyID PropertyID) ([]Owner, error)

	Unit(ctx context.Context, id UnitID) (*Unit, error)
	SaveUnit(ctx context.Context, u Unit) error
	UnitsByProperty(ctx context.Context, propertyID PropertyID) ([]Unit, error)

	UnitType(ctx context.Context, id UnitTypeID) (*UnitType, error)
	SaveUnitType(ctx context.Context, ut UnitType) error
	UnitTypesByProperty(ctx context.Context, propertyID PropertyID) ([]UnitType, error)
	DeleteUnitType(ctx context.Context, propertyID PropertyID, unitTypeID UnitTypeID) error

	Category(ctx context.Context, id CategoryID) (*ExpenseCategory, error)
	SaveCategory(ctx context.Context, c ExpenseCategory) error
	CategoriesByProperty(ctx context.Context, propertyID PropertyID) ([]ExpenseCategory, error)
}

// =============================================================================
// SNAPSHOT - Bulk backup/restore document
// =============================================================================

// Snapshot holds every collection for atomic export/import as one JSON
// document.
type Snapshot struct {
	Properties            []Property                 `json:"properties"`
	Owners                []Owner                    `json:"owners"`
	Units                 []Unit                     `json:"units"`
	UnitTypes             []UnitType                 `json:"unitTypes"`
	Categories            []ExpenseCategory          `json:"expenseCategories"`
	Policies              []UnitTypeFeePolicy        `json:"unitTypeFeePolicies"`
	Payments              []MonthlyPayment           `json:"monthlyPayments"`
	PaymentHistory        []PaymentHistoryEntry      `json:"paymentHistory"`
	Outcomes              []MonthlyOutcome           `json:"monthlyOutcomes"`
	OutcomeTransactions   []OutcomeTransaction       `json:"outcomeTransactions"`
	Projects              []ExceptionalProject       `json:"exceptionalProjects"`
	Contributions         []ExceptionalContribution  `json:"exceptionalContributions"`
	ExternalContributors  []ExternalContributor      `json:"externalContributors"`
	ExceptionalOutcomes   []ExceptionalOutcome       `json:"exceptionalOutcomes"`
	ContributionHistory   []ContributionHistoryEntry `json:"exceptionalPaymentHistory"`
}

type SnapshotStore interface {
	// Export snapshots all collections.
	Export(ctx context.Context) (*Snapshot, error)

	// Import replaces all collections with the snapshot's contents,
	// atomically: either everything is restored or nothing changes.
	Import(ctx context.Context, s *Snapshot) error
}

// =============================================================================
// STORE - The full persistence surface
// =============================================================================

type Store interface {
	PolicyStore
	PaymentStore
	OutcomeStore
	ProjectStore
	RegistryStore
	SnapshotStore
}
