/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - Domain types (hoa.*, report.*) serialize directly where their JSON
    shape already IS the contract - no parallel DTO is kept for those.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - hoa/types.go: Domain shapes serialized as-is
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atrium/hoa-engine/hoa"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreatePropertyRequest is the request to register a property.
type CreatePropertyRequest struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	ConstructionDate time.Time `json:"constructionDate"`
}

// CreateOwnerRequest is the request to register an owner.
type CreateOwnerRequest struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"fullName"`
	OwnershipTitleCode string    `json:"ownershipTitleCode"`
	JoinDate           time.Time `json:"joinDate"`
	UnitID             string    `json:"unitId"`
	RenterName         string    `json:"renterName"`
}

// CreateUnitRequest is the request to register a unit.
type CreateUnitRequest struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	UnitTypeID string          `json:"unitTypeId"`
	Surface    decimal.Decimal `json:"surface"`
}

// CreateUnitTypeRequest is the request to register a unit type.
type CreateUnitTypeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateCategoryRequest is the request to register an expense category.
type CreateCategoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UpdatePoliciesRequest upserts a year's fee policies in bulk.
type UpdatePoliciesRequest struct {
	Policies []hoa.PolicyUpdate `json:"policies"`
}

// RecordPaymentRequest records a dues payment for one owner-month.
type RecordPaymentRequest struct {
	OwnerID string          `json:"ownerId"`
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Amount  decimal.Decimal `json:"amount"`
}

// SetPaymentStatusRequest administratively overrides a month's status.
type SetPaymentStatusRequest struct {
	OwnerID string            `json:"ownerId"`
	Year    int               `json:"year"`
	Month   int               `json:"month"`
	Status  hoa.PaymentStatus `json:"status"`
}

// SaveOutcomeRequest creates or updates a recurring monthly expense.
type SaveOutcomeRequest struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	PhotoURL   string          `json:"photoUrl"`
}

// CancelOutcomeRequest cancels a confirmed outcome. Reason is mandatory.
type CancelOutcomeRequest struct {
	Reason string `json:"reason"`
}

// CreateProjectRequest creates an exceptional project and seeds its
// owner contributions.
type CreateProjectRequest struct {
	ID              string          `json:"id"`
	Year            int             `json:"year"`
	Name            string          `json:"name"`
	ExpectedIncome  decimal.Decimal `json:"expectedIncome"`
	ExpectedOutcome decimal.Decimal `json:"expectedOutcome"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         *time.Time      `json:"endDate"`
}

// AddExternalContributorRequest registers a non-owner project funder.
type AddExternalContributorRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
}

// RecordContributionRequest records an exceptional payment by either an
// owner or an external contributor.
type RecordContributionRequest struct {
	ContributorKind hoa.ContributorKind `json:"contributorKind"`
	ContributorID   string              `json:"contributorId"`
	Amount          decimal.Decimal     `json:"amount"`
}

// CreateExceptionalOutcomeRequest records a project expense.
type CreateExceptionalOutcomeRequest struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PhotoURL    string          `json:"photoUrl"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RecordContributionResponse reports the contributor's status after a
// payment.
type RecordContributionResponse struct {
	Status hoa.ContributionStatus `json:"status"`
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
