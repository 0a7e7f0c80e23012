/*
handlers.go - HTTP API handlers for the HOA management engine

PURPOSE:
  Exposes the policy, ledger, registry and reporting engines via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Registry:
    GET/POST /api/properties                      Properties
    GET/POST /api/properties/{id}/owners          Owners
    GET/POST /api/properties/{id}/units           Units
    GET/POST /api/properties/{id}/unit-types      Unit types (+DELETE)
    GET/POST /api/properties/{id}/categories      Categories (+archive)

  Policies:
    GET  /api/properties/{id}/policies/{year}                 Year's policies
    PUT  /api/properties/{id}/policies/{year}                 Bulk upsert
    GET  /api/properties/{id}/policies/{year}/{unitTypeID}    Resolved policy

  Ledger:
    POST /api/properties/{id}/payments            Record dues payment
    PUT  /api/properties/{id}/payments/status     Administrative override
    GET  /api/payments/{id}/history               Payment audit log
    GET  /api/owners/{id}/overdue                 Overdue walk
    GET  /api/owners/{id}/summary?year=           Annual dues summary

  Outcomes:
    GET/POST /api/properties/{id}/outcomes        Monthly expenses
    POST /api/outcomes/{id}/confirm|cancel        State machine
    GET  /api/outcomes/{id}/transactions          Replay history

  Projects:
    GET/POST /api/properties/{id}/projects        Exceptional projects
    POST /api/projects/{id}/contributors          External contributor
    GET/POST /api/projects/{id}/contributions     Record/list contributions
    GET  /api/projects/{id}/history               Contribution audit log
    POST /api/projects/{id}/outcomes              Project expense
    POST /api/exceptional-outcomes/{id}/confirm|cancel

  Reports:
    GET /api/properties/{id}/reports/*            Derived views

  Backup:
    GET  /api/backup                              Full snapshot export
    POST /api/restore                             Atomic snapshot import

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate code, in-use, already confirmed)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atrium/hoa-engine/hoa"
	"github.com/atrium/hoa-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    hoa.Store
	Ledger   *hoa.Ledger
	Registry *hoa.Registry
	Policies *hoa.PolicyResolver
	Overdue  *hoa.OverdueCalculator
	Reports  *report.Reporter
	Clock    hoa.Clock
}

// NewHandler wires every engine around a single store and clock.
func NewHandler(store hoa.Store, clock hoa.Clock) *Handler {
	if clock == nil {
		clock = hoa.SystemClock
	}
	policies := hoa.NewPolicyResolver(store)
	return &Handler{
		Store:    store,
		Ledger:   hoa.NewLedger(store, clock),
		Registry: hoa.NewRegistry(store),
		Policies: policies,
		Overdue:  hoa.NewOverdueCalculator(store, policies, clock),
		Reports:  report.NewReporter(store, policies, clock),
		Clock:    clock,
	}
}

// =============================================================================
// REGISTRY HANDLERS
// =============================================================================

// ListProperties returns all registered properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Store.Properties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list properties", err)
		return
	}
	if properties == nil {
		properties = []hoa.Property{}
	}
	writeJSON(w, http.StatusOK, properties)
}

// CreateProperty registers a property.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	property, err := h.Registry.CreateProperty(r.Context(), hoa.Property{
		ID:               hoa.PropertyID(req.ID),
		Name:             req.Name,
		Address:          req.Address,
		ConstructionDate: req.ConstructionDate,
	})
	if err != nil {
		writeDomainError(w, "failed to create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, property)
}

// GetProperty returns one property.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := h.Store.Property(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get property", err)
		return
	}
	if property == nil {
		writeError(w, http.StatusNotFound, "property not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

// ListOwners returns a property's owners.
func (h *Handler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.Store.OwnersByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list owners", err)
		return
	}
	if owners == nil {
		owners = []hoa.Owner{}
	}
	writeJSON(w, http.StatusOK, owners)
}

// CreateOwner registers an owner under a property.
func (h *Handler) CreateOwner(w http.ResponseWriter, r *http.Request) {
	var req CreateOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	owner, err := h.Registry.CreateOwner(r.Context(), hoa.Owner{
		ID:                 hoa.OwnerID(req.ID),
		PropertyID:         propertyID(r),
		FullName:           req.FullName,
		OwnershipTitleCode: req.OwnershipTitleCode,
		JoinDate:           req.JoinDate,
		UnitID:             hoa.UnitID(req.UnitID),
		RenterName:         req.RenterName,
	})
	if err != nil {
		writeDomainError(w, "failed to create owner", err)
		return
	}
	writeJSON(w, http.StatusCreated, owner)
}

// ListUnits returns a property's units.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.UnitsByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list units", err)
		return
	}
	if units == nil {
		units = []hoa.Unit{}
	}
	writeJSON(w, http.StatusOK, units)
}

// CreateUnit registers a unit under a property.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	unit, err := h.Registry.CreateUnit(r.Context(), hoa.Unit{
		ID:         hoa.UnitID(req.ID),
		PropertyID: propertyID(r),
		Code:       req.Code,
		UnitTypeID: hoa.UnitTypeID(req.UnitTypeID),
		Surface:    req.Surface,
	})
	if err != nil {
		writeDomainError(w, "failed to create unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

// ListUnitTypes returns a property's unit types.
func (h *Handler) ListUnitTypes(w http.ResponseWriter, r *http.Request) {
	unitTypes, err := h.Store.UnitTypesByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list unit types", err)
		return
	}
	if unitTypes == nil {
		unitTypes = []hoa.UnitType{}
	}
	writeJSON(w, http.StatusOK, unitTypes)
}

// CreateUnitType registers a unit type under a property.
func (h *Handler) CreateUnitType(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	unitType, err := h.Registry.CreateUnitType(r.Context(), hoa.UnitType{
		ID:         hoa.UnitTypeID(req.ID),
		PropertyID: propertyID(r),
		Name:       req.Name,
	})
	if err != nil {
		writeDomainError(w, "failed to create unit type", err)
		return
	}
	writeJSON(w, http.StatusCreated, unitType)
}

// DeleteUnitType removes an unused unit type and its fee policies.
func (h *Handler) DeleteUnitType(w http.ResponseWriter, r *http.Request) {
	err := h.Registry.DeleteUnitType(r.Context(), propertyID(r),
		hoa.UnitTypeID(chi.URLParam(r, "unitTypeID")))
	if err != nil {
		writeDomainError(w, "failed to delete unit type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns a property's expense categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.CategoriesByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories", err)
		return
	}
	if categories == nil {
		categories = []hoa.ExpenseCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory registers an expense category under a property.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	category, err := h.Registry.CreateCategory(r.Context(), hoa.ExpenseCategory{
		ID:         hoa.CategoryID(req.ID),
		PropertyID: propertyID(r),
		Name:       req.Name,
	})
	if err != nil {
		writeDomainError(w, "failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// ArchiveCategory hides an unused category from future entry.
func (h *Handler) ArchiveCategory(w http.ResponseWriter, r *http.Request) {
	err := h.Registry.ArchiveCategory(r.Context(), propertyID(r),
		hoa.CategoryID(chi.URLParam(r, "categoryID")))
	if err != nil {
		writeDomainError(w, "failed to archive category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns the stored policies of one year.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	policies, err := h.Store.PoliciesForYear(r.Context(), propertyID(r), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list policies", err)
		return
	}
	if policies == nil {
		policies = []hoa.UnitTypeFeePolicy{}
	}
	writeJSON(w, http.StatusOK, policies)
}

// UpdatePolicies bulk-upserts a year's policies.
func (h *Handler) UpdatePolicies(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	var req UpdatePoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.Policies.UpdatePolicies(r.Context(), propertyID(r), year, req.Policies); err != nil {
		writeDomainError(w, "failed to update policies", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolvePolicy returns the effective policy for a unit type and year,
// materializing an inherited one if needed.
func (h *Handler) ResolvePolicy(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	policy, err := h.Policies.Resolve(r.Context(), propertyID(r), year,
		hoa.UnitTypeID(chi.URLParam(r, "unitTypeID")))
	if err != nil {
		writeDomainError(w, "failed to resolve policy", err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// RecordPayment records a dues payment against the month's adjusted due.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	propID := propertyID(r)
	period := hoa.NewYearMonth(req.Year, time.Month(req.Month))

	due, err := h.adjustedDueForOwner(r, propID, hoa.OwnerID(req.OwnerID), period)
	if err != nil {
		writeDomainError(w, "failed to compute adjusted due", err)
		return
	}
	payment, err := h.Ledger.RecordPayment(r.Context(), hoa.PaymentInput{
		PropertyID: propID,
		OwnerID:    hoa.OwnerID(req.OwnerID),
		Period:     period,
		AmountDue:  due,
		Amount:     req.Amount,
	}, due)
	if err != nil {
		writeDomainError(w, "failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// SetPaymentStatus applies an administrative status override (PAUSED and
// back). Writes no history.
func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req SetPaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	payment, err := h.Ledger.SetPaymentStatus(r.Context(), propertyID(r),
		hoa.OwnerID(req.OwnerID), hoa.NewYearMonth(req.Year, time.Month(req.Month)), req.Status)
	if err != nil {
		writeDomainError(w, "failed to set payment status", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// GetPaymentHistory returns the append-only log of one owner-month.
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Store.PaymentHistory(r.Context(), hoa.PaymentID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get payment history", err)
		return
	}
	if history == nil {
		history = []hoa.PaymentHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// GetOverdue returns an owner's outstanding past months.
func (h *Handler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	details, err := h.Overdue.ForOwner(r.Context(), hoa.OwnerID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to compute overdue", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GetOwnerSummary returns an owner's twelve dues months of a year.
func (h *Handler) GetOwnerSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.OwnerAnnualSummary(r.Context(), hoa.OwnerID(chi.URLParam(r, "id")), year)
	if err != nil {
		writeDomainError(w, "failed to build owner summary", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// OUTCOME HANDLERS
// =============================================================================

// ListOutcomes returns a property's monthly expenses.
func (h *Handler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.Store.OutcomesByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list outcomes", err)
		return
	}
	if outcomes == nil {
		outcomes = []hoa.MonthlyOutcome{}
	}
	writeJSON(w, http.StatusOK, outcomes)
}

// SaveOutcome creates or updates a recurring monthly expense draft.
func (h *Handler) SaveOutcome(w http.ResponseWriter, r *http.Request) {
	var req SaveOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	propID := propertyID(r)
	period := hoa.NewYearMonth(req.Year, time.Month(req.Month))
	outcome, err := h.Ledger.SaveMonthlyOutcome(r.Context(), hoa.MonthlyOutcome{
		ID:         hoa.MonthlyOutcomeID(propID, period, hoa.CategoryID(req.CategoryID)),
		PropertyID: propID,
		Period:     period,
		CategoryID: hoa.CategoryID(req.CategoryID),
		Amount:     req.Amount,
		PhotoURL:   req.PhotoURL,
	})
	if err != nil {
		writeDomainError(w, "failed to save outcome", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ConfirmOutcome confirms a monthly expense, appending a positive
// transaction.
func (h *Handler) ConfirmOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Ledger.ConfirmMonthlyOutcome(r.Context(), hoa.OutcomeID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to confirm outcome", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// CancelOutcome cancels a confirmed monthly expense with a compensating
// transaction. The reason is mandatory.
func (h *Handler) CancelOutcome(w http.ResponseWriter, r *http.Request) {
	var req CancelOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	outcome, err := h.Ledger.CancelMonthlyOutcome(r.Context(), hoa.OutcomeID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, "failed to cancel outcome", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// GetOutcomeTransactions returns the confirm/cancel replay history.
func (h *Handler) GetOutcomeTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.OutcomeTransactions(r.Context(), hoa.OutcomeID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get outcome transactions", err)
		return
	}
	if txs == nil {
		txs = []hoa.OutcomeTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns a property's exceptional projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ProjectsByProperty(r.Context(), propertyID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list projects", err)
		return
	}
	if projects == nil {
		projects = []hoa.ExceptionalProject{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject creates an exceptional project and seeds an even-split
// contribution per owner active at the start date.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	project, err := h.Ledger.CreateProject(r.Context(), hoa.ExceptionalProject{
		ID:              hoa.ProjectID(req.ID),
		PropertyID:      propertyID(r),
		Year:            req.Year,
		Name:            req.Name,
		ExpectedIncome:  req.ExpectedIncome,
		ExpectedOutcome: req.ExpectedOutcome,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		writeDomainError(w, "failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// AddExternalContributor registers a non-owner project funder.
func (h *Handler) AddExternalContributor(w http.ResponseWriter, r *http.Request) {
	var req AddExternalContributorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	contributor, err := h.Ledger.AddExternalContributor(r.Context(), hoa.ExternalContributor{
		ID:             req.ID,
		ProjectID:      hoa.ProjectID(chi.URLParam(r, "id")),
		Name:           req.Name,
		ExpectedAmount: req.ExpectedAmount,
	})
	if err != nil {
		writeDomainError(w, "failed to add contributor", err)
		return
	}
	writeJSON(w, http.StatusCreated, contributor)
}

// RecordContribution records an exceptional payment by an owner or an
// external contributor.
func (h *Handler) RecordContribution(w http.ResponseWriter, r *http.Request) {
	var req RecordContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	status, err := h.Ledger.RecordContribution(r.Context(),
		hoa.ProjectID(chi.URLParam(r, "id")),
		hoa.Contributor{Kind: req.ContributorKind, ID: req.ContributorID},
		req.Amount)
	if err != nil {
		writeDomainError(w, "failed to record contribution", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordContributionResponse{Status: status})
}

// ListContributions returns a project's owner contributions.
func (h *Handler) ListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.Store.ContributionsByProject(r.Context(), hoa.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contributions", err)
		return
	}
	if contributions == nil {
		contributions = []hoa.ExceptionalContribution{}
	}
	writeJSON(w, http.StatusOK, contributions)
}

// GetContributionHistory returns a project's append-only payment log.
func (h *Handler) GetContributionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Store.ContributionHistory(r.Context(), hoa.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get contribution history", err)
		return
	}
	if history == nil {
		history = []hoa.ContributionHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// CreateExceptionalOutcome records a project expense draft.
func (h *Handler) CreateExceptionalOutcome(w http.ResponseWriter, r *http.Request) {
	var req CreateExceptionalOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	outcome, err := h.Ledger.CreateExceptionalOutcome(r.Context(), hoa.ExceptionalOutcome{
		ID:          hoa.OutcomeID(req.ID),
		ProjectID:   hoa.ProjectID(chi.URLParam(r, "id")),
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		writeDomainError(w, "failed to create exceptional outcome", err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

// ConfirmExceptionalOutcome confirms a project expense.
func (h *Handler) ConfirmExceptionalOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Ledger.ConfirmExceptionalOutcome(r.Context(), hoa.OutcomeID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to confirm exceptional outcome", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// CancelExceptionalOutcome cancels a confirmed project expense.
func (h *Handler) CancelExceptionalOutcome(w http.ResponseWriter, r *http.Request) {
	var req CancelOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	outcome, err := h.Ledger.CancelExceptionalOutcome(r.Context(), hoa.OutcomeID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, "failed to cancel exceptional outcome", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetMonthlyIncomeReport returns per-owner dues for one month, sortable
// by the sortBy/dir query parameters.
func (h *Handler) GetMonthlyIncomeReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.MonthlyIncomeByOwner(r.Context(), propertyID(r),
		hoa.NewYearMonth(year, time.Month(month)))
	if err != nil {
		writeDomainError(w, "failed to build income report", err)
		return
	}
	writeJSON(w, http.StatusOK, sortedIncomeRows(rows, r))
}

// GetYearlyIncomeReport returns per-owner dues totals for a year.
func (h *Handler) GetYearlyIncomeReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.YearlyIncomeByOwner(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build income report", err)
		return
	}
	writeJSON(w, http.StatusOK, sortedIncomeRows(rows, r))
}

// GetMonthlyOutcomeReport returns confirmed spending by category for one
// month.
func (h *Handler) GetMonthlyOutcomeReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.MonthlyOutcomeByCategory(r.Context(), propertyID(r),
		hoa.NewYearMonth(year, time.Month(month)))
	if err != nil {
		writeDomainError(w, "failed to build outcome report", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetYearlyOutcomeReport returns confirmed spending by category for a
// year.
func (h *Handler) GetYearlyOutcomeReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.YearlyOutcomeByCategory(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build outcome report", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetBalanceReport returns income vs confirmed spending per month.
func (h *Handler) GetBalanceReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.BalanceByMonth(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build balance report", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetDeficitReport returns expected vs collected dues per month.
func (h *Handler) GetDeficitReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.Reports.DeficitByMonth(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build deficit report", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetYearDeficitReport returns a year's deficit totals.
func (h *Handler) GetYearDeficitReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	total, err := h.Reports.YearDeficit(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build deficit report", err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

// GetIncomeSummaryReport returns combined regular + exceptional income.
func (h *Handler) GetIncomeSummaryReport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearQuery(w, r)
	if !ok {
		return
	}
	summary, err := h.Reports.CombinedIncome(r.Context(), propertyID(r), year)
	if err != nil {
		writeDomainError(w, "failed to build income summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// ExportBackup streams a full snapshot of every collection.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Store.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export backup", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ImportBackup replaces all collections with the posted snapshot.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var snapshot hoa.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot", err)
		return
	}
	if err := h.Store.Import(r.Context(), &snapshot); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to import backup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) adjustedDueForOwner(r *http.Request, propID hoa.PropertyID, ownerID hoa.OwnerID, period hoa.YearMonth) (dueAmount decimal.Decimal, err error) {
	ctx := r.Context()
	owner, err := h.Store.Owner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	if owner == nil {
		return decimal.Zero, hoa.ErrOwnerNotFound
	}
	unit, err := h.Store.Unit(ctx, owner.UnitID)
	if err != nil {
		return decimal.Zero, err
	}
	if unit == nil {
		return decimal.Zero, hoa.ErrUnitNotFound
	}
	policy, err := h.Policies.Resolve(ctx, propID, period.Year, unit.UnitTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	return hoa.AdjustedDueAt(policy, period, h.Clock.CurrentMonth()), nil
}

func sortedIncomeRows(rows []report.OwnerIncomeRow, r *http.Request) any {
	column := r.URL.Query().Get("sortBy")
	if column == "" {
		return rows
	}
	direction := report.Ascending
	if r.URL.Query().Get("dir") == string(report.Descending) {
		direction = report.Descending
	}
	table := make([]report.Row, len(rows))
	for i, row := range rows {
		table[i] = report.Row{
			"ownerId":   string(row.OwnerID),
			"ownerName": row.OwnerName,
			"unitCode":  row.UnitCode,
			"due":       row.Due,
			"paid":      row.Paid,
			"status":    string(row.Status),
		}
	}
	report.SortRows(table, column, direction)
	return table
}

func propertyID(r *http.Request) hoa.PropertyID {
	return hoa.PropertyID(chi.URLParam(r, "id"))
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return 0, false
	}
	return year, true
}

func yearQuery(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err)
		return 0, false
	}
	return year, true
}

func monthQuery(w http.ResponseWriter, r *http.Request) (int, bool) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return 0, false
	}
	return month, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case hoa.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, hoa.ErrDuplicateCode),
		errors.Is(err, hoa.ErrInUse),
		errors.Is(err, hoa.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, message, err)
	case hoa.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
