/*
registry.go - Property, owner, unit, unit type, and category records

PURPOSE:
  The reference data the ledger hangs off: properties and their units,
  the owners who pay dues, the unit types that carry fee policies, and
  the expense categories recurring outcomes are filed under.

WRITE-PATH VALIDATION:
  Uniqueness (unit codes, ownership title codes within a property) is
  enforced inside the create/update operations, not just exposed as
  advisory predicates. The predicates remain exported for UI pre-checks,
  but a caller skipping them can no longer corrupt the invariant.

IN-USE GUARDS:
  Destructive operations are blocked while records are referenced:
  - a unit type cannot be deleted while units use it
  - an expense category cannot be archived while outcomes reference it
  Deleting a unit type cascades to its fee policies.
*/
package hoa

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS
// =============================================================================

type Property struct {
	ID               PropertyID `json:"id"`
	Name             string     `json:"name"`
	Address          string     `json:"address,omitempty"`
	ConstructionDate time.Time  `json:"constructionDate"`
}

type UnitType struct {
	ID         UnitTypeID `json:"id"`
	PropertyID PropertyID `json:"propertyId"`
	Name       string     `json:"name"`
}

type Unit struct {
	ID         UnitID          `json:"id"`
	PropertyID PropertyID      `json:"propertyId"`
	Code       string          `json:"code"`
	UnitTypeID UnitTypeID      `json:"unitTypeId"`
	Surface    decimal.Decimal `json:"surface,omitempty"`
}

type Owner struct {
	ID                 OwnerID    `json:"id"`
	PropertyID         PropertyID `json:"propertyId"`
	FullName           string     `json:"fullName"`
	OwnershipTitleCode string     `json:"ownershipTitleCode"`
	JoinDate           time.Time  `json:"joinDate"`
	UnitID             UnitID     `json:"unitId"`
	// RenterName, when set, substitutes for the owner in display contexts.
	RenterName string `json:"renterName,omitempty"`
}

type ExpenseCategory struct {
	ID         CategoryID `json:"id"`
	PropertyID PropertyID `json:"propertyId"`
	Name       string     `json:"name"`
	Archived   bool       `json:"archived"`
}

// =============================================================================
// REGISTRY - Reference-data mutation surface
// =============================================================================

type Registry struct {
	Store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{Store: store}
}

func (r *Registry) CreateProperty(ctx context.Context, p Property) (*Property, error) {
	if p.ID == "" {
		p.ID = PropertyID(uuid.NewString())
	}
	if err := r.Store.SaveProperty(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Registry) CreateUnitType(ctx context.Context, ut UnitType) (*UnitType, error) {
	if ut.ID == "" {
		ut.ID = UnitTypeID(uuid.NewString())
	}
	if err := r.Store.SaveUnitType(ctx, ut); err != nil {
		return nil, err
	}
	return &ut, nil
}

// CreateUnit enforces code uniqueness within the property at the write path.
func (r *Registry) CreateUnit(ctx context.Context, u Unit) (*Unit, error) {
	unique, err := r.IsUnitCodeUnique(ctx, u.PropertyID, u.Code, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, &DuplicateCodeError{PropertyID: u.PropertyID, Field: "unit_code", Code: u.Code}
	}
	if u.ID == "" {
		u.ID = UnitID(uuid.NewString())
	}
	if err := r.Store.SaveUnit(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateOwner enforces ownership-title-code uniqueness at the write path.
func (r *Registry) CreateOwner(ctx context.Context, o Owner) (*Owner, error) {
	unique, err := r.IsOwnershipTitleCodeUnique(ctx, o.PropertyID, o.OwnershipTitleCode, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, &DuplicateCodeError{PropertyID: o.PropertyID, Field: "ownership_title_code", Code: o.OwnershipTitleCode}
	}
	if o.ID == "" {
		o.ID = OwnerID(uuid.NewString())
	}
	if err := r.Store.SaveOwner(ctx, o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Registry) CreateCategory(ctx context.Context, c ExpenseCategory) (*ExpenseCategory, error) {
	if c.ID == "" {
		c.ID = CategoryID(uuid.NewString())
	}
	if err := r.Store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// UNIQUENESS PREDICATES - Advisory pre-checks for the UI
// =============================================================================

// IsUnitCodeUnique reports whether the code is free within the property.
// excludeID allows checking an update against the record's own code.
func (r *Registry) IsUnitCodeUnique(ctx context.Context, propertyID PropertyID, code string, excludeID UnitID) (bool, error) {
	units, err := r.Store.UnitsByProperty(ctx, propertyID)
	if err != nil {
		return false, err
	}
	for _, u := range units {
		if u.Code == code && u.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

// IsOwnershipTitleCodeUnique reports whether the title code is free within
// the property.
func (r *Registry) IsOwnershipTitleCodeUnique(ctx context.Context, propertyID PropertyID, code string, excludeID OwnerID) (bool, error) {
	owners, err := r.Store.OwnersByProperty(ctx, propertyID)
	if err != nil {
		return false, err
	}
	for _, o := range owners {
		if o.OwnershipTitleCode == code && o.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

// =============================================================================
// IN-USE GUARDS AND DESTRUCTIVE OPERATIONS
// =============================================================================

// IsUnitTypeInUse reports whether any unit references the unit type.
func (r *Registry) IsUnitTypeInUse(ctx context.Context, propertyID PropertyID, unitTypeID UnitTypeID) (bool, error) {
	units, err := r.Store.UnitsByProperty(ctx, propertyID)
	if err != nil {
		return false, err
	}
	for _, u := range units {
		if u.UnitTypeID == unitTypeID {
			return true, nil
		}
	}
	return false, nil
}

// DeleteUnitType removes a unit type and cascades to its fee policies.
// Blocked while any unit still uses the type.
func (r *Registry) DeleteUnitType(ctx context.Context, propertyID PropertyID, unitTypeID UnitTypeID) error {
	inUse, err := r.IsUnitTypeInUse(ctx, propertyID, unitTypeID)
	if err != nil {
		return err
	}
	if inUse {
		return &InUseError{Kind: "unit_type", ID: string(unitTypeID)}
	}
	if err := r.Store.DeletePoliciesForUnitType(ctx, propertyID, unitTypeID); err != nil {
		return err
	}
	return r.Store.DeleteUnitType(ctx, propertyID, unitTypeID)
}

// IsExpenseCategoryInUse reports whether any monthly outcome references
// the category.
func (r *Registry) IsExpenseCategoryInUse(ctx context.Context, propertyID PropertyID, categoryID CategoryID) (bool, error) {
	outcomes, err := r.Store.OutcomesByProperty(ctx, propertyID)
	if err != nil {
		return false, err
	}
	for _, o := range outcomes {
		if o.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// ArchiveCategory hides a category from new outcomes. Blocked while
// outcomes still reference it.
func (r *Registry) ArchiveCategory(ctx context.Context, propertyID PropertyID, categoryID CategoryID) error {
	inUse, err := r.IsExpenseCategoryInUse(ctx, propertyID, categoryID)
	if err != nil {
		return err
	}
	if inUse {
		return &InUseError{Kind: "expense_category", ID: string(categoryID)}
	}
	cat, err := r.Store.Category(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrCategoryNotFound
	}
	cat.Archived = true
	return r.Store.SaveCategory(ctx, *cat)
}
