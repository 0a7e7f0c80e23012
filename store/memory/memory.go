// Package memory provides an in-memory hoa.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/atrium/hoa-engine/hoa"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	policies      map[policyKey]hoa.UnitTypeFeePolicy
	payments      map[hoa.PaymentID]hoa.MonthlyPayment
	paymentHist   map[hoa.PaymentID][]hoa.PaymentHistoryEntry
	outcomes      map[hoa.OutcomeID]hoa.MonthlyOutcome
	outcomeTxs    map[hoa.OutcomeID][]hoa.OutcomeTransaction
	excOutcomes   map[hoa.OutcomeID]hoa.ExceptionalOutcome
	projects      map[hoa.ProjectID]hoa.ExceptionalProject
	contributions map[contribKey]hoa.ExceptionalContribution
	externals     map[string]hoa.ExternalContributor
	contribHist   map[hoa.ProjectID][]hoa.ContributionHistoryEntry

	properties map[hoa.PropertyID]hoa.Property
	owners     map[hoa.OwnerID]hoa.Owner
	units      map[hoa.UnitID]hoa.Unit
	unitTypes  map[hoa.UnitTypeID]hoa.UnitType
	categories map[hoa.CategoryID]hoa.ExpenseCategory
}

type policyKey struct {
	PropertyID hoa.PropertyID
	Year       int
	UnitTypeID hoa.UnitTypeID
}

type contribKey struct {
	ProjectID hoa.ProjectID
	OwnerID   hoa.OwnerID
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.policies = make(map[policyKey]hoa.UnitTypeFeePolicy)
	s.payments = make(map[hoa.PaymentID]hoa.MonthlyPayment)
	s.paymentHist = make(map[hoa.PaymentID][]hoa.PaymentHistoryEntry)
	s.outcomes = make(map[hoa.OutcomeID]hoa.MonthlyOutcome)
	s.outcomeTxs = make(map[hoa.OutcomeID][]hoa.OutcomeTransaction)
	s.excOutcomes = make(map[hoa.OutcomeID]hoa.ExceptionalOutcome)
	s.projects = make(map[hoa.ProjectID]hoa.ExceptionalProject)
	s.contributions = make(map[contribKey]hoa.ExceptionalContribution)
	s.externals = make(map[string]hoa.ExternalContributor)
	s.contribHist = make(map[hoa.ProjectID][]hoa.ContributionHistoryEntry)
	s.properties = make(map[hoa.PropertyID]hoa.Property)
	s.owners = make(map[hoa.OwnerID]hoa.Owner)
	s.units = make(map[hoa.UnitID]hoa.Unit)
	s.unitTypes = make(map[hoa.UnitTypeID]hoa.UnitType)
	s.categories = make(map[hoa.CategoryID]hoa.ExpenseCategory)
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (s *Store) Policy(_ context.Context, propertyID hoa.PropertyID, year int, unitTypeID hoa.UnitTypeID) (*hoa.UnitTypeFeePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.policies[policyKey{propertyID, year, unitTypeID}]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) PoliciesForUnitType(_ context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) ([]hoa.UnitTypeFeePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.UnitTypeFeePolicy
	for k, p := range s.policies {
		if k.PropertyID == propertyID && k.UnitTypeID == unitTypeID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Year < result[j].Year })
	return result, nil
}

func (s *Store) PoliciesForYear(_ context.Context, propertyID hoa.PropertyID, year int) ([]hoa.UnitTypeFeePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.UnitTypeFeePolicy
	for k, p := range s.policies {
		if k.PropertyID == propertyID && k.Year == year {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UnitTypeID < result[j].UnitTypeID })
	return result, nil
}

func (s *Store) SavePolicy(_ context.Context, p hoa.UnitTypeFeePolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policyKey{p.PropertyID, p.Year, p.UnitTypeID}] = p
	return nil
}

func (s *Store) DeletePoliciesForUnitType(_ context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.policies {
		if k.PropertyID == propertyID && k.UnitTypeID == unitTypeID {
			delete(s.policies, k)
		}
	}
	return nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (s *Store) Payment(_ context.Context, id hoa.PaymentID) (*hoa.MonthlyPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.payments[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) SavePayment(_ context.Context, p hoa.MonthlyPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *Store) PaymentsByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.MonthlyPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.MonthlyPayment
	for _, p := range s.payments {
		if p.PropertyID == propertyID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) AppendPaymentHistory(_ context.Context, e hoa.PaymentHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentHist[e.PaymentID] = append(s.paymentHist[e.PaymentID], e)
	return nil
}

func (s *Store) PaymentHistory(_ context.Context, paymentID hoa.PaymentID) ([]hoa.PaymentHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]hoa.PaymentHistoryEntry, len(s.paymentHist[paymentID]))
	copy(result, s.paymentHist[paymentID])
	return result, nil
}

// =============================================================================
// OUTCOME STORE
// =============================================================================

func (s *Store) Outcome(_ context.Context, id hoa.OutcomeID) (*hoa.MonthlyOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.outcomes[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Store) SaveOutcome(_ context.Context, o hoa.MonthlyOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.ID] = o
	return nil
}

func (s *Store) OutcomesByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.MonthlyOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.MonthlyOutcome
	for _, o := range s.outcomes {
		if o.PropertyID == propertyID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) ExceptionalOutcome(_ context.Context, id hoa.OutcomeID) (*hoa.ExceptionalOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.excOutcomes[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Store) SaveExceptionalOutcome(_ context.Context, o hoa.ExceptionalOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excOutcomes[o.ID] = o
	return nil
}

func (s *Store) ExceptionalOutcomesByProject(_ context.Context, projectID hoa.ProjectID) ([]hoa.ExceptionalOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.ExceptionalOutcome
	for _, o := range s.excOutcomes {
		if o.ProjectID == projectID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) AppendOutcomeTransaction(_ context.Context, tx hoa.OutcomeTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomeTxs[tx.OutcomeID] = append(s.outcomeTxs[tx.OutcomeID], tx)
	return nil
}

func (s *Store) OutcomeTransactions(_ context.Context, outcomeID hoa.OutcomeID) ([]hoa.OutcomeTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]hoa.OutcomeTransaction, len(s.outcomeTxs[outcomeID]))
	copy(result, s.outcomeTxs[outcomeID])
	return result, nil
}

// =============================================================================
// PROJECT STORE
// =============================================================================

func (s *Store) Project(_ context.Context, id hoa.ProjectID) (*hoa.ExceptionalProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) SaveProject(_ context.Context, p hoa.ExceptionalProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

func (s *Store) ProjectsByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.ExceptionalProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.ExceptionalProject
	for _, p := range s.projects {
		if p.PropertyID == propertyID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) Contribution(_ context.Context, projectID hoa.ProjectID, ownerID hoa.OwnerID) (*hoa.ExceptionalContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.contributions[contribKey{projectID, ownerID}]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) SaveContribution(_ context.Context, c hoa.ExceptionalContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[contribKey{c.ProjectID, c.OwnerID}] = c
	return nil
}

func (s *Store) ContributionsByProject(_ context.Context, projectID hoa.ProjectID) ([]hoa.ExceptionalContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.ExceptionalContribution
	for k, c := range s.contributions {
		if k.ProjectID == projectID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OwnerID < result[j].OwnerID })
	return result, nil
}

func (s *Store) ExternalContributorByID(_ context.Context, id string) (*hoa.ExternalContributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ec, ok := s.externals[id]; ok {
		return &ec, nil
	}
	return nil, nil
}

func (s *Store) SaveExternalContributor(_ context.Context, ec hoa.ExternalContributor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externals[ec.ID] = ec
	return nil
}

func (s *Store) ExternalContributorsByProject(_ context.Context, projectID hoa.ProjectID) ([]hoa.ExternalContributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.ExternalContributor
	for _, ec := range s.externals {
		if ec.ProjectID == projectID {
			result = append(result, ec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) AppendContributionHistory(_ context.Context, e hoa.ContributionHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contribHist[e.ProjectID] = append(s.contribHist[e.ProjectID], e)
	return nil
}

func (s *Store) ContributionHistory(_ context.Context, projectID hoa.ProjectID) ([]hoa.ContributionHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]hoa.ContributionHistoryEntry, len(s.contribHist[projectID]))
	copy(result, s.contribHist[projectID])
	return result, nil
}

// =============================================================================
// REGISTRY STORE
// =============================================================================

func (s *Store) Property(_ context.Context, id hoa.PropertyID) (*hoa.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.properties[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) SaveProperty(_ context.Context, p hoa.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = p
	return nil
}

func (s *Store) Properties(_ context.Context) ([]hoa.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]hoa.Property, 0, len(s.properties))
	for _, p := range s.properties {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) Owner(_ context.Context, id hoa.OwnerID) (*hoa.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.owners[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Store) SaveOwner(_ context.Context, o hoa.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[o.ID] = o
	return nil
}

func (s *Store) OwnersByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.Owner
	for _, o := range s.owners {
		if o.PropertyID == propertyID {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) Unit(_ context.Context, id hoa.UnitID) (*hoa.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.units[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) SaveUnit(_ context.Context, u hoa.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.ID] = u
	return nil
}

func (s *Store) UnitsByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.Unit
	for _, u := range s.units {
		if u.PropertyID == propertyID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) UnitType(_ context.Context, id hoa.UnitTypeID) (*hoa.UnitType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ut, ok := s.unitTypes[id]; ok {
		return &ut, nil
	}
	return nil, nil
}

func (s *Store) SaveUnitType(_ context.Context, ut hoa.UnitType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitTypes[ut.ID] = ut
	return nil
}

func (s *Store) UnitTypesByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.UnitType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.UnitType
	for _, ut := range s.unitTypes {
		if ut.PropertyID == propertyID {
			result = append(result, ut)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteUnitType(_ context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ut, ok := s.unitTypes[unitTypeID]; ok && ut.PropertyID == propertyID {
		delete(s.unitTypes, unitTypeID)
	}
	return nil
}

func (s *Store) Category(_ context.Context, id hoa.CategoryID) (*hoa.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) SaveCategory(_ context.Context, c hoa.ExpenseCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) CategoriesByProperty(_ context.Context, propertyID hoa.PropertyID) ([]hoa.ExpenseCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []hoa.ExpenseCategory
	for _, c := range s.categories {
		if c.PropertyID == propertyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

func (s *Store) Export(ctx context.Context) (*hoa.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &hoa.Snapshot{}
	for _, p := range s.properties {
		snap.Properties = append(snap.Properties, p)
	}
	for _, o := range s.owners {
		snap.Owners = append(snap.Owners, o)
	}
	for _, u := range s.units {
		snap.Units = append(snap.Units, u)
	}
	for _, ut := range s.unitTypes {
		snap.UnitTypes = append(snap.UnitTypes, ut)
	}
	for _, c := range s.categories {
		snap.Categories = append(snap.Categories, c)
	}
	for _, p := range s.policies {
		snap.Policies = append(snap.Policies, p)
	}
	for _, p := range s.payments {
		snap.Payments = append(snap.Payments, p)
	}
	for _, hist := range s.paymentHist {
		snap.PaymentHistory = append(snap.PaymentHistory, hist...)
	}
	for _, o := range s.outcomes {
		snap.Outcomes = append(snap.Outcomes, o)
	}
	for _, txs := range s.outcomeTxs {
		snap.OutcomeTransactions = append(snap.OutcomeTransactions, txs...)
	}
	for _, p := range s.projects {
		snap.Projects = append(snap.Projects, p)
	}
	for _, c := range s.contributions {
		snap.Contributions = append(snap.Contributions, c)
	}
	for _, ec := range s.externals {
		snap.ExternalContributors = append(snap.ExternalContributors, ec)
	}
	for _, o := range s.excOutcomes {
		snap.ExceptionalOutcomes = append(snap.ExceptionalOutcomes, o)
	}
	for _, hist := range s.contribHist {
		snap.ContributionHistory = append(snap.ContributionHistory, hist...)
	}

	sortSnapshot(snap)
	return snap, nil
}

func (s *Store) Import(ctx context.Context, snap *hoa.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, p := range snap.Properties {
		s.properties[p.ID] = p
	}
	for _, o := range snap.Owners {
		s.owners[o.ID] = o
	}
	for _, u := range snap.Units {
		s.units[u.ID] = u
	}
	for _, ut := range snap.UnitTypes {
		s.unitTypes[ut.ID] = ut
	}
	for _, c := range snap.Categories {
		s.categories[c.ID] = c
	}
	for _, p := range snap.Policies {
		s.policies[policyKey{p.PropertyID, p.Year, p.UnitTypeID}] = p
	}
	for _, p := range snap.Payments {
		s.payments[p.ID] = p
	}
	for _, e := range snap.PaymentHistory {
		s.paymentHist[e.PaymentID] = append(s.paymentHist[e.PaymentID], e)
	}
	for _, o := range snap.Outcomes {
		s.outcomes[o.ID] = o
	}
	for _, tx := range snap.OutcomeTransactions {
		s.outcomeTxs[tx.OutcomeID] = append(s.outcomeTxs[tx.OutcomeID], tx)
	}
	for _, p := range snap.Projects {
		s.projects[p.ID] = p
	}
	for _, c := range snap.Contributions {
		s.contributions[contribKey{c.ProjectID, c.OwnerID}] = c
	}
	for _, ec := range snap.ExternalContributors {
		s.externals[ec.ID] = ec
	}
	for _, o := range snap.ExceptionalOutcomes {
		s.excOutcomes[o.ID] = o
	}
	for _, e := range snap.ContributionHistory {
		s.contribHist[e.ProjectID] = append(s.contribHist[e.ProjectID], e)
	}
	return nil
}

// sortSnapshot gives exports a stable order so encode/decode/encode
// round-trips byte-identically.
func sortSnapshot(snap *hoa.Snapshot) {
	sort.Slice(snap.Properties, func(i, j int) bool { return snap.Properties[i].ID < snap.Properties[j].ID })
	sort.Slice(snap.Owners, func(i, j int) bool { return snap.Owners[i].ID < snap.Owners[j].ID })
	sort.Slice(snap.Units, func(i, j int) bool { return snap.Units[i].ID < snap.Units[j].ID })
	sort.Slice(snap.UnitTypes, func(i, j int) bool { return snap.UnitTypes[i].ID < snap.UnitTypes[j].ID })
	sort.Slice(snap.Categories, func(i, j int) bool { return snap.Categories[i].ID < snap.Categories[j].ID })
	sort.Slice(snap.Policies, func(i, j int) bool {
		a, b := snap.Policies[i], snap.Policies[j]
		if a.PropertyID != b.PropertyID {
			return a.PropertyID < b.PropertyID
		}
		if a.UnitTypeID != b.UnitTypeID {
			return a.UnitTypeID < b.UnitTypeID
		}
		return a.Year < b.Year
	})
	sort.Slice(snap.Payments, func(i, j int) bool { return snap.Payments[i].ID < snap.Payments[j].ID })
	sort.Slice(snap.PaymentHistory, func(i, j int) bool {
		return snap.PaymentHistory[i].TransactionID < snap.PaymentHistory[j].TransactionID
	})
	sort.Slice(snap.Outcomes, func(i, j int) bool { return snap.Outcomes[i].ID < snap.Outcomes[j].ID })
	sort.Slice(snap.OutcomeTransactions, func(i, j int) bool {
		return snap.OutcomeTransactions[i].ID < snap.OutcomeTransactions[j].ID
	})
	sort.Slice(snap.Projects, func(i, j int) bool { return snap.Projects[i].ID < snap.Projects[j].ID })
	sort.Slice(snap.Contributions, func(i, j int) bool {
		a, b := snap.Contributions[i], snap.Contributions[j]
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return a.OwnerID < b.OwnerID
	})
	sort.Slice(snap.ExternalContributors, func(i, j int) bool {
		return snap.ExternalContributors[i].ID < snap.ExternalContributors[j].ID
	})
	sort.Slice(snap.ExceptionalOutcomes, func(i, j int) bool {
		return snap.ExceptionalOutcomes[i].ID < snap.ExceptionalOutcomes[j].ID
	})
	sort.Slice(snap.ContributionHistory, func(i, j int) bool {
		return snap.ContributionHistory[i].TransactionID < snap.ContributionHistory[j].TransactionID
	})
}
