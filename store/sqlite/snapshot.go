/*
PURPOSE:
  Backup and restore for the SQLite store. Export reads every table into
  a hoa.Snapshot; Import replaces the entire database contents with the
  snapshot inside a single transaction.

ATOMICITY:
  Import either fully replaces the data or leaves it untouched. A failed
  restore rolls back - there is no partially restored state.

SEE ALSO:
  - hoa/store.go: Snapshot shape and SnapshotStore contract
  - store/memory: the in-memory equivalent used in round-trip tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/atrium/hoa-engine/hoa"
)

// Export reads all collections from the database. Rows come back in
// primary-key order so two exports of the same data are identical.
func (s *Store) Export(ctx context.Context) (*hoa.Snapshot, error) {
	snap := &hoa.Snapshot{}

	properties, err := s.Properties(ctx)
	if err != nil {
		return nil, err
	}
	snap.Properties = properties

	for _, p := range properties {
		owners, err := s.OwnersByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Owners = append(snap.Owners, owners...)

		units, err := s.UnitsByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Units = append(snap.Units, units...)

		unitTypes, err := s.UnitTypesByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.UnitTypes = append(snap.UnitTypes, unitTypes...)

		categories, err := s.CategoriesByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Categories = append(snap.Categories, categories...)

		payments, err := s.PaymentsByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Payments = append(snap.Payments, payments...)

		outcomes, err := s.OutcomesByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Outcomes = append(snap.Outcomes, outcomes...)

		projects, err := s.ProjectsByProperty(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		snap.Projects = append(snap.Projects, projects...)
	}

	// Policies, history tables and project children are not reachable
	// through a per-property query, so read them table-wide.
	policies, err := s.queryPolicies(ctx,
		`SELECT `+policyCols+` FROM fee_policies ORDER BY property_id, year, unit_type_id`)
	if err != nil {
		return nil, err
	}
	snap.Policies = policies

	if err := s.exportPaymentHistory(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.exportOutcomeTransactions(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.exportProjectChildren(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) exportPaymentHistory(ctx context.Context, snap *hoa.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, payment_id, previous_amount, new_amount, amount_paid, transaction_date, notes
		FROM payment_history ORDER BY transaction_date, transaction_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e hoa.PaymentHistoryEntry
		var prev, next, paid, date string
		var notes sql.NullString
		if err := rows.Scan(&e.TransactionID, &e.PaymentID, &prev, &next, &paid, &date, &notes); err != nil {
			return err
		}
		e.PreviousAmount = dec(prev)
		e.NewAmount = dec(next)
		e.AmountPaid = dec(paid)
		e.TransactionDate = timeOf(date)
		e.Notes = notes.String
		snap.PaymentHistory = append(snap.PaymentHistory, e)
	}
	return rows.Err()
}

func (s *Store) exportOutcomeTransactions(ctx context.Context, snap *hoa.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outcome_id, amount, reason, created_at
		FROM outcome_transactions ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tx hoa.OutcomeTransaction
		var amount, created string
		var reason sql.NullString
		if err := rows.Scan(&tx.ID, &tx.OutcomeID, &amount, &reason, &created); err != nil {
			return err
		}
		tx.Amount = dec(amount)
		tx.Reason = reason.String
		tx.CreatedAt = timeOf(created)
		snap.OutcomeTransactions = append(snap.OutcomeTransactions, tx)
	}
	return rows.Err()
}

func (s *Store) exportProjectChildren(ctx context.Context, snap *hoa.Snapshot) error {
	for _, p := range snap.Projects {
		contributions, err := s.ContributionsByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		snap.Contributions = append(snap.Contributions, contributions...)

		externals, err := s.ExternalContributorsByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		snap.ExternalContributors = append(snap.ExternalContributors, externals...)

		outcomes, err := s.ExceptionalOutcomesByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		snap.ExceptionalOutcomes = append(snap.ExceptionalOutcomes, outcomes...)

		history, err := s.ContributionHistory(ctx, p.ID)
		if err != nil {
			return err
		}
		snap.ContributionHistory = append(snap.ContributionHistory, history...)
	}
	return nil
}

// Import replaces all collections with the snapshot contents.
func (s *Store) Import(ctx context.Context, snap *hoa.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{
		"fee_policies", "monthly_payments", "payment_history",
		"monthly_outcomes", "outcome_transactions", "projects",
		"contributions", "external_contributors", "contribution_history",
		"exceptional_outcomes", "properties", "owners", "units",
		"unit_types", "expense_categories",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, p := range snap.Properties {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO properties (id, name, address, construction_date) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Address, p.ConstructionDate.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}
	for _, o := range snap.Owners {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO owners (id, property_id, full_name, ownership_title_code, join_date, unit_id, renter_name)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.PropertyID, o.FullName, o.OwnershipTitleCode,
			o.JoinDate.Format(time.RFC3339Nano), o.UnitID, o.RenterName)
		if err != nil {
			return err
		}
	}
	for _, u := range snap.Units {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO units (id, property_id, code, unit_type_id, surface) VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.PropertyID, u.Code, u.UnitTypeID, u.Surface.String())
		if err != nil {
			return err
		}
	}
	for _, ut := range snap.UnitTypes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO unit_types (id, property_id, name) VALUES (?, ?, ?)`,
			ut.ID, ut.PropertyID, ut.Name)
		if err != nil {
			return err
		}
	}
	for _, c := range snap.Categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_categories (id, property_id, name, archived) VALUES (?, ?, ?, ?)`,
			c.ID, c.PropertyID, c.Name, c.Archived)
		if err != nil {
			return err
		}
	}
	for _, p := range snap.Policies {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fee_policies (`+policyCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PropertyID, p.Year, p.UnitTypeID, p.BaseFee.String(),
			p.Penalty.Amount.String(), string(p.Penalty.Kind),
			p.Discount.Amount.String(), string(p.Discount.Kind))
		if err != nil {
			return err
		}
	}
	for _, p := range snap.Payments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO monthly_payments (id, property_id, owner_id, year, month, amount_due, amount_paid, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.PropertyID, p.OwnerID, p.Period.Year, int(p.Period.Month),
			p.AmountDue.String(), p.AmountPaid.String(), string(p.Status))
		if err != nil {
			return err
		}
	}
	for _, e := range snap.PaymentHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payment_history (transaction_id, payment_id, previous_amount, new_amount, amount_paid, transaction_date, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.TransactionID, e.PaymentID, e.PreviousAmount.String(), e.NewAmount.String(),
			e.AmountPaid.String(), e.TransactionDate.Format(time.RFC3339Nano), e.Notes)
		if err != nil {
			return err
		}
	}
	for _, o := range snap.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO monthly_outcomes (id, property_id, year, month, category_id, amount, photo_url, is_confirmed, confirmed_at, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.PropertyID, o.Period.Year, int(o.Period.Month), o.CategoryID,
			o.Amount.String(), o.PhotoURL, o.IsConfirmed, fmtTimePtr(o.ConfirmedAt), o.Notes)
		if err != nil {
			return err
		}
	}
	for _, otx := range snap.OutcomeTransactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcome_transactions (id, outcome_id, amount, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			otx.ID, otx.OutcomeID, otx.Amount.String(), otx.Reason,
			otx.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}
	for _, p := range snap.Projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, property_id, year, name, expected_income, expected_outcome, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.PropertyID, p.Year, p.Name, p.ExpectedIncome.String(),
			p.ExpectedOutcome.String(), p.StartDate.Format(time.RFC3339Nano), fmtTimePtr(p.EndDate))
		if err != nil {
			return err
		}
	}
	for _, c := range snap.Contributions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contributions (project_id, owner_id, expected_amount, paid_amount, status)
			VALUES (?, ?, ?, ?, ?)`,
			c.ProjectID, c.OwnerID, c.ExpectedAmount.String(), c.PaidAmount.String(), string(c.Status))
		if err != nil {
			return err
		}
	}
	for _, ec := range snap.ExternalContributors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO external_contributors (id, project_id, name, expected_amount, paid_amount, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ec.ID, ec.ProjectID, ec.Name, ec.ExpectedAmount.String(), ec.PaidAmount.String(), string(ec.Status))
		if err != nil {
			return err
		}
	}
	for _, e := range snap.ContributionHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contribution_history (transaction_id, project_id, contributor_kind, contributor_id, previous_amount, new_amount, amount_paid, transaction_date, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.TransactionID, e.ProjectID, string(e.Contributor.Kind), e.Contributor.ID,
			e.PreviousAmount.String(), e.NewAmount.String(), e.AmountPaid.String(),
			e.TransactionDate.Format(time.RFC3339Nano), e.Notes)
		if err != nil {
			return err
		}
	}
	for _, o := range snap.ExceptionalOutcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exceptional_outcomes (id, project_id, description, amount, date, photo_url, is_confirmed, confirmed_at, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.ProjectID, o.Description, o.Amount.String(),
			o.Date.Format(time.RFC3339Nano), o.PhotoURL, o.IsConfirmed,
			fmtTimePtr(o.ConfirmedAt), o.Notes)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
