/*
Package sqlite provides a SQLite-backed implementation of hoa.Store.

PURPOSE:
  Persists every engine collection to SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  History tables (payment_history, contribution_history,
  outcome_transactions) are write-once: the implementation issues no
  UPDATE or DELETE against them outside of a full snapshot restore.

KEY TABLES:
  fee_policies:          One row per (property, year, unit type)
  monthly_payments:      Current state of each owner-month
  payment_history:       Immutable dues payment audit log
  monthly_outcomes:      Recurring category expenses
  outcome_transactions:  Confirm/cancel replay history (both outcome kinds)
  projects:              Exceptional project budgets
  contributions:         Owner shares of a project
  external_contributors: Non-owner project funders
  contribution_history:  Immutable exceptional payment audit log
  properties/owners/units/unit_types/expense_categories: registry

AMOUNT STORAGE:
  Monetary values are stored as TEXT and parsed through
  decimal.NewFromString, never as floating point.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

USAGE:
  st, err := sqlite.New("./data/hoa.db")  // ":memory:" for tests
  ledger := hoa.NewLedger(st, hoa.SystemClock)

SEE ALSO:
  - hoa/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/atrium/hoa-engine/hoa"
)

// Store implements hoa.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fee_policies (
		property_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		unit_type_id TEXT NOT NULL,
		base_fee TEXT NOT NULL,
		penalty_amount TEXT NOT NULL,
		penalty_kind TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		discount_kind TEXT NOT NULL,
		PRIMARY KEY (property_id, year, unit_type_id)
	);
	CREATE INDEX IF NOT EXISTS idx_policies_unit_type
		ON fee_policies(property_id, unit_type_id);

	CREATE TABLE IF NOT EXISTS monthly_payments (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		amount_due TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payments_property
		ON monthly_payments(property_id);
	CREATE INDEX IF NOT EXISTS idx_payments_owner
		ON monthly_payments(property_id, owner_id, year, month);

	-- Append-only: no UPDATE/DELETE outside snapshot restore
	CREATE TABLE IF NOT EXISTS payment_history (
		transaction_id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		previous_amount TEXT NOT NULL,
		new_amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_payment_history_payment
		ON payment_history(payment_id);

	CREATE TABLE IF NOT EXISTS monthly_outcomes (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		category_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		photo_url TEXT,
		is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmed_at TEXT,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_property
		ON monthly_outcomes(property_id, year, month);

	-- Append-only replay history, shared by both outcome kinds
	CREATE TABLE IF NOT EXISTS outcome_transactions (
		id TEXT PRIMARY KEY,
		outcome_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcome_tx_outcome
		ON outcome_transactions(outcome_id);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		name TEXT NOT NULL,
		expected_income TEXT NOT NULL,
		expected_outcome TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_projects_property
		ON projects(property_id);

	CREATE TABLE IF NOT EXISTS contributions (
		project_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (project_id, owner_id)
	);

	CREATE TABLE IF NOT EXISTS external_contributors (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_externals_project
		ON external_contributors(project_id);

	-- Append-only
	CREATE TABLE IF NOT EXISTS contribution_history (
		transaction_id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		contributor_kind TEXT NOT NULL,
		contributor_id TEXT NOT NULL,
		previous_amount TEXT NOT NULL,
		new_amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_contribution_history_project
		ON contribution_history(project_id);

	CREATE TABLE IF NOT EXISTS exceptional_outcomes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		photo_url TEXT,
		is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmed_at TEXT,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_exc_outcomes_project
		ON exceptional_outcomes(project_id);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		construction_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS owners (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		ownership_title_code TEXT NOT NULL,
		join_date TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		renter_name TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_owners_property
		ON owners(property_id);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		code TEXT NOT NULL,
		unit_type_id TEXT NOT NULL,
		surface TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_units_property
		ON units(property_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_units_code
		ON units(property_id, code);

	CREATE TABLE IF NOT EXISTS unit_types (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS expense_categories (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		name TEXT NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT FALSE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func timeOf(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := timeOf(ns.String)
	return &t
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// =============================================================================
// POLICY STORE
// =============================================================================

const policyCols = `property_id, year, unit_type_id, base_fee,
	penalty_amount, penalty_kind, discount_amount, discount_kind`

func scanPolicy(row interface{ Scan(...any) error }) (hoa.UnitTypeFeePolicy, error) {
	var p hoa.UnitTypeFeePolicy
	var base, penAmt, penKind, disAmt, disKind string
	err := row.Scan(&p.PropertyID, &p.Year, &p.UnitTypeID, &base, &penAmt, &penKind, &disAmt, &disKind)
	if err != nil {
		return p, err
	}
	p.BaseFee = dec(base)
	p.Penalty = hoa.Fee{Amount: dec(penAmt), Kind: hoa.FeeKind(penKind)}
	p.Discount = hoa.Fee{Amount: dec(disAmt), Kind: hoa.FeeKind(disKind)}
	return p, nil
}

func (s *Store) Policy(ctx context.Context, propertyID hoa.PropertyID, year int, unitTypeID hoa.UnitTypeID) (*hoa.UnitTypeFeePolicy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyCols+` FROM fee_policies WHERE property_id = ? AND year = ? AND unit_type_id = ?`,
		propertyID, year, unitTypeID)
	p, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) queryPolicies(ctx context.Context, query string, args ...any) ([]hoa.UnitTypeFeePolicy, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.UnitTypeFeePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) PoliciesForUnitType(ctx context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) ([]hoa.UnitTypeFeePolicy, error) {
	return s.queryPolicies(ctx,
		`SELECT `+policyCols+` FROM fee_policies WHERE property_id = ? AND unit_type_id = ? ORDER BY year`,
		propertyID, unitTypeID)
}

func (s *Store) PoliciesForYear(ctx context.Context, propertyID hoa.PropertyID, year int) ([]hoa.UnitTypeFeePolicy, error) {
	return s.queryPolicies(ctx,
		`SELECT `+policyCols+` FROM fee_policies WHERE property_id = ? AND year = ? ORDER BY unit_type_id`,
		propertyID, year)
}

func (s *Store) SavePolicy(ctx context.Context, p hoa.UnitTypeFeePolicy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_policies (`+policyCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id, year, unit_type_id) DO UPDATE SET
			base_fee = excluded.base_fee,
			penalty_amount = excluded.penalty_amount,
			penalty_kind = excluded.penalty_kind,
			discount_amount = excluded.discount_amount,
			discount_kind = excluded.discount_kind`,
		p.PropertyID, p.Year, p.UnitTypeID, p.BaseFee.String(),
		p.Penalty.Amount.String(), string(p.Penalty.Kind),
		p.Discount.Amount.String(), string(p.Discount.Kind))
	return err
}

func (s *Store) DeletePoliciesForUnitType(ctx context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM fee_policies WHERE property_id = ? AND unit_type_id = ?`,
		propertyID, unitTypeID)
	return err
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (s *Store) Payment(ctx context.Context, id hoa.PaymentID) (*hoa.MonthlyPayment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, owner_id, year, month, amount_due, amount_paid, status
		FROM monthly_payments WHERE id = ?`, id)

	var p hoa.MonthlyPayment
	var month int
	var due, paid string
	err := row.Scan(&p.ID, &p.PropertyID, &p.OwnerID, &p.Period.Year, &month, &due, &paid, &p.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Period.Month = time.Month(month)
	p.AmountDue = dec(due)
	p.AmountPaid = dec(paid)
	return &p, nil
}

func (s *Store) SavePayment(ctx context.Context, p hoa.MonthlyPayment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_payments (id, property_id, owner_id, year, month, amount_due, amount_paid, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount_due = excluded.amount_due,
			amount_paid = excluded.amount_paid,
			status = excluded.status`,
		p.ID, p.PropertyID, p.OwnerID, p.Period.Year, int(p.Period.Month),
		p.AmountDue.String(), p.AmountPaid.String(), string(p.Status))
	return err
}

func (s *Store) PaymentsByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.MonthlyPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, owner_id, year, month, amount_due, amount_paid, status
		FROM monthly_payments WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.MonthlyPayment
	for rows.Next() {
		var p hoa.MonthlyPayment
		var month int
		var due, paid string
		if err := rows.Scan(&p.ID, &p.PropertyID, &p.OwnerID, &p.Period.Year, &month, &due, &paid, &p.Status); err != nil {
			return nil, err
		}
		p.Period.Month = time.Month(month)
		p.AmountDue = dec(due)
		p.AmountPaid = dec(paid)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) AppendPaymentHistory(ctx context.Context, e hoa.PaymentHistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_history (transaction_id, payment_id, previous_amount, new_amount, amount_paid, transaction_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TransactionID, e.PaymentID, e.PreviousAmount.String(), e.NewAmount.String(),
		e.AmountPaid.String(), e.TransactionDate.Format(time.RFC3339Nano), e.Notes)
	return err
}

func (s *Store) PaymentHistory(ctx context.Context, paymentID hoa.PaymentID) ([]hoa.PaymentHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, payment_id, previous_amount, new_amount, amount_paid, transaction_date, notes
		FROM payment_history WHERE payment_id = ? ORDER BY transaction_date, transaction_id`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.PaymentHistoryEntry
	for rows.Next() {
		var e hoa.PaymentHistoryEntry
		var prev, next, paid, date string
		var notes sql.NullString
		if err := rows.Scan(&e.TransactionID, &e.PaymentID, &prev, &next, &paid, &date, &notes); err != nil {
			return nil, err
		}
		e.PreviousAmount = dec(prev)
		e.NewAmount = dec(next)
		e.AmountPaid = dec(paid)
		e.TransactionDate = timeOf(date)
		e.Notes = notes.String
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// OUTCOME STORE
// =============================================================================

func scanMonthlyOutcome(row interface{ Scan(...any) error }) (hoa.MonthlyOutcome, error) {
	var o hoa.MonthlyOutcome
	var month int
	var amount string
	var photo, notes, confirmedAt sql.NullString
	err := row.Scan(&o.ID, &o.PropertyID, &o.Period.Year, &month, &o.CategoryID,
		&amount, &photo, &o.IsConfirmed, &confirmedAt, &notes)
	if err != nil {
		return o, err
	}
	o.Period.Month = time.Month(month)
	o.Amount = dec(amount)
	o.PhotoURL = photo.String
	o.ConfirmedAt = timePtr(confirmedAt)
	o.Notes = notes.String
	return o, nil
}

func (s *Store) Outcome(ctx context.Context, id hoa.OutcomeID) (*hoa.MonthlyOutcome, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, year, month, category_id, amount, photo_url, is_confirmed, confirmed_at, notes
		FROM monthly_outcomes WHERE id = ?`, id)

	o, err := scanMonthlyOutcome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) SaveOutcome(ctx context.Context, o hoa.MonthlyOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monthly_outcomes (id, property_id, year, month, category_id, amount, photo_url, is_confirmed, confirmed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			photo_url = excluded.photo_url,
			is_confirmed = excluded.is_confirmed,
			confirmed_at = excluded.confirmed_at,
			notes = excluded.notes`,
		o.ID, o.PropertyID, o.Period.Year, int(o.Period.Month), o.CategoryID,
		o.Amount.String(), o.PhotoURL, o.IsConfirmed, fmtTimePtr(o.ConfirmedAt), o.Notes)
	return err
}

func (s *Store) OutcomesByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.MonthlyOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, year, month, category_id, amount, photo_url, is_confirmed, confirmed_at, notes
		FROM monthly_outcomes WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.MonthlyOutcome
	for rows.Next() {
		o, err := scanMonthlyOutcome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func scanExceptionalOutcome(row interface{ Scan(...any) error }) (hoa.ExceptionalOutcome, error) {
	var o hoa.ExceptionalOutcome
	var amount, date string
	var photo, notes, confirmedAt sql.NullString
	err := row.Scan(&o.ID, &o.ProjectID, &o.Description, &amount, &date,
		&photo, &o.IsConfirmed, &confirmedAt, &notes)
	if err != nil {
		return o, err
	}
	o.Amount = dec(amount)
	o.Date = timeOf(date)
	o.PhotoURL = photo.String
	o.ConfirmedAt = timePtr(confirmedAt)
	o.Notes = notes.String
	return o, nil
}

func (s *Store) ExceptionalOutcome(ctx context.Context, id hoa.OutcomeID) (*hoa.ExceptionalOutcome, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, description, amount, date, photo_url, is_confirmed, confirmed_at, notes
		FROM exceptional_outcomes WHERE id = ?`, id)
	o, err := scanExceptionalOutcome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) SaveExceptionalOutcome(ctx context.Context, o hoa.ExceptionalOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exceptional_outcomes (id, project_id, description, amount, date, photo_url, is_confirmed, confirmed_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			photo_url = excluded.photo_url,
			is_confirmed = excluded.is_confirmed,
			confirmed_at = excluded.confirmed_at,
			notes = excluded.notes`,
		o.ID, o.ProjectID, o.Description, o.Amount.String(),
		o.Date.Format(time.RFC3339Nano), o.PhotoURL, o.IsConfirmed,
		fmtTimePtr(o.ConfirmedAt), o.Notes)
	return err
}

func (s *Store) ExceptionalOutcomesByProject(ctx context.Context, projectID hoa.ProjectID) ([]hoa.ExceptionalOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, description, amount, date, photo_url, is_confirmed, confirmed_at, notes
		FROM exceptional_outcomes WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ExceptionalOutcome
	for rows.Next() {
		o, err := scanExceptionalOutcome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) AppendOutcomeTransaction(ctx context.Context, tx hoa.OutcomeTransaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcome_transactions (id, outcome_id, amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.OutcomeID, tx.Amount.String(), tx.Reason, tx.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) OutcomeTransactions(ctx context.Context, outcomeID hoa.OutcomeID) ([]hoa.OutcomeTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, outcome_id, amount, reason, created_at
		FROM outcome_transactions WHERE outcome_id = ? ORDER BY created_at, id`, outcomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.OutcomeTransaction
	for rows.Next() {
		var tx hoa.OutcomeTransaction
		var amount, created string
		var reason sql.NullString
		if err := rows.Scan(&tx.ID, &tx.OutcomeID, &amount, &reason, &created); err != nil {
			return nil, err
		}
		tx.Amount = dec(amount)
		tx.Reason = reason.String
		tx.CreatedAt = timeOf(created)
		result = append(result, tx)
	}
	return result, rows.Err()
}

// =============================================================================
// PROJECT STORE
// =============================================================================

func scanProject(row interface{ Scan(...any) error }) (hoa.ExceptionalProject, error) {
	var p hoa.ExceptionalProject
	var income, outcome, start string
	var end sql.NullString
	err := row.Scan(&p.ID, &p.PropertyID, &p.Year, &p.Name, &income, &outcome, &start, &end)
	if err != nil {
		return p, err
	}
	p.ExpectedIncome = dec(income)
	p.ExpectedOutcome = dec(outcome)
	p.StartDate = timeOf(start)
	p.EndDate = timePtr(end)
	return p, nil
}

func (s *Store) Project(ctx context.Context, id hoa.ProjectID) (*hoa.ExceptionalProject, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, year, name, expected_income, expected_outcome, start_date, end_date
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SaveProject(ctx context.Context, p hoa.ExceptionalProject) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, property_id, year, name, expected_income, expected_outcome, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			expected_income = excluded.expected_income,
			expected_outcome = excluded.expected_outcome,
			start_date = excluded.start_date,
			end_date = excluded.end_date`,
		p.ID, p.PropertyID, p.Year, p.Name, p.ExpectedIncome.String(),
		p.ExpectedOutcome.String(), p.StartDate.Format(time.RFC3339Nano), fmtTimePtr(p.EndDate))
	return err
}

func (s *Store) ProjectsByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.ExceptionalProject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, year, name, expected_income, expected_outcome, start_date, end_date
		FROM projects WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ExceptionalProject
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) Contribution(ctx context.Context, projectID hoa.ProjectID, ownerID hoa.OwnerID) (*hoa.ExceptionalContribution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, owner_id, expected_amount, paid_amount, status
		FROM contributions WHERE project_id = ? AND owner_id = ?`, projectID, ownerID)

	var c hoa.ExceptionalContribution
	var expected, paid string
	err := row.Scan(&c.ProjectID, &c.OwnerID, &expected, &paid, &c.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.ExpectedAmount = dec(expected)
	c.PaidAmount = dec(paid)
	return &c, nil
}

func (s *Store) SaveContribution(ctx context.Context, c hoa.ExceptionalContribution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contributions (project_id, owner_id, expected_amount, paid_amount, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, owner_id) DO UPDATE SET
			expected_amount = excluded.expected_amount,
			paid_amount = excluded.paid_amount,
			status = excluded.status`,
		c.ProjectID, c.OwnerID, c.ExpectedAmount.String(), c.PaidAmount.String(), string(c.Status))
	return err
}

func (s *Store) ContributionsByProject(ctx context.Context, projectID hoa.ProjectID) ([]hoa.ExceptionalContribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, owner_id, expected_amount, paid_amount, status
		FROM contributions WHERE project_id = ? ORDER BY owner_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ExceptionalContribution
	for rows.Next() {
		var c hoa.ExceptionalContribution
		var expected, paid string
		if err := rows.Scan(&c.ProjectID, &c.OwnerID, &expected, &paid, &c.Status); err != nil {
			return nil, err
		}
		c.ExpectedAmount = dec(expected)
		c.PaidAmount = dec(paid)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) ExternalContributorByID(ctx context.Context, id string) (*hoa.ExternalContributor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, expected_amount, paid_amount, status
		FROM external_contributors WHERE id = ?`, id)

	var ec hoa.ExternalContributor
	var expected, paid string
	err := row.Scan(&ec.ID, &ec.ProjectID, &ec.Name, &expected, &paid, &ec.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ec.ExpectedAmount = dec(expected)
	ec.PaidAmount = dec(paid)
	return &ec, nil
}

func (s *Store) SaveExternalContributor(ctx context.Context, ec hoa.ExternalContributor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_contributors (id, project_id, name, expected_amount, paid_amount, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			expected_amount = excluded.expected_amount,
			paid_amount = excluded.paid_amount,
			status = excluded.status`,
		ec.ID, ec.ProjectID, ec.Name, ec.ExpectedAmount.String(), ec.PaidAmount.String(), string(ec.Status))
	return err
}

func (s *Store) ExternalContributorsByProject(ctx context.Context, projectID hoa.ProjectID) ([]hoa.ExternalContributor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, expected_amount, paid_amount, status
		FROM external_contributors WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ExternalContributor
	for rows.Next() {
		var ec hoa.ExternalContributor
		var expected, paid string
		if err := rows.Scan(&ec.ID, &ec.ProjectID, &ec.Name, &expected, &paid, &ec.Status); err != nil {
			return nil, err
		}
		ec.ExpectedAmount = dec(expected)
		ec.PaidAmount = dec(paid)
		result = append(result, ec)
	}
	return result, rows.Err()
}

func (s *Store) AppendContributionHistory(ctx context.Context, e hoa.ContributionHistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contribution_history (transaction_id, project_id, contributor_kind, contributor_id, previous_amount, new_amount, amount_paid, transaction_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TransactionID, e.ProjectID, string(e.Contributor.Kind), e.Contributor.ID,
		e.PreviousAmount.String(), e.NewAmount.String(), e.AmountPaid.String(),
		e.TransactionDate.Format(time.RFC3339Nano), e.Notes)
	return err
}

func (s *Store) ContributionHistory(ctx context.Context, projectID hoa.ProjectID) ([]hoa.ContributionHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, project_id, contributor_kind, contributor_id, previous_amount, new_amount, amount_paid, transaction_date, notes
		FROM contribution_history WHERE project_id = ? ORDER BY transaction_date, transaction_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ContributionHistoryEntry
	for rows.Next() {
		var e hoa.ContributionHistoryEntry
		var kind, cid, prev, next, paid, date string
		var notes sql.NullString
		if err := rows.Scan(&e.TransactionID, &e.ProjectID, &kind, &cid, &prev, &next, &paid, &date, &notes); err != nil {
			return nil, err
		}
		e.Contributor = hoa.Contributor{Kind: hoa.ContributorKind(kind), ID: cid}
		e.PreviousAmount = dec(prev)
		e.NewAmount = dec(next)
		e.AmountPaid = dec(paid)
		e.TransactionDate = timeOf(date)
		e.Notes = notes.String
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// REGISTRY STORE
// =============================================================================

func (s *Store) Property(ctx context.Context, id hoa.PropertyID) (*hoa.Property, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, construction_date FROM properties WHERE id = ?`, id)

	var p hoa.Property
	var address sql.NullString
	var built string
	err := row.Scan(&p.ID, &p.Name, &address, &built)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Address = address.String
	p.ConstructionDate = timeOf(built)
	return &p, nil
}

func (s *Store) SaveProperty(ctx context.Context, p hoa.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, name, address, construction_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			construction_date = excluded.construction_date`,
		p.ID, p.Name, p.Address, p.ConstructionDate.Format(time.RFC3339Nano))
	return err
}

func (s *Store) Properties(ctx context.Context) ([]hoa.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, construction_date FROM properties ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.Property
	for rows.Next() {
		var p hoa.Property
		var address sql.NullString
		var built string
		if err := rows.Scan(&p.ID, &p.Name, &address, &built); err != nil {
			return nil, err
		}
		p.Address = address.String
		p.ConstructionDate = timeOf(built)
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanOwner(row interface{ Scan(...any) error }) (hoa.Owner, error) {
	var o hoa.Owner
	var join string
	var renter sql.NullString
	err := row.Scan(&o.ID, &o.PropertyID, &o.FullName, &o.OwnershipTitleCode, &join, &o.UnitID, &renter)
	if err != nil {
		return o, err
	}
	o.JoinDate = timeOf(join)
	o.RenterName = renter.String
	return o, nil
}

func (s *Store) Owner(ctx context.Context, id hoa.OwnerID) (*hoa.Owner, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, full_name, ownership_title_code, join_date, unit_id, renter_name
		FROM owners WHERE id = ?`, id)

	o, err := scanOwner(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) SaveOwner(ctx context.Context, o hoa.Owner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owners (id, property_id, full_name, ownership_title_code, join_date, unit_id, renter_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			ownership_title_code = excluded.ownership_title_code,
			join_date = excluded.join_date,
			unit_id = excluded.unit_id,
			renter_name = excluded.renter_name`,
		o.ID, o.PropertyID, o.FullName, o.OwnershipTitleCode,
		o.JoinDate.Format(time.RFC3339Nano), o.UnitID, o.RenterName)
	return err
}

func (s *Store) OwnersByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.Owner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, full_name, ownership_title_code, join_date, unit_id, renter_name
		FROM owners WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func (s *Store) Unit(ctx context.Context, id hoa.UnitID) (*hoa.Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, code, unit_type_id, surface FROM units WHERE id = ?`, id)

	var u hoa.Unit
	var surface string
	err := row.Scan(&u.ID, &u.PropertyID, &u.Code, &u.UnitTypeID, &surface)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Surface = dec(surface)
	return &u, nil
}

func (s *Store) SaveUnit(ctx context.Context, u hoa.Unit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, property_id, code, unit_type_id, surface)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			unit_type_id = excluded.unit_type_id,
			surface = excluded.surface`,
		u.ID, u.PropertyID, u.Code, u.UnitTypeID, u.Surface.String())
	return err
}

func (s *Store) UnitsByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, code, unit_type_id, surface FROM units WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.Unit
	for rows.Next() {
		var u hoa.Unit
		var surface string
		if err := rows.Scan(&u.ID, &u.PropertyID, &u.Code, &u.UnitTypeID, &surface); err != nil {
			return nil, err
		}
		u.Surface = dec(surface)
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) UnitType(ctx context.Context, id hoa.UnitTypeID) (*hoa.UnitType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, name FROM unit_types WHERE id = ?`, id)

	var ut hoa.UnitType
	err := row.Scan(&ut.ID, &ut.PropertyID, &ut.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ut, nil
}

func (s *Store) SaveUnitType(ctx context.Context, ut hoa.UnitType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unit_types (id, property_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		ut.ID, ut.PropertyID, ut.Name)
	return err
}

func (s *Store) UnitTypesByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.UnitType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, name FROM unit_types WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.UnitType
	for rows.Next() {
		var ut hoa.UnitType
		if err := rows.Scan(&ut.ID, &ut.PropertyID, &ut.Name); err != nil {
			return nil, err
		}
		result = append(result, ut)
	}
	return result, rows.Err()
}

func (s *Store) DeleteUnitType(ctx context.Context, propertyID hoa.PropertyID, unitTypeID hoa.UnitTypeID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM unit_types WHERE id = ? AND property_id = ?`, unitTypeID, propertyID)
	return err
}

func (s *Store) Category(ctx context.Context, id hoa.CategoryID) (*hoa.ExpenseCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, name, archived FROM expense_categories WHERE id = ?`, id)

	var c hoa.ExpenseCategory
	err := row.Scan(&c.ID, &c.PropertyID, &c.Name, &c.Archived)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SaveCategory(ctx context.Context, c hoa.ExpenseCategory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_categories (id, property_id, name, archived)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			archived = excluded.archived`,
		c.ID, c.PropertyID, c.Name, c.Archived)
	return err
}

func (s *Store) CategoriesByProperty(ctx context.Context, propertyID hoa.PropertyID) ([]hoa.ExpenseCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, name, archived FROM expense_categories WHERE property_id = ? ORDER BY id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []hoa.ExpenseCategory
	for rows.Next() {
		var c hoa.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.PropertyID, &c.Name, &c.Archived); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
