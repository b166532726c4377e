/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements core.Directory, core.Ledger, and fraud.AlertStore. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

ATOMICITY:
  Distribution is the pool draw: it runs inside a database transaction that
  re-reads the company balance and enforces the gate before writing, so two
  concurrent draws against the same company cannot jointly overspend. Spend
  (merchant transaction) does the same against the employee's point balance.
  The verdict a request computed earlier is advisory; the check inside the
  transaction is the authoritative one.

KEY TABLES:
  companies:     cumulative total/used credits (decimal strings)
  employees:     hire date, active flag, allocated/used points
  transactions:  merchant spend events (immutable except status)
  fraud_alerts:  scan findings, mutated only via the status machine

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/credits.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - core/store.go: interface definitions and the atomicity contract
  - core/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/fraud"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ core.Directory   = (*Store)(nil)
	_ core.Ledger      = (*Store)(nil)
	_ fraud.AlertStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent draws.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		total_credits TEXT NOT NULL,
		used_credits TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		hire_date TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		allocated_credits INTEGER NOT NULL DEFAULT 0,
		used_credits INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company
		ON employees(company_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		partner_id TEXT,
		points INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: 24h history windows per company
	CREATE INDEX IF NOT EXISTS idx_transactions_company_created
		ON transactions(company_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_employee
		ON transactions(employee_id);

	CREATE TABLE IF NOT EXISTS fraud_alerts (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		detected_at TEXT NOT NULL,
		status TEXT NOT NULL,
		actions_json TEXT NOT NULL
	);

	-- Scan-run deduplication lookup
	CREATE INDEX IF NOT EXISTS idx_alerts_company_type_status
		ON fraud_alerts(company_id, alert_type, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DIRECTORY (reads)
// =============================================================================

func (s *Store) ListCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, total_credits, used_credits FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context, id core.CompanyID) (*core.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, total_credits, used_credits FROM companies WHERE id = ?`, string(id))
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListEmployees(ctx context.Context, companyID core.CompanyID) ([]core.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, hire_date, active, allocated_credits, used_credits
		 FROM employees WHERE company_id = ? ORDER BY id`, string(companyID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id core.EmployeeID) (*core.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, hire_date, active, allocated_credits, used_credits
		 FROM employees WHERE id = ?`, string(id))
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) TransactionsSince(ctx context.Context, companyID core.CompanyID, since time.Time) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, employee_id, partner_id, points, status, created_at
		 FROM transactions
		 WHERE company_id = ? AND created_at >= ?
		 ORDER BY created_at`, string(companyID), since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, id core.TransactionID) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, employee_id, partner_id, points, status, created_at
		 FROM transactions WHERE id = ?`, string(id))
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// =============================================================================
// LEDGER (writes)
// =============================================================================

func (s *Store) SaveCompany(ctx context.Context, c core.Company) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, total_credits, used_credits, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET total_credits = excluded.total_credits,
		                               used_credits = excluded.used_credits`,
		string(c.ID), c.TotalCredits.String(), c.UsedCredits.String(),
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) SaveEmployee(ctx context.Context, e core.Employee) error {
	hireDate := ""
	if !e.HireDate.IsZero() {
		hireDate = e.HireDate.Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, company_id, hire_date, active, allocated_credits, used_credits, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET company_id = excluded.company_id,
		                               hire_date = excluded.hire_date,
		                               active = excluded.active,
		                               allocated_credits = excluded.allocated_credits,
		                               used_credits = excluded.used_credits`,
		string(e.ID), string(e.CompanyID), hireDate, e.Active,
		e.AllocatedCredits, e.UsedCredits,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) Recharge(ctx context.Context, companyID core.CompanyID, amount decimal.Decimal) (core.Company, error) {
	amount = core.ClampNonNegative(amount)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Company{}, err
	}
	defer tx.Rollback()

	c, err := companyForUpdate(ctx, tx, companyID)
	if err != nil {
		return core.Company{}, err
	}

	c.TotalCredits = c.TotalCredits.Add(amount)
	if _, err := tx.ExecContext(ctx,
		`UPDATE companies SET total_credits = ? WHERE id = ?`,
		c.TotalCredits.String(), string(companyID)); err != nil {
		return core.Company{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Company{}, err
	}
	return c, nil
}

func (s *Store) Spend(ctx context.Context, companyID core.CompanyID, employeeID core.EmployeeID, partnerID core.PartnerID, points int64) (core.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, err
	}
	defer dbTx.Rollback()

	if _, err := companyForUpdate(ctx, dbTx, companyID); err != nil {
		return core.Transaction{}, err
	}

	var e core.Employee
	var hireDate sql.NullString
	row := dbTx.QueryRowContext(ctx,
		`SELECT id, company_id, hire_date, allocated_credits, used_credits
		 FROM employees WHERE id = ? AND company_id = ?`, string(employeeID), string(companyID))
	if err := row.Scan(&e.ID, &e.CompanyID, &hireDate, &e.AllocatedCredits, &e.UsedCredits); err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, core.ErrEmployeeNotFound
		}
		return core.Transaction{}, err
	}

	// Authoritative gate: re-read under the transaction, never a cached value.
	if points <= 0 || points > e.CurrentPoints() {
		available := core.MoneyFromInt(e.CurrentPoints())
		requested := core.MoneyFromInt(points)
		return core.Transaction{}, &core.InsufficientBalanceError{
			CompanyID: companyID,
			Available: available,
			Requested: requested,
			Shortfall: requested.Sub(available),
		}
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE employees SET used_credits = used_credits + ? WHERE id = ?`,
		points, string(employeeID)); err != nil {
		return core.Transaction{}, err
	}

	record := core.Transaction{
		ID:         core.TransactionID(fmt.Sprintf("tx-%d", time.Now().UnixNano())),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		PartnerID:  partnerID,
		Points:     points,
		Status:     core.TxCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := dbTx.ExecContext(ctx,
		`INSERT INTO transactions (id, company_id, employee_id, partner_id, points, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(record.ID), string(record.CompanyID), string(record.EmployeeID),
		string(record.PartnerID), record.Points, string(record.Status),
		record.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return core.Transaction{}, err
	}

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, err
	}
	return record, nil
}

func (s *Store) ApplyDistribution(ctx context.Context, companyID core.CompanyID, grants map[core.EmployeeID]int64) error {
	var total int64
	for _, points := range grants {
		if points > 0 {
			total += points
		}
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	c, err := companyForUpdate(ctx, dbTx, companyID)
	if err != nil {
		return err
	}

	// The pool draw gate: balance re-read inside the transaction.
	amount := core.MoneyFromInt(total)
	available := c.AvailableBalance()
	if amount.GreaterThan(available) {
		return &core.InsufficientBalanceError{
			CompanyID: companyID,
			Available: available,
			Requested: amount,
			Shortfall: amount.Sub(available),
		}
	}

	for employeeID, points := range grants {
		if points <= 0 {
			continue
		}
		res, err := dbTx.ExecContext(ctx,
			`UPDATE employees SET allocated_credits = allocated_credits + ?
			 WHERE id = ? AND company_id = ?`,
			points, string(employeeID), string(companyID))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrEmployeeNotFound
		}
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE companies SET used_credits = ? WHERE id = ?`,
		c.UsedCredits.Add(amount).String(), string(companyID)); err != nil {
		return err
	}
	return dbTx.Commit()
}

// SeedTransaction inserts a transaction directly, bypassing the balance
// gate. Demo-scenario helper only.
func (s *Store) SeedTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transactions (id, company_id, employee_id, partner_id, points, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(tx.ID), string(tx.CompanyID), string(tx.EmployeeID),
		string(tx.PartnerID), tx.Points, string(tx.Status),
		tx.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) SetTransactionStatus(ctx context.Context, id core.TransactionID, status core.TransactionStatus) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	var current string
	row := dbTx.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = ?`, string(id))
	if err := row.Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return core.ErrTransactionNotFound
		}
		return err
	}
	if !core.ValidStatusTransition(core.TransactionStatus(current), status) {
		return &core.InvalidTransitionError{From: current, To: string(status)}
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE transactions SET status = ? WHERE id = ?`, string(status), string(id)); err != nil {
		return err
	}
	return dbTx.Commit()
}

// =============================================================================
// ALERT STORE
// =============================================================================

func (s *Store) SaveAlert(ctx context.Context, a fraud.Alert) error {
	actions, err := json.Marshal(a.SuggestedActions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fraud_alerts (id, company_id, alert_type, severity, description, risk_score, detected_at, status, actions_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		string(a.ID), string(a.CompanyID), string(a.Type), a.Severity.String(),
		a.Description, a.RiskScore, a.DetectedAt.Format(time.RFC3339Nano),
		string(a.Status), string(actions))
	return err
}

func (s *Store) ListAlerts(ctx context.Context, status fraud.AlertStatus) ([]fraud.Alert, error) {
	query := `SELECT id, company_id, alert_type, severity, description, risk_score, detected_at, status, actions_json
	          FROM fraud_alerts`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY detected_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fraud.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAlert(ctx context.Context, id core.AlertID) (*fraud.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, alert_type, severity, description, risk_score, detected_at, status, actions_json
		 FROM fraud_alerts WHERE id = ?`, string(id))
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpdateAlertStatus(ctx context.Context, id core.AlertID, status fraud.AlertStatus) (*fraud.Alert, error) {
	a, err := s.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Transition(status); err != nil {
		return nil, err
	}
	if err := s.SaveAlert(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) HasActiveAlert(ctx context.Context, companyID core.CompanyID, alertType fraud.AlertType) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM fraud_alerts WHERE company_id = ? AND alert_type = ? AND status = ?`,
		string(companyID), string(alertType), string(fraud.StatusActive))
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func companyForUpdate(ctx context.Context, tx *sql.Tx, id core.CompanyID) (core.Company, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, total_credits, used_credits FROM companies WHERE id = ?`, string(id))
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return core.Company{}, core.ErrCompanyNotFound
	}
	return c, err
}

func scanCompany(row rowScanner) (core.Company, error) {
	var c core.Company
	var total, used string
	if err := row.Scan(&c.ID, &total, &used); err != nil {
		return core.Company{}, err
	}
	c.TotalCredits = core.MustMoney(total)
	c.UsedCredits = core.MustMoney(used)
	return c, nil
}

func scanEmployee(row rowScanner) (core.Employee, error) {
	var e core.Employee
	var hireDate sql.NullString
	if err := row.Scan(&e.ID, &e.CompanyID, &hireDate, &e.Active, &e.AllocatedCredits, &e.UsedCredits); err != nil {
		return core.Employee{}, err
	}
	if hireDate.String != "" {
		// Malformed dates stay zero: the fiscal fallback handles them.
		e.HireDate, _ = time.Parse("2006-01-02", hireDate.String)
	}
	return e, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var partner sql.NullString
	var createdAt string
	if err := row.Scan(&tx.ID, &tx.CompanyID, &tx.EmployeeID, &partner, &tx.Points, &tx.Status, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	tx.PartnerID = core.PartnerID(partner.String)
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return tx, nil
}

func scanAlert(row rowScanner) (fraud.Alert, error) {
	var a fraud.Alert
	var severity, detectedAt, actionsJSON string
	if err := row.Scan(&a.ID, &a.CompanyID, &a.Type, &severity, &a.Description,
		&a.RiskScore, &detectedAt, &a.Status, &actionsJSON); err != nil {
		return fraud.Alert{}, err
	}
	a.Severity = fraud.ParseSeverity(severity)
	a.DetectedAt, _ = time.Parse(time.RFC3339Nano, detectedAt)
	if err := json.Unmarshal([]byte(actionsJSON), &a.SuggestedActions); err != nil {
		return fraud.Alert{}, err
	}
	return a, nil
}
