/*
store.go - Persistence interfaces consumed by the API layer

PURPOSE:
  The engine packages (fiscal, distribution, fraud) are pure: they take
  snapshots as plain slices and never touch a store. These interfaces exist
  for the callers that own persistence - the HTTP layer and the fraud scan
  scheduler.

ATOMICITY CONTRACT:
  Spend and ApplyDistribution MUST perform the balance update as a single
  atomic read-modify-write keyed by company. Two concurrent spends both
  reading a stale available balance and both passing could jointly overspend,
  so implementations re-read the balance inside their critical section and
  enforce the gate there, returning InsufficientBalanceError on failure. The
  advisory verdict computed earlier in the request is for the user; the
  store's check is the authoritative one.

SEE ALSO:
  - core/store/memory.go: in-memory implementation (tests/dev)
  - store/sqlite/sqlite.go: SQLite implementation
*/
package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIRECTORY - Read-only snapshot interface
// =============================================================================

// Directory reads the records the engine derives from. All methods return
// copies; the engine never mutates what it reads.
type Directory interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id CompanyID) (*Company, error)

	// ListEmployees returns every employee of the company, active or not.
	// Fiscal and distribution callers filter as needed.
	ListEmployees(ctx context.Context, companyID CompanyID) ([]Employee, error)
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// TransactionsSince returns the company's transactions created at or
	// after the given instant, oldest first.
	TransactionsSince(ctx context.Context, companyID CompanyID, since time.Time) ([]Transaction, error)
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
}

// =============================================================================
// LEDGER - Write side, owned by callers
// =============================================================================

// Ledger performs the writes the engine only advises on.
type Ledger interface {
	SaveCompany(ctx context.Context, c Company) error
	SaveEmployee(ctx context.Context, e Employee) error

	// Recharge atomically increments the company's total credits and returns
	// the updated record. Recharges are never blocked by the fiscal ceiling.
	Recharge(ctx context.Context, companyID CompanyID, amount decimal.Decimal) (Company, error)

	// Spend records a merchant transaction, atomically consuming points the
	// employee already holds (the company pool was debited when those points
	// were distributed). Returns InsufficientBalanceError when the employee
	// balance is short.
	Spend(ctx context.Context, companyID CompanyID, employeeID EmployeeID, partnerID PartnerID, points int64) (Transaction, error)

	// ApplyDistribution is the pool draw: it atomically re-checks the
	// available balance, debits the company by the sum of the grants, and
	// credits each employee's allocated points. The whole batch succeeds or
	// nothing does; InsufficientBalanceError blocks it outright.
	ApplyDistribution(ctx context.Context, companyID CompanyID, grants map[EmployeeID]int64) error

	// SetTransactionStatus applies a status transition, enforcing
	// ValidStatusTransition.
	SetTransactionStatus(ctx context.Context, id TransactionID, status TransactionStatus) error
}
