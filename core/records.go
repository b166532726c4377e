/*
records.go - Snapshot records consumed by the engine

PURPOSE:
  Typed structs for the entities the engine reads: employees, companies, and
  merchant transactions. Constructors reject invalid states at construction
  time instead of letting them propagate into fiscal arithmetic.

LIFECYCLE NOTES:
  Employee: created on hiring; allocated credits grow via distribution, used
  credits grow via spend; deactivation is the terminal state, never deletion
  while transactions reference the employee.

  Company: total credits grow via recharge, used credits via distribution and
  spend.

  Transaction: immutable once created except for status transitions
  (pending -> completed | cancelled). Risk score and fraud flags are derived
  at read time, never persisted on the record.

SEE ALSO:
  - types.go: identifiers and money helpers
  - store.go: read/write interfaces over these records
*/
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID        EmployeeID
	CompanyID CompanyID
	HireDate  time.Time // date only; zero value = unknown (documented fallback)
	Active    bool

	// Cumulative point counters. Invariant: UsedCredits <= AllocatedCredits.
	AllocatedCredits int64
	UsedCredits      int64
}

// NewEmployee validates the employee invariants at construction time.
func NewEmployee(id EmployeeID, companyID CompanyID, hireDate time.Time, active bool, allocated, used int64) (Employee, error) {
	if allocated < 0 || used < 0 {
		return Employee{}, &InvalidRecordError{Record: "employee", ID: string(id), Reason: "negative credit counter"}
	}
	if used > allocated {
		return Employee{}, &InvalidRecordError{Record: "employee", ID: string(id), Reason: "used credits exceed allocated credits"}
	}
	return Employee{
		ID:               id,
		CompanyID:        companyID,
		HireDate:         hireDate,
		Active:           active,
		AllocatedCredits: allocated,
		UsedCredits:      used,
	}, nil
}

// CurrentPoints is the spendable point balance.
func (e Employee) CurrentPoints() int64 {
	return e.AllocatedCredits - e.UsedCredits
}

// =============================================================================
// COMPANY
// =============================================================================

type Company struct {
	ID CompanyID

	// Cumulative cash counters. Invariant: UsedCredits <= TotalCredits.
	TotalCredits decimal.Decimal
	UsedCredits  decimal.Decimal
}

// NewCompany validates the company invariants at construction time.
func NewCompany(id CompanyID, total, used decimal.Decimal) (Company, error) {
	if total.IsNegative() || used.IsNegative() {
		return Company{}, &InvalidRecordError{Record: "company", ID: string(id), Reason: "negative credit counter"}
	}
	if used.GreaterThan(total) {
		return Company{}, &InvalidRecordError{Record: "company", ID: string(id), Reason: "used credits exceed total credits"}
	}
	return Company{ID: id, TotalCredits: total, UsedCredits: used}, nil
}

// AvailableBalance is the real, loaded-but-unspent money. Spend validation
// gates on this, never on the fiscal ceiling.
func (c Company) AvailableBalance() decimal.Decimal {
	return c.TotalCredits.Sub(c.UsedCredits)
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is a merchant spend event. CompanyID is carried redundantly
// (derivable via the employee) so history windows can be read with a single
// keyed lookup.
type Transaction struct {
	ID         TransactionID
	CompanyID  CompanyID
	EmployeeID EmployeeID
	PartnerID  PartnerID
	Points     int64
	Status     TransactionStatus
	CreatedAt  time.Time
}
