/*
Package fiscal computes the statutory tax-free ceiling and validates ledger
operations against it.

PURPOSE:
  Italian-style fringe benefit rules exempt up to a statutory annual amount
  per employee (default EUR 258.23) from taxation, prorated by months of
  employment in the reference year. This package answers two questions:

  1. "How much tax-free room does this company have?" (LimitCalculator)
  2. "Is this recharge/spend acceptable?"            (LedgerValidator)

PRORATION RULE:
  personalLimit = ceiling * monthsRemaining / 12

  monthsRemaining = 12                 if hired in a year before the reference year
                  = 13 - hireMonth     if hired during the reference year
                  = 0                  if hired after the reference year

  The hire month counts as a full month of eligibility: hired January 15 gets
  12/12, hired September 10 gets 4/12.

ROUNDING:
  Personal limits round to cents with standard rounding. The company total is
  the exact decimal sum of the personal limits, so totalLimit == sum of what
  each employee sees, with no drift (decimal arithmetic has none to begin
  with).

FALLBACKS (not failures):
  - Inactive employees are excluded entirely: they contribute 0 and do not
    appear in the result.
  - A missing hire date defaults to "start of reference year", i.e. the full
    ceiling. Source data is user-entered; a blank date must not block an
    employer's screen.

SEE ALSO:
  - validator.go: recharge/spend verdicts against the computed limit
*/
package fiscal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/welfarehub/credits-engine/core"
)

// DefaultAnnualCeiling is the statutory per-employee tax-free amount.
var DefaultAnnualCeiling = core.MustMoney("258.23")

var twelve = decimal.NewFromInt(12)

// =============================================================================
// LIMIT CALCULATOR
// =============================================================================

// LimitCalculator derives the prorated ceiling per employee and the
// company-wide sum. Pure: recomputed from a snapshot on every call, no
// caching, no owned state.
type LimitCalculator struct {
	Clock         core.Clock
	AnnualCeiling decimal.Decimal
}

// NewLimitCalculator returns a calculator with the statutory default ceiling.
func NewLimitCalculator(clock core.Clock) *LimitCalculator {
	return &LimitCalculator{Clock: clock, AnnualCeiling: DefaultAnnualCeiling}
}

// EmployeeLimit is one active employee's prorated ceiling.
type EmployeeLimit struct {
	EmployeeID      core.EmployeeID
	MonthsRemaining int
	PersonalLimit   decimal.Decimal
}

// Limit is the derived, never-stored fiscal projection for a company.
type Limit struct {
	Year       int
	Employees  []EmployeeLimit
	TotalLimit decimal.Decimal
}

// Compute derives the fiscal limit for the given employees. A referenceYear
// of 0 means "current year from the clock". Inactive employees are skipped
// entirely.
func (c *LimitCalculator) Compute(employees []core.Employee, referenceYear int) Limit {
	year := referenceYear
	if year == 0 {
		year = c.Clock.Now().Year()
	}

	limit := Limit{Year: year, TotalLimit: decimal.Zero}
	for _, emp := range employees {
		if !emp.Active {
			continue
		}
		months := monthsRemaining(emp.HireDate, year)
		personal := core.RoundMoney(
			c.AnnualCeiling.Mul(decimal.NewFromInt(int64(months))).Div(twelve),
		)
		limit.Employees = append(limit.Employees, EmployeeLimit{
			EmployeeID:      emp.ID,
			MonthsRemaining: months,
			PersonalLimit:   personal,
		})
		limit.TotalLimit = limit.TotalLimit.Add(personal)
	}
	return limit
}

// monthsRemaining applies the proration rule. The zero hire date is the
// documented fallback: treated as start of the reference year (full ceiling).
func monthsRemaining(hireDate time.Time, referenceYear int) int {
	if hireDate.IsZero() {
		return 12
	}
	switch {
	case hireDate.Year() < referenceYear:
		return 12
	case hireDate.Year() > referenceYear:
		return 0
	default:
		return 13 - int(hireDate.Month())
	}
}
