/*
Package distribution plans the allocation of a credit pool across employees.

PURPOSE:
  Given a pool (the company's available balance, in whole credits) and an
  allocation policy, produce a per-employee plan. The plan is ephemeral: the
  caller persists it (or not) after reviewing; the planner issues no writes.

POLICIES:
  equal:        floor(pool / employeeCount) each. The integer remainder is
                reported in the plan's Residual field - never silently
                dropped, never auto-assigned to an arbitrary employee
                (avoids favoritism bias).

  proportional: each employee weighted by current point balance,
                newPoints = floor(pool * current / totalCurrent). When every
                balance is zero the weights are undefined, so the planner
                falls back to equal - a defined fallback, not an error.

  manual:       caller-supplied amounts pass through unchanged; the planner
                only validates sum <= pool, rejecting with PoolExceededError
                (exact overage included) otherwise.

INVARIANTS:
  - sum(newPoints) <= pool for every plan, every policy
  - idempotent: identical inputs yield an identical plan
  - order-independent: permuting the employee list permutes plan entries
    but not their values

SEE ALSO:
  - core/errors.go: PoolExceededError
  - fiscal/validator.go: the balance gate applied before the pool is known
*/
package distribution

import (
	"errors"

	"github.com/welfarehub/credits-engine/core"
)

// =============================================================================
// POLICY
// =============================================================================

type Policy string

const (
	PolicyManual       Policy = "manual"
	PolicyEqual        Policy = "equal"
	PolicyProportional Policy = "proportional"
)

// ErrUnknownPolicy is returned for a policy outside the three defined ones.
var ErrUnknownPolicy = errors.New("unknown distribution policy")

// ParsePolicy validates a policy string from user input.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyManual, PolicyEqual, PolicyProportional:
		return Policy(s), nil
	}
	return "", ErrUnknownPolicy
}

// =============================================================================
// PLAN
// =============================================================================

// Allocation is one employee's slice of the plan.
type Allocation struct {
	EmployeeID     core.EmployeeID
	CurrentPoints  int64
	NewPoints      int64
	ResultingTotal int64
}

// Plan is the computed distribution. Policy records the policy actually
// applied: a proportional request over all-zero balances reports equal.
type Plan struct {
	Policy      Policy
	Pool        int64
	Allocations []Allocation
	Allocated   int64
	Residual    int64
}

// =============================================================================
// PLANNER
// =============================================================================

// Planner builds distribution plans. Stateless; safe for concurrent use.
type Planner struct{}

func NewPlanner() *Planner { return &Planner{} }

// BuildPlan produces a plan for the given pool and employees. The manual map
// is consulted only for PolicyManual; employees absent from it receive 0,
// and negative manual amounts normalize to 0. A negative pool normalizes to
// 0 rather than erroring.
func (p *Planner) BuildPlan(pool int64, employees []core.Employee, policy Policy, manual map[core.EmployeeID]int64) (Plan, error) {
	if pool < 0 {
		pool = 0
	}

	switch policy {
	case PolicyEqual:
		return equalPlan(pool, employees), nil
	case PolicyProportional:
		return proportionalPlan(pool, employees), nil
	case PolicyManual:
		return manualPlan(pool, employees, manual)
	default:
		return Plan{}, ErrUnknownPolicy
	}
}

func equalPlan(pool int64, employees []core.Employee) Plan {
	plan := Plan{Policy: PolicyEqual, Pool: pool, Residual: pool}
	if len(employees) == 0 {
		return plan
	}

	per := pool / int64(len(employees))
	for _, emp := range employees {
		plan.Allocations = append(plan.Allocations, allocation(emp, per))
	}
	plan.Allocated = per * int64(len(employees))
	plan.Residual = pool - plan.Allocated
	return plan
}

func proportionalPlan(pool int64, employees []core.Employee) Plan {
	var totalCurrent int64
	for _, emp := range employees {
		if cur := emp.CurrentPoints(); cur > 0 {
			totalCurrent += cur
		}
	}
	// Zero weight everywhere: proportional is undefined, fall back to equal.
	if totalCurrent == 0 {
		return equalPlan(pool, employees)
	}

	plan := Plan{Policy: PolicyProportional, Pool: pool}
	for _, emp := range employees {
		cur := emp.CurrentPoints()
		var share int64
		if cur > 0 {
			share = pool * cur / totalCurrent
		}
		plan.Allocations = append(plan.Allocations, allocation(emp, share))
		plan.Allocated += share
	}
	plan.Residual = pool - plan.Allocated
	return plan
}

func manualPlan(pool int64, employees []core.Employee, manual map[core.EmployeeID]int64) (Plan, error) {
	plan := Plan{Policy: PolicyManual, Pool: pool}
	for _, emp := range employees {
		amount := manual[emp.ID]
		if amount < 0 {
			amount = 0
		}
		plan.Allocations = append(plan.Allocations, allocation(emp, amount))
		plan.Allocated += amount
	}

	if plan.Allocated > pool {
		return Plan{}, &core.PoolExceededError{
			Pool:      pool,
			Requested: plan.Allocated,
			Overage:   plan.Allocated - pool,
		}
	}
	plan.Residual = pool - plan.Allocated
	return plan, nil
}

func allocation(emp core.Employee, newPoints int64) Allocation {
	current := emp.CurrentPoints()
	return Allocation{
		EmployeeID:     emp.ID,
		CurrentPoints:  current,
		NewPoints:      newPoints,
		ResultingTotal: current + newPoints,
	}
}

// Grants flattens a plan into the per-employee map the ledger applies.
// Zero-point allocations are omitted.
func (p Plan) Grants() map[core.EmployeeID]int64 {
	grants := make(map[core.EmployeeID]int64, len(p.Allocations))
	for _, a := range p.Allocations {
		if a.NewPoints > 0 {
			grants[a.EmployeeID] = a.NewPoints
		}
	}
	return grants
}
