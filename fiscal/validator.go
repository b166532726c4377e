/*
validator.go - Recharge and spend verdicts

PURPOSE:
  Two independent, pure checks over a company snapshot:

  RECHARGE (advisory):
    Compares the projected total against the company-wide fiscal ceiling and
    estimates the tax exposure of any excess. The validator never blocks a
    recharge: fiscal ceilings are policy guidance, not hard technical limits.
    Employers may legally exceed them and accept taxation, so the caller uses
    the verdict to require explicit confirmation, nothing more.

  SPEND (blocking):
    Compares the requested amount against the available balance
    (totalCredits - usedCredits). This IS a hard gate: unlike the ceiling it
    reflects real, loaded money, and spend must never be permitted past it.

  Both return typed verdicts, not errors. There is no scenario here where a
  failure should crash a request; worst case is "operation not permitted,
  here is why".

CONCURRENCY NOTE:
  Validators must be called with a freshly re-read balance immediately before
  the atomic write, never with a balance cached earlier in the request
  lifecycle. The store's Spend re-enforces the gate inside its critical
  section; the verdict here is for the user-facing message.
*/
package fiscal

import (
	"github.com/shopspring/decimal"

	"github.com/welfarehub/credits-engine/core"
)

// DefaultExcessTaxRate is the rate applied to credits loaded above the
// ceiling when estimating tax exposure.
var DefaultExcessTaxRate = core.MustMoney("0.22")

// =============================================================================
// LEDGER VALIDATOR
// =============================================================================

// LedgerValidator validates recharge and spend operations. Pure and
// stateless; safe for any number of concurrent callers.
type LedgerValidator struct {
	ExcessTaxRate decimal.Decimal
}

func NewLedgerValidator() *LedgerValidator {
	return &LedgerValidator{ExcessTaxRate: DefaultExcessTaxRate}
}

// RechargeVerdict is the advisory outcome of a recharge check.
type RechargeVerdict struct {
	ProjectedTotal     decimal.Decimal
	Exceeds            bool
	ExcessAmount       decimal.Decimal
	EstimatedExcessTax decimal.Decimal
}

// ValidateRecharge projects the company total after the proposed recharge
// and reports whether it lands above the fiscal ceiling. Negative proposed
// amounts normalize to zero.
func (v *LedgerValidator) ValidateRecharge(company core.Company, amount decimal.Decimal, limit Limit) RechargeVerdict {
	amount = core.ClampNonNegative(amount)

	projected := company.TotalCredits.Add(amount)
	verdict := RechargeVerdict{
		ProjectedTotal:     projected,
		ExcessAmount:       decimal.Zero,
		EstimatedExcessTax: decimal.Zero,
	}

	if projected.GreaterThan(limit.TotalLimit) {
		verdict.Exceeds = true
		verdict.ExcessAmount = projected.Sub(limit.TotalLimit)
		verdict.EstimatedExcessTax = core.RoundMoney(verdict.ExcessAmount.Mul(v.ExcessTaxRate))
	}
	return verdict
}

// SpendVerdict is the outcome of a spend check. When Sufficient is false the
// caller MUST reject the operation and surface the shortfall.
type SpendVerdict struct {
	Sufficient bool
	Available  decimal.Decimal
	Shortfall  decimal.Decimal
}

// ValidateSpend checks the proposed amount against the available balance.
// Negative proposed amounts normalize to zero (and trivially pass).
func (v *LedgerValidator) ValidateSpend(company core.Company, amount decimal.Decimal) SpendVerdict {
	amount = core.ClampNonNegative(amount)

	available := company.AvailableBalance()
	verdict := SpendVerdict{
		Available: available,
		Shortfall: decimal.Zero,
	}

	if amount.GreaterThan(available) {
		verdict.Shortfall = amount.Sub(available)
		return verdict
	}
	verdict.Sufficient = true
	return verdict
}

// SpendError converts a failing verdict into the blocking error the caller
// propagates.
func (v *LedgerValidator) SpendError(company core.Company, amount decimal.Decimal, verdict SpendVerdict) error {
	return &core.InsufficientBalanceError{
		CompanyID: company.ID,
		Available: verdict.Available,
		Requested: core.ClampNonNegative(amount),
		Shortfall: verdict.Shortfall,
	}
}
