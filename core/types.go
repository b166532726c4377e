/*
Package core provides the shared domain model for the welfare credits engine.

PURPOSE:
  This package contains the typed records and monetary primitives that the
  fiscal, distribution, and fraud packages compute over. The engine itself is
  a stateless derivation layer: the external ledger is the system of record,
  these types are read-only snapshots of it plus the verdicts derived from
  them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: all monetary values are decimal.Decimal, rounded to cents
    exactly once at presentation boundaries
  - Typed identifiers: EmployeeID, CompanyID, etc. prevent mixing IDs
  - TransactionStatus: the lifecycle of a merchant transaction

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for money, never float64
  2. Type Safety: strong typing for identifiers
  3. Construction-time validation: records that violate their invariants
     (used > allocated) cannot be built

SEE ALSO:
  - records.go: Employee, Company, Transaction records
  - clock.go: injectable time source
  - errors.go: error taxonomy
*/
package core

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type CompanyID string
type TransactionID string
type PartnerID string
type AlertID string

// =============================================================================
// MONEY - decimal helpers
// =============================================================================

// MoneyScale is the number of decimal places carried by monetary results.
// Credits are 1:1 with currency, so everything rounds to cents.
const MoneyScale = 2

func NewMoney(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func MoneyFromInt(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// MustMoney parses a decimal literal, returning zero on malformed input.
// Used for statutory constants and config values.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundMoney rounds to cents using standard (half away from zero) rounding.
// Intermediate arithmetic stays unrounded; callers round once at the end.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ClampNonNegative normalizes negative user-entered amounts to zero rather
// than raising an error. Source data is user-entered and must degrade
// gracefully in a financial UI.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// TRANSACTION STATUS
// =============================================================================

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxCancelled TransactionStatus = "cancelled"
)

// ValidStatusTransition reports whether a transaction status change is
// allowed. Transactions are immutable once created except for these.
func ValidStatusTransition(from, to TransactionStatus) bool {
	switch from {
	case TxPending:
		return to == TxCompleted || to == TxCancelled
	default:
		return false
	}
}
