/*
errors.go - Centralized error taxonomy for the credits engine

PURPOSE:
  All error types in one place for consistency and discoverability. The
  taxonomy is deliberately small:

  1. InsufficientBalance - spend exceeds available company balance. The ONE
     hard gate in the system: callers must reject the operation and surface
     the shortfall.
  2. PoolExceeded - manual distribution sums above the allocable pool.
     Blocking at the planning stage, before any write.
  3. Record/lookup errors - invalid construction, missing entities.
  4. InvalidTransition - illegal alert or transaction status change.

  Exceeding the fiscal ceiling is NOT an error: it is an advisory verdict
  (fiscal.RechargeVerdict) the caller renders for confirmation. Employers may
  legally exceed the ceiling and accept taxation.

USAGE:
  if errors.Is(err, core.ErrInsufficientBalance) { ... }

  var poolErr *core.PoolExceededError
  if errors.As(err, &poolErr) { render(poolErr.Overage) }
*/
package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when a spend or distribution exceeds
	// the company's available balance. Always blocking.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrPoolExceeded is returned when manual distribution amounts sum above
	// the allocable pool.
	ErrPoolExceeded = errors.New("distribution pool exceeded")

	// ErrInvalidTransition is returned on an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCompanyNotFound is returned when a referenced company doesn't exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlertNotFound is returned when a referenced fraud alert doesn't exist.
	ErrAlertNotFound = errors.New("alert not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError carries the exact shortfall so the caller can
// surface it to the user.
type InsufficientBalanceError struct {
	CompanyID CompanyID
	Available decimal.Decimal
	Requested decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for company %s: available %v, requested %v, shortfall %v",
		e.CompanyID, e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// PoolExceededError carries the exact overage so the UI can prompt correction.
type PoolExceededError struct {
	Pool      int64
	Requested int64
	Overage   int64
}

func (e *PoolExceededError) Error() string {
	return fmt.Sprintf("manual distribution exceeds pool: requested %d, pool %d, overage %d",
		e.Requested, e.Pool, e.Overage)
}

func (e *PoolExceededError) Unwrap() error { return ErrPoolExceeded }

// InvalidRecordError is returned by record constructors on invariant
// violations (used > allocated, negative counters).
type InvalidRecordError struct {
	Record string
	ID     string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Record, e.ID, e.Reason)
}

// InvalidTransitionError reports the rejected status change.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input and
// should map to a 4xx response rather than a 500.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrPoolExceeded) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrAlertNotFound)
}
