package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/welfarehub/credits-engine/core"
)

// =============================================================================
// RECORD CONSTRUCTORS
// =============================================================================

func TestNewEmployee_RejectsInvalidCounters(t *testing.T) {
	// GIVEN: Counters violating the invariants
	// THEN: Construction fails with InvalidRecordError

	cases := []struct {
		name             string
		allocated, used  int64
	}{
		{"negative allocated", -1, 0},
		{"negative used", 10, -5},
		{"used over allocated", 10, 11},
	}
	for _, c := range cases {
		_, err := core.NewEmployee("emp-1", "co-1", time.Time{}, true, c.allocated, c.used)
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		var ire *core.InvalidRecordError
		if !errors.As(err, &ire) {
			t.Errorf("%s: expected InvalidRecordError, got %T", c.name, err)
		}
	}
}

func TestNewEmployee_CurrentPoints(t *testing.T) {
	emp, err := core.NewEmployee("emp-1", "co-1", core.Date(2024, time.March, 1), true, 100, 35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := emp.CurrentPoints(); got != 65 {
		t.Errorf("expected 65 current points, got %d", got)
	}
}

func TestNewCompany_RejectsInvalidCounters(t *testing.T) {
	_, err := core.NewCompany("co-1", core.MustMoney("100.00"), core.MustMoney("150.00"))
	if err == nil {
		t.Fatal("used over total should be rejected")
	}

	c, err := core.NewCompany("co-1", core.MustMoney("250.00"), core.MustMoney("100.00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.AvailableBalance().String(); got != "150" {
		t.Errorf("expected available 150, got %s", got)
	}
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

func TestRoundMoney(t *testing.T) {
	cases := []struct{ in, out string }{
		{"86.0766", "86.08"},
		{"86.074", "86.07"},
		{"21.519166", "21.52"},
		{"-1.005", "-1.01"},
	}
	for _, c := range cases {
		if got := core.RoundMoney(core.MustMoney(c.in)).String(); got != c.out {
			t.Errorf("RoundMoney(%s) = %s, want %s", c.in, got, c.out)
		}
	}
}

func TestClampNonNegative(t *testing.T) {
	if !core.ClampNonNegative(core.MustMoney("-3.50")).IsZero() {
		t.Error("negative amounts should clamp to zero")
	}
	if got := core.ClampNonNegative(core.MustMoney("3.50")).String(); got != "3.5" {
		t.Errorf("positive amounts pass through, got %s", got)
	}
}

// =============================================================================
// TRANSACTION STATUS MACHINE
// =============================================================================

func TestValidStatusTransition(t *testing.T) {
	// GIVEN: pending -> completed | cancelled, nothing else
	valid := []struct{ from, to core.TransactionStatus }{
		{core.TxPending, core.TxCompleted},
		{core.TxPending, core.TxCancelled},
	}
	for _, c := range valid {
		if !core.ValidStatusTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be valid", c.from, c.to)
		}
	}

	invalid := []struct{ from, to core.TransactionStatus }{
		{core.TxCompleted, core.TxCancelled},
		{core.TxCancelled, core.TxPending},
		{core.TxCompleted, core.TxPending},
		{core.TxPending, core.TxPending},
	}
	for _, c := range invalid {
		if core.ValidStatusTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be rejected", c.from, c.to)
		}
	}
}

// =============================================================================
// CLOCK
// =============================================================================

func TestFixedClock(t *testing.T) {
	clock := core.NewFixedClock(2025, time.June, 10)
	if got := clock.Now().Year(); got != 2025 {
		t.Errorf("expected 2025, got %d", got)
	}
	if clock.Now() != clock.Now() {
		t.Error("fixed clock must be stable")
	}
}
