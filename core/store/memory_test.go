package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/core/store"
	"github.com/welfarehub/credits-engine/fraud"
)

func seed(t *testing.T, m *store.Memory) {
	t.Helper()
	ctx := context.Background()

	company := core.Company{ID: "co-1", TotalCredits: core.MustMoney("1000.00"), UsedCredits: core.MustMoney("200.00")}
	if err := m.SaveCompany(ctx, company); err != nil {
		t.Fatalf("save company: %v", err)
	}
	employees := []core.Employee{
		{ID: "emp-1", CompanyID: "co-1", Active: true, AllocatedCredits: 100, UsedCredits: 40},
		{ID: "emp-2", CompanyID: "co-1", Active: true, AllocatedCredits: 50, UsedCredits: 0},
	}
	for _, e := range employees {
		if err := m.SaveEmployee(ctx, e); err != nil {
			t.Fatalf("save employee: %v", err)
		}
	}
}

// =============================================================================
// SPEND
// =============================================================================

func TestMemorySpend_ConsumesEmployeePoints(t *testing.T) {
	// GIVEN: emp-1 with 60 spendable points
	// WHEN: Spending 40
	// THEN: A completed transaction; employee used grows; the company pool is
	//       untouched (it was debited at distribution time)

	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	tx, err := m.Spend(ctx, "co-1", "emp-1", "partner-1", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Status != core.TxCompleted {
		t.Errorf("expected completed, got %s", tx.Status)
	}

	emp, _ := m.GetEmployee(ctx, "emp-1")
	if emp.UsedCredits != 80 {
		t.Errorf("expected used 80, got %d", emp.UsedCredits)
	}
	if emp.CurrentPoints() != 20 {
		t.Errorf("expected 20 points left, got %d", emp.CurrentPoints())
	}

	company, _ := m.GetCompany(ctx, "co-1")
	if got := company.UsedCredits.String(); got != "200" {
		t.Errorf("merchant spend must not touch the company pool, used = %s", got)
	}
}

func TestMemorySpend_InsufficientPointsBlocked(t *testing.T) {
	// GIVEN: emp-1 with 60 spendable points
	// WHEN: Spending 61
	// THEN: Blocked with the exact shortfall; nothing recorded

	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	_, err := m.Spend(ctx, "co-1", "emp-1", "partner-1", 61)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	var ibe *core.InsufficientBalanceError
	if !errors.As(err, &ibe) {
		t.Fatalf("expected InsufficientBalanceError, got %T", err)
	}
	if got := ibe.Shortfall.String(); got != "1" {
		t.Errorf("expected shortfall 1, got %s", got)
	}

	emp, _ := m.GetEmployee(ctx, "emp-1")
	if emp.UsedCredits != 40 {
		t.Errorf("rejected spend must not mutate, used = %d", emp.UsedCredits)
	}
	txs, _ := m.TransactionsSince(ctx, "co-1", time.Time{})
	if len(txs) != 0 {
		t.Errorf("rejected spend must not record a transaction, got %d", len(txs))
	}
}

func TestMemorySpend_UnknownRecords(t *testing.T) {
	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	if _, err := m.Spend(ctx, "nope", "emp-1", "p", 1); !errors.Is(err, core.ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}
	if _, err := m.Spend(ctx, "co-1", "nope", "p", 1); !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Errorf("expected ErrEmployeeNotFound, got %v", err)
	}
}

// =============================================================================
// DISTRIBUTION (the pool draw)
// =============================================================================

func TestMemoryApplyDistribution(t *testing.T) {
	// GIVEN: co-1 with 800 available (1000 total, 200 used)
	// WHEN: Distributing 300 + 200
	// THEN: Employees credited, company used grows to 700

	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	grants := map[core.EmployeeID]int64{"emp-1": 300, "emp-2": 200}
	if err := m.ApplyDistribution(ctx, "co-1", grants); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	emp1, _ := m.GetEmployee(ctx, "emp-1")
	if emp1.AllocatedCredits != 400 {
		t.Errorf("expected emp-1 allocated 400, got %d", emp1.AllocatedCredits)
	}
	company, _ := m.GetCompany(ctx, "co-1")
	if got := company.UsedCredits.String(); got != "700" {
		t.Errorf("expected company used 700, got %s", got)
	}
	if got := company.AvailableBalance().String(); got != "300" {
		t.Errorf("expected available 300, got %s", got)
	}
}

func TestMemoryApplyDistribution_OverdrawBlocked(t *testing.T) {
	// GIVEN: 800 available
	// WHEN: Distributing 801 in total
	// THEN: The whole batch is rejected; no partial credit

	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	grants := map[core.EmployeeID]int64{"emp-1": 500, "emp-2": 301}
	err := m.ApplyDistribution(ctx, "co-1", grants)
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	emp1, _ := m.GetEmployee(ctx, "emp-1")
	if emp1.AllocatedCredits != 100 {
		t.Errorf("all-or-nothing violated: emp-1 allocated %d", emp1.AllocatedCredits)
	}
	company, _ := m.GetCompany(ctx, "co-1")
	if got := company.UsedCredits.String(); got != "200" {
		t.Errorf("all-or-nothing violated: company used %s", got)
	}
}

func TestMemoryApplyDistribution_UnknownEmployeeBlocked(t *testing.T) {
	m := store.NewMemory()
	seed(t, m)

	grants := map[core.EmployeeID]int64{"emp-1": 10, "ghost": 10}
	err := m.ApplyDistribution(context.Background(), "co-1", grants)
	if !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

// =============================================================================
// RECHARGE AND STATUS
// =============================================================================

func TestMemoryRecharge(t *testing.T) {
	m := store.NewMemory()
	seed(t, m)

	company, err := m.Recharge(context.Background(), "co-1", core.MustMoney("258.23"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := company.TotalCredits.String(); got != "1258.23" {
		t.Errorf("expected total 1258.23, got %s", got)
	}
}

func TestMemorySetTransactionStatus(t *testing.T) {
	// GIVEN: A seeded pending transaction
	// THEN: pending -> cancelled passes; a second transition is rejected

	m := store.NewMemory()
	seed(t, m)
	ctx := context.Background()

	m.SeedTransaction(ctx, core.Transaction{
		ID: "tx-1", CompanyID: "co-1", EmployeeID: "emp-1",
		Points: 10, Status: core.TxPending, CreatedAt: time.Now(),
	})

	if err := m.SetTransactionStatus(ctx, "tx-1", core.TxCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := m.SetTransactionStatus(ctx, "tx-1", core.TxCompleted)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// =============================================================================
// ALERT STORE
// =============================================================================

func TestMemoryAlertStore(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	alert := fraud.Alert{
		ID: "alert-1", CompanyID: "co-1", Type: fraud.AlertVelocityAnomaly,
		Severity: fraud.SeverityMedium, Status: fraud.StatusActive,
		DetectedAt: time.Now(),
	}
	if err := m.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	active, err := m.HasActiveAlert(ctx, "co-1", fraud.AlertVelocityAnomaly)
	if err != nil || !active {
		t.Errorf("expected an active velocity alert, got %v / %v", active, err)
	}
	active, _ = m.HasActiveAlert(ctx, "co-1", fraud.AlertSuspiciousPattern)
	if active {
		t.Error("no pattern alert was saved")
	}

	// Status machine through the store
	updated, err := m.UpdateAlertStatus(ctx, "alert-1", fraud.StatusInvestigating)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != fraud.StatusInvestigating {
		t.Errorf("expected investigating, got %s", updated.Status)
	}
	if _, err := m.UpdateAlertStatus(ctx, "alert-1", fraud.StatusFalsePositive); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	// List filter
	investigating, _ := m.ListAlerts(ctx, fraud.StatusInvestigating)
	if len(investigating) != 1 {
		t.Errorf("expected 1 investigating alert, got %d", len(investigating))
	}
	none, _ := m.ListAlerts(ctx, fraud.StatusResolved)
	if len(none) != 0 {
		t.Errorf("expected no resolved alerts, got %d", len(none))
	}
	all, _ := m.ListAlerts(ctx, "")
	if len(all) != 1 {
		t.Errorf("expected 1 alert in total, got %d", len(all))
	}
}
