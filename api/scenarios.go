/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the store with recognizable demo data so the engine can be explored
  without a production dataset. Each scenario is a self-contained world:
  a company, its employees, and a transaction history shaped to trigger (or
  not trigger) a specific engine behavior.

SCENARIOS:
  baseline:        Quiet company. Full-year and mid-year hires, moderate
                   spending, nothing anomalous.
  ceiling-pressure: Company recharged close to its fiscal ceiling, so the
                   next recharge verdict reports an excess.
  velocity-burst:  A 24h window with transaction volume far over the
                   velocity baseline; the next scan raises an alert.
  night-spender:   One employee with high-value off-hours weekend activity,
                   scoring high enough for a suspicious-pattern alert.

SEEDING:
  Company and employee records go through the normal Ledger writes.
  Historical transactions need back-dated timestamps, which Spend cannot
  produce, so they go through the TransactionSeeder hook both stores
  implement.

SEE ALSO:
  - handlers.go: scenario endpoints
  - core/store/memory.go, store/sqlite/sqlite.go: SeedTransaction
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/welfarehub/credits-engine/core"
)

// TransactionSeeder inserts back-dated transactions, bypassing the balance
// gate. Demo and test hook; both store implementations provide it.
type TransactionSeeder interface {
	SeedTransaction(ctx context.Context, tx core.Transaction) error
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "baseline",
		Name:        "Baseline",
		Description: "Quiet company with mixed hire dates and moderate spending",
	},
	{
		ID:          "ceiling-pressure",
		Name:        "Ceiling pressure",
		Description: "Company loaded close to its fiscal ceiling; the next recharge verdict reports an excess",
	},
	{
		ID:          "velocity-burst",
		Name:        "Velocity burst",
		Description: "Transaction volume far over the velocity baseline in the last 24 hours",
	},
	{
		ID:          "night-spender",
		Name:        "Night spender",
		Description: "High-value off-hours weekend activity from a single employee",
	},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the selected scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	seeder, ok := h.Ledger.(TransactionSeeder)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Store does not support scenario seeding", nil)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch req.ID {
	case "baseline":
		err = h.loadBaseline(r.Context(), seeder)
	case "ceiling-pressure":
		err = h.loadCeilingPressure(r.Context())
	case "velocity-burst":
		err = h.loadVelocityBurst(r.Context(), seeder)
	case "night-spender":
		err = h.loadNightSpender(r.Context(), seeder)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ID})
}

func (h *Handler) loadBaseline(ctx context.Context, seeder TransactionSeeder) error {
	now := h.Clock.Now()
	year := now.Year()

	company := core.Company{ID: "acme", TotalCredits: core.MustMoney("700.00"), UsedCredits: core.MustMoney("400.00")}
	if err := h.Ledger.SaveCompany(ctx, company); err != nil {
		return err
	}

	employees := []core.Employee{
		{ID: "acme-alice", CompanyID: "acme", HireDate: core.Date(year-3, time.March, 1), Active: true, AllocatedCredits: 200, UsedCredits: 80},
		{ID: "acme-bruno", CompanyID: "acme", HireDate: core.Date(year, time.September, 10), Active: true, AllocatedCredits: 120, UsedCredits: 20},
		{ID: "acme-carla", CompanyID: "acme", HireDate: core.Date(year-1, time.June, 15), Active: false, AllocatedCredits: 80, UsedCredits: 80},
	}
	for _, e := range employees {
		if err := h.Ledger.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	// A few unremarkable daytime transactions over the past week.
	for i := 0; i < 4; i++ {
		tx := core.Transaction{
			ID:         core.TransactionID(fmt.Sprintf("acme-tx-%02d", i+1)),
			CompanyID:  "acme",
			EmployeeID: "acme-alice",
			PartnerID:  "partner-grocery",
			Points:     25,
			Status:     core.TxCompleted,
			CreatedAt:  now.Add(-time.Duration(i+1) * 36 * time.Hour),
		}
		if err := seeder.SeedTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadCeilingPressure(ctx context.Context) error {
	year := h.Clock.Now().Year()

	// Two full-year employees: ceiling 2 * 258.23 = 516.46. Loaded at 500,
	// so any recharge above 16.46 reports an excess.
	company := core.Company{ID: "pressure", TotalCredits: core.MustMoney("500.00"), UsedCredits: core.MustMoney("100.00")}
	if err := h.Ledger.SaveCompany(ctx, company); err != nil {
		return err
	}
	employees := []core.Employee{
		{ID: "pressure-dora", CompanyID: "pressure", HireDate: core.Date(year-2, time.January, 10), Active: true, AllocatedCredits: 60, UsedCredits: 10},
		{ID: "pressure-enzo", CompanyID: "pressure", HireDate: core.Date(year-5, time.November, 2), Active: true, AllocatedCredits: 40, UsedCredits: 0},
	}
	for _, e := range employees {
		if err := h.Ledger.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadVelocityBurst(ctx context.Context, seeder TransactionSeeder) error {
	now := h.Clock.Now()
	year := now.Year()

	company := core.Company{ID: "burstco", TotalCredits: core.MustMoney("2000.00"), UsedCredits: core.MustMoney("900.00")}
	if err := h.Ledger.SaveCompany(ctx, company); err != nil {
		return err
	}
	employees := []core.Employee{
		{ID: "burstco-febe", CompanyID: "burstco", HireDate: core.Date(year-1, time.May, 5), Active: true, AllocatedCredits: 500, UsedCredits: 300},
		{ID: "burstco-gino", CompanyID: "burstco", HireDate: core.Date(year-1, time.May, 5), Active: true, AllocatedCredits: 400, UsedCredits: 250},
	}
	for _, e := range employees {
		if err := h.Ledger.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}

	// 18 transactions in the last 12 hours: 80% over a baseline of 10.
	for i := 0; i < 18; i++ {
		employee := employees[i%len(employees)]
		tx := core.Transaction{
			ID:         core.TransactionID(fmt.Sprintf("burstco-tx-%02d", i+1)),
			CompanyID:  "burstco",
			EmployeeID: employee.ID,
			PartnerID:  "partner-electronics",
			Points:     30,
			Status:     core.TxCompleted,
			CreatedAt:  now.Add(-time.Duration(i*40) * time.Minute),
		}
		if err := seeder.SeedTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadNightSpender(ctx context.Context, seeder TransactionSeeder) error {
	now := h.Clock.Now()
	year := now.Year()

	company := core.Company{ID: "nightco", TotalCredits: core.MustMoney("3000.00"), UsedCredits: core.MustMoney("2500.00")}
	if err := h.Ledger.SaveCompany(ctx, company); err != nil {
		return err
	}
	employee := core.Employee{ID: "nightco-hana", CompanyID: "nightco", HireDate: core.Date(year-2, time.February, 20), Active: true, AllocatedCredits: 2500, UsedCredits: 2100}
	if err := h.Ledger.SaveEmployee(ctx, employee); err != nil {
		return err
	}

	// Anchor the cluster on the most recent Saturday 03:00: high value,
	// off-hours, weekend, and frequency all fire at once.
	anchor := now
	for anchor.Weekday() != time.Saturday {
		anchor = anchor.Add(-24 * time.Hour)
	}
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 3, 0, 0, 0, anchor.Location())

	for i := 0; i < 7; i++ {
		tx := core.Transaction{
			ID:         core.TransactionID(fmt.Sprintf("nightco-tx-%02d", i+1)),
			CompanyID:  "nightco",
			EmployeeID: "nightco-hana",
			PartnerID:  "partner-jewelry",
			Points:     600,
			Status:     core.TxCompleted,
			CreatedAt:  anchor.Add(time.Duration(i*7) * time.Minute),
		}
		if err := seeder.SeedTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}
