// Package store provides in-memory implementations of the persistence
// interfaces, for tests and development.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/fraud"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory implements core.Directory, core.Ledger, and fraud.AlertStore with a
// single mutex. The coarse lock gives the same guarantee the SQLite store
// gets from its transactions: balance updates are a single atomic
// read-modify-write keyed by company.
type Memory struct {
	mu           sync.RWMutex
	companies    map[core.CompanyID]core.Company
	employees    map[core.EmployeeID]core.Employee
	transactions map[core.TransactionID]core.Transaction
	alerts       map[core.AlertID]fraud.Alert
	txSeq        int
}

var (
	_ core.Directory   = (*Memory)(nil)
	_ core.Ledger      = (*Memory)(nil)
	_ fraud.AlertStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		companies:    make(map[core.CompanyID]core.Company),
		employees:    make(map[core.EmployeeID]core.Employee),
		transactions: make(map[core.TransactionID]core.Transaction),
		alerts:       make(map[core.AlertID]fraud.Alert),
	}
}

// =============================================================================
// DIRECTORY (reads)
// =============================================================================

func (m *Memory) ListCompanies(_ context.Context) ([]core.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetCompany(_ context.Context, id core.CompanyID) (*core.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.companies[id]
	if !ok {
		return nil, core.ErrCompanyNotFound
	}
	return &c, nil
}

func (m *Memory) ListEmployees(_ context.Context, companyID core.CompanyID) ([]core.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetEmployee(_ context.Context, id core.EmployeeID) (*core.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, core.ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *Memory) TransactionsSince(_ context.Context, companyID core.CompanyID, since time.Time) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range m.transactions {
		if tx.CompanyID == companyID && !tx.CreatedAt.Before(since) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetTransaction(_ context.Context, id core.TransactionID) (*core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, core.ErrTransactionNotFound
	}
	return &tx, nil
}

// =============================================================================
// LEDGER (writes)
// =============================================================================

func (m *Memory) SaveCompany(_ context.Context, c core.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = c
	return nil
}

func (m *Memory) SaveEmployee(_ context.Context, e core.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) Recharge(_ context.Context, companyID core.CompanyID, amount decimal.Decimal) (core.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.companies[companyID]
	if !ok {
		return core.Company{}, core.ErrCompanyNotFound
	}
	c.TotalCredits = c.TotalCredits.Add(core.ClampNonNegative(amount))
	m.companies[companyID] = c
	return c, nil
}

func (m *Memory) Spend(_ context.Context, companyID core.CompanyID, employeeID core.EmployeeID, partnerID core.PartnerID, points int64) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.companies[companyID]; !ok {
		return core.Transaction{}, core.ErrCompanyNotFound
	}
	e, ok := m.employees[employeeID]
	if !ok || e.CompanyID != companyID {
		return core.Transaction{}, core.ErrEmployeeNotFound
	}

	// Merchant spends consume points the employee already holds; the company
	// pool was debited when those points were distributed. The gate here
	// preserves used <= allocated atomically.
	if points <= 0 || points > e.CurrentPoints() {
		available := core.MoneyFromInt(e.CurrentPoints())
		requested := core.MoneyFromInt(points)
		return core.Transaction{}, &core.InsufficientBalanceError{
			CompanyID: companyID,
			Available: available,
			Requested: requested,
			Shortfall: requested.Sub(available),
		}
	}

	e.UsedCredits += points
	m.employees[employeeID] = e

	m.txSeq++
	tx := core.Transaction{
		ID:         core.TransactionID(fmt.Sprintf("tx-%06d", m.txSeq)),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		PartnerID:  partnerID,
		Points:     points,
		Status:     core.TxCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	m.transactions[tx.ID] = tx
	return tx, nil
}

func (m *Memory) ApplyDistribution(_ context.Context, companyID core.CompanyID, grants map[core.EmployeeID]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.companies[companyID]
	if !ok {
		return core.ErrCompanyNotFound
	}

	var total int64
	for id, points := range grants {
		e, ok := m.employees[id]
		if !ok || e.CompanyID != companyID {
			return core.ErrEmployeeNotFound
		}
		if points > 0 {
			total += points
		}
	}

	amount := core.MoneyFromInt(total)
	available := c.AvailableBalance()
	if amount.GreaterThan(available) {
		return &core.InsufficientBalanceError{
			CompanyID: companyID,
			Available: available,
			Requested: amount,
			Shortfall: amount.Sub(available),
		}
	}

	// All-or-nothing: checks done, apply the batch.
	for id, points := range grants {
		if points <= 0 {
			continue
		}
		e := m.employees[id]
		e.AllocatedCredits += points
		m.employees[id] = e
	}
	c.UsedCredits = c.UsedCredits.Add(amount)
	m.companies[companyID] = c
	return nil
}

func (m *Memory) SetTransactionStatus(_ context.Context, id core.TransactionID, status core.TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok {
		return core.ErrTransactionNotFound
	}
	if !core.ValidStatusTransition(tx.Status, status) {
		return &core.InvalidTransitionError{From: string(tx.Status), To: string(status)}
	}
	tx.Status = status
	m.transactions[id] = tx
	return nil
}

// SeedTransaction inserts a transaction directly, bypassing the balance
// gate. Test and demo-scenario helper only.
func (m *Memory) SeedTransaction(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

// =============================================================================
// ALERT STORE
// =============================================================================

func (m *Memory) SaveAlert(_ context.Context, a fraud.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a
	return nil
}

func (m *Memory) ListAlerts(_ context.Context, status fraud.AlertStatus) ([]fraud.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []fraud.Alert
	for _, a := range m.alerts {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out, nil
}

func (m *Memory) GetAlert(_ context.Context, id core.AlertID) (*fraud.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, core.ErrAlertNotFound
	}
	return &a, nil
}

func (m *Memory) UpdateAlertStatus(_ context.Context, id core.AlertID, status fraud.AlertStatus) (*fraud.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, core.ErrAlertNotFound
	}
	if err := a.Transition(status); err != nil {
		return nil, err
	}
	m.alerts[id] = a
	return &a, nil
}

func (m *Memory) HasActiveAlert(_ context.Context, companyID core.CompanyID, alertType fraud.AlertType) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.alerts {
		if a.CompanyID == companyID && a.Type == alertType && a.Status == fraud.StatusActive {
			return true, nil
		}
	}
	return false, nil
}
