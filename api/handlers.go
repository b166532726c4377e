/*
handlers.go - HTTP API handlers for the credits engine

PURPOSE:
  Exposes the fiscal/distribution/fraud engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Companies:
    GET    /api/companies                       List companies
    POST   /api/companies                       Register company
    GET    /api/companies/{id}                  Get company ledger
    GET    /api/companies/{id}/employees        List employees
    GET    /api/companies/{id}/fiscal-limit     Prorated fiscal ceiling
    POST   /api/companies/{id}/recharge/validate  Advisory recharge verdict
    POST   /api/companies/{id}/recharge         Apply recharge (confirm flag)
    POST   /api/companies/{id}/distributions/plan  Pure plan, no writes
    POST   /api/companies/{id}/distributions    Plan + apply (pool draw)
    GET    /api/companies/{id}/transactions/scored Risk-annotated window

  Employees:
    POST   /api/employees                       Register employee

  Transactions:
    POST   /api/transactions                    Merchant spend (hard-gated)
    DELETE /api/transactions/{id}               Cancel (pending only)

  Alerts:
    GET    /api/alerts                          List (optional ?status=)
    POST   /api/alerts/{id}/status              Operator status change

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (fiscal, distribution, fraud, ledger)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, illegal transitions
  - 404: Record not found
  - 409: Insufficient balance (the hard gate)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Periodic fraud scans
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/distribution"
	"github.com/welfarehub/credits-engine/fiscal"
	"github.com/welfarehub/credits-engine/fraud"
	"github.com/welfarehub/credits-engine/metrics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Directory core.Directory
	Ledger    core.Ledger
	Alerts    fraud.AlertStore

	Clock      core.Clock
	Calculator *fiscal.LimitCalculator
	Validator  *fiscal.LedgerValidator
	Planner    *distribution.Planner
	Scorer     *fraud.Scorer
	Aggregator *fraud.Aggregator
	Metrics    *metrics.Collector

	// MetricsEnabled gates the /metrics mount; recording is always on (a
	// no-reader registry costs nothing).
	MetricsEnabled bool
}

// NewHandler creates a handler with default engine components. Callers
// override individual fields (thresholds, clock) before serving.
func NewHandler(directory core.Directory, ledger core.Ledger, alerts fraud.AlertStore) *Handler {
	clock := core.SystemClock{}
	return &Handler{
		Directory:  directory,
		Ledger:     ledger,
		Alerts:     alerts,
		Clock:      clock,
		Calculator: fiscal.NewLimitCalculator(clock),
		Validator:  fiscal.NewLedgerValidator(),
		Planner:    distribution.NewPlanner(),
		Scorer:     fraud.NewScorer(),
		Aggregator:     fraud.NewAggregator(clock),
		Metrics:        metrics.NewCollector(),
		MetricsEnabled: true,
	}
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

// ListCompanies returns all companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Directory.ListCompanies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list companies", err)
		return
	}

	dtos := make([]CompanyDTO, len(companies))
	for i, c := range companies {
		dtos[i] = toCompanyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCompany returns a single company ledger.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id := core.CompanyID(chi.URLParam(r, "id"))

	company, err := h.Directory.GetCompany(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(*company))
}

// CreateCompany registers a company.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Company id is required", nil)
		return
	}

	total, err := parseMoney(req.TotalCredits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total_credits", err)
		return
	}
	used, err := parseMoney(req.UsedCredits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid used_credits", err)
		return
	}

	company, err := core.NewCompany(core.CompanyID(req.ID), total, used)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company record", err)
		return
	}
	if err := h.Ledger.SaveCompany(r.Context(), company); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save company", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyDTO(company))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees of a company.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	employees, err := h.Directory.ListEmployees(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "Employee id and company_id are required", nil)
		return
	}

	// Blank hire date is allowed: fiscal proration treats it as start of year.
	var hireDate time.Time
	if req.HireDate != "" {
		var err error
		hireDate, err = time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	employee, err := core.NewEmployee(core.EmployeeID(req.ID), core.CompanyID(req.CompanyID),
		hireDate, active, req.AllocatedCredits, req.UsedCredits)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee record", err)
		return
	}
	if err := h.Ledger.SaveEmployee(r.Context(), employee); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(employee))
}

// =============================================================================
// FISCAL HANDLERS
// =============================================================================

// GetFiscalLimit returns the prorated fiscal ceiling for a company.
// GET /api/companies/{id}/fiscal-limit?year=2025
func (h *Handler) GetFiscalLimit(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	year := 0
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	if _, err := h.Directory.GetCompany(r.Context(), companyID); err != nil {
		writeDomainError(w, "Failed to get company", err)
		return
	}
	employees, err := h.Directory.ListEmployees(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	limit := h.Calculator.Compute(employees, year)
	writeJSON(w, http.StatusOK, toFiscalLimitDTO(companyID, limit))
}

// ValidateRecharge returns the advisory verdict without writing anything.
func (h *Handler) ValidateRecharge(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	var req RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	verdict, _, err := h.rechargeVerdict(r, companyID, amount)
	if err != nil {
		writeDomainError(w, "Failed to validate recharge", err)
		return
	}
	h.Metrics.RecordRechargeVerdict(verdict.Exceeds)
	writeJSON(w, http.StatusOK, toRechargeVerdictDTO(verdict))
}

// Recharge validates and applies a credit load. A verdict that exceeds the
// ceiling requires the confirm flag: the ceiling never blocks, but the
// employer must explicitly accept the tax exposure.
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	var req RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	verdict, _, err := h.rechargeVerdict(r, companyID, amount)
	if err != nil {
		writeDomainError(w, "Failed to validate recharge", err)
		return
	}
	h.Metrics.RecordRechargeVerdict(verdict.Exceeds)

	if verdict.Exceeds && !req.Confirm {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Recharge exceeds the fiscal ceiling; repeat with confirm=true to accept the tax exposure",
			Code:    "CEILING_EXCEEDED",
			Details: toRechargeVerdictDTO(verdict),
		})
		return
	}

	company, err := h.Ledger.Recharge(r.Context(), companyID, amount)
	if err != nil {
		writeDomainError(w, "Failed to apply recharge", err)
		return
	}
	writeJSON(w, http.StatusOK, RechargeResponse{
		Verdict: toRechargeVerdictDTO(verdict),
		Company: toCompanyDTO(company),
	})
}

func (h *Handler) rechargeVerdict(r *http.Request, companyID core.CompanyID, amount decimal.Decimal) (fiscal.RechargeVerdict, *core.Company, error) {
	company, err := h.Directory.GetCompany(r.Context(), companyID)
	if err != nil {
		return fiscal.RechargeVerdict{}, nil, err
	}
	employees, err := h.Directory.ListEmployees(r.Context(), companyID)
	if err != nil {
		return fiscal.RechargeVerdict{}, nil, err
	}

	limit := h.Calculator.Compute(employees, 0)
	return h.Validator.ValidateRecharge(*company, amount, limit), company, nil
}

// =============================================================================
// DISTRIBUTION HANDLERS
// =============================================================================

// PlanDistribution builds a plan without writing anything.
func (h *Handler) PlanDistribution(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	plan, err := h.buildPlan(w, r, companyID)
	if err != nil {
		return // response already written
	}
	h.Metrics.RecordDistributionPlanned(string(plan.Policy))
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// ApplyDistribution builds a plan and applies it as the pool draw: the
// company is debited, the employees credited, atomically. The store re-checks
// the balance inside its critical section.
func (h *Handler) ApplyDistribution(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	plan, err := h.buildPlan(w, r, companyID)
	if err != nil {
		return // response already written
	}
	h.Metrics.RecordDistributionPlanned(string(plan.Policy))

	if err := h.Ledger.ApplyDistribution(r.Context(), companyID, plan.Grants()); err != nil {
		if errors.Is(err, core.ErrInsufficientBalance) {
			h.Metrics.RecordSpendRejected()
		}
		writeDomainError(w, "Failed to apply distribution", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// buildPlan parses the request and builds a plan, writing the error response
// itself on failure.
func (h *Handler) buildPlan(w http.ResponseWriter, r *http.Request, companyID core.CompanyID) (distribution.Plan, error) {
	var req DistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return distribution.Plan{}, err
	}

	policy, err := distribution.ParsePolicy(req.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy (use manual, equal, or proportional)", err)
		return distribution.Plan{}, err
	}

	company, err := h.Directory.GetCompany(r.Context(), companyID)
	if err != nil {
		writeDomainError(w, "Failed to get company", err)
		return distribution.Plan{}, err
	}
	all, err := h.Directory.ListEmployees(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return distribution.Plan{}, err
	}
	var employees []core.Employee
	for _, e := range all {
		if e.Active {
			employees = append(employees, e)
		}
	}

	pool := req.Pool
	if pool <= 0 {
		pool = company.AvailableBalance().IntPart()
	}

	manual := make(map[core.EmployeeID]int64, len(req.Manual))
	for id, points := range req.Manual {
		manual[core.EmployeeID(id)] = points
	}

	plan, err := h.Planner.BuildPlan(pool, employees, policy, manual)
	if err != nil {
		writeDomainError(w, "Failed to build plan", err)
		return distribution.Plan{}, err
	}
	return plan, nil
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// Spend records a merchant transaction. The employee's point balance is the
// hard gate; a shortfall rejects with 409 and the exact shortfall.
func (h *Handler) Spend(w http.ResponseWriter, r *http.Request) {
	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "company_id and employee_id are required", nil)
		return
	}

	tx, err := h.Ledger.Spend(r.Context(),
		core.CompanyID(req.CompanyID), core.EmployeeID(req.EmployeeID),
		core.PartnerID(req.PartnerID), req.Points)
	if err != nil {
		if errors.Is(err, core.ErrInsufficientBalance) {
			h.Metrics.RecordSpendRejected()
		}
		writeDomainError(w, "Failed to record spend", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// CancelTransaction cancels a pending transaction. Completed transactions
// reject with an invalid transition.
func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	id := core.TransactionID(chi.URLParam(r, "id"))

	if err := h.Ledger.SetTransactionStatus(r.Context(), id, core.TxCancelled); err != nil {
		writeDomainError(w, "Failed to cancel transaction", err)
		return
	}
	tx, err := h.Directory.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// ScoredTransactions returns the company's recent window with risk
// annotations derived at read time. Nothing is persisted.
// GET /api/companies/{id}/transactions/scored?hours=24
func (h *Handler) ScoredTransactions(w http.ResponseWriter, r *http.Request) {
	companyID := core.CompanyID(chi.URLParam(r, "id"))

	hours := 24
	if hstr := r.URL.Query().Get("hours"); hstr != "" {
		parsed, err := strconv.Atoi(hstr)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid hours", err)
			return
		}
		hours = parsed
	}

	if _, err := h.Directory.GetCompany(r.Context(), companyID); err != nil {
		writeDomainError(w, "Failed to get company", err)
		return
	}

	since := h.Clock.Now().Add(-time.Duration(hours) * time.Hour)
	window, err := h.Directory.TransactionsSince(r.Context(), companyID, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}

	scored := h.Scorer.ScoreWindow(window)
	dtos := make([]ScoredTransactionDTO, len(scored))
	for i, tx := range scored {
		h.Metrics.RecordRiskScore(tx.Score)
		dtos[i] = toScoredTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlerts returns fraud alerts, optionally filtered by status.
// GET /api/alerts?status=active
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := fraud.AlertStatus(r.URL.Query().Get("status"))

	alerts, err := h.Alerts.ListAlerts(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateAlertStatus applies an operator status change through the machine.
func (h *Handler) UpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	id := core.AlertID(chi.URLParam(r, "id"))

	var req AlertStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	alert, err := h.Alerts.UpdateAlertStatus(r.Context(), id, fraud.AlertStatus(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to update alert status", err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertDTO(*alert))
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses: missing records to
// 404, the balance gate to 409, other client faults to 400, the rest to 500.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, core.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, message, err)
	case core.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
