/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Decimal amounts travel as strings ("258.23"), never floats. Clients that
  want arithmetic parse them with a decimal library of their own; JSON
  numbers would silently lose cents.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/distribution"
	"github.com/welfarehub/credits-engine/fiscal"
	"github.com/welfarehub/credits-engine/fraud"
)

// =============================================================================
// COMPANY / EMPLOYEE TYPES
// =============================================================================

// CompanyDTO represents a company ledger in API responses.
type CompanyDTO struct {
	ID               string `json:"id"`
	TotalCredits     string `json:"total_credits"`
	UsedCredits      string `json:"used_credits"`
	AvailableBalance string `json:"available_balance"`
}

// CreateCompanyRequest is the request to register a company.
type CreateCompanyRequest struct {
	ID           string `json:"id"`
	TotalCredits string `json:"total_credits"`
	UsedCredits  string `json:"used_credits"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	HireDate         string `json:"hire_date,omitempty"`
	Active           bool   `json:"active"`
	AllocatedCredits int64  `json:"allocated_credits"`
	UsedCredits      int64  `json:"used_credits"`
	CurrentPoints    int64  `json:"current_points"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	HireDate         string `json:"hire_date"` // YYYY-MM-DD, empty = unknown
	Active           *bool  `json:"active,omitempty"`
	AllocatedCredits int64  `json:"allocated_credits"`
	UsedCredits      int64  `json:"used_credits"`
}

// =============================================================================
// FISCAL TYPES
// =============================================================================

// EmployeeLimitDTO is one employee's prorated ceiling.
type EmployeeLimitDTO struct {
	EmployeeID      string `json:"employee_id"`
	MonthsRemaining int    `json:"months_remaining"`
	PersonalLimit   string `json:"personal_limit"`
}

// FiscalLimitDTO is the company-wide fiscal projection.
type FiscalLimitDTO struct {
	CompanyID  string             `json:"company_id"`
	Year       int                `json:"year"`
	TotalLimit string             `json:"total_limit"`
	Employees  []EmployeeLimitDTO `json:"employees"`
}

// RechargeRequest is the request to validate or apply a recharge.
type RechargeRequest struct {
	Amount string `json:"amount"`
	// Confirm acknowledges an exceeds-ceiling verdict. Required to apply a
	// recharge that lands above the fiscal limit; ignored otherwise.
	Confirm bool `json:"confirm,omitempty"`
}

// RechargeVerdictDTO is the advisory recharge outcome.
type RechargeVerdictDTO struct {
	ProjectedTotal     string `json:"projected_total"`
	Exceeds            bool   `json:"exceeds"`
	ExcessAmount       string `json:"excess_amount"`
	EstimatedExcessTax string `json:"estimated_excess_tax"`
}

// RechargeResponse is the outcome of an applied recharge.
type RechargeResponse struct {
	Verdict RechargeVerdictDTO `json:"verdict"`
	Company CompanyDTO         `json:"company"`
}

// =============================================================================
// DISTRIBUTION TYPES
// =============================================================================

// DistributionRequest plans (and optionally applies) a pool distribution.
type DistributionRequest struct {
	// Pool in whole credits. Zero or absent means the floor of the company's
	// available balance.
	Pool   int64            `json:"pool,omitempty"`
	Policy string           `json:"policy"`
	Manual map[string]int64 `json:"manual,omitempty"`
}

// AllocationDTO is one employee's slice of a distribution plan.
type AllocationDTO struct {
	EmployeeID     string `json:"employee_id"`
	CurrentPoints  int64  `json:"current_points"`
	NewPoints      int64  `json:"new_points"`
	ResultingTotal int64  `json:"resulting_total"`
}

// PlanDTO is a computed distribution plan.
type PlanDTO struct {
	Policy      string          `json:"policy"`
	Pool        int64           `json:"pool"`
	Allocated   int64           `json:"allocated"`
	Residual    int64           `json:"residual"`
	Allocations []AllocationDTO `json:"allocations"`
}

// =============================================================================
// TRANSACTION / FRAUD TYPES
// =============================================================================

// SpendRequest records a merchant transaction.
type SpendRequest struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	PartnerID  string `json:"partner_id"`
	Points     int64  `json:"points"`
}

// TransactionDTO represents a merchant transaction.
type TransactionDTO struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	PartnerID  string `json:"partner_id,omitempty"`
	Points     int64  `json:"points"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ScoredTransactionDTO annotates a transaction with its derived risk.
type ScoredTransactionDTO struct {
	TransactionDTO
	RiskScore int      `json:"risk_score"`
	Flags     []string `json:"flags"`
}

// AlertDTO represents a fraud alert.
type AlertDTO struct {
	ID               string   `json:"id"`
	CompanyID        string   `json:"company_id"`
	Type             string   `json:"type"`
	Severity         string   `json:"severity"`
	Description      string   `json:"description"`
	RiskScore        int      `json:"risk_score"`
	DetectedAt       string   `json:"detected_at"`
	Status           string   `json:"status"`
	SuggestedActions []string `json:"suggested_actions"`
}

// AlertStatusRequest applies an operator status change.
type AlertStatusRequest struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCompanyDTO(c core.Company) CompanyDTO {
	return CompanyDTO{
		ID:               string(c.ID),
		TotalCredits:     c.TotalCredits.String(),
		UsedCredits:      c.UsedCredits.String(),
		AvailableBalance: c.AvailableBalance().String(),
	}
}

func toEmployeeDTO(e core.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:               string(e.ID),
		CompanyID:        string(e.CompanyID),
		Active:           e.Active,
		AllocatedCredits: e.AllocatedCredits,
		UsedCredits:      e.UsedCredits,
		CurrentPoints:    e.CurrentPoints(),
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.Format("2006-01-02")
	}
	return dto
}

func toFiscalLimitDTO(companyID core.CompanyID, limit fiscal.Limit) FiscalLimitDTO {
	dto := FiscalLimitDTO{
		CompanyID:  string(companyID),
		Year:       limit.Year,
		TotalLimit: limit.TotalLimit.String(),
		Employees:  make([]EmployeeLimitDTO, len(limit.Employees)),
	}
	for i, e := range limit.Employees {
		dto.Employees[i] = EmployeeLimitDTO{
			EmployeeID:      string(e.EmployeeID),
			MonthsRemaining: e.MonthsRemaining,
			PersonalLimit:   e.PersonalLimit.String(),
		}
	}
	return dto
}

func toRechargeVerdictDTO(v fiscal.RechargeVerdict) RechargeVerdictDTO {
	return RechargeVerdictDTO{
		ProjectedTotal:     v.ProjectedTotal.String(),
		Exceeds:            v.Exceeds,
		ExcessAmount:       v.ExcessAmount.String(),
		EstimatedExcessTax: v.EstimatedExcessTax.String(),
	}
}

func toPlanDTO(plan distribution.Plan) PlanDTO {
	dto := PlanDTO{
		Policy:      string(plan.Policy),
		Pool:        plan.Pool,
		Allocated:   plan.Allocated,
		Residual:    plan.Residual,
		Allocations: make([]AllocationDTO, len(plan.Allocations)),
	}
	for i, a := range plan.Allocations {
		dto.Allocations[i] = AllocationDTO{
			EmployeeID:     string(a.EmployeeID),
			CurrentPoints:  a.CurrentPoints,
			NewPoints:      a.NewPoints,
			ResultingTotal: a.ResultingTotal,
		}
	}
	return dto
}

func toTransactionDTO(tx core.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         string(tx.ID),
		CompanyID:  string(tx.CompanyID),
		EmployeeID: string(tx.EmployeeID),
		PartnerID:  string(tx.PartnerID),
		Points:     tx.Points,
		Status:     string(tx.Status),
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

func toScoredTransactionDTO(tx fraud.ScoredTransaction) ScoredTransactionDTO {
	flags := make([]string, len(tx.Flags))
	for i, f := range tx.Flags {
		flags[i] = string(f)
	}
	return ScoredTransactionDTO{
		TransactionDTO: toTransactionDTO(tx.Transaction),
		RiskScore:      tx.Score,
		Flags:          flags,
	}
}

func toAlertDTO(a fraud.Alert) AlertDTO {
	return AlertDTO{
		ID:               string(a.ID),
		CompanyID:        string(a.CompanyID),
		Type:             string(a.Type),
		Severity:         a.Severity.String(),
		Description:      a.Description,
		RiskScore:        a.RiskScore,
		DetectedAt:       a.DetectedAt.Format(time.RFC3339),
		Status:           string(a.Status),
		SuggestedActions: a.SuggestedActions,
	}
}
