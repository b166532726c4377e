/*
alert.go - Fraud alert record and status state machine

PURPOSE:
  An Alert is an aggregate finding over a transaction window, distinct from a
  single transaction's risk score. Alerts are created by aggregator scans,
  mutated only by operator action through the status machine, and never
  auto-deleted.

STATUS MACHINE:
  active -> investigating -> resolved
  active -> false_positive

  No other transitions are valid; resolved and false_positive are terminal.
*/
package fraud

import (
	"context"
	"time"

	"github.com/welfarehub/credits-engine/core"
)

// =============================================================================
// ALERT TYPES AND SEVERITY
// =============================================================================

type AlertType string

const (
	AlertVelocityAnomaly   AlertType = "velocity_anomaly"
	AlertSuspiciousPattern AlertType = "suspicious_pattern"
)

// Severity is ordinal: higher means worse.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// ParseSeverity maps a stored label back to its ordinal.
func ParseSeverity(s string) Severity {
	switch s {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	}
	return SeverityLow
}

// =============================================================================
// ALERT STATUS
// =============================================================================

type AlertStatus string

const (
	StatusActive        AlertStatus = "active"
	StatusInvestigating AlertStatus = "investigating"
	StatusResolved      AlertStatus = "resolved"
	StatusFalsePositive AlertStatus = "false_positive"
)

// validAlertTransition encodes the full machine. Terminal states have no
// outgoing edges.
func validAlertTransition(from, to AlertStatus) bool {
	switch from {
	case StatusActive:
		return to == StatusInvestigating || to == StatusFalsePositive
	case StatusInvestigating:
		return to == StatusResolved
	default:
		return false
	}
}

// =============================================================================
// ALERT
// =============================================================================

type Alert struct {
	ID               core.AlertID
	CompanyID        core.CompanyID
	Type             AlertType
	Severity         Severity
	Description      string
	RiskScore        int
	DetectedAt       time.Time
	Status           AlertStatus
	SuggestedActions []string
}

// Transition applies an operator status change, enforcing the machine.
func (a *Alert) Transition(to AlertStatus) error {
	if !validAlertTransition(a.Status, to) {
		return &core.InvalidTransitionError{From: string(a.Status), To: string(to)}
	}
	a.Status = to
	return nil
}

// =============================================================================
// ALERT STORE - persistence owned by callers
// =============================================================================

// AlertStore persists alerts. The aggregator itself never writes; the scan
// scheduler does, and is responsible for not re-inserting an alert whose
// underlying cause is unchanged (see HasActiveAlert).
type AlertStore interface {
	SaveAlert(ctx context.Context, a Alert) error
	ListAlerts(ctx context.Context, status AlertStatus) ([]Alert, error)
	GetAlert(ctx context.Context, id core.AlertID) (*Alert, error)

	// UpdateAlertStatus loads the alert, applies Transition, and persists.
	// Returns InvalidTransitionError on an illegal change.
	UpdateAlertStatus(ctx context.Context, id core.AlertID, status AlertStatus) (*Alert, error)

	// HasActiveAlert reports whether an active alert of the given type
	// already exists for the company. Scan-run deduplication hook.
	HasActiveAlert(ctx context.Context, companyID core.CompanyID, alertType AlertType) (bool, error)
}
