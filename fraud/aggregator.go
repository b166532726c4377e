/*
aggregator.go - Window-level fraud alerts

PURPOSE:
  Scans a scored transaction window for one company and emits aggregate
  alerts. Rules are independently evaluable and additive, never mutually
  exclusive:

  VELOCITY ANOMALY (medium):
    Transaction count over the reporting window exceeds the baseline. The
    description carries the computed percentage over baseline.

  SUSPICIOUS PATTERN (high):
    One or more transactions scored above the high-risk threshold.

  The aggregator is stateless and re-entrant: running two scans concurrently
  over overlapping windows cannot corrupt alert state because no alert state
  lives here. It also does not deduplicate across runs - callers check
  AlertStore.HasActiveAlert before inserting (see api/scheduler.go).
*/
package fraud

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/welfarehub/credits-engine/core"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator emits alerts over a scored window. Thresholds are defaults to
// be tuned via config, not statutory values.
type Aggregator struct {
	Clock core.Clock

	VelocityBaseline int           // tx count per window above this raises an alert
	VelocityWindow   time.Duration // reporting window
	HighRiskScore    int           // individual scores above this feed the pattern alert
}

func NewAggregator(clock core.Clock) *Aggregator {
	return &Aggregator{
		Clock:            clock,
		VelocityBaseline: 10,
		VelocityWindow:   24 * time.Hour,
		HighRiskScore:    70,
	}
}

// Aggregate scans the scored window for one company and returns zero or more
// alerts, all in status active.
func (a *Aggregator) Aggregate(companyID core.CompanyID, scored []ScoredTransaction) []Alert {
	var alerts []Alert
	now := a.Clock.Now()

	if alert, ok := a.velocityAlert(companyID, scored, now); ok {
		alerts = append(alerts, alert)
	}
	if alert, ok := a.suspiciousPatternAlert(companyID, scored, now); ok {
		alerts = append(alerts, alert)
	}
	return alerts
}

func (a *Aggregator) velocityAlert(companyID core.CompanyID, scored []ScoredTransaction, now time.Time) (Alert, bool) {
	cutoff := now.Add(-a.VelocityWindow)
	recent := 0
	for _, tx := range scored {
		if !tx.CreatedAt.Before(cutoff) {
			recent++
		}
	}
	if recent <= a.VelocityBaseline {
		return Alert{}, false
	}

	pctOver := (recent - a.VelocityBaseline) * 100 / a.VelocityBaseline
	score := 50 + pctOver/10
	if score > MaxScore {
		score = MaxScore
	}

	return Alert{
		ID:        newAlertID(),
		CompanyID: companyID,
		Type:      AlertVelocityAnomaly,
		Severity:  SeverityMedium,
		Description: fmt.Sprintf("%d transactions in the last %s, %d%% over the baseline of %d",
			recent, a.VelocityWindow, pctOver, a.VelocityBaseline),
		RiskScore:  score,
		DetectedAt: now,
		Status:     StatusActive,
		SuggestedActions: []string{
			"check temporal patterns",
			"check IP addresses",
			"review user behavior",
		},
	}, true
}

func (a *Aggregator) suspiciousPatternAlert(companyID core.CompanyID, scored []ScoredTransaction, now time.Time) (Alert, bool) {
	count := 0
	maxScore := 0
	for _, tx := range scored {
		if tx.Score > a.HighRiskScore {
			count++
			if tx.Score > maxScore {
				maxScore = tx.Score
			}
		}
	}
	if count == 0 {
		return Alert{}, false
	}

	return Alert{
		ID:        newAlertID(),
		CompanyID: companyID,
		Type:      AlertSuspiciousPattern,
		Severity:  SeverityHigh,
		Description: fmt.Sprintf("%d transactions scored above %d in the reporting window",
			count, a.HighRiskScore),
		RiskScore:  maxScore,
		DetectedAt: now,
		Status:     StatusActive,
		SuggestedActions: []string{
			"block high-risk transactions",
			"contact involved employees",
			"review associated partners",
		},
	}, true
}

func newAlertID() core.AlertID {
	return core.AlertID("alert-" + uuid.NewString())
}
