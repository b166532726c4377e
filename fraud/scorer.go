/*
Package fraud scores transactions for risk and raises aggregate alerts.

PURPOSE:
  Two layers, both pure:

  Scorer     - a bounded [0,100] risk score plus categorical flags for a
               single transaction given its historical neighborhood.
  Aggregator - scans a scored window and emits company-level alerts
               (velocity anomaly, suspicious-pattern cluster).

  Scoring is an explainable rule-based heuristic, deliberately NOT a trained
  model: an operator must be able to see exactly which weighted rule fired.
  Auditability is a functional requirement here, not an implementation
  detail.

SCORE vs FLAGS:
  Flags are derived independently from the same thresholds, never from the
  score. A transaction can carry flags at a moderate score; flags are
  categorical evidence, the score is a prioritization heuristic. The two are
  never conflated.

THRESHOLDS:
  All thresholds are defaults to be tuned via config, not certified
  statutory values.

SEE ALSO:
  - aggregator.go: window-level alerts
  - alert.go: Alert record and status machine
*/
package fraud

import (
	"time"

	"github.com/welfarehub/credits-engine/core"
)

// =============================================================================
// FLAGS
// =============================================================================

type Flag string

const (
	// FlagHighRisk marks behavioral anomalies: employee frequency or burst
	// clustering over threshold.
	FlagHighRisk Flag = "HIGH_RISK"
	// FlagHighValue marks points above the high-value threshold.
	FlagHighValue Flag = "HIGH_VALUE"
	// FlagOffHours marks transactions outside normal hours.
	FlagOffHours Flag = "OFF_HOURS"
	// FlagWeekend marks Saturday/Sunday transactions.
	FlagWeekend Flag = "WEEKEND"
)

// Rule weights. Additive; the final score caps at 100.
const (
	weightHighValue     = 30
	weightElevatedValue = 15
	weightOffHours      = 20
	weightFrequency     = 25
	weightBurst         = 20
	weightWeekend       = 10

	// MaxScore bounds every result.
	MaxScore = 100
)

// =============================================================================
// SCORER
// =============================================================================

// Scorer computes risk scores. Fields are thresholds with built-in defaults;
// construct via NewScorer and override from config as needed. Stateless
// beyond configuration; safe for concurrent use.
type Scorer struct {
	HighValuePoints     int64         // points above this: +30, HIGH_VALUE
	ElevatedValuePoints int64         // points above this (up to high): +15
	OffHoursStart       int           // local hour strictly after this is off-hours (evening)
	OffHoursEnd         int           // local hour strictly before this is off-hours (morning)
	FrequencyThreshold  int           // same-employee count above this: +25
	BurstThreshold      int           // neighbors within the burst window above this: +20
	BurstWindow         time.Duration // half-width of the clustering window
}

func NewScorer() *Scorer {
	return &Scorer{
		HighValuePoints:     500,
		ElevatedValuePoints: 200,
		OffHoursStart:       22,
		OffHoursEnd:         6,
		FrequencyThreshold:  5,
		BurstThreshold:      3,
		BurstWindow:         time.Hour,
	}
}

// ScoreResult is the derived, never-persisted risk annotation.
type ScoreResult struct {
	Score int
	Flags []Flag
}

// HasFlag reports whether the result carries the given flag.
func (r ScoreResult) HasFlag(f Flag) bool {
	for _, flag := range r.Flags {
		if flag == f {
			return true
		}
	}
	return false
}

// Score computes the risk of tx given the other transactions of the same
// company in the lookback window. The history may include tx itself; it is
// excluded from neighborhood counts by ID.
func (s *Scorer) Score(tx core.Transaction, history []core.Transaction) ScoreResult {
	var raw int
	var flags []Flag

	// Value signals.
	switch {
	case tx.Points > s.HighValuePoints:
		raw += weightHighValue
		flags = append(flags, FlagHighValue)
	case tx.Points > s.ElevatedValuePoints:
		raw += weightElevatedValue
	}

	// Time-of-day signal.
	if hour := tx.CreatedAt.Hour(); hour < s.OffHoursEnd || hour > s.OffHoursStart {
		raw += weightOffHours
		flags = append(flags, FlagOffHours)
	}

	// Neighborhood signals.
	sameEmployee := 0
	burstNeighbors := 0
	for _, other := range history {
		if other.ID == tx.ID {
			continue
		}
		if other.EmployeeID == tx.EmployeeID {
			sameEmployee++
		}
		if within(other.CreatedAt, tx.CreatedAt, s.BurstWindow) {
			burstNeighbors++
		}
	}
	behavioral := false
	if sameEmployee > s.FrequencyThreshold {
		raw += weightFrequency
		behavioral = true
	}
	if burstNeighbors > s.BurstThreshold {
		raw += weightBurst
		behavioral = true
	}
	if behavioral {
		flags = append(flags, FlagHighRisk)
	}

	// Weekend signal.
	if wd := tx.CreatedAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		raw += weightWeekend
		flags = append(flags, FlagWeekend)
	}

	if raw > MaxScore {
		raw = MaxScore
	}
	return ScoreResult{Score: raw, Flags: flags}
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// =============================================================================
// SCORED TRANSACTION
// =============================================================================

// ScoredTransaction pairs a transaction with its derived risk annotation.
type ScoredTransaction struct {
	core.Transaction
	Score int
	Flags []Flag
}

// ScoreWindow scores each transaction of a window against the rest of the
// window. Cancelled transactions are still scored: a cancelled anomaly is
// evidence too.
func (s *Scorer) ScoreWindow(txs []core.Transaction) []ScoredTransaction {
	scored := make([]ScoredTransaction, len(txs))
	for i, tx := range txs {
		result := s.Score(tx, txs)
		scored[i] = ScoredTransaction{Transaction: tx, Score: result.Score, Flags: result.Flags}
	}
	return scored
}
