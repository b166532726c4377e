package fraud_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/fraud"
)

func scoredTx(id string, score int, at time.Time) fraud.ScoredTransaction {
	return fraud.ScoredTransaction{
		Transaction: tx(id, "emp-1", 50, at),
		Score:       score,
	}
}

func fixedAggregator() (*fraud.Aggregator, time.Time) {
	clock := core.NewFixedClock(2025, time.June, 10)
	return fraud.NewAggregator(clock), clock.Now()
}

// =============================================================================
// VELOCITY ANOMALY
// =============================================================================

func TestAggregate_VelocityAnomaly(t *testing.T) {
	// GIVEN: 18 transactions in the last 24h against a baseline of 10
	// THEN: One medium velocity alert, 80% over baseline, score 50 + 80/10 = 58

	agg, now := fixedAggregator()
	var window []fraud.ScoredTransaction
	for i := 0; i < 18; i++ {
		window = append(window, scoredTx(fmt.Sprintf("t%d", i), 0, now.Add(-time.Duration(i)*30*time.Minute)))
	}

	alerts := agg.Aggregate("co-1", window)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, fraud.AlertVelocityAnomaly, alert.Type)
	assert.Equal(t, fraud.SeverityMedium, alert.Severity)
	assert.Equal(t, fraud.StatusActive, alert.Status)
	assert.Equal(t, 58, alert.RiskScore)
	assert.True(t, strings.Contains(alert.Description, "80%"), "description should carry the percentage: %s", alert.Description)
	assert.NotEmpty(t, alert.SuggestedActions)
}

func TestAggregate_VelocityAtBaselineIsQuiet(t *testing.T) {
	// GIVEN: Exactly the baseline count (10) in the window
	// THEN: Strictly-greater comparison: no alert

	agg, now := fixedAggregator()
	var window []fraud.ScoredTransaction
	for i := 0; i < 10; i++ {
		window = append(window, scoredTx(fmt.Sprintf("t%d", i), 0, now.Add(-time.Duration(i)*time.Hour)))
	}

	assert.Empty(t, agg.Aggregate("co-1", window))
}

func TestAggregate_VelocityIgnoresOldTransactions(t *testing.T) {
	// GIVEN: A pile of transactions older than the 24h window
	// THEN: They do not count toward velocity

	agg, now := fixedAggregator()
	var window []fraud.ScoredTransaction
	for i := 0; i < 30; i++ {
		window = append(window, scoredTx(fmt.Sprintf("t%d", i), 0, now.Add(-48*time.Hour)))
	}

	assert.Empty(t, agg.Aggregate("co-1", window))
}

func TestAggregate_VelocityScoreCaps(t *testing.T) {
	// GIVEN: A tuned-down baseline of 1 with 12 recent transactions
	// THEN: 1100% over baseline would score 160; capped at 100

	agg, now := fixedAggregator()
	agg.VelocityBaseline = 1
	var window []fraud.ScoredTransaction
	for i := 0; i < 12; i++ {
		window = append(window, scoredTx(fmt.Sprintf("t%d", i), 0, now.Add(-time.Duration(i)*time.Minute)))
	}

	alerts := agg.Aggregate("co-1", window)
	require.Len(t, alerts, 1)
	assert.Equal(t, fraud.MaxScore, alerts[0].RiskScore)
}

// =============================================================================
// SUSPICIOUS PATTERN
// =============================================================================

func TestAggregate_SuspiciousPattern(t *testing.T) {
	// GIVEN: Two transactions scored above the high-risk threshold (70)
	// THEN: One high-severity pattern alert carrying the max individual score

	agg, now := fixedAggregator()
	window := []fraud.ScoredTransaction{
		scoredTx("ok", 40, now.Add(-time.Hour)),
		scoredTx("bad", 85, now.Add(-2*time.Hour)),
		scoredTx("worse", 95, now.Add(-3*time.Hour)),
	}

	alerts := agg.Aggregate("co-1", window)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, fraud.AlertSuspiciousPattern, alert.Type)
	assert.Equal(t, fraud.SeverityHigh, alert.Severity)
	assert.Equal(t, 95, alert.RiskScore)
}

func TestAggregate_PatternAtThresholdIsQuiet(t *testing.T) {
	// GIVEN: A transaction scored exactly at the threshold (70)
	// THEN: Strictly-greater comparison: no alert

	agg, now := fixedAggregator()
	window := []fraud.ScoredTransaction{scoredTx("edge", 70, now)}

	assert.Empty(t, agg.Aggregate("co-1", window))
}

func TestAggregate_RulesAreAdditive(t *testing.T) {
	// GIVEN: A window that is both fast and high-risk
	// THEN: Both alerts fire; the rules are never mutually exclusive

	agg, now := fixedAggregator()
	var window []fraud.ScoredTransaction
	for i := 0; i < 15; i++ {
		window = append(window, scoredTx(fmt.Sprintf("t%d", i), 90, now.Add(-time.Duration(i)*time.Minute)))
	}

	alerts := agg.Aggregate("co-1", window)
	require.Len(t, alerts, 2)

	types := map[fraud.AlertType]bool{}
	for _, a := range alerts {
		types[a.Type] = true
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, core.CompanyID("co-1"), a.CompanyID)
	}
	assert.True(t, types[fraud.AlertVelocityAnomaly])
	assert.True(t, types[fraud.AlertSuspiciousPattern])
}

// =============================================================================
// ALERT STATUS MACHINE
// =============================================================================

func TestAlertTransitions(t *testing.T) {
	// GIVEN: The documented machine
	//   active -> investigating -> resolved
	//   active -> false_positive
	// THEN: Exactly those edges are valid

	valid := []struct{ from, to fraud.AlertStatus }{
		{fraud.StatusActive, fraud.StatusInvestigating},
		{fraud.StatusActive, fraud.StatusFalsePositive},
		{fraud.StatusInvestigating, fraud.StatusResolved},
	}
	for _, c := range valid {
		a := fraud.Alert{Status: c.from}
		assert.NoErrorf(t, a.Transition(c.to), "%s -> %s should be valid", c.from, c.to)
		assert.Equal(t, c.to, a.Status)
	}

	invalid := []struct{ from, to fraud.AlertStatus }{
		{fraud.StatusActive, fraud.StatusResolved}, // must pass through investigating
		{fraud.StatusInvestigating, fraud.StatusFalsePositive},
		{fraud.StatusResolved, fraud.StatusActive},
		{fraud.StatusFalsePositive, fraud.StatusInvestigating},
	}
	for _, c := range invalid {
		a := fraud.Alert{Status: c.from}
		err := a.Transition(c.to)
		require.Errorf(t, err, "%s -> %s should be rejected", c.from, c.to)
		assert.True(t, errors.Is(err, core.ErrInvalidTransition))
		assert.Equal(t, c.from, a.Status, "a rejected transition must not mutate the alert")
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for _, s := range []fraud.Severity{fraud.SeverityLow, fraud.SeverityMedium, fraud.SeverityHigh, fraud.SeverityCritical} {
		assert.Equal(t, s, fraud.ParseSeverity(s.String()))
	}
}
