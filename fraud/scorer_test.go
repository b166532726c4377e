package fraud_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfarehub/credits-engine/core"
	"github.com/welfarehub/credits-engine/fraud"
)

// March 8 2025 is a Saturday.
var saturday3am = time.Date(2025, time.March, 8, 3, 0, 0, 0, time.UTC)

func tx(id string, employee core.EmployeeID, points int64, at time.Time) core.Transaction {
	return core.Transaction{
		ID:         core.TransactionID(id),
		CompanyID:  "co-1",
		EmployeeID: employee,
		PartnerID:  "partner-1",
		Points:     points,
		Status:     core.TxCompleted,
		CreatedAt:  at,
	}
}

func TestScore_QuietDaytimeTransaction(t *testing.T) {
	// GIVEN: A small weekday daytime purchase with no history
	// THEN: Score 0, no flags

	s := fraud.NewScorer()
	// Wednesday noon
	result := s.Score(tx("t1", "emp-1", 50, time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)), nil)

	assert.Equal(t, 0, result.Score)
	assert.Empty(t, result.Flags)
}

func TestScore_ElevatedValueNoFlag(t *testing.T) {
	// GIVEN: A purchase between the elevated and high-value thresholds
	// THEN: +15 but no HIGH_VALUE flag; flags are not derived from the score

	s := fraud.NewScorer()
	result := s.Score(tx("t1", "emp-1", 300, time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)), nil)

	assert.Equal(t, 15, result.Score)
	assert.False(t, result.HasFlag(fraud.FlagHighValue))
}

func TestScore_AccumulatedSignals(t *testing.T) {
	// GIVEN: 1000 points at 3am on a Saturday, with 6 prior purchases by the
	//        same employee spread hours apart (no burst)
	// THEN: high value(30) + off hours(20) + frequency(25) + weekend(10) = 85
	//       with HIGH_VALUE, OFF_HOURS, HIGH_RISK, WEEKEND flags

	s := fraud.NewScorer()
	target := tx("target", "emp-1", 1000, saturday3am)

	var history []core.Transaction
	for i := 0; i < 6; i++ {
		history = append(history, tx(fmt.Sprintf("h%d", i), "emp-1", 40,
			saturday3am.Add(-time.Duration(i+2)*3*time.Hour)))
	}

	result := s.Score(target, history)

	require.Equal(t, 85, result.Score)
	assert.True(t, result.HasFlag(fraud.FlagHighValue))
	assert.True(t, result.HasFlag(fraud.FlagOffHours))
	assert.True(t, result.HasFlag(fraud.FlagHighRisk))
	assert.True(t, result.HasFlag(fraud.FlagWeekend))
}

func TestScore_CapsAt100(t *testing.T) {
	// GIVEN: Every rule firing at once (raw 105)
	// THEN: The score caps at 100; the flags still all appear

	s := fraud.NewScorer()
	target := tx("target", "emp-1", 1000, saturday3am)

	// 6 same-employee purchases inside the burst window: frequency and burst
	// both fire.
	var history []core.Transaction
	for i := 0; i < 6; i++ {
		history = append(history, tx(fmt.Sprintf("h%d", i), "emp-1", 40,
			saturday3am.Add(-time.Duration(i+1)*5*time.Minute)))
	}

	result := s.Score(target, history)

	assert.Equal(t, fraud.MaxScore, result.Score)
	assert.True(t, result.HasFlag(fraud.FlagHighRisk))
}

func TestScore_FlagsIndependentOfScore(t *testing.T) {
	// GIVEN: A tiny weekend purchase
	// THEN: Score only 10, yet the WEEKEND flag is present

	s := fraud.NewScorer()
	// Saturday afternoon
	result := s.Score(tx("t1", "emp-1", 10, time.Date(2025, time.March, 8, 15, 0, 0, 0, time.UTC)), nil)

	assert.Equal(t, 10, result.Score)
	assert.True(t, result.HasFlag(fraud.FlagWeekend))
}

func TestScore_OffHoursBoundaries(t *testing.T) {
	// GIVEN: The documented boundaries (before 6, after 22)
	// THEN: 05:59 and 23:00 are off-hours; 06:00 and 22:00 are not

	s := fraud.NewScorer()
	cases := []struct {
		hour     int
		offHours bool
	}{
		{5, true},
		{6, false},
		{22, false},
		{23, true},
	}
	for _, c := range cases {
		// Wednesday, to keep the weekend rule out of it
		at := time.Date(2025, time.March, 5, c.hour, 0, 0, 0, time.UTC)
		result := s.Score(tx("t1", "emp-1", 10, at), nil)
		assert.Equalf(t, c.offHours, result.HasFlag(fraud.FlagOffHours), "hour %d", c.hour)
	}
}

func TestScoreWindow_ExcludesSelf(t *testing.T) {
	// GIVEN: A window containing the transaction itself
	// WHEN: Scoring the window
	// THEN: The transaction is not its own neighbor

	s := fraud.NewScorer()
	window := []core.Transaction{
		tx("only", "emp-1", 50, time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)),
	}

	scored := s.ScoreWindow(window)
	require.Len(t, scored, 1)
	assert.Equal(t, 0, scored[0].Score)
	assert.False(t, scored[0].Score > 0 || len(scored[0].Flags) > 0, "a lone transaction has no neighborhood signals")
}

func TestScoreWindow_FrequencyAtThresholdDoesNotFire(t *testing.T) {
	// GIVEN: Exactly the threshold count of same-employee neighbors (5)
	// THEN: Strictly-greater comparison: no frequency signal

	s := fraud.NewScorer()
	target := tx("target", "emp-1", 10, time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC))

	var history []core.Transaction
	for i := 0; i < 5; i++ {
		history = append(history, tx(fmt.Sprintf("h%d", i), "emp-1", 10,
			target.CreatedAt.Add(-time.Duration(i+2)*2*time.Hour)))
	}

	result := s.Score(target, history)
	assert.False(t, result.HasFlag(fraud.FlagHighRisk))
	assert.Equal(t, 0, result.Score)
}
