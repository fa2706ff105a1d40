package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyScenario(t *testing.T) {
	tests := []struct {
		p    float64
		want Scenario
	}{
		{1.0, ScenarioStrongWin},
		{0.9, ScenarioStrongWin},
		{0.85, ScenarioStrongWin},
		{0.7, ScenarioLikelyWin},
		{0.6, ScenarioLikelyWin},
		{0.5, ScenarioTossUp},
		{0.4, ScenarioLikelyLose},
		{0.2, ScenarioLikelyLose},
		{0.15, ScenarioStrongLose},
		{0.1, ScenarioStrongLose},
		{0, ScenarioStrongLose},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyScenario(tt.p), "p=%v", tt.p)
	}
}

func breakdown(total int, estimated, confidence float64) DistrictBreakdown {
	return DistrictBreakdown{
		TotalVoters:    total,
		ScoredVoters:   total,
		EstimatedVotes: estimated,
		Confidence:     confidence,
	}
}

func TestEstimateWinProbability_ZeroMargin(t *testing.T) {
	for _, conf := range []float64{0, 0.3, 1} {
		wp, err := EstimateWinProbability([]DistrictBreakdown{
			breakdown(100, 300, conf),
			breakdown(100, 200, conf),
		}, 500, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, 0.5, wp.Probability)
		assert.Equal(t, ScenarioTossUp, wp.Scenario)
		assert.Zero(t, wp.Margin)
	}
}

func TestEstimateWinProbability_Monotonic(t *testing.T) {
	cfg := DefaultConfig()
	prev := -1.0
	for _, est := range []float64{0, 250, 450, 500, 550, 750, 2000} {
		wp, err := EstimateWinProbability([]DistrictBreakdown{breakdown(1000, est, 0.8)}, 500, cfg)
		require.NoError(t, err)
		assert.Greater(t, wp.Probability, prev)
		assert.Equal(t, ClassifyScenario(wp.Probability), wp.Scenario)
		prev = wp.Probability
	}

	high, _ := EstimateWinProbability([]DistrictBreakdown{breakdown(1000, 5000, 1)}, 500, cfg)
	low, _ := EstimateWinProbability([]DistrictBreakdown{breakdown(1000, 0, 1)}, 500, cfg)
	assert.Greater(t, high.Probability, 0.99)
	assert.Less(t, low.Probability, 0.01)
}

func TestEstimateWinProbability_ConfidenceSteepens(t *testing.T) {
	cfg := DefaultConfig()
	unsure, err := EstimateWinProbability([]DistrictBreakdown{breakdown(100, 600, 0.1)}, 500, cfg)
	require.NoError(t, err)
	sure, err := EstimateWinProbability([]DistrictBreakdown{breakdown(100, 600, 1)}, 500, cfg)
	require.NoError(t, err)

	assert.Greater(t, sure.Probability, unsure.Probability)
	assert.Equal(t, 1.0, sure.Confidence)
}

func TestEstimateWinProbability_DerivedVotesNeeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TurnoutAssumption = 0.5

	wp, err := EstimateWinProbability([]DistrictBreakdown{breakdown(1000, 100, 1)}, 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, 251, wp.VotesNeeded)
	assert.Equal(t, 251, DeriveVotesNeeded(1000, 0.5))
}

func TestEstimateWinProbability_Errors(t *testing.T) {
	_, err := EstimateWinProbability(nil, -1, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Steepness = 0
	_, err = EstimateWinProbability(nil, 10, cfg)
	assert.Error(t, err)
}

func TestEstimateWinProbability_Factors(t *testing.T) {
	b := DistrictBreakdown{
		TotalVoters:     10,
		ScoredVoters:    10,
		SupportCount:    5,
		NeutralCount:    3,
		OpposeCount:     2,
		ContactedVoters: 10,
		EstimatedVotes:  4,
		Confidence:      1,
	}

	wp, err := EstimateWinProbability([]DistrictBreakdown{b}, 4, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, wp.Factors, 4)

	byName := map[string]float64{}
	for _, f := range wp.Factors {
		assert.GreaterOrEqual(t, f.Impact, -100.0)
		assert.LessOrEqual(t, f.Impact, 100.0)
		assert.NotEmpty(t, f.Description)
		byName[f.Name] = f.Impact
	}
	assert.InDelta(t, 100, byName["contact_coverage"], 1e-9)
	assert.InDelta(t, -30, byName["undecided_share"], 1e-9)
	assert.InDelta(t, 100, byName["district_confidence"], 1e-9)
	assert.InDelta(t, 30, byName["support_margin"], 1e-9)
}

func TestEstimateWinProbability_Empty(t *testing.T) {
	wp, err := EstimateWinProbability(nil, 10, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, wp.Confidence)
	assert.Less(t, wp.Probability, 0.5)
	assert.GreaterOrEqual(t, wp.Probability, 0.0)
}
