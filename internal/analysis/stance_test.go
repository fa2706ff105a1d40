package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

func TestComputeStanceScore(t *testing.T) {
	tests := []struct {
		stance   types.Stance
		expected float64
	}{
		{types.StanceStrongSupport, 100},
		{types.StanceSupport, 75},
		{types.StanceLeanSupport, 60},
		{types.StanceUndecided, 50},
		{types.StanceNeutral, 50},
		{types.StanceLeanOppose, 40},
		{types.StanceOppose, 25},
		{types.StanceStrongOppose, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.stance), func(t *testing.T) {
			score, err := ComputeStanceScore(tt.stance)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestComputeStanceScore_AllInRange(t *testing.T) {
	for _, s := range types.AllStances {
		score, err := ComputeStanceScore(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestComputeStanceScore_Unknown(t *testing.T) {
	_, err := ComputeStanceScore("WAVERING")
	require.Error(t, err)

	var unknown *UnknownStanceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, types.Stance("WAVERING"), unknown.Stance)
}

func TestScoreStance_Fallback(t *testing.T) {
	cfg := DefaultConfig()

	_, err := ScoreStance("WAVERING", cfg)
	assert.Error(t, err, "fallback is opt-in")

	cfg.UnknownStanceAsNeutral = true
	score, err := ScoreStance("WAVERING", cfg)
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)

	score, err = ScoreStance(types.StanceSupport, cfg)
	require.NoError(t, err)
	assert.Equal(t, 75.0, score)
}
