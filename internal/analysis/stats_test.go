package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// isFinite checks if a float64 value is finite (not NaN or Inf)
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty", input: []float64{}, expected: 0},
		{name: "single element", input: []float64{5.0}, expected: 5.0},
		{name: "odd length", input: []float64{1, 3, 5, 7, 9}, expected: 5.0},
		{name: "even length", input: []float64{1, 2, 3, 4}, expected: 2.5},
		{name: "unsorted", input: []float64{9, 1, 7, 3, 5}, expected: 5.0},
		{name: "duplicates", input: []float64{2, 2, 3, 3, 4, 4}, expected: 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]float64{}, tt.input...)
			assert.Equal(t, tt.expected, median(tt.input))
			assert.Equal(t, input, tt.input, "median must not reorder its input")
		})
	}
}

func TestClipAndRatio(t *testing.T) {
	assert.Equal(t, 0.0, clip(-3, 0, 1))
	assert.Equal(t, 1.0, clip(7, 0, 1))
	assert.Equal(t, 0.25, clip(0.25, 0, 1))

	assert.Equal(t, 0.0, ratio(5, 0))
	assert.Equal(t, 0.5, ratio(1, 2))
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1-sigmoid(2), sigmoid(-2), 1e-12)
	assert.True(t, isFinite(sigmoid(1000)))
	assert.True(t, isFinite(sigmoid(-1000)))
}

func TestDecayWeight(t *testing.T) {
	tests := []struct {
		name      string
		deltaDays float64
		tau       float64
		expected  float64
	}{
		{name: "no elapsed time", deltaDays: 0, tau: 7, expected: 1},
		{name: "one tau", deltaDays: 7, tau: 7, expected: math.Exp(-1)},
		{name: "zero tau", deltaDays: 3, tau: 0, expected: 0},
		{name: "negative tau", deltaDays: 3, tau: -1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayWeight(tt.deltaDays, tt.tau), 1e-12)
		})
	}
}

func trendOf(contacts ...int) []TrendDataPoint {
	out := make([]TrendDataPoint, len(contacts))
	for i, c := range contacts {
		out[i] = TrendDataPoint{Contacts: c}
	}
	return out
}

func TestContactMomentum(t *testing.T) {
	assert.Zero(t, contactMomentum(nil, 7))
	assert.Zero(t, contactMomentum(trendOf(5), 7))
	assert.Zero(t, contactMomentum(trendOf(0, 0, 0), 7))
	assert.InDelta(t, 0, contactMomentum(trendOf(4, 4, 4, 4), 7), 1e-12)

	rising := contactMomentum(trendOf(0, 0, 1, 3, 6), 2)
	falling := contactMomentum(trendOf(6, 3, 1, 0, 0), 2)
	assert.Greater(t, rising, 0.0)
	assert.Less(t, falling, 0.0)
	assert.True(t, isFinite(rising))
}
