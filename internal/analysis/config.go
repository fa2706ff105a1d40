package analysis

import (
	"fmt"
	"math"
	"time"
)

// Config carries every tunable of the analytics pipeline. It is passed by value
// into each computation; nothing here is package-level state.
type Config struct {
	// Influence propagation
	DirectCap         float64 `json:"direct_cap"`
	DecayFactor       float64 `json:"decay_factor"`
	MaxTraversalDepth int     `json:"max_traversal_depth"`
	DirectWeight      float64 `json:"direct_weight"`
	NetworkWeight     float64 `json:"network_weight"`
	SymmetricEdges    bool    `json:"symmetric_edges"`

	// District aggregation and win probability
	MinSampleSize     int     `json:"min_sample_size"`
	TurnoutAssumption float64 `json:"turnout_assumption"`
	VotesNeeded       int     `json:"votes_needed"` // 0 derives a simple majority of expected turnout
	Steepness         float64 `json:"steepness"`

	UnknownStanceAsNeutral bool `json:"unknown_stance_as_neutral"`

	// Report assembly
	TopInfluencerLimit     int           `json:"top_influencer_limit"`
	HighInfluenceThreshold float64       `json:"high_influence_threshold"`
	ContactDedupWindow     time.Duration `json:"contact_dedup_window"`
	MomentumTauDays        float64       `json:"momentum_tau_days"`
	MaxTrendPoints         int           `json:"max_trend_points"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		DirectCap:              100,
		DecayFactor:            0.5,
		MaxTraversalDepth:      2,
		DirectWeight:           0.6,
		NetworkWeight:          0.4,
		MinSampleSize:          30,
		TurnoutAssumption:      0.65,
		Steepness:              10,
		TopInfluencerLimit:     10,
		HighInfluenceThreshold: 70,
		ContactDedupWindow:     5 * time.Minute,
		MomentumTauDays:        7,
		MaxTrendPoints:         366,
	}
}

// Validate rejects configurations that would make the numbers meaningless
func (c Config) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"direct cap", c.DirectCap},
		{"decay factor", c.DecayFactor},
		{"direct weight", c.DirectWeight},
		{"network weight", c.NetworkWeight},
		{"turnout assumption", c.TurnoutAssumption},
		{"steepness", c.Steepness},
		{"high influence threshold", c.HighInfluenceThreshold},
		{"momentum tau days", c.MomentumTauDays},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be finite, got %v", f.name, f.value)
		}
	}

	switch {
	case c.DirectCap <= 0:
		return fmt.Errorf("direct cap must be positive, got %v", c.DirectCap)
	case c.DecayFactor < 0 || c.DecayFactor > 1:
		return fmt.Errorf("decay factor must be within [0,1], got %v", c.DecayFactor)
	case c.MaxTraversalDepth < 0:
		return fmt.Errorf("max traversal depth must not be negative, got %d", c.MaxTraversalDepth)
	case c.DirectWeight < 0 || c.NetworkWeight < 0:
		return fmt.Errorf("influence weights must not be negative")
	case c.MinSampleSize <= 0:
		return fmt.Errorf("min sample size must be positive, got %d", c.MinSampleSize)
	case c.TurnoutAssumption < 0 || c.TurnoutAssumption > 1:
		return fmt.Errorf("turnout assumption must be within [0,1], got %v", c.TurnoutAssumption)
	case c.VotesNeeded < 0:
		return fmt.Errorf("votes needed must not be negative, got %d", c.VotesNeeded)
	case c.Steepness <= 0:
		return fmt.Errorf("steepness must be positive, got %v", c.Steepness)
	case c.ContactDedupWindow < 0:
		return fmt.Errorf("contact dedup window must not be negative")
	case c.MaxTrendPoints <= 0:
		return fmt.Errorf("max trend points must be positive, got %d", c.MaxTrendPoints)
	}
	return nil
}
