package analysis

import (
	"fmt"
	"math"
)

// Scenario is the categorical label derived from win probability
type Scenario string

const (
	ScenarioStrongWin  Scenario = "STRONG_WIN"
	ScenarioLikelyWin  Scenario = "LIKELY_WIN"
	ScenarioTossUp     Scenario = "TOSS_UP"
	ScenarioLikelyLose Scenario = "LIKELY_LOSE"
	ScenarioStrongLose Scenario = "STRONG_LOSE"
)

// ProbabilityFactor explains one signal behind the estimate. Impact is in [-100,100].
type ProbabilityFactor struct {
	Name        string  `json:"name"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// WinProbability is the campaign-level estimate
type WinProbability struct {
	Probability    float64             `json:"probability"`
	Confidence     float64             `json:"confidence"`
	Scenario       Scenario            `json:"scenario"`
	EstimatedVotes float64             `json:"estimated_votes"`
	VotesNeeded    int                 `json:"votes_needed"`
	Margin         float64             `json:"margin"`
	Factors        []ProbabilityFactor `json:"factors"`
}

// ClassifyScenario applies the fixed thresholds, first match wins
func ClassifyScenario(p float64) Scenario {
	switch {
	case p >= 0.85:
		return ScenarioStrongWin
	case p >= 0.6:
		return ScenarioLikelyWin
	case p > 0.4:
		return ScenarioTossUp
	case p > 0.15:
		return ScenarioLikelyLose
	default:
		return ScenarioStrongLose
	}
}

// DeriveVotesNeeded returns a simple majority of expected turnout
func DeriveVotesNeeded(totalVoters int, turnout float64) int {
	return int(math.Floor(float64(totalVoters)*turnout/2)) + 1
}

// EstimateWinProbability maps the vote margin onto a logistic curve centred at
// zero margin. The curve steepens with aggregate confidence, so an even margin
// is always exactly 0.5. A votesNeeded of 0 derives a simple majority.
func EstimateWinProbability(breakdowns []DistrictBreakdown, votesNeeded int, cfg Config) (WinProbability, error) {
	if votesNeeded < 0 {
		return WinProbability{}, fmt.Errorf("votes needed must not be negative, got %d", votesNeeded)
	}
	if cfg.Steepness <= 0 {
		return WinProbability{}, fmt.Errorf("steepness must be positive, got %v", cfg.Steepness)
	}

	var (
		estimated       float64
		totalVoters     int
		scoredVoters    int
		contacted       int
		supportCount    int
		opposeCount     int
		neutralCount    int
		weightedConfSum float64
	)
	for _, b := range breakdowns {
		estimated += b.EstimatedVotes
		totalVoters += b.TotalVoters
		scoredVoters += b.ScoredVoters
		contacted += b.ContactedVoters
		supportCount += b.SupportCount
		opposeCount += b.OpposeCount
		neutralCount += b.NeutralCount
		weightedConfSum += b.Confidence * float64(b.TotalVoters)
	}

	if votesNeeded == 0 {
		votesNeeded = DeriveVotesNeeded(totalVoters, cfg.TurnoutAssumption)
	}

	confidence := clip(ratio(weightedConfSum, float64(totalVoters)), 0, 1)
	margin := estimated - float64(votesNeeded)
	relative := margin / math.Max(float64(votesNeeded), 1)
	k := cfg.Steepness * (0.25 + 0.75*confidence)
	p := clip(sigmoid(k*relative), 0, 1)

	coverage := ratio(float64(contacted), float64(totalVoters))
	undecided := ratio(float64(neutralCount), float64(scoredVoters))
	supportMargin := ratio(float64(supportCount-opposeCount), float64(scoredVoters))

	factors := []ProbabilityFactor{
		{
			Name:        "contact_coverage",
			Impact:      clip((coverage-0.5)*200, -100, 100),
			Description: fmt.Sprintf("%.1f%% of voters have been contacted", coverage*100),
		},
		{
			Name:        "undecided_share",
			Impact:      clip(-undecided*100, -100, 100),
			Description: fmt.Sprintf("%.1f%% of scored voters are undecided or neutral", undecided*100),
		},
		{
			Name:        "district_confidence",
			Impact:      clip((confidence-0.5)*200, -100, 100),
			Description: fmt.Sprintf("aggregate sample confidence is %.2f", confidence),
		},
		{
			Name:        "support_margin",
			Impact:      clip(supportMargin*100, -100, 100),
			Description: fmt.Sprintf("support leads opposition by %.1f points", supportMargin*100),
		},
	}

	return WinProbability{
		Probability:    p,
		Confidence:     confidence,
		Scenario:       ClassifyScenario(p),
		EstimatedVotes: estimated,
		VotesNeeded:    votesNeeded,
		Margin:         margin,
		Factors:        factors,
	}, nil
}
