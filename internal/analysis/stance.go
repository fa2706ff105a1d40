package analysis

import "github.com/stanley00316/election-system-demo-sub004/internal/types"

const neutralStanceScore = 50

var stanceScores = map[types.Stance]float64{
	types.StanceStrongSupport: 100,
	types.StanceSupport:       75,
	types.StanceLeanSupport:   60,
	types.StanceUndecided:     neutralStanceScore,
	types.StanceNeutral:       neutralStanceScore,
	types.StanceLeanOppose:    40,
	types.StanceOppose:        25,
	types.StanceStrongOppose:  0,
}

// ComputeStanceScore maps a stance to its 0-100 score
func ComputeStanceScore(stance types.Stance) (float64, error) {
	score, ok := stanceScores[stance]
	if !ok {
		return 0, &UnknownStanceError{Stance: stance}
	}
	return score, nil
}

// ScoreStance applies the configured fallback for unknown stances. The fallback
// is opt-in; by default the error propagates.
func ScoreStance(stance types.Stance, cfg Config) (float64, error) {
	score, err := ComputeStanceScore(stance)
	if err != nil && cfg.UnknownStanceAsNeutral {
		return neutralStanceScore, nil
	}
	return score, err
}

// scoreVoter is ScoreStance with the voter id attached to any error
func scoreVoter(v types.Voter, cfg Config) (float64, error) {
	score, err := ScoreStance(v.Stance, cfg)
	if err != nil {
		return 0, &UnknownStanceError{Stance: v.Stance, VoterID: v.ID}
	}
	return score, nil
}
