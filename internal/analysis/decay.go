package analysis

import "math"

// DecayWeight computes exp(-deltaDays/tau).
func DecayWeight(deltaDays float64, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-deltaDays / tau)
}

// contactMomentum compares a recency-weighted daily contact volume against the
// plain daily mean of the trend. Positive means outreach is accelerating.
// The result is a relative change, e.g. 0.5 for 50% above baseline.
func contactMomentum(trend []TrendDataPoint, tau float64) float64 {
	if len(trend) < 2 {
		return 0
	}

	last := len(trend) - 1
	var weighted, weights, total float64
	for i, p := range trend {
		w := DecayWeight(float64(last-i), tau)
		weighted += w * float64(p.Contacts)
		weights += w
		total += float64(p.Contacts)
	}

	baseline := total / float64(len(trend))
	if baseline == 0 {
		return 0
	}
	recent := ratio(weighted, weights)
	return (recent - baseline) / baseline
}
