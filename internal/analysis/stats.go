package analysis

import (
	"math"
	"sort"
)

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ratio returns num/den, or 0 when den is 0
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
