package actions

import "math"

// Distance returns the normalized signed offset of balance b from target t
// within capacity c. The denominator is asymmetric around the target so
// that the measure still ranges over [-1, +1] when t is not at 50% of c:
// below the target it's normalized by t itself, above it by the remaining
// headroom (c - t).
//
// If t is zero the result is NaN; callers only reach this for degenerate
// channels and must guard against it themselves.
func Distance(b, t, c int64) float64 {
	if b <= t {
		if t == 0 {
			return math.NaN()
		}
		return float64(b)/float64(t) - 1
	}
	return float64(b-t) / float64(c-t)
}

// Priority maps a distance into a discrete urgency band. base is 1 for
// per-channel balance actions and 4 for the node-level aggregate, so node
// actions sort ahead of channel actions at an equal distance band.
func Priority(base uint32, distance, minRebalanceDistance float64) uint32 {
	return base * uint32(math.Floor(math.Abs(distance)/minRebalanceDistance))
}

func round(x float64) int64 {
	return int64(math.Round(x))
}

func clampI64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
