package forecast

import "math"

// MinSlopePoints is the minimum number of values needed for a trend estimate
const MinSlopePoints = 3

// StableSlope is the magnitude below which a trend is reported as stable
const StableSlope = 0.001

// Slope returns the ordinary least-squares slope of ys against the index 0..n-1.
// The result is in value units per sample, not per unit of time.
// Callers must filter out null and non-finite values beforehand.
func Slope(ys []float64) float64 {
	if len(ys) < MinSlopePoints {
		return 0
	}

	n := float64(len(ys))

	// Calculate sums for linear regression
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}

// Direction classifies a slope as stable, increasing or decreasing
func Direction(slope float64) TrendDirection {
	switch {
	case math.Abs(slope) < StableSlope:
		return TrendStable
	case slope > 0:
		return TrendIncreasing
	default:
		return TrendDecreasing
	}
}
