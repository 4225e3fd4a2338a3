package anomaly

import (
	"math"
)

// DefaultLookback is the number of most recent values the z-score window covers
const DefaultLookback = 20

// MinZScorePoints is the minimum series length for a meaningful score
const MinZScorePoints = 3

// stdFloor keeps a constant window from dividing by zero
const stdFloor = 1e-6

// ZScore scores the latest value of ys against a trailing window of at most
// lookback values: (last - mean) / std, using the sample variance of the window.
// Series shorter than MinZScorePoints score 0.
func ZScore(ys []float64, lookback int) float64 {
	if len(ys) < MinZScorePoints {
		return 0
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	window := ys
	if lookback < len(ys) {
		window = ys[len(ys)-lookback:]
	}

	mean, stdDev := CalculateMeanStdDev(window)
	if stdDev < stdFloor {
		stdDev = stdFloor
	}

	return (window[len(window)-1] - mean) / stdDev
}

// CalculateMeanStdDev calculates the mean and the sample standard deviation of values.
// The variance denominator is len-1, floored at 1.
func CalculateMeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	// Calculate mean
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	// Calculate standard deviation
	var varianceSum float64
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	denominator := math.Max(float64(len(values)-1), 1)
	stdDev = math.Sqrt(varianceSum / denominator)

	return mean, stdDev
}
