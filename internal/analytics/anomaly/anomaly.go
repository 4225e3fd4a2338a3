// Package anomaly scores how unusual the most recent reading of a series is.
package anomaly

import "math"

// DefaultThreshold is the |z| above which a reading is flagged
const DefaultThreshold = 2.0

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeNone  AnomalyType = ""
	AnomalyTypeSpike AnomalyType = "spike" // Latest value far above the window
	AnomalyTypeDrop  AnomalyType = "drop"  // Latest value far below the window
)

// Score is the anomaly verdict for the latest value of a series
type Score struct {
	Z         float64     `json:"z"`
	Anomalous bool        `json:"anomalous"`
	Type      AnomalyType `json:"type,omitempty"`
	Lookback  int         `json:"lookback"`
}

// IsAnomalous applies the caller-side policy |z| > threshold
func IsAnomalous(z, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return math.Abs(z) > threshold
}

// Evaluate computes the z-score of the latest value and classifies it
func Evaluate(ys []float64, lookback int, threshold float64) Score {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	z := ZScore(ys, lookback)
	score := Score{Z: z, Lookback: lookback}
	if IsAnomalous(z, threshold) {
		score.Anomalous = true
		if z > 0 {
			score.Type = AnomalyTypeSpike
		} else {
			score.Type = AnomalyTypeDrop
		}
	}
	return score
}
