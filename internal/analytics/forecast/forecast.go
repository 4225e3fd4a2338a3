// Package forecast implements the trend estimator and the one-step linear forecaster.
package forecast

// TrendDirection describes the sign of a trend
type TrendDirection string

const (
	TrendStable     TrendDirection = "stable"
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
)

// DefaultHorizon is the one-step horizon used by the dashboard and insights
const DefaultHorizon = 1

// Trend is the combined trend estimate for a series
type Trend struct {
	Slope     float64        `json:"slope"`
	Direction TrendDirection `json:"direction"`
	Next      float64        `json:"next"`
	Horizon   int            `json:"horizon"`
}

// Next extrapolates ys by horizon steps along the least-squares slope:
// last(ys) + Slope(ys)*horizon. Horizon 0 returns last(ys); negative
// horizons are treated as 0. The result is not clamped, so it may fall
// outside the physically valid range of the measurement.
func Next(ys []float64, horizon int) float64 {
	if len(ys) == 0 {
		return 0
	}
	if horizon < 0 {
		horizon = 0
	}
	return ys[len(ys)-1] + Slope(ys)*float64(horizon)
}

// Estimate computes slope, direction and the horizon-step forecast in one pass
func Estimate(ys []float64, horizon int) Trend {
	if horizon < 0 {
		horizon = 0
	}
	slope := Slope(ys)
	return Trend{
		Slope:     slope,
		Direction: Direction(slope),
		Next:      Next(ys, horizon),
		Horizon:   horizon,
	}
}
