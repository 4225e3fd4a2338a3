// Package quality classifies water quality from the latest DO, pH and temperature
// readings and assesses single readings against their process ranges.
package quality

import (
	"errors"
	"fmt"

	"github.com/aquasense/aquasense/internal/utils"
)

// Verdict is the discrete water-quality grade
type Verdict string

const (
	VerdictGood Verdict = "Good"
	VerdictFair Verdict = "Fair"
	VerdictPoor Verdict = "Poor"
)

// ErrNonFiniteInput is returned when any reading is NaN or infinite
var ErrNonFiniteInput = errors.New("quality: non-finite input")

// Thresholds bound the acceptable readings.
// TempCeiling grades quality while TempRecommendMax triggers the cooling
// recommendation. They are kept apart on purpose; deployments disagree on both.
type Thresholds struct {
	DOMin            float64 `json:"do_min"`
	PHMin            float64 `json:"ph_min"`
	PHMax            float64 `json:"ph_max"`
	TempMin          float64 `json:"temp_min"`
	TempCeiling      float64 `json:"temp_ceiling"`
	TempRecommendMax float64 `json:"temp_recommend_max"`
}

// DefaultThresholds returns the standard aquaculture thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		DOMin:            5,
		PHMin:            6.5,
		PHMax:            8.5,
		TempMin:          0,
		TempCeiling:      35,
		TempRecommendMax: 32,
	}
}

// Validate checks that every bound is finite and every band is ordered
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"do_min": t.DOMin, "ph_min": t.PHMin, "ph_max": t.PHMax,
		"temp_min": t.TempMin, "temp_ceiling": t.TempCeiling, "temp_recommend_max": t.TempRecommendMax,
	} {
		if !utils.IsFinite(v) {
			return fmt.Errorf("threshold %s must be finite", name)
		}
	}
	if t.PHMin > t.PHMax {
		return fmt.Errorf("ph_min (%g) must not exceed ph_max (%g)", t.PHMin, t.PHMax)
	}
	if t.TempMin > t.TempCeiling {
		return fmt.Errorf("temp_min (%g) must not exceed temp_ceiling (%g)", t.TempMin, t.TempCeiling)
	}
	return nil
}

// Score awards one point per reading inside its band
func Score(do, ph, temp float64, t Thresholds) int {
	score := 0
	if do >= t.DOMin {
		score++
	}
	if ph >= t.PHMin && ph <= t.PHMax {
		score++
	}
	if temp >= t.TempMin && temp <= t.TempCeiling {
		score++
	}
	return score
}

// Classify grades the (DO, pH, temperature) triple: 3 points Good, 2 Fair, otherwise Poor.
// Non-finite readings are refused with ErrNonFiniteInput.
func Classify(do, ph, temp float64, t Thresholds) (Verdict, error) {
	if !utils.IsFinite(do) || !utils.IsFinite(ph) || !utils.IsFinite(temp) {
		return "", ErrNonFiniteInput
	}

	switch Score(do, ph, temp, t) {
	case 3:
		return VerdictGood, nil
	case 2:
		return VerdictFair, nil
	default:
		return VerdictPoor, nil
	}
}
