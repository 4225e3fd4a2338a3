package quality

import (
	"fmt"
	"strings"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/utils"
)

// Status is the outcome of checking one reading against its process range
type Status string

const (
	StatusNoData Status = "no_data"
	StatusZero   Status = "zero"
	StatusNormal Status = "normal"
	StatusLow    Status = "low"
	StatusHigh   Status = "high"
)

// Range is an inclusive process range
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether v lies within the range
func (r Range) Contains(v float64) bool {
	return utils.IsFinite(v) && v >= r.Lo && v <= r.Hi
}

// Assessment is the rendered status of one reading
type Assessment struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Range   Range  `json:"range"`
}

// DefaultRanges returns the process ranges shown on the water-quality page
func DefaultRanges() map[analytics.MetricKind]Range {
	return map[analytics.MetricKind]Range{
		analytics.MetricPH:          {Lo: 6, Hi: 9},
		analytics.MetricDO:          {Lo: 2, Hi: 8},
		analytics.MetricTemperature: {Lo: 20, Hi: 30},
	}
}

// Assess checks the latest reading of a metric against r.
// An exact zero is reported separately since it almost always means a sensor fault.
func Assess(m analytics.Metric, last float64, r Range) Assessment {
	a := Assessment{Range: r}
	value := formatValue(last, m.Unit)

	switch {
	case !utils.IsFinite(last):
		a.Status = StatusNoData
		a.Message = "No data."
	case last == 0:
		a.Status = StatusZero
		a.Message = zeroMessage(m)
	case r.Contains(last):
		a.Status = StatusNormal
		a.Message = fmt.Sprintf("%s %s: within range (%s).", m.Label, value, formatRange(r, m.Unit))
	case last < r.Lo:
		a.Status = StatusLow
		a.Message = fmt.Sprintf("%s %s: LOW (< %s). %s", m.Label, value, formatBound(r.Lo, m.Unit), lowAdvice(m.Kind))
	default:
		a.Status = StatusHigh
		a.Message = fmt.Sprintf("%s %s: HIGH (> %s). %s", m.Label, value, formatBound(r.Hi, m.Unit), highAdvice(m.Kind))
	}
	return a
}

func zeroMessage(m analytics.Metric) string {
	switch m.Kind {
	case analytics.MetricPH:
		return "Latest pH reading is 0.00: check the sensor connection."
	case analytics.MetricDO:
		return "Latest DO reading is 0.00 mg/L: probe fault or aeration has stopped."
	case analytics.MetricTemperature:
		return "Temperature reads 0°C: check the sensor cable and reading."
	default:
		return "Value reads 0: sensor check recommended."
	}
}

func lowAdvice(kind analytics.MetricKind) string {
	switch kind {
	case analytics.MetricPH:
		return "Increase base dosing or check the acid lines."
	case analytics.MetricDO:
		return "Increase aeration (check blowers, valves and diffusers)."
	case analytics.MetricTemperature:
		return "Apply heating or improve ambient conditions."
	default:
		return "Value is low."
	}
}

func highAdvice(kind analytics.MetricKind) string {
	switch kind {
	case analytics.MetricPH:
		return "Increase acid dosing or check for base leaks."
	case analytics.MetricDO:
		return "Energy use may rise; optimize aeration or check probe calibration."
	case analytics.MetricTemperature:
		return "Increase cooling or ventilation and check sensor calibration."
	default:
		return "Value is high."
	}
}

func formatValue(v float64, unit string) string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", v, unit))
}

func formatBound(v float64, unit string) string {
	return strings.TrimSpace(fmt.Sprintf("%g %s", v, unit))
}

func formatRange(r Range, unit string) string {
	return strings.TrimSpace(fmt.Sprintf("%g-%g %s", r.Lo, r.Hi, unit))
}
