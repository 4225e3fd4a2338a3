// Package insight composes the human-readable analysis of the water-quality series.
package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/analytics/anomaly"
	"github.com/aquasense/aquasense/internal/analytics/forecast"
	"github.com/aquasense/aquasense/internal/analytics/quality"
	"github.com/aquasense/aquasense/internal/utils"
)

// DefaultWindow is the number of most recent samples analysed per metric
const DefaultWindow = 40

const allNormal = "All readings look normal. Keep monitoring."

// Composer turns the DO, pH and temperature series into insight strings.
// It holds configuration only; every call recomputes from its inputs.
type Composer struct {
	Thresholds       quality.Thresholds
	Window           int
	Lookback         int
	AnomalyThreshold float64
}

// NewComposer returns a composer with the default window, lookback and anomaly threshold
func NewComposer(t quality.Thresholds) Composer {
	return Composer{
		Thresholds:       t,
		Window:           DefaultWindow,
		Lookback:         anomaly.DefaultLookback,
		AnomalyThreshold: anomaly.DefaultThreshold,
	}
}

// MetricInsight is the structured analysis behind one insight line
type MetricInsight struct {
	Metric  analytics.Metric `json:"metric"`
	Count   int              `json:"count"`
	Trend   *forecast.Trend  `json:"trend,omitempty"`
	Anomaly *anomaly.Score   `json:"anomaly,omitempty"`
	Text    string           `json:"text"`
}

// Report bundles everything the insight page shows
type Report struct {
	Metrics         []MetricInsight  `json:"metrics"`
	Insights        []string         `json:"insights"`
	Recommendations []string         `json:"recommendations"`
	Verdict         *quality.Verdict `json:"verdict,omitempty"`
}

func (c Composer) values(s analytics.Series) []float64 {
	return s.Tail(c.Window).Values()
}

// Analyze computes trend, forecast and anomaly score for one metric
func (c Composer) Analyze(m analytics.Metric, s analytics.Series) MetricInsight {
	ys := c.values(s)
	mi := MetricInsight{Metric: m, Count: len(ys)}
	if len(ys) == 0 {
		mi.Text = fmt.Sprintf("%s: not enough data.", m.Label)
		return mi
	}

	trend := forecast.Estimate(ys, forecast.DefaultHorizon)
	score := anomaly.Evaluate(ys, c.Lookback, c.AnomalyThreshold)
	mi.Trend = &trend
	mi.Anomaly = &score

	parts := []string{
		fmt.Sprintf("%s: %s", m.Label, trendText(trend, m.TrendUnit)),
		"next ~ " + withUnit(trend.Next, m.Unit),
	}
	if score.Anomalous {
		parts = append(parts, fmt.Sprintf("anomaly z=%.2f", score.Z))
	}
	mi.Text = strings.Join(parts, " | ")
	return mi
}

// Verdict classifies the latest DO, pH and temperature values.
// It reports false when any of the three has no finite value.
func (c Composer) Verdict(do, ph, temp analytics.Series) (quality.Verdict, bool) {
	v, err := quality.Classify(
		lastOf(c.values(do)), lastOf(c.values(ph)), lastOf(c.values(temp)),
		c.Thresholds,
	)
	if err != nil {
		return "", false
	}
	return v, true
}

// Insights returns one line per metric in DO, pH, temperature order, followed by
// the water-quality verdict when all three latest values are finite
func (c Composer) Insights(do, ph, temp analytics.Series) []string {
	return c.Compose(do, ph, temp).Insights
}

// Recommendations returns the operator actions implied by the latest readings
func (c Composer) Recommendations(do, ph, temp analytics.Series) []string {
	var recs []string
	t := c.Thresholds

	if v := lastOf(c.values(do)); utils.IsFinite(v) && v < t.DOMin {
		recs = append(recs, fmt.Sprintf("Increase tank aeration (DO < %g mg/L).", t.DOMin))
	}
	if v := lastOf(c.values(ph)); utils.IsFinite(v) && (v < t.PHMin || v > t.PHMax) {
		recs = append(recs, fmt.Sprintf("Add a pH buffer (target %g-%g).", t.PHMin, t.PHMax))
	}
	if v := lastOf(c.values(temp)); utils.IsFinite(v) && v > t.TempRecommendMax {
		recs = append(recs, fmt.Sprintf("Consider cooling or heat exchange to lower the temperature (> %g°C).", t.TempRecommendMax))
	}

	if len(recs) == 0 {
		recs = append(recs, allNormal)
	}
	return recs
}

// Compose builds the full report
func (c Composer) Compose(do, ph, temp analytics.Series) Report {
	r := Report{
		Metrics: []MetricInsight{
			c.Analyze(analytics.MustMetric(analytics.MetricDO), do),
			c.Analyze(analytics.MustMetric(analytics.MetricPH), ph),
			c.Analyze(analytics.MustMetric(analytics.MetricTemperature), temp),
		},
		Recommendations: c.Recommendations(do, ph, temp),
	}

	r.Insights = make([]string, 0, len(r.Metrics)+1)
	for _, mi := range r.Metrics {
		r.Insights = append(r.Insights, mi.Text)
	}
	if v, ok := c.Verdict(do, ph, temp); ok {
		r.Verdict = &v
		r.Insights = append(r.Insights, fmt.Sprintf("Water quality: %s", v))
	}
	return r
}

func trendText(t forecast.Trend, unit string) string {
	if t.Direction == forecast.TrendStable {
		return string(forecast.TrendStable)
	}
	return fmt.Sprintf("%s (~%.2f %s per sample)", t.Direction, t.Slope, unit)
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

func lastOf(ys []float64) float64 {
	if len(ys) == 0 {
		return math.NaN()
	}
	return ys[len(ys)-1]
}
