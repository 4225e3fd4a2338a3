package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/aquasense/aquasense/internal/analytics/downsample"
	"github.com/aquasense/aquasense/internal/analytics/normalize"
)

// maxPredictSeries bounds an explicit series sent to the model
const maxPredictSeries = 10000

// maxChartPoints bounds the downsample target
const maxChartPoints = 10000

// MetricRangeRequest carries the optional date range of a metric query.
// From and To accept epoch seconds or milliseconds, RFC3339 or a plain date.
// A plain date in To covers the whole day.
// Downsample (none, auto, lttb, minmax, avg, m4) thins the returned samples to Points.
type MetricRangeRequest struct {
	From       string `query:"from"`
	To         string `query:"to"`
	Downsample string `query:"downsample"`
	Points     int    `query:"points"`
}

// Thinning validates the downsample options
func (r *MetricRangeRequest) Thinning() (downsample.Mode, int, error) {
	mode, err := downsample.ParseMode(r.Downsample)
	if err != nil {
		return downsample.ModeNone, 0, err
	}
	if r.Points < 0 || r.Points > maxChartPoints {
		return downsample.ModeNone, 0, fmt.Errorf("points must be between 0 and %d", maxChartPoints)
	}
	return mode, r.Points, nil
}

// Parse resolves the range to Unix milliseconds; zero means open
func (r *MetricRangeRequest) Parse(loc *time.Location) (fromMs, toMs int64, err error) {
	if loc == nil {
		loc = time.UTC
	}

	if from := strings.TrimSpace(r.From); from != "" {
		ms, ok := normalize.ToMillis(from, loc)
		if !ok {
			return 0, 0, fmt.Errorf("invalid from: %s", r.From)
		}
		fromMs = ms
	}

	if to := strings.TrimSpace(r.To); to != "" {
		if day, err := time.ParseInLocation(time.DateOnly, to, loc); err == nil {
			toMs = day.AddDate(0, 0, 1).UnixMilli() - 1
		} else {
			ms, ok := normalize.ToMillis(to, loc)
			if !ok {
				return 0, 0, fmt.Errorf("invalid to: %s", r.To)
			}
			toMs = ms
		}
	}

	if fromMs != 0 && toMs != 0 && fromMs > toMs {
		return 0, 0, fmt.Errorf("from must not be after to")
	}
	return fromMs, toMs, nil
}

// PredictRequest represents a prediction request body.
// All fields are optional: an empty body predicts the next DO reading.
// The lag count is owned by the model and cannot be set here.
type PredictRequest struct {
	Metric string    `json:"metric,omitempty"`
	Series []float64 `json:"series,omitempty"`
}

// Validate checks the request bounds
func (r *PredictRequest) Validate() error {
	if len(r.Series) > maxPredictSeries {
		return fmt.Errorf("series must not exceed %d values", maxPredictSeries)
	}
	return nil
}
