// Package analytics provides the canonical sample and series types shared by the
// normalizer, the statistical estimators and the insight layer.
package analytics

import (
	"math"
	"sort"
)

// Sample is a single normalized reading.
// TimestampMs is always a Unix millisecond epoch. When the raw timestamp could not be
// parsed it holds the processing time and TimestampParsed is false: the sample still
// counts statistically but its position in time is unreliable.
// Value is nil when the source field could not be coerced to a finite number.
type Sample struct {
	ID              string   `json:"id,omitempty"`
	TimestampMs     int64    `json:"timestamp_ms"`
	Value           *float64 `json:"value"`
	TimestampParsed bool     `json:"timestamp_parsed"`
}

// HasValue reports whether the sample carries a finite value
func (s Sample) HasValue() bool {
	return s.Value != nil && !math.IsNaN(*s.Value) && !math.IsInf(*s.Value, 0)
}

// Float returns a pointer to v, or nil when v is not finite
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Series is a chronological (oldest first) sequence of samples.
// Index order is meaningful: slope and forecast treat index as the time step.
type Series []Sample

// SortChronological returns a copy of the series ordered by timestamp.
// Equal timestamps keep their original relative order.
func (s Series) SortChronological() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}

// Values extracts the finite values in chronological order, dropping null samples
func (s Series) Values() []float64 {
	values := make([]float64, 0, len(s))
	for _, p := range s {
		if p.HasValue() {
			values = append(values, *p.Value)
		}
	}
	return values
}

// Tail returns the last n samples. n <= 0 returns the whole series.
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Between returns the samples whose timestamp falls within [fromMs, toMs].
// A zero bound is treated as open.
func (s Series) Between(fromMs, toMs int64) Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if fromMs != 0 && p.TimestampMs < fromMs {
			continue
		}
		if toMs != 0 && p.TimestampMs > toMs {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Latest returns the most recent sample with a finite value
func (s Series) Latest() (Sample, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].HasValue() {
			return s[i], true
		}
	}
	return Sample{}, false
}

// LatestValue returns the most recent finite value, or NaN when there is none
func (s Series) LatestValue() float64 {
	if p, ok := s.Latest(); ok {
		return *p.Value
	}
	return math.NaN()
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s)
}

// Record is one raw entry of a store snapshot, keyed by its store id.
// Fields hold numbers, numeric strings or timestamp strings under source-specific names.
type Record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// NewRecord wraps a decoded store value. Objects become the field map,
// a bare scalar (a daily kWh number for example) is stored under "value".
func NewRecord(id string, v interface{}) Record {
	if fields, ok := v.(map[string]interface{}); ok {
		return Record{ID: id, Fields: fields}
	}
	if v == nil {
		return Record{ID: id, Fields: map[string]interface{}{}}
	}
	return Record{ID: id, Fields: map[string]interface{}{"value": v}}
}
