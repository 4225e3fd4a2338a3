package analytics

// Summary holds the headline statistics of a series.
// Nil fields mean there was no finite value and render as a "-" placeholder.
type Summary struct {
	Count           int      `json:"count"`
	Last            *float64 `json:"last"`
	Avg             *float64 `json:"avg"`
	Min             *float64 `json:"min"`
	Max             *float64 `json:"max"`
	LastTimestampMs *int64   `json:"last_timestamp_ms"`
}

// Summarize computes last/avg/min/max over the finite values of a series
func Summarize(s Series) Summary {
	values := s.Values()
	summary := Summary{Count: len(values)}
	if len(values) == 0 {
		return summary
	}

	sum := 0.0
	lo, hi := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	last := values[len(values)-1]
	avg := sum / float64(len(values))
	summary.Last = &last
	summary.Avg = &avg
	summary.Min = &lo
	summary.Max = &hi

	if p, ok := s.Latest(); ok {
		ts := p.TimestampMs
		summary.LastTimestampMs = &ts
	}
	return summary
}
