// Package downsample thins a series for charting while keeping its visual shape.
package downsample

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquasense/aquasense/internal/analytics"
)

// Mode selects the thinning algorithm
type Mode string

const (
	ModeNone    Mode = "none"
	ModeAuto    Mode = "auto"
	ModeLTTB    Mode = "lttb"
	ModeMinMax  Mode = "minmax"
	ModeAverage Mode = "avg"
	ModeM4      Mode = "m4"
)

// DefaultPoints is the target size when the caller gives none
const DefaultPoints = 500

// minPoints keeps first and last
const minPoints = 2

// ParseMode accepts a mode name case-insensitively; "" is ModeNone
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return ModeNone, nil
	case ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeAverage, ModeM4:
		return m, nil
	default:
		return ModeNone, fmt.Errorf("unknown downsample mode %q (supported: none, auto, lttb, minmax, avg, m4)", s)
	}
}

// Apply reduces s to about points samples. Series that already fit are
// returned unchanged, nulls included; otherwise null samples are dropped first.
func Apply(s analytics.Series, mode Mode, points int) analytics.Series {
	if mode == ModeNone || mode == "" {
		return s
	}
	if points <= 0 {
		points = DefaultPoints
	}
	if points < minPoints {
		points = minPoints
	}
	if len(s) <= points {
		return s
	}

	data := make(analytics.Series, 0, len(s))
	for _, p := range s {
		if p.HasValue() {
			data = append(data, p)
		}
	}
	if len(data) <= points {
		return data
	}

	if mode == ModeAuto {
		mode = pick(data)
	}

	switch mode {
	case ModeMinMax:
		return pickIndices(data, minmax(data, points))
	case ModeM4:
		return pickIndices(data, m4(data, points))
	case ModeAverage:
		return average(data, points)
	default:
		return pickIndices(data, lttb(data, points))
	}
}

func value(p analytics.Sample) float64 {
	return *p.Value
}

func pickIndices(data analytics.Series, idx []int) analytics.Series {
	out := make(analytics.Series, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}

// pick chooses minmax for spiky series, m4 for moderately noisy ones and lttb otherwise
func pick(data analytics.Series) Mode {
	switch score := spikiness(data); {
	case score > 0.2:
		return ModeMinMax
	case score > 0.1:
		return ModeM4
	default:
		return ModeLTTB
	}
}

// spikiness in [0, 1] blends the share of samples beyond 2 sigma with the share
// of steps larger than one sigma
func spikiness(data analytics.Series) float64 {
	n := len(data)
	if n < 10 {
		return 0
	}

	var sum float64
	for _, p := range data {
		sum += value(p)
	}
	mean := sum / float64(n)

	var variance float64
	for _, p := range data {
		d := value(p) - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(n))
	if sd == 0 {
		return 0
	}

	outliers, jumps := 0, 0
	for i, p := range data {
		if math.Abs(value(p)-mean) > 2*sd {
			outliers++
		}
		if i > 0 && math.Abs(value(p)-value(data[i-1])) > sd {
			jumps++
		}
	}

	score := (float64(outliers)/float64(n) + 1.5*float64(jumps)/float64(n-1)) / 2.5
	return math.Min(score, 1)
}

// bucket returns the [start, end) bounds of bucket i out of buckets over n samples
func bucket(i, buckets, n int) (int, int) {
	size := float64(n) / float64(buckets)
	start := int(float64(i) * size)
	end := int(float64(i+1) * size)
	if end > n {
		end = n
	}
	return start, end
}

// lttb is Largest-Triangle-Three-Buckets over sample index as x
func lttb(data analytics.Series, points int) []int {
	n := len(data)
	if points <= minPoints {
		return []int{0, n - 1}
	}

	out := make([]int, 0, points)
	out = append(out, 0)
	size := float64(n-2) / float64(points-2)
	a := 0

	for i := 0; i < points-2; i++ {
		// centroid of the next bucket
		nextStart := int(math.Floor(float64(i+1)*size)) + 1
		nextEnd := int(math.Floor(float64(i+2)*size)) + 1
		if nextEnd > n {
			nextEnd = n
		}
		var cx, cy float64
		for j := nextStart; j < nextEnd; j++ {
			cx += float64(j)
			cy += value(data[j])
		}
		if cnt := float64(nextEnd - nextStart); cnt > 0 {
			cx /= cnt
			cy /= cnt
		}

		start := int(math.Floor(float64(i)*size)) + 1
		end := int(math.Floor(float64(i+1)*size)) + 1
		ax, ay := float64(a), value(data[a])

		best, bestArea := start, -1.0
		for j := start; j < end; j++ {
			area := math.Abs((ax-cx)*(value(data[j])-ay)-(ax-float64(j))*(cy-ay)) / 2
			if area > bestArea {
				best, bestArea = j, area
			}
		}
		out = append(out, best)
		a = best
	}

	return append(out, n-1)
}

// extremes returns the indices of the lowest and highest sample in [start, end)
func extremes(data analytics.Series, start, end int) (int, int) {
	lo, hi := start, start
	for j := start + 1; j < end; j++ {
		if value(data[j]) < value(data[lo]) {
			lo = j
		}
		if value(data[j]) > value(data[hi]) {
			hi = j
		}
	}
	return lo, hi
}

// minmax keeps the low and high of each bucket in time order
func minmax(data analytics.Series, points int) []int {
	buckets := max(points/2, 1)
	out := make([]int, 0, buckets*2)

	for i := 0; i < buckets; i++ {
		start, end := bucket(i, buckets, len(data))
		if start >= end {
			continue
		}
		lo, hi := extremes(data, start, end)
		out = appendOrdered(out, lo, hi)
	}
	return out
}

// m4 keeps first, low, high and last of each bucket
func m4(data analytics.Series, points int) []int {
	buckets := max(points/4, 1)
	out := make([]int, 0, buckets*4)

	for i := 0; i < buckets; i++ {
		start, end := bucket(i, buckets, len(data))
		if start >= end {
			continue
		}
		lo, hi := extremes(data, start, end)
		out = appendOrdered(out, start, lo, hi, end-1)
	}
	return out
}

// appendOrdered appends the distinct indices in ascending order
func appendOrdered(out []int, idx ...int) []int {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j] < idx[j-1]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	for i, j := range idx {
		if i > 0 && j == idx[i-1] {
			continue
		}
		out = append(out, j)
	}
	return out
}

// average replaces each bucket by its mean, stamped with the middle sample
func average(data analytics.Series, points int) analytics.Series {
	out := make(analytics.Series, 0, points)

	for i := 0; i < points; i++ {
		start, end := bucket(i, points, len(data))
		if start >= end {
			continue
		}
		var sum float64
		for j := start; j < end; j++ {
			sum += value(data[j])
		}
		mid := data[start+(end-start)/2]
		out = append(out, analytics.Sample{
			ID:              mid.ID,
			TimestampMs:     mid.TimestampMs,
			Value:           analytics.Float(sum / float64(end-start)),
			TimestampParsed: mid.TimestampParsed,
		})
	}
	return out
}
