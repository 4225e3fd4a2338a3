// Package energy derives consumed energy from live power telemetry and daily totals.
package energy

import (
	"sort"
	"time"

	"github.com/aquasense/aquasense/internal/analytics"
)

// DayLayout is the key format of the daily energy store
const DayLayout = "2006-01-02"

const msPerHour = float64(time.Hour / time.Millisecond)

// Source tells where a daily figure came from
type Source string

const (
	SourceDaily Source = "daily"
	SourceLive  Source = "live"
)

// DayEnergy is the energy total of one calendar day
type DayEnergy struct {
	Day    string  `json:"day"`
	KWh    float64 `json:"kwh"`
	Source Source  `json:"source"`
}

// IntegrateKWh integrates a chronological power series (W) with the trapezoid rule.
// Pairs with a missing value or an unparsed timestamp are skipped.
func IntegrateKWh(power analytics.Series) float64 {
	if len(power) < 2 {
		return 0
	}

	wh := 0.0
	for i := 1; i < len(power); i++ {
		a, b := power[i-1], power[i]
		if !a.HasValue() || !b.HasValue() || !a.TimestampParsed || !b.TimestampParsed {
			continue
		}
		dtHours := float64(b.TimestampMs-a.TimestampMs) / msPerHour
		wh += (*a.Value + *b.Value) / 2 * dtHours
	}
	return wh / 1000
}

// DayKey formats a millisecond timestamp as YYYY-MM-DD in loc
func DayKey(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(DayLayout)
}

// dayOf returns the day a daily-store sample belongs to: its id when that is a
// day key, otherwise the day of its timestamp
func dayOf(s analytics.Sample, loc *time.Location) (string, bool) {
	if _, err := time.Parse(DayLayout, s.ID); err == nil {
		return s.ID, true
	}
	if s.TimestampParsed {
		return DayKey(s.TimestampMs, loc), true
	}
	return "", false
}

// DailyTotals lists the stored daily totals in day order, skipping null values
func DailyTotals(daily analytics.Series, loc *time.Location) []DayEnergy {
	out := make([]DayEnergy, 0, len(daily))
	for _, s := range daily {
		if !s.HasValue() {
			continue
		}
		day, ok := dayOf(s, loc)
		if !ok {
			continue
		}
		out = append(out, DayEnergy{Day: day, KWh: *s.Value, Source: SourceDaily})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// Today returns the energy of the current day. The day is that of the latest live
// sample, or now when there is none. A stored daily total wins; otherwise the
// day's live power samples are integrated.
func Today(live, daily analytics.Series, loc *time.Location, now time.Time) DayEnergy {
	if loc == nil {
		loc = time.UTC
	}

	key := now.In(loc).Format(DayLayout)
	if len(live) > 0 {
		key = DayKey(live[len(live)-1].TimestampMs, loc)
	}

	for _, d := range DailyTotals(daily, loc) {
		if d.Day == key {
			return d
		}
	}

	sameDay := make(analytics.Series, 0, len(live))
	for _, s := range live {
		if DayKey(s.TimestampMs, loc) == key {
			sameDay = append(sameDay, s)
		}
	}
	return DayEnergy{Day: key, KWh: IntegrateKWh(sameDay), Source: SourceLive}
}
