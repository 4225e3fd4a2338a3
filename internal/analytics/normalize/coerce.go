package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/utils"
)

// secondsCutoff separates second-resolution epochs from millisecond ones
const secondsCutoff = 1e12

// maxEpochMs bounds representable timestamps (±100,000,000 days around the epoch)
const maxEpochMs = 8.64e15

// dateLayouts are tried in order for timestamp strings.
// Layouts without a zone are interpreted in the caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02T15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// ToMillis coerces a raw timestamp into a Unix millisecond epoch.
//   - numbers below 1e12 are seconds, larger ones are already milliseconds
//   - digit-only strings follow the numeric rule
//   - "2024-01-01 10:00:00" style strings have their first space replaced by "T"
//   - anything else goes through generic date parsing, zone-less strings in loc
//
// The boolean is false when the value could not be interpreted.
func ToMillis(raw interface{}, loc *time.Location) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}

	if n, ok := utils.ToFloat64(raw); ok {
		return numericMillis(n)
	}

	switch v := raw.(type) {
	case string:
		return parseTimestampString(v, loc)
	case time.Time:
		if v.IsZero() {
			return 0, false
		}
		return v.UnixMilli(), true
	default:
		return 0, false
	}
}

func numericMillis(n float64) (int64, bool) {
	if !utils.IsFinite(n) {
		return 0, false
	}
	if n < secondsCutoff {
		n *= 1000
	}
	if math.Abs(n) > maxEpochMs {
		return 0, false
	}
	return int64(n), true
}

func parseTimestampString(raw string, loc *time.Location) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if isDigits(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return numericMillis(n)
	}

	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		if ms, ok := parseDate(strings.Replace(s, " ", "T", 1), loc); ok {
			return ms, true
		}
	}
	if ms, ok := parseDate(s, loc); ok {
		return ms, true
	}

	// "1.7e9" and friends
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return numericMillis(n)
	}
	return 0, false
}

func parseDate(s string, loc *time.Location) (int64, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ToFloat coerces a raw field into a finite float64.
// nil, empty strings, garbage and NaN/Inf all yield nil; it never panics.
func ToFloat(raw interface{}) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		raw = v
	}

	if n, ok := utils.ToFloat64(raw); ok {
		return analytics.Float(n)
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil
	}
	return analytics.Float(f)
}
