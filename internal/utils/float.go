package utils

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// ToFloat64 converts a numeric Go value (any sized int, uint or float, or a
// json.Number from a UseNumber decoder) to float64.
// Strings and bools are not numbers here; the normalizer coerces those leniently.
func ToFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil, string, []byte, bool:
		return 0, false
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsFinite reports whether f is neither NaN nor infinite
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
