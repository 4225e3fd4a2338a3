package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestToMillis(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int64
		ok       bool
	}{
		{"seconds int", 1700000000, 1700000000000, true},
		{"seconds float", 1700000000.5, 1700000000500, true},
		{"milliseconds", int64(1759485672000), 1759485672000, true},
		{"json number seconds", json.Number("1700000000"), 1700000000000, true},
		{"digit string ms", "1759485672000", 1759485672000, true},
		{"digit string seconds", "1700000000", 1700000000000, true},
		{"space separated", "2024-01-01 10:00:00", 1704103200000, true},
		{"iso without zone", "2024-01-01T10:00:00", 1704103200000, true},
		{"iso fractional", "2024-01-01T10:00:00.250", 1704103200250, true},
		{"rfc3339 utc", "2024-01-01T10:00:00Z", 1704103200000, true},
		{"rfc3339 offset", "2024-01-01T10:00:00+02:00", 1704096000000, true},
		{"date only", "2024-01-01", 1704067200000, true},
		{"slash date", "2024/01/01 10:00:00", 1704103200000, true},
		{"exponent string", "1.7e9", 1700000000000, true},
		{"padded", "  2024-01-01 10:00:00 ", 1704103200000, true},
		{"rfc1123", "Mon, 01 Jan 2024 10:00:00 GMT", 1704103200000, true},
		{"time value", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 1704103200000, true},

		{"nil", nil, 0, false},
		{"empty", "", 0, false},
		{"garbage", "yesterday-ish", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"overflow", 1e300, 0, false},
		{"bool", true, 0, false},
		{"map", map[string]interface{}{"a": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToMillis(tt.input, time.UTC)
			if ok != tt.ok {
				t.Fatalf("ToMillis(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("ToMillis(%v) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToMillis_ZonelessUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("+09:00", 9*3600)

	got, ok := ToMillis("2024-01-01 10:00:00", tokyo)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if got != 1704070800000 {
		t.Errorf("ToMillis in +09:00 = %d, want %d", got, int64(1704070800000))
	}

	// explicit offsets win over the location
	got, _ = ToMillis("2024-01-01T10:00:00Z", tokyo)
	if got != 1704103200000 {
		t.Errorf("ToMillis with explicit zone = %d, want %d", got, int64(1704103200000))
	}

	// nil location means UTC
	got, _ = ToMillis("2024-01-01 10:00:00", nil)
	if got != 1704103200000 {
		t.Errorf("ToMillis with nil location = %d, want %d", got, int64(1704103200000))
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		isNil    bool
	}{
		{"float", 7.2, 7.2, false},
		{"int", 5, 5, false},
		{"numeric string", "7.20", 7.2, false},
		{"padded string", " 6.5 ", 6.5, false},
		{"negative string", "-3", -3, false},
		{"json number", json.Number("8.1"), 8.1, false},
		{"bool", true, 1, false},

		{"nil", nil, 0, true},
		{"empty string", "", 0, true},
		{"blank string", "   ", 0, true},
		{"garbage", "abc", 0, true},
		{"nan string", "NaN", 0, true},
		{"inf string", "Infinity", 0, true},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(-1), 0, true},
		{"slice", []interface{}{1}, 0, true},
		{"map", map[string]interface{}{"v": 1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("ToFloat(%v) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ToFloat(%v) = nil, want %v", tt.input, tt.expected)
			}
			if math.Abs(*got-tt.expected) > 1e-12 {
				t.Errorf("ToFloat(%v) = %v, want %v", tt.input, *got, tt.expected)
			}
		})
	}
}
