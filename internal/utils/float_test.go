package utils

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		ok       bool
	}{
		// Float types
		{"float64", float64(3.14), 3.14, true},
		{"float32", float32(2.5), 2.5, true},

		// Signed integers
		{"int", int(42), 42, true},
		{"int8", int8(8), 8, true},
		{"int16", int16(16), 16, true},
		{"int32", int32(32), 32, true},
		{"int64", int64(1704103200), 1704103200, true},

		// Unsigned integers
		{"uint", uint(100), 100, true},
		{"uint8", uint8(8), 8, true},
		{"uint16", uint16(16), 16, true},
		{"uint32", uint32(32), 32, true},
		{"uint64", uint64(64), 64, true},

		// Decoder numbers
		{"json number", json.Number("7.25"), 7.25, true},
		{"json number integer", json.Number("1704103200000"), 1704103200000, true},
		{"json number invalid", json.Number("abc"), 0, false},
		{"json number exponent", json.Number("1.7e9"), 1.7e9, true},

		// Negative numbers
		{"negative int", int(-42), -42, true},
		{"negative float64", float64(-3.14), -3.14, true},

		// Invalid types
		{"string", "7.2", 0, false},
		{"bool true", true, 0, false},
		{"bytes", []byte("7"), 0, false},
		{"nil", nil, 0, false},
		{"slice", []int{1, 2, 3}, 0, false},
		{"map", map[string]int{"a": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ToFloat64(tt.input)

			if ok != tt.ok {
				t.Errorf("ToFloat64(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}

			if result != tt.expected {
				t.Errorf("ToFloat64(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		input    float64
		expected bool
	}{
		{0, true},
		{-12.5, true},
		{math.MaxFloat64, true},
		{math.NaN(), false},
		{math.Inf(1), false},
		{math.Inf(-1), false},
	}

	for _, tt := range tests {
		if got := IsFinite(tt.input); got != tt.expected {
			t.Errorf("IsFinite(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func BenchmarkToFloat64(b *testing.B) {
	values := []interface{}{
		float64(3.14),
		int(42),
		int64(1000),
		json.Number("2.5"),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, v := range values {
			ToFloat64(v)
		}
	}
}
