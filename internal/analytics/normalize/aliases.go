package normalize

import (
	"github.com/aquasense/aquasense/internal/analytics"
)

// DefaultTimestampAliases is the timestamp key priority shared by every topic
var DefaultTimestampAliases = []string{"timestamp", "Timestamp", "time", "Time", "ts"}

// Product derives a value as Left * Right when no direct alias yields a finite number.
// Each side is resolved with its own alias list.
type Product struct {
	Left  []string
	Right []string
}

// FieldSpec tells the normalizer where a metric's value lives in a raw record
type FieldSpec struct {
	Kind analytics.MetricKind
	// Aliases are tried in order; the first key present with a non-nil value wins
	Aliases []string
	Product *Product
}

// DefaultFieldSpecs returns the alias table for every known metric.
// The returned map is a fresh copy and may be modified by the caller.
func DefaultFieldSpecs() map[analytics.MetricKind]FieldSpec {
	voltage := []string{"v", "voltage"}
	current := []string{"i", "current"}

	return map[analytics.MetricKind]FieldSpec{
		analytics.MetricDO:          {Kind: analytics.MetricDO, Aliases: []string{"do_mg_L"}},
		analytics.MetricPH:          {Kind: analytics.MetricPH, Aliases: []string{"ph"}},
		analytics.MetricTemperature: {Kind: analytics.MetricTemperature, Aliases: []string{"temperature"}},
		analytics.MetricDistance: {
			Kind:    analytics.MetricDistance,
			Aliases: []string{"distance_cm", "distance", "Distance", "distanceCM", "Empty_Distance", "EmptyDistance"},
		},
		analytics.MetricWaterLevel: {
			Kind:    analytics.MetricWaterLevel,
			Aliases: []string{"water_level_cm", "waterLevel_cm", "Water_Level", "waterLevel", "level"},
		},
		analytics.MetricVoltage: {Kind: analytics.MetricVoltage, Aliases: voltage},
		analytics.MetricCurrent: {Kind: analytics.MetricCurrent, Aliases: current},
		analytics.MetricPower: {
			Kind:    analytics.MetricPower,
			Aliases: []string{"p", "power"},
			Product: &Product{Left: voltage, Right: current},
		},
		analytics.MetricEnergyDaily: {Kind: analytics.MetricEnergyDaily, Aliases: []string{"energy_kWh", "kWh", "value"}},
	}
}

// Lookup returns the value of the first alias present in fields with a non-nil value
func Lookup(fields map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		if v, ok := fields[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Value extracts the metric value of one record, or nil when it is missing or not finite
func (s FieldSpec) Value(fields map[string]interface{}) *float64 {
	raw, _ := Lookup(fields, s.Aliases)
	v := ToFloat(raw)
	if v != nil || s.Product == nil {
		return v
	}

	left, _ := Lookup(fields, s.Product.Left)
	right, _ := Lookup(fields, s.Product.Right)
	l, r := ToFloat(left), ToFloat(right)
	if l == nil || r == nil {
		return nil
	}
	return analytics.Float(*l * *r)
}
