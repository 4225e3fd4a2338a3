package analytics

import "fmt"

// MetricKind identifies a logical sensor measurement
type MetricKind string

const (
	MetricDO          MetricKind = "do"
	MetricPH          MetricKind = "ph"
	MetricTemperature MetricKind = "temperature"
	MetricDistance    MetricKind = "distance"
	MetricWaterLevel  MetricKind = "water_level"
	MetricVoltage     MetricKind = "voltage"
	MetricCurrent     MetricKind = "current"
	MetricPower       MetricKind = "power"
	MetricEnergyDaily MetricKind = "energy_daily"
)

// Metric describes how a measurement is labelled and rendered
type Metric struct {
	Kind  MetricKind `json:"kind"`
	Label string     `json:"label"`
	// Unit is appended to rendered values ("" for dimensionless pH)
	Unit string `json:"unit"`
	// TrendUnit names the unit of a per-sample slope
	TrendUnit string `json:"trend_unit"`
}

var metrics = map[MetricKind]Metric{
	MetricDO:          {Kind: MetricDO, Label: "Dissolved Oxygen", Unit: "mg/L", TrendUnit: "mg/L"},
	MetricPH:          {Kind: MetricPH, Label: "pH", Unit: "", TrendUnit: "pH"},
	MetricTemperature: {Kind: MetricTemperature, Label: "Temperature", Unit: "°C", TrendUnit: "°C"},
	MetricDistance:    {Kind: MetricDistance, Label: "Distance", Unit: "cm", TrendUnit: "cm"},
	MetricWaterLevel:  {Kind: MetricWaterLevel, Label: "Water Level", Unit: "cm", TrendUnit: "cm"},
	MetricVoltage:     {Kind: MetricVoltage, Label: "Voltage", Unit: "V", TrendUnit: "V"},
	MetricCurrent:     {Kind: MetricCurrent, Label: "Current", Unit: "A", TrendUnit: "A"},
	MetricPower:       {Kind: MetricPower, Label: "Power", Unit: "W", TrendUnit: "W"},
	MetricEnergyDaily: {Kind: MetricEnergyDaily, Label: "Daily Energy", Unit: "kWh", TrendUnit: "kWh"},
}

// LookupMetric returns the metric definition for kind
func LookupMetric(kind MetricKind) (Metric, error) {
	if m, ok := metrics[kind]; ok {
		return m, nil
	}
	return Metric{}, fmt.Errorf("unknown metric: %s", kind)
}

// MustMetric is LookupMetric for kinds declared in this package
func MustMetric(kind MetricKind) Metric {
	m, err := LookupMetric(kind)
	if err != nil {
		panic(err)
	}
	return m
}

// ListMetrics returns all known metric kinds in a stable order
func ListMetrics() []MetricKind {
	return []MetricKind{
		MetricDO, MetricPH, MetricTemperature,
		MetricDistance, MetricWaterLevel,
		MetricVoltage, MetricCurrent, MetricPower, MetricEnergyDaily,
	}
}
