package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/analytics/anomaly"
	"github.com/aquasense/aquasense/internal/analytics/energy"
	"github.com/aquasense/aquasense/internal/analytics/forecast"
	"github.com/aquasense/aquasense/internal/analytics/normalize"
	"github.com/aquasense/aquasense/internal/analytics/quality"
	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/feed"
	"github.com/aquasense/aquasense/internal/insight"
	"github.com/aquasense/aquasense/internal/logging"
)

// DashboardConfig holds everything the dashboard needs to derive its views
type DashboardConfig struct {
	Topics   config.TopicsConfig
	Location *time.Location
	Composer insight.Composer
	Ranges   map[analytics.MetricKind]quality.Range
	// Now is the wall clock; tests pin it
	Now func() time.Time
}

// NewDashboardConfig builds a DashboardConfig from the application config
func NewDashboardConfig(cfg *config.Config) DashboardConfig {
	composer := insight.NewComposer(ThresholdsFrom(cfg.Thresholds))
	composer.Window = cfg.Analysis.Window
	composer.Lookback = cfg.Analysis.Lookback
	composer.AnomalyThreshold = cfg.Analysis.AnomalyThreshold

	return DashboardConfig{
		Topics:   cfg.Topics,
		Location: cfg.Analysis.Location(),
		Composer: composer,
		Ranges:   RangesFrom(cfg.Thresholds.Ranges),
		Now:      time.Now,
	}
}

// ThresholdsFrom converts the configured thresholds for the classifier
func ThresholdsFrom(t config.ThresholdsConfig) quality.Thresholds {
	return quality.Thresholds{
		DOMin:            t.DOMin,
		PHMin:            t.PHMin,
		PHMax:            t.PHMax,
		TempMin:          t.TempMin,
		TempCeiling:      t.TempCeiling,
		TempRecommendMax: t.TempRecommendMax,
	}
}

// RangesFrom converts the configured process ranges for the assessment
func RangesFrom(r config.RangesConfig) map[analytics.MetricKind]quality.Range {
	return map[analytics.MetricKind]quality.Range{
		analytics.MetricPH:          {Lo: r.PH.Lo, Hi: r.PH.Hi},
		analytics.MetricDO:          {Lo: r.DO.Lo, Hi: r.DO.Hi},
		analytics.MetricTemperature: {Lo: r.Temperature.Lo, Hi: r.Temperature.Hi},
	}
}

// DashboardService keeps the latest snapshot of every topic and derives the
// dashboard views from them on demand
type DashboardService struct {
	logger    *logging.Logger
	source    feed.Source
	cfg       DashboardConfig
	specs     map[analytics.MetricKind]normalize.FieldSpec
	snapshots map[string]feed.Snapshot
	mu        sync.RWMutex
}

// NewDashboardService creates a new DashboardService. source may be nil when
// snapshots are pushed through Apply only.
func NewDashboardService(logger *logging.Logger, source feed.Source, cfg DashboardConfig) *DashboardService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Ranges == nil {
		cfg.Ranges = quality.DefaultRanges()
	}
	if cfg.Composer.Window == 0 {
		cfg.Composer = insight.NewComposer(quality.DefaultThresholds())
	}

	return &DashboardService{
		logger:    logger,
		source:    source,
		cfg:       cfg,
		specs:     normalize.DefaultFieldSpecs(),
		snapshots: make(map[string]feed.Snapshot),
	}
}

// Start watches every configured topic
func (s *DashboardService) Start(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("dashboard has no feed source")
	}

	for _, topic := range s.cfg.Topics.All() {
		if err := s.source.Watch(ctx, topic, s.handleSnapshot); err != nil {
			return fmt.Errorf("failed to watch %s: %w", topic, err)
		}
	}
	s.logger.Info("Dashboard watching feed", "topics", s.cfg.Topics.All())
	return nil
}

func (s *DashboardService) handleSnapshot(ctx context.Context, snapshot feed.Snapshot) error {
	s.Apply(snapshot)
	logging.DebugCtx(ctx, "Snapshot applied", "records", snapshot.Len())
	return nil
}

// Apply stores snapshot as the current content of its topic
func (s *DashboardService) Apply(snapshot feed.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Topic] = snapshot
}

// topicFor maps a metric to the topic that carries it
func (s *DashboardService) topicFor(kind analytics.MetricKind) string {
	t := s.cfg.Topics
	switch kind {
	case analytics.MetricDO:
		return t.DO
	case analytics.MetricPH:
		return t.PH
	case analytics.MetricTemperature:
		return t.Temperature
	case analytics.MetricDistance, analytics.MetricWaterLevel:
		return t.Ultrasonic
	case analytics.MetricVoltage, analytics.MetricCurrent, analytics.MetricPower:
		return t.EnergyLive
	case analytics.MetricEnergyDaily:
		return t.EnergyDaily
	default:
		return ""
	}
}

// Series normalizes the current snapshot of the metric's topic.
// A topic that has not delivered yet yields an empty series.
func (s *DashboardService) Series(kind analytics.MetricKind) (analytics.Series, error) {
	spec, ok := s.specs[kind]
	if !ok {
		return nil, invalidMetric(kind)
	}

	s.mu.RLock()
	snapshot, ok := s.snapshots[s.topicFor(kind)]
	s.mu.RUnlock()
	if !ok {
		return analytics.Series{}, nil
	}

	opts := normalize.Options{
		Location: s.cfg.Location,
		Now:      s.cfg.Now,
		// Energy records are keyed by their timestamp or day
		UseIDAsTimestamp: kind == analytics.MetricVoltage || kind == analytics.MetricCurrent ||
			kind == analytics.MetricPower || kind == analytics.MetricEnergyDaily,
	}
	return normalize.Normalize(snapshot.Records, spec, opts), nil
}

// mustSeries is Series for kinds known to have a spec
func (s *DashboardService) mustSeries(kind analytics.MetricKind) analytics.Series {
	series, err := s.Series(kind)
	if err != nil {
		s.logger.Error("No field spec for metric", "metric", kind, "error", err)
		return analytics.Series{}
	}
	return series
}

// InsightsResult is the insight page payload
type InsightsResult struct {
	insight.Report
	GeneratedAt time.Time `json:"generated_at"`
}

// Insights composes per-metric insights, recommendations and the verdict
func (s *DashboardService) Insights() *InsightsResult {
	report := s.cfg.Composer.Compose(
		s.mustSeries(analytics.MetricDO),
		s.mustSeries(analytics.MetricPH),
		s.mustSeries(analytics.MetricTemperature),
	)
	return &InsightsResult{Report: report, GeneratedAt: s.cfg.Now()}
}

// MetricResult is the detail view of one metric
type MetricResult struct {
	Metric     analytics.Metric    `json:"metric"`
	Summary    analytics.Summary   `json:"summary"`
	Trend      forecast.Trend      `json:"trend"`
	Anomaly    anomaly.Score       `json:"anomaly"`
	Assessment *quality.Assessment `json:"assessment,omitempty"`
	Samples    analytics.Series    `json:"samples"`
	From       *int64              `json:"from,omitempty"`
	To         *int64              `json:"to,omitempty"`
}

// Metric returns summary, trend, forecast, z-score and range assessment of one
// metric, restricted to [fromMs, toMs] (zero bounds are open)
func (s *DashboardService) Metric(kind analytics.MetricKind, fromMs, toMs int64) (*MetricResult, error) {
	metric, err := analytics.LookupMetric(kind)
	if err != nil {
		return nil, invalidMetric(kind)
	}
	if fromMs != 0 && toMs != 0 && fromMs > toMs {
		return nil, &ServiceError{
			Code:    CodeInvalidRange,
			Message: "from must not be after to",
			Details: map[string]interface{}{"from": fromMs, "to": toMs},
		}
	}

	series, err := s.Series(kind)
	if err != nil {
		return nil, err
	}
	series = series.Between(fromMs, toMs)

	c := s.cfg.Composer
	window := series.Tail(c.Window).Values()

	result := &MetricResult{
		Metric:  metric,
		Summary: analytics.Summarize(series),
		Trend:   forecast.Estimate(window, forecast.DefaultHorizon),
		Anomaly: anomaly.Evaluate(window, c.Lookback, c.AnomalyThreshold),
		Samples: series,
	}
	if fromMs != 0 {
		result.From = &fromMs
	}
	if toMs != 0 {
		result.To = &toMs
	}
	if r, ok := s.cfg.Ranges[kind]; ok {
		a := quality.Assess(metric, series.LatestValue(), r)
		result.Assessment = &a
	}
	return result, nil
}

// TankResult is the tank level view
type TankResult struct {
	Distance   analytics.Summary `json:"distance"`
	WaterLevel analytics.Summary `json:"water_level"`
	Samples    []TankSample      `json:"samples"`
}

// TankSample pairs distance and water level readings of one record
type TankSample struct {
	ID           string   `json:"id,omitempty"`
	TimestampMs  int64    `json:"timestamp_ms"`
	DistanceCm   *float64 `json:"distance_cm"`
	WaterLevelCm *float64 `json:"water_level_cm"`
}

// Tank returns the ultrasonic tank readings, newest last
func (s *DashboardService) Tank() *TankResult {
	distance := s.mustSeries(analytics.MetricDistance)
	level := s.mustSeries(analytics.MetricWaterLevel)

	// Both series come from the same records, sorted by the same timestamps
	samples := make([]TankSample, len(distance))
	for i, d := range distance {
		samples[i] = TankSample{ID: d.ID, TimestampMs: d.TimestampMs, DistanceCm: d.Value}
		if i < len(level) {
			samples[i].WaterLevelCm = level[i].Value
		}
	}

	return &TankResult{
		Distance:   analytics.Summarize(distance),
		WaterLevel: analytics.Summarize(level),
		Samples:    samples,
	}
}

// EnergyResult is the energy telemetry view
type EnergyResult struct {
	Today   energy.DayEnergy   `json:"today"`
	Daily   []energy.DayEnergy `json:"daily"`
	Voltage analytics.Summary  `json:"voltage"`
	Current analytics.Summary  `json:"current"`
	Power   analytics.Summary  `json:"power"`
}

// Energy returns live electrical readings and daily energy totals
func (s *DashboardService) Energy() *EnergyResult {
	power := s.mustSeries(analytics.MetricPower)
	daily := s.mustSeries(analytics.MetricEnergyDaily)

	return &EnergyResult{
		Today:   energy.Today(power, daily, s.cfg.Location, s.cfg.Now()),
		Daily:   energy.DailyTotals(daily, s.cfg.Location),
		Voltage: analytics.Summarize(s.mustSeries(analytics.MetricVoltage)),
		Current: analytics.Summarize(s.mustSeries(analytics.MetricCurrent)),
		Power:   analytics.Summarize(power),
	}
}

func invalidMetric(kind analytics.MetricKind) *ServiceError {
	return &ServiceError{
		Code:    CodeInvalidMetric,
		Message: fmt.Sprintf("unknown metric: %s", kind),
		Details: map[string]interface{}{"available_metrics": analytics.ListMetrics()},
	}
}
