package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/prediction"
)

// SeriesProvider supplies normalized series by metric
type SeriesProvider interface {
	Series(kind analytics.MetricKind) (analytics.Series, error)
}

// Predictor is the model client used by PredictionService
type Predictor interface {
	FetchMeta(ctx context.Context) prediction.Meta
	PredictNext(ctx context.Context, series []float64, lags int) (*prediction.Result, error)
}

// PredictionService forecasts the next reading through the remote model
type PredictionService struct {
	logger  *logging.Logger
	client  Predictor
	series  SeriesProvider
	timeout time.Duration

	meta     prediction.Meta
	metaOnce sync.Once
	mu       sync.RWMutex
}

// NewPredictionService creates a new PredictionService.
// timeout bounds each model call; 0 leaves the caller's context unchanged.
func NewPredictionService(
	logger *logging.Logger,
	client Predictor,
	series SeriesProvider,
	timeout time.Duration,
	defaultLags int,
) *PredictionService {
	if defaultLags < 1 {
		defaultLags = prediction.DefaultLags
	}
	return &PredictionService{
		logger:  logger,
		client:  client,
		series:  series,
		timeout: timeout,
		meta:    prediction.Meta{Lags: defaultLags},
	}
}

// PredictRequest asks for the next DO value.
// When Series is empty the current DO series is used. The lag count
// always comes from the model meta.
type PredictRequest struct {
	Metric analytics.MetricKind `json:"metric,omitempty"`
	Series []float64            `json:"series,omitempty"`
}

// PredictResponse is the forecast of the next value
type PredictResponse struct {
	Metric  analytics.MetricKind `json:"metric"`
	Value   float64              `json:"value"`
	Clipped bool                 `json:"clipped"`
	Lags    int                  `json:"lags"`
	Inputs  int                  `json:"inputs"`
}

// Init loads the model metadata once; later calls return the cached value
func (s *PredictionService) Init(ctx context.Context) prediction.Meta {
	s.metaOnce.Do(func() {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		meta := s.client.FetchMeta(ctx)
		s.mu.Lock()
		s.meta = meta
		s.mu.Unlock()

		s.logger.Info("Prediction service initialized", "lags", meta.Lags, "meta_loaded", meta.Loaded)
	})
	return s.Meta()
}

// Meta returns the cached model metadata
func (s *PredictionService) Meta() prediction.Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Predict forecasts the next value. Errors are ServiceErrors with codes
// INVALID_METRIC, INSUFFICIENT_DATA or PREDICTION_FAILED.
func (s *PredictionService) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	kind := req.Metric
	if kind == "" {
		kind = analytics.MetricDO
	}
	// The model is trained on DO only
	if kind != analytics.MetricDO {
		return nil, &ServiceError{
			Code:    CodeInvalidMetric,
			Message: fmt.Sprintf("prediction is not supported for metric: %s", kind),
			Details: map[string]interface{}{"supported_metrics": []analytics.MetricKind{analytics.MetricDO}},
		}
	}

	values := req.Series
	if len(values) == 0 {
		series, err := s.series.Series(kind)
		if err != nil {
			return nil, err
		}
		values = series.Values()
	}

	lags := s.Meta().Lags

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.client.PredictNext(ctx, values, lags)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	logging.InfoCtx(ctx, "Prediction completed", "metric", kind, "value", result.Value, "clipped", result.Clipped, "lags", result.Lags)
	return &PredictResponse{
		Metric:  kind,
		Value:   result.Value,
		Clipped: result.Clipped,
		Lags:    result.Lags,
		Inputs:  len(values),
	}, nil
}

func (s *PredictionService) mapError(ctx context.Context, err error) error {
	var insufficient *prediction.InsufficientDataError
	if errors.As(err, &insufficient) {
		return &ServiceError{
			Code:    CodeInsufficientData,
			Message: err.Error(),
			Details: map[string]interface{}{
				"required": insufficient.Required,
				"have":     insufficient.Have,
			},
		}
	}

	logging.ErrorCtx(ctx, "Prediction failed", "error", err)
	return &ServiceError{
		Code:    CodePredictionFailed,
		Message: "Prediction failed",
		Details: map[string]interface{}{"error": err.Error()},
	}
}

func (s *PredictionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
