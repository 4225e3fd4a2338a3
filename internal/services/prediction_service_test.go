package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/prediction"
)

// modelTransport is a prediction.Transport that answers like the model server
type modelTransport struct {
	metaCalls    atomic.Int32
	predictCalls atomic.Int32
	metaBody     string
	predictCode  int
	predictBody  string
	sawDeadline  atomic.Bool
}

func (m *modelTransport) Do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	if _, ok := ctx.Deadline(); ok {
		m.sawDeadline.Store(true)
	}
	if method == "GET" {
		m.metaCalls.Add(1)
		if m.metaBody == "" {
			return 0, nil, errors.New("connection refused")
		}
		return 200, []byte(m.metaBody), nil
	}
	m.predictCalls.Add(1)
	return m.predictCode, []byte(m.predictBody), nil
}

func newPredictionService(t *testing.T, transport *modelTransport, provider SeriesProvider, timeout time.Duration) *PredictionService {
	t.Helper()
	client := prediction.NewClient(prediction.Config{
		PredictURL:  "http://model/predict_do",
		MetaURL:     "http://model/meta",
		DefaultLags: prediction.DefaultLags,
	}, transport)
	return NewPredictionService(logging.NewNop(), client, provider, timeout, prediction.DefaultLags)
}

// staticSeries serves fixed series per metric
type staticSeries map[analytics.MetricKind][]float64

func (s staticSeries) Series(kind analytics.MetricKind) (analytics.Series, error) {
	if kind == "salinity" {
		return nil, invalidMetric(kind)
	}
	values := s[kind]
	series := make(analytics.Series, len(values))
	for i, v := range values {
		series[i] = analytics.Sample{TimestampMs: int64(i), Value: analytics.Float(v), TimestampParsed: true}
	}
	return series, nil
}

func TestPredictionService_InitCachesMeta(t *testing.T) {
	transport := &modelTransport{metaBody: `{"lags": 3}`}
	svc := newPredictionService(t, transport, staticSeries{}, 0)

	meta := svc.Init(context.Background())
	assert.Equal(t, 3, meta.Lags)
	assert.True(t, meta.Loaded)

	svc.Init(context.Background())
	assert.Equal(t, int32(1), transport.metaCalls.Load())
	assert.Equal(t, 3, svc.Meta().Lags)
}

func TestPredictionService_InitFallsBackToDefault(t *testing.T) {
	svc := newPredictionService(t, &modelTransport{}, staticSeries{}, 0)

	meta := svc.Init(context.Background())

	assert.Equal(t, prediction.DefaultLags, meta.Lags)
	assert.False(t, meta.Loaded)
}

func TestPredictionService_PredictFromDashboardSeries(t *testing.T) {
	transport := &modelTransport{metaBody: `{"lags": 3}`, predictCode: 200, predictBody: `{"yhat": 6.1, "clipped": false}`}
	svc := newPredictionService(t, transport, staticSeries{analytics.MetricDO: {5, 5.5, 6, 6.2}}, time.Second)
	svc.Init(context.Background())

	resp, err := svc.Predict(context.Background(), &PredictRequest{})

	require.NoError(t, err)
	assert.Equal(t, analytics.MetricDO, resp.Metric)
	assert.Equal(t, 6.1, resp.Value)
	assert.Equal(t, 3, resp.Lags)
	assert.Equal(t, 4, resp.Inputs)
	assert.True(t, transport.sawDeadline.Load())
}

func TestPredictionService_PredictExplicitSeries(t *testing.T) {
	transport := &modelTransport{metaBody: `{"lags": 2}`, predictCode: 200, predictBody: `{"yhat": 9.9, "clipped": true}`}
	svc := newPredictionService(t, transport, staticSeries{}, 0)
	svc.Init(context.Background())

	resp, err := svc.Predict(context.Background(), &PredictRequest{Series: []float64{1, 2}})

	require.NoError(t, err)
	assert.True(t, resp.Clipped)
	assert.Equal(t, 2, resp.Lags)
	assert.False(t, transport.sawDeadline.Load())
}

func TestPredictionService_InsufficientData(t *testing.T) {
	transport := &modelTransport{predictCode: 200, predictBody: `{"yhat": 1}`}
	svc := newPredictionService(t, transport, staticSeries{analytics.MetricDO: {5, 6, 7}}, 0)

	_, err := svc.Predict(context.Background(), &PredictRequest{})

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INSUFFICIENT_DATA", svcErr.Code)
	assert.Equal(t, 6, svcErr.Details["required"])
	assert.Equal(t, 3, svcErr.Details["have"])
	assert.Equal(t, int32(0), transport.predictCalls.Load())
}

func TestPredictionService_ShortSeriesUsesModelLags(t *testing.T) {
	transport := &modelTransport{metaBody: `{"lags": 6}`, predictCode: 200, predictBody: `{"yhat": 7.5}`}
	svc := newPredictionService(t, transport, staticSeries{}, 0)
	svc.Init(context.Background())

	_, err := svc.Predict(context.Background(), &PredictRequest{
		Metric: analytics.MetricDO,
		Series: []float64{7, 7.2, 7.1},
	})

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INSUFFICIENT_DATA", svcErr.Code)
	assert.Equal(t, 6, svcErr.Details["required"])
	assert.Equal(t, 3, svcErr.Details["have"])
	assert.Equal(t, int32(0), transport.predictCalls.Load())
}

func TestPredictionService_OnlyDO(t *testing.T) {
	transport := &modelTransport{metaBody: `{"lags": 2}`, predictCode: 200, predictBody: `{"yhat": 5.4}`}
	svc := newPredictionService(t, transport, staticSeries{analytics.MetricPH: {7, 7.2, 7.1}}, 0)
	svc.Init(context.Background())

	for _, kind := range []analytics.MetricKind{analytics.MetricPH, analytics.MetricTemperature, "salinity"} {
		_, err := svc.Predict(context.Background(), &PredictRequest{Metric: kind})

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr, kind)
		assert.Equal(t, "INVALID_METRIC", svcErr.Code, kind)
	}
	assert.Equal(t, int32(0), transport.predictCalls.Load())
}

func TestPredictionService_PredictionFailed(t *testing.T) {
	transport := &modelTransport{predictCode: 500, predictBody: `oops`}
	svc := newPredictionService(t, transport, staticSeries{}, 0)

	_, err := svc.Predict(context.Background(), &PredictRequest{Series: []float64{1, 2, 3, 4, 5, 6}})

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "PREDICTION_FAILED", svcErr.Code)
	assert.Contains(t, svcErr.Details["error"], "status 500")
}

func TestPredictionService_UnknownMetric(t *testing.T) {
	svc := newPredictionService(t, &modelTransport{}, staticSeries{}, 0)

	_, err := svc.Predict(context.Background(), &PredictRequest{Metric: "salinity"})

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "INVALID_METRIC", svcErr.Code)
}
