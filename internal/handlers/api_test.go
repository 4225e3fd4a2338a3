package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasense/aquasense/internal/analytics/quality"
	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/feed"
	"github.com/aquasense/aquasense/internal/insight"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/models"
	"github.com/aquasense/aquasense/internal/prediction"
	"github.com/aquasense/aquasense/internal/services"
)

const baseMs = int64(1704103200000) // 2024-01-01 10:00:00 UTC

// stubPredictor answers predictions without a model server
type stubPredictor struct {
	meta     prediction.Meta
	result   *prediction.Result
	err      error
	calls    int
	lastLags int
}

func (s *stubPredictor) FetchMeta(ctx context.Context) prediction.Meta {
	return s.meta
}

func (s *stubPredictor) PredictNext(ctx context.Context, series []float64, lags int) (*prediction.Result, error) {
	s.lastLags = lags
	if len(series) < lags {
		return nil, &prediction.InsufficientDataError{Required: lags, Have: len(series)}
	}
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func readings(field string, values ...float64) []feed.Record {
	records := make([]feed.Record, len(values))
	for i, v := range values {
		records[i] = feed.Record{
			ID:     fmt.Sprintf("r%02d", i),
			Fields: map[string]interface{}{field: v, "timestamp": baseMs + int64(i)*60_000},
		}
	}
	return records
}

func newTestDashboard() *services.DashboardService {
	topics := config.DefaultConfig().Topics
	d := services.NewDashboardService(logging.NewNop(), nil, services.DashboardConfig{
		Topics:   topics,
		Location: time.UTC,
		Composer: insight.NewComposer(quality.DefaultThresholds()),
		Now:      func() time.Time { return time.UnixMilli(baseMs + 3_600_000).UTC() },
	})
	d.Apply(feed.Snapshot{Topic: topics.DO, Records: readings("do_mg_L", 6.0, 6.1, 6.2, 6.3, 6.4, 6.5, 6.6)})
	d.Apply(feed.Snapshot{Topic: topics.PH, Records: readings("ph", 7.1, 7.0, 7.1)})
	d.Apply(feed.Snapshot{Topic: topics.Temperature, Records: readings("temperature", 27, 27.5, 28)})
	d.Apply(feed.Snapshot{Topic: topics.Ultrasonic, Records: readings("distance_cm", 31, 30)})
	return d
}

func setupApp(predictor services.Predictor) *fiber.App {
	logger := logging.NewNop()
	dashboard := newTestDashboard()

	var predictionService *services.PredictionService
	if predictor != nil {
		predictionService = services.NewPredictionService(logger, predictor, dashboard, 0, prediction.DefaultLags)
		predictionService.Init(context.Background())
	}

	h := New(logger, time.UTC, dashboard, predictionService)
	app := fiber.New()
	app.Get("/v1/insights", h.GetInsights)
	app.Get("/v1/metrics", h.ListMetrics)
	app.Get("/v1/metrics/:metric", h.GetMetric)
	app.Get("/v1/tank", h.GetTank)
	app.Get("/v1/energy", h.GetEnergy)
	app.Get("/v1/predict/meta", h.PredictMeta)
	app.Post("/v1/predict", h.Predict)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeError(t *testing.T, data []byte) models.ErrorDetail {
	t.Helper()
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &errResp))
	return errResp.Error
}

func TestGetInsights(t *testing.T) {
	app := setupApp(nil)

	resp, body := doRequest(t, app, "GET", "/v1/insights", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.InsightsResult
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.Insights, 4)
	assert.Equal(t, "Water quality: Good", result.Insights[3])
	assert.Equal(t, []string{"All readings look normal. Keep monitoring."}, result.Recommendations)
}

func TestListMetrics(t *testing.T) {
	app := setupApp(nil)

	resp, body := doRequest(t, app, "GET", "/v1/metrics", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result models.MetricListResponse
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotEmpty(t, result.Metrics)
	assert.Equal(t, "Dissolved Oxygen", result.Metrics[0].Metric.Label)
	assert.Equal(t, 7, result.Metrics[0].Summary.Count)
}

func TestGetMetric(t *testing.T) {
	app := setupApp(nil)

	resp, body := doRequest(t, app, "GET", "/v1/metrics/do", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.MetricResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 7, result.Summary.Count)
	assert.InDelta(t, 0.1, result.Trend.Slope, 1e-9)
	require.NotNil(t, result.Assessment)
	assert.Equal(t, quality.StatusNormal, result.Assessment.Status)
}

func TestGetMetric_Range(t *testing.T) {
	app := setupApp(nil)
	target := fmt.Sprintf("/v1/metrics/do?from=%d&to=%d", baseMs+60_000, baseMs+120_000)

	resp, body := doRequest(t, app, "GET", target, "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.MetricResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Len(t, result.Samples, 2)
}

func TestGetMetric_Downsample(t *testing.T) {
	app := setupApp(nil)

	resp, body := doRequest(t, app, "GET", "/v1/metrics/do?downsample=lttb&points=3", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.MetricResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 7, result.Summary.Count)
	require.Len(t, result.Samples, 3)
	assert.Equal(t, "r00", result.Samples[0].ID)
	assert.Equal(t, "r06", result.Samples[2].ID)
}

func TestGetMetric_Errors(t *testing.T) {
	app := setupApp(nil)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/v1/metrics/salinity", fiber.StatusBadRequest, "INVALID_METRIC"},
		{"/v1/metrics/do?from=soon", fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"/v1/metrics/do?from=2024-01-02&to=2024-01-01", fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"/v1/metrics/do?downsample=median", fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"/v1/metrics/do?downsample=lttb&points=-1", fiber.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp, body := doRequest(t, app, "GET", tt.target, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, body).Code)
		})
	}
}

func TestGetTankAndEnergy(t *testing.T) {
	app := setupApp(nil)

	resp, body := doRequest(t, app, "GET", "/v1/tank", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var tank services.TankResult
	require.NoError(t, json.Unmarshal(body, &tank))
	assert.Len(t, tank.Samples, 2)
	assert.Equal(t, 30.0, *tank.Distance.Last)

	resp, body = doRequest(t, app, "GET", "/v1/energy", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var energy services.EnergyResult
	require.NoError(t, json.Unmarshal(body, &energy))
	assert.Equal(t, "2024-01-01", energy.Today.Day)
	assert.Equal(t, 0.0, energy.Today.KWh)
}

func TestPredictMeta(t *testing.T) {
	resp, body := doRequest(t, setupApp(nil), "GET", "/v1/predict/meta", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var meta models.PredictMetaResponse
	require.NoError(t, json.Unmarshal(body, &meta))
	assert.False(t, meta.Enabled)

	predictor := &stubPredictor{meta: prediction.Meta{Lags: 4, Loaded: true}}
	resp, body = doRequest(t, setupApp(predictor), "GET", "/v1/predict/meta", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &meta))
	assert.True(t, meta.Enabled)
	assert.Equal(t, 4, meta.Lags)
}

func TestPredict(t *testing.T) {
	predictor := &stubPredictor{
		meta:   prediction.Meta{Lags: 6, Loaded: true},
		result: &prediction.Result{Value: 6.7, Clipped: false, Lags: 6},
	}
	app := setupApp(predictor)

	resp, body := doRequest(t, app, "POST", "/v1/predict", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var result services.PredictResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 6.7, result.Value)
	assert.Equal(t, 7, result.Inputs)
	assert.Equal(t, 1, predictor.calls)
}

func TestPredict_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{
			name:   "insufficient data",
			err:    &prediction.InsufficientDataError{Required: 6, Have: 2},
			status: fiber.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_DATA",
		},
		{
			name:   "model failure",
			err:    &prediction.PredictionFailedError{Cause: "transport error", Err: errors.New("refused")},
			status: fiber.StatusBadGateway,
			code:   "PREDICTION_FAILED",
		},
		{
			name:   "bad json",
			body:   `{"series": "abc"`,
			status: fiber.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "short series with caller lags",
			body:   `{"series": [7, 7.2, 7.1], "lags": 2}`,
			status: fiber.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_DATA",
		},
		{
			name:   "non DO metric",
			body:   `{"metric": "ph"}`,
			status: fiber.StatusBadRequest,
			code:   "INVALID_METRIC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(&stubPredictor{meta: prediction.Meta{Lags: 6}, err: tt.err})
			resp, body := doRequest(t, app, "POST", "/v1/predict", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, body).Code)
		})
	}
}

func TestPredict_UsesModelLags(t *testing.T) {
	predictor := &stubPredictor{
		meta:   prediction.Meta{Lags: 6, Loaded: true},
		result: &prediction.Result{Value: 7.3, Lags: 6},
	}
	app := setupApp(predictor)

	resp, body := doRequest(t, app, "POST", "/v1/predict", `{"series": [7, 7.2, 7.1], "lags": 2}`)

	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	detail := decodeError(t, body)
	assert.Equal(t, "INSUFFICIENT_DATA", detail.Code)
	assert.Equal(t, 6, predictor.lastLags)
	assert.Equal(t, 0, predictor.calls)

	resp, _ = doRequest(t, app, "POST", "/v1/predict", `{"series": [7, 7.2, 7.1, 7.0, 6.9, 7.1, 7.2], "lags": 2}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, predictor.lastLags)
	assert.Equal(t, 1, predictor.calls)
}

func TestPredict_Disabled(t *testing.T) {
	resp, body := doRequest(t, setupApp(nil), "POST", "/v1/predict", "")

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "PREDICTION_DISABLED", decodeError(t, body).Code)
}
