// Package prediction is the client side of the remote dissolved-oxygen forecasting model.
//
// The model server exposes two endpoints:
//
//	GET  {base}/meta        -> {"lags": 6, "y_min": 0, "y_max": 20}
//	POST {base}/predict_do  <- {"series": [...], "lags": 6}
//	                        -> {"yhat": 5.4, "clipped": true}
//
// Failed predictions are reported, never retried.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/utils"
)

// DefaultLags is the lag count assumed when the model metadata is unavailable
const DefaultLags = 6

// Config locates the model server
type Config struct {
	PredictURL  string
	MetaURL     string
	DefaultLags int
}

// Meta describes the remote model
type Meta struct {
	Lags int      `json:"lags"`
	YMin *float64 `json:"y_min,omitempty"`
	YMax *float64 `json:"y_max,omitempty"`
	// Loaded is false when the defaults were used
	Loaded bool `json:"loaded"`
}

// Result is a single model prediction
type Result struct {
	Value   float64 `json:"value"`
	Clipped bool    `json:"clipped"`
	Lags    int     `json:"lags"`
}

type predictRequest struct {
	Series []float64 `json:"series"`
	Lags   int       `json:"lags"`
}

// Client calls the model server through a Transport
type Client struct {
	cfg       Config
	transport Transport
	logger    *logging.Logger
}

// NewClient creates a client. A nil transport selects the fasthttp transport.
func NewClient(cfg Config, transport Transport) *Client {
	if cfg.DefaultLags < 1 {
		cfg.DefaultLags = DefaultLags
	}
	if transport == nil {
		transport = NewFastHTTPTransport()
	}
	return &Client{
		cfg:       cfg,
		transport: transport,
		logger:    logging.Component("prediction"),
	}
}

// FetchMeta loads the model metadata. Any failure, or a lags field that is not a
// positive integer, yields the default lag count with Loaded=false.
func (c *Client) FetchMeta(ctx context.Context) Meta {
	meta := Meta{Lags: c.cfg.DefaultLags}

	status, body, err := c.transport.Do(ctx, http.MethodGet, c.cfg.MetaURL, nil)
	if err != nil {
		c.logger.Warn("Model metadata unavailable, using default lags", "url", c.cfg.MetaURL, "error", err)
		return meta
	}
	if status < 200 || status > 299 {
		c.logger.Warn("Model metadata request rejected, using default lags", "url", c.cfg.MetaURL, "status", status)
		return meta
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("Model metadata is not JSON, using default lags", "error", err)
		return meta
	}

	lags, ok := payload["lags"].(float64)
	if !ok || lags < 1 || lags != math.Trunc(lags) || lags > math.MaxInt32 {
		c.logger.Warn("Model metadata has no usable lag count, using default", "lags", payload["lags"])
		return meta
	}

	meta.Lags = int(lags)
	meta.Loaded = true
	if v, ok := payload["y_min"].(float64); ok {
		meta.YMin = &v
	}
	if v, ok := payload["y_max"].(float64); ok {
		meta.YMax = &v
	}

	c.logger.Info("Loaded model metadata", "lags", meta.Lags)
	return meta
}

// PredictNext asks the model for the value following series.
// Only the most recent lags values are sent, oldest first.
func (c *Client) PredictNext(ctx context.Context, series []float64, lags int) (*Result, error) {
	if lags < 1 {
		lags = c.cfg.DefaultLags
	}
	if len(series) < lags {
		return nil, &InsufficientDataError{Required: lags, Have: len(series)}
	}

	window := series[len(series)-lags:]
	for _, v := range window {
		if !utils.IsFinite(v) {
			return nil, failed("series contains a non-finite value", nil)
		}
	}

	body, err := json.Marshal(predictRequest{Series: window, Lags: lags})
	if err != nil {
		return nil, failed("encode request", err)
	}

	status, respBody, err := c.transport.Do(ctx, http.MethodPost, c.cfg.PredictURL, body)
	if err != nil {
		c.logger.Error("Prediction request failed", "url", c.cfg.PredictURL, "error", err)
		return nil, failed("transport error", err)
	}
	if status < 200 || status > 299 {
		c.logger.Error("Prediction request rejected", "url", c.cfg.PredictURL, "status", status)
		return nil, failed(fmt.Sprintf("model server returned status %d", status), nil)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, failed("invalid response", err)
	}

	yhat, ok := payload["yhat"].(float64)
	if !ok {
		return nil, failed("invalid response: missing numeric yhat", nil)
	}

	result := &Result{
		Value:   yhat,
		Clipped: truthy(payload["clipped"]),
		Lags:    lags,
	}
	c.logger.Debug("Prediction received", "yhat", result.Value, "clipped", result.Clipped, "lags", lags)
	return result, nil
}

// truthy mirrors the loose boolean the model server may send for "clipped"
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}
