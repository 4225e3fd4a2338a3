package models

import "github.com/aquasense/aquasense/internal/analytics"

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MetricOverview is one entry of the metric list
type MetricOverview struct {
	Metric  analytics.Metric  `json:"metric"`
	Summary analytics.Summary `json:"summary"`
}

// MetricListResponse represents the metric list response
type MetricListResponse struct {
	Metrics []MetricOverview `json:"metrics"`
}

// PredictMetaResponse describes the remote model
type PredictMetaResponse struct {
	Enabled bool     `json:"enabled"`
	Lags    int      `json:"lags"`
	Loaded  bool     `json:"loaded"`
	YMin    *float64 `json:"y_min,omitempty"`
	YMax    *float64 `json:"y_max,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
