package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/analytics/downsample"
	"github.com/aquasense/aquasense/internal/models"
)

// ListMetrics handles GET /v1/metrics
// Returns every known metric with the summary of its current series
func (h *Handler) ListMetrics(c *fiber.Ctx) error {
	kinds := analytics.ListMetrics()
	resp := models.MetricListResponse{Metrics: make([]models.MetricOverview, 0, len(kinds))}

	for _, kind := range kinds {
		series, err := h.dashboard.Series(kind)
		if err != nil {
			return h.serviceError(c, err)
		}
		resp.Metrics = append(resp.Metrics, models.MetricOverview{
			Metric:  analytics.MustMetric(kind),
			Summary: analytics.Summarize(series),
		})
	}
	return c.JSON(resp)
}

// GetMetric handles GET /v1/metrics/:metric?from=&to=&downsample=&points=
// Summary and trend always cover the full range; only samples are thinned.
func (h *Handler) GetMetric(c *fiber.Ctx) error {
	var req models.MetricRangeRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	fromMs, toMs, err := req.Parse(h.location)
	if err != nil {
		return badRequest(c, err.Error())
	}
	mode, points, err := req.Thinning()
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.dashboard.Metric(analytics.MetricKind(c.Params("metric")), fromMs, toMs)
	if err != nil {
		return h.serviceError(c, err)
	}
	result.Samples = downsample.Apply(result.Samples, mode, points)
	return c.JSON(result)
}
