package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aquasense/aquasense/internal/analytics"
	"github.com/aquasense/aquasense/internal/models"
	"github.com/aquasense/aquasense/internal/services"
)

// PredictMeta handles GET /v1/predict/meta
func (h *Handler) PredictMeta(c *fiber.Ctx) error {
	if h.prediction == nil {
		return c.JSON(models.PredictMetaResponse{Enabled: false})
	}

	meta := h.prediction.Meta()
	return c.JSON(models.PredictMetaResponse{
		Enabled: true,
		Lags:    meta.Lags,
		Loaded:  meta.Loaded,
		YMin:    meta.YMin,
		YMax:    meta.YMax,
	})
}

// Predict handles POST /v1/predict
// Body (optional):
//
//	{"metric": "do", "series": [5.1, 5.3, ...]}
func (h *Handler) Predict(c *fiber.Ctx) error {
	if h.prediction == nil {
		return h.serviceError(c, services.NewServiceError(services.CodePredictionDisabled, "Prediction is disabled"))
	}

	var req models.PredictRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body: "+err.Error())
		}
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.prediction.Predict(c.UserContext(), &services.PredictRequest{
		Metric: analytics.MetricKind(req.Metric),
		Series: req.Series,
	})
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(resp)
}
