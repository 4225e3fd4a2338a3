package handlers

import "github.com/gofiber/fiber/v2"

// GetInsights handles GET /v1/insights
func (h *Handler) GetInsights(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Insights())
}
