package handlers

import "github.com/gofiber/fiber/v2"

// GetTank handles GET /v1/tank
func (h *Handler) GetTank(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Tank())
}
