package handlers

import "github.com/gofiber/fiber/v2"

// GetEnergy handles GET /v1/energy
func (h *Handler) GetEnergy(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Energy())
}
