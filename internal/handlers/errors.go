package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/models"
	"github.com/aquasense/aquasense/internal/services"
)

// statusByCode maps service error codes to HTTP statuses
var statusByCode = map[string]int{
	services.CodeInvalidMetric:      fiber.StatusBadRequest,
	services.CodeInvalidRange:       fiber.StatusBadRequest,
	services.CodeInvalidRequest:     fiber.StatusBadRequest,
	services.CodeInsufficientData:   fiber.StatusUnprocessableEntity,
	services.CodePredictionFailed:   fiber.StatusBadGateway,
	services.CodePredictionDisabled: fiber.StatusServiceUnavailable,
}

// badRequest renders an INVALID_REQUEST error
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeInvalidRequest,
			Message: message,
		},
	})
}

// serviceError renders err; errors that are not ServiceErrors go to the app error handler
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	status, ok := statusByCode[svcErr.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	if status >= fiber.StatusInternalServerError {
		logging.ErrorCtx(c.UserContext(), "Service error", "code", svcErr.Code, "error", svcErr)
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	})
}
