package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/models"
)

// ErrorHandler renders errors that escaped the handlers as JSON.
// Fiber errors keep their status; anything else is a 500 with a generic message.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		}
		if id := logging.RequestID(c.UserContext()); id != "" {
			fields = append(fields, "request_id", id)
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    ErrorCode(code),
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}

// ErrorCode derives an error code from an HTTP status ("Not Found" -> "NOT_FOUND")
func ErrorCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	text = strings.NewReplacer("-", " ", "'", "").Replace(text)
	return strings.ToUpper(strings.Join(strings.Fields(text), "_"))
}
