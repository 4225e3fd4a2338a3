package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/models"
)

func errorApp(handler fiber.Handler) *fiber.App {
	logger := logging.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(logging.FiberMiddleware(logger))
	app.All("/v1/metrics/:metric", handler)
	return app
}

func decodeErrorResponse(t *testing.T, app *fiber.App, method string) (int, models.ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, "/v1/metrics/ph", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var errResp models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	return resp.StatusCode, errResp
}

func TestErrorHandler_FiberError(t *testing.T) {
	tests := []struct {
		name           string
		fiberError     *fiber.Error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{"bad request", fiber.ErrBadRequest, fiber.StatusBadRequest, "BAD_REQUEST", "Bad Request"},
		{"unauthorized", fiber.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
		{"not found", fiber.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Not Found"},
		{"method not allowed", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed"},
		{"service unavailable", fiber.ErrServiceUnavailable, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service Unavailable"},
		{"custom message", fiber.NewError(fiber.StatusTeapot, "no tea"), fiber.StatusTeapot, "IM_A_TEAPOT", "no tea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := errorApp(func(c *fiber.Ctx) error { return tt.fiberError })

			status, errResp := decodeErrorResponse(t, app, "GET")
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, errResp.Error.Code)
			assert.Equal(t, tt.expectedMsg, errResp.Error.Message)
			assert.Equal(t, "/v1/metrics/ph", errResp.Error.Path)
		})
	}
}

func TestErrorHandler_GenericError(t *testing.T) {
	app := errorApp(func(c *fiber.Ctx) error {
		return errors.New("feed closed: redis: connection refused")
	})

	status, errResp := decodeErrorResponse(t, app, "GET")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errResp.Error.Code)
	// internals never leak to the client
	assert.Equal(t, "Internal Server Error", errResp.Error.Message)
}

func TestErrorHandler_WrappedFiberError(t *testing.T) {
	app := errorApp(func(c *fiber.Ctx) error {
		return errors.Join(fiber.ErrBadRequest, errors.New("bad metric"))
	})

	status, errResp := decodeErrorResponse(t, app, "POST")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", errResp.Error.Code)
}

func TestErrorHandler_DifferentMethods(t *testing.T) {
	for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			app := errorApp(func(c *fiber.Ctx) error { return fiber.ErrNotFound })

			status, errResp := decodeErrorResponse(t, app, method)
			assert.Equal(t, fiber.StatusNotFound, status)
			assert.Equal(t, "NOT_FOUND", errResp.Error.Code)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrorCode(404))
	assert.Equal(t, "UNPROCESSABLE_ENTITY", ErrorCode(422))
	assert.Equal(t, "BAD_GATEWAY", ErrorCode(502))
	assert.Equal(t, "NON_AUTHORITATIVE_INFORMATION", ErrorCode(203))
	assert.Equal(t, "ERROR", ErrorCode(599))
}
