package logging

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareApp(buf *bytes.Buffer) *fiber.App {
	app := fiber.New()
	app.Use(FiberMiddleware(NewWithWriter(buf, zerolog.DebugLevel)))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/v1/insights", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c.UserContext()))
	})
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	return app
}

func TestFiberMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := newMiddlewareApp(&buf)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/insights", nil))
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), "Request completed")
}

func TestFiberMiddleware_ReusesClientRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := newMiddlewareApp(&buf)

	req := httptest.NewRequest("GET", "/v1/insights", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "client-id", resp.Header.Get(RequestIDHeader))
}

func TestFiberMiddleware_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	app := newMiddlewareApp(&buf)

	_, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)

	assert.Zero(t, buf.Len())
}

func TestFiberMiddleware_ClientError(t *testing.T) {
	var buf bytes.Buffer
	app := newMiddlewareApp(&buf)

	_, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Client error")
}
