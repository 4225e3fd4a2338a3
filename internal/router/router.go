package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/handlers"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/middleware"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, auth config.AuthConfig) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, auth))

	// Dashboard views
	v1.Get("/insights", h.GetInsights)
	v1.Get("/metrics", h.ListMetrics)
	v1.Get("/metrics/:metric", h.GetMetric)
	v1.Get("/tank", h.GetTank)
	v1.Get("/energy", h.GetEnergy)

	// Forecasting model
	v1.Get("/predict/meta", h.PredictMeta)
	v1.Post("/predict", h.Predict)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "AquaSense Dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, h, cfg.Auth)

	return app
}
