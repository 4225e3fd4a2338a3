package handlers

import (
	"time"

	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger   *logging.Logger
	location *time.Location
	// Services
	dashboard  *services.DashboardService
	prediction *services.PredictionService // nil when prediction is disabled
}

// New creates a new handler instance
func New(logger *logging.Logger, location *time.Location,
	dashboard *services.DashboardService, prediction *services.PredictionService,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		logger:     logger,
		location:   location,
		dashboard:  dashboard,
		prediction: prediction,
	}
}
