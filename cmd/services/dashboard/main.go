package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/feed"
	"github.com/aquasense/aquasense/internal/handlers"
	"github.com/aquasense/aquasense/internal/logging"
	"github.com/aquasense/aquasense/internal/prediction"
	"github.com/aquasense/aquasense/internal/router"
	"github.com/aquasense/aquasense/internal/services"
	"github.com/aquasense/aquasense/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Dashboard service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the snapshot feed (configurable backend)
	logger.Info("Connecting to feed", "type", cfg.Feed.Type, "url", cfg.Feed.URL)
	source, err := feed.NewSource(cfg.Feed)
	if err != nil {
		logger.Fatal("Failed to connect to feed", "error", err)
	}
	defer func() { _ = source.Close() }()

	dashboard := services.NewDashboardService(logger, source, services.NewDashboardConfig(cfg))
	if err := dashboard.Start(ctx); err != nil {
		logger.Fatal("Failed to watch feed topics", "error", err)
	}

	// Prediction stays disabled unless a model server is configured
	var predictionService *services.PredictionService
	if cfg.Prediction.Enabled {
		client := prediction.NewClient(prediction.Config{
			PredictURL:  cfg.Prediction.PredictURL(),
			MetaURL:     cfg.Prediction.MetaURL(),
			DefaultLags: cfg.Prediction.DefaultLags,
		}, nil)
		predictionService = services.NewPredictionService(logger, client, dashboard,
			cfg.Prediction.Timeout, cfg.Prediction.DefaultLags)
		go predictionService.Init(ctx)
		logger.Info("Prediction enabled", "predict_url", cfg.Prediction.PredictURL())
	} else {
		logger.Warn("Prediction disabled - POST /v1/predict will answer 503")
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	h := handlers.New(logger, cfg.Analysis.Location(), dashboard, predictionService)
	app := router.New(logger, h, cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
