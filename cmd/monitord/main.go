package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"home-monitor-backend/config"
	"home-monitor-backend/internal/activitylog"
	"home-monitor-backend/internal/api"
	"home-monitor-backend/internal/coordinator"
	"home-monitor-backend/internal/db"
	"home-monitor-backend/internal/device"
	"home-monitor-backend/internal/poller"
	"home-monitor-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "home-monitor ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Device.BaseURL == "" {
		logger.Fatalf("device.base_url must be configured with the ESP32 address")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret must be configured")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// The device link and coordinator: one bounded exchange per call,
	// confirm-before-commit on the store.
	link := device.NewHTTPLink(&cfg.Device)
	coor := coordinator.New(link, appStore)

	// Run the device reconciler in the background
	pollerSvc := poller.NewService(&cfg.Device, coor)
	go pollerSvc.Run(ctx)

	logs := activitylog.NewReader(cfg.ActivityLog.Path)

	// Initialize router
	router := api.NewRouter(appStore, coor, logs, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
