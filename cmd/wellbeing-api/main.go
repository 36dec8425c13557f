package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/api"
	"github.com/saaga0h/jeeves-wellbeing/internal/bootstrap"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/health"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "wellbeing-api"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Starting J.E.E.V.E.S. Wellbeing API",
		"service_name", cfg.ServiceName,
		"api_port", cfg.APIPort,
		"store", cfg.StoreDriver,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Events raised by API writes (goal completions, level-ups) are
	// published when the broker is reachable
	var mqttClient mqtt.Client = mqtt.NewClient(cfg, logger)
	var publisher events.Publisher
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := mqttClient.Connect(connectCtx); err != nil {
		logger.Warn("MQTT unavailable, API events will not be published", "error", err)
		mqttClient = nil
	} else {
		publisher = events.NewMQTTPublisher(mqttClient, logger)
	}
	connectCancel()

	deps, err := bootstrap.New(ctx, cfg, publisher, logger)
	if err != nil {
		logger.Error("Failed to initialise dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	checker := health.NewChecker(deps.Store, mqttClient, deps.Redis, logger)
	server := api.NewServer(deps.Store, deps.Tracker, deps.Cache, checker, deps.Metrics, logger)
	httpServer := server.HTTPServer(fmt.Sprintf(":%d", cfg.APIPort), os.Stdout)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting API server", "port", cfg.APIPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-serverErr:
		logger.Error("API server failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", "error", err)
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if err := deps.Store.Close(); err != nil {
		logger.Error("Error closing store", "error", err)
	}

	logger.Info("Wellbeing API shutdown complete")
}
