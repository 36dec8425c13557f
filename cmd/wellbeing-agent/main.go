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

	"github.com/saaga0h/jeeves-wellbeing/internal/bootstrap"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/internal/ingest"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/health"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "wellbeing-agent"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Starting J.E.E.V.E.S. Wellbeing Agent",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"store", cfg.StoreDriver,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)

	deps, err := bootstrap.New(ctx, cfg, events.NewMQTTPublisher(mqttClient, logger), logger)
	if err != nil {
		logger.Error("Failed to initialise dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	var predictor ingest.Predictor
	if p := bootstrap.NewPredictor(cfg, logger); p != nil {
		predictor = p
	}

	agent := ingest.NewAgent(mqttClient, deps.Store, deps.Tracker, deps.Cache, predictor, deps.Metrics, cfg, logger)

	healthChecker := health.NewChecker(deps.Store, mqttClient, deps.Redis, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, deps.Metrics, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Wellbeing agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/ready", checker.DetailedHandlerFunc())
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}
