// Package health serves the liveness and readiness endpoints of the
// wellbeing services.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// checkTimeout bounds each dependency ping of the detailed check
const checkTimeout = 2 * time.Second

// Dependency states
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Pinger is anything that can confirm it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker reports process and dependency health. Any dependency may be nil,
// which reports it as disabled.
type Checker struct {
	store  Pinger
	mqtt   mqtt.Client
	redis  redis.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(store Pinger, mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		store:  store,
		mqtt:   mqttClient,
		redis:  redisClient,
		now:    time.Now,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Store string `json:"store"`
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
}

// HandlerFunc answers 200 while the process is alive without touching
// dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc pings every configured dependency and answers 503
// when one of them is down
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := h.Check(r.Context())

		status := "healthy"
		statusCode := http.StatusOK
		if services.Store == StatusDown || services.Redis == StatusDown || services.MQTT == StatusDown {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
			Services:  &services,
		})
	}
}

// Check probes each dependency
func (h *Checker) Check(ctx context.Context) Services {
	services := Services{
		Store: h.ping(ctx, "store", h.store),
		Redis: h.ping(ctx, "redis", h.redis),
		MQTT:  StatusDisabled,
	}

	if h.mqtt != nil {
		services.MQTT = StatusDown
		if h.mqtt.IsConnected() {
			services.MQTT = StatusUp
		}
	}
	return services
}

func (h *Checker) ping(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return StatusDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", "dependency", name, "error", err)
		return StatusDown
	}
	return StatusUp
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
