// Package api is the HTTP read model of the wellbeing engine plus the few
// write operations users trigger directly.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/tracker"
	"github.com/saaga0h/jeeves-wellbeing/pkg/health"
)

// Server wires the handlers to their dependencies
type Server struct {
	store   store.Store
	tracker *tracker.Service
	cache   *recommend.Cache
	health  *health.Checker
	metrics *metrics.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewServer creates the API. cache and m may be nil.
func NewServer(st store.Store, svc *tracker.Service, cache *recommend.Cache, checker *health.Checker, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		tracker: svc,
		cache:   cache,
		health:  checker,
		metrics: m,
		now:     time.Now,
		logger:  logger,
	}
}

// Router returns the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	route := func(path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, s.metrics.WrapHandler(path, h)).Methods(methods...)
	}

	r.HandleFunc("/health", s.health.HandlerFunc()).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.health.DetailedHandlerFunc()).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	route("/api/days", s.listDays, http.MethodGet)
	route("/api/days/{date}", s.getDay, http.MethodGet)
	route("/api/days/{date}/recommendations", s.dayRecommendations, http.MethodGet)
	route("/api/suitability", s.suitability, http.MethodGet)
	route("/api/correlations", s.correlations, http.MethodGet)
	route("/api/achievements", s.listAchievements, http.MethodGet)
	route("/api/goals", s.listGoals, http.MethodGet)
	route("/api/goals", s.createGoal, http.MethodPost)
	route("/api/goals/{id}/progress", s.goalProgress, http.MethodPost)
	route("/api/level", s.getLevel, http.MethodGet)
	route("/api/recommendations/{id}/action", s.actOnRecommendation, http.MethodPost)
	route("/api/predictions/summary", s.predictionSummary, http.MethodGet)
	route("/api/predictions/{id}/validate", s.validatePrediction, http.MethodPost)

	return r
}

// HTTPServer returns a server on addr with access logging to out
func (s *Server) HTTPServer(addr string, out io.Writer) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler()(handlers.LoggingHandler(out, s.Router())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
