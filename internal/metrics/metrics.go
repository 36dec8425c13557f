// Package metrics exposes Prometheus instruments for the wellbeing services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	daysScored     prometheus.Counter
	wellbeing      prometheus.Gauge
	messages       *prometheus.CounterVec
	unlocks        *prometheus.CounterVec
	goalsCompleted prometheus.Counter
	levelUps       prometheus.Counter
	conflicts      *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	predictions    *prometheus.CounterVec
}

// New creates the instruments on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeing_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wellbeing_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		daysScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_days_scored_total",
			Help: "Total day records scored.",
		}),
		wellbeing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wellbeing_last_score",
			Help: "Overall wellbeing score of the most recently scored day.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeing_ingest_messages_total",
			Help: "Inbound MQTT messages by kind and outcome.",
		}, []string{"kind", "outcome"}),
		unlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeing_achievements_unlocked_total",
			Help: "Achievements unlocked by tier.",
		}, []string{"tier"}),
		goalsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_goals_completed_total",
			Help: "Goal completion transitions.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_level_ups_total",
			Help: "Levels gained.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeing_store_conflicts_total",
			Help: "Optimistic version conflicts by entity.",
		}, []string{"entity"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_recommendation_cache_hits_total",
			Help: "Recommendation cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellbeing_recommendation_cache_misses_total",
			Help: "Recommendation cache misses.",
		}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellbeing_predictions_validated_total",
			Help: "Validated predictions by quality.",
		}, []string{"quality"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.daysScored,
		m.wellbeing,
		m.messages,
		m.unlocks,
		m.goalsCompleted,
		m.levelUps,
		m.conflicts,
		m.cacheHits,
		m.cacheMisses,
		m.predictions,
	)
	return m
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and duration for route
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DayScored(score float64) {
	if m == nil {
		return
	}
	m.daysScored.Inc()
	m.wellbeing.Set(score)
}

func (m *Metrics) Message(kind, outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) AchievementUnlocked(tier string) {
	if m == nil {
		return
	}
	m.unlocks.WithLabelValues(tier).Inc()
}

func (m *Metrics) GoalCompleted() {
	if m == nil {
		return
	}
	m.goalsCompleted.Inc()
}

func (m *Metrics) LevelUp(levels int) {
	if m == nil || levels <= 0 {
		return
	}
	m.levelUps.Add(float64(levels))
}

func (m *Metrics) Conflict(entity string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(entity).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) PredictionValidated(quality string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(quality).Inc()
}
