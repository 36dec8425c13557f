// Package ingest is the MQTT agent that turns raw day metrics into scored
// days, recommendations and tracker updates.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/environment"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/personalization"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/scoring"
	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/tracker"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

// ValidationWindow is how far an observation may be from a prediction's
// target time and still validate it
const ValidationWindow = time.Hour

// recommendationLookback bounds the history used for personalization
const recommendationLookback = 90 * 24 * time.Hour

// Predictor produces an activity prediction for a target time
type Predictor interface {
	Predict(ctx context.Context, day types.DayRecord, target, now time.Time) (types.PredictionResult, error)
}

// Agent receives raw wellbeing messages and drives the engine
type Agent struct {
	mqtt       mqtt.Client
	store      store.Store
	tracker    *tracker.Service
	cache      *recommend.Cache
	predictor  Predictor
	processor  *Processor
	enricher   *environment.Enricher
	aggregator *scoring.Aggregator
	builder    *personalization.Builder
	generator  *recommend.Generator
	publisher  events.Publisher
	metrics    *metrics.Metrics
	cfg        *config.Config
	now        func() time.Time
	logger     *slog.Logger
}

// NewAgent creates the ingest agent. cache and predictor may be nil.
func NewAgent(mqttClient mqtt.Client, st store.Store, svc *tracker.Service, cache *recommend.Cache, predictor Predictor, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:       mqttClient,
		store:      st,
		tracker:    svc,
		cache:      cache,
		predictor:  predictor,
		processor:  NewProcessor(logger),
		enricher:   environment.NewEnricher(cfg.Latitude, cfg.Longitude, logger),
		aggregator: scoring.NewAggregator(),
		builder:    personalization.NewBuilder(st, st, cfg.SimilarDays, recommendationLookback, logger),
		generator:  recommend.NewGenerator(cfg.RecommendationLimit, time.Duration(cfg.ForecastHorizonHours)*time.Hour, logger),
		publisher:  events.NewMQTTPublisher(mqttClient, logger),
		metrics:    m,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

// Start connects, subscribes and blocks until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting wellbeing agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.store.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}

	topics := []string{mqtt.TopicRawDay, mqtt.TopicRawAction, mqtt.TopicRawObserved}
	for _, topic := range topics {
		if err := a.mqtt.Subscribe(topic, 1, a.handleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	a.logger.Info("Wellbeing agent started and ready to receive messages",
		"subscribed_topics", strings.Join(topics, ", "))

	<-ctx.Done()
	a.logger.Info("Wellbeing agent stopping")

	return nil
}

// Stop disconnects from the broker and closes the store
func (a *Agent) Stop() error {
	a.logger.Info("Stopping wellbeing agent")

	a.mqtt.Disconnect()

	if err := a.store.Close(); err != nil {
		a.logger.Error("Error closing store", "error", err)
		return err
	}

	a.logger.Info("Wellbeing agent stopped")
	return nil
}

// handleMessage dispatches one inbound MQTT message
func (a *Agent) handleMessage(msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()

	a.logger.Debug("Received MQTT message", "topic", topic, "size", len(payload))

	kind, source, err := a.processor.Kind(topic)
	if err != nil {
		a.metrics.Message("unknown", "rejected")
		return
	}

	ctx := context.Background()
	switch kind {
	case KindDay:
		err = a.handleDay(ctx, source, payload)
	case KindAction:
		err = a.handleAction(ctx, source, payload)
	case KindObserved:
		err = a.handleObserved(ctx, payload)
	default:
		err = fmt.Errorf("unsupported message kind %q", kind)
	}

	if err != nil {
		a.metrics.Message(kind, "error")
		a.logger.Error("Failed to process message",
			"topic", topic,
			"kind", kind,
			"error", err)
		return
	}
	a.metrics.Message(kind, "ok")
}

func (a *Agent) handleDay(ctx context.Context, source string, payload []byte) error {
	msg, err := a.processor.ParseDay(source, payload)
	if err != nil {
		return err
	}
	now := a.now()

	day, err := a.ScoreDay(ctx, msg.Day)
	if err != nil {
		return err
	}

	if _, err := a.Recommend(ctx, day, msg.Forecast, now); err != nil {
		// scoring already succeeded; recommendations are retried with the next message
		a.logger.Error("Failed to generate recommendations", "date", day.DateKey(), "error", err)
	}

	if a.predictor != nil {
		a.predict(ctx, day, msg.Forecast, now)
	}

	if _, err := a.tracker.EvaluateDay(ctx, day); err != nil {
		return fmt.Errorf("daily evaluation failed: %w", err)
	}

	a.logger.Info("Day processed",
		"source", source,
		"date", day.DateKey(),
		"wellbeing_score", day.OverallWellbeingScore)
	return nil
}

// ScoreDay enriches, scores and stores a day record, then announces it
func (a *Agent) ScoreDay(ctx context.Context, day types.DayRecord) (types.DayRecord, error) {
	scored, err := a.aggregator.ComputeDayScores(a.enricher.Enrich(day))
	if err != nil {
		return day, err
	}

	if err := a.store.SaveDay(ctx, scored); err != nil {
		return scored, fmt.Errorf("failed to save day %s: %w", scored.DateKey(), err)
	}
	a.metrics.DayScored(scored.OverallWellbeingScore)

	a.logger.Info("Day scored",
		"date", scored.DateKey(),
		"physical", scored.PhysicalActivityScore,
		"social", scored.SocialActivityScore,
		"productivity", scored.ProductivityScore,
		"multiplier", scored.EnvironmentalMultiplier,
		"wellbeing_score", scored.OverallWellbeingScore)

	if err := a.publisher.DayScored(scored); err != nil {
		a.logger.Warn("Failed to publish day score", "date", scored.DateKey(), "error", err)
	}
	return scored, nil
}

// Recommend generates, stores, caches and publishes recommendations for day
func (a *Agent) Recommend(ctx context.Context, day types.DayRecord, forecast recommend.Forecast, now time.Time) ([]types.Recommendation, error) {
	inputs, err := a.builder.Build(ctx, day, now)
	if err != nil {
		a.logger.Warn("Personalization unavailable, using neutral inputs", "date", day.DateKey(), "error", err)
	}

	recs, err := a.generator.Generate(day, forecast, inputs, now)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		a.logger.Info("No recommendations for day", "date", day.DateKey())
		return recs, nil
	}

	if err := a.store.SaveRecommendations(ctx, recs); err != nil {
		return nil, fmt.Errorf("failed to save recommendations: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, day.Date, recs); err != nil {
			a.logger.Warn("Failed to cache recommendations", "date", day.DateKey(), "error", err)
		}
	}

	if err := a.publisher.Recommendations(day.Date, recs); err != nil {
		a.logger.Warn("Failed to publish recommendations", "date", day.DateKey(), "error", err)
	}
	return recs, nil
}

// predict stores a prediction for the earliest forecast slot still ahead
func (a *Agent) predict(ctx context.Context, day types.DayRecord, forecast recommend.Forecast, now time.Time) {
	target := time.Time{}
	for _, slot := range forecast {
		if slot.Time.After(now) && (target.IsZero() || slot.Time.Before(target)) {
			target = slot.Time
		}
	}
	if target.IsZero() {
		return
	}

	p, err := a.predictor.Predict(ctx, day, target, now)
	if err != nil {
		a.logger.Warn("Activity prediction failed", "date", day.DateKey(), "error", err)
		return
	}
	if _, err := a.tracker.SavePrediction(ctx, p); err != nil {
		a.logger.Error("Failed to save prediction", "prediction_id", p.ID, "error", err)
	}
}

func (a *Agent) handleAction(ctx context.Context, source string, payload []byte) error {
	msg, err := a.processor.ParseAction(source, payload)
	if err != nil {
		return err
	}

	rec, err := a.tracker.ActOnRecommendation(ctx, msg.RecommendationID, msg.Satisfaction)
	if err != nil {
		return err
	}

	// cached list still shows the recommendation as open
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx, rec.Date); err != nil {
			a.logger.Warn("Failed to invalidate recommendation cache", "date", rec.Date, "error", err)
		}
	}

	a.logger.Info("Recommendation acted upon",
		"source", source,
		"recommendation_id", rec.ID,
		"activity", rec.ActivityType)
	return nil
}

func (a *Agent) handleObserved(ctx context.Context, payload []byte) error {
	obs, err := a.processor.ParseObserved(payload, a.now())
	if err != nil {
		return err
	}

	validated, err := a.tracker.ValidateObservation(ctx, obs, ValidationWindow)
	if err != nil {
		return err
	}

	a.logger.Info("Observation processed",
		"activity", obs.Activity,
		"validated", len(validated))
	return nil
}
