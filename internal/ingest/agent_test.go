package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/achievement"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/internal/lock"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/store/sqlstore"
	"github.com/saaga0h/jeeves-wellbeing/internal/tracker"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/config"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

var agentNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Topic() string   { return m.topic }
func (m testMessage) Payload() []byte { return m.payload }
func (m testMessage) Ack()            {}

// stubPredictor always predicts the same activity
type stubPredictor struct {
	activity types.ActivityType
	err      error
	targets  []time.Time
}

func (s *stubPredictor) Predict(ctx context.Context, day types.DayRecord, target, now time.Time) (types.PredictionResult, error) {
	s.targets = append(s.targets, target)
	if s.err != nil {
		return types.PredictionResult{}, s.err
	}
	return types.NewPredictionResult(s.activity, nil, 0.7, target, now), nil
}

type agentFixture struct {
	agent     *Agent
	store     *sqlstore.Store
	broker    *mqtt.MockClient
	redis     *redis.MockClient
	predictor *stubPredictor
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := sqlstore.Open(fmt.Sprintf("file:ingest_%s?mode=memory&cache=shared", name), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.NewConfig()
	broker := mqtt.NewMockClient()
	rdb := redis.NewMockClient()
	m := metrics.New()

	svc := tracker.NewService(st, lock.NewKeyedMutex(), nil, events.NewMQTTPublisher(broker, logger), m, cfg.UserID, cfg.TrackerMaxRetries, logger)
	catalog, err := achievement.LoadCatalog("")
	require.NoError(t, err)
	_, err = svc.SeedAchievements(ctx, catalog)
	require.NoError(t, err)

	predictor := &stubPredictor{activity: types.ActivityOutdoorExercise}
	agent := NewAgent(broker, st, svc, recommend.NewCache(rdb, cfg.RecommendationCacheTTL, logger), predictor, m, cfg, logger)
	agent.now = func() time.Time { return agentNow }

	return &agentFixture{agent: agent, store: st, broker: broker, redis: rdb, predictor: predictor}
}

func (f *agentFixture) topicsWithPrefix(prefix string) []string {
	var out []string
	for _, m := range f.broker.Messages() {
		if strings.HasPrefix(m.Topic, prefix) {
			out = append(out, m.Topic)
		}
	}
	return out
}

const rainyDay = `{
	"date": "2024-06-15",
	"steps": 12000,
	"distance_km": 8.5,
	"active_minutes": 60,
	"places_visited": 4,
	"screen_time_minutes": 150,
	"photo_count": 6,
	"temperature": 14,
	"condition": "rain",
	"humidity": 80,
	"wind_speed": 12,
	"forecast": [
		{"time": "2024-06-15T08:00:00Z", "temperature": 12, "condition": "rain"},
		{"time": "2024-06-15T14:00:00Z", "temperature": 18, "condition": "partly cloudy", "humidity": 55, "wind_speed": 8, "uv_index": 4},
		{"time": "2024-06-15T17:00:00Z", "temperature": 16, "condition": "cloudy"}
	]
}`

func TestHandleDay_FullPipeline(t *testing.T) {
	ctx := context.Background()
	f := newAgentFixture(t)

	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(rainyDay)})

	day, err := f.store.GetDay(ctx, agentNow)
	require.NoError(t, err)
	assert.Equal(t, 12000, day.Steps)
	assert.Equal(t, types.ConditionRain, day.Condition)
	assert.Greater(t, day.DaylightHours, 15.0)
	assert.NotEmpty(t, day.CircadianPhase)
	assert.Greater(t, day.OverallWellbeingScore, 0.0)
	assert.Greater(t, day.EnvironmentalMultiplier, 0.0)

	recs, err := f.store.ListRecommendations(ctx, agentNow, agentNow)
	require.NoError(t, err)
	assert.Len(t, recs, config.NewConfig().RecommendationLimit)
	for _, r := range recs {
		assert.False(t, r.RecommendedTime.Before(agentNow), "slot before now used for %s", r.ActivityType)
	}

	cached, ok, err := recommend.NewCache(f.redis, time.Hour, f.agent.logger).Get(ctx, agentNow)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, len(recs))

	assert.Equal(t, []string{"wellbeing/event/day_scored/2024-06-15"}, f.topicsWithPrefix("wellbeing/event/day_scored"))
	assert.Equal(t, []string{"wellbeing/event/recommendations/2024-06-15"}, f.topicsWithPrefix("wellbeing/event/recommendations"))

	unlocked := f.topicsWithPrefix("wellbeing/event/achievement_unlocked/")
	assert.Contains(t, unlocked, "wellbeing/event/achievement_unlocked/first_steps")
	assert.Contains(t, unlocked, "wellbeing/event/achievement_unlocked/ten_thousand")
	assert.Contains(t, unlocked, "wellbeing/event/achievement_unlocked/rain_or_shine")

	// the earliest slot ahead of now is predicted
	require.Len(t, f.predictor.targets, 1)
	assert.Equal(t, time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC), f.predictor.targets[0])
	preds, err := f.store.ListPredictions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, types.ActivityOutdoorExercise, preds[0].PredictedActivity)
}

func TestHandleDay_PredictionFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newAgentFixture(t)
	f.predictor.err = errors.New("model offline")

	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(rainyDay)})

	_, err := f.store.GetDay(ctx, agentNow)
	require.NoError(t, err)
	preds, err := f.store.ListPredictions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestHandleDay_InvalidMetricsAreRejected(t *testing.T) {
	f := newAgentFixture(t)

	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(`{"date": "2024-06-15", "steps": -5}`)})

	_, err := f.store.GetDay(context.Background(), agentNow)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, f.broker.Messages())
}

func TestHandleAction(t *testing.T) {
	ctx := context.Background()
	f := newAgentFixture(t)
	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(rainyDay)})

	recs, err := f.store.ListRecommendations(ctx, agentNow, agentNow)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	target := recs[0]

	payload := fmt.Sprintf(`{"recommendation_id": %q, "satisfaction": 4}`, target.ID)
	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/action/app", payload: []byte(payload)})

	got, err := f.store.GetRecommendation(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActedUpon)
	require.NotNil(t, got.ActualSatisfaction)
	assert.Equal(t, 4.0, *got.ActualSatisfaction)

	_, cached := f.redis.Value(redis.RecommendationsKey("2024-06-15"))
	assert.False(t, cached, "cache should be invalidated after an action")
}

func TestHandleObserved(t *testing.T) {
	ctx := context.Background()
	f := newAgentFixture(t)
	f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(rainyDay)})

	f.agent.now = func() time.Time { return time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC) }

	f.agent.handleMessage(testMessage{
		topic:   "wellbeing/raw/observed/watch",
		payload: []byte(`{"activity": "outdoor_exercise", "timestamp": "2024-06-15T14:10:00Z"}`),
	})

	preds, err := f.store.ListPredictions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.True(t, preds[0].IsValidated)
	assert.Equal(t, 1.0, preds[0].PredictionAccuracy)
	assert.Len(t, f.topicsWithPrefix("wellbeing/event/prediction_validated/"), 1)
}

func TestHandleMessage_BadInputDoesNotPanic(t *testing.T) {
	f := newAgentFixture(t)

	assert.NotPanics(t, func() {
		f.agent.handleMessage(testMessage{topic: "wellbeing/raw", payload: []byte(`{}`)})
		f.agent.handleMessage(testMessage{topic: "wellbeing/raw/day/phone", payload: []byte(`not json`)})
		f.agent.handleMessage(testMessage{topic: "wellbeing/raw/unknown/phone", payload: []byte(`{}`)})
		f.agent.handleMessage(testMessage{topic: "wellbeing/raw/action/app", payload: []byte(`{"recommendation_id": "7b0a1c7e-4f7e-4d43-9f8e-8d1c6f1b2a10"}`)})
	})
	assert.Empty(t, f.broker.Messages())
}

func TestStart_SubscribesAndStops(t *testing.T) {
	f := newAgentFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.agent.Start(ctx) }()

	require.Eventually(t, func() bool {
		return f.broker.Deliver("wellbeing/raw/day/phone", []byte(rainyDay))
	}, time.Second, 5*time.Millisecond)
	assert.True(t, f.broker.IsConnected())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("agent did not stop")
	}

	_, err := f.store.GetDay(context.Background(), agentNow)
	assert.NoError(t, err)
}
