package events

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

func newTestPublisher() (*MQTTPublisher, *mqtt.MockClient) {
	client := mqtt.NewMockClient()
	p := NewMQTTPublisher(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return p, client
}

func TestPublisherTopics(t *testing.T) {
	p, client := newTestPublisher()
	day := types.DayRecord{Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Steps: 1200}
	a := types.NewAchievement("first_steps", "First Steps", "", types.AchievementMilestone, types.CategoryFitness, types.TierBronze, 5000)
	g := types.Goal{Title: "Walk"}
	pr := types.NewPredictionResult(types.ActivityWork, nil, 0.5, day.Date, day.Date)

	require.NoError(t, p.DayScored(day))
	require.NoError(t, p.Recommendations(day.Date, nil))
	require.NoError(t, p.AchievementUnlocked(a))
	require.NoError(t, p.GoalCompleted(g))
	require.NoError(t, p.LevelUp(types.UserLevel{UserID: "default", CurrentLevel: 3, Title: "Beginner"}, 2))
	require.NoError(t, p.PredictionValidated(pr))

	msgs := client.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "wellbeing/event/day_scored/2024-06-15", msgs[0].Topic)
	assert.Equal(t, "wellbeing/event/recommendations/2024-06-15", msgs[1].Topic)
	assert.Equal(t, "wellbeing/event/achievement_unlocked/first_steps", msgs[2].Topic)
	assert.Equal(t, "wellbeing/event/goal_completed/"+g.ID.String(), msgs[3].Topic)
	assert.Equal(t, "wellbeing/event/level_up/default", msgs[4].Topic)
	assert.Equal(t, "wellbeing/event/prediction_validated/"+pr.ID.String(), msgs[5].Topic)

	for _, m := range msgs {
		assert.Equal(t, byte(1), m.QoS)
		assert.False(t, m.Retained)
	}
}

func TestPublisherEnvelope(t *testing.T) {
	p, client := newTestPublisher()
	require.NoError(t, p.LevelUp(types.UserLevel{UserID: "u1", CurrentLevel: 5, Title: "Novice", TotalXP: 900}, 4))

	var env struct {
		Kind        string       `json:"kind"`
		PublishedAt string       `json:"published_at"`
		Data        LevelUpEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(client.Messages()[0].Payload, &env))
	assert.Equal(t, mqtt.EventLevelUp, env.Kind)
	assert.Equal(t, "2024-06-15T12:00:00Z", env.PublishedAt)
	assert.Equal(t, LevelUpEvent{UserID: "u1", PreviousLevel: 4, Level: 5, Title: "Novice", TotalXP: 900}, env.Data)
}

func TestPublisherPropagatesPublishError(t *testing.T) {
	p, client := newTestPublisher()
	client.PublishErr = errors.New("broker gone")
	assert.ErrorContains(t, p.DayScored(types.DayRecord{}), "broker gone")
}
