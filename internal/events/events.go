// Package events publishes engine state changes to MQTT.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

// Publisher is implemented by anything that announces engine events
type Publisher interface {
	DayScored(day types.DayRecord) error
	Recommendations(date time.Time, recs []types.Recommendation) error
	AchievementUnlocked(a types.Achievement) error
	GoalCompleted(g types.Goal) error
	LevelUp(l types.UserLevel, previous int) error
	PredictionValidated(p types.PredictionResult) error
}

// Envelope wraps every event payload
type Envelope struct {
	Kind        string      `json:"kind"`
	PublishedAt string      `json:"published_at"`
	Data        interface{} `json:"data"`
}

// LevelUpEvent is the payload of a level_up event
type LevelUpEvent struct {
	UserID        string `json:"user_id"`
	PreviousLevel int    `json:"previous_level"`
	Level         int    `json:"level"`
	Title         string `json:"title"`
	TotalXP       int    `json:"total_xp"`
}

// MQTTPublisher publishes events as JSON at QoS 1
type MQTTPublisher struct {
	client mqtt.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewMQTTPublisher creates a publisher on client
func NewMQTTPublisher(client mqtt.Client, logger *slog.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, now: time.Now, logger: logger}
}

func (p *MQTTPublisher) publish(kind, id string, data interface{}) error {
	payload, err := json.Marshal(Envelope{
		Kind:        kind,
		PublishedAt: p.now().UTC().Format(time.RFC3339),
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}

	topic := mqtt.EventTopic(kind, id)
	if err := p.client.Publish(topic, 1, false, payload); err != nil {
		return err
	}

	p.logger.Debug("Event published", "topic", topic, "size", len(payload))
	return nil
}

func (p *MQTTPublisher) DayScored(day types.DayRecord) error {
	return p.publish(mqtt.EventDayScored, day.DateKey(), day)
}

func (p *MQTTPublisher) Recommendations(date time.Time, recs []types.Recommendation) error {
	return p.publish(mqtt.EventRecommendations, date.UTC().Format(types.DateLayout), recs)
}

func (p *MQTTPublisher) AchievementUnlocked(a types.Achievement) error {
	return p.publish(mqtt.EventAchievementUnlocked, a.Key, a)
}

func (p *MQTTPublisher) GoalCompleted(g types.Goal) error {
	return p.publish(mqtt.EventGoalCompleted, g.ID.String(), g)
}

func (p *MQTTPublisher) LevelUp(l types.UserLevel, previous int) error {
	return p.publish(mqtt.EventLevelUp, l.UserID, LevelUpEvent{
		UserID:        l.UserID,
		PreviousLevel: previous,
		Level:         l.CurrentLevel,
		Title:         l.Title,
		TotalXP:       l.TotalXP,
	})
}

func (p *MQTTPublisher) PredictionValidated(pr types.PredictionResult) error {
	return p.publish(mqtt.EventPredictionValidated, pr.ID.String(), pr)
}

// Discard drops every event
type Discard struct{}

func (Discard) DayScored(types.DayRecord) error                         { return nil }
func (Discard) Recommendations(time.Time, []types.Recommendation) error { return nil }
func (Discard) AchievementUnlocked(types.Achievement) error             { return nil }
func (Discard) GoalCompleted(types.Goal) error                          { return nil }
func (Discard) LevelUp(types.UserLevel, int) error                      { return nil }
func (Discard) PredictionValidated(types.PredictionResult) error        { return nil }
