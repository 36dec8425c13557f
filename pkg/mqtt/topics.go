package mqtt

import (
	"fmt"
	"strings"
)

// Inbound topics. The last level names the source (device, app or day key).
const (
	TopicRawDay      = "wellbeing/raw/day/+"
	TopicRawAction   = "wellbeing/raw/action/+"
	TopicRawObserved = "wellbeing/raw/observed/+"
)

// Event kinds published under wellbeing/event/{kind}/{id}
const (
	EventDayScored           = "day_scored"
	EventRecommendations     = "recommendations"
	EventAchievementUnlocked = "achievement_unlocked"
	EventGoalCompleted       = "goal_completed"
	EventLevelUp             = "level_up"
	EventPredictionValidated = "prediction_validated"
)

// RawTopic builds wellbeing/raw/{kind}/{source}
func RawTopic(kind, source string) string {
	return fmt.Sprintf("wellbeing/raw/%s/%s", kind, source)
}

// EventTopic builds wellbeing/event/{kind}/{id}
func EventTopic(kind, id string) string {
	return fmt.Sprintf("wellbeing/event/%s/%s", kind, id)
}

// ParseRawTopic splits wellbeing/raw/{kind}/{source}
func ParseRawTopic(topic string) (kind, source string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "wellbeing" || parts[1] != "raw" || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("invalid topic format: %s", topic)
	}
	return parts[2], parts[3], nil
}
