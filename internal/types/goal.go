package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GoalType selects the completion predicate
type GoalType string

const (
	GoalAchieve  GoalType = "ACHIEVE"
	GoalMaximize GoalType = "MAXIMIZE"
	GoalMinimize GoalType = "MINIMIZE"
	GoalMaintain GoalType = "MAINTAIN"
)

// GoalCategory groups goals for display
type GoalCategory string

const (
	GoalCategoryFitness      GoalCategory = "FITNESS"
	GoalCategorySocial       GoalCategory = "SOCIAL"
	GoalCategoryProductivity GoalCategory = "PRODUCTIVITY"
	GoalCategoryWellbeing    GoalCategory = "WELLBEING"
	GoalCategoryScreenTime   GoalCategory = "SCREEN_TIME"
	GoalCategoryMedia        GoalCategory = "MEDIA"
	GoalCategoryPhotography  GoalCategory = "PHOTOGRAPHY"
)

// GoalFrequency is the cadence a goal is evaluated on
type GoalFrequency string

const (
	FrequencyDaily   GoalFrequency = "DAILY"
	FrequencyWeekly  GoalFrequency = "WEEKLY"
	FrequencyMonthly GoalFrequency = "MONTHLY"
	FrequencyYearly  GoalFrequency = "YEARLY"
)

// Interval returns the expected time between completions
func (f GoalFrequency) Interval() time.Duration {
	day := 24 * time.Hour
	switch f {
	case FrequencyWeekly:
		return 7 * day
	case FrequencyMonthly:
		return 30 * day
	case FrequencyYearly:
		return 365 * day
	default:
		return day
	}
}

// ParseGoalType validates a goal type
func ParseGoalType(s string) (GoalType, error) {
	switch v := GoalType(strings.ToUpper(strings.TrimSpace(s))); v {
	case GoalAchieve, GoalMaximize, GoalMinimize, GoalMaintain:
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "goal type", Value: s}
}

// ParseGoalCategory validates a goal category
func ParseGoalCategory(s string) (GoalCategory, error) {
	switch v := GoalCategory(strings.ToUpper(strings.TrimSpace(s))); v {
	case GoalCategoryFitness, GoalCategorySocial, GoalCategoryProductivity, GoalCategoryWellbeing,
		GoalCategoryScreenTime, GoalCategoryMedia, GoalCategoryPhotography:
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "goal category", Value: s}
}

// ParseGoalFrequency validates a goal frequency
func ParseGoalFrequency(s string) (GoalFrequency, error) {
	switch v := GoalFrequency(strings.ToUpper(strings.TrimSpace(s))); v {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "goal frequency", Value: s}
}

// Goal is a user-defined target with progress and streak counters
type Goal struct {
	ID                  uuid.UUID     `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Type                GoalType      `json:"type"`
	Category            GoalCategory  `json:"category"`
	Frequency           GoalFrequency `json:"frequency"`
	Metric              Metric        `json:"metric,omitempty"`
	Unit                string        `json:"unit,omitempty"`
	TargetValue         float64       `json:"target_value"`
	CurrentValue        float64       `json:"current_value"`
	StartDate           time.Time     `json:"start_date"`
	EndDate             *time.Time    `json:"end_date,omitempty"`
	IsCompleted         bool          `json:"is_completed"`
	StreakCount         int           `json:"streak_count"`
	TotalCompletions    int           `json:"total_completions"`
	LastCompletedDate   *time.Time    `json:"last_completed_date,omitempty"`
	MotivationalMessage string        `json:"motivational_message,omitempty"`
	Version             int64         `json:"version"`
}
