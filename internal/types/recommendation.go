package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PriorityLevel buckets a recommendation's confidence
type PriorityLevel string

const (
	PriorityHigh    PriorityLevel = "HIGH"
	PriorityMedium  PriorityLevel = "MEDIUM"
	PriorityLow     PriorityLevel = "LOW"
	PriorityVeryLow PriorityLevel = "VERY_LOW"
)

// Freshness classifies a recommendation by age
type Freshness string

const (
	FreshnessFresh  Freshness = "FRESH"
	FreshnessRecent Freshness = "RECENT"
	FreshnessStale  Freshness = "STALE"
)

// MaxSatisfaction is the upper bound of the user satisfaction rating
const MaxSatisfaction = 5.0

// WeatherSuitability is the per-dimension breakdown behind a suitability score
type WeatherSuitability struct {
	Temperature  float64  `json:"temperature"`
	Condition    float64  `json:"condition"`
	Humidity     float64  `json:"humidity"`
	Wind         float64  `json:"wind"`
	UV           float64  `json:"uv"`
	OverallScore float64  `json:"overall_score"`
	Fallbacks    []string `json:"fallbacks,omitempty"`
}

// PersonalizationInputs are the upstream personalization sub-scores, each in [0,1]
type PersonalizationInputs struct {
	HistoricalPreference float64 `json:"historical_preference"`
	TimeBased            float64 `json:"time_based"`
	LocationBased        float64 `json:"location_based"`
	ActivityFrequency    float64 `json:"activity_frequency"`
	SocialContext        float64 `json:"social_context"`
}

// NeutralPersonalization is used for activities without personalization data
func NeutralPersonalization() PersonalizationInputs {
	return PersonalizationInputs{
		HistoricalPreference: 0.5,
		TimeBased:            0.5,
		LocationBased:        0.5,
		ActivityFrequency:    0.5,
		SocialContext:        0.5,
	}
}

// UserPersonalizationScore is the weighted personalization breakdown
type UserPersonalizationScore struct {
	PersonalizationInputs
	OverallScore float64 `json:"overall_score"`
}

// Recommendation is a ranked activity suggestion. Only the action fields
// change after creation.
type Recommendation struct {
	ID                 uuid.UUID                `json:"id"`
	Date               time.Time                `json:"date"`
	ActivityType       ActivityType             `json:"activity_type"`
	Title              string                   `json:"title"`
	Reason             string                   `json:"reason"`
	RecommendedTime    time.Time                `json:"recommended_time"`
	WeatherSuitability WeatherSuitability       `json:"weather_suitability"`
	Personalization    UserPersonalizationScore `json:"personalization"`
	OverallScore       float64                  `json:"overall_score"`
	ConfidenceScore    float64                  `json:"confidence_score"`
	IsActedUpon        bool                     `json:"is_acted_upon"`
	ActionDate         *time.Time               `json:"action_date,omitempty"`
	ActualSatisfaction *float64                 `json:"actual_satisfaction,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	Version            int64                    `json:"version"`
}

// Priority maps the confidence score to a priority level
func (r Recommendation) Priority() PriorityLevel {
	switch {
	case r.ConfidenceScore >= 0.8:
		return PriorityHigh
	case r.ConfidenceScore >= 0.6:
		return PriorityMedium
	case r.ConfidenceScore >= 0.4:
		return PriorityLow
	default:
		return PriorityVeryLow
	}
}

// IsTimeSensitive reports whether the recommended time is within an hour of now
func (r Recommendation) IsTimeSensitive(now time.Time) bool {
	diff := now.Sub(r.RecommendedTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Hour
}

// Freshness classifies the recommendation by the age of CreatedAt
func (r Recommendation) Freshness(now time.Time) Freshness {
	age := now.Sub(r.CreatedAt)
	switch {
	case age <= time.Hour:
		return FreshnessFresh
	case age <= 24*time.Hour:
		return FreshnessRecent
	default:
		return FreshnessStale
	}
}

// IsActionable is false once the recommendation is stale or already acted upon
func (r Recommendation) IsActionable(now time.Time) bool {
	return !r.IsActedUpon && r.Freshness(now) != FreshnessStale
}

// MarkActedUpon records the user's response. Satisfaction is optional and
// must lie in [0, MaxSatisfaction]. Only actionable recommendations accept a
// response; a stale one fails with ErrStaleRecommendation.
func (r *Recommendation) MarkActedUpon(at time.Time, satisfaction *float64) error {
	if r.IsActedUpon {
		return fmt.Errorf("recommendation %s: %w", r.ID, ErrAlreadyActedUpon)
	}
	if r.Freshness(at) == FreshnessStale {
		return fmt.Errorf("recommendation %s: %w", r.ID, ErrStaleRecommendation)
	}
	if satisfaction != nil && (*satisfaction < 0 || *satisfaction > MaxSatisfaction) {
		return &InvalidMetricError{Field: "actual_satisfaction", Value: *satisfaction, Reason: "must be within [0,5]"}
	}
	r.IsActedUpon = true
	r.ActionDate = &at
	if satisfaction != nil {
		s := *satisfaction
		r.ActualSatisfaction = &s
	}
	return nil
}
