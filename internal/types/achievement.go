package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AchievementType selects the unlock predicate
type AchievementType string

const (
	AchievementMilestone  AchievementType = "MILESTONE"
	AchievementCumulative AchievementType = "CUMULATIVE"
	AchievementStreak     AchievementType = "STREAK"
	AchievementSocial     AchievementType = "SOCIAL"
	AchievementSpecial    AchievementType = "SPECIAL"
)

// AchievementCategory groups achievements for display
type AchievementCategory string

const (
	CategoryFitness      AchievementCategory = "FITNESS"
	CategorySocial       AchievementCategory = "SOCIAL"
	CategoryProductivity AchievementCategory = "PRODUCTIVITY"
	CategoryWellbeing    AchievementCategory = "WELLBEING"
	CategoryExploration  AchievementCategory = "EXPLORATION"
	CategoryWeather      AchievementCategory = "WEATHER"
	CategoryMedia        AchievementCategory = "MEDIA"
	CategoryPhotography  AchievementCategory = "PHOTOGRAPHY"
)

// AchievementTier fixes point value and badge color
type AchievementTier string

const (
	TierBronze    AchievementTier = "BRONZE"
	TierSilver    AchievementTier = "SILVER"
	TierGold      AchievementTier = "GOLD"
	TierPlatinum  AchievementTier = "PLATINUM"
	TierDiamond   AchievementTier = "DIAMOND"
	TierLegendary AchievementTier = "LEGENDARY"
)

var tierTable = map[AchievementTier]struct {
	points int
	color  string
}{
	TierBronze:    {10, "#CD7F32"},
	TierSilver:    {25, "#C0C0C0"},
	TierGold:      {50, "#FFD700"},
	TierPlatinum:  {100, "#E5E4E2"},
	TierDiamond:   {200, "#B9F2FF"},
	TierLegendary: {500, "#FF6B35"},
}

// Points returns the award points granted on unlock
func (t AchievementTier) Points() int {
	return tierTable[t].points
}

// BadgeColor returns the badge color as a hex string
func (t AchievementTier) BadgeColor() string {
	return tierTable[t].color
}

// ParseAchievementType validates an achievement type
func ParseAchievementType(s string) (AchievementType, error) {
	switch v := AchievementType(strings.ToUpper(strings.TrimSpace(s))); v {
	case AchievementMilestone, AchievementCumulative, AchievementStreak, AchievementSocial, AchievementSpecial:
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "achievement type", Value: s}
}

// ParseAchievementCategory validates an achievement category
func ParseAchievementCategory(s string) (AchievementCategory, error) {
	switch v := AchievementCategory(strings.ToUpper(strings.TrimSpace(s))); v {
	case CategoryFitness, CategorySocial, CategoryProductivity, CategoryWellbeing,
		CategoryExploration, CategoryWeather, CategoryMedia, CategoryPhotography:
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "achievement category", Value: s}
}

// ParseAchievementTier validates an achievement tier
func ParseAchievementTier(s string) (AchievementTier, error) {
	v := AchievementTier(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := tierTable[v]; ok {
		return v, nil
	}
	return "", &UnknownEnumVariantError{Enum: "achievement tier", Value: s}
}

// AchievementState is the derived lifecycle state
type AchievementState string

const (
	StateHidden     AchievementState = "HIDDEN"
	StateInProgress AchievementState = "IN_PROGRESS"
	StateUnlocked   AchievementState = "UNLOCKED"
)

// Achievement couples a definition with the user's mutable progress
type Achievement struct {
	ID                uuid.UUID           `json:"id"`
	Key               string              `json:"key"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Type              AchievementType     `json:"type"`
	Category          AchievementCategory `json:"category"`
	Tier              AchievementTier     `json:"tier"`
	PointsValue       int                 `json:"points_value"`
	BadgeColor        string              `json:"badge_color"`
	TargetValue       float64             `json:"target_value"`
	StreakRequirement int                 `json:"streak_requirement,omitempty"`
	Metric            Metric              `json:"metric,omitempty"`
	Threshold         float64             `json:"threshold,omitempty"`
	IsHidden          bool                `json:"is_hidden"`
	CurrentProgress   float64             `json:"current_progress"`
	IsUnlocked        bool                `json:"is_unlocked"`
	UnlockedAt        *time.Time          `json:"unlocked_at,omitempty"`
	Version           int64               `json:"version"`
}

// NewAchievement fixes the tier-derived fields at construction
func NewAchievement(key, title, description string, typ AchievementType, category AchievementCategory, tier AchievementTier, target float64) Achievement {
	return Achievement{
		ID:          uuid.New(),
		Key:         key,
		Title:       title,
		Description: description,
		Type:        typ,
		Category:    category,
		Tier:        tier,
		PointsValue: tier.Points(),
		BadgeColor:  tier.BadgeColor(),
		TargetValue: target,
	}
}

// State derives the lifecycle state from the progress fields
func (a Achievement) State() AchievementState {
	switch {
	case a.IsUnlocked:
		return StateUnlocked
	case a.IsHidden && a.CurrentProgress == 0:
		return StateHidden
	default:
		return StateInProgress
	}
}

// Unlock marks the achievement unlocked. Repeated calls keep the first
// UnlockedAt and report false.
func (a *Achievement) Unlock(now time.Time) bool {
	if a.IsUnlocked {
		return false
	}
	a.IsUnlocked = true
	a.UnlockedAt = &now
	return true
}

// ProgressPercent reports progress toward the unlock threshold in [0,100]
func (a Achievement) ProgressPercent() float64 {
	if a.IsUnlocked {
		return 100
	}
	target := a.TargetValue
	if a.Type == AchievementStreak && a.StreakRequirement > 0 {
		target = float64(a.StreakRequirement)
	}
	if target <= 0 {
		return 0
	}
	p := a.CurrentProgress / target * 100
	if p > 100 {
		return 100
	}
	return p
}
