// Package store defines the persistence collaborators of the wellbeing engine.
//
// Tracked entities (achievements, goals, user levels, recommendations and
// predictions) carry a Version. Save with Version 0 inserts; any other value
// must match the stored version or the call fails with types.ErrConflict.
// On success the entity's Version is advanced in place.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// DayStore holds the daily records, the system of record for history
type DayStore interface {
	// GetDay returns the record for date, types.ErrNotFound if none
	GetDay(ctx context.Context, date time.Time) (*types.DayRecord, error)

	// ListDays returns records in [from, to] ordered by date; zero bounds are open
	ListDays(ctx context.Context, from, to time.Time) ([]types.DayRecord, error)

	// SaveDay inserts or replaces the record for its date
	SaveDay(ctx context.Context, day types.DayRecord) error

	// SimilarDays returns up to k records whose environmental features are
	// closest to features, excluding the date given
	SimilarDays(ctx context.Context, features []float32, k int, exclude time.Time) ([]types.DayRecord, error)
}

// RecommendationStore holds generated recommendations and user responses
type RecommendationStore interface {
	// SaveRecommendations inserts a freshly generated batch
	SaveRecommendations(ctx context.Context, recs []types.Recommendation) error

	// GetRecommendation returns one recommendation, types.ErrNotFound if none
	GetRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)

	// ListRecommendations returns recommendations for days in [from, to]
	ListRecommendations(ctx context.Context, from, to time.Time) ([]types.Recommendation, error)

	// UpdateRecommendation persists the action fields under the version check
	UpdateRecommendation(ctx context.Context, rec *types.Recommendation) error
}

// PredictionStore holds activity predictions
type PredictionStore interface {
	// SavePrediction inserts or updates a prediction under the version check
	SavePrediction(ctx context.Context, p *types.PredictionResult) error

	// GetPrediction returns one prediction, types.ErrNotFound if none
	GetPrediction(ctx context.Context, id uuid.UUID) (*types.PredictionResult, error)

	// ListPredictions returns predictions targeting [from, to]
	ListPredictions(ctx context.Context, from, to time.Time) ([]types.PredictionResult, error)
}

// AchievementStore holds achievement definitions and progress
type AchievementStore interface {
	ListAchievements(ctx context.Context) ([]types.Achievement, error)
	GetAchievement(ctx context.Context, id uuid.UUID) (*types.Achievement, error)
	SaveAchievement(ctx context.Context, a *types.Achievement) error
}

// GoalStore holds user goals
type GoalStore interface {
	ListGoals(ctx context.Context) ([]types.Goal, error)
	GetGoal(ctx context.Context, id uuid.UUID) (*types.Goal, error)
	SaveGoal(ctx context.Context, g *types.Goal) error
}

// LevelStore holds the single level record per user
type LevelStore interface {
	// GetLevel returns the user's level, types.ErrNotFound if none
	GetLevel(ctx context.Context, userID string) (*types.UserLevel, error)
	SaveLevel(ctx context.Context, l *types.UserLevel) error
}

// Store bundles every repository behind one backend
type Store interface {
	DayStore
	RecommendationStore
	PredictionStore
	AchievementStore
	GoalStore
	LevelStore

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}
