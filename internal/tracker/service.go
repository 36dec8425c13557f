// Package tracker applies achievement, goal, level, recommendation and
// prediction updates. Every read-modify-write runs under a per-entity lock
// and is persisted with an optimistic version check, retried on conflict.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-wellbeing/internal/achievement"
	"github.com/saaga0h/jeeves-wellbeing/internal/events"
	"github.com/saaga0h/jeeves-wellbeing/internal/goal"
	"github.com/saaga0h/jeeves-wellbeing/internal/level"
	"github.com/saaga0h/jeeves-wellbeing/internal/lock"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/prediction"
	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

// Lock kinds
const (
	kindAchievement    = "achievement"
	kindGoal           = "goal"
	kindLevel          = "level"
	kindRecommendation = "recommendation"
	kindPrediction     = "prediction"
)

// Service is the single writer for tracked entities
type Service struct {
	store      store.Store
	locker     lock.Locker
	registry   *achievement.Registry
	publisher  events.Publisher
	metrics    *metrics.Metrics
	userID     string
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger
}

// NewService wires the tracker. publisher and m may be nil.
func NewService(st store.Store, locker lock.Locker, registry *achievement.Registry, publisher events.Publisher, m *metrics.Metrics, userID string, maxRetries int, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if registry == nil {
		registry = achievement.NewRegistry()
	}
	return &Service{
		store:      st,
		locker:     locker,
		registry:   registry,
		publisher:  publisher,
		metrics:    m,
		userID:     userID,
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     logger,
	}
}

// update runs fn under the entity lock with conflict retries
func (s *Service) update(ctx context.Context, kind, id string, fn func(ctx context.Context) error) error {
	return RetryOnConflict(ctx, s.maxRetries, func(ctx context.Context) error {
		release, err := s.locker.Lock(ctx, redis.LockKey(kind, id))
		if err != nil {
			return err
		}
		defer release()

		err = fn(ctx)
		if types.IsRetryable(err) {
			s.metrics.Conflict(kind)
			s.logger.Debug("Version conflict, retrying", "kind", kind, "id", id)
		}
		return err
	})
}

// SeedAchievements stores catalog entries whose key is not stored yet
func (s *Service) SeedAchievements(ctx context.Context, catalog []types.Achievement) (int, error) {
	existing, err := s.store.ListAchievements(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.Key] = true
	}

	added := 0
	for _, a := range catalog {
		if known[a.Key] {
			continue
		}
		a := a
		a.Version = 0
		if err := s.store.SaveAchievement(ctx, &a); err != nil {
			if types.IsRetryable(err) {
				continue
			}
			return added, fmt.Errorf("failed to seed achievement %s: %w", a.Key, err)
		}
		added++
	}

	s.logger.Info("Achievement catalog seeded", "added", added, "existing", len(existing))
	return added, nil
}

// Level returns the user's level, a fresh level-1 record if none is stored
func (s *Service) Level(ctx context.Context) (types.UserLevel, error) {
	l, err := s.store.GetLevel(ctx, s.userID)
	if errors.Is(err, types.ErrNotFound) {
		return types.NewUserLevel(s.userID), nil
	}
	if err != nil {
		return types.UserLevel{}, err
	}
	return *l, nil
}

// AwardXP adds amount to the user's level and publishes level-ups
func (s *Service) AwardXP(ctx context.Context, amount int, reason string) (types.UserLevel, bool, error) {
	var result types.UserLevel
	var leveledUp bool
	var previous int

	err := s.update(ctx, kindLevel, s.userID, func(ctx context.Context) error {
		current, err := s.Level(ctx)
		if err != nil {
			return err
		}
		previous = current.CurrentLevel

		result, leveledUp = level.AwardXP(current, amount, s.now())
		if result == current {
			return nil
		}
		return s.store.SaveLevel(ctx, &result)
	})
	if err != nil {
		return types.UserLevel{}, false, fmt.Errorf("failed to award %d XP: %w", amount, err)
	}

	s.logger.Info("XP awarded",
		"amount", amount,
		"reason", reason,
		"level", result.CurrentLevel,
		"total_xp", result.TotalXP)

	if leveledUp {
		s.metrics.LevelUp(result.CurrentLevel - previous)
		if err := s.publisher.LevelUp(result, previous); err != nil {
			s.logger.Warn("Failed to publish level up", "error", err)
		}
	}
	return result, leveledUp, nil
}

// UpdateAchievement raises an achievement's progress
func (s *Service) UpdateAchievement(ctx context.Context, id uuid.UUID, progress float64) (types.Achievement, bool, error) {
	var result types.Achievement
	var unlocked bool

	err := s.update(ctx, kindAchievement, id.String(), func(ctx context.Context) error {
		a, err := s.store.GetAchievement(ctx, id)
		if err != nil {
			return err
		}
		result, unlocked = achievement.UpdateProgress(*a, progress, s.now())
		if result.CurrentProgress == a.CurrentProgress && !unlocked {
			return nil
		}
		return s.store.SaveAchievement(ctx, &result)
	})
	if err != nil {
		return types.Achievement{}, false, fmt.Errorf("failed to update achievement %s: %w", id, err)
	}

	if unlocked {
		s.onUnlock(ctx, result)
	}
	return result, unlocked, nil
}

// EvaluateAchievements re-derives every locked achievement from history and
// returns the ones unlocked by this pass
func (s *Service) EvaluateAchievements(ctx context.Context, history []types.DayRecord) ([]types.Achievement, error) {
	all, err := s.store.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}

	var unlockedNow []types.Achievement
	for _, candidate := range all {
		if candidate.IsUnlocked {
			continue
		}

		var result types.Achievement
		var unlocked bool
		err := s.update(ctx, kindAchievement, candidate.ID.String(), func(ctx context.Context) error {
			a, err := s.store.GetAchievement(ctx, candidate.ID)
			if err != nil {
				return err
			}
			var changed bool
			result, changed, unlocked = s.registry.Evaluate(*a, history, s.now())
			if !changed {
				return nil
			}
			return s.store.SaveAchievement(ctx, &result)
		})
		if err != nil {
			return unlockedNow, fmt.Errorf("failed to evaluate achievement %s: %w", candidate.Key, err)
		}

		if unlocked {
			s.onUnlock(ctx, result)
			unlockedNow = append(unlockedNow, result)
		}
	}
	return unlockedNow, nil
}

func (s *Service) onUnlock(ctx context.Context, a types.Achievement) {
	s.logger.Info("Achievement unlocked",
		"key", a.Key,
		"tier", a.Tier,
		"points", a.PointsValue)

	s.metrics.AchievementUnlocked(string(a.Tier))
	if err := s.publisher.AchievementUnlocked(a); err != nil {
		s.logger.Warn("Failed to publish achievement unlock", "key", a.Key, "error", err)
	}
	if _, _, err := s.AwardXP(ctx, a.PointsValue, "achievement:"+a.Key); err != nil {
		s.logger.Error("Failed to award achievement XP", "key", a.Key, "error", err)
	}
}

// CreateGoal validates and stores a new goal
func (s *Service) CreateGoal(ctx context.Context, g types.Goal) (types.Goal, error) {
	if g.StartDate.IsZero() {
		g.StartDate = s.now()
	}
	if err := goal.Validate(g); err != nil {
		return types.Goal{}, err
	}
	// Validate accepts any case; store the canonical values
	g.Type, _ = types.ParseGoalType(string(g.Type))
	g.Category, _ = types.ParseGoalCategory(string(g.Category))
	g.Frequency, _ = types.ParseGoalFrequency(string(g.Frequency))
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.Version = 0
	g.IsCompleted = goal.IsCompleted(g, g.CurrentValue)
	g.MotivationalMessage = goal.Message(g)

	if err := s.store.SaveGoal(ctx, &g); err != nil {
		return types.Goal{}, fmt.Errorf("failed to create goal: %w", err)
	}
	return g, nil
}

// UpdateGoal records a new value for a goal
func (s *Service) UpdateGoal(ctx context.Context, id uuid.UUID, value float64) (types.Goal, bool, error) {
	var result types.Goal
	var completed bool

	err := s.update(ctx, kindGoal, id.String(), func(ctx context.Context) error {
		g, err := s.store.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		result, completed = goal.Update(*g, value, s.now())
		return s.store.SaveGoal(ctx, &result)
	})
	if err != nil {
		return types.Goal{}, false, fmt.Errorf("failed to update goal %s: %w", id, err)
	}

	if completed {
		s.logger.Info("Goal completed",
			"goal_id", id,
			"title", result.Title,
			"streak", result.StreakCount)
		s.metrics.GoalCompleted()
		if err := s.publisher.GoalCompleted(result); err != nil {
			s.logger.Warn("Failed to publish goal completion", "goal_id", id, "error", err)
		}
	}
	return result, completed, nil
}

// EvaluateGoals feeds day into every active metric-bound goal and returns
// the goals it completed
func (s *Service) EvaluateGoals(ctx context.Context, day types.DayRecord) ([]types.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, err
	}

	date := types.NormalizeDate(day.Date)
	var completed []types.Goal
	for _, g := range goals {
		if date.Before(types.NormalizeDate(g.StartDate)) {
			continue
		}
		if g.EndDate != nil && date.After(types.NormalizeDate(*g.EndDate)) {
			continue
		}
		value, ok := goal.ValueFromDay(g, day)
		if !ok {
			continue
		}

		updated, done, err := s.UpdateGoal(ctx, g.ID, value)
		if err != nil {
			return completed, err
		}
		if done {
			completed = append(completed, updated)
		}
	}
	return completed, nil
}

// DailyReport summarizes one EvaluateDay pass
type DailyReport struct {
	Date     string              `json:"date"`
	Unlocked []types.Achievement `json:"unlocked"`
	Goals    []types.Goal        `json:"completed_goals"`
}

// EvaluateDay runs the achievement pass over the full history and the goal
// pass for day
func (s *Service) EvaluateDay(ctx context.Context, day types.DayRecord) (DailyReport, error) {
	report := DailyReport{Date: day.DateKey()}

	history, err := s.store.ListDays(ctx, time.Time{}, time.Time{})
	if err != nil {
		return report, fmt.Errorf("failed to load history: %w", err)
	}

	report.Unlocked, err = s.EvaluateAchievements(ctx, history)
	if err != nil {
		return report, err
	}
	report.Goals, err = s.EvaluateGoals(ctx, day)
	if err != nil {
		return report, err
	}

	s.logger.Info("Daily evaluation complete",
		"date", report.Date,
		"history_days", len(history),
		"unlocked", len(report.Unlocked),
		"goals_completed", len(report.Goals))
	return report, nil
}

// ActOnRecommendation records the user's response to a recommendation
func (s *Service) ActOnRecommendation(ctx context.Context, id uuid.UUID, satisfaction *float64) (types.Recommendation, error) {
	var result types.Recommendation
	err := s.update(ctx, kindRecommendation, id.String(), func(ctx context.Context) error {
		rec, err := s.store.GetRecommendation(ctx, id)
		if err != nil {
			return err
		}
		if err := rec.MarkActedUpon(s.now(), satisfaction); err != nil {
			return err
		}
		result = *rec
		return s.store.UpdateRecommendation(ctx, &result)
	})
	if err != nil {
		return types.Recommendation{}, fmt.Errorf("failed to record action on %s: %w", id, err)
	}
	return result, nil
}

// SavePrediction stores a freshly made prediction
func (s *Service) SavePrediction(ctx context.Context, p types.PredictionResult) (types.PredictionResult, error) {
	p.Version = 0
	if err := s.store.SavePrediction(ctx, &p); err != nil {
		return types.PredictionResult{}, err
	}
	return p, nil
}

// ValidatePrediction records the observed activity on one prediction. A
// second validation fails with *types.DoubleValidationError.
func (s *Service) ValidatePrediction(ctx context.Context, id uuid.UUID, observed types.ActivityType) (types.PredictionResult, error) {
	var result types.PredictionResult
	err := s.update(ctx, kindPrediction, id.String(), func(ctx context.Context) error {
		p, err := s.store.GetPrediction(ctx, id)
		if err != nil {
			return err
		}
		result, err = prediction.Validate(*p, observed, s.now())
		if err != nil {
			return err
		}
		return s.store.SavePrediction(ctx, &result)
	})
	if err != nil {
		return types.PredictionResult{}, err
	}

	s.onValidated(result)
	return result, nil
}

// ValidateObservation validates every due prediction near the observation
func (s *Service) ValidateObservation(ctx context.Context, obs prediction.Observation, window time.Duration) ([]types.PredictionResult, error) {
	now := s.now()
	candidates, err := s.store.ListPredictions(ctx, obs.At.Add(-window), obs.At.Add(window))
	if err != nil {
		return nil, err
	}

	var validated []types.PredictionResult
	for _, due := range prediction.ValidateDue(candidates, obs, window, now) {
		result, err := s.ValidatePrediction(ctx, due.ID, obs.Activity)
		var dbl *types.DoubleValidationError
		if errors.As(err, &dbl) {
			continue
		}
		if err != nil {
			return validated, err
		}
		validated = append(validated, result)
	}
	return validated, nil
}

func (s *Service) onValidated(p types.PredictionResult) {
	quality := prediction.Quality(p)
	s.logger.Info("Prediction validated",
		"prediction_id", p.ID,
		"predicted", p.PredictedActivity,
		"actual", p.ActualActivity,
		"quality", quality)

	s.metrics.PredictionValidated(string(quality))
	if err := s.publisher.PredictionValidated(p); err != nil {
		s.logger.Warn("Failed to publish prediction validation", "prediction_id", p.ID, "error", err)
	}
}
