// Package goal evaluates user goals: completion, progress, streaks and the
// motivational message shown alongside them.
package goal

import (
	"fmt"
	"math"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// MaintainTolerance is the MAINTAIN band half-width as a share of the target
const MaintainTolerance = 0.10

// IsCompleted applies the type's completion predicate to value
func IsCompleted(g types.Goal, value float64) bool {
	switch g.Type {
	case types.GoalMinimize:
		return value <= g.TargetValue
	case types.GoalMaintain:
		return math.Abs(value-g.TargetValue) <= tolerance(g)
	default:
		return value >= g.TargetValue
	}
}

// ProgressPercent reports progress of the current value in [0,100]
func ProgressPercent(g types.Goal) float64 {
	current, target := g.CurrentValue, g.TargetValue

	switch g.Type {
	case types.GoalMinimize:
		if current <= target {
			return 100
		}
		if target <= 0 {
			return 0
		}
		return math.Max(0, 100-(current-target)/target*100)

	case types.GoalMaintain:
		deviation := math.Abs(current - target)
		tol := tolerance(g)
		if deviation <= tol {
			return 100
		}
		if target == 0 {
			return 0
		}
		return math.Max(0, 100-(deviation-tol)/math.Abs(target)*100)

	default:
		if target <= 0 {
			if current >= target {
				return 100
			}
			return 0
		}
		return math.Max(0, math.Min(100, current/target*100))
	}
}

// Update records a new value. completedNow is true only on a false to true
// transition, which also advances the completion counters and streak.
func Update(g types.Goal, value float64, now time.Time) (types.Goal, bool) {
	wasCompleted := g.IsCompleted
	g.CurrentValue = value
	g.IsCompleted = IsCompleted(g, value)

	completedNow := g.IsCompleted && !wasCompleted
	if completedNow {
		g.TotalCompletions++
		if IsConsecutive(g, now) {
			g.StreakCount++
		} else {
			g.StreakCount = 1
		}
		completedAt := now
		g.LastCompletedDate = &completedAt
	}

	g.MotivationalMessage = Message(g)
	return g, completedNow
}

// IsConsecutive reports whether a completion at now continues the streak:
// the previous completion must be at most two intervals ago
func IsConsecutive(g types.Goal, now time.Time) bool {
	if g.LastCompletedDate == nil {
		return false
	}
	return now.Sub(*g.LastCompletedDate) <= 2*g.Frequency.Interval()
}

// IsOverdue is true once the end date has passed without completion
func IsOverdue(g types.Goal, now time.Time) bool {
	return g.EndDate != nil && now.After(*g.EndDate) && !g.IsCompleted
}

// Message picks the motivational message for the goal's progress band
func Message(g types.Goal) string {
	p := ProgressPercent(g)
	switch {
	case p >= 100:
		if g.StreakCount > 1 {
			return fmt.Sprintf("Goal reached! That's %d in a row, keep the streak alive.", g.StreakCount)
		}
		return "Goal reached! A great start, do it again to build a streak."
	case p >= 80:
		return "Almost there, just a little more to go."
	case p >= 50:
		return "Over halfway, keep the momentum going."
	case p >= 25:
		return "Good progress, stay consistent."
	default:
		return "Every step counts. You've got this."
	}
}

// ValueFromDay reads the goal's bound metric from a day record. ok is false
// when the goal has no metric or the day lacks it.
func ValueFromDay(g types.Goal, day types.DayRecord) (float64, bool) {
	if g.Metric == "" {
		return 0, false
	}
	return day.Metric(g.Metric)
}

// Validate checks a goal definition before it is stored
func Validate(g types.Goal) error {
	if g.Title == "" {
		return fmt.Errorf("goal title is required")
	}
	if _, err := types.ParseGoalType(string(g.Type)); err != nil {
		return err
	}
	if _, err := types.ParseGoalCategory(string(g.Category)); err != nil {
		return err
	}
	if _, err := types.ParseGoalFrequency(string(g.Frequency)); err != nil {
		return err
	}
	if g.Metric != "" {
		if _, ok := (types.DayRecord{}).Metric(g.Metric); !ok {
			return &types.UnknownEnumVariantError{Enum: "goal metric", Value: string(g.Metric)}
		}
	}
	if g.EndDate != nil && g.EndDate.Before(g.StartDate) {
		return fmt.Errorf("goal end date precedes start date")
	}
	return nil
}

func tolerance(g types.Goal) float64 {
	return math.Abs(g.TargetValue) * MaintainTolerance
}
