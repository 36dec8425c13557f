// Package achievement evaluates unlock predicates and tracks monotonic
// progress for achievements.
package achievement

import (
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Satisfied reports whether the progress-based unlock predicate holds.
// SPECIAL achievements are never satisfied by progress alone.
func Satisfied(a types.Achievement) bool {
	switch a.Type {
	case types.AchievementMilestone, types.AchievementCumulative, types.AchievementSocial:
		return a.CurrentProgress >= a.TargetValue
	case types.AchievementStreak:
		return a.CurrentProgress >= float64(a.StreakRequirement)
	}
	return false
}

// UpdateProgress raises progress to newProgress and unlocks the achievement
// when its predicate holds. Lower values are ignored. unlocked is true only
// on the update that performed the unlock.
func UpdateProgress(a types.Achievement, newProgress float64, now time.Time) (types.Achievement, bool) {
	if a.IsUnlocked {
		return a, false
	}
	if newProgress > a.CurrentProgress {
		a.CurrentProgress = newProgress
	}
	if !Satisfied(a) {
		return a, false
	}
	return a, a.Unlock(now)
}

// UpdateSpecial applies an externally evaluated predicate to a SPECIAL
// achievement. Progress is reported as 1 once the predicate has held.
func UpdateSpecial(a types.Achievement, satisfied bool, now time.Time) (types.Achievement, bool) {
	if a.IsUnlocked || !satisfied {
		return a, false
	}
	if a.CurrentProgress < 1 {
		a.CurrentProgress = 1
	}
	return a, a.Unlock(now)
}
