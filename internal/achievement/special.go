package achievement

import (
	"sync"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// SpecialPredicate decides whether a SPECIAL achievement is earned given the
// user's day history
type SpecialPredicate func(history []types.DayRecord) bool

// Registry maps SPECIAL achievement keys to their predicates
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]SpecialPredicate
}

// NewRegistry returns a registry preloaded with the built-in predicates
func NewRegistry() *Registry {
	r := &Registry{predicates: make(map[string]SpecialPredicate)}
	r.Register("rain_or_shine", anyDay(func(d types.DayRecord) bool {
		return isWet(d.Condition) && d.Steps >= 10000
	}))
	r.Register("moonlit_walker", anyDay(func(d types.DayRecord) bool {
		return d.MoonIllumination >= 0.95 && d.Steps >= 8000
	}))
	r.Register("digital_detox", anyDay(func(d types.DayRecord) bool {
		return d.Steps > 0 && d.ScreenTimeMinutes < 60
	}))
	r.Register("winter_light", anyDay(func(d types.DayRecord) bool {
		return d.DaylightHours > 0 && d.DaylightHours <= 8 && d.PhotoCount >= 20
	}))
	return r
}

// Register installs or replaces the predicate for key
func (r *Registry) Register(key string, p SpecialPredicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates[key] = p
}

// Lookup returns the predicate registered for key
func (r *Registry) Lookup(key string) (SpecialPredicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predicates[key]
	return p, ok
}

// Evaluate recomputes progress for a from history and applies the unlock
// rule for its type. changed reports whether the stored achievement differs.
func (r *Registry) Evaluate(a types.Achievement, history []types.DayRecord, now time.Time) (updated types.Achievement, changed, unlocked bool) {
	if a.IsUnlocked {
		return a, false, false
	}

	if a.Type == types.AchievementSpecial {
		p, ok := r.Lookup(a.Key)
		if !ok {
			return a, false, false
		}
		updated, unlocked = UpdateSpecial(a, p(history), now)
		return updated, unlocked, unlocked
	}

	progress, ok := ProgressFromHistory(a, history)
	if !ok {
		return a, false, false
	}
	updated, unlocked = UpdateProgress(a, progress, now)
	changed = unlocked || updated.CurrentProgress != a.CurrentProgress
	return updated, changed, unlocked
}

func anyDay(match func(types.DayRecord) bool) SpecialPredicate {
	return func(history []types.DayRecord) bool {
		for _, d := range history {
			if match(d) {
				return true
			}
		}
		return false
	}
}

func isWet(c types.WeatherCondition) bool {
	switch c {
	case types.ConditionDrizzle, types.ConditionRain, types.ConditionHeavyRain, types.ConditionStorm:
		return true
	}
	return false
}
