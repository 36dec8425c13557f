// Package level implements XP accrual and the level ladder.
package level

import (
	"math"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

const (
	// BaseXP is the requirement to reach level 2
	BaseXP = 100
	// Growth is the ratio between consecutive level requirements
	Growth = 1.5
	// MaxLevel caps progression
	MaxLevel = 100
)

// Rank is the presentation tier of a level
type Rank struct {
	MinLevel int    `json:"min_level"`
	Title    string `json:"title"`
	Rank     string `json:"rank"`
	Color    string `json:"color"`
}

// ladder is ordered by MinLevel descending
var ladder = []Rank{
	{90, "Grandmaster", "S", "#FF6B35"},
	{80, "Legend", "A+", "#B9F2FF"},
	{70, "Hero", "A", "#E5E4E2"},
	{60, "Champion", "B+", "#FFD700"},
	{50, "Master", "B", "#FFC107"},
	{40, "Veteran", "C+", "#C0C0C0"},
	{30, "Expert", "C", "#9E9E9E"},
	{25, "Specialist", "D+", "#8BC34A"},
	{20, "Adept", "D", "#4CAF50"},
	{15, "Explorer", "E+", "#03A9F4"},
	{10, "Apprentice", "E", "#2196F3"},
	{5, "Novice", "F+", "#CD7F32"},
	{1, "Beginner", "F", "#795548"},
}

// XPRequired returns the XP needed to advance from level-1 to level. It is
// 0 for level 1 and below and grows geometrically afterwards.
func XPRequired(level int) float64 {
	if level <= 1 {
		return 0
	}
	return math.Floor(BaseXP * math.Pow(Growth, float64(level-2)))
}

// RankFor returns the ladder entry for level
func RankFor(level int) Rank {
	for _, r := range ladder {
		if level >= r.MinLevel {
			return r
		}
	}
	return ladder[len(ladder)-1]
}

// Title returns the ladder title for level
func Title(level int) string {
	return RankFor(level).Title
}

// AwardXP adds amount to both the running remainder and the lifetime total,
// then levels up as many times as the remainder allows. At MaxLevel the XP
// keeps accumulating. Non-positive amounts leave the level untouched.
func AwardXP(l types.UserLevel, amount int, now time.Time) (types.UserLevel, bool) {
	if amount <= 0 {
		return l, false
	}
	if l.CurrentLevel < 1 {
		l.CurrentLevel = 1
	}

	l.CurrentXP += amount
	l.TotalXP += amount
	l.UpdatedAt = now

	leveledUp := false
	for l.CurrentLevel < MaxLevel {
		required := XPRequired(l.CurrentLevel + 1)
		if float64(l.CurrentXP) < required {
			break
		}
		l.CurrentXP -= int(required)
		l.CurrentLevel++
		leveledUp = true
	}

	l.Title = Title(l.CurrentLevel)
	return l, leveledUp
}

// ProgressPercent is the share of the next level's requirement already earned
func ProgressPercent(l types.UserLevel) float64 {
	if l.CurrentLevel >= MaxLevel {
		return 100
	}
	required := XPRequired(l.CurrentLevel + 1)
	if required <= 0 {
		return 0
	}
	return math.Min(100, float64(l.CurrentXP)/required*100)
}

// XPToNext is the XP still missing for the next level
func XPToNext(l types.UserLevel) int {
	if l.CurrentLevel >= MaxLevel {
		return 0
	}
	missing := XPRequired(l.CurrentLevel+1) - float64(l.CurrentXP)
	if missing < 0 {
		return 0
	}
	return int(missing)
}
