package types

import "time"

// UserLevel is the per-user XP and level state
type UserLevel struct {
	UserID       string    `json:"user_id"`
	CurrentLevel int       `json:"current_level"`
	CurrentXP    int       `json:"current_xp"` // remainder after the last level-up
	TotalXP      int       `json:"total_xp"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int64     `json:"version"`
}

// NewUserLevel returns a fresh level-1 record
func NewUserLevel(userID string) UserLevel {
	return UserLevel{
		UserID:       userID,
		CurrentLevel: 1,
		Title:        "Beginner",
	}
}
