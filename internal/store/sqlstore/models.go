package sqlstore

import "time"

// Rows keep the entity as a JSON payload next to the columns used for lookups
// and optimistic versioning.

type dayRow struct {
	Date      string `gorm:"primaryKey;size:10"`
	Features  string
	Payload   string
	UpdatedAt time.Time
}

func (dayRow) TableName() string { return "days" }

type recommendationRow struct {
	ID      string `gorm:"primaryKey;size:36"`
	Date    string `gorm:"index;size:10"`
	Version int64
	Payload string
}

func (recommendationRow) TableName() string { return "recommendations" }

type predictionRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	TargetUnix int64  `gorm:"index"`
	Version    int64
	Payload    string
}

func (predictionRow) TableName() string { return "predictions" }

type achievementRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	AchievementKey string `gorm:"uniqueIndex"`
	Version        int64
	Payload        string
}

func (achievementRow) TableName() string { return "achievements" }

type goalRow struct {
	ID      string `gorm:"primaryKey;size:36"`
	Version int64
	Payload string
}

func (goalRow) TableName() string { return "goals" }

type levelRow struct {
	UserID  string `gorm:"primaryKey"`
	Version int64
	Payload string
}

func (levelRow) TableName() string { return "user_levels" }
