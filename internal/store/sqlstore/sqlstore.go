// Package sqlstore is the embedded SQLite backend of the store interfaces,
// built on gorm.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Store implements store.Store on SQLite
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and migrates it.
// Use "file::memory:?cache=shared" for an in-memory database.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = "wellbeing.db"
	}
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(
		&dayRow{},
		&recommendationRow{},
		&predictionRow{},
		&achievementRow{},
		&goalRow{},
		&levelRow{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	log.Info("Opened SQLite store", "path", path)
	return &Store{db: db, logger: log}, nil
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Days

func dateKey(t time.Time) string {
	return types.NormalizeDate(t).Format(types.DateLayout)
}

func (s *Store) GetDay(ctx context.Context, date time.Time) (*types.DayRecord, error) {
	var row dayRow
	err := s.db.WithContext(ctx).Where("date = ?", dateKey(date)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("day %s: %w", dateKey(date), types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query day: %w", err)
	}

	var day types.DayRecord
	if err := decode(row.Payload, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

func (s *Store) ListDays(ctx context.Context, from, to time.Time) ([]types.DayRecord, error) {
	q := s.db.WithContext(ctx).Order("date")
	if !from.IsZero() {
		q = q.Where("date >= ?", dateKey(from))
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", dateKey(to))
	}

	var rows []dayRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	return decodeDays(rows)
}

func (s *Store) SaveDay(ctx context.Context, day types.DayRecord) error {
	day.Date = types.NormalizeDate(day.Date)

	payload, err := encode(day)
	if err != nil {
		return err
	}
	features, err := encode(day.Features())
	if err != nil {
		return err
	}

	row := dayRow{Date: day.DateKey(), Features: features, Payload: payload, UpdatedAt: day.UpdatedAt}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save day %s: %w", row.Date, err)
	}
	return nil
}

// SimilarDays ranks every stored day in memory; SQLite has no vector index
func (s *Store) SimilarDays(ctx context.Context, features []float32, k int, exclude time.Time) ([]types.DayRecord, error) {
	days, err := s.ListDays(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	return store.NearestDays(days, features, k, exclude), nil
}

func decodeDays(rows []dayRow) ([]types.DayRecord, error) {
	days := make([]types.DayRecord, 0, len(rows))
	for _, row := range rows {
		var day types.DayRecord
		if err := decode(row.Payload, &day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// Recommendations

func (s *Store) SaveRecommendations(ctx context.Context, recs []types.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([]recommendationRow, 0, len(recs))
	var dates []string
	seen := make(map[string]bool)
	for i := range recs {
		recs[i].Version = 1
		payload, err := encode(recs[i])
		if err != nil {
			return err
		}
		key := dateKey(recs[i].Date)
		if !seen[key] {
			seen[key] = true
			dates = append(dates, key)
		}
		rows = append(rows, recommendationRow{
			ID:      recs[i].ID.String(),
			Date:    key,
			Version: 1,
			Payload: payload,
		})
	}

	// a new batch replaces the dates' open recommendations; acted-upon ones stay
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []recommendationRow
		if err := tx.Where("date IN ?", dates).Find(&existing).Error; err != nil {
			return err
		}
		var open []string
		for _, row := range existing {
			var rec types.Recommendation
			if err := decode(row.Payload, &rec); err != nil {
				return err
			}
			if !rec.IsActedUpon {
				open = append(open, row.ID)
			}
		}
		if len(open) > 0 {
			if err := tx.Where("id IN ?", open).Delete(&recommendationRow{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		for i := range recs {
			recs[i].Version = 0
		}
		return translate("save recommendations", err)
	}
	return nil
}

func (s *Store) GetRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	var row recommendationRow
	if err := s.first(ctx, &row, "id = ?", id.String()); err != nil {
		return nil, fmt.Errorf("recommendation %s: %w", id, err)
	}
	var rec types.Recommendation
	if err := decode(row.Payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListRecommendations(ctx context.Context, from, to time.Time) ([]types.Recommendation, error) {
	q := s.db.WithContext(ctx).Order("date")
	if !from.IsZero() {
		q = q.Where("date >= ?", dateKey(from))
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", dateKey(to))
	}

	var rows []recommendationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	recs := make([]types.Recommendation, 0, len(rows))
	for _, row := range rows {
		var rec types.Recommendation
		if err := decode(row.Payload, &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Store) UpdateRecommendation(ctx context.Context, rec *types.Recommendation) error {
	return s.saveVersioned(ctx, &recommendationRow{}, "id", rec.ID.String(), &rec.Version, rec,
		map[string]interface{}{"date": dateKey(rec.Date)})
}

// Predictions

func (s *Store) SavePrediction(ctx context.Context, p *types.PredictionResult) error {
	return s.saveVersioned(ctx, &predictionRow{}, "id", p.ID.String(), &p.Version, p,
		map[string]interface{}{"target_unix": p.TargetTime.Unix()})
}

func (s *Store) GetPrediction(ctx context.Context, id uuid.UUID) (*types.PredictionResult, error) {
	var row predictionRow
	if err := s.first(ctx, &row, "id = ?", id.String()); err != nil {
		return nil, fmt.Errorf("prediction %s: %w", id, err)
	}
	var p types.PredictionResult
	if err := decode(row.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPredictions(ctx context.Context, from, to time.Time) ([]types.PredictionResult, error) {
	q := s.db.WithContext(ctx).Order("target_unix")
	if !from.IsZero() {
		q = q.Where("target_unix >= ?", from.Unix())
	}
	if !to.IsZero() {
		q = q.Where("target_unix <= ?", to.Unix())
	}

	var rows []predictionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	out := make([]types.PredictionResult, 0, len(rows))
	for _, row := range rows {
		var p types.PredictionResult
		if err := decode(row.Payload, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Achievements

func (s *Store) ListAchievements(ctx context.Context) ([]types.Achievement, error) {
	var rows []achievementRow
	if err := s.db.WithContext(ctx).Order("achievement_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	out := make([]types.Achievement, 0, len(rows))
	for _, row := range rows {
		var a types.Achievement
		if err := decode(row.Payload, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) GetAchievement(ctx context.Context, id uuid.UUID) (*types.Achievement, error) {
	var row achievementRow
	if err := s.first(ctx, &row, "id = ?", id.String()); err != nil {
		return nil, fmt.Errorf("achievement %s: %w", id, err)
	}
	var a types.Achievement
	if err := decode(row.Payload, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) SaveAchievement(ctx context.Context, a *types.Achievement) error {
	return s.saveVersioned(ctx, &achievementRow{}, "id", a.ID.String(), &a.Version, a,
		map[string]interface{}{"achievement_key": a.Key})
}

// Goals

func (s *Store) ListGoals(ctx context.Context) ([]types.Goal, error) {
	var rows []goalRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	out := make([]types.Goal, 0, len(rows))
	for _, row := range rows {
		var g types.Goal
		if err := decode(row.Payload, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*types.Goal, error) {
	var row goalRow
	if err := s.first(ctx, &row, "id = ?", id.String()); err != nil {
		return nil, fmt.Errorf("goal %s: %w", id, err)
	}
	var g types.Goal
	if err := decode(row.Payload, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) SaveGoal(ctx context.Context, g *types.Goal) error {
	return s.saveVersioned(ctx, &goalRow{}, "id", g.ID.String(), &g.Version, g, nil)
}

// Levels

func (s *Store) GetLevel(ctx context.Context, userID string) (*types.UserLevel, error) {
	var row levelRow
	if err := s.first(ctx, &row, "user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("level for %s: %w", userID, err)
	}
	var l types.UserLevel
	if err := decode(row.Payload, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) SaveLevel(ctx context.Context, l *types.UserLevel) error {
	return s.saveVersioned(ctx, &levelRow{}, "user_id", l.UserID, &l.Version, l, nil)
}

// helpers

func (s *Store) first(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := s.db.WithContext(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ErrNotFound
	}
	return err
}

// saveVersioned inserts when *version is 0 and otherwise updates only the row
// still at *version. The entity is encoded with the advanced version, which is
// rolled back if the write fails.
func (s *Store) saveVersioned(ctx context.Context, model interface{}, keyColumn, key string, version *int64, entity interface{}, extra map[string]interface{}) error {
	current := *version
	*version = current + 1

	payload, err := encode(entity)
	if err != nil {
		*version = current
		return err
	}

	values := map[string]interface{}{"version": current + 1, "payload": payload}
	for k, v := range extra {
		values[k] = v
	}

	db := s.db.WithContext(ctx)
	if current == 0 {
		values[keyColumn] = key
		err = db.Model(model).Create(values).Error
		if err != nil {
			*version = current
			return translate("insert "+keyColumn+" "+key, err)
		}
		return nil
	}

	res := db.Model(model).Where(keyColumn+" = ? AND version = ?", key, current).Updates(values)
	if res.Error != nil {
		*version = current
		return translate("update "+keyColumn+" "+key, res.Error)
	}
	if res.RowsAffected == 0 {
		*version = current
		s.logger.Debug("Optimistic version check failed", "key", key, "version", current)
		return fmt.Errorf("%s %s at version %d: %w", keyColumn, key, current, types.ErrConflict)
	}
	return nil
}

func translate(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, types.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(data), nil
}

func decode(payload string, v interface{}) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
