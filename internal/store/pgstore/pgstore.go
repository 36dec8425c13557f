// Package pgstore is the PostgreSQL backend of the store interfaces. Day
// features are stored as pgvector columns so similar-day search runs in the
// database.
package pgstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/jeeves-wellbeing/internal/store"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/postgres"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the Postgres error code for duplicate keys
const uniqueViolation = "23505"

// Store implements store.Store on PostgreSQL + pgvector
type Store struct {
	client postgres.Client
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New wraps a connected Postgres client
func New(client postgres.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.client.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Info("Postgres schema ready")
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	status, err := s.client.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if !status.Connected {
		return fmt.Errorf("postgres unavailable: %s", status.Error)
	}
	return nil
}

// Close disconnects from the database
func (s *Store) Close() error {
	return s.client.Disconnect()
}

// Days

func (s *Store) GetDay(ctx context.Context, date time.Time) (*types.DayRecord, error) {
	var payload []byte
	err := s.client.QueryRow(ctx, `SELECT payload FROM days WHERE date = $1`, types.NormalizeDate(date)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("day %s: %w", types.NormalizeDate(date).Format(types.DateLayout), types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query day: %w", err)
	}

	var day types.DayRecord
	if err := json.Unmarshal(payload, &day); err != nil {
		return nil, fmt.Errorf("failed to unmarshal day: %w", err)
	}
	return &day, nil
}

func (s *Store) ListDays(ctx context.Context, from, to time.Time) ([]types.DayRecord, error) {
	query, args := rangeQuery(`SELECT payload FROM days`, "date", dateOrZero(from), dateOrZero(to))
	return s.queryDays(ctx, query+` ORDER BY date`, args...)
}

func (s *Store) SaveDay(ctx context.Context, day types.DayRecord) error {
	day.Date = types.NormalizeDate(day.Date)

	payload, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("failed to marshal day: %w", err)
	}

	query := `
		INSERT INTO days (date, features, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE
		SET features = EXCLUDED.features, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	_, err = s.client.Exec(ctx, query, day.Date, pgvector.NewVector(day.Features()), payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save day %s: %w", day.DateKey(), err)
	}
	return nil
}

// SimilarDays orders by L2 distance on the feature vector
func (s *Store) SimilarDays(ctx context.Context, features []float32, k int, exclude time.Time) ([]types.DayRecord, error) {
	query := `
		SELECT payload
		FROM days
		WHERE ($2::date IS NULL OR date <> $2)
		ORDER BY features <-> $1, date DESC
		LIMIT $3
	`
	var excluded interface{}
	if !exclude.IsZero() {
		excluded = types.NormalizeDate(exclude)
	}
	return s.queryDays(ctx, query, pgvector.NewVector(features), excluded, k)
}

func (s *Store) queryDays(ctx context.Context, query string, args ...interface{}) ([]types.DayRecord, error) {
	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	var days []types.DayRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan day row: %w", err)
		}
		var day types.DayRecord
		if err := json.Unmarshal(payload, &day); err != nil {
			return nil, fmt.Errorf("failed to unmarshal day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day rows: %w", err)
	}
	return days, nil
}

// Recommendations

func (s *Store) SaveRecommendations(ctx context.Context, recs []types.Recommendation) error {
	err := s.client.Transaction(ctx, func(tx *sql.Tx) error {
		// a new batch replaces the dates' open recommendations; acted-upon ones stay
		cleared := make(map[time.Time]bool)
		for i := range recs {
			date := types.NormalizeDate(recs[i].Date)
			if cleared[date] {
				continue
			}
			cleared[date] = true
			_, err := tx.ExecContext(ctx,
				`DELETE FROM recommendations WHERE date = $1 AND NOT COALESCE((payload->>'is_acted_upon')::boolean, false)`,
				date)
			if err != nil {
				return fmt.Errorf("failed to clear recommendations: %w", err)
			}
		}

		for i := range recs {
			recs[i].Version = 1
			payload, err := json.Marshal(recs[i])
			if err != nil {
				return fmt.Errorf("failed to marshal recommendation: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO recommendations (id, date, version, payload) VALUES ($1, $2, 1, $3)`,
				recs[i].ID, types.NormalizeDate(recs[i].Date), payload)
			if err != nil {
				return translate("insert recommendation", err)
			}
		}
		return nil
	})
	if err != nil {
		for i := range recs {
			recs[i].Version = 0
		}
	}
	return err
}

func (s *Store) GetRecommendation(ctx context.Context, id uuid.UUID) (*types.Recommendation, error) {
	var rec types.Recommendation
	if err := s.getPayload(ctx, `SELECT payload FROM recommendations WHERE id = $1`, id, &rec); err != nil {
		return nil, fmt.Errorf("recommendation %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) ListRecommendations(ctx context.Context, from, to time.Time) ([]types.Recommendation, error) {
	query, args := rangeQuery(`SELECT payload FROM recommendations`, "date", dateOrZero(from), dateOrZero(to))
	rows, err := s.client.Query(ctx, query+` ORDER BY date`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []types.Recommendation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}
		var rec types.Recommendation
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) UpdateRecommendation(ctx context.Context, rec *types.Recommendation) error {
	return s.saveVersioned(ctx, &rec.Version, rec,
		`INSERT INTO recommendations (id, date, version, payload) VALUES ($1, $2, $3, $4)`,
		`UPDATE recommendations SET version = $3, payload = $4 WHERE id = $1 AND date = $2 AND version = $5`,
		rec.ID, types.NormalizeDate(rec.Date))
}

// Predictions

func (s *Store) SavePrediction(ctx context.Context, p *types.PredictionResult) error {
	alternatives := make([]string, len(p.Alternatives))
	for i, a := range p.Alternatives {
		alternatives[i] = string(a)
	}
	return s.saveVersioned(ctx, &p.Version, p,
		`INSERT INTO predictions (id, target_time, alternatives, version, payload) VALUES ($1, $2, $3, $4, $5)`,
		`UPDATE predictions SET target_time = $2, alternatives = $3, version = $4, payload = $5 WHERE id = $1 AND version = $6`,
		p.ID, p.TargetTime, pq.Array(alternatives))
}

func (s *Store) GetPrediction(ctx context.Context, id uuid.UUID) (*types.PredictionResult, error) {
	var p types.PredictionResult
	if err := s.getPayload(ctx, `SELECT payload FROM predictions WHERE id = $1`, id, &p); err != nil {
		return nil, fmt.Errorf("prediction %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListPredictions(ctx context.Context, from, to time.Time) ([]types.PredictionResult, error) {
	query, args := rangeQuery(`SELECT payload FROM predictions`, "target_time", timeOrNil(from), timeOrNil(to))
	rows, err := s.client.Query(ctx, query+` ORDER BY target_time`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []types.PredictionResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		var p types.PredictionResult
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Achievements

func (s *Store) ListAchievements(ctx context.Context) ([]types.Achievement, error) {
	rows, err := s.client.Query(ctx, `SELECT payload FROM achievements ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var out []types.Achievement
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan achievement row: %w", err)
		}
		var a types.Achievement
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAchievement(ctx context.Context, id uuid.UUID) (*types.Achievement, error) {
	var a types.Achievement
	if err := s.getPayload(ctx, `SELECT payload FROM achievements WHERE id = $1`, id, &a); err != nil {
		return nil, fmt.Errorf("achievement %s: %w", id, err)
	}
	return &a, nil
}

func (s *Store) SaveAchievement(ctx context.Context, a *types.Achievement) error {
	return s.saveVersioned(ctx, &a.Version, a,
		`INSERT INTO achievements (id, key, version, payload) VALUES ($1, $2, $3, $4)`,
		`UPDATE achievements SET key = $2, version = $3, payload = $4 WHERE id = $1 AND version = $5`,
		a.ID, a.Key)
}

// Goals

func (s *Store) ListGoals(ctx context.Context) ([]types.Goal, error) {
	rows, err := s.client.Query(ctx, `SELECT payload FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []types.Goal
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		var g types.Goal
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*types.Goal, error) {
	var g types.Goal
	if err := s.getPayload(ctx, `SELECT payload FROM goals WHERE id = $1`, id, &g); err != nil {
		return nil, fmt.Errorf("goal %s: %w", id, err)
	}
	return &g, nil
}

func (s *Store) SaveGoal(ctx context.Context, g *types.Goal) error {
	return s.saveVersioned(ctx, &g.Version, g,
		`INSERT INTO goals (id, version, payload) VALUES ($1, $2, $3)`,
		`UPDATE goals SET version = $2, payload = $3 WHERE id = $1 AND version = $4`,
		g.ID)
}

// Levels

func (s *Store) GetLevel(ctx context.Context, userID string) (*types.UserLevel, error) {
	var l types.UserLevel
	if err := s.getPayload(ctx, `SELECT payload FROM user_levels WHERE user_id = $1`, userID, &l); err != nil {
		return nil, fmt.Errorf("level for %s: %w", userID, err)
	}
	return &l, nil
}

func (s *Store) SaveLevel(ctx context.Context, l *types.UserLevel) error {
	return s.saveVersioned(ctx, &l.Version, l,
		`INSERT INTO user_levels (user_id, version, payload) VALUES ($1, $2, $3)`,
		`UPDATE user_levels SET version = $2, payload = $3 WHERE user_id = $1 AND version = $4`,
		l.UserID)
}

// helpers

func (s *Store) getPayload(ctx context.Context, query string, key interface{}, dest interface{}) error {
	var payload []byte
	err := s.client.QueryRow(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// saveVersioned runs insert when *version is 0, else update guarded by the
// current version. Both statements take keys..., then the new version and the
// payload; update additionally takes the expected version last.
func (s *Store) saveVersioned(ctx context.Context, version *int64, entity interface{}, insert, update string, keys ...interface{}) error {
	current := *version
	*version = current + 1

	payload, err := json.Marshal(entity)
	if err != nil {
		*version = current
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	args := append(append([]interface{}{}, keys...), current+1, payload)

	if current == 0 {
		if _, err := s.client.Exec(ctx, insert, args...); err != nil {
			*version = current
			return translate("insert", err)
		}
		return nil
	}

	res, err := s.client.Exec(ctx, update, append(args, current)...)
	if err != nil {
		*version = current
		return translate("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		*version = current
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		*version = current
		s.logger.Debug("Optimistic version check failed", "keys", keys, "version", current)
		return fmt.Errorf("version %d: %w", current, types.ErrConflict)
	}
	return nil
}

func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", op, types.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// rangeQuery appends optional inclusive bounds on column
func rangeQuery(base, column string, from, to interface{}) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if from != nil {
		args = append(args, from)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", column, len(args)))
	}
	if to != nil {
		args = append(args, to)
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", column, len(args)))
	}
	if len(clauses) == 0 {
		return base, nil
	}
	return base + " WHERE " + strings.Join(clauses, " AND "), args
}

func dateOrZero(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return types.NormalizeDate(t)
}

func timeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
