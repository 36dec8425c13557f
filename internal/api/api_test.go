package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/achievement"
	"github.com/saaga0h/jeeves-wellbeing/internal/lock"
	"github.com/saaga0h/jeeves-wellbeing/internal/metrics"
	"github.com/saaga0h/jeeves-wellbeing/internal/prediction"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/store/sqlstore"
	"github.com/saaga0h/jeeves-wellbeing/internal/tracker"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/health"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

var apiNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type apiFixture struct {
	server  *Server
	handler http.Handler
	store   *sqlstore.Store
	tracker *tracker.Service
	redis   *redis.MockClient
	cache   *recommend.Cache
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := sqlstore.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	rdb := redis.NewMockClient()
	cache := recommend.NewCache(rdb, time.Hour, logger)
	svc := tracker.NewService(st, lock.NewKeyedMutex(), nil, nil, m, "default", 3, logger)

	srv := NewServer(st, svc, cache, health.NewChecker(st, nil, rdb, logger), m, logger)
	srv.now = func() time.Time { return apiNow }

	return &apiFixture{server: srv, handler: srv.Router(), store: st, tracker: svc, redis: rdb, cache: cache}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func seedDays(t *testing.T, f *apiFixture, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		day := types.DayRecord{
			Date:                  apiNow.AddDate(0, 0, -i),
			Steps:                 4000 + i*1000,
			Temperature:           types.Float(10 + float64(i)*2),
			Humidity:              types.Float(70 - float64(i)*3),
			PhysicalActivityScore: 0.3 + float64(i)*0.05,
			OverallWellbeingScore: 0.5,
		}
		require.NoError(t, f.store.SaveDay(context.Background(), day))
	}
}

func seedRecommendations(t *testing.T, f *apiFixture) []types.Recommendation {
	t.Helper()
	date := types.NormalizeDate(apiNow)
	recs := []types.Recommendation{
		{
			ID:              uuid.New(),
			Date:            date,
			ActivityType:    types.ActivityOutdoorExercise,
			Title:           "Go for a run",
			RecommendedTime: apiNow.Add(30 * time.Minute),
			ConfidenceScore: 0.85,
			CreatedAt:       apiNow.Add(-10 * time.Minute),
		},
		{
			ID:              uuid.New(),
			Date:            date,
			ActivityType:    types.ActivityRelaxation,
			Title:           "Read a book",
			RecommendedTime: apiNow.Add(6 * time.Hour),
			ConfidenceScore: 0.45,
			CreatedAt:       apiNow.Add(-10 * time.Minute),
		},
	}
	require.NoError(t, f.store.SaveRecommendations(context.Background(), recs))
	return recs
}

func TestHealthRoutes(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp health.HealthResponse
	decodeJSON(t, rec, &resp)
	require.NotNil(t, resp.Services)
	assert.Equal(t, health.StatusUp, resp.Services.Store)
	assert.Equal(t, health.StatusDisabled, resp.Services.MQTT)
}

func TestMetricsRoute(t *testing.T) {
	f := newAPIFixture(t)

	f.do(t, http.MethodGet, "/api/level", nil)
	rec := f.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wellbeing_http_requests_total{route="/api/level",status="200"} 1`)
}

func TestDays(t *testing.T) {
	f := newAPIFixture(t)
	seedDays(t, f, 3)

	rec := f.do(t, http.MethodGet, "/api/days?from=2024-06-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var days []types.DayRecord
	decodeJSON(t, rec, &days)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-14", days[0].DateKey())

	rec = f.do(t, http.MethodGet, "/api/days/2024-06-13", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var day types.DayRecord
	decodeJSON(t, rec, &day)
	assert.Equal(t, 6000, day.Steps)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/days/2020-01-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/days/yesterday", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/days?to=june", nil).Code)
}

func TestDayRecommendations_FillsAndUsesCache(t *testing.T) {
	f := newAPIFixture(t)
	seeded := seedRecommendations(t, f)

	rec := f.do(t, http.MethodGet, "/api/days/2024-06-15/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []RecommendationView
	decodeJSON(t, rec, &views)
	require.Len(t, views, 2)

	byID := map[uuid.UUID]RecommendationView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	run := byID[seeded[0].ID]
	assert.Equal(t, types.PriorityHigh, run.Priority)
	assert.Equal(t, types.FreshnessFresh, run.Freshness)
	assert.True(t, run.IsTimeSensitive)
	assert.True(t, run.IsActionable)
	assert.False(t, byID[seeded[1].ID].IsTimeSensitive)

	cached, ok, err := f.cache.Get(context.Background(), apiNow)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, cached, 2)

	// served from the cache even once the store answers differently
	require.NoError(t, f.store.SaveRecommendations(context.Background(), []types.Recommendation{{
		ID: uuid.New(), Date: types.NormalizeDate(apiNow), ActivityType: types.ActivitySocial, CreatedAt: apiNow,
	}}))
	rec = f.do(t, http.MethodGet, "/api/days/2024-06-15/recommendations", nil)
	decodeJSON(t, rec, &views)
	assert.Len(t, views, 2)
}

func TestActOnRecommendation(t *testing.T) {
	f := newAPIFixture(t)
	seeded := seedRecommendations(t, f)
	require.NoError(t, f.cache.Put(context.Background(), apiNow, seeded))

	path := "/api/recommendations/" + seeded[0].ID.String() + "/action"
	rec := f.do(t, http.MethodPost, path, map[string]float64{"satisfaction": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	var view RecommendationView
	decodeJSON(t, rec, &view)
	assert.True(t, view.IsActedUpon)
	assert.False(t, view.IsActionable)
	require.NotNil(t, view.ActualSatisfaction)
	assert.Equal(t, 4.0, *view.ActualSatisfaction)

	_, ok, err := f.cache.Get(context.Background(), apiNow)
	require.NoError(t, err)
	assert.False(t, ok, "cache should be invalidated")

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, path, nil).Code)

	path = "/api/recommendations/" + seeded[1].ID.String() + "/action"
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, map[string]float64{"satisfaction": 9}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/recommendations/"+uuid.NewString()+"/action", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/recommendations/abc/action", nil).Code)
}

func TestActOnRecommendation_StaleIsRejected(t *testing.T) {
	f := newAPIFixture(t)
	old := types.Recommendation{
		ID:           uuid.New(),
		Date:         types.NormalizeDate(apiNow.AddDate(0, 0, -2)),
		ActivityType: types.ActivitySocial,
		CreatedAt:    apiNow.Add(-25 * time.Hour),
	}
	require.NoError(t, f.store.SaveRecommendations(context.Background(), []types.Recommendation{old}))

	rec := f.do(t, http.MethodPost, "/api/recommendations/"+old.ID.String()+"/action", map[string]float64{"satisfaction": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := f.store.GetRecommendation(context.Background(), old.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActedUpon)
}

func TestDayRecommendations_RegeneratedDaySortedByScore(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	date := types.NormalizeDate(apiNow)

	generation := func(scores ...float64) []types.Recommendation {
		recs := make([]types.Recommendation, len(scores))
		for i, score := range scores {
			recs[i] = types.Recommendation{
				ID:              uuid.New(),
				Date:            date,
				ActivityType:    types.ActivityWork,
				OverallScore:    score,
				RecommendedTime: apiNow.Add(time.Duration(i) * time.Hour),
				CreatedAt:       apiNow,
			}
		}
		return recs
	}

	require.NoError(t, f.store.SaveRecommendations(ctx, generation(0.8, 0.3)))
	second := generation(0.4, 0.9, 0.6, 0.9)
	require.NoError(t, f.store.SaveRecommendations(ctx, second))

	rec := f.do(t, http.MethodGet, "/api/days/2024-06-15/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []RecommendationView
	decodeJSON(t, rec, &views)
	require.Len(t, views, 4)

	got := make([]uuid.UUID, len(views))
	for i, v := range views {
		got[i] = v.ID
	}
	// equal scores fall back to the earlier recommended time
	assert.Equal(t, []uuid.UUID{second[1].ID, second[3].ID, second[2].ID, second[0].ID}, got)
}

func TestSuitability(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/suitability?activity=outdoor_exercise&temperature=18&condition=sunny&humidity=50&wind_speed=5&uv_index=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SuitabilityResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, types.ActivityOutdoorExercise, resp.Activity)
	require.NotNil(t, resp.Suitability)
	assert.Greater(t, resp.Suitability.OverallScore, 0.5)
	assert.Empty(t, resp.Warning)

	rec = f.do(t, http.MethodGet, "/api/suitability?temperature=18&condition=sunny", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = SuitabilityResponse{}
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.Ranking, len(types.AllActivityTypes()))

	rec = f.do(t, http.MethodGet, "/api/suitability?activity=outdoor_exercise", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = SuitabilityResponse{}
	decodeJSON(t, rec, &resp)
	assert.NotEmpty(t, resp.Warning)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/suitability?activity=skydiving", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/suitability?temperature=warm", nil).Code)
}

func TestCorrelations(t *testing.T) {
	f := newAPIFixture(t)

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/correlations", nil).Code)

	seedDays(t, f, 6)
	rec := f.do(t, http.MethodGet, "/api/correlations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var insights []types.CorrelationInsight
	decodeJSON(t, rec, &insights)
	require.NotEmpty(t, insights)
	assert.Equal(t, "Temperature and activity", insights[0].Title)
	assert.InDelta(t, 1.0, insights[0].Correlation, 1e-9)
	assert.Equal(t, types.StrengthVeryStrong, insights[0].Strength)
}

func TestAchievements_HiddenAreMasked(t *testing.T) {
	f := newAPIFixture(t)
	catalog, err := achievement.LoadCatalog("")
	require.NoError(t, err)
	_, err = f.tracker.SeedAchievements(context.Background(), catalog)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/achievements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []AchievementView
	decodeJSON(t, rec, &views)
	require.Len(t, views, len(catalog))

	hidden := 0
	for _, v := range views {
		if v.IsHidden {
			hidden++
			assert.Equal(t, types.StateHidden, v.State)
			assert.Equal(t, "Hidden achievement", v.Title)
			assert.Empty(t, v.Description)
		} else {
			assert.NotEqual(t, "Hidden achievement", v.Title)
		}
	}
	assert.Greater(t, hidden, 0)
}

func TestGoals(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/goals", map[string]interface{}{
		"title":        "Walk more",
		"type":         "achieve",
		"category":     "fitness",
		"frequency":    "daily",
		"metric":       "steps",
		"target_value": 10000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created GoalView
	decodeJSON(t, rec, &created)
	assert.Equal(t, types.GoalAchieve, created.Type)
	assert.True(t, apiNow.Equal(created.StartDate), "start date defaults to now")
	assert.Zero(t, created.ProgressPercent)

	rec = f.do(t, http.MethodPost, "/api/goals/"+created.ID.String()+"/progress", map[string]float64{"value": 5000})
	require.Equal(t, http.StatusOK, rec.Code)
	var progress ProgressResponse
	decodeJSON(t, rec, &progress)
	assert.False(t, progress.CompletedNow)
	assert.InDelta(t, 50.0, progress.Goal.ProgressPercent, 1e-9)

	rec = f.do(t, http.MethodPost, "/api/goals/"+created.ID.String()+"/progress", map[string]float64{"value": 12000})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &progress)
	assert.True(t, progress.CompletedNow)
	assert.True(t, progress.Goal.IsCompleted)

	rec = f.do(t, http.MethodGet, "/api/goals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var goals []GoalView
	decodeJSON(t, rec, &goals)
	require.Len(t, goals, 1)
	assert.Equal(t, 12000.0, goals[0].CurrentValue)
}

func TestGoals_BadRequests(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing title", map[string]interface{}{"type": "ACHIEVE", "category": "FITNESS", "frequency": "DAILY"}},
		{"unknown type", map[string]interface{}{"title": "x", "type": "SOMETIMES", "category": "FITNESS", "frequency": "DAILY"}},
		{"unknown metric", map[string]interface{}{"title": "x", "type": "ACHIEVE", "category": "FITNESS", "frequency": "DAILY", "metric": "vibes"}},
		{"unknown field", map[string]interface{}{"title": "x", "colour": "blue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/goals", tt.body).Code)
		})
	}

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/goals/"+uuid.NewString()+"/progress", map[string]float64{"value": 1}).Code)
}

func TestLevel(t *testing.T) {
	f := newAPIFixture(t)
	_, _, err := f.tracker.AwardXP(context.Background(), 25, "test")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/level", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view LevelView
	decodeJSON(t, rec, &view)
	assert.Equal(t, 1, view.CurrentLevel)
	assert.Equal(t, 25, view.CurrentXP)
	assert.Equal(t, 75, view.XPToNext)
	assert.InDelta(t, 25.0, view.ProgressPercent, 1e-9)
	assert.NotEmpty(t, view.Rank.Title)
}

func TestPredictions(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	target := apiNow.Add(-2 * time.Hour)
	p, err := f.tracker.SavePrediction(ctx, types.NewPredictionResult(types.ActivityOutdoorExercise,
		[]types.ActivityType{types.ActivityPhotography}, 0.8, target, target.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = f.tracker.SavePrediction(ctx, types.NewPredictionResult(types.ActivityWork, nil, 0.6, target, target.Add(-time.Hour)))
	require.NoError(t, err)

	path := "/api/predictions/" + p.ID.String() + "/validate"
	rec := f.do(t, http.MethodPost, path, map[string]string{"activity": "outdoor_exercise"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view PredictionView
	decodeJSON(t, rec, &view)
	assert.True(t, view.IsValidated)
	assert.Equal(t, 1.0, view.PredictionAccuracy)
	assert.Equal(t, prediction.QualityFor(1.0), view.Quality)

	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, path, map[string]string{"activity": "work"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, map[string]string{"activity": "napping"}).Code)

	rec = f.do(t, http.MethodGet, "/api/predictions/summary?from=2024-06-15&to=2024-06-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary prediction.Summary
	decodeJSON(t, rec, &summary)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Validated)
	assert.Equal(t, 1.0, summary.MeanAccuracy)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newAPIFixture(t)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/api/goals", nil).Code)
}
