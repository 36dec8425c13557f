package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/saaga0h/jeeves-wellbeing/internal/correlation"
	"github.com/saaga0h/jeeves-wellbeing/internal/goal"
	"github.com/saaga0h/jeeves-wellbeing/internal/level"
	"github.com/saaga0h/jeeves-wellbeing/internal/prediction"
	"github.com/saaga0h/jeeves-wellbeing/internal/recommend"
	"github.com/saaga0h/jeeves-wellbeing/internal/suitability"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// errorResponse is the body of every non-2xx answer
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

// respondErr maps engine errors onto status codes
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid      *types.InvalidMetricError
		unknown      *types.UnknownEnumVariantError
		insufficient *types.InsufficientDataError
		double       *types.DoubleValidationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &unknown):
		status = http.StatusBadRequest
	case errors.As(err, &insufficient):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &double), errors.Is(err, types.ErrAlreadyActedUpon), errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrStaleRecommendation):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
	}
	s.respondError(w, status, err.Error())
}

func decodeBody(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", raw)
	}
	return t, nil
}

// parseRange reads optional from/to dates; empty values are open bounds
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			return from, to, err
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Days

func (s *Server) listDays(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := s.store.ListDays(r.Context(), from, to)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, days)
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, err := s.store.GetDay(r.Context(), date)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, day)
}

// Recommendations

// RecommendationView adds the time-dependent classification of a recommendation
type RecommendationView struct {
	types.Recommendation
	Priority        types.PriorityLevel `json:"priority"`
	Freshness       types.Freshness     `json:"freshness"`
	IsTimeSensitive bool                `json:"is_time_sensitive"`
	IsActionable    bool                `json:"is_actionable"`
}

func (s *Server) recommendationViews(recs []types.Recommendation) []RecommendationView {
	now := s.now()
	out := make([]RecommendationView, len(recs))
	for i, rec := range recs {
		out[i] = RecommendationView{
			Recommendation:  rec,
			Priority:        rec.Priority(),
			Freshness:       rec.Freshness(now),
			IsTimeSensitive: rec.IsTimeSensitive(now),
			IsActionable:    rec.IsActionable(now),
		}
	}
	return out
}

func (s *Server) dayRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := parseDate(mux.Vars(r)["date"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.cache != nil {
		recs, ok, err := s.cache.Get(ctx, date)
		if err != nil {
			s.logger.Warn("Recommendation cache read failed", "date", date.Format(types.DateLayout), "error", err)
		}
		if ok {
			s.metrics.CacheHit()
			s.respondJSON(w, http.StatusOK, s.recommendationViews(recs))
			return
		}
		s.metrics.CacheMiss()
	}

	recs, err := s.store.ListRecommendations(ctx, date, date)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	recommend.Sort(recs)

	if s.cache != nil && len(recs) > 0 {
		if err := s.cache.Put(ctx, date, recs); err != nil {
			s.logger.Warn("Failed to cache recommendations", "date", date.Format(types.DateLayout), "error", err)
		}
	}
	s.respondJSON(w, http.StatusOK, s.recommendationViews(recs))
}

type actionRequest struct {
	Satisfaction *float64 `json:"satisfaction,omitempty"`
}

func (s *Server) actOnRecommendation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req actionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rec, err := s.tracker.ActOnRecommendation(r.Context(), id, req.Satisfaction)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(r.Context(), rec.Date); err != nil {
			s.logger.Warn("Failed to invalidate recommendation cache", "date", rec.Date, "error", err)
		}
	}
	s.respondJSON(w, http.StatusOK, s.recommendationViews([]types.Recommendation{rec})[0])
}

// Suitability

// SuitabilityResponse carries either one activity's breakdown or the full ranking
type SuitabilityResponse struct {
	Activity    types.ActivityType        `json:"activity,omitempty"`
	Suitability *types.WeatherSuitability `json:"suitability,omitempty"`
	Ranking     []suitability.Ranked      `json:"ranking,omitempty"`
	Warning     string                    `json:"warning,omitempty"`
}

func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &v, nil
}

func weatherFromQuery(r *http.Request) (types.Weather, error) {
	w := types.Weather{Condition: types.ParseWeatherCondition(r.URL.Query().Get("condition"))}
	var err error
	if w.Temperature, err = queryFloat(r, "temperature"); err != nil {
		return w, err
	}
	if w.Humidity, err = queryFloat(r, "humidity"); err != nil {
		return w, err
	}
	if w.WindSpeed, err = queryFloat(r, "wind_speed"); err != nil {
		return w, err
	}
	if w.UVIndex, err = queryFloat(r, "uv_index"); err != nil {
		return w, err
	}
	return w, nil
}

func (s *Server) suitability(w http.ResponseWriter, r *http.Request) {
	weather, err := weatherFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw := r.URL.Query().Get("activity")
	if raw == "" {
		s.respondJSON(w, http.StatusOK, SuitabilityResponse{Ranking: suitability.Rank(weather)})
		return
	}

	activity, err := types.ParseActivityType(raw)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	result, err := suitability.Evaluate(activity, weather)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	resp := SuitabilityResponse{Activity: activity, Suitability: &result}
	if fallback := suitability.FallbackError(result); fallback != nil {
		resp.Warning = fallback.Error()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// Insights

func (s *Server) correlations(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := s.store.ListDays(r.Context(), from, to)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	insights, err := correlation.Analyze(days)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, insights)
}

// Achievements

// AchievementView is an achievement as shown to the user. Hidden
// achievements do not reveal what earns them.
type AchievementView struct {
	types.Achievement
	State           types.AchievementState `json:"state"`
	ProgressPercent float64                `json:"progress_percent"`
}

func (s *Server) listAchievements(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListAchievements(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	out := make([]AchievementView, len(all))
	for i, a := range all {
		v := AchievementView{Achievement: a, State: a.State(), ProgressPercent: a.ProgressPercent()}
		if v.State == types.StateHidden {
			v.Title = "Hidden achievement"
			v.Description = ""
			v.Metric = ""
			v.Threshold = 0
		}
		out[i] = v
	}
	s.respondJSON(w, http.StatusOK, out)
}

// Goals

// GoalView adds progress and overdue state to a goal
type GoalView struct {
	types.Goal
	ProgressPercent float64 `json:"progress_percent"`
	IsOverdue       bool    `json:"is_overdue"`
}

func (s *Server) goalView(g types.Goal) GoalView {
	return GoalView{Goal: g, ProgressPercent: goal.ProgressPercent(g), IsOverdue: goal.IsOverdue(g, s.now())}
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = s.goalView(g)
	}
	s.respondJSON(w, http.StatusOK, out)
}

type createGoalRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	Category     string     `json:"category"`
	Frequency    string     `json:"frequency"`
	Metric       string     `json:"metric"`
	Unit         string     `json:"unit"`
	TargetValue  float64    `json:"target_value"`
	CurrentValue float64    `json:"current_value"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g := types.Goal{
		Title:        req.Title,
		Description:  req.Description,
		Type:         types.GoalType(req.Type),
		Category:     types.GoalCategory(req.Category),
		Frequency:    types.GoalFrequency(req.Frequency),
		Metric:       types.Metric(req.Metric),
		Unit:         req.Unit,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		EndDate:      req.EndDate,
	}
	g.StartDate = s.now()
	if req.StartDate != nil {
		g.StartDate = *req.StartDate
	}
	if err := goal.Validate(g); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.tracker.CreateGoal(r.Context(), g)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, s.goalView(created))
}

type progressRequest struct {
	Value float64 `json:"value"`
}

// ProgressResponse reports a goal update
type ProgressResponse struct {
	Goal         GoalView `json:"goal"`
	CompletedNow bool     `json:"completed_now"`
}

func (s *Server) goalProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req progressRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, completed, err := s.tracker.UpdateGoal(r.Context(), id, req.Value)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ProgressResponse{Goal: s.goalView(g), CompletedNow: completed})
}

// Level

// LevelView adds the ladder rank and progress to the stored level
type LevelView struct {
	types.UserLevel
	Rank            level.Rank `json:"rank"`
	ProgressPercent float64    `json:"progress_percent"`
	XPToNext        int        `json:"xp_to_next"`
}

func (s *Server) getLevel(w http.ResponseWriter, r *http.Request) {
	l, err := s.tracker.Level(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, LevelView{
		UserLevel:       l,
		Rank:            level.RankFor(l.CurrentLevel),
		ProgressPercent: level.ProgressPercent(l),
		XPToNext:        level.XPToNext(l),
	})
}

// Predictions

type validateRequest struct {
	Activity string `json:"activity"`
}

// PredictionView adds the quality label to a prediction
type PredictionView struct {
	types.PredictionResult
	Quality types.PredictionQuality `json:"quality"`
}

func (s *Server) validatePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	activity, err := types.ParseActivityType(req.Activity)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	p, err := s.tracker.ValidatePrediction(r.Context(), id, activity)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, PredictionView{PredictionResult: p, Quality: prediction.Quality(p)})
}

func (s *Server) predictionSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !to.IsZero() {
		// include the whole last day
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	preds, err := s.store.ListPredictions(r.Context(), from, to)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, prediction.AccuracySummary(preds))
}
