package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeatherCondition(t *testing.T) {
	tests := []struct {
		in   string
		want WeatherCondition
	}{
		{"", ConditionUnset},
		{"   ", ConditionUnset},
		{"partly_cloudy", ConditionPartlyCloudy},
		{"Clear sky", ConditionClear},
		{"Sunny", ConditionClear},
		{"light drizzle", ConditionDrizzle},
		{"Light rain", ConditionDrizzle},
		{"moderate rain", ConditionRain},
		{"Thunderstorm with heavy rain", ConditionStorm},
		{"heavy rain", ConditionHeavyRain},
		{"sleet", ConditionSnow},
		{"mist", ConditionFog},
		{"Overcast clouds", ConditionOvercast},
		{"scattered clouds", ConditionPartlyCloudy},
		{"broken clouds", ConditionCloudy},
		{"volcanic ash", ConditionOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWeatherCondition(tt.in))
		})
	}
}

func TestParseEnums(t *testing.T) {
	a, err := ParseActivityType(" Outdoor_Exercise ")
	require.NoError(t, err)
	assert.Equal(t, ActivityOutdoorExercise, a)
	assert.Equal(t, "Outdoor Exercise", a.DisplayName())

	m, err := ParseMediaType("PODCAST")
	require.NoError(t, err)
	assert.Equal(t, MediaPodcast, m)

	g, err := ParseGoalType("maximize")
	require.NoError(t, err)
	assert.Equal(t, GoalMaximize, g)

	bad := []func() error{
		func() error { _, err := ParseActivityType("napping"); return err },
		func() error { _, err := ParseMediaType("radio"); return err },
		func() error { _, err := ParseGoalType("sometimes"); return err },
		func() error { _, err := ParseGoalCategory("hobbies"); return err },
		func() error { _, err := ParseGoalFrequency("hourly"); return err },
		func() error { _, err := ParseAchievementTier("mythril"); return err },
	}
	for i, fn := range bad {
		var enumErr *UnknownEnumVariantError
		assert.True(t, errors.As(fn(), &enumErr), "case %d", i)
	}
}

func TestAllActivityTypesIsACopy(t *testing.T) {
	all := AllActivityTypes()
	require.Len(t, all, 10)
	all[0] = "mutated"
	assert.Equal(t, ActivityOutdoorExercise, AllActivityTypes()[0])
}

func TestNormalizeDate(t *testing.T) {
	helsinki := time.FixedZone("EEST", 3*60*60)
	// 01:30 local is still the previous day in UTC
	local := time.Date(2024, 6, 15, 1, 30, 0, 0, helsinki)

	got := NormalizeDate(local)
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2024-06-14", DayRecord{Date: local}.DateKey())
}

func TestDayRecordMetric(t *testing.T) {
	day := DayRecord{
		Steps:                 9000,
		ScreenTimeMinutes:     120,
		MediaMinutes:          map[MediaType]float64{MediaVideo: 30, MediaMusic: 45},
		OverallWellbeingScore: 0.7,
	}

	v, ok := day.Metric(MetricSteps)
	assert.True(t, ok)
	assert.Equal(t, 9000.0, v)

	v, ok = day.Metric(MetricMediaMinutes)
	assert.True(t, ok)
	assert.Equal(t, 75.0, v)

	v, ok = day.Metric(MetricWellbeingScore)
	assert.True(t, ok)
	assert.Equal(t, 0.7, day.ActivityScore())
	assert.Equal(t, day.ActivityScore(), v)

	_, ok = day.Metric("vibes")
	assert.False(t, ok)
}

func TestDayRecordFeatures(t *testing.T) {
	empty := DayRecord{}.Features()
	require.Len(t, empty, FeatureDimensions)
	for i, f := range empty[:5] {
		assert.Equal(t, float32(0.5), f, "dimension %d", i)
	}
	assert.Equal(t, float32(0), empty[5])

	hot := DayRecord{Temperature: Float(55), Humidity: Float(-5), DaylightHours: 12}.Features()
	assert.Equal(t, float32(1), hot[0])
	assert.Equal(t, float32(0), hot[1])
	assert.Equal(t, float32(0.5), hot[5])
}

func TestRecommendationClassification(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		confidence float64
		want       PriorityLevel
	}{
		{0.95, PriorityHigh},
		{0.8, PriorityHigh},
		{0.6, PriorityMedium},
		{0.4, PriorityLow},
		{0.39, PriorityVeryLow},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("priority %.2f", tt.confidence), func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendation{ConfidenceScore: tt.confidence}.Priority())
		})
	}

	rec := Recommendation{RecommendedTime: now.Add(59 * time.Minute), CreatedAt: now}
	assert.True(t, rec.IsTimeSensitive(now))
	assert.True(t, rec.IsTimeSensitive(now.Add(90*time.Minute)))
	assert.False(t, rec.IsTimeSensitive(now.Add(3*time.Hour)))

	assert.Equal(t, FreshnessFresh, rec.Freshness(now.Add(time.Hour)))
	assert.Equal(t, FreshnessRecent, rec.Freshness(now.Add(2*time.Hour)))
	assert.Equal(t, FreshnessStale, rec.Freshness(now.Add(25*time.Hour)))
	assert.True(t, rec.IsActionable(now))
	assert.False(t, rec.IsActionable(now.Add(25*time.Hour)))
}

func TestMarkActedUpon(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rec := Recommendation{ID: uuid.New(), CreatedAt: now}

	var invalid *InvalidMetricError
	assert.True(t, errors.As(rec.MarkActedUpon(now, Float(5.5)), &invalid))
	assert.False(t, rec.IsActedUpon)

	require.NoError(t, rec.MarkActedUpon(now, Float(4)))
	assert.True(t, rec.IsActedUpon)
	assert.Equal(t, now, *rec.ActionDate)
	assert.Equal(t, 4.0, *rec.ActualSatisfaction)
	assert.False(t, rec.IsActionable(now))

	err := rec.MarkActedUpon(now.Add(time.Minute), nil)
	assert.ErrorIs(t, err, ErrAlreadyActedUpon)
	assert.Equal(t, now, *rec.ActionDate)
}

func TestMarkActedUpon_Freshness(t *testing.T) {
	created := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"fresh", created.Add(30 * time.Minute), nil},
		{"recent", created.Add(23 * time.Hour), nil},
		{"last actionable moment", created.Add(24 * time.Hour), nil},
		{"stale", created.Add(24*time.Hour + time.Second), ErrStaleRecommendation},
		{"days later", created.AddDate(0, 0, 3), ErrStaleRecommendation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommendation{ID: uuid.New(), CreatedAt: created}
			err := rec.MarkActedUpon(tt.at, Float(3))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, rec.IsActedUpon)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, rec.IsActedUpon)
			assert.Nil(t, rec.ActionDate)
			assert.False(t, rec.IsActionable(tt.at))
		})
	}
}

func TestAchievementLifecycle(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	a := NewAchievement("walker", "Walker", "Walk a lot", AchievementMilestone, CategoryFitness, TierSilver, 200)
	assert.Equal(t, TierSilver.Points(), a.PointsValue)
	assert.Equal(t, TierSilver.BadgeColor(), a.BadgeColor)
	assert.Equal(t, StateInProgress, a.State())

	a.IsHidden = true
	assert.Equal(t, StateHidden, a.State())

	a.CurrentProgress = 50
	assert.Equal(t, StateInProgress, a.State())
	assert.Equal(t, 25.0, a.ProgressPercent())

	assert.True(t, a.Unlock(now))
	assert.False(t, a.Unlock(now.Add(time.Hour)))
	assert.Equal(t, now, *a.UnlockedAt)
	assert.Equal(t, StateUnlocked, a.State())
	assert.Equal(t, 100.0, a.ProgressPercent())
}

func TestNewPredictionResult(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	p := NewPredictionResult(ActivityWork, nil, 0.6, now.Add(time.Hour), now)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.IsValidated)
	assert.Equal(t, AccuracyUnset, p.PredictionAccuracy)
}

func TestErrors(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("save goal: %w", ErrConflict)))
	assert.False(t, IsRetryable(ErrNotFound))

	assert.Equal(t, "invalid metric steps=-1: must not be negative",
		(&InvalidMetricError{Field: "steps", Value: -1, Reason: "must not be negative"}).Error())
	assert.Equal(t, "missing weather data, neutral fallback used for: humidity, uv",
		(&MissingWeatherDataError{Dimensions: []string{"humidity", "uv"}}).Error())
	assert.Equal(t, "insufficient data (1 samples): need at least 2 samples",
		(&InsufficientDataError{Samples: 1, Reason: "need at least 2 samples"}).Error())
	assert.Equal(t, `unknown activity type: "napping"`,
		(&UnknownEnumVariantError{Enum: "activity type", Value: "napping"}).Error())
}
