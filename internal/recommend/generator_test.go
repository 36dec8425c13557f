package recommend

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

var testNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sunny() types.Weather {
	return types.Weather{
		Temperature: types.Float(20),
		Condition:   types.ConditionClear,
		Humidity:    types.Float(50),
		WindSpeed:   types.Float(10),
		UVIndex:     types.Float(4),
	}
}

func rainy() types.Weather {
	return types.Weather{
		Temperature: types.Float(8),
		Condition:   types.ConditionRain,
		Humidity:    types.Float(90),
		WindSpeed:   types.Float(30),
		UVIndex:     types.Float(1),
	}
}

func byActivity(recs []types.Recommendation) map[types.ActivityType]types.Recommendation {
	out := make(map[types.ActivityType]types.Recommendation, len(recs))
	for _, r := range recs {
		out[r.ActivityType] = r
	}
	return out
}

func TestPersonalize_Weights(t *testing.T) {
	neutral := Personalize(types.NeutralPersonalization())
	assert.InDelta(t, 0.5, neutral.OverallScore, 1e-9)

	onlyHistory := Personalize(types.PersonalizationInputs{HistoricalPreference: 1})
	assert.InDelta(t, 0.3, onlyHistory.OverallScore, 1e-9)

	onlySocial := Personalize(types.PersonalizationInputs{SocialContext: 1})
	assert.InDelta(t, 0.15, onlySocial.OverallScore, 1e-9)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.7, Confidence(0.7, 0), 1e-9)
	assert.InDelta(t, 0.63, Confidence(0.7, 1), 1e-9)
	assert.InDelta(t, 0.567, Confidence(0.7, 2), 1e-9)
	assert.Equal(t, 1.0, Confidence(1.2, 0))
}

func TestGenerate_PicksBestSlotPerActivity(t *testing.T) {
	g := NewGenerator(0, 0, testLogger())
	forecast := Forecast{
		{Time: testNow.Add(3 * time.Hour), Weather: rainy()},
		{Time: testNow.Add(-time.Hour), Weather: sunny()},
		{Time: testNow.Add(time.Hour), Weather: sunny()},
	}
	day := types.DayRecord{Date: testNow, PhysicalActivityScore: 30}

	recs, err := g.Generate(day, forecast, nil, testNow)
	require.NoError(t, err)
	require.Len(t, recs, len(types.AllActivityTypes()))

	got := byActivity(recs)

	outdoor := got[types.ActivityOutdoorExercise]
	assert.Equal(t, testNow.Add(time.Hour), outdoor.RecommendedTime)
	assert.Equal(t, 1.0, outdoor.WeatherSuitability.OverallScore)
	assert.InDelta(t, 0.7, outdoor.OverallScore, 1e-9)
	assert.InDelta(t, 0.7, outdoor.ConfidenceScore, 1e-9)
	assert.Equal(t, "Outdoor Exercise at 10:00", outdoor.Title)
	assert.Contains(t, outdoor.Reason, "physical activity is low today")
	assert.Equal(t, testNow, outdoor.CreatedAt)
	assert.Equal(t, types.NormalizeDate(testNow), outdoor.Date)

	indoor := got[types.ActivityIndoorExercise]
	assert.Equal(t, testNow.Add(3*time.Hour), indoor.RecommendedTime)
	assert.Greater(t, indoor.WeatherSuitability.OverallScore, 0.3)
}

func TestGenerate_SortedWithEarliestTieBreak(t *testing.T) {
	g := NewGenerator(0, 0, testLogger())
	forecast := Forecast{
		{Time: testNow.Add(2 * time.Hour), Weather: sunny()},
		{Time: testNow.Add(time.Hour), Weather: sunny()},
	}

	recs, err := g.Generate(types.DayRecord{Date: testNow}, forecast, nil, testNow)
	require.NoError(t, err)

	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		require.GreaterOrEqual(t, prev.OverallScore, cur.OverallScore)
		if prev.OverallScore == cur.OverallScore {
			assert.False(t, cur.RecommendedTime.Before(prev.RecommendedTime))
		}
	}
	assert.Equal(t, testNow.Add(time.Hour), recs[0].RecommendedTime)
}

func TestGenerate_PersonalizationReordersAndLimits(t *testing.T) {
	g := NewGenerator(3, 0, testLogger())
	forecast := Forecast{{Time: testNow.Add(time.Hour), Weather: sunny()}}
	inputs := map[types.ActivityType]types.PersonalizationInputs{
		types.ActivityPhotography: {HistoricalPreference: 1, TimeBased: 1, LocationBased: 1, ActivityFrequency: 1, SocialContext: 1},
		types.ActivityWork:        {},
	}

	recs, err := g.Generate(types.DayRecord{Date: testNow}, forecast, inputs, testNow)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, types.ActivityPhotography, recs[0].ActivityType)
	assert.InDelta(t, 1.0, recs[0].OverallScore, 1e-9)
	assert.Equal(t, types.PriorityHigh, recs[0].Priority())
	for _, r := range recs {
		assert.NotEqual(t, types.ActivityWork, r.ActivityType)
	}
}

func TestGenerate_FallbacksDiscountConfidence(t *testing.T) {
	g := NewGenerator(0, 0, testLogger())
	w := sunny()
	w.Humidity = nil
	forecast := Forecast{{Time: testNow.Add(time.Hour), Weather: w}}

	recs, err := g.Generate(types.DayRecord{Date: testNow}, forecast, nil, testNow)
	require.NoError(t, err)

	outdoor := byActivity(recs)[types.ActivityOutdoorExercise]
	assert.Equal(t, []string{"humidity"}, outdoor.WeatherSuitability.Fallbacks)
	assert.InDelta(t, 0.5, outdoor.WeatherSuitability.OverallScore, 1e-9)
	assert.InDelta(t, 0.5, outdoor.OverallScore, 1e-9)
	assert.InDelta(t, 0.45, outdoor.ConfidenceScore, 1e-9)
	assert.Contains(t, outdoor.Reason, "no forecast for humidity")
}

func TestGenerate_WithoutForecastUsesDayWeather(t *testing.T) {
	g := NewGenerator(0, 6*time.Hour, testLogger())
	day := types.DayRecord{
		Date:        testNow,
		Temperature: types.Float(20),
		Condition:   types.ConditionClear,
		Humidity:    types.Float(50),
		WindSpeed:   types.Float(10),
		UVIndex:     types.Float(4),
	}
	forecast := Forecast{{Time: testNow.Add(12 * time.Hour), Weather: rainy()}}

	recs, err := g.Generate(day, forecast, nil, testNow)
	require.NoError(t, err)

	outdoor := byActivity(recs)[types.ActivityOutdoorExercise]
	assert.Equal(t, testNow, outdoor.RecommendedTime)
	assert.Equal(t, 1.0, outdoor.WeatherSuitability.OverallScore)
}

func TestRecommendation_Lifecycle(t *testing.T) {
	g := NewGenerator(1, 0, testLogger())
	recs, err := g.Generate(types.DayRecord{Date: testNow}, Forecast{{Time: testNow.Add(30 * time.Minute), Weather: sunny()}}, nil, testNow)
	require.NoError(t, err)
	rec := recs[0]

	assert.Equal(t, types.FreshnessFresh, rec.Freshness(testNow.Add(30*time.Minute)))
	assert.Equal(t, types.FreshnessRecent, rec.Freshness(testNow.Add(5*time.Hour)))
	assert.Equal(t, types.FreshnessStale, rec.Freshness(testNow.Add(25*time.Hour)))
	assert.True(t, rec.IsTimeSensitive(testNow))
	assert.False(t, rec.IsTimeSensitive(testNow.Add(2*time.Hour)))
	assert.False(t, rec.IsActionable(testNow.Add(25*time.Hour)))

	bad := 6.0
	require.Error(t, rec.MarkActedUpon(testNow, &bad))
	assert.False(t, rec.IsActedUpon)

	ok := 4.0
	require.NoError(t, rec.MarkActedUpon(testNow.Add(time.Hour), &ok))
	assert.True(t, rec.IsActedUpon)
	assert.Equal(t, 4.0, *rec.ActualSatisfaction)
	assert.False(t, rec.IsActionable(testNow.Add(time.Hour)))
	assert.Error(t, rec.MarkActedUpon(testNow.Add(2*time.Hour), nil))
}
