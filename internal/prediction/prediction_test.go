package prediction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/llm"
)

var testNow = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

func newPrediction(target time.Time) types.PredictionResult {
	return types.NewPredictionResult(
		types.ActivityOutdoorExercise,
		[]types.ActivityType{types.ActivityPhotography, types.ActivitySocial},
		0.7, target, target.Add(-2*time.Hour))
}

func TestValidateAccuracy(t *testing.T) {
	tests := []struct {
		name         string
		observed     types.ActivityType
		wantAccuracy float64
		wantQuality  types.PredictionQuality
	}{
		{"exact match", types.ActivityOutdoorExercise, 1.0, types.QualityExcellent},
		{"alternative", types.ActivitySocial, 0.5, types.QualityFair},
		{"miss", types.ActivityWork, 0.0, types.QualityPoor},
		{"case insensitive", "OUTDOOR_EXERCISE", 1.0, types.QualityExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPrediction(testNow)
			assert.Equal(t, types.QualityUnvalidated, Quality(p))

			got, err := Validate(p, tt.observed, testNow)
			require.NoError(t, err)
			assert.True(t, got.IsValidated)
			assert.Equal(t, tt.wantAccuracy, got.PredictionAccuracy)
			assert.Equal(t, tt.wantQuality, Quality(got))
			require.NotNil(t, got.ValidatedAt)
		})
	}
}

func TestValidateRejectsSecondCall(t *testing.T) {
	p, err := Validate(newPrediction(testNow), types.ActivityWork, testNow)
	require.NoError(t, err)

	again, err := Validate(p, types.ActivityOutdoorExercise, testNow.Add(time.Hour))
	var dbl *types.DoubleValidationError
	require.True(t, errors.As(err, &dbl))
	assert.Equal(t, p.ID.String(), dbl.PredictionID)
	assert.Equal(t, types.ActivityWork, again.ActualActivity)
	assert.Equal(t, 0.0, again.PredictionAccuracy)
	assert.Equal(t, testNow, *again.ValidatedAt)
}

func TestValidateUnknownActivity(t *testing.T) {
	p := newPrediction(testNow)
	got, err := Validate(p, "juggling", testNow)
	var enumErr *types.UnknownEnumVariantError
	assert.True(t, errors.As(err, &enumErr))
	assert.False(t, got.IsValidated)
}

func TestQualityFor(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     types.PredictionQuality
	}{
		{1.0, types.QualityExcellent},
		{0.8, types.QualityExcellent},
		{0.79, types.QualityGood},
		{0.6, types.QualityGood},
		{0.4, types.QualityFair},
		{0.39, types.QualityPoor},
		{0, types.QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFor(tt.accuracy), "accuracy %v", tt.accuracy)
	}
}

func TestValidateDue(t *testing.T) {
	obs := Observation{Activity: types.ActivityPhotography, At: testNow.Add(-30 * time.Minute)}

	due := newPrediction(testNow.Add(-time.Hour))
	future := newPrediction(testNow.Add(time.Hour))
	tooOld := newPrediction(testNow.Add(-5 * time.Hour))
	done, err := Validate(newPrediction(testNow.Add(-45*time.Minute)), types.ActivityWork, testNow)
	require.NoError(t, err)

	got := ValidateDue([]types.PredictionResult{due, future, tooOld, done}, obs, time.Hour, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
	assert.Equal(t, 0.5, got[0].PredictionAccuracy)
}

func TestAccuracySummary(t *testing.T) {
	a, _ := Validate(newPrediction(testNow), types.ActivityOutdoorExercise, testNow)
	b, _ := Validate(newPrediction(testNow), types.ActivitySocial, testNow)
	c := newPrediction(testNow)

	s := AccuracySummary([]types.PredictionResult{a, b, c})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Validated)
	assert.InDelta(t, 0.75, s.MeanAccuracy, 1e-9)
	assert.Equal(t, 1, s.ByQuality[types.QualityExcellent])
	assert.Equal(t, 1, s.ByQuality[types.QualityFair])
	assert.Equal(t, 1, s.ByQuality[types.QualityUnvalidated])

	empty := AccuracySummary(nil)
	assert.Equal(t, 0.0, empty.MeanAccuracy)
}

func TestPredictorPredict(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	temp := 21.0
	day := types.DayRecord{Date: types.NormalizeDate(testNow), Steps: 4000, Temperature: &temp, Condition: types.ConditionClear}
	target := testNow.Add(2 * time.Hour)

	var prompt string
	client := &llm.MockClient{
		GenerateFunc: func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			prompt = req.Prompt
			return &llm.GenerateResponse{
				Response: `{"activity":"Outdoor_Exercise","alternatives":["photography","outdoor_exercise"],"confidence":0.8,"reasoning":"warm and clear"}`,
			}, nil
		},
	}

	p := NewPredictor(client, "test-model", llm.NewMetricsCollector(logger), logger)
	got, err := p.Predict(context.Background(), day, target, testNow)
	require.NoError(t, err)

	assert.Equal(t, types.ActivityOutdoorExercise, got.PredictedActivity)
	assert.Equal(t, []types.ActivityType{types.ActivityPhotography}, got.Alternatives)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, target, got.TargetTime)
	assert.False(t, got.IsValidated)
	assert.Equal(t, types.AccuracyUnset, got.PredictionAccuracy)
	assert.True(t, strings.Contains(prompt, "outdoor_exercise"))
}

func TestPredictorRejectsInvalidAnswer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name     string
		response string
	}{
		{"unknown activity", `{"activity":"juggling","confidence":0.5}`},
		{"confidence out of range", `{"activity":"work","confidence":1.5}`},
		{"not json", `maybe work?`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictor(llm.RespondWith(tt.response), "m", nil, logger)
			_, err := p.Predict(context.Background(), types.DayRecord{Date: testNow}, testNow, testNow)
			assert.Error(t, err)
		})
	}
}
