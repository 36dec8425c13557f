package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/suitability"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/llm"
)

// Input is what the classifier sees about the target time
type Input struct {
	Day        types.DayRecord
	TargetTime time.Time
	Ranked     []suitability.Ranked
}

// Output is the structured classifier response
type Output struct {
	Activity     string   `json:"activity"`
	Alternatives []string `json:"alternatives"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
}

// ActivityAnalyzer implements llm.Analyzer for next-activity prediction
type ActivityAnalyzer struct{}

// BuildPrompt renders the day and weather ranking for the model
func (ActivityAnalyzer) BuildPrompt(in Input) string {
	ranking := make([]map[string]interface{}, len(in.Ranked))
	for i, r := range in.Ranked {
		ranking[i] = map[string]interface{}{
			"activity":    r.Activity,
			"suitability": round2(r.Suitability.OverallScore),
		}
	}

	data := map[string]interface{}{
		"target_time":    in.TargetTime.Format("Monday 15:04"),
		"steps_so_far":   in.Day.Steps,
		"active_minutes": in.Day.ActiveMinutes,
		"screen_minutes": in.Day.ScreenTimeMinutes,
		"places_visited": in.Day.PlacesVisited,
		"condition":      in.Day.Condition,
		"temperature":    in.Day.Temperature,
		"daylight_hours": in.Day.DaylightHours,
		"weather_rank":   ranking,
	}
	jsonData, _ := json.MarshalIndent(data, "", "  ")

	names := make([]string, 0, len(types.AllActivityTypes()))
	for _, a := range types.AllActivityTypes() {
		names = append(names, string(a))
	}

	return fmt.Sprintf(`Predict which activity this person is most likely to be doing at the target time.

Use the day's activity so far and how suitable the weather is for each activity.
Pick exactly one primary activity and up to three alternatives from this list:
%s

Data:
%s

Respond ONLY with valid JSON (no markdown, no explanation):
{
  "activity": "one of the listed activities",
  "alternatives": ["other listed activities"],
  "confidence": 0.0-1.0,
  "reasoning": "short explanation"
}`, strings.Join(names, ", "), jsonData)
}

// ParseResponse parses the model's JSON response
func (ActivityAnalyzer) ParseResponse(response string) (Output, error) {
	var out Output
	if err := json.Unmarshal([]byte(response), &out); err != nil {
		return Output{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return out, nil
}

// Validate checks the response against the activity enum
func (ActivityAnalyzer) Validate(out Output) error {
	if _, err := types.ParseActivityType(out.Activity); err != nil {
		return err
	}
	for _, alt := range out.Alternatives {
		if _, err := types.ParseActivityType(alt); err != nil {
			return err
		}
	}
	if out.Confidence < 0.0 || out.Confidence > 1.0 {
		return fmt.Errorf("confidence must be 0.0-1.0, got %.2f", out.Confidence)
	}
	return nil
}

// Predictor produces activity predictions through an LLM
type Predictor struct {
	client  llm.Client
	model   string
	metrics *llm.MetricsCollector
	logger  *slog.Logger
}

// NewPredictor creates a predictor using model on client
func NewPredictor(client llm.Client, model string, metrics *llm.MetricsCollector, logger *slog.Logger) *Predictor {
	return &Predictor{
		client:  client,
		model:   model,
		metrics: metrics,
		logger:  logger,
	}
}

// Predict classifies the most likely activity at target and returns a fresh
// unvalidated prediction
func (p *Predictor) Predict(ctx context.Context, day types.DayRecord, target, now time.Time) (types.PredictionResult, error) {
	input := Input{
		Day:        day,
		TargetTime: target,
		Ranked:     suitability.Rank(day.Weather()),
	}

	out, err := llm.Analyze(ctx, p.client, ActivityAnalyzer{}, p.model, input, p.metrics, p.logger)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("activity prediction failed: %w", err)
	}

	predicted := types.ActivityType(strings.ToLower(strings.TrimSpace(out.Activity)))
	alternatives := make([]types.ActivityType, 0, len(out.Alternatives))
	for _, alt := range out.Alternatives {
		a := types.ActivityType(strings.ToLower(strings.TrimSpace(alt)))
		if a != predicted {
			alternatives = append(alternatives, a)
		}
	}

	result := types.NewPredictionResult(predicted, alternatives, out.Confidence, target, now)
	result.Reasoning = out.Reasoning

	p.logger.Info("Activity predicted",
		"prediction_id", result.ID,
		"activity", predicted,
		"alternatives", len(alternatives),
		"confidence", out.Confidence,
		"target_time", target.Format(time.RFC3339))

	return result, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
