package recommend

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-wellbeing/internal/suitability"
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Score weights
const (
	weatherWeight         = 0.4
	personalizationWeight = 0.6

	historicalWeight = 0.3
	timeWeight       = 0.2
	locationWeight   = 0.2
	frequencyWeight  = 0.15
	socialWeight     = 0.15

	// fallbackDiscount is applied to confidence once per neutral weather fallback
	fallbackDiscount = 0.9
)

// ForecastSlot is the expected weather at a point in time
type ForecastSlot struct {
	Time    time.Time     `json:"time"`
	Weather types.Weather `json:"weather"`
}

// Forecast is a list of forecast slots, in any order
type Forecast []ForecastSlot

// Generator builds ranked recommendations for a day
type Generator struct {
	limit   int
	horizon time.Duration
	logger  *slog.Logger
}

// NewGenerator creates a generator. limit 0 returns every activity; horizon 0
// considers the whole forecast.
func NewGenerator(limit int, horizon time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{limit: limit, horizon: horizon, logger: logger}
}

// Personalize weights the upstream personalization inputs into one score
func Personalize(in types.PersonalizationInputs) types.UserPersonalizationScore {
	overall := historicalWeight*in.HistoricalPreference +
		timeWeight*in.TimeBased +
		locationWeight*in.LocationBased +
		frequencyWeight*in.ActivityFrequency +
		socialWeight*in.SocialContext
	return types.UserPersonalizationScore{
		PersonalizationInputs: in,
		OverallScore:          overall,
	}
}

// OverallScore blends weather suitability with personalization
func OverallScore(weather, personalization float64) float64 {
	return weatherWeight*weather + personalizationWeight*personalization
}

// Confidence discounts the overall score for every weather dimension that
// fell back to a neutral value
func Confidence(overall float64, fallbacks int) float64 {
	c := overall * math.Pow(fallbackDiscount, float64(fallbacks))
	return math.Max(0, math.Min(1, c))
}

// Generate evaluates every activity on each forecast slot at or after now,
// keeps the best slot per activity, and returns the recommendations sorted by
// overall score with earlier times first on ties. Activities missing from
// inputs use neutral personalization. Without usable forecast slots the day's
// own weather is evaluated at now.
func (g *Generator) Generate(day types.DayRecord, forecast Forecast, inputs map[types.ActivityType]types.PersonalizationInputs, now time.Time) ([]types.Recommendation, error) {
	slots := g.usableSlots(forecast, now)
	if len(slots) == 0 {
		slots = []ForecastSlot{{Time: now, Weather: day.Weather()}}
		g.logger.Debug("No forecast slots ahead, using day weather", "date", day.DateKey())
	}

	activities := types.AllActivityTypes()
	recs := make([]types.Recommendation, 0, len(activities))

	for _, activity := range activities {
		best, bestTime, err := bestSlot(activity, slots)
		if err != nil {
			return nil, err
		}

		in, ok := inputs[activity]
		if !ok {
			in = types.NeutralPersonalization()
		}
		personal := Personalize(in)
		overall := OverallScore(best.OverallScore, personal.OverallScore)

		recs = append(recs, types.Recommendation{
			ID:                 uuid.New(),
			Date:               types.NormalizeDate(day.Date),
			ActivityType:       activity,
			Title:              fmt.Sprintf("%s at %s", activity.DisplayName(), bestTime.Format("15:04")),
			Reason:             Reason(activity, best, day),
			RecommendedTime:    bestTime,
			WeatherSuitability: best,
			Personalization:    personal,
			OverallScore:       overall,
			ConfidenceScore:    Confidence(overall, len(best.Fallbacks)),
			CreatedAt:          now,
		})
	}

	Sort(recs)

	if g.limit > 0 && len(recs) > g.limit {
		recs = recs[:g.limit]
	}

	g.logger.Info("Generated recommendations",
		"date", day.DateKey(),
		"slots", len(slots),
		"count", len(recs))

	return recs, nil
}

// Sort orders recommendations by overall score descending, earlier
// recommended time first on ties
func Sort(recs []types.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].OverallScore != recs[j].OverallScore {
			return recs[i].OverallScore > recs[j].OverallScore
		}
		return recs[i].RecommendedTime.Before(recs[j].RecommendedTime)
	})
}

func (g *Generator) usableSlots(forecast Forecast, now time.Time) []ForecastSlot {
	slots := make([]ForecastSlot, 0, len(forecast))
	for _, s := range forecast {
		if s.Time.Before(now) {
			continue
		}
		if g.horizon > 0 && s.Time.After(now.Add(g.horizon)) {
			continue
		}
		slots = append(slots, s)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
	return slots
}

// bestSlot returns the highest suitability across slots; slots are time
// ordered so the earliest wins a tie
func bestSlot(activity types.ActivityType, slots []ForecastSlot) (types.WeatherSuitability, time.Time, error) {
	var best types.WeatherSuitability
	var bestTime time.Time
	for i, slot := range slots {
		s, err := suitability.Evaluate(activity, slot.Weather)
		if err != nil {
			return types.WeatherSuitability{}, time.Time{}, err
		}
		if i == 0 || s.OverallScore > best.OverallScore {
			best = s
			bestTime = slot.Time
		}
	}
	return best, bestTime, nil
}

// Reason explains a recommendation from its weather breakdown and the day so far
func Reason(activity types.ActivityType, s types.WeatherSuitability, day types.DayRecord) string {
	var parts []string

	switch {
	case activity.IsIndoor() && s.OverallScore >= 0.5:
		parts = append(parts, "Conditions outside favour staying in")
	case s.OverallScore >= 0.8:
		parts = append(parts, "Weather is ideal")
	case s.OverallScore >= 0.5:
		parts = append(parts, "Weather is reasonable")
	default:
		parts = append(parts, "Weather is not ideal")
	}

	if !activity.IsIndoor() {
		if weak := weakestDimension(s); weak != "" {
			parts = append(parts, fmt.Sprintf("%s is the limiting factor", weak))
		}
	}

	switch activity {
	case types.ActivityOutdoorExercise, types.ActivityIndoorExercise:
		if day.PhysicalActivityScore > 0 && day.PhysicalActivityScore < 50 {
			parts = append(parts, fmt.Sprintf("physical activity is low today (%.0f)", day.PhysicalActivityScore))
		}
	case types.ActivitySocial:
		if day.SocialActivityScore > 0 && day.SocialActivityScore < 40 {
			parts = append(parts, "you have had little social contact today")
		}
	case types.ActivityRelaxation:
		if day.ScreenTimeMinutes >= 240 {
			parts = append(parts, fmt.Sprintf("screen time is already %.0f minutes", day.ScreenTimeMinutes))
		}
	case types.ActivityPhotography:
		if day.DaylightHours > 0 {
			parts = append(parts, fmt.Sprintf("%.1f hours of daylight", day.DaylightHours))
		}
	}

	if len(s.Fallbacks) > 0 {
		parts = append(parts, fmt.Sprintf("no forecast for %s", strings.Join(s.Fallbacks, ", ")))
	}

	return strings.Join(parts, "; ")
}

func weakestDimension(s types.WeatherSuitability) string {
	dims := []struct {
		name  string
		value float64
	}{
		{suitability.DimensionTemperature, s.Temperature},
		{suitability.DimensionCondition, s.Condition},
		{suitability.DimensionHumidity, s.Humidity},
		{suitability.DimensionWind, s.Wind},
		{suitability.DimensionUV, s.UV},
	}

	skip := make(map[string]bool, len(s.Fallbacks))
	for _, f := range s.Fallbacks {
		skip[f] = true
	}

	name, lowest := "", 0.8
	for _, d := range dims {
		if !skip[d.name] && d.value < lowest {
			name, lowest = d.name, d.value
		}
	}
	return name
}
