package suitability

import (
	"errors"
	"math"
	"sort"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// NeutralScore replaces a sub-score whose weather input is missing
const NeutralScore = 0.5

// Dimension names used in fallback reports
const (
	DimensionTemperature = "temperature"
	DimensionCondition   = "condition"
	DimensionHumidity    = "humidity"
	DimensionWind        = "wind"
	DimensionUV          = "uv"
)

// Evaluate scores an activity against a weather snapshot and returns the
// per-dimension breakdown. Missing inputs fall back to NeutralScore and are
// listed in Fallbacks. The only error is an unknown activity type.
func Evaluate(activity types.ActivityType, w types.Weather) (types.WeatherSuitability, error) {
	if inv, ok := inverses[activity]; ok {
		ref, err := Evaluate(inv.reference, w)
		if err != nil {
			return types.WeatherSuitability{}, err
		}
		return invert(ref, inv.floor), nil
	}

	p, ok := profiles[activity]
	if !ok {
		return types.WeatherSuitability{}, &types.UnknownEnumVariantError{Enum: "activity type", Value: string(activity)}
	}

	var s types.WeatherSuitability

	if w.Temperature != nil {
		s.Temperature = p.temperature.score(*w.Temperature)
	} else {
		s.Temperature = NeutralScore
		s.Fallbacks = append(s.Fallbacks, DimensionTemperature)
	}

	if w.Condition != types.ConditionUnset {
		s.Condition = p.condition.score(w.Condition)
	} else {
		s.Condition = NeutralScore
		s.Fallbacks = append(s.Fallbacks, DimensionCondition)
	}

	s.Humidity = scoreOrFallback(w.Humidity, p.humidity, DimensionHumidity, &s.Fallbacks)
	s.Wind = scoreOrFallback(w.WindSpeed, p.wind, DimensionWind, &s.Fallbacks)
	s.UV = scoreOrFallback(w.UVIndex, p.uv, DimensionUV, &s.Fallbacks)

	s.OverallScore = combine(s)
	return s, nil
}

// EvaluateSuitability returns just the [0,1] score. When a neutral fallback
// was used the score is valid and the error is a *types.MissingWeatherDataError.
func EvaluateSuitability(activity types.ActivityType, w types.Weather) (float64, error) {
	s, err := Evaluate(activity, w)
	if err != nil {
		return 0, err
	}
	return s.OverallScore, FallbackError(s)
}

// FallbackError reports the fallbacks of a breakdown, or nil if there were none
func FallbackError(s types.WeatherSuitability) error {
	if len(s.Fallbacks) == 0 {
		return nil
	}
	dims := make([]string, len(s.Fallbacks))
	copy(dims, s.Fallbacks)
	return &types.MissingWeatherDataError{Dimensions: dims}
}

// IsFallbackOnly reports whether err only signals neutral fallbacks
func IsFallbackOnly(err error) bool {
	var missing *types.MissingWeatherDataError
	return errors.As(err, &missing)
}

// Ranked pairs an activity with its suitability breakdown
type Ranked struct {
	Activity    types.ActivityType       `json:"activity"`
	Suitability types.WeatherSuitability `json:"suitability"`
}

// Rank evaluates every activity type and sorts them best first. Ties keep
// declaration order.
func Rank(w types.Weather) []Ranked {
	activities := types.AllActivityTypes()
	out := make([]Ranked, 0, len(activities))
	for _, a := range activities {
		s, err := Evaluate(a, w)
		if err != nil {
			continue
		}
		out = append(out, Ranked{Activity: a, Suitability: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Suitability.OverallScore > out[j].Suitability.OverallScore
	})
	return out
}

func scoreOrFallback(v *float64, b bands, dim string, fallbacks *[]string) float64 {
	if v == nil {
		*fallbacks = append(*fallbacks, dim)
		return NeutralScore
	}
	return b.score(*v)
}

func invert(ref types.WeatherSuitability, floor float64) types.WeatherSuitability {
	flip := func(v float64, dim string) float64 {
		for _, f := range ref.Fallbacks {
			if f == dim {
				return NeutralScore
			}
		}
		return floor + (1-floor)*(1-v)
	}

	s := types.WeatherSuitability{
		Temperature: flip(ref.Temperature, DimensionTemperature),
		Condition:   flip(ref.Condition, DimensionCondition),
		Humidity:    flip(ref.Humidity, DimensionHumidity),
		Wind:        flip(ref.Wind, DimensionWind),
		UV:          flip(ref.UV, DimensionUV),
		Fallbacks:   ref.Fallbacks,
	}
	// sub-scores are for display; the overall inverts the reference once
	s.OverallScore = math.Max(0, math.Min(1, floor+(1-floor)*(1-ref.OverallScore)))
	return s
}

func combine(s types.WeatherSuitability) float64 {
	product := s.Temperature * s.Condition * s.Humidity * s.Wind * s.UV
	return math.Max(0, math.Min(1, product))
}
