package scoring

import (
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

const (
	// MinMultiplier and MaxMultiplier bound the environmental multiplier
	MinMultiplier = 0.3
	MaxMultiplier = 1.5
)

// EnvironmentalFactors are the inputs of the multiplier. Impact values of
// zero or below are treated as unset and skipped.
type EnvironmentalFactors struct {
	AirQualityImpact   float64
	MoonPhaseImpact    float64
	UVImpact           float64
	CircadianAlignment float64
	Condition          types.WeatherCondition
}

// FactorsFromDay extracts the multiplier inputs from a day record
func FactorsFromDay(rec types.DayRecord) EnvironmentalFactors {
	return EnvironmentalFactors{
		AirQualityImpact:   rec.AirQualityImpact,
		MoonPhaseImpact:    rec.MoonPhaseImpact,
		UVImpact:           rec.UVImpact,
		CircadianAlignment: rec.CircadianAlignment,
		Condition:          rec.Condition,
	}
}

// ConditionFactor is the discrete weather-condition multiplier
func ConditionFactor(c types.WeatherCondition) float64 {
	switch c {
	case types.ConditionClear:
		return 1.1
	case types.ConditionOvercast, types.ConditionFog:
		return 0.9
	case types.ConditionHeavyRain, types.ConditionStorm:
		return 0.7
	default:
		return 1.0
	}
}

// EnvironmentalMultiplier combines the impact factors multiplicatively and
// clamps the result to [MinMultiplier, MaxMultiplier].
func EnvironmentalMultiplier(f EnvironmentalFactors) float64 {
	m := 1.0
	for _, impact := range []float64{f.AirQualityImpact, f.MoonPhaseImpact, f.UVImpact, f.CircadianAlignment} {
		if impact > 0 {
			m *= impact
		}
	}
	m *= ConditionFactor(f.Condition)
	return clamp(m, MinMultiplier, MaxMultiplier)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
