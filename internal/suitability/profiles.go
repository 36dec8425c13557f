package suitability

import (
	"math"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// band applies factor to values strictly below limit
type band struct {
	limit  float64
	factor float64
}

// bands must be ordered by limit; the last entry should use math.Inf(1)
type bands []band

func (b bands) score(v float64) float64 {
	for _, entry := range b {
		if v < entry.limit {
			return entry.factor
		}
	}
	return b[len(b)-1].factor
}

var flat = bands{{math.Inf(1), 1.0}}

// outerBand applies factor when the temperature lies within `within` degrees
// outside the optimal range
type outerBand struct {
	within float64
	factor float64
}

type temperatureProfile struct {
	optimalMin float64
	optimalMax float64
	outer      [3]outerBand
}

func (p temperatureProfile) score(t float64) float64 {
	var distance float64
	switch {
	case t < p.optimalMin:
		distance = p.optimalMin - t
	case t > p.optimalMax:
		distance = t - p.optimalMax
	default:
		return 1.0
	}
	for _, o := range p.outer {
		if distance <= o.within {
			return o.factor
		}
	}
	return p.outer[2].factor
}

// conditionProfile holds one multiplier per condition bucket
type conditionProfile struct {
	clear     float64
	cloudy    float64
	lightRain float64
	rain      float64
	fog       float64
}

func (p conditionProfile) score(c types.WeatherCondition) float64 {
	switch c {
	case types.ConditionClear:
		return p.clear
	case types.ConditionPartlyCloudy, types.ConditionCloudy, types.ConditionOvercast:
		return p.cloudy
	case types.ConditionDrizzle:
		return p.lightRain
	case types.ConditionRain, types.ConditionHeavyRain, types.ConditionStorm:
		return p.rain
	case types.ConditionFog:
		return p.fog
	default:
		return 1.0
	}
}

type profile struct {
	temperature temperatureProfile
	condition   conditionProfile
	humidity    bands
	wind        bands
	uv          bands
}

// inverse makes an activity more suitable as the reference outdoor activity
// becomes less suitable. The overall score is floor + (1-floor)*(1-ref) on the
// reference's overall score; sub-scores are flipped the same way for display.
type inverse struct {
	reference types.ActivityType
	floor     float64
}

var inf = math.Inf(1)

var profiles = map[types.ActivityType]profile{
	types.ActivityOutdoorExercise: {
		temperature: temperatureProfile{15, 25, [3]outerBand{{5, 0.8}, {10, 0.5}, {inf, 0.3}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.9, lightRain: 0.6, rain: 0.3, fog: 0.7},
		humidity:    bands{{30, 0.9}, {70, 1.0}, {85, 0.8}, {inf, 0.6}},
		wind:        bands{{15, 1.0}, {25, 0.8}, {inf, 0.5}},
		uv:          bands{{6, 1.0}, {8, 0.8}, {11, 0.6}, {inf, 0.4}},
	},
	types.ActivityOutdoorLeisure: {
		temperature: temperatureProfile{18, 28, [3]outerBand{{5, 0.8}, {10, 0.5}, {inf, 0.3}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.85, lightRain: 0.5, rain: 0.2, fog: 0.6},
		humidity:    bands{{30, 0.95}, {70, 1.0}, {85, 0.85}, {inf, 0.7}},
		wind:        bands{{20, 1.0}, {35, 0.75}, {inf, 0.4}},
		uv:          bands{{7, 1.0}, {9, 0.8}, {inf, 0.6}},
	},
	types.ActivitySocial: {
		temperature: temperatureProfile{10, 28, [3]outerBand{{5, 0.9}, {10, 0.7}, {inf, 0.5}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.95, lightRain: 0.8, rain: 0.6, fog: 0.85},
		humidity:    bands{{80, 1.0}, {inf, 0.9}},
		wind:        bands{{30, 1.0}, {50, 0.85}, {inf, 0.7}},
		uv:          bands{{11, 1.0}, {inf, 0.9}},
	},
	types.ActivityWork: {
		temperature: temperatureProfile{-5, 35, [3]outerBand{{5, 0.95}, {10, 0.9}, {inf, 0.85}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 1.0, lightRain: 0.95, rain: 0.9, fog: 0.95},
		humidity:    flat,
		wind:        bands{{50, 1.0}, {inf, 0.9}},
		uv:          flat,
	},
	types.ActivityRecreational: {
		temperature: temperatureProfile{12, 28, [3]outerBand{{5, 0.85}, {10, 0.6}, {inf, 0.4}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.9, lightRain: 0.7, rain: 0.5, fog: 0.75},
		humidity:    bands{{75, 1.0}, {90, 0.85}, {inf, 0.7}},
		wind:        bands{{25, 1.0}, {40, 0.8}, {inf, 0.6}},
		uv:          bands{{8, 1.0}, {11, 0.85}, {inf, 0.7}},
	},
	types.ActivityRelaxation: {
		temperature: temperatureProfile{16, 26, [3]outerBand{{6, 0.9}, {12, 0.8}, {inf, 0.7}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.95, lightRain: 0.9, rain: 0.85, fog: 0.9},
		humidity:    bands{{70, 1.0}, {inf, 0.9}},
		wind:        bands{{30, 1.0}, {inf, 0.9}},
		uv:          bands{{8, 1.0}, {inf, 0.9}},
	},
	types.ActivityTravel: {
		temperature: temperatureProfile{10, 30, [3]outerBand{{5, 0.85}, {10, 0.65}, {inf, 0.45}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.95, lightRain: 0.75, rain: 0.5, fog: 0.55},
		humidity:    bands{{80, 1.0}, {inf, 0.85}},
		wind:        bands{{30, 1.0}, {50, 0.75}, {inf, 0.5}},
		uv:          bands{{9, 1.0}, {inf, 0.85}},
	},
	types.ActivityPhotography: {
		temperature: temperatureProfile{5, 30, [3]outerBand{{5, 0.9}, {10, 0.75}, {inf, 0.5}}},
		condition:   conditionProfile{clear: 1.0, cloudy: 0.85, lightRain: 0.6, rain: 0.3, fog: 0.8},
		humidity:    bands{{85, 1.0}, {inf, 0.8}},
		wind:        bands{{20, 1.0}, {35, 0.85}, {inf, 0.6}},
		uv:          flat,
	},
}

var inverses = map[types.ActivityType]inverse{
	types.ActivityIndoorExercise:   {reference: types.ActivityOutdoorExercise, floor: 0.7},
	types.ActivityIndoorActivities: {reference: types.ActivityOutdoorLeisure, floor: 0.75},
}
