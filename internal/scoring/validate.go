package scoring

import (
	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

const minutesPerDay = 1440

// Validate rejects raw inputs outside their physically valid range.
// Values are never clamped here; callers get the first offending field.
func Validate(rec types.DayRecord) error {
	checks := []struct {
		field string
		value float64
		ok    bool
		why   string
	}{
		{"steps", float64(rec.Steps), rec.Steps >= 0, "must not be negative"},
		{"distance_km", rec.DistanceKm, rec.DistanceKm >= 0, "must not be negative"},
		{"active_minutes", rec.ActiveMinutes, rec.ActiveMinutes >= 0 && rec.ActiveMinutes <= minutesPerDay, "must be within [0,1440]"},
		{"places_visited", float64(rec.PlacesVisited), rec.PlacesVisited >= 0, "must not be negative"},
		{"visit_count", float64(rec.VisitCount), rec.VisitCount >= 0, "must not be negative"},
		{"screen_time_minutes", rec.ScreenTimeMinutes, rec.ScreenTimeMinutes >= 0 && rec.ScreenTimeMinutes <= minutesPerDay, "must be within [0,1440]"},
		{"battery_usage_percent", rec.BatteryUsagePercent, rec.BatteryUsagePercent >= 0 && rec.BatteryUsagePercent <= 100, "must be within [0,100]"},
		{"photo_count", float64(rec.PhotoCount), rec.PhotoCount >= 0, "must not be negative"},
	}

	for _, c := range checks {
		if !c.ok {
			return &types.InvalidMetricError{Field: c.field, Value: c.value, Reason: c.why}
		}
	}

	if rec.PhotoScoreOverride != nil && (*rec.PhotoScoreOverride < 0 || *rec.PhotoScoreOverride > 100) {
		return &types.InvalidMetricError{Field: "photo_score_override", Value: *rec.PhotoScoreOverride, Reason: "must be within [0,100]"}
	}

	for mediaType, minutes := range rec.MediaMinutes {
		if minutes < 0 || minutes > minutesPerDay {
			return &types.InvalidMetricError{Field: "media_minutes." + string(mediaType), Value: minutes, Reason: "must be within [0,1440]"}
		}
	}

	return ValidateWeather(rec.Weather(), rec.AirQualityIndex)
}

// ValidateWeather checks the environmental fields of a snapshot
func ValidateWeather(w types.Weather, aqi *float64) error {
	if w.Humidity != nil && (*w.Humidity < 0 || *w.Humidity > 100) {
		return &types.InvalidMetricError{Field: "humidity", Value: *w.Humidity, Reason: "must be within [0,100]"}
	}
	if w.WindSpeed != nil && *w.WindSpeed < 0 {
		return &types.InvalidMetricError{Field: "wind_speed", Value: *w.WindSpeed, Reason: "must not be negative"}
	}
	if w.UVIndex != nil && *w.UVIndex < 0 {
		return &types.InvalidMetricError{Field: "uv_index", Value: *w.UVIndex, Reason: "must not be negative"}
	}
	if w.Temperature != nil && (*w.Temperature < -90 || *w.Temperature > 60) {
		return &types.InvalidMetricError{Field: "temperature", Value: *w.Temperature, Reason: "outside the range of recorded surface temperatures"}
	}
	if aqi != nil && *aqi < 0 {
		return &types.InvalidMetricError{Field: "air_quality_index", Value: *aqi, Reason: "must not be negative"}
	}
	return nil
}
