package types

import "strings"

// WeatherCondition is the closed set of weather conditions understood by the
// scoring engine. Free-text provider conditions are mapped once at ingestion.
type WeatherCondition string

const (
	ConditionUnset        WeatherCondition = ""
	ConditionClear        WeatherCondition = "clear"
	ConditionPartlyCloudy WeatherCondition = "partly_cloudy"
	ConditionCloudy       WeatherCondition = "cloudy"
	ConditionOvercast     WeatherCondition = "overcast"
	ConditionFog          WeatherCondition = "fog"
	ConditionDrizzle      WeatherCondition = "drizzle"
	ConditionRain         WeatherCondition = "rain"
	ConditionHeavyRain    WeatherCondition = "heavy_rain"
	ConditionStorm        WeatherCondition = "storm"
	ConditionSnow         WeatherCondition = "snow"
	ConditionOther        WeatherCondition = "other"
)

// ParseWeatherCondition maps a provider description ("Clear sky", "light
// drizzle", "Thunderstorm with heavy rain") onto the closed condition set.
// Order matters: the most severe match wins.
func ParseWeatherCondition(text string) WeatherCondition {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ConditionUnset
	}

	switch WeatherCondition(s) {
	case ConditionClear, ConditionPartlyCloudy, ConditionCloudy, ConditionOvercast, ConditionFog,
		ConditionDrizzle, ConditionRain, ConditionHeavyRain, ConditionStorm, ConditionSnow, ConditionOther:
		return WeatherCondition(s)
	}

	switch {
	case strings.Contains(s, "storm") || strings.Contains(s, "thunder"):
		return ConditionStorm
	case strings.Contains(s, "heavy rain") || strings.Contains(s, "heavy shower") || strings.Contains(s, "downpour"):
		return ConditionHeavyRain
	case strings.Contains(s, "light rain") || strings.Contains(s, "drizzle") || strings.Contains(s, "light shower"):
		return ConditionDrizzle
	case strings.Contains(s, "rain") || strings.Contains(s, "shower"):
		return ConditionRain
	case strings.Contains(s, "snow") || strings.Contains(s, "sleet"):
		return ConditionSnow
	case strings.Contains(s, "fog") || strings.Contains(s, "mist") || strings.Contains(s, "haze"):
		return ConditionFog
	case strings.Contains(s, "overcast"):
		return ConditionOvercast
	case strings.Contains(s, "partly") || strings.Contains(s, "scattered") || strings.Contains(s, "few clouds"):
		return ConditionPartlyCloudy
	case strings.Contains(s, "cloud"):
		return ConditionCloudy
	case strings.Contains(s, "clear") || strings.Contains(s, "sunny") || strings.Contains(s, "fair"):
		return ConditionClear
	}

	return ConditionOther
}

// Weather is a point-in-time weather snapshot. Nil fields are missing data.
type Weather struct {
	Temperature *float64         `json:"temperature,omitempty"` // °C
	Condition   WeatherCondition `json:"condition,omitempty"`
	Humidity    *float64         `json:"humidity,omitempty"`   // %
	WindSpeed   *float64         `json:"wind_speed,omitempty"` // km/h
	UVIndex     *float64         `json:"uv_index,omitempty"`
}

// Float returns a pointer to v, for building snapshots inline
func Float(v float64) *float64 {
	return &v
}
